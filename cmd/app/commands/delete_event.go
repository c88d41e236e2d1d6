package commands

import (
	"context"
	"fmt"

	"github.com/allisson/provenance/internal/app"
	"github.com/allisson/provenance/internal/config"
)

// RunDeleteEvent removes the provenance event stored under the given key.
func RunDeleteEvent(ctx context.Context, key string, io IOTuple) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	useCase, err := container.EventUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	if err := useCase.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	fmt.Fprintf(io.Writer, "Event deleted under key %q\n", key)
	return nil
}
