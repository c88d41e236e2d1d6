package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/allisson/provenance/internal/app"
	"github.com/allisson/provenance/internal/config"
)

// RunGetEvent retrieves and decrypts the provenance event stored under the
// given key and writes it to the output.
func RunGetEvent(ctx context.Context, key, format string, io IOTuple) error {
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

	event, err := useCase.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to get event: %w", err)
	}

	if format == "json" {
		encoder := json.NewEncoder(io.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(event)
	}

	fmt.Fprintf(io.Writer, "Key:        %s\n", key)
	fmt.Fprintf(io.Writer, "Product ID: %s\n", event.ProductID)
	fmt.Fprintf(io.Writer, "Timestamp:  %s\n", event.Timestamp)
	fmt.Fprintf(io.Writer, "Location:   %s\n", event.Location)
	fmt.Fprintf(io.Writer, "Owner:      %s\n", event.Owner)
	return nil
}
