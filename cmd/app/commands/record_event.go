package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/allisson/provenance/internal/app"
	"github.com/allisson/provenance/internal/config"
	eventDomain "github.com/allisson/provenance/internal/event/domain"
)

// RunRecordEvent records a single provenance event under the given key and
// waits for the replication job to finish before exiting. The timestamp
// defaults to the current time in RFC 3339 when empty.
func RunRecordEvent(
	ctx context.Context,
	key, productID, timestamp, location, owner, format string,
	io IOTuple,
) error {
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

	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	event := &eventDomain.Event{
		ProductID: productID,
		Timestamp: timestamp,
		Location:  location,
		Owner:     owner,
	}

	taskID, err := useCase.Record(ctx, key, event)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	outcomes := useCase.Flush()
	for _, outcome := range outcomes {
		if !outcome.Success() {
			logger.Warn("replication failed",
				"task_id", outcome.TaskID.String(),
				"error", outcome.Err,
			)
		}
	}

	if format == "json" {
		result := map[string]string{
			"key":     key,
			"task_id": taskID.String(),
		}
		encoder := json.NewEncoder(io.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	fmt.Fprintf(io.Writer, "Event recorded under key %q (replication task %s)\n", key, taskID)
	return nil
}
