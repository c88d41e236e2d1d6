package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/provenance/internal/dispatch"
	eventDomain "github.com/allisson/provenance/internal/event/domain"
	"github.com/allisson/provenance/internal/metrics"
)

// eventUseCaseWithMetrics decorates EventUseCase with metrics instrumentation.
type eventUseCaseWithMetrics struct {
	next    EventUseCase
	metrics metrics.BusinessMetrics
}

// NewEventUseCaseWithMetrics wraps an EventUseCase with metrics recording.
func NewEventUseCaseWithMetrics(useCase EventUseCase, m metrics.BusinessMetrics) EventUseCase {
	return &eventUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Record records metrics for pipeline record operations.
func (e *eventUseCaseWithMetrics) Record(
	ctx context.Context,
	key string,
	event *eventDomain.Event,
) (uuid.UUID, error) {
	start := time.Now()
	taskID, err := e.next.Record(ctx, key, event)

	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "event", "event_record", status)
	e.metrics.RecordDuration(ctx, "event", "event_record", time.Since(start), status)

	return taskID, err
}

// Get records metrics for event retrieval operations.
func (e *eventUseCaseWithMetrics) Get(ctx context.Context, key string) (*eventDomain.Event, error) {
	start := time.Now()
	event, err := e.next.Get(ctx, key)

	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "event", "event_get", status)
	e.metrics.RecordDuration(ctx, "event", "event_get", time.Since(start), status)

	return event, err
}

// Delete records metrics for event deletion operations.
func (e *eventUseCaseWithMetrics) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := e.next.Delete(ctx, key)

	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "event", "event_delete", status)
	e.metrics.RecordDuration(ctx, "event", "event_delete", time.Since(start), status)

	return err
}

// Flush passes through; replication outcomes are counted individually.
func (e *eventUseCaseWithMetrics) Flush() []dispatch.Outcome {
	outcomes := e.next.Flush()

	for _, outcome := range outcomes {
		status := "success"
		if !outcome.Success() {
			status = "error"
		}
		e.metrics.RecordOperation(context.Background(), "event", "event_replicate", status)
	}

	return outcomes
}

// Shutdown passes through without instrumentation.
func (e *eventUseCaseWithMetrics) Shutdown(ctx context.Context) error {
	return e.next.Shutdown(ctx)
}
