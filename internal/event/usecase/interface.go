// Package usecase implements the provenance event pipeline: validation,
// envelope sealing, durable local storage and asynchronous replication.
package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/allisson/provenance/internal/dispatch"
	eventDomain "github.com/allisson/provenance/internal/event/domain"
)

// EventRepository defines durable key→envelope storage operations.
type EventRepository interface {
	// Upsert inserts or replaces the envelope stored under key.
	Upsert(ctx context.Context, key string, envelope []byte) error

	// Get retrieves the envelope stored under key (ErrEventNotFound if absent).
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the envelope stored under key (ErrEventNotFound if absent).
	Delete(ctx context.Context, key string) error

	// Close releases the repository; idempotent.
	Close() error
}

// Publisher defines the external content-addressed publish collaborator.
type Publisher interface {
	// Publish offers the event to the distributed store and returns its content id.
	Publish(ctx context.Context, event *eventDomain.Event) (string, error)
}

// EventUseCase defines the end-to-end pipeline operations for provenance events.
type EventUseCase interface {
	// Record validates, seals and durably stores the event under key, then
	// enqueues a replication job. Returns the replication task id.
	Record(ctx context.Context, key string, event *eventDomain.Event) (uuid.UUID, error)

	// Get retrieves, authenticates and decodes the event stored under key.
	Get(ctx context.Context, key string) (*eventDomain.Event, error)

	// Delete removes the event stored under key.
	Delete(ctx context.Context, key string) error

	// Flush waits for all outstanding replication jobs and returns their outcomes.
	Flush() []dispatch.Outcome

	// Shutdown drains replication and closes the record store, in that order.
	Shutdown(ctx context.Context) error
}
