package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	cryptoService "github.com/allisson/provenance/internal/crypto/service"
	"github.com/allisson/provenance/internal/database"
	"github.com/allisson/provenance/internal/dispatch"
	eventDomain "github.com/allisson/provenance/internal/event/domain"
)

// eventUseCase implements the EventUseCase interface.
//
// The encrypt/store sequence for a single record is synchronous relative to its
// caller; independent records may be recorded concurrently. Replication runs on
// the dispatcher and its failures never invalidate the already-durable local
// entry: local durability and distributed replication are independent failure
// domains.
type eventUseCase struct {
	txManager  database.TxManager
	eventRepo  EventRepository
	cipher     *cryptoService.EnvelopeCipher
	dispatcher *dispatch.Dispatcher
	publisher  Publisher
	logger     *slog.Logger
}

// NewEventUseCase creates the pipeline orchestrator with its collaborators.
func NewEventUseCase(
	txManager database.TxManager,
	eventRepo EventRepository,
	cipher *cryptoService.EnvelopeCipher,
	dispatcher *dispatch.Dispatcher,
	publisher Publisher,
	logger *slog.Logger,
) EventUseCase {
	return &eventUseCase{
		txManager:  txManager,
		eventRepo:  eventRepo,
		cipher:     cipher,
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
	}
}

// Record runs the secure record pipeline for one event.
//
// The local upsert must complete before success is reported; that durability is
// the at-least-once guarantee offered before replication is attempted. Cipher
// and store errors propagate unchanged to the caller.
func (u *eventUseCase) Record(
	ctx context.Context,
	key string,
	event *eventDomain.Event,
) (uuid.UUID, error) {
	if err := event.Validate(); err != nil {
		return uuid.Nil, err
	}

	plaintext, err := event.CanonicalBytes()
	if err != nil {
		return uuid.Nil, err
	}

	envelope, err := u.cipher.Seal(plaintext)
	if err != nil {
		return uuid.Nil, err
	}

	// Same-key writers serialize through the transaction; readers never
	// observe a partially written envelope.
	err = u.txManager.WithTx(ctx, func(txCtx context.Context) error {
		return u.eventRepo.Upsert(txCtx, key, envelope)
	})
	if err != nil {
		return uuid.Nil, err
	}

	// Replication carries the validated event itself, never reconstructed
	// field values. Fire-and-forget: the outcome is observable via Flush.
	taskID, err := u.dispatcher.Submit(func(jobCtx context.Context) error {
		contentID, pubErr := u.publisher.Publish(jobCtx, event)
		if pubErr != nil {
			return pubErr
		}
		if u.logger != nil {
			u.logger.Info("event replicated",
				slog.String("key", key),
				slog.String("product_id", event.ProductID),
				slog.String("content_id", contentID),
			)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	return taskID, nil
}

// Get retrieves the envelope under key, authenticates and decrypts it, and
// decodes the canonical bytes back into an event.
func (u *eventUseCase) Get(ctx context.Context, key string) (*eventDomain.Event, error) {
	envelope, err := u.eventRepo.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	plaintext, err := u.cipher.Open(envelope)
	if err != nil {
		return nil, err
	}

	return eventDomain.EventFromCanonicalBytes(plaintext)
}

// Delete removes the event stored under key.
func (u *eventUseCase) Delete(ctx context.Context, key string) error {
	return u.eventRepo.Delete(ctx, key)
}

// Flush blocks until all outstanding replication jobs finish and returns their
// outcomes; the pending set is cleared afterward.
func (u *eventUseCase) Flush() []dispatch.Outcome {
	return u.dispatcher.WaitAll()
}

// Shutdown drains the dispatcher before closing the record store, so no
// in-flight replication job observes a closed store.
func (u *eventUseCase) Shutdown(ctx context.Context) error {
	outcomes := u.dispatcher.WaitAll()
	u.dispatcher.Close()

	for _, outcome := range outcomes {
		if !outcome.Success() && u.logger != nil {
			u.logger.Error("replication job failed",
				slog.String("task_id", outcome.TaskID.String()),
				slog.Any("error", outcome.Err),
			)
		}
	}

	return u.eventRepo.Close()
}
