// Package domain defines core domain models and errors for provenance events.
package domain

import (
	"github.com/allisson/provenance/internal/errors"
)

// Event-specific error definitions.
var (
	// ErrEventNotFound indicates no envelope exists under the requested key.
	ErrEventNotFound = errors.Wrap(errors.ErrNotFound, "event not found")

	// ErrStoreClosed indicates the record store handle has already been closed.
	ErrStoreClosed = errors.Wrap(errors.ErrInvalidState, "record store is closed")
)

// ErrInvalidEvent wraps a validation or decoding failure as domain ErrInvalidInput.
func ErrInvalidEvent(err error) error {
	return errors.Wrap(errors.ErrInvalidInput, "invalid event: "+err.Error())
}
