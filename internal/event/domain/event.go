// Package domain defines the core domain models for supply-chain provenance events.
// An event captures a custody observation for a product at a point in time and is
// immutable once validated; only its sealed envelope form is ever persisted.
package domain

import (
	"encoding/json"

	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/provenance/internal/validation"
)

// Event represents a single provenance observation in a product's chain of custody.
type Event struct {
	// ProductID identifies the product the observation belongs to.
	ProductID string `json:"product_id"`
	// Timestamp is the observation time as an RFC 3339 string.
	Timestamp string `json:"timestamp"`
	// Location is the site where the observation was made (e.g., "Warehouse A").
	Location string `json:"location"`
	// Owner is the party holding custody at observation time.
	Owner string `json:"owner"`
}

// Validate checks that the event is well formed.
// ProductID and Timestamp are mandatory; the timestamp must parse as RFC 3339.
func (e *Event) Validate() error {
	err := validation.ValidateStruct(e,
		validation.Field(&e.ProductID, validation.Required, customValidation.NotBlank),
		validation.Field(&e.Timestamp, validation.Required, customValidation.RFC3339Timestamp),
		validation.Field(&e.Location, customValidation.NotBlank),
		validation.Field(&e.Owner, customValidation.NotBlank),
	)
	if err != nil {
		return ErrInvalidEvent(err)
	}
	return nil
}

// CanonicalBytes returns the deterministic byte form of the event.
//
// encoding/json emits struct fields in declaration order, so the same event
// always serializes to the same bytes; decryption followed by
// EventFromCanonicalBytes reproduces the identical event.
func (e *Event) CanonicalBytes() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromCanonicalBytes decodes the canonical byte form back into an Event.
func EventFromCanonicalBytes(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, ErrInvalidEvent(err)
	}
	return &event, nil
}
