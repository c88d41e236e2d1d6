// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	eventDomain "github.com/allisson/provenance/internal/event/domain"
	customValidation "github.com/allisson/provenance/internal/validation"
)

// RecordEventRequest contains the parameters for recording a provenance event.
// The storage key is extracted from the URL parameter, not the request body.
type RecordEventRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Timestamp string `json:"timestamp" binding:"required"`
	Location  string `json:"location"`
	Owner     string `json:"owner"`
}

// Validate checks if the record event request is valid.
func (r *RecordEventRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.ProductID, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Timestamp, validation.Required, customValidation.RFC3339Timestamp),
		validation.Field(&r.Location, customValidation.NotBlank),
		validation.Field(&r.Owner, customValidation.NotBlank),
	)
}

// ToDomain converts the request into a domain event.
func (r *RecordEventRequest) ToDomain() *eventDomain.Event {
	return &eventDomain.Event{
		ProductID: r.ProductID,
		Timestamp: r.Timestamp,
		Location:  r.Location,
		Owner:     r.Owner,
	}
}
