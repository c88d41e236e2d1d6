// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	eventDomain "github.com/allisson/provenance/internal/event/domain"
)

// RecordEventResponse acknowledges a recorded event.
// The task id identifies the replication job whose outcome is observable
// when the pipeline is flushed.
type RecordEventResponse struct {
	Key    string `json:"key"`
	TaskID string `json:"task_id"`
}

// EventResponse represents a decrypted provenance event in API responses.
type EventResponse struct {
	Key       string `json:"key"`
	ProductID string `json:"product_id"`
	Timestamp string `json:"timestamp"`
	Location  string `json:"location"`
	Owner     string `json:"owner"`
}

// MapEventToResponse converts a domain event to an API response.
func MapEventToResponse(key string, event *eventDomain.Event) EventResponse {
	return EventResponse{
		Key:       key,
		ProductID: event.ProductID,
		Timestamp: event.Timestamp,
		Location:  event.Location,
		Owner:     event.Owner,
	}
}
