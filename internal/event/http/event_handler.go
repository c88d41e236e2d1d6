// Package http provides HTTP handlers for recording and retrieving provenance events.
// Events are sealed with authenticated encryption before they reach storage; the
// handlers only ever see plaintext on the way in and after authenticated decryption.
package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/allisson/provenance/internal/event/http/dto"
	eventUseCase "github.com/allisson/provenance/internal/event/usecase"
	"github.com/allisson/provenance/internal/httputil"
	customValidation "github.com/allisson/provenance/internal/validation"
)

// EventHandler handles HTTP requests for provenance event operations.
type EventHandler struct {
	eventUseCase eventUseCase.EventUseCase
	logger       *slog.Logger
}

// NewEventHandler creates a new event handler with required dependencies.
func NewEventHandler(useCase eventUseCase.EventUseCase, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		eventUseCase: useCase,
		logger:       logger,
	}
}

// RecordHandler records a provenance event under the given storage key.
// PUT /v1/events/*key
// Returns 201 Created with the replication task id once the event is locally durable.
func (h *EventHandler) RecordHandler(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("key cannot be empty"), h.logger)
		return
	}

	var req dto.RecordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	taskID, err := h.eventUseCase.Record(c.Request.Context(), key, req.ToDomain())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.RecordEventResponse{
		Key:    key,
		TaskID: taskID.String(),
	})
}

// GetHandler retrieves and decrypts the event stored under the given key.
// GET /v1/events/*key
func (h *EventHandler) GetHandler(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("key cannot be empty"), h.logger)
		return
	}

	event, err := h.eventUseCase.Get(c.Request.Context(), key)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEventToResponse(key, event))
}

// DeleteHandler removes the event stored under the given key.
// DELETE /v1/events/*key
func (h *EventHandler) DeleteHandler(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("key cannot be empty"), h.logger)
		return
	}

	if err := h.eventUseCase.Delete(c.Request.Context(), key); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}
