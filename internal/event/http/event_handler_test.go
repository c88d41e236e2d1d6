package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/allisson/provenance/internal/dispatch"
	eventDomain "github.com/allisson/provenance/internal/event/domain"
	eventHTTP "github.com/allisson/provenance/internal/event/http"
)

type mockEventUseCase struct {
	mock.Mock
}

func (m *mockEventUseCase) Record(ctx context.Context, key string, event *eventDomain.Event) (uuid.UUID, error) {
	args := m.Called(ctx, key, event)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *mockEventUseCase) Get(ctx context.Context, key string) (*eventDomain.Event, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*eventDomain.Event), args.Error(1)
}

func (m *mockEventUseCase) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *mockEventUseCase) Flush() []dispatch.Outcome {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]dispatch.Outcome)
}

func (m *mockEventUseCase) Shutdown(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func setupRouter(useCase *mockEventUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)

	handler := eventHTTP.NewEventHandler(useCase, nil)
	router := gin.New()
	router.PUT("/v1/events/*key", handler.RecordHandler)
	router.GET("/v1/events/*key", handler.GetHandler)
	router.DELETE("/v1/events/*key", handler.DeleteHandler)
	return router
}

func TestEventHandler_Record(t *testing.T) {
	useCase := &mockEventUseCase{}
	router := setupRouter(useCase)

	taskID := uuid.Must(uuid.NewV7())
	useCase.On("Record", mock.Anything, "sku-42", &eventDomain.Event{
		ProductID: "P1",
		Timestamp: "2025-01-06T10:00:00Z",
		Location:  "Warehouse A",
		Owner:     "Company X",
	}).Return(taskID, nil)

	body := `{
		"product_id": "P1",
		"timestamp": "2025-01-06T10:00:00Z",
		"location": "Warehouse A",
		"owner": "Company X"
	}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/v1/events/sku-42", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sku-42", resp["key"])
	assert.Equal(t, taskID.String(), resp["task_id"])
	useCase.AssertExpectations(t)
}

func TestEventHandler_RecordMalformedJSON(t *testing.T) {
	useCase := &mockEventUseCase{}
	router := setupRouter(useCase)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/v1/events/sku-42", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	useCase.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
}

func TestEventHandler_RecordValidationFailure(t *testing.T) {
	useCase := &mockEventUseCase{}
	router := setupRouter(useCase)

	body := `{"product_id": "P1", "timestamp": "not-a-timestamp"}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/v1/events/sku-42", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	useCase.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
}

func TestEventHandler_Get(t *testing.T) {
	useCase := &mockEventUseCase{}
	router := setupRouter(useCase)

	useCase.On("Get", mock.Anything, "sku-42").Return(&eventDomain.Event{
		ProductID: "P1",
		Timestamp: "2025-01-06T10:00:00Z",
		Location:  "Warehouse A",
		Owner:     "Company X",
	}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/events/sku-42", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sku-42", resp["key"])
	assert.Equal(t, "P1", resp["product_id"])
	assert.Equal(t, "Warehouse A", resp["location"])
}

func TestEventHandler_GetNotFound(t *testing.T) {
	useCase := &mockEventUseCase{}
	router := setupRouter(useCase)

	useCase.On("Get", mock.Anything, "missing").Return(nil, eventDomain.ErrEventNotFound)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/events/missing", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEventHandler_GetStoreClosed(t *testing.T) {
	useCase := &mockEventUseCase{}
	router := setupRouter(useCase)

	useCase.On("Get", mock.Anything, "sku-42").Return(nil, eventDomain.ErrStoreClosed)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/events/sku-42", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestEventHandler_Delete(t *testing.T) {
	useCase := &mockEventUseCase{}
	router := setupRouter(useCase)

	useCase.On("Delete", mock.Anything, "sku-42").Return(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/v1/events/sku-42", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestEventHandler_DeleteNotFound(t *testing.T) {
	useCase := &mockEventUseCase{}
	router := setupRouter(useCase)

	useCase.On("Delete", mock.Anything, "missing").Return(eventDomain.ErrEventNotFound)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/v1/events/missing", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEventHandler_NestedKeys(t *testing.T) {
	useCase := &mockEventUseCase{}
	router := setupRouter(useCase)

	taskID := uuid.Must(uuid.NewV7())
	useCase.On("Record", mock.Anything, "warehouse-a/sku-42", mock.Anything).Return(taskID, nil)

	body := `{"product_id": "P1", "timestamp": "2025-01-06T10:00:00Z"}`

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/v1/events/warehouse-a/sku-42", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	useCase.AssertExpectations(t)
}
