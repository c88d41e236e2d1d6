// Package integration provides end-to-end tests for the provenance event API.
// The full pipeline runs against a real SQLite database and a stub
// content-addressed storage gateway; only the network edges are faked.
package integration

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/provenance/internal/app"
	"github.com/allisson/provenance/internal/config"
	"github.com/allisson/provenance/internal/event/http/dto"
)

// testContext holds the assembled application and its fake gateway.
type testContext struct {
	container *app.Container
	server    *httptest.Server
	gateway   *httptest.Server
	published *atomic.Int64
}

// setupTest wires a full application against a temporary SQLite database and a
// stub gateway that acknowledges every publish.
func setupTest(t *testing.T) *testContext {
	t.Helper()
	gin.SetMode(gin.TestMode)

	published := &atomic.Int64{}
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		published.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"Name": "event.json",
			"Hash": "bafy-test-content-id",
		})
	}))
	t.Cleanup(gateway.Close)

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "provenance.db"))
	t.Setenv("ENCRYPTION_KEY", base64.StdEncoding.EncodeToString(key))
	t.Setenv("ENCRYPTION_ALGORITHM", "aes-gcm")
	t.Setenv("PUBLISHER_GATEWAY_URL", gateway.URL)
	t.Setenv("DISPATCHER_WORKERS", "2")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("METRICS_ENABLED", "false")

	cfg := config.Load()
	require.NoError(t, cfg.Validate())

	container := app.NewContainer(cfg)
	httpServer, err := container.HTTPServer()
	require.NoError(t, err)

	server := httptest.NewServer(httpServer.GetHandler())
	t.Cleanup(server.Close)
	t.Cleanup(func() {
		require.NoError(t, container.Shutdown(context.Background()))
	})

	return &testContext{
		container: container,
		server:    server,
		gateway:   gateway,
		published: published,
	}
}

// makeRequest performs an HTTP request and returns the response and body.
func (tc *testContext) makeRequest(
	t *testing.T,
	method, path string,
	body interface{},
) (*http.Response, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, tc.server.URL+path, bodyReader)
	require.NoError(t, err, "failed to create request")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err, "failed to perform request")

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	require.NoError(t, resp.Body.Close())

	return resp, respBody
}

// waitForReplication drains the pipeline so publish outcomes are observable.
func (tc *testContext) waitForReplication(t *testing.T) {
	t.Helper()

	useCase, err := tc.container.EventUseCase()
	require.NoError(t, err)
	useCase.Flush()
}

func TestRecordAndGetEvent(t *testing.T) {
	tc := setupTest(t)

	record := dto.RecordEventRequest{
		ProductID: "P1",
		Timestamp: "2025-01-06T10:00:00Z",
		Location:  "Warehouse A",
		Owner:     "Company X",
	}

	resp, body := tc.makeRequest(t, http.MethodPut, "/v1/events/sku-42", record)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var recordResp dto.RecordEventResponse
	require.NoError(t, json.Unmarshal(body, &recordResp))
	assert.Equal(t, "sku-42", recordResp.Key)
	assert.NotEmpty(t, recordResp.TaskID)

	tc.waitForReplication(t)
	assert.Equal(t, int64(1), tc.published.Load())

	resp, body = tc.makeRequest(t, http.MethodGet, "/v1/events/sku-42", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var eventResp dto.EventResponse
	require.NoError(t, json.Unmarshal(body, &eventResp))
	assert.Equal(t, "sku-42", eventResp.Key)
	assert.Equal(t, "P1", eventResp.ProductID)
	assert.Equal(t, "2025-01-06T10:00:00Z", eventResp.Timestamp)
	assert.Equal(t, "Warehouse A", eventResp.Location)
	assert.Equal(t, "Company X", eventResp.Owner)
}

func TestRecordReplacesExistingEvent(t *testing.T) {
	tc := setupTest(t)

	first := dto.RecordEventRequest{
		ProductID: "P1",
		Timestamp: "2025-01-06T10:00:00Z",
		Owner:     "Company X",
	}
	resp, body := tc.makeRequest(t, http.MethodPut, "/v1/events/sku-42", first)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	second := first
	second.Owner = "Company Y"
	resp, body = tc.makeRequest(t, http.MethodPut, "/v1/events/sku-42", second)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	tc.waitForReplication(t)

	resp, body = tc.makeRequest(t, http.MethodGet, "/v1/events/sku-42", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var eventResp dto.EventResponse
	require.NoError(t, json.Unmarshal(body, &eventResp))
	assert.Equal(t, "Company Y", eventResp.Owner)
}

func TestGetMissingEvent(t *testing.T) {
	tc := setupTest(t)

	resp, _ := tc.makeRequest(t, http.MethodGet, "/v1/events/never-recorded", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecordInvalidEvent(t *testing.T) {
	tc := setupTest(t)

	invalid := dto.RecordEventRequest{
		ProductID: "P1",
		Timestamp: "yesterday",
	}

	resp, _ := tc.makeRequest(t, http.MethodPut, "/v1/events/sku-42", invalid)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Nothing is stored or replicated for an invalid event.
	resp, _ = tc.makeRequest(t, http.MethodGet, "/v1/events/sku-42", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int64(0), tc.published.Load())
}

func TestDeleteEvent(t *testing.T) {
	tc := setupTest(t)

	record := dto.RecordEventRequest{
		ProductID: "P1",
		Timestamp: "2025-01-06T10:00:00Z",
	}
	resp, _ := tc.makeRequest(t, http.MethodPut, "/v1/events/sku-42", record)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	tc.waitForReplication(t)

	resp, _ = tc.makeRequest(t, http.MethodDelete, "/v1/events/sku-42", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = tc.makeRequest(t, http.MethodGet, "/v1/events/sku-42", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = tc.makeRequest(t, http.MethodDelete, "/v1/events/sku-42", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	tc := setupTest(t)

	resp, body := tc.makeRequest(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "healthy")
}

func TestRecordsAcrossMultipleKeys(t *testing.T) {
	tc := setupTest(t)

	const events = 10
	for i := 0; i < events; i++ {
		record := dto.RecordEventRequest{
			ProductID: "P1",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		resp, _ := tc.makeRequest(t, http.MethodPut, "/v1/events/sku-"+string(rune('a'+i)), record)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	tc.waitForReplication(t)
	assert.Equal(t, int64(events), tc.published.Load())

	for i := 0; i < events; i++ {
		resp, _ := tc.makeRequest(t, http.MethodGet, "/v1/events/sku-"+string(rune('a'+i)), nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}
}
