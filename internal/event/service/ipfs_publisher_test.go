package service_test

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	eventDomain "github.com/allisson/provenance/internal/event/domain"
	"github.com/allisson/provenance/internal/event/service"
)

func sampleEvent() *eventDomain.Event {
	return &eventDomain.Event{
		ProductID: "P1",
		Timestamp: "2025-01-06T10:00:00Z",
		Location:  "Warehouse A",
		Owner:     "Company X",
	}
}

func TestIPFSPublisher_Publish(t *testing.T) {
	event := sampleEvent()
	expected, err := event.CanonicalBytes()
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v0/add", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("cid-version"))

		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		assert.Equal(t, "multipart/form-data", mediaType)

		reader, err := r.MultipartReader()
		require.NoError(t, err)

		part, err := reader.NextPart()
		require.NoError(t, err)
		assert.Equal(t, "file", part.FormName())

		payload, err := io.ReadAll(part)
		require.NoError(t, err)
		assert.Equal(t, expected, payload)

		_ = json.NewEncoder(w).Encode(map[string]string{
			"Name": "event.json",
			"Hash": "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi",
			"Size": "120",
		})
	}))
	defer server.Close()

	publisher := service.NewIPFSPublisher(server.URL, 5*time.Second)

	contentID, err := publisher.Publish(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi", contentID)
}

func TestIPFSPublisher_PublishNodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "node unavailable", http.StatusInternalServerError)
	}))
	defer server.Close()

	publisher := service.NewIPFSPublisher(server.URL, 5*time.Second)

	_, err := publisher.Publish(context.Background(), sampleEvent())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestIPFSPublisher_PublishMissingHash(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"Name": "event.json"})
	}))
	defer server.Close()

	publisher := service.NewIPFSPublisher(server.URL, 5*time.Second)

	_, err := publisher.Publish(context.Background(), sampleEvent())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "missing content id")
}

func TestIPFSPublisher_PublishUnreachableNode(t *testing.T) {
	publisher := service.NewIPFSPublisher("http://127.0.0.1:1", 500*time.Millisecond)

	_, err := publisher.Publish(context.Background(), sampleEvent())
	assert.Error(t, err)
}

func TestIPFSPublisher_PublishContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	publisher := service.NewIPFSPublisher(server.URL, 10*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := publisher.Publish(ctx, sampleEvent())
	assert.Error(t, err)
}
