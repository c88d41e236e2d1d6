// Package service provides collaborator clients for the event pipeline.
// The publisher is a thin wrapper over a content-addressed storage gateway;
// it has no algorithmic behavior of its own and failures surface only as
// replication job outcomes.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	eventDomain "github.com/allisson/provenance/internal/event/domain"
)

// IPFSPublisher publishes events to an IPFS-compatible node over its HTTP API.
//
// The event's canonical bytes are added as a file and the returned hash is the
// content identifier. Duplicate publishes of the same event are harmless: the
// content address is identical, which is what makes at-least-once replication
// acceptable.
type IPFSPublisher struct {
	baseURL string
	client  *http.Client
}

// NewIPFSPublisher creates a publisher for the node API at baseURL
// (e.g., "http://127.0.0.1:5001").
func NewIPFSPublisher(baseURL string, timeout time.Duration) *IPFSPublisher {
	return &IPFSPublisher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// addResponse is the subset of the node's add response we consume.
type addResponse struct {
	Hash string `json:"Hash"`
}

// Publish adds the event's canonical bytes to the node and returns the content id.
func (p *IPFSPublisher) Publish(ctx context.Context, event *eventDomain.Event) (string, error) {
	payload, err := event.CanonicalBytes()
	if err != nil {
		return "", fmt.Errorf("failed to serialize event: %w", err)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "event.json")
	if err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return "", fmt.Errorf("failed to write multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	url := p.baseURL + "/api/v0/add?cid-version=1"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create publish request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to publish event: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("publish failed with status %d", resp.StatusCode)
	}

	var result addResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode publish response: %w", err)
	}
	if result.Hash == "" {
		return "", fmt.Errorf("publish response missing content id")
	}

	return result.Hash, nil
}
