// Package client is the HTTP client for the inventory API. It acquires an
// anonymous session, exposes the document writes the view-model needs and
// turns the server-sent snapshot stream into a channel of item lists.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/danzastock/danzastock/internal/model"
)

// document mirrors the API wire shape for a stored document.
type document struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// Client talks to one inventory server. Authenticate must be called before
// any other method.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	// stream has no overall timeout: the snapshot feed is long-lived.
	stream *http.Client
}

// New creates a client for the given server base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		stream:  &http.Client{},
	}
}

// Authenticate obtains an anonymous session token. No credentials are
// involved: any client that asks gets one.
func (c *Client) Authenticate(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/session", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("failed to create session: %s", apiError(resp))
	}

	var session struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return fmt.Errorf("failed to decode session: %w", err)
	}

	c.token = session.Token
	return nil
}

// Create adds a document to the shared collection and returns its id.
func (c *Client) Create(ctx context.Context, fields map[string]any) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/inventory", fields)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("failed to create item: %s", apiError(resp))
	}

	var created document
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode created item: %w", err)
	}
	return created.ID, nil
}

// Overwrite replaces a document's fields wholesale.
func (c *Client) Overwrite(ctx context.Context, id string, fields map[string]any) error {
	resp, err := c.do(ctx, http.MethodPut, "/api/inventory/"+id, fields)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to update item: %s", apiError(resp))
	}
	return nil
}

// Delete removes a document. Deleting an absent id succeeds.
func (c *Client) Delete(ctx context.Context, id string) error {
	resp, err := c.do(ctx, http.MethodDelete, "/api/inventory/"+id, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to delete item: %s", apiError(resp))
	}
	return nil
}

// List fetches the full collection once.
func (c *Client) List(ctx context.Context) ([]model.Item, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/inventory", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to list items: %s", apiError(resp))
	}

	var docs []document
	if err := json.NewDecoder(resp.Body).Decode(&docs); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	return items(docs), nil
}

// Subscribe opens the snapshot stream. Every event on the returned channel
// is the full collection. The channel closes when the context is cancelled
// or the stream ends; a terminal stream error is sent on errs first.
func (c *Client) Subscribe(ctx context.Context) (<-chan []model.Item, <-chan error, error) {
	// EventSource-style endpoint: the token travels as a query parameter.
	url := c.baseURL + "/api/inventory/stream?token=" + c.token
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open snapshot stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, nil, fmt.Errorf("failed to open snapshot stream: %s", apiError(resp))
	}

	snapshots := make(chan []model.Item)
	errs := make(chan error, 1)

	go func() {
		defer close(snapshots)
		defer close(errs)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)

		var data bytes.Buffer
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "data:"):
				data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			case line == "":
				if data.Len() == 0 {
					continue
				}
				var docs []document
				if err := json.Unmarshal(data.Bytes(), &docs); err != nil {
					errs <- fmt.Errorf("failed to decode snapshot: %w", err)
					return
				}
				data.Reset()
				select {
				case snapshots <- items(docs):
				case <-ctx.Done():
					return
				}
			}
			// Comment lines (": keepalive") fall through and are dropped.
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			errs <- fmt.Errorf("snapshot stream ended: %w", err)
		}
	}()

	return snapshots, errs, nil
}

// do issues an authenticated request with an optional JSON body.
func (c *Client) do(ctx context.Context, method, path string, body map[string]any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// items converts wire documents into typed items.
func items(docs []document) []model.Item {
	converted := make([]model.Item, 0, len(docs))
	for _, doc := range docs {
		converted = append(converted, model.FromFields(doc.ID, doc.Fields))
	}
	return converted
}

// apiError extracts the server's error message, falling back to the status.
func apiError(resp *http.Response) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return resp.Status
}
