package wizard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/windevexpert/windevexpert/internal/domain/install"
)

// Client sends one request to an installation executor.
type Client interface {
	Do(ctx context.Context, req install.Request) (install.Response, error)
}

// ErrDisabled is returned once the executor was cleaned up.
var ErrDisabled = errors.New("installer disabled")

// ServerError is a non-2xx answer from the executor.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("executor answered %d", e.Status)
	}
	return fmt.Sprintf("executor answered %d: %s", e.Status, e.Message)
}

func (e *ServerError) Unwrap() error {
	if e.Status == http.StatusGone {
		return ErrDisabled
	}
	return nil
}

// InstallPath is the executor endpoint relative to the site URL.
const InstallPath = "/api/install"

// maxResponseBytes bounds executor answers; step details carry command
// output tails only.
const maxResponseBytes = 1 << 20

// HTTPClient talks to the executor over HTTP.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient creates a client for the executor at baseURL. A nil hc uses
// a client without timeout: steps may run for minutes.
func NewHTTPClient(baseURL string, hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = &http.Client{}
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// Do posts req and decodes the executor's answer.
func (c *HTTPClient) Do(ctx context.Context, req install.Request) (install.Response, error) {
	var out install.Response
	body, err := json.Marshal(req)
	if err != nil {
		return out, fmt.Errorf("encode request: %w", err)
	}
	data, err := c.post(ctx, InstallPath, body)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// Export fetches the redacted configuration as produced by the executor.
func (c *HTTPClient) Export(ctx context.Context, cfg install.Config) ([]byte, error) {
	body, err := json.Marshal(install.Request{Config: cfg})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return c.post(ctx, InstallPath+"/export", body)
}

func (c *HTTPClient) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServerError{Status: resp.StatusCode, Message: errorMessage(data)}
	}
	return data, nil
}

// errorMessage extracts the message of an error body: {"error": ...} for
// request errors, {"message": ...} for failed results.
func errorMessage(data []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return strings.TrimSpace(string(data))
}
