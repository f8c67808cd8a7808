// Package ollama provides a small client for the Ollama HTTP API, used as a
// local model endpoint.
package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultHost is the default Ollama API host.
	DefaultHost = "http://localhost:11434"

	// DefaultTimeout bounds a whole request, generation included.
	DefaultTimeout = 2 * time.Minute

	// DefaultModel is the default local model for flows.
	DefaultModel = "llama3.2:3b"
)

// Client is an HTTP client for the Ollama API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the Ollama client.
type Option func(*Client)

// WithHost sets the Ollama API host.
func WithHost(host string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(host, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Ollama client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultHost,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsAvailable checks if the Ollama server is running and responding.
func (c *Client) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Model is an installed Ollama model.
type Model struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
}

type listModelsResponse struct {
	Models []Model `json:"models"`
}

// ListModels returns all installed models.
func (c *Client) ListModels(ctx context.Context) ([]Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list models: status %d: %s", resp.StatusCode, string(body))
	}

	var result listModelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return result.Models, nil
}

// HasModel checks if a model is installed.
func (c *Client) HasModel(ctx context.Context, name string) bool {
	models, err := c.ListModels(ctx)
	if err != nil {
		return false
	}

	name = normalizeModelName(name)
	for _, m := range models {
		if normalizeModelName(m.Name) == name {
			return true
		}
	}
	return false
}

// normalizeModelName removes the :latest suffix if present.
func normalizeModelName(name string) string {
	return strings.TrimSuffix(name, ":latest")
}

// Host returns the configured base URL.
func (c *Client) Host() string {
	return c.baseURL
}
