// Package tasks provides task implementations and task middleware for the
// evaluation harness. The engine itself never imposes a timeout; deadline
// behavior belongs to the injected HTTP client and surfaces as an ordinary
// task failure.
package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-playground/validator/v10"

	"github.com/crucible-dev/crucible/internal/domain"
	"github.com/crucible-dev/crucible/internal/ports"
)

var (
	_ ports.Task = (*HTTPTask)(nil)

	// Package-level validator instance for configuration validation.
	validate = validator.New()
)

// maxResponseBytes bounds a task response body (16MB).
const maxResponseBytes = 16 * 1024 * 1024

// HTTPConfig defines the parameters for a remote task endpoint.
type HTTPConfig struct {
	// URL is the task endpoint.
	URL string `yaml:"url" json:"url" validate:"required,url"`

	// Method is the HTTP method, POST (default) or GET.
	Method string `yaml:"method" json:"method" validate:"omitempty,oneof=GET POST"`
}

// HTTPTask runs the unit under test behind a remote HTTP endpoint.
// The wire convention is a JSON request body {"input": <value>} for POST,
// or an equivalent query-encoded GET, with the JSON response body taken
// verbatim as the task output.
type HTTPTask struct {
	config HTTPConfig
	client *http.Client
}

// NewHTTPTask creates an HTTPTask for the given endpoint. A nil client
// falls back to a default client with no timeout; callers wanting a
// deadline inject a client carrying one.
func NewHTTPTask(config HTTPConfig, client *http.Client) (*HTTPTask, error) {
	if config.Method == "" {
		config.Method = http.MethodPost
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPTask{config: config, client: client}, nil
}

// Run sends the case input to the endpoint and decodes the JSON response.
func (t *HTTPTask) Run(ctx context.Context, input any) (any, error) {
	req, err := t.buildRequest(ctx, input)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("task request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading task response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("task endpoint returned %s: %s", resp.Status, string(body))
	}

	var output any
	if err := json.Unmarshal(body, &output); err != nil {
		return nil, fmt.Errorf("task response is not valid JSON: %w", err)
	}
	return output, nil
}

// buildRequest constructs the POST body or GET query for one invocation.
func (t *HTTPTask) buildRequest(ctx context.Context, input any) (*http.Request, error) {
	if t.config.Method == http.MethodGet {
		text, err := domain.Stringify(input)
		if err != nil {
			return nil, err
		}
		query := url.Values{"input": []string{text}}
		target := t.config.URL + "?" + query.Encode()
		return http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	}

	payload, err := json.Marshal(map[string]any{"input": input})
	if err != nil {
		return nil, fmt.Errorf("encoding task input: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.config.URL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}
