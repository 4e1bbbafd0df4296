// Package generate calls a remote module-generation service that turns a
// free-text description into a canvas.ModuleSpec.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/meikuraledutech/canvas"
)

// ErrEmptyDescription is returned when no description is given.
var ErrEmptyDescription = errors.New("generate: description is required")

// Client implements canvas.Generator over HTTP.
type Client struct {
	url  string
	http *http.Client
}

// New returns a client posting to url. A nil hc uses a client with a 60s
// timeout.
func New(url string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{url: url, http: hc}
}

type request struct {
	Description string          `json:"description"`
	ModuleType  canvas.NodeType `json:"moduleType"`
}

type response struct {
	ModuleSpec *canvas.ModuleSpec `json:"moduleSpec"`
	Error      string             `json:"error,omitempty"`
}

// Generate asks the service for a module matching description. hint is the
// module type the caller expects; the service may return another.
func (c *Client) Generate(ctx context.Context, description string, hint canvas.NodeType) (*canvas.ModuleSpec, error) {
	if description == "" {
		return nil, ErrEmptyDescription
	}

	body, err := json.Marshal(request{Description: description, ModuleType: hint})
	if err != nil {
		return nil, fmt.Errorf("generate: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("generate: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate: call service: %w", err)
	}
	defer resp.Body.Close()

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("generate: decode response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generate: service returned %d: %s", resp.StatusCode, out.Error)
	}
	if out.ModuleSpec == nil {
		return nil, errors.New("generate: response has no module spec")
	}

	spec := out.ModuleSpec
	if spec.Type == "" {
		spec.Type = hint
	}
	if spec.Description == "" {
		spec.Description = description
	}
	return spec, nil
}
