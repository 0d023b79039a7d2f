// Package api implements the JSON request/response transport for the
// Unifier service. It maps service and transport failures onto the client's
// error taxonomy so callers only ever see typed errors.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/xtech-analytics/data-unifier/errors"
)

// Client posts JSON payloads to the Unifier service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a transport for the given base URL. A nil httpClient falls
// back to http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// errorEnvelope is the service's explicit failure payload.
type errorEnvelope struct {
	Error string `json:"error"`
}

// PostJSON sends payload to baseURL+path and decodes the response into out.
// The service reporting an explicit error payload maps to ErrAuth, transport
// failures to ErrNetwork, and anything undecodable to ErrProtocol. out may be
// nil when the caller only cares about success.
func (c *Client) PostJSON(ctx context.Context, op, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.NewError(op, fmt.Errorf("encode request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.NewError(op, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewError(op, fmt.Errorf("%w: %v", errors.ErrNetwork, err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewError(op, fmt.Errorf("%w: read response: %v", errors.ErrNetwork, err))
	}

	// The service reports failures as {"error": "..."} regardless of the
	// HTTP status, so probe for it before decoding the real shape.
	var envelope errorEnvelope
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error != "" {
		return errors.NewError(op, fmt.Errorf("%w: %s", errors.ErrAuth, envelope.Error))
	}

	if resp.StatusCode != http.StatusOK {
		return errors.NewError(op, fmt.Errorf("%w: unexpected status %d", errors.ErrProtocol, resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.NewError(op, fmt.Errorf("%w: decode response: %v", errors.ErrProtocol, err))
	}
	return nil
}
