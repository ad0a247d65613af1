// Package client calls the account and listing services over HTTP and
// returns their response envelopes undecoded beyond JSON.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/flathunt/platform/shared/middleware"
)

// MsgServiceUnavailable is the envelope message used when a service cannot be
// reached or answers with something other than an envelope.
const MsgServiceUnavailable = "Service unavailable"

// Envelope is a decoded service response: success, statusCode, message,
// errorMessage and the operation's payload fields.
type Envelope map[string]any

// Response returns the four envelope fields shared by every operation.
func (e Envelope) Response() map[string]any {
	return map[string]any{
		"success":      e["success"],
		"statusCode":   e["statusCode"],
		"message":      e["message"],
		"errorMessage": e["errorMessage"],
	}
}

// Unavailable builds the envelope reported when a service call fails.
func Unavailable(err error) Envelope {
	return Envelope{
		"success":      false,
		"statusCode":   strconv.Itoa(http.StatusBadGateway),
		"message":      MsgServiceUnavailable,
		"errorMessage": err.Error(),
	}
}

// Client is a JSON client for one service. It forwards the caller's
// Authorization header found in the request context.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL. A nil httpClient gets a 15s timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimSuffix(baseURL, "/"), http: httpClient}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (Envelope, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if auth := middleware.AuthorizationFrom(ctx); auth != "" {
		req.Header.Set(middleware.AuthorizationHeader, auth)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%s %s: unexpected response (status %d): %w", method, path, resp.StatusCode, err)
	}
	if _, ok := env["statusCode"]; !ok {
		return nil, fmt.Errorf("%s %s: response has no envelope (status %d)", method, path, resp.StatusCode)
	}
	return env, nil
}
