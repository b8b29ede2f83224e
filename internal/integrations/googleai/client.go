package googleai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultEndpoint = "https://us-language.googleapis.com"
	defaultTimeout  = 10 * time.Second
)

// ErrNoSuggestion is returned when a 2xx response carries no usable suggestion.
var ErrNoSuggestion = errors.New("googleai: response has no suggestion")

type suggestRequest struct {
	Input string `json:"input"`
}

// suggestResponse distinguishes a missing or null suggestion (nil) from a
// present one.
type suggestResponse struct {
	Suggestion *string `json:"suggestion"`
}

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("googleai: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}

// Client posts prompts to the fallback suggestion endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	apiKey     string
}

type Option func(*Client)

func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if e := strings.TrimSpace(endpoint); e != "" {
			c.endpoint = e
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client that authenticates with apiKey as a bearer token.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		endpoint:   defaultEndpoint,
		httpClient: &http.Client{Timeout: defaultTimeout},
		apiKey:     apiKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string {
	return "googleai"
}

// Suggest sends {"input": prompt} and returns the response's suggestion field.
func (c *Client) Suggest(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(suggestRequest{Input: prompt})
	if err != nil {
		return "", fmt.Errorf("googleai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("googleai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpClient := c.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	res, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("googleai: request failed: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		buf, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", &HTTPStatusError{StatusCode: res.StatusCode, URL: c.endpoint, Body: string(buf)}
	}

	var payload suggestResponse
	if err := json.NewDecoder(io.LimitReader(res.Body, 1<<20)).Decode(&payload); err != nil {
		return "", fmt.Errorf("googleai: decode response: %w", err)
	}
	if payload.Suggestion == nil || *payload.Suggestion == "" {
		return "", ErrNoSuggestion
	}
	return *payload.Suggestion, nil
}
