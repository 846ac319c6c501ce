package mastodon

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/CrestNiraj12/twiddle/domain"
	"github.com/CrestNiraj12/twiddle/infra/auth"
)

const (
	apiTimeout      = 15 * time.Second
	maxErrorBodyLen = 512
)

// APIError is returned for any non-2xx API response.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API %s %s returned %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Unwrap lets errors.Is(err, domain.ErrUnauthorized) match a 401.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return domain.ErrUnauthorized
	}
	return nil
}

// Client is a thin HTTP wrapper for the Mastodon API.
// It handles base URL construction and bearer token injection.
type Client struct {
	baseURL       string
	tokenProvider auth.TokenProvider
	http          *http.Client
}

// NewClient creates a Mastodon API client. Requests are traced through
// the global OpenTelemetry provider.
func NewClient(baseURL string, tp auth.TokenProvider) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		tokenProvider: tp,
		http: &http.Client{
			Timeout:   apiTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// BaseURL returns the instance URL the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs an authenticated GET request.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path)
}

func (c *Client) do(ctx context.Context, method, path string) ([]byte, error) {
	token, err := c.tokenProvider.AccessToken()
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(data))
		if len(msg) > maxErrorBodyLen {
			msg = msg[:maxErrorBodyLen]
		}
		return nil, &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: msg}
	}

	return data, nil
}
