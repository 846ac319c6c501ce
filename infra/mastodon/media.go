package mastodon

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	mediaTimeout  = 10 * time.Second
	maxMediaBytes = 4 << 20
)

// mediaService implements app.MediaService. Media URLs are public CDN
// links, so no bearer token is sent.
type mediaService struct {
	http *http.Client
}

// NewMediaService creates a MediaService with its own traced HTTP client.
func NewMediaService() *mediaService {
	return &mediaService{
		http: &http.Client{
			Timeout:   mediaTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (s *mediaService) Download(ctx context.Context, rawURL string) ([]byte, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("empty media url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating media request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Method: http.MethodGet, Path: req.URL.Path, Status: resp.StatusCode}
	}

	// Read one byte past the cap so oversized bodies are detected, not truncated.
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading media: %w", err)
	}
	if len(data) > maxMediaBytes {
		return nil, fmt.Errorf("media exceeds %d bytes", maxMediaBytes)
	}
	return data, nil
}
