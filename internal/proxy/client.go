package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// hopByHop headers are connection-scoped and must not be forwarded.
// Keys are in canonical MIME form.
var hopByHop = map[string]bool{
	"Connection":          true,
	"Proxy-Connection":    true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

// Client talks to the legacy upstream API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the upstream at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Response is a captured upstream reply, small enough to cache whole.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Do forwards one request to the upstream and reads the reply in full.
// Hop-by-hop headers are dropped and the client IP is appended to
// X-Forwarded-For.
func (c *Client) Do(ctx context.Context, method, pathAndQuery string, header http.Header, body io.Reader, clientIP string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+pathAndQuery, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build upstream request: %w", err)
	}

	for key, values := range header {
		if hopByHop[key] {
			continue
		}
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if clientIP != "" {
		if prior := header.Get("X-Forwarded-For"); prior != "" {
			req.Header.Set("X-Forwarded-For", prior+", "+clientIP)
		} else {
			req.Header.Set("X-Forwarded-For", clientIP)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}

	return &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}
