package templates

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a single network fetch when no timeout is given.
const DefaultTimeout = 10 * time.Second

// DefaultMaxSize caps the body read from the network when no limit is given.
const DefaultMaxSize = 32 << 20

// StatusError reports a non-2xx response from the network source.
type StatusError struct {
	File   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("templates: remote %s: HTTP %d %s", e.File, e.Status, http.StatusText(e.Status))
}

// HTTPOption configures the network source.
type HTTPOption func(*httpSource)

// WithTimeout bounds each fetch, including reading the body.
func WithTimeout(d time.Duration) HTTPOption {
	return func(h *httpSource) {
		h.timeout = d
	}
}

// WithMaxSize rejects assets larger than n bytes.
func WithMaxSize(n int64) HTTPOption {
	return func(h *httpSource) {
		h.maxSize = n
	}
}

// WithHTTPClient sets the client used for requests.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *httpSource) {
		h.client = c
	}
}

type httpSource struct {
	base    string
	client  *http.Client
	timeout time.Duration
	maxSize int64
}

// HTTP returns a Source fetching {baseURL}/{name}.
func HTTP(baseURL string, opts ...HTTPOption) Source {
	h := &httpSource{
		base:    strings.TrimRight(baseURL, "/"),
		client:  http.DefaultClient,
		timeout: DefaultTimeout,
		maxSize: DefaultMaxSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *httpSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if h.base == "" {
		return nil, fmt.Errorf("templates: remote: no base URL configured")
	}
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	target := h.base + "/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("templates: remote %s: %w", name, err)
	}
	req.Header.Set("Accept", "application/pdf")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("templates: remote %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{File: name, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("templates: remote %s: reading body: %w", name, err)
	}
	if int64(len(data)) > h.maxSize {
		return nil, fmt.Errorf("templates: remote %s: asset exceeds %d bytes", name, h.maxSize)
	}
	return data, nil
}
