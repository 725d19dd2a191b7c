// Package fetcher retrieves source pages over HTTP for backlink checks.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single page fetch.
const DefaultTimeout = 15 * time.Second

// DefaultUserAgent identifies the monitoring engine to source sites.
const DefaultUserAgent = "LinkwatchBot/1.0 (+https://linkwatch.dev/bot)"

// maxResponseBodyBytes limits the size of fetched page responses.
const maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB

// ErrorKind classifies fetch failures.
type ErrorKind string

const (
	// KindNetwork covers timeouts, DNS and TLS failures.
	KindNetwork ErrorKind = "network"
	// KindHTTP covers non-2xx responses from a reachable server.
	KindHTTP ErrorKind = "http"
)

// Error is a classified fetch failure. For KindHTTP, StatusCode carries the
// response status.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Kind == KindHTTP {
		return fmt.Sprintf("http status %d", e.StatusCode)
	}
	return fmt.Sprintf("network error: %v", e.Err)
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Result holds a completed page fetch. On a KindHTTP error the Result is
// still returned alongside the error so callers can log status and timing.
type Result struct {
	StatusCode int
	Body       []byte
	ElapsedMs  int64
}

// Config configures a Fetcher.
type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// Fetcher retrieves pages with a bounded timeout and an identifying
// User-Agent header.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// New creates a Fetcher. Zero config fields fall back to defaults.
func New(cfg Config) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch retrieves rawURL. A non-2xx response is a fetch failure, not a
// successful fetch with the link absent: it returns a *Error of KindHTTP
// together with a Result carrying the status code and elapsed time.
// Network-level failures return a *Error of KindNetwork and a nil Result.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if reqErr != nil {
		return nil, &Error{Kind: KindNetwork, Err: fmt.Errorf("create request: %w", reqErr)}
	}

	req.Header.Set("User-Agent", f.userAgent)

	start := time.Now()

	resp, doErr := f.client.Do(req)
	if doErr != nil {
		return nil, &Error{Kind: KindNetwork, Err: doErr}
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, maxResponseBodyBytes)

	body, readErr := io.ReadAll(limited)
	elapsed := time.Since(start).Milliseconds()

	if readErr != nil {
		return nil, &Error{Kind: KindNetwork, Err: fmt.Errorf("read response body: %w", readErr)}
	}

	result := &Result{
		StatusCode: resp.StatusCode,
		Body:       body,
		ElapsedMs:  elapsed,
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return result, &Error{Kind: KindHTTP, StatusCode: resp.StatusCode}
	}

	return result, nil
}
