// Package sports fetches team, venue and schedule data from TheSportsDB and
// ESPN, keeping results in the shared cache.
package sports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Errors returned by fetchers. Match with errors.Is.
var (
	ErrNotFound    = errors.New("not found")
	ErrRateLimited = errors.New("rate limited")
	ErrUpstream    = errors.New("upstream error")
)

const (
	DefaultTimeout = 10 * time.Second
	UserAgent      = "goobie-bot/1.0 (Discord Bot)"
)

// HTTPClient is a JSON-over-HTTP client with the headers both upstreams expect.
type HTTPClient struct {
	http *http.Client
	log  *slog.Logger
}

// NewHTTPClient returns a client with the given overall request timeout.
func NewHTTPClient(timeout time.Duration, logger *slog.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPClient{
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 30,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		log: logger,
	}
}

func (c *HTTPClient) newRequest(ctx context.Context, method, rawURL string, params url.Values) (*http.Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing %q: %w", rawURL, err)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// GetJSON fetches rawURL with params added to its query and decodes a 200 body into out.
func (c *HTTPClient) GetJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, rawURL, params)
	if err != nil {
		return err
	}
	c.log.Debug("upstream request", "url", req.URL.String())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: get %s: %w", ErrUpstream, req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		c.log.Warn("upstream resource not found", "url", req.URL.String())
		return fmt.Errorf("%w: %s", ErrNotFound, req.URL.Redacted())
	case http.StatusTooManyRequests:
		c.log.Warn("upstream rate limited", "url", req.URL.String())
		return fmt.Errorf("%w: %s", ErrRateLimited, req.URL.Redacted())
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w: %s returned HTTP %d", ErrUpstream, req.URL.Redacted(), resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s: %w", ErrUpstream, req.URL.Redacted(), err)
	}
	return nil
}

// Exists reports whether a HEAD request for rawURL answers 200.
func (c *HTTPClient) Exists(ctx context.Context, rawURL string) bool {
	req, err := c.newRequest(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("head request failed", "url", rawURL, "error", err)
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
