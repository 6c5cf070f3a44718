// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves pages for content enrichment. A single Client is
// shared by the enrichment workers; it applies a fixed inter-request delay
// so concurrent workers collectively respect the configured rate.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/source-triage/internal/httputil"
	"github.com/pdiddy/source-triage/pkg/types"
)

// maxBodySize caps how much of a response body is read. Pages larger than
// this are truncated, which is fine for word counting and marker extraction.
const maxBodySize = 10 << 20

// Page is the outcome of one fetch attempt. Status is always set; Body is
// only populated for FetchOK.
type Page struct {
	Body        []byte
	ContentType string
	StatusCode  int
	Status      types.FetchStatus
}

// Client fetches pages with a shared rate limit.
type Client struct {
	http  *http.Client
	ua    string
	delay time.Duration

	mu   sync.Mutex
	next time.Time
}

// New builds a Client from the fetch configuration.
func New(cfg types.FetchConfig) *Client {
	return &Client{
		http:  &http.Client{Timeout: cfg.Timeout},
		ua:    cfg.UserAgent,
		delay: cfg.RequestDelay,
	}
}

// Get fetches a URL. The returned Page's Status classifies the outcome:
// transport failures and timeouts map to FetchTimeout, HTTP 4xx/5xx to
// FetchHTTPError. The error carries detail for logging; callers that only
// need the classification can ignore it.
func (c *Client) Get(ctx context.Context, rawURL string) (Page, error) {
	if err := c.wait(ctx); err != nil {
		return Page{Status: types.FetchTimeout}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Page{Status: types.FetchHTTPError}, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", c.ua)

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return Page{Status: types.FetchTimeout}, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, resp.Body)
		return Page{Status: types.FetchHTTPError, StatusCode: resp.StatusCode},
			fmt.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return Page{Status: types.FetchTimeout, StatusCode: resp.StatusCode},
			fmt.Errorf("reading %s: %w", rawURL, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("url", rawURL).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Msg("fetched page")

	return Page{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
		Status:      types.FetchOK,
	}, nil
}

// Validate checks that a URL is reachable without downloading the body.
// Servers that reject HEAD get one GET attempt.
func (c *Client) Validate(ctx context.Context, rawURL string) bool {
	if err := c.wait(ctx); err != nil {
		return false
	}

	for _, method := range []string{http.MethodHead, http.MethodGet} {
		req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
		if err != nil {
			return false
		}
		req.Header.Set("User-Agent", c.ua)

		resp, err := c.http.Do(req)
		if err != nil {
			return false
		}
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))
		resp.Body.Close()

		if resp.StatusCode == http.StatusMethodNotAllowed && method == http.MethodHead {
			continue
		}
		return resp.StatusCode < 400
	}
	return false
}

// wait enforces the inter-request delay across all callers. Each caller
// reserves the next available slot, so concurrent workers queue up rather
// than burst.
func (c *Client) wait(ctx context.Context) error {
	if c.delay <= 0 {
		return nil
	}

	c.mu.Lock()
	now := time.Now()
	if c.next.Before(now) {
		c.next = now
	}
	sleep := c.next.Sub(now)
	c.next = c.next.Add(c.delay)
	c.mu.Unlock()

	if sleep <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(sleep):
		return nil
	}
}
