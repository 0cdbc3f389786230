package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Options control caching for a single fetch.
type Options struct {
	UseCache bool
	TTL      time.Duration
}

// Client retrieves feed bodies over HTTP with a bounded request timeout and
// an in-memory TTL cache.
type Client struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	cache      *cache
}

func NewClient(timeout time.Duration, userAgent string, defaultTTL time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		timeout:    timeout,
		cache:      newCache(defaultTTL),
	}
}

// Fetch retrieves the body at url. With Options.UseCache set, a fresh cached
// body is returned without a network round trip; a miss (or expired entry)
// falls through to the network and repopulates the cache. A stuck request is
// aborted by the client timeout and surfaces as an error.
func (c *Client) Fetch(ctx context.Context, url string, opts Options) ([]byte, error) {
	if opts.UseCache {
		if body, ok := c.cache.get(url); ok {
			slog.Debug("Fetch cache hit", "url", url)
			return body, nil
		}
		slog.Debug("Fetch cache miss", "url", url)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error fetching %s: %d %s", url, resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if opts.UseCache {
		c.cache.set(url, body, opts.TTL)
	}

	return body, nil
}
