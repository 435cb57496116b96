package llm

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

// Client wraps a Provider with the reliability layer every caller needs:
// bounded concurrency, per-request timeouts, and retry with exponential
// backoff. All simulation code talks to the model through a Client.
type Client struct {
	provider   Provider
	sem        chan struct{}
	maxRetries int
	timeout    time.Duration

	totalRequests  atomic.Int64
	failedRequests atomic.Int64
}

// ClientConfig tunes the reliability layer.
type ClientConfig struct {
	MaxConcurrent int           // simultaneous in-flight requests
	MaxRetries    int           // attempts per request
	Timeout       time.Duration // per-attempt deadline
}

// NewClient creates a client around the given provider.
func NewClient(provider Provider, cfg ClientConfig) *Client {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 5
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		provider:   provider,
		sem:        make(chan struct{}, cfg.MaxConcurrent),
		maxRetries: cfg.MaxRetries,
		timeout:    cfg.Timeout,
	}
}

// Complete runs one completion through the concurrency gate, retrying
// transient failures with exponential backoff.
func (c *Client) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-c.sem }()

	c.totalRequests.Add(1)

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * 2 * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				c.failedRequests.Add(1)
				return "", ctx.Err()
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		text, err := c.provider.Complete(attemptCtx, prompt, opts)
		cancel()
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	c.failedRequests.Add(1)
	return "", fmt.Errorf("completion failed after %d attempts: %w", c.maxRetries, lastErr)
}

// Usage reports request counters for end-of-run summaries.
func (c *Client) Usage() (total, failed int64) {
	return c.totalRequests.Load(), c.failedRequests.Load()
}
