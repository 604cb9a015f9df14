// Package validate verifies evidence URLs. A retraction must point at a
// live correction or withdrawal notice; the checker confirms the URL
// resolves before the retraction is accepted.
package validate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/waymark-project/waymark/internal/logging"
	"github.com/waymark-project/waymark/internal/model"
	"github.com/waymark-project/waymark/internal/util"
	"github.com/waymark-project/waymark/internal/worker"
)

// Checker probes URLs politely: per-host rate limiting, robots.txt
// compliance, and a bounded number of retries.
type Checker struct {
	client  *http.Client
	robots  *util.RobotsChecker
	limiter *worker.Limiter
	agent   string
	retries int
}

// NewChecker builds a checker from the outbound HTTP configuration.
func NewChecker(cfg model.HTTPConfig) *Checker {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	transport := &http.Transport{
		Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
	}

	return &Checker{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		robots:  util.NewRobotsChecker(cfg.UserAgent, timeout),
		limiter: worker.NewLimiter(2, 2),
		agent:   cfg.UserAgent,
		retries: 2,
	}
}

// CheckURL reports whether the URL is well formed and currently resolves
// with a non-error status. A HEAD is tried first; servers that reject HEAD
// get one GET.
func (c *Checker) CheckURL(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL has no host")
	}

	if !c.robots.IsAllowed(ctx, rawURL) {
		return fmt.Errorf("robots.txt disallows fetching %s", parsed.Host)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
		if err := c.limiter.Wait(ctx, rawURL); err != nil {
			return err
		}

		lastErr = c.probe(ctx, rawURL)
		if lastErr == nil {
			return nil
		}
		logging.Debug("URL check attempt failed", "url", rawURL, "attempt", attempt+1, "error", lastErr)
	}
	return fmt.Errorf("URL unreachable after %d attempts: %w", c.retries+1, lastErr)
}

func (c *Checker) probe(ctx context.Context, rawURL string) error {
	status, err := c.request(ctx, http.MethodHead, rawURL)
	if err == nil && status == http.StatusMethodNotAllowed {
		status, err = c.request(ctx, http.MethodGet, rawURL)
	}
	if err != nil {
		return err
	}
	if status >= 400 {
		return fmt.Errorf("status %d", status)
	}
	return nil
}

func (c *Checker) request(ctx context.Context, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", c.agent)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode, nil
}
