// Package linkcheck probes portfolio URLs and classifies them as live,
// dead or unchecked.
package linkcheck

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/cofounder-match/internal/model"
)

// DefaultTimeout bounds one URL's probe, HEAD and any GET fallback together.
const DefaultTimeout = 4 * time.Second

// maxDrain is how much of a GET body is read so the connection can be reused.
const maxDrain = 64 << 10

type Config struct {
	Timeout   time.Duration
	UserAgent string
}

func DefaultConfig() Config {
	return Config{
		Timeout:   DefaultTimeout,
		UserAgent: "cofounder-match-linkcheck/1.0",
	}
}

// Checker probes URLs. It keeps no state between calls and is safe for
// concurrent use.
type Checker struct {
	client *http.Client
	config Config
	logger *slog.Logger
}

// New creates a Checker. A nil client means a default client that follows
// redirects.
func New(cfg Config, client *http.Client, logger *slog.Logger) *Checker {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Checker{
		client: client,
		config: cfg,
		logger: logger,
	}
}

// Check probes rawURL and returns its status. It never fails: anything
// that prevents a verdict is reported as unchecked.
//
// PROBE:
//  1. blank URL → unchecked without a request
//  2. HEAD, following redirects
//  3. HEAD answered 405 or 501 → GET once
//  4. the final status code is classified by Classify
//
// Both requests share one deadline of Config.Timeout.
func (c *Checker) Check(ctx context.Context, rawURL string) model.LinkStatus {
	target := strings.TrimSpace(rawURL)
	if target == "" {
		return model.LinkUnchecked
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	status, err := c.probe(ctx, http.MethodHead, target)
	if err == nil && (status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented) {
		status, err = c.probe(ctx, http.MethodGet, target)
	}
	if err != nil {
		c.logger.Debug("link probe failed",
			slog.String("url", target),
			slog.String("error", err.Error()),
		)
		return model.LinkUnchecked
	}

	return Classify(status)
}

func (c *Checker) probe(ctx context.Context, method, target string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, err
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))
	return resp.StatusCode, nil
}

// Classify maps a final HTTP status to a link status.
//
//	200-399   live
//	401, 403  live
//	404       dead
//	>= 500    unchecked
//	other     dead
func Classify(status int) model.LinkStatus {
	switch {
	case status >= 200 && status < 400:
		return model.LinkLive
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return model.LinkLive
	case status == http.StatusNotFound:
		return model.LinkDead
	case status >= 500:
		return model.LinkUnchecked
	default:
		return model.LinkDead
	}
}
