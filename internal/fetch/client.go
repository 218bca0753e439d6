// Package fetch retrieves case graphs from the upstream graph endpoint.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/gyaneshwarpardhi/casegraph/internal/config"
	"github.com/gyaneshwarpardhi/casegraph/internal/graph"
	"github.com/gyaneshwarpardhi/casegraph/internal/metrics"
)

var (
	// ErrCaseNotFound is returned when the upstream has no graph for a case.
	ErrCaseNotFound = errors.New("case not found")
	// ErrUnavailable is returned while the circuit breaker rejects requests.
	ErrUnavailable = errors.New("graph upstream unavailable")
)

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// RatePerSecond limits outgoing requests; zero disables the limit.
	RatePerSecond float64
	Burst         int
	// BreakerFailures is how many consecutive failures open the breaker.
	BreakerFailures uint32
	// BreakerCooldown is how long the breaker stays open before probing.
	BreakerCooldown time.Duration
	// MaxBodyBytes bounds the graph document; zero means 64 MiB.
	MaxBodyBytes int64
	HTTPClient   *http.Client
	Logger       *slog.Logger
}

// Client fetches graphs over HTTP. Concurrent fetches of one case share a
// single request.
type Client struct {
	base    *url.URL
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	flight  singleflight.Group
	timeout time.Duration
	maxBody int64
	log     *slog.Logger
}

// OptionsFrom maps the upstream section of a config file onto Options.
func OptionsFrom(u config.UpstreamConf) Options {
	return Options{
		BaseURL:         u.BaseURL,
		Timeout:         u.Timeout(),
		RatePerSecond:   u.RatePerSecond,
		Burst:           u.Burst,
		BreakerFailures: u.BreakerFailures,
		BreakerCooldown: u.BreakerCooldown(),
	}
}

// New builds a Client for the upstream at opts.BaseURL.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse upstream base url")
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Newf("upstream base url %q: scheme must be http or https", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 30 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 64 << 20
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		base:    base,
		http:    hc,
		limiter: rate.NewLimiter(limit, burst),
		timeout: opts.Timeout,
		maxBody: opts.MaxBodyBytes,
		log:     opts.Logger,
	}
	failures := opts.BreakerFailures
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "graph-upstream",
		MaxRequests: 1,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			c.log.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
		// A missing case is an answer, not an upstream failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCaseNotFound)
		},
	})
	metrics.BreakerState.WithLabelValues("graph-upstream").Set(float64(gobreaker.StateClosed))
	return c, nil
}

// Fetch returns the graph of caseID. Concurrent callers for the same case
// share one upstream request, which runs under the client timeout rather
// than any caller's context: a caller that gives up stops waiting but
// neither aborts the request for the others nor counts against the breaker.
func (c *Client) Fetch(ctx context.Context, caseID string) (*graph.Graph, error) {
	if caseID == "" {
		return nil, errors.New("fetch: case id is required")
	}
	ch := c.flight.DoChan(caseID, func() (interface{}, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.fetchThroughBreaker(fctx, caseID)
	})
	select {
	case <-ctx.Done():
		return nil, errors.Wrapf(ctx.Err(), "fetch case %s", caseID)
	case res := <-ch:
		if res.Shared {
			metrics.FetchesShared.Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*graph.Graph), nil
	}
}

func (c *Client) fetchThroughBreaker(ctx context.Context, caseID string) (*graph.Graph, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "fetch: rate limit wait")
	}
	start := time.Now()
	v, err := c.breaker.Execute(func() (interface{}, error) {
		return c.get(ctx, caseID)
	})
	elapsed := float64(time.Since(start).Milliseconds())

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.FetchDuration.WithLabelValues("rejected").Observe(elapsed)
		return nil, errors.Wrapf(ErrUnavailable, "case %s: %v", caseID, err)
	case errors.Is(err, ErrCaseNotFound):
		metrics.FetchDuration.WithLabelValues("not_found").Observe(elapsed)
		return nil, err
	case err != nil:
		metrics.FetchDuration.WithLabelValues("error").Observe(elapsed)
		c.log.Warn("graph fetch failed", "case", caseID, "err", err.Error())
		return nil, err
	}
	g := v.(*graph.Graph)
	metrics.FetchDuration.WithLabelValues("ok").Observe(elapsed)
	c.log.Debug("graph fetched", "case", caseID, "nodes", g.NodeCount(), "edges", g.EdgeCount(), "ms", elapsed)
	return g, nil
}

func (c *Client) get(ctx context.Context, caseID string) (*graph.Graph, error) {
	u := c.base.JoinPath("api", "graph", url.PathEscape(caseID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build graph request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", u.Redacted())
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errors.Wrapf(ErrCaseNotFound, "case %s", caseID)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.Newf("GET %s: unexpected status %d: %s", u.Redacted(), resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	g, err := graph.Decode(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, errors.Wrapf(err, "case %s", caseID)
	}
	return g, nil
}

// String describes the upstream for logs.
func (c *Client) String() string {
	return fmt.Sprintf("fetch.Client(%s)", c.base.Redacted())
}
