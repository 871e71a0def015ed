package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/country-insights/internal/country"
	"github.com/i474232898/country-insights/internal/metrics"
	"github.com/i474232898/country-insights/internal/store"
)

var (
	// ErrCircuitOpen is returned while an upstream's breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")
	// ErrCanceled is returned when the caller's context ended before the
	// upstream answered. It never counts against the breaker.
	ErrCanceled     = errors.New("request canceled by caller")
	errNoHTTPClient = errors.New("http client not configured")
)

// HTTPClientConfig bundles the HTTP client and the optional response cache
// shared by every adapter.
type HTTPClientConfig struct {
	Client *http.Client
	Cache  *store.MemoryStore
}

// upstream is the single request path every adapter goes through: optional
// throttle, circuit breaker, one attempt, and a revalidation cache in front.
type upstream struct {
	name    string
	httpCfg HTTPClientConfig
	ttl     time.Duration
	limiter *rate.Limiter
	circuit *gobreaker.CircuitBreaker
}

type fetched struct {
	status int
	body   []byte
}

func newUpstream(name string, cfg HTTPClientConfig, ttl time.Duration) *upstream {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCanceled)
		},
	})
	return &upstream{
		name:    name,
		httpCfg: cfg,
		ttl:     ttl,
		circuit: cb,
	}
}

// get fetches rawURL and returns the body of a 2xx response. Any other
// status comes back as *country.UpstreamError so callers can decide what a
// 404 means for them. 429 and 5xx responses count against the breaker.
func (u *upstream) get(ctx context.Context, rawURL string) ([]byte, error) {
	if u.httpCfg.Client == nil {
		return nil, errNoHTTPClient
	}

	if u.httpCfg.Cache != nil {
		if body, err := u.httpCfg.Cache.Get(rawURL); err == nil {
			metrics.ObserveUpstream(u.name, metrics.OutcomeCached, 0)
			return body, nil
		}
	}

	if u.limiter != nil {
		if err := u.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait canceled: %w", err)
		}
	}

	start := time.Now()
	result, err := u.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := u.httpCfg.Client.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%w: %w", ErrCanceled, ctxErr)
			}
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, &country.UpstreamError{Source: u.name, StatusCode: resp.StatusCode}
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%w: %w", ErrCanceled, ctxErr)
			}
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		return fetched{status: resp.StatusCode, body: body}, nil
	})
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.ObserveUpstream(u.name, metrics.OutcomeOpen, 0)
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		var ue *country.UpstreamError
		switch {
		case errors.Is(err, ErrCanceled):
			metrics.ObserveUpstream(u.name, metrics.OutcomeCanceled, elapsed)
		case errors.As(err, &ue):
			metrics.ObserveUpstream(u.name, metrics.OutcomeStatus, elapsed)
		default:
			metrics.ObserveUpstream(u.name, metrics.OutcomeError, elapsed)
		}
		return nil, err
	}

	f, ok := result.(fetched)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}

	if f.status < 200 || f.status >= 300 {
		outcome := metrics.OutcomeStatus
		if f.status == http.StatusNotFound {
			outcome = metrics.OutcomeNotFound
		}
		metrics.ObserveUpstream(u.name, outcome, elapsed)
		return nil, &country.UpstreamError{Source: u.name, StatusCode: f.status}
	}

	metrics.ObserveUpstream(u.name, metrics.OutcomeOK, elapsed)
	if u.httpCfg.Cache != nil {
		u.httpCfg.Cache.Save(rawURL, f.body, u.ttl)
	}
	return f.body, nil
}

// statusOf extracts the upstream status from err, or 0.
func statusOf(err error) int {
	var ue *country.UpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode
	}
	return 0
}
