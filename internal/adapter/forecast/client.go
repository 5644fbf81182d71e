package forecast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/forecast-ranker/internal/observability"
)

const (
	defaultMaxPayloadBytes = 10 << 20
	maxBackoff             = 5 * time.Second
)

// ErrPayloadTooLarge is returned when a forecast body exceeds the size limit.
var ErrPayloadTooLarge = errors.New("forecast payload exceeds size limit")

// Options configures the HTTP forecast client.
type Options struct {
	BaseURL string
	APIKey  string
	// AttemptTimeout bounds a single request. Keep it below the caller's
	// per-location deadline so retries have time left to run.
	AttemptTimeout time.Duration
	Retries        int
	Backoff        time.Duration
	// MaxPayloadBytes defaults to 10 MiB.
	MaxPayloadBytes int64
	// RateLimit caps outgoing requests per second. Zero means unlimited.
	RateLimit int
}

// Client implements domain.ForecastSource against an HTTP forecast API that
// serves one document per location at {BaseURL}/{key}.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	timeout    time.Duration
	maxPayload int64
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	retries    int
	backoff    time.Duration
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a forecast API client guarded by a circuit breaker.
func NewClient(opts Options, metrics *observability.Metrics, logger *slog.Logger) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		httpClient: &http.Client{},
		timeout:    opts.AttemptTimeout,
		maxPayload: opts.MaxPayloadBytes,
		retries:    opts.Retries,
		backoff:    opts.Backoff,
		metrics:    metrics,
		logger:     logger,
	}
	if c.maxPayload <= 0 {
		c.maxPayload = defaultMaxPayloadBytes
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateLimit)
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "forecast-api",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// Fetch retrieves the raw forecast for key, retrying transport errors,
// attempt timeouts and 5xx/429 responses with exponential backoff until ctx
// ends.
func (c *Client) Fetch(ctx context.Context, key string) ([]byte, error) {
	backoff := c.backoff
	for attempt := 0; ; attempt++ {
		body, err := c.fetchOnce(ctx, key)
		if err == nil {
			return body, nil
		}
		if attempt >= c.retries || !retryable(err) || ctx.Err() != nil {
			return nil, err
		}

		c.metrics.FetchRetries.Inc()
		c.logger.Debug("retrying forecast request", "key", key, "attempt", attempt+1, "backoff", backoff, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			return nil, ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}

type response struct {
	status   int
	body     []byte
	oversize bool
}

func (c *Client) fetchOnce(ctx context.Context, key string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	// Only transport errors and server-side failures count against the breaker.
	result, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.doRequest(ctx, key)
		if err != nil {
			return nil, err
		}
		if resp.status >= http.StatusInternalServerError {
			return nil, &statusError{code: resp.status, body: resp.body}
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("forecast API unavailable: %w", err)
		}
		return nil, err
	}

	resp := result.(response)
	if resp.status != http.StatusOK {
		return nil, &statusError{code: resp.status, body: resp.body}
	}
	if resp.oversize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrPayloadTooLarge, c.maxPayload)
	}
	return resp.body, nil
}

func (c *Client) doRequest(ctx context.Context, key string) (response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	// One byte past the limit tells a full-size body from an oversize one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxPayload+1))
	if err != nil {
		return response{}, fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) > c.maxPayload {
		return response{status: resp.StatusCode, body: body[:0], oversize: true}, nil
	}
	return response{status: resp.StatusCode, body: body}, nil
}

type statusError struct {
	code int
	body []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("forecast API error: status %d: %s", e.code, e.body)
}

// retryable reports whether another attempt may succeed. A deadline error
// here comes from the attempt timeout; Fetch stops on its own when the
// caller's context has ended.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrPayloadTooLarge) {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= http.StatusInternalServerError || se.code == http.StatusTooManyRequests
	}
	return true
}
