package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/forecast-ranker/internal/domain"
	"github.com/couchcryptid/forecast-ranker/internal/observability"
)

// FetchResult is the outcome of fetching one location. Exactly one of
// Payload and Err is set.
type FetchResult struct {
	Location domain.Location
	Payload  []byte
	Err      error
}

// Fetcher retrieves raw forecasts for many locations concurrently.
type Fetcher struct {
	source  domain.ForecastSource
	timeout time.Duration
	limit   int
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewFetcher creates a Fetcher. A zero timeout disables the per-location
// bound and a zero limit starts one goroutine per location.
func NewFetcher(source domain.ForecastSource, timeout time.Duration, limit int, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	return &Fetcher{
		source:  source,
		timeout: timeout,
		limit:   limit,
		logger:  logger,
		metrics: metrics,
	}
}

// FetchAll fetches every location and returns one result per location in
// input order. A failing location is reported as a *domain.FetchError in its
// result and never affects the others.
func (f *Fetcher) FetchAll(ctx context.Context, locations []domain.Location) []FetchResult {
	results := make([]FetchResult, len(locations))

	g, gctx := errgroup.WithContext(ctx)
	if f.limit > 0 {
		g.SetLimit(f.limit)
	}
	for i, loc := range locations {
		g.Go(func() error {
			results[i] = f.fetchOne(gctx, loc)
			return nil
		})
	}
	_ = g.Wait() // goroutines report failures through results

	return results
}

func (f *Fetcher) fetchOne(ctx context.Context, loc domain.Location) FetchResult {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	payload, err := f.source.Fetch(ctx, loc.Key)
	f.metrics.FetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		f.metrics.FetchRequests.WithLabelValues("error").Inc()
		f.logger.Warn("fetch failed", "location", loc.Name, "key", loc.Key, "error", err)
		return FetchResult{Location: loc, Err: &domain.FetchError{Location: loc.Name, Err: err}}
	}

	f.metrics.FetchRequests.WithLabelValues("success").Inc()
	f.logger.Debug("fetched forecast", "location", loc.Name, "bytes", len(payload))
	return FetchResult{Location: loc, Payload: payload}
}
