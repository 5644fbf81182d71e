package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/forecast-ranker/internal/domain"
	"github.com/couchcryptid/forecast-ranker/internal/observability"
)

// ErrIncomplete is returned when every location is required but at least one
// failed to fetch or reduce.
var ErrIncomplete = errors.New("not every location produced statistics")

// Persister writes the full reduced collection in one step.
type Persister interface {
	Persist(ctx context.Context, collection domain.ReducedCollection) error
}

// Publisher announces the ranking of a completed run.
type Publisher interface {
	PublishRatings(ctx context.Context, runID string, ranked, favorites []domain.LocationRating) error
}

// Options tunes the fetch and reduce stages.
type Options struct {
	FetchTimeout     time.Duration
	FetchConcurrency int
	ReduceWorkers    int
	RequireAll       bool
}

// Result describes one completed run.
type Result struct {
	RunID      string
	Collection domain.ReducedCollection
	Ranked     []domain.LocationRating
	Favorites  []domain.LocationRating
	// Failures holds per-location *domain.FetchError and *domain.SchemaError values.
	Failures    []error
	Duration    time.Duration
	CompletedAt time.Time
}

// Pipeline runs fetch, reduce, persist, and select in sequence.
type Pipeline struct {
	fetcher   *Fetcher
	reducer   *Reducer
	persister Persister
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	opts      Options
	ready     atomic.Bool
	last      atomic.Pointer[Result]
}

// New creates a Pipeline. publisher may be nil.
func New(source domain.ForecastSource, persister Persister, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	return &Pipeline{
		fetcher:   NewFetcher(source, opts.FetchTimeout, opts.FetchConcurrency, logger, metrics),
		reducer:   NewReducer(opts.ReduceWorkers, logger, metrics),
		persister: persister,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		opts:      opts,
	}
}

// CheckReadiness returns nil once a run has completed, or an error describing
// why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Latest returns the result of the most recent completed run.
func (p *Pipeline) Latest() (Result, bool) {
	r := p.last.Load()
	if r == nil {
		return Result{}, false
	}
	return *r, true
}

// LatestRanking returns the ranking of the most recent completed run.
func (p *Pipeline) LatestRanking() (domain.Ranking, bool) {
	r, ok := p.Latest()
	if !ok {
		return domain.Ranking{}, false
	}
	return domain.Ranking{
		RunID:       r.RunID,
		CompletedAt: r.CompletedAt,
		Ranked:      r.Ranked,
		Favorites:   r.Favorites,
	}, true
}

// Run executes one full pass over locations. Per-location failures are
// recorded in the result; persistence failures and cancellation abort the
// run before selection.
func (p *Pipeline) Run(ctx context.Context, locations []domain.Location) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", res.RunID)
	start := domain.Now()

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	logger.Info("run started", "locations", len(locations))

	fetched := p.fetcher.FetchAll(ctx, locations)
	for _, f := range fetched {
		if f.Err != nil {
			res.Failures = append(res.Failures, f.Err)
		}
	}
	if err := ctx.Err(); err != nil {
		return p.fail(logger, res, fmt.Errorf("fetch stage: %w", err))
	}

	collection, reduceFailures := p.reducer.ReduceAll(ctx, fetched)
	res.Failures = append(res.Failures, reduceFailures...)
	if err := ctx.Err(); err != nil {
		return p.fail(logger, res, fmt.Errorf("reduce stage: %w", err))
	}
	res.Collection = collection

	if p.opts.RequireAll && len(res.Failures) > 0 {
		return p.fail(logger, res, fmt.Errorf("%w: %w", ErrIncomplete, errors.Join(res.Failures...)))
	}

	persistStart := time.Now()
	if err := p.persister.Persist(ctx, collection); err != nil {
		p.metrics.PersistErrors.Inc()
		return p.fail(logger, res, err)
	}
	p.metrics.PersistDuration.Observe(time.Since(persistStart).Seconds())
	logger.Info("collection persisted", "locations", len(collection), "failed", len(res.Failures))

	res.Ranked = domain.Rank(collection)
	res.Favorites = domain.SelectFavorites(res.Ranked)
	if len(res.Ranked) < len(collection) {
		logger.Warn("locations without forecast days left out of ranking", "count", len(collection)-len(res.Ranked))
	}
	p.metrics.FavoritesSelected.Set(float64(len(res.Favorites)))

	if p.publisher != nil {
		if err := p.publisher.PublishRatings(ctx, res.RunID, res.Ranked, res.Favorites); err != nil {
			logger.Error("publish ratings failed", "error", err)
		} else {
			p.metrics.RatingsPublished.Add(float64(len(res.Ranked)))
		}
	}

	res.CompletedAt = domain.Now()
	res.Duration = res.CompletedAt.Sub(start)
	p.metrics.RunDuration.Observe(res.Duration.Seconds())
	p.metrics.Runs.WithLabelValues("success").Inc()
	p.last.Store(&res)
	p.ready.Store(true)

	logger.Info("run finished", "favorites", len(res.Favorites), "duration", res.Duration)
	return res, nil
}

func (p *Pipeline) fail(logger *slog.Logger, res Result, err error) (Result, error) {
	p.metrics.Runs.WithLabelValues("failed").Inc()
	logger.Error("run failed", "error", err)
	return res, err
}
