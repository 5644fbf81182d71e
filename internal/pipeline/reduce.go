package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/couchcryptid/forecast-ranker/internal/domain"
	"github.com/couchcryptid/forecast-ranker/internal/observability"
)

// Reducer turns fetched payloads into per-location statistics on a fixed
// pool of workers.
type Reducer struct {
	workers int
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewReducer creates a Reducer with the given pool size (minimum 1).
func NewReducer(workers int, logger *slog.Logger, metrics *observability.Metrics) *Reducer {
	return &Reducer{
		workers: max(workers, 1),
		logger:  logger,
		metrics: metrics,
	}
}

type reduceOutcome struct {
	entry domain.LocationEntry
	err   error
}

// ReduceAll decodes and reduces every successful fetch result. It returns
// only after all workers have finished. Entries are in completion order;
// failed locations are returned as *domain.SchemaError values. Failed fetches
// are skipped.
func (r *Reducer) ReduceAll(ctx context.Context, fetched []FetchResult) (domain.ReducedCollection, []error) {
	jobs := make(chan FetchResult)
	outcomes := make(chan reduceOutcome)

	var wg sync.WaitGroup
	for range min(r.workers, max(len(fetched), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				outcomes <- reduceOne(job)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, res := range fetched {
			if res.Err != nil {
				continue
			}
			select {
			case jobs <- res:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var (
		collection domain.ReducedCollection
		failures   []error
	)
	for o := range outcomes {
		if o.err != nil {
			r.metrics.ReduceErrors.Inc()
			r.logger.Warn("reduce failed", "error", o.err)
			failures = append(failures, o.err)
			continue
		}
		r.metrics.LocationsReduced.Inc()
		r.logger.Debug("reduced forecast", "location", o.entry.Location, "days", o.entry.Stats.Len())
		collection = append(collection, o.entry)
	}
	return collection, failures
}

func reduceOne(res FetchResult) reduceOutcome {
	name := res.Location.Name
	doc, err := domain.DecodeForecast(name, res.Payload)
	if err != nil {
		return reduceOutcome{err: err}
	}
	stats, err := domain.Reduce(name, doc)
	if err != nil {
		return reduceOutcome{err: err}
	}
	return reduceOutcome{entry: domain.LocationEntry{Location: name, Stats: stats}}
}
