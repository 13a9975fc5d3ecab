// Package filings retrieves SEC filings through a rate-limited batch pipeline
package filings

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/finq/internal/common"
	"github.com/bobmcallan/finq/internal/metrics"
	"github.com/bobmcallan/finq/internal/models"
)

// EntityFetchFunc retrieves the filings for one entity
type EntityFetchFunc func(ctx context.Context, entity string) ([]models.Filing, error)

// SinkFunc consumes one entity's filings and reports whether the caller's
// result budget is now satisfied
type SinkFunc func(entity string, filings []models.Filing) (done bool)

// BatchOptions controls windowing and retry
type BatchOptions struct {
	BatchSize       int
	InterBatchDelay time.Duration
	MaxRetries      int           // extra attempts per entity; 0 tries once
	RetryInterval   time.Duration // initial backoff between attempts
}

// BatchStats summarizes one FetchAll run
type BatchStats struct {
	Windows  int  `json:"windows"`
	Entities int  `json:"entities"`
	Failures int  `json:"failures"`
	Stopped  bool `json:"stopped"` // budget satisfied before the universe was exhausted
}

// BatchFetcher fans out per-entity fetches in sequential windows
type BatchFetcher struct {
	logger  *common.Logger
	metrics *metrics.Metrics
}

// NewBatchFetcher creates a batch fetcher
func NewBatchFetcher(logger *common.Logger, m *metrics.Metrics) *BatchFetcher {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &BatchFetcher{logger: logger, metrics: m}
}

type entityResult struct {
	filings []models.Filing
	err     error
}

// FetchAll partitions entities into windows of BatchSize. All fetches in a
// window run concurrently and the window completes before the next starts,
// separated by InterBatchDelay. Results are passed to sink in entity order on
// the calling goroutine; once sink reports done no further windows are issued.
// A failed entity is logged and contributes zero filings. The only error
// returned is the context's.
func (b *BatchFetcher) FetchAll(ctx context.Context, entities []string, fetch EntityFetchFunc, opts BatchOptions, sink SinkFunc) (BatchStats, error) {
	var stats BatchStats
	size := opts.BatchSize
	if size <= 0 {
		size = 1
	}

	for start := 0; start < len(entities); start += size {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		end := min(start+size, len(entities))
		window := entities[start:end]
		results := make([]entityResult, len(window))

		var g errgroup.Group
		for i, entity := range window {
			g.Go(func() error {
				filings, err := b.fetchWithRetry(ctx, entity, fetch, opts)
				results[i] = entityResult{filings: filings, err: err}
				return nil
			})
		}
		_ = g.Wait()

		stats.Windows++
		b.metrics.BatchWindow()

		for i, entity := range window {
			stats.Entities++
			res := results[i]
			if res.err != nil {
				stats.Failures++
				b.metrics.EntityFetch(false)
				b.logger.Warn().Err(res.err).Str("entity", entity).Msg("Entity fetch failed, treating as no results")
				res.filings = nil
			} else {
				b.metrics.EntityFetch(true)
			}

			if sink(entity, res.filings) {
				stats.Stopped = end < len(entities) || i < len(window)-1
				b.logger.Debug().
					Int("windows", stats.Windows).
					Int("entities", stats.Entities).
					Msg("Result budget satisfied, stopping batch fetch")
				return stats, nil
			}
		}

		if end < len(entities) && opts.InterBatchDelay > 0 {
			timer := time.NewTimer(opts.InterBatchDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return stats, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return stats, nil
}

// fetchWithRetry runs fetch with bounded exponential backoff. Invalid input
// is never retried.
func (b *BatchFetcher) fetchWithRetry(ctx context.Context, entity string, fetch EntityFetchFunc, opts BatchOptions) ([]models.Filing, error) {
	if opts.MaxRetries <= 0 {
		return fetch(ctx, entity)
	}

	eb := backoff.NewExponentialBackOff()
	if opts.RetryInterval > 0 {
		eb.InitialInterval = opts.RetryInterval
	}
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(opts.MaxRetries)), ctx)

	var filings []models.Filing
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		f, err := fetch(ctx, entity)
		if err != nil {
			if errors.Is(err, models.ErrInvalidInput) {
				return backoff.Permanent(err)
			}
			b.logger.Debug().Err(err).Str("entity", entity).Int("attempt", attempt).Msg("Entity fetch attempt failed")
			return err
		}
		filings = f
		return nil
	}, policy)

	return filings, err
}
