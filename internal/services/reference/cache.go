// Package reference provides the reference table cache used for identifier resolution
package reference

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/bobmcallan/finq/internal/common"
	"github.com/bobmcallan/finq/internal/interfaces"
	"github.com/bobmcallan/finq/internal/metrics"
	"github.com/bobmcallan/finq/internal/models"
)

// Cache loads the company/ticker/CIK table. With a zero TTL every Load
// re-fetches; with a positive TTL the last good table is reused until it expires.
// Concurrent loads share a single fetch. Failed fetches are never memoized.
type Cache struct {
	sec     interfaces.SECClient
	ttl     time.Duration
	logger  *common.Logger
	metrics *metrics.Metrics

	group singleflight.Group

	mu       sync.RWMutex
	table    *models.ReferenceTable
	loadedAt time.Time
}

// NewCache creates a reference table cache
func NewCache(sec interfaces.SECClient, ttl time.Duration, logger *common.Logger, m *metrics.Metrics) *Cache {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Cache{
		sec:     sec,
		ttl:     ttl,
		logger:  logger,
		metrics: m,
	}
}

// Load returns the reference table, fetching it when no fresh copy is held
func (c *Cache) Load(ctx context.Context) (*models.ReferenceTable, error) {
	if table := c.fresh(); table != nil {
		c.metrics.ReferenceLoad("memoized")
		return table, nil
	}

	v, err, shared := c.group.Do("table", func() (interface{}, error) {
		start := time.Now()
		table, err := c.sec.FetchReferenceTable(ctx)
		if err != nil {
			return nil, err
		}
		if table == nil || table.Len() == 0 {
			return nil, fmt.Errorf("reference table is empty: %w", models.ErrSourceUnavailable)
		}

		c.mu.Lock()
		c.table = table
		c.loadedAt = time.Now()
		c.mu.Unlock()

		c.logger.Info().Int("rows", table.Len()).Dur("elapsed", time.Since(start)).Msg("Reference table loaded")
		return table, nil
	})
	if err != nil {
		c.metrics.ReferenceLoad("failed")
		c.logger.Warn().Err(err).Msg("Reference table unavailable")
		if !errors.Is(err, models.ErrSourceUnavailable) {
			err = fmt.Errorf("load reference table: %v: %w", err, models.ErrSourceUnavailable)
		}
		return nil, err
	}

	if !shared {
		c.metrics.ReferenceLoad("fetched")
	}
	return v.(*models.ReferenceTable), nil
}

// fresh returns the memoized table while it is within the TTL
func (c *Cache) fresh() *models.ReferenceTable {
	if c.ttl <= 0 {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.table != nil && common.IsFresh(c.loadedAt, c.ttl) {
		return c.table
	}
	return nil
}

// LoadedAt reports when the table was last fetched successfully
func (c *Cache) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// Ensure Cache implements ReferenceSource
var _ interfaces.ReferenceSource = (*Cache)(nil)
