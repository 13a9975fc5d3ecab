// Package resolver maps company names and tickers to SEC CIKs and back
package resolver

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/bobmcallan/finq/internal/common"
	"github.com/bobmcallan/finq/internal/interfaces"
	"github.com/bobmcallan/finq/internal/metrics"
	"github.com/bobmcallan/finq/internal/models"
)

const (
	resolveKeyPrefix = "id:"
	reverseKeyPrefix = "cik:"
)

// Resolver implements IdentifierResolver over the reference table
type Resolver struct {
	tables  interfaces.ReferenceSource
	cache   *Cache
	logger  *common.Logger
	metrics *metrics.Metrics
	group   singleflight.Group
}

// NewResolver creates a resolver. A nil cache gets a private one.
func NewResolver(tables interfaces.ReferenceSource, cache *Cache, logger *common.Logger, m *metrics.Metrics) *Resolver {
	if cache == nil {
		cache = NewCache()
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Resolver{
		tables:  tables,
		cache:   cache,
		logger:  logger,
		metrics: m,
	}
}

// lookupKey is the lower-cased trimmed ticker when present, else the name
func lookupKey(name, ticker string) string {
	if t := normalize(ticker); t != "" {
		return t
	}
	return normalize(name)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Resolve returns the CIK for a (name, ticker) pair. Results, including
// not-found, are cached under the lookup key. A failed table load is
// returned as ErrSourceUnavailable and not cached.
func (r *Resolver) Resolve(ctx context.Context, name, ticker string) (string, error) {
	key := lookupKey(name, ticker)
	if key == "" {
		return "", fmt.Errorf("no name or ticker given: %w", models.ErrNotFound)
	}
	cacheKey := resolveKeyPrefix + key

	if cik, found, ok := r.cache.Get(cacheKey); ok {
		r.metrics.CacheLookup(true)
		if !found {
			return "", fmt.Errorf("%q: %w", key, models.ErrNotFound)
		}
		return cik, nil
	}
	r.metrics.CacheLookup(false)

	v, err, _ := r.group.Do(cacheKey, func() (interface{}, error) {
		// another caller may have populated the key while we waited
		if e, ok := r.cache.peek(cacheKey); ok {
			return e, nil
		}

		table, err := r.tables.Load(ctx)
		if err != nil {
			return nil, err
		}

		cik, found := FindCIK(table, name, ticker)
		r.cache.Put(cacheKey, cik, found)

		r.logger.Debug().
			Str("name", name).
			Str("ticker", ticker).
			Str("cik", cik).
			Bool("found", found).
			Msg("Identifier resolved")
		return entry{value: cik, found: found}, nil
	})
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("Resolution unavailable")
		return "", err
	}

	e := v.(entry)
	if !e.found {
		return "", fmt.Errorf("%q: %w", key, models.ErrNotFound)
	}
	return e.value, nil
}

// FindCIK scans the table for a (name, ticker) pair. An exact ticker match
// anywhere in the table wins; otherwise the first row whose name equals or
// contains the search name is used. Blank inputs match nothing.
func FindCIK(table *models.ReferenceTable, name, ticker string) (string, bool) {
	if table == nil {
		return "", false
	}

	t := normalize(ticker)
	if t != "" {
		for _, row := range table.Rows {
			if normalize(row.Ticker) == t {
				return row.CIK, true
			}
		}
	}

	n := normalize(name)
	if n != "" {
		for _, row := range table.Rows {
			if strings.Contains(normalize(row.Name), n) {
				return row.CIK, true
			}
		}
	}

	return "", false
}

// TickerForCIK returns the ticker of the first row listing cik
func (r *Resolver) TickerForCIK(ctx context.Context, cik string) (string, error) {
	padded, err := models.PadCIK(cik)
	if err != nil {
		return "", err
	}
	cacheKey := reverseKeyPrefix + padded

	if ticker, found, ok := r.cache.Get(cacheKey); ok {
		r.metrics.CacheLookup(true)
		if !found {
			return "", fmt.Errorf("ticker for %s: %w", padded, models.ErrNotFound)
		}
		return ticker, nil
	}
	r.metrics.CacheLookup(false)

	v, err, _ := r.group.Do(cacheKey, func() (interface{}, error) {
		if e, ok := r.cache.peek(cacheKey); ok {
			return e, nil
		}

		table, err := r.tables.Load(ctx)
		if err != nil {
			return nil, err
		}

		ticker, found := findTicker(table, padded)
		r.cache.Put(cacheKey, ticker, found)
		return entry{value: ticker, found: found}, nil
	})
	if err != nil {
		r.logger.Warn().Err(err).Str("cik", padded).Msg("Reverse lookup unavailable")
		return "", err
	}

	e := v.(entry)
	if !e.found {
		return "", fmt.Errorf("ticker for %s: %w", padded, models.ErrNotFound)
	}
	return e.value, nil
}

func findTicker(table *models.ReferenceTable, cik string) (string, bool) {
	for _, row := range table.Rows {
		if row.CIK == cik && strings.TrimSpace(row.Ticker) != "" {
			return row.Ticker, true
		}
	}
	return "", false
}

// Tickers returns a CIK → first listed ticker map for the whole table
func Tickers(table *models.ReferenceTable) map[string]string {
	out := make(map[string]string, table.Len())
	if table == nil {
		return out
	}
	for _, row := range table.Rows {
		if _, ok := out[row.CIK]; !ok && row.Ticker != "" {
			out[row.CIK] = row.Ticker
		}
	}
	return out
}

// CacheStats returns the resolution cache counters
func (r *Resolver) CacheStats() CacheStats {
	return r.cache.Stats()
}

// Ensure Resolver implements IdentifierResolver
var _ interfaces.IdentifierResolver = (*Resolver)(nil)
