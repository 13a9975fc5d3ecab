package filings

import (
	"sort"

	"github.com/bobmcallan/finq/internal/models"
)

// Aggregator accumulates filings, dropping later duplicates of (cik, accession)
type Aggregator struct {
	seen    map[string]struct{}
	filings []models.Filing
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{seen: make(map[string]struct{})}
}

// Add appends the filings not seen before and returns how many were new
func (a *Aggregator) Add(filings []models.Filing) int {
	added := 0
	for _, f := range filings {
		key := f.Key()
		if _, dup := a.seen[key]; dup {
			continue
		}
		a.seen[key] = struct{}{}
		a.filings = append(a.filings, f)
		added++
	}
	return added
}

// Len returns the number of distinct filings held
func (a *Aggregator) Len() int {
	return len(a.filings)
}

// Result sorts all held filings newest first, keeping discovery order for
// equal dates, and then truncates to limit
func (a *Aggregator) Result(limit int) []models.Filing {
	if limit <= 0 {
		return []models.Filing{}
	}
	sorted := make([]models.Filing, len(a.filings))
	copy(sorted, a.filings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FilingDate.After(sorted[j].FilingDate)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// Aggregate deduplicates, sorts and truncates per-entity results
func Aggregate(perEntity [][]models.Filing, limit int) []models.Filing {
	agg := NewAggregator()
	for _, filings := range perEntity {
		agg.Add(filings)
	}
	return agg.Result(limit)
}
