package filings

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/finq/internal/models"
)

func filing(cik, acc string, date string) models.Filing {
	d, _ := time.Parse("2006-01-02", date)
	return models.Filing{CIK: cik, AccessionNumber: acc, FilingDate: d, Form: "10-K"}
}

func TestAggregate_ScenarioB_DuplicateAcrossWindows(t *testing.T) {
	dup := filing("0000320193", "0000320193-24-000123", "2024-11-01")
	windowOne := []models.Filing{dup}
	windowTwo := []models.Filing{dup}

	got := Aggregate([][]models.Filing{windowOne, windowTwo}, 10)

	require.Len(t, got, 1)
	assert.Equal(t, dup, got[0])
}

func TestAggregate_FirstSeenWins(t *testing.T) {
	first := filing("1", "a", "2024-01-01")
	first.Form = "10-K"
	later := filing("1", "a", "2024-01-01")
	later.Form = "10-K/A"

	got := Aggregate([][]models.Filing{{first}, {later}}, 10)
	require.Len(t, got, 1)
	assert.Equal(t, "10-K", got[0].Form)
}

func TestAggregate_SameAccessionDifferentCIKKept(t *testing.T) {
	got := Aggregate([][]models.Filing{
		{filing("1", "x", "2024-01-01")},
		{filing("2", "x", "2024-01-01")},
	}, 10)
	assert.Len(t, got, 2)
}

func TestAggregate_SortedNewestFirstAndStable(t *testing.T) {
	got := Aggregate([][]models.Filing{
		{filing("1", "old", "2023-03-01"), filing("1", "same-a", "2024-06-01")},
		{filing("2", "new", "2024-12-31"), filing("2", "same-b", "2024-06-01")},
		{filing("3", "same-c", "2024-06-01")},
	}, 10)

	var accs []string
	for _, f := range got {
		accs = append(accs, f.AccessionNumber)
	}
	assert.Equal(t, []string{"new", "same-a", "same-b", "same-c", "old"}, accs)
}

func TestAggregate_TruncatesAfterSort(t *testing.T) {
	// the newest filing arrives last; truncating before sorting would drop it
	got := Aggregate([][]models.Filing{
		{filing("1", "a", "2020-01-01")},
		{filing("2", "b", "2021-01-01")},
		{filing("3", "c", "2025-01-01")},
	}, 2)

	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].AccessionNumber)
	assert.Equal(t, "b", got[1].AccessionNumber)
}

func TestAggregate_NonPositiveLimit(t *testing.T) {
	in := [][]models.Filing{{filing("1", "a", "2024-01-01")}}
	assert.Empty(t, Aggregate(in, 0))
	assert.Empty(t, Aggregate(in, -1))
	assert.NotNil(t, Aggregate(in, 0))
}

func TestAggregate_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	for iter := 0; iter < 50; iter++ {
		var batches [][]models.Filing
		for b := 0; b < 1+rng.Intn(5); b++ {
			var batch []models.Filing
			for i := 0; i < rng.Intn(20); i++ {
				batch = append(batch, models.Filing{
					CIK:             []string{"1", "2", "3"}[rng.Intn(3)],
					AccessionNumber: string(rune('a' + rng.Intn(10))),
					FilingDate:      start.AddDate(0, 0, rng.Intn(1000)),
				})
			}
			batches = append(batches, batch)
		}
		limit := rng.Intn(15)

		got := Aggregate(batches, limit)

		assert.LessOrEqual(t, len(got), limit)
		seen := map[string]bool{}
		for i, f := range got {
			assert.False(t, seen[f.Key()], "duplicate %s", f.Key())
			seen[f.Key()] = true
			if i > 0 {
				assert.False(t, f.FilingDate.After(got[i-1].FilingDate), "not sorted at %d", i)
			}
		}
	}
}

func TestAggregator_AddReportsNew(t *testing.T) {
	agg := NewAggregator()
	assert.Equal(t, 2, agg.Add([]models.Filing{filing("1", "a", "2024-01-01"), filing("1", "b", "2024-01-01")}))
	assert.Equal(t, 1, agg.Add([]models.Filing{filing("1", "a", "2024-01-01"), filing("1", "c", "2024-01-01")}))
	assert.Equal(t, 3, agg.Len())
}
