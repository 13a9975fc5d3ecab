package reference

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/finq/internal/common"
	"github.com/bobmcallan/finq/internal/metrics"
	"github.com/bobmcallan/finq/internal/models"
)

type fakeSEC struct {
	calls int32
	delay time.Duration
	err   error
	table *models.ReferenceTable
}

func (f *fakeSEC) FetchReferenceTable(ctx context.Context) (*models.ReferenceTable, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.table, nil
}

func (f *fakeSEC) FetchEntityRecord(ctx context.Context, cik string) (*models.EntityRecord, error) {
	return nil, errors.New("not used")
}

func appleTable() *models.ReferenceTable {
	return &models.ReferenceTable{Rows: []models.ReferenceRow{
		{CIK: "0000320193", Name: "Apple Inc.", Ticker: "AAPL"},
	}}
}

func TestLoad_ZeroTTLRefetchesEveryCall(t *testing.T) {
	sec := &fakeSEC{table: appleTable()}
	cache := NewCache(sec, 0, common.NewSilentLogger(), nil)

	for i := 0; i < 3; i++ {
		table, err := cache.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, table.Len())
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&sec.calls))
}

func TestLoad_TTLMemoizes(t *testing.T) {
	sec := &fakeSEC{table: appleTable()}
	m := metrics.New()
	cache := NewCache(sec, time.Hour, common.NewSilentLogger(), m)

	for i := 0; i < 3; i++ {
		_, err := cache.Load(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&sec.calls))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReferenceLoadsTotal.WithLabelValues("fetched")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReferenceLoadsTotal.WithLabelValues("memoized")))
	assert.False(t, cache.LoadedAt().IsZero())
}

func TestLoad_TTLExpiry(t *testing.T) {
	sec := &fakeSEC{table: appleTable()}
	cache := NewCache(sec, 20*time.Millisecond, nil, nil)

	_, err := cache.Load(context.Background())
	require.NoError(t, err)
	time.Sleep(40 * time.Millisecond)
	_, err = cache.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&sec.calls))
}

func TestLoad_FailureIsSourceUnavailableAndNotMemoized(t *testing.T) {
	sec := &fakeSEC{err: errors.New("connection reset")}
	cache := NewCache(sec, time.Hour, nil, nil)

	_, err := cache.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)

	sec.err = nil
	sec.table = appleTable()
	table, err := cache.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, int32(2), atomic.LoadInt32(&sec.calls))
}

func TestLoad_EmptyTableIsSourceUnavailable(t *testing.T) {
	sec := &fakeSEC{table: &models.ReferenceTable{}}
	cache := NewCache(sec, 0, nil, nil)

	_, err := cache.Load(context.Background())
	assert.ErrorIs(t, err, models.ErrSourceUnavailable)
}

func TestLoad_ConcurrentCallersShareFetch(t *testing.T) {
	sec := &fakeSEC{table: appleTable(), delay: 100 * time.Millisecond}
	cache := NewCache(sec, 0, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			table, err := cache.Load(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, 1, table.Len())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&sec.calls))
}
