package filings

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bobmcallan/finq/internal/common"
	"github.com/bobmcallan/finq/internal/interfaces"
	"github.com/bobmcallan/finq/internal/metrics"
	"github.com/bobmcallan/finq/internal/models"
	"github.com/bobmcallan/finq/internal/services/resolver"
)

const defaultRetryInterval = 500 * time.Millisecond

// Service implements FilingService
type Service struct {
	sec     interfaces.SECClient
	tables  interfaces.ReferenceSource
	fetcher *BatchFetcher
	config  common.FilingsConfig
	logger  *common.Logger
}

// NewService creates a new filing service
func NewService(
	sec interfaces.SECClient,
	tables interfaces.ReferenceSource,
	config common.FilingsConfig,
	logger *common.Logger,
	m *metrics.Metrics,
) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		sec:     sec,
		tables:  tables,
		fetcher: NewBatchFetcher(logger, m),
		config:  config,
		logger:  logger,
	}
}

// clampLimit applies the configured default and ceiling
func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}
	if limit <= 0 {
		limit = 20
	}
	if s.config.MaxLimit > 0 && limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}
	return limit
}

func (s *Service) batchOptions(batchSize int) BatchOptions {
	return BatchOptions{
		BatchSize:       batchSize,
		InterBatchDelay: s.config.GetBatchDelay(),
		MaxRetries:      s.config.MaxRetries,
		RetryInterval:   defaultRetryInterval,
	}
}

// CompanyFilings returns the most recent filings for one CIK. An unreachable
// source yields an empty list.
func (s *Service) CompanyFilings(ctx context.Context, cik string, query interfaces.FilingQuery) ([]models.Filing, error) {
	padded, err := models.PadCIK(cik)
	if err != nil {
		return nil, err
	}
	limit := s.clampLimit(query.Limit)
	filter := newFilter(query.Forms, query.Since)

	agg := NewAggregator()
	fetch := func(ctx context.Context, entity string) ([]models.Filing, error) {
		record, err := s.sec.FetchEntityRecord(ctx, entity)
		if err != nil {
			return nil, err
		}
		return record.Filings, nil
	}
	sink := func(_ string, filings []models.Filing) bool {
		agg.Add(filter.apply(filings))
		return false
	}

	if _, err := s.fetcher.FetchAll(ctx, []string{padded}, fetch, s.batchOptions(1), sink); err != nil {
		return nil, err
	}

	result := agg.Result(limit)
	s.logger.Debug().Str("cik", padded).Int("filings", len(result)).Msg("Company filings retrieved")
	return result, nil
}

// ScanUniverse walks every distinct CIK in the reference table in rate-limited
// windows, stopping once Limit matching filings have been collected. The
// result is the newest Limit filings among those collected. Reaching the
// context deadline returns what was collected so far.
func (s *Service) ScanUniverse(ctx context.Context, query interfaces.ScanQuery) ([]models.Filing, error) {
	limit := s.clampLimit(query.Limit)

	table, err := s.tables.Load(ctx)
	if err != nil {
		if errors.Is(err, models.ErrSourceUnavailable) {
			s.logger.Warn().Err(err).Msg("Reference table unavailable, scan returns no filings")
			return []models.Filing{}, nil
		}
		return nil, err
	}

	ciks := table.DistinctCIKs(query.Exchange)
	if query.MaxEntities > 0 && len(ciks) > query.MaxEntities {
		ciks = ciks[:query.MaxEntities]
	}
	tickers := resolver.Tickers(table)
	filter := newFilter(query.Forms, query.Since)

	fetch := func(ctx context.Context, cik string) ([]models.Filing, error) {
		record, err := s.sec.FetchEntityRecord(ctx, cik)
		if err != nil {
			return nil, err
		}
		filings := filter.apply(record.Filings)
		for i := range filings {
			if filings[i].Ticker == "" {
				filings[i].Ticker = tickers[filings[i].CIK]
			}
		}
		return filings, nil
	}

	agg := NewAggregator()
	sink := func(_ string, filings []models.Filing) bool {
		agg.Add(filings)
		return agg.Len() >= limit
	}

	start := time.Now()
	stats, err := s.fetcher.FetchAll(ctx, ciks, fetch, s.batchOptions(s.config.BatchSize), sink)
	if err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		s.logger.Warn().
			Int("entities", stats.Entities).
			Int("universe", len(ciks)).
			Int("collected", agg.Len()).
			Msg("Universe scan deadline reached, returning partial results")
	}

	result := agg.Result(limit)
	s.logger.Info().
		Int("universe", len(ciks)).
		Int("entities", stats.Entities).
		Int("windows", stats.Windows).
		Int("failures", stats.Failures).
		Bool("stopped_early", stats.Stopped).
		Int("filings", len(result)).
		Dur("elapsed", time.Since(start)).
		Msg("Universe scan complete")

	return result, nil
}

// filter keeps filings by form code and minimum date
type filter struct {
	forms map[string]struct{}
	since time.Time
}

func newFilter(forms []string, since time.Time) filter {
	f := filter{since: since}
	for _, form := range forms {
		form = strings.ToUpper(strings.TrimSpace(form))
		if form == "" {
			continue
		}
		if f.forms == nil {
			f.forms = make(map[string]struct{})
		}
		f.forms[form] = struct{}{}
	}
	return f
}

func (f filter) apply(filings []models.Filing) []models.Filing {
	if f.forms == nil && f.since.IsZero() {
		return filings
	}
	kept := make([]models.Filing, 0, len(filings))
	for _, filing := range filings {
		if f.forms != nil {
			if _, ok := f.forms[strings.ToUpper(strings.TrimSpace(filing.Form))]; !ok {
				continue
			}
		}
		if !f.since.IsZero() && filing.FilingDate.Before(f.since) {
			continue
		}
		kept = append(kept, filing)
	}
	return kept
}

// Ensure Service implements FilingService
var _ interfaces.FilingService = (*Service)(nil)
