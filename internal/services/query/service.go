// Package query orchestrates identifier resolution, retrieval and summarization
// for free-text financial questions
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bobmcallan/finq/internal/common"
	"github.com/bobmcallan/finq/internal/interfaces"
	"github.com/bobmcallan/finq/internal/models"
)

const (
	DefaultNewsLimit    = 5
	promptFilingLimit   = 15
	promptNewsChars     = 600
	promptDescribeChars = 800
)

// Service implements QueryService
type Service struct {
	resolver   interfaces.IdentifierResolver
	filings    interfaces.FilingService
	eodhd      interfaces.EODHDClient
	summarizer interfaces.Summarizer
	newsLimit  int
	logger     *common.Logger
}

// NewService creates a query orchestrator. eodhd and summarizer may be nil.
func NewService(
	resolver interfaces.IdentifierResolver,
	filings interfaces.FilingService,
	eodhd interfaces.EODHDClient,
	summarizer interfaces.Summarizer,
	logger *common.Logger,
) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		resolver:   resolver,
		filings:    filings,
		eodhd:      eodhd,
		summarizer: summarizer,
		newsLimit:  DefaultNewsLimit,
		logger:     logger,
	}
}

// Answer resolves the company a question is about, gathers its filings,
// fundamentals and news, and asks the model for a narrative answer.
// Upstream failures are reported as warnings on the response.
func (s *Service) Answer(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error) {
	req.Query = strings.TrimSpace(req.Query)
	ids := models.Identifiers{
		CIK:    strings.TrimSpace(req.CIK),
		Ticker: strings.ToUpper(strings.TrimSpace(req.Ticker)),
		Name:   strings.TrimSpace(req.Name),
	}
	if req.Query == "" && ids == (models.Identifiers{}) {
		return nil, fmt.Errorf("query or identifiers required: %w", models.ErrInvalidInput)
	}

	resp := &models.QueryResponse{
		Query:   req.Query,
		Filings: []models.Filing{},
	}
	warn := func(format string, args ...any) {
		resp.Warnings = append(resp.Warnings, fmt.Sprintf(format, args...))
	}

	if ids.CIK != "" {
		padded, err := models.PadCIK(ids.CIK)
		if err != nil {
			return nil, fmt.Errorf("cik %q: %w", ids.CIK, models.ErrInvalidInput)
		}
		ids.CIK = padded
	}

	if ids == (models.Identifiers{}) {
		name, ticker := s.extractIdentifiers(ctx, req.Query)
		ids.Name, ids.Ticker = name, ticker
		if name == "" && ticker == "" {
			warn("could not identify a company in the query")
		}
	}

	if ids.CIK == "" && (ids.Name != "" || ids.Ticker != "") {
		cik, err := s.resolver.Resolve(ctx, ids.Name, ids.Ticker)
		switch {
		case err == nil:
			ids.CIK = cik
		case errors.Is(err, models.ErrNotFound):
			warn("no SEC registrant matches name %q ticker %q", ids.Name, ids.Ticker)
		default:
			s.logger.Warn().Err(err).Str("name", ids.Name).Str("ticker", ids.Ticker).Msg("Identifier resolution failed")
			warn("identifier resolution unavailable")
		}
	}

	if ids.CIK != "" && ids.Ticker == "" {
		ticker, err := s.resolver.TickerForCIK(ctx, ids.CIK)
		if err == nil {
			ids.Ticker = ticker
		} else if !errors.Is(err, models.ErrNotFound) {
			s.logger.Warn().Err(err).Str("cik", ids.CIK).Msg("Ticker lookup failed")
		}
	}
	resp.Identifiers = ids

	if ids.CIK != "" {
		filings, err := s.filings.CompanyFilings(ctx, ids.CIK, interfaces.FilingQuery{Forms: req.Forms, Limit: req.Limit})
		if err != nil {
			s.logger.Warn().Err(err).Str("cik", ids.CIK).Msg("Filing retrieval failed")
			warn("filings unavailable")
		} else if filings != nil {
			resp.Filings = filings
		}
	}

	s.enrich(ctx, resp, req.IncludeNews, warn)

	resp.Summary = s.summarize(ctx, resp, warn)
	return resp, nil
}

// extractIdentifiers asks the model for the company name and ticker; when the
// model is absent, fails or replies with something unparseable it falls back
// to reading a ticker off the question.
func (s *Service) extractIdentifiers(ctx context.Context, query string) (name, ticker string) {
	if s.summarizer != nil && query != "" {
		raw, err := s.summarizer.Summarize(ctx, identifierPrompt(query))
		if err == nil {
			name, ticker, err = parseIdentifiers(raw)
			if err == nil && (name != "" || ticker != "") {
				return name, ticker
			}
		}
		if err != nil {
			s.logger.Warn().Err(err).Msg("Identifier extraction failed, using heuristic")
		}
	}
	return "", guessTicker(query)
}

// enrich attaches fundamentals and optionally news for the resolved ticker
func (s *Service) enrich(ctx context.Context, resp *models.QueryResponse, includeNews bool, warn func(string, ...any)) {
	ticker := resp.Identifiers.Ticker
	if s.eodhd == nil || ticker == "" {
		return
	}

	fundamentals, err := s.eodhd.GetFundamentals(ctx, ticker)
	if err != nil {
		s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Fundamentals unavailable")
		warn("fundamentals unavailable for %s", ticker)
	} else {
		resp.Fundamentals = fundamentals
		if resp.Identifiers.Name == "" {
			resp.Identifiers.Name = fundamentals.Name
		}
	}

	if !includeNews {
		return
	}
	news, err := s.eodhd.GetNews(ctx, ticker, s.newsLimit)
	if err != nil {
		s.logger.Warn().Err(err).Str("ticker", ticker).Msg("News unavailable")
		warn("news unavailable for %s", ticker)
		return
	}
	resp.News = news
}

func (s *Service) summarize(ctx context.Context, resp *models.QueryResponse, warn func(string, ...any)) string {
	if s.summarizer == nil || resp.Query == "" {
		return ""
	}
	summary, err := s.summarizer.Summarize(ctx, buildPrompt(resp))
	if err != nil {
		s.logger.Warn().Err(err).Msg("Summary generation failed")
		warn("summary unavailable")
		return ""
	}
	return strings.TrimSpace(summary)
}

func buildPrompt(resp *models.QueryResponse) string {
	var sb strings.Builder
	sb.WriteString("You are a financial research assistant. Answer the question using only the data below. ")
	sb.WriteString("Say so plainly when the data does not cover the question.\n\n")
	fmt.Fprintf(&sb, "Question: %s\n", resp.Query)

	ids := resp.Identifiers
	if ids != (models.Identifiers{}) {
		fmt.Fprintf(&sb, "\nCompany: %s  Ticker: %s  CIK: %s\n", orDash(ids.Name), orDash(ids.Ticker), orDash(ids.CIK))
	}

	if f := resp.Fundamentals; f != nil {
		sb.WriteString("\nFundamentals:\n")
		fmt.Fprintf(&sb, "- Sector: %s / %s\n", orDash(f.Sector), orDash(f.Industry))
		fmt.Fprintf(&sb, "- Market cap: %.0f  P/E: %.2f  P/B: %.2f  EPS: %.2f\n", f.MarketCap, f.PE, f.PB, f.EPS)
		fmt.Fprintf(&sb, "- Dividend yield: %.4f  Beta: %.2f\n", f.DividendYield, f.Beta)
		if f.Description != "" {
			fmt.Fprintf(&sb, "- Description: %s\n", truncate(f.Description, promptDescribeChars))
		}
	}

	if len(resp.Filings) > 0 {
		sb.WriteString("\nRecent SEC filings (newest first):\n")
		for i, f := range resp.Filings {
			if i == promptFilingLimit {
				break
			}
			fmt.Fprintf(&sb, "- %s %s accession %s", f.FilingDate.Format("2006-01-02"), f.Form, f.AccessionNumber)
			if u := f.URL(); u != "" {
				fmt.Fprintf(&sb, " %s", u)
			}
			sb.WriteString("\n")
		}
	}

	if len(resp.News) > 0 {
		sb.WriteString("\nRecent news:\n")
		for _, n := range resp.News {
			fmt.Fprintf(&sb, "- [%s] %s (%s)\n", n.PublishedAt.Format("2006-01-02"), n.Title, orDash(n.Sentiment))
			if n.Content != "" {
				fmt.Fprintf(&sb, "  %s\n", truncate(n.Content, promptNewsChars))
			}
		}
	}

	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// Ensure Service implements QueryService
var _ interfaces.QueryService = (*Service)(nil)
