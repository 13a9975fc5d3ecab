// Package documents ranks document-search candidates and answers queries from them
package documents

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/finq/internal/common"
	"github.com/bobmcallan/finq/internal/metrics"
	"github.com/bobmcallan/finq/internal/models"
)

const (
	nameWeight    = 3
	contentWeight = 1

	DefaultPreviewChars         = 2000
	DefaultFallbackPreviewChars = 8000
	DefaultPreviewConcurrency   = 4
)

// PreviewFunc returns up to budget characters of a candidate's extracted text
type PreviewFunc func(ctx context.Context, c models.Candidate, budget int) (string, error)

// Ranker scores candidates by keyword presence in their names and content previews
type Ranker struct {
	previewChars  int
	fallbackChars int
	concurrency   int
	logger        *common.Logger
	metrics       *metrics.Metrics
}

// NewRanker creates a ranker with the two preview budgets. Non-positive
// budgets take the defaults.
func NewRanker(previewChars, fallbackChars int, logger *common.Logger, m *metrics.Metrics) *Ranker {
	if previewChars <= 0 {
		previewChars = DefaultPreviewChars
	}
	if fallbackChars <= 0 {
		fallbackChars = DefaultFallbackPreviewChars
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Ranker{
		previewChars:  previewChars,
		fallbackChars: fallbackChars,
		concurrency:   DefaultPreviewConcurrency,
		logger:        logger,
		metrics:       m,
	}
}

// Rank scores every candidate and returns them ordered by descending score,
// ties keeping input order. Name hits weigh 3, content hits 1. When any
// candidate matches by name, previews use the smaller budget; otherwise every
// preview uses the larger fallback budget. With no keywords nothing is
// fetched and the input order is returned with zero scores.
func (r *Ranker) Rank(ctx context.Context, candidates []models.Candidate, keywords []string, preview PreviewFunc) []models.Candidate {
	ranked := make([]models.Candidate, len(candidates))
	copy(ranked, candidates)

	kws := normalizeKeywords(keywords)
	anyName := false
	for i := range ranked {
		ranked[i].NameMatches = 0
		ranked[i].ContentMatches = 0
		ranked[i].Score = 0
		if len(kws) == 0 {
			continue
		}
		ranked[i].NameMatches = countMatches(strings.ToLower(ranked[i].Name), kws)
		if ranked[i].NameMatches > 0 {
			anyName = true
		}
	}

	if len(kws) > 0 && preview != nil && len(ranked) > 0 {
		budget, tier := r.fallbackChars, "fallback"
		if anyName {
			budget, tier = r.previewChars, "refine"
		}
		r.fillContentMatches(ctx, ranked, kws, preview, budget, tier)
	}

	for i := range ranked {
		ranked[i].Score = nameWeight*ranked[i].NameMatches + contentWeight*ranked[i].ContentMatches
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked
}

// fillContentMatches fetches a preview for every candidate concurrently and
// counts keyword hits within the budget. Failed previews count as no hits.
func (r *Ranker) fillContentMatches(ctx context.Context, ranked []models.Candidate, kws []string, preview PreviewFunc, budget int, tier string) {
	r.logger.Debug().Str("tier", tier).Int("budget", budget).Int("candidates", len(ranked)).Msg("Fetching content previews")

	matches := make([]int, len(ranked))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i := range ranked {
		c := ranked[i]
		g.Go(func() error {
			r.metrics.PreviewFetch(tier)
			text, err := preview(ctx, c, budget)
			if err != nil {
				r.logger.Warn().Err(err).Str("candidate", c.Name).Msg("Content preview failed")
				return nil
			}
			matches[i] = countMatches(strings.ToLower(truncateRunes(text, budget)), kws)
			return nil
		})
	}
	_ = g.Wait()

	for i := range ranked {
		ranked[i].ContentMatches = matches[i]
	}
}

// normalizeKeywords lower-cases, trims and de-duplicates keywords
func normalizeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

// truncateRunes cuts s to at most n runes
func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
