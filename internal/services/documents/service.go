package documents

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bobmcallan/finq/internal/common"
	"github.com/bobmcallan/finq/internal/interfaces"
	"github.com/bobmcallan/finq/internal/metrics"
	"github.com/bobmcallan/finq/internal/models"
)

// Service implements DocumentService
type Service struct {
	index      interfaces.DocumentIndex
	extractor  interfaces.ContentExtractor
	summarizer interfaces.Summarizer
	ranker     *Ranker
	config     common.DocumentsConfig
	logger     *common.Logger
}

// NewService creates a document search service. summarizer may be nil.
func NewService(
	index interfaces.DocumentIndex,
	extractor interfaces.ContentExtractor,
	summarizer interfaces.Summarizer,
	config common.DocumentsConfig,
	logger *common.Logger,
	m *metrics.Metrics,
) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	if config.MaxCandidates <= 0 {
		config.MaxCandidates = 25
	}
	if config.TopN <= 0 {
		config.TopN = 3
	}
	return &Service{
		index:      index,
		extractor:  extractor,
		summarizer: summarizer,
		ranker:     NewRanker(config.PreviewChars, config.FallbackPreviewChars, logger, m),
		config:     config,
		logger:     logger,
	}
}

// contentStore memoizes extracted text per candidate for one search, so
// the preview and full-length reads download each file once
type contentStore struct {
	svc  *Service
	mu   sync.Mutex
	text map[string]string
}

func (cs *contentStore) full(ctx context.Context, c models.Candidate) (string, error) {
	cs.mu.Lock()
	if t, ok := cs.text[c.ID]; ok {
		cs.mu.Unlock()
		return t, nil
	}
	cs.mu.Unlock()

	blob, err := cs.svc.index.DownloadContent(ctx, c.DriveID, c.ID)
	if err != nil {
		return "", err
	}
	text := cs.svc.extractor.Extract(blob, c.Name)

	cs.mu.Lock()
	cs.text[c.ID] = text
	cs.mu.Unlock()
	return text, nil
}

func (cs *contentStore) preview(ctx context.Context, c models.Candidate, budget int) (string, error) {
	text, err := cs.full(ctx, c)
	if err != nil {
		return "", err
	}
	return truncateRunes(text, budget), nil
}

// Search answers a free-text query from the document index: keywords drive the
// index search, candidates are ranked, the top N are read in full and summarized.
// Index failures yield an empty result rather than an error.
func (s *Service) Search(ctx context.Context, query string) (*models.DocumentSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query: %w", models.ErrInvalidInput)
	}

	keywords := ExtractKeywords(query)
	result := &models.DocumentSearchResult{
		Query:      query,
		Keywords:   keywords,
		SearchTerm: SearchTerm(query, keywords),
		Candidates: []models.Candidate{},
		FullyRead:  []string{},
	}

	candidates, err := s.index.SearchFiles(ctx, result.SearchTerm, s.config.MaxCandidates)
	if err != nil {
		s.logger.Warn().Err(err).Str("term", result.SearchTerm).Msg("Document search unavailable")
		return result, nil
	}
	if len(candidates) == 0 {
		return result, nil
	}

	store := &contentStore{svc: s, text: make(map[string]string)}
	ranked := s.ranker.Rank(ctx, candidates, keywords, store.preview)
	result.Candidates = ranked

	topN := min(s.config.TopN, len(ranked))
	docs := make([]fullDocument, 0, topN)
	for _, c := range ranked[:topN] {
		text, err := store.full(ctx, c)
		if err != nil {
			s.logger.Warn().Err(err).Str("candidate", c.Name).Msg("Full content fetch failed")
			continue
		}
		result.FullyRead = append(result.FullyRead, c.ID)
		docs = append(docs, fullDocument{candidate: c, text: text})
	}

	s.logger.Info().
		Str("term", result.SearchTerm).
		Int("candidates", len(ranked)).
		Int("fully_read", len(result.FullyRead)).
		Msg("Document search ranked")

	result.Summary = s.summarize(ctx, query, docs)
	return result, nil
}

type fullDocument struct {
	candidate models.Candidate
	text      string
}

// summarize asks the model to answer from the documents; failures give an empty summary
func (s *Service) summarize(ctx context.Context, query string, docs []fullDocument) string {
	if s.summarizer == nil || len(docs) == 0 {
		return ""
	}

	summary, err := s.summarizer.Summarize(ctx, buildDocumentPrompt(query, docs))
	if err != nil {
		s.logger.Warn().Err(err).Msg("Document summary failed")
		return ""
	}
	return strings.TrimSpace(summary)
}

func buildDocumentPrompt(query string, docs []fullDocument) string {
	var sb strings.Builder
	sb.WriteString("Answer the question using only the documents below. ")
	sb.WriteString("Cite document names where relevant. If the documents do not contain the answer, say so.\n\n")
	fmt.Fprintf(&sb, "Question: %s\n", query)
	for i, d := range docs {
		fmt.Fprintf(&sb, "\n--- Document %d: %s (%s) ---\n", i+1, d.candidate.Name, d.candidate.WebURL)
		if d.text == "" {
			sb.WriteString("[no extractable text]\n")
			continue
		}
		sb.WriteString(d.text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// Ensure Service implements DocumentService
var _ interfaces.DocumentService = (*Service)(nil)
