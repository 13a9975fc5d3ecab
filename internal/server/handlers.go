package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/bobmcallan/finq/internal/interfaces"
	"github.com/bobmcallan/finq/internal/models"
	"github.com/bobmcallan/finq/internal/services/resolver"
)

// filingView adds the derived archive URL to a filing
type filingView struct {
	models.Filing
	DocumentURL string `json:"url,omitempty"`
}

type filingsResponse struct {
	Count   int          `json:"count"`
	Filings []filingView `json:"filings"`
}

func newFilingsResponse(filings []models.Filing) filingsResponse {
	views := make([]filingView, len(filings))
	for i, f := range filings {
		views[i] = filingView{Filing: f, DocumentURL: f.URL()}
	}
	return filingsResponse{Count: len(views), Filings: views}
}

// detachedContext outlives the client connection: once retrieval starts it
// runs to completion, bounded by the scan timeout.
func (s *Server) detachedContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(r.Context()), s.app.Config.Filings.GetScanTimeout())
}

// writeInternalError logs err and responds with a generic 500 body
func (s *Server) writeInternalError(w http.ResponseWriter, op string, err error) {
	s.logger.Error().Err(err).Str("op", op).Msg("Request failed")
	WriteErrorWithCode(w, http.StatusInternalServerError, "Internal server error", "internal_error")
}

// --- Resolution ---

type resolveResponse struct {
	CIK    string               `json:"cik,omitempty"`
	Ticker string               `json:"ticker,omitempty"`
	Found  bool                 `json:"found"`
	Cache  *resolver.CacheStats `json:"cache,omitempty"`
}

// handleResolve handles GET /api/resolve?name=&ticker=
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	ticker := strings.TrimSpace(r.URL.Query().Get("ticker"))
	if name == "" && ticker == "" {
		WriteError(w, http.StatusBadRequest, "name or ticker is required")
		return
	}

	ctx := r.Context()
	resp := resolveResponse{Ticker: strings.ToUpper(ticker)}

	cik, err := s.app.Resolver.Resolve(ctx, name, ticker)
	switch {
	case err == nil:
		resp.CIK = cik
		resp.Found = true
		if resp.Ticker == "" {
			if t, err := s.app.Resolver.TickerForCIK(ctx, cik); err == nil {
				resp.Ticker = t
			}
		}
	case errors.Is(err, models.ErrNotFound):
	default:
		s.logger.Warn().Err(err).Str("name", name).Str("ticker", ticker).Msg("Resolve failed")
		WriteError(w, http.StatusServiceUnavailable, "Reference table unavailable")
		return
	}

	if s.app.ResolutionCache != nil {
		stats := s.app.ResolutionCache.Stats()
		resp.Cache = &stats
	}
	WriteJSON(w, http.StatusOK, resp)
}

// --- Filings ---

// handleCompanyFilings handles GET /api/companies/{cik}/filings?forms=&since=&limit=
func (s *Server) handleCompanyFilings(w http.ResponseWriter, r *http.Request, cik string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()

	since, err := ParseDate(q.Get("since"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := ParseLimit(q.Get("limit"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := s.detachedContext(r)
	defer cancel()

	filings, err := s.app.FilingService.CompanyFilings(ctx, cik, interfaces.FilingQuery{
		Forms: SplitList(q.Get("forms")),
		Since: since,
		Limit: limit,
	})
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeInternalError(w, "company_filings", err)
		return
	}
	WriteJSON(w, http.StatusOK, newFilingsResponse(filings))
}

type scanRequest struct {
	Forms       []string `json:"forms"`
	Since       string   `json:"since"`
	Exchange    string   `json:"exchange"`
	Limit       int      `json:"limit"`
	MaxEntities int      `json:"max_entities"`
}

// handleFilingScan handles POST /api/filings/scan
func (s *Server) handleFilingScan(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req scanRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	since, err := ParseDate(req.Since)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Limit < 0 || req.MaxEntities < 0 {
		WriteError(w, http.StatusBadRequest, "limit and max_entities must not be negative")
		return
	}

	ctx, cancel := s.detachedContext(r)
	defer cancel()

	filings, err := s.app.FilingService.ScanUniverse(ctx, interfaces.ScanQuery{
		Forms:       req.Forms,
		Since:       since,
		Exchange:    strings.TrimSpace(req.Exchange),
		Limit:       req.Limit,
		MaxEntities: req.MaxEntities,
	})
	if err != nil {
		s.writeInternalError(w, "filing_scan", err)
		return
	}
	WriteJSON(w, http.StatusOK, newFilingsResponse(filings))
}

// --- Documents ---

// handleDocumentSearch handles POST /api/documents/search
func (s *Server) handleDocumentSearch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if s.app.DocumentService == nil {
		WriteError(w, http.StatusServiceUnavailable, "Document search is not configured")
		return
	}
	var req struct {
		Query string `json:"query"`
	}
	if !DecodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := s.detachedContext(r)
	defer cancel()

	result, err := s.app.DocumentService.Search(ctx, req.Query)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			WriteError(w, http.StatusBadRequest, "query is required")
			return
		}
		s.writeInternalError(w, "document_search", err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// --- Query ---

// handleQuery handles POST /api/query
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req models.QueryRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	ctx, cancel := s.detachedContext(r)
	defer cancel()

	resp, err := s.app.QueryService.Answer(ctx, req)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeInternalError(w, "query", err)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}
