package server

import (
	"net/http"

	"github.com/bobmcallan/finq/internal/common"
)

// staticRoutes are the fixed paths served by the mux
var staticRoutes = map[string]struct{}{
	"/api/health":           {},
	"/api/version":          {},
	"/api/resolve":          {},
	"/api/filings/scan":     {},
	"/api/documents/search": {},
	"/api/query":            {},
	"/metrics":              {},
}

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.Handle("/metrics", s.app.Metrics.Handler())

	// Resolution
	mux.HandleFunc("/api/resolve", s.handleResolve)

	// Filings
	mux.HandleFunc("/api/companies/", s.routeCompanies)
	mux.HandleFunc("/api/filings/scan", s.handleFilingScan)

	// Documents
	mux.HandleFunc("/api/documents/search", s.handleDocumentSearch)

	// Orchestrated answers
	mux.HandleFunc("/api/query", s.handleQuery)
}

// routeCompanies dispatches /api/companies/{cik}/...
func (s *Server) routeCompanies(w http.ResponseWriter, r *http.Request) {
	cik := PathParam(r, "/api/companies/", "/")
	if cik == "" || r.URL.Path != "/api/companies/"+cik+"/filings" {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	s.handleCompanyFilings(w, r, cik)
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}
