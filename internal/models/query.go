package models

// QueryRequest is a free-text question plus any identifiers the caller already knows.
type QueryRequest struct {
	Query       string   `json:"query"`
	Name        string   `json:"name,omitempty"`
	Ticker      string   `json:"ticker,omitempty"`
	CIK         string   `json:"cik,omitempty"`
	Forms       []string `json:"forms,omitempty"`
	Limit       int      `json:"limit,omitempty"`
	IncludeNews bool     `json:"include_news,omitempty"`
}

// Identifiers is the resolved identity of the company a query is about.
type Identifiers struct {
	CIK    string `json:"cik,omitempty"`
	Ticker string `json:"ticker,omitempty"`
	Name   string `json:"name,omitempty"`
}

// QueryResponse is the orchestrated answer to a QueryRequest.
type QueryResponse struct {
	Query        string        `json:"query"`
	Identifiers  Identifiers   `json:"identifiers"`
	Filings      []Filing      `json:"filings"`
	Fundamentals *Fundamentals `json:"fundamentals,omitempty"`
	News         []*NewsItem   `json:"news,omitempty"`
	Summary      string        `json:"summary"`
	Warnings     []string      `json:"warnings,omitempty"`
}
