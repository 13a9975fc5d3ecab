package models

// Candidate is one rankable document from a document-search index.
// The scoring fields are filled by the ranking pass.
type Candidate struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	DriveID        string `json:"drive_id"`
	WebURL         string `json:"web_url"`
	NameMatches    int    `json:"name_matches"`
	ContentMatches int    `json:"content_matches"`
	Score          int    `json:"score"`
}

// DocumentSearchResult is the answer to a document search query.
type DocumentSearchResult struct {
	Query      string      `json:"query"`
	Keywords   []string    `json:"keywords"`
	SearchTerm string      `json:"search_term"`
	Candidates []Candidate `json:"candidates"`
	FullyRead  []string    `json:"fully_read"` // ids of the top candidates fetched at full length
	Summary    string      `json:"summary"`
}
