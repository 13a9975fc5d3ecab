package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/finq/internal/models"
)

// ReferenceSource loads the reference table
type ReferenceSource interface {
	Load(ctx context.Context) (*models.ReferenceTable, error)
}

// IdentifierResolver maps company names and tickers to CIKs and back
type IdentifierResolver interface {
	// Resolve returns the CIK for a (name, ticker) pair, or models.ErrNotFound
	Resolve(ctx context.Context, name, ticker string) (string, error)

	// TickerForCIK returns the ticker listed for a CIK, or models.ErrNotFound
	TickerForCIK(ctx context.Context, cik string) (string, error)
}

// FilingQuery narrows filings for a single company
type FilingQuery struct {
	Forms []string  // form codes to keep; empty keeps all
	Since time.Time // keep filings on or after this date; zero keeps all
	Limit int
}

// ScanQuery narrows a full-universe filing scan
type ScanQuery struct {
	Forms       []string
	Since       time.Time
	Exchange    string // restrict the universe to one exchange; empty scans all
	Limit       int
	MaxEntities int // cap on CIKs considered; zero means the whole universe
}

// FilingService retrieves filings through the batch pipeline
type FilingService interface {
	// CompanyFilings returns the most recent filings for one CIK
	CompanyFilings(ctx context.Context, cik string, query FilingQuery) ([]models.Filing, error)

	// ScanUniverse discovers filings across every CIK in the reference table
	ScanUniverse(ctx context.Context, query ScanQuery) ([]models.Filing, error)
}

// DocumentService answers a query from ranked documents
type DocumentService interface {
	Search(ctx context.Context, query string) (*models.DocumentSearchResult, error)
}

// QueryService answers free-text financial questions
type QueryService interface {
	Answer(ctx context.Context, req models.QueryRequest) (*models.QueryResponse, error)
}
