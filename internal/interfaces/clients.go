// Package interfaces defines service contracts for finq
package interfaces

import (
	"context"

	"github.com/bobmcallan/finq/internal/models"
)

// SECClient provides access to SEC EDGAR
type SECClient interface {
	// FetchReferenceTable retrieves the full company/ticker/exchange table
	FetchReferenceTable(ctx context.Context) (*models.ReferenceTable, error)

	// FetchEntityRecord retrieves the submissions record for one CIK
	FetchEntityRecord(ctx context.Context, cik string) (*models.EntityRecord, error)
}

// EODHDClient provides fundamentals and news from EODHD
type EODHDClient interface {
	// GetFundamentals retrieves fundamental data
	GetFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error)

	// GetNews retrieves news for a ticker
	GetNews(ctx context.Context, ticker string, limit int) ([]*models.NewsItem, error)
}

// Summarizer is the opaque language-model capability
type Summarizer interface {
	// Summarize returns the model's text answer for a prompt
	Summarize(ctx context.Context, prompt string) (string, error)
}

// DocumentIndex searches a document store and downloads file content
type DocumentIndex interface {
	// SearchFiles returns up to limit candidate files matching a search term
	SearchFiles(ctx context.Context, term string, limit int) ([]models.Candidate, error)

	// DownloadContent returns the raw bytes of one file
	DownloadContent(ctx context.Context, driveID, itemID string) ([]byte, error)
}

// ContentExtractor turns a binary blob into plain text.
// Unsupported kinds yield empty text.
type ContentExtractor interface {
	Extract(blob []byte, kind string) string
}
