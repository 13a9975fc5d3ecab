package models

import (
	"fmt"
	"strings"
	"time"
)

// Filing is one SEC submission.
type Filing struct {
	CIK             string    `json:"cik"`
	CompanyName     string    `json:"company_name"`
	Ticker          string    `json:"ticker,omitempty"`
	AccessionNumber string    `json:"accession_number"`
	FilingDate      time.Time `json:"filing_date"`
	Form            string    `json:"form"`
	PrimaryDocument string    `json:"primary_document,omitempty"`
}

// Key is the dedup identity of a filing.
func (f Filing) Key() string {
	return f.CIK + "|" + f.AccessionNumber
}

// URL returns the EDGAR archive location of the primary document.
func (f Filing) URL() string {
	if f.PrimaryDocument == "" {
		return ""
	}
	return fmt.Sprintf("https://www.sec.gov/Archives/edgar/data/%s/%s/%s",
		UnpadCIK(f.CIK), strings.ReplaceAll(f.AccessionNumber, "-", ""), f.PrimaryDocument)
}

// EntityRecord is the per-entity submissions record from EDGAR.
type EntityRecord struct {
	CIK     string   `json:"cik"`
	Name    string   `json:"name"`
	Tickers []string `json:"tickers,omitempty"`
	Filings []Filing `json:"filings"`
}
