package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ReferenceRow is one listed entity from the SEC company/ticker/exchange table.
type ReferenceRow struct {
	CIK      string `json:"cik"` // 10-digit zero-padded
	Name     string `json:"name"`
	Ticker   string `json:"ticker"`
	Exchange string `json:"exchange,omitempty"`
}

// ReferenceTable is the full-universe identifier table. Rows keep upstream order.
type ReferenceTable struct {
	Rows []ReferenceRow `json:"rows"`
}

// Len returns the number of rows, tolerating a nil table.
func (t *ReferenceTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// DistinctCIKs returns each CIK once, in first-seen order. When exchange is
// non-empty only rows listed on that exchange (case-insensitive) are considered.
func (t *ReferenceTable) DistinctCIKs(exchange string) []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]bool, len(t.Rows))
	ciks := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if exchange != "" && !strings.EqualFold(row.Exchange, exchange) {
			continue
		}
		if seen[row.CIK] {
			continue
		}
		seen[row.CIK] = true
		ciks = append(ciks, row.CIK)
	}
	return ciks
}

// PadCIK normalizes a numeric CIK ("320193", "0000320193", "CIK320193") to its
// 10-digit zero-padded form.
func PadCIK(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(strings.ToUpper(s), "CIK")
	if s == "" {
		return "", fmt.Errorf("empty CIK: %w", ErrInvalidInput)
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n > 9999999999 {
		return "", fmt.Errorf("invalid CIK %q: %w", raw, ErrInvalidInput)
	}
	return fmt.Sprintf("%010d", n), nil
}

// UnpadCIK returns the CIK without leading zeros, as used in EDGAR archive paths.
func UnpadCIK(cik string) string {
	trimmed := strings.TrimLeft(cik, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
