package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadCIK(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"320193", "0000320193"},
		{"0000320193", "0000320193"},
		{" 320193 ", "0000320193"},
		{"CIK320193", "0000320193"},
		{"cik0000789019", "0000789019"},
		{"0", "0000000000"},
	}

	for _, tt := range tests {
		got, err := PadCIK(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestPadCIK_Invalid(t *testing.T) {
	for _, input := range []string{"", "   ", "AAPL", "12a4", "-5", "123456789012"} {
		_, err := PadCIK(input)
		assert.True(t, errors.Is(err, ErrInvalidInput), "PadCIK(%q) should be invalid input", input)
	}
}

func TestUnpadCIK(t *testing.T) {
	assert.Equal(t, "320193", UnpadCIK("0000320193"))
	assert.Equal(t, "0", UnpadCIK("0000000000"))
}

func TestReferenceTable_DistinctCIKs(t *testing.T) {
	table := &ReferenceTable{Rows: []ReferenceRow{
		{CIK: "0000000001", Ticker: "AAA", Exchange: "Nasdaq"},
		{CIK: "0000000002", Ticker: "BBB", Exchange: "NYSE"},
		{CIK: "0000000001", Ticker: "AAA-W", Exchange: "Nasdaq"},
		{CIK: "0000000003", Ticker: "CCC", Exchange: "nasdaq"},
	}}

	assert.Equal(t, []string{"0000000001", "0000000002", "0000000003"}, table.DistinctCIKs(""))
	assert.Equal(t, []string{"0000000001", "0000000003"}, table.DistinctCIKs("NASDAQ"))

	var nilTable *ReferenceTable
	assert.Nil(t, nilTable.DistinctCIKs(""))
	assert.Equal(t, 0, nilTable.Len())
}

func TestFiling_KeyAndURL(t *testing.T) {
	f := Filing{
		CIK:             "0000320193",
		AccessionNumber: "0000320193-24-000123",
		FilingDate:      time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
		Form:            "10-K",
		PrimaryDocument: "aapl-20240928.htm",
	}

	assert.Equal(t, "0000320193|0000320193-24-000123", f.Key())
	assert.Equal(t, "https://www.sec.gov/Archives/edgar/data/320193/000032019324000123/aapl-20240928.htm", f.URL())

	f.PrimaryDocument = ""
	assert.Empty(t, f.URL())
}
