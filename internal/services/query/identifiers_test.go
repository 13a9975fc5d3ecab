package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/finq/internal/models"
)

func TestParseIdentifiers(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantName   string
		wantTicker string
	}{
		{"plain", `{"company_name": "Apple Inc.", "ticker": "aapl"}`, "Apple Inc.", "AAPL"},
		{"fenced json", "```json\n{\"company_name\": \"Microsoft\", \"ticker\": \"MSFT\"}\n```", "Microsoft", "MSFT"},
		{"bare fence", "```\n{\"company_name\": \"Tesla\", \"ticker\": \"\"}\n```", "Tesla", ""},
		{"prose around", `Sure! {"company_name": "Nvidia", "ticker": "NVDA"} hope that helps`, "Nvidia", "NVDA"},
		{"nulls", `{"company_name": null, "ticker": null}`, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, ticker, err := parseIdentifiers(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantTicker, ticker)
		})
	}
}

func TestParseIdentifiers_Malformed(t *testing.T) {
	for _, raw := range []string{"", "Apple", "{company: apple}", "```\nnot json\n```"} {
		_, _, err := parseIdentifiers(raw)
		assert.ErrorIs(t, err, models.ErrMalformedModelOutput, raw)
	}
}

func TestGuessTicker(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"what did $aapl report last quarter?", "AAPL"},
		{"Is MSFT a buy after the SEC filing?", "MSFT"},
		{"How did the CEO of NVDA describe AI demand?", "NVDA"},
		{"SEC EPS guidance for US banks", ""},
		{"tell me about apple", ""},
		{"Compare GOOGLE to META", "META"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, guessTicker(tt.query))
		})
	}
}
