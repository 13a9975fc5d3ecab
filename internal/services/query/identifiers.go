package query

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/bobmcallan/finq/internal/models"
)

var (
	cashtagPattern = regexp.MustCompile(`\$([A-Za-z]{1,5})\b`)
	capsPattern    = regexp.MustCompile(`\b[A-Z]{1,5}\b`)
	fencePattern   = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
)

// capsNoise are all-caps tokens that are almost never tickers in a question
var capsNoise = map[string]struct{}{
	"A": {}, "I": {}, "AI": {}, "CEO": {}, "CFO": {}, "COO": {}, "CTO": {},
	"SEC": {}, "IPO": {}, "EPS": {}, "ETF": {}, "GAAP": {}, "ESG": {}, "USA": {},
	"US": {}, "USD": {}, "UK": {}, "EU": {}, "YOY": {}, "QOQ": {}, "TTM": {},
	"PE": {}, "FY": {}, "OK": {}, "FAQ": {}, "API": {},
}

// identifierPrompt asks the model to name the company a question is about
func identifierPrompt(query string) string {
	return "Identify the public company this question is about. " +
		"Reply with only a JSON object of the form " +
		`{"company_name": "...", "ticker": "..."}` +
		" using empty strings for anything you cannot determine.\n\nQuestion: " + query
}

type extractedIdentifiers struct {
	CompanyName string `json:"company_name"`
	Ticker      string `json:"ticker"`
}

// parseIdentifiers decodes the model's JSON reply, tolerating markdown code
// fences and prose around the object.
func parseIdentifiers(raw string) (name, ticker string, err error) {
	text := stripCodeFences(raw)
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		text = text[start : end+1]
	}

	var out extractedIdentifiers
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return "", "", fmt.Errorf("%w: %v", models.ErrMalformedModelOutput, err)
	}
	return strings.TrimSpace(out.CompanyName), strings.ToUpper(strings.TrimSpace(out.Ticker)), nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// guessTicker picks a ticker straight from the question text: a $cashtag
// wins, otherwise the first all-caps token of one to five letters that is
// not a common acronym.
func guessTicker(query string) string {
	if m := cashtagPattern.FindStringSubmatch(query); m != nil {
		return strings.ToUpper(m[1])
	}
	for _, tok := range capsPattern.FindAllString(query, -1) {
		if _, noise := capsNoise[tok]; noise {
			continue
		}
		return tok
	}
	return ""
}
