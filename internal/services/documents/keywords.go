package documents

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minKeywordRunes is the shortest token kept as a keyword
const minKeywordRunes = 3

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "that": {}, "this": {},
	"these": {}, "those": {}, "are": {}, "was": {}, "were": {}, "been": {}, "being": {},
	"have": {}, "has": {}, "had": {}, "not": {}, "but": {}, "you": {}, "your": {},
	"our": {}, "their": {}, "they": {}, "them": {}, "its": {}, "all": {}, "any": {},
	"can": {}, "could": {}, "would": {}, "should": {}, "will": {}, "shall": {},
	"does": {}, "did": {}, "doing": {}, "what": {}, "which": {}, "who": {}, "whom": {},
	"when": {}, "where": {}, "why": {}, "how": {}, "about": {}, "into": {}, "over": {},
	"under": {}, "there": {}, "here": {}, "some": {}, "more": {}, "most": {}, "than": {},
	"then": {}, "also": {}, "just": {}, "only": {}, "very": {}, "please": {}, "show": {},
	"find": {}, "give": {}, "tell": {}, "get": {}, "list": {}, "want": {}, "need": {},
	"know": {}, "let": {}, "may": {}, "might": {}, "must": {}, "out": {}, "one": {},
}

// ExtractKeywords tokenizes a query into distinct lower-cased words of at
// least three runes, dropping stop words. Order of first appearance is kept.
func ExtractKeywords(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	keywords := make([]string, 0, len(fields))
	for _, word := range fields {
		if utf8.RuneCountInString(word) < minKeywordRunes {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}
	return keywords
}

// SearchTerm is the string sent to the document index: the keywords joined
// by spaces, or the trimmed raw query when no keywords survive
func SearchTerm(query string, keywords []string) string {
	if len(keywords) == 0 {
		return strings.TrimSpace(query)
	}
	return strings.Join(keywords, " ")
}

// countMatches returns how many distinct keywords occur in text (already lower-cased)
func countMatches(text string, keywords []string) int {
	if text == "" {
		return 0
	}
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}
