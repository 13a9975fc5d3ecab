// Package extract turns downloaded document blobs into plain text for ranking
// and summarization. Unsupported kinds and unreadable blobs yield empty text.
package extract

import (
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bobmcallan/finq/internal/common"
	"github.com/bobmcallan/finq/internal/interfaces"
)

// Kind is a normalized document format
type Kind string

const (
	KindPDF     Kind = "pdf"
	KindDOCX    Kind = "docx"
	KindXLSX    Kind = "xlsx"
	KindText    Kind = "text"
	KindHTML    Kind = "html"
	KindUnknown Kind = ""
)

// Extractor implements ContentExtractor
type Extractor struct {
	maxChars int // zero returns the full text
	logger   *common.Logger
}

// Option configures the extractor
type Option func(*Extractor)

// WithMaxChars caps the extracted text length in characters; n <= 0 removes the cap
func WithMaxChars(n int) Option {
	return func(e *Extractor) {
		if n < 0 {
			n = 0
		}
		e.maxChars = n
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor
func New(opts ...Option) *Extractor {
	e := &Extractor{
		logger:   common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var mimeKinds = map[string]Kind{
	"application/pdf": KindPDF,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": KindDOCX,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       KindXLSX,
	"text/plain": KindText,
	"text/csv":   KindText,
	"text/html":  KindHTML,
}

// KindOf maps a file name, extension or bare kind ("report.PDF", ".docx", "xlsx") to a Kind
func KindOf(hint string) Kind {
	h := strings.ToLower(strings.TrimSpace(hint))
	if k, ok := mimeKinds[h]; ok {
		return k
	}
	if ext := filepath.Ext(h); ext != "" {
		h = ext
	}
	switch strings.TrimPrefix(h, ".") {
	case "pdf":
		return KindPDF
	case "docx", "docm":
		return KindDOCX
	case "xlsx", "xlsm":
		return KindXLSX
	case "txt", "text", "csv", "tsv", "md", "markdown", "json", "log":
		return KindText
	case "html", "htm", "xhtml", "aspx":
		return KindHTML
	default:
		return KindUnknown
	}
}

// Extract returns the plain text of blob, interpreting it according to the kind hint
func (e *Extractor) Extract(blob []byte, kind string) string {
	if len(blob) == 0 {
		return ""
	}

	var (
		text string
		err  error
	)
	k := KindOf(kind)
	switch k {
	case KindPDF:
		text, err = extractPDF(blob, e.maxChars)
	case KindDOCX:
		text, err = extractDOCX(blob)
	case KindXLSX:
		text, err = extractXLSX(blob)
	case KindText:
		text = decodeText(blob)
	case KindHTML:
		text = stripHTML(decodeText(blob))
	default:
		e.logger.Debug().Str("kind", kind).Msg("Unsupported content kind")
		return ""
	}
	if err != nil {
		e.logger.Warn().Err(err).Str("kind", string(k)).Msg("Content extraction failed")
		return ""
	}

	return truncateRunes(text, e.maxChars)
}

// decodeText returns blob as UTF-8, dropping a BOM and invalid sequences
func decodeText(blob []byte) string {
	s := strings.TrimPrefix(string(blob), "\ufeff")
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	return s
}

// truncateRunes cuts s to at most n runes
func truncateRunes(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Ensure Extractor implements ContentExtractor
var _ interfaces.ContentExtractor = (*Extractor)(nil)
