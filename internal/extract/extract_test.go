package extract

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const docxBody = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Annual budget</w:t></w:r><w:r><w:t xml:space="preserve"> report</w:t></w:r></w:p>
    <w:p><w:r><w:t>Revenue grew 12%</w:t></w:r></w:p>
    <w:tbl><w:tr>
      <w:tc><w:p><w:r><w:t>Region</w:t></w:r></w:p></w:tc>
      <w:tc><w:p><w:r><w:t>EMEA</w:t></w:r></w:p></w:tc>
    </w:tr></w:tbl>
  </w:body>
</w:document>`

func TestExtract_DOCX(t *testing.T) {
	blob := buildZip(t, map[string]string{"word/document.xml": docxBody})

	text := New().Extract(blob, "Q3 Budget.docx")

	assert.Contains(t, text, "Annual budget report")
	assert.Contains(t, text, "Revenue grew 12%")
	assert.Contains(t, text, "Region\tEMEA")
}

func TestExtract_XLSX(t *testing.T) {
	blob := buildZip(t, map[string]string{
		"xl/sharedStrings.xml": `<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
  <si><t>Budget</t></si>
  <si><r><t>Head</t></r><r><t>count</t></r></si>
</sst>`,
		"xl/worksheets/sheet1.xml": `<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>
  <row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1"><v>1200</v></c></row>
  <row r="2"><c r="A2" t="s"><v>1</v></c><c r="B2" t="inlineStr"><is><t>forty</t></is></c></row>
  <row r="3"><c r="A3" t="s"><v>99</v></c></row>
</sheetData></worksheet>`,
	})

	text := New().Extract(blob, ".xlsx")

	lines := strings.Split(text, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Budget\t1200", lines[0])
	assert.Equal(t, "Headcount\tforty", lines[1])
}

func TestExtract_TextAndHTML(t *testing.T) {
	e := New()

	assert.Equal(t, "plain notes", e.Extract([]byte("\ufeffplain notes"), "notes.txt"))

	html := `<html><head><title>x</title><style>p{}</style></head>
<body><h1>Budget &amp; Forecast</h1><script>alert(1)</script><p>Line   two</p></body></html>`
	assert.Equal(t, "Budget & Forecast\nLine two", e.Extract([]byte(html), "text/html"))
}

func TestExtract_UnsupportedOrCorrupt(t *testing.T) {
	e := New()

	tests := []struct {
		name string
		blob []byte
		kind string
	}{
		{"unsupported kind", []byte("GIF89a"), "image.gif"},
		{"empty blob", nil, "pdf"},
		{"corrupt docx", []byte("not a zip"), "docx"},
		{"corrupt xlsx", []byte("not a zip"), "xlsx"},
		{"docx without document part", buildZip(t, map[string]string{"other.xml": "<x/>"}), "docx"},
		{"corrupt pdf", []byte("%PDF-1.4 garbage"), "report.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Equal(t, "", e.Extract(tt.blob, tt.kind))
			})
		})
	}
}

func TestExtract_MaxChars(t *testing.T) {
	e := New(WithMaxChars(5))
	assert.Equal(t, "héllo", e.Extract([]byte("héllo world"), "txt"))
}

func TestExtract_UncappedByDefault(t *testing.T) {
	body := strings.Repeat("a", 250_000) + "END"
	text := New().Extract([]byte(body), "txt")
	assert.Len(t, text, 250_003)
	assert.True(t, strings.HasSuffix(text, "END"))
}

func TestExtract_NonPositiveMaxCharsRemovesCap(t *testing.T) {
	e := New(WithMaxChars(5), WithMaxChars(0))
	assert.Equal(t, "héllo world", e.Extract([]byte("héllo world"), "txt"))
}

func TestKindOf(t *testing.T) {
	tests := map[string]Kind{
		"report.PDF":      KindPDF,
		".docx":           KindDOCX,
		"xlsx":            KindXLSX,
		"data.csv":        KindText,
		"page.aspx":       KindHTML,
		"application/pdf": KindPDF,
		"archive.zip":     KindUnknown,
		"":                KindUnknown,
	}
	for hint, want := range tests {
		assert.Equal(t, want, KindOf(hint), hint)
	}
}
