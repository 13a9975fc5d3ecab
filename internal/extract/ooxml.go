package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

// maxPartBytes bounds how much of a single archive member is read
const maxPartBytes = 32 * 1024 * 1024

// readZipPart returns the named member of an OOXML archive, or nil when absent
func readZipPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(io.LimitReader(rc, maxPartBytes))
	}
	return nil, nil
}

func openZip(blob []byte) (*zip.Reader, error) {
	reader, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		return nil, fmt.Errorf("not an OOXML archive: %w", err)
	}
	return reader, nil
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
		Tables     []struct {
			Rows []struct {
				Cells []struct {
					Paragraphs []paragraph `xml:"p"`
				} `xml:"tc"`
			} `xml:"tr"`
		} `xml:"tbl"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

func (p paragraph) text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		for _, t := range r.Text {
			sb.WriteString(t.Content)
		}
	}
	return sb.String()
}

// extractDOCX pulls paragraph and table text from word/document.xml
func extractDOCX(blob []byte) (string, error) {
	reader, err := openZip(blob)
	if err != nil {
		return "", err
	}
	content, err := readZipPart(reader, "word/document.xml")
	if err != nil {
		return "", err
	}
	if content == nil {
		return "", fmt.Errorf("word/document.xml missing")
	}

	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("parse document.xml: %w", err)
	}

	lines := make([]string, 0, len(doc.Body.Paragraphs))
	for _, para := range doc.Body.Paragraphs {
		lines = append(lines, para.text())
	}
	for _, tbl := range doc.Body.Tables {
		for _, row := range tbl.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				parts := make([]string, 0, len(cell.Paragraphs))
				for _, p := range cell.Paragraphs {
					parts = append(parts, p.text())
				}
				cells = append(cells, strings.Join(parts, " "))
			}
			lines = append(lines, strings.Join(cells, "\t"))
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// sharedStringsXML represents xl/sharedStrings.xml
type sharedStringsXML struct {
	Items []struct {
		Text string `xml:"t"`
		Runs []struct {
			Text string `xml:"t"`
		} `xml:"r"`
	} `xml:"si"`
}

// worksheetXML represents xl/worksheets/sheetN.xml
type worksheetXML struct {
	Rows []struct {
		Cells []struct {
			Type   string `xml:"t,attr"`
			Value  string `xml:"v"`
			Inline struct {
				Text string `xml:"t"`
			} `xml:"is"`
		} `xml:"c"`
	} `xml:"sheetData>row"`
}

// extractXLSX renders each sheet row as tab-separated cell values
func extractXLSX(blob []byte) (string, error) {
	reader, err := openZip(blob)
	if err != nil {
		return "", err
	}

	var shared []string
	if data, err := readZipPart(reader, "xl/sharedStrings.xml"); err != nil {
		return "", err
	} else if data != nil {
		var ss sharedStringsXML
		if err := xml.Unmarshal(data, &ss); err != nil {
			return "", fmt.Errorf("parse sharedStrings.xml: %w", err)
		}
		shared = make([]string, len(ss.Items))
		for i, item := range ss.Items {
			if item.Text != "" {
				shared[i] = item.Text
				continue
			}
			var sb strings.Builder
			for _, r := range item.Runs {
				sb.WriteString(r.Text)
			}
			shared[i] = sb.String()
		}
	}

	var sheets []string
	for _, file := range reader.File {
		if strings.HasPrefix(file.Name, "xl/worksheets/sheet") && strings.HasSuffix(file.Name, ".xml") {
			sheets = append(sheets, file.Name)
		}
	}
	sort.Strings(sheets)
	if len(sheets) == 0 {
		return "", fmt.Errorf("no worksheets")
	}

	var lines []string
	for _, name := range sheets {
		data, err := readZipPart(reader, name)
		if err != nil {
			return "", err
		}
		var ws worksheetXML
		if err := xml.Unmarshal(data, &ws); err != nil {
			return "", fmt.Errorf("parse %s: %w", name, err)
		}
		for _, row := range ws.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, c := range row.Cells {
				cells = append(cells, cellText(c.Type, c.Value, c.Inline.Text, shared))
			}
			line := strings.TrimSpace(strings.Join(cells, "\t"))
			if line != "" {
				lines = append(lines, line)
			}
		}
	}

	return strings.Join(lines, "\n"), nil
}

func cellText(typ, value, inline string, shared []string) string {
	switch typ {
	case "s":
		var idx int
		if _, err := fmt.Sscanf(value, "%d", &idx); err == nil && idx >= 0 && idx < len(shared) {
			return shared[idx]
		}
		return ""
	case "inlineStr":
		return inline
	default:
		return value
	}
}
