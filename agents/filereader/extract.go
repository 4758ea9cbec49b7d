package filereader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupported is returned for file types with no extractor.
var ErrUnsupported = errors.New("filereader: unsupported file type")

// Extractor converts raw file content to plain text.
type Extractor interface {
	Extract(content []byte) (string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(content []byte) (string, error)

// Extract calls f.
func (f ExtractorFunc) Extract(content []byte) (string, error) { return f(content) }

// DefaultExtractors maps lower-case extensions to the built-in extractors.
func DefaultExtractors() map[string]Extractor {
	text := ExtractorFunc(extractText)
	return map[string]Extractor{
		".pdf":  ExtractorFunc(extractPDF),
		".docx": ExtractorFunc(extractDOCX),
		".txt":  text,
		".md":   text,
		".csv":  text,
		".json": text,
	}
}

func extractorFor(extractors map[string]Extractor, path string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := extractors[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	return e, nil
}

func extractText(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", errors.New("text is not valid UTF-8")
	}
	return strings.TrimSpace(string(bytes.TrimPrefix(content, []byte("\xef\xbb\xbf")))), nil
}

func extractPDF(content []byte) (string, error) {
	if len(content) == 0 {
		return "", errors.New("empty PDF content")
	}
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var text strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(pageText)
	}
	return text.String(), nil
}

func extractDOCX(content []byte) (string, error) {
	if len(content) == 0 {
		return "", errors.New("empty docx content")
	}
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open zip: %w", err)
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", errors.New("missing word/document.xml")
	}
	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("read document.xml: %w", err)
	}
	defer rc.Close()
	return parseDocument(rc)
}

// parseDocument streams WordprocessingML tokens. Paragraphs become lines and
// table cells in a row are joined by " | ".
func parseDocument(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		out    []string
		para   strings.Builder
		row    []string
		inText bool
		inRow  bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br":
				para.WriteByte('\n')
			case "tr":
				row = nil
				inRow = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				line := strings.TrimSpace(para.String())
				para.Reset()
				if line == "" {
					continue
				}
				if inRow {
					row = append(row, line)
				} else {
					out = append(out, line)
				}
			case "tr":
				if len(row) > 0 {
					out = append(out, strings.Join(row, " | "))
				}
				row = nil
				inRow = false
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	return strings.Join(out, "\n"), nil
}
