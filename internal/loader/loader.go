// Package loader converts source documents into raw text based on their
// file extension. Plain text and markdown load directly, PDFs go through a
// text extractor and CSV rows are rendered as labelled lines.
package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	// ErrUnsupportedType marks files with no recognized extension. The
	// ingestion pipeline skips these silently.
	ErrUnsupportedType = errors.New("unsupported document type")

	// ErrParse indicates a recognized document that could not be parsed.
	// Isolated to the document, never aborts a batch.
	ErrParse = errors.New("document parse failed")
)

// Parse converts document bytes to raw text based on the path's extension.
func Parse(path string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return string(data), nil
	case ".md", ".markdown":
		return parseMarkdown(data)
	case ".pdf":
		return parsePDF(data)
	case ".csv":
		return parseCSV(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, path)
	}
}

// parseMarkdown flattens a markdown document to plain text by walking the
// goldmark AST and collecting text segments. Formatting is discarded;
// block boundaries become blank lines so chunk windows don't glue
// unrelated sections together.
func parseMarkdown(source []byte) (string, error) {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(source))

	var b strings.Builder
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock && b.Len() > 0 {
				b.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}

		switch t := n.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteString("\n")
			}
		case *ast.AutoLink:
			b.Write(t.URL(source))
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(source))
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}

	return strings.TrimSpace(b.String()), nil
}

func parsePDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}

	return buf.String(), nil
}

// parseCSV renders each data row as "header: value" lines with a blank line
// between rows, so a row stays a coherent unit of text for retrieval.
func parseCSV(data []byte) (string, error) {
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(records) < 2 {
		return "", nil
	}

	headers := records[0]
	var rows []string
	for _, record := range records[1:] {
		var lines []string
		for i, value := range record {
			if i < len(headers) {
				lines = append(lines, fmt.Sprintf("%s: %s", headers[i], value))
			}
		}
		rows = append(rows, strings.Join(lines, "\n"))
	}

	return strings.Join(rows, "\n\n"), nil
}
