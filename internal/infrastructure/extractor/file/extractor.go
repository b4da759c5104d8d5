package file

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/yemyatmin/shop-assistant/internal/core/ports"
)

// Extractor reads knowledge documents from the local filesystem. Markdown and
// plain text pass through as-is so the chunker can see their headings; PDF
// pages are flattened to plain text.
type Extractor struct{}

var _ ports.TextExtractor = (*Extractor)(nil)

func NewExtractor() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(ctx context.Context, path string) (string, string, error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var text string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".txt", "":
		text, err = readPlainText(path)
	case ".pdf":
		text, err = readPDFText(path)
	default:
		return "", "", fmt.Errorf("unsupported document format: %s", filepath.Ext(path))
	}
	if err != nil {
		return "", "", err
	}
	return title, strings.TrimSpace(text), nil
}

func readPlainText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("source document is not valid utf-8: %s", filepath.Base(path))
	}
	return string(raw), nil
}

func readPDFText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}
