package extractor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"kbrag/internal/domain"
)

// Extractor converts a source document into plain text, choosing a reader by
// file extension.
type Extractor struct{}

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", &domain.ExtractionError{Path: path, Err: err}
	}
	if info.IsDir() {
		return "", &domain.ExtractionError{Path: path, Err: fmt.Errorf("is a directory")}
	}

	var text string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err = extractPDF(path)
	case ".md", ".markdown":
		text, err = extractMarkdown(path)
	default:
		text, err = extractText(path)
	}
	if err != nil {
		return "", &domain.ExtractionError{Path: path, Err: err}
	}

	return text, nil
}

func extractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("unsupported format: not UTF-8 text")
	}
	return string(data), nil
}
