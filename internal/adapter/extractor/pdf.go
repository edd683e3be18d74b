package extractor

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

func extractPDF(path string) (text string, err error) {
	// The PDF reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("corrupted PDF: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}

	return buf.String(), nil
}
