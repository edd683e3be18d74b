package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kbrag/internal/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractPlainText(t *testing.T) {
	content := "Claims are filed by phone.\n\nRenewals happen yearly."
	path := writeFile(t, "knowledge.txt", content)

	text, err := New().Extract(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != content {
		t.Errorf("expected %q, got %q", content, text)
	}
}

func TestExtractMarkdown(t *testing.T) {
	content := "# Office Hours\n\nWe are open **Monday** to *Friday*.\n\n- Claims\n- Renewals\n\n```\nphone: 555-0100\n```\n"
	path := writeFile(t, "knowledge.md", content)

	text, err := New().Extract(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"Office Hours", "We are open Monday to Friday.", "Claims", "Renewals", "phone: 555-0100"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected extracted text to contain %q, got %q", want, text)
		}
	}
	for _, markup := range []string{"#", "**", "```"} {
		if strings.Contains(text, markup) {
			t.Errorf("expected markup %q to be stripped, got %q", markup, text)
		}
	}
	if !strings.Contains(text, "Office Hours\n\nWe are open") {
		t.Errorf("expected blocks separated by a blank line, got %q", text)
	}
}

func TestExtractMissingFile(t *testing.T) {
	_, err := New().Extract(filepath.Join(t.TempDir(), "missing.pdf"))

	var extractionErr *domain.ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
}

// singlePagePDF builds a one-page PDF showing text in Helvetica, with a
// correct cross-reference table.
func singlePagePDF(text string) string {
	content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.String()
}

func TestExtractPDF(t *testing.T) {
	path := writeFile(t, "knowledge.pdf", singlePagePDF("Claims are filed by phone."))

	text, err := New().Extract(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(text, "Claims are filed by phone.") {
		t.Errorf("expected page text, got %q", text)
	}
}

func TestExtractCorruptedPDF(t *testing.T) {
	path := writeFile(t, "knowledge.pdf", "this is not a pdf")

	_, err := New().Extract(path)

	var extractionErr *domain.ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
}

func TestExtractBinaryText(t *testing.T) {
	path := writeFile(t, "knowledge.txt", string([]byte{0xff, 0xfe, 0x00, 0x41}))

	_, err := New().Extract(path)

	var extractionErr *domain.ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
}
