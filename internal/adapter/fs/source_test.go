package fs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"kbrag/internal/domain"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestResolveSingleMatch(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "data", "knowledge.md"))

	r := NewSourceResolver(root)
	path, err := r.Resolve("data/knowledge.{pdf,md,txt}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := filepath.Join(root, "data", "knowledge.md")
	if path != expected {
		t.Errorf("expected %s, got %s", expected, path)
	}
}

func TestResolveRecursivePattern(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "docs", "nested", "policy.txt"))

	r := NewSourceResolver(root)
	path, err := r.Resolve("**/*.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "policy.txt" {
		t.Errorf("expected policy.txt, got %s", path)
	}
}

func TestResolveNoMatch(t *testing.T) {
	r := NewSourceResolver(t.TempDir())

	_, err := r.Resolve("data/knowledge.pdf")
	var extErr *domain.ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
}

func TestResolveAmbiguous(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "data", "knowledge.md"))
	touch(t, filepath.Join(root, "data", "knowledge.txt"))

	r := NewSourceResolver(root)
	_, err := r.Resolve("data/knowledge.*")
	var extErr *domain.ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ExtractionError for two matches, got %v", err)
	}
}
