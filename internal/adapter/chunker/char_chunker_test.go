package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func reconstruct(t *testing.T, chunks []string, overlap int) string {
	t.Helper()
	var sb strings.Builder
	for i, c := range chunks {
		if i == 0 {
			sb.WriteString(c)
			continue
		}
		runes := []rune(c)
		sb.WriteString(string(runes[overlap:]))
	}
	return sb.String()
}

func TestCharChunkerBasic(t *testing.T) {
	chunker, err := NewCharChunker(10, 3)
	if err != nil {
		t.Fatal(err)
	}

	content := "abcdefghijklmnopqrstuvwxyz"

	chunks, err := chunker.Chunk(content)
	if err != nil {
		t.Fatal(err)
	}

	expected := []string{"abcdefghij", "hijklmnopq", "opqrstuvwx", "vwxyz"}
	if len(chunks) != len(expected) {
		t.Fatalf("expected %d chunks, got %d", len(expected), len(chunks))
	}
	for i, chunk := range chunks {
		if chunk.Index != i {
			t.Errorf("chunk %d has index %d", i, chunk.Index)
		}
		if chunk.Text != expected[i] {
			t.Errorf("chunk %d: expected %q, got %q", i, expected[i], chunk.Text)
		}
	}
}

func TestCharChunkerReconstruction(t *testing.T) {
	inputs := []string{
		"a",
		strings.Repeat("lorem ipsum dolor sit amet ", 40),
		"Paragraph one.\n\nParagraph two has more words.\n\nParagraph three.",
		strings.Repeat("ü€😀", 77),
	}

	for _, size := range []int{1, 7, 50, 128} {
		for _, overlap := range []int{0, 1, 5} {
			if overlap >= size {
				continue
			}
			chunker, err := NewCharChunker(size, overlap)
			if err != nil {
				t.Fatal(err)
			}

			for _, input := range inputs {
				chunks, err := chunker.Chunk(input)
				if err != nil {
					t.Fatal(err)
				}

				texts := make([]string, len(chunks))
				for i, c := range chunks {
					n := utf8.RuneCountInString(c.Text)
					if n > size {
						t.Errorf("size=%d: chunk %d has %d runes", size, i, n)
					}
					if n == 0 {
						t.Errorf("size=%d: chunk %d is empty", size, i)
					}
					texts[i] = c.Text
				}

				if got := reconstruct(t, texts, overlap); got != input {
					t.Errorf("size=%d overlap=%d: reconstruction mismatch", size, overlap)
				}
			}
		}
	}
}

func TestCharChunkerOverlap(t *testing.T) {
	chunker, err := NewCharChunker(20, 6)
	if err != nil {
		t.Fatal(err)
	}

	content := strings.Repeat("0123456789", 9)

	chunks, err := chunker.Chunk(content)
	if err != nil {
		t.Fatal(err)
	}

	if len(chunks) < 2 {
		t.Fatal("need at least 2 chunks to test overlap")
	}

	for i := 0; i < len(chunks)-1; i++ {
		current := chunks[i]
		next := chunks[i+1]

		if next.Start != current.End-6 {
			t.Errorf("chunk %d starts at %d, expected %d", i+1, next.Start, current.End-6)
		}

		tail := []rune(current.Text)
		head := []rune(next.Text)
		if string(tail[len(tail)-6:]) != string(head[:6]) {
			t.Errorf("chunks %d and %d do not share 6 characters", i, i+1)
		}
	}

	last := chunks[len(chunks)-1]
	if last.End != len(content) {
		t.Errorf("last chunk ends at %d, expected %d", last.End, len(content))
	}
}

func TestCharChunkerShortText(t *testing.T) {
	chunker, err := NewCharChunker(1000, 200)
	if err != nil {
		t.Fatal(err)
	}

	content := "First paragraph.\n\nSecond paragraph.\n\nThird paragraph."

	chunks, err := chunker.Chunk(content)
	if err != nil {
		t.Fatal(err)
	}

	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != content {
		t.Errorf("expected chunk to equal content, got %q", chunks[0].Text)
	}
}

func TestCharChunkerExactSize(t *testing.T) {
	chunker, err := NewCharChunker(10, 4)
	if err != nil {
		t.Fatal(err)
	}

	chunks, err := chunker.Chunk("0123456789")
	if err != nil {
		t.Fatal(err)
	}

	if len(chunks) != 1 {
		t.Errorf("expected 1 chunk for text of exactly chunk size, got %d", len(chunks))
	}
}

func TestCharChunkerEmptyContent(t *testing.T) {
	chunker, err := NewCharChunker(50, 10)
	if err != nil {
		t.Fatal(err)
	}

	chunks, err := chunker.Chunk("")
	if err != nil {
		t.Fatal(err)
	}

	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty content, got %d", len(chunks))
	}
}

func TestCharChunkerDeterministic(t *testing.T) {
	chunker, err := NewCharChunker(33, 8)
	if err != nil {
		t.Fatal(err)
	}

	content := strings.Repeat("The claims process starts with a phone call. ", 20)

	first, _ := chunker.Chunk(content)
	second, _ := chunker.Chunk(content)

	if len(first) != len(second) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestNewCharChunkerInvalid(t *testing.T) {
	cases := []struct {
		size, overlap int
	}{
		{0, 0},
		{-5, 0},
		{10, 10},
		{10, 12},
		{10, -1},
	}

	for _, tc := range cases {
		if _, err := NewCharChunker(tc.size, tc.overlap); err == nil {
			t.Errorf("expected error for size=%d overlap=%d", tc.size, tc.overlap)
		}
	}
}
