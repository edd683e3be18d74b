package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"kbrag/internal/domain"
)

type embeddingsRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// fakeEmbeddings answers with vectors whose first component encodes the
// input position, returned in reverse order.
func fakeEmbeddings(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/embeddings") {
			http.NotFound(w, r)
			return
		}
		calls.Add(1)

		var req embeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(len(req.Input[i])), 0, 0, 0},
			})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  req.Model,
			"data":   data,
		})
	}))
}

func TestOpenAIEmbedderOrderAndNormalize(t *testing.T) {
	var calls atomic.Int32
	srv := fakeEmbeddings(t, &calls)
	defer srv.Close()

	t.Setenv("TEST_EMBED_KEY", "sk-test")
	emb, err := NewOpenAIEmbedder("TEST_EMBED_KEY", Options{
		Model:     "text-embedding-3-small",
		BaseURL:   srv.URL + "/v1",
		Dimension: 4,
		BatchSize: 2,
	})
	if err != nil {
		t.Fatal(err)
	}

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := emb.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(vectors) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(vectors))
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 batched requests, got %d", got)
	}
	for i, v := range vectors {
		if len(v) != 4 {
			t.Errorf("vector %d has dimension %d", i, len(v))
		}
		if math.Abs(float64(v[0])-1) > 1e-6 {
			t.Errorf("vector %d not normalized or out of order: %v", i, v)
		}
	}
}

func TestOpenAIEmbedderDimensionMismatch(t *testing.T) {
	var calls atomic.Int32
	srv := fakeEmbeddings(t, &calls)
	defer srv.Close()

	t.Setenv("TEST_EMBED_KEY", "sk-test")
	emb, err := NewOpenAIEmbedder("TEST_EMBED_KEY", Options{
		Model:     "text-embedding-3-small",
		BaseURL:   srv.URL + "/v1",
		Dimension: 1536,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = emb.Embed(context.Background(), []string{"hello"})
	var providerErr *domain.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
}

func TestOpenAIEmbedderAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer srv.Close()

	t.Setenv("TEST_EMBED_KEY", "sk-wrong")
	emb, err := NewOpenAIEmbedder("TEST_EMBED_KEY", Options{
		Model:   "text-embedding-3-small",
		BaseURL: srv.URL + "/v1",
	})
	if err != nil {
		t.Fatal(err)
	}

	vectors, err := emb.Embed(context.Background(), []string{"hello"})
	if vectors != nil {
		t.Errorf("expected no partial result, got %d vectors", len(vectors))
	}

	var providerErr *domain.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "OpenAI API error:") {
		t.Errorf("unexpected error message: %s", err.Error())
	}
	if !strings.Contains(err.Error(), "Incorrect API key provided") {
		t.Errorf("expected upstream message in error, got %s", err.Error())
	}
}

func TestNewOpenAIEmbedderMissingKey(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "")
	if _, err := NewOpenAIEmbedder("TEST_EMBED_KEY", Options{Model: "text-embedding-3-small"}); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestMockEmbedder(t *testing.T) {
	emb := NewMockEmbedder(32)

	vectors, err := emb.Embed(context.Background(), []string{
		"claims are filed by phone",
		"file claims by phone",
		"office parking garage",
	})
	if err != nil {
		t.Fatal(err)
	}

	dot := func(a, b []float32) float32 {
		var s float32
		for i := range a {
			s += a[i] * b[i]
		}
		return s
	}

	for i, v := range vectors {
		if n := dot(v, v); math.Abs(float64(n)-1) > 1e-5 {
			t.Errorf("vector %d has squared norm %f", i, n)
		}
	}
	if dot(vectors[0], vectors[1]) <= dot(vectors[0], vectors[2]) {
		t.Error("expected texts sharing words to be closer")
	}

	again, _ := emb.Embed(context.Background(), []string{"claims are filed by phone"})
	for i := range again[0] {
		if again[0][i] != vectors[0][i] {
			t.Fatal("mock embeddings are not deterministic")
		}
	}
}
