package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"kbrag/internal/usecase"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

type Ingester interface {
	Ingest(ctx context.Context, progress usecase.ProgressFunc) (*usecase.IngestResult, error)
}

type Chatter interface {
	Chat(ctx context.Context, message string) (*usecase.ChatResult, error)
}

// Server exposes ingestion and chat over HTTP.
type Server struct {
	ingest  Ingester
	chat    Chatter
	origins []string
}

func New(ingest Ingester, chat Chatter, allowedOrigins []string) *Server {
	return &Server{
		ingest:  ingest,
		chat:    chat,
		origins: allowedOrigins,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("POST /ingest", s.handleIngest)
	mux.HandleFunc("POST /chat", s.handleChat)
	return withCORS(s.origins, mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Printf("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type chatRequest struct {
	Message *string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "RAG AI Agent API",
		"version": Version,
	})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	result, err := s.ingest.Ingest(r.Context(), nil)
	if err != nil {
		log.Printf("ingest failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: usecase.FailureDetail(usecase.OpIngest, err)})
		return
	}

	log.Printf("ingested %s: %d chunks, build %s (%s)", result.Source, result.Chunks, result.BuildID, time.Since(start).Round(time.Millisecond))
	writeJSON(w, http.StatusOK, map[string]any{
		"status": result.Status,
		"chunks": result.Chunks,
	})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "Invalid JSON"})
		return
	}
	if req.Message == nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "Field 'message' is required"})
		return
	}

	result, err := s.chat.Chat(r.Context(), *req.Message)
	if err != nil {
		log.Printf("chat failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: usecase.FailureDetail(usecase.OpChat, err)})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}
