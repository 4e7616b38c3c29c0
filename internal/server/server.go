// Package server exposes the generation pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/testloom/testloom/internal/generator"
	"github.com/testloom/testloom/internal/llm"
)

// Server is the HTTP surface over a Generator.
type Server struct {
	gen     generator.Generator
	gateway llm.Gateway
	cache   *generator.Cache
	mux     *http.ServeMux
}

// New wires the HTTP handlers. cache may be nil when caching is disabled.
func New(gen generator.Generator, gateway llm.Gateway, cache *generator.Cache) *Server {
	s := &Server{
		gen:     gen,
		gateway: gateway,
		cache:   cache,
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("/generate", s.handleGenerate)
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/clear-cache", s.handleClearCache)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", requestID)
	log.Printf("%s %s [%s]", r.Method, r.URL.Path, requestID)
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe blocks until the context is cancelled or the listener
// fails.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Printf("listening on %s", addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

type generateRequest struct {
	SourceText        string            `json:"sourceText"`
	TargetName        string            `json:"targetName"`
	Strategy          string            `json:"strategy"`
	AdditionalContext map[string]string `json:"additionalContext"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	resp, err := s.gen.Generate(r.Context(), generator.Request{
		SourceText:        req.SourceText,
		TargetName:        req.TargetName,
		Strategy:          req.Strategy,
		AdditionalContext: req.AdditionalContext,
	})
	if err != nil {
		// the only generator error is missing input
		status := http.StatusInternalServerError
		if errors.Is(err, generator.ErrEmptySource) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

type healthResponse struct {
	Status       string `json:"status"`
	BackendAlive bool   `json:"backendAlive"`
	CachedItems  int    `json:"cachedItems"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	resp := healthResponse{
		Status:       "ok",
		BackendAlive: s.gateway.Healthy(r.Context()),
	}
	if s.cache != nil {
		resp.CachedItems = s.cache.Size()
	}
	if !resp.BackendAlive {
		resp.Status = "degraded"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	if s.cache != nil {
		s.cache.Clear()
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
