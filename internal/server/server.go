// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the search pipeline over HTTP under /api.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/docsearch/internal/logging"
	"github.com/pdiddy/docsearch/internal/search"
	"github.com/pdiddy/docsearch/pkg/types"
)

// Version is reported by the banner endpoint.
var Version = "1.0.0"

const (
	searchFailed        = "Search failed. Please try again."
	summarizationFailed = "Summarization failed"
	maxBodyBytes        = 1 << 20
	defaultSummaryLen   = 500
)

// Searcher runs one aggregated search.
type Searcher interface {
	Search(ctx context.Context, req search.Request) (*search.Response, error)
}

// Assistant backs the suggestion and summarization endpoints.
type Assistant interface {
	Suggest(ctx context.Context, query string) []string
	SummarizeDocument(ctx context.Context, docURL string, maxLen int) (string, error)
}

// HistoryReader lists past searches.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]types.SearchHistoryRecord, error)
	Ping(ctx context.Context) error
}

// Deps are the collaborators a Server routes to. History and Metrics are
// optional.
type Deps struct {
	Searcher  Searcher
	Assistant Assistant
	History   HistoryReader
	Registry  *search.Registry
	Metrics   http.Handler
	Config    types.Config
	Log       logrus.FieldLogger
}

// Server holds the HTTP handlers.
type Server struct {
	Deps
}

// New returns a Server over d.
func New(d Deps) *Server {
	if d.Log == nil {
		d.Log = logging.Discard()
	}
	return &Server{Deps: d}
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(allowCORS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/", s.handleRoot)
		r.Post("/search", s.handleSearch)
		r.Get("/search/history", s.handleHistory)
		r.Get("/suggestions", s.handleSuggestions)
		r.Post("/summarize", s.handleSummarize)
		r.Get("/sources", s.handleSources)
		r.Get("/health", s.handleHealth)
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics)
	}
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Searches fan out to slow upstreams and summarize results.
		WriteTimeout: 90 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.Log.WithField("addr", addr).Info("api server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.Log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "AI-Powered PDF Search Engine API",
		"version": Version,
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req search.Request
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}

	resp, err := s.search(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case isValidation(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
	default:
		s.Log.WithError(err).WithField("query", req.Query).Error("search failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: searchFailed})
	}
}

// search converts a panic anywhere in the pipeline into an error so the
// client gets the generic 500 body rather than a dropped connection.
func (s *Server) search(ctx context.Context, req search.Request) (resp *search.Response, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("search panicked: %v", p)
		}
	}()
	return s.Searcher.Search(ctx, req)
}

func isValidation(err error) bool {
	return errors.Is(err, search.ErrEmptyQuery) ||
		errors.Is(err, search.ErrUnknownSource) ||
		errors.Is(err, search.ErrInvalidDateRange) ||
		errors.Is(err, search.ErrInvalidMaxResults)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "query parameter q is required"})
		return
	}
	suggestions := []string{}
	if s.Assistant != nil {
		for _, v := range s.Assistant.Suggest(r.Context(), q) {
			if v = strings.TrimSpace(v); v != "" && len(suggestions) < 3 {
				suggestions = append(suggestions, v)
			}
		}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"suggestions": suggestions})
}

type summarizeRequest struct {
	DocumentURL string `json:"document_url"`
	PDFURL      string `json:"pdf_url"`
	MaxLength   int    `json:"max_length"`
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}
	docURL := strings.TrimSpace(req.DocumentURL)
	if docURL == "" {
		docURL = strings.TrimSpace(req.PDFURL)
	}
	if !isHTTPURL(docURL) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "document_url must be an http(s) URL"})
		return
	}
	maxLen := req.MaxLength
	if maxLen <= 0 {
		maxLen = defaultSummaryLen
	}
	if s.Assistant == nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: summarizationFailed})
		return
	}

	summary, err := s.Assistant.SummarizeDocument(r.Context(), docURL, maxLen)
	if err != nil {
		s.Log.WithError(err).WithField("url", docURL).Error("summarization failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: summarizationFailed})
		return
	}
	if runes := []rune(summary); len(runes) > maxLen {
		summary = string(runes[:maxLen])
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Registry.Describe())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "limit must be a positive integer"})
			return
		}
		limit = n
	}
	records := []types.SearchHistoryRecord{}
	if s.History != nil {
		got, err := s.History.Recent(r.Context(), limit)
		if err != nil {
			s.Log.WithError(err).Error("fetching search history")
		} else {
			records = got
		}
	}
	writeJSON(w, http.StatusOK, records)
}

type healthResponse struct {
	Status        string            `json:"status"`
	Timestamp     time.Time         `json:"timestamp"`
	Services      map[string]string `json:"services"`
	PrimarySource string            `json:"primary_source"`
	MaxResults    int               `json:"max_results"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:        "healthy",
		Timestamp:     time.Now().UTC(),
		Services:      map[string]string{},
		PrimarySource: s.Config.Search.PrimarySource,
		MaxResults:    s.Config.Search.MaxResultsCap,
	}

	switch {
	case s.History == nil:
		resp.Services["database"] = "disabled"
	default:
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.History.Ping(ctx); err != nil {
			s.Log.WithError(err).Warn("database ping failed")
			resp.Services["database"] = "disconnected"
			resp.Status = "degraded"
		} else {
			resp.Services["database"] = "connected"
		}
	}

	resp.Services["openai"] = "missing_key"
	if s.Config.AI.APIKey != "" {
		resp.Services["openai"] = "configured"
	}
	resp.Services["google_search"] = "missing_credentials"
	if s.Config.Google.APIKey != "" && s.Config.Google.CSEID != "" {
		resp.Services["google_search"] = "configured"
	}
	for _, d := range s.Registry.Describe() {
		if d.Enabled {
			resp.Services[d.ID] = "available"
		} else {
			resp.Services[d.ID] = "disabled"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// logRequests logs one line per request with its id, status, and latency.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.Log.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"elapsed":    time.Since(start).Round(time.Millisecond),
		}).Debug("request")
	})
}

// allowCORS lets browser front ends on any origin call the API.
func allowCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
