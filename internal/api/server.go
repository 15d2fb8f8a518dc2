// Package api serves the region panel over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ppiankov/landlock/internal/model"
	"github.com/ppiankov/landlock/internal/pipeline"
	"github.com/ppiankov/landlock/internal/scrape"
	"github.com/ppiankov/landlock/internal/store"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Analyzer runs the pipeline for one region
type Analyzer interface {
	RunPipeline(ctx context.Context, regionID, baseURL string, entryPoints scrape.EntryPoints) (*pipeline.Result, error)
	RunFromRegistry(ctx context.Context, regionID string) (*pipeline.Result, error)
}

// SourceLister looks up registered sources
type SourceLister interface {
	ByRegion(regionID string) ([]model.DiscoveredSource, error)
}

// PanelReader reads stored panels
type PanelReader interface {
	Latest(ctx context.Context, regionID string) (*store.PanelRecord, error)
	List(ctx context.Context, regionID string, limit int) ([]store.PanelRecord, error)
}

// Server holds the handlers' collaborators
type Server struct {
	analyzer Analyzer
	sources  SourceLister
	panels   PanelReader // nil when panel persistence is disabled
	version  string
}

// NewServer creates an API server
func NewServer(analyzer Analyzer, sources SourceLister, panels PanelReader, version string) *Server {
	return &Server{analyzer: analyzer, sources: sources, panels: panels, version: version}
}

// analyzeRequest is the body of POST /api/v1/analyze
type analyzeRequest struct {
	RegionID         string              `json:"region_id"`
	BaseURL          string              `json:"base_url"`
	KnownEntryPoints map[string][]string `json:"known_entry_points"`
}

// registryRequest is the body of POST /api/v1/analyze-from-registry
type registryRequest struct {
	RegionID string `json:"region_id"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Routes builds the router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/analyze-from-registry", s.handleAnalyzeFromRegistry)
		r.Get("/sources/{region}", s.handleSources)
		r.Get("/panels/{region}", s.handleLatestPanel)
		r.Get("/panels/{region}/history", s.handlePanelHistory)
	})
	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "landlock",
		"version": s.version,
		"status":  "running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RegionID == "" {
		writeError(w, http.StatusBadRequest, "region_id is required")
		return
	}
	if u, err := url.Parse(req.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		writeError(w, http.StatusBadRequest, "base_url must be an absolute http(s) URL")
		return
	}

	result, err := s.analyzer.RunPipeline(r.Context(), req.RegionID, req.BaseURL, entryPoints(req.KnownEntryPoints))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result.Panel)
}

// entryPoints converts request categories, skipping names that are not categories
func entryPoints(raw map[string][]string) scrape.EntryPoints {
	if raw == nil {
		return scrape.DefaultEntryPoints()
	}
	out := scrape.EntryPoints{}
	for name, paths := range raw {
		category, ok := model.ParseCategory(name)
		if !ok {
			zap.L().Debug("api: skipping unknown entry point category", zap.String("category", name))
			continue
		}
		out[category] = paths
	}
	return out
}

func (s *Server) handleAnalyzeFromRegistry(w http.ResponseWriter, r *http.Request) {
	var req registryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RegionID == "" {
		writeError(w, http.StatusBadRequest, "region_id is required")
		return
	}

	result, err := s.analyzer.RunFromRegistry(r.Context(), req.RegionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result.Panel)
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	region := chi.URLParam(r, "region")
	sources, err := s.sources.ByRegion(region)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if sources == nil {
		sources = []model.DiscoveredSource{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"region_id": region,
		"sources":   sources,
		"count":     len(sources),
	})
}

func (s *Server) handleLatestPanel(w http.ResponseWriter, r *http.Request) {
	if s.panels == nil {
		writeError(w, http.StatusNotFound, "panel store is disabled")
		return
	}
	rec, err := s.panels.Latest(r.Context(), chi.URLParam(r, "region"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handlePanelHistory(w http.ResponseWriter, r *http.Request) {
	if s.panels == nil {
		writeError(w, http.StatusNotFound, "panel store is disabled")
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	region := chi.URLParam(r, "region")
	records, err := s.panels.List(r.Context(), region, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"region_id": region,
		"panels":    records,
		"count":     len(records),
	})
}

// fail maps missing data to 404 and everything else to 500
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, pipeline.ErrNoSources) || errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	zap.L().Error("api: request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("api: shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("api: starting server", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "api: listen")
	}
	return nil
}
