// Package api provides the HTTP REST API server for equiscore.
//
// It exposes endpoints for fundamental scoring, bulk ranking, technical,
// pattern and market analysis, and WebSocket streaming of bulk progress.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seenimoa/equiscore/internal/analysis/fundamental"
	"github.com/seenimoa/equiscore/internal/bulk"
	"github.com/seenimoa/equiscore/internal/config"
	"github.com/seenimoa/equiscore/internal/datasource"
	"github.com/seenimoa/equiscore/internal/report"
	"github.com/seenimoa/equiscore/internal/scoring"
	"github.com/seenimoa/equiscore/pkg/logger"
	"github.com/seenimoa/equiscore/pkg/models"
	"github.com/seenimoa/equiscore/pkg/utils"
)

// maxBodyBytes caps snapshot and bulk CSV uploads.
const maxBodyBytes = 32 << 20

// Options configure a Server.
type Options struct {
	Config   *config.Config
	Registry *scoring.Registry // nil uses the default table
	Source   datasource.Source // symbol lookups; nil disables the {symbol} routes
	Log      *logger.Logger
	Version  string
	Prices   report.PriceOptions
}

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	reg     *scoring.Registry
	source  datasource.Source
	log     *logger.Logger
	version string
	prices  report.PriceOptions
	wsHub   *WSHub
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("api: nil config")
	}
	s := &Server{
		cfg:     opts.Config,
		reg:     opts.Registry,
		source:  opts.Source,
		log:     opts.Log,
		version: opts.Version,
		prices:  opts.Prices,
		wsHub:   NewWSHub(),
	}
	if s.reg == nil {
		s.reg = scoring.DefaultRegistry()
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.version == "" {
		s.version = "dev"
	}
	if s.prices.Params.RSIPeriod == 0 {
		s.prices = report.DefaultPriceOptions()
	}
	s.router = s.buildRouter()
	return s, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.wsHub.Run(hubCtx)

	errc := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("api server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	s.log.Info("shutting down api server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/metrics", s.handleMetrics)
		r.Get("/config", s.handleGetConfig)

		// Scoring
		r.Post("/score", s.handleScoreUpload)
		r.Get("/score/{symbol}", s.handleScoreSymbol)
		r.Post("/bulk", s.handleBulk)

		// Price analysis
		r.Get("/technical/{symbol}", s.handleTechnical)
		r.Get("/patterns/{symbol}", s.handlePatterns)
		r.Get("/market/{symbol}", s.handleMarket)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// requestLogger logs one line per request through the structured logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(map[string]any{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"elapsed_ms": time.Since(start).Milliseconds(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("http request")
	})
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Metrics int    `json:"metrics"`
	Source  string `json:"source,omitempty"`
	TimeIST string `json:"time_ist"`
}

// BulkResponse is returned by POST /api/v1/bulk.
type BulkResponse struct {
	RunID         string            `json:"run_id"`
	GeneratedAt   time.Time         `json:"generated_at"`
	ElapsedMS     int64             `json:"elapsed_ms"`
	Scored        int               `json:"scored"`
	Entries       []bulk.Entry      `json:"entries"`
	SectorLeaders []bulk.Entry      `json:"sector_leaders,omitempty"`
	Sectors       []bulk.SectorStat `json:"sectors,omitempty"`
	Distribution  []bulk.TierCount  `json:"distribution,omitempty"`
	Skipped       []RowError        `json:"skipped,omitempty"`
	Failures      []bulk.Failure    `json:"failures,omitempty"`
}

// RowError is a bulk CSV row that could not be parsed.
type RowError struct {
	Line   int    `json:"line"`
	Symbol string `json:"symbol,omitempty"`
	Error  string `json:"error"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: s.version,
		Metrics: s.reg.Len(),
		TimeIST: utils.FormatDateTimeIST(time.Now()),
	}
	if s.source != nil {
		resp.Source = s.source.Name()
	}
	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: resp})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: s.reg.Definitions()})
}

// handleScoreUpload scores a snapshot posted as JSON, or YAML when the
// Content-Type says so.
func (s *Server) handleScoreUpload(w http.ResponseWriter, r *http.Request) {
	format := datasource.FormatJSON
	if ct := r.Header.Get("Content-Type"); strings.Contains(ct, "yaml") {
		format = datasource.FormatYAML
	}
	snap, err := datasource.DecodeSnapshot(http.MaxBytesReader(w, r.Body, maxBodyBytes), format)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.score(w, r, snap)
}

func (s *Server) handleScoreSymbol(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		s.writeError(w, http.StatusNotImplemented, "no data source configured")
		return
	}
	snap, err := s.source.Snapshot(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.score(w, r, snap)
}

// score renders the scorecard as JSON, or as a markdown or HTML report
// when ?format= asks for one.
func (s *Server) score(w http.ResponseWriter, r *http.Request, snap *models.Snapshot) {
	year, err := intParam(r, "year", s.cfg.Scoring.BaseYear)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	card, err := fundamental.Analyze(snap, year, s.reg)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.log.WithFields(map[string]any{
		"symbol": card.Company.Symbol,
		"year":   card.Year,
		"score":  card.Result.FinalScore,
	}).Info("company scored")

	now := time.Now()
	switch r.URL.Query().Get("format") {
	case "", "json":
		s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: card})
	case "markdown", "md":
		w.Header().Set("Content-Disposition", inlineFilename(card.Company, "md"))
		writeBody(w, "text/markdown; charset=utf-8", report.ScoreMarkdown(card, now))
	case "html":
		html, err := report.ScoreHTML(card, now)
		if err != nil {
			s.writeFailure(w, err)
			return
		}
		w.Header().Set("Content-Disposition", inlineFilename(card.Company, "html"))
		writeBody(w, "text/html; charset=utf-8", html)
	default:
		s.writeError(w, http.StatusBadRequest, "format must be json, markdown or html")
	}
}

// handleBulk scores a wide-format companies CSV posted as the request body.
// Progress is broadcast to WebSocket clients as "bulk.progress" messages.
func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	top, err := intParam(r, "top", s.cfg.Bulk.TopN)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	workers, err := intParam(r, "workers", s.cfg.Bulk.Workers)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sector := r.URL.Query().Get("sector")

	snaps, rowErrs, err := datasource.ReadCompanies(http.MaxBytesReader(w, r.Body, maxBodyBytes), s.log)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.wsHub.Broadcast(WSMessage{Type: "bulk.started", Data: map[string]int{"companies": len(snaps)}})
	ranking, err := bulk.New(bulk.Options{
		Workers:  workers,
		BaseYear: s.cfg.Scoring.BaseYear,
		Registry: s.reg,
		Log:      s.log,
		Progress: func(p bulk.Progress) {
			s.wsHub.Broadcast(WSMessage{Type: "bulk.progress", Data: p})
		},
	}).Run(r.Context(), snaps)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.wsHub.Broadcast(WSMessage{Type: "bulk.finished", Data: map[string]any{
		"run_id": ranking.RunID,
		"scored": len(ranking.Entries),
		"failed": len(ranking.Failures),
	}})

	resp := BulkResponse{
		RunID:       ranking.RunID,
		GeneratedAt: ranking.GeneratedAt,
		ElapsedMS:   ranking.Elapsed.Milliseconds(),
		Scored:      len(ranking.Entries),
		Entries:     ranking.Top(top, sector),
		Failures:    ranking.Failures,
	}
	if sector == "" {
		resp.SectorLeaders = ranking.SectorLeaders()
		resp.Sectors = ranking.SectorSummary()
		resp.Distribution = ranking.RatingDistribution()
	}
	for _, re := range rowErrs {
		resp.Skipped = append(resp.Skipped, RowError{Line: re.Line, Symbol: re.Symbol, Error: re.Err.Error()})
	}
	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: resp})
}

func (s *Server) handleTechnical(w http.ResponseWriter, r *http.Request) {
	s.priceAnalysis(w, r, func(symbol string, bars []models.Bar) (*report.PriceAnalysis, error) {
		return report.TechnicalAnalysis(symbol, bars, s.prices)
	})
}

func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	s.priceAnalysis(w, r, report.PatternAnalysis)
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	s.priceAnalysis(w, r, report.MarketAnalysis)
}

func (s *Server) priceAnalysis(w http.ResponseWriter, r *http.Request,
	analyze func(string, []models.Bar) (*report.PriceAnalysis, error)) {
	if s.source == nil {
		s.writeError(w, http.StatusNotImplemented, "no data source configured")
		return
	}
	symbol := utils.NormalizeSymbol(chi.URLParam(r, "symbol"))
	bars, err := s.source.Prices(r.Context(), symbol)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	a, err := analyze(symbol, bars)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if r.URL.Query().Get("format") == "markdown" {
		writeBody(w, "text/markdown; charset=utf-8", report.PriceMarkdown(a, time.Now()))
		return
	}
	s.writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: a})
}

// ============================================================
// Helpers
// ============================================================

// statusOf maps domain errors onto HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, datasource.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, datasource.ErrInvalidSnapshot),
		errors.Is(err, datasource.ErrMissingColumn),
		errors.Is(err, datasource.ErrUnsupportedFormat),
		errors.Is(err, fundamental.ErrMissingYear),
		errors.Is(err, report.ErrNoPrices),
		errors.Is(err, report.ErrNoMarketData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

// writeJSON encodes v with non-finite floats written as null.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := report.WriteJSON(w, v); err != nil {
		s.log.WithError(err).Error("failed to write JSON response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, APIResponse{Success: false, Error: msg})
}

func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).Error("request failed")
	}
	s.writeError(w, status, err.Error())
}

// inlineFilename names a rendered score report after the company:
// "Eternal Ltd" → eternal_ltd_fundamental.md.
func inlineFilename(c models.Company, ext string) string {
	name := utils.Slug(c.Name)
	if name == "" {
		name = utils.Slug(c.Symbol)
	}
	if name == "" {
		name = "company"
	}
	return fmt.Sprintf("inline; filename=%q", name+"_fundamental."+ext)
}

func writeBody(w http.ResponseWriter, contentType, body string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, body) //nolint:errcheck
}
