package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dshills/piicleaner/internal/cleaner"
	"github.com/dshills/piicleaner/internal/pii"
	"github.com/dshills/piicleaner/internal/redact"
	"github.com/dshills/piicleaner/internal/telemetry"
)

// Options configures a Server.
type Options struct {
	// Cleaner serves requests that do not name their own cleaners.
	Cleaner *cleaner.Cleaner
	// CleanerOptions apply to cleaners built for per-request selections.
	CleanerOptions []cleaner.Option
	Logger         *zap.Logger
	Metrics        telemetry.Provider
	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler
	MaxBodyBytes   int64
}

// Server exposes the cleaner over HTTP.
type Server struct {
	cleaner  *cleaner.Cleaner
	opts     []cleaner.Option
	log      *zap.Logger
	metrics  telemetry.Provider
	exporter http.Handler
	maxBody  int64
	server   *http.Server
}

// New builds a Server. A nil logger or metrics provider disables that
// concern.
func New(o Options) *Server {
	s := &Server{
		cleaner:  o.Cleaner,
		opts:     o.CleanerOptions,
		log:      o.Logger,
		metrics:  o.Metrics,
		exporter: o.MetricsHandler,
		maxBody:  o.MaxBodyBytes,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.metrics == nil {
		s.metrics = telemetry.Nop{}
	}
	return s
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.exporter != nil {
		r.Handle("/metrics", s.exporter)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.limitBody)
		r.Get("/cleaners", s.handleCleaners)
		r.Post("/detect", s.handleDetect)
		r.Post("/clean", s.handleClean)
		r.Post("/batch/detect", s.handleBatchDetect)
		r.Post("/batch/clean", s.handleBatchClean)
	})
	return r
}

// Run serves on addr until ctx is cancelled, then drains in-flight
// requests for up to grace.
func (s *Server) Run(ctx context.Context, addr string, grace time.Duration) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("graceful shutdown failed", zap.Error(err))
		_ = s.server.Close()
		return err
	}
	s.log.Info("shutdown complete")
	return nil
}

type detectRequest struct {
	Text     *string `json:"text"`
	Cleaners any     `json:"cleaners"`
}

type cleanRequest struct {
	Text     *string `json:"text"`
	Strategy string  `json:"strategy"`
	Cleaners any     `json:"cleaners"`
}

// Batch texts are decoded loosely so a non-string element is reported with
// its index rather than as a malformed body.
type batchDetectRequest struct {
	Texts    []any `json:"texts"`
	Cleaners any   `json:"cleaners"`
}

type batchCleanRequest struct {
	Texts    []any  `json:"texts"`
	Strategy string `json:"strategy"`
	Cleaners any    `json:"cleaners"`
}

type spansResponse struct {
	Cleaners []string   `json:"cleaners"`
	Spans    []pii.Span `json:"spans"`
}

type batchSpansResponse struct {
	Cleaners []string     `json:"cleaners"`
	Results  [][]pii.Span `json:"results"`
}

type textResponse struct {
	Text string `json:"text"`
}

type textsResponse struct {
	Texts []string `json:"texts"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"cleaners": s.cleaner.Detectors(),
	})
}

func (s *Server) handleCleaners(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"cleaners": pii.Default().Names(),
	})
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Text == nil {
		s.respondProblem(w, r, missingField("text"))
		return
	}
	c, err := s.cleanerFor(req.Cleaners)
	if err != nil {
		s.respondProblem(w, r, err)
		return
	}
	spans := c.Detect(*req.Text)
	s.countDetections(spans)
	respondJSON(w, http.StatusOK, spansResponse{Cleaners: c.Detectors(), Spans: nonNil(spans)})
}

func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	var req cleanRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Text == nil {
		s.respondProblem(w, r, missingField("text"))
		return
	}
	strategy, err := redact.ParseStrategy(req.Strategy)
	if err != nil {
		s.respondProblem(w, r, err)
		return
	}
	c, err := s.cleanerFor(req.Cleaners)
	if err != nil {
		s.respondProblem(w, r, err)
		return
	}
	spans := c.Detect(*req.Text)
	s.countDetections(spans)
	respondJSON(w, http.StatusOK, textResponse{
		Text: redact.Rewrite(*req.Text, spans, strategy, c.Placeholder()),
	})
}

func (s *Server) handleBatchDetect(w http.ResponseWriter, r *http.Request) {
	var req batchDetectRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Texts == nil {
		s.respondProblem(w, r, missingField("texts"))
		return
	}
	c, err := s.cleanerFor(req.Cleaners)
	if err != nil {
		s.respondProblem(w, r, err)
		return
	}
	results, err := c.DetectValues(r.Context(), req.Texts)
	if err != nil {
		s.respondProblem(w, r, err)
		return
	}
	for i, spans := range results {
		s.countDetections(spans)
		results[i] = nonNil(spans)
	}
	respondJSON(w, http.StatusOK, batchSpansResponse{Cleaners: c.Detectors(), Results: results})
}

func (s *Server) handleBatchClean(w http.ResponseWriter, r *http.Request) {
	var req batchCleanRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Texts == nil {
		s.respondProblem(w, r, missingField("texts"))
		return
	}
	strategy, err := redact.ParseStrategy(req.Strategy)
	if err != nil {
		s.respondProblem(w, r, err)
		return
	}
	c, err := s.cleanerFor(req.Cleaners)
	if err != nil {
		s.respondProblem(w, r, err)
		return
	}
	texts, err := c.CleanValues(r.Context(), req.Texts, strategy)
	if err != nil {
		s.respondProblem(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, textsResponse{Texts: texts})
}

// cleanerFor returns the default cleaner, or a new one for an explicit
// selection. Construction only resolves names against the shared compiled
// rules.
func (s *Server) cleanerFor(selection any) (*cleaner.Cleaner, error) {
	if selection == nil {
		return s.cleaner, nil
	}
	sel, err := cleaner.ParseSelection(selection)
	if err != nil {
		return nil, err
	}
	return cleaner.New(sel, s.opts...)
}

func (s *Server) countDetections(spans []pii.Span) {
	for _, sp := range spans {
		s.metrics.Incr(telemetry.MetricDetections, []string{telemetry.Tag("detector", sp.Detector)}, 1)
	}
}

func nonNil(spans []pii.Span) []pii.Span {
	if spans == nil {
		return []pii.Span{}
	}
	return spans
}
