// Package http exposes models, plans, runs and reports over a JSON HTTP API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/dto"
	"github.com/aretw0/espalier/internal/presentation/graph"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/persistence/middleware"
	"github.com/aretw0/espalier/pkg/service"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the HTTP handlers.
type Server struct {
	Service  *service.Service
	Streams  *StreamManager
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	masker   *middleware.Masker
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics exposes the gatherer's metrics on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithMasker hides sensitive text in streamed plan events and run responses.
func WithMasker(m *middleware.Masker) Option {
	return func(s *Server) {
		s.masker = m
	}
}

// NewHandler creates the HTTP handler for svc.
func NewHandler(svc *service.Service, opts ...Option) http.Handler {
	s := &Server{
		Service: svc,
		Streams: NewStreamManager(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger

	r := chi.NewRouter()
	r.Get("/openapi.yaml", serveSpec)
	r.Get("/swagger", serveSwaggerUI)
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)

	r.Route("/models", func(r chi.Router) {
		r.Get("/", s.ListModels)
		r.Route("/{model}", func(r chi.Router) {
			r.Get("/graph", s.GetGraph)
			r.Get("/plans", s.GetPlans)
			r.Post("/runs", s.CreateRun)
			r.Get("/events", s.SubscribeEvents)
		})
	})

	r.Route("/reports", func(r chi.Router) {
		r.Get("/", s.ListReports)
		r.Get("/{id}", s.GetReport)
		r.Delete("/{id}", s.DeleteReport)
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := Swagger(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":         "espalier-http",
		"version":     strings.TrimSpace(espalier.Version),
		"api_version": apiVersion,
	})
}

// ListModels handles GET /models.
func (s *Server) ListModels(w http.ResponseWriter, r *http.Request) {
	out := []dto.ModelInfo{}
	for _, name := range s.Service.Names() {
		m, err := s.Service.Describe(name)
		if err != nil {
			continue
		}
		out = append(out, dto.ModelInfo{Name: m.Name, Description: m.Description})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// GetGraph handles GET /models/{model}/graph. Use ?format=mermaid for a diagram.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	model, err := s.Service.Model(chi.URLParam(r, "model"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	format, err := bindFormat(r.URL.Query(), "json", "mermaid")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if format == "mermaid" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, graph.GenerateMermaid(model.Graph(), nil))
		return
	}
	s.writeJSON(w, http.StatusOK, dto.NewGraphView(model.Graph()))
}

// GetPlans handles GET /models/{model}/plans.
func (s *Server) GetPlans(w http.ResponseWriter, r *http.Request) {
	model, err := s.Service.Model(chi.URLParam(r, "model"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, dto.NewPlansView(model))
}

// CreateRun handles POST /models/{model}/runs. Outcomes are streamed to
// subscribers of the model's events while the run progresses.
func (s *Server) CreateRun(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "model")
	hooks := domain.LifecycleHooks{
		OnPlanFinish: func(_ context.Context, e *domain.PlanEvent) {
			msg := dto.PlanEventView{PlanID: e.PlanID, Target: e.Target, Status: e.Status, Duration: e.Duration.String()}
			if e.Err != nil {
				msg.Error = s.masker.Mask(e.Err.Error())
			}
			if data, err := json.Marshal(msg); err == nil {
				s.Streams.Broadcast(name, string(data))
			}
		},
	}

	rep, err := s.Service.Run(r.Context(), name, espalier.WithLifecycleHooks(hooks))
	if rep == nil {
		s.writeError(w, err)
		return
	}
	if err != nil {
		w.Header().Set("X-Espalier-Warning", strings.ReplaceAll(err.Error(), "\n", "; "))
	}
	if s.masker != nil {
		// Respond with the stored copy, which went through the store's redaction.
		if stored, err := s.Service.Report(r.Context(), rep.ID); err == nil {
			rep = stored
		}
	}
	w.Header().Set("Location", "/reports/"+rep.ID)
	s.writeJSON(w, http.StatusCreated, rep)
}

// ListReports handles GET /reports.
func (s *Server) ListReports(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Service.Reports(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetReport handles GET /reports/{id}. Use ?format=markdown for a document.
func (s *Server) GetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.Service.Report(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	format, err := bindFormat(r.URL.Query(), "json", "markdown")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if format == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = io.WriteString(w, rep.Markdown())
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

// DeleteReport handles DELETE /reports/{id}.
func (s *Server) DeleteReport(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.DeleteReport(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubscribeEvents handles GET /models/{model}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	name := chi.URLParam(r, "model")
	if _, err := s.Service.Describe(name); err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(name)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Debug("SSE client subscribed", "model", name)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Debug("SSE client disconnected", "model", name)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: outcome\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrModelNotFound), errors.Is(err, domain.ErrReportNotFound):
		status = http.StatusNotFound
	case errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
