// Package server exposes the console over HTTP: session gate, unit
// grid, execution runs, preview pane, uploads, history and scoped
// configuration.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atlasinovacoes/portalperf/internal/backend"
	"github.com/atlasinovacoes/portalperf/internal/config"
	"github.com/atlasinovacoes/portalperf/internal/execution"
	"github.com/atlasinovacoes/portalperf/internal/history"
	"github.com/atlasinovacoes/portalperf/internal/metrics"
	"github.com/atlasinovacoes/portalperf/internal/notify"
	"github.com/atlasinovacoes/portalperf/internal/preview"
	"github.com/atlasinovacoes/portalperf/internal/runlog"
	"github.com/atlasinovacoes/portalperf/internal/session"
	"github.com/atlasinovacoes/portalperf/internal/store"
	"github.com/atlasinovacoes/portalperf/internal/upload"
)

// Server is the console's HTTP server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	cfg        *config.Config
	logger     *slog.Logger
	startTime  time.Time

	gate         *session.Gate
	orchestrator *execution.Orchestrator
	reconciler   *preview.Reconciler
	stage        *upload.Stage
	history      *history.Service
	runs         *runlog.Repository
	client       *backend.Client
	store        *store.Store
	notifier     *notify.Center
	metrics      *metrics.Metrics
}

// Deps carries everything the server wires together.
type Deps struct {
	Gate         *session.Gate
	Orchestrator *execution.Orchestrator
	Reconciler   *preview.Reconciler
	Stage        *upload.Stage
	History      *history.Service
	Runs         *runlog.Repository
	Client       *backend.Client
	Store        *store.Store
	Notifier     *notify.Center
	Metrics      *metrics.Metrics
}

// NewServer creates the console server.
func NewServer(cfg *config.Config, deps Deps, logger *slog.Logger) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		cfg:          cfg,
		logger:       logger,
		startTime:    time.Now(),
		gate:         deps.Gate,
		orchestrator: deps.Orchestrator,
		reconciler:   deps.Reconciler,
		stage:        deps.Stage,
		history:      deps.History,
		runs:         deps.Runs,
		client:       deps.Client,
		store:        deps.Store,
		notifier:     deps.Notifier,
		metrics:      deps.Metrics,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)

	// Public surface
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/session/login", s.handleLogin)
		r.Get("/session/status", s.handleSessionStatus)
		r.Post("/session/logout", s.handleLogout)

		// Console surface, gated behind the backend credential
		r.Group(func(r chi.Router) {
			r.Use(s.gate.Middleware)

			r.Get("/regions", s.handleRegions)
			r.Get("/units", s.handleUnits)
			r.Get("/columns", s.handleColumns)
			r.Get("/notifications", s.handleNotifications)

			r.Get("/settings/email", s.handleGetEmailSettings)
			r.Put("/settings/email", s.handlePutEmailSettings)

			r.Route("/execution", func(r chi.Router) {
				r.Get("/", s.handleExecutionState)
				r.Post("/units/{id}/toggle", s.handleToggleUnit)
				r.Post("/regions/{code}/toggle", s.handleToggleRegion)
				r.Post("/select-all", s.handleSelectAll)
				r.Post("/reset", s.handleReset)
				r.Post("/run", s.handleRun)
			})

			r.Route("/preview", func(r chi.Router) {
				r.Get("/state", s.handlePreviewState)
				r.Get("/files", s.handlePreviewFiles)
				r.Get("/regions", s.handlePreviewRegions)
				r.Get("/months", s.handlePreviewMonths)
				r.Get("/stats", s.handlePreviewStats)
				r.Post("/load", s.handlePreviewLoad)
				r.Post("/edit", s.handlePreviewEdit)
				r.Post("/edit/save", s.handlePreviewSave)
				r.Post("/edit/cancel", s.handlePreviewCancel)
				r.Put("/subject", s.handlePreviewSubject)
				r.Post("/send", s.handlePreviewSend)
			})

			r.Route("/uploads", func(r chi.Router) {
				r.Get("/", s.handleStagedFiles)
				r.Post("/", s.handleStageFile)
				r.Post("/{id}/region", s.handleAssignRegion)
				r.Delete("/{id}", s.handleUnstageFile)
				r.Post("/{id}/submit", s.handleSubmitFile)
				r.Post("/submit", s.handleSubmitAll)
				r.Get("/regions", s.handleUploadRegions)
				r.Get("/jobs", s.handleJobs)
				r.Get("/jobs/{id}", s.handleJob)
			})

			r.Route("/history", func(r chi.Router) {
				r.Get("/", s.handleHistory)
				r.Get("/stats", s.handleHistoryStats)
				r.Delete("/cleanup", s.handleHistoryCleanup)
				r.Delete("/{id}", s.handleHistoryDelete)
			})

			r.Route("/runs", func(r chi.Router) {
				r.Get("/", s.handleRuns)
				r.Get("/stats", s.handleRunStats)
				r.Get("/{id}", s.handleRunDetail)
			})

			r.Route("/config", func(r chi.Router) {
				r.Get("/columns", s.handleAvailableColumns)
				r.Get("/global", s.handleGetGlobalConfig)
				r.Put("/global", s.handlePutGlobalConfig)
				r.Delete("/global", s.handleResetGlobalConfig)
				r.Get("/regions/{code}", s.handleGetRegionConfig)
				r.Put("/regions/{code}", s.handlePutRegionConfig)
				r.Delete("/regions/{code}", s.handleResetRegionConfig)
				r.Get("/units/{name}", s.handleGetUnitConfig)
				r.Put("/units/{name}", s.handlePutUnitConfig)
				r.Delete("/units/{name}", s.handleResetUnitConfig)
				r.Get("/units/{name}/effective", s.handleEffectiveUnitConfig)
			})

			r.Route("/schedules", func(r chi.Router) {
				r.Get("/", s.handleSchedules)
				r.Post("/", s.handleCreateSchedule)
				r.Put("/{id}", s.handleUpdateSchedule)
				r.Delete("/{id}", s.handleDeleteSchedule)
				r.Post("/{id}/pause", s.handlePauseSchedule)
				r.Post("/{id}/resume", s.handleResumeSchedule)
			})

			r.Route("/templates", func(r chi.Router) {
				r.Get("/", s.handleTemplates)
				r.Post("/{id}/activate", s.handleActivateTemplate)
			})
		})
	})
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Server.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting console server", "addr", s.cfg.Server.ListenAddr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down console server")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// loggingMiddleware logs HTTP requests and feeds the API metrics.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.metrics.APIRequestsTotal.WithLabelValues(
			r.Method, r.URL.Path, http.StatusText(ww.Status())).Inc()
		s.metrics.APIRequestDurationSeconds.WithLabelValues(
			r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
		s.metrics.Goroutines.Set(float64(runtime.NumGoroutine()))
		s.metrics.UptimeSeconds.Set(time.Since(s.startTime).Seconds())

		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"bytes", ww.BytesWritten(),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// ErrorResponse is the error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) sendError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, ErrorResponse{Error: message})
}
