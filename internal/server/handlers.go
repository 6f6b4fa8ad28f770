package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atlasinovacoes/portalperf/internal/catalog"
	"github.com/atlasinovacoes/portalperf/internal/execution"
	"github.com/atlasinovacoes/portalperf/internal/notify"
	"github.com/atlasinovacoes/portalperf/internal/settings"
)

// Version is stamped by the build; the health endpoint reports it.
var Version = "dev"

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Session string `json:"session"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: Version,
		Uptime:  time.Since(s.startTime).Round(time.Second).String(),
		Session: s.gate.State().String(),
	})
}

// LoginRequest is the request body for POST /api/session/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		s.sendError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	if err := s.gate.Login(r.Context(), req.Username, req.Password); err != nil {
		s.sendError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]string{"session": s.gate.State().String()})
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]string{"session": s.gate.State().String()})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.gate.Logout(r.Context())
	s.sendJSON(w, http.StatusOK, map[string]string{"session": s.gate.State().String()})
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, catalog.Regions())
}

func (s *Server) handleUnits(w http.ResponseWriter, r *http.Request) {
	if code := r.URL.Query().Get("region"); code != "" {
		units := catalog.ByRegion(code)
		if units == nil {
			s.sendError(w, http.StatusNotFound, "unknown region")
			return
		}
		s.sendJSON(w, http.StatusOK, units)
		return
	}
	s.sendJSON(w, http.StatusOK, catalog.All())
}

func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]any{
		"standard": catalog.StandardColumns,
		"extra":    catalog.ExtraColumns,
	})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	notices := s.notifier.Drain()
	if notices == nil {
		notices = []notify.Notice{}
	}
	s.sendJSON(w, http.StatusOK, notices)
}

func (s *Server) handleGetEmailSettings(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, s.store.EmailSettings())
}

func (s *Server) handlePutEmailSettings(w http.ResponseWriter, r *http.Request) {
	var es settings.EmailSettings
	if err := json.NewDecoder(r.Body).Decode(&es); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.store.SetEmailSettings(es); err != nil {
		s.logger.Error("failed to store email settings", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to store settings")
		return
	}
	// Echo back what was actually stored, mandatory CC included.
	s.sendJSON(w, http.StatusOK, s.store.EmailSettings())
}

func (s *Server) handleExecutionState(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, s.orchestrator.Snapshot())
}

func (s *Server) handleToggleUnit(w http.ResponseWriter, r *http.Request) {
	if err := s.orchestrator.ToggleUnit(chi.URLParam(r, "id")); err != nil {
		s.sendExecutionError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]int{"selected": s.orchestrator.SelectedCount()})
}

func (s *Server) handleToggleRegion(w http.ResponseWriter, r *http.Request) {
	if err := s.orchestrator.ToggleAllInRegion(chi.URLParam(r, "code")); err != nil {
		s.sendExecutionError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]int{"selected": s.orchestrator.SelectedCount()})
}

func (s *Server) handleSelectAll(w http.ResponseWriter, r *http.Request) {
	if err := s.orchestrator.SelectAll(); err != nil {
		s.sendExecutionError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]int{"selected": s.orchestrator.SelectedCount()})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.orchestrator.Reset(); err != nil {
		s.sendExecutionError(w, err)
		return
	}
	s.sendJSON(w, http.StatusOK, s.orchestrator.Snapshot())
}

// RunRequest is the request body for POST /api/execution/run.
type RunRequest struct {
	Mode     string `json:"mode"`
	MonthRef string `json:"month_ref"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := s.orchestrator.Start(execution.Mode(req.Mode), req.MonthRef)
	if err != nil {
		s.sendExecutionError(w, err)
		return
	}
	s.sendJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) sendExecutionError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if err == execution.ErrRunInProgress {
		status = http.StatusConflict
	}
	s.sendError(w, status, err.Error())
}
