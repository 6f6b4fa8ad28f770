package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atlasinovacoes/portalperf/internal/backend"
)

func (s *Server) handlePreviewState(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, s.reconciler.State())
}

func (s *Server) handlePreviewFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	files := s.reconciler.ListFiles(r.Context(), q.Get("region"), q.Get("month"))
	if files == nil {
		files = []backend.HTMLFileInfo{}
	}
	s.sendJSON(w, http.StatusOK, files)
}

func (s *Server) handlePreviewRegions(w http.ResponseWriter, r *http.Request) {
	counts := s.reconciler.RegionCounts(r.Context())
	if counts == nil {
		counts = []backend.RegionCount{}
	}
	s.sendJSON(w, http.StatusOK, counts)
}

func (s *Server) handlePreviewMonths(w http.ResponseWriter, r *http.Request) {
	months := s.reconciler.Months(r.Context())
	if months == nil {
		months = []string{}
	}
	s.sendJSON(w, http.StatusOK, months)
}

func (s *Server) handlePreviewStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.reconciler.Stats(r.Context())
	if err != nil {
		s.handleBackendError(w, err, "Failed to load preview stats")
		return
	}
	s.sendJSON(w, http.StatusOK, stats)
}

func (s *Server) handlePreviewLoad(w http.ResponseWriter, r *http.Request) {
	var file backend.HTMLFileInfo
	if err := json.NewDecoder(r.Body).Decode(&file); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if file.Filename == "" {
		s.sendError(w, http.StatusBadRequest, "filename is required")
		return
	}
	if err := s.reconciler.Load(r.Context(), file); err != nil {
		s.handleBackendError(w, err, "Failed to load preview")
		return
	}
	s.sendJSON(w, http.StatusOK, s.reconciler.State())
}

func (s *Server) handlePreviewEdit(w http.ResponseWriter, r *http.Request) {
	if err := s.reconciler.EnterEditMode(r.Context()); err != nil {
		s.handleBackendError(w, err, "Failed to enter edit mode")
		return
	}
	s.sendJSON(w, http.StatusOK, s.reconciler.State())
}

func (s *Server) handlePreviewSave(w http.ResponseWriter, r *http.Request) {
	var changes backend.UpdateTextsRequest
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.reconciler.SaveEdits(r.Context(), changes); err != nil {
		s.handleBackendError(w, err, "Failed to save edits")
		return
	}
	s.sendJSON(w, http.StatusOK, s.reconciler.State())
}

func (s *Server) handlePreviewCancel(w http.ResponseWriter, r *http.Request) {
	s.reconciler.ExitEditMode()
	s.sendJSON(w, http.StatusOK, s.reconciler.State())
}

// SubjectRequest is the request body for PUT /api/preview/subject.
type SubjectRequest struct {
	Subject string `json:"subject"`
}

func (s *Server) handlePreviewSubject(w http.ResponseWriter, r *http.Request) {
	var req SubjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	s.reconciler.SetSubject(req.Subject)
	s.sendJSON(w, http.StatusOK, s.reconciler.State())
}

// SendRequest is the request body for POST /api/preview/send. The first
// call without Confirm returns the confirmation summary; the client
// repeats the call with Confirm set to actually dispatch.
type SendRequest struct {
	Confirm bool `json:"confirm"`
}

// SendResponse is the response for POST /api/preview/send.
type SendResponse struct {
	Sent    bool   `json:"sent"`
	Summary string `json:"summary,omitempty"`
}

func (s *Server) handlePreviewSend(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var summary string
	err := s.reconciler.Send(r.Context(), func(msg string) bool {
		summary = msg
		return req.Confirm
	})
	if err != nil {
		s.handleBackendError(w, err, "Failed to send preview")
		return
	}
	s.sendJSON(w, http.StatusOK, SendResponse{Sent: req.Confirm, Summary: summary})
}

// handleBackendError maps a backend credential rejection to 401 (the
// gate is already closed by the client's hook) and everything else to a
// 502-style failure.
func (s *Server) handleBackendError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, backend.ErrUnauthorized) {
		s.sendError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	s.logger.Error(message, "error", err)
	s.sendError(w, http.StatusBadGateway, message)
}
