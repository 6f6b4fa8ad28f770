package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atlasinovacoes/portalperf/internal/backend"
	"github.com/atlasinovacoes/portalperf/internal/catalog"
	"github.com/atlasinovacoes/portalperf/internal/history"
	"github.com/atlasinovacoes/portalperf/internal/runlog"
	"github.com/atlasinovacoes/portalperf/internal/settings"
	"github.com/atlasinovacoes/portalperf/internal/upload"
)

func (s *Server) handleStagedFiles(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]any{
		"files": s.stage.Files(),
		"ready": s.stage.Ready(),
	})
}

func (s *Server) handleStageFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(upload.MaxFileSize); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, upload.MaxFileSize+1))
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	staged, err := s.stage.Add(header.Filename, data)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.sendJSON(w, http.StatusCreated, staged)
}

// AssignRegionRequest is the request body for POST /api/uploads/{id}/region.
type AssignRegionRequest struct {
	Region string `json:"region"`
}

func (s *Server) handleAssignRegion(w http.ResponseWriter, r *http.Request) {
	var req AssignRegionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.stage.AssignRegion(chi.URLParam(r, "id"), req.Region); err != nil {
		s.sendError(w, http.StatusConflict, err.Error())
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]any{"files": s.stage.Files()})
}

func (s *Server) handleUnstageFile(w http.ResponseWriter, r *http.Request) {
	if err := s.stage.Remove(chi.URLParam(r, "id")); err != nil {
		s.sendError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubmitFile(w http.ResponseWriter, r *http.Request) {
	job, err := s.stage.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleBackendError(w, err, "Failed to submit spreadsheet")
		return
	}
	s.sendJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleSubmitAll(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.stage.SubmitAll(r.Context())
	if err != nil {
		s.handleBackendError(w, err, "Failed to submit spreadsheets")
		return
	}
	s.sendJSON(w, http.StatusAccepted, map[string]any{"jobs": jobs})
}

func (s *Server) handleUploadRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := s.client.UploadRegions(r.Context())
	if err != nil {
		s.handleBackendError(w, err, "Failed to load upload regions")
		return
	}
	s.sendJSON(w, http.StatusOK, regions)
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	jobs, err := s.client.ListJobs(r.Context(), limit, offset)
	if err != nil {
		s.handleBackendError(w, err, "Failed to list jobs")
		return
	}
	s.sendJSON(w, http.StatusOK, jobs)
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.client.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleBackendError(w, err, "Failed to load job")
		return
	}
	s.sendJSON(w, http.StatusOK, job)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := history.Filters{
		UnitName: q.Get("unit_name"),
		Region:   q.Get("region"),
		MonthRef: q.Get("month_ref"),
		Status:   q.Get("status"),
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
	}
	if raw := q.Get("is_dry_run"); raw != "" {
		dry := raw == "true"
		f.DryRun = &dry
	}
	page, _ := strconv.Atoi(q.Get("page"))

	result, err := s.history.List(r.Context(), f, page)
	if err != nil {
		s.handleBackendError(w, err, "Failed to load history")
		return
	}
	s.sendJSON(w, http.StatusOK, result)
}

func (s *Server) handleHistoryStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.history.Stats(r.Context())
	if err != nil {
		s.handleBackendError(w, err, "Failed to load history stats")
		return
	}
	s.sendJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHistoryDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid record id")
		return
	}
	if err := s.history.Delete(r.Context(), id); err != nil {
		s.handleBackendError(w, err, "Failed to delete record")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHistoryCleanup(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days < 1 {
		s.sendError(w, http.StatusBadRequest, "days must be a positive integer")
		return
	}
	deleted, err := s.history.Cleanup(r.Context(), days)
	if err != nil {
		s.handleBackendError(w, err, "Failed to clean up history")
		return
	}
	s.sendJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	f := runlog.Filter{
		Mode:     q.Get("mode"),
		MonthRef: q.Get("month_ref"),
		Region:   q.Get("region"),
		Limit:    limit,
		Offset:   offset,
	}
	runs, total, err := s.runs.List(r.Context(), f)
	if err != nil {
		s.logger.Error("failed to list runs", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}
	if runs == nil {
		runs = []runlog.Run{}
	}
	s.sendJSON(w, http.StatusOK, map[string]any{"runs": runs, "total": total})
}

func (s *Server) handleRunDetail(w http.ResponseWriter, r *http.Request) {
	run, err := s.runs.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.logger.Error("failed to load run", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to load run")
		return
	}
	if run == nil {
		s.sendError(w, http.StatusNotFound, "run not found")
		return
	}
	s.sendJSON(w, http.StatusOK, run)
}

func (s *Server) handleRunStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.runs.Stats(r.Context())
	if err != nil {
		s.logger.Error("failed to load run stats", "error", err)
		s.sendError(w, http.StatusInternalServerError, "Failed to load run stats")
		return
	}
	s.sendJSON(w, http.StatusOK, stats)
}

func (s *Server) handleAvailableColumns(w http.ResponseWriter, r *http.Request) {
	columns, err := s.client.AvailableColumns(r.Context())
	if err != nil {
		s.handleBackendError(w, err, "Failed to load available columns")
		return
	}
	s.sendJSON(w, http.StatusOK, map[string][]string{"columns": columns})
}

func (s *Server) handleGetGlobalConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.client.GlobalConfig(r.Context())
	if err != nil {
		s.handleBackendError(w, err, "Failed to load global config")
		return
	}
	s.sendJSON(w, http.StatusOK, cfg)
}

func (s *Server) handlePutGlobalConfig(w http.ResponseWriter, r *http.Request) {
	var cfg backend.ScopeConfigResponse
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.client.SetGlobalConfig(r.Context(), &cfg); err != nil {
		s.handleBackendError(w, err, "Failed to store global config")
		return
	}
	s.sendJSON(w, http.StatusOK, cfg)
}

// handleResetGlobalConfig restores the hardcoded defaults: standard
// columns only and automatic month selection.
func (s *Server) handleResetGlobalConfig(w http.ResponseWriter, r *http.Request) {
	defaults := settings.Defaults(catalog.StandardColumnIDs())
	if err := s.client.SetGlobalConfig(r.Context(), &defaults); err != nil {
		s.handleBackendError(w, err, "Failed to reset global config")
		return
	}
	s.sendJSON(w, http.StatusOK, defaults)
}

func (s *Server) handleGetRegionConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.client.RegionConfig(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.handleBackendError(w, err, "Failed to load region config")
		return
	}
	s.sendJSON(w, http.StatusOK, cfg)
}

func (s *Server) handlePutRegionConfig(w http.ResponseWriter, r *http.Request) {
	var cfg backend.ScopeConfigResponse
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.client.SetRegionConfig(r.Context(), chi.URLParam(r, "code"), &cfg); err != nil {
		s.handleBackendError(w, err, "Failed to store region config")
		return
	}
	s.sendJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleResetRegionConfig(w http.ResponseWriter, r *http.Request) {
	if err := s.client.ResetRegionConfig(r.Context(), chi.URLParam(r, "code")); err != nil {
		s.handleBackendError(w, err, "Failed to reset region config")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetUnitConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.client.UnitConfig(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.handleBackendError(w, err, "Failed to load unit config")
		return
	}
	s.sendJSON(w, http.StatusOK, cfg)
}

func (s *Server) handlePutUnitConfig(w http.ResponseWriter, r *http.Request) {
	var cfg backend.ScopeConfigResponse
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := s.client.SetUnitConfig(r.Context(), chi.URLParam(r, "name"), &cfg); err != nil {
		s.handleBackendError(w, err, "Failed to store unit config")
		return
	}
	s.sendJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleResetUnitConfig(w http.ResponseWriter, r *http.Request) {
	if err := s.client.ResetUnitConfig(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.handleBackendError(w, err, "Failed to reset unit config")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEffectiveUnitConfig merges the three scope levels the way the
// console displays them: unit overrides region overrides global. A
// missing override level simply falls through to the broader scope.
func (s *Server) handleEffectiveUnitConfig(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	global, err := s.client.GlobalConfig(r.Context())
	if err != nil {
		s.handleBackendError(w, err, "Failed to load global config")
		return
	}

	var region *backend.ScopeConfigResponse
	if code := regionOfUnit(name); code != "" {
		if cfg, err := s.client.RegionConfig(r.Context(), code); err == nil {
			region = cfg
		}
	}
	var unit *backend.ScopeConfigResponse
	if cfg, err := s.client.UnitConfig(r.Context(), name); err == nil {
		unit = cfg
	}

	s.sendJSON(w, http.StatusOK, settings.Effective(global, region, unit))
}

func regionOfUnit(name string) string {
	for _, u := range catalog.All() {
		if u.Name == name {
			return u.Region
		}
	}
	return ""
}

func (s *Server) handleSchedules(w http.ResponseWriter, r *http.Request) {
	list, err := s.client.ListSchedules(r.Context())
	if err != nil {
		s.handleBackendError(w, err, "Failed to list schedules")
		return
	}
	s.sendJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var sched backend.Schedule
	if err := json.NewDecoder(r.Body).Decode(&sched); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	created, err := s.client.CreateSchedule(r.Context(), &sched)
	if err != nil {
		s.handleBackendError(w, err, "Failed to create schedule")
		return
	}
	s.sendJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var sched backend.Schedule
	if err := json.NewDecoder(r.Body).Decode(&sched); err != nil {
		s.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	updated, err := s.client.UpdateSchedule(r.Context(), chi.URLParam(r, "id"), &sched)
	if err != nil {
		s.handleBackendError(w, err, "Failed to update schedule")
		return
	}
	s.sendJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.client.DeleteSchedule(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleBackendError(w, err, "Failed to delete schedule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePauseSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.client.PauseSchedule(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleBackendError(w, err, "Failed to pause schedule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResumeSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.client.ResumeSchedule(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleBackendError(w, err, "Failed to resume schedule")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := s.client.ListReportTemplates(r.Context())
	if err != nil {
		s.handleBackendError(w, err, "Failed to list templates")
		return
	}
	s.sendJSON(w, http.StatusOK, list)
}

func (s *Server) handleActivateTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.client.ActivateReportTemplate(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleBackendError(w, err, "Failed to activate template")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
