// Package execution drives report generation runs: unit selection, the
// strictly sequential per-unit loop against the billing backend, live
// progress and the operator-facing run log.
package execution

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/atlasinovacoes/portalperf/internal/backend"
	"github.com/atlasinovacoes/portalperf/internal/catalog"
	"github.com/atlasinovacoes/portalperf/internal/metrics"
	"github.com/atlasinovacoes/portalperf/internal/notify"
	"github.com/atlasinovacoes/portalperf/internal/runlog"
	"github.com/atlasinovacoes/portalperf/internal/settings"
)

// Mode selects what a run does with each generated report.
type Mode string

const (
	// ModeGenerate builds reports without dispatching email.
	ModeGenerate Mode = "generate"
	// ModeSend builds reports and emails them.
	ModeSend Mode = "send"
)

// ErrRunInProgress is returned by mutations attempted while a run is active.
var ErrRunInProgress = fmt.Errorf("a run is already in progress")

// ErrNothingSelected is returned by Execute when no unit is selected.
var ErrNothingSelected = fmt.Errorf("no unit selected")

// Executor is the slice of the backend client a run needs.
type Executor interface {
	Execute(ctx context.Context, req *backend.ExecuteRequest) (*backend.ExecuteResponse, error)
}

// SettingsSource supplies the operator's sender preferences.
type SettingsSource interface {
	EmailSettings() settings.EmailSettings
}

// Recorder persists completed runs.
type Recorder interface {
	Insert(ctx context.Context, run *runlog.Run) error
}

// UnitState is one unit's selection and outcome within the console.
type UnitState struct {
	Unit       catalog.Unit `json:"unit"`
	Selected   bool         `json:"selected"`
	Status     Status       `json:"status"`
	RowsCount  int          `json:"rows_count,omitempty"`
	Recipients []string     `json:"recipients,omitempty"`
	Artifact   string       `json:"artifact,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// Progress tracks a run. Percentage is rounded to the nearest integer.
type Progress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// RunStats are derived counts over the grid, recomputed on every
// snapshot from a full scan so they can never drift from unit state.
type RunStats struct {
	Selected int `json:"selected"`
	Sent     int `json:"sent"`
	Errors   int `json:"errors"`
	Pending  int `json:"pending"`
	Total    int `json:"total"`
}

// Snapshot is a consistent copy of the orchestrator's state.
type Snapshot struct {
	Running   bool        `json:"running"`
	Mode      Mode        `json:"mode,omitempty"`
	MonthRef  string      `json:"month_ref,omitempty"`
	Progress  Progress    `json:"progress"`
	Units     []UnitState `json:"units"`
	Log       []string    `json:"log"`
	Artifacts []string    `json:"artifacts,omitempty"`
	Stats     RunStats    `json:"stats"`
}

const logSeparator = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// Orchestrator owns the unit grid and runs executions one unit at a time.
type Orchestrator struct {
	exec     Executor
	settings SettingsSource
	recorder Recorder
	notifier *notify.Center
	logger   *slog.Logger

	mu        sync.Mutex
	units     map[string]*UnitState
	selection []string // unit IDs in the order they were selected
	log       []string
	artifacts []string // report filenames in processing order
	running   bool
	mode      Mode
	monthRef  string
	progress  Progress
}

// New builds an orchestrator covering the whole unit catalog, nothing
// selected and all units pending.
func New(exec Executor, src SettingsSource, rec Recorder, notifier *notify.Center, logger *slog.Logger) *Orchestrator {
	units := make(map[string]*UnitState, catalog.TotalUnits())
	for _, u := range catalog.All() {
		units[u.ID] = &UnitState{Unit: u, Status: StatusPending}
	}
	return &Orchestrator{
		exec:     exec,
		settings: src,
		recorder: rec,
		notifier: notifier,
		logger:   logger.With("component", "execution"),
		units:    units,
	}
}

// ToggleUnit flips one unit's selection. Rejected while a run is active.
func (o *Orchestrator) ToggleUnit(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return ErrRunInProgress
	}
	u, ok := o.units[id]
	if !ok {
		return fmt.Errorf("unknown unit: %s", id)
	}
	if u.Selected {
		u.Selected = false
		o.dropFromSelection(id)
	} else {
		u.Selected = true
		o.selection = append(o.selection, id)
	}
	return nil
}

// ToggleAllInRegion selects every unit of a region, or deselects them
// all when every one is already selected.
func (o *Orchestrator) ToggleAllInRegion(code string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return ErrRunInProgress
	}
	units := catalog.ByRegion(code)
	if units == nil {
		return fmt.Errorf("unknown region: %s", code)
	}

	allSelected := true
	for _, u := range units {
		if !o.units[u.ID].Selected {
			allSelected = false
			break
		}
	}

	for _, u := range units {
		s := o.units[u.ID]
		if allSelected {
			s.Selected = false
			o.dropFromSelection(u.ID)
		} else if !s.Selected {
			s.Selected = true
			o.selection = append(o.selection, u.ID)
		}
	}
	return nil
}

// SelectAll selects the whole catalog, or clears the selection when every
// unit is already selected.
func (o *Orchestrator) SelectAll() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return ErrRunInProgress
	}

	if len(o.selection) == len(o.units) {
		for _, s := range o.units {
			s.Selected = false
		}
		o.selection = nil
		return nil
	}

	for _, u := range catalog.All() {
		s := o.units[u.ID]
		if !s.Selected {
			s.Selected = true
			o.selection = append(o.selection, u.ID)
		}
	}
	return nil
}

func (o *Orchestrator) dropFromSelection(id string) {
	for i, sel := range o.selection {
		if sel == id {
			o.selection = append(o.selection[:i], o.selection[i+1:]...)
			return
		}
	}
}

// SelectedCount returns how many units are currently selected.
func (o *Orchestrator) SelectedCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.selection)
}

// Running reports whether a run is active.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// Snapshot returns a consistent copy of the grid, progress and log.
// Units come back in catalog order.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	units := make([]UnitState, 0, len(o.units))
	stats := RunStats{Total: len(o.units)}
	for _, u := range catalog.All() {
		s := *o.units[u.ID]
		units = append(units, s)
		if s.Selected {
			stats.Selected++
		}
		switch s.Status {
		case StatusSent:
			stats.Sent++
		case StatusError:
			stats.Errors++
		case StatusPending:
			if s.Selected {
				stats.Pending++
			}
		}
	}
	logCopy := make([]string, len(o.log))
	copy(logCopy, o.log)
	artifacts := make([]string, len(o.artifacts))
	copy(artifacts, o.artifacts)

	return Snapshot{
		Running:   o.running,
		Mode:      o.mode,
		MonthRef:  o.monthRef,
		Progress:  o.progress,
		Units:     units,
		Log:       logCopy,
		Artifacts: artifacts,
		Stats:     stats,
	}
}

// Reset reinitializes the grid for a new execution: every unit back to
// pending and deselected, log, artifacts and progress cleared. Rejected
// while a run is active.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return ErrRunInProgress
	}
	for _, s := range o.units {
		s.Selected = false
		s.Status = StatusPending
		s.RowsCount = 0
		s.Recipients = nil
		s.Artifact = ""
		s.Error = ""
	}
	o.selection = nil
	o.log = nil
	o.artifacts = nil
	o.progress = Progress{}
	o.mode = ""
	o.monthRef = ""
	return nil
}

// Start validates and kicks off a run in the background. Validation
// errors come back synchronously; the run itself proceeds to completion.
func (o *Orchestrator) Start(mode Mode, monthRef string) error {
	ids, err := o.begin(mode, monthRef)
	if err != nil {
		return err
	}
	go o.run(context.Background(), mode, monthRef, ids)
	return nil
}

// Execute runs synchronously: validation followed by the full loop.
func (o *Orchestrator) Execute(ctx context.Context, mode Mode, monthRef string) error {
	ids, err := o.begin(mode, monthRef)
	if err != nil {
		return err
	}
	o.run(ctx, mode, monthRef, ids)
	return nil
}

// begin validates the request and, on success, transitions the
// orchestrator into the running state with the log header written.
// No backend call happens before this point.
func (o *Orchestrator) begin(mode Mode, monthRef string) ([]string, error) {
	if mode != ModeGenerate && mode != ModeSend {
		return nil, fmt.Errorf("invalid mode: %s", mode)
	}
	if _, _, ok := catalog.ParseMonthRef(monthRef); !ok {
		return nil, fmt.Errorf("invalid month reference: %s", monthRef)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return nil, ErrRunInProgress
	}
	if len(o.selection) == 0 {
		o.notifier.Warning("Selecione ao menos uma unidade para processar")
		return nil, ErrNothingSelected
	}

	ids := make([]string, len(o.selection))
	copy(ids, o.selection)

	for _, id := range ids {
		s := o.units[id]
		s.Status = StatusPending
		s.RowsCount = 0
		s.Recipients = nil
		s.Artifact = ""
		s.Error = ""
	}

	o.running = true
	o.mode = mode
	o.monthRef = monthRef
	o.artifacts = nil
	o.progress = Progress{Current: 0, Total: len(ids), Percentage: 0}

	modeText := "📄 Modo: Apenas gerar relatórios"
	if mode == ModeSend {
		modeText = "📧 Modo: Gerar e enviar e-mails"
	}
	o.log = append(o.log,
		logSeparator,
		fmt.Sprintf("🚀 INICIANDO PROCESSAMENTO - %s", catalog.FormatMonthRef(monthRef)),
		fmt.Sprintf("📦 %d unidade(s) selecionada(s)", len(ids)),
		modeText,
		logSeparator,
	)

	return ids, nil
}

// run processes the selected units one at a time, in selection order.
// Failures are recorded per unit; the loop always reaches the end.
func (o *Orchestrator) run(ctx context.Context, mode Mode, monthRef string, ids []string) {
	started := time.Now()
	es := o.settings.EmailSettings()
	total := len(ids)

	o.logger.Info("run started",
		"mode", string(mode), "month", monthRef, "units", total)

	recorded := make([]runlog.RunUnit, 0, total)
	success := 0

	for i, id := range ids {
		o.mu.Lock()
		s := o.units[id]
		s.Status, _ = transition(s.Status, StatusProcessing)
		unit := s.Unit
		lineIdx := len(o.log)
		o.log = append(o.log, fmt.Sprintf("⏳ [%d/%d] %s...", i+1, total, unit.Name))
		o.mu.Unlock()

		req := &backend.ExecuteRequest{
			Region:      unit.Region,
			Unit:        unit.Name,
			Month:       monthRef,
			DryRun:      mode == ModeGenerate,
			SendEmail:   mode == ModeSend,
			SenderEmail: es.SenderEmail,
			SenderName:  es.SenderName,
			ReplyTo:     es.ReplyTo,
			CcEmails:    es.CcList(),
			MandatoryCc: es.MandatoryCc,
		}

		callStart := time.Now()
		resp, err := o.exec.Execute(ctx, req)
		metrics.ObserveBackendDuration("execute", time.Since(callStart).Seconds())

		o.mu.Lock()
		if err != nil {
			s.Status, _ = transition(s.Status, StatusError)
			s.Error = err.Error()
			o.log[lineIdx] = fmt.Sprintf("❌ [%d/%d] %s - %s", i+1, total, unit.Name, s.Error)
			metrics.IncBackendRequest("execute", "error")
		} else if !resp.Success {
			s.Status, _ = transition(s.Status, StatusError)
			s.Error = resp.Error
			if s.Error == "" {
				s.Error = "Erro desconhecido"
			}
			o.log[lineIdx] = fmt.Sprintf("❌ [%d/%d] %s - %s", i+1, total, unit.Name, s.Error)
			metrics.IncBackendRequest("execute", "failed")
		} else {
			s.Status, _ = transition(s.Status, StatusSent)
			s.RowsCount = resp.RowsCount
			s.Recipients = resp.EmailsSentTo
			s.Artifact = artifactName(resp.HTMLPath, unit.Name, monthRef)
			o.artifacts = append(o.artifacts, s.Artifact)
			line := fmt.Sprintf("✅ [%d/%d] %s (%d linhas)", i+1, total, unit.Name, resp.RowsCount)
			if len(resp.EmailsSentTo) > 0 {
				line += " → " + strings.Join(resp.EmailsSentTo, ", ")
			}
			o.log[lineIdx] = line
			metrics.IncBackendRequest("execute", "ok")
			success++
		}
		metrics.IncUnitProcessed(string(s.Status))

		o.progress = Progress{
			Current:    i + 1,
			Total:      total,
			Percentage: int(math.Round(float64(i+1) / float64(total) * 100)),
		}

		recorded = append(recorded, runlog.RunUnit{
			UnitID:     unit.ID,
			UnitName:   unit.Name,
			Region:     unit.Region,
			Status:     string(s.Status),
			RowsCount:  s.RowsCount,
			Recipients: strings.Join(s.Recipients, ", "),
			Artifact:   s.Artifact,
			Error:      s.Error,
			Position:   i,
		})
		o.mu.Unlock()
	}

	o.finish(ctx, mode, monthRef, started, recorded, success, total)
}

func (o *Orchestrator) finish(ctx context.Context, mode Mode, monthRef string, started time.Time, units []runlog.RunUnit, success, total int) {
	o.mu.Lock()
	o.log = append(o.log,
		logSeparator,
		fmt.Sprintf("🏁 CONCLUÍDO: %d/%d unidades processadas", success, total),
		logSeparator,
	)
	o.running = false
	o.mu.Unlock()

	outcome := "partial"
	switch success {
	case total:
		outcome = "success"
	case 0:
		outcome = "failure"
	}
	metrics.IncRun(string(mode), outcome)
	metrics.ObserveRunDuration(string(mode), time.Since(started).Seconds())

	switch outcome {
	case "success":
		o.notifier.Success(fmt.Sprintf("✅ %d relatório(s) processado(s) com sucesso", total))
	case "partial":
		o.notifier.Warning(fmt.Sprintf("⚠️ %d de %d unidades processadas com sucesso", success, total))
	default:
		o.notifier.Error("❌ Nenhuma unidade foi processada com sucesso")
	}

	run := &runlog.Run{
		ID:           uuid.New().String(),
		Mode:         string(mode),
		MonthRef:     monthRef,
		UnitCount:    total,
		SuccessCount: success,
		ErrorCount:   total - success,
		StartedAt:    started,
		FinishedAt:   time.Now(),
		Units:        units,
	}
	if err := o.recorder.Insert(ctx, run); err != nil {
		o.logger.Error("failed to record run", "error", err)
	}

	o.logger.Info("run finished",
		"mode", string(mode), "month", monthRef,
		"success", success, "errors", total-success,
		"duration", time.Since(started))
}

// artifactName derives the report filename from the backend's path, or
// builds the conventional one when the backend omits it.
func artifactName(htmlPath, unitName, monthRef string) string {
	if htmlPath != "" {
		return filepath.Base(htmlPath)
	}
	return fmt.Sprintf("%s_%s.html", strings.ReplaceAll(unitName, " ", "_"), monthRef)
}
