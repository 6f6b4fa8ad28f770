// Package upload stages billing spreadsheets before they are submitted
// to the backend: filename validation, region auto-detection and the
// one-file-per-region rule.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/atlasinovacoes/portalperf/internal/backend"
	"github.com/atlasinovacoes/portalperf/internal/catalog"
	"github.com/atlasinovacoes/portalperf/internal/notify"
)

// MaxFileSize is the largest accepted spreadsheet.
const MaxFileSize = 50 * 1024 * 1024

// MaxStagedFiles is one spreadsheet per region.
const MaxStagedFiles = 5

// DetectRegion guesses the region from tokens in the filename. Codes
// only count when preceded by a delimiter ("_RJ", " SP1", "-NNE"), so
// incidental substrings like the SP1 in "PROSP1ECTO" never match. Empty
// means no region could be inferred and the operator assigns one.
func DetectRegion(filename string) string {
	up := strings.ToUpper(filename)
	hasToken := func(code string) bool {
		return strings.Contains(up, "_"+code) ||
			strings.Contains(up, " "+code) ||
			strings.Contains(up, "-"+code)
	}
	for _, code := range []string{"RJ", "SP1", "SP2", "SP3"} {
		if hasToken(code) {
			return code
		}
	}
	if hasToken("NNE") || strings.Contains(up, "NORTE") || strings.Contains(up, "NORDESTE") {
		return "NNE"
	}
	return ""
}

// ValidateFile checks a spreadsheet before staging: Excel extension,
// size limit and no Office lock files.
func ValidateFile(filename string, size int64) error {
	if strings.HasPrefix(filename, "~$") {
		return fmt.Errorf("%s é um arquivo temporário do Excel", filename)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".xlsx" && ext != ".xls" {
		return fmt.Errorf("%s não é uma planilha Excel (.xlsx/.xls)", filename)
	}
	if size <= 0 {
		return fmt.Errorf("%s está vazio", filename)
	}
	if size > MaxFileSize {
		return fmt.Errorf("%s excede o limite de 50MB", filename)
	}
	return nil
}

// StagedFile is one spreadsheet waiting for submission.
type StagedFile struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Region   string `json:"region"`
	Size     int64  `json:"size"`
	Detected bool   `json:"detected"`

	data []byte
}

// Uploader is the slice of the backend client submissions use.
type Uploader interface {
	Upload(ctx context.Context, file backend.UploadFile) (*backend.Job, error)
	UploadBatch(ctx context.Context, files []backend.UploadFile) ([]backend.Job, error)
}

// Stage holds spreadsheets between drop and submit.
type Stage struct {
	client   Uploader
	notifier *notify.Center
	logger   *slog.Logger

	mu    sync.Mutex
	files []*StagedFile
}

func NewStage(client Uploader, notifier *notify.Center, logger *slog.Logger) *Stage {
	return &Stage{
		client:   client,
		notifier: notifier,
		logger:   logger.With("component", "upload"),
	}
}

// Files returns a copy of the staged entries, in drop order.
func (s *Stage) Files() []StagedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StagedFile, 0, len(s.files))
	for _, f := range s.files {
		out = append(out, *f)
	}
	return out
}

// Add validates and stages one spreadsheet. When the detected region is
// already taken the new file silently replaces the old one: dropping a
// corrected spreadsheet is the normal workflow, not a conflict.
func (s *Stage) Add(filename string, data []byte) (*StagedFile, error) {
	if err := ValidateFile(filename, int64(len(data))); err != nil {
		s.notifier.Warning(err.Error())
		return nil, err
	}

	region := DetectRegion(filename)

	s.mu.Lock()
	defer s.mu.Unlock()

	if region != "" {
		for i, f := range s.files {
			if f.Region == region {
				replaced := f.Name
				s.files[i] = &StagedFile{
					ID:       uuid.New().String(),
					Name:     filename,
					Region:   region,
					Size:     int64(len(data)),
					Detected: true,
					data:     data,
				}
				s.notifier.Info(fmt.Sprintf("%s substituiu %s na região %s", filename, replaced, region))
				return s.files[i], nil
			}
		}
	}

	if len(s.files) >= MaxStagedFiles {
		err := fmt.Errorf("limite de %d planilhas atingido", MaxStagedFiles)
		s.notifier.Warning(err.Error())
		return nil, err
	}

	f := &StagedFile{
		ID:       uuid.New().String(),
		Name:     filename,
		Region:   region,
		Size:     int64(len(data)),
		Detected: region != "",
		data:     data,
	}
	s.files = append(s.files, f)
	return f, nil
}

// AssignRegion sets a staged file's region by hand. Unlike Add's silent
// replacement, a manual assignment to an occupied region is blocked: the
// operator is pointing two files at one region, which is always a mistake.
func (s *Stage) AssignRegion(id, region string) error {
	if !validRegion(region) {
		return fmt.Errorf("região inválida: %s", region)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var target *StagedFile
	for _, f := range s.files {
		if f.ID == id {
			target = f
			continue
		}
		if f.Region == region {
			s.notifier.Warning(fmt.Sprintf("A região %s já está ocupada por %s", region, f.Name))
			return fmt.Errorf("region %s already assigned to %s", region, f.Name)
		}
	}
	if target == nil {
		return fmt.Errorf("staged file not found: %s", id)
	}

	target.Region = region
	target.Detected = false
	return nil
}

// Remove drops one staged file.
func (s *Stage) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.files {
		if f.ID == id {
			s.files = append(s.files[:i], s.files[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("staged file not found: %s", id)
}

// Clear empties the stage.
func (s *Stage) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = nil
}

// Ready reports whether every staged file has a region assigned.
func (s *Stage) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.files) == 0 {
		return false
	}
	for _, f := range s.files {
		if f.Region == "" {
			return false
		}
	}
	return true
}

// Submit sends one staged file to the backend and removes it on success.
func (s *Stage) Submit(ctx context.Context, id string) (*backend.Job, error) {
	s.mu.Lock()
	var target *StagedFile
	for _, f := range s.files {
		if f.ID == id {
			target = f
			break
		}
	}
	s.mu.Unlock()

	if target == nil {
		return nil, fmt.Errorf("staged file not found: %s", id)
	}
	if target.Region == "" {
		return nil, fmt.Errorf("%s ainda não tem região atribuída", target.Name)
	}

	job, err := s.client.Upload(ctx, backend.UploadFile{
		Name:   target.Name,
		Region: target.Region,
		Data:   bytes.NewReader(target.data),
	})
	if err != nil {
		s.notifier.Error(fmt.Sprintf("Falha no envio de %s: %v", target.Name, err))
		return nil, fmt.Errorf("upload %s: %w", target.Name, err)
	}

	s.Remove(id)
	s.notifier.Success(fmt.Sprintf("%s enviado para processamento", target.Name))
	s.logger.Info("spreadsheet uploaded", "file", target.Name, "region", target.Region, "job", job.ID)
	return job, nil
}

// SubmitAll sends every staged file in one batch. All files must have a
// region; the stage is cleared on success.
func (s *Stage) SubmitAll(ctx context.Context) ([]backend.Job, error) {
	s.mu.Lock()
	if len(s.files) == 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("nenhuma planilha na fila")
	}
	files := make([]backend.UploadFile, 0, len(s.files))
	for _, f := range s.files {
		if f.Region == "" {
			s.mu.Unlock()
			s.notifier.Warning(fmt.Sprintf("%s ainda não tem região atribuída", f.Name))
			return nil, fmt.Errorf("%s has no region assigned", f.Name)
		}
		files = append(files, backend.UploadFile{
			Name:   f.Name,
			Region: f.Region,
			Data:   bytes.NewReader(f.data),
		})
	}
	s.mu.Unlock()

	jobs, err := s.client.UploadBatch(ctx, files)
	if err != nil {
		s.notifier.Error(fmt.Sprintf("Falha no envio do lote: %v", err))
		return nil, fmt.Errorf("upload batch: %w", err)
	}

	s.Clear()
	s.notifier.Success(fmt.Sprintf("%d planilha(s) enviada(s) para processamento", len(files)))
	return jobs, nil
}

func validRegion(code string) bool {
	return catalog.ByRegion(code) != nil
}
