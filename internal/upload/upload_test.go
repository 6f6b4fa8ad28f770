package upload

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/atlasinovacoes/portalperf/internal/backend"
	"github.com/atlasinovacoes/portalperf/internal/notify"
)

func TestDetectRegion(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"medicao_RJ_novembro.xlsx", "RJ"},
		{"medicao RJ novembro.xlsx", "RJ"},
		{"medicao-RJ-novembro.xlsx", "RJ"},
		{"medicao_rj_novembro.xlsx", "RJ"},
		{"medicao_SP1.xlsx", "SP1"},
		{"planilha sp2 outubro.xls", "SP2"},
		{"medicao-SP3-final.xlsx", "SP3"},
		{"SP3_final.xlsx", ""},
		{"medicao_NNE.xlsx", "NNE"},
		{"regiao NORDESTE.xlsx", "NNE"},
		{"medicao norte novembro.xlsx", "NNE"},
		{"medicao_RJ SP1.xlsx", "RJ"},
		{"RJOUTUBRO.xlsx", ""},
		{"Planned.xlsx", ""},
		{"PROSP1ECTO.xlsx", ""},
		{"ESPINHO.xlsx", ""},
		{"medicao_geral.xlsx", ""},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := DetectRegion(tt.filename); got != tt.want {
				t.Errorf("DetectRegion(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		wantErr  bool
	}{
		{"valid xlsx", "medicao_RJ.xlsx", 1024, false},
		{"valid xls", "medicao_RJ.xls", 1024, false},
		{"uppercase extension", "MEDICAO.XLSX", 1024, false},
		{"office lock file", "~$medicao_RJ.xlsx", 1024, true},
		{"wrong extension", "medicao.csv", 1024, true},
		{"no extension", "medicao", 1024, true},
		{"empty", "medicao.xlsx", 0, true},
		{"too large", "medicao.xlsx", MaxFileSize + 1, true},
		{"at limit", "medicao.xlsx", MaxFileSize, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFile(tt.filename, tt.size)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFile(%q, %d) error = %v, wantErr %v", tt.filename, tt.size, err, tt.wantErr)
			}
		})
	}
}

type fakeUploader struct {
	job      *backend.Job
	jobs     []backend.Job
	err      error
	batchErr error

	singles []backend.UploadFile
	batches [][]backend.UploadFile
}

func (f *fakeUploader) Upload(_ context.Context, file backend.UploadFile) (*backend.Job, error) {
	f.singles = append(f.singles, file)
	if f.err != nil {
		return nil, f.err
	}
	if f.job != nil {
		return f.job, nil
	}
	return &backend.Job{ID: "job-1", Filename: file.Name, Status: "queued"}, nil
}

func (f *fakeUploader) UploadBatch(_ context.Context, files []backend.UploadFile) ([]backend.Job, error) {
	f.batches = append(f.batches, files)
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	return f.jobs, nil
}

func newTestStage(client Uploader) (*Stage, *notify.Center) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	center := notify.NewCenter(logger)
	return NewStage(client, center, logger), center
}

func TestAddDetectsRegion(t *testing.T) {
	s, _ := newTestStage(&fakeUploader{})

	f, err := s.Add("medicao_RJ.xlsx", []byte("data"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if f.Region != "RJ" || !f.Detected {
		t.Errorf("staged = %+v", f)
	}

	f, err = s.Add("medicao_geral.xlsx", []byte("data"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if f.Region != "" || f.Detected {
		t.Errorf("staged = %+v, want undetected", f)
	}
}

func TestAddInvalidFileRejected(t *testing.T) {
	s, center := newTestStage(&fakeUploader{})
	if _, err := s.Add("~$medicao_RJ.xlsx", []byte("data")); err == nil {
		t.Fatal("Add() error = nil for lock file")
	}
	if len(s.Files()) != 0 {
		t.Error("invalid file was staged")
	}
	if n := center.Drain(); len(n) != 1 || n[0].Level != notify.LevelWarning {
		t.Errorf("notices = %+v", n)
	}
}

func TestAddSilentlyReplacesSameRegion(t *testing.T) {
	s, center := newTestStage(&fakeUploader{})
	s.Add("medicao_RJ_v1.xlsx", []byte("old"))
	center.Drain()

	f, err := s.Add("medicao_RJ_v2.xlsx", []byte("new"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	files := s.Files()
	if len(files) != 1 {
		t.Fatalf("staged count = %d, want 1 after replacement", len(files))
	}
	if files[0].Name != "medicao_RJ_v2.xlsx" || files[0].ID != f.ID {
		t.Errorf("staged = %+v", files[0])
	}

	// Replacement is announced as info, not blocked.
	n := center.Drain()
	if len(n) != 1 || n[0].Level != notify.LevelInfo {
		t.Errorf("notices = %+v, want one info", n)
	}
}

func TestAddLimitEnforced(t *testing.T) {
	s, _ := newTestStage(&fakeUploader{})
	names := []string{
		"medicao_RJ.xlsx", "medicao_SP1.xlsx", "medicao_SP2.xlsx",
		"medicao_SP3.xlsx", "medicao_NNE.xlsx",
	}
	for _, n := range names {
		if _, err := s.Add(n, []byte("data")); err != nil {
			t.Fatalf("Add(%s) error = %v", n, err)
		}
	}
	if _, err := s.Add("medicao_geral.xlsx", []byte("data")); err == nil {
		t.Error("Add() error = nil beyond the staging limit")
	}

	// A region replacement still works at the limit.
	if _, err := s.Add("medicao_RJ_fix.xlsx", []byte("data")); err != nil {
		t.Errorf("replacement at limit error = %v", err)
	}
	if len(s.Files()) != 5 {
		t.Errorf("staged count = %d, want 5", len(s.Files()))
	}
}

func TestAssignRegionBlockedWhenOccupied(t *testing.T) {
	s, center := newTestStage(&fakeUploader{})
	s.Add("medicao_RJ.xlsx", []byte("data"))
	f, _ := s.Add("medicao_geral.xlsx", []byte("data"))
	center.Drain()

	// Manual reassignment into an occupied region is blocked.
	if err := s.AssignRegion(f.ID, "RJ"); err == nil {
		t.Fatal("AssignRegion() error = nil for occupied region")
	}
	n := center.Drain()
	if len(n) != 1 || n[0].Level != notify.LevelWarning {
		t.Errorf("notices = %+v, want one warning", n)
	}

	// Free region works.
	if err := s.AssignRegion(f.ID, "SP1"); err != nil {
		t.Fatalf("AssignRegion() error = %v", err)
	}
	for _, staged := range s.Files() {
		if staged.ID == f.ID && (staged.Region != "SP1" || staged.Detected) {
			t.Errorf("staged = %+v", staged)
		}
	}

	if err := s.AssignRegion(f.ID, "XX"); err == nil {
		t.Error("AssignRegion() error = nil for unknown region")
	}
}

func TestReady(t *testing.T) {
	s, _ := newTestStage(&fakeUploader{})
	if s.Ready() {
		t.Error("Ready() = true for empty stage")
	}
	s.Add("medicao_RJ.xlsx", []byte("data"))
	f, _ := s.Add("medicao_geral.xlsx", []byte("data"))
	if s.Ready() {
		t.Error("Ready() = true with an unassigned file")
	}
	s.AssignRegion(f.ID, "SP1")
	if !s.Ready() {
		t.Error("Ready() = false with all regions assigned")
	}
}

func TestSubmitSingle(t *testing.T) {
	client := &fakeUploader{}
	s, _ := newTestStage(client)
	f, _ := s.Add("medicao_RJ.xlsx", []byte("conteudo"))

	job, err := s.Submit(context.Background(), f.ID)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if job.ID != "job-1" {
		t.Errorf("job = %+v", job)
	}
	if len(s.Files()) != 0 {
		t.Error("submitted file still staged")
	}
	if len(client.singles) != 1 || client.singles[0].Region != "RJ" {
		t.Errorf("upload calls = %+v", client.singles)
	}
}

func TestSubmitUnassignedBlocked(t *testing.T) {
	client := &fakeUploader{}
	s, _ := newTestStage(client)
	f, _ := s.Add("medicao_geral.xlsx", []byte("data"))

	if _, err := s.Submit(context.Background(), f.ID); err == nil {
		t.Fatal("Submit() error = nil for unassigned file")
	}
	if len(client.singles) != 0 {
		t.Error("backend called for unassigned file")
	}
}

func TestSubmitFailureKeepsFile(t *testing.T) {
	client := &fakeUploader{err: errors.New("backend down")}
	s, _ := newTestStage(client)
	f, _ := s.Add("medicao_RJ.xlsx", []byte("data"))

	if _, err := s.Submit(context.Background(), f.ID); err == nil {
		t.Fatal("Submit() error = nil")
	}
	if len(s.Files()) != 1 {
		t.Error("file dropped from stage on failed submit")
	}
}

func TestSubmitAll(t *testing.T) {
	client := &fakeUploader{jobs: []backend.Job{{ID: "a"}, {ID: "b"}}}
	s, _ := newTestStage(client)
	s.Add("medicao_RJ.xlsx", []byte("data"))
	s.Add("medicao_SP1.xlsx", []byte("data"))

	jobs, err := s.SubmitAll(context.Background())
	if err != nil {
		t.Fatalf("SubmitAll() error = %v", err)
	}
	if len(jobs) != 2 {
		t.Errorf("jobs = %+v", jobs)
	}
	if len(s.Files()) != 0 {
		t.Error("stage not cleared after batch submit")
	}
	if len(client.batches) != 1 || len(client.batches[0]) != 2 {
		t.Errorf("batch calls = %+v", client.batches)
	}
}

func TestSubmitAllRequiresAllRegions(t *testing.T) {
	client := &fakeUploader{}
	s, _ := newTestStage(client)
	s.Add("medicao_RJ.xlsx", []byte("data"))
	s.Add("medicao_geral.xlsx", []byte("data"))

	if _, err := s.SubmitAll(context.Background()); err == nil {
		t.Fatal("SubmitAll() error = nil with unassigned file")
	}
	if len(client.batches) != 0 {
		t.Error("backend called with incomplete assignment")
	}
	if !strings.Contains(s.Files()[1].Name, "geral") {
		t.Error("stage mutated by failed batch submit")
	}
}
