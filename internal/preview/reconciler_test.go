package preview

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/atlasinovacoes/portalperf/internal/backend"
	"github.com/atlasinovacoes/portalperf/internal/notify"
	"github.com/atlasinovacoes/portalperf/internal/settings"
)

type fakeBrowser struct {
	files      []backend.HTMLFileInfo
	listErr    error
	content    string
	contentErr error
	texts      *backend.EditableTexts
	textsErr   error
	updateResp *backend.UpdateTextsResponse
	updateErr  error
	sendResp   *backend.SendPreviewResponse
	sendErr    error

	sendReq   *backend.SendPreviewRequest
	updateReq *backend.UpdateTextsRequest
	sendCalls int
}

func (f *fakeBrowser) ListPreviewFiles(_ context.Context, _, _ string) ([]backend.HTMLFileInfo, error) {
	return f.files, f.listErr
}

func (f *fakeBrowser) PreviewContent(_ context.Context, _ string) (string, error) {
	return f.content, f.contentErr
}

func (f *fakeBrowser) EditableTexts(_ context.Context, _ string) (*backend.EditableTexts, error) {
	return f.texts, f.textsErr
}

func (f *fakeBrowser) UpdateTexts(_ context.Context, _ string, req *backend.UpdateTextsRequest) (*backend.UpdateTextsResponse, error) {
	f.updateReq = req
	return f.updateResp, f.updateErr
}

func (f *fakeBrowser) SendPreview(_ context.Context, _ string, req *backend.SendPreviewRequest) (*backend.SendPreviewResponse, error) {
	f.sendCalls++
	f.sendReq = req
	return f.sendResp, f.sendErr
}

func (f *fakeBrowser) PreviewRegions(_ context.Context) ([]backend.RegionCount, error) {
	return nil, errors.New("unused")
}

func (f *fakeBrowser) PreviewMonths(_ context.Context) ([]string, error) {
	return nil, errors.New("unused")
}

func (f *fakeBrowser) GetPreviewStats(_ context.Context) (*backend.PreviewStats, error) {
	return nil, errors.New("unused")
}

type fakeSettings struct{}

func (fakeSettings) EmailSettings() settings.EmailSettings {
	return settings.EmailSettings{
		SenderEmail:  "ops@atlas.local",
		MandatoryCc:  "compliance@atlas.local",
		AdditionalCc: "cc@atlas.local",
	}
}

var sampleFile = backend.HTMLFileInfo{
	Filename: "Norte_Shopping_2024-11.html",
	UnitName: "Norte Shopping",
	Month:    "2024-11",
	Region:   "RJ",
}

func newTestReconciler(client Browser) (*Reconciler, *notify.Center) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	center := notify.NewCenter(logger)
	return NewReconciler(client, fakeSettings{}, center, logger), center
}

func TestDefaultSubject(t *testing.T) {
	tests := []struct {
		unit, month, want string
	}{
		{"Norte Shopping", "2024-11", "Medição Norte Shopping - Novembro/2024"},
		{"Shopping da Bahia", "2025-01", "Medição Shopping da Bahia - Janeiro/2025"},
		{"Shopping Curitiba", "2024-03", "Medição Shopping Curitiba - Março/2024"},
		{"Norte Shopping", "novembro", "Medição Norte Shopping - novembro"},
	}
	for _, tt := range tests {
		if got := DefaultSubject(tt.unit, tt.month); got != tt.want {
			t.Errorf("DefaultSubject(%q, %q) = %q, want %q", tt.unit, tt.month, got, tt.want)
		}
	}
}

func TestListFilesFailureIsEmpty(t *testing.T) {
	r, _ := newTestReconciler(&fakeBrowser{listErr: errors.New("backend down")})
	if got := r.ListFiles(context.Background(), "", ""); got != nil {
		t.Errorf("ListFiles() = %v, want nil on failure", got)
	}
}

func TestLoadSetsDefaultSubject(t *testing.T) {
	r, _ := newTestReconciler(&fakeBrowser{content: "<html>ok</html>"})

	if err := r.Load(context.Background(), sampleFile); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	s := r.State()
	if s.Content != "<html>ok</html>" {
		t.Errorf("Content = %q", s.Content)
	}
	if s.Subject != "Medição Norte Shopping - Novembro/2024" {
		t.Errorf("Subject = %q", s.Subject)
	}
	if s.EditMode {
		t.Error("EditMode = true after plain load")
	}
}

func TestLoadFailureClearsPane(t *testing.T) {
	client := &fakeBrowser{content: "<html>old</html>"}
	r, center := newTestReconciler(client)
	r.Load(context.Background(), sampleFile)

	client.contentErr = errors.New("gone")
	if err := r.Load(context.Background(), sampleFile); err == nil {
		t.Fatal("Load() error = nil, want error")
	}

	s := r.State()
	if s.Current != nil || s.Content != "" || s.Subject != "" {
		t.Errorf("pane not cleared: %+v", s)
	}
	notices := center.Drain()
	if len(notices) == 0 || notices[len(notices)-1].Level != notify.LevelError {
		t.Errorf("notices = %+v, want error notice", notices)
	}
}

func TestEnterEditModeFetchesTextsFirst(t *testing.T) {
	client := &fakeBrowser{
		content: "<html>ok</html>",
		texts: &backend.EditableTexts{
			Subject:  "Assunto customizado",
			Greeting: "Prezados,",
		},
	}
	r, _ := newTestReconciler(client)
	r.Load(context.Background(), sampleFile)

	if err := r.EnterEditMode(context.Background()); err != nil {
		t.Fatalf("EnterEditMode() error = %v", err)
	}
	s := r.State()
	if !s.EditMode {
		t.Error("EditMode = false")
	}
	if s.Texts.Greeting != "Prezados," {
		t.Errorf("Texts = %+v", s.Texts)
	}
	if s.Subject != "Assunto customizado" {
		t.Errorf("Subject = %q, want the artifact's own subject", s.Subject)
	}
}

func TestEnterEditModeFailureStaysOut(t *testing.T) {
	client := &fakeBrowser{content: "<html>ok</html>", textsErr: errors.New("boom")}
	r, _ := newTestReconciler(client)
	r.Load(context.Background(), sampleFile)

	if err := r.EnterEditMode(context.Background()); err == nil {
		t.Fatal("EnterEditMode() error = nil, want error")
	}
	if r.State().EditMode {
		t.Error("EditMode = true after failed text fetch")
	}
}

func TestEnterEditModeWithoutLoad(t *testing.T) {
	r, _ := newTestReconciler(&fakeBrowser{})
	if err := r.EnterEditMode(context.Background()); err == nil {
		t.Error("EnterEditMode() error = nil with no preview loaded")
	}
}

func TestSaveEditsSuccessReloads(t *testing.T) {
	client := &fakeBrowser{
		content:    "<html>v1</html>",
		texts:      &backend.EditableTexts{},
		updateResp: &backend.UpdateTextsResponse{Success: true, Changes: []string{"greeting"}},
	}
	r, center := newTestReconciler(client)
	r.Load(context.Background(), sampleFile)
	r.EnterEditMode(context.Background())

	client.content = "<html>v2</html>"
	greeting := "Olá,"
	err := r.SaveEdits(context.Background(), backend.UpdateTextsRequest{Greeting: &greeting})
	if err != nil {
		t.Fatalf("SaveEdits() error = %v", err)
	}

	s := r.State()
	if s.Content != "<html>v2</html>" {
		t.Errorf("Content = %q, want reloaded artifact", s.Content)
	}
	if s.EditMode {
		t.Error("EditMode = true after successful save")
	}
	if client.updateReq.Greeting == nil || *client.updateReq.Greeting != "Olá," {
		t.Errorf("updateReq = %+v", client.updateReq)
	}
	if client.updateReq.Subject != nil {
		t.Error("unchanged field sent in update request")
	}

	notices := center.Drain()
	last := notices[len(notices)-1]
	if last.Level != notify.LevelSuccess {
		t.Errorf("last notice = %+v, want success", last)
	}
}

func TestSaveEditsFailureStaysInEditMode(t *testing.T) {
	client := &fakeBrowser{
		content:   "<html>v1</html>",
		texts:     &backend.EditableTexts{},
		updateErr: errors.New("disk full"),
	}
	r, _ := newTestReconciler(client)
	r.Load(context.Background(), sampleFile)
	r.EnterEditMode(context.Background())

	greeting := "Olá,"
	if err := r.SaveEdits(context.Background(), backend.UpdateTextsRequest{Greeting: &greeting}); err == nil {
		t.Fatal("SaveEdits() error = nil, want error")
	}
	if !r.State().EditMode {
		t.Error("EditMode = false after failed save, edits would be lost")
	}
}

func TestSendBlankSubjectBlocked(t *testing.T) {
	client := &fakeBrowser{content: "<html>ok</html>"}
	r, center := newTestReconciler(client)
	r.Load(context.Background(), sampleFile)
	r.SetSubject("   ")

	if err := r.Send(context.Background(), nil); err == nil {
		t.Fatal("Send() error = nil for blank subject")
	}
	if client.sendCalls != 0 {
		t.Error("backend called despite blank subject")
	}
	notices := center.Drain()
	if notices[len(notices)-1].Level != notify.LevelWarning {
		t.Errorf("notices = %+v, want warning", notices)
	}
}

func TestSendConfirmationDeclined(t *testing.T) {
	client := &fakeBrowser{content: "<html>ok</html>"}
	r, _ := newTestReconciler(client)
	r.Load(context.Background(), sampleFile)

	var summary string
	err := r.Send(context.Background(), func(s string) bool {
		summary = s
		return false
	})
	if err != nil {
		t.Fatalf("Send() error = %v, declined confirm is not an error", err)
	}
	if client.sendCalls != 0 {
		t.Error("backend called despite declined confirmation")
	}
	if !strings.Contains(summary, "Norte Shopping") || !strings.Contains(summary, "2024-11") {
		t.Errorf("summary = %q, want unit and month", summary)
	}
}

func TestSendSuccess(t *testing.T) {
	client := &fakeBrowser{
		content: "<html>ok</html>",
		sendResp: &backend.SendPreviewResponse{
			Success:      true,
			EmailsSentTo: []string{"gestor@exemplo.com"},
		},
	}
	r, center := newTestReconciler(client)
	r.Load(context.Background(), sampleFile)

	if err := r.Send(context.Background(), func(string) bool { return true }); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if client.sendReq.MandatoryCc != "compliance@atlas.local" {
		t.Errorf("MandatoryCc = %q", client.sendReq.MandatoryCc)
	}
	if client.sendReq.EmailSubject != "Medição Norte Shopping - Novembro/2024" {
		t.Errorf("EmailSubject = %q", client.sendReq.EmailSubject)
	}
	notices := center.Drain()
	if notices[len(notices)-1].Level != notify.LevelSuccess {
		t.Errorf("notices = %+v, want success", notices)
	}
}

func TestSendNoRecipientsWarns(t *testing.T) {
	client := &fakeBrowser{
		content:  "<html>ok</html>",
		sendResp: &backend.SendPreviewResponse{Success: true},
	}
	r, center := newTestReconciler(client)
	r.Load(context.Background(), sampleFile)

	if err := r.Send(context.Background(), nil); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	notices := center.Drain()
	last := notices[len(notices)-1]
	if last.Level != notify.LevelWarning {
		t.Errorf("notice = %+v, want warning for zero recipients", last)
	}
	if !strings.Contains(last.Message, "não foi efetivamente enviado") {
		t.Errorf("message = %q", last.Message)
	}
}

func TestSendBackendFailure(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeBrowser
	}{
		{"transport error", &fakeBrowser{content: "x", sendErr: errors.New("timeout")}},
		{"rejected with message", &fakeBrowser{content: "x",
			sendResp: &backend.SendPreviewResponse{Success: false, Error: "SMTP indisponível"}}},
		{"rejected without message", &fakeBrowser{content: "x",
			sendResp: &backend.SendPreviewResponse{Success: false}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, center := newTestReconciler(tt.client)
			r.Load(context.Background(), sampleFile)
			if err := r.Send(context.Background(), nil); err == nil {
				t.Fatal("Send() error = nil, want error")
			}
			notices := center.Drain()
			if notices[len(notices)-1].Level != notify.LevelError {
				t.Errorf("notices = %+v, want error", notices)
			}
		})
	}
}
