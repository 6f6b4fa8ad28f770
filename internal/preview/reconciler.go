// Package preview manages the generated-report pane: browsing artifacts,
// loading their HTML, editing the text blocks and dispatching the final
// email.
package preview

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/atlasinovacoes/portalperf/internal/backend"
	"github.com/atlasinovacoes/portalperf/internal/notify"
	"github.com/atlasinovacoes/portalperf/internal/settings"
)

// Browser is the slice of the backend client the pane needs.
type Browser interface {
	ListPreviewFiles(ctx context.Context, region, month string) ([]backend.HTMLFileInfo, error)
	PreviewContent(ctx context.Context, filename string) (string, error)
	EditableTexts(ctx context.Context, filename string) (*backend.EditableTexts, error)
	UpdateTexts(ctx context.Context, filename string, req *backend.UpdateTextsRequest) (*backend.UpdateTextsResponse, error)
	SendPreview(ctx context.Context, filename string, req *backend.SendPreviewRequest) (*backend.SendPreviewResponse, error)
	PreviewRegions(ctx context.Context) ([]backend.RegionCount, error)
	PreviewMonths(ctx context.Context) ([]string, error)
	GetPreviewStats(ctx context.Context) (*backend.PreviewStats, error)
}

// SettingsSource supplies the operator's sender preferences.
type SettingsSource interface {
	EmailSettings() settings.EmailSettings
}

// ConfirmFunc asks the operator to approve a send. The summary names the
// subject, unit and month about to go out.
type ConfirmFunc func(summary string) bool

// State is a consistent copy of the pane.
type State struct {
	Current  *backend.HTMLFileInfo `json:"current,omitempty"`
	Content  string                `json:"content,omitempty"`
	EditMode bool                  `json:"edit_mode"`
	Texts    backend.EditableTexts `json:"texts"`
	Subject  string                `json:"subject"`
}

// Reconciler keeps the pane state in step with the backend's artifacts.
type Reconciler struct {
	client   Browser
	settings SettingsSource
	notifier *notify.Center
	logger   *slog.Logger

	mu       sync.Mutex
	current  *backend.HTMLFileInfo
	content  string
	editMode bool
	texts    backend.EditableTexts
	subject  string
}

func NewReconciler(client Browser, src SettingsSource, notifier *notify.Center, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		client:   client,
		settings: src,
		notifier: notifier,
		logger:   logger.With("component", "preview"),
	}
}

// State returns a copy of the pane state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := State{
		Content:  r.content,
		EditMode: r.editMode,
		Texts:    r.texts,
		Subject:  r.subject,
	}
	if r.current != nil {
		cur := *r.current
		s.Current = &cur
	}
	return s
}

// ListFiles lists the artifacts matching the filters. A backend failure
// is reported and comes back as an empty list: the pane shows "nothing
// generated yet" rather than an error wall.
func (r *Reconciler) ListFiles(ctx context.Context, region, month string) []backend.HTMLFileInfo {
	files, err := r.client.ListPreviewFiles(ctx, region, month)
	if err != nil {
		r.logger.Warn("failed to list preview files", "error", err)
		return nil
	}
	return files
}

// RegionCounts returns per-region artifact counts, empty on failure.
func (r *Reconciler) RegionCounts(ctx context.Context) []backend.RegionCount {
	counts, err := r.client.PreviewRegions(ctx)
	if err != nil {
		r.logger.Warn("failed to load region counts", "error", err)
		return nil
	}
	return counts
}

// Months returns the months that have artifacts, empty on failure.
func (r *Reconciler) Months(ctx context.Context) []string {
	months, err := r.client.PreviewMonths(ctx)
	if err != nil {
		r.logger.Warn("failed to load preview months", "error", err)
		return nil
	}
	return months
}

// Stats summarizes the artifact directory.
func (r *Reconciler) Stats(ctx context.Context) (*backend.PreviewStats, error) {
	return r.client.GetPreviewStats(ctx)
}

// Load makes one artifact the current pane content. On failure the pane
// is cleared so a stale report is never shown under the wrong name.
func (r *Reconciler) Load(ctx context.Context, file backend.HTMLFileInfo) error {
	content, err := r.client.PreviewContent(ctx, file.Filename)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.current = nil
		r.content = ""
		r.editMode = false
		r.texts = backend.EditableTexts{}
		r.subject = ""
		r.notifier.Error(fmt.Sprintf("Não foi possível carregar %s", file.Filename))
		return fmt.Errorf("load preview %s: %w", file.Filename, err)
	}

	r.current = &file
	r.content = content
	r.editMode = false
	r.texts = backend.EditableTexts{}
	r.subject = DefaultSubject(file.UnitName, file.Month)
	return nil
}

// EnterEditMode fetches the artifact's current texts and switches the
// pane to editing. Edit mode is only entered once the texts are in hand.
func (r *Reconciler) EnterEditMode(ctx context.Context) error {
	r.mu.Lock()
	cur := r.current
	r.mu.Unlock()
	if cur == nil {
		return fmt.Errorf("no preview loaded")
	}

	texts, err := r.client.EditableTexts(ctx, cur.Filename)
	if err != nil {
		r.notifier.Error("Não foi possível carregar os textos para edição")
		return fmt.Errorf("load editable texts: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = *texts
	if texts.Subject != "" {
		r.subject = texts.Subject
	}
	r.editMode = true
	return nil
}

// ExitEditMode leaves editing without saving.
func (r *Reconciler) ExitEditMode() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.editMode = false
}

// SaveEdits pushes changed fields to the backend. Nil fields are left
// untouched. On success the artifact is reloaded and edit mode ends; on
// failure the pane stays in edit mode so nothing typed is lost.
func (r *Reconciler) SaveEdits(ctx context.Context, changes backend.UpdateTextsRequest) error {
	r.mu.Lock()
	cur := r.current
	editing := r.editMode
	r.mu.Unlock()
	if cur == nil || !editing {
		return fmt.Errorf("not in edit mode")
	}

	resp, err := r.client.UpdateTexts(ctx, cur.Filename, &changes)
	if err != nil {
		r.notifier.Error("Falha ao salvar as alterações")
		return fmt.Errorf("save edits: %w", err)
	}
	if !resp.Success {
		r.notifier.Error("O servidor rejeitou as alterações")
		return fmt.Errorf("save edits rejected")
	}

	if err := r.Load(ctx, *cur); err != nil {
		return err
	}
	r.notifier.Success(fmt.Sprintf("Textos atualizados (%d alteração(ões))", len(resp.Changes)))
	return nil
}

// SetSubject overrides the subject used on send.
func (r *Reconciler) SetSubject(subject string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subject = subject
}

// Send dispatches the current artifact by email. The subject must be
// non-blank, and confirm approves the send before any request goes out.
func (r *Reconciler) Send(ctx context.Context, confirm ConfirmFunc) error {
	r.mu.Lock()
	cur := r.current
	subject := strings.TrimSpace(r.subject)
	r.mu.Unlock()

	if cur == nil {
		return fmt.Errorf("no preview loaded")
	}
	if subject == "" {
		r.notifier.Warning("Informe o assunto do e-mail antes de enviar")
		return fmt.Errorf("empty subject")
	}

	summary := fmt.Sprintf("Enviar \"%s\" (%s, %s)?", subject, cur.UnitName, cur.Month)
	if confirm != nil && !confirm(summary) {
		return nil
	}

	es := r.settings.EmailSettings()
	req := &backend.SendPreviewRequest{
		EmailSubject: subject,
		CcEmails:     es.CcList(),
		MandatoryCc:  es.MandatoryCc,
		SenderEmail:  es.SenderEmail,
		SenderName:   es.SenderName,
	}

	resp, err := r.client.SendPreview(ctx, cur.Filename, req)
	if err != nil {
		r.notifier.Error(fmt.Sprintf("Falha no envio: %v", err))
		return fmt.Errorf("send preview: %w", err)
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "Erro desconhecido no envio"
		}
		r.notifier.Error(fmt.Sprintf("Falha no envio: %s", msg))
		return fmt.Errorf("send preview failed: %s", msg)
	}

	if len(resp.EmailsSentTo) == 0 {
		// Backend accepted the request but found nobody to deliver to.
		r.notifier.Warning("Nenhum destinatário encontrado: o e-mail não foi efetivamente enviado")
		return nil
	}

	r.notifier.Success(fmt.Sprintf("E-mail enviado para %s", strings.Join(resp.EmailsSentTo, ", ")))
	return nil
}
