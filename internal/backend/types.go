package backend

import "github.com/atlasinovacoes/portalperf/internal/settings"

// LoginRequest is the credential payload for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token issued by the backend.
type LoginResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// StatusResponse answers GET /api/auth/status.
type StatusResponse struct {
	Authenticated bool `json:"authenticated"`
}

// ExecuteRequest generates (and optionally sends) the report of one unit
// for one reference month.
type ExecuteRequest struct {
	Region      string   `json:"region"`
	Unit        string   `json:"unit"`
	Month       string   `json:"month"`
	DryRun      bool     `json:"dry_run"`
	SendEmail   bool     `json:"send_email"`
	SenderEmail string   `json:"sender_email,omitempty"`
	SenderName  string   `json:"sender_name,omitempty"`
	ReplyTo     string   `json:"reply_to,omitempty"`
	CcEmails    []string `json:"cc_emails,omitempty"`
	MandatoryCc string   `json:"mandatory_cc"`
}

// ExecuteResponse is the per-unit outcome of a process/execute call.
type ExecuteResponse struct {
	Success      bool     `json:"success"`
	Unit         string   `json:"unit"`
	Region       string   `json:"region"`
	Month        string   `json:"month"`
	HTMLPath     string   `json:"html_path,omitempty"`
	PreviewURL   string   `json:"preview_url,omitempty"`
	RowsCount    int      `json:"rows_count"`
	EmailsSentTo []string `json:"emails_sent_to"`
	Error        string   `json:"error,omitempty"`
}

// HTMLFileInfo describes one generated report artifact.
type HTMLFileInfo struct {
	Filename string `json:"filename"`
	UnitName string `json:"unit_name"`
	Month    string `json:"month"`
	Region   string `json:"region"`
	FullPath string `json:"full_path"`
}

// EditableTexts is the subset of an artifact's content exposed for editing.
type EditableTexts struct {
	Subject     string `json:"subject"`
	Greeting    string `json:"greeting"`
	Intro       string `json:"intro"`
	Observation string `json:"observation"`
}

// UpdateTextsRequest carries only the fields being changed.
type UpdateTextsRequest struct {
	Subject     *string `json:"subject,omitempty"`
	Greeting    *string `json:"greeting,omitempty"`
	Intro       *string `json:"intro,omitempty"`
	Observation *string `json:"observation,omitempty"`
}

// UpdateTextsResponse lists which fields the backend changed.
type UpdateTextsResponse struct {
	Success bool     `json:"success"`
	Changes []string `json:"changes"`
}

// SendPreviewRequest sends the artifact's current HTML as an email.
type SendPreviewRequest struct {
	EmailSubject string   `json:"email_subject"`
	Recipients   []string `json:"recipients,omitempty"`
	CcEmails     []string `json:"cc_emails,omitempty"`
	MandatoryCc  string   `json:"mandatory_cc"`
	SenderEmail  string   `json:"sender_email,omitempty"`
	SenderName   string   `json:"sender_name,omitempty"`
}

// SendPreviewResponse is the dispatch outcome. Success with an empty
// EmailsSentTo means no recipient was found in the artifact.
type SendPreviewResponse struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message,omitempty"`
	EmailsSentTo []string `json:"emails_sent_to,omitempty"`
	CcEmails     []string `json:"cc_emails,omitempty"`
	Subject      string   `json:"subject,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// RegionCount is the per-region artifact count from GET /preview/regions.
type RegionCount struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// PreviewStats summarizes the artifact output directory.
type PreviewStats struct {
	TotalFiles    int      `json:"total_files"`
	TotalSize     string   `json:"total_size"`
	Regions       []string `json:"regions"`
	Months        []string `json:"months"`
	LastGenerated string   `json:"last_generated,omitempty"`
	OutputPath    string   `json:"output_path"`
}

// Job is one uploaded spreadsheet's processing record.
type Job struct {
	ID           string      `json:"id"`
	Filename     string      `json:"filename"`
	Status       string      `json:"status"`
	Region       string      `json:"region,omitempty"`
	MonthRef     string      `json:"month_ref,omitempty"`
	CreatedAt    string      `json:"created_at"`
	CompletedAt  string      `json:"completed_at,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
	Summary      *JobSummary `json:"result_summary,omitempty"`
}

// JobSummary is the extraction result of a processed spreadsheet.
type JobSummary struct {
	RowCount            int     `json:"row_count"`
	UnitCount           int     `json:"unit_count"`
	SumValorMensalFinal float64 `json:"sum_valor_mensal_final"`
}

// JobListResponse answers GET /api/jobs.
type JobListResponse struct {
	Jobs  []Job `json:"jobs"`
	Total int   `json:"total"`
}

// UploadRegionsResponse lists the regions valid for spreadsheet uploads.
type UploadRegionsResponse struct {
	Regions     []string          `json:"regions"`
	Description map[string]string `json:"description"`
}

// EmailLog is one dispatch record from the send history.
type EmailLog struct {
	ID            int64   `json:"id"`
	JobID         int64   `json:"job_id,omitempty"`
	UnitName      string  `json:"unit_name"`
	Region        string  `json:"region,omitempty"`
	MonthRef      string  `json:"month_ref"`
	RecipientList string  `json:"recipient_list,omitempty"`
	Subject       string  `json:"subject"`
	Status        string  `json:"status"`
	Provider      string  `json:"provider,omitempty"`
	IsDryRun      bool    `json:"is_dry_run"`
	TotalValue    float64 `json:"total_value,omitempty"`
	RowCount      int     `json:"row_count,omitempty"`
	SentAt        string  `json:"sent_at,omitempty"`
	ErrorMessage  string  `json:"error_message,omitempty"`
}

// EmailLogList answers GET /api/logs/.
type EmailLogList struct {
	Items []EmailLog `json:"items"`
	Total int        `json:"total"`
	Skip  int        `json:"skip"`
	Limit int        `json:"limit"`
}

// LogStats aggregates the send history.
type LogStats struct {
	Total       int `json:"total"`
	Sent        int `json:"sent"`
	Failed      int `json:"failed"`
	DryRuns     int `json:"dry_runs"`
	RealSends   int `json:"real_sends"`
	Recent7Days int `json:"recent_7_days"`
	UniqueUnits int `json:"unique_units"`
}

// Schedule is a recurring execution definition.
type Schedule struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Region        string   `json:"region"`
	Units         []string `json:"units"`
	Frequency     string   `json:"frequency"`
	DayOfMonth    int      `json:"day_of_month,omitempty"`
	DayOfWeek     int      `json:"day_of_week,omitempty"`
	Time          string   `json:"time"`
	AutoSendEmail bool     `json:"auto_send_email"`
	TemplateID    string   `json:"template_id,omitempty"`
	Status        string   `json:"status"`
	LastRun       string   `json:"last_run,omitempty"`
	NextRun       string   `json:"next_run,omitempty"`
	RunCount      int      `json:"run_count"`
}

// ScheduleList answers GET /api/schedules/.
type ScheduleList struct {
	Schedules []Schedule `json:"schedules"`
	Count     int        `json:"count"`
}

// Template is a report template registered on the backend.
type Template struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Filename        string `json:"filename"`
	SubjectTemplate string `json:"subject_template"`
	IsActive        bool   `json:"is_active"`
}

// TemplateList answers GET /api/templates/.
type TemplateList struct {
	Templates []Template `json:"templates"`
	Count     int        `json:"count"`
}

// ScopeConfigResponse wraps a scoped config level as returned by the
// backend config endpoints.
type ScopeConfigResponse = settings.ScopeConfig

// ErrorResponse is the JSON error body of a non-2xx reply.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

// Message returns whichever error field the backend populated.
func (e ErrorResponse) Message() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Detail
}
