// Package backend is the HTTP client for the billing backend: report
// generation, preview artifacts, uploads, send history and scoped
// configuration all live behind its API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

// ErrUnauthorized is returned when the backend rejects the bearer token.
var ErrUnauthorized = errors.New("backend rejected credentials")

// TokenSource supplies the current bearer token. An empty string means
// no credential is available and the request goes out unauthenticated.
type TokenSource interface {
	Token() string
}

// Client is a billing backend API client.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client

	// onUnauthorized runs whenever the backend answers 401, before the
	// error is returned to the caller.
	onUnauthorized func()
}

// NewClient creates a new backend API client.
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// OnUnauthorized registers a callback invoked on every 401 response.
func (c *Client) OnUnauthorized(fn func()) {
	c.onUnauthorized = fn
}

// request performs an HTTP request to the backend API.
func (c *Client) request(ctx context.Context, method, path string, body any, result any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result any) error {
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return ErrUnauthorized
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Message() == "" {
			return fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("API error: %s", errResp.Message())
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

// Login exchanges operator credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var resp LoginResponse
	req := LoginRequest{Username: username, Password: password}
	if err := c.request(ctx, http.MethodPost, "/api/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AuthStatus checks whether the current token is still accepted.
func (c *Client) AuthStatus(ctx context.Context) (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.request(ctx, http.MethodGet, "/api/auth/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout invalidates the token on the backend.
func (c *Client) Logout(ctx context.Context) error {
	return c.request(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// Execute generates one unit's report for a reference month, optionally
// dispatching it by email.
func (c *Client) Execute(ctx context.Context, req *ExecuteRequest) (*ExecuteResponse, error) {
	var resp ExecuteResponse
	if err := c.request(ctx, http.MethodPost, "/api/process/execute", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListPreviewFiles lists the generated report artifacts, optionally
// filtered by region and month.
func (c *Client) ListPreviewFiles(ctx context.Context, region, month string) ([]HTMLFileInfo, error) {
	path := "/preview/files"
	params := url.Values{}
	if region != "" {
		params.Set("region", region)
	}
	if month != "" {
		params.Set("month", month)
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp []HTMLFileInfo
	if err := c.request(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// PreviewContent fetches the raw HTML of one artifact.
func (c *Client) PreviewContent(ctx context.Context, filename string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/preview/files/"+url.PathEscape(filename), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized()
		}
		return "", ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(data), nil
}

// EditableTexts fetches the editable text blocks of one artifact.
func (c *Client) EditableTexts(ctx context.Context, filename string) (*EditableTexts, error) {
	var resp EditableTexts
	path := "/preview/files/" + url.PathEscape(filename) + "/texts"
	if err := c.request(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateTexts rewrites the provided text blocks inside the artifact.
func (c *Client) UpdateTexts(ctx context.Context, filename string, req *UpdateTextsRequest) (*UpdateTextsResponse, error) {
	var resp UpdateTextsResponse
	path := "/preview/files/" + url.PathEscape(filename) + "/texts"
	if err := c.request(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SendPreview emails one artifact as-is.
func (c *Client) SendPreview(ctx context.Context, filename string, req *SendPreviewRequest) (*SendPreviewResponse, error) {
	var resp SendPreviewResponse
	path := "/preview/files/" + url.PathEscape(filename) + "/send"
	if err := c.request(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PreviewRegions returns per-region artifact counts.
func (c *Client) PreviewRegions(ctx context.Context) ([]RegionCount, error) {
	var resp []RegionCount
	if err := c.request(ctx, http.MethodGet, "/preview/regions", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// PreviewMonths returns the months that have generated artifacts.
func (c *Client) PreviewMonths(ctx context.Context) ([]string, error) {
	var resp []string
	if err := c.request(ctx, http.MethodGet, "/preview/months", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// GetPreviewStats summarizes the artifact output directory.
func (c *Client) GetPreviewStats(ctx context.Context) (*PreviewStats, error) {
	var resp PreviewStats
	if err := c.request(ctx, http.MethodGet, "/preview/stats", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListJobs lists spreadsheet processing jobs.
func (c *Client) ListJobs(ctx context.Context, limit, offset int) (*JobListResponse, error) {
	path := "/api/jobs"
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}
	if offset > 0 {
		params.Set("offset", fmt.Sprintf("%d", offset))
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp JobListResponse
	if err := c.request(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetJob fetches one job by ID.
func (c *Client) GetJob(ctx context.Context, id string) (*Job, error) {
	var resp Job
	if err := c.request(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadFile is one spreadsheet submitted to the backend.
type UploadFile struct {
	Name   string
	Region string
	Data   io.Reader
}

// Upload submits a single spreadsheet for processing.
func (c *Client) Upload(ctx context.Context, file UploadFile) (*Job, error) {
	var resp Job
	if err := c.uploadMultipart(ctx, "/api/upload/", []UploadFile{file}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadBatch submits several spreadsheets in one request. Each file
// carries its own region assignment.
func (c *Client) UploadBatch(ctx context.Context, files []UploadFile) ([]Job, error) {
	var resp struct {
		Jobs []Job `json:"jobs"`
	}
	if err := c.uploadMultipart(ctx, "/api/upload/batch", files, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

func (c *Client) uploadMultipart(ctx context.Context, path string, files []UploadFile, result any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.Name)
		if err != nil {
			return fmt.Errorf("create form file: %w", err)
		}
		if _, err := io.Copy(part, f.Data); err != nil {
			return fmt.Errorf("copy file %s: %w", f.Name, err)
		}
		if err := mw.WriteField("regions", f.Region); err != nil {
			return fmt.Errorf("write region field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	return c.do(req, result)
}

// UploadRegions lists the regions the backend accepts for uploads.
func (c *Client) UploadRegions(ctx context.Context) (*UploadRegionsResponse, error) {
	var resp UploadRegionsResponse
	if err := c.request(ctx, http.MethodGet, "/api/upload/regions", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListLogs queries the send history. The query string carries only the
// filters that are set.
func (c *Client) ListLogs(ctx context.Context, query url.Values) (*EmailLogList, error) {
	path := "/api/logs/"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var resp EmailLogList
	if err := c.request(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetLogStats aggregates the send history.
func (c *Client) GetLogStats(ctx context.Context) (*LogStats, error) {
	var resp LogStats
	if err := c.request(ctx, http.MethodGet, "/api/logs/stats", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteLog removes one history record.
func (c *Client) DeleteLog(ctx context.Context, id int64) error {
	return c.request(ctx, http.MethodDelete, fmt.Sprintf("/api/logs/%d", id), nil, nil)
}

// CleanupLogs removes history records older than the given number of days
// and returns how many were deleted.
func (c *Client) CleanupLogs(ctx context.Context, days int) (int, error) {
	var resp struct {
		Deleted int `json:"deleted"`
	}
	path := fmt.Sprintf("/api/logs/cleanup?days=%d", days)
	if err := c.request(ctx, http.MethodDelete, path, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Deleted, nil
}

// GlobalConfig fetches the global scope configuration.
func (c *Client) GlobalConfig(ctx context.Context) (*ScopeConfigResponse, error) {
	var resp ScopeConfigResponse
	if err := c.request(ctx, http.MethodGet, "/api/config/defaults", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetGlobalConfig replaces the global scope configuration.
func (c *Client) SetGlobalConfig(ctx context.Context, cfg *ScopeConfigResponse) error {
	return c.request(ctx, http.MethodPut, "/api/config/defaults", cfg, nil)
}

// RegionConfig fetches one region's override level.
func (c *Client) RegionConfig(ctx context.Context, code string) (*ScopeConfigResponse, error) {
	var resp ScopeConfigResponse
	if err := c.request(ctx, http.MethodGet, "/api/config/regions/"+url.PathEscape(code), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetRegionConfig replaces one region's override level.
func (c *Client) SetRegionConfig(ctx context.Context, code string, cfg *ScopeConfigResponse) error {
	return c.request(ctx, http.MethodPut, "/api/config/regions/"+url.PathEscape(code), cfg, nil)
}

// ResetRegionConfig removes one region's override level, restoring
// inheritance from the global scope.
func (c *Client) ResetRegionConfig(ctx context.Context, code string) error {
	return c.request(ctx, http.MethodDelete, "/api/config/regions/"+url.PathEscape(code), nil, nil)
}

// UnitConfig fetches one unit's override level.
func (c *Client) UnitConfig(ctx context.Context, unitName string) (*ScopeConfigResponse, error) {
	var resp ScopeConfigResponse
	if err := c.request(ctx, http.MethodGet, "/api/config/units/"+url.PathEscape(unitName), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetUnitConfig replaces one unit's override level.
func (c *Client) SetUnitConfig(ctx context.Context, unitName string, cfg *ScopeConfigResponse) error {
	return c.request(ctx, http.MethodPut, "/api/config/units/"+url.PathEscape(unitName), cfg, nil)
}

// ResetUnitConfig removes one unit's override level.
func (c *Client) ResetUnitConfig(ctx context.Context, unitName string) error {
	return c.request(ctx, http.MethodDelete, "/api/config/units/"+url.PathEscape(unitName), nil, nil)
}

// ListSchedules lists the recurring execution definitions.
func (c *Client) ListSchedules(ctx context.Context) (*ScheduleList, error) {
	var resp ScheduleList
	if err := c.request(ctx, http.MethodGet, "/api/schedules/", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateSchedule registers a recurring execution.
func (c *Client) CreateSchedule(ctx context.Context, s *Schedule) (*Schedule, error) {
	var resp Schedule
	if err := c.request(ctx, http.MethodPost, "/api/schedules/", s, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateSchedule modifies a recurring execution.
func (c *Client) UpdateSchedule(ctx context.Context, id string, s *Schedule) (*Schedule, error) {
	var resp Schedule
	if err := c.request(ctx, http.MethodPut, "/api/schedules/"+url.PathEscape(id), s, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteSchedule removes a recurring execution.
func (c *Client) DeleteSchedule(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodDelete, "/api/schedules/"+url.PathEscape(id), nil, nil)
}

// PauseSchedule suspends a recurring execution without deleting it.
func (c *Client) PauseSchedule(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodPost, "/api/schedules/"+url.PathEscape(id)+"/pause", nil, nil)
}

// ResumeSchedule reactivates a paused recurring execution.
func (c *Client) ResumeSchedule(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodPost, "/api/schedules/"+url.PathEscape(id)+"/resume", nil, nil)
}

// ListReportTemplates lists the report templates registered on the backend.
func (c *Client) ListReportTemplates(ctx context.Context) (*TemplateList, error) {
	var resp TemplateList
	if err := c.request(ctx, http.MethodGet, "/api/templates/", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ActivateReportTemplate makes one template the active default.
func (c *Client) ActivateReportTemplate(ctx context.Context, id string) error {
	return c.request(ctx, http.MethodPost, "/api/templates/"+url.PathEscape(id)+"/activate", nil, nil)
}

// AvailableColumns lists the column identifiers reports can show.
func (c *Client) AvailableColumns(ctx context.Context) ([]string, error) {
	var resp struct {
		Columns []string `json:"columns"`
	}
	if err := c.request(ctx, http.MethodGet, "/api/config/columns/available", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Columns, nil
}
