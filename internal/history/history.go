// Package history surfaces the backend's send log with filtering and
// fixed-size pagination.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/atlasinovacoes/portalperf/internal/backend"
)

// PageSize is the fixed number of records per page.
const PageSize = 20

// Filters narrows a history query. Empty fields are omitted from the
// request entirely, never sent as blank parameters.
type Filters struct {
	UnitName string `json:"unit_name,omitempty"`
	Region   string `json:"region,omitempty"`
	MonthRef string `json:"month_ref,omitempty"`
	Status   string `json:"status,omitempty"`
	DryRun   *bool  `json:"dry_run,omitempty"`
	DateFrom string `json:"date_from,omitempty"`
	DateTo   string `json:"date_to,omitempty"`
}

// Values renders the filters plus pagination as a query string. Page is
// zero-based.
func (f Filters) Values(page int) url.Values {
	v := url.Values{}
	if f.UnitName != "" {
		v.Set("unit_name", f.UnitName)
	}
	if f.Region != "" {
		v.Set("region", f.Region)
	}
	if f.MonthRef != "" {
		v.Set("month_ref", f.MonthRef)
	}
	if f.Status != "" {
		v.Set("status", f.Status)
	}
	if f.DryRun != nil {
		v.Set("is_dry_run", strconv.FormatBool(*f.DryRun))
	}
	if f.DateFrom != "" {
		v.Set("date_from", f.DateFrom)
	}
	if f.DateTo != "" {
		v.Set("date_to", f.DateTo)
	}
	if page < 0 {
		page = 0
	}
	v.Set("limit", strconv.Itoa(PageSize))
	v.Set("skip", strconv.Itoa(page*PageSize))
	return v
}

// Page is one page of history records with pagination context.
type Page struct {
	Items      []backend.EmailLog `json:"items"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	TotalPages int                `json:"total_pages"`
}

// Querier is the slice of the backend client the history view uses.
type Querier interface {
	ListLogs(ctx context.Context, query url.Values) (*backend.EmailLogList, error)
	GetLogStats(ctx context.Context) (*backend.LogStats, error)
	DeleteLog(ctx context.Context, id int64) error
	CleanupLogs(ctx context.Context, days int) (int, error)
}

// Service queries the backend's send history.
type Service struct {
	client Querier
	logger *slog.Logger
}

func NewService(client Querier, logger *slog.Logger) *Service {
	return &Service{client: client, logger: logger.With("component", "history")}
}

// List fetches one page of records matching the filters.
func (s *Service) List(ctx context.Context, f Filters, page int) (*Page, error) {
	resp, err := s.client.ListLogs(ctx, f.Values(page))
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	if page < 0 {
		page = 0
	}
	return &Page{
		Items:      resp.Items,
		Total:      resp.Total,
		Page:       page,
		TotalPages: totalPages(resp.Total),
	}, nil
}

// Stats aggregates the full send history.
func (s *Service) Stats(ctx context.Context) (*backend.LogStats, error) {
	stats, err := s.client.GetLogStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("history stats: %w", err)
	}
	return stats, nil
}

// Delete removes one record.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.client.DeleteLog(ctx, id); err != nil {
		return fmt.Errorf("delete history record: %w", err)
	}
	s.logger.Info("history record deleted", "id", id)
	return nil
}

// Cleanup removes records older than the given number of days.
func (s *Service) Cleanup(ctx context.Context, days int) (int, error) {
	if days < 1 {
		return 0, fmt.Errorf("days must be positive")
	}
	deleted, err := s.client.CleanupLogs(ctx, days)
	if err != nil {
		return 0, fmt.Errorf("cleanup history: %w", err)
	}
	s.logger.Info("history cleanup", "days", days, "deleted", deleted)
	return deleted, nil
}

func totalPages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + PageSize - 1) / PageSize
}
