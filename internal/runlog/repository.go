package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Run is one completed execution with its per-unit outcomes.
type Run struct {
	ID           string     `json:"id"`
	Mode         string     `json:"mode"`
	MonthRef     string     `json:"month_ref"`
	UnitCount    int        `json:"unit_count"`
	SuccessCount int        `json:"success_count"`
	ErrorCount   int        `json:"error_count"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   time.Time  `json:"finished_at"`
	Units        []RunUnit  `json:"units,omitempty"`
}

// RunUnit is one unit's outcome inside a run, in execution order.
type RunUnit struct {
	UnitID     string `json:"unit_id"`
	UnitName   string `json:"unit_name"`
	Region     string `json:"region"`
	Status     string `json:"status"`
	RowsCount  int    `json:"rows_count"`
	Recipients string `json:"recipients,omitempty"`
	Artifact   string `json:"artifact,omitempty"`
	Error      string `json:"error,omitempty"`
	Position   int    `json:"position"`
}

// Filter narrows List results. Zero values are ignored.
type Filter struct {
	Mode     string
	MonthRef string
	Region   string
	Limit    int
	Offset   int
}

// Repository persists runs in the local history database.
type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Insert stores one completed run with all its unit outcomes.
func (r *Repository) Insert(ctx context.Context, run *Run) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, mode, month_ref, unit_count, success_count, error_count, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Mode, run.MonthRef, run.UnitCount,
		run.SuccessCount, run.ErrorCount, run.StartedAt, run.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, u := range run.Units {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_units (run_id, unit_id, unit_name, region, status, rows_count, recipients, artifact, error, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, u.UnitID, u.UnitName, u.Region, u.Status,
			u.RowsCount, u.Recipients, u.Artifact, u.Error, u.Position)
		if err != nil {
			return fmt.Errorf("insert run unit: %w", err)
		}
	}

	return tx.Commit()
}

// List returns runs newest first. Unit outcomes are not loaded; use Get
// for the full record.
func (r *Repository) List(ctx context.Context, f Filter) ([]Run, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if f.Mode != "" {
		where = append(where, "mode = ?")
		args = append(args, f.Mode)
	}
	if f.MonthRef != "" {
		where = append(where, "month_ref = ?")
		args = append(args, f.MonthRef)
	}
	if f.Region != "" {
		where = append(where, "id IN (SELECT run_id FROM run_units WHERE region = ?)")
		args = append(args, f.Region)
	}
	cond := strings.Join(where, " AND ")

	var total int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE "+cond, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count runs: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query := "SELECT id, mode, month_ref, unit_count, success_count, error_count, started_at, finished_at FROM runs WHERE " +
		cond + " ORDER BY started_at DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(&run.ID, &run.Mode, &run.MonthRef, &run.UnitCount,
			&run.SuccessCount, &run.ErrorCount, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, 0, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, total, rows.Err()
}

// Get loads one run with its unit outcomes in execution order.
func (r *Repository) Get(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := r.db.QueryRowContext(ctx, `
		SELECT id, mode, month_ref, unit_count, success_count, error_count, started_at, finished_at
		FROM runs WHERE id = ?`, id).Scan(
		&run.ID, &run.Mode, &run.MonthRef, &run.UnitCount,
		&run.SuccessCount, &run.ErrorCount, &run.StartedAt, &run.FinishedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT unit_id, unit_name, region, status, rows_count, recipients, artifact, error, position
		FROM run_units WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("get run units: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u RunUnit
		if err := rows.Scan(&u.UnitID, &u.UnitName, &u.Region, &u.Status,
			&u.RowsCount, &u.Recipients, &u.Artifact, &u.Error, &u.Position); err != nil {
			return nil, fmt.Errorf("scan run unit: %w", err)
		}
		run.Units = append(run.Units, u)
	}
	return &run, rows.Err()
}

// Stats aggregates the stored history.
type Stats struct {
	TotalRuns    int `json:"total_runs"`
	TotalUnits   int `json:"total_units"`
	TotalSuccess int `json:"total_success"`
	TotalErrors  int `json:"total_errors"`
	Recent7Days  int `json:"recent_7_days"`
}

func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(unit_count), 0),
		       COALESCE(SUM(success_count), 0),
		       COALESCE(SUM(error_count), 0)
		FROM runs`).Scan(&s.TotalRuns, &s.TotalUnits, &s.TotalSuccess, &s.TotalErrors)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM runs WHERE started_at >= ?",
		time.Now().AddDate(0, 0, -7)).Scan(&s.Recent7Days)
	if err != nil {
		return nil, fmt.Errorf("stats recent: %w", err)
	}
	return &s, nil
}

// CountOlderThan reports how many runs DeleteOlderThan would remove.
func (r *Repository) CountOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM runs WHERE finished_at < ?", cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count old runs: %w", err)
	}
	return count, nil
}

// DeleteOlderThan removes runs finished before the cutoff and returns
// how many were deleted. Unit rows go with them via the foreign key.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM runs WHERE finished_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old runs: %w", err)
	}
	return res.RowsAffected()
}
