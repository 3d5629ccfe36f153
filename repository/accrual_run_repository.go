package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shogun/database"
	"shogun/domain/entities"

	"github.com/jackc/pgx/v5"
)

// AccrualRunRepository implements the AccrualRunRepository interface
type AccrualRunRepository struct {
	q Queryable
}

// NewAccrualRunRepository creates a new accrual run repository
func NewAccrualRunRepository(db *database.DB) *AccrualRunRepository {
	return &AccrualRunRepository{q: db.Pool}
}

func newAccrualRunRepository(q Queryable) *AccrualRunRepository {
	return &AccrualRunRepository{q: q}
}

// runDate normalizes a date to UTC midnight of its calendar day
func runDate(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
}

func scanAccrualRun(row pgx.Row) (*entities.AccrualRun, error) {
	var run entities.AccrualRun
	var summaryJSON []byte

	err := row.Scan(
		&run.ID,
		&run.RunDate,
		&run.PositionsProcessed,
		&run.TotalAccrued,
		&summaryJSON,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(summaryJSON) > 0 {
		if err := json.Unmarshal(summaryJSON, &run.ExecutionSummary); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution summary: %w", err)
		}
	}
	return &run, nil
}

// TryCreate claims a run date; false means a run already exists for it
func (r *AccrualRunRepository) TryCreate(ctx context.Context, run *entities.AccrualRun) (bool, error) {
	run.RunDate = runDate(run.RunDate)

	query := `
		INSERT INTO accrual_runs (run_date, positions_processed, total_accrued)
		VALUES ($1, $2, $3)
		ON CONFLICT (run_date) DO NOTHING
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		run.RunDate,
		run.PositionsProcessed,
		run.TotalAccrued,
	).Scan(&run.ID, &run.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create accrual run for date %s: %w",
			run.RunDate.Format("2006-01-02"), err)
	}
	return true, nil
}

// Complete records the totals and summary of a claimed run
func (r *AccrualRunRepository) Complete(ctx context.Context, run *entities.AccrualRun) error {
	summaryJSON, err := json.Marshal(run.ExecutionSummary)
	if err != nil {
		return fmt.Errorf("failed to marshal execution summary: %w", err)
	}

	tag, err := r.q.Exec(ctx, `
		UPDATE accrual_runs
		SET positions_processed = $1, total_accrued = $2, execution_summary = $3
		WHERE id = $4
	`, run.PositionsProcessed, run.TotalAccrued, summaryJSON, run.ID)
	if err != nil {
		return fmt.Errorf("failed to complete accrual run %d: %w", run.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("accrual run %d not found", run.ID)
	}
	return nil
}

// GetByDate returns the run for a calendar date
func (r *AccrualRunRepository) GetByDate(ctx context.Context, date time.Time) (*entities.AccrualRun, error) {
	date = runDate(date)

	query := `
		SELECT id, run_date, positions_processed, total_accrued, execution_summary, created_at
		FROM accrual_runs
		WHERE run_date = $1
	`

	run, err := scanAccrualRun(r.q.QueryRow(ctx, query, date))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get accrual run for date %s: %w", date.Format("2006-01-02"), err)
	}
	return run, nil
}

// GetLatest returns the most recent accrual run
func (r *AccrualRunRepository) GetLatest(ctx context.Context) (*entities.AccrualRun, error) {
	query := `
		SELECT id, run_date, positions_processed, total_accrued, execution_summary, created_at
		FROM accrual_runs
		ORDER BY run_date DESC
		LIMIT 1
	`

	run, err := scanAccrualRun(r.q.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest accrual run: %w", err)
	}
	return run, nil
}
