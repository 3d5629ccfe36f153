package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccrualRun is the per-date watermark of a daily accrual
type AccrualRun struct {
	ID                 int64                  `db:"id"`
	RunDate            time.Time              `db:"run_date"`
	PositionsProcessed int                    `db:"positions_processed"`
	TotalAccrued       decimal.Decimal        `db:"total_accrued"`
	ExecutionSummary   map[string]interface{} `db:"execution_summary"`
	CreatedAt          time.Time              `db:"created_at"`
}

// AccrualResult reports what one accrual invocation did
type AccrualResult struct {
	RunDate          time.Time       `json:"run_date"`
	ProcessedCount   int             `json:"processed_count"`
	TotalAccrued     decimal.Decimal `json:"total_accrued"`
	Skipped          bool            `json:"skipped"`
	SkipReason       string          `json:"skip_reason,omitempty"`
	AlreadyProcessed bool            `json:"already_processed"`
}
