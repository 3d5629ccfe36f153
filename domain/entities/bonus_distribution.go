package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// RankBonusBreakdown is one rank cohort's share of a bonus pool
type RankBonusBreakdown struct {
	Rank             RankName         `json:"rank"`
	MemberCount      int              `json:"member_count"`
	DistributionRate decimal.Decimal  `json:"distribution_rate"`
	BonusRate        *decimal.Decimal `json:"bonus_rate,omitempty"`
	RankBonus        decimal.Decimal  `json:"rank_bonus"`
	PerUserBonus     decimal.Decimal  `json:"per_user_bonus"`
}

// BonusDistribution is the audit record of one pool split
type BonusDistribution struct {
	ID               int64                `db:"id"`
	PoolAmount       decimal.Decimal      `db:"pool_amount"`
	TotalDistributed decimal.Decimal      `db:"total_distributed"`
	Breakdown        []RankBonusBreakdown `db:"breakdown"`
	CreatedAt        time.Time            `db:"created_at"`
}
