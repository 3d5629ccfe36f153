package httpapi

import (
	"time"

	"shogun/domain/entities"

	"github.com/shopspring/decimal"
)

type userResponse struct {
	ID           int64           `json:"id"`
	LoginID      string          `json:"login_id"`
	Name         string          `json:"name"`
	ReferrerID   *int64          `json:"referrer_id,omitempty"`
	WalletType   string          `json:"wallet_type"`
	Rank         *string         `json:"rank"`
	BonusBalance decimal.Decimal `json:"bonus_balance"`
	CreatedAt    time.Time       `json:"created_at"`
}

func newUserResponse(u *entities.User) userResponse {
	resp := userResponse{
		ID:           u.ID,
		LoginID:      u.LoginID,
		Name:         u.Name,
		ReferrerID:   u.ReferrerID,
		WalletType:   string(u.WalletType),
		BonusBalance: u.BonusBalance,
		CreatedAt:    u.CreatedAt,
	}
	if u.Rank != nil {
		rank := u.Rank.String()
		resp.Rank = &rank
	}
	return resp
}

type templateResponse struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	DailyRate decimal.Decimal `json:"daily_rate"`
	IsSpecial bool            `json:"is_special"`
}

func newTemplateResponses(templates []*entities.AssetTemplate) []templateResponse {
	out := make([]templateResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, templateResponse{
			ID:        t.ID,
			Name:      t.Name,
			Price:     t.Price,
			DailyRate: t.DailyRate,
			IsSpecial: t.IsSpecial,
		})
	}
	return out
}

type positionResponse struct {
	ID               int64           `json:"id"`
	UserID           int64           `json:"user_id"`
	TemplateID       int64           `json:"template_id"`
	Price            decimal.Decimal `json:"price"`
	DailyRate        decimal.Decimal `json:"daily_rate"`
	PurchasedAt      time.Time       `json:"purchased_at"`
	OperationStartAt time.Time       `json:"operation_start_at"`
	Accrued          decimal.Decimal `json:"accrued"`
	LifetimeAccrued  decimal.Decimal `json:"lifetime_accrued"`
	Cap              decimal.Decimal `json:"cap"`
}

func newPositionResponse(p *entities.Position) positionResponse {
	return positionResponse{
		ID:               p.ID,
		UserID:           p.UserID,
		TemplateID:       p.TemplateID,
		Price:            p.Price,
		DailyRate:        p.DailyRate,
		PurchasedAt:      p.PurchasedAt,
		OperationStartAt: p.OperationStartAt,
		Accrued:          p.Accrued,
		LifetimeAccrued:  p.LifetimeAccrued,
		Cap:              p.Cap,
	}
}

type claimResponse struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	ClaimType   string          `json:"claim_type"`
	Gross       decimal.Decimal `json:"gross"`
	Fee         decimal.Decimal `json:"fee"`
	Net         decimal.Decimal `json:"net"`
	Note        *string         `json:"note,omitempty"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
}

func newClaimResponse(c *entities.Claim) claimResponse {
	return claimResponse{
		ID:          c.ID,
		UserID:      c.UserID,
		ClaimType:   string(c.ClaimType),
		Gross:       c.Gross,
		Fee:         c.Fee,
		Net:         c.Net,
		Note:        c.Note,
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt,
		ProcessedAt: c.ProcessedAt,
	}
}

type distributionResponse struct {
	ID               int64                         `json:"id"`
	PoolAmount       decimal.Decimal               `json:"pool_amount"`
	TotalDistributed decimal.Decimal               `json:"total_distributed"`
	Breakdown        []entities.RankBonusBreakdown `json:"breakdown"`
	CreatedAt        time.Time                     `json:"created_at"`
}

func newDistributionResponse(d *entities.BonusDistribution) distributionResponse {
	return distributionResponse{
		ID:               d.ID,
		PoolAmount:       d.PoolAmount,
		TotalDistributed: d.TotalDistributed,
		Breakdown:        d.Breakdown,
		CreatedAt:        d.CreatedAt,
	}
}

type accrualRunResponse struct {
	ID                 int64                  `json:"id"`
	RunDate            string                 `json:"run_date"`
	PositionsProcessed int                    `json:"positions_processed"`
	TotalAccrued       decimal.Decimal        `json:"total_accrued"`
	ExecutionSummary   map[string]interface{} `json:"execution_summary,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
}

func newAccrualRunResponse(r *entities.AccrualRun) accrualRunResponse {
	return accrualRunResponse{
		ID:                 r.ID,
		RunDate:            r.RunDate.Format("2006-01-02"),
		PositionsProcessed: r.PositionsProcessed,
		TotalAccrued:       r.TotalAccrued,
		ExecutionSummary:   r.ExecutionSummary,
		CreatedAt:          r.CreatedAt,
	}
}
