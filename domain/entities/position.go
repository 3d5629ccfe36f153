package entities

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeAccrual  = errors.New("accrual delta cannot be negative")
	ErrAccrualOutOfCap  = errors.New("accrued amount outside [0, cap]")
	ErrLifetimeOverflow = errors.New("lifetime accrued exceeds cap")
)

var hundred = decimal.NewFromInt(100)

// yieldPrecision is the number of decimal places a daily yield is rounded to
const yieldPrecision = 8

// PositionPolicy holds the rules applied when a template is bought
type PositionPolicy struct {
	OperationDelayDays int             // days between purchase and first accrual
	CapMultiplier      decimal.Decimal // lifetime cap as a multiple of price
}

// DefaultPositionPolicy returns the 7-day delay / 300% cap policy
func DefaultPositionPolicy() PositionPolicy {
	return PositionPolicy{
		OperationDelayDays: 7,
		CapMultiplier:      decimal.NewFromInt(3),
	}
}

// Position is a user's purchased yield-bearing asset instance
type Position struct {
	ID               int64           `db:"id"`
	UserID           int64           `db:"user_id"`
	TemplateID       int64           `db:"template_id"`
	Price            decimal.Decimal `db:"price"`      // snapshot of the template price at purchase
	DailyRate        decimal.Decimal `db:"daily_rate"` // snapshot of the template rate at purchase
	PurchasedAt      time.Time       `db:"purchased_at"`
	OperationStartAt time.Time       `db:"operation_start_at"`
	Accrued          decimal.Decimal `db:"accrued"`          // unclaimed yield
	LifetimeAccrued  decimal.Decimal `db:"lifetime_accrued"` // all yield ever credited, claimed or not
	Cap              decimal.Decimal `db:"cap"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

// NewPosition builds a position for a purchase of the given template
func NewPosition(userID int64, template *AssetTemplate, purchasedAt time.Time, policy PositionPolicy) *Position {
	return &Position{
		UserID:           userID,
		TemplateID:       template.ID,
		Price:            template.Price,
		DailyRate:        template.DailyRate,
		PurchasedAt:      purchasedAt,
		OperationStartAt: purchasedAt.AddDate(0, 0, policy.OperationDelayDays),
		Accrued:          decimal.Zero,
		LifetimeAccrued:  decimal.Zero,
		Cap:              template.Price.Mul(policy.CapMultiplier),
	}
}

// DailyYield is price × dailyRate / 100, rounded half away from zero to 8 places
func (p *Position) DailyYield() decimal.Decimal {
	return p.Price.Mul(p.DailyRate).Div(hundred).Round(yieldPrecision)
}

// IsOperating reports whether the operation start date is on or before asOf's calendar date
func (p *Position) IsOperating(asOf time.Time) bool {
	start := p.OperationStartAt.In(asOf.Location())
	startDate := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, asOf.Location())
	asOfDate := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, asOf.Location())
	return !startDate.After(asOfDate)
}

// Headroom is how much more yield the position may ever earn
func (p *Position) Headroom() decimal.Decimal {
	remaining := p.Cap.Sub(p.LifetimeAccrued)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// AtCap reports whether the position has earned its full lifetime allowance
func (p *Position) AtCap() bool {
	return !p.Headroom().IsPositive()
}

// HasReward reports whether there is unclaimed yield
func (p *Position) HasReward() bool {
	return p.Accrued.IsPositive()
}

// CheckInvariants verifies 0 <= accrued <= lifetime <= cap
func (p *Position) CheckInvariants() error {
	if p.Accrued.IsNegative() || p.Accrued.GreaterThan(p.Cap) {
		return fmt.Errorf("position %d: %w (accrued=%s cap=%s)", p.ID, ErrAccrualOutOfCap, p.Accrued, p.Cap)
	}
	if p.LifetimeAccrued.GreaterThan(p.Cap) {
		return fmt.Errorf("position %d: %w (lifetime=%s cap=%s)", p.ID, ErrLifetimeOverflow, p.LifetimeAccrued, p.Cap)
	}
	return nil
}

// ApplyAccrual credits delta clamped to the remaining headroom and returns the applied amount
func (p *Position) ApplyAccrual(delta decimal.Decimal) (decimal.Decimal, error) {
	if delta.IsNegative() {
		return decimal.Zero, fmt.Errorf("position %d: %w (delta=%s)", p.ID, ErrNegativeAccrual, delta)
	}
	if err := p.CheckInvariants(); err != nil {
		return decimal.Zero, err
	}

	applied := decimal.Min(delta, p.Headroom())
	accrued := decimal.Min(p.Accrued.Add(applied), p.Cap)
	applied = accrued.Sub(p.Accrued)

	p.Accrued = accrued
	p.LifetimeAccrued = p.LifetimeAccrued.Add(applied)

	return applied, p.CheckInvariants()
}

// Release zeroes the unclaimed yield and returns the amount released
func (p *Position) Release() decimal.Decimal {
	released := p.Accrued
	p.Accrued = decimal.Zero
	return released
}

// Restore returns previously released yield, never beyond the cap, and reports the amount restored
func (p *Position) Restore(amount decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	restored := decimal.Min(p.Accrued.Add(amount), p.Cap)
	delta := restored.Sub(p.Accrued)
	p.Accrued = restored
	return delta
}
