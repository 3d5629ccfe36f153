package entities

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// AssetTemplate is a purchasable yield asset from the catalogue
type AssetTemplate struct {
	ID        int64           `db:"id"`
	Name      string          `db:"name"`
	Price     decimal.Decimal `db:"price"`
	DailyRate decimal.Decimal `db:"daily_rate"` // percent per business day
	IsSpecial bool            `db:"is_special"` // admin-granted only, hidden from the regular catalogue
	IsActive  bool            `db:"is_active"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// Validate checks the template carries a usable price and rate
func (t *AssetTemplate) Validate() error {
	if t.Name == "" {
		return errors.New("template name cannot be empty")
	}
	if !t.Price.IsPositive() {
		return errors.New("template price must be positive")
	}
	if t.DailyRate.IsNegative() {
		return errors.New("template daily rate cannot be negative")
	}
	return nil
}

// IsPurchasable reports whether a regular user may buy this template
func (t *AssetTemplate) IsPurchasable() bool {
	return t.IsActive && !t.IsSpecial
}
