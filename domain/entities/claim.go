package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ClaimType is how the user wants to realise accrued yield
type ClaimType string

const (
	ClaimTypePayout   ClaimType = "payout"   // withdrawn to the user's wallet, fee-bearing
	ClaimTypeReinvest ClaimType = "reinvest" // rolled back into the platform, fee-free
)

// IsValid reports whether the claim type is supported
func (t ClaimType) IsValid() bool {
	return t == ClaimTypePayout || t == ClaimTypeReinvest
}

// RequiresNote reports whether the claim type needs a free-text note
func (t ClaimType) RequiresNote() bool {
	return t == ClaimTypePayout
}

// ClaimStatus represents the approval state of a claim
type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "pending"
	ClaimStatusApproved ClaimStatus = "approved"
	ClaimStatusRejected ClaimStatus = "rejected"
)

// Claim is a request to realise accrued yield
type Claim struct {
	ID          int64           `db:"id"`
	UserID      int64           `db:"user_id"`
	ClaimType   ClaimType       `db:"claim_type"`
	Gross       decimal.Decimal `db:"gross"`
	Fee         decimal.Decimal `db:"fee"`
	Net         decimal.Decimal `db:"net"`
	Note        *string         `db:"note"`
	Status      ClaimStatus     `db:"status"`
	CreatedAt   time.Time       `db:"created_at"`
	ProcessedAt *time.Time      `db:"processed_at"`
}

// ClaimAllocation records how much yield a claim took from one position
type ClaimAllocation struct {
	ClaimID    int64           `db:"claim_id"`
	PositionID int64           `db:"position_id"`
	Amount     decimal.Decimal `db:"amount"`
}

// ClaimQuote is what a submission returns to the caller
type ClaimQuote struct {
	ClaimID int64           `json:"claim_id"`
	Gross   decimal.Decimal `json:"gross"`
	Fee     decimal.Decimal `json:"fee"`
	Net     decimal.Decimal `json:"net"`
}

// IsPending reports whether the claim still awaits an admin decision
func (c *Claim) IsPending() bool {
	return c.Status == ClaimStatusPending
}

// Approve transitions a pending claim to approved
func (c *Claim) Approve(at time.Time) error {
	return c.transition(ClaimStatusApproved, at)
}

// Reject transitions a pending claim to rejected
func (c *Claim) Reject(at time.Time) error {
	return c.transition(ClaimStatusRejected, at)
}

func (c *Claim) transition(to ClaimStatus, at time.Time) error {
	if !c.IsPending() {
		return fmt.Errorf("claim %d is already %s", c.ID, c.Status)
	}
	c.Status = to
	c.ProcessedAt = &at
	return nil
}

// CheckAmounts verifies net = gross - fee and that reinvest claims carry no fee
func (c *Claim) CheckAmounts() error {
	if !c.Net.Equal(c.Gross.Sub(c.Fee)) {
		return fmt.Errorf("claim net %s does not equal gross %s minus fee %s", c.Net, c.Gross, c.Fee)
	}
	if c.ClaimType == ClaimTypeReinvest && !c.Fee.IsZero() {
		return fmt.Errorf("reinvest claim carries a fee of %s", c.Fee)
	}
	return nil
}

// Quote returns the caller-facing amounts
func (c *Claim) Quote() *ClaimQuote {
	return &ClaimQuote{
		ClaimID: c.ID,
		Gross:   c.Gross,
		Fee:     c.Fee,
		Net:     c.Net,
	}
}
