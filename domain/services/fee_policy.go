package services

import (
	"shogun/domain/entities"

	"github.com/shopspring/decimal"
)

// feePrecision is the number of decimal places fees are rounded to
const feePrecision = 8

// FeePolicy derives claim fees from the configured fee schedule
type FeePolicy struct {
	schedule entities.FeeSchedule
}

// NewFeePolicy creates a fee policy over a schedule
func NewFeePolicy(schedule entities.FeeSchedule) FeePolicy {
	return FeePolicy{schedule: schedule}
}

// Compute returns the fee and net amount for a claim. Reinvestment is always fee-free.
func (p FeePolicy) Compute(claimType entities.ClaimType, wallet entities.WalletType, gross decimal.Decimal) (fee, net decimal.Decimal) {
	if claimType != entities.ClaimTypePayout {
		return decimal.Zero, gross
	}
	fee = gross.Mul(p.schedule.RateFor(wallet)).Round(feePrecision)
	return fee, gross.Sub(fee)
}
