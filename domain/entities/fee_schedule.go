package entities

import "github.com/shopspring/decimal"

// FeeSchedule holds payout fee rates keyed by wallet type
type FeeSchedule struct {
	PrivilegedWalletType WalletType
	PrivilegedRate       decimal.Decimal // fraction, e.g. 0.055
	StandardRate         decimal.Decimal // fraction, e.g. 0.08
}

// DefaultFeeSchedule returns 5.5% for EVO card holders and 8% otherwise
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		PrivilegedWalletType: WalletTypeEVO,
		PrivilegedRate:       decimal.New(55, -3),
		StandardRate:         decimal.New(8, -2),
	}
}

// RateFor returns the payout fee rate for a wallet type
func (f FeeSchedule) RateFor(wallet WalletType) decimal.Decimal {
	if wallet == f.PrivilegedWalletType {
		return f.PrivilegedRate
	}
	return f.StandardRate
}
