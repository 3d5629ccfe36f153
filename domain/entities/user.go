package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletType is the settlement method a user registered with
type WalletType string

const (
	// WalletTypeEVO is the privileged settlement card with the reduced payout fee
	WalletTypeEVO   WalletType = "evo"
	WalletTypeOther WalletType = "other"
)

// IsValid reports whether the wallet type is one the platform accepts
func (w WalletType) IsValid() bool {
	return w == WalletTypeEVO || w == WalletTypeOther
}

// User is a platform member placed in the referral forest
type User struct {
	ID           int64           `db:"id"`
	LoginID      string          `db:"login_id"`
	Name         string          `db:"name"`
	ReferrerID   *int64          `db:"referrer_id"`
	WalletType   WalletType      `db:"wallet_type"`
	Rank         *RankName       `db:"rank"` // Cached classification, written only by the rank classifier
	BonusBalance decimal.Decimal `db:"bonus_balance"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// IsRoot reports whether the user sits at the top of a referral tree
func (u *User) IsRoot() bool {
	return u.ReferrerID == nil
}

// HasRank reports whether a cached rank is present
func (u *User) HasRank() bool {
	return u.Rank != nil
}

// RankOrEmpty returns the cached rank or the empty rank name
func (u *User) RankOrEmpty() RankName {
	if u.Rank == nil {
		return ""
	}
	return *u.Rank
}
