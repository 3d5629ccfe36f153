package testutil

import (
	"time"

	"shogun/domain/entities"

	"github.com/shopspring/decimal"
)

// CreateTestUser creates a root member with default values
func CreateTestUser(loginID string) *entities.User {
	return &entities.User{
		LoginID:      loginID,
		Name:         "Member " + loginID,
		WalletType:   entities.WalletTypeOther,
		BonusBalance: decimal.Zero,
	}
}

// CreateTestUserWithReferrer creates a member placed under a referrer
func CreateTestUserWithReferrer(loginID string, referrerID int64) *entities.User {
	user := CreateTestUser(loginID)
	user.ReferrerID = &referrerID
	return user
}

// CreateTestTemplate creates an active, purchasable template
func CreateTestTemplate(name string, price, dailyRate string) *entities.AssetTemplate {
	return &entities.AssetTemplate{
		Name:      name,
		Price:     decimal.RequireFromString(price),
		DailyRate: decimal.RequireFromString(dailyRate),
		IsActive:  true,
	}
}

// CreateTestPosition creates a position bought at purchasedAt under the default policy
func CreateTestPosition(userID int64, template *entities.AssetTemplate, purchasedAt time.Time) *entities.Position {
	return entities.NewPosition(userID, template, purchasedAt, entities.DefaultPositionPolicy())
}

// CreateTestClaim creates a pending payout claim
func CreateTestClaim(userID int64, gross, fee string) *entities.Claim {
	g := decimal.RequireFromString(gross)
	f := decimal.RequireFromString(fee)
	note := "bank transfer"
	return &entities.Claim{
		UserID:    userID,
		ClaimType: entities.ClaimTypePayout,
		Gross:     g,
		Fee:       f,
		Net:       g.Sub(f),
		Note:      &note,
		Status:    entities.ClaimStatusPending,
	}
}
