package services

import (
	"context"
	"testing"
	"time"

	"shogun/domain"
	"shogun/domain/entities"
	"shogun/domain/events"
	"shogun/domain/testhelpers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type claimMocks struct {
	users     *testhelpers.MockUserRepository
	positions *testhelpers.MockPositionRepository
	claims    *testhelpers.MockClaimRepository
	publisher *testhelpers.MockEventPublisher
}

func newClaimServiceWithMocks(restoreOnReject bool) (*ClaimService, claimMocks) {
	m := claimMocks{
		users:     new(testhelpers.MockUserRepository),
		positions: new(testhelpers.MockPositionRepository),
		claims:    new(testhelpers.MockClaimRepository),
		publisher: new(testhelpers.MockEventPublisher),
	}
	service := NewClaimService(m.users, m.positions, m.claims, m.publisher,
		NewFeePolicy(entities.DefaultFeeSchedule()), restoreOnReject)
	service.now = func() time.Time { return time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC) }
	return service, m
}

func heldPosition(id int64, accrued, lifetime string) *entities.Position {
	return &entities.Position{
		ID:              id,
		UserID:          1,
		Price:           dec("1000"),
		DailyRate:       dec("1"),
		Accrued:         dec(accrued),
		LifetimeAccrued: dec(lifetime),
		Cap:             dec("3000"),
	}
}

func TestClaimService_SubmitClaim_Fees(t *testing.T) {
	tests := []struct {
		name      string
		claimType entities.ClaimType
		wallet    entities.WalletType
		note      string
		fee       string
		net       string
	}{
		{"payout with privileged wallet", entities.ClaimTypePayout, entities.WalletTypeEVO, "monthly withdrawal", "55", "945"},
		{"payout with standard wallet", entities.ClaimTypePayout, entities.WalletTypeOther, "monthly withdrawal", "80", "920"},
		{"reinvest is fee free", entities.ClaimTypeReinvest, entities.WalletTypeOther, "", "0", "1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			service, m := newClaimServiceWithMocks(true)

			p1 := heldPosition(11, "600", "900")
			p2 := heldPosition(12, "400", "400")
			idle := heldPosition(13, "0", "3000")

			m.users.On("GetByIDForUpdate", ctx, int64(1)).Return(&entities.User{ID: 1, WalletType: tt.wallet}, nil)
			m.positions.On("GetByUserForUpdate", ctx, int64(1)).Return([]*entities.Position{p1, p2, idle}, nil)
			m.claims.On("Create", ctx, mock.MatchedBy(func(c *entities.Claim) bool {
				return c.Gross.Equal(dec("1000")) &&
					c.Fee.Equal(dec(tt.fee)) &&
					c.Net.Equal(dec(tt.net)) &&
					c.Status == entities.ClaimStatusPending &&
					c.ClaimType == tt.claimType
			}), mock.MatchedBy(func(a []entities.ClaimAllocation) bool {
				return len(a) == 2 &&
					a[0].PositionID == 11 && a[0].Amount.Equal(dec("600")) &&
					a[1].PositionID == 12 && a[1].Amount.Equal(dec("400"))
			})).Return(nil).Run(func(args mock.Arguments) {
				args.Get(1).(*entities.Claim).ID = 77
			})
			m.positions.On("UpdateAccrual", ctx, int64(11), decArg("0"), decArg("900")).Return(nil)
			m.positions.On("UpdateAccrual", ctx, int64(12), decArg("0"), decArg("400")).Return(nil)
			m.publisher.On("Publish", mock.AnythingOfType("events.ClaimSubmittedEvent")).Return(nil)

			quote, err := service.SubmitClaim(ctx, 1, tt.claimType, tt.note)
			require.NoError(t, err)

			assert.Equal(t, int64(77), quote.ClaimID)
			assert.True(t, quote.Gross.Equal(dec("1000")))
			assert.True(t, quote.Fee.Equal(dec(tt.fee)), "fee %s", quote.Fee)
			assert.True(t, quote.Net.Equal(dec(tt.net)), "net %s", quote.Net)
			assert.True(t, quote.Net.Equal(quote.Gross.Sub(quote.Fee)))

			assert.True(t, p1.Accrued.IsZero())
			assert.True(t, p2.Accrued.IsZero())
			m.positions.AssertNotCalled(t, "UpdateAccrual", mock.Anything, int64(13), mock.Anything, mock.Anything)

			m.users.AssertExpectations(t)
			m.positions.AssertExpectations(t)
			m.claims.AssertExpectations(t)
			m.publisher.AssertExpectations(t)
		})
	}
}

func TestClaimService_SubmitClaim_Validation(t *testing.T) {
	tests := []struct {
		name      string
		claimType entities.ClaimType
		note      string
		contains  string
	}{
		{"payout without note", entities.ClaimTypePayout, "", "note is required"},
		{"payout with blank note", entities.ClaimTypePayout, "   ", "note is required"},
		{"unknown claim type", entities.ClaimType("airdrop"), "thanks", "invalid claim type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			service, m := newClaimServiceWithMocks(true)

			quote, err := service.SubmitClaim(ctx, 1, tt.claimType, tt.note)
			assert.Nil(t, quote)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Contains(t, domain.UserMessage(err), tt.contains)

			m.users.AssertNotCalled(t, "GetByIDForUpdate", mock.Anything, mock.Anything)
			m.claims.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestClaimService_SubmitClaim_NoRewardAvailable(t *testing.T) {
	ctx := context.Background()
	service, m := newClaimServiceWithMocks(true)

	m.users.On("GetByIDForUpdate", ctx, int64(1)).Return(&entities.User{ID: 1, WalletType: entities.WalletTypeEVO}, nil)
	m.positions.On("GetByUserForUpdate", ctx, int64(1)).Return([]*entities.Position{heldPosition(11, "0", "20")}, nil)

	_, err := service.SubmitClaim(ctx, 1, entities.ClaimTypeReinvest, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoRewardAvailable)
	assert.True(t, domain.AsEngineError(err).IsUserFacing())

	m.claims.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestClaimService_SubmitClaim_UnknownUser(t *testing.T) {
	ctx := context.Background()
	service, m := newClaimServiceWithMocks(true)

	m.users.On("GetByIDForUpdate", ctx, int64(9)).Return(nil, nil)

	_, err := service.SubmitClaim(ctx, 9, entities.ClaimTypeReinvest, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func pendingClaim(id int64) *entities.Claim {
	return &entities.Claim{
		ID:        id,
		UserID:    1,
		ClaimType: entities.ClaimTypePayout,
		Gross:     dec("100"),
		Fee:       dec("8"),
		Net:       dec("92"),
		Status:    entities.ClaimStatusPending,
	}
}

func TestClaimService_ApproveClaim(t *testing.T) {
	ctx := context.Background()
	service, m := newClaimServiceWithMocks(true)

	claim := pendingClaim(5)
	m.claims.On("GetByIDForUpdate", ctx, int64(5)).Return(claim, nil)
	m.claims.On("UpdateStatus", ctx, claim).Return(nil)
	m.publisher.On("Publish", mock.MatchedBy(func(e events.ClaimProcessedEvent) bool {
		return e.ClaimID == 5 && e.Status == "approved" && e.Restored.IsZero()
	})).Return(nil)

	approved, err := service.ApproveClaim(ctx, 5)
	require.NoError(t, err)

	assert.Equal(t, entities.ClaimStatusApproved, approved.Status)
	require.NotNil(t, approved.ProcessedAt)
	assert.Equal(t, time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC), *approved.ProcessedAt)

	m.claims.AssertNotCalled(t, "GetAllocations", mock.Anything, mock.Anything)
	m.claims.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}

func TestClaimService_ProcessNonPendingClaim(t *testing.T) {
	ctx := context.Background()
	service, m := newClaimServiceWithMocks(true)

	processed := pendingClaim(6)
	processed.Status = entities.ClaimStatusApproved
	m.claims.On("GetByIDForUpdate", ctx, int64(6)).Return(processed, nil)
	m.claims.On("GetByIDForUpdate", ctx, int64(7)).Return(nil, nil)

	_, err := service.RejectClaim(ctx, 6)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, domain.UserMessage(err), "already approved")

	_, err = service.ApproveClaim(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, domain.UserMessage(err), "not found")

	m.claims.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything)
}

func TestClaimService_RejectClaim_RestoresAccrual(t *testing.T) {
	ctx := context.Background()
	service, m := newClaimServiceWithMocks(true)

	claim := pendingClaim(8)
	// Position 21 accrued 15 more since the claim; position 22 is unchanged
	p21 := heldPosition(21, "15", "115")
	p22 := heldPosition(22, "0", "40")

	m.claims.On("GetByIDForUpdate", ctx, int64(8)).Return(claim, nil)
	m.claims.On("GetAllocations", ctx, int64(8)).Return([]entities.ClaimAllocation{
		{ClaimID: 8, PositionID: 21, Amount: dec("60")},
		{ClaimID: 8, PositionID: 22, Amount: dec("40")},
	}, nil)
	m.positions.On("GetByIDsForUpdate", ctx, []int64{21, 22}).Return([]*entities.Position{p21, p22}, nil)
	m.positions.On("UpdateAccrual", ctx, int64(21), decArg("75"), decArg("115")).Return(nil)
	m.positions.On("UpdateAccrual", ctx, int64(22), decArg("40"), decArg("40")).Return(nil)
	m.claims.On("UpdateStatus", ctx, claim).Return(nil)
	m.publisher.On("Publish", mock.MatchedBy(func(e events.ClaimProcessedEvent) bool {
		return e.Status == "rejected" && e.Restored.Equal(dec("100"))
	})).Return(nil)

	rejected, err := service.RejectClaim(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, entities.ClaimStatusRejected, rejected.Status)

	m.positions.AssertExpectations(t)
	m.claims.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}

func TestClaimService_RejectClaim_WithoutRestore(t *testing.T) {
	ctx := context.Background()
	service, m := newClaimServiceWithMocks(false)

	claim := pendingClaim(9)
	m.claims.On("GetByIDForUpdate", ctx, int64(9)).Return(claim, nil)
	m.claims.On("UpdateStatus", ctx, claim).Return(nil)
	m.publisher.On("Publish", mock.AnythingOfType("events.ClaimProcessedEvent")).Return(nil)

	rejected, err := service.RejectClaim(ctx, 9)
	require.NoError(t, err)
	assert.Equal(t, entities.ClaimStatusRejected, rejected.Status)

	m.claims.AssertNotCalled(t, "GetAllocations", mock.Anything, mock.Anything)
	m.positions.AssertNotCalled(t, "UpdateAccrual", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestClaimService_ListPendingClaims_DefaultLimit(t *testing.T) {
	ctx := context.Background()
	service, m := newClaimServiceWithMocks(true)

	m.claims.On("ListByStatus", ctx, entities.ClaimStatusPending, DefaultPendingClaimsLimit).
		Return([]*entities.Claim{pendingClaim(1), pendingClaim(2)}, nil)

	claims, err := service.ListPendingClaims(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, claims, 2)
}

func TestFeePolicy_Compute(t *testing.T) {
	t.Parallel()

	policy := NewFeePolicy(entities.DefaultFeeSchedule())
	gross := decimal.NewFromInt(1000)

	fee, net := policy.Compute(entities.ClaimTypePayout, entities.WalletTypeEVO, gross)
	assert.True(t, fee.Equal(dec("55")))
	assert.True(t, net.Equal(dec("945")))

	fee, net = policy.Compute(entities.ClaimTypePayout, entities.WalletTypeOther, gross)
	assert.True(t, fee.Equal(dec("80")))
	assert.True(t, net.Equal(dec("920")))

	fee, net = policy.Compute(entities.ClaimTypeReinvest, entities.WalletTypeEVO, gross)
	assert.True(t, fee.IsZero())
	assert.True(t, net.Equal(gross))

	fee, _ = policy.Compute(entities.ClaimTypePayout, entities.WalletTypeOther, dec("0.123456789"))
	assert.True(t, fee.Equal(dec("0.00987654")))
}
