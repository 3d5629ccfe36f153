package services

import (
	"context"
	"testing"
	"time"

	"shogun/domain"
	"shogun/domain/entities"
	"shogun/domain/testhelpers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type memberMocks struct {
	users     *testhelpers.MockUserRepository
	templates *testhelpers.MockAssetTemplateRepository
	positions *testhelpers.MockPositionRepository
	publisher *testhelpers.MockEventPublisher
}

func newMemberServiceWithMocks() (*MemberService, memberMocks) {
	m := memberMocks{
		users:     new(testhelpers.MockUserRepository),
		templates: new(testhelpers.MockAssetTemplateRepository),
		positions: new(testhelpers.MockPositionRepository),
		publisher: new(testhelpers.MockEventPublisher),
	}
	return NewMemberService(m.users, m.templates, m.positions, m.publisher, entities.DefaultPositionPolicy()), m
}

func TestMemberService_RegisterUser(t *testing.T) {
	ctx := context.Background()
	service, m := newMemberServiceWithMocks()

	m.users.On("GetByLoginID", ctx, "hanzo").Return(nil, nil)
	m.users.On("GetByID", ctx, int64(1)).Return(&entities.User{ID: 1}, nil)
	m.users.On("Create", ctx, mock.MatchedBy(func(u *entities.User) bool {
		return u.LoginID == "hanzo" &&
			u.Name == "Hattori Hanzo" &&
			*u.ReferrerID == 1 &&
			u.WalletType == entities.WalletTypeEVO &&
			u.BonusBalance.IsZero()
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*entities.User).ID = 2
	})
	m.publisher.On("Publish", mock.AnythingOfType("events.UserRegisteredEvent")).Return(nil)

	user, err := service.RegisterUser(ctx, RegistrationRequest{
		LoginID:    " hanzo ",
		Name:       "Hattori Hanzo",
		ReferrerID: int64Ptr(1),
		WalletType: entities.WalletTypeEVO,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), user.ID)

	m.users.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}

func TestMemberService_RegisterUser_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   RegistrationRequest
		setup func(ctx context.Context, m memberMocks)
	}{
		{
			name: "missing name",
			req:  RegistrationRequest{LoginID: "a"},
		},
		{
			name: "bad wallet",
			req:  RegistrationRequest{LoginID: "a", Name: "A", WalletType: "paypal"},
		},
		{
			name: "duplicate login",
			req:  RegistrationRequest{LoginID: "taken", Name: "A"},
			setup: func(ctx context.Context, m memberMocks) {
				m.users.On("GetByLoginID", ctx, "taken").Return(&entities.User{ID: 3}, nil)
			},
		},
		{
			name: "unknown referrer",
			req:  RegistrationRequest{LoginID: "new", Name: "A", ReferrerID: int64Ptr(42)},
			setup: func(ctx context.Context, m memberMocks) {
				m.users.On("GetByLoginID", ctx, "new").Return(nil, nil)
				m.users.On("GetByID", ctx, int64(42)).Return(nil, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			service, m := newMemberServiceWithMocks()
			if tt.setup != nil {
				tt.setup(ctx, m)
			}

			_, err := service.RegisterUser(ctx, tt.req)
			assert.ErrorIs(t, err, domain.ErrValidation)
			m.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestMemberService_PurchasePosition(t *testing.T) {
	ctx := context.Background()
	service, m := newMemberServiceWithMocks()

	purchasedAt := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	template := &entities.AssetTemplate{ID: 3, Name: "SHOGUN NFT 1,000", Price: dec("1000"), DailyRate: dec("1.0"), IsActive: true}

	m.users.On("GetByID", ctx, int64(1)).Return(&entities.User{ID: 1}, nil)
	m.templates.On("GetByID", ctx, int64(3)).Return(template, nil)
	m.positions.On("Create", ctx, mock.AnythingOfType("*entities.Position")).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*entities.Position).ID = 50
	})
	m.publisher.On("Publish", mock.AnythingOfType("events.PositionPurchasedEvent")).Return(nil)

	position, err := service.PurchasePosition(ctx, 1, 3, purchasedAt)
	require.NoError(t, err)

	assert.Equal(t, int64(50), position.ID)
	assert.True(t, position.Price.Equal(dec("1000")))
	assert.True(t, position.Cap.Equal(dec("3000")))
	assert.Equal(t, purchasedAt.AddDate(0, 0, 7), position.OperationStartAt)
	assert.True(t, position.Accrued.IsZero())
}

func TestMemberService_PurchasePosition_SpecialTemplateRejected(t *testing.T) {
	ctx := context.Background()
	service, m := newMemberServiceWithMocks()

	m.users.On("GetByID", ctx, int64(1)).Return(&entities.User{ID: 1}, nil)
	m.templates.On("GetByID", ctx, int64(9)).Return(&entities.AssetTemplate{ID: 9, Name: "special", Price: dec("1"), IsActive: true, IsSpecial: true}, nil)

	_, err := service.PurchasePosition(ctx, 1, 9, time.Now())
	assert.ErrorIs(t, err, domain.ErrValidation)
	m.positions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestMemberService_SeedAssetTemplates(t *testing.T) {
	ctx := context.Background()
	service, m := newMemberServiceWithMocks()

	templates := []entities.AssetTemplate{
		{Name: "SHOGUN NFT 300", Price: dec("300"), DailyRate: dec("0.5"), IsActive: true},
		{Name: "SHOGUN NFT 500", Price: dec("500"), DailyRate: dec("0.5"), IsActive: true},
	}
	m.templates.On("Upsert", ctx, mock.MatchedBy(func(t *entities.AssetTemplate) bool { return t.Name == "SHOGUN NFT 300" })).Return(false, nil)
	m.templates.On("Upsert", ctx, mock.MatchedBy(func(t *entities.AssetTemplate) bool { return t.Name == "SHOGUN NFT 500" })).Return(true, nil)

	created, err := service.SeedAssetTemplates(ctx, templates)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	_, err = service.SeedAssetTemplates(ctx, []entities.AssetTemplate{{Name: "free", Price: dec("0")}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
