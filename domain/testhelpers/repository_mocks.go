package testhelpers

import (
	"context"
	"time"

	"shogun/domain/entities"
	"shogun/domain/events"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *entities.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetByLoginID(ctx context.Context, loginID string) (*entities.User, error) {
	args := m.Called(ctx, loginID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetChildren(ctx context.Context, parentIDs []int64) ([]*entities.User, error) {
	args := m.Called(ctx, parentIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.User), args.Error(1)
}

func (m *MockUserRepository) GetAllIDs(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockUserRepository) UpdateRank(ctx context.Context, id int64, rank *entities.RankName) error {
	args := m.Called(ctx, id, rank)
	return args.Error(0)
}

func (m *MockUserRepository) GetByRankForUpdate(ctx context.Context, rank entities.RankName) ([]*entities.User, error) {
	args := m.Called(ctx, rank)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.User), args.Error(1)
}

func (m *MockUserRepository) AddBonusBalance(ctx context.Context, ids []int64, amount decimal.Decimal) error {
	args := m.Called(ctx, ids, amount)
	return args.Error(0)
}

// MockAssetTemplateRepository is a mock implementation of AssetTemplateRepository
type MockAssetTemplateRepository struct {
	mock.Mock
}

func (m *MockAssetTemplateRepository) GetByID(ctx context.Context, id int64) (*entities.AssetTemplate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AssetTemplate), args.Error(1)
}

func (m *MockAssetTemplateRepository) GetByName(ctx context.Context, name string) (*entities.AssetTemplate, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AssetTemplate), args.Error(1)
}

func (m *MockAssetTemplateRepository) List(ctx context.Context, includeSpecial bool) ([]*entities.AssetTemplate, error) {
	args := m.Called(ctx, includeSpecial)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.AssetTemplate), args.Error(1)
}

func (m *MockAssetTemplateRepository) Upsert(ctx context.Context, template *entities.AssetTemplate) (bool, error) {
	args := m.Called(ctx, template)
	return args.Bool(0), args.Error(1)
}

// MockPositionRepository is a mock implementation of PositionRepository
type MockPositionRepository struct {
	mock.Mock
}

func (m *MockPositionRepository) Create(ctx context.Context, position *entities.Position) error {
	args := m.Called(ctx, position)
	return args.Error(0)
}

func (m *MockPositionRepository) GetByUser(ctx context.Context, userID int64) ([]*entities.Position, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Position), args.Error(1)
}

func (m *MockPositionRepository) GetByUserForUpdate(ctx context.Context, userID int64) ([]*entities.Position, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Position), args.Error(1)
}

func (m *MockPositionRepository) GetByIDsForUpdate(ctx context.Context, ids []int64) ([]*entities.Position, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Position), args.Error(1)
}

func (m *MockPositionRepository) GetAccruableForUpdate(ctx context.Context, startedBefore time.Time) ([]*entities.Position, error) {
	args := m.Called(ctx, startedBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Position), args.Error(1)
}

func (m *MockPositionRepository) UpdateAccrual(ctx context.Context, id int64, accrued, lifetimeAccrued decimal.Decimal) error {
	args := m.Called(ctx, id, accrued, lifetimeAccrued)
	return args.Error(0)
}

func (m *MockPositionRepository) SumPriceByUsers(ctx context.Context, userIDs []int64) (map[int64]decimal.Decimal, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[int64]decimal.Decimal), args.Error(1)
}

func (m *MockPositionRepository) MaxPriceByUser(ctx context.Context, userID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockClaimRepository is a mock implementation of ClaimRepository
type MockClaimRepository struct {
	mock.Mock
}

func (m *MockClaimRepository) Create(ctx context.Context, claim *entities.Claim, allocations []entities.ClaimAllocation) error {
	args := m.Called(ctx, claim, allocations)
	return args.Error(0)
}

func (m *MockClaimRepository) GetByID(ctx context.Context, id int64) (*entities.Claim, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Claim), args.Error(1)
}

func (m *MockClaimRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Claim, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Claim), args.Error(1)
}

func (m *MockClaimRepository) UpdateStatus(ctx context.Context, claim *entities.Claim) error {
	args := m.Called(ctx, claim)
	return args.Error(0)
}

func (m *MockClaimRepository) ListByStatus(ctx context.Context, status entities.ClaimStatus, limit int) ([]*entities.Claim, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Claim), args.Error(1)
}

func (m *MockClaimRepository) GetAllocations(ctx context.Context, claimID int64) ([]entities.ClaimAllocation, error) {
	args := m.Called(ctx, claimID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.ClaimAllocation), args.Error(1)
}

// MockAccrualRunRepository is a mock implementation of AccrualRunRepository
type MockAccrualRunRepository struct {
	mock.Mock
}

func (m *MockAccrualRunRepository) TryCreate(ctx context.Context, run *entities.AccrualRun) (bool, error) {
	args := m.Called(ctx, run)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccrualRunRepository) Complete(ctx context.Context, run *entities.AccrualRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockAccrualRunRepository) GetByDate(ctx context.Context, date time.Time) (*entities.AccrualRun, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AccrualRun), args.Error(1)
}

func (m *MockAccrualRunRepository) GetLatest(ctx context.Context) (*entities.AccrualRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AccrualRun), args.Error(1)
}

// MockBonusDistributionRepository is a mock implementation of BonusDistributionRepository
type MockBonusDistributionRepository struct {
	mock.Mock
}

func (m *MockBonusDistributionRepository) Create(ctx context.Context, distribution *entities.BonusDistribution) error {
	args := m.Called(ctx, distribution)
	return args.Error(0)
}

func (m *MockBonusDistributionRepository) GetLatest(ctx context.Context) (*entities.BonusDistribution, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BonusDistribution), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

// MockTransactionalEventPublisher is a mock implementation of TransactionalEventPublisher
type MockTransactionalEventPublisher struct {
	mock.Mock
}

func (m *MockTransactionalEventPublisher) Publish(event events.Event) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockTransactionalEventPublisher) Flush(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTransactionalEventPublisher) Discard() {
	m.Called()
}
