package application

import (
	"context"
	"errors"

	"shogun/domain/interfaces"
	"shogun/domain/testhelpers"
)

// mockUnitOfWork records transaction boundaries and hands out repository mocks
type mockUnitOfWork struct {
	beginErr   error
	commitErr  error
	began      bool
	committed  bool
	rolledBack bool
	users      *testhelpers.MockUserRepository
	templates  *testhelpers.MockAssetTemplateRepository
	positions  *testhelpers.MockPositionRepository
	claims     *testhelpers.MockClaimRepository
	runs       *testhelpers.MockAccrualRunRepository
	bonuses    *testhelpers.MockBonusDistributionRepository
	publisher  *testhelpers.MockEventPublisher
}

func newMockUnitOfWork() *mockUnitOfWork {
	return &mockUnitOfWork{
		users:     &testhelpers.MockUserRepository{},
		templates: &testhelpers.MockAssetTemplateRepository{},
		positions: &testhelpers.MockPositionRepository{},
		claims:    &testhelpers.MockClaimRepository{},
		runs:      &testhelpers.MockAccrualRunRepository{},
		bonuses:   &testhelpers.MockBonusDistributionRepository{},
		publisher: &testhelpers.MockEventPublisher{},
	}
}

func (u *mockUnitOfWork) Begin(ctx context.Context) error {
	if u.beginErr != nil {
		return u.beginErr
	}
	u.began = true
	return nil
}

func (u *mockUnitOfWork) Commit() error {
	if !u.began {
		return errors.New("no transaction to commit")
	}
	if u.commitErr != nil {
		return u.commitErr
	}
	u.committed = true
	u.began = false
	return nil
}

func (u *mockUnitOfWork) Rollback() error {
	if u.began {
		u.rolledBack = true
		u.began = false
	}
	return nil
}

func (u *mockUnitOfWork) UserRepository() interfaces.UserRepository { return u.users }
func (u *mockUnitOfWork) AssetTemplateRepository() interfaces.AssetTemplateRepository {
	return u.templates
}
func (u *mockUnitOfWork) PositionRepository() interfaces.PositionRepository { return u.positions }
func (u *mockUnitOfWork) ClaimRepository() interfaces.ClaimRepository       { return u.claims }
func (u *mockUnitOfWork) AccrualRunRepository() interfaces.AccrualRunRepository {
	return u.runs
}
func (u *mockUnitOfWork) BonusDistributionRepository() interfaces.BonusDistributionRepository {
	return u.bonuses
}
func (u *mockUnitOfWork) EventBus() interfaces.EventPublisher { return u.publisher }

// mockUnitOfWorkFactory returns the same unit of work for every Create
type mockUnitOfWorkFactory struct {
	uow     *mockUnitOfWork
	created int
}

func (f *mockUnitOfWorkFactory) Create() UnitOfWork {
	f.created++
	return f.uow
}
