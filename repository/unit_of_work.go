package repository

import (
	"context"
	"errors"
	"fmt"

	"shogun/application"
	"shogun/database"
	"shogun/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db                     *database.DB
	tx                     pgx.Tx
	ctx                    context.Context
	transactionalPublisher interfaces.TransactionalEventPublisher
	userRepo               interfaces.UserRepository
	templateRepo           interfaces.AssetTemplateRepository
	positionRepo           interfaces.PositionRepository
	claimRepo              interfaces.ClaimRepository
	accrualRunRepo         interfaces.AccrualRunRepository
	distributionRepo       interfaces.BonusDistributionRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB) *unitOfWorkFactory {
	return &unitOfWorkFactory{
		db: db,
	}
}

type unitOfWorkFactory struct {
	db *database.DB
}

// CreateWithPublisher creates a new UnitOfWork that flushes the given publisher on commit
func (f *unitOfWorkFactory) CreateWithPublisher(transactionalPublisher interfaces.TransactionalEventPublisher) application.UnitOfWork {
	return &unitOfWork{
		db:                     f.db,
		transactionalPublisher: transactionalPublisher,
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.userRepo = newUserRepository(tx)
	u.templateRepo = newAssetTemplateRepository(tx)
	u.positionRepo = newPositionRepository(tx)
	u.claimRepo = newClaimRepository(tx)
	u.accrualRunRepo = newAccrualRunRepository(tx)
	u.distributionRepo = newBonusDistributionRepository(tx)

	return nil
}

// Commit commits the transaction
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	err := u.tx.Commit(u.ctx)
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Events go out only once the state they describe is durable; a failed
	// flush cannot undo the commit.
	if u.transactionalPublisher != nil {
		_ = u.transactionalPublisher.Flush(u.ctx)
	}

	return nil
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	if u.transactionalPublisher != nil {
		u.transactionalPublisher.Discard()
	}

	return nil
}

// UserRepository returns the user repository for this unit of work
func (u *unitOfWork) UserRepository() interfaces.UserRepository {
	if u.userRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.userRepo
}

// AssetTemplateRepository returns the asset template repository for this unit of work
func (u *unitOfWork) AssetTemplateRepository() interfaces.AssetTemplateRepository {
	if u.templateRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.templateRepo
}

// PositionRepository returns the position repository for this unit of work
func (u *unitOfWork) PositionRepository() interfaces.PositionRepository {
	if u.positionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.positionRepo
}

// ClaimRepository returns the claim repository for this unit of work
func (u *unitOfWork) ClaimRepository() interfaces.ClaimRepository {
	if u.claimRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.claimRepo
}

// AccrualRunRepository returns the accrual run repository for this unit of work
func (u *unitOfWork) AccrualRunRepository() interfaces.AccrualRunRepository {
	if u.accrualRunRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.accrualRunRepo
}

// BonusDistributionRepository returns the bonus distribution repository for this unit of work
func (u *unitOfWork) BonusDistributionRepository() interfaces.BonusDistributionRepository {
	if u.distributionRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.distributionRepo
}

// EventBus returns the transactional event publisher for this unit of work
func (u *unitOfWork) EventBus() interfaces.EventPublisher {
	if u.transactionalPublisher == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.transactionalPublisher
}
