package application

import (
	"context"

	"shogun/domain/interfaces"
)

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	UserRepository() interfaces.UserRepository
	AssetTemplateRepository() interfaces.AssetTemplateRepository
	PositionRepository() interfaces.PositionRepository
	ClaimRepository() interfaces.ClaimRepository
	AccrualRunRepository() interfaces.AccrualRunRepository
	BonusDistributionRepository() interfaces.BonusDistributionRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork with its own event buffer
	Create() UnitOfWork
}
