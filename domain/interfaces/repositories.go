package interfaces

import (
	"context"
	"time"

	"shogun/domain/entities"

	"github.com/shopspring/decimal"
)

// UserRepository defines the interface for member data access
type UserRepository interface {
	// Create inserts a new member and fills in its ID and timestamps
	Create(ctx context.Context, user *entities.User) error

	// GetByID retrieves a member by ID
	GetByID(ctx context.Context, id int64) (*entities.User, error)

	// GetByIDForUpdate retrieves a member by ID and locks the row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.User, error)

	// GetByLoginID retrieves a member by their external login handle
	GetByLoginID(ctx context.Context, loginID string) (*entities.User, error)

	// GetChildren returns every member whose referrer is one of parentIDs
	GetChildren(ctx context.Context, parentIDs []int64) ([]*entities.User, error)

	// GetAllIDs returns the IDs of every member, ordered by ID
	GetAllIDs(ctx context.Context) ([]int64, error)

	// UpdateRank writes the cached classification; nil clears it
	UpdateRank(ctx context.Context, id int64, rank *entities.RankName) error

	// GetByRankForUpdate returns and locks every member cached at the given rank
	GetByRankForUpdate(ctx context.Context, rank entities.RankName) ([]*entities.User, error)

	// AddBonusBalance credits amount to the bonus balance of each member
	AddBonusBalance(ctx context.Context, ids []int64, amount decimal.Decimal) error
}

// AssetTemplateRepository defines the interface for the purchasable asset catalogue
type AssetTemplateRepository interface {
	// GetByID retrieves a template by ID
	GetByID(ctx context.Context, id int64) (*entities.AssetTemplate, error)

	// GetByName retrieves a template by its unique name
	GetByName(ctx context.Context, name string) (*entities.AssetTemplate, error)

	// List returns active templates ordered by price; special templates only when requested
	List(ctx context.Context, includeSpecial bool) ([]*entities.AssetTemplate, error)

	// Upsert inserts a template or refreshes its price, rate and flags by name.
	// Reports whether a new row was created.
	Upsert(ctx context.Context, template *entities.AssetTemplate) (bool, error)
}

// PositionRepository defines the interface for the asset ledger
type PositionRepository interface {
	// Create inserts a new position and fills in its ID and timestamps
	Create(ctx context.Context, position *entities.Position) error

	// GetByUser returns a member's positions ordered by purchase time
	GetByUser(ctx context.Context, userID int64) ([]*entities.Position, error)

	// GetByUserForUpdate returns and locks a member's positions
	GetByUserForUpdate(ctx context.Context, userID int64) ([]*entities.Position, error)

	// GetByIDsForUpdate returns and locks the given positions
	GetByIDsForUpdate(ctx context.Context, ids []int64) ([]*entities.Position, error)

	// GetAccruableForUpdate returns and locks positions that started operating before
	// the given instant and still have headroom under their cap
	GetAccruableForUpdate(ctx context.Context, startedBefore time.Time) ([]*entities.Position, error)

	// UpdateAccrual persists the unclaimed and lifetime yield of a position
	UpdateAccrual(ctx context.Context, id int64, accrued, lifetimeAccrued decimal.Decimal) error

	// SumPriceByUsers returns the total position price held by each of the given members.
	// Members without positions are absent from the map.
	SumPriceByUsers(ctx context.Context, userIDs []int64) (map[int64]decimal.Decimal, error)

	// MaxPriceByUser returns the price of a member's most expensive position, zero when none
	MaxPriceByUser(ctx context.Context, userID int64) (decimal.Decimal, error)
}

// ClaimRepository defines the interface for reward claims
type ClaimRepository interface {
	// Create inserts a claim with the per-position amounts it reserved
	Create(ctx context.Context, claim *entities.Claim, allocations []entities.ClaimAllocation) error

	// GetByID retrieves a claim by ID
	GetByID(ctx context.Context, id int64) (*entities.Claim, error)

	// GetByIDForUpdate retrieves and locks a claim
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Claim, error)

	// UpdateStatus persists the status and processed time of a claim
	UpdateStatus(ctx context.Context, claim *entities.Claim) error

	// ListByStatus returns claims in the given status, oldest first
	ListByStatus(ctx context.Context, status entities.ClaimStatus, limit int) ([]*entities.Claim, error)

	// GetAllocations returns the per-position amounts a claim reserved
	GetAllocations(ctx context.Context, claimID int64) ([]entities.ClaimAllocation, error)
}

// AccrualRunRepository defines the interface for the per-date accrual watermark
type AccrualRunRepository interface {
	// TryCreate claims the run date. Returns false when another run already owns it.
	TryCreate(ctx context.Context, run *entities.AccrualRun) (bool, error)

	// Complete records the totals of a claimed run
	Complete(ctx context.Context, run *entities.AccrualRun) error

	// GetByDate retrieves the run for a calendar date
	GetByDate(ctx context.Context, date time.Time) (*entities.AccrualRun, error)

	// GetLatest returns the most recent run
	GetLatest(ctx context.Context) (*entities.AccrualRun, error)
}

// BonusDistributionRepository defines the interface for bonus pool audit records
type BonusDistributionRepository interface {
	// Create inserts a distribution record and fills in its ID and creation time
	Create(ctx context.Context, distribution *entities.BonusDistribution) error

	// GetLatest returns the most recent distribution
	GetLatest(ctx context.Context) (*entities.BonusDistribution, error)
}
