package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shogun/database"
	"shogun/domain/entities"

	"github.com/jackc/pgx/v5"
)

// BonusDistributionRepository implements the BonusDistributionRepository interface
type BonusDistributionRepository struct {
	q Queryable
}

// NewBonusDistributionRepository creates a new bonus distribution repository
func NewBonusDistributionRepository(db *database.DB) *BonusDistributionRepository {
	return &BonusDistributionRepository{q: db.Pool}
}

func newBonusDistributionRepository(q Queryable) *BonusDistributionRepository {
	return &BonusDistributionRepository{q: q}
}

// Create inserts a distribution record
func (r *BonusDistributionRepository) Create(ctx context.Context, d *entities.BonusDistribution) error {
	breakdownJSON, err := json.Marshal(d.Breakdown)
	if err != nil {
		return fmt.Errorf("failed to marshal bonus breakdown: %w", err)
	}

	query := `
		INSERT INTO bonus_distributions (pool_amount, total_distributed, breakdown)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err = r.q.QueryRow(ctx, query, d.PoolAmount, d.TotalDistributed, breakdownJSON).Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bonus distribution: %w", err)
	}
	return nil
}

// GetLatest returns the most recent distribution
func (r *BonusDistributionRepository) GetLatest(ctx context.Context) (*entities.BonusDistribution, error) {
	query := `
		SELECT id, pool_amount, total_distributed, breakdown, created_at
		FROM bonus_distributions
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var d entities.BonusDistribution
	var breakdownJSON []byte
	err := r.q.QueryRow(ctx, query).Scan(&d.ID, &d.PoolAmount, &d.TotalDistributed, &breakdownJSON, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest bonus distribution: %w", err)
	}

	if len(breakdownJSON) > 0 {
		if err := json.Unmarshal(breakdownJSON, &d.Breakdown); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bonus breakdown: %w", err)
		}
	}
	return &d, nil
}
