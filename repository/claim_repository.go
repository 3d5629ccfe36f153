package repository

import (
	"context"
	"errors"
	"fmt"

	"shogun/database"
	"shogun/domain/entities"

	"github.com/jackc/pgx/v5"
)

// ClaimRepository implements the ClaimRepository interface
type ClaimRepository struct {
	q Queryable
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *database.DB) *ClaimRepository {
	return &ClaimRepository{q: db.Pool}
}

func newClaimRepository(q Queryable) *ClaimRepository {
	return &ClaimRepository{q: q}
}

const claimColumns = `id, user_id, claim_type, gross, fee, net, note, status, created_at, processed_at`

func scanClaim(row pgx.Row) (*entities.Claim, error) {
	var c entities.Claim
	var claimType, status string
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&claimType,
		&c.Gross,
		&c.Fee,
		&c.Net,
		&c.Note,
		&status,
		&c.CreatedAt,
		&c.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	c.ClaimType = entities.ClaimType(claimType)
	c.Status = entities.ClaimStatus(status)
	return &c, nil
}

// Create inserts a claim together with its allocations
func (r *ClaimRepository) Create(ctx context.Context, claim *entities.Claim, allocations []entities.ClaimAllocation) error {
	query := `
		INSERT INTO claims (user_id, claim_type, gross, fee, net, note, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		claim.UserID,
		string(claim.ClaimType),
		claim.Gross,
		claim.Fee,
		claim.Net,
		claim.Note,
		string(claim.Status),
	).Scan(&claim.ID, &claim.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create claim for user %d: %w", claim.UserID, err)
	}

	for i := range allocations {
		allocations[i].ClaimID = claim.ID
		_, err := r.q.Exec(ctx, `
			INSERT INTO claim_allocations (claim_id, position_id, amount)
			VALUES ($1, $2, $3)
		`, claim.ID, allocations[i].PositionID, allocations[i].Amount)
		if err != nil {
			return fmt.Errorf("failed to record allocation of position %d to claim %d: %w",
				allocations[i].PositionID, claim.ID, err)
		}
	}

	return nil
}

// GetByID retrieves a claim by ID
func (r *ClaimRepository) GetByID(ctx context.Context, id int64) (*entities.Claim, error) {
	c, err := scanClaim(r.q.QueryRow(ctx, `SELECT `+claimColumns+` FROM claims WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get claim %d: %w", id, err)
	}
	return c, nil
}

// GetByIDForUpdate retrieves and locks a claim
func (r *ClaimRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Claim, error) {
	c, err := scanClaim(r.q.QueryRow(ctx, `SELECT `+claimColumns+` FROM claims WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock claim %d: %w", id, err)
	}
	return c, nil
}

// UpdateStatus persists a claim's status transition
func (r *ClaimRepository) UpdateStatus(ctx context.Context, claim *entities.Claim) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE claims
		SET status = $1, processed_at = $2
		WHERE id = $3
	`, string(claim.Status), claim.ProcessedAt, claim.ID)
	if err != nil {
		return fmt.Errorf("failed to update status of claim %d: %w", claim.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("claim %d not found", claim.ID)
	}
	return nil
}

// ListByStatus returns claims in a status, oldest first
func (r *ClaimRepository) ListByStatus(ctx context.Context, status entities.ClaimStatus, limit int) ([]*entities.Claim, error) {
	query := `
		SELECT ` + claimColumns + `
		FROM claims
		WHERE status = $1
		ORDER BY created_at, id
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s claims: %w", status, err)
	}
	defer rows.Close()

	var claims []*entities.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claims: %w", err)
	}
	return claims, nil
}

// GetAllocations returns the amounts a claim reserved per position
func (r *ClaimRepository) GetAllocations(ctx context.Context, claimID int64) ([]entities.ClaimAllocation, error) {
	rows, err := r.q.Query(ctx, `
		SELECT claim_id, position_id, amount
		FROM claim_allocations
		WHERE claim_id = $1
		ORDER BY position_id
	`, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to get allocations of claim %d: %w", claimID, err)
	}

	allocations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.ClaimAllocation, error) {
		var a entities.ClaimAllocation
		err := row.Scan(&a.ClaimID, &a.PositionID, &a.Amount)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan allocations of claim %d: %w", claimID, err)
	}
	return allocations, nil
}
