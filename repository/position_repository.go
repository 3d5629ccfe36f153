package repository

import (
	"context"
	"fmt"
	"time"

	"shogun/database"
	"shogun/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// PositionRepository implements the PositionRepository interface
type PositionRepository struct {
	q Queryable
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *database.DB) *PositionRepository {
	return &PositionRepository{q: db.Pool}
}

func newPositionRepository(q Queryable) *PositionRepository {
	return &PositionRepository{q: q}
}

const positionColumns = `id, user_id, template_id, price, daily_rate, purchased_at, operation_start_at,
	accrued, lifetime_accrued, cap, created_at, updated_at`

func scanPosition(row pgx.Row) (*entities.Position, error) {
	var p entities.Position
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.TemplateID,
		&p.Price,
		&p.DailyRate,
		&p.PurchasedAt,
		&p.OperationStartAt,
		&p.Accrued,
		&p.LifetimeAccrued,
		&p.Cap,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PositionRepository) query(ctx context.Context, sql string, args ...any) ([]*entities.Position, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []*entities.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// Create inserts a new position
func (r *PositionRepository) Create(ctx context.Context, p *entities.Position) error {
	query := `
		INSERT INTO positions
		(user_id, template_id, price, daily_rate, purchased_at, operation_start_at, accrued, lifetime_accrued, cap)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		p.UserID,
		p.TemplateID,
		p.Price,
		p.DailyRate,
		p.PurchasedAt,
		p.OperationStartAt,
		p.Accrued,
		p.LifetimeAccrued,
		p.Cap,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create position for user %d: %w", p.UserID, err)
	}
	return nil
}

// GetByUser returns a member's positions
func (r *PositionRepository) GetByUser(ctx context.Context, userID int64) ([]*entities.Position, error) {
	positions, err := r.query(ctx, `SELECT `+positionColumns+` FROM positions WHERE user_id = $1 ORDER BY purchased_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions of user %d: %w", userID, err)
	}
	return positions, nil
}

// GetByUserForUpdate returns and locks a member's positions
func (r *PositionRepository) GetByUserForUpdate(ctx context.Context, userID int64) ([]*entities.Position, error) {
	positions, err := r.query(ctx, `SELECT `+positionColumns+` FROM positions WHERE user_id = $1 ORDER BY id FOR UPDATE`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock positions of user %d: %w", userID, err)
	}
	return positions, nil
}

// GetByIDsForUpdate returns and locks positions by ID
func (r *PositionRepository) GetByIDsForUpdate(ctx context.Context, ids []int64) ([]*entities.Position, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	positions, err := r.query(ctx, `SELECT `+positionColumns+` FROM positions WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %d positions: %w", len(ids), err)
	}
	return positions, nil
}

// GetAccruableForUpdate returns and locks operating positions below their cap
func (r *PositionRepository) GetAccruableForUpdate(ctx context.Context, startedBefore time.Time) ([]*entities.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE operation_start_at < $1 AND lifetime_accrued < cap
		ORDER BY id
		FOR UPDATE
	`
	positions, err := r.query(ctx, query, startedBefore)
	if err != nil {
		return nil, fmt.Errorf("failed to lock accruable positions: %w", err)
	}
	return positions, nil
}

// UpdateAccrual persists a position's yield figures
func (r *PositionRepository) UpdateAccrual(ctx context.Context, id int64, accrued, lifetimeAccrued decimal.Decimal) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE positions
		SET accrued = $1, lifetime_accrued = $2, updated_at = NOW()
		WHERE id = $3
	`, accrued, lifetimeAccrued, id)
	if err != nil {
		return fmt.Errorf("failed to update accrual of position %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("position %d not found", id)
	}
	return nil
}

// SumPriceByUsers totals position prices per member
func (r *PositionRepository) SumPriceByUsers(ctx context.Context, userIDs []int64) (map[int64]decimal.Decimal, error) {
	sums := make(map[int64]decimal.Decimal, len(userIDs))
	if len(userIDs) == 0 {
		return sums, nil
	}

	rows, err := r.q.Query(ctx, `
		SELECT user_id, SUM(price)
		FROM positions
		WHERE user_id = ANY($1)
		GROUP BY user_id
	`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to sum investment of %d users: %w", len(userIDs), err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID int64
		var total decimal.Decimal
		if err := rows.Scan(&userID, &total); err != nil {
			return nil, fmt.Errorf("failed to scan investment sum: %w", err)
		}
		sums[userID] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate investment sums: %w", err)
	}
	return sums, nil
}

// MaxPriceByUser returns the price of a member's most expensive position
func (r *PositionRepository) MaxPriceByUser(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var maxPrice decimal.Decimal
	err := r.q.QueryRow(ctx, `SELECT COALESCE(MAX(price), 0) FROM positions WHERE user_id = $1`, userID).Scan(&maxPrice)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get largest position of user %d: %w", userID, err)
	}
	return maxPrice, nil
}
