package repository

import (
	"context"
	"errors"
	"fmt"

	"shogun/database"
	"shogun/domain/entities"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q Queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepository creates a user repository bound to a transaction
func newUserRepository(q Queryable) *UserRepository {
	return &UserRepository{q: q}
}

const userColumns = `id, login_id, name, referrer_id, wallet_type, rank, bonus_balance, created_at, updated_at`

func scanUser(row pgx.Row) (*entities.User, error) {
	var user entities.User
	var walletType string
	var rank *string

	err := row.Scan(
		&user.ID,
		&user.LoginID,
		&user.Name,
		&user.ReferrerID,
		&walletType,
		&rank,
		&user.BonusBalance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.WalletType = entities.WalletType(walletType)
	if rank != nil {
		r := entities.RankName(*rank)
		user.Rank = &r
	}
	return &user, nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...any) (*entities.User, error) {
	user, err := scanUser(r.q.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return user, err
}

func (r *UserRepository) getMany(ctx context.Context, query string, args ...any) ([]*entities.User, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*entities.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Create inserts a new member
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	query := `
		INSERT INTO users (login_id, name, referrer_id, wallet_type, bonus_balance)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		user.LoginID,
		user.Name,
		user.ReferrerID,
		string(user.WalletType),
		user.BonusBalance,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user %s: %w", user.LoginID, err)
	}

	return nil
}

// GetByID retrieves a member by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	user, err := r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

// GetByIDForUpdate retrieves a member by ID and locks the row
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.User, error) {
	user, err := r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock user %d: %w", id, err)
	}
	return user, nil
}

// GetByLoginID retrieves a member by login handle
func (r *UserRepository) GetByLoginID(ctx context.Context, loginID string) (*entities.User, error) {
	user, err := r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE login_id = $1`, loginID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by login id %s: %w", loginID, err)
	}
	return user, nil
}

// GetChildren returns the direct referrals of every parent, grouped by parent
func (r *UserRepository) GetChildren(ctx context.Context, parentIDs []int64) ([]*entities.User, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE referrer_id = ANY($1) ORDER BY referrer_id, id`
	users, err := r.getMany(ctx, query, parentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get referrals of %d users: %w", len(parentIDs), err)
	}
	return users, nil
}

// GetAllIDs returns every member ID
func (r *UserRepository) GetAllIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan user ids: %w", err)
	}
	return ids, nil
}

// UpdateRank writes the cached rank
func (r *UserRepository) UpdateRank(ctx context.Context, id int64, rank *entities.RankName) error {
	var value *string
	if rank != nil {
		s := string(*rank)
		value = &s
	}

	tag, err := r.q.Exec(ctx, `UPDATE users SET rank = $1, updated_at = NOW() WHERE id = $2`, value, id)
	if err != nil {
		return fmt.Errorf("failed to update rank of user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d not found", id)
	}
	return nil
}

// GetByRankForUpdate returns and locks every member cached at rank
func (r *UserRepository) GetByRankForUpdate(ctx context.Context, rank entities.RankName) ([]*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE rank = $1 ORDER BY id FOR UPDATE`
	users, err := r.getMany(ctx, query, string(rank))
	if err != nil {
		return nil, fmt.Errorf("failed to get users ranked %s: %w", rank, err)
	}
	return users, nil
}

// AddBonusBalance credits amount to each member's bonus balance
func (r *UserRepository) AddBonusBalance(ctx context.Context, ids []int64, amount decimal.Decimal) error {
	if len(ids) == 0 {
		return nil
	}

	tag, err := r.q.Exec(ctx, `
		UPDATE users
		SET bonus_balance = bonus_balance + $1, updated_at = NOW()
		WHERE id = ANY($2)
	`, amount, ids)
	if err != nil {
		return fmt.Errorf("failed to credit bonus to %d users: %w", len(ids), err)
	}
	if tag.RowsAffected() != int64(len(ids)) {
		return fmt.Errorf("credited %d users, expected %d", tag.RowsAffected(), len(ids))
	}
	return nil
}
