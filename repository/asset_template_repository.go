package repository

import (
	"context"
	"errors"
	"fmt"

	"shogun/database"
	"shogun/domain/entities"

	"github.com/jackc/pgx/v5"
)

// AssetTemplateRepository implements the AssetTemplateRepository interface
type AssetTemplateRepository struct {
	q Queryable
}

// NewAssetTemplateRepository creates a new asset template repository
func NewAssetTemplateRepository(db *database.DB) *AssetTemplateRepository {
	return &AssetTemplateRepository{q: db.Pool}
}

func newAssetTemplateRepository(q Queryable) *AssetTemplateRepository {
	return &AssetTemplateRepository{q: q}
}

const templateColumns = `id, name, price, daily_rate, is_special, is_active, created_at, updated_at`

func scanTemplate(row pgx.Row) (*entities.AssetTemplate, error) {
	var t entities.AssetTemplate
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Price,
		&t.DailyRate,
		&t.IsSpecial,
		&t.IsActive,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByID retrieves a template by ID
func (r *AssetTemplateRepository) GetByID(ctx context.Context, id int64) (*entities.AssetTemplate, error) {
	t, err := scanTemplate(r.q.QueryRow(ctx, `SELECT `+templateColumns+` FROM asset_templates WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset template %d: %w", id, err)
	}
	return t, nil
}

// GetByName retrieves a template by name
func (r *AssetTemplateRepository) GetByName(ctx context.Context, name string) (*entities.AssetTemplate, error) {
	t, err := scanTemplate(r.q.QueryRow(ctx, `SELECT `+templateColumns+` FROM asset_templates WHERE name = $1`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset template %s: %w", name, err)
	}
	return t, nil
}

// List returns active templates by ascending price
func (r *AssetTemplateRepository) List(ctx context.Context, includeSpecial bool) ([]*entities.AssetTemplate, error) {
	query := `
		SELECT ` + templateColumns + `
		FROM asset_templates
		WHERE is_active AND ($1 OR NOT is_special)
		ORDER BY price, id
	`

	rows, err := r.q.Query(ctx, query, includeSpecial)
	if err != nil {
		return nil, fmt.Errorf("failed to list asset templates: %w", err)
	}
	defer rows.Close()

	var templates []*entities.AssetTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset template: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate asset templates: %w", err)
	}
	return templates, nil
}

// Upsert inserts or refreshes a template keyed by name
func (r *AssetTemplateRepository) Upsert(ctx context.Context, template *entities.AssetTemplate) (bool, error) {
	query := `
		INSERT INTO asset_templates (name, price, daily_rate, is_special, is_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			price = EXCLUDED.price,
			daily_rate = EXCLUDED.daily_rate,
			is_special = EXCLUDED.is_special,
			is_active = EXCLUDED.is_active,
			updated_at = NOW()
		RETURNING id, created_at, updated_at, (xmax = 0) AS inserted
	`

	var inserted bool
	err := r.q.QueryRow(ctx, query,
		template.Name,
		template.Price,
		template.DailyRate,
		template.IsSpecial,
		template.IsActive,
	).Scan(&template.ID, &template.CreatedAt, &template.UpdatedAt, &inserted)
	if err != nil {
		return false, fmt.Errorf("failed to upsert asset template %s: %w", template.Name, err)
	}
	return inserted, nil
}
