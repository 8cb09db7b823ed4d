package repository

import (
	"context"
	"database/sql"
	"fmt"

	"asset-service/internal/models"
)

// AssetTypeRepository defines read access to the asset type catalog.
type AssetTypeRepository interface {
	GetByID(ctx context.Context, id int) (*models.AssetType, error)
	List(ctx context.Context) ([]*models.AssetType, error)
}

type assetTypeRepository struct {
	db    *sql.DB
	stmts map[string]*sql.Stmt
}

// NewAssetTypeRepository creates the repository and prepares its statements.
func NewAssetTypeRepository(db *sql.DB) (AssetTypeRepository, error) {
	repo := &assetTypeRepository{
		db:    db,
		stmts: make(map[string]*sql.Stmt),
	}

	if err := repo.prepareStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return repo, nil
}

func (r *assetTypeRepository) prepareStatements() error {
	statements := map[string]string{
		"get_by_id": `
			SELECT id, code, name, category, unit_value, active, created_at, updated_at
			FROM asset_types
			WHERE id = $1 AND active = true
		`,
		"list": `
			SELECT id, code, name, category, unit_value, active, created_at, updated_at
			FROM asset_types
			WHERE active = true
			ORDER BY code
		`,
	}

	for name, query := range statements {
		stmt, err := r.db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare %s: %w", name, err)
		}
		r.stmts[name] = stmt
	}

	return nil
}

// GetByID returns an active asset type, or nil when absent or inactive.
func (r *assetTypeRepository) GetByID(ctx context.Context, id int) (*models.AssetType, error) {
	var t models.AssetType
	err := r.stmts["get_by_id"].QueryRowContext(ctx, id).Scan(
		&t.ID, &t.Code, &t.Name, &t.Category, &t.UnitValue, &t.Active,
		&t.CreatedAt, &t.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset type: %w", err)
	}

	return &t, nil
}

func (r *assetTypeRepository) List(ctx context.Context) ([]*models.AssetType, error) {
	rows, err := r.stmts["list"].QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list asset types: %w", err)
	}
	defer rows.Close()

	var types []*models.AssetType
	for rows.Next() {
		var t models.AssetType
		if err := rows.Scan(
			&t.ID, &t.Code, &t.Name, &t.Category, &t.UnitValue, &t.Active,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan asset type: %w", err)
		}
		types = append(types, &t)
	}

	return types, rows.Err()
}
