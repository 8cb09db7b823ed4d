package repository

import (
	"context"
	"database/sql"
	"fmt"

	"asset-service/internal/models"
)

// InventoryRepository defines read access to ledger rows and the movement
// audit trail. Mutations go through Tx.
type InventoryRepository interface {
	GetByID(ctx context.Context, id int) (*models.InventoryRow, error)
	GetRows(ctx context.Context, assetTypeID, baseID int) ([]*models.InventoryRow, error)
	List(ctx context.Context, filter *models.InventoryFilter) ([]*models.InventoryRow, int, error)
	ListMovements(ctx context.Context, filter *models.MovementFilter) ([]*models.Movement, int, error)
}

type inventoryRepository struct {
	db    *sql.DB
	stmts map[string]*sql.Stmt
}

// NewInventoryRepository creates the repository and prepares its statements.
func NewInventoryRepository(db *sql.DB) (InventoryRepository, error) {
	repo := &inventoryRepository{
		db:    db,
		stmts: make(map[string]*sql.Stmt),
	}

	if err := repo.prepareStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return repo, nil
}

func (r *inventoryRepository) prepareStatements() error {
	statements := map[string]string{
		"get_by_id": `
			SELECT id, asset_type_id, base_id, quantity, available_quantity,
			       assigned_quantity, status, created_at, updated_at
			FROM asset_inventory
			WHERE id = $1
		`,
		"get_rows": `
			SELECT id, asset_type_id, base_id, quantity, available_quantity,
			       assigned_quantity, status, created_at, updated_at
			FROM asset_inventory
			WHERE asset_type_id = $1 AND base_id = $2
			ORDER BY available_quantity DESC, id ASC
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

// GetByID returns a single ledger row, or nil when absent.
func (r *inventoryRepository) GetByID(ctx context.Context, id int) (*models.InventoryRow, error) {
	var row models.InventoryRow
	err := r.stmts["get_by_id"].QueryRowContext(ctx, id).Scan(
		&row.ID, &row.AssetTypeID, &row.BaseID, &row.Quantity, &row.AvailableQuantity,
		&row.AssignedQuantity, &row.Status, &row.CreatedAt, &row.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory row: %w", err)
	}

	return &row, nil
}

// GetRows returns every ledger row for (asset type, base), largest
// available quantity first.
func (r *inventoryRepository) GetRows(ctx context.Context, assetTypeID, baseID int) ([]*models.InventoryRow, error) {
	rows, err := r.stmts["get_rows"].QueryContext(ctx, assetTypeID, baseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory rows: %w", err)
	}
	defer rows.Close()

	return scanInventoryRows(rows)
}

// List returns a page of ledger rows plus the unpaged total.
func (r *inventoryRepository) List(ctx context.Context, filter *models.InventoryFilter) ([]*models.InventoryRow, int, error) {
	where := "WHERE 1=1"
	var args []interface{}

	if filter.BaseID != nil {
		args = append(args, *filter.BaseID)
		where += fmt.Sprintf(" AND base_id = $%d", len(args))
	}
	if filter.AssetTypeID != nil {
		args = append(args, *filter.AssetTypeID)
		where += fmt.Sprintf(" AND asset_type_id = $%d", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM asset_inventory " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count inventory rows: %w", err)
	}

	query := `
		SELECT id, asset_type_id, base_id, quantity, available_quantity,
		       assigned_quantity, status, created_at, updated_at
		FROM asset_inventory ` + where
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY base_id, asset_type_id, id LIMIT $%d", len(args))
	args = append(args, (filter.Page-1)*filter.Limit)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list inventory rows: %w", err)
	}
	defer rows.Close()

	result, err := scanInventoryRows(rows)
	if err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

// ListMovements returns a page of the audit trail, newest first.
func (r *inventoryRepository) ListMovements(ctx context.Context, filter *models.MovementFilter) ([]*models.Movement, int, error) {
	where := "WHERE 1=1"
	var args []interface{}

	if filter.BaseID != nil {
		args = append(args, *filter.BaseID)
		where += fmt.Sprintf(" AND base_id = $%d", len(args))
	}
	if filter.AssetTypeID != nil {
		args = append(args, *filter.AssetTypeID)
		where += fmt.Sprintf(" AND asset_type_id = $%d", len(args))
	}
	if filter.Action != nil {
		args = append(args, *filter.Action)
		where += fmt.Sprintf(" AND action = $%d", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM inventory_movements " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count movements: %w", err)
	}

	query := `
		SELECT id, asset_type_id, base_id, action, quantity, quantity_before,
		       quantity_after, reference, actor_id, created_at
		FROM inventory_movements ` + where
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))
	args = append(args, (filter.Page-1)*filter.Limit)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list movements: %w", err)
	}
	defer rows.Close()

	var movements []*models.Movement
	for rows.Next() {
		var m models.Movement
		if err := rows.Scan(
			&m.ID, &m.AssetTypeID, &m.BaseID, &m.Action, &m.Quantity,
			&m.QuantityBefore, &m.QuantityAfter, &m.Reference, &m.ActorID, &m.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan movement: %w", err)
		}
		movements = append(movements, &m)
	}

	return movements, total, rows.Err()
}

func scanInventoryRows(rows *sql.Rows) ([]*models.InventoryRow, error) {
	var result []*models.InventoryRow
	for rows.Next() {
		var r models.InventoryRow
		if err := rows.Scan(
			&r.ID, &r.AssetTypeID, &r.BaseID, &r.Quantity, &r.AvailableQuantity,
			&r.AssignedQuantity, &r.Status, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		result = append(result, &r)
	}

	return result, rows.Err()
}
