package repository

import (
	"context"
	"database/sql"
	"fmt"

	"asset-service/internal/models"

	"github.com/lib/pq"
)

// PurchaseRepository defines persistence for purchase requests. Approval,
// which materializes stock, goes through Tx.
type PurchaseRepository interface {
	Create(ctx context.Context, p *models.Purchase) error
	GetByID(ctx context.Context, id int) (*models.Purchase, error)
	List(ctx context.Context, filter *models.PurchaseFilter) ([]*models.Purchase, int, error)
}

type purchaseRepository struct {
	db    *sql.DB
	stmts map[string]*sql.Stmt
}

// NewPurchaseRepository creates the repository and prepares its statements.
func NewPurchaseRepository(db *sql.DB) (PurchaseRepository, error) {
	repo := &purchaseRepository{
		db:    db,
		stmts: make(map[string]*sql.Stmt),
	}

	if err := repo.prepareStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return repo, nil
}

func (r *purchaseRepository) prepareStatements() error {
	statements := map[string]string{
		"create": `
			INSERT INTO purchases
			(purchase_number, asset_type_id, base_id, quantity, unit_cost, total_cost, status, requested_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at, updated_at
		`,
		"get_by_id": `
			SELECT id, purchase_number, asset_type_id, base_id, quantity, unit_cost,
			       total_cost, status, serial_numbers, requested_by, approved_by,
			       approved_at, created_at, updated_at
			FROM purchases
			WHERE id = $1
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

func (r *purchaseRepository) Create(ctx context.Context, p *models.Purchase) error {
	err := r.stmts["create"].QueryRowContext(ctx,
		p.PurchaseNumber, p.AssetTypeID, p.BaseID, p.Quantity,
		p.UnitCost, p.TotalCost, p.Status, p.RequestedBy,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create purchase: %w", err)
	}

	return nil
}

func (r *purchaseRepository) GetByID(ctx context.Context, id int) (*models.Purchase, error) {
	var p models.Purchase
	err := r.stmts["get_by_id"].QueryRowContext(ctx, id).Scan(
		&p.ID, &p.PurchaseNumber, &p.AssetTypeID, &p.BaseID, &p.Quantity, &p.UnitCost,
		&p.TotalCost, &p.Status, pq.Array(&p.SerialNumbers), &p.RequestedBy, &p.ApprovedBy,
		&p.ApprovedAt, &p.CreatedAt, &p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}

	return &p, nil
}

func (r *purchaseRepository) List(ctx context.Context, filter *models.PurchaseFilter) ([]*models.Purchase, int, error) {
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
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM purchases " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count purchases: %w", err)
	}

	query := `
		SELECT id, purchase_number, asset_type_id, base_id, quantity, unit_cost,
		       total_cost, status, serial_numbers, requested_by, approved_by,
		       approved_at, created_at, updated_at
		FROM purchases ` + where
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))
	args = append(args, (filter.Page-1)*filter.Limit)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list purchases: %w", err)
	}
	defer rows.Close()

	var purchases []*models.Purchase
	for rows.Next() {
		var p models.Purchase
		if err := rows.Scan(
			&p.ID, &p.PurchaseNumber, &p.AssetTypeID, &p.BaseID, &p.Quantity, &p.UnitCost,
			&p.TotalCost, &p.Status, pq.Array(&p.SerialNumbers), &p.RequestedBy, &p.ApprovedBy,
			&p.ApprovedAt, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan purchase: %w", err)
		}
		purchases = append(purchases, &p)
	}

	return purchases, total, rows.Err()
}
