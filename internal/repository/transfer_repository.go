package repository

import (
	"context"
	"database/sql"
	"fmt"

	"asset-service/internal/models"
)

// TransferRepository defines persistence for transfer requests. Status
// transitions that touch the ledger happen through Tx.
type TransferRepository interface {
	Create(ctx context.Context, t *models.Transfer) error
	GetByID(ctx context.Context, id int) (*models.Transfer, error)
	List(ctx context.Context, filter *models.TransferFilter) ([]*models.Transfer, int, error)
	Delete(ctx context.Context, id int) error
}

type transferRepository struct {
	db    *sql.DB
	stmts map[string]*sql.Stmt
}

// NewTransferRepository creates the repository and prepares its statements.
func NewTransferRepository(db *sql.DB) (TransferRepository, error) {
	repo := &transferRepository{
		db:    db,
		stmts: make(map[string]*sql.Stmt),
	}

	if err := repo.prepareStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return repo, nil
}

func (r *transferRepository) prepareStatements() error {
	statements := map[string]string{
		"create": `
			INSERT INTO transfers
			(transfer_number, asset_type_id, from_base_id, to_base_id, quantity, status, notes, requested_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at, updated_at
		`,
		"get_by_id": `
			SELECT id, transfer_number, asset_type_id, from_base_id, to_base_id,
			       quantity, status, notes, requested_by, approved_by, approved_at,
			       created_at, updated_at
			FROM transfers
			WHERE id = $1
		`,
		"delete": `
			DELETE FROM transfers WHERE id = $1
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

func (r *transferRepository) Create(ctx context.Context, t *models.Transfer) error {
	err := r.stmts["create"].QueryRowContext(ctx,
		t.TransferNumber, t.AssetTypeID, t.FromBaseID, t.ToBaseID,
		t.Quantity, t.Status, t.Notes, t.RequestedBy,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transfer: %w", err)
	}

	return nil
}

func (r *transferRepository) GetByID(ctx context.Context, id int) (*models.Transfer, error) {
	var t models.Transfer
	var notes sql.NullString
	err := r.stmts["get_by_id"].QueryRowContext(ctx, id).Scan(
		&t.ID, &t.TransferNumber, &t.AssetTypeID, &t.FromBaseID, &t.ToBaseID,
		&t.Quantity, &t.Status, &notes, &t.RequestedBy, &t.ApprovedBy, &t.ApprovedAt,
		&t.CreatedAt, &t.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transfer: %w", err)
	}

	t.Notes = notes.String
	return &t, nil
}

func (r *transferRepository) List(ctx context.Context, filter *models.TransferFilter) ([]*models.Transfer, int, error) {
	where := "WHERE 1=1"
	var args []interface{}

	if filter.BaseID != nil {
		args = append(args, *filter.BaseID)
		where += fmt.Sprintf(" AND (from_base_id = $%d OR to_base_id = $%d)", len(args), len(args))
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
	countQuery := "SELECT COUNT(*) FROM transfers " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transfers: %w", err)
	}

	query := `
		SELECT id, transfer_number, asset_type_id, from_base_id, to_base_id,
		       quantity, status, notes, requested_by, approved_by, approved_at,
		       created_at, updated_at
		FROM transfers ` + where
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))
	args = append(args, (filter.Page-1)*filter.Limit)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transfers: %w", err)
	}
	defer rows.Close()

	var transfers []*models.Transfer
	for rows.Next() {
		var t models.Transfer
		var notes sql.NullString
		if err := rows.Scan(
			&t.ID, &t.TransferNumber, &t.AssetTypeID, &t.FromBaseID, &t.ToBaseID,
			&t.Quantity, &t.Status, &notes, &t.RequestedBy, &t.ApprovedBy, &t.ApprovedAt,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan transfer: %w", err)
		}
		t.Notes = notes.String
		transfers = append(transfers, &t)
	}

	return transfers, total, rows.Err()
}

func (r *transferRepository) Delete(ctx context.Context, id int) error {
	result, err := r.stmts["delete"].ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete transfer: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no transfer with id %d", id)
	}

	return nil
}
