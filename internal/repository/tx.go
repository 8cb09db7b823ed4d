package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"asset-service/internal/models"

	"github.com/lib/pq"
)

// Tx is the row-locked view workflows get inside a database transaction.
// Every multi-statement ledger mutation goes through it so that concurrent
// requests on the same rows serialize instead of losing updates.
type Tx interface {
	// Ledger rows, locked with SELECT ... FOR UPDATE, largest available first.
	InventoryRowsForUpdate(ctx context.Context, assetTypeID, baseID int) ([]*models.InventoryRow, error)
	UpdateInventoryRow(ctx context.Context, row *models.InventoryRow) error
	CreateInventoryRow(ctx context.Context, row *models.InventoryRow) error
	RecordMovement(ctx context.Context, m *models.Movement) error

	// Workflow records mutated alongside the ledger.
	GetTransferForUpdate(ctx context.Context, id int) (*models.Transfer, error)
	UpdateTransferStatus(ctx context.Context, t *models.Transfer) error
	GetPurchaseForUpdate(ctx context.Context, id int) (*models.Purchase, error)
	UpdatePurchaseStatus(ctx context.Context, p *models.Purchase) error
	CreateExpenditure(ctx context.Context, e *models.Expenditure) error
	CreateAssignment(ctx context.Context, a *models.Assignment) error
	GetAssignmentForUpdate(ctx context.Context, id int) (*models.Assignment, error)
	UpdateAssignment(ctx context.Context, a *models.Assignment) error
}

// TxRunner runs a function inside a single all-or-nothing transaction.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

type txRunner struct {
	db *sql.DB
}

// NewTxRunner wraps a database handle for transactional workflow steps.
func NewTxRunner(db *sql.DB) TxRunner {
	return &txRunner{db: db}
}

func (r *txRunner) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&txStore{tx: tx}); err != nil {
		return err
	}

	return tx.Commit()
}

// txStore implements Tx over a live *sql.Tx.
type txStore struct {
	tx *sql.Tx
}

func (s *txStore) InventoryRowsForUpdate(ctx context.Context, assetTypeID, baseID int) ([]*models.InventoryRow, error) {
	rows, err := s.tx.QueryContext(ctx, `
		SELECT id, asset_type_id, base_id, quantity, available_quantity,
		       assigned_quantity, status, created_at, updated_at
		FROM asset_inventory
		WHERE asset_type_id = $1 AND base_id = $2
		ORDER BY available_quantity DESC, id ASC
		FOR UPDATE
	`, assetTypeID, baseID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock inventory rows: %w", err)
	}
	defer rows.Close()

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

func (s *txStore) UpdateInventoryRow(ctx context.Context, row *models.InventoryRow) error {
	result, err := s.tx.ExecContext(ctx, `
		UPDATE asset_inventory
		SET quantity = $1, available_quantity = $2, assigned_quantity = $3,
		    status = $4, updated_at = NOW()
		WHERE id = $5
	`, row.Quantity, row.AvailableQuantity, row.AssignedQuantity, row.Status, row.ID)
	if err != nil {
		return fmt.Errorf("failed to update inventory row: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no inventory row with id %d", row.ID)
	}

	return nil
}

func (s *txStore) CreateInventoryRow(ctx context.Context, row *models.InventoryRow) error {
	err := s.tx.QueryRowContext(ctx, `
		INSERT INTO asset_inventory
		(asset_type_id, base_id, quantity, available_quantity, assigned_quantity, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, row.AssetTypeID, row.BaseID, row.Quantity, row.AvailableQuantity,
		row.AssignedQuantity, row.Status,
	).Scan(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create inventory row: %w", err)
	}

	return nil
}

func (s *txStore) RecordMovement(ctx context.Context, m *models.Movement) error {
	err := s.tx.QueryRowContext(ctx, `
		INSERT INTO inventory_movements
		(asset_type_id, base_id, action, quantity, quantity_before, quantity_after, reference, actor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, m.AssetTypeID, m.BaseID, m.Action, m.Quantity, m.QuantityBefore,
		m.QuantityAfter, m.Reference, m.ActorID,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record movement: %w", err)
	}

	return nil
}

// GetTransferForUpdate locks the transfer row so concurrent approvals of
// the same transfer serialize and the loser sees the new status.
func (s *txStore) GetTransferForUpdate(ctx context.Context, id int) (*models.Transfer, error) {
	var t models.Transfer
	var notes sql.NullString
	err := s.tx.QueryRowContext(ctx, `
		SELECT id, transfer_number, asset_type_id, from_base_id, to_base_id,
		       quantity, status, notes, requested_by, approved_by, approved_at,
		       created_at, updated_at
		FROM transfers
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(
		&t.ID, &t.TransferNumber, &t.AssetTypeID, &t.FromBaseID, &t.ToBaseID,
		&t.Quantity, &t.Status, &notes, &t.RequestedBy, &t.ApprovedBy, &t.ApprovedAt,
		&t.CreatedAt, &t.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock transfer: %w", err)
	}

	t.Notes = notes.String
	return &t, nil
}

func (s *txStore) GetPurchaseForUpdate(ctx context.Context, id int) (*models.Purchase, error) {
	var p models.Purchase
	err := s.tx.QueryRowContext(ctx, `
		SELECT id, purchase_number, asset_type_id, base_id, quantity, unit_cost,
		       total_cost, status, serial_numbers, requested_by, approved_by,
		       approved_at, created_at, updated_at
		FROM purchases
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(
		&p.ID, &p.PurchaseNumber, &p.AssetTypeID, &p.BaseID, &p.Quantity, &p.UnitCost,
		&p.TotalCost, &p.Status, pq.Array(&p.SerialNumbers), &p.RequestedBy, &p.ApprovedBy,
		&p.ApprovedAt, &p.CreatedAt, &p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock purchase: %w", err)
	}

	return &p, nil
}

func (s *txStore) UpdateTransferStatus(ctx context.Context, t *models.Transfer) error {
	_, err := s.tx.ExecContext(ctx, `
		UPDATE transfers
		SET status = $1, notes = $2, approved_by = $3, approved_at = $4, updated_at = NOW()
		WHERE id = $5
	`, t.Status, t.Notes, t.ApprovedBy, t.ApprovedAt, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update transfer status: %w", err)
	}

	return nil
}

func (s *txStore) UpdatePurchaseStatus(ctx context.Context, p *models.Purchase) error {
	_, err := s.tx.ExecContext(ctx, `
		UPDATE purchases
		SET status = $1, serial_numbers = $2, approved_by = $3, approved_at = $4, updated_at = NOW()
		WHERE id = $5
	`, p.Status, pq.Array(p.SerialNumbers), p.ApprovedBy, p.ApprovedAt, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update purchase status: %w", err)
	}

	return nil
}

func (s *txStore) CreateExpenditure(ctx context.Context, e *models.Expenditure) error {
	err := s.tx.QueryRowContext(ctx, `
		INSERT INTO expenditures
		(asset_type_id, base_id, quantity, expenditure_date, reason, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, e.AssetTypeID, e.BaseID, e.Quantity, e.ExpenditureDate, e.Reason, e.CreatedBy,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expenditure: %w", err)
	}

	return nil
}

func (s *txStore) CreateAssignment(ctx context.Context, a *models.Assignment) error {
	if a.AssignmentDate.IsZero() {
		a.AssignmentDate = time.Now()
	}

	err := s.tx.QueryRowContext(ctx, `
		INSERT INTO assignments
		(asset_type_id, base_id, assigned_to, quantity, returned_quantity, status, assignment_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, a.AssetTypeID, a.BaseID, a.AssignedTo, a.Quantity, a.ReturnedQuantity,
		a.Status, a.AssignmentDate, a.CreatedBy,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create assignment: %w", err)
	}

	return nil
}

func (s *txStore) GetAssignmentForUpdate(ctx context.Context, id int) (*models.Assignment, error) {
	var a models.Assignment
	err := s.tx.QueryRowContext(ctx, `
		SELECT id, asset_type_id, base_id, assigned_to, quantity, returned_quantity,
		       status, assignment_date, return_date, created_by, created_at, updated_at
		FROM assignments
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(
		&a.ID, &a.AssetTypeID, &a.BaseID, &a.AssignedTo, &a.Quantity, &a.ReturnedQuantity,
		&a.Status, &a.AssignmentDate, &a.ReturnDate, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock assignment: %w", err)
	}

	return &a, nil
}

func (s *txStore) UpdateAssignment(ctx context.Context, a *models.Assignment) error {
	_, err := s.tx.ExecContext(ctx, `
		UPDATE assignments
		SET returned_quantity = $1, status = $2, return_date = $3, updated_at = NOW()
		WHERE id = $4
	`, a.ReturnedQuantity, a.Status, a.ReturnDate, a.ID)
	if err != nil {
		return fmt.Errorf("failed to update assignment: %w", err)
	}

	return nil
}
