package repository

import (
	"context"
	"database/sql"
	"fmt"

	"asset-service/internal/models"
)

// ExpenditureRepository defines read and metadata-edit access to
// expenditures. Creation, which depletes the ledger, goes through Tx.
type ExpenditureRepository interface {
	GetByID(ctx context.Context, id int) (*models.Expenditure, error)
	List(ctx context.Context, filter *models.ExpenditureFilter) ([]*models.Expenditure, int, error)
	UpdateMetadata(ctx context.Context, e *models.Expenditure) error
	Delete(ctx context.Context, id int) error
}

type expenditureRepository struct {
	db    *sql.DB
	stmts map[string]*sql.Stmt
}

// NewExpenditureRepository creates the repository and prepares its statements.
func NewExpenditureRepository(db *sql.DB) (ExpenditureRepository, error) {
	repo := &expenditureRepository{
		db:    db,
		stmts: make(map[string]*sql.Stmt),
	}

	if err := repo.prepareStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return repo, nil
}

func (r *expenditureRepository) prepareStatements() error {
	statements := map[string]string{
		"get_by_id": `
			SELECT id, asset_type_id, base_id, quantity, expenditure_date, reason,
			       created_by, created_at, updated_at
			FROM expenditures
			WHERE id = $1
		`,
		"update_metadata": `
			UPDATE expenditures
			SET expenditure_date = $1, reason = $2, updated_at = NOW()
			WHERE id = $3
		`,
		"delete": `
			DELETE FROM expenditures WHERE id = $1
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

func (r *expenditureRepository) GetByID(ctx context.Context, id int) (*models.Expenditure, error) {
	var e models.Expenditure
	err := r.stmts["get_by_id"].QueryRowContext(ctx, id).Scan(
		&e.ID, &e.AssetTypeID, &e.BaseID, &e.Quantity, &e.ExpenditureDate, &e.Reason,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expenditure: %w", err)
	}

	return &e, nil
}

func (r *expenditureRepository) List(ctx context.Context, filter *models.ExpenditureFilter) ([]*models.Expenditure, int, error) {
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
	countQuery := "SELECT COUNT(*) FROM expenditures " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count expenditures: %w", err)
	}

	query := `
		SELECT id, asset_type_id, base_id, quantity, expenditure_date, reason,
		       created_by, created_at, updated_at
		FROM expenditures ` + where
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY expenditure_date DESC, id DESC LIMIT $%d", len(args))
	args = append(args, (filter.Page-1)*filter.Limit)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list expenditures: %w", err)
	}
	defer rows.Close()

	var expenditures []*models.Expenditure
	for rows.Next() {
		var e models.Expenditure
		if err := rows.Scan(
			&e.ID, &e.AssetTypeID, &e.BaseID, &e.Quantity, &e.ExpenditureDate, &e.Reason,
			&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan expenditure: %w", err)
		}
		expenditures = append(expenditures, &e)
	}

	return expenditures, total, rows.Err()
}

// UpdateMetadata writes date and reason only. Quantity is immutable after
// the depletion it triggered.
func (r *expenditureRepository) UpdateMetadata(ctx context.Context, e *models.Expenditure) error {
	result, err := r.stmts["update_metadata"].ExecContext(ctx, e.ExpenditureDate, e.Reason, e.ID)
	if err != nil {
		return fmt.Errorf("failed to update expenditure: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no expenditure with id %d", e.ID)
	}

	return nil
}

func (r *expenditureRepository) Delete(ctx context.Context, id int) error {
	result, err := r.stmts["delete"].ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete expenditure: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no expenditure with id %d", id)
	}

	return nil
}
