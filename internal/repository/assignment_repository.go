package repository

import (
	"context"
	"database/sql"
	"fmt"

	"asset-service/internal/models"
)

// AssignmentRepository defines read access to assignments. Creation and
// return bookkeeping go through Tx together with their ledger deltas.
type AssignmentRepository interface {
	GetByID(ctx context.Context, id int) (*models.Assignment, error)
	List(ctx context.Context, filter *models.AssignmentFilter) ([]*models.Assignment, int, error)
}

type assignmentRepository struct {
	db    *sql.DB
	stmts map[string]*sql.Stmt
}

// NewAssignmentRepository creates the repository and prepares its statements.
func NewAssignmentRepository(db *sql.DB) (AssignmentRepository, error) {
	repo := &assignmentRepository{
		db:    db,
		stmts: make(map[string]*sql.Stmt),
	}

	if err := repo.prepareStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return repo, nil
}

func (r *assignmentRepository) prepareStatements() error {
	statements := map[string]string{
		"get_by_id": `
			SELECT id, asset_type_id, base_id, assigned_to, quantity, returned_quantity,
			       status, assignment_date, return_date, created_by, created_at, updated_at
			FROM assignments
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

func (r *assignmentRepository) GetByID(ctx context.Context, id int) (*models.Assignment, error) {
	var a models.Assignment
	err := r.stmts["get_by_id"].QueryRowContext(ctx, id).Scan(
		&a.ID, &a.AssetTypeID, &a.BaseID, &a.AssignedTo, &a.Quantity, &a.ReturnedQuantity,
		&a.Status, &a.AssignmentDate, &a.ReturnDate, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	return &a, nil
}

func (r *assignmentRepository) List(ctx context.Context, filter *models.AssignmentFilter) ([]*models.Assignment, int, error) {
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
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		where += fmt.Sprintf(" AND assigned_to = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM assignments " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count assignments: %w", err)
	}

	query := `
		SELECT id, asset_type_id, base_id, assigned_to, quantity, returned_quantity,
		       status, assignment_date, return_date, created_by, created_at, updated_at
		FROM assignments ` + where
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY assignment_date DESC, id DESC LIMIT $%d", len(args))
	args = append(args, (filter.Page-1)*filter.Limit)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*models.Assignment
	for rows.Next() {
		var a models.Assignment
		if err := rows.Scan(
			&a.ID, &a.AssetTypeID, &a.BaseID, &a.AssignedTo, &a.Quantity, &a.ReturnedQuantity,
			&a.Status, &a.AssignmentDate, &a.ReturnDate, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, &a)
	}

	return assignments, total, rows.Err()
}
