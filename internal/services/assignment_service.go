package services

import (
	"context"
	"fmt"
	"time"

	"asset-service/internal/apperr"
	"asset-service/internal/cache"
	"asset-service/internal/models"
	"asset-service/internal/repository"

	"go.uber.org/zap"
)

// AssignmentService checks stock out to personnel and back in. Assignment
// moves quantity between the available and assigned counters without
// changing the total; loss and damage write the outstanding amount off.
type AssignmentService interface {
	Create(ctx context.Context, actor *models.Actor, req *models.CreateAssignmentRequest) (*models.Assignment, error)
	Return(ctx context.Context, actor *models.Actor, id int, quantity int) (*models.Assignment, error)
	Close(ctx context.Context, actor *models.Actor, id int, status models.AssignmentStatus) (*models.Assignment, error)
	GetByID(ctx context.Context, actor *models.Actor, id int) (*models.Assignment, error)
	List(ctx context.Context, actor *models.Actor, filter *models.AssignmentFilter) ([]*models.Assignment, int, error)
}

type assignmentService struct {
	repo     repository.AssignmentRepository
	typeRepo repository.AssetTypeRepository
	txRunner repository.TxRunner
	invCache *cache.InventoryCache
	logger   *zap.Logger
}

// NewAssignmentService creates the service.
func NewAssignmentService(
	repo repository.AssignmentRepository,
	typeRepo repository.AssetTypeRepository,
	txRunner repository.TxRunner,
	invCache *cache.InventoryCache,
	logger *zap.Logger,
) AssignmentService {
	return &assignmentService{
		repo:     repo,
		typeRepo: typeRepo,
		txRunner: txRunner,
		invCache: invCache,
		logger:   logger,
	}
}

// Create checks out quantity: available drops, assigned rises, the total is
// unchanged. Fails when the base's available stock falls short.
func (s *assignmentService) Create(ctx context.Context, actor *models.Actor, req *models.CreateAssignmentRequest) (*models.Assignment, error) {
	logger := s.logger.With(
		zap.String("operation", "create_assignment"),
		zap.Int("asset_type_id", req.AssetTypeID),
		zap.Int("base_id", req.BaseID),
		zap.Int("quantity", req.Quantity),
		zap.Int("actor_id", actor.UserID),
	)

	if !actor.CanAccessBase(req.BaseID) {
		return nil, fmt.Errorf("base %d: %w", req.BaseID, apperr.ErrForbidden)
	}

	assetType, err := cachedAssetType(ctx, s.invCache, s.typeRepo, req.AssetTypeID)
	if err != nil {
		return nil, err
	}
	if assetType == nil {
		return nil, fmt.Errorf("asset type %d: %w", req.AssetTypeID, apperr.ErrNotFound)
	}

	assignmentDate := req.AssignmentDate
	if assignmentDate.IsZero() {
		assignmentDate = time.Now()
	}

	assignment := &models.Assignment{
		AssetTypeID:    req.AssetTypeID,
		BaseID:         req.BaseID,
		AssignedTo:     req.AssignedTo,
		Quantity:       req.Quantity,
		Status:         models.AssignmentActive,
		AssignmentDate: assignmentDate,
		CreatedBy:      actor.UserID,
	}

	err = s.txRunner.InTx(ctx, func(tx repository.Tx) error {
		rows, err := tx.InventoryRowsForUpdate(ctx, req.AssetTypeID, req.BaseID)
		if err != nil {
			return err
		}

		steps, err := planDepletion(rows, req.Quantity)
		if err != nil {
			return err
		}

		if err := tx.CreateAssignment(ctx, assignment); err != nil {
			return err
		}

		for _, step := range steps {
			before := step.Row.Quantity
			if err := applyDelta(step.Row, 0, -step.Consume, step.Consume); err != nil {
				return err
			}
			if err := tx.UpdateInventoryRow(ctx, step.Row); err != nil {
				return err
			}
			if err := tx.RecordMovement(ctx, &models.Movement{
				AssetTypeID:    req.AssetTypeID,
				BaseID:         req.BaseID,
				Action:         models.MovementAssignment,
				Quantity:       step.Consume,
				QuantityBefore: before,
				QuantityAfter:  step.Row.Quantity,
				Reference:      fmt.Sprintf("assignment %d", assignment.ID),
				ActorID:        actor.UserID,
			}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if apperr.IsClientError(err) {
			logger.Warn("Assignment refused", zap.Error(err))
		} else {
			logger.Error("Failed to create assignment", zap.Error(err))
		}
		return nil, err
	}

	s.invalidate(ctx, req.BaseID)
	logger.Info("Assignment created", zap.Int("assignment_id", assignment.ID))

	return assignment, nil
}

// Return credits part or all of an assignment back to available stock.
// returned_quantity never exceeds quantity; when it reaches quantity the
// assignment closes as returned.
func (s *assignmentService) Return(ctx context.Context, actor *models.Actor, id int, quantity int) (*models.Assignment, error) {
	logger := s.logger.With(
		zap.String("operation", "return_assignment"),
		zap.Int("assignment_id", id),
		zap.Int("quantity", quantity),
		zap.Int("actor_id", actor.UserID),
	)

	if quantity <= 0 {
		return nil, apperr.Validation("return quantity must be positive")
	}

	var returned *models.Assignment
	err := s.txRunner.InTx(ctx, func(tx repository.Tx) error {
		assignment, err := tx.GetAssignmentForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if assignment == nil {
			return fmt.Errorf("assignment %d: %w", id, apperr.ErrNotFound)
		}
		if !actor.CanAccessBase(assignment.BaseID) {
			return fmt.Errorf("assignment %d: %w", id, apperr.ErrForbidden)
		}
		if !assignment.Status.IsOpen() {
			return &apperr.InvalidStateTransitionError{
				Entity: "assignment",
				From:   string(assignment.Status),
				Action: "return",
			}
		}
		if quantity > assignment.Outstanding() {
			return apperr.Validation("cannot return %d: only %d outstanding", quantity, assignment.Outstanding())
		}

		if err := s.creditAssigned(ctx, tx, assignment, quantity, models.MovementReturn, actor.UserID, false); err != nil {
			return err
		}

		assignment.ReturnedQuantity += quantity
		if assignment.ReturnedQuantity == assignment.Quantity {
			now := time.Now()
			assignment.Status = models.AssignmentReturned
			assignment.ReturnDate = &now
		} else {
			assignment.Status = models.AssignmentPartiallyReturned
		}
		if err := tx.UpdateAssignment(ctx, assignment); err != nil {
			return err
		}

		returned = assignment
		return nil
	})
	if err != nil {
		if apperr.IsClientError(err) {
			logger.Warn("Return refused", zap.Error(err))
		} else {
			logger.Error("Failed to return assignment", zap.Error(err))
		}
		return nil, err
	}

	s.invalidate(ctx, returned.BaseID)
	logger.Info("Assignment return processed",
		zap.Int("returned_quantity", returned.ReturnedQuantity),
		zap.String("status", string(returned.Status)))

	return returned, nil
}

// Close writes the outstanding amount off as lost or damaged: it leaves the
// assigned counter and the total together, so the stock is gone for good.
func (s *assignmentService) Close(ctx context.Context, actor *models.Actor, id int, status models.AssignmentStatus) (*models.Assignment, error) {
	logger := s.logger.With(
		zap.String("operation", "close_assignment"),
		zap.Int("assignment_id", id),
		zap.String("status", string(status)),
		zap.Int("actor_id", actor.UserID),
	)

	if status != models.AssignmentLost && status != models.AssignmentDamaged {
		return nil, apperr.Validation("status must be lost or damaged")
	}

	var closed *models.Assignment
	err := s.txRunner.InTx(ctx, func(tx repository.Tx) error {
		assignment, err := tx.GetAssignmentForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if assignment == nil {
			return fmt.Errorf("assignment %d: %w", id, apperr.ErrNotFound)
		}
		if !actor.CanAccessBase(assignment.BaseID) {
			return fmt.Errorf("assignment %d: %w", id, apperr.ErrForbidden)
		}
		if !assignment.Status.IsOpen() {
			return &apperr.InvalidStateTransitionError{
				Entity: "assignment",
				From:   string(assignment.Status),
				Action: "close",
			}
		}

		outstanding := assignment.Outstanding()
		if outstanding > 0 {
			if err := s.creditAssigned(ctx, tx, assignment, outstanding, models.MovementWriteOff, actor.UserID, true); err != nil {
				return err
			}
		}

		assignment.Status = status
		if err := tx.UpdateAssignment(ctx, assignment); err != nil {
			return err
		}

		closed = assignment
		return nil
	})
	if err != nil {
		logger.Error("Failed to close assignment", zap.Error(err))
		return nil, err
	}

	s.invalidate(ctx, closed.BaseID)
	logger.Info("Assignment closed")

	return closed, nil
}

// creditAssigned walks the base's ledger rows and removes quantity from the
// assigned counter. Returns credit it back to available; write-offs remove
// it from the total as well.
func (s *assignmentService) creditAssigned(ctx context.Context, tx repository.Tx, assignment *models.Assignment, quantity int, action string, actorID int, writeOff bool) error {
	rows, err := tx.InventoryRowsForUpdate(ctx, assignment.AssetTypeID, assignment.BaseID)
	if err != nil {
		return err
	}

	remaining := quantity
	for _, row := range rows {
		if remaining == 0 {
			break
		}
		credit := row.AssignedQuantity
		if credit > remaining {
			credit = remaining
		}
		if credit == 0 {
			continue
		}

		before := row.Quantity
		var deltaErr error
		if writeOff {
			deltaErr = applyDelta(row, -credit, 0, -credit)
		} else {
			deltaErr = applyDelta(row, 0, credit, -credit)
		}
		if deltaErr != nil {
			return deltaErr
		}
		if err := tx.UpdateInventoryRow(ctx, row); err != nil {
			return err
		}
		if err := tx.RecordMovement(ctx, &models.Movement{
			AssetTypeID:    assignment.AssetTypeID,
			BaseID:         assignment.BaseID,
			Action:         action,
			Quantity:       credit,
			QuantityBefore: before,
			QuantityAfter:  row.Quantity,
			Reference:      fmt.Sprintf("assignment %d", assignment.ID),
			ActorID:        actorID,
		}); err != nil {
			return err
		}

		remaining -= credit
	}

	if remaining > 0 {
		return &apperr.InvariantViolationError{
			Msg: fmt.Sprintf("assigned counters short by %d for assignment %d", remaining, assignment.ID),
		}
	}

	return nil
}

func (s *assignmentService) GetByID(ctx context.Context, actor *models.Actor, id int) (*models.Assignment, error) {
	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if assignment == nil {
		return nil, fmt.Errorf("assignment %d: %w", id, apperr.ErrNotFound)
	}
	if !actor.CanAccessBase(assignment.BaseID) {
		return nil, fmt.Errorf("assignment %d: %w", id, apperr.ErrForbidden)
	}

	return assignment, nil
}

func (s *assignmentService) List(ctx context.Context, actor *models.Actor, filter *models.AssignmentFilter) ([]*models.Assignment, int, error) {
	if !actor.IsAdmin() {
		base := actor.BaseID
		filter.BaseID = &base
	}

	return s.repo.List(ctx, filter)
}

func (s *assignmentService) invalidate(ctx context.Context, baseID int) {
	if err := s.invCache.InvalidateBase(ctx, baseID); err != nil {
		s.logger.Warn("Failed to invalidate inventory cache", zap.Int("base_id", baseID), zap.Error(err))
	}
}
