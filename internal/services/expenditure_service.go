package services

import (
	"context"
	"fmt"

	"asset-service/internal/apperr"
	"asset-service/internal/cache"
	"asset-service/internal/models"
	"asset-service/internal/repository"

	"go.uber.org/zap"
)

// ExpenditureService consumes stock permanently. Depletion walks the ledger
// rows largest-available-first inside one transaction; later edits touch
// metadata only and never re-credit what was spent.
type ExpenditureService interface {
	Create(ctx context.Context, actor *models.Actor, req *models.CreateExpenditureRequest) (*models.Expenditure, error)
	Update(ctx context.Context, actor *models.Actor, id int, req *models.UpdateExpenditureRequest) (*models.Expenditure, error)
	Delete(ctx context.Context, actor *models.Actor, id int) error
	GetByID(ctx context.Context, actor *models.Actor, id int) (*models.Expenditure, error)
	List(ctx context.Context, actor *models.Actor, filter *models.ExpenditureFilter) ([]*models.Expenditure, int, error)
}

type expenditureService struct {
	repo     repository.ExpenditureRepository
	typeRepo repository.AssetTypeRepository
	txRunner repository.TxRunner
	invCache *cache.InventoryCache
	logger   *zap.Logger
}

// NewExpenditureService creates the service.
func NewExpenditureService(
	repo repository.ExpenditureRepository,
	typeRepo repository.AssetTypeRepository,
	txRunner repository.TxRunner,
	invCache *cache.InventoryCache,
	logger *zap.Logger,
) ExpenditureService {
	return &expenditureService{
		repo:     repo,
		typeRepo: typeRepo,
		txRunner: txRunner,
		invCache: invCache,
		logger:   logger,
	}
}

// Create depletes the base's ledger rows and records the expenditure in one
// atomic step. A shortfall fails the whole request with the available and
// requested counts.
func (s *expenditureService) Create(ctx context.Context, actor *models.Actor, req *models.CreateExpenditureRequest) (*models.Expenditure, error) {
	logger := s.logger.With(
		zap.String("operation", "create_expenditure"),
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

	expenditure := &models.Expenditure{
		AssetTypeID:     req.AssetTypeID,
		BaseID:          req.BaseID,
		Quantity:        req.Quantity,
		ExpenditureDate: req.ExpenditureDate,
		Reason:          req.Reason,
		CreatedBy:       actor.UserID,
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

		if err := tx.CreateExpenditure(ctx, expenditure); err != nil {
			return err
		}

		for _, step := range steps {
			before := step.Row.Quantity
			if err := applyDelta(step.Row, -step.Consume, -step.Consume, 0); err != nil {
				return err
			}
			if err := tx.UpdateInventoryRow(ctx, step.Row); err != nil {
				return err
			}
			if err := tx.RecordMovement(ctx, &models.Movement{
				AssetTypeID:    req.AssetTypeID,
				BaseID:         req.BaseID,
				Action:         models.MovementExpenditure,
				Quantity:       step.Consume,
				QuantityBefore: before,
				QuantityAfter:  step.Row.Quantity,
				Reference:      fmt.Sprintf("expenditure %d", expenditure.ID),
				ActorID:        actor.UserID,
			}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if apperr.IsClientError(err) {
			logger.Warn("Expenditure refused", zap.Error(err))
		} else {
			logger.Error("Failed to create expenditure", zap.Error(err))
		}
		return nil, err
	}

	s.invalidate(ctx, req.BaseID)
	logger.Info("Expenditure created", zap.Int("expenditure_id", expenditure.ID))

	return expenditure, nil
}

// Update edits metadata only. Quantity and asset type stay immutable so the
// depletion already applied is never silently re-credited.
func (s *expenditureService) Update(ctx context.Context, actor *models.Actor, id int, req *models.UpdateExpenditureRequest) (*models.Expenditure, error) {
	expenditure, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expenditure == nil {
		return nil, fmt.Errorf("expenditure %d: %w", id, apperr.ErrNotFound)
	}
	if !actor.CanAccessBase(expenditure.BaseID) {
		return nil, fmt.Errorf("expenditure %d: %w", id, apperr.ErrForbidden)
	}

	if req.ExpenditureDate != nil {
		expenditure.ExpenditureDate = *req.ExpenditureDate
	}
	if req.Reason != nil {
		if *req.Reason == "" {
			return nil, apperr.Validation("reason cannot be empty")
		}
		expenditure.Reason = *req.Reason
	}

	if err := s.repo.UpdateMetadata(ctx, expenditure); err != nil {
		return nil, err
	}

	s.logger.Info("Expenditure updated",
		zap.String("operation", "update_expenditure"),
		zap.Int("expenditure_id", id),
		zap.Int("actor_id", actor.UserID))

	return expenditure, nil
}

// Delete removes the record without re-crediting stock. Admin only.
func (s *expenditureService) Delete(ctx context.Context, actor *models.Actor, id int) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("expenditure %d: %w", id, apperr.ErrForbidden)
	}

	expenditure, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if expenditure == nil {
		return fmt.Errorf("expenditure %d: %w", id, apperr.ErrNotFound)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Expenditure deleted",
		zap.String("operation", "delete_expenditure"),
		zap.Int("expenditure_id", id),
		zap.Int("actor_id", actor.UserID))

	return nil
}

func (s *expenditureService) GetByID(ctx context.Context, actor *models.Actor, id int) (*models.Expenditure, error) {
	expenditure, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expenditure == nil {
		return nil, fmt.Errorf("expenditure %d: %w", id, apperr.ErrNotFound)
	}
	if !actor.CanAccessBase(expenditure.BaseID) {
		return nil, fmt.Errorf("expenditure %d: %w", id, apperr.ErrForbidden)
	}

	return expenditure, nil
}

func (s *expenditureService) List(ctx context.Context, actor *models.Actor, filter *models.ExpenditureFilter) ([]*models.Expenditure, int, error) {
	if !actor.IsAdmin() {
		base := actor.BaseID
		filter.BaseID = &base
	}

	return s.repo.List(ctx, filter)
}

func (s *expenditureService) invalidate(ctx context.Context, baseID int) {
	if err := s.invCache.InvalidateBase(ctx, baseID); err != nil {
		s.logger.Warn("Failed to invalidate inventory cache", zap.Int("base_id", baseID), zap.Error(err))
	}
}
