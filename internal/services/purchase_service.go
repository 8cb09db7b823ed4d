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

// PurchaseService runs the purchase state machine. Approval is terminal and
// materializes the quantity into the base's ledger; admins and base
// commanders self-approve at creation time.
type PurchaseService interface {
	Create(ctx context.Context, actor *models.Actor, req *models.CreatePurchaseRequest) (*models.Purchase, error)
	Approve(ctx context.Context, actor *models.Actor, id int) (*models.Purchase, error)
	Cancel(ctx context.Context, actor *models.Actor, id int) (*models.Purchase, error)
	GetByID(ctx context.Context, actor *models.Actor, id int) (*models.Purchase, error)
	List(ctx context.Context, actor *models.Actor, filter *models.PurchaseFilter) ([]*models.Purchase, int, error)
}

type purchaseService struct {
	repo     repository.PurchaseRepository
	typeRepo repository.AssetTypeRepository
	txRunner repository.TxRunner
	invCache *cache.InventoryCache
	logger   *zap.Logger
}

// NewPurchaseService creates the service.
func NewPurchaseService(
	repo repository.PurchaseRepository,
	typeRepo repository.AssetTypeRepository,
	txRunner repository.TxRunner,
	invCache *cache.InventoryCache,
	logger *zap.Logger,
) PurchaseService {
	return &purchaseService{
		repo:     repo,
		typeRepo: typeRepo,
		txRunner: txRunner,
		invCache: invCache,
		logger:   logger,
	}
}

func (s *purchaseService) Create(ctx context.Context, actor *models.Actor, req *models.CreatePurchaseRequest) (*models.Purchase, error) {
	logger := s.logger.With(
		zap.String("operation", "create_purchase"),
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

	purchase := &models.Purchase{
		PurchaseNumber: generateNumber("PUR"),
		AssetTypeID:    req.AssetTypeID,
		BaseID:         req.BaseID,
		Quantity:       req.Quantity,
		UnitCost:       req.UnitCost,
		TotalCost:      float64(req.Quantity) * req.UnitCost,
		Status:         models.PurchasePending,
		RequestedBy:    actor.UserID,
	}

	if err := s.repo.Create(ctx, purchase); err != nil {
		logger.Error("Failed to create purchase", zap.Error(err))
		return nil, err
	}

	logger.Info("Purchase created", zap.String("purchase_number", purchase.PurchaseNumber))

	// Elevated roles self-approve at creation time
	if actor.Role == models.RoleAdmin || actor.Role == models.RoleBaseCommander {
		return s.Approve(ctx, actor, purchase.ID)
	}

	return purchase, nil
}

// Approve materializes the purchase: the ledger row gains the purchased
// quantity (created on first inflow) and serial numbers are generated for
// the individual units. One transaction, at most once per purchase.
func (s *purchaseService) Approve(ctx context.Context, actor *models.Actor, id int) (*models.Purchase, error) {
	logger := s.logger.With(
		zap.String("operation", "approve_purchase"),
		zap.Int("purchase_id", id),
		zap.Int("actor_id", actor.UserID),
	)

	var approved *models.Purchase
	err := s.txRunner.InTx(ctx, func(tx repository.Tx) error {
		purchase, err := tx.GetPurchaseForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if purchase == nil {
			return fmt.Errorf("purchase %d: %w", id, apperr.ErrNotFound)
		}
		if purchase.Status != models.PurchasePending {
			return &apperr.InvalidStateTransitionError{
				Entity: "purchase",
				From:   string(purchase.Status),
				Action: "approve",
			}
		}

		assetType, err := s.typeRepo.GetByID(ctx, purchase.AssetTypeID)
		if err != nil {
			return err
		}
		if assetType == nil {
			return fmt.Errorf("asset type %d: %w", purchase.AssetTypeID, apperr.ErrNotFound)
		}

		rows, err := tx.InventoryRowsForUpdate(ctx, purchase.AssetTypeID, purchase.BaseID)
		if err != nil {
			return err
		}

		if len(rows) > 0 {
			row := rows[0]
			before := row.Quantity
			if err := applyDelta(row, purchase.Quantity, purchase.Quantity, 0); err != nil {
				return err
			}
			if err := tx.UpdateInventoryRow(ctx, row); err != nil {
				return err
			}
			if err := tx.RecordMovement(ctx, &models.Movement{
				AssetTypeID:    purchase.AssetTypeID,
				BaseID:         purchase.BaseID,
				Action:         models.MovementPurchase,
				Quantity:       purchase.Quantity,
				QuantityBefore: before,
				QuantityAfter:  row.Quantity,
				Reference:      purchase.PurchaseNumber,
				ActorID:        actor.UserID,
			}); err != nil {
				return err
			}
		} else {
			row := &models.InventoryRow{
				AssetTypeID:       purchase.AssetTypeID,
				BaseID:            purchase.BaseID,
				Quantity:          purchase.Quantity,
				AvailableQuantity: purchase.Quantity,
				AssignedQuantity:  0,
			}
			row.RefreshStatus()
			if err := tx.CreateInventoryRow(ctx, row); err != nil {
				return err
			}
			if err := tx.RecordMovement(ctx, &models.Movement{
				AssetTypeID:    purchase.AssetTypeID,
				BaseID:         purchase.BaseID,
				Action:         models.MovementPurchase,
				Quantity:       purchase.Quantity,
				QuantityBefore: 0,
				QuantityAfter:  purchase.Quantity,
				Reference:      purchase.PurchaseNumber,
				ActorID:        actor.UserID,
			}); err != nil {
				return err
			}
		}

		now := time.Now()
		purchase.SerialNumbers = generateSerials(assetType.Code, purchase.Quantity, now)
		purchase.Status = models.PurchaseApproved
		purchase.ApprovedBy = &actor.UserID
		purchase.ApprovedAt = &now
		if err := tx.UpdatePurchaseStatus(ctx, purchase); err != nil {
			return err
		}

		approved = purchase
		return nil
	})
	if err != nil {
		if apperr.IsClientError(err) {
			logger.Warn("Purchase approval refused", zap.Error(err))
		} else {
			logger.Error("Failed to approve purchase", zap.Error(err))
		}
		return nil, err
	}

	s.invalidate(ctx, approved.BaseID)
	logger.Info("Purchase approved",
		zap.String("purchase_number", approved.PurchaseNumber),
		zap.Int("quantity", approved.Quantity))

	return approved, nil
}

// Cancel is allowed from pending only and never touches the ledger.
func (s *purchaseService) Cancel(ctx context.Context, actor *models.Actor, id int) (*models.Purchase, error) {
	logger := s.logger.With(
		zap.String("operation", "cancel_purchase"),
		zap.Int("purchase_id", id),
		zap.Int("actor_id", actor.UserID),
	)

	var cancelled *models.Purchase
	err := s.txRunner.InTx(ctx, func(tx repository.Tx) error {
		purchase, err := tx.GetPurchaseForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if purchase == nil {
			return fmt.Errorf("purchase %d: %w", id, apperr.ErrNotFound)
		}
		if !actor.CanAccessBase(purchase.BaseID) {
			return fmt.Errorf("purchase %d: %w", id, apperr.ErrForbidden)
		}
		if purchase.Status != models.PurchasePending {
			return &apperr.InvalidStateTransitionError{
				Entity: "purchase",
				From:   string(purchase.Status),
				Action: "cancel",
			}
		}

		purchase.Status = models.PurchaseCancelled
		if err := tx.UpdatePurchaseStatus(ctx, purchase); err != nil {
			return err
		}

		cancelled = purchase
		return nil
	})
	if err != nil {
		logger.Error("Failed to cancel purchase", zap.Error(err))
		return nil, err
	}

	logger.Info("Purchase cancelled", zap.String("purchase_number", cancelled.PurchaseNumber))
	return cancelled, nil
}

func (s *purchaseService) GetByID(ctx context.Context, actor *models.Actor, id int) (*models.Purchase, error) {
	purchase, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if purchase == nil {
		return nil, fmt.Errorf("purchase %d: %w", id, apperr.ErrNotFound)
	}
	if !actor.CanAccessBase(purchase.BaseID) {
		return nil, fmt.Errorf("purchase %d: %w", id, apperr.ErrForbidden)
	}

	return purchase, nil
}

func (s *purchaseService) List(ctx context.Context, actor *models.Actor, filter *models.PurchaseFilter) ([]*models.Purchase, int, error) {
	if !actor.IsAdmin() {
		base := actor.BaseID
		filter.BaseID = &base
	}

	return s.repo.List(ctx, filter)
}

func (s *purchaseService) invalidate(ctx context.Context, baseID int) {
	if err := s.invCache.InvalidateBase(ctx, baseID); err != nil {
		s.logger.Warn("Failed to invalidate inventory cache", zap.Int("base_id", baseID), zap.Error(err))
	}
}

// generateSerials builds one serial number per purchased unit:
// <TYPE>-<timestamp>-<index>.
func generateSerials(typeCode string, quantity int, at time.Time) []string {
	serials := make([]string, 0, quantity)
	ts := at.Format("20060102150405")
	for i := 1; i <= quantity; i++ {
		serials = append(serials, fmt.Sprintf("%s-%s-%d", typeCode, ts, i))
	}
	return serials
}
