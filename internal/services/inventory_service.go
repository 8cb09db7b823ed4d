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

// InventoryService exposes ledger reads and the explicit row create call.
// Workflow mutations live in the transfer/purchase/expenditure/assignment
// services; everything funnels through the same applyDelta checks.
type InventoryService interface {
	List(ctx context.Context, actor *models.Actor, filter *models.InventoryFilter) ([]*models.InventoryRow, int, error)
	GetByID(ctx context.Context, actor *models.Actor, id int) (*models.InventoryRow, error)
	GetBaseInventory(ctx context.Context, actor *models.Actor, baseID int) ([]*models.InventoryRow, error)
	CreateRow(ctx context.Context, actor *models.Actor, req *models.CreateInventoryRowRequest) (*models.InventoryRow, error)
	ListMovements(ctx context.Context, actor *models.Actor, filter *models.MovementFilter) ([]*models.Movement, int, error)
	ListAssetTypes(ctx context.Context) ([]*models.AssetType, error)
}

type inventoryService struct {
	repo      repository.InventoryRepository
	typeRepo  repository.AssetTypeRepository
	txRunner  repository.TxRunner
	invCache  *cache.InventoryCache
	logger    *zap.Logger
}

// NewInventoryService creates the service.
func NewInventoryService(
	repo repository.InventoryRepository,
	typeRepo repository.AssetTypeRepository,
	txRunner repository.TxRunner,
	invCache *cache.InventoryCache,
	logger *zap.Logger,
) InventoryService {
	return &inventoryService{
		repo:     repo,
		typeRepo: typeRepo,
		txRunner: txRunner,
		invCache: invCache,
		logger:   logger,
	}
}

func (s *inventoryService) List(ctx context.Context, actor *models.Actor, filter *models.InventoryFilter) ([]*models.InventoryRow, int, error) {
	// Non-admins only see their own base
	if !actor.IsAdmin() {
		base := actor.BaseID
		filter.BaseID = &base
	}

	return s.repo.List(ctx, filter)
}

func (s *inventoryService) GetByID(ctx context.Context, actor *models.Actor, id int) (*models.InventoryRow, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, fmt.Errorf("inventory row %d: %w", id, apperr.ErrNotFound)
	}
	if !actor.CanAccessBase(row.BaseID) {
		return nil, fmt.Errorf("inventory row %d: %w", id, apperr.ErrForbidden)
	}

	return row, nil
}

// GetBaseInventory returns the full ledger for a base, served from the
// cache when a fresh snapshot exists.
func (s *inventoryService) GetBaseInventory(ctx context.Context, actor *models.Actor, baseID int) ([]*models.InventoryRow, error) {
	if !actor.CanAccessBase(baseID) {
		return nil, fmt.Errorf("base %d: %w", baseID, apperr.ErrForbidden)
	}

	if rows := s.invCache.GetBaseInventory(ctx, baseID); rows != nil {
		return rows, nil
	}

	filter := &models.InventoryFilter{BaseID: &baseID, Page: 1, Limit: 1000}
	rows, _, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	if err := s.invCache.SetBaseInventory(ctx, baseID, rows); err != nil {
		s.logger.Warn("Failed to cache base inventory", zap.Int("base_id", baseID), zap.Error(err))
	}

	return rows, nil
}

// CreateRow explicitly creates a ledger row. The counters must already
// satisfy the ledger invariant.
func (s *inventoryService) CreateRow(ctx context.Context, actor *models.Actor, req *models.CreateInventoryRowRequest) (*models.InventoryRow, error) {
	logger := s.logger.With(
		zap.String("operation", "create_inventory_row"),
		zap.Int("asset_type_id", req.AssetTypeID),
		zap.Int("base_id", req.BaseID),
		zap.Int("actor_id", actor.UserID),
	)

	if !actor.CanAccessBase(req.BaseID) {
		return nil, fmt.Errorf("base %d: %w", req.BaseID, apperr.ErrForbidden)
	}
	if req.AvailableQuantity+req.AssignedQuantity > req.Quantity {
		return nil, &apperr.InvariantViolationError{
			Msg: fmt.Sprintf("available %d + assigned %d would exceed quantity %d",
				req.AvailableQuantity, req.AssignedQuantity, req.Quantity),
		}
	}

	assetType, err := cachedAssetType(ctx, s.invCache, s.typeRepo, req.AssetTypeID)
	if err != nil {
		return nil, err
	}
	if assetType == nil {
		return nil, fmt.Errorf("asset type %d: %w", req.AssetTypeID, apperr.ErrNotFound)
	}

	row := &models.InventoryRow{
		AssetTypeID:       req.AssetTypeID,
		BaseID:            req.BaseID,
		Quantity:          req.Quantity,
		AvailableQuantity: req.AvailableQuantity,
		AssignedQuantity:  req.AssignedQuantity,
	}
	row.RefreshStatus()

	err = s.txRunner.InTx(ctx, func(tx repository.Tx) error {
		if err := tx.CreateInventoryRow(ctx, row); err != nil {
			return err
		}
		return tx.RecordMovement(ctx, &models.Movement{
			AssetTypeID:    req.AssetTypeID,
			BaseID:         req.BaseID,
			Action:         models.MovementAdjustment,
			Quantity:       req.Quantity,
			QuantityBefore: 0,
			QuantityAfter:  req.Quantity,
			Reference:      "manual create",
			ActorID:        actor.UserID,
		})
	})
	if err != nil {
		logger.Error("Failed to create inventory row", zap.Error(err))
		return nil, err
	}

	s.invalidate(ctx, req.BaseID)
	logger.Info("Inventory row created", zap.Int("row_id", row.ID))

	return row, nil
}

func (s *inventoryService) ListMovements(ctx context.Context, actor *models.Actor, filter *models.MovementFilter) ([]*models.Movement, int, error) {
	if !actor.IsAdmin() {
		base := actor.BaseID
		filter.BaseID = &base
	}

	return s.repo.ListMovements(ctx, filter)
}

// ListAssetTypes serves the catalog from the cache; a miss loads it from
// postgres and repopulates both cache levels.
func (s *inventoryService) ListAssetTypes(ctx context.Context) ([]*models.AssetType, error) {
	if types := s.invCache.GetAssetTypes(ctx); types != nil {
		return types, nil
	}

	types, err := s.typeRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.invCache.SetAssetTypes(ctx, types); err != nil {
		s.logger.Warn("Failed to cache asset type catalog", zap.Error(err))
	}

	return types, nil
}

// cachedAssetType resolves one asset type through the catalog cache. Ids
// missing from the cached catalog still fall through to postgres so a cold
// or stale catalog never fails a valid request.
func cachedAssetType(ctx context.Context, invCache *cache.InventoryCache, typeRepo repository.AssetTypeRepository, id int) (*models.AssetType, error) {
	for _, t := range invCache.GetAssetTypes(ctx) {
		if t.ID == id {
			return t, nil
		}
	}
	return typeRepo.GetByID(ctx, id)
}

func (s *inventoryService) invalidate(ctx context.Context, baseID int) {
	if err := s.invCache.InvalidateBase(ctx, baseID); err != nil {
		s.logger.Warn("Failed to invalidate inventory cache", zap.Int("base_id", baseID), zap.Error(err))
	}
}
