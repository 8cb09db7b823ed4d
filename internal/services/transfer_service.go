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

// TransferService runs the cross-base transfer state machine. A transfer is
// created pending with no ledger effect; approval re-validates stock and
// executes the move atomically.
type TransferService interface {
	Create(ctx context.Context, actor *models.Actor, req *models.CreateTransferRequest) (*models.Transfer, error)
	Approve(ctx context.Context, actor *models.Actor, id int) (*models.Transfer, error)
	Reject(ctx context.Context, actor *models.Actor, id int, notes string) (*models.Transfer, error)
	Delete(ctx context.Context, actor *models.Actor, id int) error
	GetByID(ctx context.Context, actor *models.Actor, id int) (*models.Transfer, error)
	List(ctx context.Context, actor *models.Actor, filter *models.TransferFilter) ([]*models.Transfer, int, error)
}

type transferService struct {
	repo     repository.TransferRepository
	invRepo  repository.InventoryRepository
	typeRepo repository.AssetTypeRepository
	txRunner repository.TxRunner
	invCache *cache.InventoryCache
	logger   *zap.Logger
}

// NewTransferService creates the service.
func NewTransferService(
	repo repository.TransferRepository,
	invRepo repository.InventoryRepository,
	typeRepo repository.AssetTypeRepository,
	txRunner repository.TxRunner,
	invCache *cache.InventoryCache,
	logger *zap.Logger,
) TransferService {
	return &transferService{
		repo:     repo,
		invRepo:  invRepo,
		typeRepo: typeRepo,
		txRunner: txRunner,
		invCache: invCache,
		logger:   logger,
	}
}

// Create validates the request and persists a pending transfer. The ledger
// is untouched until approval.
func (s *transferService) Create(ctx context.Context, actor *models.Actor, req *models.CreateTransferRequest) (*models.Transfer, error) {
	logger := s.logger.With(
		zap.String("operation", "create_transfer"),
		zap.Int("asset_type_id", req.AssetTypeID),
		zap.Int("from_base_id", req.FromBaseID),
		zap.Int("to_base_id", req.ToBaseID),
		zap.Int("quantity", req.Quantity),
		zap.Int("actor_id", actor.UserID),
	)

	if req.FromBaseID == req.ToBaseID {
		return nil, apperr.Validation("cannot transfer to the same base")
	}
	// Non-admin requesters must be on one end of the transfer
	if !actor.IsAdmin() && actor.BaseID != req.FromBaseID && actor.BaseID != req.ToBaseID {
		return nil, fmt.Errorf("transfer between bases %d and %d: %w", req.FromBaseID, req.ToBaseID, apperr.ErrForbidden)
	}

	assetType, err := cachedAssetType(ctx, s.invCache, s.typeRepo, req.AssetTypeID)
	if err != nil {
		return nil, err
	}
	if assetType == nil {
		return nil, fmt.Errorf("asset type %d: %w", req.AssetTypeID, apperr.ErrNotFound)
	}

	srcRows, err := s.invRepo.GetRows(ctx, req.AssetTypeID, req.FromBaseID)
	if err != nil {
		return nil, err
	}
	if len(srcRows) == 0 {
		return nil, fmt.Errorf("no inventory for asset type %d at base %d: %w", req.AssetTypeID, req.FromBaseID, apperr.ErrNotFound)
	}
	if available := sumAvailable(srcRows); available < req.Quantity {
		return nil, &apperr.InsufficientQuantityError{Available: available, Requested: req.Quantity}
	}

	transfer := &models.Transfer{
		TransferNumber: generateNumber("TRF"),
		AssetTypeID:    req.AssetTypeID,
		FromBaseID:     req.FromBaseID,
		ToBaseID:       req.ToBaseID,
		Quantity:       req.Quantity,
		Status:         models.TransferPending,
		Notes:          req.Notes,
		RequestedBy:    actor.UserID,
	}

	if err := s.repo.Create(ctx, transfer); err != nil {
		logger.Error("Failed to create transfer", zap.Error(err))
		return nil, err
	}

	logger.Info("Transfer created", zap.String("transfer_number", transfer.TransferNumber))
	return transfer, nil
}

// Approve executes the ledger move inside one transaction: the transfer row
// is locked, stock is re-validated, the source is depleted and the
// destination credited. Any failure rolls the whole step back and leaves
// the transfer pending.
func (s *transferService) Approve(ctx context.Context, actor *models.Actor, id int) (*models.Transfer, error) {
	logger := s.logger.With(
		zap.String("operation", "approve_transfer"),
		zap.Int("transfer_id", id),
		zap.Int("actor_id", actor.UserID),
	)

	var approved *models.Transfer
	err := s.txRunner.InTx(ctx, func(tx repository.Tx) error {
		transfer, err := tx.GetTransferForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if transfer == nil {
			return fmt.Errorf("transfer %d: %w", id, apperr.ErrNotFound)
		}
		if transfer.Status.IsTerminal() {
			return &apperr.InvalidStateTransitionError{
				Entity: "transfer",
				From:   string(transfer.Status),
				Action: "approve",
			}
		}

		// Lock both bases' rows in base id order so two opposite transfers
		// cannot deadlock each other
		var srcRows, dstRows []*models.InventoryRow
		first, second := transfer.FromBaseID, transfer.ToBaseID
		if second < first {
			first, second = second, first
		}
		for _, baseID := range []int{first, second} {
			rows, err := tx.InventoryRowsForUpdate(ctx, transfer.AssetTypeID, baseID)
			if err != nil {
				return err
			}
			if baseID == transfer.FromBaseID {
				srcRows = rows
			} else {
				dstRows = rows
			}
		}

		// Stock may have dropped since request time
		steps, err := planDepletion(srcRows, transfer.Quantity)
		if err != nil {
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
				AssetTypeID:    transfer.AssetTypeID,
				BaseID:         transfer.FromBaseID,
				Action:         models.MovementTransferOut,
				Quantity:       step.Consume,
				QuantityBefore: before,
				QuantityAfter:  step.Row.Quantity,
				Reference:      transfer.TransferNumber,
				ActorID:        actor.UserID,
			}); err != nil {
				return err
			}
		}

		// Credit the destination, creating the row on first inflow
		if len(dstRows) > 0 {
			dst := dstRows[0]
			before := dst.Quantity
			if err := applyDelta(dst, transfer.Quantity, transfer.Quantity, 0); err != nil {
				return err
			}
			if err := tx.UpdateInventoryRow(ctx, dst); err != nil {
				return err
			}
			if err := tx.RecordMovement(ctx, &models.Movement{
				AssetTypeID:    transfer.AssetTypeID,
				BaseID:         transfer.ToBaseID,
				Action:         models.MovementTransferIn,
				Quantity:       transfer.Quantity,
				QuantityBefore: before,
				QuantityAfter:  dst.Quantity,
				Reference:      transfer.TransferNumber,
				ActorID:        actor.UserID,
			}); err != nil {
				return err
			}
		} else {
			dst := &models.InventoryRow{
				AssetTypeID:       transfer.AssetTypeID,
				BaseID:            transfer.ToBaseID,
				Quantity:          transfer.Quantity,
				AvailableQuantity: transfer.Quantity,
				AssignedQuantity:  0,
			}
			dst.RefreshStatus()
			if err := tx.CreateInventoryRow(ctx, dst); err != nil {
				return err
			}
			if err := tx.RecordMovement(ctx, &models.Movement{
				AssetTypeID:    transfer.AssetTypeID,
				BaseID:         transfer.ToBaseID,
				Action:         models.MovementTransferIn,
				Quantity:       transfer.Quantity,
				QuantityBefore: 0,
				QuantityAfter:  transfer.Quantity,
				Reference:      transfer.TransferNumber,
				ActorID:        actor.UserID,
			}); err != nil {
				return err
			}
		}

		now := time.Now()
		transfer.Status = models.TransferApproved
		transfer.ApprovedBy = &actor.UserID
		transfer.ApprovedAt = &now
		if err := tx.UpdateTransferStatus(ctx, transfer); err != nil {
			return err
		}

		approved = transfer
		return nil
	})
	if err != nil {
		if apperr.IsClientError(err) {
			logger.Warn("Transfer approval refused", zap.Error(err))
		} else {
			logger.Error("Failed to approve transfer", zap.Error(err))
		}
		return nil, err
	}

	s.invalidate(ctx, approved.FromBaseID, approved.ToBaseID)
	logger.Info("Transfer approved",
		zap.String("transfer_number", approved.TransferNumber),
		zap.Int("quantity", approved.Quantity))

	return approved, nil
}

// Reject is allowed from pending only and never touches the ledger.
func (s *transferService) Reject(ctx context.Context, actor *models.Actor, id int, notes string) (*models.Transfer, error) {
	logger := s.logger.With(
		zap.String("operation", "reject_transfer"),
		zap.Int("transfer_id", id),
		zap.Int("actor_id", actor.UserID),
	)

	var rejected *models.Transfer
	err := s.txRunner.InTx(ctx, func(tx repository.Tx) error {
		transfer, err := tx.GetTransferForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if transfer == nil {
			return fmt.Errorf("transfer %d: %w", id, apperr.ErrNotFound)
		}
		if transfer.Status.IsTerminal() {
			return &apperr.InvalidStateTransitionError{
				Entity: "transfer",
				From:   string(transfer.Status),
				Action: "reject",
			}
		}

		now := time.Now()
		transfer.Status = models.TransferRejected
		transfer.ApprovedBy = &actor.UserID
		transfer.ApprovedAt = &now
		if notes != "" {
			transfer.Notes = notes
		}
		if err := tx.UpdateTransferStatus(ctx, transfer); err != nil {
			return err
		}

		rejected = transfer
		return nil
	})
	if err != nil {
		logger.Error("Failed to reject transfer", zap.Error(err))
		return nil, err
	}

	logger.Info("Transfer rejected", zap.String("transfer_number", rejected.TransferNumber))
	return rejected, nil
}

// Delete removes a transfer record. Admins may delete in any status; a base
// commander only non-executed transfers involving their base.
func (s *transferService) Delete(ctx context.Context, actor *models.Actor, id int) error {
	transfer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if transfer == nil {
		return fmt.Errorf("transfer %d: %w", id, apperr.ErrNotFound)
	}

	if !actor.IsAdmin() {
		if !transfer.InvolvesBase(actor.BaseID) {
			return fmt.Errorf("transfer %d: %w", id, apperr.ErrForbidden)
		}
		if transfer.Status.Executed() {
			return &apperr.InvalidStateTransitionError{
				Entity: "transfer",
				From:   string(transfer.Status),
				Action: "delete",
			}
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Transfer deleted",
		zap.String("operation", "delete_transfer"),
		zap.Int("transfer_id", id),
		zap.Int("actor_id", actor.UserID))

	return nil
}

func (s *transferService) GetByID(ctx context.Context, actor *models.Actor, id int) (*models.Transfer, error) {
	transfer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if transfer == nil {
		return nil, fmt.Errorf("transfer %d: %w", id, apperr.ErrNotFound)
	}
	if !actor.IsAdmin() && !transfer.InvolvesBase(actor.BaseID) {
		return nil, fmt.Errorf("transfer %d: %w", id, apperr.ErrForbidden)
	}

	return transfer, nil
}

func (s *transferService) List(ctx context.Context, actor *models.Actor, filter *models.TransferFilter) ([]*models.Transfer, int, error) {
	if !actor.IsAdmin() {
		base := actor.BaseID
		filter.BaseID = &base
	}

	return s.repo.List(ctx, filter)
}

func (s *transferService) invalidate(ctx context.Context, baseIDs ...int) {
	for _, baseID := range baseIDs {
		if err := s.invCache.InvalidateBase(ctx, baseID); err != nil {
			s.logger.Warn("Failed to invalidate inventory cache", zap.Int("base_id", baseID), zap.Error(err))
		}
	}
}
