package handlers

import (
	"net/http"
	"strconv"
	"time"

	"asset-service/internal/middleware"
	"asset-service/internal/models"
	"asset-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// InventoryHandler serves the ledger read endpoints and explicit row creation.
type InventoryHandler struct {
	inventoryService services.InventoryService
	validator        *validator.Validate
	logger           *zap.Logger
}

// NewInventoryHandler creates the handler.
func NewInventoryHandler(inventoryService services.InventoryService, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		inventoryService: inventoryService,
		validator:        validator.New(),
		logger:           logger,
	}
}

func (h *InventoryHandler) logDebug(msg string, fields ...zap.Field) {
	h.logger.Debug("🔍 "+msg, fields...)
}

func (h *InventoryHandler) logError(msg string, fields ...zap.Field) {
	h.logger.Error("❌ "+msg, fields...)
}

func (h *InventoryHandler) logSuccess(msg string, fields ...zap.Field) {
	h.logger.Info("✅ "+msg, fields...)
}

// List returns a page of ledger rows, base-scoped for non-admins.
func (h *InventoryHandler) List(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	page, limit := queryPagination(c)

	filter := &models.InventoryFilter{
		BaseID:      queryIntPtr(c, "base_id"),
		AssetTypeID: queryIntPtr(c, "asset_type_id"),
		Page:        page,
		Limit:       limit,
	}

	rows, total, err := h.inventoryService.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.logError("Failed to list inventory", zap.Error(err))
		respondError(c, err)
		return
	}

	respondList(c, rows, page, limit, total)
}

// GetByID returns a single ledger row.
func (h *InventoryHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	row, err := h.inventoryService.GetByID(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, row)
}

// GetBaseInventory returns the cached snapshot of one base's ledger.
func (h *InventoryHandler) GetBaseInventory(c *gin.Context) {
	start := time.Now()

	baseID, err := strconv.Atoi(c.Param("baseId"))
	if err != nil || baseID <= 0 {
		c.JSON(http.StatusBadRequest, models.APIResponse{Success: false, Error: "invalid base id"})
		return
	}

	rows, err := h.inventoryService.GetBaseInventory(c.Request.Context(), middleware.ActorFrom(c), baseID)
	if err != nil {
		h.logError("Failed to load base inventory", zap.Int("base_id", baseID), zap.Error(err))
		respondError(c, err)
		return
	}

	h.logDebug("Base inventory served",
		zap.Int("base_id", baseID),
		zap.Int("rows", len(rows)),
		zap.Duration("latency", time.Since(start)))

	respondOK(c, rows)
}

// CreateRow explicitly creates a ledger row. Admin only.
func (h *InventoryHandler) CreateRow(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	var req models.CreateInventoryRowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logError("Error binding JSON", zap.Error(err))
		respondBadRequest(c, err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logError("Validation error", zap.Error(err))
		respondBadRequest(c, err)
		return
	}

	row, err := h.inventoryService.CreateRow(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logSuccess("Inventory row created",
		zap.Int("row_id", row.ID),
		zap.Int("base_id", row.BaseID),
		zap.Int("asset_type_id", row.AssetTypeID))

	respondCreated(c, row)
}

// ListMovements returns the audit trail, base-scoped for non-admins.
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	page, limit := queryPagination(c)

	filter := &models.MovementFilter{
		BaseID:      queryIntPtr(c, "base_id"),
		AssetTypeID: queryIntPtr(c, "asset_type_id"),
		Action:      queryStrPtr(c, "action"),
		Page:        page,
		Limit:       limit,
	}

	movements, total, err := h.inventoryService.ListMovements(c.Request.Context(), actor, filter)
	if err != nil {
		h.logError("Failed to list movements", zap.Error(err))
		respondError(c, err)
		return
	}

	respondList(c, movements, page, limit, total)
}

// ListAssetTypes returns the asset type catalog.
func (h *InventoryHandler) ListAssetTypes(c *gin.Context) {
	types, err := h.inventoryService.ListAssetTypes(c.Request.Context())
	if err != nil {
		h.logError("Failed to list asset types", zap.Error(err))
		respondError(c, err)
		return
	}

	respondOK(c, types)
}
