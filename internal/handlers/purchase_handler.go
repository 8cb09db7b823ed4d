package handlers

import (
	"asset-service/internal/middleware"
	"asset-service/internal/models"
	"asset-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// PurchaseHandler serves the purchase workflow.
type PurchaseHandler struct {
	purchaseService services.PurchaseService
	validator       *validator.Validate
	logger          *zap.Logger
}

// NewPurchaseHandler creates the handler.
func NewPurchaseHandler(purchaseService services.PurchaseService, logger *zap.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		purchaseService: purchaseService,
		validator:       validator.New(),
		logger:          logger,
	}
}

func (h *PurchaseHandler) logError(msg string, fields ...zap.Field) {
	h.logger.Error("❌ "+msg, fields...)
}

func (h *PurchaseHandler) logSuccess(msg string, fields ...zap.Field) {
	h.logger.Info("✅ "+msg, fields...)
}

// Create records a purchase. Admins and base commanders see their purchases
// materialize immediately; logistics officers leave them pending approval.
func (h *PurchaseHandler) Create(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	var req models.CreatePurchaseRequest
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

	purchase, err := h.purchaseService.Create(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logSuccess("Purchase recorded",
		zap.String("purchase_number", purchase.PurchaseNumber),
		zap.Int("base_id", purchase.BaseID),
		zap.Int("quantity", purchase.Quantity),
		zap.String("status", string(purchase.Status)))

	respondCreated(c, purchase)
}

// Approve credits the purchased quantity to the base ledger.
func (h *PurchaseHandler) Approve(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	purchase, err := h.purchaseService.Approve(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logSuccess("Purchase approved",
		zap.Int("purchase_id", purchase.ID),
		zap.Int("serials", len(purchase.SerialNumbers)))

	respondOK(c, purchase)
}

// Cancel voids a pending purchase.
func (h *PurchaseHandler) Cancel(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	purchase, err := h.purchaseService.Cancel(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logSuccess("Purchase cancelled", zap.Int("purchase_id", purchase.ID))

	respondOK(c, purchase)
}

// GetByID returns one purchase.
func (h *PurchaseHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	purchase, err := h.purchaseService.GetByID(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, purchase)
}

// List returns a page of purchases, base-scoped for non-admins.
func (h *PurchaseHandler) List(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	page, limit := queryPagination(c)

	filter := &models.PurchaseFilter{
		BaseID:      queryIntPtr(c, "base_id"),
		AssetTypeID: queryIntPtr(c, "asset_type_id"),
		Page:        page,
		Limit:       limit,
	}
	if raw := c.Query("status"); raw != "" {
		status := models.PurchaseStatus(raw)
		filter.Status = &status
	}

	purchases, total, err := h.purchaseService.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.logError("Failed to list purchases", zap.Error(err))
		respondError(c, err)
		return
	}

	respondList(c, purchases, page, limit, total)
}
