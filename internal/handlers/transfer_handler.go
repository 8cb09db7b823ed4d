package handlers

import (
	"net/http"
	"time"

	"asset-service/internal/middleware"
	"asset-service/internal/models"
	"asset-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// TransferHandler serves the inter-base transfer workflow.
type TransferHandler struct {
	transferService services.TransferService
	validator       *validator.Validate
	logger          *zap.Logger
}

// NewTransferHandler creates the handler.
func NewTransferHandler(transferService services.TransferService, logger *zap.Logger) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
		validator:       validator.New(),
		logger:          logger,
	}
}

func (h *TransferHandler) logError(msg string, fields ...zap.Field) {
	h.logger.Error("❌ "+msg, fields...)
}

func (h *TransferHandler) logSuccess(msg string, fields ...zap.Field) {
	h.logger.Info("✅ "+msg, fields...)
}

// Create registers a pending transfer request.
func (h *TransferHandler) Create(c *gin.Context) {
	start := time.Now()
	actor := middleware.ActorFrom(c)

	var req models.CreateTransferRequest
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

	transfer, err := h.transferService.Create(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logSuccess("Transfer requested",
		zap.String("transfer_number", transfer.TransferNumber),
		zap.Int("from_base_id", transfer.FromBaseID),
		zap.Int("to_base_id", transfer.ToBaseID),
		zap.Int("quantity", transfer.Quantity),
		zap.Duration("latency", time.Since(start)))

	respondCreated(c, transfer)
}

// Approve moves the stock and marks the transfer approved.
func (h *TransferHandler) Approve(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	transfer, err := h.transferService.Approve(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logSuccess("Transfer approved",
		zap.Int("transfer_id", transfer.ID),
		zap.String("transfer_number", transfer.TransferNumber))

	respondOK(c, transfer)
}

// Reject marks a pending transfer rejected without touching stock.
func (h *TransferHandler) Reject(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req models.RejectTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		respondBadRequest(c, err)
		return
	}

	transfer, err := h.transferService.Reject(c.Request.Context(), middleware.ActorFrom(c), id, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logSuccess("Transfer rejected", zap.Int("transfer_id", transfer.ID))

	respondOK(c, transfer)
}

// Delete removes a transfer record subject to role and status rules.
func (h *TransferHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.transferService.Delete(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}

	h.logSuccess("Transfer deleted", zap.Int("transfer_id", id))

	c.JSON(http.StatusOK, models.APIResponse{Success: true})
}

// GetByID returns one transfer.
func (h *TransferHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	transfer, err := h.transferService.GetByID(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, transfer)
}

// List returns a page of transfers, scoped to the actor's base for
// non-admins.
func (h *TransferHandler) List(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	page, limit := queryPagination(c)

	filter := &models.TransferFilter{
		BaseID:      queryIntPtr(c, "base_id"),
		AssetTypeID: queryIntPtr(c, "asset_type_id"),
		Page:        page,
		Limit:       limit,
	}
	if raw := c.Query("status"); raw != "" {
		status := models.TransferStatus(raw)
		filter.Status = &status
	}

	transfers, total, err := h.transferService.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.logError("Failed to list transfers", zap.Error(err))
		respondError(c, err)
		return
	}

	respondList(c, transfers, page, limit, total)
}
