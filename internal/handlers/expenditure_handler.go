package handlers

import (
	"net/http"

	"asset-service/internal/middleware"
	"asset-service/internal/models"
	"asset-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ExpenditureHandler serves the expenditure workflow.
type ExpenditureHandler struct {
	expenditureService services.ExpenditureService
	validator          *validator.Validate
	logger             *zap.Logger
}

// NewExpenditureHandler creates the handler.
func NewExpenditureHandler(expenditureService services.ExpenditureService, logger *zap.Logger) *ExpenditureHandler {
	return &ExpenditureHandler{
		expenditureService: expenditureService,
		validator:          validator.New(),
		logger:             logger,
	}
}

func (h *ExpenditureHandler) logError(msg string, fields ...zap.Field) {
	h.logger.Error("❌ "+msg, fields...)
}

func (h *ExpenditureHandler) logSuccess(msg string, fields ...zap.Field) {
	h.logger.Info("✅ "+msg, fields...)
}

// Create consumes quantity from the base ledger in one step.
func (h *ExpenditureHandler) Create(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	var req models.CreateExpenditureRequest
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

	expenditure, err := h.expenditureService.Create(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logSuccess("Expenditure recorded",
		zap.Int("expenditure_id", expenditure.ID),
		zap.Int("base_id", expenditure.BaseID),
		zap.Int("quantity", expenditure.Quantity))

	respondCreated(c, expenditure)
}

// Update edits expenditure metadata. Quantities are immutable.
func (h *ExpenditureHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req models.UpdateExpenditureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	expenditure, err := h.expenditureService.Update(c.Request.Context(), middleware.ActorFrom(c), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logSuccess("Expenditure updated", zap.Int("expenditure_id", expenditure.ID))

	respondOK(c, expenditure)
}

// Delete removes the expenditure record. Consumed stock stays consumed.
func (h *ExpenditureHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.expenditureService.Delete(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		respondError(c, err)
		return
	}

	h.logSuccess("Expenditure deleted", zap.Int("expenditure_id", id))

	c.JSON(http.StatusOK, models.APIResponse{Success: true})
}

// GetByID returns one expenditure.
func (h *ExpenditureHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	expenditure, err := h.expenditureService.GetByID(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, expenditure)
}

// List returns a page of expenditures, base-scoped for non-admins.
func (h *ExpenditureHandler) List(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	page, limit := queryPagination(c)

	filter := &models.ExpenditureFilter{
		BaseID:      queryIntPtr(c, "base_id"),
		AssetTypeID: queryIntPtr(c, "asset_type_id"),
		Page:        page,
		Limit:       limit,
	}

	expenditures, total, err := h.expenditureService.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.logError("Failed to list expenditures", zap.Error(err))
		respondError(c, err)
		return
	}

	respondList(c, expenditures, page, limit, total)
}
