package handlers

import (
	"asset-service/internal/middleware"
	"asset-service/internal/models"
	"asset-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// AssignmentHandler serves the personnel assignment workflow.
type AssignmentHandler struct {
	assignmentService services.AssignmentService
	validator         *validator.Validate
	logger            *zap.Logger
}

// NewAssignmentHandler creates the handler.
func NewAssignmentHandler(assignmentService services.AssignmentService, logger *zap.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentService: assignmentService,
		validator:         validator.New(),
		logger:            logger,
	}
}

func (h *AssignmentHandler) logError(msg string, fields ...zap.Field) {
	h.logger.Error("❌ "+msg, fields...)
}

func (h *AssignmentHandler) logSuccess(msg string, fields ...zap.Field) {
	h.logger.Info("✅ "+msg, fields...)
}

// Create checks stock out to a person.
func (h *AssignmentHandler) Create(c *gin.Context) {
	actor := middleware.ActorFrom(c)

	var req models.CreateAssignmentRequest
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

	assignment, err := h.assignmentService.Create(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logSuccess("Assignment created",
		zap.Int("assignment_id", assignment.ID),
		zap.Int("assigned_to", assignment.AssignedTo),
		zap.Int("quantity", assignment.Quantity))

	respondCreated(c, assignment)
}

// Return credits part or all of an assignment back to stock.
func (h *AssignmentHandler) Return(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req models.ReturnAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondBadRequest(c, err)
		return
	}

	assignment, err := h.assignmentService.Return(c.Request.Context(), middleware.ActorFrom(c), id, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logSuccess("Assignment return processed",
		zap.Int("assignment_id", assignment.ID),
		zap.Int("returned_quantity", assignment.ReturnedQuantity),
		zap.String("status", string(assignment.Status)))

	respondOK(c, assignment)
}

// UpdateStatus closes an assignment as lost or damaged.
func (h *AssignmentHandler) UpdateStatus(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req models.AssignmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.validator.Struct(req); err != nil {
		respondBadRequest(c, err)
		return
	}

	assignment, err := h.assignmentService.Close(c.Request.Context(), middleware.ActorFrom(c), id, models.AssignmentStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	h.logSuccess("Assignment closed",
		zap.Int("assignment_id", assignment.ID),
		zap.String("status", string(assignment.Status)))

	respondOK(c, assignment)
}

// GetByID returns one assignment.
func (h *AssignmentHandler) GetByID(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	assignment, err := h.assignmentService.GetByID(c.Request.Context(), middleware.ActorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, assignment)
}

// List returns a page of assignments, base-scoped for non-admins.
func (h *AssignmentHandler) List(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	page, limit := queryPagination(c)

	filter := &models.AssignmentFilter{
		BaseID:      queryIntPtr(c, "base_id"),
		AssetTypeID: queryIntPtr(c, "asset_type_id"),
		AssignedTo:  queryIntPtr(c, "assigned_to"),
		Page:        page,
		Limit:       limit,
	}
	if raw := c.Query("status"); raw != "" {
		status := models.AssignmentStatus(raw)
		filter.Status = &status
	}

	assignments, total, err := h.assignmentService.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.logError("Failed to list assignments", zap.Error(err))
		respondError(c, err)
		return
	}

	respondList(c, assignments, page, limit, total)
}
