package models

import "time"

// ===== REQUEST DTOs =====

// CreateInventoryRowRequest explicitly creates a ledger row for a base.
type CreateInventoryRowRequest struct {
	AssetTypeID       int `json:"asset_type_id" validate:"required,gt=0"`
	BaseID            int `json:"base_id" validate:"required,gt=0"`
	Quantity          int `json:"quantity" validate:"gte=0"`
	AvailableQuantity int `json:"available_quantity" validate:"gte=0"`
	AssignedQuantity  int `json:"assigned_quantity" validate:"gte=0"`
}

// CreateTransferRequest asks to move quantity between two bases.
type CreateTransferRequest struct {
	AssetTypeID int    `json:"asset_type_id" validate:"required,gt=0"`
	FromBaseID  int    `json:"from_base_id" validate:"required,gt=0"`
	ToBaseID    int    `json:"to_base_id" validate:"required,gt=0"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
	Notes       string `json:"notes"`
}

// RejectTransferRequest carries optional rejection notes.
type RejectTransferRequest struct {
	Notes string `json:"notes"`
}

// CreatePurchaseRequest records a purchase; approval materializes the stock.
type CreatePurchaseRequest struct {
	AssetTypeID int     `json:"asset_type_id" validate:"required,gt=0"`
	BaseID      int     `json:"base_id" validate:"required,gt=0"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	UnitCost    float64 `json:"unit_cost" validate:"required,gt=0"`
}

// CreateExpenditureRequest consumes quantity from a base's ledger.
type CreateExpenditureRequest struct {
	AssetTypeID     int       `json:"asset_type_id" validate:"required,gt=0"`
	BaseID          int       `json:"base_id" validate:"required,gt=0"`
	Quantity        int       `json:"quantity" validate:"required,gt=0"`
	ExpenditureDate time.Time `json:"expenditure_date" validate:"required"`
	Reason          string    `json:"reason" validate:"required"`
}

// UpdateExpenditureRequest edits expenditure metadata only; quantities are
// immutable after depletion.
type UpdateExpenditureRequest struct {
	ExpenditureDate *time.Time `json:"expenditure_date,omitempty"`
	Reason          *string    `json:"reason,omitempty"`
}

// CreateAssignmentRequest checks out quantity to personnel.
type CreateAssignmentRequest struct {
	AssetTypeID    int       `json:"asset_type_id" validate:"required,gt=0"`
	BaseID         int       `json:"base_id" validate:"required,gt=0"`
	AssignedTo     int       `json:"assigned_to" validate:"required,gt=0"`
	Quantity       int       `json:"quantity" validate:"required,gt=0"`
	AssignmentDate time.Time `json:"assignment_date"`
}

// ReturnAssignmentRequest returns part or all of an assignment.
type ReturnAssignmentRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

// AssignmentStatusRequest closes an assignment as lost or damaged.
type AssignmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=lost damaged"`
}

// ===== RESPONSE ENVELOPE =====

// Pagination is attached to list responses.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes totalPages from the row count.
func NewPagination(page, limit, total int) *Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return &Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// APIResponse is the envelope every endpoint returns.
type APIResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}
