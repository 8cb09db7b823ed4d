package models

import (
	"time"
)

// InventoryRowStatus tracks how much of a ledger row is still usable.
type InventoryRowStatus string

const (
	InventoryAvailable InventoryRowStatus = "available"
	InventoryAssigned  InventoryRowStatus = "assigned"
	InventoryRetired   InventoryRowStatus = "retired"
)

// InventoryRow is the per-(asset type, base) ledger record and the single
// source of truth for quantities. More than one row may exist for the same
// (asset type, base) pair when stock arrived in separate lots.
type InventoryRow struct {
	ID                int                `json:"id" db:"id"`
	AssetTypeID       int                `json:"asset_type_id" db:"asset_type_id"`
	BaseID            int                `json:"base_id" db:"base_id"`
	Quantity          int                `json:"quantity" db:"quantity"`
	AvailableQuantity int                `json:"available_quantity" db:"available_quantity"`
	AssignedQuantity  int                `json:"assigned_quantity" db:"assigned_quantity"`
	Status            InventoryRowStatus `json:"status" db:"status"`
	CreatedAt         time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at" db:"updated_at"`
}

// RefreshStatus derives the row status from its counters.
func (r *InventoryRow) RefreshStatus() {
	switch {
	case r.Quantity == 0:
		r.Status = InventoryRetired
	case r.AvailableQuantity == 0:
		r.Status = InventoryAssigned
	default:
		r.Status = InventoryAvailable
	}
}

// InventoryFilter narrows inventory list queries.
type InventoryFilter struct {
	BaseID      *int `json:"base_id,omitempty"`
	AssetTypeID *int `json:"asset_type_id,omitempty"`
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
}

// Movement is the audit record written for every ledger mutation.
type Movement struct {
	ID             int       `json:"id" db:"id"`
	AssetTypeID    int       `json:"asset_type_id" db:"asset_type_id"`
	BaseID         int       `json:"base_id" db:"base_id"`
	Action         string    `json:"action" db:"action"`
	Quantity       int       `json:"quantity" db:"quantity"`
	QuantityBefore int       `json:"quantity_before" db:"quantity_before"`
	QuantityAfter  int       `json:"quantity_after" db:"quantity_after"`
	Reference      string    `json:"reference" db:"reference"`
	ActorID        int       `json:"actor_id" db:"actor_id"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Movement actions.
const (
	MovementTransferOut = "transfer_out"
	MovementTransferIn  = "transfer_in"
	MovementPurchase    = "purchase"
	MovementExpenditure = "expenditure"
	MovementAssignment  = "assignment"
	MovementReturn      = "return"
	MovementWriteOff    = "write_off"
	MovementAdjustment  = "adjustment"
)

// MovementFilter narrows movement history queries.
type MovementFilter struct {
	BaseID      *int    `json:"base_id,omitempty"`
	AssetTypeID *int    `json:"asset_type_id,omitempty"`
	Action      *string `json:"action,omitempty"`
	Page        int     `json:"page"`
	Limit       int     `json:"limit"`
}
