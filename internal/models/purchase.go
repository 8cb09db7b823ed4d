package models

import (
	"time"
)

// PurchaseStatus is the purchase state machine. Approval is irreversible.
type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "pending"
	PurchaseApproved  PurchaseStatus = "approved"
	PurchaseCancelled PurchaseStatus = "cancelled"
)

// Purchase materializes stock into a base's ledger row when approved.
type Purchase struct {
	ID             int            `json:"id" db:"id"`
	PurchaseNumber string         `json:"purchase_number" db:"purchase_number"`
	AssetTypeID    int            `json:"asset_type_id" db:"asset_type_id"`
	BaseID         int            `json:"base_id" db:"base_id"`
	Quantity       int            `json:"quantity" db:"quantity"`
	UnitCost       float64        `json:"unit_cost" db:"unit_cost"`
	TotalCost      float64        `json:"total_cost" db:"total_cost"`
	Status         PurchaseStatus `json:"status" db:"status"`
	SerialNumbers  []string       `json:"serial_numbers,omitempty" db:"serial_numbers"`
	RequestedBy    int            `json:"requested_by" db:"requested_by"`
	ApprovedBy     *int           `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt     *time.Time     `json:"approved_at,omitempty" db:"approved_at"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// PurchaseFilter narrows purchase list queries.
type PurchaseFilter struct {
	BaseID      *int            `json:"base_id,omitempty"`
	AssetTypeID *int            `json:"asset_type_id,omitempty"`
	Status      *PurchaseStatus `json:"status,omitempty"`
	Page        int             `json:"page"`
	Limit       int             `json:"limit"`
}
