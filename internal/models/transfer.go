package models

import (
	"time"
)

// TransferStatus is the transfer state machine: pending -> approved (which
// executes the ledger move) or pending -> rejected/cancelled.
type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferApproved  TransferStatus = "approved"
	TransferRejected  TransferStatus = "rejected"
	TransferCompleted TransferStatus = "completed"
	TransferCancelled TransferStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed.
func (s TransferStatus) IsTerminal() bool {
	return s == TransferApproved || s == TransferRejected ||
		s == TransferCompleted || s == TransferCancelled
}

// Executed reports whether the ledger move has happened. Executed transfers
// keep their record; only admins may remove them.
func (s TransferStatus) Executed() bool {
	return s == TransferApproved || s == TransferCompleted
}

// Transfer moves quantity from one base's ledger to another's once approved.
type Transfer struct {
	ID             int            `json:"id" db:"id"`
	TransferNumber string         `json:"transfer_number" db:"transfer_number"`
	AssetTypeID    int            `json:"asset_type_id" db:"asset_type_id"`
	FromBaseID     int            `json:"from_base_id" db:"from_base_id"`
	ToBaseID       int            `json:"to_base_id" db:"to_base_id"`
	Quantity       int            `json:"quantity" db:"quantity"`
	Status         TransferStatus `json:"status" db:"status"`
	Notes          string         `json:"notes" db:"notes"`
	RequestedBy    int            `json:"requested_by" db:"requested_by"`
	ApprovedBy     *int           `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt     *time.Time     `json:"approved_at,omitempty" db:"approved_at"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}

// InvolvesBase reports whether the base is either end of the transfer.
func (t *Transfer) InvolvesBase(baseID int) bool {
	return t.FromBaseID == baseID || t.ToBaseID == baseID
}

// TransferFilter narrows transfer list queries.
type TransferFilter struct {
	BaseID      *int            `json:"base_id,omitempty"`
	AssetTypeID *int            `json:"asset_type_id,omitempty"`
	Status      *TransferStatus `json:"status,omitempty"`
	Page        int             `json:"page"`
	Limit       int             `json:"limit"`
}
