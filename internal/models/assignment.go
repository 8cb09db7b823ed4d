package models

import (
	"time"
)

// AssignmentStatus tracks checked-out stock through return or loss.
type AssignmentStatus string

const (
	AssignmentActive            AssignmentStatus = "active"
	AssignmentPartiallyReturned AssignmentStatus = "partially_returned"
	AssignmentReturned          AssignmentStatus = "returned"
	AssignmentLost              AssignmentStatus = "lost"
	AssignmentDamaged           AssignmentStatus = "damaged"
)

// IsOpen reports whether the assignment can still accept returns.
func (s AssignmentStatus) IsOpen() bool {
	return s == AssignmentActive || s == AssignmentPartiallyReturned
}

// Assignment checks out quantity to personnel. It moves stock between the
// available and assigned counters without changing the total, until the
// stock is returned, lost, or damaged.
type Assignment struct {
	ID               int              `json:"id" db:"id"`
	AssetTypeID      int              `json:"asset_type_id" db:"asset_type_id"`
	BaseID           int              `json:"base_id" db:"base_id"`
	AssignedTo       int              `json:"assigned_to" db:"assigned_to"`
	Quantity         int              `json:"quantity" db:"quantity"`
	ReturnedQuantity int              `json:"returned_quantity" db:"returned_quantity"`
	Status           AssignmentStatus `json:"status" db:"status"`
	AssignmentDate   time.Time        `json:"assignment_date" db:"assignment_date"`
	ReturnDate       *time.Time       `json:"return_date,omitempty" db:"return_date"`
	CreatedBy        int              `json:"created_by" db:"created_by"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
}

// Outstanding is the quantity still checked out.
func (a *Assignment) Outstanding() int {
	return a.Quantity - a.ReturnedQuantity
}

// AssignmentFilter narrows assignment list queries.
type AssignmentFilter struct {
	BaseID      *int              `json:"base_id,omitempty"`
	AssetTypeID *int              `json:"asset_type_id,omitempty"`
	AssignedTo  *int              `json:"assigned_to,omitempty"`
	Status      *AssignmentStatus `json:"status,omitempty"`
	Page        int               `json:"page"`
	Limit       int               `json:"limit"`
}
