package models

import (
	"time"
)

// Expenditure consumes stock permanently. Depletion happens once at creation;
// later edits only touch metadata and never re-credit the ledger.
type Expenditure struct {
	ID              int       `json:"id" db:"id"`
	AssetTypeID     int       `json:"asset_type_id" db:"asset_type_id"`
	BaseID          int       `json:"base_id" db:"base_id"`
	Quantity        int       `json:"quantity" db:"quantity"`
	ExpenditureDate time.Time `json:"expenditure_date" db:"expenditure_date"`
	Reason          string    `json:"reason" db:"reason"`
	CreatedBy       int       `json:"created_by" db:"created_by"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// ExpenditureFilter narrows expenditure list queries.
type ExpenditureFilter struct {
	BaseID      *int `json:"base_id,omitempty"`
	AssetTypeID *int `json:"asset_type_id,omitempty"`
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
}
