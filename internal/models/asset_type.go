package models

import (
	"time"
)

// AssetType is the catalog entry workflows validate against. The code is
// also the prefix for generated serial numbers.
type AssetType struct {
	ID        int       `json:"id" db:"id"`
	Code      string    `json:"code" db:"code"`
	Name      string    `json:"name" db:"name"`
	Category  string    `json:"category" db:"category"`
	UnitValue float64   `json:"unit_value" db:"unit_value"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
