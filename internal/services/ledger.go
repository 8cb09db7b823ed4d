package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"asset-service/internal/apperr"
	"asset-service/internal/models"
)

// applyDelta mutates a ledger row's counters in place after checking the
// invariants: no counter may go negative and available + assigned may never
// exceed quantity. The row status is refreshed on success.
func applyDelta(row *models.InventoryRow, dTotal, dAvailable, dAssigned int) error {
	quantity := row.Quantity + dTotal
	available := row.AvailableQuantity + dAvailable
	assigned := row.AssignedQuantity + dAssigned

	if available < 0 {
		return &apperr.InsufficientQuantityError{
			Available: row.AvailableQuantity,
			Requested: -dAvailable,
		}
	}
	if quantity < 0 || assigned < 0 {
		return &apperr.InvariantViolationError{
			Msg: fmt.Sprintf("counters would go negative: quantity %d, assigned %d", quantity, assigned),
		}
	}
	if available+assigned > quantity {
		return &apperr.InvariantViolationError{
			Msg: fmt.Sprintf("available %d + assigned %d would exceed quantity %d", available, assigned, quantity),
		}
	}

	row.Quantity = quantity
	row.AvailableQuantity = available
	row.AssignedQuantity = assigned
	row.RefreshStatus()

	return nil
}

// depletionStep is one row's share of a depletion.
type depletionStep struct {
	Row     *models.InventoryRow
	Consume int
}

// planDepletion distributes a requested quantity across ledger rows,
// largest available first, consuming min(remaining, row.available) from
// each. Rows must already be sorted by descending available quantity. Fails
// without touching anything when the total available falls short.
func planDepletion(rows []*models.InventoryRow, quantity int) ([]depletionStep, error) {
	available := 0
	for _, row := range rows {
		available += row.AvailableQuantity
	}
	if available < quantity {
		return nil, &apperr.InsufficientQuantityError{Available: available, Requested: quantity}
	}

	var steps []depletionStep
	remaining := quantity
	for _, row := range rows {
		if remaining == 0 {
			break
		}
		consume := row.AvailableQuantity
		if consume > remaining {
			consume = remaining
		}
		if consume == 0 {
			continue
		}
		steps = append(steps, depletionStep{Row: row, Consume: consume})
		remaining -= consume
	}

	return steps, nil
}

// sumAvailable totals the available counter across rows.
func sumAvailable(rows []*models.InventoryRow) int {
	total := 0
	for _, row := range rows {
		total += row.AvailableQuantity
	}
	return total
}

// generateNumber builds a human-readable document number like
// TRF-20240101120000-a1b2c3.
func generateNumber(prefix string) string {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		// Timestamp alone still identifies the document well enough
		return fmt.Sprintf("%s-%s", prefix, time.Now().Format("20060102150405"))
	}
	return fmt.Sprintf("%s-%s-%s", prefix, time.Now().Format("20060102150405"), hex.EncodeToString(buf))
}
