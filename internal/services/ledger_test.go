package services

import (
	"errors"
	"testing"
	"time"

	"asset-service/internal/apperr"
	"asset-service/internal/models"
)

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return parsed
}

func row(quantity, available, assigned int) *models.InventoryRow {
	r := &models.InventoryRow{
		Quantity:          quantity,
		AvailableQuantity: available,
		AssignedQuantity:  assigned,
	}
	r.RefreshStatus()
	return r
}

func TestApplyDeltaAssignmentMovesCounters(t *testing.T) {
	r := row(10, 7, 3)

	if err := applyDelta(r, 0, -2, 2); err != nil {
		t.Fatalf("applyDelta: %v", err)
	}

	if r.Quantity != 10 || r.AvailableQuantity != 5 || r.AssignedQuantity != 5 {
		t.Errorf("got quantity=%d available=%d assigned=%d", r.Quantity, r.AvailableQuantity, r.AssignedQuantity)
	}
	if r.Status != models.InventoryAvailable {
		t.Errorf("status = %s, want available", r.Status)
	}
}

func TestApplyDeltaInsufficientAvailable(t *testing.T) {
	r := row(10, 3, 7)

	err := applyDelta(r, 0, -5, 5)

	var insufficient *apperr.InsufficientQuantityError
	if !errors.As(err, &insufficient) {
		t.Fatalf("error = %v, want InsufficientQuantityError", err)
	}
	if insufficient.Available != 3 || insufficient.Requested != 5 {
		t.Errorf("got available=%d requested=%d", insufficient.Available, insufficient.Requested)
	}
	// Row untouched on failure
	if r.Quantity != 10 || r.AvailableQuantity != 3 || r.AssignedQuantity != 7 {
		t.Errorf("row mutated on failed delta: %+v", r)
	}
}

func TestApplyDeltaRejectsCounterSumViolation(t *testing.T) {
	r := row(10, 7, 3)

	err := applyDelta(r, 0, 1, 0)

	var violation *apperr.InvariantViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("error = %v, want InvariantViolationError", err)
	}
}

func TestApplyDeltaRejectsNegativeCounters(t *testing.T) {
	r := row(5, 5, 0)

	var violation *apperr.InvariantViolationError
	if err := applyDelta(r, -6, -5, 0); !errors.As(err, &violation) {
		t.Errorf("negative quantity: error = %v, want InvariantViolationError", err)
	}
	if err := applyDelta(r, 0, 0, -1); !errors.As(err, &violation) {
		t.Errorf("negative assigned: error = %v, want InvariantViolationError", err)
	}
}

func TestApplyDeltaRefreshesStatus(t *testing.T) {
	r := row(4, 4, 0)

	if err := applyDelta(r, 0, -4, 4); err != nil {
		t.Fatalf("applyDelta: %v", err)
	}
	if r.Status != models.InventoryAssigned {
		t.Errorf("status = %s, want assigned", r.Status)
	}

	if err := applyDelta(r, -4, 0, -4); err != nil {
		t.Fatalf("applyDelta: %v", err)
	}
	if r.Status != models.InventoryRetired {
		t.Errorf("status = %s, want retired", r.Status)
	}
}

func TestPlanDepletionLargestAvailableFirst(t *testing.T) {
	large := row(10, 8, 2)
	small := row(5, 3, 2)

	steps, err := planDepletion([]*models.InventoryRow{large, small}, 9)
	if err != nil {
		t.Fatalf("planDepletion: %v", err)
	}

	if len(steps) != 2 {
		t.Fatalf("got %d steps, want 2", len(steps))
	}
	if steps[0].Row != large || steps[0].Consume != 8 {
		t.Errorf("step 0 = {%p %d}, want large row consuming 8", steps[0].Row, steps[0].Consume)
	}
	if steps[1].Row != small || steps[1].Consume != 1 {
		t.Errorf("step 1 consume = %d, want 1", steps[1].Consume)
	}
}

func TestPlanDepletionSingleRowPartial(t *testing.T) {
	r := row(10, 8, 2)

	steps, err := planDepletion([]*models.InventoryRow{r}, 3)
	if err != nil {
		t.Fatalf("planDepletion: %v", err)
	}
	if len(steps) != 1 || steps[0].Consume != 3 {
		t.Fatalf("steps = %+v, want one step consuming 3", steps)
	}
}

func TestPlanDepletionShortfall(t *testing.T) {
	rows := []*models.InventoryRow{row(10, 4, 6), row(5, 2, 3)}

	_, err := planDepletion(rows, 7)

	var insufficient *apperr.InsufficientQuantityError
	if !errors.As(err, &insufficient) {
		t.Fatalf("error = %v, want InsufficientQuantityError", err)
	}
	if insufficient.Available != 6 || insufficient.Requested != 7 {
		t.Errorf("got available=%d requested=%d, want 6 and 7", insufficient.Available, insufficient.Requested)
	}
}

func TestPlanDepletionSkipsEmptyRows(t *testing.T) {
	full := row(5, 5, 0)
	empty := row(5, 0, 5)

	steps, err := planDepletion([]*models.InventoryRow{full, empty}, 5)
	if err != nil {
		t.Fatalf("planDepletion: %v", err)
	}
	if len(steps) != 1 || steps[0].Row != full {
		t.Fatalf("steps = %+v, want only the row with available stock", steps)
	}
}

func TestGenerateNumberFormat(t *testing.T) {
	number := generateNumber("TRF")

	if len(number) < len("TRF-20060102150405") {
		t.Fatalf("number %q too short", number)
	}
	if number[:4] != "TRF-" {
		t.Errorf("number %q does not start with the prefix", number)
	}
}

func TestGenerateSerialsOnePerUnit(t *testing.T) {
	serials := generateSerials("RIF", 3, mustParse(t, "2024-01-02T15:04:05Z"))

	want := []string{
		"RIF-20240102150405-1",
		"RIF-20240102150405-2",
		"RIF-20240102150405-3",
	}
	if len(serials) != len(want) {
		t.Fatalf("got %d serials, want %d", len(serials), len(want))
	}
	for i := range want {
		if serials[i] != want[i] {
			t.Errorf("serial %d = %q, want %q", i, serials[i], want[i])
		}
	}
}
