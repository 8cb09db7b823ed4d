package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"asset-service/internal/apperr"
	"asset-service/internal/models"

	"go.uber.org/zap"
)

func newExpenditureService(store *fakeStore) ExpenditureService {
	return NewExpenditureService(
		&fakeExpenditureRepo{store: store},
		&fakeAssetTypeRepo{store: store},
		&fakeTxRunner{store: store},
		testCache(),
		zap.NewNop(),
	)
}

func TestExpenditureDepletesLargestRowFirst(t *testing.T) {
	store := newFakeStore()
	ammo := store.addAssetType("AMM")
	large := store.addRow(ammo.ID, 1, 60, 60, 0)
	small := store.addRow(ammo.ID, 1, 50, 50, 0)
	svc := newExpenditureService(store)

	expenditure, err := svc.Create(context.Background(), officerActor(1), &models.CreateExpenditureRequest{
		AssetTypeID:     ammo.ID,
		BaseID:          1,
		Quantity:        80,
		ExpenditureDate: time.Now(),
		Reason:          "training exercise",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if expenditure.ID == 0 {
		t.Error("expenditure not persisted")
	}

	largeRow, smallRow := store.rows[large.ID], store.rows[small.ID]
	if largeRow.Quantity != 0 || largeRow.AvailableQuantity != 0 {
		t.Errorf("large row = %d/%d, want fully depleted", largeRow.Quantity, largeRow.AvailableQuantity)
	}
	if largeRow.Status != models.InventoryRetired {
		t.Errorf("large row status = %s, want retired", largeRow.Status)
	}
	if smallRow.Quantity != 30 || smallRow.AvailableQuantity != 30 {
		t.Errorf("small row = %d/%d, want 30/30", smallRow.Quantity, smallRow.AvailableQuantity)
	}

	var recorded int
	for _, m := range store.movements {
		if m.Action == models.MovementExpenditure {
			recorded += m.Quantity
		}
	}
	if recorded != 80 {
		t.Errorf("movement trail totals %d, want 80", recorded)
	}
}

func TestExpenditureShortfallLeavesLedgerUntouched(t *testing.T) {
	store := newFakeStore()
	ammo := store.addAssetType("AMM")
	first := store.addRow(ammo.ID, 1, 60, 60, 0)
	second := store.addRow(ammo.ID, 1, 50, 50, 0)
	svc := newExpenditureService(store)

	_, err := svc.Create(context.Background(), officerActor(1), &models.CreateExpenditureRequest{
		AssetTypeID:     ammo.ID,
		BaseID:          1,
		Quantity:        200,
		ExpenditureDate: time.Now(),
		Reason:          "training exercise",
	})

	var insufficient *apperr.InsufficientQuantityError
	if !errors.As(err, &insufficient) {
		t.Fatalf("error = %v, want InsufficientQuantityError", err)
	}
	if insufficient.Available != 110 || insufficient.Requested != 200 {
		t.Errorf("got available=%d requested=%d, want 110 and 200", insufficient.Available, insufficient.Requested)
	}
	if store.rows[first.ID].Quantity != 60 || store.rows[second.ID].Quantity != 50 {
		t.Error("ledger mutated despite shortfall")
	}
	if len(store.expenditures) != 0 {
		t.Error("expenditure persisted despite shortfall")
	}
	if len(store.movements) != 0 {
		t.Error("movements recorded despite shortfall")
	}
}

func TestExpenditureForeignBaseForbidden(t *testing.T) {
	store := newFakeStore()
	ammo := store.addAssetType("AMM")
	store.addRow(ammo.ID, 1, 60, 60, 0)
	svc := newExpenditureService(store)

	_, err := svc.Create(context.Background(), officerActor(2), &models.CreateExpenditureRequest{
		AssetTypeID:     ammo.ID,
		BaseID:          1,
		Quantity:        10,
		ExpenditureDate: time.Now(),
		Reason:          "training exercise",
	})

	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}
}

func TestExpenditureUpdateTouchesMetadataOnly(t *testing.T) {
	store := newFakeStore()
	ammo := store.addAssetType("AMM")
	rowRec := store.addRow(ammo.ID, 1, 60, 60, 0)
	svc := newExpenditureService(store)
	ctx := context.Background()

	expenditure, err := svc.Create(ctx, officerActor(1), &models.CreateExpenditureRequest{
		AssetTypeID:     ammo.ID,
		BaseID:          1,
		Quantity:        20,
		ExpenditureDate: time.Now(),
		Reason:          "training exercise",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	newReason := "live fire drill"
	updated, err := svc.Update(ctx, officerActor(1), expenditure.ID, &models.UpdateExpenditureRequest{
		Reason: &newReason,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.Reason != newReason {
		t.Errorf("reason = %q, want %q", updated.Reason, newReason)
	}
	if updated.Quantity != 20 {
		t.Errorf("quantity = %d, want unchanged 20", updated.Quantity)
	}
	// Depleted stock is never re-credited
	if store.rows[rowRec.ID].Quantity != 40 {
		t.Errorf("ledger quantity = %d, want 40", store.rows[rowRec.ID].Quantity)
	}

	empty := ""
	if _, err := svc.Update(ctx, officerActor(1), expenditure.ID, &models.UpdateExpenditureRequest{Reason: &empty}); err == nil {
		t.Error("empty reason accepted")
	}
}

func TestExpenditureDeleteAdminOnly(t *testing.T) {
	store := newFakeStore()
	ammo := store.addAssetType("AMM")
	store.addRow(ammo.ID, 1, 60, 60, 0)
	svc := newExpenditureService(store)
	ctx := context.Background()

	expenditure, err := svc.Create(ctx, officerActor(1), &models.CreateExpenditureRequest{
		AssetTypeID:     ammo.ID,
		BaseID:          1,
		Quantity:        20,
		ExpenditureDate: time.Now(),
		Reason:          "training exercise",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, commanderActor(2), expenditure.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("foreign commander delete: error = %v, want ErrForbidden", err)
	}
	if err := svc.Delete(ctx, commanderActor(1), expenditure.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Errorf("own-base commander delete: error = %v, want ErrForbidden", err)
	}
	if store.expenditures[expenditure.ID] == nil {
		t.Fatal("expenditure deleted by non-admin")
	}

	if err := svc.Delete(ctx, adminActor(), expenditure.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
}

func TestExpenditureDeleteDoesNotRecredit(t *testing.T) {
	store := newFakeStore()
	ammo := store.addAssetType("AMM")
	rowRec := store.addRow(ammo.ID, 1, 60, 60, 0)
	svc := newExpenditureService(store)
	ctx := context.Background()

	expenditure, err := svc.Create(ctx, adminActor(), &models.CreateExpenditureRequest{
		AssetTypeID:     ammo.ID,
		BaseID:          1,
		Quantity:        20,
		ExpenditureDate: time.Now(),
		Reason:          "training exercise",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, adminActor(), expenditure.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if store.expenditures[expenditure.ID] != nil {
		t.Error("expenditure still present after delete")
	}
	if store.rows[rowRec.ID].Quantity != 40 {
		t.Errorf("ledger quantity = %d, want still 40 after delete", store.rows[rowRec.ID].Quantity)
	}
}
