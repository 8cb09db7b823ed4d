package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"asset-service/internal/apperr"
	"asset-service/internal/models"

	"go.uber.org/zap"
)

func newPurchaseService(store *fakeStore) PurchaseService {
	return NewPurchaseService(
		&fakePurchaseRepo{store: store},
		&fakeAssetTypeRepo{store: store},
		&fakeTxRunner{store: store},
		testCache(),
		zap.NewNop(),
	)
}

func TestPurchaseOfficerCreatesPending(t *testing.T) {
	store := newFakeStore()
	rifle := store.addAssetType("RIF")
	svc := newPurchaseService(store)

	purchase, err := svc.Create(context.Background(), officerActor(1), &models.CreatePurchaseRequest{
		AssetTypeID: rifle.ID,
		BaseID:      1,
		Quantity:    10,
		UnitCost:    250,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if purchase.Status != models.PurchasePending {
		t.Errorf("status = %s, want pending", purchase.Status)
	}
	if purchase.TotalCost != 2500 {
		t.Errorf("total cost = %f, want 2500", purchase.TotalCost)
	}
	if len(store.rowsFor(rifle.ID, 1)) != 0 {
		t.Error("ledger row created before approval")
	}
}

func TestPurchaseCommanderSelfApproves(t *testing.T) {
	store := newFakeStore()
	rifle := store.addAssetType("RIF")
	svc := newPurchaseService(store)

	purchase, err := svc.Create(context.Background(), commanderActor(1), &models.CreatePurchaseRequest{
		AssetTypeID: rifle.ID,
		BaseID:      1,
		Quantity:    5,
		UnitCost:    100,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if purchase.Status != models.PurchaseApproved {
		t.Fatalf("status = %s, want approved", purchase.Status)
	}

	rows := store.rowsFor(rifle.ID, 1)
	if len(rows) != 1 || rows[0].Quantity != 5 || rows[0].AvailableQuantity != 5 {
		t.Errorf("ledger rows = %+v, want one 5/5 row", rows)
	}
	if len(purchase.SerialNumbers) != 5 {
		t.Fatalf("got %d serials, want 5", len(purchase.SerialNumbers))
	}
	for _, serial := range purchase.SerialNumbers {
		if !strings.HasPrefix(serial, "RIF-") {
			t.Errorf("serial %q lacks type code prefix", serial)
		}
	}
}

func TestPurchaseApproveIncrementsExistingRow(t *testing.T) {
	store := newFakeStore()
	rifle := store.addAssetType("RIF")
	existing := store.addRow(rifle.ID, 1, 10, 8, 2)
	svc := newPurchaseService(store)
	ctx := context.Background()

	purchase, err := svc.Create(ctx, officerActor(1), &models.CreatePurchaseRequest{
		AssetTypeID: rifle.ID,
		BaseID:      1,
		Quantity:    15,
		UnitCost:    100,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Approve(ctx, adminActor(), purchase.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	rowRec := store.rows[existing.ID]
	if rowRec.Quantity != 25 || rowRec.AvailableQuantity != 23 || rowRec.AssignedQuantity != 2 {
		t.Errorf("row = %d/%d/%d, want 25/23/2", rowRec.Quantity, rowRec.AvailableQuantity, rowRec.AssignedQuantity)
	}
	if len(store.rowsFor(rifle.ID, 1)) != 1 {
		t.Error("second ledger row created instead of incrementing")
	}
}

func TestPurchaseApproveIsTerminal(t *testing.T) {
	store := newFakeStore()
	rifle := store.addAssetType("RIF")
	svc := newPurchaseService(store)
	ctx := context.Background()

	purchase, err := svc.Create(ctx, officerActor(1), &models.CreatePurchaseRequest{
		AssetTypeID: rifle.ID,
		BaseID:      1,
		Quantity:    10,
		UnitCost:    100,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Approve(ctx, adminActor(), purchase.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	// A second approval must not materialize stock twice
	_, err = svc.Approve(ctx, adminActor(), purchase.ID)
	var transition *apperr.InvalidStateTransitionError
	if !errors.As(err, &transition) {
		t.Fatalf("error = %v, want InvalidStateTransitionError", err)
	}
	if rows := store.rowsFor(rifle.ID, 1); rows[0].Quantity != 10 {
		t.Errorf("quantity = %d, want 10 after duplicate approval refused", rows[0].Quantity)
	}

	_, err = svc.Cancel(ctx, adminActor(), purchase.ID)
	if !errors.As(err, &transition) {
		t.Errorf("cancel approved: error = %v, want InvalidStateTransitionError", err)
	}
}

func TestPurchaseCancelPending(t *testing.T) {
	store := newFakeStore()
	rifle := store.addAssetType("RIF")
	svc := newPurchaseService(store)
	ctx := context.Background()

	purchase, err := svc.Create(ctx, officerActor(1), &models.CreatePurchaseRequest{
		AssetTypeID: rifle.ID,
		BaseID:      1,
		Quantity:    10,
		UnitCost:    100,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	cancelled, err := svc.Cancel(ctx, commanderActor(1), purchase.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != models.PurchaseCancelled {
		t.Errorf("status = %s, want cancelled", cancelled.Status)
	}
	if len(store.rowsFor(rifle.ID, 1)) != 0 {
		t.Error("ledger touched by cancellation")
	}
}

func TestPurchaseCreateForeignBaseForbidden(t *testing.T) {
	store := newFakeStore()
	rifle := store.addAssetType("RIF")
	svc := newPurchaseService(store)

	_, err := svc.Create(context.Background(), commanderActor(2), &models.CreatePurchaseRequest{
		AssetTypeID: rifle.ID,
		BaseID:      1,
		Quantity:    10,
		UnitCost:    100,
	})

	if !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("error = %v, want ErrForbidden", err)
	}
}

func TestPurchaseUnknownAssetType(t *testing.T) {
	store := newFakeStore()
	svc := newPurchaseService(store)

	_, err := svc.Create(context.Background(), adminActor(), &models.CreatePurchaseRequest{
		AssetTypeID: 99,
		BaseID:      1,
		Quantity:    10,
		UnitCost:    100,
	})

	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}
