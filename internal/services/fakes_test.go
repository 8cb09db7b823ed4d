package services

import (
	"context"
	"sort"
	"time"

	"asset-service/internal/cache"
	"asset-service/internal/models"
	"asset-service/internal/repository"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// fakeStore is an in-memory stand-in for the database shared by the fake
// repositories and the fake transaction runner.
type fakeStore struct {
	rows         map[int]*models.InventoryRow
	transfers    map[int]*models.Transfer
	purchases    map[int]*models.Purchase
	expenditures map[int]*models.Expenditure
	assignments  map[int]*models.Assignment
	assetTypes   map[int]*models.AssetType
	movements    []*models.Movement
	nextID       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:         make(map[int]*models.InventoryRow),
		transfers:    make(map[int]*models.Transfer),
		purchases:    make(map[int]*models.Purchase),
		expenditures: make(map[int]*models.Expenditure),
		assignments:  make(map[int]*models.Assignment),
		assetTypes:   make(map[int]*models.AssetType),
		nextID:       1,
	}
}

func (s *fakeStore) id() int {
	id := s.nextID
	s.nextID++
	return id
}

func (s *fakeStore) addAssetType(code string) *models.AssetType {
	t := &models.AssetType{ID: s.id(), Code: code, Name: code, Active: true}
	s.assetTypes[t.ID] = t
	return t
}

func (s *fakeStore) addRow(assetTypeID, baseID, quantity, available, assigned int) *models.InventoryRow {
	row := &models.InventoryRow{
		ID:                s.id(),
		AssetTypeID:       assetTypeID,
		BaseID:            baseID,
		Quantity:          quantity,
		AvailableQuantity: available,
		AssignedQuantity:  assigned,
	}
	row.RefreshStatus()
	s.rows[row.ID] = row
	return row
}

func (s *fakeStore) rowsFor(assetTypeID, baseID int) []*models.InventoryRow {
	var out []*models.InventoryRow
	for _, row := range s.rows {
		if row.AssetTypeID == assetTypeID && row.BaseID == baseID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvailableQuantity != out[j].AvailableQuantity {
			return out[i].AvailableQuantity > out[j].AvailableQuantity
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// snapshot deep-copies everything a transaction may touch so a failed
// transaction can be rolled back.
type storeSnapshot struct {
	rows         map[int]models.InventoryRow
	transfers    map[int]models.Transfer
	purchases    map[int]models.Purchase
	expenditures map[int]models.Expenditure
	assignments  map[int]models.Assignment
	movements    int
	nextID       int
}

func (s *fakeStore) snapshot() storeSnapshot {
	snap := storeSnapshot{
		rows:         make(map[int]models.InventoryRow, len(s.rows)),
		transfers:    make(map[int]models.Transfer, len(s.transfers)),
		purchases:    make(map[int]models.Purchase, len(s.purchases)),
		expenditures: make(map[int]models.Expenditure, len(s.expenditures)),
		assignments:  make(map[int]models.Assignment, len(s.assignments)),
		movements:    len(s.movements),
		nextID:       s.nextID,
	}
	for id, row := range s.rows {
		snap.rows[id] = *row
	}
	for id, t := range s.transfers {
		snap.transfers[id] = *t
	}
	for id, p := range s.purchases {
		snap.purchases[id] = *p
	}
	for id, e := range s.expenditures {
		snap.expenditures[id] = *e
	}
	for id, a := range s.assignments {
		snap.assignments[id] = *a
	}
	return snap
}

func (s *fakeStore) restore(snap storeSnapshot) {
	s.rows = make(map[int]*models.InventoryRow, len(snap.rows))
	for id, row := range snap.rows {
		copied := row
		s.rows[id] = &copied
	}
	s.transfers = make(map[int]*models.Transfer, len(snap.transfers))
	for id, t := range snap.transfers {
		copied := t
		s.transfers[id] = &copied
	}
	s.purchases = make(map[int]*models.Purchase, len(snap.purchases))
	for id, p := range snap.purchases {
		copied := p
		s.purchases[id] = &copied
	}
	s.expenditures = make(map[int]*models.Expenditure, len(snap.expenditures))
	for id, e := range snap.expenditures {
		copied := e
		s.expenditures[id] = &copied
	}
	s.assignments = make(map[int]*models.Assignment, len(snap.assignments))
	for id, a := range snap.assignments {
		copied := a
		s.assignments[id] = &copied
	}
	s.movements = s.movements[:snap.movements]
	s.nextID = snap.nextID
}

// fakeTx implements repository.Tx directly against the store.
type fakeTx struct {
	store *fakeStore
}

func (t *fakeTx) InventoryRowsForUpdate(ctx context.Context, assetTypeID, baseID int) ([]*models.InventoryRow, error) {
	return t.store.rowsFor(assetTypeID, baseID), nil
}

func (t *fakeTx) UpdateInventoryRow(ctx context.Context, row *models.InventoryRow) error {
	t.store.rows[row.ID] = row
	return nil
}

func (t *fakeTx) CreateInventoryRow(ctx context.Context, row *models.InventoryRow) error {
	row.ID = t.store.id()
	t.store.rows[row.ID] = row
	return nil
}

func (t *fakeTx) RecordMovement(ctx context.Context, m *models.Movement) error {
	m.ID = t.store.id()
	m.CreatedAt = time.Now()
	t.store.movements = append(t.store.movements, m)
	return nil
}

func (t *fakeTx) GetTransferForUpdate(ctx context.Context, id int) (*models.Transfer, error) {
	return t.store.transfers[id], nil
}

func (t *fakeTx) UpdateTransferStatus(ctx context.Context, tr *models.Transfer) error {
	t.store.transfers[tr.ID] = tr
	return nil
}

func (t *fakeTx) GetPurchaseForUpdate(ctx context.Context, id int) (*models.Purchase, error) {
	return t.store.purchases[id], nil
}

func (t *fakeTx) UpdatePurchaseStatus(ctx context.Context, p *models.Purchase) error {
	t.store.purchases[p.ID] = p
	return nil
}

func (t *fakeTx) CreateExpenditure(ctx context.Context, e *models.Expenditure) error {
	e.ID = t.store.id()
	t.store.expenditures[e.ID] = e
	return nil
}

func (t *fakeTx) CreateAssignment(ctx context.Context, a *models.Assignment) error {
	a.ID = t.store.id()
	t.store.assignments[a.ID] = a
	return nil
}

func (t *fakeTx) GetAssignmentForUpdate(ctx context.Context, id int) (*models.Assignment, error) {
	return t.store.assignments[id], nil
}

func (t *fakeTx) UpdateAssignment(ctx context.Context, a *models.Assignment) error {
	t.store.assignments[a.ID] = a
	return nil
}

// fakeTxRunner applies the function to the store and rolls everything back
// when it fails, mirroring the all-or-nothing semantics of the real runner.
type fakeTxRunner struct {
	store *fakeStore
}

func (r *fakeTxRunner) InTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	snap := r.store.snapshot()
	if err := fn(&fakeTx{store: r.store}); err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

// fakeInventoryRepo implements repository.InventoryRepository.
type fakeInventoryRepo struct {
	store *fakeStore
}

func (r *fakeInventoryRepo) GetByID(ctx context.Context, id int) (*models.InventoryRow, error) {
	return r.store.rows[id], nil
}

func (r *fakeInventoryRepo) GetRows(ctx context.Context, assetTypeID, baseID int) ([]*models.InventoryRow, error) {
	return r.store.rowsFor(assetTypeID, baseID), nil
}

func (r *fakeInventoryRepo) List(ctx context.Context, filter *models.InventoryFilter) ([]*models.InventoryRow, int, error) {
	var out []*models.InventoryRow
	for _, row := range r.store.rows {
		if filter.BaseID != nil && row.BaseID != *filter.BaseID {
			continue
		}
		if filter.AssetTypeID != nil && row.AssetTypeID != *filter.AssetTypeID {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r *fakeInventoryRepo) ListMovements(ctx context.Context, filter *models.MovementFilter) ([]*models.Movement, int, error) {
	var out []*models.Movement
	for _, m := range r.store.movements {
		if filter.BaseID != nil && m.BaseID != *filter.BaseID {
			continue
		}
		if filter.AssetTypeID != nil && m.AssetTypeID != *filter.AssetTypeID {
			continue
		}
		if filter.Action != nil && m.Action != *filter.Action {
			continue
		}
		out = append(out, m)
	}
	return out, len(out), nil
}

// fakeTransferRepo implements repository.TransferRepository.
type fakeTransferRepo struct {
	store *fakeStore
}

func (r *fakeTransferRepo) Create(ctx context.Context, t *models.Transfer) error {
	t.ID = r.store.id()
	t.CreatedAt = time.Now()
	r.store.transfers[t.ID] = t
	return nil
}

func (r *fakeTransferRepo) GetByID(ctx context.Context, id int) (*models.Transfer, error) {
	return r.store.transfers[id], nil
}

func (r *fakeTransferRepo) List(ctx context.Context, filter *models.TransferFilter) ([]*models.Transfer, int, error) {
	var out []*models.Transfer
	for _, t := range r.store.transfers {
		if filter.BaseID != nil && !t.InvolvesBase(*filter.BaseID) {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r *fakeTransferRepo) Delete(ctx context.Context, id int) error {
	delete(r.store.transfers, id)
	return nil
}

// fakePurchaseRepo implements repository.PurchaseRepository.
type fakePurchaseRepo struct {
	store *fakeStore
}

func (r *fakePurchaseRepo) Create(ctx context.Context, p *models.Purchase) error {
	p.ID = r.store.id()
	p.CreatedAt = time.Now()
	r.store.purchases[p.ID] = p
	return nil
}

func (r *fakePurchaseRepo) GetByID(ctx context.Context, id int) (*models.Purchase, error) {
	return r.store.purchases[id], nil
}

func (r *fakePurchaseRepo) List(ctx context.Context, filter *models.PurchaseFilter) ([]*models.Purchase, int, error) {
	var out []*models.Purchase
	for _, p := range r.store.purchases {
		if filter.BaseID != nil && p.BaseID != *filter.BaseID {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

// fakeExpenditureRepo implements repository.ExpenditureRepository.
type fakeExpenditureRepo struct {
	store *fakeStore
}

func (r *fakeExpenditureRepo) GetByID(ctx context.Context, id int) (*models.Expenditure, error) {
	return r.store.expenditures[id], nil
}

func (r *fakeExpenditureRepo) List(ctx context.Context, filter *models.ExpenditureFilter) ([]*models.Expenditure, int, error) {
	var out []*models.Expenditure
	for _, e := range r.store.expenditures {
		if filter.BaseID != nil && e.BaseID != *filter.BaseID {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r *fakeExpenditureRepo) UpdateMetadata(ctx context.Context, e *models.Expenditure) error {
	r.store.expenditures[e.ID] = e
	return nil
}

func (r *fakeExpenditureRepo) Delete(ctx context.Context, id int) error {
	delete(r.store.expenditures, id)
	return nil
}

// fakeAssignmentRepo implements repository.AssignmentRepository.
type fakeAssignmentRepo struct {
	store *fakeStore
}

func (r *fakeAssignmentRepo) GetByID(ctx context.Context, id int) (*models.Assignment, error) {
	return r.store.assignments[id], nil
}

func (r *fakeAssignmentRepo) List(ctx context.Context, filter *models.AssignmentFilter) ([]*models.Assignment, int, error) {
	var out []*models.Assignment
	for _, a := range r.store.assignments {
		if filter.BaseID != nil && a.BaseID != *filter.BaseID {
			continue
		}
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

// fakeAssetTypeRepo implements repository.AssetTypeRepository.
type fakeAssetTypeRepo struct {
	store *fakeStore
}

func (r *fakeAssetTypeRepo) GetByID(ctx context.Context, id int) (*models.AssetType, error) {
	return r.store.assetTypes[id], nil
}

func (r *fakeAssetTypeRepo) List(ctx context.Context) ([]*models.AssetType, error) {
	var out []*models.AssetType
	for _, t := range r.store.assetTypes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// testCache builds an inventory cache whose redis half always errors, so
// invalidation degrades to the L1 map. Good enough for service tests.
func testCache() *cache.InventoryCache {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	return cache.NewInventoryCache(client, 10, time.Minute, zap.NewNop())
}

func adminActor() *models.Actor {
	return &models.Actor{UserID: 1, Name: "admin", Role: models.RoleAdmin}
}

func commanderActor(baseID int) *models.Actor {
	return &models.Actor{UserID: 2, Name: "commander", Role: models.RoleBaseCommander, BaseID: baseID}
}

func officerActor(baseID int) *models.Actor {
	return &models.Actor{UserID: 3, Name: "officer", Role: models.RoleLogisticsOfficer, BaseID: baseID}
}
