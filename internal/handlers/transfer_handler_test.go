package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"asset-service/internal/apperr"
	"asset-service/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// stubTransferService returns canned results so tests can focus on HTTP
// binding, envelope shape, and error mapping.
type stubTransferService struct {
	transfer  *models.Transfer
	transfers []*models.Transfer
	total     int
	err       error

	lastFilter *models.TransferFilter
}

func (s *stubTransferService) Create(ctx context.Context, actor *models.Actor, req *models.CreateTransferRequest) (*models.Transfer, error) {
	return s.transfer, s.err
}

func (s *stubTransferService) Approve(ctx context.Context, actor *models.Actor, id int) (*models.Transfer, error) {
	return s.transfer, s.err
}

func (s *stubTransferService) Reject(ctx context.Context, actor *models.Actor, id int, notes string) (*models.Transfer, error) {
	return s.transfer, s.err
}

func (s *stubTransferService) Delete(ctx context.Context, actor *models.Actor, id int) error {
	return s.err
}

func (s *stubTransferService) GetByID(ctx context.Context, actor *models.Actor, id int) (*models.Transfer, error) {
	return s.transfer, s.err
}

func (s *stubTransferService) List(ctx context.Context, actor *models.Actor, filter *models.TransferFilter) ([]*models.Transfer, int, error) {
	s.lastFilter = filter
	return s.transfers, s.total, s.err
}

func newTransferRouter(stub *stubTransferService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewTransferHandler(stub, zap.NewNop())

	router := gin.New()
	group := router.Group("/api/transfers")
	group.GET("", handler.List)
	group.GET("/:id", handler.GetByID)
	group.POST("", handler.Create)
	group.POST("/:id/approve", handler.Approve)
	group.POST("/:id/reject", handler.Reject)
	group.DELETE("/:id", handler.Delete)
	return router
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) *models.APIResponse {
	t.Helper()
	var envelope models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
	}
	return &envelope
}

func TestTransferCreateReturnsCreatedEnvelope(t *testing.T) {
	stub := &stubTransferService{
		transfer: &models.Transfer{
			ID:             12,
			TransferNumber: "TRF-20240102150405-a1b2c3",
			AssetTypeID:    1,
			FromBaseID:     1,
			ToBaseID:       2,
			Quantity:       30,
			Status:         models.TransferPending,
		},
	}
	router := newTransferRouter(stub)

	body := bytes.NewBufferString(`{"asset_type_id":1,"from_base_id":1,"to_base_id":2,"quantity":30}`)
	req := httptest.NewRequest(http.MethodPost, "/api/transfers", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
	envelope := decodeEnvelope(t, rec)
	if !envelope.Success || envelope.Error != "" {
		t.Errorf("envelope = %+v, want success with no error", envelope)
	}
	data, ok := envelope.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("data = %T, want object", envelope.Data)
	}
	if data["transfer_number"] != "TRF-20240102150405-a1b2c3" || data["status"] != "pending" {
		t.Errorf("data = %v, transfer fields missing", data)
	}
}

func TestTransferCreateRejectsInvalidBody(t *testing.T) {
	router := newTransferRouter(&stubTransferService{})

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"asset_type_id":`},
		{"missing fields", `{"asset_type_id":1}`},
		{"non-positive quantity", `{"asset_type_id":1,"from_base_id":1,"to_base_id":2,"quantity":0}`},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/transfers", bytes.NewBufferString(tc.body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.name, rec.Code)
		}
		if envelope := decodeEnvelope(t, rec); envelope.Success || envelope.Error == "" {
			t.Errorf("%s: envelope = %+v, want failure with error message", tc.name, envelope)
		}
	}
}

func TestTransferErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", apperr.ErrNotFound, http.StatusNotFound},
		{"forbidden", apperr.ErrForbidden, http.StatusForbidden},
		{"insufficient stock", &apperr.InsufficientQuantityError{Available: 3, Requested: 5}, http.StatusBadRequest},
		{"terminal state", &apperr.InvalidStateTransitionError{Entity: "transfer", From: "rejected", Action: "approve"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		router := newTransferRouter(&stubTransferService{err: tc.err})
		req := httptest.NewRequest(http.MethodPost, "/api/transfers/12/approve", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, rec.Code, tc.want)
		}
		if envelope := decodeEnvelope(t, rec); envelope.Success || envelope.Error == "" {
			t.Errorf("%s: envelope = %+v, want failure with error message", tc.name, envelope)
		}
	}
}

func TestTransferInternalErrorIsOpaque(t *testing.T) {
	router := newTransferRouter(&stubTransferService{err: context.DeadlineExceeded})

	req := httptest.NewRequest(http.MethodGet, "/api/transfers/12", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if envelope := decodeEnvelope(t, rec); envelope.Error != "internal server error" {
		t.Errorf("error = %q, internal detail leaked", envelope.Error)
	}
}

func TestTransferRejectToleratesEmptyBody(t *testing.T) {
	stub := &stubTransferService{
		transfer: &models.Transfer{ID: 12, Status: models.TransferRejected},
	}
	router := newTransferRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/transfers/12/reject", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestTransferListEnvelopeCarriesPagination(t *testing.T) {
	stub := &stubTransferService{
		transfers: []*models.Transfer{
			{ID: 1, Status: models.TransferPending},
			{ID: 2, Status: models.TransferApproved},
		},
		total: 45,
	}
	router := newTransferRouter(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/transfers?page=2&limit=20&status=pending", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	envelope := decodeEnvelope(t, rec)
	if envelope.Pagination == nil {
		t.Fatal("pagination missing from list envelope")
	}
	p := envelope.Pagination
	if p.Page != 2 || p.Limit != 20 || p.Total != 45 || p.TotalPages != 3 {
		t.Errorf("pagination = %+v, want page 2 limit 20 total 45 totalPages 3", p)
	}
	if stub.lastFilter == nil || stub.lastFilter.Status == nil || *stub.lastFilter.Status != models.TransferPending {
		t.Errorf("filter = %+v, status query not forwarded", stub.lastFilter)
	}
}

func TestTransferBadIDParam(t *testing.T) {
	router := newTransferRouter(&stubTransferService{})

	req := httptest.NewRequest(http.MethodGet, "/api/transfers/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
