package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	inventoryapp "github.com/venueos/backend/internal/application/inventory"
	"github.com/venueos/backend/internal/domain/inventory"
	"github.com/venueos/backend/internal/domain/shared"
	infrastrategy "github.com/venueos/backend/internal/infrastructure/strategy"
)

// In-memory repositories backing the handler tests

type memMaterialRepo struct {
	mu        sync.Mutex
	materials map[uuid.UUID]*inventory.RawMaterial
}

func newMemMaterialRepo() *memMaterialRepo {
	return &memMaterialRepo{materials: make(map[uuid.UUID]*inventory.RawMaterial)}
}

func (r *memMaterialRepo) Create(_ context.Context, material *inventory.RawMaterial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.materials[material.ID] = material
	return nil
}

func (r *memMaterialRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.RawMaterial, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.materials[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return m, nil
}

func (r *memMaterialRepo) FindAll(_ context.Context, _ shared.Filter) ([]*inventory.RawMaterial, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*inventory.RawMaterial, 0, len(r.materials))
	for _, m := range r.materials {
		result = append(result, m)
	}
	return result, int64(len(result)), nil
}

func (r *memMaterialRepo) Update(_ context.Context, material *inventory.RawMaterial) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.materials[material.ID]; !ok {
		return shared.ErrNotFound
	}
	r.materials[material.ID] = material
	return nil
}

func (r *memMaterialRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.materials[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.materials, id)
	return nil
}

type memBatchRepo struct {
	mu      sync.Mutex
	batches map[uuid.UUID]*inventory.StockBatch
}

func newMemBatchRepo() *memBatchRepo {
	return &memBatchRepo{batches: make(map[uuid.UUID]*inventory.StockBatch)}
}

func (r *memBatchRepo) Create(_ context.Context, batch *inventory.StockBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[batch.ID] = batch
	return nil
}

func (r *memBatchRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return b, nil
}

func (r *memBatchRepo) activeByMaterial(materialID uuid.UUID) []*inventory.StockBatch {
	result := make([]*inventory.StockBatch, 0)
	for _, b := range r.batches {
		if b.MaterialID == materialID && b.IsAvailable() {
			result = append(result, b)
		}
	}
	inventory.SortBatchesFIFO(result)
	return result
}

func (r *memBatchRepo) FindActiveByMaterial(_ context.Context, materialID uuid.UUID) ([]*inventory.StockBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeByMaterial(materialID), nil
}

func (r *memBatchRepo) FindActiveByMaterialForUpdate(_ context.Context, materialID uuid.UUID) ([]*inventory.StockBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeByMaterial(materialID), nil
}

func (r *memBatchRepo) CountByMaterialAndDay(_ context.Context, materialID uuid.UUID, day time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	y, m, d := day.Date()
	for _, b := range r.batches {
		by, bm, bd := b.ReceivedDate.Date()
		if b.MaterialID == materialID && by == y && bm == m && bd == d {
			count++
		}
	}
	return count, nil
}

func (r *memBatchRepo) FindExpirationCandidates(_ context.Context, now time.Time, limit int) ([]*inventory.StockBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*inventory.StockBatch, 0)
	for _, b := range r.batches {
		if b.Status == inventory.BatchStatusActive && b.IsExpired(now) {
			result = append(result, b)
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *memBatchRepo) Update(_ context.Context, batch *inventory.StockBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.batches[batch.ID]; !ok {
		return shared.ErrNotFound
	}
	r.batches[batch.ID] = batch
	return nil
}

func (r *memBatchRepo) GetStatistics(_ context.Context, materialID *uuid.UUID) (*inventory.BatchStatistics, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &inventory.BatchStatistics{
		CountsByStatus:      make(map[inventory.BatchStatus]int64),
		TotalRemainingValue: decimal.Zero,
	}
	for _, status := range inventory.AllBatchStatuses() {
		stats.CountsByStatus[status] = 0
	}
	for _, b := range r.batches {
		if materialID != nil && b.MaterialID != *materialID {
			continue
		}
		stats.CountsByStatus[b.Status]++
		if b.Status == inventory.BatchStatusActive {
			stats.TotalRemainingValue = stats.TotalRemainingValue.Add(b.RemainingValue())
		}
	}
	return stats, nil
}

type memMovementRepo struct {
	mu        sync.Mutex
	movements []*inventory.RawMaterialMovement
}

func newMemMovementRepo() *memMovementRepo {
	return &memMovementRepo{movements: make([]*inventory.RawMaterialMovement, 0)}
}

func (r *memMovementRepo) Create(_ context.Context, movement *inventory.RawMaterialMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movements = append(r.movements, movement)
	return nil
}

func (r *memMovementRepo) FindByMaterial(_ context.Context, materialID uuid.UUID, _ shared.Filter) ([]*inventory.RawMaterialMovement, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*inventory.RawMaterialMovement, 0)
	for _, mv := range r.movements {
		if mv.MaterialID == materialID {
			result = append(result, mv)
		}
	}
	return result, int64(len(result)), nil
}

func (r *memMovementRepo) FindByBatch(_ context.Context, batchID uuid.UUID) ([]*inventory.RawMaterialMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*inventory.RawMaterialMovement, 0)
	for _, mv := range r.movements {
		if mv.BatchID != nil && *mv.BatchID == batchID {
			result = append(result, mv)
		}
	}
	return result, nil
}

func (r *memMovementRepo) SumQuantityByMaterial(_ context.Context, materialID uuid.UUID) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := decimal.Zero
	for _, mv := range r.movements {
		if mv.MaterialID == materialID {
			sum = sum.Add(mv.Quantity)
		}
	}
	return sum, nil
}

// stubIdempotencyStore records MarkProcessed calls with canned behavior
type stubIdempotencyStore struct {
	mu    sync.Mutex
	seen  map[string]bool
	err   error
	calls int
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{seen: make(map[string]bool)}
}

func (s *stubIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return false, s.err
	}
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *stubIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen[key], nil
}

func (s *stubIdempotencyStore) Close() error { return nil }

// handlerFixture wires a real service over in-memory repositories
type handlerFixture struct {
	handler      *InventoryHandler
	service      *inventoryapp.InventoryService
	idempotency  *stubIdempotencyStore
	materialRepo *memMaterialRepo
	batchRepo    *memBatchRepo
	movementRepo *memMovementRepo
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	materialRepo := newMemMaterialRepo()
	batchRepo := newMemBatchRepo()
	movementRepo := newMemMovementRepo()
	scope := inventoryapp.NewNoOpTransactionScope(materialRepo, batchRepo, movementRepo)

	registry, err := infrastrategy.NewRegistryWithDefaults("")
	require.NoError(t, err)

	service := inventoryapp.NewInventoryService(materialRepo, batchRepo, movementRepo, scope, registry)
	idempotency := newStubIdempotencyStore()
	h := NewInventoryHandler(service, WithIdempotencyStore(idempotency, time.Hour))

	return &handlerFixture{
		handler:      h,
		service:      service,
		idempotency:  idempotency,
		materialRepo: materialRepo,
		batchRepo:    batchRepo,
		movementRepo: movementRepo,
	}
}

func (f *handlerFixture) router() *gin.Engine {
	r := gin.New()
	r.POST("/materials", f.handler.CreateMaterial)
	r.GET("/materials", f.handler.ListMaterials)
	r.GET("/materials/:id", f.handler.GetMaterial)
	r.DELETE("/materials/:id", f.handler.DeleteMaterial)
	r.GET("/materials/:id/movements", f.handler.ListMovements)
	r.POST("/materials/:id/batches", f.handler.CreateBatch)
	r.POST("/materials/:id/deductions", f.handler.Deduct)
	r.GET("/materials/:id/allocation-preview", f.handler.AllocationPreview)
	r.GET("/materials/:id/cost-impact", f.handler.CostImpact)
	r.POST("/batches/:id/quarantine", f.handler.Quarantine)
	r.GET("/batches/statistics", f.handler.BatchStatistics)
	return r
}

func (f *handlerFixture) seedMaterial(t *testing.T, name string) *inventory.RawMaterial {
	t.Helper()
	material, err := f.service.CreateRawMaterial(context.Background(), inventoryapp.CreateMaterialRequest{
		Name:        name,
		Unit:        "kg",
		CostPerUnit: decimal.NewFromFloat(10),
	})
	require.NoError(t, err)
	return material
}

func (f *handlerFixture) seedBatch(t *testing.T, materialID uuid.UUID, quantity, cost float64, received time.Time) *inventory.StockBatch {
	t.Helper()
	batch, err := f.service.CreateStockBatch(context.Background(), inventoryapp.CreateBatchRequest{
		MaterialID:   materialID,
		Quantity:     decimal.NewFromFloat(quantity),
		CostPerUnit:  decimal.NewFromFloat(cost),
		ReceivedDate: received,
	})
	require.NoError(t, err)
	return batch
}

func performJSON(t *testing.T, router *gin.Engine, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "response has no error object: %v", body)
	code, _ := errObj["code"].(string)
	return code
}

func TestCreateMaterial(t *testing.T) {
	t.Run("creates material with zero stock", func(t *testing.T) {
		f := newHandlerFixture(t)
		w := performJSON(t, f.router(), http.MethodPost, "/materials", CreateMaterialRequest{
			Name:         "Arabica beans",
			SKU:          "BEAN-AR-01",
			Unit:         "kg",
			CostPerUnit:  "15.5",
			ReorderPoint: "5",
		}, nil)

		require.Equal(t, http.StatusCreated, w.Code)
		body := decodeBody(t, w)
		assert.True(t, body["success"].(bool))
		data := body["data"].(map[string]any)
		assert.Equal(t, "Arabica beans", data["name"])
		assert.Equal(t, "0", data["current_stock"])
	})

	t.Run("rejects missing name", func(t *testing.T) {
		f := newHandlerFixture(t)
		w := performJSON(t, f.router(), http.MethodPost, "/materials", map[string]any{
			"unit": "kg",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		f := newHandlerFixture(t)
		req := httptest.NewRequest(http.MethodPost, "/materials", bytes.NewReader([]byte("{not json")))
		w := httptest.NewRecorder()
		f.router().ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetMaterial(t *testing.T) {
	t.Run("returns material by id", func(t *testing.T) {
		f := newHandlerFixture(t)
		material := f.seedMaterial(t, "Milk")

		w := performJSON(t, f.router(), http.MethodGet, "/materials/"+material.ID.String(), nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := decodeBody(t, w)["data"].(map[string]any)
		assert.Equal(t, material.ID.String(), data["id"])
	})

	t.Run("returns 404 for unknown id", func(t *testing.T) {
		f := newHandlerFixture(t)
		w := performJSON(t, f.router(), http.MethodGet, "/materials/"+uuid.New().String(), nil, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "ERR_NOT_FOUND", errorCode(t, decodeBody(t, w)))
	})

	t.Run("returns 400 for malformed id", func(t *testing.T) {
		f := newHandlerFixture(t)
		w := performJSON(t, f.router(), http.MethodGet, "/materials/not-a-uuid", nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListMaterials(t *testing.T) {
	f := newHandlerFixture(t)
	f.seedMaterial(t, "Flour")
	f.seedMaterial(t, "Sugar")

	w := performJSON(t, f.router(), http.MethodGet, "/materials?page=1&page_size=10", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Len(t, body["data"].([]any), 2)
	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(2), meta["total"])
	assert.Equal(t, float64(10), meta["page_size"])
}

func TestDeleteMaterial(t *testing.T) {
	f := newHandlerFixture(t)
	material := f.seedMaterial(t, "Butter")
	router := f.router()

	w := performJSON(t, router, http.MethodDelete, "/materials/"+material.ID.String(), nil, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = performJSON(t, router, http.MethodGet, "/materials/"+material.ID.String(), nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateBatch(t *testing.T) {
	t.Run("records receipt and raises stock", func(t *testing.T) {
		f := newHandlerFixture(t)
		material := f.seedMaterial(t, "Tomatoes")
		router := f.router()

		w := performJSON(t, router, http.MethodPost, "/materials/"+material.ID.String()+"/batches", CreateBatchRequest{
			Quantity:     "25",
			CostPerUnit:  "2.4",
			ReceivedDate: "2026-01-05",
			Reference:    "PO-2026-014",
		}, nil)

		require.Equal(t, http.StatusCreated, w.Code)
		data := decodeBody(t, w)["data"].(map[string]any)
		assert.Equal(t, "25", data["remaining_quantity"])
		assert.Equal(t, "ACTIVE", data["status"])
		assert.NotEmpty(t, data["batch_number"])

		stored, err := f.materialRepo.FindByID(context.Background(), material.ID)
		require.NoError(t, err)
		assert.True(t, stored.CurrentStock.Equal(decimal.NewFromInt(25)))
	})

	t.Run("keeps every digit of the received quantity", func(t *testing.T) {
		f := newHandlerFixture(t)
		material := f.seedMaterial(t, "Saffron")

		raw := []byte(`{"quantity": 123456789.123456789, "cost_per_unit": 0.000000123}`)
		req := httptest.NewRequest(http.MethodPost, "/materials/"+material.ID.String()+"/batches", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		f.router().ServeHTTP(w, req)

		require.Equal(t, http.StatusCreated, w.Code)
		data := decodeBody(t, w)["data"].(map[string]any)
		assert.Equal(t, "123456789.123456789", data["remaining_quantity"])
		assert.Equal(t, "0.000000123", data["cost_per_unit"])
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		f := newHandlerFixture(t)
		material := f.seedMaterial(t, "Tomatoes")
		w := performJSON(t, f.router(), http.MethodPost, "/materials/"+material.ID.String()+"/batches", map[string]any{
			"quantity": 0,
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects unparseable expiration date", func(t *testing.T) {
		f := newHandlerFixture(t)
		material := f.seedMaterial(t, "Tomatoes")
		w := performJSON(t, f.router(), http.MethodPost, "/materials/"+material.ID.String()+"/batches", CreateBatchRequest{
			Quantity:       "5",
			ExpirationDate: "someday",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("returns 404 for unknown material", func(t *testing.T) {
		f := newHandlerFixture(t)
		w := performJSON(t, f.router(), http.MethodPost, "/materials/"+uuid.New().String()+"/batches", CreateBatchRequest{
			Quantity: "5",
		}, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDeduct(t *testing.T) {
	t.Run("deducts oldest batch first across batches", func(t *testing.T) {
		f := newHandlerFixture(t)
		material := f.seedMaterial(t, "Beans")
		old := f.seedBatch(t, material.ID, 10, 8, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		newer := f.seedBatch(t, material.ID, 10, 9, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))

		w := performJSON(t, f.router(), http.MethodPost, "/materials/"+material.ID.String()+"/deductions", DeductStockRequest{
			Quantity:     "12",
			MovementType: "USAGE",
			Reason:       "Evening service",
		}, nil)

		require.Equal(t, http.StatusOK, w.Code)
		movements := decodeBody(t, w)["data"].([]any)
		require.Len(t, movements, 2)
		first := movements[0].(map[string]any)
		second := movements[1].(map[string]any)
		assert.Equal(t, old.ID.String(), first["batch_id"])
		assert.Equal(t, "-10", first["quantity"])
		assert.Equal(t, newer.ID.String(), second["batch_id"])
		assert.Equal(t, "-2", second["quantity"])

		oldBatch, err := f.batchRepo.FindByID(context.Background(), old.ID)
		require.NoError(t, err)
		assert.Equal(t, inventory.BatchStatusDepleted, oldBatch.Status)
	})

	t.Run("returns 422 with shortfall on insufficient stock", func(t *testing.T) {
		f := newHandlerFixture(t)
		material := f.seedMaterial(t, "Beans")
		f.seedBatch(t, material.ID, 3, 8, time.Now())

		w := performJSON(t, f.router(), http.MethodPost, "/materials/"+material.ID.String()+"/deductions", DeductStockRequest{
			Quantity:     "5",
			MovementType: "USAGE",
		}, nil)

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, "ERR_INSUFFICIENT_STOCK", errorCode(t, body))
		data := body["data"].(map[string]any)
		assert.Equal(t, "5", data["requested"])
		assert.Equal(t, "3", data["available"])
		assert.Equal(t, "2", data["shortfall"])

		// Nothing was deducted
		stored, err := f.materialRepo.FindByID(context.Background(), material.ID)
		require.NoError(t, err)
		assert.True(t, stored.CurrentStock.Equal(decimal.NewFromInt(3)))
	})

	t.Run("rejects non-deduction movement types", func(t *testing.T) {
		f := newHandlerFixture(t)
		material := f.seedMaterial(t, "Beans")
		f.seedBatch(t, material.ID, 10, 8, time.Now())

		w := performJSON(t, f.router(), http.MethodPost, "/materials/"+material.ID.String()+"/deductions", DeductStockRequest{
			Quantity:     "1",
			MovementType: "PURCHASE",
		}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("replayed Idempotency-Key is rejected without deducting", func(t *testing.T) {
		f := newHandlerFixture(t)
		material := f.seedMaterial(t, "Beans")
		f.seedBatch(t, material.ID, 10, 8, time.Now())
		router := f.router()
		headers := map[string]string{"Idempotency-Key": "order-8841-attempt"}
		body := DeductStockRequest{Quantity: "2", MovementType: "USAGE"}

		w := performJSON(t, router, http.MethodPost, "/materials/"+material.ID.String()+"/deductions", body, headers)
		require.Equal(t, http.StatusOK, w.Code)

		w = performJSON(t, router, http.MethodPost, "/materials/"+material.ID.String()+"/deductions", body, headers)
		assert.Equal(t, http.StatusConflict, w.Code)

		stored, err := f.materialRepo.FindByID(context.Background(), material.ID)
		require.NoError(t, err)
		assert.True(t, stored.CurrentStock.Equal(decimal.NewFromInt(8)), "second request must not deduct")
	})

	t.Run("processes when idempotency store is down", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.idempotency.err = errors.New("redis: connection refused")
		material := f.seedMaterial(t, "Beans")
		f.seedBatch(t, material.ID, 10, 8, time.Now())

		w := performJSON(t, f.router(), http.MethodPost, "/materials/"+material.ID.String()+"/deductions",
			DeductStockRequest{Quantity: "2", MovementType: "USAGE"},
			map[string]string{"Idempotency-Key": "order-8841-attempt"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("skips idempotency check without header", func(t *testing.T) {
		f := newHandlerFixture(t)
		material := f.seedMaterial(t, "Beans")
		f.seedBatch(t, material.ID, 10, 8, time.Now())

		w := performJSON(t, f.router(), http.MethodPost, "/materials/"+material.ID.String()+"/deductions",
			DeductStockRequest{Quantity: "2", MovementType: "USAGE"}, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 0, f.idempotency.calls)
	})
}

func TestAllocationPreview(t *testing.T) {
	t.Run("previews without mutating", func(t *testing.T) {
		f := newHandlerFixture(t)
		material := f.seedMaterial(t, "Cream")
		f.seedBatch(t, material.ID, 10, 4, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		f.seedBatch(t, material.ID, 10, 5, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))

		w := performJSON(t, f.router(), http.MethodGet,
			"/materials/"+material.ID.String()+"/allocation-preview?quantity=15", nil, nil)

		require.Equal(t, http.StatusOK, w.Code)
		data := decodeBody(t, w)["data"].(map[string]any)
		assert.Equal(t, true, data["fully_satisfied"])
		assert.Len(t, data["allocations"].([]any), 2)

		stored, err := f.materialRepo.FindByID(context.Background(), material.ID)
		require.NoError(t, err)
		assert.True(t, stored.CurrentStock.Equal(decimal.NewFromInt(20)))
	})

	t.Run("requires quantity parameter", func(t *testing.T) {
		f := newHandlerFixture(t)
		material := f.seedMaterial(t, "Cream")
		w := performJSON(t, f.router(), http.MethodGet,
			"/materials/"+material.ID.String()+"/allocation-preview", nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		f := newHandlerFixture(t)
		material := f.seedMaterial(t, "Cream")
		w := performJSON(t, f.router(), http.MethodGet,
			"/materials/"+material.ID.String()+"/allocation-preview?quantity=-1", nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCostImpact(t *testing.T) {
	t.Run("quotes fifo actual cost across price tiers", func(t *testing.T) {
		f := newHandlerFixture(t)
		material := f.seedMaterial(t, "Oil")
		f.seedBatch(t, material.ID, 10, 2, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		f.seedBatch(t, material.ID, 10, 3, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))

		w := performJSON(t, f.router(), http.MethodGet,
			"/materials/"+material.ID.String()+"/cost-impact?quantity=15&method=fifo_actual", nil, nil)

		require.Equal(t, http.StatusOK, w.Code)
		data := decodeBody(t, w)["data"].(map[string]any)
		// 10 at 2.00 plus 5 at 3.00
		assert.Equal(t, "35", data["total_cost"])
		assert.Equal(t, "fifo_actual", data["method"])
	})

	t.Run("rejects unknown method", func(t *testing.T) {
		f := newHandlerFixture(t)
		material := f.seedMaterial(t, "Oil")
		f.seedBatch(t, material.ID, 10, 2, time.Now())

		w := performJSON(t, f.router(), http.MethodGet,
			"/materials/"+material.ID.String()+"/cost-impact?quantity=5&method=lifo", nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestQuarantine(t *testing.T) {
	t.Run("quarantines an active batch", func(t *testing.T) {
		f := newHandlerFixture(t)
		material := f.seedMaterial(t, "Chicken")
		batch := f.seedBatch(t, material.ID, 10, 6, time.Now())

		w := performJSON(t, f.router(), http.MethodPost, "/batches/"+batch.ID.String()+"/quarantine",
			QuarantineBatchRequest{Reason: "Supplier recall notice 2026-113"},
			map[string]string{"X-User-ID": uuid.New().String()})

		require.Equal(t, http.StatusOK, w.Code)
		data := decodeBody(t, w)["data"].(map[string]any)
		assert.Equal(t, "QUARANTINED", data["status"])

		movements, err := f.movementRepo.FindByBatch(context.Background(), batch.ID)
		require.NoError(t, err)
		// PURCHASE from the receipt plus the quarantine audit entry
		require.Len(t, movements, 2)
		assert.Equal(t, inventory.MovementTypeQuarantine, movements[1].MovementType)
	})

	t.Run("requires a reason", func(t *testing.T) {
		f := newHandlerFixture(t)
		material := f.seedMaterial(t, "Chicken")
		batch := f.seedBatch(t, material.ID, 10, 6, time.Now())

		w := performJSON(t, f.router(), http.MethodPost, "/batches/"+batch.ID.String()+"/quarantine",
			map[string]any{}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects quarantining twice", func(t *testing.T) {
		f := newHandlerFixture(t)
		material := f.seedMaterial(t, "Chicken")
		batch := f.seedBatch(t, material.ID, 10, 6, time.Now())
		router := f.router()
		body := QuarantineBatchRequest{Reason: "damaged packaging"}

		w := performJSON(t, router, http.MethodPost, "/batches/"+batch.ID.String()+"/quarantine", body, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = performJSON(t, router, http.MethodPost, "/batches/"+batch.ID.String()+"/quarantine", body, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "ERR_INVALID_STATE", errorCode(t, decodeBody(t, w)))
	})
}

func TestBatchStatistics(t *testing.T) {
	f := newHandlerFixture(t)
	material := f.seedMaterial(t, "Basil")
	other := f.seedMaterial(t, "Mint")
	f.seedBatch(t, material.ID, 10, 1.5, time.Now())
	f.seedBatch(t, other.ID, 4, 2, time.Now())

	t.Run("scoped to one material", func(t *testing.T) {
		w := performJSON(t, f.router(), http.MethodGet,
			fmt.Sprintf("/batches/statistics?material_id=%s", material.ID), nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := decodeBody(t, w)["data"].(map[string]any)
		counts := data["counts_by_status"].(map[string]any)
		assert.Equal(t, float64(1), counts["ACTIVE"])
		assert.Equal(t, "15", data["total_remaining_value"])
	})

	t.Run("across all materials", func(t *testing.T) {
		w := performJSON(t, f.router(), http.MethodGet, "/batches/statistics", nil, nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := decodeBody(t, w)["data"].(map[string]any)
		counts := data["counts_by_status"].(map[string]any)
		assert.Equal(t, float64(2), counts["ACTIVE"])
	})

	t.Run("rejects malformed material_id", func(t *testing.T) {
		w := performJSON(t, f.router(), http.MethodGet, "/batches/statistics?material_id=nope", nil, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListMovements(t *testing.T) {
	f := newHandlerFixture(t)
	material := f.seedMaterial(t, "Salmon")
	f.seedBatch(t, material.ID, 10, 12, time.Now())
	_, err := f.service.DeductStockFIFO(context.Background(), inventoryapp.DeductStockRequest{
		MaterialID:   material.ID,
		Quantity:     decimal.NewFromInt(4),
		MovementType: inventory.MovementTypeUsage,
	})
	require.NoError(t, err)

	w := performJSON(t, f.router(), http.MethodGet, "/materials/"+material.ID.String()+"/movements", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Len(t, body["data"].([]any), 2)
	assert.Equal(t, float64(2), body["meta"].(map[string]any)["total"])
}
