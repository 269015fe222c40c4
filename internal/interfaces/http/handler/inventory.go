package handler

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	inventoryapp "github.com/venueos/backend/internal/application/inventory"
	"github.com/venueos/backend/internal/domain/inventory"
	"github.com/venueos/backend/internal/domain/shared"
	"github.com/venueos/backend/internal/domain/shared/strategy"
	"github.com/venueos/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// parseDateTime parses a datetime string in various formats
func parseDateTime(s string) (time.Time, error) {
	// Try RFC3339 first
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	// Try ISO date format
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	// Try datetime without timezone
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t, nil
	}
	// Default to RFC3339 parsing error
	return time.Parse(time.RFC3339, s)
}

// InventoryHandler handles material and batch API endpoints
type InventoryHandler struct {
	BaseHandler
	inventoryService *inventoryapp.InventoryService
	idempotency      shared.IdempotencyStore
	idempotencyTTL   time.Duration
	logger           *zap.Logger
}

// InventoryHandlerOption is a functional option for InventoryHandler
type InventoryHandlerOption func(*InventoryHandler)

// WithIdempotencyStore enables Idempotency-Key handling for deductions
func WithIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) InventoryHandlerOption {
	return func(h *InventoryHandler) {
		h.idempotency = store
		h.idempotencyTTL = ttl
	}
}

// WithLogger sets the handler logger
func WithLogger(logger *zap.Logger) InventoryHandlerOption {
	return func(h *InventoryHandler) {
		h.logger = logger
	}
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService *inventoryapp.InventoryService, opts ...InventoryHandlerOption) *InventoryHandler {
	h := &InventoryHandler{
		inventoryService: inventoryService,
		idempotencyTTL:   24 * time.Hour,
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ===================== Request Types =====================

// CreateMaterialRequest represents a request to register a raw material
// @Description Request body for creating a raw material
type CreateMaterialRequest struct {
	Name         string      `json:"name" binding:"required" example:"Arabica beans"`
	SKU          string      `json:"sku" example:"BEAN-AR-01"`
	Unit         string      `json:"unit" binding:"required" example:"kg"`
	CostPerUnit  json.Number `json:"cost_per_unit,omitempty" example:"15.50"`
	ReorderPoint json.Number `json:"reorder_point,omitempty" example:"5.0"`
}

// CreateBatchRequest represents a request to record a stock receipt
// @Description Request body for receiving a stock batch
type CreateBatchRequest struct {
	Quantity            json.Number `json:"quantity" binding:"required" example:"25.0"`
	Unit                string      `json:"unit" example:"kg"`
	CostPerUnit         json.Number `json:"cost_per_unit,omitempty" example:"15.50"`
	ReceivedDate        string      `json:"received_date" example:"2026-01-05"`
	ExpirationDate      string      `json:"expiration_date" example:"2026-02-05"`
	PurchaseOrderLineID string      `json:"purchase_order_line_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Reference           string      `json:"reference" example:"PO-2026-014"`
}

// DeductStockRequest represents a request to deduct stock oldest-first
// @Description Request body for a FIFO stock deduction
type DeductStockRequest struct {
	Quantity     json.Number `json:"quantity" binding:"required" example:"3.5"`
	MovementType string      `json:"movement_type" binding:"required" example:"USAGE"`
	Reason       string      `json:"reason" example:"Evening service"`
	Reference    string      `json:"reference" example:"ORDER-8841"`
}

// QuarantineBatchRequest represents a request to quarantine a batch
// @Description Request body for quarantining a stock batch
type QuarantineBatchRequest struct {
	Reason string `json:"reason" binding:"required" example:"Supplier recall notice 2026-113"`
}

// ===================== Material Handlers =====================

// CreateMaterial godoc
// @ID           createMaterial
// @Summary      Register a raw material
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Success      201 {object} APIResponse[inventoryapp.MaterialResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /materials [post]
func (h *InventoryHandler) CreateMaterial(c *gin.Context) {
	var req CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	costPerUnit, err := parseDecimal(req.CostPerUnit)
	if err != nil || costPerUnit.IsNegative() {
		h.BadRequest(c, "cost_per_unit must be a non-negative number")
		return
	}
	reorderPoint, err := parseDecimal(req.ReorderPoint)
	if err != nil || reorderPoint.IsNegative() {
		h.BadRequest(c, "reorder_point must be a non-negative number")
		return
	}

	material, err := h.inventoryService.CreateRawMaterial(c.Request.Context(), inventoryapp.CreateMaterialRequest{
		Name:         req.Name,
		SKU:          req.SKU,
		Unit:         req.Unit,
		CostPerUnit:  costPerUnit,
		ReorderPoint: reorderPoint,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, inventoryapp.NewMaterialResponse(material))
}

// GetMaterial godoc
// @ID           getMaterialById
// @Summary      Get a raw material by ID
// @Tags         inventory
// @Produce      json
// @Success      200 {object} APIResponse[inventoryapp.MaterialResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /materials/{id} [get]
func (h *InventoryHandler) GetMaterial(c *gin.Context) {
	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid material ID format")
		return
	}

	material, err := h.inventoryService.GetRawMaterial(c.Request.Context(), materialID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, inventoryapp.NewMaterialResponse(material))
}

// ListMaterials godoc
// @ID           listMaterials
// @Summary      List raw materials
// @Tags         inventory
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Param        search query string false "Search by name or SKU"
// @Success      200 {object} APIResponse[[]inventoryapp.MaterialResponse]
// @Router       /materials [get]
func (h *InventoryHandler) ListMaterials(c *gin.Context) {
	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := shared.Filter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		OrderBy:  listReq.OrderBy,
		OrderDir: listReq.OrderDir,
		Search:   listReq.Search,
	}

	materials, total, err := h.inventoryService.ListRawMaterials(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]*inventoryapp.MaterialResponse, 0, len(materials))
	for _, m := range materials {
		responses = append(responses, inventoryapp.NewMaterialResponse(m))
	}

	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

// DeleteMaterial godoc
// @ID           deleteMaterial
// @Summary      Soft-delete a raw material
// @Tags         inventory
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /materials/{id} [delete]
func (h *InventoryHandler) DeleteMaterial(c *gin.Context) {
	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid material ID format")
		return
	}

	if err := h.inventoryService.DeleteRawMaterial(c.Request.Context(), materialID); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.NoContent(c)
}

// ===================== Batch Handlers =====================

// CreateBatch godoc
// @ID           createBatch
// @Summary      Receive a stock batch
// @Description  Records a received batch, assigns its batch number and writes a PURCHASE movement
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Success      201 {object} APIResponse[inventoryapp.BatchResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /materials/{id}/batches [post]
func (h *InventoryHandler) CreateBatch(c *gin.Context) {
	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid material ID format")
		return
	}

	var req CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	quantity, err := parseDecimal(req.Quantity)
	if err != nil || !quantity.IsPositive() {
		h.BadRequest(c, "quantity must be greater than zero")
		return
	}
	costPerUnit, err := parseDecimal(req.CostPerUnit)
	if err != nil || costPerUnit.IsNegative() {
		h.BadRequest(c, "cost_per_unit must be a non-negative number")
		return
	}

	appReq := inventoryapp.CreateBatchRequest{
		MaterialID:  materialID,
		Quantity:    quantity,
		Unit:        req.Unit,
		CostPerUnit: costPerUnit,
		Reference:   req.Reference,
		CreatedBy:   getActorID(c),
	}

	if req.ReceivedDate != "" {
		received, err := parseDateTime(req.ReceivedDate)
		if err != nil {
			h.BadRequest(c, "Invalid received_date format")
			return
		}
		appReq.ReceivedDate = received
	}

	if req.ExpirationDate != "" {
		expiration, err := parseDateTime(req.ExpirationDate)
		if err != nil {
			h.BadRequest(c, "Invalid expiration_date format")
			return
		}
		appReq.ExpirationDate = &expiration
	}

	if req.PurchaseOrderLineID != "" {
		lineID, err := uuid.Parse(req.PurchaseOrderLineID)
		if err != nil {
			h.BadRequest(c, "Invalid purchase_order_line_id format")
			return
		}
		appReq.PurchaseOrderLineID = &lineID
	}

	batch, err := h.inventoryService.CreateStockBatch(c.Request.Context(), appReq)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, inventoryapp.NewBatchResponse(batch))
}

// Deduct godoc
// @ID           deductStock
// @Summary      Deduct stock oldest-first
// @Description  Allocates the requested quantity across active batches in FIFO order. All-or-nothing; honors the Idempotency-Key header.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key header string false "Retry-safe request key"
// @Success      200 {object} APIResponse[[]inventoryapp.MovementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /materials/{id}/deductions [post]
func (h *InventoryHandler) Deduct(c *gin.Context) {
	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid material ID format")
		return
	}

	var req DeductStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	quantity, err := parseDecimal(req.Quantity)
	if err != nil || !quantity.IsPositive() {
		h.BadRequest(c, "quantity must be greater than zero")
		return
	}

	// Claim the idempotency key before touching stock so a replayed
	// request cannot deduct twice.
	if key := c.GetHeader("Idempotency-Key"); key != "" && h.idempotency != nil {
		isNew, err := h.idempotency.MarkProcessed(c.Request.Context(), key, h.idempotencyTTL)
		if err != nil {
			// Better to risk a duplicate check downstream than to reject the request
			h.logger.Warn("idempotency store unavailable, processing anyway",
				zap.String("idempotency_key", key),
				zap.Error(err),
			)
		} else if !isNew {
			h.Conflict(c, "Request with this Idempotency-Key was already processed")
			return
		}
	}

	movements, err := h.inventoryService.DeductStockFIFO(c.Request.Context(), inventoryapp.DeductStockRequest{
		MaterialID:   materialID,
		Quantity:     quantity,
		MovementType: inventory.MovementType(req.MovementType),
		Reason:       req.Reason,
		Reference:    req.Reference,
		CreatedBy:    getActorID(c),
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]*inventoryapp.MovementResponse, 0, len(movements))
	for _, m := range movements {
		responses = append(responses, inventoryapp.NewMovementResponse(m))
	}

	h.Success(c, responses)
}

// AllocationPreview godoc
// @ID           previewAllocation
// @Summary      Preview a FIFO allocation
// @Description  Computes which batches would satisfy the quantity without locking or mutating anything
// @Tags         inventory
// @Produce      json
// @Param        quantity query number true "Quantity to allocate"
// @Success      200 {object} APIResponse[inventoryapp.AllocationPreviewResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /materials/{id}/allocation-preview [get]
func (h *InventoryHandler) AllocationPreview(c *gin.Context) {
	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid material ID format")
		return
	}

	quantity, ok := h.parseQuantityQuery(c)
	if !ok {
		return
	}

	preview, err := h.inventoryService.AllocateStockFIFO(c.Request.Context(), materialID, quantity)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, preview)
}

// CostImpact godoc
// @ID           calculateCostImpact
// @Summary      Quote the cost of a hypothetical deduction
// @Tags         inventory
// @Produce      json
// @Param        quantity query number true "Quantity to cost"
// @Param        method query string false "Costing method" Enums(fifo_actual, weighted_average, standard_cost)
// @Success      200 {object} APIResponse[inventoryapp.CostQuoteResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /materials/{id}/cost-impact [get]
func (h *InventoryHandler) CostImpact(c *gin.Context) {
	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid material ID format")
		return
	}

	quantity, ok := h.parseQuantityQuery(c)
	if !ok {
		return
	}

	method := strategy.CostMethod(c.Query("method"))

	quote, err := h.inventoryService.CalculateCostImpact(c.Request.Context(), materialID, quantity, method)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, quote)
}

// ListMovements godoc
// @ID           listMovements
// @Summary      List the movement ledger for a material
// @Tags         inventory
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]inventoryapp.MovementResponse]
// @Router       /materials/{id}/movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	materialID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid material ID format")
		return
	}

	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	filter := shared.Filter{
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		OrderBy:  listReq.OrderBy,
		OrderDir: listReq.OrderDir,
	}

	movements, total, err := h.inventoryService.ListMovements(c.Request.Context(), materialID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	responses := make([]*inventoryapp.MovementResponse, 0, len(movements))
	for _, m := range movements {
		responses = append(responses, inventoryapp.NewMovementResponse(m))
	}

	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

// Quarantine godoc
// @ID           quarantineBatch
// @Summary      Quarantine a stock batch
// @Description  Removes a batch from allocation and writes an audit movement. Terminal; a quarantined batch never returns to service.
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Success      200 {object} APIResponse[inventoryapp.BatchResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /batches/{id}/quarantine [post]
func (h *InventoryHandler) Quarantine(c *gin.Context) {
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID format")
		return
	}

	var req QuarantineBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	batch, err := h.inventoryService.QuarantineBatch(c.Request.Context(), batchID, req.Reason, getActorID(c))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, inventoryapp.NewBatchResponse(batch))
}

// BatchStatistics godoc
// @ID           getBatchStatistics
// @Summary      Get batch counts by status and remaining value
// @Tags         inventory
// @Produce      json
// @Param        material_id query string false "Restrict statistics to one material" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.BatchStatisticsResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /batches/statistics [get]
func (h *InventoryHandler) BatchStatistics(c *gin.Context) {
	var materialID *uuid.UUID
	if idStr := c.Query("material_id"); idStr != "" {
		id, err := uuid.Parse(idStr)
		if err != nil {
			h.BadRequest(c, "Invalid material_id format")
			return
		}
		materialID = &id
	}

	stats, err := h.inventoryService.GetBatchStatistics(c.Request.Context(), materialID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, stats)
}

// parseQuantityQuery parses and validates the quantity query parameter.
// Responds with 400 and returns ok=false on invalid input.
func (h *InventoryHandler) parseQuantityQuery(c *gin.Context) (decimal.Decimal, bool) {
	quantityStr := c.Query("quantity")
	if quantityStr == "" {
		h.BadRequest(c, "quantity query parameter is required")
		return decimal.Zero, false
	}

	quantity, err := decimal.NewFromString(quantityStr)
	if err != nil {
		h.BadRequest(c, "Invalid quantity format")
		return decimal.Zero, false
	}

	if !quantity.IsPositive() {
		h.BadRequest(c, "quantity must be greater than zero")
		return decimal.Zero, false
	}

	return quantity, true
}
