package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockbooks/internal/domain"
	"stockbooks/internal/domain/documents/purchaseorder"
	"stockbooks/internal/infrastructure/http/v1/dto"
)

// PurchaseOrderHandler handles purchase order endpoints.
type PurchaseOrderHandler struct {
	*BaseHandler
	service *purchaseorder.Service
}

// NewPurchaseOrderHandler creates a new purchase order handler.
func NewPurchaseOrderHandler(base *BaseHandler, service *purchaseorder.Service) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{BaseHandler: base, service: service}
}

// RegisterRoutes wires purchase order endpoints.
func (h *PurchaseOrderHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	group.POST("/:id/send", h.Send)
	group.POST("/:id/confirm", h.Confirm)
	group.POST("/:id/cancel", h.Cancel)
	group.POST("/:id/receive", h.Receive)
}

// Create handles POST /documents/purchase-orders.
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), o); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, o)
}

// Get handles GET /documents/purchase-orders/:id.
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, o)
}

// Update handles PUT /documents/purchase-orders/:id. Draft only.
func (h *PurchaseOrderHandler) Update(c *gin.Context) {
	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := req.ApplyTo(o); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Update(c.Request.Context(), o); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, o)
}

// Delete handles DELETE /documents/purchase-orders/:id. Draft only.
func (h *PurchaseOrderHandler) Delete(c *gin.Context) {
	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// Send handles POST /documents/purchase-orders/:id/send.
func (h *PurchaseOrderHandler) Send(c *gin.Context) {
	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Send(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "purchase order sent")
}

// Confirm handles POST /documents/purchase-orders/:id/confirm.
func (h *PurchaseOrderHandler) Confirm(c *gin.Context) {
	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Confirm(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "purchase order confirmed")
}

// Cancel handles POST /documents/purchase-orders/:id/cancel.
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.CancelRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.Cancel(c.Request.Context(), orderID, req.Reason); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "purchase order cancelled")
}

// Receive handles POST /documents/purchase-orders/:id/receive. Any invalid
// line rejects the whole delivery.
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.ReceivePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lines, err := req.ToDomain()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Receive(c.Request.Context(), orderID, lines); err != nil {
		h.Error(c, err)
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, o)
}

// List handles GET /documents/purchase-orders.
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	filter := purchaseorder.ListFilter{
		Page: domain.Page{
			Limit:   h.ParseIntQuery(c, "limit", 50),
			Offset:  h.ParseIntQuery(c, "offset", 0),
			OrderBy: c.Query("orderBy"),
		},
		Search: c.Query("search"),
	}

	supplierID, ok := h.ParseIDQuery(c, "supplierId")
	if !ok {
		return
	}
	filter.SupplierID = supplierID

	if status := c.Query("status"); status != "" {
		s := purchaseorder.Status(status)
		filter.Status = &s
	}

	dateFrom, ok := h.ParseDateQuery(c, "dateFrom")
	if !ok {
		return
	}
	filter.DateFrom = dateFrom

	dateTo, ok := h.ParseDateQuery(c, "dateTo")
	if !ok {
		return
	}
	filter.DateTo = dateTo

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, result.Items))
}
