package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockbooks/internal/domain"
	"stockbooks/internal/domain/documents/outsourcing"
	"stockbooks/internal/infrastructure/http/v1/dto"
)

// OutsourcingHandler handles outsourcing order endpoints.
type OutsourcingHandler struct {
	*BaseHandler
	service *outsourcing.Service
}

// NewOutsourcingHandler creates a new outsourcing handler.
func NewOutsourcingHandler(base *BaseHandler, service *outsourcing.Service) *OutsourcingHandler {
	return &OutsourcingHandler{BaseHandler: base, service: service}
}

// RegisterRoutes wires outsourcing endpoints.
func (h *OutsourcingHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.POST("/:id/order", h.MarkOrdered)
	group.POST("/:id/deliver", h.Deliver)
	group.POST("/:id/cancel", h.Cancel)
}

// Create handles POST /documents/outsourcing-orders, a standalone order
// not tied to a sale.
func (h *OutsourcingHandler) Create(c *gin.Context) {
	var req dto.CreateOutsourcingOrderRequest
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

// Get handles GET /documents/outsourcing-orders/:id.
func (h *OutsourcingHandler) Get(c *gin.Context) {
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

// MarkOrdered handles POST /documents/outsourcing-orders/:id/order.
func (h *OutsourcingHandler) MarkOrdered(c *gin.Context) {
	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.MarkOrdered(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "order placed with supplier")
}

// Deliver handles POST /documents/outsourcing-orders/:id/deliver. A repeat
// delivery is a no-op, never a second stock increment.
func (h *OutsourcingHandler) Deliver(c *gin.Context) {
	orderID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Deliver(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "delivery recorded")
}

// Cancel handles POST /documents/outsourcing-orders/:id/cancel.
func (h *OutsourcingHandler) Cancel(c *gin.Context) {
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

	h.Success(c, "outsourcing order cancelled")
}

// List handles GET /documents/outsourcing-orders.
func (h *OutsourcingHandler) List(c *gin.Context) {
	filter := outsourcing.ListFilter{
		Page: domain.Page{
			Limit:   h.ParseIntQuery(c, "limit", 50),
			Offset:  h.ParseIntQuery(c, "offset", 0),
			OrderBy: c.Query("orderBy"),
		},
	}

	supplierID, ok := h.ParseIDQuery(c, "supplierId")
	if !ok {
		return
	}
	filter.SupplierID = supplierID

	saleID, ok := h.ParseIDQuery(c, "saleId")
	if !ok {
		return
	}
	filter.SaleID = saleID

	if status := c.Query("status"); status != "" {
		s := outsourcing.Status(status)
		filter.Status = &s
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, result.Items))
}
