package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockbooks/internal/domain"
	"stockbooks/internal/domain/documents/sale"
	"stockbooks/internal/infrastructure/http/v1/dto"
)

// SaleHandler handles sale document endpoints.
type SaleHandler struct {
	*BaseHandler
	service *sale.Service
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, service *sale.Service) *SaleHandler {
	return &SaleHandler{BaseHandler: base, service: service}
}

// RegisterRoutes wires sale endpoints.
func (h *SaleHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.POST("/:id/cancel", h.Cancel)
	group.POST("/:id/restore", h.Restore)
	group.POST("/:id/return", h.PartialReturn)
	group.POST("/:id/revert", h.Revert)
}

// Create handles POST /documents/sales. The sale posts in one transaction:
// stock, balances and profit records all move together or not at all.
func (h *SaleHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), s); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, s)
}

// Get handles GET /documents/sales/:id.
func (h *SaleHandler) Get(c *gin.Context) {
	saleID, ok := h.ParseID(c)
	if !ok {
		return
	}

	s, err := h.service.GetByID(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, s)
}

// Cancel handles POST /documents/sales/:id/cancel. Stock returns to the
// shelf and the settlement unwinds.
func (h *SaleHandler) Cancel(c *gin.Context) {
	saleID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.CancelRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.Cancel(c.Request.Context(), saleID, req.Reason); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "sale cancelled")
}

// Restore handles POST /documents/sales/:id/restore, the explicit
// un-cancel transition. Fails when stock or credit no longer allow it.
func (h *SaleHandler) Restore(c *gin.Context) {
	saleID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Restore(c.Request.Context(), saleID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "sale restored")
}

// PartialReturn handles POST /documents/sales/:id/return.
func (h *SaleHandler) PartialReturn(c *gin.Context) {
	saleID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.PartialReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	domainReq, err := req.ToDomain()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.PartialReturn(c.Request.Context(), saleID, domainReq); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "return processed")
}

// Revert handles POST /documents/sales/:id/revert, a full reversal with an
// audit record.
func (h *SaleHandler) Revert(c *gin.Context) {
	saleID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.RevertSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.Revert(c.Request.Context(), saleID, req.Restock, req.Reason); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "sale reverted")
}

// List handles GET /documents/sales.
func (h *SaleHandler) List(c *gin.Context) {
	filter := sale.ListFilter{
		Page: domain.Page{
			Limit:   h.ParseIntQuery(c, "limit", 50),
			Offset:  h.ParseIntQuery(c, "offset", 0),
			OrderBy: c.Query("orderBy"),
		},
		Search: c.Query("search"),
	}

	customerID, ok := h.ParseIDQuery(c, "customerId")
	if !ok {
		return
	}
	filter.CustomerID = customerID

	if status := c.Query("status"); status != "" {
		s := sale.Status(status)
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
