package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockbooks/internal/domain"
	"stockbooks/internal/domain/documents/quotation"
	"stockbooks/internal/infrastructure/http/v1/dto"
)

// QuotationHandler handles quotation endpoints.
type QuotationHandler struct {
	*BaseHandler
	service *quotation.Service
}

// NewQuotationHandler creates a new quotation handler.
func NewQuotationHandler(base *BaseHandler, service *quotation.Service) *QuotationHandler {
	return &QuotationHandler{BaseHandler: base, service: service}
}

// RegisterRoutes wires quotation endpoints.
func (h *QuotationHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	group.POST("/:id/send", h.Send)
	group.POST("/:id/reject", h.Reject)
	group.POST("/:id/convert", h.Convert)
}

// Create handles POST /documents/quotations.
func (h *QuotationHandler) Create(c *gin.Context) {
	var req dto.CreateQuotationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	q, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(c.Request.Context(), q); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, q)
}

// Get handles GET /documents/quotations/:id. Expiry is applied lazily to
// the returned view.
func (h *QuotationHandler) Get(c *gin.Context) {
	quotationID, ok := h.ParseID(c)
	if !ok {
		return
	}

	q, err := h.service.GetByID(c.Request.Context(), quotationID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, q)
}

// Update handles PUT /documents/quotations/:id. Draft only.
func (h *QuotationHandler) Update(c *gin.Context) {
	quotationID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateQuotationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	q, err := h.service.GetByID(c.Request.Context(), quotationID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := req.ApplyTo(q); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Update(c.Request.Context(), q); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, q)
}

// Delete handles DELETE /documents/quotations/:id. Draft only.
func (h *QuotationHandler) Delete(c *gin.Context) {
	quotationID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), quotationID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// Send handles POST /documents/quotations/:id/send.
func (h *QuotationHandler) Send(c *gin.Context) {
	quotationID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Send(c.Request.Context(), quotationID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "quotation sent")
}

// Reject handles POST /documents/quotations/:id/reject.
func (h *QuotationHandler) Reject(c *gin.Context) {
	quotationID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.RejectQuotationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.Reject(c.Request.Context(), quotationID, req.Reason); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "quotation rejected")
}

// Convert handles POST /documents/quotations/:id/convert. A credit sale is
// created from the quoted lines; an expired quotation converts nothing.
func (h *QuotationHandler) Convert(c *gin.Context) {
	quotationID, ok := h.ParseID(c)
	if !ok {
		return
	}

	s, err := h.service.Convert(c.Request.Context(), quotationID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, s)
}

// List handles GET /documents/quotations.
func (h *QuotationHandler) List(c *gin.Context) {
	filter := quotation.ListFilter{
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
		s := quotation.Status(status)
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
