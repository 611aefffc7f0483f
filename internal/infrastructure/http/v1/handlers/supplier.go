package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbooks/internal/domain"
	"stockbooks/internal/domain/catalogs/supplier"
	"stockbooks/internal/infrastructure/http/v1/dto"
)

// SupplierHandler handles supplier catalog endpoints.
type SupplierHandler struct {
	*BaseHandler
	service *supplier.Service
}

// NewSupplierHandler creates a new supplier handler.
func NewSupplierHandler(base *BaseHandler, service *supplier.Service) *SupplierHandler {
	return &SupplierHandler{BaseHandler: base, service: service}
}

// RegisterRoutes wires supplier endpoints.
func (h *SupplierHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
}

// Create handles POST /catalog/suppliers.
func (h *SupplierHandler) Create(c *gin.Context) {
	var req dto.CreateSupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), s); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, s.ID)
}

// Get handles GET /catalog/suppliers/:id.
func (h *SupplierHandler) Get(c *gin.Context) {
	supplierID, ok := h.ParseID(c)
	if !ok {
		return
	}

	s, err := h.service.GetByID(c.Request.Context(), supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, s)
}

// Update handles PUT /catalog/suppliers/:id.
func (h *SupplierHandler) Update(c *gin.Context) {
	supplierID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateSupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s, err := h.service.GetByID(c.Request.Context(), supplierID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(s)

	if err := h.service.Update(c.Request.Context(), s); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, s)
}

// List handles GET /catalog/suppliers.
func (h *SupplierHandler) List(c *gin.Context) {
	filter := supplier.ListFilter{
		Page: domain.Page{
			Limit:   h.ParseIntQuery(c, "limit", 50),
			Offset:  h.ParseIntQuery(c, "offset", 0),
			OrderBy: c.Query("orderBy"),
		},
		Search: c.Query("search"),
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, result.Items))
}
