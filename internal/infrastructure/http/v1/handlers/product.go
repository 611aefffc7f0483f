package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbooks/internal/domain"
	"stockbooks/internal/domain/catalogs/product"
	"stockbooks/internal/infrastructure/http/v1/dto"
)

// ProductHandler handles product catalog endpoints.
type ProductHandler struct {
	*BaseHandler
	service *product.Service
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, service *product.Service) *ProductHandler {
	return &ProductHandler{BaseHandler: base, service: service}
}

// RegisterRoutes wires product endpoints.
func (h *ProductHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
}

// Create handles POST /catalog/products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, p.ID)
}

// Get handles GET /catalog/products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	productID, ok := h.ParseID(c)
	if !ok {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, p)
}

// Update handles PUT /catalog/products/:id.
func (h *ProductHandler) Update(c *gin.Context) {
	productID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(p)

	if err := h.service.Update(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, p)
}

// Delete handles DELETE /catalog/products/:id. Referenced products are
// refused; the row is soft-deleted otherwise.
func (h *ProductHandler) Delete(c *gin.Context) {
	productID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), productID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List handles GET /catalog/products.
func (h *ProductHandler) List(c *gin.Context) {
	filter := product.ListFilter{
		Page: domain.Page{
			Limit:   h.ParseIntQuery(c, "limit", 50),
			Offset:  h.ParseIntQuery(c, "offset", 0),
			OrderBy: c.Query("orderBy"),
		},
		Search:        c.Query("search"),
		BelowMinStock: c.Query("belowMinStock") == "true",
	}
	if status := c.Query("status"); status != "" {
		s := product.Status(status)
		filter.Status = &s
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, result.Items))
}
