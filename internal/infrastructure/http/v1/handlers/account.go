package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbooks/internal/domain"
	"stockbooks/internal/domain/catalogs/account"
	"stockbooks/internal/infrastructure/http/v1/dto"
)

// AccountHandler handles account catalog endpoints.
type AccountHandler struct {
	*BaseHandler
	service *account.Service
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(base *BaseHandler, service *account.Service) *AccountHandler {
	return &AccountHandler{BaseHandler: base, service: service}
}

// RegisterRoutes wires account endpoints.
func (h *AccountHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
}

// Create handles POST /catalog/accounts.
func (h *AccountHandler) Create(c *gin.Context) {
	var req dto.CreateAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	a := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), a); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, a.ID)
}

// Get handles GET /catalog/accounts/:id.
func (h *AccountHandler) Get(c *gin.Context) {
	accountID, ok := h.ParseID(c)
	if !ok {
		return
	}

	a, err := h.service.GetByID(c.Request.Context(), accountID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, a)
}

// Update handles PUT /catalog/accounts/:id.
func (h *AccountHandler) Update(c *gin.Context) {
	accountID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateAccountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	a, err := h.service.GetByID(c.Request.Context(), accountID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(a)

	if err := h.service.Update(c.Request.Context(), a); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, a)
}

// List handles GET /catalog/accounts.
func (h *AccountHandler) List(c *gin.Context) {
	filter := account.ListFilter{
		Page: domain.Page{
			Limit:   h.ParseIntQuery(c, "limit", 50),
			Offset:  h.ParseIntQuery(c, "offset", 0),
			OrderBy: c.Query("orderBy"),
		},
		Search: c.Query("search"),
	}
	if accType := c.Query("type"); accType != "" {
		t := account.Type(accType)
		filter.Type = &t
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, result.Items))
}
