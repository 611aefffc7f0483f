package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbooks/internal/domain"
	"stockbooks/internal/domain/catalogs/customer"
	"stockbooks/internal/domain/ledgers/moneyledger"
	"stockbooks/internal/infrastructure/http/v1/dto"
)

// CustomerHandler handles customer catalog endpoints, including the
// customer-scoped money ledger reads.
type CustomerHandler struct {
	*BaseHandler
	service     *customer.Service
	moneyLedger *moneyledger.Service
}

// NewCustomerHandler creates a new customer handler.
func NewCustomerHandler(base *BaseHandler, service *customer.Service, moneyLedger *moneyledger.Service) *CustomerHandler {
	return &CustomerHandler{BaseHandler: base, service: service, moneyLedger: moneyLedger}
}

// RegisterRoutes wires customer endpoints.
func (h *CustomerHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.GET("/:id/journal", h.Journal)
}

// Create handles POST /catalog/customers.
func (h *CustomerHandler) Create(c *gin.Context) {
	var req dto.CreateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cust := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), cust); err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, cust.ID)
}

// Get handles GET /catalog/customers/:id.
func (h *CustomerHandler) Get(c *gin.Context) {
	customerID, ok := h.ParseID(c)
	if !ok {
		return
	}

	cust, err := h.service.GetByID(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, cust)
}

// Update handles PUT /catalog/customers/:id.
func (h *CustomerHandler) Update(c *gin.Context) {
	customerID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cust, err := h.service.GetByID(c.Request.Context(), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(cust)

	if err := h.service.Update(c.Request.Context(), cust); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, cust)
}

// List handles GET /catalog/customers.
func (h *CustomerHandler) List(c *gin.Context) {
	filter := customer.ListFilter{
		Page: domain.Page{
			Limit:   h.ParseIntQuery(c, "limit", 50),
			Offset:  h.ParseIntQuery(c, "offset", 0),
			OrderBy: c.Query("orderBy"),
		},
		Search:      c.Query("search"),
		WithBalance: c.Query("withBalance") == "true",
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(result, result.Items))
}

// Journal handles GET /catalog/customers/:id/journal, the transaction
// history behind the customer balance.
func (h *CustomerHandler) Journal(c *gin.Context) {
	customerID, ok := h.ParseID(c)
	if !ok {
		return
	}

	limit := h.ParseIntQuery(c, "limit", 50)
	offset := h.ParseIntQuery(c, "offset", 0)

	entries, err := h.moneyLedger.JournalByCustomer(c.Request.Context(), customerID, limit, offset)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": entries})
}
