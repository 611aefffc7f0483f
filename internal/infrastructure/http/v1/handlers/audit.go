package handlers

import (
	"github.com/gin-gonic/gin"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/infrastructure/storage/postgres"
)

// AuditHandler exposes the change history recorded by the audit service.
type AuditHandler struct {
	*BaseHandler
	audit *postgres.AuditService
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, audit *postgres.AuditService) *AuditHandler {
	return &AuditHandler{BaseHandler: base, audit: audit}
}

// RegisterRoutes registers audit endpoints on the given group.
func (h *AuditHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/:entity/:id", h.History)
}

// auditedEntities maps the public entity names to their audited tables.
var auditedEntities = map[string]string{
	"sales":              "doc_sales",
	"purchase-orders":    "doc_purchase_orders",
	"quotations":         "doc_quotations",
	"outsourcing-orders": "doc_outsourcing_orders",
}

// History handles GET /audit/:entity/:id.
func (h *AuditHandler) History(c *gin.Context) {
	table, ok := auditedEntities[c.Param("entity")]
	if !ok {
		h.Error(c, apperror.NewValidation("unknown entity type").
			WithDetail("entity", c.Param("entity")))
		return
	}

	entityID, ok := h.ParseID(c)
	if !ok {
		return
	}
	limit := h.ParseIntQuery(c, "limit", 50)

	entries, err := h.audit.GetEntityHistory(c.Request.Context(), table, entityID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": entries})
}
