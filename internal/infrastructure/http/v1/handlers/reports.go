package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/id"
	"stockbooks/internal/domain/profit"
	"stockbooks/internal/infrastructure/storage/postgres/report_repo"
)

// ReportHandler serves profit and turnover reporting endpoints built on
// aggregate queries over the registers.
type ReportHandler struct {
	*BaseHandler
	reports *report_repo.ReportRepo
	profit  *profit.Service
}

// NewReportHandler creates a new report handler.
func NewReportHandler(base *BaseHandler, reports *report_repo.ReportRepo, profitService *profit.Service) *ReportHandler {
	return &ReportHandler{BaseHandler: base, reports: reports, profit: profitService}
}

// RegisterRoutes wires report endpoints. Backfill is registered
// separately on an admin-only group.
func (h *ReportHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/profit/summary", h.ProfitSummary)
	group.GET("/profit/by-product", h.ProfitByProduct)
	group.GET("/profit/records", h.ProfitRecords)
	group.GET("/turnover", h.SalesTurnover)
	group.GET("/stock-valuation", h.StockValuation)
}

// RegisterAdminRoutes wires destructive report maintenance endpoints.
func (h *ReportHandler) RegisterAdminRoutes(group *gin.RouterGroup) {
	group.POST("/profit/backfill", h.Backfill)
}

func (h *ReportHandler) dateRange(c *gin.Context) (time.Time, time.Time, bool) {
	from := time.Time{}
	to := time.Now()

	fromDate, ok := h.ParseDateQuery(c, "fromDate")
	if !ok {
		return from, to, false
	}
	if fromDate != nil {
		from = *fromDate
	}

	toDate, ok := h.ParseDateQuery(c, "toDate")
	if !ok {
		return from, to, false
	}
	if toDate != nil {
		to = *toDate
	}

	return from, to, true
}

// ProfitSummary handles GET /reports/profit/summary.
func (h *ReportHandler) ProfitSummary(c *gin.Context) {
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}

	summary, err := h.reports.ProfitSummary(c.Request.Context(), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, summary)
}

// ProfitByProduct handles GET /reports/profit/by-product.
func (h *ReportHandler) ProfitByProduct(c *gin.Context) {
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}

	rows, err := h.reports.ProfitByProduct(c.Request.Context(), from, to, h.ParseIntQuery(c, "limit", 100))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": rows})
}

// ProfitRecords handles GET /reports/profit/records?reference=<sale id>.
func (h *ReportHandler) ProfitRecords(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		h.Error(c, apperror.NewValidation("reference is required").WithDetail("field", "reference"))
		return
	}

	refID, err := id.Parse(reference)
	if err != nil {
		h.Error(c, err)
		return
	}

	records, err := h.profit.ByReference(c.Request.Context(), refID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": records})
}

// SalesTurnover handles GET /reports/turnover.
func (h *ReportHandler) SalesTurnover(c *gin.Context) {
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}

	rows, err := h.reports.SalesTurnover(c.Request.Context(), from, to)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": rows})
}

// StockValuation handles GET /reports/stock-valuation.
func (h *ReportHandler) StockValuation(c *gin.Context) {
	value, err := h.reports.StockValuation(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"totalValue": value})
}

// Backfill handles POST /reports/profit/backfill. It wipes and recomputes
// the profit register from completed sales, so it is admin-only.
func (h *ReportHandler) Backfill(c *gin.Context) {
	count, err := h.profit.Backfill(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"recordsCreated": count})
}
