package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/tx"
	"stockbooks/internal/core/types"
	"stockbooks/internal/domain/ledgers/moneyledger"
	"stockbooks/internal/domain/ledgers/stockledger"
	"stockbooks/internal/infrastructure/http/v1/dto"
)

// StockLedgerHandler exposes the inventory movement register and the
// manual adjustment operation.
type StockLedgerHandler struct {
	*BaseHandler
	service   *stockledger.Service
	txManager tx.Manager
}

// NewStockLedgerHandler creates a new stock ledger handler.
func NewStockLedgerHandler(base *BaseHandler, service *stockledger.Service, txManager tx.Manager) *StockLedgerHandler {
	return &StockLedgerHandler{BaseHandler: base, service: service, txManager: txManager}
}

// RegisterRoutes wires stock ledger endpoints.
func (h *StockLedgerHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/adjustments", h.Adjust)
	group.GET("/movements", h.MovementsByReference)
	group.GET("/movements/:id", h.History)
}

// Adjust handles POST /ledgers/stock/adjustments, a manual signed stock
// change with a required reason.
func (h *StockLedgerHandler) Adjust(c *gin.Context) {
	var req dto.StockAdjustmentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	adj, err := req.ToDomain()
	if err != nil {
		h.Error(c, err)
		return
	}

	var movement *stockledger.Movement
	err = h.txManager.RunInTransaction(c.Request.Context(), func(ctx context.Context) error {
		var adjErr error
		movement, adjErr = h.service.Adjust(ctx, adj)
		return adjErr
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, movement)
}

// MovementsByReference handles GET /ledgers/stock/movements?reference=SO-...
func (h *StockLedgerHandler) MovementsByReference(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		h.Error(c, apperror.NewValidation("reference is required").WithDetail("field", "reference"))
		return
	}

	movements, err := h.service.MovementsByReference(c.Request.Context(), reference)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": movements})
}

// History handles GET /ledgers/stock/movements/:id, the movement history
// of one product.
func (h *StockLedgerHandler) History(c *gin.Context) {
	productID, ok := h.ParseID(c)
	if !ok {
		return
	}

	filter := stockledger.MovementFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if mType := c.Query("type"); mType != "" {
		t := stockledger.MovementType(mType)
		filter.Type = &t
	}

	fromDate, ok := h.ParseDateQuery(c, "fromDate")
	if !ok {
		return
	}
	filter.FromDate = fromDate

	toDate, ok := h.ParseDateQuery(c, "toDate")
	if !ok {
		return
	}
	filter.ToDate = toDate

	movements, err := h.service.History(c.Request.Context(), productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": movements})
}

// MoneyLedgerHandler exposes cash flows, payments and manual balance
// adjustments.
type MoneyLedgerHandler struct {
	*BaseHandler
	service   *moneyledger.Service
	txManager tx.Manager
}

// NewMoneyLedgerHandler creates a new money ledger handler.
func NewMoneyLedgerHandler(base *BaseHandler, service *moneyledger.Service, txManager tx.Manager) *MoneyLedgerHandler {
	return &MoneyLedgerHandler{BaseHandler: base, service: service, txManager: txManager}
}

// RegisterRoutes wires money ledger endpoints.
func (h *MoneyLedgerHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/cash-flows", h.CashFlows)
	group.POST("/cash-flows", h.PostCashFlow)
	group.POST("/payments", h.RecordPayment)
	group.POST("/customers/:id/adjust", h.AdjustBalance)
}

// CashFlows handles GET /ledgers/money/cash-flows.
func (h *MoneyLedgerHandler) CashFlows(c *gin.Context) {
	filter := moneyledger.CashFlowFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if flowType := c.Query("type"); flowType != "" {
		t := moneyledger.FlowType(flowType)
		filter.Type = &t
	}

	accountID, ok := h.ParseIDQuery(c, "accountId")
	if !ok {
		return
	}
	filter.AccountID = accountID

	fromDate, ok := h.ParseDateQuery(c, "fromDate")
	if !ok {
		return
	}
	filter.FromDate = fromDate

	toDate, ok := h.ParseDateQuery(c, "toDate")
	if !ok {
		return
	}
	filter.ToDate = toDate

	flows, err := h.service.CashFlows(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": flows})
}

// PostCashFlow handles POST /ledgers/money/cash-flows, a manual inflow or
// outflow on an account.
func (h *MoneyLedgerHandler) PostCashFlow(c *gin.Context) {
	var req dto.PostCashFlowRequest
	if !h.BindJSON(c, &req) {
		return
	}

	flow, err := req.ToDomain()
	if err != nil {
		h.Error(c, err)
		return
	}

	err = h.txManager.RunInTransaction(c.Request.Context(), func(ctx context.Context) error {
		return h.service.PostCashFlow(ctx, flow)
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Created(c, flow.ID)
}

// RecordPayment handles POST /ledgers/money/payments.
func (h *MoneyLedgerHandler) RecordPayment(c *gin.Context) {
	var req dto.RecordPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	payment, err := req.ToDomain()
	if err != nil {
		h.Error(c, err)
		return
	}

	err = h.txManager.RunInTransaction(c.Request.Context(), func(ctx context.Context) error {
		return h.service.RecordPayment(ctx, payment)
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, payment)
}

// AdjustBalance handles POST /ledgers/money/customers/:id/adjust, a manual
// signed balance change paired with a journal row.
func (h *MoneyLedgerHandler) AdjustBalance(c *gin.Context) {
	customerID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.AdjustBalanceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	change := moneyledger.BalanceChange{
		CustomerID:   customerID,
		Delta:        req.Delta,
		Label:        req.Label,
		Reference:    req.Reference,
		NumberPrefix: "ADJ",
	}

	var balance types.Money
	err := h.txManager.RunInTransaction(c.Request.Context(), func(ctx context.Context) error {
		newBalance, adjErr := h.service.AdjustCustomerBalance(ctx, change)
		balance = newBalance
		return adjErr
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"balance": balance})
}
