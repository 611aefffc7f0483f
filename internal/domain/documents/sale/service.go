package sale

import (
	"context"
	"fmt"
	"time"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/appctx"
	"stockbooks/internal/core/id"
	"stockbooks/internal/core/tx"
	"stockbooks/internal/core/types"
	"stockbooks/internal/domain"
	"stockbooks/internal/domain/catalogs/product"
	"stockbooks/internal/domain/documents/outsourcing"
	"stockbooks/internal/domain/ledgers/moneyledger"
	"stockbooks/internal/domain/ledgers/stockledger"
	"stockbooks/internal/domain/profit"
	"stockbooks/pkg/logger"
	"stockbooks/pkg/numerator"
)

// Service drives the sale state machine. It is the only caller that
// combines the stock ledger, the money ledger and the profit recorder in
// one transaction.
type Service struct {
	repo        Repository
	products    product.Repository
	stockLedger *stockledger.Service
	moneyLedger *moneyledger.Service
	outsourcing *outsourcing.Service
	profit      *profit.Service
	numerator   *numerator.Service
	txManager   tx.Manager
}

// NewService creates a new sale service.
func NewService(
	repo Repository,
	products product.Repository,
	stockLedger *stockledger.Service,
	moneyLedger *moneyledger.Service,
	outsourcingSvc *outsourcing.Service,
	profitSvc *profit.Service,
	num *numerator.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:        repo,
		products:    products,
		stockLedger: stockLedger,
		moneyLedger: moneyLedger,
		outsourcing: outsourcingSvc,
		profit:      profitSvc,
		numerator:   num,
		txManager:   txManager,
	}
}

// Create posts a new sale. For every non-outsourced item the product stock
// is decremented; outsourced items create a pending outsourcing order and
// an external purchase record instead. Credit sales raise the customer
// balance, cash sales post an inflow when an account is given. Any failure
// aborts the whole transaction.
func (s *Service) Create(ctx context.Context, sl *Sale) error {
	if sl.Status == "" {
		sl.Status = StatusCompleted
	}
	if sl.Status != StatusPending && sl.Status != StatusCompleted {
		return apperror.NewValidation("new sale must be pending or completed").
			WithDetail("field", "status")
	}
	if err := sl.Validate(ctx); err != nil {
		return err
	}

	sl.CreatedBy = appctx.GetUserID(ctx)

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Allocated inside the transaction so a rollback releases the
		// sequence slot instead of burning the number.
		if sl.Number == "" {
			number, err := s.numerator.GetNextNumber(ctx, numerator.DailyConfig("SO"), nil, time.Now())
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			sl.Number = number
		}

		for _, item := range sl.Items {
			p, err := s.products.GetByID(ctx, item.ProductID)
			if err != nil {
				return err
			}

			if id.IsNil(item.ID) {
				item.ID = id.New()
			}
			item.SaleID = sl.ID
			if item.UnitPrice.IsZero() {
				item.UnitPrice = p.Price
			}
			item.CostAtSale = p.CostPrice
			item.Total = item.UnitPrice.Mul(item.Quantity.Decimal())

			if item.IsOutsourced {
				order := outsourcing.NewOrder(item.ProductID, *item.SupplierID,
					item.Quantity, *item.OutsourcingCostPerUnit)
				order.Date = sl.Date
				if err := s.outsourcing.CreateForSaleItem(ctx, sl.ID, item.ID, order); err != nil {
					return err
				}
			} else {
				if _, err := s.stockLedger.Adjust(ctx, stockledger.Adjustment{
					ProductID: item.ProductID,
					Delta:     item.Quantity.Neg(),
					Type:      movementType(sl),
					Reference: sl.Number,
				}); err != nil {
					return err
				}
			}
		}

		sl.RecalcTotals()
		if sl.Total.IsNegative() {
			return apperror.NewValidation("sale total must not be negative").
				WithDetail("total", sl.Total.String())
		}

		if err := s.repo.Create(ctx, sl); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		for _, item := range sl.Items {
			if _, err := s.profit.RecordSaleItem(ctx, sl.ID, sl.Date, profit.SaleItemSnapshot{
				ProductID:              item.ProductID,
				Quantity:               item.Quantity,
				Total:                  item.Total,
				IsOutsourced:           item.IsOutsourced,
				OutsourcingCostPerUnit: item.OutsourcingCostPerUnit,
				CostAtSale:             item.CostAtSale,
			}); err != nil {
				return err
			}
		}

		if err := s.settleCreate(ctx, sl); err != nil {
			return err
		}

		logger.Info(ctx, "sale created",
			"id", sl.ID, "number", sl.Number, "total", sl.Total, "items", len(sl.Items))
		return nil
	})
}

// movementType distinguishes stock decrements driven by a quotation
// conversion from direct sales in the movement audit trail.
func movementType(sl *Sale) stockledger.MovementType {
	if sl.QuotationID != nil {
		return stockledger.TypeQuotationSale
	}
	return stockledger.TypeSale
}

// settleCreate applies the money side of a new sale. The sale row itself is
// the paired record for the credit balance change, so the journal row is
// suppressed.
func (s *Service) settleCreate(ctx context.Context, sl *Sale) error {
	switch {
	case sl.PaymentMethod == PaymentCredit:
		_, err := s.moneyLedger.AdjustCustomerBalance(ctx, moneyledger.BalanceChange{
			CustomerID:     *sl.CustomerID,
			Delta:          sl.Total,
			Label:          "credit sale",
			Reference:      sl.Number,
			AddToPurchases: true,
			SkipJournal:    true,
		})
		return err

	case sl.AccountID != nil && !id.IsNil(*sl.AccountID) && !sl.Total.IsZero():
		return s.moneyLedger.PostCashFlow(ctx, &moneyledger.CashFlowEntry{
			Type:      moneyledger.FlowInflow,
			Amount:    sl.Total,
			AccountID: sl.AccountID,
			Category:  "sales",
			Reference: sl.Number,
		})
	}
	return nil
}

// Cancel reverses a sale: restores stock for every non-outsourced item and
// unwinds the customer balance for credit sales. Cancelled is terminal for
// this transition; use Restore to bring a cancelled sale back.
func (s *Service) Cancel(ctx context.Context, saleID id.ID, reason string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sl, err := s.repo.GetByIDForUpdate(ctx, saleID)
		if err != nil {
			return err
		}

		if sl.Status == StatusCancelled {
			return apperror.NewInvalidState("sale is already cancelled").
				WithDetail("sale_id", saleID.String())
		}

		for _, item := range sl.Items {
			if item.IsOutsourced {
				continue
			}
			if _, err := s.stockLedger.Adjust(ctx, stockledger.Adjustment{
				ProductID: item.ProductID,
				Delta:     item.Quantity,
				Type:      stockledger.TypeReturn,
				Reference: sl.Number,
				Reason:    "sale cancelled",
			}); err != nil {
				return err
			}
		}

		if err := s.unwindBalance(ctx, sl, sl.Total, "sale cancelled"); err != nil {
			return err
		}

		now := time.Now().UTC()
		sl.Status = StatusCancelled
		sl.CancelledAt = &now
		sl.CancelReason = reason
		sl.Touch()

		if err := s.repo.Update(ctx, sl); err != nil {
			return fmt.Errorf("update sale: %w", err)
		}

		logger.Info(ctx, "sale cancelled", "id", sl.ID, "number", sl.Number, "reason", reason)
		return nil
	})
}

// Restore brings a cancelled sale back to completed. Stock is re-deducted
// for every non-outsourced item (an insufficient balance aborts the whole
// restore) and the credit balance is re-applied under the credit limit.
func (s *Service) Restore(ctx context.Context, saleID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sl, err := s.repo.GetByIDForUpdate(ctx, saleID)
		if err != nil {
			return err
		}

		if sl.Status != StatusCancelled {
			return apperror.NewInvalidState("only a cancelled sale can be restored").
				WithDetail("sale_id", saleID.String()).
				WithDetail("status", string(sl.Status))
		}

		for _, item := range sl.Items {
			if item.IsOutsourced {
				continue
			}
			if _, err := s.stockLedger.Adjust(ctx, stockledger.Adjustment{
				ProductID: item.ProductID,
				Delta:     item.Quantity.Neg(),
				Type:      movementType(sl),
				Reference: sl.Number,
				Reason:    "sale restored",
			}); err != nil {
				return err
			}
		}

		// Cancel never subtracts from total_purchases, so the restore must
		// not add to it either: the sale stays counted exactly once in the
		// customer's lifetime aggregate across cancel/restore cycles.
		if sl.PaymentMethod == PaymentCredit {
			if _, err := s.moneyLedger.AdjustCustomerBalance(ctx, moneyledger.BalanceChange{
				CustomerID:   *sl.CustomerID,
				Delta:        sl.Total,
				Label:        "sale restored",
				Reference:    sl.Number,
				NumberPrefix: "ADJ",
			}); err != nil {
				return err
			}
		}

		sl.Status = StatusCompleted
		sl.CancelledAt = nil
		sl.CancelReason = ""
		sl.Touch()

		if err := s.repo.Update(ctx, sl); err != nil {
			return fmt.Errorf("update sale: %w", err)
		}

		logger.Info(ctx, "sale restored", "id", sl.ID, "number", sl.Number)
		return nil
	})
}

// ReturnItem is one line of a partial return request.
type ReturnItem struct {
	SaleItemID id.ID
	Quantity   types.Quantity
	// Restock puts the returned quantity back on the shelf. Outsourced
	// items never restock regardless.
	Restock bool
}

// PartialReturnRequest shrinks or removes sale items and refunds the
// difference. RefundAmount must match the recomputed total delta within a
// cent or the whole operation fails.
type PartialReturnRequest struct {
	Items        []ReturnItem
	RefundAmount types.Money
	Reason       string
}

// PartialReturn mutates item rows in place without changing the sale
// status: returned quantities shrink the item (or delete it entirely),
// totals are recomputed, and the refund reconciles against the delta.
func (s *Service) PartialReturn(ctx context.Context, saleID id.ID, req PartialReturnRequest) error {
	if len(req.Items) == 0 {
		return apperror.NewValidation("at least one return item is required").
			WithDetail("field", "items")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sl, err := s.repo.GetByIDForUpdate(ctx, saleID)
		if err != nil {
			return err
		}

		if sl.Status == StatusCancelled {
			return apperror.NewInvalidState("cannot return items on a cancelled sale").
				WithDetail("sale_id", saleID.String())
		}

		byID := make(map[id.ID]*Item, len(sl.Items))
		for _, item := range sl.Items {
			byID[item.ID] = item
		}

		oldTotal := sl.Total

		for _, ret := range req.Items {
			item, ok := byID[ret.SaleItemID]
			if !ok {
				return apperror.NewNotFound("sale item", ret.SaleItemID)
			}
			if !ret.Quantity.IsPositive() {
				return apperror.NewValidation("return quantity must be positive").
					WithDetail("sale_item_id", ret.SaleItemID.String())
			}
			remaining := item.Quantity.Int64Scaled() - ret.Quantity.Int64Scaled()
			if remaining < 0 {
				return apperror.NewValidation("return quantity exceeds sold quantity").
					WithDetail("sale_item_id", ret.SaleItemID.String()).
					WithDetail("sold", item.Quantity.String()).
					WithDetail("returned", ret.Quantity.String())
			}

			if ret.Restock && !item.IsOutsourced {
				if _, err := s.stockLedger.Adjust(ctx, stockledger.Adjustment{
					ProductID: item.ProductID,
					Delta:     ret.Quantity,
					Type:      stockledger.TypeReturn,
					Reference: sl.Number,
					Reason:    "partial return",
				}); err != nil {
					return err
				}
			}

			if remaining == 0 {
				if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
					return fmt.Errorf("delete sale item: %w", err)
				}
				item.Quantity = 0
				item.Total = types.ZeroMoney()
			} else {
				item.Quantity = types.NewQuantityFromInt64Scaled(remaining)
				item.Total = item.UnitPrice.Mul(item.Quantity.Decimal())
				if err := s.repo.UpdateItem(ctx, item); err != nil {
					return fmt.Errorf("update sale item: %w", err)
				}
			}
		}

		kept := sl.Items[:0]
		for _, item := range sl.Items {
			if !item.Quantity.IsZero() {
				kept = append(kept, item)
			}
		}
		sl.Items = kept
		sl.RecalcTotals()

		refund := oldTotal.Sub(sl.Total)
		if !types.MoneyWithin(req.RefundAmount, refund, types.CentTolerance) {
			return apperror.NewValidation("refund amount does not match returned total").
				WithDetail("expected", refund.String()).
				WithDetail("provided", req.RefundAmount.String())
		}

		if err := s.unwindBalance(ctx, sl, refund, "partial return refund"); err != nil {
			return err
		}

		sl.Touch()
		if err := s.repo.Update(ctx, sl); err != nil {
			return fmt.Errorf("update sale: %w", err)
		}

		logger.Info(ctx, "partial return applied",
			"id", sl.ID, "number", sl.Number, "refund", refund)
		return nil
	})
}

// Revert is the full reversal: every non-outsourced item is restored when
// restock is requested, the sale is cancelled with a reason, and one
// reversal record referencing all restored items is written.
func (s *Service) Revert(ctx context.Context, saleID id.ID, restock bool, reason string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		sl, err := s.repo.GetByIDForUpdate(ctx, saleID)
		if err != nil {
			return err
		}

		if sl.Status == StatusCancelled {
			return apperror.NewInvalidState("sale is already cancelled").
				WithDetail("sale_id", saleID.String())
		}

		rev := &Reversal{
			ID:        id.New(),
			SaleID:    sl.ID,
			Type:      ReversalTypeFull,
			Reason:    reason,
			CreatedAt: time.Now().UTC(),
			CreatedBy: appctx.GetUserID(ctx),
		}

		for _, item := range sl.Items {
			restocked := restock && !item.IsOutsourced
			if restocked {
				if _, err := s.stockLedger.Adjust(ctx, stockledger.Adjustment{
					ProductID: item.ProductID,
					Delta:     item.Quantity,
					Type:      stockledger.TypeReturn,
					Reference: sl.Number,
					Reason:    "sale reverted",
				}); err != nil {
					return err
				}
			}
			rev.Items = append(rev.Items, ReversalItem{
				SaleItemID: item.ID,
				ProductID:  item.ProductID,
				Quantity:   item.Quantity,
				Restocked:  restocked,
			})
		}

		if err := s.unwindBalance(ctx, sl, sl.Total, "sale reverted"); err != nil {
			return err
		}

		if err := s.repo.InsertReversal(ctx, rev); err != nil {
			return fmt.Errorf("insert reversal: %w", err)
		}

		now := time.Now().UTC()
		sl.Status = StatusCancelled
		sl.CancelledAt = &now
		sl.CancelReason = reason
		sl.Touch()

		if err := s.repo.Update(ctx, sl); err != nil {
			return fmt.Errorf("update sale: %w", err)
		}

		logger.Info(ctx, "sale reverted",
			"id", sl.ID, "number", sl.Number, "restock", restock, "reason", reason)
		return nil
	})
}

// unwindBalance reverses the money side by the given amount: credit sales
// decrease the customer balance (with a journal row as the paired record),
// cash sales with an account post an outflow.
func (s *Service) unwindBalance(ctx context.Context, sl *Sale, amount types.Money, label string) error {
	if amount.IsZero() {
		return nil
	}

	switch {
	case sl.PaymentMethod == PaymentCredit:
		_, err := s.moneyLedger.AdjustCustomerBalance(ctx, moneyledger.BalanceChange{
			CustomerID:   *sl.CustomerID,
			Delta:        amount.Neg(),
			Label:        label,
			Reference:    sl.Number,
			NumberPrefix: "ADJ",
		})
		return err

	case sl.AccountID != nil && !id.IsNil(*sl.AccountID):
		return s.moneyLedger.PostCashFlow(ctx, &moneyledger.CashFlowEntry{
			Type:      moneyledger.FlowOutflow,
			Amount:    amount,
			AccountID: sl.AccountID,
			Category:  "sales",
			Reference: sl.Number,
			Notes:     label,
		})
	}
	return nil
}

// GetByID retrieves a sale with its items.
func (s *Service) GetByID(ctx context.Context, saleID id.ID) (*Sale, error) {
	return s.repo.GetByID(ctx, saleID)
}

// List retrieves sales with filtering and pagination.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error) {
	return s.repo.List(ctx, filter)
}
