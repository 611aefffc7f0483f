package purchaseorder

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
	"stockbooks/internal/domain/catalogs/supplier"
	"stockbooks/internal/domain/ledgers/stockledger"
	"stockbooks/pkg/logger"
	"stockbooks/pkg/numerator"
)

// Service drives the purchase order state machine.
type Service struct {
	repo        Repository
	suppliers   supplier.Repository
	stockLedger *stockledger.Service
	numerator   *numerator.Service
	txManager   tx.Manager
}

// NewService creates a new purchase order service.
func NewService(
	repo Repository,
	suppliers supplier.Repository,
	stockLedger *stockledger.Service,
	num *numerator.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:        repo,
		suppliers:   suppliers,
		stockLedger: stockLedger,
		numerator:   num,
		txManager:   txManager,
	}
}

// Create stores a new draft purchase order and raises the supplier
// lifetime aggregate by its total.
func (s *Service) Create(ctx context.Context, o *Order) error {
	o.Status = StatusDraft
	for _, item := range o.Items {
		if id.IsNil(item.ID) {
			item.ID = id.New()
		}
		item.Total = item.UnitPrice.Mul(item.Quantity.Decimal())
		item.QuantityReceived = 0
		if item.Condition == "" {
			item.Condition = ConditionGood
		}
	}
	o.RecalcTotal()

	if err := o.Validate(ctx); err != nil {
		return err
	}

	o.CreatedBy = appctx.GetUserID(ctx)

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Allocated inside the transaction so a rollback releases the
		// sequence slot instead of burning the number.
		if o.Number == "" {
			number, err := s.numerator.GetNextNumber(ctx, numerator.DailyConfig("PO"), nil, time.Now())
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			o.Number = number
		}

		for _, item := range o.Items {
			item.PurchaseOrderID = o.ID
		}
		if err := s.repo.Create(ctx, o); err != nil {
			return fmt.Errorf("create purchase order: %w", err)
		}
		if err := s.suppliers.AddTotalPurchases(ctx, o.SupplierID, o.Total); err != nil {
			return err
		}
		logger.Info(ctx, "purchase order created",
			"id", o.ID, "number", o.Number, "total", o.Total)
		return nil
	})
}

// Update rewrites a draft order. The supplier aggregate moves by the total
// delta with a guarded subtraction on the old amount.
func (s *Service) Update(ctx context.Context, o *Order) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByIDForUpdate(ctx, o.ID)
		if err != nil {
			return err
		}
		if !current.Editable() {
			return apperror.NewInvalidState("only a draft purchase order can be edited").
				WithDetail("order_id", o.ID.String()).
				WithDetail("status", string(current.Status))
		}

		o.Status = StatusDraft
		o.Number = current.Number
		o.SupplierID = current.SupplierID
		for _, item := range o.Items {
			if id.IsNil(item.ID) {
				item.ID = id.New()
			}
			item.PurchaseOrderID = o.ID
			item.Total = item.UnitPrice.Mul(item.Quantity.Decimal())
			item.QuantityReceived = 0
			if item.Condition == "" {
				item.Condition = ConditionGood
			}
		}
		o.RecalcTotal()

		if err := o.Validate(ctx); err != nil {
			return err
		}

		if err := s.suppliers.AddTotalPurchases(ctx, o.SupplierID, current.Total.Neg()); err != nil {
			return err
		}
		if err := s.suppliers.AddTotalPurchases(ctx, o.SupplierID, o.Total); err != nil {
			return err
		}

		if err := s.repo.ReplaceItems(ctx, o.ID, o.Items); err != nil {
			return fmt.Errorf("replace items: %w", err)
		}
		o.Touch()
		if err := s.repo.Update(ctx, o); err != nil {
			return fmt.Errorf("update purchase order: %w", err)
		}
		return nil
	})
}

// Delete removes a draft order and unwinds the supplier aggregate.
func (s *Service) Delete(ctx context.Context, orderID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.Editable() {
			return apperror.NewInvalidState("only a draft purchase order can be deleted").
				WithDetail("order_id", orderID.String()).
				WithDetail("status", string(o.Status))
		}

		if err := s.suppliers.AddTotalPurchases(ctx, o.SupplierID, o.Total.Neg()); err != nil {
			return err
		}
		return s.repo.Delete(ctx, orderID)
	})
}

// Send transitions draft → sent.
func (s *Service) Send(ctx context.Context, orderID id.ID) error {
	return s.transition(ctx, orderID, StatusSent, StatusDraft)
}

// Confirm transitions draft|sent → confirmed.
func (s *Service) Confirm(ctx context.Context, orderID id.ID) error {
	return s.transition(ctx, orderID, StatusConfirmed, StatusDraft, StatusSent)
}

func (s *Service) transition(ctx context.Context, orderID id.ID, to Status, from ...Status) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		allowed := false
		for _, st := range from {
			if o.Status == st {
				allowed = true
				break
			}
		}
		if !allowed {
			return apperror.NewInvalidState(
				fmt.Sprintf("cannot move %s purchase order to %s", o.Status, to)).
				WithDetail("order_id", orderID.String()).
				WithDetail("status", string(o.Status))
		}
		o.Status = to
		o.Touch()
		return s.repo.Update(ctx, o)
	})
}

// Cancel transitions draft|sent → cancelled and unwinds the supplier
// aggregate.
func (s *Service) Cancel(ctx context.Context, orderID id.ID, reason string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status != StatusDraft && o.Status != StatusSent {
			return apperror.NewInvalidState(
				fmt.Sprintf("cannot cancel %s purchase order", o.Status)).
				WithDetail("order_id", orderID.String()).
				WithDetail("status", string(o.Status))
		}

		if err := s.suppliers.AddTotalPurchases(ctx, o.SupplierID, o.Total.Neg()); err != nil {
			return err
		}

		o.Status = StatusCancelled
		if reason != "" {
			o.Comment = reason
		}
		o.Touch()
		return s.repo.Update(ctx, o)
	})
}

// ReceiveItem is one line of a receive call.
type ReceiveItem struct {
	ProductID id.ID
	Quantity  types.Quantity
	Condition ItemCondition
}

// Receive applies a partial or full delivery. Every line must fit within
// the remaining quantity of its item or the whole call fails with the
// order untouched. Good condition goods reach the shelf through the stock
// ledger; the receiving status is recomputed after all lines apply.
func (s *Service) Receive(ctx context.Context, orderID id.ID, lines []ReceiveItem) error {
	if len(lines) == 0 {
		return apperror.NewValidation("at least one receive line is required").
			WithDetail("field", "items")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		switch o.Status {
		case StatusSent, StatusConfirmed, StatusPartiallyReceived:
		default:
			return apperror.NewInvalidState(
				fmt.Sprintf("cannot receive against a %s purchase order", o.Status)).
				WithDetail("order_id", orderID.String()).
				WithDetail("status", string(o.Status))
		}

		byProduct := make(map[id.ID]*Item, len(o.Items))
		for _, item := range o.Items {
			byProduct[item.ProductID] = item
		}

		// Validate every line before mutating anything. Lines carrying the
		// same product are summed so a delivery split across lines cannot
		// slip past the remaining-quantity check.
		received := make(map[id.ID]int64, len(lines))
		for _, line := range lines {
			item, ok := byProduct[line.ProductID]
			if !ok {
				return apperror.NewValidation("product is not on this purchase order").
					WithDetail("product_id", line.ProductID.String())
			}
			if !line.Quantity.IsPositive() {
				return apperror.NewValidation("received quantity must be positive").
					WithDetail("product_id", line.ProductID.String())
			}
			received[line.ProductID] += line.Quantity.Int64Scaled()
			if received[line.ProductID] > item.Remaining().Int64Scaled() {
				return apperror.NewValidation("received quantity exceeds remaining quantity").
					WithDetail("product_id", line.ProductID.String()).
					WithDetail("remaining", item.Remaining().String()).
					WithDetail("received", types.NewQuantityFromInt64Scaled(received[line.ProductID]).String())
			}
		}

		for _, line := range lines {
			item := byProduct[line.ProductID]
			item.QuantityReceived = types.NewQuantityFromInt64Scaled(
				item.QuantityReceived.Int64Scaled() + line.Quantity.Int64Scaled())
			if line.Condition != "" {
				item.Condition = line.Condition
			}

			if item.Condition == ConditionGood {
				if _, err := s.stockLedger.Adjust(ctx, stockledger.Adjustment{
					ProductID: item.ProductID,
					Delta:     line.Quantity,
					Type:      stockledger.TypePurchase,
					Reference: o.Number,
				}); err != nil {
					return err
				}
			}

			if err := s.repo.UpdateItem(ctx, item); err != nil {
				return fmt.Errorf("update item: %w", err)
			}
		}

		o.RecalcStatus()
		o.Touch()
		if err := s.repo.Update(ctx, o); err != nil {
			return fmt.Errorf("update purchase order: %w", err)
		}

		logger.Info(ctx, "purchase order receipt applied",
			"id", o.ID, "number", o.Number, "status", o.Status, "lines", len(lines))
		return nil
	})
}

// GetByID retrieves a purchase order with its items.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

// List retrieves purchase orders with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error) {
	return s.repo.List(ctx, filter)
}
