package outsourcing

import (
	"context"
	"fmt"
	"time"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/id"
	"stockbooks/internal/core/tx"
	"stockbooks/internal/domain"
	"stockbooks/internal/domain/ledgers/stockledger"
	"stockbooks/pkg/logger"
	"stockbooks/pkg/numerator"
)

// Service drives the outsourcing order state machine.
type Service struct {
	repo        Repository
	stockLedger *stockledger.Service
	numerator   *numerator.Service
	txManager   tx.Manager
}

// NewService creates a new outsourcing service.
func NewService(
	repo Repository,
	stockLedger *stockledger.Service,
	num *numerator.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:        repo,
		stockLedger: stockLedger,
		numerator:   num,
		txManager:   txManager,
	}
}

// Create stores an explicitly created pending order.
func (s *Service) Create(ctx context.Context, o *Order) error {
	if err := o.Validate(ctx); err != nil {
		return err
	}

	o.Status = StatusPending
	o.TotalCost = o.CostPerUnit.Mul(o.Quantity.Decimal())

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Allocated inside the transaction so a rollback releases the
		// sequence slot instead of burning the number.
		if o.Number == "" {
			number, err := s.numerator.GetNextNumber(ctx, numerator.DailyConfig("OS"), nil, time.Now())
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			o.Number = number
		}

		if err := s.repo.Create(ctx, o); err != nil {
			return fmt.Errorf("create outsourcing order: %w", err)
		}
		logger.Info(ctx, "outsourcing order created", "id", o.ID, "number", o.Number)
		return nil
	})
}

// CreateForSaleItem creates the implicit pending order plus the external
// purchase record for an outsourced sale item. Runs inside the sale's
// transaction (the transaction manager reuses it from context).
func (s *Service) CreateForSaleItem(ctx context.Context, saleID, saleItemID id.ID, o *Order) error {
	if err := o.Validate(ctx); err != nil {
		return err
	}

	o.SaleID = &saleID
	o.SaleItemID = &saleItemID
	o.Status = StatusPending
	o.TotalCost = o.CostPerUnit.Mul(o.Quantity.Decimal())

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if o.Number == "" {
			number, err := s.numerator.GetNextNumber(ctx, numerator.DailyConfig("OS"), nil, time.Now())
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			o.Number = number
		}

		if err := s.repo.Create(ctx, o); err != nil {
			return fmt.Errorf("create outsourcing order: %w", err)
		}

		purchase := &ExternalPurchase{
			ID:                 id.New(),
			SaleID:             &saleID,
			OutsourcingOrderID: o.ID,
			ProductID:          o.ProductID,
			SupplierID:         o.SupplierID,
			Quantity:           o.Quantity,
			CostPerUnit:        o.CostPerUnit,
			TotalCost:          o.TotalCost,
			CreatedAt:          time.Now().UTC(),
		}
		if err := s.repo.InsertExternalPurchase(ctx, purchase); err != nil {
			return fmt.Errorf("insert external purchase: %w", err)
		}

		return nil
	})
}

// MarkOrdered transitions pending → ordered.
func (s *Service) MarkOrdered(ctx context.Context, orderID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if o.Status != StatusPending {
			return apperror.NewInvalidState(fmt.Sprintf("cannot mark %s order as ordered", o.Status)).
				WithDetail("order_id", orderID.String()).
				WithDetail("status", string(o.Status))
		}

		o.Status = StatusOrdered
		o.Touch()
		return s.repo.Update(ctx, o)
	})
}

// Deliver transitions ordered (or pending) → delivered and increments
// product stock. Delivery is one-way per order: an already-delivered order
// skips the stock mutation, so re-delivery can never double-count.
func (s *Service) Deliver(ctx context.Context, orderID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if o.Status == StatusDelivered {
			logger.Warn(ctx, "outsourcing order already delivered, skipping stock mutation",
				"order_id", orderID, "number", o.Number)
			return nil
		}

		if o.Status == StatusCancelled {
			return apperror.NewInvalidState("cannot deliver a cancelled outsourcing order").
				WithDetail("order_id", orderID.String())
		}

		if _, err := s.stockLedger.Adjust(ctx, stockledger.Adjustment{
			ProductID: o.ProductID,
			Delta:     o.Quantity,
			Type:      stockledger.TypeOutsourcingDelivery,
			Reference: o.Number,
			Reason:    "outsourcing delivery",
		}); err != nil {
			return err
		}

		now := time.Now().UTC()
		o.Status = StatusDelivered
		o.DeliveredAt = &now
		o.Touch()

		if err := s.repo.Update(ctx, o); err != nil {
			return fmt.Errorf("update outsourcing order: %w", err)
		}

		logger.Info(ctx, "outsourcing order delivered",
			"id", o.ID, "number", o.Number, "quantity", o.Quantity)
		return nil
	})
}

// Cancel transitions pending|ordered → cancelled.
func (s *Service) Cancel(ctx context.Context, orderID id.ID, reason string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		if o.Status == StatusDelivered || o.Status == StatusCancelled {
			return apperror.NewInvalidState(fmt.Sprintf("cannot cancel %s outsourcing order", o.Status)).
				WithDetail("order_id", orderID.String()).
				WithDetail("status", string(o.Status))
		}

		o.Status = StatusCancelled
		if reason != "" {
			o.Comment = reason
		}
		o.Touch()
		return s.repo.Update(ctx, o)
	})
}

// GetByID retrieves an outsourcing order.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

// List retrieves outsourcing orders with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Order], error) {
	return s.repo.List(ctx, filter)
}
