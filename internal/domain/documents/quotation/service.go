package quotation

import (
	"context"
	"fmt"
	"time"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/appctx"
	"stockbooks/internal/core/id"
	"stockbooks/internal/core/tx"
	"stockbooks/internal/domain"
	"stockbooks/internal/domain/documents/sale"
	"stockbooks/internal/domain/ledgers/stockledger"
	"stockbooks/pkg/logger"
	"stockbooks/pkg/numerator"
)

// Service drives the quotation state machine and its conversion into a
// credit sale.
type Service struct {
	repo        Repository
	stockLedger *stockledger.Service
	sales       *sale.Service
	numerator   *numerator.Service
	txManager   tx.Manager
	now         func() time.Time
}

// NewService creates a new quotation service.
func NewService(
	repo Repository,
	stockLedger *stockledger.Service,
	sales *sale.Service,
	num *numerator.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:        repo,
		stockLedger: stockLedger,
		sales:       sales,
		numerator:   num,
		txManager:   txManager,
		now:         time.Now,
	}
}

// Create stores a new draft quotation.
func (s *Service) Create(ctx context.Context, q *Quotation) error {
	q.Status = StatusDraft
	for _, item := range q.Items {
		if id.IsNil(item.ID) {
			item.ID = id.New()
		}
		item.Total = item.UnitPrice.Mul(item.Quantity.Decimal())
	}
	q.RecalcTotals()

	if err := q.Validate(ctx); err != nil {
		return err
	}

	q.CreatedBy = appctx.GetUserID(ctx)

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Allocated inside the transaction so a rollback releases the
		// sequence slot instead of burning the number.
		if q.Number == "" {
			number, err := s.numerator.GetNextNumber(ctx, numerator.MonthlyConfig("QT"), nil, s.now())
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			q.Number = number
		}

		for _, item := range q.Items {
			item.QuotationID = q.ID
		}
		if err := s.repo.Create(ctx, q); err != nil {
			return fmt.Errorf("create quotation: %w", err)
		}
		logger.Info(ctx, "quotation created", "id", q.ID, "number", q.Number, "total", q.Total)
		return nil
	})
}

// Update rewrites a draft quotation.
func (s *Service) Update(ctx context.Context, q *Quotation) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByIDForUpdate(ctx, q.ID)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return apperror.NewInvalidState("only a draft quotation can be edited").
				WithDetail("quotation_id", q.ID.String()).
				WithDetail("status", string(current.Status))
		}

		q.Status = StatusDraft
		q.Number = current.Number
		for _, item := range q.Items {
			if id.IsNil(item.ID) {
				item.ID = id.New()
			}
			item.QuotationID = q.ID
			item.Total = item.UnitPrice.Mul(item.Quantity.Decimal())
		}
		q.RecalcTotals()

		if err := q.Validate(ctx); err != nil {
			return err
		}

		if err := s.repo.ReplaceItems(ctx, q.ID, q.Items); err != nil {
			return fmt.Errorf("replace items: %w", err)
		}
		q.Touch()
		return s.repo.Update(ctx, q)
	})
}

// Delete removes a draft quotation.
func (s *Service) Delete(ctx context.Context, quotationID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q, err := s.repo.GetByIDForUpdate(ctx, quotationID)
		if err != nil {
			return err
		}
		if q.Status != StatusDraft {
			return apperror.NewInvalidState("only a draft quotation can be deleted").
				WithDetail("quotation_id", quotationID.String()).
				WithDetail("status", string(q.Status))
		}
		return s.repo.Delete(ctx, quotationID)
	})
}

// Send transitions draft → sent.
func (s *Service) Send(ctx context.Context, quotationID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q, err := s.repo.GetByIDForUpdate(ctx, quotationID)
		if err != nil {
			return err
		}
		if q.Status != StatusDraft {
			return apperror.NewInvalidState("only a draft quotation can be sent").
				WithDetail("quotation_id", quotationID.String()).
				WithDetail("status", string(q.Status))
		}
		q.Status = StatusSent
		q.Touch()
		return s.repo.Update(ctx, q)
	})
}

// Reject transitions sent → rejected.
func (s *Service) Reject(ctx context.Context, quotationID id.ID, reason string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q, err := s.repo.GetByIDForUpdate(ctx, quotationID)
		if err != nil {
			return err
		}
		if err := s.expireIfDue(ctx, q); err != nil {
			return err
		}
		if q.Status != StatusSent {
			return apperror.NewInvalidState("only a sent quotation can be rejected").
				WithDetail("quotation_id", quotationID.String()).
				WithDetail("status", string(q.Status))
		}
		q.Status = StatusRejected
		if reason != "" {
			q.Comment = reason
		}
		q.Touch()
		return s.repo.Update(ctx, q)
	})
}

// Convert turns a sent, unexpired quotation into a credit sale. Stock
// availability is re-checked under lock for every item before anything is
// mutated; a shortfall aborts with no sale created and no stock touched.
// The whole conversion runs in one transaction.
func (s *Service) Convert(ctx context.Context, quotationID id.ID) (*sale.Sale, error) {
	var created *sale.Sale

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		q, err := s.repo.GetByIDForUpdate(ctx, quotationID)
		if err != nil {
			return err
		}
		if err := s.expireIfDue(ctx, q); err != nil {
			return err
		}
		if q.Status != StatusSent {
			return apperror.NewInvalidState("only a sent quotation can be converted").
				WithDetail("quotation_id", quotationID.String()).
				WithDetail("status", string(q.Status))
		}

		for _, item := range q.Items {
			if err := s.stockLedger.CheckAvailable(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		sl := sale.NewSale()
		sl.CustomerID = &q.CustomerID
		sl.QuotationID = &q.ID
		sl.PaymentMethod = sale.PaymentCredit
		sl.Discount = q.Discount
		sl.Comment = fmt.Sprintf("converted from quotation %s", q.Number)
		for _, item := range q.Items {
			sl.Items = append(sl.Items, &sale.Item{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			})
		}

		if err := s.sales.Create(ctx, sl); err != nil {
			return err
		}
		created = sl

		q.Status = StatusAccepted
		q.Touch()
		if err := s.repo.Update(ctx, q); err != nil {
			return fmt.Errorf("update quotation: %w", err)
		}

		logger.Info(ctx, "quotation converted",
			"quotation_id", q.ID, "quotation_number", q.Number,
			"sale_id", sl.ID, "sale_number", sl.Number)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// expireIfDue reports lazy expiry on a sent quotation whose validity
// window has passed. The surrounding transaction aborts, so the status is
// not persisted here; reads surface the expiry the same way.
func (s *Service) expireIfDue(_ context.Context, q *Quotation) error {
	if q.Status != StatusSent || !q.IsExpired(s.now()) {
		return nil
	}
	q.Status = StatusExpired
	return apperror.NewInvalidState("quotation has expired").
		WithDetail("quotation_id", q.ID.String()).
		WithDetail("valid_until", q.ValidUntil.Format("2006-01-02"))
}

// GetByID retrieves a quotation, applying lazy expiry to its status in the
// returned value (persisted on the next mutation).
func (s *Service) GetByID(ctx context.Context, quotationID id.ID) (*Quotation, error) {
	q, err := s.repo.GetByID(ctx, quotationID)
	if err != nil {
		return nil, err
	}
	if q.Status == StatusSent && q.IsExpired(s.now()) {
		q.Status = StatusExpired
	}
	return q, nil
}

// List retrieves quotations with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Quotation], error) {
	return s.repo.List(ctx, filter)
}
