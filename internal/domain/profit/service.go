package profit

import (
	"context"
	"fmt"
	"time"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/id"
	"stockbooks/internal/core/tx"
	"stockbooks/pkg/logger"
)

// Service records profit snapshots.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

// NewService creates a new profit recorder.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// RecordSaleItem snapshots revenue, COGS, and profit for one sale item.
// Called by the sale lifecycle inside the sale's transaction.
func (s *Service) RecordSaleItem(ctx context.Context, saleID id.ID, saleDate time.Time, item SaleItemSnapshot) (*Record, error) {
	if id.IsNil(saleID) {
		return nil, apperror.NewValidation("sale is required").
			WithDetail("field", "saleId")
	}
	if !item.Quantity.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity")
	}

	cost := item.EffectiveCost()
	cogs := cost.Mul(item.Quantity.Decimal())

	record := &Record{
		ID:            id.New(),
		ReferenceID:   saleID,
		ReferenceType: ReferenceSale,
		ProductID:     item.ProductID,
		Revenue:       item.Total,
		COGS:          cogs,
		Profit:        item.Total.Sub(cogs),
		SaleDate:      saleDate,
		CreatedAt:     time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, record); err != nil {
		return nil, fmt.Errorf("insert profit record: %w", err)
	}

	return record, nil
}

// Backfill deletes every sale-type profit record and recomputes them from
// current sale/item data. Destructive, non-incremental; a recovery tool,
// not part of the normal write path.
func (s *Service) Backfill(ctx context.Context) (int, error) {
	var count int

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.DeleteByReferenceType(ctx, ReferenceSale); err != nil {
			return fmt.Errorf("delete sale profit records: %w", err)
		}

		items, err := s.repo.ListSaleItems(ctx)
		if err != nil {
			return fmt.Errorf("list sale items: %w", err)
		}

		for _, bi := range items {
			if _, err := s.RecordSaleItem(ctx, bi.SaleID, bi.SaleDate, bi.Item); err != nil {
				return err
			}
			count++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Info(ctx, "profit records backfilled", "count", count)
	return count, nil
}

// ByReference returns profit records for one sale.
func (s *Service) ByReference(ctx context.Context, refID id.ID) ([]Record, error) {
	return s.repo.ByReference(ctx, refID)
}
