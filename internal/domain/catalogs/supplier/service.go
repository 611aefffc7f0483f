package supplier

import (
	"context"
	"fmt"
	"time"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/id"
	"stockbooks/internal/core/tx"
	"stockbooks/internal/domain"
	"stockbooks/pkg/logger"
	"stockbooks/pkg/numerator"
)

// Service provides business logic for the Supplier catalog.
type Service struct {
	repo      Repository
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new Supplier service.
func NewService(repo Repository, num *numerator.Service, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		numerator: num,
		txManager: txManager,
	}
}

// Create validates and stores a new supplier.
func (s *Service) Create(ctx context.Context, sup *Supplier) error {
	if sup.Code == "" {
		cfg := numerator.YearlyConfig("SUP")
		code, err := s.numerator.GetNextNumber(ctx, cfg, nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		sup.Code = code
	}

	if err := sup.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetByCode(ctx, sup.Code)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		if existing != nil {
			return apperror.NewDuplicate("supplier", "code", sup.Code)
		}

		if err := s.repo.Create(ctx, sup); err != nil {
			return fmt.Errorf("create supplier: %w", err)
		}

		logger.Info(ctx, "supplier created", "id", sup.ID, "code", sup.Code)
		return nil
	})
}

// Update modifies catalog attributes. The purchases aggregate stays as
// persisted; purchase-order operations own it.
func (s *Service) Update(ctx context.Context, sup *Supplier) error {
	if err := sup.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, sup.ID)
		if err != nil {
			return err
		}

		sup.TotalPurchases = current.TotalPurchases
		sup.Touch()
		return s.repo.Update(ctx, sup)
	})
}

// GetByID retrieves a supplier.
func (s *Service) GetByID(ctx context.Context, supplierID id.ID) (*Supplier, error) {
	return s.repo.GetByID(ctx, supplierID)
}

// List retrieves suppliers with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Supplier], error) {
	return s.repo.List(ctx, filter)
}
