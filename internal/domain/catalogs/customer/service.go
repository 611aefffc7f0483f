package customer

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

// Service provides business logic for the Customer catalog.
type Service struct {
	repo      Repository
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new Customer service.
func NewService(repo Repository, num *numerator.Service, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		numerator: num,
		txManager: txManager,
	}
}

// Create validates and stores a new customer.
func (s *Service) Create(ctx context.Context, c *Customer) error {
	if c.Code == "" {
		cfg := numerator.YearlyConfig("CUS")
		code, err := s.numerator.GetNextNumber(ctx, cfg, nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		c.Code = code
	}

	if err := c.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetByCode(ctx, c.Code)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		if existing != nil {
			return apperror.NewDuplicate("customer", "code", c.Code)
		}

		if err := s.repo.Create(ctx, c); err != nil {
			return fmt.Errorf("create customer: %w", err)
		}

		logger.Info(ctx, "customer created", "id", c.ID, "code", c.Code)
		return nil
	})
}

// Update modifies catalog attributes. Balance fields stay as persisted;
// they are owned by the money ledger.
func (s *Service) Update(ctx context.Context, c *Customer) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, c.ID)
		if err != nil {
			return err
		}

		c.CurrentBalance = current.CurrentBalance
		c.TotalPurchases = current.TotalPurchases
		c.Touch()
		return s.repo.Update(ctx, c)
	})
}

// GetByID retrieves a customer.
func (s *Service) GetByID(ctx context.Context, customerID id.ID) (*Customer, error) {
	return s.repo.GetByID(ctx, customerID)
}

// List retrieves customers with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Customer], error) {
	return s.repo.List(ctx, filter)
}
