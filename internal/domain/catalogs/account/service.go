package account

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

// Service provides business logic for the Account catalog.
type Service struct {
	repo      Repository
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new Account service.
func NewService(repo Repository, num *numerator.Service, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		numerator: num,
		txManager: txManager,
	}
}

// Create validates and stores a new account. Account code must be unique.
func (s *Service) Create(ctx context.Context, a *Account) error {
	if a.Code == "" {
		cfg := numerator.YearlyConfig("ACC")
		code, err := s.numerator.GetNextNumber(ctx, cfg, nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		a.Code = code
	}

	if err := a.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetByCode(ctx, a.Code)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		if existing != nil {
			return apperror.NewDuplicate("account", "code", a.Code)
		}

		if err := s.repo.Create(ctx, a); err != nil {
			return fmt.Errorf("create account: %w", err)
		}

		logger.Info(ctx, "account created", "id", a.ID, "code", a.Code)
		return nil
	})
}

// Update modifies catalog attributes. Balance stays as persisted.
func (s *Service) Update(ctx context.Context, a *Account) error {
	if err := a.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, a.ID)
		if err != nil {
			return err
		}

		a.Balance = current.Balance
		a.Touch()
		return s.repo.Update(ctx, a)
	})
}

// GetByID retrieves an account.
func (s *Service) GetByID(ctx context.Context, accountID id.ID) (*Account, error) {
	return s.repo.GetByID(ctx, accountID)
}

// List retrieves accounts with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Account], error) {
	return s.repo.List(ctx, filter)
}
