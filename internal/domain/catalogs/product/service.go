package product

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

// Service provides business logic for the Product catalog.
type Service struct {
	repo      Repository
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates a new Product service.
func NewService(repo Repository, num *numerator.Service, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		numerator: num,
		txManager: txManager,
	}
}

// Create validates and stores a new product. SKU must be unique.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if p.SKU == "" && p.Code != "" {
		p.SKU = p.Code
	}
	if p.SKU == "" {
		cfg := numerator.YearlyConfig("PRD")
		sku, err := s.numerator.GetNextNumber(ctx, cfg, nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate sku: %w", err)
		}
		p.SKU = sku
		p.Code = sku
	}

	if err := p.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.GetBySKU(ctx, p.SKU)
		if err != nil && !apperror.IsNotFound(err) {
			return err
		}
		if existing != nil {
			return apperror.NewDuplicate("product", "sku", p.SKU)
		}

		if err := s.repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create product: %w", err)
		}

		logger.Info(ctx, "product created", "id", p.ID, "sku", p.SKU)
		return nil
	})
}

// Update modifies catalog attributes. Stock is not updatable here; it is
// owned by the stock ledger.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}

		if current.SKU != p.SKU {
			existing, err := s.repo.GetBySKU(ctx, p.SKU)
			if err != nil && !apperror.IsNotFound(err) {
				return err
			}
			if existing != nil && existing.ID != p.ID {
				return apperror.NewDuplicate("product", "sku", p.SKU)
			}
		}

		// Stock stays as persisted.
		p.Stock = current.Stock
		p.Touch()
		return s.repo.Update(ctx, p)
	})
}

// Delete soft-deletes a product unless it is referenced by sales or
// purchase orders.
func (s *Service) Delete(ctx context.Context, productID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.repo.GetByID(ctx, productID)
		if err != nil {
			return err
		}

		referenced, err := s.repo.IsReferenced(ctx, productID)
		if err != nil {
			return fmt.Errorf("check references: %w", err)
		}
		if referenced {
			return apperror.NewInvalidState("product is referenced by sales or purchases and cannot be deleted").
				WithDetail("product_id", productID.String())
		}

		p.MarkDeleted()
		p.Touch()
		return s.repo.Update(ctx, p)
	})
}

// GetByID retrieves a product.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// List retrieves products with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Product], error) {
	return s.repo.List(ctx, filter)
}
