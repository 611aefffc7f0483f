package stockledger

import (
	"context"
	"fmt"
	"time"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/appctx"
	"stockbooks/internal/core/id"
	"stockbooks/internal/core/types"
	"stockbooks/pkg/logger"
)

// Service is the single entry point for stock mutation.
// Callers (the order lifecycle services) invoke Adjust inside their own
// transaction; the service performs a locked read-modify-write plus one
// movement insert, and either both land or neither does.
type Service struct {
	repo Repository
}

// NewService creates a new stock ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Adjust applies a signed stock delta to a product.
//
// Decrements fail with InsufficientStock when the resulting balance would
// be negative, unless the caller explicitly set AllowNegative. The check
// applies to every decrement path; no movement type is exempt implicitly.
func (s *Service) Adjust(ctx context.Context, adj Adjustment) (*Movement, error) {
	if id.IsNil(adj.ProductID) {
		return nil, apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}
	if adj.Delta.IsZero() {
		return nil, apperror.NewValidation("quantity delta must not be zero").
			WithDetail("field", "delta")
	}
	if adj.Type == "" {
		return nil, apperror.NewValidation("movement type is required").
			WithDetail("field", "type")
	}

	before, err := s.repo.GetStockForUpdate(ctx, adj.ProductID)
	if err != nil {
		return nil, fmt.Errorf("lock stock for %s: %w", adj.ProductID, err)
	}

	after := before + adj.Delta
	if after.IsNegative() && !adj.AllowNegative {
		return nil, apperror.NewInsufficientStock(
			adj.ProductID.String(),
			adj.Delta.Abs().Float64(),
			before.Float64(),
		)
	}

	if err := s.repo.SetStock(ctx, adj.ProductID, after); err != nil {
		return nil, fmt.Errorf("set stock: %w", err)
	}

	movement := &Movement{
		ID:            id.New(),
		ProductID:     adj.ProductID,
		Type:          adj.Type,
		Quantity:      adj.Delta,
		BalanceBefore: before,
		BalanceAfter:  after,
		Reference:     adj.Reference,
		Reason:        adj.Reason,
		CreatedAt:     time.Now().UTC(),
		CreatedBy:     appctx.GetUserID(ctx),
	}

	if err := s.repo.InsertMovement(ctx, movement); err != nil {
		return nil, fmt.Errorf("insert movement: %w", err)
	}

	logger.Debug(ctx, "stock adjusted",
		"product_id", adj.ProductID,
		"type", adj.Type,
		"delta", adj.Delta,
		"balance_after", after,
	)

	return movement, nil
}

// CheckAvailable verifies under lock that at least the required quantity
// is on hand. Quotation conversion calls this for every line before any
// mutation, so a shortfall aborts the transaction before stock is touched.
func (s *Service) CheckAvailable(ctx context.Context, productID id.ID, required types.Quantity) error {
	if !required.IsPositive() {
		return apperror.NewValidation("required quantity must be positive").
			WithDetail("field", "quantity")
	}

	available, err := s.repo.GetStockForUpdate(ctx, productID)
	if err != nil {
		return fmt.Errorf("lock stock for %s: %w", productID, err)
	}

	if available < required {
		return apperror.NewInsufficientStock(productID.String(), required.Float64(), available.Float64())
	}

	return nil
}

// MovementsByReference returns the movements recorded for a document number.
func (s *Service) MovementsByReference(ctx context.Context, reference string) ([]Movement, error) {
	return s.repo.MovementsByReference(ctx, reference)
}

// History returns movement history for a product.
func (s *Service) History(ctx context.Context, productID id.ID, filter MovementFilter) ([]Movement, error) {
	return s.repo.MovementsByProduct(ctx, productID, filter)
}
