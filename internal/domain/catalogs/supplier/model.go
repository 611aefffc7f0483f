// Package supplier provides the Supplier catalog.
package supplier

import (
	"context"

	"stockbooks/internal/core/apperror"
	"stockbooks/internal/core/entity"
	"stockbooks/internal/core/types"
)

// Supplier represents a goods or outsourcing provider.
type Supplier struct {
	entity.Catalog

	Phone         *string `db:"phone" json:"phone,omitempty"`
	Email         *string `db:"email" json:"email,omitempty"`
	Address       *string `db:"address" json:"address,omitempty"`
	ContactPerson *string `db:"contact_person" json:"contactPerson,omitempty"`

	// TotalPurchases is a lifetime aggregate, adjusted by purchase-order
	// create/update/delete/cancel with a guarded subtraction.
	TotalPurchases types.Money `db:"total_purchases" json:"totalPurchases"`
}

// NewSupplier creates a supplier with required fields.
func NewSupplier(code, name string) *Supplier {
	return &Supplier{
		Catalog: entity.NewCatalog(code, name),
	}
}

// Validate implements entity.Validatable.
func (s *Supplier) Validate(ctx context.Context) error {
	if err := s.Catalog.Validate(ctx); err != nil {
		return err
	}

	if s.TotalPurchases.IsNegative() {
		return apperror.NewValidation("total purchases must not be negative").
			WithDetail("field", "totalPurchases")
	}

	return nil
}
