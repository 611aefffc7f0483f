package entity

import (
	"context"
	"time"

	"stockbooks/internal/core/apperror"
)

// Document is the base type for business transactions: sales, purchase
// orders, quotations, outsourcing orders. Lifecycle is driven by a
// per-document status field, owned by the document type itself.
type Document struct {
	BaseDocument

	// Number is the document number (auto-generated, unique within type+period)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Comment is an optional user comment
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a new Document with generated ID.
func NewDocument() Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}
	return nil
}

// Catalog is the base type for reference data: products, customers,
// suppliers, accounts.
type Catalog struct {
	BaseEntity

	// Code is a human-readable identifier (unique per catalog)
	Code string `db:"code" json:"code"`

	// Name is the display name
	Name string `db:"name" json:"name"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewCatalog creates a new Catalog with generated ID.
func NewCatalog(code, name string) Catalog {
	now := time.Now().UTC()
	return Catalog{
		BaseEntity: NewBaseEntity(),
		Code:       code,
		Name:       name,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}

// Touch updates the UpdatedAt timestamp and increments version.
func (c *Catalog) Touch() {
	c.UpdatedAt = time.Now().UTC()
	c.BaseEntity.Touch()
}
