package dto

import (
	"stockbooks/internal/core/types"
	"stockbooks/internal/domain/catalogs/account"
	"stockbooks/internal/domain/catalogs/customer"
	"stockbooks/internal/domain/catalogs/product"
	"stockbooks/internal/domain/catalogs/supplier"
)

// Catalog responses are the domain entities themselves; their json tags
// define the wire shape. Only requests get dedicated DTOs here.

// --- Products ---

// CreateProductRequest creates a product.
type CreateProductRequest struct {
	SKU       string         `json:"sku" binding:"required"`
	Name      string         `json:"name" binding:"required"`
	CostPrice types.Money    `json:"costPrice"`
	Price     types.Money    `json:"price"`
	MinStock  types.Quantity `json:"minStock"`
	MaxStock  types.Quantity `json:"maxStock"`
	Unit      string         `json:"unit"`
}

// ToEntity converts the request to a domain product.
func (r *CreateProductRequest) ToEntity() *product.Product {
	p := product.NewProduct(r.SKU, r.Name)
	p.CostPrice = r.CostPrice
	p.Price = r.Price
	p.MinStock = r.MinStock
	p.MaxStock = r.MaxStock
	p.Unit = r.Unit
	return p
}

// UpdateProductRequest updates a product. Stock is absent on purpose: it
// changes only through the stock ledger.
type UpdateProductRequest struct {
	Name      *string         `json:"name"`
	CostPrice *types.Money    `json:"costPrice"`
	Price     *types.Money    `json:"price"`
	MinStock  *types.Quantity `json:"minStock"`
	MaxStock  *types.Quantity `json:"maxStock"`
	Status    *string         `json:"status"`
	Unit      *string         `json:"unit"`
	Version   int             `json:"version" binding:"required,min=1"`
}

// ApplyTo applies the update onto an existing product.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.CostPrice != nil {
		p.CostPrice = *r.CostPrice
	}
	if r.Price != nil {
		p.Price = *r.Price
	}
	if r.MinStock != nil {
		p.MinStock = *r.MinStock
	}
	if r.MaxStock != nil {
		p.MaxStock = *r.MaxStock
	}
	if r.Status != nil {
		p.Status = product.Status(*r.Status)
	}
	if r.Unit != nil {
		p.Unit = *r.Unit
	}
	p.SetVersion(r.Version)
}

// --- Customers ---

// CreateCustomerRequest creates a customer.
type CreateCustomerRequest struct {
	Code        string      `json:"code" binding:"required"`
	Name        string      `json:"name" binding:"required"`
	Phone       *string     `json:"phone"`
	Email       *string     `json:"email"`
	Address     *string     `json:"address"`
	CreditLimit types.Money `json:"creditLimit"`
}

// ToEntity converts the request to a domain customer.
func (r *CreateCustomerRequest) ToEntity() *customer.Customer {
	c := customer.NewCustomer(r.Code, r.Name)
	c.Phone = r.Phone
	c.Email = r.Email
	c.Address = r.Address
	c.CreditLimit = r.CreditLimit
	return c
}

// UpdateCustomerRequest updates a customer. Balance is absent on purpose:
// it changes only through the money ledger.
type UpdateCustomerRequest struct {
	Name        *string      `json:"name"`
	Phone       *string      `json:"phone"`
	Email       *string      `json:"email"`
	Address     *string      `json:"address"`
	CreditLimit *types.Money `json:"creditLimit"`
	Version     int          `json:"version" binding:"required,min=1"`
}

// ApplyTo applies the update onto an existing customer.
func (r *UpdateCustomerRequest) ApplyTo(c *customer.Customer) {
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Phone != nil {
		c.Phone = r.Phone
	}
	if r.Email != nil {
		c.Email = r.Email
	}
	if r.Address != nil {
		c.Address = r.Address
	}
	if r.CreditLimit != nil {
		c.CreditLimit = *r.CreditLimit
	}
	c.SetVersion(r.Version)
}

// --- Suppliers ---

// CreateSupplierRequest creates a supplier.
type CreateSupplierRequest struct {
	Code          string  `json:"code" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	Address       *string `json:"address"`
	ContactPerson *string `json:"contactPerson"`
}

// ToEntity converts the request to a domain supplier.
func (r *CreateSupplierRequest) ToEntity() *supplier.Supplier {
	s := supplier.NewSupplier(r.Code, r.Name)
	s.Phone = r.Phone
	s.Email = r.Email
	s.Address = r.Address
	s.ContactPerson = r.ContactPerson
	return s
}

// UpdateSupplierRequest updates a supplier.
type UpdateSupplierRequest struct {
	Name          *string `json:"name"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	Address       *string `json:"address"`
	ContactPerson *string `json:"contactPerson"`
	Version       int     `json:"version" binding:"required,min=1"`
}

// ApplyTo applies the update onto an existing supplier.
func (r *UpdateSupplierRequest) ApplyTo(s *supplier.Supplier) {
	if r.Name != nil {
		s.Name = *r.Name
	}
	if r.Phone != nil {
		s.Phone = r.Phone
	}
	if r.Email != nil {
		s.Email = r.Email
	}
	if r.Address != nil {
		s.Address = r.Address
	}
	if r.ContactPerson != nil {
		s.ContactPerson = r.ContactPerson
	}
	s.SetVersion(r.Version)
}

// --- Accounts ---

// CreateAccountRequest creates a cash or bank account.
type CreateAccountRequest struct {
	Code          string  `json:"code" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	Type          string  `json:"type" binding:"required,oneof=cash bank"`
	BankName      *string `json:"bankName"`
	AccountNumber *string `json:"accountNumber"`
	IsDefault     bool    `json:"isDefault"`
}

// ToEntity converts the request to a domain account.
func (r *CreateAccountRequest) ToEntity() *account.Account {
	a := account.NewAccount(r.Code, r.Name, account.Type(r.Type))
	a.BankName = r.BankName
	a.AccountNumber = r.AccountNumber
	a.IsDefault = r.IsDefault
	return a
}

// UpdateAccountRequest updates an account. Balance is absent on purpose:
// it changes only through the money ledger.
type UpdateAccountRequest struct {
	Name          *string `json:"name"`
	BankName      *string `json:"bankName"`
	AccountNumber *string `json:"accountNumber"`
	IsDefault     *bool   `json:"isDefault"`
	Version       int     `json:"version" binding:"required,min=1"`
}

// ApplyTo applies the update onto an existing account.
func (r *UpdateAccountRequest) ApplyTo(a *account.Account) {
	if r.Name != nil {
		a.Name = *r.Name
	}
	if r.BankName != nil {
		a.BankName = r.BankName
	}
	if r.AccountNumber != nil {
		a.AccountNumber = r.AccountNumber
	}
	if r.IsDefault != nil {
		a.IsDefault = *r.IsDefault
	}
	a.SetVersion(r.Version)
}
