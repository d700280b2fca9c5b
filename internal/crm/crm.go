// Package crm implements the CRM mutation engine: field validation, single
// and bulk record creation, and order assembly.
//
// Validation failures never surface as Go errors. They are returned in the
// Errors list of a result. A non-nil error from a Service method always means
// the store failed and nothing from that call was persisted.
package crm

import (
	"context"
	"time"

	"github.com/safar/crm-store/internal/database"
	"github.com/safar/crm-store/internal/models"
	"github.com/shopspring/decimal"
)

// Repository is the persistence surface the engine needs. Lookups that find
// nothing return database.ErrCustomerNotFound. CreateCustomer returns
// database.ErrEmailTaken when the store's unique constraint rejects the row.
type Repository interface {
	FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
	FindCustomerByID(ctx context.Context, id int64) (*models.Customer, error)
	FindProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	CreateProduct(ctx context.Context, product *models.Product) error
	// CreateOrderWithProducts persists the order row and one association per
	// entry of order.Products as one unit.
	CreateOrderWithProducts(ctx context.Context, order *models.Order) error
}

// Store is a Repository that can group calls into one transaction. fn sees a
// Repository bound to the transaction; returning an error rolls it back.
type Store interface {
	Repository
	RunInTx(ctx context.Context, opts database.TxOptions, fn func(Repository) error) error
}

type CustomerInput struct {
	Name  string  `json:"name" validate:"required,max=100"`
	Email string  `json:"email" validate:"required,max=254,email"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,phone"`
}

type ProductInput struct {
	Name  string          `json:"name" validate:"required,max=100"`
	Price decimal.Decimal `json:"price"`
	// Stock defaults to zero when nil.
	Stock *int `json:"stock,omitempty"`
}

type OrderInput struct {
	CustomerID int64
	ProductIDs []int64
	// OrderDate overrides the creation time when set.
	OrderDate *time.Time
}

type CustomerResult struct {
	Customer *models.Customer
	Message  string
	Errors   []string
}

func (r *CustomerResult) OK() bool { return r.Customer != nil && len(r.Errors) == 0 }

type BulkCustomerResult struct {
	Customers []models.Customer
	Errors    []string
}

type ProductResult struct {
	Product *models.Product
	Message string
	Errors  []string
}

func (r *ProductResult) OK() bool { return r.Product != nil && len(r.Errors) == 0 }

type OrderResult struct {
	Order   *models.Order
	Message string
	Errors  []string
}

func (r *OrderResult) OK() bool { return r.Order != nil && len(r.Errors) == 0 }

const (
	MsgCustomerCreated = "Customer created successfully"
	MsgProductCreated  = "Product created successfully"
	MsgOrderCreated    = "Order created successfully"
	MsgCustomerInvalid = "Customer was not created"
	MsgProductInvalid  = "Product was not created"
	MsgOrderRejected   = "Order was not created"
)
