package crm

import (
	"context"
	"time"

	"github.com/safar/crm-store/internal/models"
)

// The factory functions are the only place the engine writes. Callers must
// have normalized and validated the input first.

func buildCustomer(in CustomerInput) *models.Customer {
	c := &models.Customer{
		Name:  in.Name,
		Email: in.Email,
	}
	if in.Phone != nil {
		c.Phone = *in.Phone
	}
	return c
}

func buildProduct(in ProductInput) *models.Product {
	p := &models.Product{
		Name:  in.Name,
		Price: in.Price,
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	return p
}

func buildOrder(customerID int64, products []models.Product, orderDate time.Time) *models.Order {
	return &models.Order{
		CustomerID:  customerID,
		Products:    products,
		TotalAmount: models.SumPrices(products),
		OrderDate:   orderDate,
	}
}

func createCustomer(ctx context.Context, repo Repository, in CustomerInput) (*models.Customer, error) {
	c := buildCustomer(in)
	if err := repo.CreateCustomer(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func createProduct(ctx context.Context, repo Repository, in ProductInput) (*models.Product, error) {
	p := buildProduct(in)
	if err := repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func createOrder(ctx context.Context, repo Repository, customerID int64, products []models.Product, orderDate time.Time) (*models.Order, error) {
	o := buildOrder(customerID, products, orderDate)
	if err := repo.CreateOrderWithProducts(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}
