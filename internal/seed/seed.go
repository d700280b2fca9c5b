// Package seed loads the demo customers and products through the same
// service calls the API uses.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/safar/crm-store/internal/crm"
	"github.com/safar/crm-store/internal/database"
	"github.com/safar/crm-store/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ProductFinder interface {
	FindProductByName(ctx context.Context, name string) (*models.Product, error)
}

type Summary struct {
	CustomersCreated int
	CustomerErrors   []string
	ProductsCreated  int
	ProductsSkipped  int
}

func phone(s string) *string { return &s }

func stock(n int) *int { return &n }

var customers = []crm.CustomerInput{
	{Name: "Alice", Email: "alice@example.com", Phone: phone("+1234567890")},
	{Name: "Bob", Email: "bob@example.com", Phone: phone("123-456-7890")},
	{Name: "Carol", Email: "carol@example.com"},
}

var products = []crm.ProductInput{
	{Name: "Laptop", Price: decimal.RequireFromString("999.99"), Stock: stock(10)},
	{Name: "Phone", Price: decimal.RequireFromString("499.99"), Stock: stock(20)},
	{Name: "Tablet", Price: decimal.RequireFromString("299.99"), Stock: stock(15)},
}

// Run creates the demo data. Customers that already exist are reported in
// CustomerErrors; products are only created when none with the same name
// exists.
func Run(ctx context.Context, svc *crm.Service, finder ProductFinder, log logrus.FieldLogger) (*Summary, error) {
	res, err := svc.BulkCreateCustomers(ctx, customers)
	if err != nil {
		return nil, fmt.Errorf("seed customers: %w", err)
	}

	sum := &Summary{CustomersCreated: len(res.Customers), CustomerErrors: res.Errors}
	for _, e := range res.Errors {
		log.WithField("row", e).Warn("customer not seeded")
	}

	for _, in := range products {
		_, err := finder.FindProductByName(ctx, in.Name)
		if err == nil {
			sum.ProductsSkipped++
			continue
		}
		if !errors.Is(err, database.ErrProductNotFound) {
			return nil, fmt.Errorf("find product %s: %w", in.Name, err)
		}

		pr, err := svc.CreateProduct(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("seed product %s: %w", in.Name, err)
		}
		if !pr.OK() {
			return nil, fmt.Errorf("seed product %s: %v", in.Name, pr.Errors)
		}
		sum.ProductsCreated++
	}

	log.WithFields(logrus.Fields{
		"customers": sum.CustomersCreated,
		"products":  sum.ProductsCreated,
	}).Info("seed finished")

	return sum, nil
}
