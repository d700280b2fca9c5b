package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Order.TotalAmount is the sum of the product prices at the time the order
// was placed; it is not recomputed when prices change.
type Order struct {
	ID          int64           `json:"id"`
	CustomerID  int64           `json:"customer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OrderDate   time.Time       `json:"order_date"`
	CreatedAt   time.Time       `json:"created_at"`
	Products    []Product       `json:"products,omitempty"`
}

// OrderLine is one order/product association. UnitPrice is the price that
// went into the order total; Product carries the product as it is now.
type OrderLine struct {
	OrderID   int64           `json:"order_id"`
	Product   Product         `json:"product"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// SumPrices adds the prices of products as they are now.
func SumPrices(products []Product) decimal.Decimal {
	total := decimal.Zero
	for _, p := range products {
		total = total.Add(p.Price)
	}
	return total
}
