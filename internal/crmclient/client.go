// Package crmclient is the GraphQL client the background jobs use to talk
// to a running CRM API.
package crmclient

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/machinebox/graphql"
	"github.com/safar/crm-store/internal/config"
	"github.com/shopspring/decimal"
)

const pageSize = 100

type Client struct {
	gql     *graphql.Client
	retries int
	backoff time.Duration
}

func New(cfg config.APIConfig) *Client {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	return &Client{
		gql:     graphql.NewClient(cfg.URL, graphql.WithHTTPClient(httpClient)),
		retries: cfg.Retries,
		backoff: 100 * time.Millisecond,
	}
}

type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Order struct {
	ID          string          `json:"id"`
	OrderDate   time.Time       `json:"orderDate"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Customer    Customer        `json:"customer"`
}

// run retries failed requests with exponential backoff and jitter. A
// cancelled context stops the retries.
func (c *Client) run(ctx context.Context, req *graphql.Request, resp any) error {
	var lastErr error
	backoff := c.backoff

	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			jitter := time.Duration(rand.Int63n(int64(backoff) / 2))
			select {
			case <-time.After(backoff + jitter):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}

		err := c.gql.Run(ctx, req, resp)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("after %d attempts: %w", c.retries+1, lastErr)
}

func (c *Client) Hello(ctx context.Context) (string, error) {
	var resp struct {
		Hello string `json:"hello"`
	}
	if err := c.run(ctx, graphql.NewRequest(`{ hello }`), &resp); err != nil {
		return "", err
	}
	return resp.Hello, nil
}

func (c *Client) CountCustomers(ctx context.Context) (int, error) {
	var resp struct {
		Customers struct {
			Total int `json:"total"`
		} `json:"customers"`
	}
	if err := c.run(ctx, graphql.NewRequest(`{ customers(pageSize: 1) { total } }`), &resp); err != nil {
		return 0, err
	}
	return resp.Customers.Total, nil
}

const ordersQuery = `
query($since: Time, $after: String, $first: Int) {
	orders(orderDateGte: $since, after: $after, first: $first) {
		items {
			id
			orderDate
			totalAmount
			customer { name email }
		}
		nextCursor
		hasMore
	}
}`

// ListOrders returns every order placed at or after since, newest first.
// A nil since lists all orders.
func (c *Client) ListOrders(ctx context.Context, since *time.Time) ([]Order, error) {
	var (
		orders []Order
		after  *string
	)

	for {
		req := graphql.NewRequest(ordersQuery)
		req.Var("first", pageSize)
		if since != nil {
			req.Var("since", since.UTC().Format(time.RFC3339))
		}
		if after != nil {
			req.Var("after", *after)
		}

		var resp struct {
			Orders struct {
				Items      []Order `json:"items"`
				NextCursor *string `json:"nextCursor"`
				HasMore    bool    `json:"hasMore"`
			} `json:"orders"`
		}
		if err := c.run(ctx, req, &resp); err != nil {
			return nil, err
		}

		orders = append(orders, resp.Orders.Items...)
		if !resp.Orders.HasMore || resp.Orders.NextCursor == nil {
			return orders, nil
		}
		after = resp.Orders.NextCursor
	}
}
