package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safar/crm-store/internal/database"
	"github.com/safar/crm-store/internal/models"
)

const customerColumns = `id, name, email, phone, created_at`

func insertCustomer(ctx context.Context, q querier, c *models.Customer) error {
	query := `
		INSERT INTO customers (name, email, phone, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at`

	err := q.QueryRowContext(ctx, query, c.Name, c.Email, c.Phone).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, database.EmailConstraint) {
			return database.ErrEmailTaken
		}
		return fmt.Errorf("insert customer: %w", err)
	}

	return nil
}

// getCustomer loads one customer matching where, which must use $1 for arg.
func getCustomer(ctx context.Context, q querier, where string, arg any) (*models.Customer, error) {
	customer := &models.Customer{}

	query := `SELECT ` + customerColumns + ` FROM customers WHERE ` + where

	err := q.QueryRowContext(ctx, query, arg).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.Phone,
		&customer.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	return customer, nil
}

func (p *Postgres) ListCustomers(ctx context.Context, filter CustomerFilter, page, pageSize int) (*OffsetPage[models.Customer], error) {
	page, pageSize = ClampPage(page, pageSize)

	where := `name ILIKE $1 ESCAPE '\' OR email ILIKE $1 ESCAPE '\'`
	pattern := likePattern(filter.Search)

	var total int64
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customers WHERE `+where, pattern).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count customers: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE ` + where + `
		ORDER BY id
		LIMIT $2 OFFSET $3`

	rows, err := p.db.QueryContext(ctx, query, pattern, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		var c models.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return NewOffsetPage(customers, total, page, pageSize), nil
}
