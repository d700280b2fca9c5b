package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/safar/crm-store/internal/database"
	"github.com/safar/crm-store/internal/models"
)

const productColumns = `id, name, price, stock, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }, p *models.Product) error {
	return row.Scan(
		&p.ID,
		&p.Name,
		&p.Price,
		&p.Stock,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

func insertProduct(ctx context.Context, q querier, p *models.Product) error {
	query := `
		INSERT INTO products (name, price, stock, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING ` + productColumns

	if err := scanProduct(q.QueryRowContext(ctx, query, p.Name, p.Price, p.Stock), p); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

func findProductsByIDs(ctx context.Context, q querier, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1::bigint[])
		ORDER BY id`

	rows, err := q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

// FindProductByName returns the oldest product with exactly this name.
func (p *Postgres) FindProductByName(ctx context.Context, name string) (*models.Product, error) {
	product := &models.Product{}

	query := `SELECT ` + productColumns + ` FROM products WHERE name = $1 ORDER BY id LIMIT 1`

	if err := scanProduct(p.db.QueryRowContext(ctx, query, name), product); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return product, nil
}

func (p *Postgres) ListProducts(ctx context.Context, filter ProductFilter, page, pageSize int) (*OffsetPage[models.Product], error) {
	page, pageSize = ClampPage(page, pageSize)

	where := `name ILIKE $1 ESCAPE '\'`
	pattern := likePattern(filter.Search)

	var total int64
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE `+where, pattern).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE ` + where + `
		ORDER BY id
		LIMIT $2 OFFSET $3`

	rows, err := p.db.QueryContext(ctx, query, pattern, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var product models.Product
		if err := scanProduct(rows, &product); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return NewOffsetPage(products, total, page, pageSize), nil
}
