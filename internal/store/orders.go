package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/safar/crm-store/internal/database"
	"github.com/safar/crm-store/internal/models"
)

const orderColumns = `id, customer_id, total_amount, order_date, created_at`

func scanOrder(row interface{ Scan(...any) error }, o *models.Order) error {
	return row.Scan(
		&o.ID,
		&o.CustomerID,
		&o.TotalAmount,
		&o.OrderDate,
		&o.CreatedAt,
	)
}

// insertOrderWithProducts writes the order row and its associations on tx.
// The caller owns the transaction.
func insertOrderWithProducts(ctx context.Context, tx *sql.Tx, o *models.Order) error {
	err := tx.QueryRowContext(ctx,
		`INSERT INTO orders (customer_id, total_amount, order_date, created_at)
		 VALUES ($1, $2, $3, NOW())
		 RETURNING id, created_at`,
		o.CustomerID, o.TotalAmount, o.OrderDate).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		if database.IsForeignKeyViolation(err, database.OrderCustomerConstraint) {
			return database.ErrCustomerNotFound
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for _, p := range o.Products {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_products (order_id, product_id, unit_price)
			 VALUES ($1, $2, $3)`,
			o.ID, p.ID, p.Price)
		if err != nil {
			if database.IsForeignKeyViolation(err, database.OrderProductConstraint) {
				return database.ErrProductNotFound
			}
			return fmt.Errorf("insert order product %d: %w", p.ID, err)
		}
	}

	return nil
}

func (p *Postgres) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	order := &models.Order{}

	err := scanOrder(p.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id), order)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	return order, nil
}

// OrderLines returns the associations of an order with the price each
// product contributed to the total.
func (p *Postgres) OrderLines(ctx context.Context, orderID int64) ([]models.OrderLine, error) {
	query := `
		SELECT op.unit_price, pr.id, pr.name, pr.price, pr.stock, pr.created_at, pr.updated_at
		FROM order_products op
		JOIN products pr ON pr.id = op.product_id
		WHERE op.order_id = $1
		ORDER BY pr.id`

	rows, err := p.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order lines: %w", err)
	}
	defer rows.Close()

	var lines []models.OrderLine
	for rows.Next() {
		line := models.OrderLine{OrderID: orderID}
		err := rows.Scan(
			&line.UnitPrice,
			&line.Product.ID,
			&line.Product.Name,
			&line.Product.Price,
			&line.Product.Stock,
			&line.Product.CreatedAt,
			&line.Product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return lines, nil
}

// ListOrders pages through orders newest first using a keyset cursor.
func (p *Postgres) ListOrders(ctx context.Context, filter OrderFilter, cursor string, limit int) (*CursorPage[models.Order], error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	_, limit = ClampPage(1, limit)

	conds := []string{"(order_date, id) < ($1, $2)"}
	args := []any{cursorData.OrderDate, cursorData.ID}

	if filter.Since != nil {
		args = append(args, *filter.Since)
		conds = append(conds, fmt.Sprintf("order_date >= $%d", len(args)))
	}
	if filter.CustomerID != 0 {
		args = append(args, filter.CustomerID)
		conds = append(conds, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	args = append(args, limit+1)

	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		WHERE %s
		ORDER BY order_date DESC, id DESC
		LIMIT $%d`, orderColumns, strings.Join(conds, " AND "), len(args))

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return NewOrderPage(orders, limit, func(o models.Order) OrderCursor {
		return OrderCursor{OrderDate: o.OrderDate, ID: o.ID}
	}), nil
}
