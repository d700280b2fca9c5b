// Package store holds the PostgreSQL implementation of the CRM persistence
// port together with the read queries behind the GraphQL query side.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/safar/crm-store/internal/crm"
	"github.com/safar/crm-store/internal/database"
	"github.com/safar/crm-store/internal/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type CustomerFilter struct {
	// Search matches name or email case-insensitively.
	Search string
}

type ProductFilter struct {
	Search string
}

type OrderFilter struct {
	Since      *time.Time
	CustomerID int64
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a substring ILIKE pattern in which the search text
// matches literally. An empty search matches everything.
func likePattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}

// repo implements crm.Repository over any querier.
type repo struct {
	q querier
}

func (r *repo) FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return getCustomer(ctx, r.q, "email = $1", email)
}

func (r *repo) FindCustomerByID(ctx context.Context, id int64) (*models.Customer, error) {
	return getCustomer(ctx, r.q, "id = $1", id)
}

func (r *repo) FindProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	return findProductsByIDs(ctx, r.q, ids)
}

func (r *repo) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return insertCustomer(ctx, r.q, c)
}

func (r *repo) CreateProduct(ctx context.Context, p *models.Product) error {
	return insertProduct(ctx, r.q, p)
}

// Postgres is the crm.Store backed by a *sql.DB pool.
type Postgres struct {
	repo
	db *sql.DB
}

var _ crm.Store = (*Postgres)(nil)

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{repo: repo{q: db}, db: db}
}

// CreateOrderWithProducts opens its own transaction when called outside
// RunInTx.
func (p *Postgres) CreateOrderWithProducts(ctx context.Context, o *models.Order) error {
	return database.WithTransaction(ctx, p.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		return insertOrderWithProducts(ctx, tx, o)
	})
}

func (p *Postgres) RunInTx(ctx context.Context, opts database.TxOptions, fn func(crm.Repository) error) error {
	run := func(tx *sql.Tx) error {
		return fn(&txRepo{repo: repo{q: tx}, tx: tx})
	}
	if opts.MaxRetries > 0 {
		return database.WithRetry(ctx, p.db, opts, run)
	}
	return database.WithTransaction(ctx, p.db, opts, run)
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

type txRepo struct {
	repo
	tx *sql.Tx
}

// CreateCustomer wraps the insert in a savepoint so a unique violation only
// discards this row and the surrounding transaction stays usable.
func (r *txRepo) CreateCustomer(ctx context.Context, c *models.Customer) error {
	if _, err := r.tx.ExecContext(ctx, "SAVEPOINT create_customer"); err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}

	err := insertCustomer(ctx, r.tx, c)
	if errors.Is(err, database.ErrEmailTaken) {
		if _, rbErr := r.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT create_customer"); rbErr != nil {
			return fmt.Errorf("rollback to savepoint: %v (original error: %w)", rbErr, err)
		}
		return err
	}
	if err != nil {
		return err
	}

	if _, err := r.tx.ExecContext(ctx, "RELEASE SAVEPOINT create_customer"); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

func (r *txRepo) CreateOrderWithProducts(ctx context.Context, o *models.Order) error {
	return insertOrderWithProducts(ctx, r.tx, o)
}
