package crm_test

import (
	"context"
	"testing"
	"time"

	"github.com/safar/crm-store/internal/crm"
	"github.com/safar/crm-store/internal/database"
	"github.com/safar/crm-store/internal/models"
	"github.com/safar/crm-store/internal/store"
	"github.com/safar/crm-store/internal/store/memory"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func newService(t *testing.T, st crm.Store) *crm.Service {
	t.Helper()
	logger, _ := test.NewNullLogger()
	return crm.NewService(st, logger, crm.WithClock(func() time.Time { return fixedNow }))
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func mustProduct(t *testing.T, svc *crm.Service, name, price string) *models.Product {
	t.Helper()
	res, err := svc.CreateProduct(context.Background(), crm.ProductInput{
		Name:  name,
		Price: decimal.RequireFromString(price),
	})
	require.NoError(t, err)
	require.True(t, res.OK(), "create product %s: %v", name, res.Errors)
	return res.Product
}

func mustCustomer(t *testing.T, svc *crm.Service, name, email string) *models.Customer {
	t.Helper()
	res, err := svc.CreateCustomer(context.Background(), crm.CustomerInput{Name: name, Email: email})
	require.NoError(t, err)
	require.True(t, res.OK(), "create customer %s: %v", email, res.Errors)
	return res.Customer
}

func countCustomers(t *testing.T, st *memory.Store) int64 {
	t.Helper()
	page, err := st.ListCustomers(context.Background(), store.CustomerFilter{}, 1, store.MaxPageSize)
	require.NoError(t, err)
	return page.Total
}

func countOrders(t *testing.T, st *memory.Store) int {
	t.Helper()
	page, err := st.ListOrders(context.Background(), store.OrderFilter{}, "", store.MaxPageSize)
	require.NoError(t, err)
	return len(page.Items)
}

// faultyStore injects store failures into a memory store, both on direct
// calls and on repositories handed out by RunInTx.
type faultyStore struct {
	*memory.Store

	// createErr is returned by CreateCustomer once createsBeforeFailure
	// customers have been created.
	createErr            error
	createsBeforeFailure int
	creates              int

	// hideCustomers makes email lookups miss, simulating a concurrent
	// insert that the pre-check could not see.
	hideCustomers bool

	findEmailErr error
	orderErr     error
}

func (f *faultyStore) RunInTx(ctx context.Context, opts database.TxOptions, fn func(crm.Repository) error) error {
	return f.Store.RunInTx(ctx, opts, func(r crm.Repository) error {
		return fn(&faultyRepo{Repository: r, f: f})
	})
}

func (f *faultyStore) FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	return (&faultyRepo{Repository: f.Store, f: f}).FindCustomerByEmail(ctx, email)
}

func (f *faultyStore) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return (&faultyRepo{Repository: f.Store, f: f}).CreateCustomer(ctx, c)
}

func (f *faultyStore) CreateOrderWithProducts(ctx context.Context, o *models.Order) error {
	return (&faultyRepo{Repository: f.Store, f: f}).CreateOrderWithProducts(ctx, o)
}

type faultyRepo struct {
	crm.Repository
	f *faultyStore
}

func (r *faultyRepo) FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error) {
	if r.f.findEmailErr != nil {
		return nil, r.f.findEmailErr
	}
	if r.f.hideCustomers {
		return nil, database.ErrCustomerNotFound
	}
	return r.Repository.FindCustomerByEmail(ctx, email)
}

func (r *faultyRepo) CreateCustomer(ctx context.Context, c *models.Customer) error {
	if r.f.createErr != nil && r.f.creates >= r.f.createsBeforeFailure {
		return r.f.createErr
	}
	r.f.creates++
	return r.Repository.CreateCustomer(ctx, c)
}

func (r *faultyRepo) CreateOrderWithProducts(ctx context.Context, o *models.Order) error {
	if r.f.orderErr != nil {
		return r.f.orderErr
	}
	return r.Repository.CreateOrderWithProducts(ctx, o)
}
