// Package memory is an in-process implementation of the CRM store. It keeps
// the same constraints as the PostgreSQL schema (unique email, foreign keys,
// non-empty order associations) and gives transactions all-or-nothing
// semantics by working on a copy of the data that replaces the original
// only on commit. Transactions are serialized.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/safar/crm-store/internal/crm"
	"github.com/safar/crm-store/internal/database"
	"github.com/safar/crm-store/internal/models"
	"github.com/safar/crm-store/internal/store"
	"github.com/shopspring/decimal"
)

type line struct {
	productID int64
	unitPrice decimal.Decimal
}

type state struct {
	customers map[int64]models.Customer
	emails    map[string]int64
	products  map[int64]models.Product
	orders    map[int64]models.Order
	lines     map[int64][]line

	lastCustomerID int64
	lastProductID  int64
	lastOrderID    int64
}

func newState() *state {
	return &state{
		customers: make(map[int64]models.Customer),
		emails:    make(map[string]int64),
		products:  make(map[int64]models.Product),
		orders:    make(map[int64]models.Order),
		lines:     make(map[int64][]line),
	}
}

func (s *state) clone() *state {
	c := &state{
		customers:      make(map[int64]models.Customer, len(s.customers)),
		emails:         make(map[string]int64, len(s.emails)),
		products:       make(map[int64]models.Product, len(s.products)),
		orders:         make(map[int64]models.Order, len(s.orders)),
		lines:          make(map[int64][]line, len(s.lines)),
		lastCustomerID: s.lastCustomerID,
		lastProductID:  s.lastProductID,
		lastOrderID:    s.lastOrderID,
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.emails {
		c.emails[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.lines {
		c.lines[k] = append([]line(nil), v...)
	}
	return c
}

type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

var _ crm.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: newState(), now: time.Now}
}

func (s *Store) RunInTx(ctx context.Context, _ database.TxOptions, fn func(crm.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.st.clone()
	if err := fn(&txRepo{st: work, now: s.now}); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) FindCustomerByEmail(_ context.Context, email string) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.customerByEmail(email)
}

func (s *Store) FindCustomerByID(_ context.Context, id int64) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.customerByID(id)
}

func (s *Store) FindProductsByIDs(_ context.Context, ids []int64) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.productsByIDs(ids), nil
}

func (s *Store) CreateCustomer(_ context.Context, c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.insertCustomer(c, s.now())
}

func (s *Store) CreateProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.insertProduct(p, s.now())
}

func (s *Store) CreateOrderWithProducts(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := work.insertOrder(o, s.now()); err != nil {
		return err
	}
	s.st = work
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) FindProductByName(_ context.Context, name string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found *models.Product
	for _, p := range s.st.products {
		if p.Name == name && (found == nil || p.ID < found.ID) {
			p := p
			found = &p
		}
	}
	if found == nil {
		return nil, database.ErrProductNotFound
	}
	return found, nil
}

func (s *Store) ListCustomers(_ context.Context, filter store.CustomerFilter, page, pageSize int) (*store.OffsetPage[models.Customer], error) {
	page, pageSize = store.ClampPage(page, pageSize)

	s.mu.Lock()
	var matched []models.Customer
	for _, c := range s.st.customers {
		if contains(c.Name, filter.Search) || contains(c.Email, filter.Search) {
			matched = append(matched, c)
		}
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return store.NewOffsetPage(window(matched, page, pageSize), int64(len(matched)), page, pageSize), nil
}

func (s *Store) ListProducts(_ context.Context, filter store.ProductFilter, page, pageSize int) (*store.OffsetPage[models.Product], error) {
	page, pageSize = store.ClampPage(page, pageSize)

	s.mu.Lock()
	var matched []models.Product
	for _, p := range s.st.products {
		if contains(p.Name, filter.Search) {
			matched = append(matched, p)
		}
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return store.NewOffsetPage(window(matched, page, pageSize), int64(len(matched)), page, pageSize), nil
}

func (s *Store) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.st.orders[id]
	if !ok {
		return nil, database.ErrOrderNotFound
	}
	return &o, nil
}

func (s *Store) OrderLines(_ context.Context, orderID int64) ([]models.OrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.OrderLine
	for _, l := range s.st.lines[orderID] {
		out = append(out, models.OrderLine{
			OrderID:   orderID,
			Product:   s.st.products[l.productID],
			UnitPrice: l.unitPrice,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Product.ID < out[j].Product.ID })
	return out, nil
}

func (s *Store) ListOrders(_ context.Context, filter store.OrderFilter, cursor string, limit int) (*store.CursorPage[models.Order], error) {
	cur, err := store.DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	_, limit = store.ClampPage(1, limit)

	s.mu.Lock()
	var matched []models.Order
	for _, o := range s.st.orders {
		if !cur.Before(o.OrderDate, o.ID) {
			continue
		}
		if filter.Since != nil && o.OrderDate.Before(*filter.Since) {
			continue
		}
		if filter.CustomerID != 0 && o.CustomerID != filter.CustomerID {
			continue
		}
		matched = append(matched, o)
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.OrderDate.Equal(b.OrderDate) {
			return a.ID > b.ID
		}
		return a.OrderDate.After(b.OrderDate)
	})

	if len(matched) > limit+1 {
		matched = matched[:limit+1]
	}

	return store.NewOrderPage(matched, limit, func(o models.Order) store.OrderCursor {
		return store.OrderCursor{OrderDate: o.OrderDate, ID: o.ID}
	}), nil
}

// DeleteCustomer removes a customer together with its orders.
func (s *Store) DeleteCustomer(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.st.customers[id]
	if !ok {
		return database.ErrCustomerNotFound
	}
	delete(s.st.customers, id)
	delete(s.st.emails, c.Email)
	for oid, o := range s.st.orders {
		if o.CustomerID == id {
			delete(s.st.orders, oid)
			delete(s.st.lines, oid)
		}
	}
	return nil
}

// txRepo works on a private copy of the state; it needs no locking.
type txRepo struct {
	st  *state
	now func() time.Time
}

func (r *txRepo) FindCustomerByEmail(_ context.Context, email string) (*models.Customer, error) {
	return r.st.customerByEmail(email)
}

func (r *txRepo) FindCustomerByID(_ context.Context, id int64) (*models.Customer, error) {
	return r.st.customerByID(id)
}

func (r *txRepo) FindProductsByIDs(_ context.Context, ids []int64) ([]models.Product, error) {
	return r.st.productsByIDs(ids), nil
}

func (r *txRepo) CreateCustomer(_ context.Context, c *models.Customer) error {
	return r.st.insertCustomer(c, r.now())
}

func (r *txRepo) CreateProduct(_ context.Context, p *models.Product) error {
	return r.st.insertProduct(p, r.now())
}

func (r *txRepo) CreateOrderWithProducts(_ context.Context, o *models.Order) error {
	return r.st.insertOrder(o, r.now())
}

func (s *state) customerByEmail(email string) (*models.Customer, error) {
	id, ok := s.emails[email]
	if !ok {
		return nil, database.ErrCustomerNotFound
	}
	c := s.customers[id]
	return &c, nil
}

func (s *state) customerByID(id int64) (*models.Customer, error) {
	c, ok := s.customers[id]
	if !ok {
		return nil, database.ErrCustomerNotFound
	}
	return &c, nil
}

func (s *state) productsByIDs(ids []int64) []models.Product {
	seen := make(map[int64]bool, len(ids))
	var out []models.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *state) insertCustomer(c *models.Customer, now time.Time) error {
	if _, taken := s.emails[c.Email]; taken {
		return database.ErrEmailTaken
	}
	s.lastCustomerID++
	c.ID = s.lastCustomerID
	c.CreatedAt = now
	s.customers[c.ID] = *c
	s.emails[c.Email] = c.ID
	return nil
}

func (s *state) insertProduct(p *models.Product, now time.Time) error {
	s.lastProductID++
	p.ID = s.lastProductID
	p.CreatedAt = now
	p.UpdatedAt = now
	s.products[p.ID] = *p
	return nil
}

// insertOrder must only be called on a state that is discarded on error.
func (s *state) insertOrder(o *models.Order, now time.Time) error {
	if _, ok := s.customers[o.CustomerID]; !ok {
		return database.ErrCustomerNotFound
	}

	s.lastOrderID++
	o.ID = s.lastOrderID
	o.CreatedAt = now

	lines := make([]line, 0, len(o.Products))
	for _, p := range o.Products {
		if _, ok := s.products[p.ID]; !ok {
			return database.ErrProductNotFound
		}
		lines = append(lines, line{productID: p.ID, unitPrice: p.Price})
	}

	stored := *o
	stored.Products = nil
	s.orders[o.ID] = stored
	s.lines[o.ID] = lines
	return nil
}

func contains(s, substr string) bool {
	return substr == "" || strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func window[T any](items []T, page, pageSize int) []T {
	start := (page - 1) * pageSize
	if start >= len(items) {
		return nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
