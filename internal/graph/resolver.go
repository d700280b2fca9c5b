package graph

import (
	"context"
	"errors"
	"strconv"

	"github.com/graph-gophers/graphql-go"
	"github.com/safar/crm-store/internal/crm"
	"github.com/safar/crm-store/internal/database"
	"github.com/safar/crm-store/internal/models"
	"github.com/safar/crm-store/internal/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const helloMessage = "Hello, GraphQL!"

// msgInternal replaces store errors in mutation payloads; the cause is only
// logged.
const msgInternal = "internal error: operation was not completed"

var errInternal = errors.New("internal error")

// Reader is the query side of the store.
type Reader interface {
	FindCustomerByID(ctx context.Context, id int64) (*models.Customer, error)
	ListCustomers(ctx context.Context, filter store.CustomerFilter, page, pageSize int) (*store.OffsetPage[models.Customer], error)
	ListProducts(ctx context.Context, filter store.ProductFilter, page, pageSize int) (*store.OffsetPage[models.Product], error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	OrderLines(ctx context.Context, orderID int64) ([]models.OrderLine, error)
	ListOrders(ctx context.Context, filter store.OrderFilter, cursor string, limit int) (*store.CursorPage[models.Order], error)
	Ping(ctx context.Context) error
}

// Resolver is the root resolver for both queries and mutations.
type Resolver struct {
	svc    *crm.Service
	reader Reader
	log    logrus.FieldLogger
}

func NewResolver(svc *crm.Service, reader Reader, log logrus.FieldLogger) *Resolver {
	return &Resolver{svc: svc, reader: reader, log: log}
}

// MustParseSchema binds the CRM schema to r.
func MustParseSchema(r *Resolver) *graphql.Schema {
	return graphql.MustParseSchema(schemaSDL, r, graphql.MaxDepth(12))
}

func (r *Resolver) logStoreFailure(op string, err error) {
	r.log.WithError(err).WithField("operation", op).Error("store failure")
}

// internal logs a store failure and hides it from the client.
func (r *Resolver) internal(op string, err error) error {
	r.logStoreFailure(op, err)
	return errInternal
}

func toID(id int64) graphql.ID {
	return graphql.ID(strconv.FormatInt(id, 10))
}

// parseID maps anything that is not a positive integer to 0, which matches
// no row.
func parseID(id graphql.ID) int64 {
	n, err := strconv.ParseInt(string(id), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func intArg(v *int32) int {
	if v == nil {
		return 0
	}
	return int(*v)
}

func strArg(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func (r *Resolver) Hello() string {
	return helloMessage
}

func (r *Resolver) Customer(ctx context.Context, args struct{ ID graphql.ID }) (*customerResolver, error) {
	c, err := r.reader.FindCustomerByID(ctx, parseID(args.ID))
	if errors.Is(err, database.ErrCustomerNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, r.internal("customer", err)
	}
	return &customerResolver{r: r, c: *c}, nil
}

type pageArgs struct {
	Search   *string
	Page     *int32
	PageSize *int32
}

func (r *Resolver) Customers(ctx context.Context, args pageArgs) (*customerPageResolver, error) {
	page, err := r.reader.ListCustomers(ctx, store.CustomerFilter{Search: strArg(args.Search)}, intArg(args.Page), intArg(args.PageSize))
	if err != nil {
		return nil, r.internal("customers", err)
	}
	return &customerPageResolver{r: r, page: page}, nil
}

func (r *Resolver) Products(ctx context.Context, args pageArgs) (*productPageResolver, error) {
	page, err := r.reader.ListProducts(ctx, store.ProductFilter{Search: strArg(args.Search)}, intArg(args.Page), intArg(args.PageSize))
	if err != nil {
		return nil, r.internal("products", err)
	}
	return &productPageResolver{page: page}, nil
}

func (r *Resolver) Order(ctx context.Context, args struct{ ID graphql.ID }) (*orderResolver, error) {
	o, err := r.reader.GetOrder(ctx, parseID(args.ID))
	if errors.Is(err, database.ErrOrderNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, r.internal("order", err)
	}
	return &orderResolver{r: r, o: *o}, nil
}

func (r *Resolver) Orders(ctx context.Context, args struct {
	OrderDateGte *graphql.Time
	CustomerID   *graphql.ID
	First        *int32
	After        *string
}) (*orderPageResolver, error) {
	filter := store.OrderFilter{}
	if args.OrderDateGte != nil {
		since := args.OrderDateGte.Time
		filter.Since = &since
	}
	if args.CustomerID != nil {
		filter.CustomerID = parseID(*args.CustomerID)
		if filter.CustomerID == 0 {
			return &orderPageResolver{r: r, page: &store.CursorPage[models.Order]{Items: []models.Order{}}}, nil
		}
	}
	return r.listOrders(ctx, filter, args.First, args.After)
}

func (r *Resolver) listOrders(ctx context.Context, filter store.OrderFilter, first *int32, after *string) (*orderPageResolver, error) {
	page, err := r.reader.ListOrders(ctx, filter, strArg(after), intArg(first))
	if errors.Is(err, store.ErrInvalidCursor) {
		return nil, store.ErrInvalidCursor
	}
	if err != nil {
		return nil, r.internal("orders", err)
	}
	return &orderPageResolver{r: r, page: page}, nil
}

func (r *Resolver) CreateCustomer(ctx context.Context, args struct {
	Name  string
	Email string
	Phone *string
}) *createCustomerPayload {
	res, err := r.svc.CreateCustomer(ctx, crm.CustomerInput{Name: args.Name, Email: args.Email, Phone: args.Phone})
	if err != nil {
		r.logStoreFailure("createCustomer", err)
		return &createCustomerPayload{r: r, res: &crm.CustomerResult{Message: crm.MsgCustomerInvalid, Errors: []string{msgInternal}}}
	}
	return &createCustomerPayload{r: r, res: res}
}

type customerInput struct {
	Name  string
	Email string
	Phone *string
}

func (r *Resolver) BulkCreateCustomers(ctx context.Context, args struct{ Customers []customerInput }) *bulkCreateCustomersPayload {
	inputs := make([]crm.CustomerInput, 0, len(args.Customers))
	for _, c := range args.Customers {
		inputs = append(inputs, crm.CustomerInput{Name: c.Name, Email: c.Email, Phone: c.Phone})
	}

	res, err := r.svc.BulkCreateCustomers(ctx, inputs)
	if err != nil {
		r.logStoreFailure("bulkCreateCustomers", err)
		return &bulkCreateCustomersPayload{r: r, res: &crm.BulkCustomerResult{Errors: []string{msgInternal}}}
	}
	return &bulkCreateCustomersPayload{r: r, res: res}
}

func (r *Resolver) CreateProduct(ctx context.Context, args struct {
	Name  string
	Price float64
	Stock *int32
}) *createProductPayload {
	in := crm.ProductInput{Name: args.Name, Price: decimal.NewFromFloat(args.Price)}
	if args.Stock != nil {
		stock := int(*args.Stock)
		in.Stock = &stock
	}

	res, err := r.svc.CreateProduct(ctx, in)
	if err != nil {
		r.logStoreFailure("createProduct", err)
		return &createProductPayload{res: &crm.ProductResult{Message: crm.MsgProductInvalid, Errors: []string{msgInternal}}}
	}
	return &createProductPayload{res: res}
}

func (r *Resolver) CreateOrder(ctx context.Context, args struct {
	CustomerID graphql.ID
	ProductIDs []graphql.ID
	OrderDate  *graphql.Time
}) *createOrderPayload {
	in := crm.OrderInput{
		CustomerID: parseID(args.CustomerID),
		ProductIDs: make([]int64, 0, len(args.ProductIDs)),
	}
	for _, id := range args.ProductIDs {
		in.ProductIDs = append(in.ProductIDs, parseID(id))
	}
	if args.OrderDate != nil {
		orderDate := args.OrderDate.Time
		in.OrderDate = &orderDate
	}

	res, err := r.svc.CreateOrder(ctx, in)
	if err != nil {
		r.logStoreFailure("createOrder", err)
		return &createOrderPayload{r: r, res: &crm.OrderResult{Message: crm.MsgOrderRejected, Errors: []string{msgInternal}}}
	}
	return &createOrderPayload{r: r, res: res}
}
