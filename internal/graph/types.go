package graph

import (
	"context"
	"errors"

	"github.com/graph-gophers/graphql-go"
	"github.com/safar/crm-store/internal/crm"
	"github.com/safar/crm-store/internal/database"
	"github.com/safar/crm-store/internal/models"
	"github.com/safar/crm-store/internal/store"
)

type customerResolver struct {
	r *Resolver
	c models.Customer
}

func (c *customerResolver) ID() graphql.ID          { return toID(c.c.ID) }
func (c *customerResolver) Name() string            { return c.c.Name }
func (c *customerResolver) Email() string           { return c.c.Email }
func (c *customerResolver) CreatedAt() graphql.Time { return graphql.Time{Time: c.c.CreatedAt} }

func (c *customerResolver) Phone() *string {
	if c.c.Phone == "" {
		return nil
	}
	return &c.c.Phone
}

func (c *customerResolver) Orders(ctx context.Context, args struct {
	First *int32
	After *string
}) (*orderPageResolver, error) {
	return c.r.listOrders(ctx, store.OrderFilter{CustomerID: c.c.ID}, args.First, args.After)
}

type productResolver struct {
	p models.Product
}

func (p *productResolver) ID() graphql.ID          { return toID(p.p.ID) }
func (p *productResolver) Name() string            { return p.p.Name }
func (p *productResolver) Price() Decimal          { return Decimal{p.p.Price} }
func (p *productResolver) Stock() int32            { return int32(p.p.Stock) }
func (p *productResolver) CreatedAt() graphql.Time { return graphql.Time{Time: p.p.CreatedAt} }

func productResolvers(products []models.Product) []*productResolver {
	out := make([]*productResolver, 0, len(products))
	for _, p := range products {
		out = append(out, &productResolver{p: p})
	}
	return out
}

type orderResolver struct {
	r *Resolver
	o models.Order
}

func (o *orderResolver) ID() graphql.ID          { return toID(o.o.ID) }
func (o *orderResolver) TotalAmount() Decimal    { return Decimal{o.o.TotalAmount} }
func (o *orderResolver) OrderDate() graphql.Time { return graphql.Time{Time: o.o.OrderDate} }

func (o *orderResolver) Customer(ctx context.Context) (*customerResolver, error) {
	c, err := o.r.reader.FindCustomerByID(ctx, o.o.CustomerID)
	if err != nil {
		return nil, o.r.internal("order.customer", err)
	}
	return &customerResolver{r: o.r, c: *c}, nil
}

// Products uses the products carried on the order when it was just created
// and loads them otherwise.
func (o *orderResolver) Products(ctx context.Context) ([]*productResolver, error) {
	if o.o.Products != nil {
		return productResolvers(o.o.Products), nil
	}
	lines, err := o.lines(ctx)
	if err != nil {
		return nil, err
	}
	products := make([]models.Product, 0, len(lines))
	for _, l := range lines {
		products = append(products, l.Product)
	}
	return productResolvers(products), nil
}

func (o *orderResolver) Lines(ctx context.Context) ([]*orderLineResolver, error) {
	lines, err := o.lines(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*orderLineResolver, 0, len(lines))
	for _, l := range lines {
		out = append(out, &orderLineResolver{l: l})
	}
	return out, nil
}

func (o *orderResolver) lines(ctx context.Context) ([]models.OrderLine, error) {
	lines, err := o.r.reader.OrderLines(ctx, o.o.ID)
	if errors.Is(err, database.ErrOrderNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, o.r.internal("order.lines", err)
	}
	return lines, nil
}

type orderLineResolver struct {
	l models.OrderLine
}

func (l *orderLineResolver) Product() *productResolver { return &productResolver{p: l.l.Product} }
func (l *orderLineResolver) UnitPrice() Decimal        { return Decimal{l.l.UnitPrice} }

type customerPageResolver struct {
	r    *Resolver
	page *store.OffsetPage[models.Customer]
}

func (p *customerPageResolver) Items() []*customerResolver {
	out := make([]*customerResolver, 0, len(p.page.Items))
	for _, c := range p.page.Items {
		out = append(out, &customerResolver{r: p.r, c: c})
	}
	return out
}

func (p *customerPageResolver) Total() int32      { return int32(p.page.Total) }
func (p *customerPageResolver) Page() int32       { return int32(p.page.Page) }
func (p *customerPageResolver) PageSize() int32   { return int32(p.page.PageSize) }
func (p *customerPageResolver) TotalPages() int32 { return int32(p.page.TotalPages) }

type productPageResolver struct {
	page *store.OffsetPage[models.Product]
}

func (p *productPageResolver) Items() []*productResolver { return productResolvers(p.page.Items) }
func (p *productPageResolver) Total() int32              { return int32(p.page.Total) }
func (p *productPageResolver) Page() int32               { return int32(p.page.Page) }
func (p *productPageResolver) PageSize() int32           { return int32(p.page.PageSize) }
func (p *productPageResolver) TotalPages() int32         { return int32(p.page.TotalPages) }

type orderPageResolver struct {
	r    *Resolver
	page *store.CursorPage[models.Order]
}

func (p *orderPageResolver) Items() []*orderResolver {
	out := make([]*orderResolver, 0, len(p.page.Items))
	for _, o := range p.page.Items {
		out = append(out, &orderResolver{r: p.r, o: o})
	}
	return out
}

func (p *orderPageResolver) NextCursor() *string {
	if p.page.NextCursor == "" {
		return nil
	}
	return &p.page.NextCursor
}

func (p *orderPageResolver) HasMore() bool { return p.page.HasMore }

func nonNil(errs []string) []string {
	if errs == nil {
		return []string{}
	}
	return errs
}

type createCustomerPayload struct {
	r   *Resolver
	res *crm.CustomerResult
}

func (p *createCustomerPayload) Customer() *customerResolver {
	if p.res.Customer == nil {
		return nil
	}
	return &customerResolver{r: p.r, c: *p.res.Customer}
}

func (p *createCustomerPayload) Message() string  { return p.res.Message }
func (p *createCustomerPayload) Errors() []string { return nonNil(p.res.Errors) }
func (p *createCustomerPayload) Success() bool    { return p.res.OK() }

type bulkCreateCustomersPayload struct {
	r   *Resolver
	res *crm.BulkCustomerResult
}

func (p *bulkCreateCustomersPayload) Customers() []*customerResolver {
	out := make([]*customerResolver, 0, len(p.res.Customers))
	for _, c := range p.res.Customers {
		out = append(out, &customerResolver{r: p.r, c: c})
	}
	return out
}

func (p *bulkCreateCustomersPayload) Errors() []string { return nonNil(p.res.Errors) }

// Success is true when every row was created.
func (p *bulkCreateCustomersPayload) Success() bool { return len(p.res.Errors) == 0 }

type createProductPayload struct {
	res *crm.ProductResult
}

func (p *createProductPayload) Product() *productResolver {
	if p.res.Product == nil {
		return nil
	}
	return &productResolver{p: *p.res.Product}
}

func (p *createProductPayload) Message() string  { return p.res.Message }
func (p *createProductPayload) Errors() []string { return nonNil(p.res.Errors) }
func (p *createProductPayload) Success() bool    { return p.res.OK() }

type createOrderPayload struct {
	r   *Resolver
	res *crm.OrderResult
}

func (p *createOrderPayload) Order() *orderResolver {
	if p.res.Order == nil {
		return nil
	}
	return &orderResolver{r: p.r, o: *p.res.Order}
}

func (p *createOrderPayload) Message() string  { return p.res.Message }
func (p *createOrderPayload) Errors() []string { return nonNil(p.res.Errors) }
func (p *createOrderPayload) Success() bool    { return p.res.OK() }
