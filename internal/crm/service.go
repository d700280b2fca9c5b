package crm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/safar/crm-store/internal/database"
	"github.com/sirupsen/logrus"
)

type Service struct {
	store    Store
	validate *validator.Validate
	log      logrus.FieldLogger
	now      func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now as the source of default order dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, log logrus.FieldLogger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		validate: newValidator(),
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) CreateCustomer(ctx context.Context, in CustomerInput) (*CustomerResult, error) {
	in = normalizeCustomer(in)
	log := s.log.WithFields(logrus.Fields{"operation": "createCustomer", "email": in.Email})

	msgs, err := s.validateCustomer(ctx, s.store, in, nil)
	if err != nil {
		return nil, fmt.Errorf("validate customer: %w", err)
	}
	if len(msgs) > 0 {
		log.WithField("errors", msgs).Debug("customer rejected")
		return &CustomerResult{Message: MsgCustomerInvalid, Errors: msgs}, nil
	}

	customer, err := createCustomer(ctx, s.store, in)
	if errors.Is(err, database.ErrEmailTaken) {
		// Lost a race with a concurrent insert of the same email.
		log.Debug("customer rejected by unique constraint")
		return &CustomerResult{Message: MsgCustomerInvalid, Errors: []string{msgEmailTaken}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	log.WithField("customer_id", customer.ID).Info("customer created")
	return &CustomerResult{Customer: customer, Message: MsgCustomerCreated}, nil
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*ProductResult, error) {
	in = normalizeProduct(in)
	log := s.log.WithFields(logrus.Fields{"operation": "createProduct", "name": in.Name})

	if msgs := s.validateProduct(in); len(msgs) > 0 {
		log.WithField("errors", msgs).Debug("product rejected")
		return &ProductResult{Message: MsgProductInvalid, Errors: msgs}, nil
	}

	product, err := createProduct(ctx, s.store, in)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	log.WithField("product_id", product.ID).Info("product created")
	return &ProductResult{Product: product, Message: MsgProductCreated}, nil
}
