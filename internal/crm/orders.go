package crm

import (
	"context"
	"errors"
	"fmt"

	"github.com/safar/crm-store/internal/database"
	"github.com/safar/crm-store/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	msgCustomerNotFound   = "customer not found"
	msgProductsRequired   = "at least one product required"
	msgInvalidProducts    = "invalid product reference(s)"
	msgConcurrentConflict = "order could not be created because of a concurrent update, please retry"
	msgTotalTooLarge      = "order total exceeds 99999999.99"
)

// rejection aborts the order transaction with a caller-facing reason.
type rejection struct {
	reason string
}

func (r *rejection) Error() string { return r.reason }

func reject(format string, args ...any) error {
	return &rejection{reason: fmt.Sprintf(format, args...)}
}

// CreateOrder resolves the customer and every product, totals the current
// prices and commits the order with its product associations. The reads and
// the write share one serializable transaction, so either the order and all
// of its associations are committed or nothing is.
func (s *Service) CreateOrder(ctx context.Context, in OrderInput) (*OrderResult, error) {
	log := s.log.WithFields(logrus.Fields{
		"operation":   "createOrder",
		"customer_id": in.CustomerID,
		"products":    len(in.ProductIDs),
	})

	orderDate := s.now().UTC()
	if in.OrderDate != nil {
		orderDate = in.OrderDate.UTC()
	}

	var order *models.Order
	err := s.store.RunInTx(ctx, database.SerializableTxOptions(), func(repo Repository) error {
		order = nil

		if _, err := repo.FindCustomerByID(ctx, in.CustomerID); err != nil {
			if errors.Is(err, database.ErrCustomerNotFound) {
				return reject(msgCustomerNotFound)
			}
			return fmt.Errorf("find customer: %w", err)
		}

		if len(in.ProductIDs) == 0 {
			return reject(msgProductsRequired)
		}
		if id, ok := firstDuplicate(in.ProductIDs); ok {
			return reject("%s: product %d listed more than once", msgInvalidProducts, id)
		}

		products, err := repo.FindProductsByIDs(ctx, in.ProductIDs)
		if err != nil {
			return fmt.Errorf("find products: %w", err)
		}
		if len(products) != len(in.ProductIDs) {
			return reject(msgInvalidProducts)
		}

		ordered := inRequestOrder(in.ProductIDs, products)
		if models.SumPrices(ordered).GreaterThanOrEqual(maxPrice) {
			return reject(msgTotalTooLarge)
		}

		created, err := createOrder(ctx, repo, in.CustomerID, ordered, orderDate)
		switch {
		case errors.Is(err, database.ErrCustomerNotFound):
			return reject(msgCustomerNotFound)
		case errors.Is(err, database.ErrProductNotFound):
			return reject(msgInvalidProducts)
		case err != nil:
			return fmt.Errorf("create order: %w", err)
		}
		order = created
		return nil
	})

	var rej *rejection
	switch {
	case err == nil:
		log.WithFields(logrus.Fields{
			"order_id":     order.ID,
			"total_amount": order.TotalAmount.StringFixed(2),
		}).Info("order created")
		return &OrderResult{Order: order, Message: MsgOrderCreated}, nil
	case errors.As(err, &rej):
		log.WithField("reason", rej.reason).Debug("order rejected")
		return &OrderResult{Message: MsgOrderRejected, Errors: []string{rej.reason}}, nil
	case database.IsRetryable(err):
		log.WithError(err).Warn("order retries exhausted")
		return &OrderResult{Message: MsgOrderRejected, Errors: []string{msgConcurrentConflict}}, nil
	default:
		return nil, fmt.Errorf("create order: %w", err)
	}
}

// firstDuplicate ignores ids that cannot match a product; they are reported
// by the lookup instead.
func firstDuplicate(ids []int64) (int64, bool) {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			return id, true
		}
		seen[id] = struct{}{}
	}
	return 0, false
}

// inRequestOrder returns products sorted the way their ids were requested.
// Every id must be present in products.
func inRequestOrder(ids []int64, products []models.Product) []models.Product {
	byID := make(map[int64]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	ordered := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		ordered = append(ordered, byID[id])
	}
	return ordered
}
