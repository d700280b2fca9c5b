package crm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/safar/crm-store/internal/database"
	"github.com/sirupsen/logrus"
)

// BulkCreateCustomers creates every valid row of inputs in one transaction.
// Invalid rows are skipped and reported, one message per row, labeled with
// the 1-based row number and the row's email. A store failure rolls back
// the whole batch and is returned as an error.
func (s *Service) BulkCreateCustomers(ctx context.Context, inputs []CustomerInput) (*BulkCustomerResult, error) {
	log := s.log.WithFields(logrus.Fields{"operation": "bulkCreateCustomers", "rows": len(inputs)})

	var result *BulkCustomerResult
	err := s.store.RunInTx(ctx, database.DefaultTxOptions(), func(repo Repository) error {
		result = &BulkCustomerResult{}
		accepted := make(map[string]int, len(inputs))

		for i, raw := range inputs {
			row := i + 1
			in := normalizeCustomer(raw)

			msgs, err := s.validateCustomer(ctx, repo, in, accepted)
			if err != nil {
				return fmt.Errorf("validate row %d: %w", row, err)
			}
			if len(msgs) > 0 {
				result.Errors = append(result.Errors, rowError(row, in.Email, msgs))
				continue
			}

			customer, err := createCustomer(ctx, repo, in)
			if errors.Is(err, database.ErrEmailTaken) {
				result.Errors = append(result.Errors, rowError(row, in.Email, []string{msgEmailTaken}))
				continue
			}
			if err != nil {
				return fmt.Errorf("create row %d: %w", row, err)
			}

			accepted[in.Email] = row
			result.Customers = append(result.Customers, *customer)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bulk create customers: %w", err)
	}

	log.WithFields(logrus.Fields{
		"created":  len(result.Customers),
		"rejected": len(result.Errors),
	}).Info("bulk customer creation finished")

	return result, nil
}

func rowError(row int, email string, msgs []string) string {
	reason := strings.Join(msgs, "; ")
	if email == "" {
		return fmt.Sprintf("row %d: %s", row, reason)
	}
	return fmt.Sprintf("row %d (%s): %s", row, email, reason)
}
