package crm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/safar/crm-store/internal/crm"
	"github.com/safar/crm-store/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkCreateCustomersDuplicateInBatch(t *testing.T) {
	st := memory.New()
	svc := newService(t, st)

	res, err := svc.BulkCreateCustomers(context.Background(), []crm.CustomerInput{
		{Name: "A", Email: "a@x.com"},
		{Name: "B", Email: "a@x.com"},
	})
	require.NoError(t, err)

	require.Len(t, res.Customers, 1)
	assert.Equal(t, "A", res.Customers[0].Name)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "row 2 (a@x.com): email already exists (duplicate of row 1)", res.Errors[0])
	assert.EqualValues(t, 1, countCustomers(t, st))
}

func TestBulkCreateCustomersPartialFailure(t *testing.T) {
	st := memory.New()
	svc := newService(t, st)
	mustCustomer(t, svc, "Existing", "existing@example.com")

	res, err := svc.BulkCreateCustomers(context.Background(), []crm.CustomerInput{
		{Name: "Alice", Email: "alice@example.com", Phone: strPtr("+1234567890")},
		{Name: "Bad Phone", Email: "badphone@example.com", Phone: strPtr("abc-def-ghij")},
		{Name: "Bob", Email: "bob@example.com", Phone: strPtr("123-456-7890")},
		{Name: "Dup", Email: "existing@example.com"},
		{Name: "", Email: ""},
		{Name: "Carol", Email: "carol@example.com"},
	})
	require.NoError(t, err)

	var names []string
	for _, c := range res.Customers {
		assert.NotZero(t, c.ID)
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, names)

	assert.Equal(t, []string{
		"row 2 (badphone@example.com): phone must be in format +1234567890 or 123-456-7890",
		"row 4 (existing@example.com): email already exists",
		"row 5: name is required; email is required",
	}, res.Errors)
	assert.EqualValues(t, 4, countCustomers(t, st))
}

func TestBulkCreateCustomersRejectedRowDoesNotReserveEmail(t *testing.T) {
	svc := newService(t, memory.New())

	res, err := svc.BulkCreateCustomers(context.Background(), []crm.CustomerInput{
		{Name: "First", Email: "shared@example.com", Phone: strPtr("12345")},
		{Name: "Second", Email: "shared@example.com"},
	})
	require.NoError(t, err)

	require.Len(t, res.Customers, 1)
	assert.Equal(t, "Second", res.Customers[0].Name)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "row 1")
}

func TestBulkCreateCustomersIsIdempotent(t *testing.T) {
	st := memory.New()
	svc := newService(t, st)
	batch := []crm.CustomerInput{
		{Name: "Alice", Email: "alice@example.com"},
		{Name: "Bob", Email: "bob@example.com"},
		{Name: "Carol", Email: "carol@example.com"},
	}

	first, err := svc.BulkCreateCustomers(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, first.Customers, 3)
	assert.Empty(t, first.Errors)

	second, err := svc.BulkCreateCustomers(context.Background(), batch)
	require.NoError(t, err)
	assert.Empty(t, second.Customers)
	assert.Equal(t, []string{
		"row 1 (alice@example.com): email already exists",
		"row 2 (bob@example.com): email already exists",
		"row 3 (carol@example.com): email already exists",
	}, second.Errors)
	assert.EqualValues(t, 3, countCustomers(t, st))
}

func TestBulkCreateCustomersEmptyBatch(t *testing.T) {
	svc := newService(t, memory.New())

	res, err := svc.BulkCreateCustomers(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.Customers)
	assert.Empty(t, res.Errors)
}

func TestBulkCreateCustomersStorageFailureRollsBack(t *testing.T) {
	st := memory.New()
	boom := errors.New("server closed the connection unexpectedly")
	svc := newService(t, &faultyStore{Store: st, createErr: boom, createsBeforeFailure: 2})

	res, err := svc.BulkCreateCustomers(context.Background(), []crm.CustomerInput{
		{Name: "Alice", Email: "alice@example.com"},
		{Name: "Bob", Email: "bob@example.com"},
		{Name: "Carol", Email: "carol@example.com"},
	})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, res)
	assert.Zero(t, countCustomers(t, st), "rows created before the failure must be rolled back")
}

func TestBulkCreateCustomersConstraintRace(t *testing.T) {
	st := memory.New()
	mustCustomer(t, newService(t, st), "Alice", "alice@example.com")
	svc := newService(t, &faultyStore{Store: st, hideCustomers: true})

	res, err := svc.BulkCreateCustomers(context.Background(), []crm.CustomerInput{
		{Name: "Alice Again", Email: "alice@example.com"},
		{Name: "Bob", Email: "bob@example.com"},
	})
	require.NoError(t, err)

	require.Len(t, res.Customers, 1)
	assert.Equal(t, "bob@example.com", res.Customers[0].Email)
	assert.Equal(t, []string{"row 1 (alice@example.com): email already exists"}, res.Errors)
	assert.EqualValues(t, 2, countCustomers(t, st))
}
