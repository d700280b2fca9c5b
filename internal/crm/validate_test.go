package crm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/safar/crm-store/internal/crm"
	"github.com/safar/crm-store/internal/store/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhoneIsValid(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"", true},
		{"+12345678901", true},
		{"+1234567890", true},
		{"+123456789012345", true},
		{"123-456-7890", true},
		{"+123456789", false},
		{"+1234567890123456", false},
		{"12345", false},
		{"abc-def-ghij", false},
		{"1234567890", false},
		{"123 456 7890", false},
		{"123-456-7890 ", false},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			assert.Equal(t, tt.want, crm.PhoneIsValid(tt.phone))
		})
	}
}

func TestPriceIsValid(t *testing.T) {
	assert.True(t, crm.PriceIsValid(decimal.RequireFromString("10.5")))
	assert.True(t, crm.PriceIsValid(decimal.RequireFromString("0.01")))
	assert.False(t, crm.PriceIsValid(decimal.Zero))
	assert.False(t, crm.PriceIsValid(decimal.NewFromInt(-5)))
}

func TestStockIsValid(t *testing.T) {
	assert.True(t, crm.StockIsValid(nil))
	assert.True(t, crm.StockIsValid(intPtr(0)))
	assert.True(t, crm.StockIsValid(intPtr(12)))
	assert.False(t, crm.StockIsValid(intPtr(-1)))
}

func TestEmailIsUnique(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := newService(t, st)

	unique, err := crm.EmailIsUnique(ctx, st, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, unique)

	mustCustomer(t, svc, "Alice", "alice@example.com")

	unique, err = crm.EmailIsUnique(ctx, st, "alice@example.com")
	require.NoError(t, err)
	assert.False(t, unique)

	t.Run("match is case-sensitive", func(t *testing.T) {
		unique, err := crm.EmailIsUnique(ctx, st, "Alice@example.com")
		require.NoError(t, err)
		assert.True(t, unique)
	})

	t.Run("lookup failure is an error", func(t *testing.T) {
		faulty := &faultyStore{Store: st, findEmailErr: errors.New("connection reset")}
		_, err := crm.EmailIsUnique(ctx, faulty, "alice@example.com")
		assert.Error(t, err)
	})
}
