package crm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/safar/crm-store/internal/database"
	"github.com/safar/crm-store/internal/models"
	"github.com/shopspring/decimal"
)

var phonePattern = regexp.MustCompile(`^(\+\d{10,15}|\d{3}-\d{3}-\d{4})$`)

// maxPrice is the first value that no longer fits NUMERIC(10,2).
var maxPrice = decimal.New(1, 8)

const (
	msgNameRequired  = "name is required"
	msgNameTooLong   = "name must be at most 100 characters"
	msgEmailRequired = "email is required"
	msgEmailInvalid  = "email must be a valid email address"
	msgEmailTooLong  = "email must be at most 254 characters"
	msgEmailTaken    = "email already exists"
	msgPhoneInvalid  = "phone must be in format +1234567890 or 123-456-7890"
	msgPriceInvalid  = "price must be positive"
	msgPriceTooLarge = "price must be less than 100000000"
	msgStockInvalid  = "stock cannot be negative"
)

// CustomerFinder is the read-only lookup EmailIsUnique needs.
type CustomerFinder interface {
	FindCustomerByEmail(ctx context.Context, email string) (*models.Customer, error)
}

// EmailIsUnique reports whether no stored customer has exactly this email.
func EmailIsUnique(ctx context.Context, finder CustomerFinder, email string) (bool, error) {
	_, err := finder.FindCustomerByEmail(ctx, email)
	if errors.Is(err, database.ErrCustomerNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("find customer by email: %w", err)
	}
	return false, nil
}

// PhoneIsValid accepts an empty phone, "+" followed by 10 to 15 digits, or
// the local DDD-DDD-DDDD form.
func PhoneIsValid(phone string) bool {
	return phone == "" || phonePattern.MatchString(phone)
}

func PriceIsValid(price decimal.Decimal) bool {
	return price.IsPositive()
}

// StockIsValid treats a missing stock as zero.
func StockIsValid(stock *int) bool {
	return stock == nil || *stock >= 0
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return PhoneIsValid(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register phone validation: %v", err))
	}
	return v
}

// fieldMessages runs the struct tags on input and returns one message per
// failing field, in field order.
func fieldMessages(v *validator.Validate, input any) []string {
	err := v.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return msgs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.StructField() + "." + fe.Tag() {
	case "Name.required":
		return msgNameRequired
	case "Name.max":
		return msgNameTooLong
	case "Email.required":
		return msgEmailRequired
	case "Email.email":
		return msgEmailInvalid
	case "Email.max":
		return msgEmailTooLong
	case "Phone.phone":
		return msgPhoneInvalid
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}

// validateCustomer evaluates every customer rule and returns the failures in
// a stable order. accepted maps emails already taken earlier in the same
// batch to their row; it is nil outside bulk creation. Only store failures
// are returned as errors.
func (s *Service) validateCustomer(ctx context.Context, repo Repository, in CustomerInput, accepted map[string]int) ([]string, error) {
	msgs := fieldMessages(s.validate, in)

	if in.Email == "" {
		return msgs, nil
	}

	if row, ok := accepted[in.Email]; ok {
		return append(msgs, fmt.Sprintf("%s (duplicate of row %d)", msgEmailTaken, row)), nil
	}

	unique, err := EmailIsUnique(ctx, repo, in.Email)
	if err != nil {
		return nil, err
	}
	if !unique {
		msgs = append(msgs, msgEmailTaken)
	}

	return msgs, nil
}

func (s *Service) validateProduct(in ProductInput) []string {
	msgs := fieldMessages(s.validate, in)

	if !PriceIsValid(in.Price) {
		msgs = append(msgs, msgPriceInvalid)
	} else if in.Price.GreaterThanOrEqual(maxPrice) {
		msgs = append(msgs, msgPriceTooLarge)
	}

	if !StockIsValid(in.Stock) {
		msgs = append(msgs, msgStockInvalid)
	}

	return msgs
}

// normalizeCustomer trims what the caller could not have meant to send.
// Emails are compared exactly, so they are trimmed but never case-folded.
func normalizeCustomer(in CustomerInput) CustomerInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		in.Phone = &phone
	}
	return in
}

// normalizeProduct rounds the price to the stored precision so validation
// sees the value that will be persisted.
func normalizeProduct(in ProductInput) ProductInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Price = in.Price.Round(2)
	return in
}
