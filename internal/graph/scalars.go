package graph

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Decimal is the GraphQL scalar for money. It is written as a string with
// two decimal places and read from either a string or a number.
type Decimal struct {
	decimal.Decimal
}

func (Decimal) ImplementsGraphQLType(name string) bool { return name == "Decimal" }

func (d *Decimal) UnmarshalGraphQL(input any) error {
	switch v := input.(type) {
	case string:
		parsed, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("invalid Decimal %q: %w", v, err)
		}
		d.Decimal = parsed
	case float64:
		d.Decimal = decimal.NewFromFloat(v)
	case int32:
		d.Decimal = decimal.NewFromInt32(v)
	case int:
		d.Decimal = decimal.NewFromInt(int64(v))
	default:
		return fmt.Errorf("wrong type for Decimal: %T", input)
	}
	return nil
}

func (d Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.StringFixed(2))
}
