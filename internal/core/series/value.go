package series

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Value is one nullable series datum. The zero value is null. JSON encodes
// as a bare number or an explicit null entry — consumers of the export
// schema rely on nulls being present, never omitted.
type Value struct {
	Decimal decimal.Decimal
	Valid   bool
}

// Null is the absent datum.
var Null = Value{}

// NewValue wraps a decimal in a non-null Value.
func NewValue(d decimal.Decimal) Value {
	return Value{Decimal: d, Valid: true}
}

// NewValueFromFloat wraps a float in a non-null Value.
func NewValueFromFloat(f float64) Value {
	return Value{Decimal: decimal.NewFromFloat(f), Valid: true}
}

// Zero is the numeric zero datum, distinct from Null.
func Zero() Value {
	return Value{Decimal: decimal.Zero, Valid: true}
}

// Round returns the value rounded to places decimal places. Null and
// negative places pass through untouched.
func (v Value) Round(places int32) Value {
	if !v.Valid || places < 0 {
		return v
	}
	return Value{Decimal: v.Decimal.Round(places), Valid: true}
}

// MarshalJSON encodes as a bare number, or null when absent.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return []byte(v.Decimal.String()), nil
}

// UnmarshalJSON accepts a bare number or null.
func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Null
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return fmt.Errorf("invalid series value %q: %w", b, err)
	}
	*v = Value{Decimal: d, Valid: true}
	return nil
}

func (v Value) String() string {
	if !v.Valid {
		return "null"
	}
	return v.Decimal.String()
}
