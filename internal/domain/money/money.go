// internal/domain/money/money.go
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Amount is an exact decimal amount. It wraps shopspring/decimal so that
// balances and contribution math never touch float64, and it round-trips
// through MongoDB as Decimal128.
type Amount struct {
	d decimal.Decimal
}

// Zero is the zero amount.
var Zero = Amount{}

// FromInt builds an Amount from a whole number.
func FromInt(v int64) Amount {
	return Amount{d: decimal.NewFromInt(v)}
}

// FromDecimal wraps an existing decimal value.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d}
}

// Parse builds an Amount from its string form ("97.50").
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Amount{d: d}, nil
}

// MustParse is Parse for test fixtures and constants; it panics on bad input.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal returns the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal { return a.d }

func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }
func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }
func (a Amount) Mul(b Amount) Amount { return Amount{d: a.d.Mul(b.d)} }

// MulInt scales the amount by a whole number (e.g. per-member deficits).
func (a Amount) MulInt(n int64) Amount { return Amount{d: a.d.Mul(decimal.NewFromInt(n))} }

// DivInt divides the amount by a whole number with 16 digits of precision.
func (a Amount) DivInt(n int64) Amount {
	return Amount{d: a.d.DivRound(decimal.NewFromInt(n), 16)}
}

func (a Amount) Cmp(b Amount) int        { return a.d.Cmp(b.d) }
func (a Amount) Equal(b Amount) bool     { return a.d.Equal(b.d) }
func (a Amount) LessThan(b Amount) bool  { return a.d.LessThan(b.d) }
func (a Amount) IsZero() bool            { return a.d.IsZero() }
func (a Amount) IsNegative() bool        { return a.d.IsNegative() }
func (a Amount) IsPositive() bool        { return a.d.IsPositive() }
func (a Amount) String() string          { return a.d.String() }

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a.d.LessThan(b.d) {
		return a
	}
	return b
}

// MarshalJSON encodes the amount as a JSON number string, matching the
// decimal library's own behavior.
func (a Amount) MarshalJSON() ([]byte, error) { return a.d.MarshalJSON() }

// UnmarshalJSON accepts both "97.5" and 97.5.
func (a *Amount) UnmarshalJSON(b []byte) error { return a.d.UnmarshalJSON(b) }

// MarshalBSONValue stores the amount as a Decimal128 so aggregation
// pipelines and shell queries see a real number, not a blob.
func (a Amount) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d128, err := primitive.ParseDecimal128(a.d.String())
	if err != nil {
		return 0, nil, fmt.Errorf("amount %s to decimal128: %w", a.d, err)
	}
	return bson.MarshalValue(d128)
}

// UnmarshalBSONValue reads Decimal128 (and tolerates null as zero).
func (a *Amount) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null {
		a.d = decimal.Decimal{}
		return nil
	}
	var d128 primitive.Decimal128
	raw := bson.RawValue{Type: t, Value: data}
	if err := raw.Unmarshal(&d128); err != nil {
		return fmt.Errorf("amount from bson: %w", err)
	}
	d, err := decimal.NewFromString(d128.String())
	if err != nil {
		return fmt.Errorf("amount from decimal128 %s: %w", d128, err)
	}
	a.d = d
	return nil
}
