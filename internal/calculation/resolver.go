package calculation

import (
	"github.com/shopspring/decimal"
)

// Candidate is one source in a precedence-ordered override lookup
type Candidate[T any] struct {
	Source string
	Value  *T
}

// From builds a Candidate
func From[T any](source string, value *T) Candidate[T] {
	return Candidate[T]{Source: source, Value: value}
}

// Resolve returns the first defined value in precedence order together with
// the name of the source it came from. ok is false when no candidate is set.
func Resolve[T any](candidates ...Candidate[T]) (value T, source string, ok bool) {
	for _, c := range candidates {
		if c.Value != nil {
			return *c.Value, c.Source, true
		}
	}
	return value, "", false
}

// roundMoney rounds to cents. Every combination point rounds so totals
// reproduce to the cent.
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// percentOf returns amount * pct / 100
func percentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(decimal.NewFromInt(100))
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

func maxDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

func minDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
