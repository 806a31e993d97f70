package calculation

import (
	"github.com/rgehrsitz/medrate/internal/domain"
	"github.com/shopspring/decimal"
)

// FrequencyConverter moves premiums between billing frequencies through an
// annual figure. Results are not rounded; callers round at combination.
type FrequencyConverter struct{}

// Annualize converts a per-period amount to an annual amount
func (FrequencyConverter) Annualize(amount decimal.Decimal, from domain.Frequency) (decimal.Decimal, error) {
	n := from.PeriodsPerYear()
	if n == 0 {
		return decimal.Zero, domain.NewConfigurationError(domain.CodeUnsupportedFrequency, "unsupported billing frequency %q", from)
	}
	return amount.Mul(decimal.NewFromInt(int64(n))), nil
}

// Periodize converts an annual amount to a per-period amount
func (FrequencyConverter) Periodize(annual decimal.Decimal, to domain.Frequency) (decimal.Decimal, error) {
	n := to.PeriodsPerYear()
	if n == 0 {
		return decimal.Zero, domain.NewConfigurationError(domain.CodeUnsupportedFrequency, "unsupported billing frequency %q", to)
	}
	return annual.Div(decimal.NewFromInt(int64(n))), nil
}

// Convert re-expresses an amount billed at one frequency at another
func (fc FrequencyConverter) Convert(amount decimal.Decimal, from, to domain.Frequency) (decimal.Decimal, error) {
	annual, err := fc.Annualize(amount, from)
	if err != nil {
		return decimal.Zero, err
	}
	return fc.Periodize(annual, to)
}
