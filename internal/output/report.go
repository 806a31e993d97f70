package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rgehrsitz/medrate/internal/calculation"
	"github.com/rgehrsitz/medrate/internal/domain"
	"github.com/shopspring/decimal"
)

// Kind identifies what a report carries
type Kind string

const (
	KindQuote       Kind = "quote"
	KindEligibility Kind = "eligibility"
	KindDiagnostics Kind = "diagnostics"
)

// Report is the envelope every formatter renders. Exactly one of Quote,
// Eligibility and Diagnostics is set, matching Kind.
type Report struct {
	Reference   string                     `json:"reference"`
	Kind        Kind                       `json:"kind"`
	GeneratedAt time.Time                  `json:"generatedAt"`
	Source      string                     `json:"source,omitempty"`
	Quote       *domain.QuoteResult        `json:"quote,omitempty"`
	Eligibility *domain.EligibilityVerdict `json:"eligibility,omitempty"`
	Diagnostics *calculation.Diagnostics   `json:"diagnostics,omitempty"`
}

func newReport(kind Kind, source string) *Report {
	return &Report{
		Reference:   uuid.NewString(),
		Kind:        kind,
		GeneratedAt: time.Now().UTC(),
		Source:      source,
	}
}

// NewQuoteReport wraps a quote result
func NewQuoteReport(source string, q *domain.QuoteResult) *Report {
	r := newReport(KindQuote, source)
	r.Quote = q
	return r
}

// NewEligibilityReport wraps an eligibility verdict
func NewEligibilityReport(source string, v *domain.EligibilityVerdict) *Report {
	r := newReport(KindEligibility, source)
	r.Eligibility = v
	return r
}

// NewDiagnosticsReport wraps catalog diagnostics
func NewDiagnosticsReport(source string, d *calculation.Diagnostics) *Report {
	r := newReport(KindDiagnostics, source)
	r.Diagnostics = d
	return r
}

func (r *Report) check() error {
	switch r.Kind {
	case KindQuote:
		if r.Quote == nil {
			return fmt.Errorf("quote report %s has no quote", r.Reference)
		}
	case KindEligibility:
		if r.Eligibility == nil {
			return fmt.Errorf("eligibility report %s has no verdict", r.Reference)
		}
	case KindDiagnostics:
		if r.Diagnostics == nil {
			return fmt.Errorf("diagnostics report %s has no diagnostics", r.Reference)
		}
	default:
		return fmt.Errorf("unknown report kind: %s", r.Kind)
	}
	return nil
}

// Formatter renders a report
type Formatter interface {
	Name() string
	Format(r *Report) ([]byte, error)
}

// FormatterFunc adapts a function to the Formatter interface
type FormatterFunc struct {
	ID string
	F  func(r *Report) ([]byte, error)
}

func (f FormatterFunc) Name() string { return f.ID }

func (f FormatterFunc) Format(r *Report) ([]byte, error) { return f.F(r) }

// FormatterByName returns the formatter registered for a format name
func FormatterByName(name string) (Formatter, error) {
	switch strings.ToLower(name) {
	case "console", "":
		return ConsoleFormatter{}, nil
	case "json":
		return JSONFormatter{Pretty: true}, nil
	case "csv":
		return CSVFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", name)
	}
}

// WriteFormatted renders r with f and writes the result to w
func WriteFormatted(w io.Writer, f Formatter, r *Report) error {
	if err := r.check(); err != nil {
		return err
	}
	data, err := f.Format(r)
	if err != nil {
		return fmt.Errorf("%s formatter failed: %w", f.Name(), err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s report: %w", f.Name(), err)
	}
	return nil
}

// FormatCurrency formats an amount with its currency code
func FormatCurrency(currency string, amount decimal.Decimal) string {
	if currency == "" {
		return amount.StringFixed(2)
	}
	return currency + " " + amount.StringFixed(2)
}

// FormatPercentage formats a percentage value (5 means 5%)
func FormatPercentage(pct decimal.Decimal) string {
	return pct.StringFixed(2) + "%"
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func decimalOrBlank(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}
