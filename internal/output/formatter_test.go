package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rgehrsitz/medrate/internal/calculation"
	"github.com/rgehrsitz/medrate/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func buildTestQuote() *domain.QuoteResult {
	return &domain.QuoteResult{
		PlanID:     "gold",
		RateCardID: "rc-gold-2025",
		Breakdown: domain.PremiumBreakdown{
			Currency:  "KES",
			Frequency: domain.FrequencyMonthly,
			Basis:     domain.BasisPerMember,
			Base:      d("2000"),
			Addon:     d("150"),
			Loading:   d("100"),
			Discount:  d("200"),
			Subtotal:  d("2050"),
			TaxRate:   d("0.02"),
			Tax:       d("41"),
			Gross:     d("2091"),
			PerMember: []domain.MemberLine{
				{MemberID: "m-1", MemberType: domain.MemberPrincipal, RatingAge: 35, RateEntryID: "e-18-39", Factor: d("1"), Base: d("1500"), Loading: d("100"), Total: d("1600")},
				{MemberID: "m-2", MemberType: domain.MemberChild, RatingAge: 4, RateEntryID: "e-0-17", Factor: d("0.5"), Base: d("500"), Total: d("500")},
			},
			PerAddon: []domain.AddonLine{
				{AddonID: "evacuation", Name: "Emergency Evacuation", PricingType: domain.AddonFixed, IsMandatory: true, Amount: d("150")},
			},
			Annualized: d("25092"),
			Periodized: map[domain.Frequency]decimal.Decimal{
				domain.FrequencyMonthly: d("2091"),
				domain.FrequencyAnnual:  d("25092"),
			},
		},
		Discounts: domain.DiscountApplication{
			AppliedRules: []domain.AppliedRule{
				{RuleID: "big-family", Code: "FAMILY4", Name: "Large family discount", Kind: domain.KindDiscount,
					ValueType: domain.ValueFixed, Value: d("200"), AppliesTo: domain.AppliesToBase,
					Amount: d("200"), PremiumBefore: d("2250"), PremiumAfter: d("2050")},
			},
			SkippedRules:  []domain.SkippedRule{{RuleID: "solo", Code: "SOLO", Reason: "not stackable"}},
			TotalDiscount: d("200"),
			FinalPremium:  d("2050"),
		},
		Billed:   d("2091"),
		BilledAs: domain.FrequencyMonthly,
	}
}

func buildTestVerdict(eligible bool) *domain.EligibilityVerdict {
	if !eligible {
		end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
		return &domain.EligibilityVerdict{
			Reason:               domain.ReasonWaitingPeriod,
			Message:              "waiting period ends 2025-01-31",
			BenefitID:            "outpatient",
			WaitingEndDate:       &end,
			WaitingDaysRemaining: 1,
		}
	}
	return &domain.EligibilityVerdict{
		Eligible:         true,
		Reason:           domain.ReasonEligible,
		BenefitID:        "outpatient",
		LimitType:        domain.LimitAmount,
		Limit:            dp("50000"),
		Used:             dp("12000"),
		Remaining:        dp("33500"),
		LimitFrom:        "benefit",
		RequiresReferral: true,
		MemberShare:      dp("650"),
		Payable:          dp("3850"),
	}
}

func buildTestDiagnostics() *calculation.Diagnostics {
	return &calculation.Diagnostics{
		AsOf:            time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EntryOverlaps:   []calculation.EntryOverlap{{CardID: "rc-gold", First: "e-18-39", Second: "e-30-50"}},
		LoadingOverlaps: []calculation.LoadingOverlap{{First: "a", Second: "b", Reason: "same ICD code I10"}},
		PlanIssues:      []calculation.PlanIssue{{PlanID: "bronze", Code: domain.CodeNoRateCard, Message: "no card"}},
	}
}

func TestNewReport_StampsReference(t *testing.T) {
	r1 := NewQuoteReport("catalog.yaml", buildTestQuote())
	r2 := NewQuoteReport("catalog.yaml", buildTestQuote())

	_, err := uuid.Parse(r1.Reference)
	assert.NoError(t, err, "reference should be a UUID")
	assert.NotEqual(t, r1.Reference, r2.Reference)
	assert.Equal(t, KindQuote, r1.Kind)
	assert.Equal(t, "catalog.yaml", r1.Source)
	assert.False(t, r1.GeneratedAt.IsZero())
}

func TestFormatterFunc(t *testing.T) {
	called := false
	var received *Report

	formatter := FormatterFunc{
		ID: "test-formatter",
		F: func(r *Report) ([]byte, error) {
			called = true
			received = r
			return []byte("test output"), nil
		},
	}

	report := NewEligibilityReport("", buildTestVerdict(true))
	var buf bytes.Buffer
	err := WriteFormatted(&buf, formatter, report)

	assert.NoError(t, err)
	assert.True(t, called, "Should call the function")
	assert.Same(t, report, received)
	assert.Equal(t, "test output", buf.String())
	assert.Equal(t, "test-formatter", formatter.Name())
}

func TestWriteFormatted_Errors(t *testing.T) {
	failing := FormatterFunc{
		ID: "error-formatter",
		F: func(r *Report) ([]byte, error) {
			return nil, fmt.Errorf("formatter error")
		},
	}

	err := WriteFormatted(&bytes.Buffer{}, failing, NewQuoteReport("", buildTestQuote()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error-formatter formatter failed")
	assert.Contains(t, err.Error(), "formatter error")

	empty := &Report{Reference: "r", Kind: KindQuote}
	err = WriteFormatted(&bytes.Buffer{}, ConsoleFormatter{}, empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no quote")
}

func TestFormatterByName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"console", "console"},
		{"", "console"},
		{"JSON", "json"},
		{"csv", "csv"},
	}
	for _, tt := range tests {
		f, err := FormatterByName(tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, f.Name())
	}

	_, err := FormatterByName("html")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format: html")
}

func TestConsoleFormatter_Quote(t *testing.T) {
	report := NewQuoteReport("", buildTestQuote())
	out, err := ConsoleFormatter{}.Format(report)
	require.NoError(t, err)

	content := string(out)
	assert.Contains(t, content, "PREMIUM QUOTE")
	assert.Contains(t, content, "rc-gold-2025")
	assert.Contains(t, content, "e-18-39")
	assert.Contains(t, content, "Emergency Evacuation")
	assert.Contains(t, content, "mandatory")
	assert.Contains(t, content, "FAMILY4")
	assert.Contains(t, content, "-200.00")
	assert.Contains(t, content, "skipped SOLO: not stackable")
	assert.Contains(t, content, "KES 2091.00")
	assert.Contains(t, content, "Tax (2.00%)")
	assert.Contains(t, content, "Billed monthly: KES 2091.00")
	assert.Contains(t, content, report.Reference)
}

func TestConsoleFormatter_Verdict(t *testing.T) {
	out, err := ConsoleFormatter{}.Format(NewEligibilityReport("", buildTestVerdict(true)))
	require.NoError(t, err)
	content := string(out)
	assert.Contains(t, content, "CLAIM ELIGIBILITY")
	assert.Contains(t, content, "ELIGIBLE")
	assert.NotContains(t, content, "NOT ELIGIBLE")
	assert.Contains(t, content, "50000.00 (benefit)")
	assert.Contains(t, content, "33500")
	assert.Contains(t, content, "Requires referral")
	assert.Contains(t, content, "3850.00")

	out, err = ConsoleFormatter{}.Format(NewEligibilityReport("", buildTestVerdict(false)))
	require.NoError(t, err)
	content = string(out)
	assert.Contains(t, content, "NOT ELIGIBLE")
	assert.Contains(t, content, "waiting_period")
	assert.Contains(t, content, "2025-01-31 (1 days remaining)")
}

func TestConsoleFormatter_Diagnostics(t *testing.T) {
	out, err := ConsoleFormatter{}.Format(NewDiagnosticsReport("", buildTestDiagnostics()))
	require.NoError(t, err)
	content := string(out)
	assert.Contains(t, content, "OVERLAPPING RATE ENTRIES")
	assert.Contains(t, content, "entries e-18-39 and e-30-50 overlap")
	assert.Contains(t, content, "AMBIGUOUS LOADING RULES")
	assert.Contains(t, content, "bronze [no_rate_card]")
	assert.NotContains(t, content, "OVERLAPPING TIERS")
	assert.Contains(t, content, "3 findings")

	clean := &calculation.Diagnostics{AsOf: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	out, err = ConsoleFormatter{}.Format(NewDiagnosticsReport("", clean))
	require.NoError(t, err)
	assert.Contains(t, string(out), "No findings")
}

func TestJSONFormatter_Quote(t *testing.T) {
	report := NewQuoteReport("catalog.yaml", buildTestQuote())
	out, err := JSONFormatter{Pretty: true}.Format(report)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, report.Reference, decoded["reference"])
	assert.Equal(t, "quote", decoded["kind"])
	assert.NotContains(t, decoded, "eligibility")

	quote := decoded["quote"].(map[string]any)
	assert.Equal(t, "gold", quote["planId"])
	breakdown := quote["breakdown"].(map[string]any)
	assert.Equal(t, "2091", breakdown["gross"])
	assert.Contains(t, breakdown["periodized"], "annual")
}

func TestJSONFormatter_Compact(t *testing.T) {
	out, err := JSONFormatter{}.Format(NewEligibilityReport("", buildTestVerdict(false)))
	require.NoError(t, err)
	assert.NotContains(t, string(out[:len(out)-1]), "\n")
	assert.Contains(t, string(out), `"reason":"waiting_period"`)
}

func TestCSVFormatter_Quote(t *testing.T) {
	report := NewQuoteReport("", buildTestQuote())
	out, err := CSVFormatter{}.Format(report)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"Reference", "Section", "ID", "Description", "Amount"}, rows[0])
	assert.Equal(t, []string{report.Reference, "member", "m-1", "principal age 35 entry e-18-39", "1600.00"}, rows[1])
	assert.Equal(t, "addon", rows[3][1])
	assert.Equal(t, []string{report.Reference, "discount", "big-family", "Large family discount", "200.00"}, rows[4])
	last := rows[len(rows)-1]
	assert.Equal(t, []string{report.Reference, "summary", "billed", "monthly", "2091.00"}, last)
}

func TestCSVFormatter_VerdictAndDiagnostics(t *testing.T) {
	out, err := CSVFormatter{}.Format(NewEligibilityReport("", buildTestVerdict(true)))
	require.NoError(t, err)
	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "true", rows[1][2])
	assert.Equal(t, "33500.00", rows[1][8])
	assert.Equal(t, "3850.00", rows[1][15])

	out, err = CSVFormatter{}.Format(NewDiagnosticsReport("", buildTestDiagnostics()))
	require.NoError(t, err)
	rows, err = csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "entry_overlap", rows[1][1])
	assert.Equal(t, "loading_overlap", rows[2][1])
	assert.Equal(t, "plan_issue", rows[3][1])
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "KES 1234.50", FormatCurrency("KES", d("1234.5")))
	assert.Equal(t, "10.00", FormatCurrency("", d("10")))
	assert.Equal(t, "12.50%", FormatPercentage(d("12.5")))
}
