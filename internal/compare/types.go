package compare

import (
	"fmt"

	"github.com/rgehrsitz/medrate/internal/domain"
	"github.com/shopspring/decimal"
)

// PlanResult is one plan's quote reduced to comparable metrics. Amounts
// are annualized so plans with different card frequencies line up.
type PlanResult struct {
	PlanID     string              `json:"planId"`
	PlanName   string              `json:"planName"`
	RateCardID string              `json:"rateCardId"`
	Currency   string              `json:"currency"`
	Quote      *domain.QuoteResult `json:"-"`

	// Key Metrics
	AnnualGross    decimal.Decimal  `json:"annualGross"`
	AnnualDiscount decimal.Decimal  `json:"annualDiscount"`
	AnnualAddons   decimal.Decimal  `json:"annualAddons"`
	Billed         decimal.Decimal  `json:"billed"`
	BilledAs       domain.Frequency `json:"billedAs"`
	PromoDropped   string           `json:"promoDropped,omitempty"` // promo error code when the plan was priced without it

	// Comparison to Base
	DiffFromBase decimal.Decimal `json:"diffFromBase"`
	PctFromBase  decimal.Decimal `json:"pctFromBase"`
}

// ComparisonSet is a household priced against a base plan and alternatives
type ComparisonSet struct {
	BasePlanID         string       `json:"basePlanId"`
	BaseResult         *PlanResult  `json:"baseResult"`
	AlternativeResults []PlanResult `json:"alternativeResults"`
	Recommendations    []string     `json:"recommendations"`
	CatalogPath        string       `json:"catalogPath,omitempty"`
}

// All returns the base result followed by the alternatives
func (cs *ComparisonSet) All() []PlanResult {
	out := make([]PlanResult, 0, len(cs.AlternativeResults)+1)
	if cs.BaseResult != nil {
		out = append(out, *cs.BaseResult)
	}
	return append(out, cs.AlternativeResults...)
}

// Cheapest returns the plan with the lowest annual gross; ties keep the
// earlier plan, base first
func (cs *ComparisonSet) Cheapest() *PlanResult {
	all := cs.All()
	if len(all) == 0 {
		return nil
	}
	best := all[0]
	for _, r := range all[1:] {
		if r.AnnualGross.LessThan(best.AnnualGross) {
			best = r
		}
	}
	return &best
}

// MetricsCalculator extracts comparable metrics from quotes
type MetricsCalculator struct {
	annual domain.Frequency
}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{annual: domain.FrequencyAnnual}
}

// CalculateMetrics reduces a quote to a PlanResult
func (mc *MetricsCalculator) CalculateMetrics(plan domain.Plan, q *domain.QuoteResult) (PlanResult, error) {
	b := q.Breakdown
	periods := b.Frequency.PeriodsPerYear()
	if periods == 0 {
		return PlanResult{}, domain.NewConfigurationError(domain.CodeUnsupportedFrequency,
			"plan %s: unsupported frequency %q", plan.ID, b.Frequency)
	}
	perYear := decimal.NewFromInt(int64(periods))

	return PlanResult{
		PlanID:         plan.ID,
		PlanName:       plan.Name,
		RateCardID:     q.RateCardID,
		Currency:       b.Currency,
		Quote:          q,
		AnnualGross:    b.Annualized,
		AnnualDiscount: b.Discount.Mul(perYear).Round(2),
		AnnualAddons:   b.Addon.Mul(perYear).Round(2),
		Billed:         q.Billed,
		BilledAs:       q.BilledAs,
	}, nil
}

// CalculateComparison fills in the difference from the base plan
func (mc *MetricsCalculator) CalculateComparison(plan, base PlanResult) PlanResult {
	plan.DiffFromBase = plan.AnnualGross.Sub(base.AnnualGross)

	if !base.AnnualGross.IsZero() {
		plan.PctFromBase = plan.DiffFromBase.
			Div(base.AnnualGross).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}
	return plan
}

// GenerateRecommendations creates recommendations based on comparison results
func GenerateRecommendations(compSet *ComparisonSet) []string {
	recommendations := []string{}

	if compSet.BaseResult == nil || len(compSet.AlternativeResults) == 0 {
		return recommendations
	}
	base := compSet.BaseResult

	cheapest := compSet.Cheapest()
	if cheapest.PlanID == base.PlanID {
		recommendations = append(recommendations,
			fmt.Sprintf("Lowest Premium: base plan %s is the cheapest of %d plans", base.PlanID, len(compSet.All())))
	} else {
		savings := base.AnnualGross.Sub(cheapest.AnnualGross)
		recommendations = append(recommendations,
			fmt.Sprintf("Lowest Premium: %s saves %s %s a year over %s",
				cheapest.PlanID, cheapest.Currency, savings.StringFixed(2), base.PlanID))
	}

	mostDiscount := *base
	for _, alt := range compSet.AlternativeResults {
		if alt.AnnualDiscount.GreaterThan(mostDiscount.AnnualDiscount) {
			mostDiscount = alt
		}
	}
	if mostDiscount.PlanID != base.PlanID {
		recommendations = append(recommendations,
			fmt.Sprintf("Largest Discount: %s applies %s %s a year in discounts",
				mostDiscount.PlanID, mostDiscount.Currency, mostDiscount.AnnualDiscount.StringFixed(2)))
	}

	for _, r := range compSet.All() {
		if r.PromoDropped != "" {
			recommendations = append(recommendations,
				fmt.Sprintf("Promo Not Applied: %s was priced without the promo code (%s)", r.PlanID, r.PromoDropped))
		}
	}

	return recommendations
}
