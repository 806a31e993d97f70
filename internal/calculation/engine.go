package calculation

import (
	"fmt"

	"github.com/rgehrsitz/medrate/internal/domain"
	"github.com/shopspring/decimal"
)

// Engine orchestrates quoting and eligibility over a catalog snapshot. It
// holds no per-quote state; concurrent calls on different requests are
// independent.
type Engine struct {
	Rates       *RateLookup
	Discounts   *DiscountEngine
	Eligibility *EligibilityEvaluator
	Frequencies FrequencyConverter
	TaxRate     decimal.Decimal // fraction applied to the discounted subtotal
	Logger      Logger
}

// NewEngine creates an engine with no tax
func NewEngine() *Engine {
	return NewEngineWithTaxRate(decimal.Zero)
}

// NewEngineWithTaxRate creates an engine with a flat tax rate, e.g. 0.02
func NewEngineWithTaxRate(taxRate decimal.Decimal) *Engine {
	return &Engine{
		Rates:       NewRateLookup(),
		Discounts:   NewDiscountEngine(),
		Eligibility: NewEligibilityEvaluator(),
		TaxRate:     taxRate,
		Logger:      NopLogger{},
	}
}

// SetLogger sets the logger for the engine and its components. nil
// restores the no-op logger.
func (e *Engine) SetLogger(logger Logger) {
	if logger == nil {
		logger = NopLogger{}
	}
	e.Logger = logger
	e.Discounts.SetLogger(logger)
	e.Eligibility.SetLogger(logger)
}

func (e *Engine) aggregator(cat *domain.Catalog) *PremiumAggregator {
	agg := NewPremiumAggregator(NewAddonPricer(cat.Addons, cat.AddonRates))
	agg.Rates = e.Rates
	agg.Loadings = NewLoadingEngine(cat.LoadingRules)
	agg.Frequencies = e.Frequencies
	agg.SetLogger(e.Logger)
	return agg
}

// ValidateMembers checks that a household is well formed: ids are unique,
// types are known, and every non-principal resolves to exactly one
// principal in the set.
func ValidateMembers(members []domain.Member) error {
	if len(members) == 0 {
		return domain.NewValidationError(domain.CodeInvalidMember, "members", "at least one member is required")
	}
	principals := make(map[string]bool)
	seen := make(map[string]bool, len(members))
	for i, m := range members {
		field := fmt.Sprintf("members[%d]", i)
		if m.ID == "" {
			return domain.NewValidationError(domain.CodeInvalidMember, field+".id", "member id is required")
		}
		if seen[m.ID] {
			return domain.NewValidationError(domain.CodeInvalidMember, field+".id", "duplicate member id %q", m.ID)
		}
		seen[m.ID] = true
		if !m.Type.Valid() {
			return domain.NewValidationError(domain.CodeInvalidMember, field+".type", "unknown member type %q", m.Type)
		}
		if m.Age < 0 || (m.AgeAtInception != nil && *m.AgeAtInception < 0) {
			return domain.NewValidationError(domain.CodeInvalidMember, field+".age", "age cannot be negative")
		}
		if m.IsPrincipal() {
			principals[m.ID] = true
		}
	}
	if len(principals) == 0 {
		return domain.NewValidationError(domain.CodeNoPrincipal, "members", "household has no principal member")
	}
	for _, m := range members {
		if m.IsPrincipal() {
			continue
		}
		if m.PrincipalID == "" && len(principals) == 1 {
			continue
		}
		if !principals[m.PrincipalID] {
			return domain.NewValidationError(domain.CodeUnknownPrincipal, "members.principal_id",
				"member %s references principal %q which is not in the household", m.ID, m.PrincipalID)
		}
	}
	return nil
}

// Quote prices a household against one plan: base, loadings and addons,
// automatic discount and loading rules, an optional promo code, then tax.
func (e *Engine) Quote(cat *domain.Catalog, req domain.QuoteRequest) (*domain.QuoteResult, error) {
	plan, ok := cat.PlanByID(req.PlanID)
	if !ok {
		return nil, domain.NewConfigurationError(domain.CodeUnknownPlan, "plan %q is not in the catalog", req.PlanID)
	}

	agg := e.aggregator(cat)
	members := make([]domain.Member, len(req.Members))
	for i := range req.Members {
		members[i] = agg.Loadings.ApplyExclusionRules(req.Members[i].ToMember())
	}
	if err := ValidateMembers(members); err != nil {
		return nil, err
	}

	card, err := e.Rates.ActiveRateCard(cat.RateCards, plan.ID, req.AsOf)
	if err != nil {
		return nil, err
	}
	e.Logger.Debugf("quote plan=%s card=%s v%d members=%d", plan.ID, card.ID, card.Version, len(members))

	input := AggregateInput{
		PlanID:        plan.ID,
		Card:          card,
		Members:       members,
		Addons:        req.Addons,
		Links:         cat.PlanAddonsFor(plan.ID),
		TaxRate:       e.TaxRate,
		ReferenceDate: req.AsOf,
		AsOf:          req.AsOf,
	}
	pre, err := agg.Aggregate(input)
	if err != nil {
		return nil, err
	}

	billing := req.BillingFrequency
	if billing == "" {
		billing = card.Frequency
	}
	memberCount := len(members)
	ctx := domain.DiscountContext{
		SchemeID:         plan.SchemeID,
		PlanID:           plan.ID,
		GroupID:          req.GroupID,
		GroupSize:        req.GroupSize,
		BillingFrequency: billing,
		LoyaltyYears:     req.LoyaltyYears,
		MemberCount:      &memberCount,
		AsOf:             req.AsOf,
	}

	discounts, err := e.Discounts.ApplicableDiscounts(plan, cat.DiscountRules, ctx)
	if err != nil {
		return nil, err
	}
	loadings, err := e.Discounts.ApplicableLoadings(plan, cat.DiscountRules, ctx)
	if err != nil {
		return nil, err
	}
	application := e.Discounts.ApplyToComponents(PremiumComponents{
		Base:    pre.Base,
		Addon:   pre.Addon,
		Loading: pre.Loading,
	}, append(discounts, loadings...))

	discount := application.TotalDiscount
	ruleLoading := application.TotalLoading

	var promo *domain.PromoApplication
	if req.PromoCode != "" {
		promo, err = e.Discounts.ApplyPromoCode(req.PromoCode, cat.PromoCodes, cat.DiscountRules, ctx, pre.Base)
		if err != nil {
			return nil, err
		}
		if promo.Rule.Kind == domain.KindLoading {
			ruleLoading = ruleLoading.Add(promo.Amount)
		} else {
			discount = discount.Add(promo.Amount)
		}
	}

	input.Discount = discount
	input.RuleLoading = ruleLoading
	breakdown, err := agg.Aggregate(input)
	if err != nil {
		return nil, err
	}

	billed, err := e.Frequencies.Convert(breakdown.Gross, breakdown.Frequency, billing)
	if err != nil {
		return nil, err
	}

	e.Logger.Infof("quoted plan %s: gross %s %s (%s), billed %s %s",
		plan.ID, breakdown.Gross.StringFixed(2), breakdown.Currency, breakdown.Frequency, roundMoney(billed).StringFixed(2), billing)

	return &domain.QuoteResult{
		PlanID:     plan.ID,
		RateCardID: card.ID,
		Breakdown:  *breakdown,
		Discounts:  application,
		Promo:      promo,
		Billed:     roundMoney(billed),
		BilledAs:   billing,
	}, nil
}

// CheckEligibility evaluates a claim against the plan's benefit configuration
func (e *Engine) CheckEligibility(cat *domain.Catalog, claim domain.ClaimRequest) (*domain.EligibilityVerdict, error) {
	if _, ok := cat.PlanByID(claim.PlanID); !ok {
		return nil, domain.NewConfigurationError(domain.CodeUnknownPlan, "plan %q is not in the catalog", claim.PlanID)
	}
	claim.Member = NewLoadingEngine(cat.LoadingRules).ApplyExclusionRules(claim.Member)
	return e.Eligibility.Evaluate(SnapshotFor(cat, claim.PlanID), claim)
}
