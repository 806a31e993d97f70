package config

import (
	"fmt"
	"os"

	"github.com/rgehrsitz/medrate/internal/calculation"
	"github.com/rgehrsitz/medrate/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// InputParser handles parsing of catalog and request files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

func readYAML(filename string, out any) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// LoadCatalog loads a product catalog from a YAML file and validates it
func (ip *InputParser) LoadCatalog(filename string) (*domain.Catalog, error) {
	var cat domain.Catalog
	if err := readYAML(filename, &cat); err != nil {
		return nil, err
	}
	if err := ip.ValidateCatalog(&cat); err != nil {
		return nil, fmt.Errorf("catalog validation failed: %w", err)
	}
	return &cat, nil
}

// LoadQuoteRequest loads a quote request from a YAML file
func (ip *InputParser) LoadQuoteRequest(filename string) (*domain.QuoteRequest, error) {
	var req domain.QuoteRequest
	if err := readYAML(filename, &req); err != nil {
		return nil, err
	}
	if err := ip.ValidateQuoteRequest(&req); err != nil {
		return nil, fmt.Errorf("quote request validation failed: %w", err)
	}
	return &req, nil
}

// LoadClaimRequest loads a claim-eligibility request from a YAML file
func (ip *InputParser) LoadClaimRequest(filename string) (*domain.ClaimRequest, error) {
	var claim domain.ClaimRequest
	if err := readYAML(filename, &claim); err != nil {
		return nil, err
	}
	if err := ip.ValidateClaimRequest(&claim); err != nil {
		return nil, fmt.Errorf("claim validation failed: %w", err)
	}
	return &claim, nil
}

// ValidateCatalog checks the catalog for configuration gaps the engine
// would otherwise hit mid-computation: dangling references, cyclic
// hierarchies, ambiguous active rate cards and malformed trigger
// expressions.
func (ip *InputParser) ValidateCatalog(cat *domain.Catalog) error {
	plans := make(map[string]bool, len(cat.Plans))
	for i, p := range cat.Plans {
		if p.ID == "" {
			return fmt.Errorf("plan %d: id is required", i)
		}
		if plans[p.ID] {
			return fmt.Errorf("plan %s: duplicate id", p.ID)
		}
		plans[p.ID] = true
	}

	for i := range cat.RateCards {
		if err := ip.validateRateCard(&cat.RateCards[i], plans); err != nil {
			return fmt.Errorf("rate card %s: %w", cat.RateCards[i].ID, err)
		}
	}
	if err := ip.validateActiveCards(cat); err != nil {
		return err
	}

	if err := calculation.BenefitParents(cat.Benefits).Validate("benefit"); err != nil {
		return fmt.Errorf("benefit hierarchy: %w", err)
	}
	if err := calculation.PlanBenefitParents(cat.PlanBenefits).Validate("plan benefit"); err != nil {
		return fmt.Errorf("plan benefit hierarchy: %w", err)
	}
	benefits := make(map[string]bool, len(cat.Benefits))
	for _, b := range cat.Benefits {
		benefits[b.ID] = true
	}
	planBenefits := make(map[string]bool, len(cat.PlanBenefits))
	planOf := make(map[string]string, len(cat.PlanBenefits))
	for _, pb := range cat.PlanBenefits {
		planOf[pb.ID] = pb.PlanID
	}
	for _, pb := range cat.PlanBenefits {
		if parentPlan, ok := planOf[pb.ParentID]; pb.ParentID != "" && (!ok || parentPlan != pb.PlanID) {
			return fmt.Errorf("plan benefit %s: %w", pb.ID,
				domain.NewConfigurationError(domain.CodeUnknownParent, "parent %q is not a plan benefit of plan %s", pb.ParentID, pb.PlanID))
		}
		if !benefits[pb.BenefitID] {
			return fmt.Errorf("plan benefit %s: %w", pb.ID,
				domain.NewConfigurationError(domain.CodeUnknownBenefit, "benefit %q is not in the catalog", pb.BenefitID))
		}
		if !plans[pb.PlanID] {
			return fmt.Errorf("plan benefit %s: %w", pb.ID,
				domain.NewConfigurationError(domain.CodeUnknownPlan, "plan %q is not in the catalog", pb.PlanID))
		}
		planBenefits[pb.ID] = true
	}
	for _, l := range cat.PlanBenefitLimits {
		if !planBenefits[l.PlanBenefitID] {
			return fmt.Errorf("plan benefit limit %s: unknown plan benefit %q", l.ID, l.PlanBenefitID)
		}
		if l.MinAge != nil && l.MaxAge != nil && *l.MinAge > *l.MaxAge {
			return fmt.Errorf("plan benefit limit %s: min age %d is above max age %d", l.ID, *l.MinAge, *l.MaxAge)
		}
	}

	discounts := calculation.NewDiscountEngine()
	rules := make(map[string]bool, len(cat.DiscountRules))
	for i := range cat.DiscountRules {
		r := &cat.DiscountRules[i]
		if err := ip.validateDiscountRule(r, discounts); err != nil {
			return fmt.Errorf("discount rule %s: %w", r.ID, err)
		}
		rules[r.ID] = true
	}
	for _, pc := range cat.PromoCodes {
		if !rules[pc.DiscountRuleID] {
			return fmt.Errorf("promo code %s: %w", pc.Code,
				domain.NewConfigurationError(domain.CodePromoRuleMissing, "linked rule %q is not in the catalog", pc.DiscountRuleID))
		}
	}

	for _, lr := range cat.LoadingRules {
		if lr.MinLoading != nil && lr.MaxLoading != nil && lr.MinLoading.GreaterThan(*lr.MaxLoading) {
			return fmt.Errorf("loading rule %s: min loading %s is above max loading %s", lr.ID, lr.MinLoading, lr.MaxLoading)
		}
		if lr.Duration == domain.DurationTimeLimited && lr.DurationMonths <= 0 {
			return fmt.Errorf("loading rule %s: time-limited loadings need duration_months", lr.ID)
		}
	}
	return nil
}

func (ip *InputParser) validateRateCard(card *domain.RateCard, plans map[string]bool) error {
	if !plans[card.PlanID] {
		return domain.NewConfigurationError(domain.CodeUnknownPlan, "plan %q is not in the catalog", card.PlanID)
	}
	if card.Frequency != "" && card.Frequency.PeriodsPerYear() == 0 {
		return domain.NewConfigurationError(domain.CodeUnsupportedFrequency, "unsupported frequency %q", card.Frequency)
	}
	switch card.PremiumBasis {
	case domain.BasisPerMember, domain.BasisPerFamily:
		if len(card.Entries) == 0 {
			return fmt.Errorf("%s cards need at least one rate entry", card.PremiumBasis)
		}
	case domain.BasisTiered:
		if len(card.Tiers) == 0 {
			return fmt.Errorf("tiered cards need at least one tier")
		}
	default:
		return domain.NewConfigurationError(domain.CodeUnsupportedBasis, "unsupported premium basis %q", card.PremiumBasis)
	}
	for _, e := range card.Entries {
		if e.MinAge > e.MaxAge {
			return fmt.Errorf("entry %s: min age %d is above max age %d", e.ID, e.MinAge, e.MaxAge)
		}
		if e.BasePremium.LessThan(decimal.Zero) {
			return fmt.Errorf("entry %s: base premium cannot be negative", e.ID)
		}
	}
	for _, t := range card.Tiers {
		if t.MaxMembers != nil && *t.MaxMembers < t.MinMembers {
			return fmt.Errorf("tier %s: max members %d is below min members %d", t.ID, *t.MaxMembers, t.MinMembers)
		}
	}
	return nil
}

// validateActiveCards rejects overlapping active windows for one plan so
// quoting never has to choose between two cards
func (ip *InputParser) validateActiveCards(cat *domain.Catalog) error {
	for i := 0; i < len(cat.RateCards); i++ {
		a := &cat.RateCards[i]
		if !a.IsActive {
			continue
		}
		for j := i + 1; j < len(cat.RateCards); j++ {
			b := &cat.RateCards[j]
			if !b.IsActive || a.PlanID != b.PlanID {
				continue
			}
			if windowsOverlap(a, b) {
				return domain.NewConfigurationError(domain.CodeMultipleActiveRateCards,
					"plan %s: rate cards %s and %s are active over overlapping windows", a.PlanID, a.ID, b.ID)
			}
		}
	}
	return nil
}

func windowsOverlap(a, b *domain.RateCard) bool {
	aEndsBeforeB := a.EffectiveTo != nil && !a.EffectiveTo.After(b.EffectiveFrom)
	bEndsBeforeA := b.EffectiveTo != nil && !b.EffectiveTo.After(a.EffectiveFrom)
	return !aEndsBeforeB && !bEndsBeforeA
}

func (ip *InputParser) validateDiscountRule(r *domain.DiscountRule, discounts *calculation.DiscountEngine) error {
	if r.Kind != domain.KindDiscount && r.Kind != domain.KindLoading {
		return fmt.Errorf("unknown kind %q", r.Kind)
	}
	if r.ValueType != domain.ValuePercentage && r.ValueType != domain.ValueFixed {
		return fmt.Errorf("unknown value type %q", r.ValueType)
	}
	if r.Value.IsNegative() {
		return fmt.Errorf("value cannot be negative")
	}
	if r.ValueType == domain.ValuePercentage && r.Value.GreaterThan(decimal.NewFromInt(100)) && r.Kind == domain.KindDiscount {
		return fmt.Errorf("percentage discount %s exceeds 100", r.Value)
	}
	for _, f := range r.Triggers.BillingFrequencies {
		if f.PeriodsPerYear() == 0 {
			return domain.NewConfigurationError(domain.CodeUnsupportedFrequency, "unsupported trigger frequency %q", f)
		}
	}
	if r.Triggers.Expression != "" {
		if err := discounts.CompileTrigger(r.ID, r.Triggers.Expression); err != nil {
			return err
		}
	}
	return nil
}

// ValidateQuoteRequest checks a quote request before it reaches the engine
func (ip *InputParser) ValidateQuoteRequest(req *domain.QuoteRequest) error {
	if req.PlanID == "" {
		return domain.NewValidationError(domain.CodeInvalidMember, "plan_id", "plan id is required")
	}
	if req.BillingFrequency != "" && req.BillingFrequency.PeriodsPerYear() == 0 {
		return domain.NewValidationError(domain.CodeInvalidMember, "billing_frequency", "unsupported billing frequency %q", req.BillingFrequency)
	}
	members := make([]domain.Member, len(req.Members))
	for i := range req.Members {
		members[i] = req.Members[i].Member
	}
	return calculation.ValidateMembers(members)
}

// ValidateClaimRequest checks a claim request before it reaches the engine
func (ip *InputParser) ValidateClaimRequest(claim *domain.ClaimRequest) error {
	if claim.PlanID == "" {
		return domain.NewValidationError(domain.CodeInvalidClaim, "plan_id", "plan id is required")
	}
	if claim.BenefitID == "" {
		return domain.NewValidationError(domain.CodeInvalidClaim, "benefit_id", "benefit id is required")
	}
	if claim.Date.IsZero() {
		return domain.NewValidationError(domain.CodeInvalidClaim, "date", "claim date is required")
	}
	if claim.Member.ID == "" || !claim.Member.Type.Valid() {
		return domain.NewValidationError(domain.CodeInvalidClaim, "member", "member needs an id and a known type")
	}
	return nil
}
