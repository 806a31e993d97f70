package calculation

import (
	"github.com/rgehrsitz/medrate/internal/domain"
	"github.com/shopspring/decimal"
)

// ValidatePromoCode resolves a code and its linked rule. Checks run in
// order: exists, active, started, not expired, uses left, eligible for the
// scheme/plan/group, linked rule present and active.
func (de *DiscountEngine) ValidatePromoCode(code string, promos []domain.PromoCode, rules []domain.DiscountRule, ctx domain.DiscountContext) (*domain.PromoCode, *domain.DiscountRule, error) {
	var promo *domain.PromoCode
	for i := range promos {
		if promos[i].Matches(code) {
			promo = &promos[i]
			break
		}
	}
	switch {
	case promo == nil:
		return nil, nil, domain.NewValidationError(domain.CodePromoNotFound, "promo_code", "promo code %q does not exist", code)
	case !promo.IsActive:
		return nil, nil, domain.NewValidationError(domain.CodePromoInactive, "promo_code", "promo code %q is not active", code)
	case !promo.ValidFrom.IsZero() && ctx.AsOf.Before(promo.ValidFrom):
		return nil, nil, domain.NewValidationError(domain.CodePromoNotStarted, "promo_code",
			"promo code %q is valid from %s", code, promo.ValidFrom.Format("2006-01-02"))
	case promo.ValidTo != nil && !ctx.AsOf.Before(*promo.ValidTo):
		return nil, nil, domain.NewValidationError(domain.CodePromoExpired, "promo_code",
			"promo code %q expired on %s", code, promo.ValidTo.Format("2006-01-02"))
	case promo.MaxUses != nil && promo.UsesCount >= *promo.MaxUses:
		return nil, nil, domain.NewValidationError(domain.CodePromoExhausted, "promo_code", "promo code %q has no uses left", code)
	}

	if !listAllows(promo.EligibleSchemes, ctx.SchemeID) ||
		!listAllows(promo.EligiblePlans, ctx.PlanID) ||
		!listAllows(promo.EligibleGroups, ctx.GroupID) {
		return nil, nil, domain.NewValidationError(domain.CodePromoNotEligible, "promo_code",
			"promo code %q is not valid for plan %s", code, ctx.PlanID)
	}

	var rule *domain.DiscountRule
	for i := range rules {
		if rules[i].ID == promo.DiscountRuleID {
			rule = &rules[i]
			break
		}
	}
	if rule == nil || !rule.IsActive {
		return nil, nil, domain.NewConfigurationError(domain.CodePromoRuleMissing,
			"promo code %s links to missing or inactive rule %q", promo.ID, promo.DiscountRuleID)
	}
	if rule.UsageExhausted() {
		return nil, nil, domain.NewValidationError(domain.CodePromoExhausted, "promo_code",
			"promo code %q: rule %s has reached its usage limit", code, rule.Code)
	}
	return promo, rule, nil
}

func listAllows(list []string, value string) bool {
	if len(list) == 0 {
		return true
	}
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

// ApplyPromoCode validates a code and computes its linked rule's adjustment
// against the current base premium. The redemption carries the usage
// counts the caller persists.
func (de *DiscountEngine) ApplyPromoCode(code string, promos []domain.PromoCode, rules []domain.DiscountRule, ctx domain.DiscountContext, basePremium decimal.Decimal) (*domain.PromoApplication, error) {
	promo, rule, err := de.ValidatePromoCode(code, promos, rules, ctx)
	if err != nil {
		return nil, err
	}

	adj := ruleAdjustment(*rule, basePremium)
	if rule.MaxDiscountAmount != nil && adj.GreaterThan(*rule.MaxDiscountAmount) {
		adj = *rule.MaxDiscountAmount
	}
	after := basePremium.Add(adj)
	if rule.Kind != domain.KindLoading {
		adj = minDecimal(adj, maxDecimal(decimal.Zero, basePremium))
		after = basePremium.Sub(adj)
	}

	de.logger.Debugf("promo %s -> rule %s adjusts base %s by %s", promo.Code, rule.Code, basePremium, adj)
	return &domain.PromoApplication{
		PromoCodeID: promo.ID,
		Code:        promo.Code,
		Amount:      adj,
		Rule: domain.AppliedRule{
			RuleID:        rule.ID,
			Code:          rule.Code,
			Name:          rule.Name,
			Kind:          rule.Kind,
			ValueType:     rule.ValueType,
			Value:         rule.Value,
			AppliesTo:     domain.AppliesToBase,
			Amount:        adj,
			PremiumBefore: basePremium,
			PremiumAfter:  after,
		},
		Redemption: domain.PromoRedemption{
			PromoCodeID:    promo.ID,
			Code:           promo.Code,
			DiscountRuleID: rule.ID,
			UsesCount:      promo.UsesCount + 1,
			RuleUsageCount: rule.UsageCount + 1,
		},
	}, nil
}
