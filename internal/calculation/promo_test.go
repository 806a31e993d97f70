package calculation

import (
	"testing"

	"github.com/rgehrsitz/medrate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscountEngine_ValidatePromoCode(t *testing.T) {
	de := NewDiscountEngine()
	cat := sampleCatalog()
	ctx := domain.DiscountContext{SchemeID: "retail", PlanID: "gold", AsOf: date(2025, 6, 1)}

	tests := []struct {
		name   string
		mutate func(p *domain.PromoCode, r *domain.DiscountRule)
		code   string
		ctx    domain.DiscountContext
		want   string
	}{
		{name: "valid", code: "spring25", ctx: ctx},
		{name: "unknown", code: "WINTER", ctx: ctx, want: domain.CodePromoNotFound},
		{name: "inactive", code: "SPRING25", ctx: ctx, want: domain.CodePromoInactive,
			mutate: func(p *domain.PromoCode, _ *domain.DiscountRule) { p.IsActive = false }},
		{name: "not started", code: "SPRING25", ctx: domain.DiscountContext{PlanID: "gold", AsOf: date(2024, 12, 31)}, want: domain.CodePromoNotStarted},
		{name: "expired", code: "SPRING25", ctx: ctx, want: domain.CodePromoExpired,
			mutate: func(p *domain.PromoCode, _ *domain.DiscountRule) { end := date(2025, 6, 1); p.ValidTo = &end }},
		{name: "exhausted", code: "SPRING25", ctx: ctx, want: domain.CodePromoExhausted,
			mutate: func(p *domain.PromoCode, _ *domain.DiscountRule) { p.UsesCount = 10 }},
		{name: "wrong plan", code: "SPRING25", ctx: ctx, want: domain.CodePromoNotEligible,
			mutate: func(p *domain.PromoCode, _ *domain.DiscountRule) { p.EligiblePlans = []string{"silver"} }},
		{name: "wrong group", code: "SPRING25", ctx: ctx, want: domain.CodePromoNotEligible,
			mutate: func(p *domain.PromoCode, _ *domain.DiscountRule) { p.EligibleGroups = []string{"acme"} }},
		{name: "rule usage exhausted", code: "SPRING25", ctx: ctx, want: domain.CodePromoExhausted,
			mutate: func(_ *domain.PromoCode, r *domain.DiscountRule) { r.UsageLimit = intPtr(1); r.UsageCount = 1 }},
		{name: "rule missing", code: "SPRING25", ctx: ctx, want: domain.CodePromoRuleMissing,
			mutate: func(_ *domain.PromoCode, r *domain.DiscountRule) { r.IsActive = false }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			promos := append([]domain.PromoCode(nil), cat.PromoCodes...)
			rules := append([]domain.DiscountRule(nil), cat.DiscountRules...)
			if tt.mutate != nil {
				tt.mutate(&promos[0], &rules[1])
			}

			promo, rule, err := de.ValidatePromoCode(tt.code, promos, rules, tt.ctx)
			if tt.want == "" {
				require.NoError(t, err)
				assert.Equal(t, "p1", promo.ID)
				assert.Equal(t, "spring", rule.ID)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.want, domain.ErrorCode(err))
		})
	}
}

func TestDiscountEngine_PromoErrorCategories(t *testing.T) {
	de := NewDiscountEngine()
	cat := sampleCatalog()
	ctx := domain.DiscountContext{PlanID: "gold", AsOf: date(2025, 6, 1)}

	_, _, err := de.ValidatePromoCode("NOPE", cat.PromoCodes, cat.DiscountRules, ctx)
	assert.ErrorIs(t, err, domain.ErrValidation)

	cat.PromoCodes[0].DiscountRuleID = "ghost"
	_, _, err = de.ValidatePromoCode("SPRING25", cat.PromoCodes, cat.DiscountRules, ctx)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestDiscountEngine_ApplyPromoCode(t *testing.T) {
	de := NewDiscountEngine()
	cat := sampleCatalog()
	ctx := domain.DiscountContext{SchemeID: "retail", PlanID: "gold", AsOf: date(2025, 6, 1)}

	app, err := de.ApplyPromoCode(" Spring25 ", cat.PromoCodes, cat.DiscountRules, ctx, dec("1500"))
	require.NoError(t, err)
	assert.True(t, dec("100").Equal(app.Amount))
	assert.True(t, dec("1400").Equal(app.Rule.PremiumAfter))
	assert.Equal(t, 4, app.Redemption.UsesCount)
	assert.Equal(t, 1, app.Redemption.RuleUsageCount)
	assert.Equal(t, 3, cat.PromoCodes[0].UsesCount, "the catalog snapshot is not mutated")

	// a fixed promo cannot push the base below zero
	app, err = de.ApplyPromoCode("SPRING25", cat.PromoCodes, cat.DiscountRules, ctx, dec("60"))
	require.NoError(t, err)
	assert.True(t, dec("60").Equal(app.Amount))
}
