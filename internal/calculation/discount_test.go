package calculation

import (
	"sync"
	"testing"

	"github.com/rgehrsitz/medrate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stackRule(id string, vt domain.ValueType, value string, priority int) domain.DiscountRule {
	return domain.DiscountRule{
		ID:          id,
		Code:        id,
		Kind:        domain.KindDiscount,
		ValueType:   vt,
		Value:       dec(value),
		AppliesTo:   domain.AppliesToTotal,
		Method:      domain.MethodAutomatic,
		IsStackable: true,
		Priority:    priority,
		IsActive:    true,
	}
}

func TestDiscountEngine_StackingOrder(t *testing.T) {
	de := NewDiscountEngine()
	pct := stackRule("pct10", domain.ValuePercentage, "10", 20)
	fixed := stackRule("fixed50", domain.ValueFixed, "50", 10)

	// insertion order is reversed on purpose; priority decides
	app := de.ApplyDiscounts(dec("1000"), []domain.DiscountRule{fixed, pct})
	require.Len(t, app.AppliedRules, 2)
	assert.Equal(t, "pct10", app.AppliedRules[0].RuleID)
	assert.True(t, dec("900").Equal(app.AppliedRules[0].PremiumAfter))
	assert.True(t, dec("850").Equal(app.AppliedRules[1].PremiumAfter))
	assert.True(t, dec("850").Equal(app.FinalPremium))
	assert.True(t, dec("150").Equal(app.TotalDiscount))

	// reversing priority changes the intermediate
	pct.Priority, fixed.Priority = 10, 20
	app = de.ApplyDiscounts(dec("1000"), []domain.DiscountRule{pct, fixed})
	assert.Equal(t, "fixed50", app.AppliedRules[0].RuleID)
	assert.True(t, dec("950").Equal(app.AppliedRules[0].PremiumAfter))
	assert.True(t, dec("855").Equal(app.FinalPremium))
}

func TestDiscountEngine_NonStackableSkipped(t *testing.T) {
	de := NewDiscountEngine()
	first := stackRule("first", domain.ValuePercentage, "10", 20)
	exclusive := stackRule("exclusive", domain.ValuePercentage, "20", 10)
	exclusive.IsStackable = false

	app := de.ApplyDiscounts(dec("1000"), []domain.DiscountRule{first, exclusive})
	require.Len(t, app.AppliedRules, 1)
	require.Len(t, app.SkippedRules, 1)
	assert.Equal(t, "exclusive", app.SkippedRules[0].RuleID)
	assert.True(t, dec("900").Equal(app.FinalPremium))

	// a non-stackable rule applied first does not block later stackable ones
	exclusive.Priority = 30
	app = de.ApplyDiscounts(dec("1000"), []domain.DiscountRule{first, exclusive})
	assert.Len(t, app.AppliedRules, 2)
	assert.True(t, dec("720").Equal(app.FinalPremium))
}

func TestDiscountEngine_FloorAtZero(t *testing.T) {
	de := NewDiscountEngine()
	app := de.ApplyDiscounts(dec("40"), []domain.DiscountRule{stackRule("big", domain.ValueFixed, "100", 1)})
	assert.True(t, app.FinalPremium.IsZero())
	assert.True(t, dec("40").Equal(app.TotalDiscount))
}

func TestDiscountEngine_Caps(t *testing.T) {
	de := NewDiscountEngine()

	capped := stackRule("capped", domain.ValuePercentage, "50", 20)
	capped.MaxDiscountAmount = decPtr("100")
	app := de.ApplyDiscounts(dec("1000"), []domain.DiscountRule{capped})
	assert.True(t, dec("900").Equal(app.FinalPremium))

	a := stackRule("a", domain.ValuePercentage, "10", 20)
	b := stackRule("b", domain.ValuePercentage, "10", 10)
	b.MaxTotalDiscount = decPtr("15")
	app = de.ApplyDiscounts(dec("1000"), []domain.DiscountRule{a, b})
	assert.True(t, dec("150").Equal(app.TotalDiscount), "total discount capped at 15%% of 1000, got %s", app.TotalDiscount)

	c := stackRule("c", domain.ValueFixed, "10", 5)
	c.MaxTotalDiscount = decPtr("15")
	app = de.ApplyDiscounts(dec("1000"), []domain.DiscountRule{a, b, c})
	require.Len(t, app.SkippedRules, 1)
	assert.Equal(t, "c", app.SkippedRules[0].RuleID)
}

func TestDiscountEngine_LoadingRulesIncrease(t *testing.T) {
	de := NewDiscountEngine()
	disc := stackRule("disc", domain.ValuePercentage, "10", 20)
	load := stackRule("load", domain.ValuePercentage, "10", 10)
	load.Kind = domain.KindLoading

	app := de.ApplyDiscounts(dec("1000"), []domain.DiscountRule{disc, load})
	assert.True(t, dec("990").Equal(app.FinalPremium), "1000 -> 900 -> 990, got %s", app.FinalPremium)
	assert.True(t, dec("100").Equal(app.TotalDiscount))
	assert.True(t, dec("90").Equal(app.TotalLoading))
}

func TestDiscountEngine_LoadingDoesNotBlockNonStackableDiscount(t *testing.T) {
	de := NewDiscountEngine()
	load := stackRule("load", domain.ValuePercentage, "10", 20)
	load.Kind = domain.KindLoading
	group := stackRule("GRP", domain.ValuePercentage, "10", 10)
	group.IsStackable = false

	app := de.ApplyDiscounts(dec("1000"), []domain.DiscountRule{load, group})
	require.Len(t, app.AppliedRules, 2)
	assert.Empty(t, app.SkippedRules)
	assert.True(t, dec("100").Equal(app.TotalLoading))
	assert.True(t, dec("110").Equal(app.TotalDiscount), "10%% of 1100, got %s", app.TotalDiscount)
	assert.True(t, dec("990").Equal(app.FinalPremium))

	// a non-stackable loading is not blocked by an earlier discount either
	disc := stackRule("disc", domain.ValuePercentage, "10", 30)
	load.IsStackable = false
	app = de.ApplyDiscounts(dec("1000"), []domain.DiscountRule{disc, load})
	require.Len(t, app.AppliedRules, 2)
	assert.Empty(t, app.SkippedRules)

	// a second non-stackable discount is still skipped
	other := stackRule("other", domain.ValuePercentage, "5", 5)
	other.IsStackable = false
	app = de.ApplyDiscounts(dec("1000"), []domain.DiscountRule{load, group, other})
	require.Len(t, app.SkippedRules, 1)
	assert.Equal(t, "other", app.SkippedRules[0].RuleID)
}

func TestDiscountEngine_ApplyToComponents(t *testing.T) {
	de := NewDiscountEngine()
	base := stackRule("base10", domain.ValuePercentage, "10", 20)
	base.AppliesTo = domain.AppliesToBase
	addon := stackRule("addon50", domain.ValuePercentage, "50", 10)
	addon.AppliesTo = domain.AppliesToAddon

	app := de.ApplyToComponents(PremiumComponents{Base: dec("1000"), Addon: dec("200"), Loading: dec("100")}, []domain.DiscountRule{base, addon})
	require.Len(t, app.AppliedRules, 2)
	assert.Equal(t, domain.AppliesToBase, app.AppliedRules[0].AppliesTo)
	assert.True(t, dec("100").Equal(app.AppliedRules[0].Amount))
	assert.True(t, dec("100").Equal(app.AppliedRules[1].Amount))
	assert.True(t, dec("1100").Equal(app.FinalPremium), "1300 - 100 - 100, got %s", app.FinalPremium)
}

func TestDiscountEngine_ApplicableDiscounts(t *testing.T) {
	de := NewDiscountEngine()
	plan := domain.Plan{ID: "gold", SchemeID: "retail"}
	asOf := date(2025, 6, 1)

	group := stackRule("group", domain.ValuePercentage, "5", 5)
	group.Triggers.GroupSizeMin = intPtr(10)
	loyal := stackRule("loyal", domain.ValuePercentage, "3", 15)
	loyal.Triggers.LoyaltyYearsMin = intPtr(2)
	other := stackRule("other-plan", domain.ValuePercentage, "5", 50)
	other.PlanID = "silver"
	expired := stackRule("expired", domain.ValuePercentage, "5", 50)
	expired.EffectiveTo = &asOf
	manual := stackRule("manual", domain.ValuePercentage, "5", 50)
	manual.Method = domain.MethodManual
	used := stackRule("used", domain.ValuePercentage, "5", 50)
	used.UsageLimit, used.UsageCount = intPtr(5), 5
	load := stackRule("load", domain.ValuePercentage, "5", 50)
	load.Kind = domain.KindLoading

	rules := []domain.DiscountRule{group, loyal, other, expired, manual, used, load}
	ctx := domain.DiscountContext{SchemeID: "retail", PlanID: "gold", GroupSize: intPtr(12), LoyaltyYears: intPtr(3), AsOf: asOf}

	got, err := de.ApplicableDiscounts(plan, rules, ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "loyal", got[0].ID, "sorted by priority descending")
	assert.Equal(t, "group", got[1].ID)

	ctx.GroupSize = nil
	got, err = de.ApplicableDiscounts(plan, rules, ctx)
	require.NoError(t, err)
	require.Len(t, got, 1, "a set predicate fails when the fact is missing")

	loadings, err := de.ApplicableLoadings(plan, rules, ctx)
	require.NoError(t, err)
	require.Len(t, loadings, 1)
	assert.Equal(t, "load", loadings[0].ID)
}

func TestDiscountEngine_BillingFrequencyTrigger(t *testing.T) {
	de := NewDiscountEngine()
	r := stackRule("annual", domain.ValuePercentage, "5", 1)
	r.Triggers.BillingFrequencies = []domain.Frequency{domain.FrequencyAnnual, domain.FrequencySemiAnnual}

	ok, err := de.TriggersMatch(&r, domain.DiscountContext{BillingFrequency: domain.FrequencyAnnual})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = de.TriggersMatch(&r, domain.DiscountContext{BillingFrequency: domain.FrequencyMonthly})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDiscountEngine_ExpressionTrigger(t *testing.T) {
	de := NewDiscountEngine()
	r := stackRule("family", domain.ValuePercentage, "5", 1)
	r.Triggers.Expression = `member_count >= 4 && billing_frequency != "monthly"`

	tests := []struct {
		name    string
		members int
		freq    domain.Frequency
		want    bool
	}{
		{"large annual", 4, domain.FrequencyAnnual, true},
		{"large monthly", 5, domain.FrequencyMonthly, false},
		{"small annual", 3, domain.FrequencyAnnual, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := de.TriggersMatch(&r, domain.DiscountContext{MemberCount: intPtr(tt.members), BillingFrequency: tt.freq})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
	assert.Len(t, de.programs, 1, "expression compiled once")
}

func TestDiscountEngine_InvalidExpression(t *testing.T) {
	de := NewDiscountEngine()

	err := de.CompileTrigger("bad", "member_count >=")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Equal(t, domain.CodeInvalidTriggerExpression, domain.ErrorCode(err))

	err = de.CompileTrigger("not-bool", "member_count + 1")
	assert.Equal(t, domain.CodeInvalidTriggerExpression, domain.ErrorCode(err))

	err = de.CompileTrigger("unknown-var", "age > 3")
	assert.Error(t, err)

	assert.NoError(t, de.CompileTrigger("ok", `scheme_id == "retail"`))
}

func TestDiscountEngine_ConcurrentTriggers(t *testing.T) {
	de := NewDiscountEngine()
	r := stackRule("loyal", domain.ValuePercentage, "5", 1)
	r.Triggers.Expression = "loyalty_years > 1"

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(years int) {
			defer wg.Done()
			ok, err := de.TriggersMatch(&r, domain.DiscountContext{LoyaltyYears: intPtr(years)})
			assert.NoError(t, err)
			assert.Equal(t, years > 1, ok)
		}(i % 4)
	}
	wg.Wait()
}
