package calculation

import (
	"testing"

	"github.com/rgehrsitz/medrate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func household() []domain.Member {
	spouse := dependent("s1", "p1", domain.MemberSpouse, 33)
	spouse.Gender = domain.GenderFemale
	return []domain.Member{
		principal("p1", 35),
		spouse,
		dependent("c1", "p1", domain.MemberChild, 6),
	}
}

func TestPremiumAggregator_PerMember(t *testing.T) {
	agg := NewPremiumAggregator(nil)
	card := perMemberCard()

	b, err := agg.Aggregate(AggregateInput{
		PlanID:  "gold",
		Card:    &card,
		Members: household(),
		TaxRate: dec("0.02"),
	})
	require.NoError(t, err)

	// 1000 + 1100 + 200*0.5
	assert.True(t, dec("2200").Equal(b.Base), "base %s", b.Base)
	assert.True(t, dec("2200").Equal(b.Subtotal))
	assert.True(t, dec("44").Equal(b.Tax))
	assert.True(t, dec("2244").Equal(b.Gross))
	assert.True(t, dec("26928").Equal(b.Annualized))
	assert.True(t, dec("6732").Equal(b.Periodized[domain.FrequencyQuarterly]))
	assert.True(t, dec("2244").Equal(b.Periodized[domain.FrequencyMonthly]))

	require.Len(t, b.PerMember, 3)
	assert.Equal(t, "e-18-39-f", b.PerMember[1].RateEntryID)
	assert.True(t, dec("100").Equal(b.PerMember[2].Base))
	assert.True(t, dec("0.5").Equal(b.PerMember[2].Factor))
}

func TestPremiumAggregator_Deterministic(t *testing.T) {
	agg := NewPremiumAggregator(nil)
	card := perMemberCard()
	members := household()
	members[0].Loadings = []domain.LoadingRecord{
		{ID: "l1", LoadingType: domain.LoadingPercentage, Value: dec("12.5"), StartDate: date(2025, 1, 1), Duration: domain.DurationPermanent},
	}
	in := AggregateInput{PlanID: "gold", Card: &card, Members: members, TaxRate: dec("0.016"), Discount: dec("33.33")}

	first, err := agg.Aggregate(in)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := agg.Aggregate(in)
		require.NoError(t, err)
		assert.Equal(t, first.Gross.String(), again.Gross.String())
		assert.Equal(t, first.Tax.String(), again.Tax.String())
		assert.Equal(t, first.PerMember, again.PerMember)
	}
}

func TestPremiumAggregator_LoadingsAndDiscounts(t *testing.T) {
	agg := NewPremiumAggregator(nil)
	card := perMemberCard()
	members := household()
	members[0].Loadings = []domain.LoadingRecord{
		{ID: "live", LoadingType: domain.LoadingPercentage, Value: dec("20"), StartDate: date(2025, 1, 1), Duration: domain.DurationPermanent},
		{ID: "expired", LoadingType: domain.LoadingFixed, Value: dec("500"), StartDate: date(2024, 11, 1),
			Duration: domain.DurationTimeLimited, DurationMonths: 6},
	}

	b, err := agg.Aggregate(AggregateInput{
		PlanID:        "gold",
		Card:          &card,
		Members:       members,
		Discount:      dec("150"),
		RuleLoading:   dec("25"),
		ReferenceDate: date(2025, 6, 1),
	})
	require.NoError(t, err)
	assert.True(t, dec("200").Equal(b.Loading), "only the live loading counts, got %s", b.Loading)
	assert.True(t, dec("200").Equal(b.PerMember[0].Loading))
	assert.True(t, dec("1200").Equal(b.PerMember[0].Total))
	// 2200 + 200 + 25 - 150
	assert.True(t, dec("2275").Equal(b.Subtotal), "got %s", b.Subtotal)
	assert.True(t, b.Tax.IsZero())
}

func TestPremiumAggregator_SubtotalFloor(t *testing.T) {
	agg := NewPremiumAggregator(nil)
	card := perMemberCard()

	b, err := agg.Aggregate(AggregateInput{PlanID: "gold", Card: &card, Members: household()[:1], Discount: dec("5000"), TaxRate: dec("0.1")})
	require.NoError(t, err)
	assert.True(t, b.Subtotal.IsZero())
	assert.True(t, b.Gross.IsZero())
}

func TestPremiumAggregator_PerFamily(t *testing.T) {
	agg := NewPremiumAggregator(nil)
	card := perMemberCard()
	card.PremiumBasis = domain.BasisPerFamily
	members := household()
	members[2].Loadings = []domain.LoadingRecord{
		{ID: "child-load", LoadingType: domain.LoadingPercentage, Value: dec("10"), StartDate: date(2025, 1, 1), Duration: domain.DurationPermanent},
	}

	b, err := agg.Aggregate(AggregateInput{PlanID: "gold", Card: &card, Members: members})
	require.NoError(t, err)
	assert.True(t, dec("1000").Equal(b.Base), "principal only, got %s", b.Base)
	assert.True(t, b.PerMember[1].Base.IsZero())
	assert.True(t, dec("100").Equal(b.PerMember[2].Loading), "dependent loading prices against the family premium")
}

func TestPremiumAggregator_Tiered(t *testing.T) {
	agg := NewPremiumAggregator(nil)
	card := tieredCard()
	members := append(household(), dependent("c2", "p1", domain.MemberChild, 4), dependent("c3", "p1", domain.MemberChild, 2))

	b, err := agg.Aggregate(AggregateInput{PlanID: "family", Card: &card, Members: members})
	require.NoError(t, err)
	require.NotNil(t, b.Tier)
	assert.True(t, dec("170").Equal(b.Base), "got %s", b.Base)
	assert.Equal(t, 1, b.Tier.ExtraMembers)
	for _, line := range b.PerMember {
		assert.True(t, line.Base.IsZero())
	}
}

func TestPremiumAggregator_Errors(t *testing.T) {
	agg := NewPremiumAggregator(nil)
	card := perMemberCard()

	_, err := agg.Aggregate(AggregateInput{PlanID: "gold", Members: household()})
	assert.Equal(t, domain.CodeNoRateCard, domain.ErrorCode(err))

	_, err = agg.Aggregate(AggregateInput{PlanID: "gold", Card: &card})
	assert.ErrorIs(t, err, domain.ErrValidation)

	old := principal("p1", 80)
	_, err = agg.Aggregate(AggregateInput{PlanID: "gold", Card: &card, Members: []domain.Member{old}})
	assert.Equal(t, domain.CodeRateNotFound, domain.ErrorCode(err), "a missing rate is never priced at zero")

	card.PremiumBasis = "per_household"
	_, err = agg.Aggregate(AggregateInput{PlanID: "gold", Card: &card, Members: household()})
	assert.Equal(t, domain.CodeUnsupportedBasis, domain.ErrorCode(err))
}

func TestPremiumAggregator_AgeAtInception(t *testing.T) {
	agg := NewPremiumAggregator(nil)
	card := perMemberCard()
	m := principal("p1", 45)
	m.AgeAtInception = intPtr(39)

	b, err := agg.Aggregate(AggregateInput{PlanID: "gold", Card: &card, Members: []domain.Member{m}})
	require.NoError(t, err)
	assert.Equal(t, 39, b.PerMember[0].RatingAge)
	assert.True(t, dec("1000").Equal(b.Base))
}
