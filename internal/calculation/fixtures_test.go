package calculation

import (
	"time"

	"github.com/rgehrsitz/medrate/internal/domain"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func intPtr(i int) *int {
	return &i
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TestLogger is a simple logger for testing
type TestLogger struct {
	messages []string
}

func (tl *TestLogger) Debugf(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "DEBUG: "+format)
}

func (tl *TestLogger) Infof(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "INFO: "+format)
}

func (tl *TestLogger) Warnf(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "WARN: "+format)
}

func (tl *TestLogger) Errorf(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "ERROR: "+format)
}

func perMemberCard() domain.RateCard {
	return domain.RateCard{
		ID:            "rc-gold-2025",
		PlanID:        "gold",
		Version:       1,
		PremiumBasis:  domain.BasisPerMember,
		Currency:      "KES",
		Frequency:     domain.FrequencyMonthly,
		IsActive:      true,
		EffectiveFrom: date(2025, 1, 1),
		MemberTypeFactors: map[domain.MemberType]decimal.Decimal{
			domain.MemberChild: dec("0.5"),
		},
		Entries: []domain.RateEntry{
			{ID: "e-0-17", MinAge: 0, MaxAge: 17, BasePremium: dec("200")},
			{ID: "e-18-39", MinAge: 18, MaxAge: 39, BasePremium: dec("1000")},
			{ID: "e-18-39-f", MinAge: 18, MaxAge: 39, Gender: domain.GenderFemale, BasePremium: dec("1100")},
			{ID: "e-40-64", MinAge: 40, MaxAge: 64, BasePremium: dec("1500")},
		},
	}
}

func tieredCard() domain.RateCard {
	return domain.RateCard{
		ID:            "rc-family",
		PlanID:        "family",
		PremiumBasis:  domain.BasisTiered,
		Currency:      "KES",
		Frequency:     domain.FrequencyMonthly,
		IsActive:      true,
		EffectiveFrom: date(2025, 1, 1),
		Tiers: []domain.RateTier{
			{ID: "t1", Name: "1-2", MinMembers: 1, MaxMembers: intPtr(2), TierPremium: dec("100")},
			{ID: "t2", Name: "3-4", MinMembers: 3, MaxMembers: intPtr(4), TierPremium: dec("150"), ExtraMemberPremium: decPtr("20")},
		},
	}
}

func principal(id string, age int) domain.Member {
	return domain.Member{
		ID:             id,
		Type:           domain.MemberPrincipal,
		Age:            age,
		Gender:         domain.GenderMale,
		CoverStartDate: date(2025, 1, 1),
	}
}

func dependent(id, principalID string, mt domain.MemberType, age int) domain.Member {
	return domain.Member{
		ID:             id,
		PrincipalID:    principalID,
		Type:           mt,
		Age:            age,
		CoverStartDate: date(2025, 1, 1),
	}
}

func sampleCatalog() *domain.Catalog {
	return &domain.Catalog{
		Schemes: []domain.Scheme{{ID: "retail", Name: "Retail"}},
		Plans: []domain.Plan{
			{ID: "gold", SchemeID: "retail", Code: "GOLD", Name: "Gold"},
			{ID: "family", SchemeID: "retail", Code: "FAM", Name: "Family"},
		},
		RateCards: []domain.RateCard{perMemberCard(), tieredCard()},
		Benefits: []domain.Benefit{
			{ID: "inpatient", Code: "IP", Name: "Inpatient", LimitType: domain.LimitAmount, LimitBasis: domain.BasisIndividual, LimitAmount: decPtr("500000"), IsActive: true},
			{ID: "outpatient", Code: "OP", Name: "Outpatient", LimitType: domain.LimitAmount, LimitBasis: domain.BasisIndividual, LimitAmount: decPtr("50000"), WaitingPeriodDays: 30, IsActive: true},
			{ID: "maternity", Code: "MAT", Name: "Maternity", LimitType: domain.LimitAmount, LimitAmount: decPtr("100000"), WaitingPeriodDays: 300,
				ApplicableMemberTypes: []domain.MemberType{domain.MemberPrincipal, domain.MemberSpouse}, IsActive: true},
		},
		PlanBenefits: []domain.PlanBenefit{
			{ID: "gold-ip", PlanID: "gold", BenefitID: "inpatient", IsCovered: true},
			{ID: "gold-op", PlanID: "gold", BenefitID: "outpatient", ParentID: "gold-ip", IsCovered: true, CoinsurancePercent: decPtr("10")},
			{ID: "gold-mat", PlanID: "gold", BenefitID: "maternity", IsCovered: true},
		},
		DiscountRules: []domain.DiscountRule{
			{ID: "annual", Code: "ANNUAL", Name: "Annual billing", Kind: domain.KindDiscount, ValueType: domain.ValuePercentage, Value: dec("5"),
				AppliesTo: domain.AppliesToTotal, Method: domain.MethodAutomatic, IsStackable: true, Priority: 10, IsActive: true,
				Triggers: domain.TriggerRules{BillingFrequencies: []domain.Frequency{domain.FrequencyAnnual}}},
			{ID: "spring", Code: "SPRING", Name: "Spring promo", Kind: domain.KindDiscount, ValueType: domain.ValueFixed, Value: dec("100"),
				AppliesTo: domain.AppliesToBase, Method: domain.MethodPromoCode, IsStackable: true, IsActive: true},
		},
		PromoCodes: []domain.PromoCode{
			{ID: "p1", Code: "SPRING25", DiscountRuleID: "spring", ValidFrom: date(2025, 1, 1), MaxUses: intPtr(10), UsesCount: 3, IsActive: true},
		},
	}
}
