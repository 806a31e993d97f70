package calculation

import (
	"time"

	"github.com/rgehrsitz/medrate/internal/domain"
	"github.com/shopspring/decimal"
)

// AggregateInput is one premium computation's snapshot
type AggregateInput struct {
	PlanID   string
	Card     *domain.RateCard
	Members  []domain.Member
	Addons   []domain.AddonSelection
	Links    []domain.PlanAddon // plan addon links: included/mandatory flags
	TaxRate  decimal.Decimal    // fraction, e.g. 0.02
	Discount decimal.Decimal    // currently recorded discount
	// RuleLoading is the recorded increase from loading-typed discount rules
	RuleLoading decimal.Decimal
	// ReferenceDate drives loading expiry. Zero uses each member's cover start.
	ReferenceDate time.Time
	AsOf          time.Time // addon rate selection date
}

// PremiumAggregator combines rate lookups, loadings, addons, discounts and
// tax into a PremiumBreakdown
type PremiumAggregator struct {
	Rates       *RateLookup
	Loadings    *LoadingEngine
	Addons      *AddonPricer
	Frequencies FrequencyConverter
	logger      Logger
}

// NewPremiumAggregator creates an aggregator using the given addon pricer
func NewPremiumAggregator(addons *AddonPricer) *PremiumAggregator {
	if addons == nil {
		addons = NewAddonPricer(nil, nil)
	}
	return &PremiumAggregator{
		Rates:    NewRateLookup(),
		Loadings: NewLoadingEngine(nil),
		Addons:   addons,
		logger:   NopLogger{},
	}
}

// SetLogger sets the logger used for debug tracing
func (pa *PremiumAggregator) SetLogger(l Logger) {
	if l == nil {
		l = NopLogger{}
	}
	pa.logger = l
}

// Aggregate computes the premium breakdown for a snapshot. The result is
// expressed in the rate card's frequency.
func (pa *PremiumAggregator) Aggregate(in AggregateInput) (*domain.PremiumBreakdown, error) {
	card := in.Card
	if card == nil {
		return nil, domain.NewConfigurationError(domain.CodeNoRateCard, "plan %s has no rate card", in.PlanID)
	}
	if len(in.Members) == 0 {
		return nil, domain.NewValidationError(domain.CodeInvalidMember, "members", "at least one member is required")
	}

	lines, tier, err := pa.memberBases(card, in.Members)
	if err != nil {
		return nil, err
	}

	base := decimal.Zero
	loading := decimal.Zero
	for i := range lines {
		m := &in.Members[i]
		ref := in.ReferenceDate
		if ref.IsZero() {
			ref = m.CoverStartDate
		}
		basis := lines[i].Base
		if card.PremiumBasis == domain.BasisTiered {
			basis = roundMoney(tier.Total.Div(decimal.NewFromInt(int64(len(in.Members)))))
		} else if card.PremiumBasis == domain.BasisPerFamily && !m.IsPrincipal() {
			basis = pa.familyBasis(lines, in.Members, m)
		}
		lines[i].Loading = roundMoney(pa.Loadings.MemberLoading(m.Loadings, basis, ref))
		lines[i].Total = roundMoney(lines[i].Base.Add(lines[i].Loading))
		base = base.Add(lines[i].Base)
		loading = loading.Add(lines[i].Loading)
	}
	if tier != nil {
		base = tier.Total
	}
	base = roundMoney(base)
	loading = roundMoney(loading)

	addonLines, addonTotal, err := pa.Addons.PriceAll(in.Addons, in.Links, in.PlanID, in.Members, base, in.AsOf)
	if err != nil {
		return nil, err
	}

	discount := roundMoney(in.Discount)
	ruleLoading := roundMoney(in.RuleLoading)
	subtotal := roundMoney(base.Add(loading).Add(addonTotal).Add(ruleLoading).Sub(discount))
	if subtotal.IsNegative() {
		subtotal = decimal.Zero
	}
	tax := roundMoney(subtotal.Mul(in.TaxRate))
	gross := roundMoney(subtotal.Add(tax))

	pa.logger.Debugf("aggregate plan=%s card=%s basis=%s base=%s loading=%s addon=%s discount=%s ruleLoading=%s tax=%s gross=%s",
		in.PlanID, card.ID, card.PremiumBasis, base, loading, addonTotal, discount, ruleLoading, tax, gross)

	breakdown := &domain.PremiumBreakdown{
		Currency:    card.Currency,
		Frequency:   card.Frequency,
		Basis:       card.PremiumBasis,
		Base:        base,
		Addon:       addonTotal,
		Loading:     loading,
		RuleLoading: ruleLoading,
		Discount:    discount,
		Subtotal:    subtotal,
		TaxRate:     in.TaxRate,
		Tax:         tax,
		Gross:       gross,
		PerMember:   lines,
		PerAddon:    addonLines,
		Tier:        tier,
	}
	if err := pa.periodize(breakdown); err != nil {
		return nil, err
	}
	return breakdown, nil
}

// memberBases resolves each member's base premium line. per_family cards
// price principals only; tiered cards price the household and list members
// at zero.
func (pa *PremiumAggregator) memberBases(card *domain.RateCard, members []domain.Member) ([]domain.MemberLine, *domain.TierLine, error) {
	lines := make([]domain.MemberLine, len(members))
	for i := range members {
		m := &members[i]
		lines[i] = domain.MemberLine{
			MemberID:   m.ID,
			MemberType: m.Type,
			RatingAge:  m.RatingAge(),
			Factor:     card.FactorFor(m.Type),
			Base:       decimal.Zero,
		}
	}

	switch card.PremiumBasis {
	case domain.BasisTiered:
		tier, err := pa.Rates.LookupTier(card.Tiers, len(members))
		if err != nil {
			return nil, nil, err
		}
		return lines, &tier, nil
	case domain.BasisPerMember, domain.BasisPerFamily, "":
		for i := range members {
			m := &members[i]
			if card.PremiumBasis == domain.BasisPerFamily && !m.IsPrincipal() {
				continue
			}
			entry, err := pa.Rates.Lookup(card, lines[i].RatingAge, m.Type, m.Gender, m.Region)
			if err != nil {
				return nil, nil, err
			}
			lines[i].RateEntryID = entry.ID
			lines[i].Base = roundMoney(entry.BasePremium.Mul(lines[i].Factor))
		}
		return lines, nil, nil
	}
	return nil, nil, domain.NewConfigurationError(domain.CodeUnsupportedBasis,
		"rate card %s has unsupported premium basis %q", card.ID, card.PremiumBasis)
}

// familyBasis is the premium a per_family dependent's loadings price
// against: their principal's base, or the whole family base when the
// principal is not in the snapshot.
func (pa *PremiumAggregator) familyBasis(lines []domain.MemberLine, members []domain.Member, m *domain.Member) decimal.Decimal {
	total := decimal.Zero
	for i := range members {
		if members[i].ID == m.PrincipalID {
			return lines[i].Base
		}
		total = total.Add(lines[i].Base)
	}
	return total
}

func (pa *PremiumAggregator) periodize(b *domain.PremiumBreakdown) error {
	if b.Frequency == "" {
		b.Frequency = domain.FrequencyMonthly
	}
	annual, err := pa.Frequencies.Annualize(b.Gross, b.Frequency)
	if err != nil {
		return err
	}
	b.Annualized = roundMoney(annual)
	b.Periodized = make(map[domain.Frequency]decimal.Decimal, 4)
	for _, f := range domain.AllFrequencies() {
		p, err := pa.Frequencies.Periodize(annual, f)
		if err != nil {
			return err
		}
		b.Periodized[f] = roundMoney(p)
	}
	return nil
}
