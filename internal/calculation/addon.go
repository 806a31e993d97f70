package calculation

import (
	"time"

	"github.com/rgehrsitz/medrate/internal/domain"
	"github.com/shopspring/decimal"
)

// AddonPricer prices addon selections against a rate card's members
type AddonPricer struct {
	Addons []domain.Addon
	Rates  []domain.AddonRate
}

// NewAddonPricer creates an addon pricer over a catalog's addons and rates
func NewAddonPricer(addons []domain.Addon, rates []domain.AddonRate) *AddonPricer {
	return &AddonPricer{Addons: addons, Rates: rates}
}

func (ap *AddonPricer) addonName(addonID string) string {
	for _, a := range ap.Addons {
		if a.ID == addonID {
			return a.Name
		}
	}
	return addonID
}

// usable reports whether r is an active in-window rate of the addon that
// applies to planID, either directly or globally
func usable(r *domain.AddonRate, addonID, planID string, asOf time.Time) bool {
	return r.AddonID == addonID && r.IsActive &&
		domain.InWindow(asOf, r.EffectiveFrom, r.EffectiveTo) &&
		(r.PlanID == "" || r.PlanID == planID)
}

// SelectRate picks the rate for an addon. An explicit rate id wins when it
// is usable for the plan; otherwise an active in-window plan-specific rate
// beats a global one.
func (ap *AddonPricer) SelectRate(sel domain.AddonSelection, planID string, asOf time.Time) (domain.AddonRate, error) {
	if sel.RateID != "" {
		for i := range ap.Rates {
			r := &ap.Rates[i]
			if r.ID == sel.RateID && usable(r, sel.AddonID, planID, asOf) {
				return *r, nil
			}
		}
		return domain.AddonRate{}, domain.NewConfigurationError(domain.CodeAddonRateNotFound,
			"addon %s has no active rate %s for plan %s on %s", sel.AddonID, sel.RateID, planID, asOf.Format("2006-01-02"))
	}

	var global *domain.AddonRate
	for i := range ap.Rates {
		r := &ap.Rates[i]
		if !usable(r, sel.AddonID, planID, asOf) {
			continue
		}
		if r.PlanID == planID {
			return *r, nil
		}
		if r.PlanID == "" && global == nil {
			global = r
		}
	}
	if global != nil {
		return *global, nil
	}
	return domain.AddonRate{}, domain.NewConfigurationError(domain.CodeAddonRateNotFound,
		"addon %s has no active rate for plan %s on %s", sel.AddonID, planID, asOf.Format("2006-01-02"))
}

// Price prices one addon selection. basePremium is the aggregate base the
// percentage pricing type applies to.
func (ap *AddonPricer) Price(sel domain.AddonSelection, planID string, members []domain.Member, basePremium decimal.Decimal, asOf time.Time) (domain.AddonLine, error) {
	line := domain.AddonLine{
		AddonID:     sel.AddonID,
		Name:        ap.addonName(sel.AddonID),
		IsIncluded:  sel.IsIncluded,
		IsMandatory: sel.IsMandatory,
		Amount:      decimal.Zero,
	}
	if sel.IsIncluded {
		return line, nil
	}

	rate, err := ap.SelectRate(sel, planID, asOf)
	if err != nil {
		return line, err
	}
	line.RateID = rate.ID
	line.PricingType = rate.PricingType

	switch rate.PricingType {
	case domain.AddonFixed:
		line.Amount = rate.Amount
	case domain.AddonPerMember:
		line.Amount = rate.Amount.Mul(decimal.NewFromInt(int64(len(members))))
	case domain.AddonPercentage:
		line.Amount = percentOf(basePremium, rate.Percentage)
	case domain.AddonAgeRated:
		total := decimal.Zero
		for i := range members {
			premium, err := ageRatedPremium(rate, &members[i])
			if err != nil {
				return line, err
			}
			total = total.Add(premium)
		}
		line.Amount = total
	default:
		return line, domain.NewConfigurationError(domain.CodeAddonRateNotFound,
			"addon rate %s has unknown pricing type %q", rate.ID, rate.PricingType)
	}
	line.Amount = roundMoney(line.Amount)
	return line, nil
}

// ageRatedPremium prefers a gender-specific band and falls back to an
// age-only band
func ageRatedPremium(rate domain.AddonRate, m *domain.Member) (decimal.Decimal, error) {
	age := m.RatingAge()
	fallback := -1
	for i, e := range rate.Entries {
		if age < e.MinAge || age > e.MaxAge {
			continue
		}
		if e.Gender != "" && e.Gender == m.Gender {
			return e.Premium, nil
		}
		if e.Gender == "" && fallback < 0 {
			fallback = i
		}
	}
	if fallback >= 0 {
		return rate.Entries[fallback].Premium, nil
	}
	return decimal.Zero, domain.NewConfigurationError(domain.CodeAddonRateNotFound,
		"addon rate %s has no band for member %s aged %d", rate.ID, m.ID, age)
}

// PriceAll prices the selected addons plus any mandatory plan addon the
// selection omitted. Included plan addons price at zero.
func (ap *AddonPricer) PriceAll(selections []domain.AddonSelection, links []domain.PlanAddon, planID string, members []domain.Member, basePremium decimal.Decimal, asOf time.Time) ([]domain.AddonLine, decimal.Decimal, error) {
	chosen := make(map[string]bool, len(selections))
	all := make([]domain.AddonSelection, 0, len(selections)+len(links))
	for _, sel := range selections {
		for _, link := range links {
			if link.AddonID == sel.AddonID {
				sel.IsIncluded = sel.IsIncluded || link.IsIncluded
				sel.IsMandatory = sel.IsMandatory || link.IsMandatory
			}
		}
		chosen[sel.AddonID] = true
		all = append(all, sel)
	}
	for _, link := range links {
		if link.IsMandatory && !chosen[link.AddonID] {
			all = append(all, domain.AddonSelection{AddonID: link.AddonID, IsIncluded: link.IsIncluded, IsMandatory: true})
			chosen[link.AddonID] = true
		}
	}

	lines := make([]domain.AddonLine, 0, len(all))
	total := decimal.Zero
	for _, sel := range all {
		line, err := ap.Price(sel, planID, members, basePremium, asOf)
		if err != nil {
			return nil, decimal.Zero, err
		}
		lines = append(lines, line)
		total = total.Add(line.Amount)
	}
	return lines, roundMoney(total), nil
}
