package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PremiumBasis selects how a rate card turns members into a premium
type PremiumBasis string

const (
	BasisPerMember PremiumBasis = "per_member"
	BasisPerFamily PremiumBasis = "per_family"
	BasisTiered    PremiumBasis = "tiered"
)

// Frequency is a billing frequency
type Frequency string

const (
	FrequencyMonthly    Frequency = "monthly"
	FrequencyQuarterly  Frequency = "quarterly"
	FrequencySemiAnnual Frequency = "semi_annual"
	FrequencyAnnual     Frequency = "annual"
)

// AllFrequencies lists the supported billing frequencies, shortest first
func AllFrequencies() []Frequency {
	return []Frequency{FrequencyMonthly, FrequencyQuarterly, FrequencySemiAnnual, FrequencyAnnual}
}

// PeriodsPerYear returns the number of billing periods in a year, or 0 for
// an unknown frequency
func (f Frequency) PeriodsPerYear() int {
	switch f {
	case FrequencyMonthly:
		return 12
	case FrequencyQuarterly:
		return 4
	case FrequencySemiAnnual:
		return 2
	case FrequencyAnnual:
		return 1
	}
	return 0
}

// RateCard is a versioned pricing table for one plan
type RateCard struct {
	ID                string                         `yaml:"id" json:"id"`
	PlanID            string                         `yaml:"plan_id" json:"plan_id"`
	Version           int                            `yaml:"version" json:"version"`
	Name              string                         `yaml:"name" json:"name"`
	PremiumBasis      PremiumBasis                   `yaml:"premium_basis" json:"premium_basis"`
	Currency          string                         `yaml:"currency" json:"currency"`
	Frequency         Frequency                      `yaml:"frequency" json:"frequency"`
	Unisex            bool                           `yaml:"unisex" json:"unisex"` // ignore gender during lookup
	IsActive          bool                           `yaml:"is_active" json:"is_active"`
	EffectiveFrom     time.Time                      `yaml:"effective_from" json:"effective_from"`
	EffectiveTo       *time.Time                     `yaml:"effective_to,omitempty" json:"effective_to,omitempty"`
	MemberTypeFactors map[MemberType]decimal.Decimal `yaml:"member_type_factors,omitempty" json:"member_type_factors,omitempty"`
	Entries           []RateEntry                    `yaml:"entries" json:"entries"`
	Tiers             []RateTier                     `yaml:"tiers,omitempty" json:"tiers,omitempty"`
}

// EffectiveOn reports whether the card is active and its window covers the date
func (rc *RateCard) EffectiveOn(at time.Time) bool {
	if !rc.IsActive {
		return false
	}
	return InWindow(at, rc.EffectiveFrom, rc.EffectiveTo)
}

// FactorFor returns the multiplicative factor for a member type (1 when unset)
func (rc *RateCard) FactorFor(mt MemberType) decimal.Decimal {
	if f, ok := rc.MemberTypeFactors[mt]; ok {
		return f
	}
	return decimal.NewFromInt(1)
}

// RateEntry prices one age band, optionally narrowed by member type, gender
// and region. Blank narrowing fields match anything.
type RateEntry struct {
	ID          string          `yaml:"id" json:"id"`
	MinAge      int             `yaml:"min_age" json:"min_age"`
	MaxAge      int             `yaml:"max_age" json:"max_age"`
	MemberType  MemberType      `yaml:"member_type,omitempty" json:"member_type,omitempty"`
	Gender      Gender          `yaml:"gender,omitempty" json:"gender,omitempty"`
	Region      string          `yaml:"region,omitempty" json:"region,omitempty"`
	BasePremium decimal.Decimal `yaml:"base_premium" json:"base_premium"`
}

// CoversAge reports whether age falls in the inclusive band
func (re *RateEntry) CoversAge(age int) bool {
	return age >= re.MinAge && age <= re.MaxAge
}

// RateTier is a family-size pricing band used by tiered rate cards
type RateTier struct {
	ID                 string           `yaml:"id" json:"id"`
	Name               string           `yaml:"name" json:"name"`
	MinMembers         int              `yaml:"min_members" json:"min_members"`
	MaxMembers         *int             `yaml:"max_members,omitempty" json:"max_members,omitempty"` // nil = unbounded
	TierPremium        decimal.Decimal  `yaml:"tier_premium" json:"tier_premium"`
	ExtraMemberPremium *decimal.Decimal `yaml:"extra_member_premium,omitempty" json:"extra_member_premium,omitempty"`
}

// InWindow reports whether at lies in [from, to). A zero from is open, a nil
// to is open-ended.
func InWindow(at, from time.Time, to *time.Time) bool {
	if !from.IsZero() && at.Before(from) {
		return false
	}
	if to != nil && !at.Before(*to) {
		return false
	}
	return true
}
