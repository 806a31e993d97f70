package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddonPricingType is how an addon rate is priced
type AddonPricingType string

const (
	AddonFixed      AddonPricingType = "fixed"
	AddonPerMember  AddonPricingType = "per_member"
	AddonPercentage AddonPricingType = "percentage"
	AddonAgeRated   AddonPricingType = "age_rated"
)

// Addon is an optional or mandatory coverage extension
type Addon struct {
	ID       string `yaml:"id" json:"id"`
	Code     string `yaml:"code" json:"code"`
	Name     string `yaml:"name" json:"name"`
	IsActive bool   `yaml:"is_active" json:"is_active"`
}

// AddonRate prices an addon, for one plan or globally when PlanID is blank
type AddonRate struct {
	ID            string           `yaml:"id" json:"id"`
	AddonID       string           `yaml:"addon_id" json:"addon_id"`
	PlanID        string           `yaml:"plan_id,omitempty" json:"plan_id,omitempty"`
	PricingType   AddonPricingType `yaml:"pricing_type" json:"pricing_type"`
	Amount        decimal.Decimal  `yaml:"amount" json:"amount"`
	Percentage    decimal.Decimal  `yaml:"percentage" json:"percentage"`
	IsActive      bool             `yaml:"is_active" json:"is_active"`
	EffectiveFrom time.Time        `yaml:"effective_from" json:"effective_from"`
	EffectiveTo   *time.Time       `yaml:"effective_to,omitempty" json:"effective_to,omitempty"`
	Entries       []AddonRateEntry `yaml:"entries,omitempty" json:"entries,omitempty"`
}

// AddonRateEntry is an age/gender band for age-rated addons
type AddonRateEntry struct {
	MinAge  int             `yaml:"min_age" json:"min_age"`
	MaxAge  int             `yaml:"max_age" json:"max_age"`
	Gender  Gender          `yaml:"gender,omitempty" json:"gender,omitempty"`
	Premium decimal.Decimal `yaml:"premium" json:"premium"`
}

// PlanAddon links an addon to a plan
type PlanAddon struct {
	PlanID      string `yaml:"plan_id" json:"plan_id"`
	AddonID     string `yaml:"addon_id" json:"addon_id"`
	IsIncluded  bool   `yaml:"is_included" json:"is_included"`   // priced at zero
	IsMandatory bool   `yaml:"is_mandatory" json:"is_mandatory"` // always added
}

// AddonSelection is an addon chosen on a quote
type AddonSelection struct {
	AddonID     string `yaml:"addon_id" json:"addon_id"`
	RateID      string `yaml:"rate_id,omitempty" json:"rate_id,omitempty"`
	IsIncluded  bool   `yaml:"is_included" json:"is_included"`
	IsMandatory bool   `yaml:"is_mandatory" json:"is_mandatory"`
}
