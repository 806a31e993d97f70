package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Scheme is a group or retail scheme plans are sold under
type Scheme struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// Plan is a product sold under a scheme
type Plan struct {
	ID       string `yaml:"id" json:"id"`
	SchemeID string `yaml:"scheme_id" json:"scheme_id"`
	Code     string `yaml:"code" json:"code"`
	Name     string `yaml:"name" json:"name"`
}

// Catalog is a snapshot of all product configuration the engine reads.
// Collections are arenas keyed by id; hierarchy is expressed with parent ids.
type Catalog struct {
	Schemes           []Scheme           `yaml:"schemes" json:"schemes"`
	Plans             []Plan             `yaml:"plans" json:"plans"`
	RateCards         []RateCard         `yaml:"rate_cards" json:"rate_cards"`
	BenefitCategories []BenefitCategory  `yaml:"benefit_categories" json:"benefit_categories"`
	Benefits          []Benefit          `yaml:"benefits" json:"benefits"`
	PlanBenefits      []PlanBenefit      `yaml:"plan_benefits" json:"plan_benefits"`
	PlanBenefitLimits []PlanBenefitLimit `yaml:"plan_benefit_limits" json:"plan_benefit_limits"`
	PlanExclusions    []PlanExclusion    `yaml:"plan_exclusions" json:"plan_exclusions"`
	DiscountRules     []DiscountRule     `yaml:"discount_rules" json:"discount_rules"`
	PromoCodes        []PromoCode        `yaml:"promo_codes" json:"promo_codes"`
	LoadingRules      []LoadingRule      `yaml:"loading_rules" json:"loading_rules"`
	Addons            []Addon            `yaml:"addons" json:"addons"`
	AddonRates        []AddonRate        `yaml:"addon_rates" json:"addon_rates"`
	PlanAddons        []PlanAddon        `yaml:"plan_addons" json:"plan_addons"`
}

// PlanByID looks a plan up by id
func (c *Catalog) PlanByID(id string) (Plan, bool) {
	for _, p := range c.Plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// RateCardsForPlan returns the plan's rate cards in catalog order
func (c *Catalog) RateCardsForPlan(planID string) []RateCard {
	var out []RateCard
	for _, rc := range c.RateCards {
		if rc.PlanID == planID {
			out = append(out, rc)
		}
	}
	return out
}

// PlanAddonsFor returns the addon links configured for a plan
func (c *Catalog) PlanAddonsFor(planID string) []PlanAddon {
	var out []PlanAddon
	for _, pa := range c.PlanAddons {
		if pa.PlanID == planID {
			out = append(out, pa)
		}
	}
	return out
}

// QuoteRequest asks for a premium for a household against one plan
type QuoteRequest struct {
	PlanID           string              `yaml:"plan_id" json:"plan_id"`
	GroupID          string              `yaml:"group_id,omitempty" json:"group_id,omitempty"`
	GroupSize        *int                `yaml:"group_size,omitempty" json:"group_size,omitempty"`
	LoyaltyYears     *int                `yaml:"loyalty_years,omitempty" json:"loyalty_years,omitempty"`
	BillingFrequency Frequency           `yaml:"billing_frequency,omitempty" json:"billing_frequency,omitempty"` // defaults to the rate card's
	Members          []ApplicationMember `yaml:"members" json:"members"`
	Addons           []AddonSelection    `yaml:"addons,omitempty" json:"addons,omitempty"`
	PromoCode        string              `yaml:"promo_code,omitempty" json:"promo_code,omitempty"`
	AsOf             time.Time           `yaml:"as_of" json:"as_of"`
}

// QuoteResult is everything a quote produced; the caller persists it
type QuoteResult struct {
	PlanID     string              `json:"planId"`
	RateCardID string              `json:"rateCardId"`
	Breakdown  PremiumBreakdown    `json:"breakdown"`
	Discounts  DiscountApplication `json:"discounts"`
	Promo      *PromoApplication   `json:"promo,omitempty"`
	Billed     decimal.Decimal     `json:"billed"` // gross in the requested billing frequency
	BilledAs   Frequency           `json:"billedAs"`
}
