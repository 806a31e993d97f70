package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AdjustmentKind says whether a rule lowers or raises the premium
type AdjustmentKind string

const (
	KindDiscount AdjustmentKind = "discount"
	KindLoading  AdjustmentKind = "loading"
)

// ValueType is how a rule's value is read
type ValueType string

const (
	ValuePercentage ValueType = "percentage"
	ValueFixed      ValueType = "fixed"
)

// AppliesTo selects the premium component a rule adjusts
type AppliesTo string

const (
	AppliesToBase  AppliesTo = "base"
	AppliesToTotal AppliesTo = "total"
	AppliesToAddon AppliesTo = "addon"
)

// ApplicationMethod is how a rule gets onto a quote
type ApplicationMethod string

const (
	MethodAutomatic ApplicationMethod = "automatic"
	MethodManual    ApplicationMethod = "manual"
	MethodPromoCode ApplicationMethod = "promo_code"
)

// TriggerRules are the predicates an automatic rule requires of the quote.
// Unset predicates always pass.
type TriggerRules struct {
	GroupSizeMin       *int        `yaml:"group_size_min,omitempty" json:"group_size_min,omitempty"`
	MemberCountMin     *int        `yaml:"member_count_min,omitempty" json:"member_count_min,omitempty"`
	LoyaltyYearsMin    *int        `yaml:"loyalty_years_min,omitempty" json:"loyalty_years_min,omitempty"`
	BillingFrequencies []Frequency `yaml:"billing_frequencies,omitempty" json:"billing_frequencies,omitempty"`
	// Expression is a CEL boolean expression over group_size, member_count,
	// loyalty_years, billing_frequency, scheme_id and plan_id.
	Expression string `yaml:"expression,omitempty" json:"expression,omitempty"`
}

// DiscountRule is a discount or loading rule scoped to a scheme and/or plan
type DiscountRule struct {
	ID                string            `yaml:"id" json:"id"`
	Code              string            `yaml:"code" json:"code"`
	Name              string            `yaml:"name" json:"name"`
	SchemeID          string            `yaml:"scheme_id,omitempty" json:"scheme_id,omitempty"` // blank = any scheme
	PlanID            string            `yaml:"plan_id,omitempty" json:"plan_id,omitempty"`     // blank = any plan
	Kind              AdjustmentKind    `yaml:"kind" json:"kind"`
	ValueType         ValueType         `yaml:"value_type" json:"value_type"`
	Value             decimal.Decimal   `yaml:"value" json:"value"`
	AppliesTo         AppliesTo         `yaml:"applies_to" json:"applies_to"`
	Method            ApplicationMethod `yaml:"method" json:"method"`
	Triggers          TriggerRules      `yaml:"triggers,omitempty" json:"triggers,omitempty"`
	IsStackable       bool              `yaml:"is_stackable" json:"is_stackable"`
	Priority          int               `yaml:"priority" json:"priority"`                                             // higher applies first
	MaxTotalDiscount  *decimal.Decimal  `yaml:"max_total_discount,omitempty" json:"max_total_discount,omitempty"`   // percent of original total
	MaxDiscountAmount *decimal.Decimal  `yaml:"max_discount_amount,omitempty" json:"max_discount_amount,omitempty"` // cap on this rule's adjustment
	UsageLimit        *int              `yaml:"usage_limit,omitempty" json:"usage_limit,omitempty"`
	UsageCount        int               `yaml:"usage_count" json:"usage_count"`
	IsActive          bool              `yaml:"is_active" json:"is_active"`
	EffectiveFrom     time.Time         `yaml:"effective_from" json:"effective_from"`
	EffectiveTo       *time.Time        `yaml:"effective_to,omitempty" json:"effective_to,omitempty"`
}

// UsageExhausted reports whether the rule's usage ceiling has been reached
func (dr *DiscountRule) UsageExhausted() bool {
	return dr.UsageLimit != nil && dr.UsageCount >= *dr.UsageLimit
}

// InScope reports whether the rule applies to a scheme/plan pair
func (dr *DiscountRule) InScope(schemeID, planID string) bool {
	if dr.SchemeID != "" && dr.SchemeID != schemeID {
		return false
	}
	if dr.PlanID != "" && dr.PlanID != planID {
		return false
	}
	return true
}

// PromoCode unlocks one DiscountRule for eligible schemes, plans or groups
type PromoCode struct {
	ID              string     `yaml:"id" json:"id"`
	Code            string     `yaml:"code" json:"code"`
	DiscountRuleID  string     `yaml:"discount_rule_id" json:"discount_rule_id"`
	ValidFrom       time.Time  `yaml:"valid_from" json:"valid_from"`
	ValidTo         *time.Time `yaml:"valid_to,omitempty" json:"valid_to,omitempty"`
	MaxUses         *int       `yaml:"max_uses,omitempty" json:"max_uses,omitempty"`
	UsesCount       int        `yaml:"uses_count" json:"uses_count"`
	IsActive        bool       `yaml:"is_active" json:"is_active"`
	EligibleSchemes []string   `yaml:"eligible_schemes,omitempty" json:"eligible_schemes,omitempty"`
	EligiblePlans   []string   `yaml:"eligible_plans,omitempty" json:"eligible_plans,omitempty"`
	EligibleGroups  []string   `yaml:"eligible_groups,omitempty" json:"eligible_groups,omitempty"`
}

// Matches compares codes case-insensitively, ignoring surrounding spaces
func (pc *PromoCode) Matches(code string) bool {
	return strings.EqualFold(strings.TrimSpace(pc.Code), strings.TrimSpace(code))
}

// DiscountContext carries the quote facts trigger predicates are evaluated against
type DiscountContext struct {
	SchemeID         string    `yaml:"scheme_id,omitempty" json:"scheme_id,omitempty"`
	PlanID           string    `yaml:"plan_id,omitempty" json:"plan_id,omitempty"`
	GroupID          string    `yaml:"group_id,omitempty" json:"group_id,omitempty"`
	GroupSize        *int      `yaml:"group_size,omitempty" json:"group_size,omitempty"`
	BillingFrequency Frequency `yaml:"billing_frequency" json:"billing_frequency"`
	LoyaltyYears     *int      `yaml:"loyalty_years,omitempty" json:"loyalty_years,omitempty"`
	MemberCount      *int      `yaml:"member_count,omitempty" json:"member_count,omitempty"`
	AsOf             time.Time `yaml:"as_of" json:"as_of"`
}
