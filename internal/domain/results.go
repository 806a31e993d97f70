package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MemberLine is one member's contribution to a premium breakdown
type MemberLine struct {
	MemberID    string          `json:"memberId"`
	MemberType  MemberType      `json:"memberType"`
	RatingAge   int             `json:"ratingAge"`
	RateEntryID string          `json:"rateEntryId,omitempty"`
	Factor      decimal.Decimal `json:"factor"`
	Base        decimal.Decimal `json:"base"`
	Loading     decimal.Decimal `json:"loading"`
	Total       decimal.Decimal `json:"total"`
}

// AddonLine is one addon's contribution to a premium breakdown
type AddonLine struct {
	AddonID     string           `json:"addonId"`
	RateID      string           `json:"rateId,omitempty"`
	Name        string           `json:"name"`
	PricingType AddonPricingType `json:"pricingType"`
	IsIncluded  bool             `json:"isIncluded"`
	IsMandatory bool             `json:"isMandatory"`
	Amount      decimal.Decimal  `json:"amount"`
}

// TierLine records the tier a tiered rate card resolved to
type TierLine struct {
	TierID       string          `json:"tierId"`
	Name         string          `json:"name"`
	MemberCount  int             `json:"memberCount"`
	TierPremium  decimal.Decimal `json:"tierPremium"`
	ExtraMembers int             `json:"extraMembers"`
	ExtraPremium decimal.Decimal `json:"extraPremium"`
	Total        decimal.Decimal `json:"total"`
}

// PremiumBreakdown is the aggregate premium for a set of members, expressed
// in the rate card's billing frequency
type PremiumBreakdown struct {
	Currency    string          `json:"currency"`
	Frequency   Frequency       `json:"frequency"`
	Basis       PremiumBasis    `json:"basis"`
	Base        decimal.Decimal `json:"base"`
	Addon       decimal.Decimal `json:"addon"`
	Loading     decimal.Decimal `json:"loading"`
	RuleLoading decimal.Decimal `json:"ruleLoading"`
	Discount    decimal.Decimal `json:"discount"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxRate     decimal.Decimal `json:"taxRate"`
	Tax         decimal.Decimal `json:"tax"`
	Gross       decimal.Decimal `json:"gross"`

	PerMember []MemberLine `json:"perMember"`
	PerAddon  []AddonLine  `json:"perAddon"`
	Tier      *TierLine    `json:"tier,omitempty"`

	Annualized decimal.Decimal               `json:"annualized"`
	Periodized map[Frequency]decimal.Decimal `json:"periodized"`
}

// AppliedRule records one discount/loading rule applied during stacking
type AppliedRule struct {
	RuleID        string          `json:"ruleId"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Kind          AdjustmentKind  `json:"kind"`
	ValueType     ValueType       `json:"valueType"`
	Value         decimal.Decimal `json:"value"`
	AppliesTo     AppliesTo       `json:"appliesTo"`
	Amount        decimal.Decimal `json:"amount"`
	PremiumBefore decimal.Decimal `json:"premiumBefore"`
	PremiumAfter  decimal.Decimal `json:"premiumAfter"`
}

// SkippedRule records a rule that was considered but not applied
type SkippedRule struct {
	RuleID string `json:"ruleId"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// DiscountApplication is the result of stacking rules onto a premium
type DiscountApplication struct {
	AppliedRules  []AppliedRule   `json:"appliedRules"`
	SkippedRules  []SkippedRule   `json:"skippedRules,omitempty"`
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
	TotalLoading  decimal.Decimal `json:"totalLoading"`
	FinalPremium  decimal.Decimal `json:"finalPremium"`
}

// PromoRedemption is the usage increment the caller persists after a promo
// code is applied
type PromoRedemption struct {
	PromoCodeID    string `json:"promoCodeId"`
	Code           string `json:"code"`
	DiscountRuleID string `json:"discountRuleId"`
	UsesCount      int    `json:"usesCount"`     // promo uses after this redemption
	RuleUsageCount int    `json:"ruleUsageCount"` // rule usage after this redemption
}

// PromoApplication is a validated promo code and the adjustment it yields
type PromoApplication struct {
	PromoCodeID string          `json:"promoCodeId"`
	Code        string          `json:"code"`
	Rule        AppliedRule     `json:"rule"`
	Amount      decimal.Decimal `json:"amount"`
	Redemption  PromoRedemption `json:"redemption"`
}

// ReasonCode explains an eligibility verdict
type ReasonCode string

const (
	ReasonEligible           ReasonCode = "eligible"
	ReasonNotInPlan          ReasonCode = "not_in_plan"
	ReasonNotCovered         ReasonCode = "not_covered"
	ReasonMemberType         ReasonCode = "member_type_not_applicable"
	ReasonPrincipalOnly      ReasonCode = "principal_only"
	ReasonExcluded           ReasonCode = "excluded"
	ReasonMemberExclusion    ReasonCode = "member_exclusion"
	ReasonWaitingPeriod      ReasonCode = "waiting_period"
	ReasonPerClaimLimit      ReasonCode = "per_claim_limit_exceeded"
	ReasonLimitExceeded      ReasonCode = "limit_exceeded"
	ReasonParentLimit        ReasonCode = "overall_limit_exceeded"
)

// EligibilityVerdict answers a claim-eligibility query. A negative verdict
// is a normal outcome, not an error.
type EligibilityVerdict struct {
	Eligible  bool       `json:"eligible"`
	Reason    ReasonCode `json:"reason"`
	Message   string     `json:"message"`
	BenefitID string     `json:"benefitId"`
	LimitType LimitType  `json:"limitType,omitempty"`

	Limit     *decimal.Decimal `json:"limit,omitempty"`
	Used      *decimal.Decimal `json:"used,omitempty"`
	Remaining *decimal.Decimal `json:"remaining,omitempty"`
	LimitFrom string           `json:"limitFrom,omitempty"` // which source the limit resolved from

	WaitingEndDate       *time.Time `json:"waitingEndDate,omitempty"`
	WaitingDaysRemaining int        `json:"waitingDaysRemaining,omitempty"`

	RequiresPreauthorization bool             `json:"requiresPreauthorization,omitempty"`
	RequiresReferral         bool             `json:"requiresReferral,omitempty"`
	MemberShare              *decimal.Decimal `json:"memberShare,omitempty"`
	Payable                  *decimal.Decimal `json:"payable,omitempty"`
}
