package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LimitType is the unit a benefit limit is expressed in
type LimitType string

const (
	LimitAmount    LimitType = "amount"
	LimitVisits    LimitType = "visits"
	LimitDays      LimitType = "days"
	LimitUnlimited LimitType = "unlimited"
	LimitCombined  LimitType = "combined" // amount and visit count both apply
)

// LimitFrequency is the period a limit resets over
type LimitFrequency string

const (
	FrequencyPerAnnum LimitFrequency = "annual"
	FrequencyLifetime LimitFrequency = "lifetime"
	FrequencyPerEvent LimitFrequency = "per_event"
	FrequencyPerVisit LimitFrequency = "per_visit"
)

// LimitBasis says whose usage counts against a limit
type LimitBasis string

const (
	BasisIndividual    LimitBasis = "individual"
	BasisFamily        LimitBasis = "family"
	BasisPrincipalOnly LimitBasis = "principal_only"
)

// BenefitCategory groups catalog benefits (inpatient, outpatient, dental...)
type BenefitCategory struct {
	ID        string `yaml:"id" json:"id"`
	Code      string `yaml:"code" json:"code"`
	Name      string `yaml:"name" json:"name"`
	SortOrder int    `yaml:"sort_order" json:"sort_order"`
}

// Benefit is a catalog entry with a default limit shape
type Benefit struct {
	ID                       string           `yaml:"id" json:"id"`
	CategoryID               string           `yaml:"category_id" json:"category_id"`
	ParentID                 string           `yaml:"parent_id,omitempty" json:"parent_id,omitempty"`
	Code                     string           `yaml:"code" json:"code"`
	Name                     string           `yaml:"name" json:"name"`
	LimitType                LimitType        `yaml:"limit_type" json:"limit_type"`
	LimitFrequency           LimitFrequency   `yaml:"limit_frequency" json:"limit_frequency"`
	LimitBasis               LimitBasis       `yaml:"limit_basis" json:"limit_basis"`
	LimitAmount              *decimal.Decimal `yaml:"limit_amount,omitempty" json:"limit_amount,omitempty"`
	LimitCount               *int             `yaml:"limit_count,omitempty" json:"limit_count,omitempty"`
	LimitDays                *int             `yaml:"limit_days,omitempty" json:"limit_days,omitempty"`
	WaitingPeriodDays        int              `yaml:"waiting_period_days" json:"waiting_period_days"`
	RequiresPreauthorization bool             `yaml:"requires_preauthorization" json:"requires_preauthorization"`
	RequiresReferral         bool             `yaml:"requires_referral" json:"requires_referral"`
	ApplicableMemberTypes    []MemberType     `yaml:"applicable_member_types,omitempty" json:"applicable_member_types,omitempty"` // empty = all
	IsActive                 bool             `yaml:"is_active" json:"is_active"`
}

// AppliesTo reports whether the benefit may be claimed by a member type
func (b *Benefit) AppliesTo(mt MemberType) bool {
	if len(b.ApplicableMemberTypes) == 0 {
		return true
	}
	for _, t := range b.ApplicableMemberTypes {
		if t == mt {
			return true
		}
	}
	return false
}

// PlanBenefit overrides a Benefit's limits for one plan. Nil fields fall
// back to the catalog Benefit.
type PlanBenefit struct {
	ID                 string           `yaml:"id" json:"id"`
	PlanID             string           `yaml:"plan_id" json:"plan_id"`
	BenefitID          string           `yaml:"benefit_id" json:"benefit_id"`
	ParentID           string           `yaml:"parent_id,omitempty" json:"parent_id,omitempty"` // overall limit this is a sub-limit of
	IsCovered          bool             `yaml:"is_covered" json:"is_covered"`
	LimitType          LimitType        `yaml:"limit_type,omitempty" json:"limit_type,omitempty"`
	LimitAmount        *decimal.Decimal `yaml:"limit_amount,omitempty" json:"limit_amount,omitempty"`
	LimitCount         *int             `yaml:"limit_count,omitempty" json:"limit_count,omitempty"`
	LimitDays          *int             `yaml:"limit_days,omitempty" json:"limit_days,omitempty"`
	PerClaimLimit      *decimal.Decimal `yaml:"per_claim_limit,omitempty" json:"per_claim_limit,omitempty"`
	PerDayLimit        *decimal.Decimal `yaml:"per_day_limit,omitempty" json:"per_day_limit,omitempty"`
	WaitingPeriodDays  *int             `yaml:"waiting_period_days,omitempty" json:"waiting_period_days,omitempty"`
	CopayAmount        *decimal.Decimal `yaml:"copay_amount,omitempty" json:"copay_amount,omitempty"`
	CoinsurancePercent *decimal.Decimal `yaml:"coinsurance_percent,omitempty" json:"coinsurance_percent,omitempty"`
}

// PlanBenefitLimit refines a PlanBenefit for a member type and/or age band
type PlanBenefitLimit struct {
	ID            string           `yaml:"id" json:"id"`
	PlanBenefitID string           `yaml:"plan_benefit_id" json:"plan_benefit_id"`
	MemberType    MemberType       `yaml:"member_type,omitempty" json:"member_type,omitempty"`
	MinAge        *int             `yaml:"min_age,omitempty" json:"min_age,omitempty"`
	MaxAge        *int             `yaml:"max_age,omitempty" json:"max_age,omitempty"`
	LimitAmount   *decimal.Decimal `yaml:"limit_amount,omitempty" json:"limit_amount,omitempty"`
	LimitCount    *int             `yaml:"limit_count,omitempty" json:"limit_count,omitempty"`
	LimitDays     *int             `yaml:"limit_days,omitempty" json:"limit_days,omitempty"`
	PerClaimLimit *decimal.Decimal `yaml:"per_claim_limit,omitempty" json:"per_claim_limit,omitempty"`
}

// Matches reports whether the refinement applies to a member type and age.
// Age bounds are inclusive.
func (l *PlanBenefitLimit) Matches(mt MemberType, age int) bool {
	if l.MemberType != "" && l.MemberType != mt {
		return false
	}
	if l.MinAge != nil && age < *l.MinAge {
		return false
	}
	if l.MaxAge != nil && age > *l.MaxAge {
		return false
	}
	return true
}

// Specificity ranks refinements: member type and age band together beat either alone
func (l *PlanBenefitLimit) Specificity() int {
	s := 0
	if l.MemberType != "" {
		s += 2
	}
	if l.MinAge != nil || l.MaxAge != nil {
		s++
	}
	return s
}

// ExclusionType governs how long a plan exclusion bars claims
type ExclusionType string

const (
	ExclusionAbsolute    ExclusionType = "absolute"
	ExclusionTimeLimited ExclusionType = "time_limited"
)

// PlanExclusion bars claims for a benefit (or every benefit when BenefitID is blank)
type PlanExclusion struct {
	ID                  string        `yaml:"id" json:"id"`
	PlanID              string        `yaml:"plan_id" json:"plan_id"`
	BenefitID           string        `yaml:"benefit_id,omitempty" json:"benefit_id,omitempty"`
	Name                string        `yaml:"name" json:"name"`
	ExclusionType       ExclusionType `yaml:"exclusion_type" json:"exclusion_type"`
	ExclusionPeriodDays int           `yaml:"exclusion_period_days,omitempty" json:"exclusion_period_days,omitempty"`
	IsActive            bool          `yaml:"is_active" json:"is_active"`
}

// BenefitUsage is what a member (or family, per limit basis) has consumed of
// a benefit in the current limit period
type BenefitUsage struct {
	BenefitID  string          `yaml:"benefit_id" json:"benefit_id"`
	AmountUsed decimal.Decimal `yaml:"amount_used" json:"amount_used"`
	CountUsed  int             `yaml:"count_used" json:"count_used"`
	DaysUsed   int             `yaml:"days_used" json:"days_used"`
}

// ClaimRequest asks whether a member may claim an amount against a benefit
type ClaimRequest struct {
	PlanID        string          `yaml:"plan_id" json:"plan_id"`
	BenefitID     string          `yaml:"benefit_id" json:"benefit_id"`
	Member        Member          `yaml:"member" json:"member"`
	Amount        decimal.Decimal `yaml:"amount" json:"amount"`
	Visits        int             `yaml:"visits,omitempty" json:"visits,omitempty"` // defaults to 1 for visit limits
	Days          int             `yaml:"days,omitempty" json:"days,omitempty"`
	Date          time.Time       `yaml:"date" json:"date"`
	DiagnosisCode string          `yaml:"diagnosis_code,omitempty" json:"diagnosis_code,omitempty"` // matched against member exclusion ICD codes
	Usage         []BenefitUsage  `yaml:"usage,omitempty" json:"usage,omitempty"`
}

// UsageFor returns recorded usage for a benefit (zero usage when absent)
func (cr *ClaimRequest) UsageFor(benefitID string) BenefitUsage {
	for _, u := range cr.Usage {
		if u.BenefitID == benefitID {
			return u
		}
	}
	return BenefitUsage{BenefitID: benefitID}
}
