package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoadingType is how a loading rule surcharges the premium
type LoadingType string

const (
	LoadingPercentage LoadingType = "percentage"
	LoadingFixed      LoadingType = "fixed"
	LoadingExclusion  LoadingType = "exclusion" // no surcharge, condition excluded instead
)

// LoadingDuration says how long a loading stays on the policy
type LoadingDuration string

const (
	DurationPermanent   LoadingDuration = "permanent"
	DurationTimeLimited LoadingDuration = "time_limited"
	DurationReviewable  LoadingDuration = "reviewable"
)

// LoadingRule is a catalog entry for a declared medical condition
type LoadingRule struct {
	ID            string           `yaml:"id" json:"id"`
	ConditionName string           `yaml:"condition_name" json:"condition_name"`
	ICDCode       string           `yaml:"icd_code,omitempty" json:"icd_code,omitempty"`
	RelatedCodes  []string         `yaml:"related_codes,omitempty" json:"related_codes,omitempty"`
	LoadingType   LoadingType      `yaml:"loading_type" json:"loading_type"`
	Value         decimal.Decimal  `yaml:"value" json:"value"`
	MinLoading    *decimal.Decimal `yaml:"min_loading,omitempty" json:"min_loading,omitempty"`
	MaxLoading    *decimal.Decimal `yaml:"max_loading,omitempty" json:"max_loading,omitempty"`

	Duration       LoadingDuration `yaml:"duration" json:"duration"`
	DurationMonths int             `yaml:"duration_months,omitempty" json:"duration_months,omitempty"`

	// Exclusion alternative offered instead of the loading
	ExclusionAvailable      bool   `yaml:"exclusion_available" json:"exclusion_available"`
	ExclusionTerms          string `yaml:"exclusion_terms,omitempty" json:"exclusion_terms,omitempty"`
	ExclusionDurationMonths int    `yaml:"exclusion_duration_months,omitempty" json:"exclusion_duration_months,omitempty"`

	IsActive  bool `yaml:"is_active" json:"is_active"`
	SortOrder int  `yaml:"sort_order" json:"sort_order"`
}

// LoadingResult is the outcome of pricing a loading rule against a premium
type LoadingResult struct {
	RuleID         string          `json:"rule_id"`
	Condition      string          `json:"condition"`
	Amount         decimal.Decimal `json:"amount"`
	IsExclusion    bool            `json:"is_exclusion"`
	ExclusionTerms string          `json:"exclusion_terms,omitempty"`
	Duration       LoadingDuration `json:"duration"`
	DurationMonths int             `json:"duration_months,omitempty"`
	ReviewDate     *time.Time      `json:"review_date,omitempty"`
}
