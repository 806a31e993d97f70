package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MemberType identifies an enrollee's relationship to the policy holder
type MemberType string

const (
	MemberPrincipal MemberType = "principal"
	MemberSpouse    MemberType = "spouse"
	MemberChild     MemberType = "child"
	MemberParent    MemberType = "parent"
)

// Valid reports whether the member type is one of the known types
func (mt MemberType) Valid() bool {
	switch mt {
	case MemberPrincipal, MemberSpouse, MemberChild, MemberParent:
		return true
	}
	return false
}

// Gender is blank when unknown or irrelevant to rating
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Member is an enrolled (or quoted) person as seen by the engine
type Member struct {
	ID             string     `yaml:"id" json:"id"`
	PrincipalID    string     `yaml:"principal_id,omitempty" json:"principal_id,omitempty"` // required for non-principals
	Name           string     `yaml:"name,omitempty" json:"name,omitempty"`
	Type           MemberType `yaml:"type" json:"type"`
	Age            int        `yaml:"age" json:"age"`
	AgeAtInception *int       `yaml:"age_at_inception,omitempty" json:"age_at_inception,omitempty"`
	DateOfBirth    *time.Time `yaml:"date_of_birth,omitempty" json:"date_of_birth,omitempty"`
	Gender         Gender     `yaml:"gender,omitempty" json:"gender,omitempty"`
	Region         string     `yaml:"region,omitempty" json:"region,omitempty"`
	CoverStartDate time.Time  `yaml:"cover_start_date" json:"cover_start_date"`

	Loadings   []LoadingRecord   `yaml:"loadings,omitempty" json:"loadings,omitempty"`
	Exclusions []ExclusionRecord `yaml:"exclusions,omitempty" json:"exclusions,omitempty"`
}

// RatingAge is the age used when quoting: age at inception wins when present
func (m *Member) RatingAge() int {
	if m.AgeAtInception != nil {
		return *m.AgeAtInception
	}
	return m.Age
}

// AgeOn returns the member's current age at a date. Falls back to the
// recorded age when no date of birth is known.
func (m *Member) AgeOn(atDate time.Time) int {
	if m.DateOfBirth == nil || m.DateOfBirth.IsZero() {
		return m.Age
	}
	dob := *m.DateOfBirth
	age := atDate.Year() - dob.Year()
	if atDate.Month() < dob.Month() || (atDate.Month() == dob.Month() && atDate.Day() < dob.Day()) {
		age--
	}
	return age
}

// IsPrincipal reports whether the member heads its own enrollment
func (m *Member) IsPrincipal() bool {
	return m.Type == MemberPrincipal
}

// LoadingRecord is a materialized premium loading attached to an enrolled member
type LoadingRecord struct {
	ID             string           `yaml:"id" json:"id"`
	RuleID         string           `yaml:"rule_id,omitempty" json:"rule_id,omitempty"`
	Condition      string           `yaml:"condition" json:"condition"`
	LoadingType    LoadingType      `yaml:"loading_type" json:"loading_type"`
	Value          decimal.Decimal  `yaml:"value" json:"value"`
	Amount         *decimal.Decimal `yaml:"amount,omitempty" json:"amount,omitempty"` // fixed materialized amount, wins over Value
	StartDate      time.Time        `yaml:"start_date" json:"start_date"`
	Duration       LoadingDuration  `yaml:"duration" json:"duration"`
	DurationMonths int              `yaml:"duration_months,omitempty" json:"duration_months,omitempty"`
}

// ExclusionRecord is a materialized member-specific exclusion
type ExclusionRecord struct {
	ID        string     `yaml:"id" json:"id"`
	RuleID    string     `yaml:"rule_id,omitempty" json:"rule_id,omitempty"`
	Condition string     `yaml:"condition" json:"condition"`
	ICDCode   string     `yaml:"icd_code,omitempty" json:"icd_code,omitempty"`
	BenefitID string     `yaml:"benefit_id,omitempty" json:"benefit_id,omitempty"` // blank excludes the condition across benefits
	Terms     string     `yaml:"terms,omitempty" json:"terms,omitempty"`
	StartDate time.Time  `yaml:"start_date" json:"start_date"`
	EndDate   *time.Time `yaml:"end_date,omitempty" json:"end_date,omitempty"`
}

// ActiveOn reports whether the exclusion applies at a date
func (er *ExclusionRecord) ActiveOn(at time.Time) bool {
	if at.Before(er.StartDate) {
		return false
	}
	return er.EndDate == nil || at.Before(*er.EndDate)
}
