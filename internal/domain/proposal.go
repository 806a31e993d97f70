package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ProposalKind tags an underwriting proposal variant
type ProposalKind string

const (
	ProposalLoading   ProposalKind = "loading"
	ProposalExclusion ProposalKind = "exclusion"
)

// Proposal is an underwriting decision proposed on an application before it
// is converted into a policy. Only ProposedLoading and ProposedExclusion
// implement it.
type Proposal interface {
	Kind() ProposalKind
	proposal()
}

// ProposedLoading is a loading proposed on an in-flight application
type ProposedLoading struct {
	RuleID         string           `yaml:"rule_id,omitempty" json:"rule_id,omitempty"`
	Condition      string           `yaml:"condition" json:"condition"`
	LoadingType    LoadingType      `yaml:"loading_type" json:"loading_type"`
	Value          decimal.Decimal  `yaml:"value" json:"value"`
	Amount         *decimal.Decimal `yaml:"amount,omitempty" json:"amount,omitempty"`
	Duration       LoadingDuration  `yaml:"duration" json:"duration"`
	DurationMonths int              `yaml:"duration_months,omitempty" json:"duration_months,omitempty"`
}

func (ProposedLoading) Kind() ProposalKind { return ProposalLoading }
func (ProposedLoading) proposal()          {}

// ProposedExclusion is an exclusion proposed on an in-flight application
type ProposedExclusion struct {
	RuleID         string `yaml:"rule_id,omitempty" json:"rule_id,omitempty"`
	Condition      string `yaml:"condition" json:"condition"`
	ICDCode        string `yaml:"icd_code,omitempty" json:"icd_code,omitempty"`
	BenefitID      string `yaml:"benefit_id,omitempty" json:"benefit_id,omitempty"`
	Terms          string `yaml:"terms,omitempty" json:"terms,omitempty"`
	DurationMonths int    `yaml:"duration_months,omitempty" json:"duration_months,omitempty"` // 0 = permanent
}

func (ProposedExclusion) Kind() ProposalKind { return ProposalExclusion }
func (ProposedExclusion) proposal()          {}

// ApplicationMember is a member of an application that has not been
// converted to a policy yet. Underwriting proposals live here until
// ToMember materializes them.
type ApplicationMember struct {
	Member             `yaml:",inline"`
	ProposedLoadings   []ProposedLoading   `yaml:"proposed_loadings,omitempty" json:"proposed_loadings,omitempty"`
	ProposedExclusions []ProposedExclusion `yaml:"proposed_exclusions,omitempty" json:"proposed_exclusions,omitempty"`
}

// Proposals returns all proposals in declaration order, loadings first
func (am *ApplicationMember) Proposals() []Proposal {
	out := make([]Proposal, 0, len(am.ProposedLoadings)+len(am.ProposedExclusions))
	for _, pl := range am.ProposedLoadings {
		out = append(out, pl)
	}
	for _, pe := range am.ProposedExclusions {
		out = append(out, pe)
	}
	return out
}

// MaterializeLoading maps a proposed loading to the record stored on an
// enrolled member. start is normally the cover start date.
func MaterializeLoading(memberID string, index int, pl ProposedLoading, start time.Time) LoadingRecord {
	return LoadingRecord{
		ID:             fmt.Sprintf("%s-L%d", memberID, index+1),
		RuleID:         pl.RuleID,
		Condition:      pl.Condition,
		LoadingType:    pl.LoadingType,
		Value:          pl.Value,
		Amount:         pl.Amount,
		StartDate:      start,
		Duration:       pl.Duration,
		DurationMonths: pl.DurationMonths,
	}
}

// MaterializeExclusion maps a proposed exclusion to a member exclusion record
func MaterializeExclusion(memberID string, index int, pe ProposedExclusion, start time.Time) ExclusionRecord {
	rec := ExclusionRecord{
		ID:        fmt.Sprintf("%s-X%d", memberID, index+1),
		RuleID:    pe.RuleID,
		Condition: pe.Condition,
		ICDCode:   pe.ICDCode,
		BenefitID: pe.BenefitID,
		Terms:     pe.Terms,
		StartDate: start,
	}
	if pe.DurationMonths > 0 {
		end := start.AddDate(0, pe.DurationMonths, 0)
		rec.EndDate = &end
	}
	return rec
}

// ToMember converts the application member into an engine Member, appending
// materialized proposals to any records already present.
func (am *ApplicationMember) ToMember() Member {
	m := am.Member
	m.Loadings = append([]LoadingRecord(nil), am.Loadings...)
	m.Exclusions = append([]ExclusionRecord(nil), am.Exclusions...)

	for _, p := range am.Proposals() {
		switch v := p.(type) {
		case ProposedLoading:
			m.Loadings = append(m.Loadings, MaterializeLoading(m.ID, len(m.Loadings), v, m.CoverStartDate))
		case ProposedExclusion:
			m.Exclusions = append(m.Exclusions, MaterializeExclusion(m.ID, len(m.Exclusions), v, m.CoverStartDate))
		}
	}
	return m
}
