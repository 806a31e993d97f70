package calculation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rgehrsitz/medrate/internal/domain"
	"github.com/shopspring/decimal"
)

// LoadingEngine resolves condition loadings from a loading-rule catalog
type LoadingEngine struct {
	Rules []domain.LoadingRule // active rules, ordered by SortOrder then catalog order
}

// NewLoadingEngine creates a loading engine over the active rules of a catalog
func NewLoadingEngine(rules []domain.LoadingRule) *LoadingEngine {
	active := make([]domain.LoadingRule, 0, len(rules))
	for _, r := range rules {
		if r.IsActive {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].SortOrder < active[j].SortOrder
	})
	return &LoadingEngine{Rules: active}
}

// ruleMatches reports whether identifier selects a rule: exact ICD code,
// substring of the condition name, or one of the related codes. All
// comparisons ignore case.
func ruleMatches(rule *domain.LoadingRule, identifier string) bool {
	id := strings.ToLower(strings.TrimSpace(identifier))
	if id == "" {
		return false
	}
	if rule.ICDCode != "" && strings.EqualFold(rule.ICDCode, id) {
		return true
	}
	if strings.Contains(strings.ToLower(rule.ConditionName), id) {
		return true
	}
	for _, code := range rule.RelatedCodes {
		if strings.EqualFold(code, id) {
			return true
		}
	}
	return false
}

// RuleByID returns the active rule with the given id
func (le *LoadingEngine) RuleByID(id string) (domain.LoadingRule, bool) {
	for i := range le.Rules {
		if le.Rules[i].ID == id {
			return le.Rules[i], true
		}
	}
	return domain.LoadingRule{}, false
}

// ruleFor resolves the catalog rule behind a member loading: its rule id
// when set, else the first rule its condition matches
func (le *LoadingEngine) ruleFor(rec domain.LoadingRecord) (domain.LoadingRule, bool) {
	if rec.RuleID != "" {
		return le.RuleByID(rec.RuleID)
	}
	return le.FindRule(rec.Condition)
}

// FindRule returns the first rule in catalog order matching identifier.
// Free-text matches are ambiguous by nature; first match wins and
// AmbiguousMatches reports the alternatives.
func (le *LoadingEngine) FindRule(identifier string) (domain.LoadingRule, bool) {
	for i := range le.Rules {
		if ruleMatches(&le.Rules[i], identifier) {
			return le.Rules[i], true
		}
	}
	return domain.LoadingRule{}, false
}

// AmbiguousMatches returns every matching rule when more than one matches
// identifier, nil otherwise
func (le *LoadingEngine) AmbiguousMatches(identifier string) []domain.LoadingRule {
	var matches []domain.LoadingRule
	for i := range le.Rules {
		if ruleMatches(&le.Rules[i], identifier) {
			matches = append(matches, le.Rules[i])
		}
	}
	if len(matches) < 2 {
		return nil
	}
	return matches
}

// LoadingOverlap is a pair of rules a single identifier could select
type LoadingOverlap struct {
	First  string `json:"first"`
	Second string `json:"second"`
	Reason string `json:"reason"`
}

func (lo LoadingOverlap) String() string {
	return fmt.Sprintf("loading rules %s and %s overlap: %s", lo.First, lo.Second, lo.Reason)
}

// CatalogOverlaps lists rule pairs that share codes or whose condition
// names contain one another
func (le *LoadingEngine) CatalogOverlaps() []LoadingOverlap {
	var out []LoadingOverlap
	for i := 0; i < len(le.Rules); i++ {
		a := &le.Rules[i]
		for j := i + 1; j < len(le.Rules); j++ {
			b := &le.Rules[j]
			if reason := overlapReason(a, b); reason != "" {
				out = append(out, LoadingOverlap{First: a.ID, Second: b.ID, Reason: reason})
			}
		}
	}
	return out
}

func overlapReason(a, b *domain.LoadingRule) string {
	if a.ICDCode != "" && strings.EqualFold(a.ICDCode, b.ICDCode) {
		return "same ICD code " + a.ICDCode
	}
	if a.ICDCode != "" && ruleMatches(b, a.ICDCode) {
		return "ICD code " + a.ICDCode + " also matches " + b.ID
	}
	if b.ICDCode != "" && ruleMatches(a, b.ICDCode) {
		return "ICD code " + b.ICDCode + " also matches " + a.ID
	}
	an, bn := strings.ToLower(a.ConditionName), strings.ToLower(b.ConditionName)
	if an != "" && bn != "" && (strings.Contains(an, bn) || strings.Contains(bn, an)) {
		return "condition names contain one another"
	}
	for _, code := range a.RelatedCodes {
		for _, other := range b.RelatedCodes {
			if strings.EqualFold(code, other) {
				return "shared related code " + code
			}
		}
	}
	return ""
}

// CalculateLoading prices a rule against a premium. Exclusion-only rules
// return a zero amount carrying the exclusion terms.
func (le *LoadingEngine) CalculateLoading(rule domain.LoadingRule, premium decimal.Decimal) domain.LoadingResult {
	result := domain.LoadingResult{
		RuleID:         rule.ID,
		Condition:      rule.ConditionName,
		Amount:         decimal.Zero,
		Duration:       rule.Duration,
		DurationMonths: rule.DurationMonths,
	}

	switch rule.LoadingType {
	case domain.LoadingExclusion:
		result.IsExclusion = true
		result.ExclusionTerms = rule.ExclusionTerms
		result.DurationMonths = rule.ExclusionDurationMonths
		return result
	case domain.LoadingPercentage:
		result.Amount = percentOf(premium, rule.Value)
	case domain.LoadingFixed:
		result.Amount = rule.Value
	}

	if rule.MinLoading != nil && result.Amount.LessThan(*rule.MinLoading) {
		result.Amount = *rule.MinLoading
	}
	if rule.MaxLoading != nil && result.Amount.GreaterThan(*rule.MaxLoading) {
		result.Amount = *rule.MaxLoading
	}
	result.Amount = roundMoney(result.Amount)
	return result
}

// ExclusionAlternative returns the exclusion a rule offers instead of its
// loading, if it offers one
func (le *LoadingEngine) ExclusionAlternative(rule domain.LoadingRule) (domain.LoadingResult, bool) {
	if !rule.ExclusionAvailable && rule.LoadingType != domain.LoadingExclusion {
		return domain.LoadingResult{}, false
	}
	return domain.LoadingResult{
		RuleID:         rule.ID,
		Condition:      rule.ConditionName,
		Amount:         decimal.Zero,
		IsExclusion:    true,
		ExclusionTerms: rule.ExclusionTerms,
		Duration:       domain.DurationTimeLimited,
		DurationMonths: rule.ExclusionDurationMonths,
	}, true
}

// LoadingExpired reports whether a time-limited loading has run out at ref
func LoadingExpired(rec domain.LoadingRecord, ref time.Time) bool {
	if rec.Duration != domain.DurationTimeLimited || rec.DurationMonths <= 0 {
		return false
	}
	end := rec.StartDate.AddDate(0, rec.DurationMonths, 0)
	return !ref.Before(end)
}

// ReviewDate is when a reviewable loading falls due for review
func ReviewDate(rec domain.LoadingRecord) *time.Time {
	if rec.Duration != domain.DurationReviewable || rec.DurationMonths <= 0 {
		return nil
	}
	d := rec.StartDate.AddDate(0, rec.DurationMonths, 0)
	return &d
}

// ActiveLoadings drops expired time-limited loadings. Expiry is silent.
func (le *LoadingEngine) ActiveLoadings(records []domain.LoadingRecord, ref time.Time) []domain.LoadingRecord {
	out := make([]domain.LoadingRecord, 0, len(records))
	for _, rec := range records {
		if !LoadingExpired(rec, ref) {
			out = append(out, rec)
		}
	}
	return out
}

// RecordAmount prices a member's loading record against that member's
// premium basis. A materialized amount wins over the record's value. A
// record backed by a catalog rule is priced through CalculateLoading, so
// the rule's min and max bounds hold even when the record overrides the
// rate.
func (le *LoadingEngine) RecordAmount(rec domain.LoadingRecord, premium decimal.Decimal, ref time.Time) decimal.Decimal {
	if LoadingExpired(rec, ref) {
		return decimal.Zero
	}
	if rec.Amount != nil {
		return roundMoney(*rec.Amount)
	}
	if rule, ok := le.ruleFor(rec); ok {
		if rec.LoadingType != "" {
			rule.LoadingType = rec.LoadingType
			rule.Value = rec.Value
		}
		return le.CalculateLoading(rule, premium).Amount
	}
	switch rec.LoadingType {
	case domain.LoadingPercentage:
		return roundMoney(percentOf(premium, rec.Value))
	case domain.LoadingFixed:
		return roundMoney(rec.Value)
	}
	return decimal.Zero
}

// MemberLoading sums a member's active loadings
func (le *LoadingEngine) MemberLoading(records []domain.LoadingRecord, premium decimal.Decimal, ref time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, rec := range records {
		total = total.Add(le.RecordAmount(rec, premium, ref))
	}
	return total
}

// ApplyExclusionRules moves loadings whose catalog rule is exclusion-only
// onto the member's exclusions. The exclusion runs from the loading's start
// for the rule's exclusion duration; zero months is permanent.
func (le *LoadingEngine) ApplyExclusionRules(m domain.Member) domain.Member {
	loadings := make([]domain.LoadingRecord, 0, len(m.Loadings))
	exclusions := append([]domain.ExclusionRecord(nil), m.Exclusions...)
	for _, rec := range m.Loadings {
		rule, ok := le.ruleFor(rec)
		if !ok || rule.LoadingType != domain.LoadingExclusion {
			loadings = append(loadings, rec)
			continue
		}
		if rec.LoadingType != "" && rec.LoadingType != domain.LoadingExclusion {
			loadings = append(loadings, rec)
			continue
		}
		ex := domain.ExclusionRecord{
			ID:        rec.ID,
			RuleID:    rule.ID,
			Condition: rule.ConditionName,
			ICDCode:   rule.ICDCode,
			Terms:     rule.ExclusionTerms,
			StartDate: rec.StartDate,
		}
		if rule.ExclusionDurationMonths > 0 {
			end := rec.StartDate.AddDate(0, rule.ExclusionDurationMonths, 0)
			ex.EndDate = &end
		}
		exclusions = append(exclusions, ex)
	}
	m.Loadings = loadings
	m.Exclusions = exclusions
	return m
}
