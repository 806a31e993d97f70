package calculation

import (
	"fmt"
	"strings"
	"time"

	"github.com/rgehrsitz/medrate/internal/domain"
	"github.com/shopspring/decimal"
)

// PlanBenefitSnapshot is the benefit configuration an eligibility query
// reads. Usage is supplied on the claim, already aggregated per the
// benefit's limit basis.
type PlanBenefitSnapshot struct {
	Benefits     []domain.Benefit
	PlanBenefits []domain.PlanBenefit
	Limits       []domain.PlanBenefitLimit
	Exclusions   []domain.PlanExclusion
}

// SnapshotFor extracts a plan's benefit configuration from a catalog
func SnapshotFor(cat *domain.Catalog, planID string) PlanBenefitSnapshot {
	snap := PlanBenefitSnapshot{Benefits: cat.Benefits}
	ids := make(map[string]bool)
	for _, pb := range cat.PlanBenefits {
		if pb.PlanID == planID {
			snap.PlanBenefits = append(snap.PlanBenefits, pb)
			ids[pb.ID] = true
		}
	}
	for _, l := range cat.PlanBenefitLimits {
		if ids[l.PlanBenefitID] {
			snap.Limits = append(snap.Limits, l)
		}
	}
	for _, ex := range cat.PlanExclusions {
		if ex.PlanID == planID {
			snap.Exclusions = append(snap.Exclusions, ex)
		}
	}
	return snap
}

func (s *PlanBenefitSnapshot) planBenefit(planID, benefitID string) *domain.PlanBenefit {
	for i := range s.PlanBenefits {
		pb := &s.PlanBenefits[i]
		if pb.BenefitID == benefitID && (pb.PlanID == planID || pb.PlanID == "") {
			return pb
		}
	}
	return nil
}

func (s *PlanBenefitSnapshot) planBenefitByID(id string) *domain.PlanBenefit {
	for i := range s.PlanBenefits {
		if s.PlanBenefits[i].ID == id {
			return &s.PlanBenefits[i]
		}
	}
	return nil
}

func (s *PlanBenefitSnapshot) benefit(id string) *domain.Benefit {
	for i := range s.Benefits {
		if s.Benefits[i].ID == id {
			return &s.Benefits[i]
		}
	}
	return nil
}

// limitRow returns the most specific PlanBenefitLimit matching the member.
// Equal specificity keeps the first row.
func (s *PlanBenefitSnapshot) limitRow(planBenefitID string, mt domain.MemberType, age int) *domain.PlanBenefitLimit {
	var best *domain.PlanBenefitLimit
	for i := range s.Limits {
		l := &s.Limits[i]
		if l.PlanBenefitID != planBenefitID || !l.Matches(mt, age) {
			continue
		}
		if best == nil || l.Specificity() > best.Specificity() {
			best = l
		}
	}
	return best
}

// EligibilityEvaluator answers claim-eligibility queries. Each query runs
// lookup, coverage, applicability, exclusion, waiting period and limit
// checks in that order and stops at the first failure.
type EligibilityEvaluator struct {
	logger Logger
}

// NewEligibilityEvaluator creates an eligibility evaluator
func NewEligibilityEvaluator() *EligibilityEvaluator {
	return &EligibilityEvaluator{logger: NopLogger{}}
}

// SetLogger sets the logger used for debug tracing
func (ev *EligibilityEvaluator) SetLogger(l Logger) {
	if l == nil {
		l = NopLogger{}
	}
	ev.logger = l
}

func ineligible(benefitID string, reason domain.ReasonCode, format string, args ...any) *domain.EligibilityVerdict {
	return &domain.EligibilityVerdict{
		Eligible:  false,
		Reason:    reason,
		Message:   fmt.Sprintf(format, args...),
		BenefitID: benefitID,
	}
}

// day truncates to a calendar date in the value's own location
func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b. Both dates are read as
// civil dates, so a DST shift in their zone does not lose a day.
func daysBetween(a, b time.Time) int {
	from := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from) / (24 * time.Hour))
}

// Evaluate runs the eligibility state machine for one claim. A negative
// verdict is returned, not raised; errors are configuration or input
// problems only.
func (ev *EligibilityEvaluator) Evaluate(snap PlanBenefitSnapshot, claim domain.ClaimRequest) (*domain.EligibilityVerdict, error) {
	if claim.Amount.IsNegative() {
		return nil, domain.NewValidationError(domain.CodeInvalidClaim, "amount", "claim amount cannot be negative")
	}
	if claim.Visits < 0 || claim.Days < 0 {
		return nil, domain.NewValidationError(domain.CodeInvalidClaim, "visits", "visits and days cannot be negative")
	}
	member := claim.Member

	pb := snap.planBenefit(claim.PlanID, claim.BenefitID)
	if pb == nil {
		return ineligible(claim.BenefitID, domain.ReasonNotInPlan, "benefit %s is not part of plan %s", claim.BenefitID, claim.PlanID), nil
	}
	benefit := snap.benefit(pb.BenefitID)
	if benefit == nil {
		return nil, domain.NewConfigurationError(domain.CodeUnknownBenefit,
			"plan benefit %s references unknown benefit %s", pb.ID, pb.BenefitID)
	}

	if !pb.IsCovered {
		return ineligible(benefit.ID, domain.ReasonNotCovered, "%s is not covered by plan %s", benefit.Name, claim.PlanID), nil
	}

	if !benefit.AppliesTo(member.Type) {
		return ineligible(benefit.ID, domain.ReasonMemberType, "%s is not available to %s members", benefit.Name, member.Type), nil
	}
	if benefit.LimitBasis == domain.BasisPrincipalOnly && !member.IsPrincipal() {
		return ineligible(benefit.ID, domain.ReasonPrincipalOnly, "%s is available to the principal member only", benefit.Name), nil
	}

	if v := ev.checkExclusions(snap, benefit, &member, claim); v != nil {
		return v, nil
	}

	if v := ev.checkWaiting(pb, benefit, &member, claim.Date); v != nil {
		return v, nil
	}

	verdict, err := ev.checkLimit(snap, pb, benefit, claim, domain.ReasonLimitExceeded)
	if err != nil || !verdict.Eligible {
		return verdict, err
	}

	if v, err := ev.checkParents(snap, pb, claim); err != nil || v != nil {
		return v, err
	}

	verdict.RequiresPreauthorization = benefit.RequiresPreauthorization
	verdict.RequiresReferral = benefit.RequiresReferral
	share := memberShare(pb, claim.Amount)
	payable := roundMoney(claim.Amount.Sub(share))
	verdict.MemberShare = &share
	verdict.Payable = &payable

	ev.logger.Debugf("eligibility member=%s benefit=%s eligible=%t reason=%s", member.ID, benefit.ID, verdict.Eligible, verdict.Reason)
	return verdict, nil
}

func (ev *EligibilityEvaluator) checkExclusions(snap PlanBenefitSnapshot, benefit *domain.Benefit, member *domain.Member, claim domain.ClaimRequest) *domain.EligibilityVerdict {
	for _, ex := range snap.Exclusions {
		if !ex.IsActive || (ex.BenefitID != "" && ex.BenefitID != benefit.ID) {
			continue
		}
		switch ex.ExclusionType {
		case domain.ExclusionTimeLimited:
			end := day(member.CoverStartDate).AddDate(0, 0, ex.ExclusionPeriodDays)
			if day(claim.Date).Before(end) {
				v := ineligible(benefit.ID, domain.ReasonExcluded, "%s is excluded until %s (%s)", benefit.Name, end.Format("2006-01-02"), ex.Name)
				v.WaitingEndDate = &end
				return v
			}
		default:
			return ineligible(benefit.ID, domain.ReasonExcluded, "%s is excluded: %s", benefit.Name, ex.Name)
		}
	}

	for i := range member.Exclusions {
		rec := &member.Exclusions[i]
		if !rec.ActiveOn(claim.Date) {
			continue
		}
		benefitMatch := rec.BenefitID != "" && rec.BenefitID == benefit.ID
		codeMatch := rec.ICDCode != "" && claim.DiagnosisCode != "" && strings.EqualFold(rec.ICDCode, claim.DiagnosisCode)
		if benefitMatch || codeMatch {
			return ineligible(benefit.ID, domain.ReasonMemberExclusion, "member %s has an exclusion for %s", member.ID, rec.Condition)
		}
	}
	return nil
}

func (ev *EligibilityEvaluator) checkWaiting(pb *domain.PlanBenefit, benefit *domain.Benefit, member *domain.Member, at time.Time) *domain.EligibilityVerdict {
	waitingDays, _, _ := Resolve(
		From("plan_benefit", pb.WaitingPeriodDays),
		From("benefit", &benefit.WaitingPeriodDays),
	)
	if waitingDays <= 0 {
		return nil
	}
	end := day(member.CoverStartDate).AddDate(0, 0, waitingDays)
	today := day(at)
	if !today.Before(end) {
		return nil
	}
	remaining := daysBetween(today, end)
	v := ineligible(benefit.ID, domain.ReasonWaitingPeriod, "%s is in its waiting period until %s (%d days remaining)",
		benefit.Name, end.Format("2006-01-02"), remaining)
	v.WaitingEndDate = &end
	v.WaitingDaysRemaining = remaining
	return v
}

// checkLimit checks one plan benefit's limit. failReason distinguishes the
// claimed benefit's own limit from an overall parent limit.
func (ev *EligibilityEvaluator) checkLimit(snap PlanBenefitSnapshot, pb *domain.PlanBenefit, benefit *domain.Benefit, claim domain.ClaimRequest, failReason domain.ReasonCode) (*domain.EligibilityVerdict, error) {
	limitType := pb.LimitType
	if limitType == "" {
		limitType = benefit.LimitType
	}
	verdict := &domain.EligibilityVerdict{
		Eligible:  true,
		Reason:    domain.ReasonEligible,
		Message:   "eligible",
		BenefitID: claim.BenefitID,
		LimitType: limitType,
	}
	if limitType == domain.LimitUnlimited {
		return verdict, nil
	}

	member := claim.Member
	row := snap.limitRow(pb.ID, member.Type, member.AgeOn(claim.Date))
	if row == nil {
		row = &domain.PlanBenefitLimit{}
	}

	if perClaim, _, ok := Resolve(From("limit_row", row.PerClaimLimit), From("plan_benefit", pb.PerClaimLimit)); ok && claim.Amount.GreaterThan(perClaim) {
		v := ineligible(claim.BenefitID, domain.ReasonPerClaimLimit, "claim of %s exceeds the per-claim limit of %s for %s",
			claim.Amount.StringFixed(2), perClaim.StringFixed(2), benefit.Name)
		v.Limit = decimalPtr(perClaim)
		return v, nil
	}
	if pb.PerDayLimit != nil && claim.Days > 0 {
		perDay := pb.PerDayLimit.Mul(decimal.NewFromInt(int64(claim.Days)))
		if claim.Amount.GreaterThan(perDay) {
			v := ineligible(claim.BenefitID, domain.ReasonPerClaimLimit, "claim of %s exceeds %s per day over %d days for %s",
				claim.Amount.StringFixed(2), pb.PerDayLimit.StringFixed(2), claim.Days, benefit.Name)
			v.Limit = decimalPtr(perDay)
			return v, nil
		}
	}

	usage := claim.UsageFor(benefit.ID)
	switch limitType {
	case domain.LimitAmount:
		return ev.amountCheck(verdict, row, pb, benefit, claim.Amount, usage, failReason)
	case domain.LimitVisits:
		return ev.countCheck(verdict, "visits", failReason, benefit,
			[]Candidate[int]{From("limit_row", row.LimitCount), From("plan_benefit", pb.LimitCount), From("benefit", benefit.LimitCount)},
			usage.CountUsed, defaultOne(claim.Visits))
	case domain.LimitDays:
		return ev.countCheck(verdict, "days", failReason, benefit,
			[]Candidate[int]{From("limit_row", row.LimitDays), From("plan_benefit", pb.LimitDays), From("benefit", benefit.LimitDays)},
			usage.DaysUsed, defaultOne(claim.Days))
	case domain.LimitCombined:
		v, err := ev.amountCheck(verdict, row, pb, benefit, claim.Amount, usage, failReason)
		if err != nil || !v.Eligible {
			return v, err
		}
		count, _, ok := Resolve(From("limit_row", row.LimitCount), From("plan_benefit", pb.LimitCount), From("benefit", benefit.LimitCount))
		if ok && usage.CountUsed+defaultOne(claim.Visits) > count {
			fail := ineligible(claim.BenefitID, failReason, "%s visit limit of %d reached (%d used)", benefit.Name, count, usage.CountUsed)
			fail.LimitType = limitType
			return fail, nil
		}
		return v, nil
	}
	return nil, domain.NewConfigurationError(domain.CodeLimitNotConfigured,
		"plan benefit %s has unknown limit type %q", pb.ID, limitType)
}

func (ev *EligibilityEvaluator) amountCheck(verdict *domain.EligibilityVerdict, row *domain.PlanBenefitLimit, pb *domain.PlanBenefit, benefit *domain.Benefit, amount decimal.Decimal, usage domain.BenefitUsage, failReason domain.ReasonCode) (*domain.EligibilityVerdict, error) {
	limit, source, ok := Resolve(
		From("limit_row", row.LimitAmount),
		From("plan_benefit", pb.LimitAmount),
		From("benefit", benefit.LimitAmount),
	)
	if !ok {
		return nil, domain.NewConfigurationError(domain.CodeLimitNotConfigured,
			"plan benefit %s has an amount limit but no limit amount is configured", pb.ID)
	}
	used := usage.AmountUsed
	remaining := maxDecimal(decimal.Zero, limit.Sub(used))

	verdict.Limit = decimalPtr(limit)
	verdict.Used = decimalPtr(used)
	verdict.LimitFrom = source
	if amount.GreaterThan(remaining) {
		verdict.Eligible = false
		verdict.Reason = failReason
		verdict.Message = fmt.Sprintf("claim of %s exceeds the remaining %s of %s limit %s",
			amount.StringFixed(2), remaining.StringFixed(2), benefit.Name, limit.StringFixed(2))
		verdict.Remaining = decimalPtr(remaining)
		return verdict, nil
	}
	verdict.Remaining = decimalPtr(remaining.Sub(amount))
	return verdict, nil
}

func (ev *EligibilityEvaluator) countCheck(verdict *domain.EligibilityVerdict, unit string, failReason domain.ReasonCode, benefit *domain.Benefit, candidates []Candidate[int], used, requested int) (*domain.EligibilityVerdict, error) {
	limit, source, ok := Resolve(candidates...)
	if !ok {
		return nil, domain.NewConfigurationError(domain.CodeLimitNotConfigured,
			"benefit %s has a %s limit but no %s count is configured", benefit.ID, unit, unit)
	}
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	verdict.Limit = decimalPtr(decimal.NewFromInt(int64(limit)))
	verdict.Used = decimalPtr(decimal.NewFromInt(int64(used)))
	verdict.LimitFrom = source
	if requested > remaining {
		verdict.Eligible = false
		verdict.Reason = failReason
		verdict.Message = fmt.Sprintf("%s allows %d %s, %d remaining", benefit.Name, limit, unit, remaining)
		verdict.Remaining = decimalPtr(decimal.NewFromInt(int64(remaining)))
		return verdict, nil
	}
	verdict.Remaining = decimalPtr(decimal.NewFromInt(int64(remaining - requested)))
	return verdict, nil
}

// checkParents checks each overall limit above the claimed plan benefit,
// nearest first. Each ancestor is measured against its own benefit's usage.
func (ev *EligibilityEvaluator) checkParents(snap PlanBenefitSnapshot, pb *domain.PlanBenefit, claim domain.ClaimRequest) (*domain.EligibilityVerdict, error) {
	ancestors, err := PlanBenefitParents(snap.PlanBenefits).Ancestors("plan benefit", pb.ID)
	if err != nil {
		return nil, err
	}
	for _, id := range ancestors {
		parent := snap.planBenefitByID(id)
		benefit := snap.benefit(parent.BenefitID)
		if benefit == nil {
			return nil, domain.NewConfigurationError(domain.CodeUnknownBenefit,
				"plan benefit %s references unknown benefit %s", parent.ID, parent.BenefitID)
		}
		v, err := ev.checkLimit(snap, parent, benefit, claim, domain.ReasonParentLimit)
		if err != nil {
			return nil, err
		}
		if !v.Eligible {
			v.BenefitID = claim.BenefitID
			v.Message = fmt.Sprintf("overall %s limit: %s", benefit.Name, v.Message)
			return v, nil
		}
	}
	return nil, nil
}

// memberShare is copay plus coinsurance, never more than the claim
func memberShare(pb *domain.PlanBenefit, amount decimal.Decimal) decimal.Decimal {
	share := decimal.Zero
	if pb.CopayAmount != nil {
		share = share.Add(*pb.CopayAmount)
	}
	if pb.CoinsurancePercent != nil {
		share = share.Add(percentOf(amount, *pb.CoinsurancePercent))
	}
	return roundMoney(minDecimal(share, amount))
}

func defaultOne(n int) int {
	if n <= 0 {
		return 1
	}
	return n
}
