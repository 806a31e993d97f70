package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rgehrsitz/medrate/internal/calculation"
	"github.com/rgehrsitz/medrate/internal/domain"
	"github.com/shopspring/decimal"
)

// ConsoleFormatter renders a human-readable report styled with lipgloss.
// Styles degrade to plain text when stdout is not a terminal.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(r *Report) ([]byte, error) {
	var buf bytes.Buffer

	switch r.Kind {
	case KindQuote:
		writeQuote(&buf, r.Quote)
	case KindEligibility:
		writeVerdict(&buf, r.Eligibility)
	case KindDiagnostics:
		writeDiagnostics(&buf, r.Diagnostics)
	default:
		return nil, fmt.Errorf("unknown report kind: %s", r.Kind)
	}

	fmt.Fprintln(&buf)
	fmt.Fprintln(&buf, mutedStyle.Render("Reference: "+r.Reference))
	return buf.Bytes(), nil
}

func writeQuote(buf *bytes.Buffer, q *domain.QuoteResult) {
	b := q.Breakdown
	cur := b.Currency

	fmt.Fprintln(buf, titleStyle.Render("PREMIUM QUOTE"))
	fmt.Fprintln(buf, keyValue("Plan", q.PlanID))
	fmt.Fprintln(buf, keyValue("Rate card", q.RateCardID))
	fmt.Fprintln(buf, keyValue("Premium basis", string(b.Basis)))
	fmt.Fprintln(buf, keyValue("Rate card frequency", string(b.Frequency)))
	fmt.Fprintln(buf)

	fmt.Fprintln(buf, sectionStyle.Render("MEMBERS"))
	fmt.Fprintf(buf, "  %-12s %-10s %4s %-12s %6s %14s %12s %14s\n",
		"Member", "Type", "Age", "Rate entry", "Factor", "Base", "Loading", "Total")
	for _, m := range b.PerMember {
		fmt.Fprintf(buf, "  %-12s %-10s %4d %-12s %6s %14s %12s %14s\n",
			m.MemberID, m.MemberType, m.RatingAge, m.RateEntryID, m.Factor.String(),
			m.Base.StringFixed(2), m.Loading.StringFixed(2), m.Total.StringFixed(2))
	}
	if b.Tier != nil {
		t := b.Tier
		fmt.Fprintf(buf, "  Tier %s (%s): %d members, tier premium %s",
			t.TierID, t.Name, t.MemberCount, FormatCurrency(cur, t.TierPremium))
		if t.ExtraMembers > 0 {
			fmt.Fprintf(buf, " + %d extra at %s", t.ExtraMembers, FormatCurrency(cur, t.ExtraPremium))
		}
		fmt.Fprintln(buf)
	}
	fmt.Fprintln(buf)

	if len(b.PerAddon) > 0 {
		fmt.Fprintln(buf, sectionStyle.Render("ADDONS"))
		for _, a := range b.PerAddon {
			note := string(a.PricingType)
			switch {
			case a.IsIncluded:
				note = "included"
			case a.IsMandatory:
				note += ", mandatory"
			}
			fmt.Fprintf(buf, "  %-24s %14s  %s\n", a.Name, a.Amount.StringFixed(2), mutedStyle.Render(note))
		}
		fmt.Fprintln(buf)
	}

	if len(q.Discounts.AppliedRules) > 0 || len(q.Discounts.SkippedRules) > 0 || q.Promo != nil {
		fmt.Fprintln(buf, sectionStyle.Render("DISCOUNTS & LOADINGS"))
		for _, ar := range q.Discounts.AppliedRules {
			writeAppliedRule(buf, ar)
		}
		if q.Promo != nil {
			fmt.Fprintf(buf, "  promo %-18s %14s  %s\n", q.Promo.Code, signedAmount(q.Promo.Rule), mutedStyle.Render(q.Promo.Rule.Name))
		}
		for _, sr := range q.Discounts.SkippedRules {
			fmt.Fprintln(buf, warningStyle.Render(fmt.Sprintf("  skipped %s: %s", sr.Code, sr.Reason)))
		}
		fmt.Fprintln(buf)
	}

	lines := []string{
		keyValue("Base", FormatCurrency(cur, b.Base)),
		keyValue("Addons", FormatCurrency(cur, b.Addon)),
		keyValue("Member loadings", FormatCurrency(cur, b.Loading)),
	}
	if !b.RuleLoading.IsZero() {
		lines = append(lines, keyValue("Rule loadings", FormatCurrency(cur, b.RuleLoading)))
	}
	lines = append(lines,
		keyValue("Discounts", "-"+FormatCurrency(cur, b.Discount)),
		keyValue("Subtotal", FormatCurrency(cur, b.Subtotal)),
		keyValue("Tax ("+FormatPercentage(b.TaxRate.Mul(decimal.NewFromInt(100)))+")", FormatCurrency(cur, b.Tax)),
		keyValue("Gross ("+string(b.Frequency)+")", FormatCurrency(cur, b.Gross)),
		keyValue("Annualized", FormatCurrency(cur, b.Annualized)),
		positiveStyle.Render(fmt.Sprintf("Billed %s: %s", q.BilledAs, FormatCurrency(cur, q.Billed))),
	)
	fmt.Fprintln(buf, summaryBoxStyle.Render(strings.Join(lines, "\n")))

	if q.Promo != nil {
		fmt.Fprintln(buf, mutedStyle.Render(fmt.Sprintf("Promo %s redeemed: %d uses after this quote", q.Promo.Code, q.Promo.Redemption.UsesCount)))
	}
}

func writeAppliedRule(buf *bytes.Buffer, ar domain.AppliedRule) {
	label := ar.Code
	if label == "" {
		label = ar.RuleID
	}
	fmt.Fprintf(buf, "  %-24s %14s  %s\n", label, signedAmount(ar),
		mutedStyle.Render(fmt.Sprintf("%s on %s (%s -> %s)", ar.Name, ar.AppliesTo,
			ar.PremiumBefore.StringFixed(2), ar.PremiumAfter.StringFixed(2))))
}

func signedAmount(ar domain.AppliedRule) string {
	if ar.Kind == domain.KindLoading {
		return "+" + ar.Amount.StringFixed(2)
	}
	return "-" + ar.Amount.StringFixed(2)
}

func writeVerdict(buf *bytes.Buffer, v *domain.EligibilityVerdict) {
	fmt.Fprintln(buf, titleStyle.Render("CLAIM ELIGIBILITY"))
	fmt.Fprintln(buf, keyValue("Benefit", v.BenefitID))
	if v.Eligible {
		fmt.Fprintln(buf, labelStyle.Render("Verdict")+positiveStyle.Render("ELIGIBLE"))
	} else {
		fmt.Fprintln(buf, labelStyle.Render("Verdict")+negativeStyle.Render("NOT ELIGIBLE"))
	}
	fmt.Fprintln(buf, keyValue("Reason", string(v.Reason)))
	if v.Message != "" {
		fmt.Fprintln(buf, keyValue("Detail", v.Message))
	}

	if v.Limit != nil {
		limit := v.Limit.StringFixed(2)
		if v.LimitType == domain.LimitVisits || v.LimitType == domain.LimitDays {
			limit = v.Limit.String()
		}
		if v.LimitFrom != "" {
			limit += " (" + v.LimitFrom + ")"
		}
		fmt.Fprintln(buf, keyValue("Limit", limit))
	}
	if v.Used != nil {
		fmt.Fprintln(buf, keyValue("Used", v.Used.String()))
	}
	if v.Remaining != nil {
		fmt.Fprintln(buf, keyValue("Remaining", v.Remaining.String()))
	}
	if v.WaitingEndDate != nil {
		waiting := formatDate(v.WaitingEndDate)
		if v.WaitingDaysRemaining > 0 {
			waiting += fmt.Sprintf(" (%d days remaining)", v.WaitingDaysRemaining)
		}
		fmt.Fprintln(buf, keyValue("Waiting period ends", waiting))
	}
	if v.RequiresPreauthorization {
		fmt.Fprintln(buf, warningStyle.Render("Requires preauthorization"))
	}
	if v.RequiresReferral {
		fmt.Fprintln(buf, warningStyle.Render("Requires referral"))
	}
	if v.MemberShare != nil {
		fmt.Fprintln(buf, keyValue("Member share", v.MemberShare.StringFixed(2)))
	}
	if v.Payable != nil {
		fmt.Fprintln(buf, keyValue("Payable", v.Payable.StringFixed(2)))
	}
}

func writeDiagnostics(buf *bytes.Buffer, d *calculation.Diagnostics) {
	fmt.Fprintln(buf, titleStyle.Render("CATALOG DIAGNOSTICS"))
	fmt.Fprintln(buf, keyValue("As of", d.AsOf.Format("2006-01-02")))
	if d.Clean() {
		fmt.Fprintln(buf, positiveStyle.Render("No findings"))
		return
	}

	section := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintln(buf)
		fmt.Fprintln(buf, sectionStyle.Render(title))
		for _, it := range items {
			fmt.Fprintf(buf, "  • %s\n", it)
		}
	}

	var entries, tiers, loadings, plans []string
	for _, o := range d.EntryOverlaps {
		entries = append(entries, o.String())
	}
	for _, o := range d.TierOverlaps {
		tiers = append(tiers, fmt.Sprintf("rate card %s: tiers %s and %s overlap", o.CardID, o.First, o.Second))
	}
	for _, o := range d.LoadingOverlaps {
		loadings = append(loadings, o.String())
	}
	for _, p := range d.PlanIssues {
		plans = append(plans, fmt.Sprintf("%s [%s]: %s", p.PlanID, p.Code, p.Message))
	}

	section("OVERLAPPING RATE ENTRIES", entries)
	section("OVERLAPPING TIERS", tiers)
	section("AMBIGUOUS LOADING RULES", loadings)
	section("UNQUOTABLE PLANS", plans)
	fmt.Fprintln(buf)
	fmt.Fprintln(buf, warningStyle.Render(fmt.Sprintf("%d findings", d.Count())))
}
