package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
)

// CSVFormatter renders a report as flat CSV: one row per line item for
// quotes and diagnostics, one row per verdict.
type CSVFormatter struct{}

func (c CSVFormatter) Name() string { return "csv" }

func (c CSVFormatter) Format(r *Report) ([]byte, error) {
	var rows [][]string
	switch r.Kind {
	case KindQuote:
		rows = quoteRows(r)
	case KindEligibility:
		rows = verdictRows(r)
	case KindDiagnostics:
		rows = diagnosticRows(r)
	default:
		return nil, fmt.Errorf("unknown report kind: %s", r.Kind)
	}

	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func quoteRows(r *Report) [][]string {
	q := r.Quote
	b := q.Breakdown
	rows := [][]string{{"Reference", "Section", "ID", "Description", "Amount"}}
	add := func(section, id, desc, amount string) {
		rows = append(rows, []string{r.Reference, section, id, desc, amount})
	}

	for _, m := range b.PerMember {
		add("member", m.MemberID, fmt.Sprintf("%s age %d entry %s", m.MemberType, m.RatingAge, m.RateEntryID), m.Total.StringFixed(2))
	}
	if b.Tier != nil {
		add("tier", b.Tier.TierID, fmt.Sprintf("%s, %d members", b.Tier.Name, b.Tier.MemberCount), b.Tier.Total.StringFixed(2))
	}
	for _, a := range b.PerAddon {
		add("addon", a.AddonID, string(a.PricingType), a.Amount.StringFixed(2))
	}
	for _, ar := range q.Discounts.AppliedRules {
		add(string(ar.Kind), ar.RuleID, ar.Name, ar.Amount.StringFixed(2))
	}
	if q.Promo != nil {
		add("promo", q.Promo.Code, q.Promo.Rule.Name, q.Promo.Amount.StringFixed(2))
	}
	add("summary", "base", "", b.Base.StringFixed(2))
	add("summary", "addon", "", b.Addon.StringFixed(2))
	add("summary", "loading", "", b.Loading.StringFixed(2))
	add("summary", "rule_loading", "", b.RuleLoading.StringFixed(2))
	add("summary", "discount", "", b.Discount.StringFixed(2))
	add("summary", "subtotal", "", b.Subtotal.StringFixed(2))
	add("summary", "tax", b.TaxRate.String(), b.Tax.StringFixed(2))
	add("summary", "gross", string(b.Frequency), b.Gross.StringFixed(2))
	add("summary", "billed", string(q.BilledAs), q.Billed.StringFixed(2))
	return rows
}

func verdictRows(r *Report) [][]string {
	v := r.Eligibility
	header := []string{
		"Reference", "BenefitID", "Eligible", "Reason", "Message", "LimitType", "Limit", "Used", "Remaining",
		"LimitFrom", "WaitingEndDate", "WaitingDaysRemaining", "RequiresPreauthorization", "RequiresReferral",
		"MemberShare", "Payable",
	}
	row := []string{
		r.Reference,
		v.BenefitID,
		strconv.FormatBool(v.Eligible),
		string(v.Reason),
		v.Message,
		string(v.LimitType),
		decimalOrBlank(v.Limit),
		decimalOrBlank(v.Used),
		decimalOrBlank(v.Remaining),
		v.LimitFrom,
		formatDate(v.WaitingEndDate),
		strconv.Itoa(v.WaitingDaysRemaining),
		strconv.FormatBool(v.RequiresPreauthorization),
		strconv.FormatBool(v.RequiresReferral),
		decimalOrBlank(v.MemberShare),
		decimalOrBlank(v.Payable),
	}
	return [][]string{header, row}
}

func diagnosticRows(r *Report) [][]string {
	d := r.Diagnostics
	rows := [][]string{{"Reference", "Finding", "Subject", "First", "Second", "Detail"}}
	for _, o := range d.EntryOverlaps {
		rows = append(rows, []string{r.Reference, "entry_overlap", o.CardID, o.First, o.Second, ""})
	}
	for _, o := range d.TierOverlaps {
		rows = append(rows, []string{r.Reference, "tier_overlap", o.CardID, o.First, o.Second, ""})
	}
	for _, o := range d.LoadingOverlaps {
		rows = append(rows, []string{r.Reference, "loading_overlap", "", o.First, o.Second, o.Reason})
	}
	for _, p := range d.PlanIssues {
		rows = append(rows, []string{r.Reference, "plan_issue", p.PlanID, p.Code, "", p.Message})
	}
	return rows
}
