package compare

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TableFormatter formats comparison results as a console table
type TableFormatter struct{}

// Format generates a formatted table comparing plans
func (tf *TableFormatter) Format(compSet *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString("PLAN PREMIUM COMPARISON\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Base Plan: %s\n", compSet.BasePlanID))
	if compSet.CatalogPath != "" {
		sb.WriteString(fmt.Sprintf("Catalog: %s\n", compSet.CatalogPath))
	}
	sb.WriteString("\n")

	nameWidth := 22
	numWidth := 14

	sb.WriteString(fmt.Sprintf("%-*s %*s %*s %*s %*s\n",
		nameWidth, "Plan",
		numWidth, "Annual Gross",
		numWidth, "Discounts",
		numWidth, "Addons",
		numWidth, "Billed"))
	sb.WriteString(strings.Repeat("-", 80) + "\n")

	if compSet.BaseResult != nil {
		sb.WriteString(tf.formatRow(compSet.BaseResult, nameWidth, numWidth, true))
	}

	if len(compSet.AlternativeResults) > 0 {
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, alt := range compSet.AlternativeResults {
			sb.WriteString(tf.formatRow(&alt, nameWidth, numWidth, false))
		}
	}

	sb.WriteString(strings.Repeat("=", 80) + "\n")

	if len(compSet.AlternativeResults) > 0 {
		sb.WriteString("\nCOMPARISON TO BASE\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")

		for _, alt := range compSet.AlternativeResults {
			sb.WriteString(fmt.Sprintf("\n%s:\n", alt.PlanID))
			sb.WriteString(fmt.Sprintf("  Annual Premium:  %s%s (%s%%)\n",
				tf.deltaSymbol(alt.DiffFromBase),
				tf.formatDecimal(alt.DiffFromBase.Abs()),
				alt.PctFromBase.StringFixed(1)))
			if alt.PromoDropped != "" {
				sb.WriteString(fmt.Sprintf("  Promo:           not applied (%s)\n", alt.PromoDropped))
			}
		}
		sb.WriteString("\n")
	}

	if len(compSet.Recommendations) > 0 {
		sb.WriteString("\nRECOMMENDATIONS\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, rec := range compSet.Recommendations {
			sb.WriteString(fmt.Sprintf("• %s\n", rec))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatRow formats a single plan row
func (tf *TableFormatter) formatRow(result *PlanResult, nameWidth, numWidth int, isBase bool) string {
	name := result.PlanID
	if isBase {
		name += " (base)"
	}

	return fmt.Sprintf("%-*s %*s %*s %*s %*s\n",
		nameWidth, tf.truncate(name, nameWidth),
		numWidth, tf.formatDecimal(result.AnnualGross),
		numWidth, tf.formatDecimal(result.AnnualDiscount),
		numWidth, tf.formatDecimal(result.AnnualAddons),
		numWidth, tf.formatDecimal(result.Billed)+" "+string(result.BilledAs))
}

// formatDecimal formats a decimal for display (in thousands)
func (tf *TableFormatter) formatDecimal(d decimal.Decimal) string {
	if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000000)) {
		millions := d.Div(decimal.NewFromInt(1000000))
		return millions.StringFixed(2) + "M"
	} else if d.Abs().GreaterThanOrEqual(decimal.NewFromInt(1000)) {
		thousands := d.Div(decimal.NewFromInt(1000))
		return thousands.StringFixed(1) + "K"
	}
	return d.StringFixed(0)
}

// deltaSymbol returns + for a more expensive plan and - for a cheaper one
func (tf *TableFormatter) deltaSymbol(delta decimal.Decimal) string {
	if delta.IsPositive() {
		return "+"
	} else if delta.IsNegative() {
		return "-"
	}
	return " "
}

// truncate truncates a string to maxLen
func (tf *TableFormatter) truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// FormatCompact creates a compact single-line summary for each plan
func (tf *TableFormatter) FormatCompact(compSet *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Base: %s | ", compSet.BasePlanID))

	for i, alt := range compSet.AlternativeResults {
		if i > 0 {
			sb.WriteString(" | ")
		}
		change := "="
		if alt.DiffFromBase.IsPositive() {
			change = fmt.Sprintf("+%s", tf.formatDecimal(alt.DiffFromBase))
		} else if alt.DiffFromBase.IsNegative() {
			change = fmt.Sprintf("-%s", tf.formatDecimal(alt.DiffFromBase.Abs()))
		}

		sb.WriteString(fmt.Sprintf("%s: %s", alt.PlanID, change))
	}

	return sb.String()
}
