package compare

import (
	"encoding/csv"
	"strings"
)

// CSVFormatter formats comparison results as CSV
type CSVFormatter struct{}

// Format generates CSV output for comparison results
func (cf *CSVFormatter) Format(compSet *ComparisonSet) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	header := []string{
		"Plan",
		"Type",
		"Rate Card",
		"Currency",
		"Annual Gross",
		"Annual Discount",
		"Annual Addons",
		"Billed",
		"Billed As",
		"Diff from Base",
		"% Change",
		"Promo Dropped",
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	if compSet.BaseResult != nil {
		if err := writer.Write(cf.formatRow(compSet.BaseResult, "base")); err != nil {
			return "", err
		}
	}

	for _, alt := range compSet.AlternativeResults {
		if err := writer.Write(cf.formatRow(&alt, "alternative")); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return sb.String(), nil
}

// formatRow formats a plan result as a CSV row
func (cf *CSVFormatter) formatRow(result *PlanResult, planType string) []string {
	return []string{
		result.PlanID,
		planType,
		result.RateCardID,
		result.Currency,
		result.AnnualGross.StringFixed(2),
		result.AnnualDiscount.StringFixed(2),
		result.AnnualAddons.StringFixed(2),
		result.Billed.StringFixed(2),
		string(result.BilledAs),
		result.DiffFromBase.StringFixed(2),
		result.PctFromBase.StringFixed(2),
		result.PromoDropped,
	}
}
