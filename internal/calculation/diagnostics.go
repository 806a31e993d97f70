package calculation

import (
	"time"

	"github.com/rgehrsitz/medrate/internal/domain"
)

// PlanIssue is a plan that cannot be quoted on the diagnostic date
type PlanIssue struct {
	PlanID  string `json:"planId"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Diagnostics lists catalog configuration that is legal but likely
// unintended. Nothing here stops a quote; lookups resolve these cases by
// documented first-match rules.
type Diagnostics struct {
	AsOf            time.Time        `json:"asOf"`
	EntryOverlaps   []EntryOverlap   `json:"entryOverlaps"`
	TierOverlaps    []EntryOverlap   `json:"tierOverlaps"`
	LoadingOverlaps []LoadingOverlap `json:"loadingOverlaps"`
	PlanIssues      []PlanIssue      `json:"planIssues"`
}

// Clean reports whether no findings were recorded
func (d *Diagnostics) Clean() bool {
	return len(d.EntryOverlaps) == 0 && len(d.TierOverlaps) == 0 &&
		len(d.LoadingOverlaps) == 0 && len(d.PlanIssues) == 0
}

// Count is the total number of findings
func (d *Diagnostics) Count() int {
	return len(d.EntryOverlaps) + len(d.TierOverlaps) + len(d.LoadingOverlaps) + len(d.PlanIssues)
}

// Diagnose scans a catalog for overlapping rate bands and tiers, loading
// rules one identifier could select more than once, and plans without a
// single active rate card on asOf.
func (e *Engine) Diagnose(cat *domain.Catalog, asOf time.Time) *Diagnostics {
	d := &Diagnostics{AsOf: asOf}

	for i := range cat.RateCards {
		card := &cat.RateCards[i]
		if !card.IsActive {
			continue
		}
		d.EntryOverlaps = append(d.EntryOverlaps, e.Rates.OverlappingEntries(card)...)
		d.TierOverlaps = append(d.TierOverlaps, e.Rates.OverlappingTiers(card)...)
	}

	d.LoadingOverlaps = NewLoadingEngine(cat.LoadingRules).CatalogOverlaps()

	for _, p := range cat.Plans {
		if _, err := e.Rates.ActiveRateCard(cat.RateCards, p.ID, asOf); err != nil {
			d.PlanIssues = append(d.PlanIssues, PlanIssue{
				PlanID:  p.ID,
				Code:    domain.ErrorCode(err),
				Message: err.Error(),
			})
		}
	}

	e.Logger.Debugf("diagnostics for %s: %d findings", asOf.Format("2006-01-02"), d.Count())
	return d
}
