package compare

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rgehrsitz/medrate/internal/calculation"
	"github.com/rgehrsitz/medrate/internal/domain"
	"golang.org/x/sync/errgroup"
)

// CompareEngine prices one household against several plans
type CompareEngine struct {
	CalcEngine        *calculation.Engine
	MetricsCalculator *MetricsCalculator
}

// NewCompareEngine creates a new comparison engine
func NewCompareEngine(calcEngine *calculation.Engine) *CompareEngine {
	return &CompareEngine{
		CalcEngine:        calcEngine,
		MetricsCalculator: NewMetricsCalculator(),
	}
}

// CompareOptions configures comparison behavior
type CompareOptions struct {
	BasePlanID  string   // plan the others are compared against
	PlanIDs     []string // alternatives; the base is skipped if repeated
	CatalogPath string   // recorded on the result for display
}

// Compare quotes the request's household against the base plan and each
// alternative concurrently. The request's PlanID is ignored. A promo code
// the plan is not eligible for is dropped for that plan rather than
// failing the comparison; any other error aborts it.
func (ce *CompareEngine) Compare(
	ctx context.Context,
	cat *domain.Catalog,
	req domain.QuoteRequest,
	options CompareOptions,
) (*ComparisonSet, error) {
	if options.BasePlanID == "" {
		return nil, fmt.Errorf("base plan is required")
	}

	planIDs := []string{options.BasePlanID}
	seen := map[string]bool{options.BasePlanID: true}
	for _, id := range options.PlanIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		planIDs = append(planIDs, id)
	}

	plans := make([]domain.Plan, len(planIDs))
	for i, id := range planIDs {
		plan, ok := cat.PlanByID(id)
		if !ok {
			return nil, fmt.Errorf("plan %s not found in catalog: %w", id,
				domain.NewConfigurationError(domain.CodeUnknownPlan, "plan %q is not in the catalog", id))
		}
		plans[i] = plan
	}

	results := make([]PlanResult, len(plans))
	g, gctx := errgroup.WithContext(ctx)
	for i, plan := range plans {
		i, plan := i, plan
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			result, err := ce.pricePlan(cat, req, plan)
			if err != nil {
				return fmt.Errorf("failed to price plan %s: %w", plan.ID, err)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	baseResult := results[0]
	alternatives := make([]PlanResult, 0, len(results)-1)
	for _, r := range results[1:] {
		alternatives = append(alternatives, ce.MetricsCalculator.CalculateComparison(r, baseResult))
	}

	compSet := &ComparisonSet{
		BasePlanID:         options.BasePlanID,
		BaseResult:         &baseResult,
		AlternativeResults: alternatives,
		CatalogPath:        options.CatalogPath,
	}
	compSet.Recommendations = GenerateRecommendations(compSet)

	return compSet, nil
}

func (ce *CompareEngine) pricePlan(cat *domain.Catalog, req domain.QuoteRequest, plan domain.Plan) (PlanResult, error) {
	req.PlanID = plan.ID
	q, err := ce.CalcEngine.Quote(cat, req)

	var dropped string
	if err != nil && req.PromoCode != "" && isPromoRejection(err) {
		dropped = domain.ErrorCode(err)
		ce.CalcEngine.Logger.Debugf("plan %s: promo %s not applied (%s)", plan.ID, req.PromoCode, dropped)
		req.PromoCode = ""
		q, err = ce.CalcEngine.Quote(cat, req)
	}
	if err != nil {
		return PlanResult{}, err
	}

	result, err := ce.MetricsCalculator.CalculateMetrics(plan, q)
	if err != nil {
		return PlanResult{}, err
	}
	result.PromoDropped = dropped
	return result, nil
}

// isPromoRejection reports whether err is a promo code validation failure
// as opposed to a problem with the household or the catalog
func isPromoRejection(err error) bool {
	return errors.Is(err, domain.ErrValidation) && strings.HasPrefix(domain.ErrorCode(err), "promo_")
}
