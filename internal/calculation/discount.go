package calculation

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/rgehrsitz/medrate/internal/domain"
	"github.com/shopspring/decimal"
)

// PremiumComponents are the parts of a premium a rule can target
type PremiumComponents struct {
	Base    decimal.Decimal
	Addon   decimal.Decimal
	Loading decimal.Decimal
}

// Total is the sum of all components
func (pc PremiumComponents) Total() decimal.Decimal {
	return pc.Base.Add(pc.Addon).Add(pc.Loading)
}

// DiscountEngine selects and stacks discount and loading rules. It is safe
// for concurrent use; compiled trigger expressions are cached per rule.
type DiscountEngine struct {
	mu       sync.Mutex
	env      *cel.Env
	programs map[string]cel.Program // keyed by expression text
	logger   Logger
}

// NewDiscountEngine creates a discount engine
func NewDiscountEngine() *DiscountEngine {
	return &DiscountEngine{
		programs: make(map[string]cel.Program),
		logger:   NopLogger{},
	}
}

// SetLogger sets the logger used for debug tracing
func (de *DiscountEngine) SetLogger(l Logger) {
	if l == nil {
		l = NopLogger{}
	}
	de.logger = l
}

// ApplicableDiscounts returns the automatic discount rules that apply to a
// plan under ctx, highest priority first
func (de *DiscountEngine) ApplicableDiscounts(plan domain.Plan, rules []domain.DiscountRule, ctx domain.DiscountContext) ([]domain.DiscountRule, error) {
	return de.applicable(plan, rules, ctx, domain.KindDiscount)
}

// ApplicableLoadings is ApplicableDiscounts for loading-typed rules
func (de *DiscountEngine) ApplicableLoadings(plan domain.Plan, rules []domain.DiscountRule, ctx domain.DiscountContext) ([]domain.DiscountRule, error) {
	return de.applicable(plan, rules, ctx, domain.KindLoading)
}

func (de *DiscountEngine) applicable(plan domain.Plan, rules []domain.DiscountRule, ctx domain.DiscountContext, kind domain.AdjustmentKind) ([]domain.DiscountRule, error) {
	var out []domain.DiscountRule
	for i := range rules {
		r := &rules[i]
		if !r.IsActive || r.Kind != kind || r.Method != domain.MethodAutomatic {
			continue
		}
		if !domain.InWindow(ctx.AsOf, r.EffectiveFrom, r.EffectiveTo) {
			continue
		}
		if !r.InScope(plan.SchemeID, plan.ID) || r.UsageExhausted() {
			continue
		}
		ok, err := de.TriggersMatch(r, ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, *r)
		}
	}
	sortByPriority(out)
	return out, nil
}

func sortByPriority(rules []domain.DiscountRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
}

// TriggersMatch evaluates a rule's trigger predicates against ctx. An unset
// predicate passes; a set predicate fails when ctx lacks the fact it tests.
func (de *DiscountEngine) TriggersMatch(r *domain.DiscountRule, ctx domain.DiscountContext) (bool, error) {
	t := r.Triggers
	if !atLeast(ctx.GroupSize, t.GroupSizeMin) ||
		!atLeast(ctx.MemberCount, t.MemberCountMin) ||
		!atLeast(ctx.LoyaltyYears, t.LoyaltyYearsMin) {
		return false, nil
	}
	if len(t.BillingFrequencies) > 0 {
		found := false
		for _, f := range t.BillingFrequencies {
			if f == ctx.BillingFrequency {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}
	if t.Expression == "" {
		return true, nil
	}
	return de.evalExpression(r.ID, t.Expression, ctx)
}

func atLeast(have, min *int) bool {
	if min == nil {
		return true
	}
	return have != nil && *have >= *min
}

// CompileTrigger checks a trigger expression without evaluating it
func (de *DiscountEngine) CompileTrigger(ruleID, expr string) error {
	_, err := de.program(ruleID, expr)
	return err
}

func (de *DiscountEngine) program(ruleID, expr string) (cel.Program, error) {
	de.mu.Lock()
	defer de.mu.Unlock()

	if prg, ok := de.programs[expr]; ok {
		return prg, nil
	}
	if de.env == nil {
		env, err := cel.NewEnv(
			cel.Variable("group_size", cel.IntType),
			cel.Variable("member_count", cel.IntType),
			cel.Variable("loyalty_years", cel.IntType),
			cel.Variable("billing_frequency", cel.StringType),
			cel.Variable("scheme_id", cel.StringType),
			cel.Variable("plan_id", cel.StringType),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create trigger environment: %w", err)
		}
		de.env = env
	}

	ast, iss := de.env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, domain.NewConfigurationError(domain.CodeInvalidTriggerExpression,
			"rule %s: %v", ruleID, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, domain.NewConfigurationError(domain.CodeInvalidTriggerExpression,
			"rule %s: expression must be boolean, got %s", ruleID, ast.OutputType())
	}
	prg, err := de.env.Program(ast)
	if err != nil {
		return nil, domain.NewConfigurationError(domain.CodeInvalidTriggerExpression,
			"rule %s: %v", ruleID, err)
	}
	de.programs[expr] = prg
	return prg, nil
}

// evalExpression runs a compiled trigger. Missing numeric facts evaluate
// as zero.
func (de *DiscountEngine) evalExpression(ruleID, expr string, ctx domain.DiscountContext) (bool, error) {
	prg, err := de.program(ruleID, expr)
	if err != nil {
		return false, err
	}
	out, _, err := prg.Eval(map[string]any{
		"group_size":        intOrZero(ctx.GroupSize),
		"member_count":      intOrZero(ctx.MemberCount),
		"loyalty_years":     intOrZero(ctx.LoyaltyYears),
		"billing_frequency": string(ctx.BillingFrequency),
		"scheme_id":         ctx.SchemeID,
		"plan_id":           ctx.PlanID,
	})
	if err != nil {
		return false, domain.NewConfigurationError(domain.CodeInvalidTriggerExpression,
			"rule %s: evaluation failed: %v", ruleID, err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, domain.NewConfigurationError(domain.CodeInvalidTriggerExpression,
			"rule %s: expression did not return a boolean", ruleID)
	}
	de.logger.Debugf("trigger rule=%s expr=%q matched=%t", ruleID, expr, matched)
	return matched, nil
}

func intOrZero(v *int) int64 {
	if v == nil {
		return 0
	}
	return int64(*v)
}

// ApplyDiscounts stacks rules onto a single premium in descending priority
// order. Percentages apply to the running premium, not the original.
func (de *DiscountEngine) ApplyDiscounts(premium decimal.Decimal, rules []domain.DiscountRule) domain.DiscountApplication {
	running := map[domain.AppliesTo]decimal.Decimal{domain.AppliesToTotal: premium}
	return de.stack(running, premium, rules, func(domain.DiscountRule) domain.AppliesTo {
		return domain.AppliesToTotal
	})
}

// ApplyToComponents stacks rules the same way as ApplyDiscounts, computing
// each rule against the running value of the component it targets. Base and
// addon adjustments also move the running total.
func (de *DiscountEngine) ApplyToComponents(components PremiumComponents, rules []domain.DiscountRule) domain.DiscountApplication {
	total := components.Total()
	running := map[domain.AppliesTo]decimal.Decimal{
		domain.AppliesToBase:  components.Base,
		domain.AppliesToAddon: components.Addon,
		domain.AppliesToTotal: total,
	}
	return de.stack(running, total, rules, func(r domain.DiscountRule) domain.AppliesTo {
		switch r.AppliesTo {
		case domain.AppliesToBase, domain.AppliesToAddon:
			return r.AppliesTo
		}
		return domain.AppliesToTotal
	})
}

func (de *DiscountEngine) stack(running map[domain.AppliesTo]decimal.Decimal, original decimal.Decimal, rules []domain.DiscountRule, targetOf func(domain.DiscountRule) domain.AppliesTo) domain.DiscountApplication {
	ordered := append([]domain.DiscountRule(nil), rules...)
	sortByPriority(ordered)

	app := domain.DiscountApplication{
		AppliedRules:  []domain.AppliedRule{},
		TotalDiscount: decimal.Zero,
		TotalLoading:  decimal.Zero,
	}

	for _, r := range ordered {
		if !r.IsStackable && appliedOfKind(app.AppliedRules, r.Kind) {
			app.SkippedRules = append(app.SkippedRules, domain.SkippedRule{RuleID: r.ID, Code: r.Code, Reason: "not stackable"})
			continue
		}

		target := targetOf(r)
		before := running[target]
		adj := ruleAdjustment(r, before)
		if r.MaxDiscountAmount != nil && adj.GreaterThan(*r.MaxDiscountAmount) {
			adj = *r.MaxDiscountAmount
		}

		if r.Kind == domain.KindLoading {
			running[target] = before.Add(adj)
			if target != domain.AppliesToTotal {
				running[domain.AppliesToTotal] = running[domain.AppliesToTotal].Add(adj)
			}
			app.TotalLoading = app.TotalLoading.Add(adj)
		} else {
			if r.MaxTotalDiscount != nil {
				ceiling := roundMoney(percentOf(original, *r.MaxTotalDiscount))
				adj = minDecimal(adj, maxDecimal(decimal.Zero, ceiling.Sub(app.TotalDiscount)))
				if adj.IsZero() {
					app.SkippedRules = append(app.SkippedRules, domain.SkippedRule{RuleID: r.ID, Code: r.Code, Reason: "total discount cap reached"})
					continue
				}
			}
			adj = minDecimal(adj, maxDecimal(decimal.Zero, before))
			running[target] = before.Sub(adj)
			if target != domain.AppliesToTotal {
				running[domain.AppliesToTotal] = maxDecimal(decimal.Zero, running[domain.AppliesToTotal].Sub(adj))
			}
			app.TotalDiscount = app.TotalDiscount.Add(adj)
		}

		de.logger.Debugf("rule %s (%s %s %s on %s): %s -> %s", r.Code, r.Kind, r.ValueType, r.Value, target, before, running[target])
		app.AppliedRules = append(app.AppliedRules, domain.AppliedRule{
			RuleID:        r.ID,
			Code:          r.Code,
			Name:          r.Name,
			Kind:          r.Kind,
			ValueType:     r.ValueType,
			Value:         r.Value,
			AppliesTo:     target,
			Amount:        adj,
			PremiumBefore: before,
			PremiumAfter:  running[target],
		})
	}

	app.TotalDiscount = roundMoney(app.TotalDiscount)
	app.TotalLoading = roundMoney(app.TotalLoading)
	app.FinalPremium = roundMoney(maxDecimal(decimal.Zero, running[domain.AppliesToTotal]))
	return app
}

// appliedOfKind reports whether a rule on the same side of the ledger has
// already applied. Loadings never block a non-stackable discount, nor the
// reverse.
func appliedOfKind(applied []domain.AppliedRule, kind domain.AdjustmentKind) bool {
	loading := kind == domain.KindLoading
	for _, a := range applied {
		if (a.Kind == domain.KindLoading) == loading {
			return true
		}
	}
	return false
}

// ruleAdjustment is a rule's raw adjustment against a running amount
func ruleAdjustment(r domain.DiscountRule, running decimal.Decimal) decimal.Decimal {
	if r.ValueType == domain.ValueFixed {
		return roundMoney(r.Value)
	}
	return roundMoney(percentOf(running, r.Value))
}
