package calculation

import (
	"sort"
	"strings"

	"github.com/rgehrsitz/medrate/internal/domain"
)

// ParentIndex maps node id to parent id for an arena-style hierarchy.
// A blank parent marks a root.
type ParentIndex map[string]string

// BenefitParents indexes catalog benefit parent links
func BenefitParents(benefits []domain.Benefit) ParentIndex {
	idx := make(ParentIndex, len(benefits))
	for _, b := range benefits {
		idx[b.ID] = b.ParentID
	}
	return idx
}

// PlanBenefitParents indexes plan-benefit parent links
func PlanBenefitParents(planBenefits []domain.PlanBenefit) ParentIndex {
	idx := make(ParentIndex, len(planBenefits))
	for _, pb := range planBenefits {
		idx[pb.ID] = pb.ParentID
	}
	return idx
}

// Ancestors returns the parent chain of id, nearest first. A chain that
// revisits a node or names a parent outside the index is a configuration
// error.
func (idx ParentIndex) Ancestors(kind, id string) ([]string, error) {
	var chain []string
	seen := map[string]bool{id: true}
	current := id
	for {
		parent, ok := idx[current]
		if !ok {
			return nil, domain.NewConfigurationError(domain.CodeUnknownParent, "%s %q is not in the catalog", kind, current)
		}
		if parent == "" {
			return chain, nil
		}
		if seen[parent] {
			return nil, domain.NewConfigurationError(domain.CodeCyclicHierarchy,
				"%s %q has a cyclic parent chain: %s -> %s", kind, id, strings.Join(append([]string{id}, chain...), " -> "), parent)
		}
		if _, ok := idx[parent]; !ok {
			return nil, domain.NewConfigurationError(domain.CodeUnknownParent, "%s %q references unknown parent %q", kind, current, parent)
		}
		seen[parent] = true
		chain = append(chain, parent)
		current = parent
	}
}

// Validate walks every node's chain so cycles are rejected at load time
// instead of at lookup time. Nodes are visited in id order so the reported
// error is stable.
func (idx ParentIndex) Validate(kind string) error {
	ids := make([]string, 0, len(idx))
	for id := range idx {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, err := idx.Ancestors(kind, id); err != nil {
			return err
		}
	}
	return nil
}
