// Package optimizer rewrites operator trees into cheaper equivalents. Every
// rule is semantics-preserving: for any store, the optimized tree produces
// the same multiset of solution mappings as its input.
package optimizer

import (
	"sort"

	"github.com/notegraph/notegraph/pkg/sparql/algebra"
)

// Rule is a single named rewrite. Apply must never mutate its input tree;
// unchanged subtrees may be shared between input and output.
type Rule struct {
	Name  string
	Apply func(*algebra.Node) *algebra.Node
}

// Optimizer applies an ordered list of rules
type Optimizer struct {
	rules []Rule
}

// New creates an optimizer with the given rules, applied in order
func New(rules ...Rule) *Optimizer {
	return &Optimizer{rules: rules}
}

// Default returns the standard rule set
func Default() *Optimizer {
	return New(ReorderBGP(), PushFilters())
}

// Rules returns the rule list for inspection
func (o *Optimizer) Rules() []Rule {
	return o.rules
}

// Optimize runs every rule over the tree in order
func (o *Optimizer) Optimize(node *algebra.Node) *algebra.Node {
	for _, rule := range o.rules {
		node = rule.Apply(node)
	}
	return node
}

// ReorderBGP sorts the triple patterns inside each basic graph pattern so
// the most selective pattern runs first. Selectivity is estimated from
// which positions are bound: a bound subject narrows the scan far more than
// a bound predicate or object. The sort is stable so equally scored
// patterns keep their written order.
func ReorderBGP() Rule {
	return Rule{
		Name:  "reorder-bgp",
		Apply: reorderBGP,
	}
}

func reorderBGP(n *algebra.Node) *algebra.Node {
	return rewrite(n, func(node *algebra.Node) *algebra.Node {
		if node.Kind != algebra.KindBGP || len(node.Patterns) < 2 {
			return node
		}

		sorted := make([]*algebra.TriplePattern, len(node.Patterns))
		copy(sorted, node.Patterns)
		sort.SliceStable(sorted, func(i, j int) bool {
			return patternScore(sorted[i]) < patternScore(sorted[j])
		})

		for i := range sorted {
			if sorted[i] != node.Patterns[i] {
				return algebra.BGP(sorted...)
			}
		}
		return node
	})
}

// patternScore estimates pattern selectivity; lower is more selective
func patternScore(p *algebra.TriplePattern) float64 {
	score := 1.0
	if !p.Subject.IsVar() {
		score *= 0.01
	}
	if !p.Predicate.IsVar() {
		score *= 0.1
	}
	if !p.Object.IsVar() {
		score *= 0.1
	}
	return score
}

// PushFilters moves a filter over a join down into a join side that is
// certain to bind all of the filter's variables. Certainty matters: a side
// that only may bind a variable (through OPTIONAL or one UNION branch) can
// leave it unbound, and the filter would then drop rows the join above
// would have kept bound. Filters are only pushed through inner joins;
// OPTIONAL, UNION and MINUS change what a filter sees, so filters above
// those stay put.
func PushFilters() Rule {
	return Rule{
		Name:  "push-filters",
		Apply: pushFilters,
	}
}

func pushFilters(n *algebra.Node) *algebra.Node {
	return rewrite(n, func(node *algebra.Node) *algebra.Node {
		if node.Kind != algebra.KindFilter || node.Input.Kind != algebra.KindJoin {
			return node
		}

		join := node.Input
		vars := algebra.ExprVars(node.Expr)

		if len(vars) > 0 && subset(vars, join.Left.CertainVars()) {
			return pushFilters(algebra.Join(
				algebra.Filter(join.Left, node.Expr),
				join.Right,
			))
		}
		if len(vars) > 0 && subset(vars, join.Right.CertainVars()) {
			return pushFilters(algebra.Join(
				join.Left,
				algebra.Filter(join.Right, node.Expr),
			))
		}
		return node
	})
}

func subset(vars, of map[string]bool) bool {
	for v := range vars {
		if !of[v] {
			return false
		}
	}
	return true
}

// rewrite applies fn bottom-up over the tree, sharing unchanged subtrees
func rewrite(n *algebra.Node, fn func(*algebra.Node) *algebra.Node) *algebra.Node {
	if n == nil {
		return nil
	}

	rewritten := n
	switch n.Kind {
	case algebra.KindJoin, algebra.KindUnion, algebra.KindLeftJoin, algebra.KindMinus:
		left := rewrite(n.Left, fn)
		right := rewrite(n.Right, fn)
		if left != n.Left || right != n.Right {
			clone := *n
			clone.Left = left
			clone.Right = right
			rewritten = &clone
		}
	case algebra.KindFilter, algebra.KindExtend, algebra.KindProject, algebra.KindDistinct, algebra.KindSlice:
		input := rewrite(n.Input, fn)
		if input != n.Input {
			clone := *n
			clone.Input = input
			rewritten = &clone
		}
	}

	return fn(rewritten)
}
