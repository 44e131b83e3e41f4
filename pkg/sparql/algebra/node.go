package algebra

import (
	"github.com/notegraph/notegraph/pkg/rdf"
	"github.com/notegraph/notegraph/pkg/sparql/parser"
)

// NodeKind enumerates the operator kinds. The set is closed: the executor
// dispatches exhaustively over it.
type NodeKind int

const (
	KindBGP NodeKind = iota
	KindJoin
	KindUnion
	KindLeftJoin
	KindMinus
	KindFilter
	KindExtend
	KindProject
	KindDistinct
	KindSlice
)

func (k NodeKind) String() string {
	switch k {
	case KindBGP:
		return "bgp"
	case KindJoin:
		return "join"
	case KindUnion:
		return "union"
	case KindLeftJoin:
		return "leftjoin"
	case KindMinus:
		return "minus"
	case KindFilter:
		return "filter"
	case KindExtend:
		return "extend"
	case KindProject:
		return "project"
	case KindDistinct:
		return "distinct"
	case KindSlice:
		return "slice"
	default:
		return "unknown"
	}
}

// PatternTerm is one position of an algebra-level triple pattern: either a
// concrete term or a variable name.
type PatternTerm struct {
	Term rdf.Term
	Var  string
}

// IsVar reports whether the position is a variable
func (pt PatternTerm) IsVar() bool {
	return pt.Term == nil
}

// TriplePattern is a store-ready triple pattern
type TriplePattern struct {
	Subject   PatternTerm
	Predicate PatternTerm
	Object    PatternTerm
}

// Node is a tagged variant over the operator kinds. Which fields are
// meaningful depends on Kind:
//
//	BGP                      Patterns (empty = the unit pattern, one empty mapping)
//	Join/Union/LeftJoin/Minus  Left, Right
//	Filter                   Input, Expr
//	Extend                   Input, Expr, Var
//	Project                  Input, Vars
//	Distinct                 Input
//	Slice                    Input, Limit (-1 = none), Offset
//
// A node tree is owned by the single query evaluation that built it.
type Node struct {
	Kind NodeKind

	Patterns []*TriplePattern

	Left  *Node
	Right *Node
	Input *Node

	Expr parser.Expression
	Var  string

	Vars []string

	Limit  int
	Offset int
}

// BGP builds a basic graph pattern node
func BGP(patterns ...*TriplePattern) *Node {
	return &Node{Kind: KindBGP, Patterns: patterns}
}

// Join builds an inner-join node
func Join(left, right *Node) *Node {
	return &Node{Kind: KindJoin, Left: left, Right: right}
}

// Union builds a concatenation node (bag semantics)
func Union(left, right *Node) *Node {
	return &Node{Kind: KindUnion, Left: left, Right: right}
}

// LeftJoin builds an OPTIONAL node
func LeftJoin(left, right *Node) *Node {
	return &Node{Kind: KindLeftJoin, Left: left, Right: right}
}

// Minus builds a MINUS node
func Minus(left, right *Node) *Node {
	return &Node{Kind: KindMinus, Left: left, Right: right}
}

// Filter builds a filter node
func Filter(input *Node, expr parser.Expression) *Node {
	return &Node{Kind: KindFilter, Input: input, Expr: expr}
}

// Extend builds a BIND node assigning expr to the named variable
func Extend(input *Node, name string, expr parser.Expression) *Node {
	return &Node{Kind: KindExtend, Input: input, Expr: expr, Var: name}
}

// Project builds a projection node
func Project(input *Node, vars []string) *Node {
	return &Node{Kind: KindProject, Input: input, Vars: vars}
}

// Distinct builds a deduplication node
func Distinct(input *Node) *Node {
	return &Node{Kind: KindDistinct, Input: input}
}

// Slice builds a LIMIT/OFFSET node; limit -1 means no limit
func Slice(input *Node, limit, offset int) *Node {
	return &Node{Kind: KindSlice, Input: input, Limit: limit, Offset: offset}
}

// BindsVars returns the set of variables a subtree can bind.
func (n *Node) BindsVars() map[string]bool {
	vars := make(map[string]bool)
	n.collectVars(vars)
	return vars
}

func (n *Node) collectVars(vars map[string]bool) {
	if n == nil {
		return
	}
	switch n.Kind {
	case KindBGP:
		for _, p := range n.Patterns {
			for _, pt := range []PatternTerm{p.Subject, p.Predicate, p.Object} {
				if pt.IsVar() {
					vars[pt.Var] = true
				}
			}
		}
	case KindJoin, KindUnion, KindLeftJoin:
		n.Left.collectVars(vars)
		n.Right.collectVars(vars)
	case KindMinus:
		// The right side never contributes bindings
		n.Left.collectVars(vars)
	case KindExtend:
		n.Input.collectVars(vars)
		vars[n.Var] = true
	case KindProject:
		inner := make(map[string]bool)
		n.Input.collectVars(inner)
		for _, v := range n.Vars {
			if inner[v] {
				vars[v] = true
			}
		}
	case KindFilter, KindDistinct, KindSlice:
		n.Input.collectVars(vars)
	}
}

// CertainVars returns the set of variables a subtree binds in every
// solution it produces. Unlike BindsVars it excludes variables that are
// only sometimes bound: an OPTIONAL's right branch, a variable present in
// one UNION branch but not the other, and BIND targets (the expression may
// fail, leaving the variable unbound).
func (n *Node) CertainVars() map[string]bool {
	if n == nil {
		return map[string]bool{}
	}
	switch n.Kind {
	case KindBGP:
		vars := make(map[string]bool)
		for _, p := range n.Patterns {
			for _, pt := range []PatternTerm{p.Subject, p.Predicate, p.Object} {
				if pt.IsVar() {
					vars[pt.Var] = true
				}
			}
		}
		return vars
	case KindJoin:
		vars := n.Left.CertainVars()
		for v := range n.Right.CertainVars() {
			vars[v] = true
		}
		return vars
	case KindUnion:
		vars := make(map[string]bool)
		right := n.Right.CertainVars()
		for v := range n.Left.CertainVars() {
			if right[v] {
				vars[v] = true
			}
		}
		return vars
	case KindLeftJoin, KindMinus:
		return n.Left.CertainVars()
	case KindProject:
		vars := make(map[string]bool)
		inner := n.Input.CertainVars()
		for _, v := range n.Vars {
			if inner[v] {
				vars[v] = true
			}
		}
		return vars
	case KindExtend, KindFilter, KindDistinct, KindSlice:
		return n.Input.CertainVars()
	default:
		return map[string]bool{}
	}
}

// ExprVars returns the set of variables referenced by an expression.
func ExprVars(expr parser.Expression) map[string]bool {
	vars := make(map[string]bool)
	collectExprVars(expr, vars)
	return vars
}

func collectExprVars(expr parser.Expression, vars map[string]bool) {
	switch e := expr.(type) {
	case *parser.VariableExpression:
		vars[e.Variable.Name] = true
	case *parser.BinaryExpression:
		collectExprVars(e.Left, vars)
		collectExprVars(e.Right, vars)
	case *parser.UnaryExpression:
		collectExprVars(e.Operand, vars)
	case *parser.FunctionCallExpression:
		for _, arg := range e.Arguments {
			collectExprVars(arg, vars)
		}
	}
}
