package algebra

import (
	"fmt"

	"github.com/notegraph/notegraph/pkg/rdf"
	"github.com/notegraph/notegraph/pkg/sparql/parser"
)

// TranslateError indicates that a syntactically valid query could not be
// turned into an operator tree (unknown prefix, rebound BIND variable).
type TranslateError struct {
	Msg string
}

func (e *TranslateError) Error() string {
	return "translate: " + e.Msg
}

func translateErrorf(format string, args ...any) *TranslateError {
	return &TranslateError{Msg: fmt.Sprintf(format, args...)}
}

// Translate turns a parsed query into an operator tree. Prefixed names are
// resolved here against the query's prologue; every variable keeps its
// parsed name. The returned tree is fully resolved: no parser.PrefixedName
// survives translation.
func Translate(q *parser.Query) (*Node, error) {
	t := &translator{prefixes: q.Prefixes}

	var node *Node
	if q.Select.Where != nil {
		var err error
		node, err = t.translateGroup(q.Select.Where)
		if err != nil {
			return nil, err
		}
	} else {
		// SELECT without WHERE evaluates against the unit pattern
		node = BGP()
	}

	vars, err := projectionVars(q, node)
	if err != nil {
		return nil, err
	}
	node = Project(node, vars)

	if q.Select.Distinct {
		node = Distinct(node)
	}

	if q.Select.Limit != nil || q.Select.Offset != nil {
		limit := -1
		if q.Select.Limit != nil {
			limit = *q.Select.Limit
		}
		offset := 0
		if q.Select.Offset != nil {
			offset = *q.Select.Offset
		}
		node = Slice(node, limit, offset)
	}

	return node, nil
}

type translator struct {
	prefixes map[string]string
}

// translateGroup translates one group graph pattern: its triples become a
// BGP, child patterns fold in left to right, then BINDs extend and FILTERs
// constrain the whole group.
func (t *translator) translateGroup(gp *parser.GraphPattern) (*Node, error) {
	patterns := make([]*TriplePattern, 0, len(gp.Patterns))
	for _, tp := range gp.Patterns {
		translated, err := t.translateTriplePattern(tp)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, translated)
	}
	node := BGP(patterns...)

	for _, child := range gp.Children {
		childNode, err := t.translateChild(child)
		if err != nil {
			return nil, err
		}
		switch child.Type {
		case parser.GraphPatternTypeOptional:
			node = LeftJoin(node, childNode)
		case parser.GraphPatternTypeMinus:
			node = Minus(node, childNode)
		default:
			node = Join(node, childNode)
		}
	}

	for _, bind := range gp.Binds {
		if node.BindsVars()[bind.Variable.Name] {
			return nil, translateErrorf("BIND would rebind variable ?%s", bind.Variable.Name)
		}
		expr, err := t.resolveExpr(bind.Expression)
		if err != nil {
			return nil, err
		}
		node = Extend(node, bind.Variable.Name, expr)
	}

	for _, filter := range gp.Filters {
		expr, err := t.resolveExpr(filter.Expression)
		if err != nil {
			return nil, err
		}
		node = Filter(node, expr)
	}

	return node, nil
}

// translateChild translates a nested pattern. UNION nodes fold their
// branches into a left-deep chain.
func (t *translator) translateChild(gp *parser.GraphPattern) (*Node, error) {
	if gp.Type != parser.GraphPatternTypeUnion {
		return t.translateGroup(gp)
	}

	var node *Node
	for _, branch := range gp.Children {
		branchNode, err := t.translateGroup(branch)
		if err != nil {
			return nil, err
		}
		if node == nil {
			node = branchNode
		} else {
			node = Union(node, branchNode)
		}
	}
	if node == nil {
		node = BGP()
	}
	return node, nil
}

func (t *translator) translateTriplePattern(tp *parser.TriplePattern) (*TriplePattern, error) {
	subject, err := t.resolvePosition(&tp.Subject)
	if err != nil {
		return nil, err
	}
	predicate, err := t.resolvePosition(&tp.Predicate)
	if err != nil {
		return nil, err
	}
	object, err := t.resolvePosition(&tp.Object)
	if err != nil {
		return nil, err
	}
	return &TriplePattern{Subject: subject, Predicate: predicate, Object: object}, nil
}

func (t *translator) resolvePosition(tv *parser.TermOrVariable) (PatternTerm, error) {
	switch {
	case tv.Variable != nil:
		return PatternTerm{Var: tv.Variable.Name}, nil
	case tv.Prefixed != nil:
		term, err := t.resolvePrefixed(tv.Prefixed)
		if err != nil {
			return PatternTerm{}, err
		}
		return PatternTerm{Term: term}, nil
	default:
		return PatternTerm{Term: tv.Term}, nil
	}
}

func (t *translator) resolvePrefixed(pn *parser.PrefixedName) (*rdf.NamedNode, error) {
	base, ok := t.prefixes[pn.Prefix]
	if !ok {
		return nil, translateErrorf("unknown prefix %q in %s:%s", pn.Prefix, pn.Prefix, pn.Local)
	}
	return rdf.NewNamedNode(base + pn.Local), nil
}

// resolveExpr rewrites an expression so that every prefixed name becomes a
// concrete IRI term. Subtrees without prefixed names are returned as-is.
func (t *translator) resolveExpr(expr parser.Expression) (parser.Expression, error) {
	switch e := expr.(type) {
	case *parser.TermExpression:
		if e.Prefixed == nil {
			return e, nil
		}
		term, err := t.resolvePrefixed(e.Prefixed)
		if err != nil {
			return nil, err
		}
		return &parser.TermExpression{Term: term}, nil

	case *parser.BinaryExpression:
		left, err := t.resolveExpr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := t.resolveExpr(e.Right)
		if err != nil {
			return nil, err
		}
		if left == e.Left && right == e.Right {
			return e, nil
		}
		return &parser.BinaryExpression{Left: left, Operator: e.Operator, Right: right}, nil

	case *parser.UnaryExpression:
		operand, err := t.resolveExpr(e.Operand)
		if err != nil {
			return nil, err
		}
		if operand == e.Operand {
			return e, nil
		}
		return &parser.UnaryExpression{Operator: e.Operator, Operand: operand}, nil

	case *parser.FunctionCallExpression:
		changed := false
		args := make([]parser.Expression, len(e.Arguments))
		for i, arg := range e.Arguments {
			resolved, err := t.resolveExpr(arg)
			if err != nil {
				return nil, err
			}
			args[i] = resolved
			if resolved != arg {
				changed = true
			}
		}
		if !changed {
			return e, nil
		}
		return &parser.FunctionCallExpression{Function: e.Function, Arguments: args}, nil

	default:
		return expr, nil
	}
}

// projectionVars returns the projection list. SELECT * projects every
// variable of the pattern in first-mention order.
func projectionVars(q *parser.Query, node *Node) ([]string, error) {
	if q.Select.Variables != nil {
		vars := make([]string, 0, len(q.Select.Variables))
		seen := make(map[string]bool)
		for _, v := range q.Select.Variables {
			if seen[v.Name] {
				return nil, translateErrorf("variable ?%s projected twice", v.Name)
			}
			seen[v.Name] = true
			vars = append(vars, v.Name)
		}
		return vars, nil
	}

	var vars []string
	seen := make(map[string]bool)
	if q.Select.Where != nil {
		collectPatternVars(q.Select.Where, seen, &vars)
	}
	return vars, nil
}

// collectPatternVars walks the parse tree in syntactic order so SELECT *
// keeps a deterministic column order.
func collectPatternVars(gp *parser.GraphPattern, seen map[string]bool, out *[]string) {
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			*out = append(*out, name)
		}
	}

	for _, tp := range gp.Patterns {
		for _, tv := range []*parser.TermOrVariable{&tp.Subject, &tp.Predicate, &tp.Object} {
			if tv.Variable != nil {
				add(tv.Variable.Name)
			}
		}
	}
	for _, child := range gp.Children {
		if child.Type == parser.GraphPatternTypeMinus {
			// MINUS never binds anything visible outside itself
			continue
		}
		collectPatternVars(child, seen, out)
	}
	for _, bind := range gp.Binds {
		add(bind.Variable.Name)
	}
}
