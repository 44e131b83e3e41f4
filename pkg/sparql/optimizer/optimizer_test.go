package optimizer

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notegraph/notegraph/internal/storage"
	"github.com/notegraph/notegraph/pkg/rdf"
	"github.com/notegraph/notegraph/pkg/sparql/algebra"
	"github.com/notegraph/notegraph/pkg/sparql/executor"
	"github.com/notegraph/notegraph/pkg/sparql/parser"
	"github.com/notegraph/notegraph/pkg/store"
)

func v(name string) algebra.PatternTerm {
	return algebra.PatternTerm{Var: name}
}

func iri(s string) algebra.PatternTerm {
	return algebra.PatternTerm{Term: rdf.NewNamedNode(s)}
}

func lit(s string) algebra.PatternTerm {
	return algebra.PatternTerm{Term: rdf.NewLiteral(s)}
}

func varExpr(name string) parser.Expression {
	return &parser.VariableExpression{Variable: &parser.Variable{Name: name}}
}

func TestReorderBGPBySelectivity(t *testing.T) {
	allVars := &algebra.TriplePattern{Subject: v("s"), Predicate: v("p"), Object: v("o")}
	boundPred := &algebra.TriplePattern{Subject: v("s"), Predicate: iri("vault://prop/tag"), Object: v("t")}
	boundSubj := &algebra.TriplePattern{Subject: iri("vault://notes/a"), Predicate: v("p2"), Object: v("o2")}

	node := algebra.BGP(allVars, boundPred, boundSubj)
	got := ReorderBGP().Apply(node)

	require.Equal(t, algebra.KindBGP, got.Kind)
	require.Len(t, got.Patterns, 3)
	assert.Same(t, boundSubj, got.Patterns[0], "bound subject is most selective")
	assert.Same(t, boundPred, got.Patterns[1])
	assert.Same(t, allVars, got.Patterns[2])

	// Input order untouched
	assert.Same(t, allVars, node.Patterns[0])
}

func TestReorderBGPStableForTies(t *testing.T) {
	first := &algebra.TriplePattern{Subject: v("a"), Predicate: iri("vault://prop/x"), Object: v("b")}
	second := &algebra.TriplePattern{Subject: v("b"), Predicate: iri("vault://prop/y"), Object: v("c")}

	got := ReorderBGP().Apply(algebra.BGP(first, second))
	assert.Same(t, first, got.Patterns[0])
	assert.Same(t, second, got.Patterns[1])
}

func TestReorderBGPAlreadyOrderedSharesTree(t *testing.T) {
	p1 := &algebra.TriplePattern{Subject: iri("vault://notes/a"), Predicate: iri("vault://prop/x"), Object: lit("1")}
	p2 := &algebra.TriplePattern{Subject: v("s"), Predicate: v("p"), Object: v("o")}

	node := algebra.BGP(p1, p2)
	got := ReorderBGP().Apply(node)
	assert.Same(t, node, got, "no-op rewrites share the input tree")
}

func TestReorderBGPDescendsIntoChildren(t *testing.T) {
	unselective := &algebra.TriplePattern{Subject: v("s"), Predicate: v("p"), Object: v("o")}
	selective := &algebra.TriplePattern{Subject: iri("vault://notes/a"), Predicate: iri("vault://prop/x"), Object: v("o")}

	node := algebra.Union(
		algebra.BGP(unselective, selective),
		algebra.BGP(),
	)
	got := ReorderBGP().Apply(node)

	require.Equal(t, algebra.KindUnion, got.Kind)
	assert.Same(t, selective, got.Left.Patterns[0])
}

func TestPushFilterIntoLeftJoinSide(t *testing.T) {
	left := algebra.BGP(&algebra.TriplePattern{Subject: v("n"), Predicate: iri("vault://prop/priority"), Object: v("pri")})
	right := algebra.BGP(&algebra.TriplePattern{Subject: v("n"), Predicate: iri("vault://prop/tag"), Object: v("tag")})

	node := algebra.Filter(algebra.Join(left, right), varExpr("pri"))
	got := PushFilters().Apply(node)

	require.Equal(t, algebra.KindJoin, got.Kind)
	require.Equal(t, algebra.KindFilter, got.Left.Kind)
	assert.Same(t, left, got.Left.Input)
	assert.Same(t, right, got.Right)
}

func TestPushFilterIntoRightJoinSide(t *testing.T) {
	left := algebra.BGP(&algebra.TriplePattern{Subject: v("n"), Predicate: iri("vault://prop/priority"), Object: v("pri")})
	right := algebra.BGP(&algebra.TriplePattern{Subject: v("m"), Predicate: iri("vault://prop/tag"), Object: v("tag")})

	node := algebra.Filter(algebra.Join(left, right), varExpr("tag"))
	got := PushFilters().Apply(node)

	require.Equal(t, algebra.KindJoin, got.Kind)
	assert.Same(t, left, got.Left)
	require.Equal(t, algebra.KindFilter, got.Right.Kind)
	assert.Same(t, right, got.Right.Input)
}

func TestPushFilterStaysWhenVarsSpanBothSides(t *testing.T) {
	left := algebra.BGP(&algebra.TriplePattern{Subject: v("n"), Predicate: iri("vault://prop/a"), Object: v("x")})
	right := algebra.BGP(&algebra.TriplePattern{Subject: v("n"), Predicate: iri("vault://prop/b"), Object: v("y")})

	expr := &parser.BinaryExpression{
		Left:     varExpr("x"),
		Operator: parser.OpEqual,
		Right:    varExpr("y"),
	}
	node := algebra.Filter(algebra.Join(left, right), expr)
	got := PushFilters().Apply(node)
	assert.Same(t, node, got)
}

func TestPushFilterNotThroughOptional(t *testing.T) {
	left := algebra.BGP(&algebra.TriplePattern{Subject: v("n"), Predicate: iri("vault://prop/a"), Object: v("x")})
	right := algebra.BGP(&algebra.TriplePattern{Subject: v("n"), Predicate: iri("vault://prop/b"), Object: v("y")})

	node := algebra.Filter(algebra.LeftJoin(left, right), varExpr("x"))
	got := PushFilters().Apply(node)
	assert.Same(t, node, got, "a filter above OPTIONAL must not move")
}

func TestPushFilterSkipsMayBindSide(t *testing.T) {
	// The left side only may bind ?x (through OPTIONAL); the right side
	// certainly binds it. The filter must go right, never left.
	left := algebra.LeftJoin(
		algebra.BGP(&algebra.TriplePattern{Subject: v("s"), Predicate: iri("vault://prop/type"), Object: lit("task")}),
		algebra.BGP(&algebra.TriplePattern{Subject: v("s"), Predicate: iri("vault://prop/alias"), Object: v("x")}),
	)
	right := algebra.BGP(&algebra.TriplePattern{Subject: v("s"), Predicate: iri("vault://prop/priority"), Object: v("x")})

	node := algebra.Filter(algebra.Join(left, right), varExpr("x"))
	got := PushFilters().Apply(node)

	require.Equal(t, algebra.KindJoin, got.Kind)
	assert.Same(t, left, got.Left, "filter must not sink into the OPTIONAL side")
	require.Equal(t, algebra.KindFilter, got.Right.Kind)
	assert.Same(t, right, got.Right.Input)
}

func TestPushFilterStaysWhenNoSideCertainlyBinds(t *testing.T) {
	// ?x appears in one UNION branch on the left and under OPTIONAL on the
	// right; neither side certainly binds it, so the filter stays put.
	left := algebra.Union(
		algebra.BGP(&algebra.TriplePattern{Subject: v("s"), Predicate: iri("vault://prop/a"), Object: v("x")}),
		algebra.BGP(&algebra.TriplePattern{Subject: v("s"), Predicate: iri("vault://prop/b"), Object: v("y")}),
	)
	right := algebra.LeftJoin(
		algebra.BGP(&algebra.TriplePattern{Subject: v("s"), Predicate: iri("vault://prop/c"), Object: v("z")}),
		algebra.BGP(&algebra.TriplePattern{Subject: v("s"), Predicate: iri("vault://prop/d"), Object: v("x")}),
	)

	node := algebra.Filter(algebra.Join(left, right), varExpr("x"))
	got := PushFilters().Apply(node)
	assert.Same(t, node, got)
}

func TestDefaultAppliesAllRules(t *testing.T) {
	o := Default()
	require.Len(t, o.Rules(), 2)

	unselective := &algebra.TriplePattern{Subject: v("s"), Predicate: v("p"), Object: v("o")}
	selective := &algebra.TriplePattern{Subject: v("s"), Predicate: iri("vault://prop/x"), Object: lit("1")}

	node := algebra.Filter(
		algebra.Join(
			algebra.BGP(unselective, selective),
			algebra.BGP(&algebra.TriplePattern{Subject: v("m"), Predicate: iri("vault://prop/y"), Object: v("z")}),
		),
		varExpr("z"),
	)
	got := o.Optimize(node)

	require.Equal(t, algebra.KindJoin, got.Kind)
	assert.Same(t, selective, got.Left.Patterns[0])
	assert.Equal(t, algebra.KindFilter, got.Right.Kind)
}

func equivStore(t *testing.T) *store.TripleStore {
	t.Helper()
	st, err := storage.NewMemoryStorage()
	require.NoError(t, err)
	s := store.NewTripleStore(st)
	t.Cleanup(func() { _ = s.Close() })

	node := func(name string) *rdf.NamedNode { return rdf.NewNamedNode("vault://notes/" + name) }
	prop := func(name string) *rdf.NamedNode { return rdf.NewNamedNode("vault://prop/" + name) }
	require.NoError(t, s.AddAll([]*rdf.Triple{
		rdf.NewTriple(node("task1"), prop("type"), rdf.NewLiteral("task")),
		rdf.NewTriple(node("task1"), prop("priority"), rdf.NewIntegerLiteral(5)),
		rdf.NewTriple(node("task1"), prop("tag"), rdf.NewLiteral("home")),
		rdf.NewTriple(node("task2"), prop("type"), rdf.NewLiteral("task")),
		rdf.NewTriple(node("task2"), prop("priority"), rdf.NewIntegerLiteral(3)),
		rdf.NewTriple(node("task2"), prop("alias"), rdf.NewLiteral("t2")),
		rdf.NewTriple(node("task2"), prop("tag"), rdf.NewLiteral("work")),
		rdf.NewTriple(node("task3"), prop("type"), rdf.NewLiteral("task")),
	}))
	return s
}

// evalSignatures evaluates a query under the given optimizer and returns
// the result multiset as sorted canonical signatures; row order is not part
// of the equivalence (BGP reordering legitimately changes it).
func evalSignatures(t *testing.T, s *store.TripleStore, o *Optimizer, query string) []string {
	t.Helper()

	q, err := parser.NewParser(query).Parse()
	require.NoError(t, err)
	tree, err := algebra.Translate(q)
	require.NoError(t, err)

	results, err := executor.New(s).ExecuteAll(context.Background(), o.Optimize(tree))
	require.NoError(t, err)

	sigs := make([]string, len(results))
	for i, m := range results {
		sigs[i] = m.Signature()
	}
	sort.Strings(sigs)
	return sigs
}

// TestOptimizePreservesEvaluation checks the one property every rule must
// hold: the optimized tree produces the same multiset of solutions as the
// tree it replaced.
func TestOptimizePreservesEvaluation(t *testing.T) {
	s := equivStore(t)

	tests := []struct {
		name  string
		query string
	}{
		{
			"filter over join with optional on one side",
			`SELECT * WHERE {
				{ ?s <vault://prop/type> "task" . OPTIONAL { ?s <vault://prop/alias> ?x } }
				{ ?s <vault://prop/priority> ?x }
				FILTER(?x = 5)
			}`,
		},
		{
			"filter over join with union on one side",
			`SELECT * WHERE {
				{ { ?s <vault://prop/priority> ?x } UNION { ?s <vault://prop/tag> ?y } }
				{ ?s <vault://prop/type> ?t }
				FILTER(?x > 2)
			}`,
		},
		{
			"pushable filter over a plain join",
			`SELECT * WHERE {
				{ ?s <vault://prop/type> ?t }
				{ ?s <vault://prop/priority> ?x }
				FILTER(?x > 2)
			}`,
		},
		{
			"filter spanning both join sides",
			`SELECT * WHERE {
				{ ?a <vault://prop/priority> ?x }
				{ ?b <vault://prop/priority> ?y }
				FILTER(?x > ?y)
			}`,
		},
		{
			"bound filter above optional",
			`SELECT * WHERE {
				?s <vault://prop/type> "task" .
				OPTIONAL { ?s <vault://prop/alias> ?x }
				FILTER(BOUND(?x))
			}`,
		},
		{
			"filter above minus",
			`SELECT * WHERE {
				?s <vault://prop/type> "task" .
				MINUS { ?s <vault://prop/alias> ?x }
				FILTER(?s = <vault://notes/task1>)
			}`,
		},
		{
			"distinct over reorderable patterns",
			`SELECT DISTINCT ?s WHERE {
				?s ?p ?o .
				?s <vault://prop/type> "task"
			}`,
		},
	}

	unoptimized := New()
	optimized := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := evalSignatures(t, s, unoptimized, tt.query)
			got := evalSignatures(t, s, optimized, tt.query)
			assert.Equal(t, want, got)
		})
	}
}
