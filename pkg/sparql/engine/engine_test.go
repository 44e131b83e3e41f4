package engine

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notegraph/notegraph/internal/storage"
	"github.com/notegraph/notegraph/pkg/rdf"
	"github.com/notegraph/notegraph/pkg/sparql/algebra"
	"github.com/notegraph/notegraph/pkg/sparql/optimizer"
	"github.com/notegraph/notegraph/pkg/store"
)

func newEngine(t *testing.T, opts ...Option) (*Engine, *store.TripleStore) {
	t.Helper()
	st, err := storage.NewMemoryStorage()
	require.NoError(t, err)
	s := store.NewTripleStore(st)
	t.Cleanup(func() { _ = s.Close() })

	triples := []*rdf.Triple{
		tr("vault://notes/task1", "vault://prop/type", rdf.NewLiteral("task")),
		tr("vault://notes/task1", "vault://prop/assignee", rdf.NewLiteral("alice")),
		tr("vault://notes/task1", "vault://prop/priority", rdf.NewIntegerLiteral(5)),
		tr("vault://notes/task2", "vault://prop/type", rdf.NewLiteral("task")),
		tr("vault://notes/task2", "vault://prop/status", rdf.NewLiteral("done")),
		tr("vault://notes/task3", "vault://prop/type", rdf.NewLiteral("task")),
	}
	require.NoError(t, s.AddAll(triples))

	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(s, opts...), s
}

func tr(s, p string, o rdf.Term) *rdf.Triple {
	return rdf.NewTriple(rdf.NewNamedNode(s), rdf.NewNamedNode(p), o)
}

func column(result *Result, name string) []string {
	var out []string
	for _, row := range result.Rows {
		term, ok := row.Get(name)
		if !ok {
			continue
		}
		switch v := term.(type) {
		case *rdf.NamedNode:
			out = append(out, v.IRI)
		case *rdf.Literal:
			out = append(out, v.Value)
		}
	}
	sort.Strings(out)
	return out
}

func TestQueryEndToEnd(t *testing.T) {
	e, _ := newEngine(t)

	result, err := e.Query(context.Background(), `
		PREFIX vp: <vault://prop/>
		SELECT ?n WHERE {
			?n vp:type "task" .
			MINUS { ?n vp:status "done" }
		}
	`)
	require.NoError(t, err)

	assert.Equal(t, []string{"n"}, result.Variables)
	assert.Equal(t, 2, result.Count())
	assert.Equal(t, []string{"vault://notes/task1", "vault://notes/task3"}, column(result, "n"))
}

func TestQueryOptionalAndFilter(t *testing.T) {
	e, _ := newEngine(t)

	result, err := e.Query(context.Background(), `
		PREFIX vp: <vault://prop/>
		SELECT ?n ?who WHERE {
			?n vp:type "task" .
			OPTIONAL { ?n vp:assignee ?who }
			FILTER(BOUND(?who))
		}
	`)
	require.NoError(t, err)

	assert.Equal(t, []string{"n", "who"}, result.Variables)
	assert.Equal(t, []string{"alice"}, column(result, "who"))
}

func TestQueryParseError(t *testing.T) {
	e, _ := newEngine(t)

	_, err := e.Query(context.Background(), "SELECT WHERE {")
	require.Error(t, err)

	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, ErrorKindParse, qerr.Kind)
	assert.NotEmpty(t, qerr.QueryID)
}

func TestQueryTranslateError(t *testing.T) {
	e, _ := newEngine(t)

	_, err := e.Query(context.Background(), `SELECT ?n WHERE { ?n missing:prop "x" }`)
	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, ErrorKindTranslate, qerr.Kind)
}

func TestQueryCancelledContext(t *testing.T) {
	e, _ := newEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Query(ctx, `SELECT ?n WHERE { ?n ?p ?o }`)
	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, ErrorKindExecution, qerr.Kind)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStream(t *testing.T) {
	e, _ := newEngine(t)

	vars, it, err := e.Stream(context.Background(), `
		PREFIX vp: <vault://prop/>
		SELECT ?n WHERE { ?n vp:type "task" }
	`)
	require.NoError(t, err)
	defer func() { _ = it.Close() }()

	assert.Equal(t, []string{"n"}, vars)

	count := 0
	for it.Next() {
		count++
	}
	require.NoError(t, it.Err())
	assert.Equal(t, 3, count)
}

func TestPlanCacheInvalidatedByWrites(t *testing.T) {
	e, s := newEngine(t)
	query := `PREFIX vp: <vault://prop/> SELECT ?n WHERE { ?n vp:type "task" }`

	first, err := e.Query(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Count())

	require.NoError(t, s.Add(tr("vault://notes/task4", "vault://prop/type", rdf.NewLiteral("task"))))

	second, err := e.Query(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, 4, second.Count(), "results reflect writes made after planning")
}

func TestOptimizerPanicFallsBack(t *testing.T) {
	broken := optimizer.New(optimizer.Rule{
		Name:  "broken",
		Apply: func(n *algebra.Node) *algebra.Node { panic("broken rule") },
	})
	e, _ := newEngine(t, WithOptimizer(broken))

	result, err := e.Query(context.Background(), `
		PREFIX vp: <vault://prop/>
		SELECT ?n WHERE { ?n vp:type "task" }
	`)
	require.NoError(t, err, "a panicking rule falls back to the unoptimized plan")
	assert.Equal(t, 3, result.Count())
}
