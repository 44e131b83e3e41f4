package store

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notegraph/notegraph/internal/storage"
	"github.com/notegraph/notegraph/pkg/rdf"
)

func newStore(t *testing.T) *TripleStore {
	t.Helper()
	st, err := storage.NewMemoryStorage()
	require.NoError(t, err)
	s := NewTripleStore(st)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func tr(s, p string, o rdf.Term) *rdf.Triple {
	return rdf.NewTriple(rdf.NewNamedNode(s), rdf.NewNamedNode(p), o)
}

func collect(t *testing.T, it TripleIterator) []*rdf.Triple {
	t.Helper()
	defer func() { _ = it.Close() }()

	var triples []*rdf.Triple
	for it.Next() {
		triple, err := it.Triple()
		require.NoError(t, err)
		triples = append(triples, triple)
	}
	return triples
}

func subjects(triples []*rdf.Triple) []string {
	out := make([]string, len(triples))
	for i, t := range triples {
		out[i] = t.Subject.IRI
	}
	sort.Strings(out)
	return out
}

func TestAddAndContains(t *testing.T) {
	s := newStore(t)
	triple := tr("vault://notes/a", "vault://prop/status", rdf.NewLiteral("active"))

	require.NoError(t, s.Add(triple))

	ok, err := s.Contains(triple)
	require.NoError(t, err)
	assert.True(t, ok)

	absent, err := s.Contains(tr("vault://notes/a", "vault://prop/status", rdf.NewLiteral("done")))
	require.NoError(t, err)
	assert.False(t, absent)
	assert.Equal(t, 1, s.Len())
}

func TestAddIsIdempotent(t *testing.T) {
	s := newStore(t)
	triple := tr("vault://notes/a", "vault://prop/status", rdf.NewLiteral("active"))

	require.NoError(t, s.Add(triple))
	gen := s.Generation()

	require.NoError(t, s.Add(triple))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, gen, s.Generation(), "re-adding an existing triple is not a change")
}

func TestRemove(t *testing.T) {
	s := newStore(t)
	triple := tr("vault://notes/a", "vault://prop/status", rdf.NewLiteral("active"))

	require.NoError(t, s.Add(triple))
	require.NoError(t, s.Remove(triple))

	ok, err := s.Contains(triple)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestRemoveAbsentIsNoOp(t *testing.T) {
	s := newStore(t)
	gen := s.Generation()

	require.NoError(t, s.Remove(tr("vault://notes/ghost", "vault://prop/x", rdf.NewLiteral("y"))))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, gen, s.Generation())
}

func TestGenerationAdvancesOnChange(t *testing.T) {
	s := newStore(t)
	triple := tr("vault://notes/a", "vault://prop/x", rdf.NewLiteral("1"))

	g0 := s.Generation()
	require.NoError(t, s.Add(triple))
	g1 := s.Generation()
	assert.Greater(t, g1, g0)

	require.NoError(t, s.Remove(triple))
	assert.Greater(t, s.Generation(), g1)
}

func TestAddAllSingleBatch(t *testing.T) {
	s := newStore(t)

	triples := []*rdf.Triple{
		tr("vault://notes/a", "vault://prop/x", rdf.NewLiteral("1")),
		tr("vault://notes/b", "vault://prop/x", rdf.NewLiteral("2")),
		tr("vault://notes/a", "vault://prop/x", rdf.NewLiteral("1")), // duplicate inside the batch
	}
	g0 := s.Generation()
	require.NoError(t, s.AddAll(triples))

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, g0+1, s.Generation(), "one batch, one generation step")
}

func matchStore(t *testing.T) *TripleStore {
	t.Helper()
	s := newStore(t)
	require.NoError(t, s.AddAll([]*rdf.Triple{
		tr("vault://notes/a", "vault://prop/status", rdf.NewLiteral("active")),
		tr("vault://notes/b", "vault://prop/status", rdf.NewLiteral("active")),
		tr("vault://notes/b", "vault://prop/status", rdf.NewLiteral("stale")),
		tr("vault://notes/b", "vault://prop/tag", rdf.NewLiteral("work")),
		tr("vault://notes/c", "vault://prop/tag", rdf.NewLiteral("work")),
	}))
	return s
}

func TestMatchFullyBound(t *testing.T) {
	s := matchStore(t)

	it, err := s.Match(&Pattern{
		Subject:   rdf.NewNamedNode("vault://notes/a"),
		Predicate: rdf.NewNamedNode("vault://prop/status"),
		Object:    rdf.NewLiteral("active"),
	})
	require.NoError(t, err)
	assert.Len(t, collect(t, it), 1)
}

func TestMatchBySubject(t *testing.T) {
	s := matchStore(t)

	it, err := s.Match(&Pattern{
		Subject:   rdf.NewNamedNode("vault://notes/b"),
		Predicate: NewVariable("p"),
		Object:    NewVariable("o"),
	})
	require.NoError(t, err)
	assert.Len(t, collect(t, it), 3)
}

func TestMatchByPredicateObject(t *testing.T) {
	s := matchStore(t)

	it, err := s.Match(&Pattern{
		Subject:   NewVariable("s"),
		Predicate: rdf.NewNamedNode("vault://prop/status"),
		Object:    rdf.NewLiteral("active"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"vault://notes/a", "vault://notes/b"}, subjects(collect(t, it)))
}

func TestMatchByObject(t *testing.T) {
	s := matchStore(t)

	it, err := s.Match(&Pattern{
		Subject:   NewVariable("s"),
		Predicate: NewVariable("p"),
		Object:    rdf.NewLiteral("work"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"vault://notes/b", "vault://notes/c"}, subjects(collect(t, it)))
}

func TestMatchAllWildcards(t *testing.T) {
	s := matchStore(t)

	it, err := s.Match(&Pattern{
		Subject:   NewVariable("s"),
		Predicate: NewVariable("p"),
		Object:    NewVariable("o"),
	})
	require.NoError(t, err)
	assert.Len(t, collect(t, it), 5)
}

func TestMatchNilPositionsAreWildcards(t *testing.T) {
	s := matchStore(t)

	it, err := s.Match(&Pattern{Predicate: rdf.NewNamedNode("vault://prop/tag")})
	require.NoError(t, err)
	assert.Len(t, collect(t, it), 2)
}

func TestMatchNoResults(t *testing.T) {
	s := matchStore(t)

	it, err := s.Match(&Pattern{
		Subject:   NewVariable("s"),
		Predicate: rdf.NewNamedNode("vault://prop/missing"),
		Object:    NewVariable("o"),
	})
	require.NoError(t, err)
	assert.Empty(t, collect(t, it))
}

func TestMatchOrderIsStableAcrossCalls(t *testing.T) {
	s := matchStore(t)
	pattern := &Pattern{
		Subject:   NewVariable("s"),
		Predicate: NewVariable("p"),
		Object:    NewVariable("o"),
	}

	it1, err := s.Match(pattern)
	require.NoError(t, err)
	first := collect(t, it1)

	it2, err := s.Match(pattern)
	require.NoError(t, err)
	second := collect(t, it2)

	require.Len(t, second, len(first))
	for i := range first {
		assert.True(t, first[i].Equals(second[i]))
	}
}

func TestMatchSeesSnapshot(t *testing.T) {
	s := matchStore(t)

	it, err := s.Match(&Pattern{
		Subject:   NewVariable("s"),
		Predicate: rdf.NewNamedNode("vault://prop/tag"),
		Object:    NewVariable("o"),
	})
	require.NoError(t, err)

	// A write racing with an open iterator must not affect it
	require.NoError(t, s.Add(tr("vault://notes/d", "vault://prop/tag", rdf.NewLiteral("late"))))
	assert.Len(t, collect(t, it), 2)
}

func TestMatchDecodesTypedObjects(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Add(tr("vault://notes/a", "vault://prop/priority", rdf.NewIntegerLiteral(7))))

	it, err := s.Match(&Pattern{
		Subject:   rdf.NewNamedNode("vault://notes/a"),
		Predicate: rdf.NewNamedNode("vault://prop/priority"),
		Object:    NewVariable("o"),
	})
	require.NoError(t, err)

	triples := collect(t, it)
	require.Len(t, triples, 1)
	assert.True(t, rdf.NewIntegerLiteral(7).Equals(triples[0].Object))
}
