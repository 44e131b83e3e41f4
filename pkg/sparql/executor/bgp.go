package executor

import (
	"github.com/notegraph/notegraph/pkg/rdf"
	"github.com/notegraph/notegraph/pkg/sparql/algebra"
	"github.com/notegraph/notegraph/pkg/store"
)

// bgpIterator evaluates a basic graph pattern by backtracking: each pattern
// level holds an index scan built with the bindings accumulated by the
// levels above it. An empty pattern list is the unit pattern and yields a
// single empty mapping.
type bgpIterator struct {
	store    *store.TripleStore
	patterns []*algebra.TriplePattern

	levels  []*bgpLevel
	current *algebra.Mapping
	err     error
	started bool
	done    bool
}

type bgpLevel struct {
	it      store.TripleIterator
	mapping *algebra.Mapping // bindings accumulated before this level
}

func newBGPIterator(s *store.TripleStore, patterns []*algebra.TriplePattern) *bgpIterator {
	return &bgpIterator{store: s, patterns: patterns}
}

func (b *bgpIterator) Next() bool {
	if b.done || b.err != nil {
		return false
	}

	if !b.started {
		b.started = true
		if len(b.patterns) == 0 {
			b.current = algebra.NewMapping()
			b.done = true
			return true
		}
		if !b.push(algebra.NewMapping()) {
			return false
		}
	}

	for len(b.levels) > 0 {
		level := b.levels[len(b.levels)-1]
		depth := len(b.levels) - 1

		if !level.it.Next() {
			b.pop()
			continue
		}

		triple, err := level.it.Triple()
		if err != nil {
			b.fail(err)
			return false
		}

		mapping, ok := bindTriple(b.patterns[depth], triple, level.mapping)
		if !ok {
			continue
		}

		if depth == len(b.patterns)-1 {
			b.current = mapping
			return true
		}
		if !b.push(mapping) {
			return false
		}
	}

	b.done = true
	return false
}

// push opens the scan for the next pattern level under the given bindings
func (b *bgpIterator) push(mapping *algebra.Mapping) bool {
	pattern := substitutePattern(b.patterns[len(b.levels)], mapping)
	it, err := b.store.Match(pattern)
	if err != nil {
		b.fail(err)
		return false
	}
	b.levels = append(b.levels, &bgpLevel{it: it, mapping: mapping})
	return true
}

func (b *bgpIterator) pop() {
	level := b.levels[len(b.levels)-1]
	_ = level.it.Close()
	b.levels = b.levels[:len(b.levels)-1]
}

func (b *bgpIterator) fail(err error) {
	b.err = err
	b.closeLevels()
	b.done = true
}

func (b *bgpIterator) Mapping() *algebra.Mapping {
	return b.current
}

func (b *bgpIterator) Err() error {
	return b.err
}

func (b *bgpIterator) Close() error {
	b.closeLevels()
	b.done = true
	return nil
}

func (b *bgpIterator) closeLevels() {
	for len(b.levels) > 0 {
		b.pop()
	}
}

// substitutePattern turns an algebra pattern into a store pattern, with
// variables already bound by the current mapping replaced by their terms.
func substitutePattern(p *algebra.TriplePattern, m *algebra.Mapping) *store.Pattern {
	return &store.Pattern{
		Subject:   substitutePosition(p.Subject, m),
		Predicate: substitutePosition(p.Predicate, m),
		Object:    substitutePosition(p.Object, m),
	}
}

func substitutePosition(pt algebra.PatternTerm, m *algebra.Mapping) any {
	if !pt.IsVar() {
		return pt.Term
	}
	if term, ok := m.Get(pt.Var); ok {
		return term
	}
	return store.NewVariable(pt.Var)
}

// bindTriple extends a mapping with the variable bindings a matched triple
// implies. It reports false when a repeated variable would have to bind two
// different terms.
func bindTriple(p *algebra.TriplePattern, t *rdf.Triple, base *algebra.Mapping) (*algebra.Mapping, bool) {
	mapping := base.Clone()

	bind := func(pt algebra.PatternTerm, term rdf.Term) bool {
		if !pt.IsVar() {
			return true
		}
		if existing, ok := mapping.Get(pt.Var); ok {
			return existing.Equals(term)
		}
		mapping.Set(pt.Var, term)
		return true
	}

	if !bind(p.Subject, t.Subject) {
		return nil, false
	}
	if !bind(p.Predicate, t.Predicate) {
		return nil, false
	}
	if !bind(p.Object, t.Object) {
		return nil, false
	}
	return mapping, true
}
