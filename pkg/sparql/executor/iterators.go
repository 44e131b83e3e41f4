package executor

import (
	"context"

	"github.com/notegraph/notegraph/pkg/sparql/algebra"
	"github.com/notegraph/notegraph/pkg/sparql/evaluator"
	"github.com/notegraph/notegraph/pkg/sparql/parser"
)

// joinIterator is a nested-loop join: for each left row it re-evaluates the
// right subtree and emits every compatible merge.
type joinIterator struct {
	exec  *Executor
	ctx   context.Context
	left  Iterator
	right *algebra.Node

	leftMapping *algebra.Mapping
	rightIt     Iterator
	current     *algebra.Mapping
	err         error
}

func (j *joinIterator) Next() bool {
	if j.err != nil {
		return false
	}

	for {
		if j.rightIt == nil {
			if !j.left.Next() {
				j.err = j.left.Err()
				return false
			}
			j.leftMapping = j.left.Mapping()

			it, err := j.exec.build(j.ctx, j.right)
			if err != nil {
				j.err = err
				return false
			}
			j.rightIt = it
		}

		for j.rightIt.Next() {
			rightMapping := j.rightIt.Mapping()
			if j.leftMapping.Compatible(rightMapping) {
				j.current = j.leftMapping.Merge(rightMapping)
				return true
			}
		}
		if err := j.rightIt.Err(); err != nil {
			j.err = err
			return false
		}
		_ = j.rightIt.Close()
		j.rightIt = nil
	}
}

func (j *joinIterator) Mapping() *algebra.Mapping { return j.current }
func (j *joinIterator) Err() error                { return j.err }

func (j *joinIterator) Close() error {
	if j.rightIt != nil {
		_ = j.rightIt.Close()
		j.rightIt = nil
	}
	return j.left.Close()
}

// leftJoinIterator implements OPTIONAL: every left row survives, extended
// by each compatible right row when one exists, unchanged otherwise.
type leftJoinIterator struct {
	exec  *Executor
	ctx   context.Context
	left  Iterator
	right *algebra.Node

	leftMapping *algebra.Mapping
	rightIt     Iterator
	matched     bool
	current     *algebra.Mapping
	err         error
}

func (l *leftJoinIterator) Next() bool {
	if l.err != nil {
		return false
	}

	for {
		if l.rightIt == nil {
			if !l.left.Next() {
				l.err = l.left.Err()
				return false
			}
			l.leftMapping = l.left.Mapping()
			l.matched = false

			it, err := l.exec.build(l.ctx, l.right)
			if err != nil {
				l.err = err
				return false
			}
			l.rightIt = it
		}

		for l.rightIt.Next() {
			rightMapping := l.rightIt.Mapping()
			if l.leftMapping.Compatible(rightMapping) {
				l.matched = true
				l.current = l.leftMapping.Merge(rightMapping)
				return true
			}
		}
		if err := l.rightIt.Err(); err != nil {
			l.err = err
			return false
		}
		_ = l.rightIt.Close()
		l.rightIt = nil

		if !l.matched {
			l.current = l.leftMapping
			return true
		}
	}
}

func (l *leftJoinIterator) Mapping() *algebra.Mapping { return l.current }
func (l *leftJoinIterator) Err() error                { return l.err }

func (l *leftJoinIterator) Close() error {
	if l.rightIt != nil {
		_ = l.rightIt.Close()
		l.rightIt = nil
	}
	return l.left.Close()
}

// unionIterator concatenates both branches, left first. Duplicates are
// kept; UNION has bag semantics.
type unionIterator struct {
	left    Iterator
	right   Iterator
	onRight bool
	err     error
}

func (u *unionIterator) Next() bool {
	if u.err != nil {
		return false
	}
	if !u.onRight {
		if u.left.Next() {
			return true
		}
		if err := u.left.Err(); err != nil {
			u.err = err
			return false
		}
		u.onRight = true
	}
	if u.right.Next() {
		return true
	}
	u.err = u.right.Err()
	return false
}

func (u *unionIterator) Mapping() *algebra.Mapping {
	if u.onRight {
		return u.right.Mapping()
	}
	return u.left.Mapping()
}

func (u *unionIterator) Err() error { return u.err }

func (u *unionIterator) Close() error {
	_ = u.left.Close()
	return u.right.Close()
}

// minusIterator implements MINUS. The right side is fully materialized on
// first use; a left row is excluded only when some right row shares at
// least one variable with it and agrees on every shared one. Rows with
// disjoint variables never exclude anything.
type minusIterator struct {
	exec  *Executor
	ctx   context.Context
	left  Iterator
	right *algebra.Node

	rightRows []*algebra.Mapping
	loaded    bool
	current   *algebra.Mapping
	err       error
}

func (m *minusIterator) Next() bool {
	if m.err != nil {
		return false
	}

	if !m.loaded {
		rows, err := m.exec.ExecuteAll(m.ctx, m.right)
		if err != nil {
			m.err = err
			return false
		}
		m.rightRows = rows
		m.loaded = true
	}

	for m.left.Next() {
		mapping := m.left.Mapping()
		if !m.excluded(mapping) {
			m.current = mapping
			return true
		}
	}
	m.err = m.left.Err()
	return false
}

func (m *minusIterator) excluded(mapping *algebra.Mapping) bool {
	for _, right := range m.rightRows {
		if mapping.SharesVariable(right) && mapping.Compatible(right) {
			return true
		}
	}
	return false
}

func (m *minusIterator) Mapping() *algebra.Mapping { return m.current }
func (m *minusIterator) Err() error                { return m.err }
func (m *minusIterator) Close() error              { return m.left.Close() }

// filterIterator keeps rows whose filter expression evaluates to true.
// Evaluation errors (unbound variables, type mismatches) reject the row;
// they are not query errors.
type filterIterator struct {
	input   Iterator
	expr    parser.Expression
	current *algebra.Mapping
}

func (f *filterIterator) Next() bool {
	for f.input.Next() {
		mapping := f.input.Mapping()
		keep, err := evaluator.EvaluateBool(f.expr, mapping)
		if err == nil && keep {
			f.current = mapping
			return true
		}
	}
	return false
}

func (f *filterIterator) Mapping() *algebra.Mapping { return f.current }
func (f *filterIterator) Err() error                { return f.input.Err() }
func (f *filterIterator) Close() error              { return f.input.Close() }

// extendIterator implements BIND. A failed evaluation leaves the target
// variable unbound but keeps the row.
type extendIterator struct {
	input   Iterator
	name    string
	expr    parser.Expression
	current *algebra.Mapping
}

func (e *extendIterator) Next() bool {
	if !e.input.Next() {
		return false
	}
	mapping := e.input.Mapping()
	if value, err := evaluator.Evaluate(e.expr, mapping); err == nil {
		extended := mapping.Clone()
		extended.Set(e.name, value)
		mapping = extended
	}
	e.current = mapping
	return true
}

func (e *extendIterator) Mapping() *algebra.Mapping { return e.current }
func (e *extendIterator) Err() error                { return e.input.Err() }
func (e *extendIterator) Close() error              { return e.input.Close() }

// projectIterator restricts each mapping to the projection list. Projected
// variables the row does not bind stay absent.
type projectIterator struct {
	input   Iterator
	vars    []string
	current *algebra.Mapping
}

func (p *projectIterator) Next() bool {
	if !p.input.Next() {
		return false
	}
	mapping := p.input.Mapping()
	projected := algebra.NewMapping()
	for _, name := range p.vars {
		if term, ok := mapping.Get(name); ok {
			projected.Set(name, term)
		}
	}
	p.current = projected
	return true
}

func (p *projectIterator) Mapping() *algebra.Mapping { return p.current }
func (p *projectIterator) Err() error                { return p.input.Err() }
func (p *projectIterator) Close() error              { return p.input.Close() }

// distinctIterator drops rows whose canonical signature was already seen
type distinctIterator struct {
	input   Iterator
	seen    map[string]struct{}
	current *algebra.Mapping
}

func (d *distinctIterator) Next() bool {
	for d.input.Next() {
		mapping := d.input.Mapping()
		sig := mapping.Signature()
		if _, dup := d.seen[sig]; dup {
			continue
		}
		d.seen[sig] = struct{}{}
		d.current = mapping
		return true
	}
	return false
}

func (d *distinctIterator) Mapping() *algebra.Mapping { return d.current }
func (d *distinctIterator) Err() error                { return d.input.Err() }
func (d *distinctIterator) Close() error              { return d.input.Close() }

// sliceIterator implements OFFSET and LIMIT; limit -1 means unlimited
type sliceIterator struct {
	input   Iterator
	limit   int
	offset  int
	skipped int
	emitted int
	current *algebra.Mapping
}

func (s *sliceIterator) Next() bool {
	if s.limit >= 0 && s.emitted >= s.limit {
		return false
	}
	for s.input.Next() {
		if s.skipped < s.offset {
			s.skipped++
			continue
		}
		s.current = s.input.Mapping()
		s.emitted++
		return true
	}
	return false
}

func (s *sliceIterator) Mapping() *algebra.Mapping { return s.current }
func (s *sliceIterator) Err() error                { return s.input.Err() }
func (s *sliceIterator) Close() error              { return s.input.Close() }
