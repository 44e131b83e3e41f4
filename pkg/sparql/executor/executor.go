// Package executor evaluates operator trees against a triple store using a
// pull-based iterator model. Results stream: no operator does unbounded
// work before the first row except MINUS, which materializes its right side.
package executor

import (
	"context"
	"fmt"

	"github.com/notegraph/notegraph/pkg/sparql/algebra"
	"github.com/notegraph/notegraph/pkg/store"
)

// Iterator streams solution mappings. The usual loop is
//
//	for it.Next() { use(it.Mapping()) }
//	if it.Err() != nil { ... }
//
// Mapping is only valid until the next call to Next. Close releases the
// underlying store iterators and is safe to call more than once.
type Iterator interface {
	Next() bool
	Mapping() *algebra.Mapping
	Err() error
	Close() error
}

// Executor evaluates operator trees against one store
type Executor struct {
	store *store.TripleStore
}

// New creates an executor over the given store
func New(s *store.TripleStore) *Executor {
	return &Executor{store: s}
}

// Execute returns a streaming iterator over the tree's solutions. The
// context is checked between rows; after cancellation Next returns false
// and Err reports the context error.
func (e *Executor) Execute(ctx context.Context, node *algebra.Node) (Iterator, error) {
	it, err := e.build(ctx, node)
	if err != nil {
		return nil, err
	}
	return &ctxIterator{ctx: ctx, inner: it}, nil
}

// ExecuteAll drains Execute into a slice. It returns the same multiset of
// mappings, in the same order, as the streaming form.
func (e *Executor) ExecuteAll(ctx context.Context, node *algebra.Node) ([]*algebra.Mapping, error) {
	it, err := e.Execute(ctx, node)
	if err != nil {
		return nil, err
	}
	defer func() { _ = it.Close() }()

	var results []*algebra.Mapping
	for it.Next() {
		results = append(results, it.Mapping())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Executor) build(ctx context.Context, node *algebra.Node) (Iterator, error) {
	switch node.Kind {
	case algebra.KindBGP:
		return newBGPIterator(e.store, node.Patterns), nil

	case algebra.KindJoin:
		left, err := e.build(ctx, node.Left)
		if err != nil {
			return nil, err
		}
		return &joinIterator{exec: e, ctx: ctx, left: left, right: node.Right}, nil

	case algebra.KindLeftJoin:
		left, err := e.build(ctx, node.Left)
		if err != nil {
			return nil, err
		}
		return &leftJoinIterator{exec: e, ctx: ctx, left: left, right: node.Right}, nil

	case algebra.KindUnion:
		left, err := e.build(ctx, node.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.build(ctx, node.Right)
		if err != nil {
			_ = left.Close()
			return nil, err
		}
		return &unionIterator{left: left, right: right}, nil

	case algebra.KindMinus:
		left, err := e.build(ctx, node.Left)
		if err != nil {
			return nil, err
		}
		return &minusIterator{exec: e, ctx: ctx, left: left, right: node.Right}, nil

	case algebra.KindFilter:
		input, err := e.build(ctx, node.Input)
		if err != nil {
			return nil, err
		}
		return &filterIterator{input: input, expr: node.Expr}, nil

	case algebra.KindExtend:
		input, err := e.build(ctx, node.Input)
		if err != nil {
			return nil, err
		}
		return &extendIterator{input: input, name: node.Var, expr: node.Expr}, nil

	case algebra.KindProject:
		input, err := e.build(ctx, node.Input)
		if err != nil {
			return nil, err
		}
		return &projectIterator{input: input, vars: node.Vars}, nil

	case algebra.KindDistinct:
		input, err := e.build(ctx, node.Input)
		if err != nil {
			return nil, err
		}
		return &distinctIterator{input: input, seen: make(map[string]struct{})}, nil

	case algebra.KindSlice:
		input, err := e.build(ctx, node.Input)
		if err != nil {
			return nil, err
		}
		return &sliceIterator{input: input, limit: node.Limit, offset: node.Offset}, nil

	default:
		return nil, fmt.Errorf("executor: unknown node kind %s", node.Kind)
	}
}

// ctxIterator enforces cancellation between rows
type ctxIterator struct {
	ctx   context.Context
	inner Iterator
	err   error
}

func (c *ctxIterator) Next() bool {
	if c.err != nil {
		return false
	}
	if err := c.ctx.Err(); err != nil {
		c.err = err
		return false
	}
	return c.inner.Next()
}

func (c *ctxIterator) Mapping() *algebra.Mapping {
	return c.inner.Mapping()
}

func (c *ctxIterator) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.inner.Err()
}

func (c *ctxIterator) Close() error {
	return c.inner.Close()
}
