// Package engine ties the query pipeline together: parse, translate,
// optimize, execute. It is the only package callers need for running
// queries against a store.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/notegraph/notegraph/pkg/sparql/algebra"
	"github.com/notegraph/notegraph/pkg/sparql/executor"
	"github.com/notegraph/notegraph/pkg/sparql/optimizer"
	"github.com/notegraph/notegraph/pkg/sparql/parser"
	"github.com/notegraph/notegraph/pkg/store"
)

// ErrorKind classifies where in the pipeline a query failed
type ErrorKind int

const (
	ErrorKindParse ErrorKind = iota
	ErrorKindTranslate
	ErrorKindExecution
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindParse:
		return "parse"
	case ErrorKindTranslate:
		return "translate"
	case ErrorKindExecution:
		return "execution"
	default:
		return "unknown"
	}
}

// QueryError wraps a pipeline failure with its stage and the query's ID
type QueryError struct {
	Kind    ErrorKind
	QueryID string
	Err     error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Result holds a fully materialized query result. Variables lists the
// projected columns in projection order; a row may leave any of them
// unbound.
type Result struct {
	Variables []string
	Rows      []*algebra.Mapping
}

// Count returns the number of result rows
func (r *Result) Count() int {
	return len(r.Rows)
}

const planCacheLimit = 128

type cachedPlan struct {
	node       *algebra.Node
	vars       []string
	generation uint64
}

// Engine runs queries against one triple store
type Engine struct {
	store     *store.TripleStore
	optimizer *optimizer.Optimizer
	exec      *executor.Executor
	logger    *slog.Logger

	mu    sync.Mutex
	plans map[string]cachedPlan
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the engine's logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithOptimizer replaces the default rule set
func WithOptimizer(o *optimizer.Optimizer) Option {
	return func(e *Engine) {
		e.optimizer = o
	}
}

// New creates an engine over the given store
func New(s *store.TripleStore, opts ...Option) *Engine {
	e := &Engine{
		store:     s,
		optimizer: optimizer.Default(),
		exec:      executor.New(s),
		logger:    slog.Default(),
		plans:     make(map[string]cachedPlan),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Query parses, plans and fully evaluates a query
func (e *Engine) Query(ctx context.Context, query string) (*Result, error) {
	queryID := uuid.NewString()
	e.logger.Debug("query received", "query_id", queryID, "query", query)

	plan, err := e.plan(queryID, query)
	if err != nil {
		return nil, err
	}

	rows, err := e.exec.ExecuteAll(ctx, plan.node)
	if err != nil {
		e.logger.Warn("query failed", "query_id", queryID, "error", err)
		return nil, &QueryError{Kind: ErrorKindExecution, QueryID: queryID, Err: err}
	}

	e.logger.Info("query completed", "query_id", queryID, "rows", len(rows))
	return &Result{Variables: plan.vars, Rows: rows}, nil
}

// Stream parses and plans a query, returning the projected variables and a
// streaming iterator over its solutions. The caller owns the iterator.
func (e *Engine) Stream(ctx context.Context, query string) ([]string, executor.Iterator, error) {
	queryID := uuid.NewString()

	plan, err := e.plan(queryID, query)
	if err != nil {
		return nil, nil, err
	}

	it, err := e.exec.Execute(ctx, plan.node)
	if err != nil {
		return nil, nil, &QueryError{Kind: ErrorKindExecution, QueryID: queryID, Err: err}
	}
	return plan.vars, it, nil
}

// plan returns a cached plan for the query text, or builds one. A cached
// plan is reused only while the store generation it was built against is
// current.
func (e *Engine) plan(queryID, query string) (cachedPlan, error) {
	generation := e.store.Generation()

	e.mu.Lock()
	if cached, ok := e.plans[query]; ok && cached.generation == generation {
		e.mu.Unlock()
		e.logger.Debug("plan cache hit", "query_id", queryID)
		return cached, nil
	}
	e.mu.Unlock()

	parsed, err := parser.NewParser(query).Parse()
	if err != nil {
		return cachedPlan{}, &QueryError{Kind: ErrorKindParse, QueryID: queryID, Err: err}
	}

	node, err := algebra.Translate(parsed)
	if err != nil {
		return cachedPlan{}, &QueryError{Kind: ErrorKindTranslate, QueryID: queryID, Err: err}
	}

	plan := cachedPlan{
		node:       e.optimize(queryID, node),
		vars:       projectionOf(node),
		generation: generation,
	}

	e.mu.Lock()
	if len(e.plans) >= planCacheLimit {
		for k := range e.plans {
			delete(e.plans, k)
			break
		}
	}
	e.plans[query] = plan
	e.mu.Unlock()

	return plan, nil
}

// optimize applies the rule set, falling back to the unoptimized tree if a
// rule panics. A broken rewrite must never break a valid query.
func (e *Engine) optimize(queryID string, node *algebra.Node) (out *algebra.Node) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("optimizer panic, using unoptimized plan",
				"query_id", queryID, "panic", r)
			out = node
		}
	}()
	return e.optimizer.Optimize(node)
}

// projectionOf extracts the projected variable list from the plan's
// Project node, which sits below any Slice and Distinct.
func projectionOf(node *algebra.Node) []string {
	for node != nil {
		if node.Kind == algebra.KindProject {
			return node.Vars
		}
		node = node.Input
	}
	return nil
}
