// Package evaluator evaluates filter and bind expressions against a
// solution mapping. Evaluation is total over the expression grammar but
// partial over values: type mismatches and unbound variables return errors,
// which the caller maps to its own semantics (a filter drops the row, a
// bind leaves the target unbound).
package evaluator

import (
	"errors"
	"fmt"

	"github.com/notegraph/notegraph/pkg/rdf"
	"github.com/notegraph/notegraph/pkg/sparql/algebra"
	"github.com/notegraph/notegraph/pkg/sparql/parser"
)

// ErrUnboundVariable is returned when an expression references a variable
// the mapping does not bind. BOUND() is the one place this is not an error.
var ErrUnboundVariable = errors.New("unbound variable in expression")

// ErrTypeMismatch is returned when an operator or function receives a value
// outside its domain.
var ErrTypeMismatch = errors.New("type mismatch in expression")

// Evaluate computes the value of an expression under a mapping.
func Evaluate(expr parser.Expression, m *algebra.Mapping) (rdf.Term, error) {
	switch e := expr.(type) {
	case *parser.VariableExpression:
		term, ok := m.Get(e.Variable.Name)
		if !ok {
			return nil, fmt.Errorf("%w: ?%s", ErrUnboundVariable, e.Variable.Name)
		}
		return term, nil

	case *parser.TermExpression:
		return e.Term, nil

	case *parser.UnaryExpression:
		return evaluateUnary(e, m)

	case *parser.BinaryExpression:
		return evaluateBinary(e, m)

	case *parser.FunctionCallExpression:
		return evaluateFunction(e, m)

	default:
		return nil, fmt.Errorf("unsupported expression type %T", expr)
	}
}

// EvaluateBool evaluates an expression and coerces the result to its
// effective boolean value.
func EvaluateBool(expr parser.Expression, m *algebra.Mapping) (bool, error) {
	term, err := Evaluate(expr, m)
	if err != nil {
		return false, err
	}
	return EffectiveBooleanValue(term)
}

func evaluateUnary(e *parser.UnaryExpression, m *algebra.Mapping) (rdf.Term, error) {
	switch e.Operator {
	case parser.OpNot:
		val, err := EvaluateBool(e.Operand, m)
		if err != nil {
			return nil, err
		}
		return rdf.NewBooleanLiteral(!val), nil

	case parser.OpNegate:
		term, err := Evaluate(e.Operand, m)
		if err != nil {
			return nil, err
		}
		num, err := numericValue(term)
		if err != nil {
			return nil, err
		}
		return num.Negate().Literal(), nil

	default:
		return nil, fmt.Errorf("unsupported unary operator %d", e.Operator)
	}
}

func evaluateBinary(e *parser.BinaryExpression, m *algebra.Mapping) (rdf.Term, error) {
	switch e.Operator {
	case parser.OpAnd:
		return evaluateAnd(e, m)
	case parser.OpOr:
		return evaluateOr(e, m)
	}

	left, err := Evaluate(e.Left, m)
	if err != nil {
		return nil, err
	}
	right, err := Evaluate(e.Right, m)
	if err != nil {
		return nil, err
	}

	switch e.Operator {
	case parser.OpEqual, parser.OpNotEqual,
		parser.OpLessThan, parser.OpLessThanOrEqual,
		parser.OpGreaterThan, parser.OpGreaterThanOrEqual:
		return compare(e.Operator, left, right)

	case parser.OpAdd, parser.OpSubtract, parser.OpMultiply, parser.OpDivide:
		return arithmetic(e.Operator, left, right)

	default:
		return nil, fmt.Errorf("unsupported binary operator %d", e.Operator)
	}
}

// evaluateAnd implements && with error recovery: if one operand errors, the
// other can still force the result to false.
func evaluateAnd(e *parser.BinaryExpression, m *algebra.Mapping) (rdf.Term, error) {
	left, leftErr := EvaluateBool(e.Left, m)
	right, rightErr := EvaluateBool(e.Right, m)

	switch {
	case leftErr == nil && rightErr == nil:
		return rdf.NewBooleanLiteral(left && right), nil
	case leftErr == nil && !left:
		return rdf.NewBooleanLiteral(false), nil
	case rightErr == nil && !right:
		return rdf.NewBooleanLiteral(false), nil
	case leftErr != nil:
		return nil, leftErr
	default:
		return nil, rightErr
	}
}

// evaluateOr implements || with error recovery: if one operand errors, the
// other can still force the result to true.
func evaluateOr(e *parser.BinaryExpression, m *algebra.Mapping) (rdf.Term, error) {
	left, leftErr := EvaluateBool(e.Left, m)
	right, rightErr := EvaluateBool(e.Right, m)

	switch {
	case leftErr == nil && rightErr == nil:
		return rdf.NewBooleanLiteral(left || right), nil
	case leftErr == nil && left:
		return rdf.NewBooleanLiteral(true), nil
	case rightErr == nil && right:
		return rdf.NewBooleanLiteral(true), nil
	case leftErr != nil:
		return nil, leftErr
	default:
		return nil, rightErr
	}
}
