package evaluator

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/notegraph/notegraph/pkg/rdf"
	"github.com/notegraph/notegraph/pkg/sparql/parser"
)

// EffectiveBooleanValue implements boolean coercion: booleans are
// themselves, numbers are true unless zero or NaN, strings are true unless
// empty. Everything else (IRIs, blank nodes, dates) has no boolean value.
func EffectiveBooleanValue(term rdf.Term) (bool, error) {
	lit, ok := term.(*rdf.Literal)
	if !ok {
		return false, fmt.Errorf("%w: no boolean value for %s", ErrTypeMismatch, term)
	}

	switch {
	case lit.Datatype != nil && lit.Datatype.Equals(rdf.XSDBoolean):
		switch lit.Value {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		default:
			return false, fmt.Errorf("%w: malformed boolean %q", ErrTypeMismatch, lit.Value)
		}

	case isNumericDatatype(lit.Datatype):
		f, err := strconv.ParseFloat(lit.Value, 64)
		if err != nil {
			return false, fmt.Errorf("%w: malformed number %q", ErrTypeMismatch, lit.Value)
		}
		return f != 0 && !math.IsNaN(f), nil

	case isStringish(lit):
		return lit.Value != "", nil

	default:
		return false, fmt.Errorf("%w: no boolean value for %s", ErrTypeMismatch, term)
	}
}

type numericKind int

const (
	numInteger numericKind = iota
	numDecimal
	numDouble
)

// numeric is the evaluation-time form of a numeric literal. Integers keep
// int64 precision; decimal and double share float64.
type numeric struct {
	kind numericKind
	i    int64
	f    float64
}

func (n numeric) Float() float64 {
	if n.kind == numInteger {
		return float64(n.i)
	}
	return n.f
}

func (n numeric) Negate() numeric {
	if n.kind == numInteger {
		return numeric{kind: numInteger, i: -n.i}
	}
	return numeric{kind: n.kind, f: -n.f}
}

func (n numeric) Literal() *rdf.Literal {
	switch n.kind {
	case numInteger:
		return rdf.NewIntegerLiteral(n.i)
	case numDecimal:
		return rdf.NewLiteralWithDatatype(strconv.FormatFloat(n.f, 'f', -1, 64), rdf.XSDDecimal)
	default:
		return rdf.NewDoubleLiteral(n.f)
	}
}

func isNumericDatatype(dt *rdf.NamedNode) bool {
	if dt == nil {
		return false
	}
	return dt.Equals(rdf.XSDInteger) || dt.Equals(rdf.XSDDecimal) || dt.Equals(rdf.XSDDouble)
}

// isStringish reports whether the literal is a plain, xsd:string or
// language-tagged string.
func isStringish(lit *rdf.Literal) bool {
	if lit.Language != "" {
		return true
	}
	return lit.Datatype == nil || lit.Datatype.Equals(rdf.XSDString)
}

// numericValue extracts the numeric value of a term, or a type mismatch
// error if the term is not a well-formed numeric literal.
func numericValue(term rdf.Term) (numeric, error) {
	lit, ok := term.(*rdf.Literal)
	if !ok || !isNumericDatatype(lit.Datatype) {
		return numeric{}, fmt.Errorf("%w: %s is not numeric", ErrTypeMismatch, term)
	}

	if lit.Datatype.Equals(rdf.XSDInteger) {
		i, err := strconv.ParseInt(lit.Value, 10, 64)
		if err != nil {
			return numeric{}, fmt.Errorf("%w: malformed integer %q", ErrTypeMismatch, lit.Value)
		}
		return numeric{kind: numInteger, i: i}, nil
	}

	f, err := strconv.ParseFloat(lit.Value, 64)
	if err != nil {
		return numeric{}, fmt.Errorf("%w: malformed number %q", ErrTypeMismatch, lit.Value)
	}
	kind := numDecimal
	if lit.Datatype.Equals(rdf.XSDDouble) {
		kind = numDouble
	}
	return numeric{kind: kind, f: f}, nil
}

// compare evaluates a comparison operator over two terms. Numbers compare
// by value across numeric datatypes; strings, booleans and dates compare
// within their own domain. Ordering across domains, or over IRIs and blank
// nodes, is an error; equality over those falls back to term equality.
func compare(op parser.Operator, left, right rdf.Term) (rdf.Term, error) {
	if cmp, ok := compareValues(left, right); ok {
		return comparisonResult(op, cmp)
	}

	// No value-space order for this pair; only (in)equality remains
	switch op {
	case parser.OpEqual:
		return rdf.NewBooleanLiteral(left.Equals(right)), nil
	case parser.OpNotEqual:
		return rdf.NewBooleanLiteral(!left.Equals(right)), nil
	default:
		return nil, fmt.Errorf("%w: cannot order %s and %s", ErrTypeMismatch, left, right)
	}
}

// compareValues returns -1/0/1 when both terms live in the same ordered
// value space, and ok=false otherwise.
func compareValues(left, right rdf.Term) (int, bool) {
	lnum, lerr := numericValue(left)
	rnum, rerr := numericValue(right)
	if lerr == nil && rerr == nil {
		if lnum.kind == numInteger && rnum.kind == numInteger {
			return compareOrdered(lnum.i, rnum.i), true
		}
		return compareOrdered(lnum.Float(), rnum.Float()), true
	}

	llit, lok := left.(*rdf.Literal)
	rlit, rok := right.(*rdf.Literal)
	if !lok || !rok {
		return 0, false
	}

	if isStringish(llit) && isStringish(rlit) && llit.Language == rlit.Language {
		return compareOrdered(llit.Value, rlit.Value), true
	}

	if llit.Datatype != nil && rlit.Datatype != nil {
		switch {
		case llit.Datatype.Equals(rdf.XSDBoolean) && rlit.Datatype.Equals(rdf.XSDBoolean):
			return compareOrdered(boolRank(llit.Value), boolRank(rlit.Value)), true
		case sameTemporal(llit.Datatype, rlit.Datatype):
			lt, lerr := parseTemporal(llit)
			rt, rerr := parseTemporal(rlit)
			if lerr != nil || rerr != nil {
				return 0, false
			}
			switch {
			case lt.Before(rt):
				return -1, true
			case lt.After(rt):
				return 1, true
			default:
				return 0, true
			}
		}
	}

	return 0, false
}

func compareOrdered[T int64 | float64 | string | int](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolRank(value string) int {
	if value == "true" || value == "1" {
		return 1
	}
	return 0
}

func sameTemporal(a, b *rdf.NamedNode) bool {
	return (a.Equals(rdf.XSDDateTime) && b.Equals(rdf.XSDDateTime)) ||
		(a.Equals(rdf.XSDDate) && b.Equals(rdf.XSDDate))
}

func parseTemporal(lit *rdf.Literal) (time.Time, error) {
	if lit.Datatype.Equals(rdf.XSDDate) {
		return time.Parse("2006-01-02", lit.Value)
	}
	return time.Parse(time.RFC3339, lit.Value)
}

func comparisonResult(op parser.Operator, cmp int) (rdf.Term, error) {
	var result bool
	switch op {
	case parser.OpEqual:
		result = cmp == 0
	case parser.OpNotEqual:
		result = cmp != 0
	case parser.OpLessThan:
		result = cmp < 0
	case parser.OpLessThanOrEqual:
		result = cmp <= 0
	case parser.OpGreaterThan:
		result = cmp > 0
	case parser.OpGreaterThanOrEqual:
		result = cmp >= 0
	default:
		return nil, fmt.Errorf("unsupported comparison operator %d", op)
	}
	return rdf.NewBooleanLiteral(result), nil
}

// arithmetic evaluates +, -, *, / over two numeric terms. Integer operands
// keep integer results except for division, which promotes to decimal.
func arithmetic(op parser.Operator, left, right rdf.Term) (rdf.Term, error) {
	lnum, err := numericValue(left)
	if err != nil {
		return nil, err
	}
	rnum, err := numericValue(right)
	if err != nil {
		return nil, err
	}

	if lnum.kind == numInteger && rnum.kind == numInteger && op != parser.OpDivide {
		var result int64
		switch op {
		case parser.OpAdd:
			result = lnum.i + rnum.i
		case parser.OpSubtract:
			result = lnum.i - rnum.i
		case parser.OpMultiply:
			result = lnum.i * rnum.i
		}
		return rdf.NewIntegerLiteral(result), nil
	}

	kind := numDecimal
	if lnum.kind == numDouble || rnum.kind == numDouble {
		kind = numDouble
	}

	lf, rf := lnum.Float(), rnum.Float()
	var result float64
	switch op {
	case parser.OpAdd:
		result = lf + rf
	case parser.OpSubtract:
		result = lf - rf
	case parser.OpMultiply:
		result = lf * rf
	case parser.OpDivide:
		if rf == 0 && kind != numDouble {
			return nil, fmt.Errorf("%w: division by zero", ErrTypeMismatch)
		}
		result = lf / rf
	default:
		return nil, fmt.Errorf("unsupported arithmetic operator %d", op)
	}

	return numeric{kind: kind, f: result}.Literal(), nil
}
