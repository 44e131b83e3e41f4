package evaluator

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/notegraph/notegraph/pkg/rdf"
	"github.com/notegraph/notegraph/pkg/sparql/algebra"
	"github.com/notegraph/notegraph/pkg/sparql/parser"
)

func evaluateFunction(e *parser.FunctionCallExpression, m *algebra.Mapping) (rdf.Term, error) {
	// BOUND inspects the mapping itself, so an unbound argument is an
	// answer rather than an error.
	if e.Function == "BOUND" {
		if len(e.Arguments) != 1 {
			return nil, fmt.Errorf("BOUND takes exactly one argument")
		}
		varExpr, ok := e.Arguments[0].(*parser.VariableExpression)
		if !ok {
			return nil, fmt.Errorf("BOUND requires a variable argument")
		}
		_, bound := m.Get(varExpr.Variable.Name)
		return rdf.NewBooleanLiteral(bound), nil
	}

	args := make([]rdf.Term, len(e.Arguments))
	for i, arg := range e.Arguments {
		val, err := Evaluate(arg, m)
		if err != nil {
			return nil, err
		}
		args[i] = val
	}

	switch e.Function {
	case "STR":
		return fnStr(args)
	case "LANG":
		return fnLang(args)
	case "DATATYPE":
		return fnDatatype(args)
	case "STRLEN":
		return fnStrlen(args)
	case "UCASE":
		return fnCase(args, strings.ToUpper)
	case "LCASE":
		return fnCase(args, strings.ToLower)
	case "CONCAT":
		return fnConcat(args)
	case "CONTAINS":
		return fnStringPredicate(e.Function, args, strings.Contains)
	case "STRSTARTS":
		return fnStringPredicate(e.Function, args, strings.HasPrefix)
	case "STRENDS":
		return fnStringPredicate(e.Function, args, strings.HasSuffix)
	case "REGEX":
		return fnRegex(args)
	case "ABS":
		return fnNumericUnary(e.Function, args, math.Abs, absInt)
	case "CEIL":
		return fnNumericUnary(e.Function, args, math.Ceil, identInt)
	case "FLOOR":
		return fnNumericUnary(e.Function, args, math.Floor, identInt)
	case "ROUND":
		return fnNumericUnary(e.Function, args, math.Round, identInt)
	case "ISIRI", "ISURI":
		return fnTermCheck(args, func(t rdf.Term) bool { _, ok := t.(*rdf.NamedNode); return ok })
	case "ISBLANK":
		return fnTermCheck(args, func(t rdf.Term) bool { _, ok := t.(*rdf.BlankNode); return ok })
	case "ISLITERAL":
		return fnTermCheck(args, func(t rdf.Term) bool { _, ok := t.(*rdf.Literal); return ok })
	case "ISNUMERIC":
		return fnTermCheck(args, func(t rdf.Term) bool { _, err := numericValue(t); return err == nil })
	case "SAMETERM":
		if len(args) != 2 {
			return nil, fmt.Errorf("SAMETERM takes exactly two arguments")
		}
		return rdf.NewBooleanLiteral(args[0].Equals(args[1])), nil
	default:
		return nil, fmt.Errorf("unknown function %s", e.Function)
	}
}

// stringValue extracts the string value of a plain, xsd:string or
// language-tagged literal.
func stringValue(term rdf.Term) (*rdf.Literal, error) {
	lit, ok := term.(*rdf.Literal)
	if !ok || !isStringish(lit) {
		return nil, fmt.Errorf("%w: %s is not a string", ErrTypeMismatch, term)
	}
	return lit, nil
}

func fnStr(args []rdf.Term) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("STR takes exactly one argument")
	}
	switch t := args[0].(type) {
	case *rdf.NamedNode:
		return rdf.NewLiteral(t.IRI), nil
	case *rdf.Literal:
		return rdf.NewLiteral(t.Value), nil
	default:
		return nil, fmt.Errorf("%w: STR of %s", ErrTypeMismatch, args[0])
	}
}

func fnLang(args []rdf.Term) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("LANG takes exactly one argument")
	}
	lit, ok := args[0].(*rdf.Literal)
	if !ok {
		return nil, fmt.Errorf("%w: LANG of %s", ErrTypeMismatch, args[0])
	}
	return rdf.NewLiteral(lit.Language), nil
}

func fnDatatype(args []rdf.Term) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("DATATYPE takes exactly one argument")
	}
	lit, ok := args[0].(*rdf.Literal)
	if !ok {
		return nil, fmt.Errorf("%w: DATATYPE of %s", ErrTypeMismatch, args[0])
	}
	switch {
	case lit.Language != "":
		return rdf.RDFLangString, nil
	case lit.Datatype != nil:
		return lit.Datatype, nil
	default:
		return rdf.XSDString, nil
	}
}

func fnStrlen(args []rdf.Term) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("STRLEN takes exactly one argument")
	}
	lit, err := stringValue(args[0])
	if err != nil {
		return nil, err
	}
	return rdf.NewIntegerLiteral(int64(len([]rune(lit.Value)))), nil
}

// fnCase applies a case transform, preserving the language tag
func fnCase(args []rdf.Term, transform func(string) string) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("case function takes exactly one argument")
	}
	lit, err := stringValue(args[0])
	if err != nil {
		return nil, err
	}
	if lit.Language != "" {
		return rdf.NewLiteralWithLanguage(transform(lit.Value), lit.Language), nil
	}
	return rdf.NewLiteral(transform(lit.Value)), nil
}

func fnConcat(args []rdf.Term) (rdf.Term, error) {
	var sb strings.Builder
	for _, arg := range args {
		lit, err := stringValue(arg)
		if err != nil {
			return nil, err
		}
		sb.WriteString(lit.Value)
	}
	return rdf.NewLiteral(sb.String()), nil
}

func fnStringPredicate(name string, args []rdf.Term, pred func(string, string) bool) (rdf.Term, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("%s takes exactly two arguments", name)
	}
	haystack, err := stringValue(args[0])
	if err != nil {
		return nil, err
	}
	needle, err := stringValue(args[1])
	if err != nil {
		return nil, err
	}
	return rdf.NewBooleanLiteral(pred(haystack.Value, needle.Value)), nil
}

func fnRegex(args []rdf.Term) (rdf.Term, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, fmt.Errorf("REGEX takes two or three arguments")
	}
	text, err := stringValue(args[0])
	if err != nil {
		return nil, err
	}
	pattern, err := stringValue(args[1])
	if err != nil {
		return nil, err
	}

	expr := pattern.Value
	if len(args) == 3 {
		flags, err := stringValue(args[2])
		if err != nil {
			return nil, err
		}
		if strings.Contains(flags.Value, "i") {
			expr = "(?i)" + expr
		}
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid REGEX pattern: %w", err)
	}
	return rdf.NewBooleanLiteral(re.MatchString(text.Value)), nil
}

func absInt(i int64) int64 {
	if i < 0 {
		return -i
	}
	return i
}

func identInt(i int64) int64 {
	return i
}

// fnNumericUnary applies a numeric transform, keeping integers integral
func fnNumericUnary(name string, args []rdf.Term, ffn func(float64) float64, ifn func(int64) int64) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%s takes exactly one argument", name)
	}
	num, err := numericValue(args[0])
	if err != nil {
		return nil, err
	}
	if num.kind == numInteger {
		return numeric{kind: numInteger, i: ifn(num.i)}.Literal(), nil
	}
	return numeric{kind: num.kind, f: ffn(num.f)}.Literal(), nil
}

func fnTermCheck(args []rdf.Term, check func(rdf.Term) bool) (rdf.Term, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("term check takes exactly one argument")
	}
	return rdf.NewBooleanLiteral(check(args[0])), nil
}
