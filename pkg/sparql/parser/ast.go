package parser

import (
	"github.com/notegraph/notegraph/pkg/rdf"
)

// Query represents a parsed query: the PREFIX prologue plus the SELECT
// form. Prefixed names in the body are left unresolved; resolution against
// Prefixes happens at translate time.
type Query struct {
	Prefixes map[string]string // prefix label -> IRI
	Select   *SelectQuery
}

// SelectQuery represents a SELECT query
type SelectQuery struct {
	Variables []*Variable   // Variables to project (nil for SELECT *)
	Distinct  bool          // DISTINCT modifier
	Where     *GraphPattern // WHERE clause
	Limit     *int          // LIMIT clause
	Offset    *int          // OFFSET clause
}

// GraphPattern represents a graph pattern
type GraphPattern struct {
	Type     GraphPatternType
	Patterns []*TriplePattern // For basic graph patterns
	Filters  []*Filter        // FILTER expressions
	Binds    []*Bind          // BIND expressions
	Children []*GraphPattern  // For complex patterns (UNION, OPTIONAL, MINUS, groups)
}

// GraphPatternType represents the type of graph pattern
type GraphPatternType int

const (
	GraphPatternTypeBasic GraphPatternType = iota
	GraphPatternTypeUnion
	GraphPatternTypeOptional
	GraphPatternTypeMinus
)

// TriplePattern represents a triple pattern with possible variables
type TriplePattern struct {
	Subject   TermOrVariable
	Predicate TermOrVariable
	Object    TermOrVariable
}

// TermOrVariable holds exactly one of: a concrete RDF term, a variable,
// or an unresolved prefixed name.
type TermOrVariable struct {
	Term     rdf.Term
	Variable *Variable
	Prefixed *PrefixedName
}

// IsVariable returns true if this is a variable
func (t *TermOrVariable) IsVariable() bool {
	return t.Variable != nil
}

// PrefixedName is a prefix:local name awaiting resolution
type PrefixedName struct {
	Prefix string
	Local  string
}

// Variable represents a query variable
type Variable struct {
	Name string
}

// Filter represents a FILTER expression
type Filter struct {
	Expression Expression
}

// Bind represents a BIND expression (assigns an expression to a variable)
type Bind struct {
	Expression Expression
	Variable   *Variable
}

// Expression represents an expression usable in FILTER and BIND
type Expression interface {
	expressionNode()
}

// BinaryExpression represents a binary operation
type BinaryExpression struct {
	Left     Expression
	Operator Operator
	Right    Expression
}

func (e *BinaryExpression) expressionNode() {}

// UnaryExpression represents a unary operation
type UnaryExpression struct {
	Operator Operator
	Operand  Expression
}

func (e *UnaryExpression) expressionNode() {}

// VariableExpression represents a variable in an expression
type VariableExpression struct {
	Variable *Variable
}

func (e *VariableExpression) expressionNode() {}

// TermExpression represents a constant term (or unresolved prefixed name)
// in an expression
type TermExpression struct {
	Term     rdf.Term
	Prefixed *PrefixedName
}

func (e *TermExpression) expressionNode() {}

// FunctionCallExpression represents a built-in function call
type FunctionCallExpression struct {
	Function  string // upper-cased function name
	Arguments []Expression
}

func (e *FunctionCallExpression) expressionNode() {}

// Operator represents an operator in expressions
type Operator int

const (
	// Logical operators
	OpAnd Operator = iota
	OpOr
	OpNot

	// Comparison operators
	OpEqual
	OpNotEqual
	OpLessThan
	OpLessThanOrEqual
	OpGreaterThan
	OpGreaterThanOrEqual

	// Arithmetic operators
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNegate
)
