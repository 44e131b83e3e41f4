// Package parser turns query text into an abstract syntax tree. The
// surface is a SPARQL subset: PREFIX declarations, SELECT [DISTINCT] with
// a WHERE group of triple patterns, UNION, OPTIONAL, MINUS, FILTER and
// BIND, plus LIMIT/OFFSET modifiers.
package parser

import (
	"fmt"
	"strings"

	"github.com/notegraph/notegraph/pkg/rdf"
)

// ParseError reports malformed query text with position information
type ParseError struct {
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, col %d: %s", e.Line, e.Col, e.Msg)
}

// Parser parses query text
type Parser struct {
	input  string
	pos    int
	length int
}

// NewParser creates a new parser over the given query text
func NewParser(input string) *Parser {
	return &Parser{
		input:  input,
		pos:    0,
		length: len(input),
	}
}

// Parse parses a complete query
func (p *Parser) Parse() (*Query, error) {
	query := &Query{Prefixes: make(map[string]string)}

	// Prologue: PREFIX declarations
	for {
		p.skipWhitespace()
		if !p.matchKeyword("PREFIX") {
			break
		}
		label, iri, err := p.parsePrefixDecl()
		if err != nil {
			return nil, err
		}
		query.Prefixes[label] = iri
	}

	p.skipWhitespace()
	if !p.matchKeyword("SELECT") {
		return nil, p.errorf("expected SELECT")
	}

	sel, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	query.Select = sel

	p.skipWhitespace()
	if p.pos < p.length {
		return nil, p.errorf("unexpected trailing input")
	}

	return query, nil
}

// parsePrefixDecl parses the remainder of a PREFIX declaration:
// label: <iri>
func (p *Parser) parsePrefixDecl() (string, string, error) {
	p.skipWhitespace()

	start := p.pos
	for p.pos < p.length && isNameChar(p.input[p.pos]) {
		p.pos++
	}
	label := p.input[start:p.pos]

	if !p.consume(':') {
		return "", "", p.errorf("expected ':' in PREFIX declaration")
	}

	p.skipWhitespace()
	iri, err := p.parseIRIRef()
	if err != nil {
		return "", "", err
	}

	return label, iri, nil
}

// parseSelect parses a SELECT query after the SELECT keyword
func (p *Parser) parseSelect() (*SelectQuery, error) {
	query := &SelectQuery{}

	if p.matchKeyword("DISTINCT") {
		query.Distinct = true
	}

	// Projection: * or one or more variables
	p.skipWhitespace()
	if p.peek() == '*' {
		p.pos++
	} else {
		for {
			p.skipWhitespace()
			if p.peek() != '?' && p.peek() != '$' {
				break
			}
			v, err := p.parseVariable()
			if err != nil {
				return nil, err
			}
			query.Variables = append(query.Variables, v)
		}
		if len(query.Variables) == 0 {
			return nil, p.errorf("expected '*' or at least one variable after SELECT")
		}
	}

	// WHERE keyword is optional before the group
	p.matchKeyword("WHERE")

	where, err := p.parseGroupGraphPattern()
	if err != nil {
		return nil, err
	}
	query.Where = where

	// Solution modifiers, in either order
	for {
		if p.matchKeyword("LIMIT") {
			limit, err := p.parseInteger()
			if err != nil {
				return nil, err
			}
			query.Limit = &limit
			continue
		}
		if p.matchKeyword("OFFSET") {
			offset, err := p.parseInteger()
			if err != nil {
				return nil, err
			}
			query.Offset = &offset
			continue
		}
		break
	}

	return query, nil
}

// parseGroupGraphPattern parses { ... }
func (p *Parser) parseGroupGraphPattern() (*GraphPattern, error) {
	p.skipWhitespace()
	if !p.consume('{') {
		return nil, p.errorf("expected '{'")
	}

	pattern := &GraphPattern{Type: GraphPatternTypeBasic}

	for {
		p.skipWhitespace()
		if p.pos >= p.length {
			return nil, p.errorf("unexpected end of input, expected '}'")
		}
		if p.peek() == '}' {
			p.pos++
			return pattern, nil
		}

		switch {
		case p.matchKeyword("OPTIONAL"):
			child, err := p.parseGroupGraphPattern()
			if err != nil {
				return nil, err
			}
			child.Type = GraphPatternTypeOptional
			pattern.Children = append(pattern.Children, child)

		case p.matchKeyword("MINUS"):
			child, err := p.parseGroupGraphPattern()
			if err != nil {
				return nil, err
			}
			child.Type = GraphPatternTypeMinus
			pattern.Children = append(pattern.Children, child)

		case p.matchKeyword("FILTER"):
			filter, err := p.parseFilter()
			if err != nil {
				return nil, err
			}
			pattern.Filters = append(pattern.Filters, filter)

		case p.matchKeyword("BIND"):
			bind, err := p.parseBind()
			if err != nil {
				return nil, err
			}
			pattern.Binds = append(pattern.Binds, bind)

		case p.peek() == '{':
			child, err := p.parseGroupOrUnion()
			if err != nil {
				return nil, err
			}
			pattern.Children = append(pattern.Children, child)

		default:
			triple, err := p.parseTriplePattern()
			if err != nil {
				return nil, err
			}
			pattern.Patterns = append(pattern.Patterns, triple)
		}

		// Optional '.' separator
		p.skipWhitespace()
		if p.peek() == '.' {
			p.pos++
		}
	}
}

// parseGroupOrUnion parses { ... } possibly followed by UNION { ... } ...
// A plain nested group stays Basic; alternation becomes a Union node whose
// children are the branches.
func (p *Parser) parseGroupOrUnion() (*GraphPattern, error) {
	first, err := p.parseGroupGraphPattern()
	if err != nil {
		return nil, err
	}

	if !p.matchKeyword("UNION") {
		return first, nil
	}

	union := &GraphPattern{
		Type:     GraphPatternTypeUnion,
		Children: []*GraphPattern{first},
	}
	for {
		branch, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		union.Children = append(union.Children, branch)
		if !p.matchKeyword("UNION") {
			return union, nil
		}
	}
}

// parseFilter parses a FILTER constraint: a parenthesized expression or a
// bare function call
func (p *Parser) parseFilter() (*Filter, error) {
	p.skipWhitespace()

	var expr Expression
	var err error
	if p.peek() == '(' {
		p.pos++
		expr, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
		p.skipWhitespace()
		if !p.consume(')') {
			return nil, p.errorf("expected ')' after FILTER expression")
		}
	} else {
		expr, err = p.parsePrimaryExpression()
		if err != nil {
			return nil, err
		}
		if _, ok := expr.(*FunctionCallExpression); !ok {
			return nil, p.errorf("expected parenthesized expression or function call after FILTER")
		}
	}

	return &Filter{Expression: expr}, nil
}

// parseBind parses BIND( expr AS ?var )
func (p *Parser) parseBind() (*Bind, error) {
	p.skipWhitespace()
	if !p.consume('(') {
		return nil, p.errorf("expected '(' after BIND")
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if !p.matchKeyword("AS") {
		return nil, p.errorf("expected AS in BIND")
	}

	p.skipWhitespace()
	variable, err := p.parseVariable()
	if err != nil {
		return nil, err
	}

	p.skipWhitespace()
	if !p.consume(')') {
		return nil, p.errorf("expected ')' after BIND")
	}

	return &Bind{Expression: expr, Variable: variable}, nil
}

// parseTriplePattern parses subject predicate object
func (p *Parser) parseTriplePattern() (*TriplePattern, error) {
	subject, err := p.parseTermOrVariable(false)
	if err != nil {
		return nil, err
	}

	predicate, err := p.parseTermOrVariable(true)
	if err != nil {
		return nil, err
	}

	object, err := p.parseTermOrVariable(false)
	if err != nil {
		return nil, err
	}

	return &TriplePattern{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
	}, nil
}

// parseTermOrVariable parses one triple pattern position. In predicate
// position the keyword "a" expands to rdf:type.
func (p *Parser) parseTermOrVariable(predicatePos bool) (TermOrVariable, error) {
	p.skipWhitespace()
	if p.pos >= p.length {
		return TermOrVariable{}, p.errorf("unexpected end of input in triple pattern")
	}

	switch c := p.peek(); {
	case c == '?' || c == '$':
		v, err := p.parseVariable()
		if err != nil {
			return TermOrVariable{}, err
		}
		return TermOrVariable{Variable: v}, nil

	case c == '<':
		iri, err := p.parseIRIRef()
		if err != nil {
			return TermOrVariable{}, err
		}
		return TermOrVariable{Term: rdf.NewNamedNode(iri)}, nil

	case c == '"':
		lit, err := p.parseLiteral()
		if err != nil {
			return TermOrVariable{}, err
		}
		return TermOrVariable{Term: lit}, nil

	case c >= '0' && c <= '9', c == '+', c == '-':
		lit, err := p.parseNumericLiteral()
		if err != nil {
			return TermOrVariable{}, err
		}
		return TermOrVariable{Term: lit}, nil

	default:
		word := p.peekWord()
		if predicatePos && word == "a" {
			p.pos += 1
			return TermOrVariable{Term: rdf.RDFType}, nil
		}
		if word == "true" || word == "false" {
			p.pos += len(word)
			return TermOrVariable{Term: rdf.NewBooleanLiteral(word == "true")}, nil
		}
		pn, err := p.parsePrefixedName()
		if err != nil {
			return TermOrVariable{}, err
		}
		return TermOrVariable{Prefixed: pn}, nil
	}
}

// parseVariable parses ?name or $name
func (p *Parser) parseVariable() (*Variable, error) {
	if p.peek() != '?' && p.peek() != '$' {
		return nil, p.errorf("expected variable")
	}
	p.pos++

	start := p.pos
	for p.pos < p.length && isNameChar(p.input[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return nil, p.errorf("expected variable name")
	}

	return &Variable{Name: p.input[start:p.pos]}, nil
}

// parseIRIRef parses <iri>
func (p *Parser) parseIRIRef() (string, error) {
	if !p.consume('<') {
		return "", p.errorf("expected '<'")
	}

	start := p.pos
	for p.pos < p.length && p.input[p.pos] != '>' {
		if p.input[p.pos] == '\n' {
			return "", p.errorf("unterminated IRI")
		}
		p.pos++
	}
	if p.pos >= p.length {
		return "", p.errorf("unterminated IRI")
	}

	iri := p.input[start:p.pos]
	p.pos++ // consume '>'
	return iri, nil
}

// parsePrefixedName parses prefix:local (either part may be empty)
func (p *Parser) parsePrefixedName() (*PrefixedName, error) {
	start := p.pos
	for p.pos < p.length && isNameChar(p.input[p.pos]) {
		p.pos++
	}
	prefix := p.input[start:p.pos]

	if !p.consume(':') {
		p.pos = start
		return nil, p.errorf("expected prefixed name")
	}

	start = p.pos
	for p.pos < p.length && isNameChar(p.input[p.pos]) {
		p.pos++
	}
	local := p.input[start:p.pos]

	return &PrefixedName{Prefix: prefix, Local: local}, nil
}

// parseLiteral parses "value" with optional @lang or ^^datatype
func (p *Parser) parseLiteral() (rdf.Term, error) {
	if !p.consume('"') {
		return nil, p.errorf("expected '\"'")
	}

	var sb strings.Builder
	for {
		if p.pos >= p.length {
			return nil, p.errorf("unterminated string literal")
		}
		c := p.input[p.pos]
		if c == '"' {
			p.pos++
			break
		}
		if c == '\\' {
			p.pos++
			if p.pos >= p.length {
				return nil, p.errorf("unterminated escape sequence")
			}
			switch p.input[p.pos] {
			case 't':
				sb.WriteByte('\t')
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			default:
				return nil, p.errorf("invalid escape sequence '\\%c'", p.input[p.pos])
			}
			p.pos++
			continue
		}
		sb.WriteByte(c)
		p.pos++
	}
	value := sb.String()

	// Language tag
	if p.peek() == '@' {
		p.pos++
		start := p.pos
		for p.pos < p.length && (isNameChar(p.input[p.pos]) || p.input[p.pos] == '-') {
			p.pos++
		}
		if p.pos == start {
			return nil, p.errorf("expected language tag after '@'")
		}
		return rdf.NewLiteralWithLanguage(value, p.input[start:p.pos]), nil
	}

	// Datatype
	if p.pos+1 < p.length && p.input[p.pos] == '^' && p.input[p.pos+1] == '^' {
		p.pos += 2
		if p.peek() != '<' {
			return nil, p.errorf("expected IRI after '^^'")
		}
		iri, err := p.parseIRIRef()
		if err != nil {
			return nil, err
		}
		return rdf.NewLiteralWithDatatype(value, rdf.NewNamedNode(iri)), nil
	}

	return rdf.NewLiteral(value), nil
}

// parseNumericLiteral parses integer, decimal, or double shorthand
func (p *Parser) parseNumericLiteral() (rdf.Term, error) {
	start := p.pos
	if p.peek() == '+' || p.peek() == '-' {
		p.pos++
	}

	digits := 0
	for p.pos < p.length && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
		p.pos++
		digits++
	}

	isDecimal := false
	if p.peek() == '.' && p.pos+1 < p.length && p.input[p.pos+1] >= '0' && p.input[p.pos+1] <= '9' {
		isDecimal = true
		p.pos++
		for p.pos < p.length && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
			p.pos++
			digits++
		}
	}

	isDouble := false
	if c := p.peek(); c == 'e' || c == 'E' {
		isDouble = true
		p.pos++
		if c := p.peek(); c == '+' || c == '-' {
			p.pos++
		}
		expDigits := 0
		for p.pos < p.length && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
			p.pos++
			expDigits++
		}
		if expDigits == 0 {
			return nil, p.errorf("expected exponent digits")
		}
	}

	if digits == 0 {
		return nil, p.errorf("expected number")
	}

	text := p.input[start:p.pos]
	switch {
	case isDouble:
		return rdf.NewLiteralWithDatatype(text, rdf.XSDDouble), nil
	case isDecimal:
		return rdf.NewLiteralWithDatatype(text, rdf.XSDDecimal), nil
	default:
		return rdf.NewLiteralWithDatatype(text, rdf.XSDInteger), nil
	}
}

// parseInteger parses a plain non-negative integer (LIMIT/OFFSET argument)
func (p *Parser) parseInteger() (int, error) {
	p.skipWhitespace()

	start := p.pos
	for p.pos < p.length && p.input[p.pos] >= '0' && p.input[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return 0, p.errorf("expected integer")
	}

	value := 0
	for _, c := range p.input[start:p.pos] {
		value = value*10 + int(c-'0')
	}
	return value, nil
}

// ===== Expressions =====

// knownFunctions is the set of built-in function names the parser accepts
var knownFunctions = map[string]bool{
	"BOUND": true, "STR": true, "LANG": true, "DATATYPE": true,
	"STRLEN": true, "UCASE": true, "LCASE": true, "CONCAT": true,
	"CONTAINS": true, "STRSTARTS": true, "STRENDS": true, "REGEX": true,
	"ABS": true, "CEIL": true, "FLOOR": true, "ROUND": true,
	"ISIRI": true, "ISURI": true, "ISBLANK": true, "ISLITERAL": true,
	"ISNUMERIC": true, "SAMETERM": true,
}

// parseExpression parses an expression with standard precedence
func (p *Parser) parseExpression() (Expression, error) {
	return p.parseOrExpression()
}

func (p *Parser) parseOrExpression() (Expression, error) {
	left, err := p.parseAndExpression()
	if err != nil {
		return nil, err
	}

	for {
		p.skipWhitespace()
		if !p.consumeString("||") {
			return left, nil
		}
		right, err := p.parseAndExpression()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpression{Left: left, Operator: OpOr, Right: right}
	}
}

func (p *Parser) parseAndExpression() (Expression, error) {
	left, err := p.parseRelationalExpression()
	if err != nil {
		return nil, err
	}

	for {
		p.skipWhitespace()
		if !p.consumeString("&&") {
			return left, nil
		}
		right, err := p.parseRelationalExpression()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpression{Left: left, Operator: OpAnd, Right: right}
	}
}

func (p *Parser) parseRelationalExpression() (Expression, error) {
	left, err := p.parseAdditiveExpression()
	if err != nil {
		return nil, err
	}

	p.skipWhitespace()
	var op Operator
	switch {
	case p.consumeString("!="):
		op = OpNotEqual
	case p.consumeString("<="):
		op = OpLessThanOrEqual
	case p.consumeString(">="):
		op = OpGreaterThanOrEqual
	case p.consumeString("="):
		op = OpEqual
	case p.consumeString("<"):
		op = OpLessThan
	case p.consumeString(">"):
		op = OpGreaterThan
	default:
		return left, nil
	}

	right, err := p.parseAdditiveExpression()
	if err != nil {
		return nil, err
	}
	return &BinaryExpression{Left: left, Operator: op, Right: right}, nil
}

func (p *Parser) parseAdditiveExpression() (Expression, error) {
	left, err := p.parseMultiplicativeExpression()
	if err != nil {
		return nil, err
	}

	for {
		p.skipWhitespace()
		var op Operator
		switch {
		case p.consumeString("+"):
			op = OpAdd
		case p.consumeString("-"):
			op = OpSubtract
		default:
			return left, nil
		}
		right, err := p.parseMultiplicativeExpression()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpression{Left: left, Operator: op, Right: right}
	}
}

func (p *Parser) parseMultiplicativeExpression() (Expression, error) {
	left, err := p.parseUnaryExpression()
	if err != nil {
		return nil, err
	}

	for {
		p.skipWhitespace()
		var op Operator
		switch {
		case p.consumeString("*"):
			op = OpMultiply
		case p.consumeString("/"):
			op = OpDivide
		default:
			return left, nil
		}
		right, err := p.parseUnaryExpression()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpression{Left: left, Operator: op, Right: right}
	}
}

func (p *Parser) parseUnaryExpression() (Expression, error) {
	p.skipWhitespace()

	if p.consumeString("!") {
		operand, err := p.parseUnaryExpression()
		if err != nil {
			return nil, err
		}
		return &UnaryExpression{Operator: OpNot, Operand: operand}, nil
	}

	// A '-' directly before a number is the literal's sign; any other
	// operand makes it arithmetic negation.
	if p.peek() == '-' && !p.numberFollowsSign() {
		p.pos++
		operand, err := p.parseUnaryExpression()
		if err != nil {
			return nil, err
		}
		return &UnaryExpression{Operator: OpNegate, Operand: operand}, nil
	}

	return p.parsePrimaryExpression()
}

// numberFollowsSign reports whether the byte after the current sign
// character starts a numeric literal ("-5", "-.5").
func (p *Parser) numberFollowsSign() bool {
	next := p.pos + 1
	if next >= p.length {
		return false
	}
	c := p.input[next]
	if c >= '0' && c <= '9' {
		return true
	}
	return c == '.' && next+1 < p.length && p.input[next+1] >= '0' && p.input[next+1] <= '9'
}

func (p *Parser) parsePrimaryExpression() (Expression, error) {
	p.skipWhitespace()
	if p.pos >= p.length {
		return nil, p.errorf("unexpected end of input in expression")
	}

	switch c := p.peek(); {
	case c == '(':
		p.pos++
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		p.skipWhitespace()
		if !p.consume(')') {
			return nil, p.errorf("expected ')'")
		}
		return expr, nil

	case c == '?' || c == '$':
		v, err := p.parseVariable()
		if err != nil {
			return nil, err
		}
		return &VariableExpression{Variable: v}, nil

	case c == '<':
		iri, err := p.parseIRIRef()
		if err != nil {
			return nil, err
		}
		return &TermExpression{Term: rdf.NewNamedNode(iri)}, nil

	case c == '"':
		lit, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		return &TermExpression{Term: lit}, nil

	case c >= '0' && c <= '9', c == '+', c == '-':
		lit, err := p.parseNumericLiteral()
		if err != nil {
			return nil, err
		}
		return &TermExpression{Term: lit}, nil

	default:
		word := p.peekWord()
		if word == "" {
			return nil, p.errorf("unexpected character %q in expression", c)
		}
		if word == "true" || word == "false" {
			p.pos += len(word)
			return &TermExpression{Term: rdf.NewBooleanLiteral(word == "true")}, nil
		}
		if knownFunctions[strings.ToUpper(word)] {
			p.pos += len(word)
			return p.parseFunctionCall(strings.ToUpper(word))
		}
		pn, err := p.parsePrefixedName()
		if err != nil {
			return nil, p.errorf("unknown function or malformed term %q", word)
		}
		return &TermExpression{Prefixed: pn}, nil
	}
}

// parseFunctionCall parses the argument list of a built-in function
func (p *Parser) parseFunctionCall(name string) (Expression, error) {
	p.skipWhitespace()
	if !p.consume('(') {
		return nil, p.errorf("expected '(' after %s", name)
	}

	call := &FunctionCallExpression{Function: name}

	p.skipWhitespace()
	if p.peek() == ')' {
		p.pos++
		return call, nil
	}

	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		call.Arguments = append(call.Arguments, arg)

		p.skipWhitespace()
		if p.consume(',') {
			continue
		}
		if p.consume(')') {
			return call, nil
		}
		return nil, p.errorf("expected ',' or ')' in %s arguments", name)
	}
}

// ===== Scanning helpers =====

// skipWhitespace skips whitespace and # line comments
func (p *Parser) skipWhitespace() {
	for p.pos < p.length {
		c := p.input[p.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			p.pos++
			continue
		}
		if c == '#' {
			for p.pos < p.length && p.input[p.pos] != '\n' {
				p.pos++
			}
			continue
		}
		break
	}
}

// matchKeyword consumes a case-insensitive keyword at a word boundary
func (p *Parser) matchKeyword(keyword string) bool {
	p.skipWhitespace()

	end := p.pos + len(keyword)
	if end > p.length {
		return false
	}
	if !strings.EqualFold(p.input[p.pos:end], keyword) {
		return false
	}
	// Word boundary check
	if end < p.length && isNameChar(p.input[end]) {
		return false
	}

	p.pos = end
	return true
}

// peek returns the current byte without consuming it (0 at end of input)
func (p *Parser) peek() byte {
	if p.pos >= p.length {
		return 0
	}
	return p.input[p.pos]
}

// peekWord returns the name-characters word at the current position
func (p *Parser) peekWord() string {
	end := p.pos
	for end < p.length && isNameChar(p.input[end]) {
		end++
	}
	return p.input[p.pos:end]
}

// consume consumes a single expected byte
func (p *Parser) consume(c byte) bool {
	if p.pos < p.length && p.input[p.pos] == c {
		p.pos++
		return true
	}
	return false
}

// consumeString consumes an expected literal string
func (p *Parser) consumeString(s string) bool {
	if strings.HasPrefix(p.input[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	return false
}

// errorf builds a ParseError carrying the current line and column
func (p *Parser) errorf(format string, args ...any) *ParseError {
	line := 1
	col := 1
	for i := 0; i < p.pos && i < p.length; i++ {
		if p.input[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return &ParseError{Line: line, Col: col, Msg: fmt.Sprintf(format, args...)}
}

// isNameChar reports whether c may appear in a variable or prefixed name
func isNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' || c == '_' || c == '-'
}
