package parser

import (
	"fmt"

	cerr "github.com/intentc/intentc/internal/errors"
	"github.com/intentc/intentc/internal/lexer"
)

// parser is a recursive-descent, fail-fast parser over a token stream. On
// the first syntax failure it panics with *cerr.ParseError, caught by
// Parse and returned to the caller — this keeps every production function
// below free of explicit error-propagation plumbing while preserving the
// single-error, no-recovery contract (§4.1).
type parser struct {
	tokens []lexer.Token
	pos    int
	source []string // source lines, for error snippets
}

// Parse tokenizes and parses a complete IDL source file.
func Parse(source string) (prog *Program, err *cerr.ParseError) {
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(*cerr.ParseError); ok {
				err = pe
				return
			}
			panic(r)
		}
	}()

	tokens := lexer.New(source).Tokenize()
	p := &parser{tokens: tokens, source: splitLines(source)}
	return p.parseProgram(), nil
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

// ── token cursor ──

func (p *parser) peek() lexer.Token {
	tok := p.tokens[p.pos]
	if tok.Type == lexer.NEWLINE && tok.Literal != "" {
		// The lexer stopped on malformed input; its final token describes why.
		panic(&cerr.ParseError{Span: tok.Span, Found: tok.Literal})
	}
	return tok
}

func (p *parser) peekAt(offset int) lexer.Token {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[idx]
}

func (p *parser) advance() lexer.Token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) check(t lexer.TokenType) bool {
	return p.peek().Type == t
}

func (p *parser) match(t lexer.TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(t lexer.TokenType, expectedDesc ...string) lexer.Token {
	if p.check(t) {
		return p.advance()
	}
	desc := t.String()
	if len(expectedDesc) > 0 {
		desc = expectedDesc[0]
	}
	p.fail([]string{desc})
	panic("unreachable")
}

// skipNewlines consumes zero or more NEWLINE tokens — used where the grammar
// tolerates blank separator lines between sibling declarations.
func (p *parser) skipNewlines() {
	for p.check(lexer.NEWLINE) {
		p.advance()
	}
}

func (p *parser) fail(expected []string) {
	tok := p.peek()
	found := tok.Type.String()
	if tok.Literal != "" {
		found = fmt.Sprintf("%s(%q)", tok.Type, tok.Literal)
	}
	snippet := ""
	if tok.Span.Line-1 >= 0 && tok.Span.Line-1 < len(p.source) {
		snippet = p.source[tok.Span.Line-1]
	}
	panic(&cerr.ParseError{
		Span:     tok.Span,
		Expected: expected,
		Found:    found,
		Snippet:  snippet,
	})
}

// ── top level ──

func (p *parser) parseProgram() *Program {
	prog := &Program{}
	p.skipNewlines()
	for !p.check(lexer.EOF) {
		switch {
		case p.check(lexer.KW_AUTH):
			prog.Entities = append(prog.Entities, p.parseEntity(true))
		case p.check(lexer.KW_ENTITY):
			prog.Entities = append(prog.Entities, p.parseEntity(false))
		case p.check(lexer.KW_POLICY):
			prog.Policies = append(prog.Policies, p.parsePolicy())
		case p.check(lexer.KW_RULE):
			prog.Rules = append(prog.Rules, p.parseRule())
		case p.check(lexer.ATNAME), p.check(lexer.KW_ACTION):
			prog.Actions = append(prog.Actions, p.parseAction())
		default:
			p.fail([]string{"entity", "auth entity", "policy", "rule", "action"})
		}
		p.skipNewlines()
	}
	return prog
}

// ── entity ──

func (p *parser) parseEntity(isAuth bool) *Entity {
	if isAuth {
		p.expect(lexer.KW_AUTH)
	}
	startTok := p.expect(lexer.KW_ENTITY)
	name := p.expect(lexer.IDENT, "entity name")
	p.expect(lexer.COLON)
	p.expect(lexer.NEWLINE)
	p.expect(lexer.INDENT)

	e := &Entity{Name: name.Literal, IsAuth: isAuth, Span: startTok.Span}
	for !p.check(lexer.DEDENT) {
		if p.check(lexer.KW_POLICY) {
			e.Policies = append(e.Policies, p.parsePolicy())
			continue
		}
		e.Fields = append(e.Fields, p.parseField())
	}
	p.expect(lexer.DEDENT)
	return e
}

func (p *parser) parseField() *Field {
	name := p.expect(lexer.IDENT, "field name")
	p.expect(lexer.COLON)
	typ := p.parseType()
	f := &Field{Name: name.Literal, Type: typ, Span: name.Span}
	for p.check(lexer.ATNAME) {
		f.Decorators = append(f.Decorators, p.parseFieldDecorator())
	}
	p.expect(lexer.NEWLINE)
	return f
}

func (p *parser) parseType() Type {
	var t Type
	switch {
	case p.check(lexer.KW_STRING_T):
		p.advance()
		t = Type{Kind: TypeBase, Base: "string"}
	case p.check(lexer.KW_NUMBER_T):
		p.advance()
		t = Type{Kind: TypeBase, Base: "number"}
	case p.check(lexer.KW_BOOLEAN_T):
		p.advance()
		t = Type{Kind: TypeBase, Base: "boolean"}
	case p.check(lexer.KW_DATETIME_T):
		p.advance()
		t = Type{Kind: TypeBase, Base: "datetime"}
	case p.check(lexer.KW_UUID_T):
		p.advance()
		t = Type{Kind: TypeBase, Base: "uuid"}
	case p.check(lexer.KW_EMAIL_T):
		p.advance()
		t = Type{Kind: TypeBase, Base: "email"}
	case p.check(lexer.LBRACKET):
		p.advance()
		elem := p.parseType()
		p.expect(lexer.RBRACKET)
		t = Type{Kind: TypeArray, Elem: &elem}
	case p.check(lexer.IDENT):
		name := p.advance().Literal
		if p.check(lexer.PIPE) {
			values := []string{name}
			for p.match(lexer.PIPE) {
				values = append(values, p.expect(lexer.IDENT, "enum variant").Literal)
			}
			t = Type{Kind: TypeEnum, EnumValues: values}
		} else {
			t = Type{Kind: TypeRef, RefName: name, RefID: -1}
		}
	default:
		p.fail([]string{"string", "number", "boolean", "datetime", "uuid", "email", "entity name", "'['"})
	}

	if p.match(lexer.QUESTION) {
		inner := t
		t = Type{Kind: TypeOptional, Elem: &inner}
	}
	return t
}

func (p *parser) parseFieldDecorator() Decorator {
	tok := p.expect(lexer.ATNAME)
	d := Decorator{Span: tok.Span}
	switch tok.Literal {
	case "@primary":
		d.Kind = DecoratorPrimary
	case "@unique":
		d.Kind = DecoratorUnique
	case "@optional":
		d.Kind = DecoratorOptional
	case "@index":
		d.Kind = DecoratorIndex
	case "@default":
		d.Kind = DecoratorDefault
		p.expect(lexer.LPAREN)
		d.DefaultValue = p.parseDefaultArg()
		p.expect(lexer.RPAREN)
	case "@validate":
		d.Kind = DecoratorValidate
		p.expect(lexer.LPAREN)
		d.Validates = append(d.Validates, p.parseKV())
		for p.match(lexer.COMMA) {
			d.Validates = append(d.Validates, p.parseKV())
		}
		p.expect(lexer.RPAREN)
	case "@map":
		d.Kind = DecoratorMap
		p.expect(lexer.LPAREN)
		d.MapField = p.expect(lexer.IDENT, "target field").Literal
		p.expect(lexer.COMMA)
		d.MapTransform = p.expect(lexer.IDENT, "transform name").Literal
		p.expect(lexer.RPAREN)
	default:
		p.fail([]string{"@primary", "@unique", "@optional", "@index", "@default", "@validate", "@map"})
	}
	return d
}

func (p *parser) parseDefaultArg() string {
	switch {
	case p.check(lexer.KW_NOW):
		p.advance()
		return "now"
	case p.check(lexer.KW_UUID_LIT):
		p.advance()
		return "uuid"
	case p.check(lexer.STRING):
		return p.advance().Literal
	case p.check(lexer.NUMBER):
		return p.advance().Literal
	case p.check(lexer.KW_TRUE):
		p.advance()
		return "true"
	case p.check(lexer.KW_FALSE):
		p.advance()
		return "false"
	default:
		p.fail([]string{"now", "uuid", "string literal", "number literal", "true", "false"})
		return ""
	}
}

func (p *parser) parseKV() KV {
	key := p.expect(lexer.IDENT, "validation key").Literal
	p.expect(lexer.COLON)
	var value string
	switch {
	case p.check(lexer.STRING):
		value = p.advance().Literal
	case p.check(lexer.NUMBER):
		value = p.advance().Literal
	case p.check(lexer.IDENT):
		value = p.advance().Literal
	default:
		p.fail([]string{"value"})
	}
	return KV{Key: key, Value: value}
}

// ── policy ──

func (p *parser) parsePolicy() *Policy {
	startTok := p.expect(lexer.KW_POLICY)
	name := p.expect(lexer.IDENT, "policy name")
	p.expect(lexer.COLON)
	p.expect(lexer.NEWLINE)
	p.expect(lexer.INDENT)

	pol := &Policy{Name: name.Literal, Span: startTok.Span}

	p.expect(lexer.KW_SUBJECT)
	p.expect(lexer.COLON)
	if atTok, ok := p.tryATName("@auth"); ok {
		_ = atTok
		pol.SubjectIsAuth = true
	} else {
		pol.SubjectEntity = p.expect(lexer.IDENT, "subject entity name").Literal
	}
	p.expect(lexer.NEWLINE)

	for p.check(lexer.KW_REQUIRE) {
		p.advance()
		pol.Requires = append(pol.Requires, p.parseOrExpr())
		p.expect(lexer.NEWLINE)
	}
	p.expect(lexer.DEDENT)
	return pol
}

// tryATName consumes an ATNAME token matching literal exactly, returning ok=false
// (without consuming) if the current token doesn't match.
func (p *parser) tryATName(literal string) (lexer.Token, bool) {
	if p.check(lexer.ATNAME) && p.peek().Literal == literal {
		return p.advance(), true
	}
	return lexer.Token{}, false
}

// ── rule ──

func (p *parser) parseRule() *Rule {
	startTok := p.expect(lexer.KW_RULE)
	name := p.expect(lexer.IDENT, "rule name")
	p.expect(lexer.COLON)
	p.expect(lexer.NEWLINE)
	p.expect(lexer.INDENT)

	p.expect(lexer.KW_WHEN)
	when := p.parseOrExpr()
	p.expect(lexer.NEWLINE)

	p.expect(lexer.KW_THEN)
	then := p.parseConsequence()
	p.expect(lexer.NEWLINE)

	p.expect(lexer.DEDENT)
	return &Rule{Name: name.Literal, When: when, Then: then, Span: startTok.Span}
}

func (p *parser) parseConsequence() Consequence {
	tok := p.peek()
	switch {
	case p.check(lexer.KW_REJECT):
		p.advance()
		p.expect(lexer.LPAREN)
		msg := p.expect(lexer.STRING, "rejection message").Literal
		p.expect(lexer.RPAREN)
		return Consequence{Kind: ConsequenceReject, Message: msg, Span: tok.Span}
	case p.check(lexer.KW_LOG):
		p.advance()
		p.expect(lexer.LPAREN)
		msg := p.expect(lexer.STRING, "log message").Literal
		p.expect(lexer.RPAREN)
		return Consequence{Kind: ConsequenceLog, Message: msg, Span: tok.Span}
	case p.check(lexer.IDENT):
		name := p.advance().Literal
		p.expect(lexer.LPAREN)
		var args []Expr
		if !p.check(lexer.RPAREN) {
			args = append(args, p.parseOrExpr())
			for p.match(lexer.COMMA) {
				args = append(args, p.parseOrExpr())
			}
		}
		p.expect(lexer.RPAREN)
		return Consequence{Kind: ConsequenceCall, CallAction: name, CallArgs: args, Span: tok.Span}
	default:
		p.fail([]string{"reject(...)", "log(...)", "action call"})
		return Consequence{}
	}
}

// ── action ──

func (p *parser) parseAction() *Action {
	var decorators []ActionDecorator
	for p.check(lexer.ATNAME) {
		decorators = append(decorators, p.parseActionDecorator())
	}
	startTok := p.expect(lexer.KW_ACTION)
	name := p.expect(lexer.IDENT, "action name")
	p.expect(lexer.COLON)
	p.expect(lexer.NEWLINE)
	p.expect(lexer.INDENT)

	a := &Action{Name: name.Literal, Decorators: decorators, Span: startTok.Span}

	if p.check(lexer.KW_INPUT) {
		a.Input = p.parseInputBlock()
	}
	if p.check(lexer.KW_PROCESS) {
		a.Process = p.parseProcessBlock()
	}
	a.Output = p.parseOutputBlock()

	p.expect(lexer.DEDENT)
	return a
}

func (p *parser) parseActionDecorator() ActionDecorator {
	tok := p.expect(lexer.ATNAME)
	d := ActionDecorator{Span: tok.Span}
	switch tok.Literal {
	case "@api":
		d.Kind = ActionDecoratorAPI
		d.Method = p.parseHTTPMethod()
		d.Path = p.expect(lexer.PATH, "route path").Literal
	case "@auth":
		d.Kind = ActionDecoratorAuth
		if p.match(lexer.LPAREN) {
			p.expect(lexer.IDENT, "validate") // the literal "validate"
			p.expect(lexer.LPAREN)
			d.HasValidate = true
			d.ValidateField = p.expect(lexer.IDENT, "field name").Literal
			p.expect(lexer.RPAREN)
			p.expect(lexer.RPAREN)
		}
	case "@policy":
		d.Kind = ActionDecoratorPolicy
		p.expect(lexer.LPAREN)
		d.PolicyName = p.expect(lexer.IDENT, "policy name").Literal
		p.expect(lexer.RPAREN)
	case "@map":
		d.Kind = ActionDecoratorMap
		p.expect(lexer.LPAREN)
		d.MapField = p.expect(lexer.IDENT, "field name").Literal
		p.expect(lexer.COMMA)
		d.MapTransform = p.expect(lexer.IDENT, "transform name").Literal
		p.expect(lexer.RPAREN)
	default:
		p.fail([]string{"@api", "@auth", "@policy", "@map"})
	}
	p.expect(lexer.NEWLINE)
	return d
}

func (p *parser) parseHTTPMethod() string {
	switch {
	case p.check(lexer.KW_GET):
		p.advance()
		return "GET"
	case p.check(lexer.KW_POST):
		p.advance()
		return "POST"
	case p.check(lexer.KW_PUT):
		p.advance()
		return "PUT"
	case p.check(lexer.KW_PATCH):
		p.advance()
		return "PATCH"
	case p.check(lexer.KW_DELETE_METHOD):
		p.advance()
		return "DELETE"
	default:
		p.fail([]string{"GET", "POST", "PUT", "PATCH", "DELETE"})
		return ""
	}
}

func (p *parser) parseInputBlock() []Param {
	p.expect(lexer.KW_INPUT)
	p.expect(lexer.COLON)
	p.expect(lexer.NEWLINE)
	p.expect(lexer.INDENT)
	var params []Param
	for !p.check(lexer.DEDENT) {
		name := p.expect(lexer.IDENT, "parameter name")
		p.expect(lexer.COLON)
		typ := p.parseType()
		p.expect(lexer.NEWLINE)
		params = append(params, Param{Name: name.Literal, Type: typ, Span: name.Span})
	}
	p.expect(lexer.DEDENT)
	return params
}

func (p *parser) parseProcessBlock() []ProcessStmt {
	p.expect(lexer.KW_PROCESS)
	p.expect(lexer.COLON)
	p.expect(lexer.NEWLINE)
	p.expect(lexer.INDENT)
	var steps []ProcessStmt
	for !p.check(lexer.DEDENT) {
		steps = append(steps, p.parseProcessStmt())
	}
	p.expect(lexer.DEDENT)
	return steps
}

func (p *parser) parseProcessStmt() ProcessStmt {
	switch {
	case p.check(lexer.KW_DERIVE):
		return p.parseDerive()
	case p.check(lexer.KW_MUTATE):
		return p.parseMutate()
	case p.check(lexer.KW_DELETE):
		return p.parseDeleteStmt()
	default:
		p.fail([]string{"derive", "mutate", "delete"})
		return ProcessStmt{}
	}
}

func (p *parser) parseDerive() ProcessStmt {
	tok := p.expect(lexer.KW_DERIVE)
	binding := p.expect(lexer.IDENT, "binding name").Literal
	p.expect(lexer.ASSIGN)

	switch {
	case p.check(lexer.KW_SELECT):
		p.advance()
		entity := p.expect(lexer.IDENT, "entity name").Literal
		var where Expr
		hasWhere := false
		if p.match(lexer.KW_WHERE) {
			where = p.parseOrExpr()
			hasWhere = true
		}
		p.expect(lexer.NEWLINE)
		return ProcessStmt{Kind: ProcessDeriveSelect, Binding: binding, Entity: entity, Where: where, HasWhere: hasWhere, Span: tok.Span}
	case p.check(lexer.KW_COMPUTE):
		p.advance()
		fn := p.expect(lexer.IDENT, "function name").Literal
		p.expect(lexer.LPAREN)
		args := p.parseArgList()
		p.expect(lexer.RPAREN)
		p.expect(lexer.NEWLINE)
		return ProcessStmt{Kind: ProcessDeriveCompute, Binding: binding, Func: fn, Args: args, Span: tok.Span}
	case p.check(lexer.KW_SYSTEM):
		p.advance()
		path := p.parseDottedPath()
		p.expect(lexer.LPAREN)
		args := p.parseArgList()
		p.expect(lexer.RPAREN)
		p.expect(lexer.NEWLINE)
		return ProcessStmt{Kind: ProcessDeriveSystem, Binding: binding, Path: path, Args: args, Span: tok.Span}
	default:
		p.fail([]string{"select", "compute", "system"})
		return ProcessStmt{}
	}
}

func (p *parser) parseDottedPath() string {
	name := p.expect(lexer.IDENT, "capability path").Literal
	for p.match(lexer.DOT) {
		name += "." + p.expect(lexer.IDENT, "path segment").Literal
	}
	return name
}

func (p *parser) parseArgList() []Expr {
	var args []Expr
	if p.check(lexer.RPAREN) {
		return args
	}
	args = append(args, p.parseOrExpr())
	for p.match(lexer.COMMA) {
		args = append(args, p.parseOrExpr())
	}
	return args
}

func (p *parser) parseMutate() ProcessStmt {
	tok := p.expect(lexer.KW_MUTATE)
	entity := p.expect(lexer.IDENT, "entity name").Literal

	var where Expr
	isUpdate := false
	if p.match(lexer.KW_WHERE) {
		where = p.parseOrExpr()
		isUpdate = true
	}
	p.expect(lexer.COLON)
	p.expect(lexer.NEWLINE)
	p.expect(lexer.INDENT)

	var sets []SetClause
	for !p.check(lexer.DEDENT) {
		setTok := p.expect(lexer.KW_SET)
		field := p.expect(lexer.IDENT, "field name").Literal
		p.expect(lexer.ASSIGN)
		value := p.parseOrExpr()
		p.expect(lexer.NEWLINE)
		sets = append(sets, SetClause{Field: field, Value: value, Span: setTok.Span})
	}
	p.expect(lexer.DEDENT)

	kind := ProcessMutateCreate
	if isUpdate {
		kind = ProcessMutateUpdate
	}
	return ProcessStmt{Kind: kind, Entity: entity, Where: where, HasWhere: isUpdate, Sets: sets, Span: tok.Span}
}

func (p *parser) parseDeleteStmt() ProcessStmt {
	tok := p.expect(lexer.KW_DELETE)
	entity := p.expect(lexer.IDENT, "entity name").Literal
	p.expect(lexer.KW_WHERE)
	where := p.parseOrExpr()
	p.expect(lexer.NEWLINE)
	return ProcessStmt{Kind: ProcessDelete, Entity: entity, Where: where, HasWhere: true, Span: tok.Span}
}

func (p *parser) parseOutputBlock() []ProjectionEntry {
	p.expect(lexer.KW_OUTPUT)
	p.expect(lexer.COLON)

	if p.check(lexer.NEWLINE) {
		p.advance()
		p.expect(lexer.INDENT)
		var entries []ProjectionEntry
		for !p.check(lexer.DEDENT) {
			entries = append(entries, p.parseProjectionEntry())
		}
		p.expect(lexer.DEDENT)
		return entries
	}

	entry := p.parseProjectionEntry()
	return []ProjectionEntry{entry}
}

func (p *parser) parseProjectionEntry() ProjectionEntry {
	name := p.expect(lexer.IDENT, "entity name")
	p.expect(lexer.LPAREN)
	var fields []string
	if !p.check(lexer.RPAREN) {
		fields = append(fields, p.expect(lexer.IDENT, "field name").Literal)
		for p.match(lexer.COMMA) {
			fields = append(fields, p.expect(lexer.IDENT, "field name").Literal)
		}
	}
	p.expect(lexer.RPAREN)
	p.expect(lexer.NEWLINE)
	return ProjectionEntry{Entity: name.Literal, Fields: fields, Span: name.Span}
}

// ── expressions ──
//
// Precedence, loosest to tightest: or, and, not, comparison, primary.

func (p *parser) parseOrExpr() Expr {
	left := p.parseAndExpr()
	for p.check(lexer.KW_OR) {
		tok := p.advance()
		right := p.parseAndExpr()
		l, r := left, right
		left = Expr{Kind: ExprLogical, LogicalOp: LogicalOr, Left: &l, Right: &r, Span: tok.Span}
	}
	return left
}

func (p *parser) parseAndExpr() Expr {
	left := p.parseNotExpr()
	for p.check(lexer.KW_AND) {
		tok := p.advance()
		right := p.parseNotExpr()
		l, r := left, right
		left = Expr{Kind: ExprLogical, LogicalOp: LogicalAnd, Left: &l, Right: &r, Span: tok.Span}
	}
	return left
}

func (p *parser) parseNotExpr() Expr {
	if p.check(lexer.KW_NOT) {
		tok := p.advance()
		operand := p.parseNotExpr()
		return Expr{Kind: ExprNot, Operand: &operand, Span: tok.Span}
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() Expr {
	left := p.parsePrimary()
	op, ok := p.matchCompareOp()
	if !ok {
		return left
	}
	tok := p.peekAt(-1)
	right := p.parsePrimary()
	l, r := left, right
	return Expr{Kind: ExprCompare, CompareOp: op, Left: &l, Right: &r, Span: tok.Span}
}

func (p *parser) matchCompareOp() (CompareOp, bool) {
	switch {
	case p.match(lexer.EQ):
		return CompareEQ, true
	case p.match(lexer.NEQ):
		return CompareNEQ, true
	case p.match(lexer.LTE):
		return CompareLTE, true
	case p.match(lexer.GTE):
		return CompareGTE, true
	case p.match(lexer.LT):
		return CompareLT, true
	case p.match(lexer.GT):
		return CompareGT, true
	default:
		return 0, false
	}
}

func (p *parser) parsePrimary() Expr {
	tok := p.peek()
	switch {
	case p.check(lexer.STRING):
		p.advance()
		return Expr{Kind: ExprLiteralString, StringValue: tok.Literal, Span: tok.Span}
	case p.check(lexer.NUMBER):
		p.advance()
		return Expr{Kind: ExprLiteralNumber, NumberValue: parseFloat(tok.Literal), Span: tok.Span}
	case p.check(lexer.KW_TRUE):
		p.advance()
		return Expr{Kind: ExprLiteralBool, BoolValue: true, Span: tok.Span}
	case p.check(lexer.KW_FALSE):
		p.advance()
		return Expr{Kind: ExprLiteralBool, BoolValue: false, Span: tok.Span}
	case p.check(lexer.KW_NOW):
		p.advance()
		return Expr{Kind: ExprLiteralNow, Span: tok.Span}
	case p.check(lexer.KW_UUID_LIT):
		p.advance()
		return Expr{Kind: ExprLiteralUUID, Span: tok.Span}
	case p.check(lexer.LPAREN):
		p.advance()
		inner := p.parseOrExpr()
		p.expect(lexer.RPAREN)
		return inner
	case p.check(lexer.IDENT):
		return p.parseIdentOrCall()
	default:
		p.fail([]string{"string literal", "number literal", "true", "false", "now", "uuid", "'('", "identifier"})
		return Expr{}
	}
}

func (p *parser) parseIdentOrCall() Expr {
	tok := p.peek()
	parts := []string{p.advance().Literal}
	for p.match(lexer.DOT) {
		parts = append(parts, p.expect(lexer.IDENT, "identifier").Literal)
	}
	if len(parts) == 1 && p.check(lexer.LPAREN) {
		p.advance()
		args := p.parseArgList()
		p.expect(lexer.RPAREN)
		return Expr{Kind: ExprCall, CallFunc: parts[0], CallArgs: args, Span: tok.Span}
	}
	return Expr{Kind: ExprIdent, IdentParts: parts, Span: tok.Span}
}

func parseFloat(s string) float64 {
	var n float64
	var frac float64 = 1
	inFrac := false
	for _, r := range s {
		if r == '.' {
			inFrac = true
			continue
		}
		d := float64(r - '0')
		if inFrac {
			frac /= 10
			n += d * frac
		} else {
			n = n*10 + d
		}
	}
	return n
}
