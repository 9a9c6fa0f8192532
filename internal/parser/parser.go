// Package parser turns a flowc token stream into an internal/ast.Program
// using recursive descent with Pratt-style precedence climbing for binary
// operators, following the same precedence-table + prefix/infix dispatch
// shape as the teacher's internal/parser.
package parser

import (
	"strconv"

	"github.com/flowc-lang/flowc/internal/ast"
	"github.com/flowc-lang/flowc/internal/diag"
	"github.com/flowc-lang/flowc/internal/lexer"
)

// Precedence levels, lowest to highest.
const (
	_ int = iota
	LOWEST
	OR     // ||
	AND    // &&
	EQUALS // == !=
	CMP    // < > <= >=
	SUM    // + -
	PRODUCT
	PREFIX // unary -
	POSTFIX
)

var precedences = map[lexer.TokenType]int{
	lexer.PIPE_PIPE: OR,
	lexer.AMP_AMP:   AND,
	lexer.EQ_EQ:     EQUALS,
	lexer.BANG_EQ:   EQUALS,
	lexer.LT:        CMP,
	lexer.GT:        CMP,
	lexer.LT_EQ:     CMP,
	lexer.GT_EQ:     CMP,
	lexer.PLUS:      SUM,
	lexer.MINUS:     SUM,
	lexer.STAR:      PRODUCT,
	lexer.SLASH:     PRODUCT,
	lexer.DOT:       POSTFIX,
	lexer.LPAREN:    POSTFIX,
}

// Parser is a recursive-descent parser over a single token stream. It does
// not backtrack: the grammar (spec.md §4.2) needs only one token of
// lookahead beyond the current token, which the parser keeps in its peek
// field.
type Parser struct {
	l      *lexer.Lexer
	cur    lexer.Token
	peek   lexer.Token
	errors []*diag.Error
}

// New creates a Parser over l, priming the current and lookahead tokens.
func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.cur = p.l.NextToken()
	p.peek = p.l.NextToken()
	return p
}

func (p *Parser) next() {
	p.cur = p.peek
	p.peek = p.l.NextToken()
}

func (p *Parser) curSpan() lexer.Span { return p.cur.Span() }

func (p *Parser) errorf(span lexer.Span, format string, args ...any) {
	p.errors = append(p.errors, diag.New(diag.KindParse, span, format, args...))
}

func (p *Parser) expect(t lexer.TokenType) lexer.Token {
	tok := p.cur
	if p.cur.Type != t {
		p.errorf(p.curSpan(), "expected %s, found %s %q", t, p.cur.Type, p.cur.Literal)
		return tok
	}
	p.next()
	return tok
}

func precedenceOf(t lexer.TokenType) int {
	if prec, ok := precedences[t]; ok {
		return prec
	}
	return LOWEST
}

// ParseProgram parses a full source file into a Program plus any lexer and
// parser diagnostics collected along the way.
func ParseProgram(source string) (*ast.Program, []*diag.Error) {
	l := lexer.New(source)
	p := New(l)

	prog := &ast.Program{}
	for p.cur.Type != lexer.EOF {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		if p.cur.Type == lexer.ILLEGAL {
			p.next()
		}
	}

	var errs []*diag.Error
	for _, le := range l.Errors() {
		errs = append(errs, diag.New(diag.KindLex, lexer.Span{Start: le.Pos, End: le.Pos}, "%s", le.Message))
	}
	errs = append(errs, p.errors...)
	return prog, errs
}

func (p *Parser) parseStatement() ast.Stmt {
	start := p.curSpan()

	if p.cur.Type == lexer.IDENT && p.peek.Type == lexer.WALRUS {
		name := p.cur.Literal
		nameSpan := p.curSpan()
		p.next() // consume ident
		p.next() // consume :=
		value := p.parseSourceExpr()
		// A Bind whose RHS chains `|>` builds a composed (but not executed)
		// Stage value — e.g. `xs := input.json("xs") |> json;` binds xs to
		// Seq(input.json, json), run later wherever xs is piped into a sink.
		for p.cur.Type == lexer.PIPE_GT {
			opSpan := p.curSpan()
			p.next()
			stage := p.parseStageExpr()
			value = &ast.Compose{Left: value, Right: stage, SpanV: span(opSpan, stage.Span())}
		}
		end := p.curSpan()
		p.expect(lexer.SEMICOLON)
		return &ast.Bind{Name: name, NameSpan: nameSpan, Value: value, SpanV: span(start, end)}
	}

	source := p.parseSourceExpr()
	var stages []ast.Expr
	for p.cur.Type == lexer.PIPE_GT {
		p.next()
		stages = append(stages, p.parseStageExpr())
	}
	end := p.curSpan()
	p.expect(lexer.SEMICOLON)
	return &ast.Pipeline{Source: source, Stages: stages, SpanV: span(start, end)}
}

// parseSourceExpr parses a statement's leading expression — a Bind's RHS or
// a Pipeline's expr₀. Both admit the full expression grammar (so a source
// can be plain data, e.g. `[1, 2, 3]`) as well as bare `>>`/`~` stage
// composition with no `|>` at all (e.g. `chain := base64 >> ~base64;`,
// `~map(_+1);`), unlike a stage_expr slot after `|>`, which stays
// restricted to calls and identifiers.
func (p *Parser) parseSourceExpr() ast.Expr {
	start := p.curSpan()
	left := p.parseSourceInverted()
	for p.cur.Type == lexer.GT_GT {
		p.next()
		right := p.parseSourceInverted()
		left = &ast.Compose{Left: left, Right: right, SpanV: span(start, p.curSpan())}
	}
	return left
}

func (p *Parser) parseSourceInverted() ast.Expr {
	if p.cur.Type == lexer.TILDE {
		start := p.curSpan()
		p.next()
		operand := p.parseSourceInverted()
		return &ast.Invert{Operand: operand, SpanV: span(start, p.curSpan())}
	}
	return p.parseExpr(LOWEST)
}

// ---- Stage expressions: compose (>>) and forced inversion (~) over a
// primary stage, which is itself a call or bare identifier (spec.md §4.2).
// Dotted stage names (input.json) and their call arguments reuse the normal
// postfix expression parser, since Call's callee may itself be a Field.

func (p *Parser) parseStageExpr() ast.Expr {
	return p.parseCompose()
}

func (p *Parser) parseCompose() ast.Expr {
	start := p.curSpan()
	left := p.parseInverted()
	for p.cur.Type == lexer.GT_GT {
		p.next()
		right := p.parseInverted()
		left = &ast.Compose{Left: left, Right: right, SpanV: span(start, p.curSpan())}
	}
	return left
}

func (p *Parser) parseInverted() ast.Expr {
	start := p.curSpan()
	if p.cur.Type == lexer.TILDE {
		p.next()
		operand := p.parsePrimaryStage()
		return &ast.Invert{Operand: operand, SpanV: span(start, p.curSpan())}
	}
	return p.parsePrimaryStage()
}

func (p *Parser) parsePrimaryStage() ast.Expr {
	if p.cur.Type != lexer.IDENT {
		p.errorf(p.curSpan(), "expected stage name, found %s %q", p.cur.Type, p.cur.Literal)
		expr := p.parsePostfix()
		return expr
	}
	return p.parsePostfix()
}

// ---- Expressions, in ascending precedence: or, and, equality, comparison,
// sum, product, unary, postfix, primary.

func (p *Parser) parseExpr(minPrec int) ast.Expr {
	left := p.parseUnary()
	for {
		prec := precedenceOf(p.cur.Type)
		if prec <= minPrec || !isBinaryOp(p.cur.Type) {
			break
		}
		op := p.cur.Type.String()
		opSpan := p.curSpan()
		p.next()
		right := p.parseExpr(prec)
		left = &ast.BinOp{Op: op, Left: left, Right: right, SpanV: span(opSpan, right.Span())}
	}
	return left
}

func isBinaryOp(t lexer.TokenType) bool {
	switch t {
	case lexer.PIPE_PIPE, lexer.AMP_AMP, lexer.EQ_EQ, lexer.BANG_EQ,
		lexer.LT, lexer.GT, lexer.LT_EQ, lexer.GT_EQ,
		lexer.PLUS, lexer.MINUS, lexer.STAR, lexer.SLASH:
		return true
	default:
		return false
	}
}

func (p *Parser) parseUnary() ast.Expr {
	if p.cur.Type == lexer.MINUS {
		start := p.curSpan()
		p.next()
		operand := p.parseUnary()
		return &ast.Unary{Op: "-", Operand: operand, SpanV: span(start, operand.Span())}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expr {
	start := p.curSpan()
	expr := p.parsePrimary()
	for {
		switch p.cur.Type {
		case lexer.DOT:
			p.next()
			nameTok := p.expect(lexer.IDENT)
			expr = &ast.Field{Target: expr, Name: nameTok.Literal, SpanV: span(start, p.curSpan())}
		case lexer.LPAREN:
			p.next()
			posArgs, namedArgs := p.parseArgs()
			p.expect(lexer.RPAREN)
			expr = &ast.Call{Callee: expr, Args: posArgs, NamedArgs: namedArgs, SpanV: span(start, p.curSpan())}
		default:
			return expr
		}
	}
}

func (p *Parser) parseArgs() ([]ast.Expr, []ast.NamedArg) {
	var posArgs []ast.Expr
	var namedArgs []ast.NamedArg

	for p.cur.Type != lexer.RPAREN && p.cur.Type != lexer.EOF {
		if p.cur.Type == lexer.IDENT && p.peek.Type == lexer.ASSIGN {
			name := p.cur.Literal
			p.next() // ident
			p.next() // =
			value := p.parseExpr(LOWEST)
			namedArgs = append(namedArgs, ast.NamedArg{Name: name, Value: value})
		} else {
			arg := p.parseExpr(LOWEST)
			if len(namedArgs) > 0 {
				p.errorf(arg.Span(), "positional argument follows named argument")
			}
			posArgs = append(posArgs, arg)
		}
		if p.cur.Type != lexer.COMMA {
			break
		}
		p.next()
	}
	return posArgs, namedArgs
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur
	span_ := tok.Span()

	switch tok.Type {
	case lexer.NULL:
		p.next()
		return &ast.NullLit{SpanV: span_}
	case lexer.TRUE:
		p.next()
		return &ast.BoolLit{Value: true, SpanV: span_}
	case lexer.FALSE:
		p.next()
		return &ast.BoolLit{Value: false, SpanV: span_}
	case lexer.INT:
		p.next()
		n, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			p.errorf(span_, "invalid integer literal %q", tok.Literal)
		}
		return &ast.IntLit{Value: n, SpanV: span_}
	case lexer.STRING:
		p.next()
		return &ast.StrLit{Value: tok.Literal, SpanV: span_}
	case lexer.IDENT:
		p.next()
		if tok.Literal == "_" {
			return &ast.Placeholder{SpanV: span_}
		}
		return &ast.Ident{Name: tok.Literal, SpanV: span_}
	case lexer.LBRACK:
		return p.parseArrayLit()
	case lexer.LBRACE:
		return p.parseRecordLit()
	case lexer.LPAREN:
		p.next()
		inner := p.parseExpr(LOWEST)
		p.expect(lexer.RPAREN)
		return inner
	default:
		p.errorf(span_, "unexpected token %s %q", tok.Type, tok.Literal)
		p.next()
		return &ast.NullLit{SpanV: span_}
	}
}

func (p *Parser) parseArrayLit() ast.Expr {
	start := p.curSpan()
	p.expect(lexer.LBRACK)
	var elems []ast.Expr
	for p.cur.Type != lexer.RBRACK && p.cur.Type != lexer.EOF {
		elems = append(elems, p.parseExpr(LOWEST))
		if p.cur.Type != lexer.COMMA {
			break
		}
		p.next()
	}
	end := p.curSpan()
	p.expect(lexer.RBRACK)
	return &ast.ArrayLit{Elements: elems, SpanV: span(start, end)}
}

func (p *Parser) parseRecordLit() ast.Expr {
	start := p.curSpan()
	p.expect(lexer.LBRACE)
	var fields []ast.RecordField
	for p.cur.Type != lexer.RBRACE && p.cur.Type != lexer.EOF {
		nameTok := p.expect(lexer.IDENT)
		p.expect(lexer.COLON)
		value := p.parseExpr(LOWEST)
		fields = append(fields, ast.RecordField{Name: nameTok.Literal, Value: value})
		if p.cur.Type != lexer.COMMA {
			break
		}
		p.next()
	}
	end := p.curSpan()
	p.expect(lexer.RBRACE)
	return &ast.RecordLit{Fields: fields, SpanV: span(start, end)}
}

func span(start, end lexer.Span) lexer.Span {
	return lexer.Span{Start: start.Start, End: end.End}
}
