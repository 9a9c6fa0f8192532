// Package ast defines the flowc syntax tree: statements and expressions.
// Every node carries its source span and knows how to print itself, which
// the plan printer (internal/explain) relies on for stage argument summaries.
package ast

import (
	"strconv"
	"strings"

	"github.com/flowc-lang/flowc/internal/lexer"
)

// Node is implemented by every AST node.
type Node interface {
	Span() lexer.Span
	String() string
}

// Stmt is a top-level program statement: a binding or a pipeline.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is any expression, including stage expressions (which share the
// expression grammar and are reinterpreted as Stage values where a pipeline
// slot expects one).
type Expr interface {
	Node
	exprNode()
}

// Program is a parsed flowc source file: a flat sequence of statements.
type Program struct {
	Statements []Stmt
}

func (p *Program) String() string {
	parts := make([]string, len(p.Statements))
	for i, s := range p.Statements {
		parts[i] = s.String()
	}
	return strings.Join(parts, "\n")
}

// ---- Statements ----

// Bind is `name := expr;`.
type Bind struct {
	Name     string
	NameSpan lexer.Span
	Value    Expr
	SpanV    lexer.Span
}

func (b *Bind) stmtNode()         {}
func (b *Bind) Span() lexer.Span  { return b.SpanV }
func (b *Bind) String() string {
	return b.Name + " := " + b.Value.String() + ";"
}

// Pipeline is `source |> stage1 |> stage2 ... ;`. Stages may be empty
// (`expr;` evaluates and discards expr).
type Pipeline struct {
	Source Expr
	Stages []Expr
	SpanV  lexer.Span
}

func (p *Pipeline) stmtNode()        {}
func (p *Pipeline) Span() lexer.Span { return p.SpanV }
func (p *Pipeline) String() string {
	var sb strings.Builder
	sb.WriteString(p.Source.String())
	for _, s := range p.Stages {
		sb.WriteString(" |> ")
		sb.WriteString(s.String())
	}
	sb.WriteString(";")
	return sb.String()
}

// ---- Expressions ----

// NullLit is the `null` literal.
type NullLit struct{ SpanV lexer.Span }

func (n *NullLit) exprNode()        {}
func (n *NullLit) Span() lexer.Span { return n.SpanV }
func (n *NullLit) String() string   { return "null" }

// BoolLit is `true` or `false`.
type BoolLit struct {
	Value bool
	SpanV lexer.Span
}

func (b *BoolLit) exprNode()        {}
func (b *BoolLit) Span() lexer.Span { return b.SpanV }
func (b *BoolLit) String() string   { return strconv.FormatBool(b.Value) }

// IntLit is a 64-bit signed integer literal.
type IntLit struct {
	Value int64
	SpanV lexer.Span
}

func (i *IntLit) exprNode()        {}
func (i *IntLit) Span() lexer.Span { return i.SpanV }
func (i *IntLit) String() string   { return strconv.FormatInt(i.Value, 10) }

// StrLit is a double-quoted string literal.
type StrLit struct {
	Value string
	SpanV lexer.Span
}

func (s *StrLit) exprNode()        {}
func (s *StrLit) Span() lexer.Span { return s.SpanV }
func (s *StrLit) String() string   { return strconv.Quote(s.Value) }

// ArrayLit is `[e1, e2, ...]`.
type ArrayLit struct {
	Elements []Expr
	SpanV    lexer.Span
}

func (a *ArrayLit) exprNode()        {}
func (a *ArrayLit) Span() lexer.Span { return a.SpanV }
func (a *ArrayLit) String() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// RecordField is one `name: expr` entry of a record literal.
type RecordField struct {
	Name  string
	Value Expr
}

// RecordLit is `{name: expr, ...}`. Field order is preserved.
type RecordLit struct {
	Fields []RecordField
	SpanV  lexer.Span
}

func (r *RecordLit) exprNode()        {}
func (r *RecordLit) Span() lexer.Span { return r.SpanV }
func (r *RecordLit) String() string {
	parts := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		parts[i] = f.Name + ": " + f.Value.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Placeholder is the bare `_`, bound to the enclosing stage's current item
// (or the current array element inside array.* helpers).
type Placeholder struct{ SpanV lexer.Span }

func (p *Placeholder) exprNode()        {}
func (p *Placeholder) Span() lexer.Span { return p.SpanV }
func (p *Placeholder) String() string   { return "_" }

// Ident is a bound name lookup.
type Ident struct {
	Name  string
	SpanV lexer.Span
}

func (i *Ident) exprNode()        {}
func (i *Ident) Span() lexer.Span { return i.SpanV }
func (i *Ident) String() string   { return i.Name }

// Field is `target.name`, evaluating to Null if target is a Record missing
// the field (spec.md §4.3).
type Field struct {
	Target Expr
	Name   string
	SpanV  lexer.Span
}

func (f *Field) exprNode()        {}
func (f *Field) Span() lexer.Span { return f.SpanV }
func (f *Field) String() string   { return f.Target.String() + "." + f.Name }

// NamedArg is one `name = expr` entry in a call's argument list. Named
// arguments always follow positional ones.
type NamedArg struct {
	Name  string
	Value Expr
}

// Call is `callee(args)`. In an expression position it may resolve to a
// function call (`default` or one of the `array.*` helpers); in a
// stage-expression position
// it is reinterpreted as stage construction.
type Call struct {
	Callee    Expr
	Args      []Expr
	NamedArgs []NamedArg
	SpanV     lexer.Span
}

func (c *Call) exprNode()        {}
func (c *Call) Span() lexer.Span { return c.SpanV }
func (c *Call) String() string {
	parts := make([]string, 0, len(c.Args)+len(c.NamedArgs))
	for _, a := range c.Args {
		parts = append(parts, a.String())
	}
	for _, n := range c.NamedArgs {
		parts = append(parts, n.Name+"="+n.Value.String())
	}
	return c.Callee.String() + "(" + strings.Join(parts, ", ") + ")"
}

// Unary is a prefix `-operand` expression.
type Unary struct {
	Op      string
	Operand Expr
	SpanV   lexer.Span
}

func (u *Unary) exprNode()        {}
func (u *Unary) Span() lexer.Span { return u.SpanV }
func (u *Unary) String() string   { return u.Op + u.Operand.String() }

// BinOp is a binary operator expression: + - * / > >= < <= == != && ||.
type BinOp struct {
	Op    string
	Left  Expr
	Right Expr
	SpanV lexer.Span
}

func (b *BinOp) exprNode()        {}
func (b *BinOp) Span() lexer.Span { return b.SpanV }
func (b *BinOp) String() string {
	return "(" + b.Left.String() + " " + b.Op + " " + b.Right.String() + ")"
}

// Compose is `lhs >> rhs`, stage composition (left-associative).
type Compose struct {
	Left  Expr
	Right Expr
	SpanV lexer.Span
}

func (c *Compose) exprNode()        {}
func (c *Compose) Span() lexer.Span { return c.SpanV }
func (c *Compose) String() string   { return c.Left.String() + " >> " + c.Right.String() }

// Invert is `~operand`, forced stage inversion.
type Invert struct {
	Operand Expr
	SpanV   lexer.Span
}

func (i *Invert) exprNode()        {}
func (i *Invert) Span() lexer.Span { return i.SpanV }
func (i *Invert) String() string   { return "~" + i.Operand.String() }

// CalleeName returns the dotted name of a Call's callee when it is a simple
// Ident or Field chain (e.g. "input.json", "map", "lookup.kv"), and false
// otherwise. Stage construction and the plan printer both resolve stage
// names this way.
func CalleeName(e Expr) (string, bool) {
	switch n := e.(type) {
	case *Ident:
		return n.Name, true
	case *Field:
		base, ok := CalleeName(n.Target)
		if !ok {
			return "", false
		}
		return base + "." + n.Name, true
	default:
		return "", false
	}
}
