// Package diag formats flowc diagnostics — lex, parse, and runtime errors —
// with source context and a caret under the offending column.
package diag

import (
	"fmt"
	"strings"

	"github.com/flowc-lang/flowc/internal/lexer"
)

// Kind is the error taxonomy from the language design (spec.md §7).
type Kind string

const (
	KindLex             Kind = "LexError"
	KindParse           Kind = "ParseError"
	KindNameNotFound    Kind = "NameNotFound"
	KindTypeMismatch    Kind = "TypeMismatch"
	KindMissingFixture  Kind = "MissingFixture"
	KindMissingArgument Kind = "MissingArgument"
	KindBadArgument     Kind = "BadArgument"
	KindDivideByZero    Kind = "DivideByZero"
	KindOverflow        Kind = "Overflow"
	KindNotReversible   Kind = "NotReversible"
	KindStoreNotFound   Kind = "StoreNotFound"
	KindMalformedStore  Kind = "MalformedStoreInput"
	KindDecode          Kind = "DecodeError"
)

// Error is a single flowc diagnostic: a kind, a message, and the source span
// it applies to. Apart from internal/lexer's own scan errors, which the
// parser converts to KindLex diagnostics, it is the only error type flowc's
// internal packages construct — never a bare fmt.Errorf/errors.New.
type Error struct {
	Kind    Kind
	Message string
	Span    lexer.Span
}

func New(kind Kind, span lexer.Span, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Span: span}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %d:%d: %s", e.Kind, e.Span.Start.Line, e.Span.Start.Column, e.Message)
}

// Format renders the error with the offending source line and a caret.
// When color is true, the caret and message are wrapped in ANSI bold/red.
func Format(e *Error, source string, color bool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Error at line %d:%d (%s)\n", e.Span.Start.Line, e.Span.Start.Column, e.Kind)

	if line := sourceLine(source, e.Span.Start.Line); line != "" {
		prefix := fmt.Sprintf("%4d | ", e.Span.Start.Line)
		sb.WriteString(prefix)
		sb.WriteString(line)
		sb.WriteString("\n")

		col := e.Span.Start.Column - 1
		if col < 0 {
			col = 0
		}
		sb.WriteString(strings.Repeat(" ", len(prefix)+col))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m")
	}

	return sb.String()
}

func sourceLine(source string, lineNum int) string {
	if source == "" || lineNum < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// FormatAll renders a sequence of errors, one block per error, separated by
// a blank line.
func FormatAll(errs []*Error, source string, color bool) string {
	blocks := make([]string, len(errs))
	for i, e := range errs {
		blocks[i] = Format(e, source, color)
	}
	return strings.Join(blocks, "\n\n")
}
