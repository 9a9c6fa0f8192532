package stage

import (
	"github.com/flowc-lang/flowc/internal/ast"
	"github.com/flowc-lang/flowc/internal/diag"
	"github.com/flowc-lang/flowc/internal/eval"
	"github.com/flowc-lang/flowc/internal/lexer"
	"github.com/flowc-lang/flowc/internal/value"
)

func staticScope(st *value.Stage) eval.Scope { return eval.Scope{Env: st.Env} }

func requireArg(st *value.Stage, pos int, name string, span lexer.Span) (ast.Expr, *diag.Error) {
	e, ok := posOrNamed(st, pos, name)
	if !ok {
		return nil, diag.New(diag.KindMissingArgument, span, "%s: missing required argument %q", st.Name, name)
	}
	return e, nil
}

func evalStr(st *value.Stage, expr ast.Expr) (string, *diag.Error) {
	v, err := eval.Eval(expr, staticScope(st))
	if err != nil {
		return "", err
	}
	s, ok := v.(value.Str)
	if !ok {
		return "", diag.New(diag.KindBadArgument, expr.Span(), "%s: expected Str argument, found %s", st.Name, v.Kind())
	}
	return string(s), nil
}

func evalInt(st *value.Stage, expr ast.Expr) (int64, *diag.Error) {
	v, err := eval.Eval(expr, staticScope(st))
	if err != nil {
		return 0, err
	}
	n, ok := v.(value.I64)
	if !ok {
		return 0, diag.New(diag.KindBadArgument, expr.Span(), "%s: expected I64 argument, found %s", st.Name, v.Kind())
	}
	return int64(n), nil
}

// requireStrArg fetches a required argument and evaluates it as a Str.
func requireStrArg(st *value.Stage, pos int, name string, span lexer.Span) (string, *diag.Error) {
	e, err := requireArg(st, pos, name, span)
	if err != nil {
		return "", err
	}
	return evalStr(st, e)
}

// optionalStrArg fetches an optional argument, evaluating it as a Str, or
// returns def when absent.
func optionalStrArg(st *value.Stage, pos int, name, def string) (string, *diag.Error) {
	e, ok := posOrNamed(st, pos, name)
	if !ok {
		return def, nil
	}
	return evalStr(st, e)
}

func requireIntArg(st *value.Stage, pos int, name string, span lexer.Span) (int64, *diag.Error) {
	e, err := requireArg(st, pos, name, span)
	if err != nil {
		return 0, err
	}
	return evalInt(st, e)
}

func optionalIntArg(st *value.Stage, pos int, name string, def int64) (int64, *diag.Error) {
	e, ok := posOrNamed(st, pos, name)
	if !ok {
		return def, nil
	}
	return evalInt(st, e)
}

// requireExprArg fetches a required argument expression without evaluating
// it, for arguments re-evaluated per item under a placeholder (e.g. map's
// body, lookup.kv's key=).
func requireExprArg(st *value.Stage, pos int, name string, span lexer.Span) (ast.Expr, *diag.Error) {
	return requireArg(st, pos, name, span)
}

func optionalExprArg(st *value.Stage, pos int, name string) (ast.Expr, bool) {
	return posOrNamed(st, pos, name)
}
