package stage

import (
	"github.com/flowc-lang/flowc/internal/diag"
	"github.com/flowc-lang/flowc/internal/eval"
	"github.com/flowc-lang/flowc/internal/lexer"
	"github.com/flowc-lang/flowc/internal/value"
)

func registerPure(r *Registry) {
	r.Register("map", &Spec{Tag: TagPure, Natural: applyMap})
	r.Register("filter", &Spec{Tag: TagPure, Natural: applyFilter})
	r.Register("flat_map", &Spec{Tag: TagPure, Natural: applyFlatMap})
}

func applyMap(ctx Context, st *value.Stage, in Stream, span lexer.Span) (Stream, *diag.Error) {
	body, err := requireExprArg(st, 0, "expr", span)
	if err != nil {
		return nil, err
	}
	return newElementwiseStream(in, func(v value.Value) (value.Value, *diag.Error) {
		scope := eval.Scope{Env: st.Env}.WithPlaceholder(v)
		return eval.Eval(body, scope)
	}), nil
}

func applyFilter(ctx Context, st *value.Stage, in Stream, span lexer.Span) (Stream, *diag.Error) {
	body, err := requireExprArg(st, 0, "expr", span)
	if err != nil {
		return nil, err
	}
	return newFilterStream(in, func(v value.Value) (bool, *diag.Error) {
		scope := eval.Scope{Env: st.Env}.WithPlaceholder(v)
		result, err := eval.Eval(body, scope)
		if err != nil {
			return false, err
		}
		b, ok := result.(value.Bool)
		if !ok {
			return false, diag.New(diag.KindTypeMismatch, body.Span(), "filter predicate must return Bool, found %s", result.Kind())
		}
		return bool(b), nil
	}), nil
}

func applyFlatMap(ctx Context, st *value.Stage, in Stream, span lexer.Span) (Stream, *diag.Error) {
	body, err := requireExprArg(st, 0, "expr", span)
	if err != nil {
		return nil, err
	}
	return newFlattenStream(in, func(v value.Value) ([]value.Value, *diag.Error) {
		scope := eval.Scope{Env: st.Env}.WithPlaceholder(v)
		result, err := eval.Eval(body, scope)
		if err != nil {
			return nil, err
		}
		arr, ok := result.(*value.Array)
		if !ok {
			return nil, diag.New(diag.KindTypeMismatch, body.Span(), "flat_map body must return Array, found %s", result.Kind())
		}
		return arr.Elements, nil
	}), nil
}
