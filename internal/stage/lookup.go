package stage

import (
	"github.com/flowc-lang/flowc/internal/diag"
	"github.com/flowc-lang/flowc/internal/eval"
	"github.com/flowc-lang/flowc/internal/lexer"
	"github.com/flowc-lang/flowc/internal/value"
)

func registerLookup(r *Registry) {
	r.Register("kv.load", &Spec{Tag: TagEffect, Natural: applyKVLoad})
	r.Register("lookup.kv", &Spec{Tag: TagPure, Natural: applyLookupKV})
	// lookup.batch_kv is observationally identical to lookup.kv in the
	// deterministic runtime; batch_size/within_ms are accepted and surfaced
	// only in the plan (internal/explain), never affect results (spec.md §4.4).
	r.Register("lookup.batch_kv", &Spec{Tag: TagPure, Natural: applyLookupKV})
}

func applyKVLoad(ctx Context, st *value.Stage, in Stream, span lexer.Span) (Stream, *diag.Error) {
	store, err := requireStrArg(st, 0, "store", span)
	if err != nil {
		return nil, err
	}
	keyField, err := optionalStrArg(st, 1, "key_field", "key")
	if err != nil {
		return nil, err
	}
	valueField, err := optionalStrArg(st, 2, "value_field", "value")
	if err != nil {
		return nil, err
	}

	items, derr := Drain(in)
	if derr != nil {
		return nil, derr
	}
	for _, v := range items {
		rec, ok := v.(*value.Record)
		if !ok {
			return nil, diag.New(diag.KindMalformedStore, span, "kv.load: expected Record rows, found %s", v.Kind())
		}
		keyVal, ok := rec.Get(keyField)
		if !ok {
			return nil, diag.New(diag.KindMalformedStore, span, "kv.load: row missing key field %q", keyField)
		}
		keyStr, ok := keyVal.(value.Str)
		if !ok {
			return nil, diag.New(diag.KindMalformedStore, span, "kv.load: key field %q must be Str, found %s", keyField, keyVal.Kind())
		}
		valueVal, ok := rec.Get(valueField)
		if !ok {
			return nil, diag.New(diag.KindMalformedStore, span, "kv.load: row missing value field %q", valueField)
		}
		ctx.KVSet(store, string(keyStr), valueVal)
	}
	return NewSliceStream([]value.Value{value.Unit{}}), nil
}

func applyLookupKV(ctx Context, st *value.Stage, in Stream, span lexer.Span) (Stream, *diag.Error) {
	store, err := requireStrArg(st, 0, "store", span)
	if err != nil {
		return nil, err
	}
	keyExpr, err := requireExprArg(st, 1, "key", span)
	if err != nil {
		return nil, err
	}
	if !ctx.HasStore(store) {
		return nil, diag.New(diag.KindStoreNotFound, span, "lookup: no such store: %s", store)
	}

	return newElementwiseStream(in, func(v value.Value) (value.Value, *diag.Error) {
		scope := eval.Scope{Env: st.Env}.WithPlaceholder(v)
		keyVal, kerr := eval.Eval(keyExpr, scope)
		if kerr != nil {
			return nil, kerr
		}
		keyStr, ok := keyVal.(value.Str)
		if !ok {
			return nil, diag.New(diag.KindTypeMismatch, keyExpr.Span(), "lookup key must evaluate to Str, found %s", keyVal.Kind())
		}
		matched, found := ctx.KVGet(store, string(keyStr))
		out := value.NewRecord()
		out.Set("left", v)
		if found {
			out.Set("right", matched)
		} else {
			out.Set("right", value.Null{})
		}
		return out, nil
	}), nil
}
