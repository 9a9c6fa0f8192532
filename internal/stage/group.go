package stage

import (
	"sort"

	"github.com/flowc-lang/flowc/internal/ast"
	"github.com/flowc-lang/flowc/internal/diag"
	"github.com/flowc-lang/flowc/internal/eval"
	"github.com/flowc-lang/flowc/internal/lexer"
	"github.com/flowc-lang/flowc/internal/value"
)

func registerGroup(r *Registry) {
	r.Register("group.collect_all", &Spec{Tag: TagPure, Natural: applyGroupCollectAll})
	r.Register("group.topn_items", &Spec{Tag: TagPure, Natural: applyGroupTopNItems})
}

type group struct {
	key   value.Value
	items []value.Value
}

// collectGroups drains the upstream and buckets it by the evaluated by_key
// expression, preserving first-occurrence key order and within-group
// arrival order (spec.md §4.4, §8 ordering invariant).
func collectGroups(ctx Context, st *value.Stage, in Stream, keyExpr ast.Expr) ([]*group, *diag.Error) {
	items, derr := Drain(in)
	if derr != nil {
		return nil, derr
	}
	index := make(map[string]int)
	var groups []*group
	for _, v := range items {
		scope := eval.Scope{Env: st.Env}.WithPlaceholder(v)
		keyVal, err := eval.Eval(keyExpr, scope)
		if err != nil {
			return nil, err
		}
		enc, err := EncodeJSON(keyVal)
		if err != nil {
			return nil, err
		}
		idx, ok := index[enc]
		if !ok {
			idx = len(groups)
			index[enc] = idx
			groups = append(groups, &group{key: keyVal})
		}
		groups[idx].items = append(groups[idx].items, v)
	}
	return groups, nil
}

func applyGroupCollectAll(ctx Context, st *value.Stage, in Stream, span lexer.Span) (Stream, *diag.Error) {
	keyExpr, err := requireExprArg(st, 0, "by_key", span)
	if err != nil {
		return nil, err
	}
	limit, err := optionalIntArg(st, 2, "limit", -1)
	if err != nil {
		return nil, err
	}

	groups, gerr := collectGroups(ctx, st, in, keyExpr)
	if gerr != nil {
		return nil, gerr
	}

	out := make([]value.Value, len(groups))
	for i, g := range groups {
		items := g.items
		if limit >= 0 && int64(len(items)) > limit {
			items = items[:limit]
		}
		rec := value.NewRecord()
		rec.Set("key", g.key)
		rec.Set("items", value.NewArray(items))
		out[i] = rec
	}
	return NewSliceStream(out), nil
}

func applyGroupTopNItems(ctx Context, st *value.Stage, in Stream, span lexer.Span) (Stream, *diag.Error) {
	keyExpr, err := requireExprArg(st, 0, "by_key", span)
	if err != nil {
		return nil, err
	}
	n, err := requireIntArg(st, 1, "n", span)
	if err != nil {
		return nil, err
	}
	orderByExpr, err := requireExprArg(st, 2, "order_by", span)
	if err != nil {
		return nil, err
	}
	order, err := requireStrArg(st, 3, "order", span)
	if err != nil {
		return nil, err
	}
	desc, err := parseOrder(order, span)
	if err != nil {
		return nil, err
	}

	groups, gerr := collectGroups(ctx, st, in, keyExpr)
	if gerr != nil {
		return nil, gerr
	}

	out := make([]value.Value, len(groups))
	for i, g := range groups {
		ranked, rerr := sortByKey(st, g.items, orderByExpr, desc)
		if rerr != nil {
			return nil, rerr
		}
		if int64(len(ranked)) > n {
			ranked = ranked[:n]
		}
		rec := value.NewRecord()
		rec.Set("key", g.key)
		rec.Set("items", value.NewArray(ranked))
		out[i] = rec
	}
	return NewSliceStream(out), nil
}

func parseOrder(order string, span lexer.Span) (bool, *diag.Error) {
	switch order {
	case "asc":
		return false, nil
	case "desc":
		return true, nil
	default:
		return false, diag.New(diag.KindBadArgument, span, "order must be \"asc\" or \"desc\", found %q", order)
	}
}

type rankedItem struct {
	v   value.Value
	key value.Value
}

// sortByKey stably sorts items by the evaluated keyExpr, breaking ties by
// original arrival order (spec.md §8 top-k stability invariant).
func sortByKey(st *value.Stage, items []value.Value, keyExpr ast.Expr, desc bool) ([]value.Value, *diag.Error) {
	ranked := make([]rankedItem, len(items))
	for i, v := range items {
		scope := eval.Scope{Env: st.Env}.WithPlaceholder(v)
		k, err := eval.Eval(keyExpr, scope)
		if err != nil {
			return nil, err
		}
		switch k.(type) {
		case value.I64, value.Str:
		default:
			return nil, diag.New(diag.KindTypeMismatch, keyExpr.Span(), "sort key must be I64 or Str, found %s", k.Kind())
		}
		ranked[i] = rankedItem{v: v, key: k}
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		if desc {
			return lessKey(ranked[b].key, ranked[a].key)
		}
		return lessKey(ranked[a].key, ranked[b].key)
	})

	out := make([]value.Value, len(ranked))
	for i, r := range ranked {
		out[i] = r.v
	}
	return out, nil
}

func lessKey(a, b value.Value) bool {
	if ai, ok := a.(value.I64); ok {
		if bi, ok := b.(value.I64); ok {
			return ai < bi
		}
	}
	if as, ok := a.(value.Str); ok {
		if bs, ok := b.(value.Str); ok {
			return as < bs
		}
	}
	return a.String() < b.String()
}
