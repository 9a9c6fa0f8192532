package stage

import (
	"github.com/flowc-lang/flowc/internal/diag"
	"github.com/flowc-lang/flowc/internal/lexer"
	"github.com/flowc-lang/flowc/internal/value"
)

func registerRank(r *Registry) {
	r.Register("rank.topk", &Spec{Tag: TagPure, Natural: applyRankTopK})
	r.Register("rank.kmerge_arrays", &Spec{Tag: TagPure, Natural: applyRankKMerge})
}

func applyRankTopK(ctx Context, st *value.Stage, in Stream, span lexer.Span) (Stream, *diag.Error) {
	k, err := requireIntArg(st, 0, "k", span)
	if err != nil {
		return nil, err
	}
	byExpr, err := requireExprArg(st, 1, "by", span)
	if err != nil {
		return nil, err
	}
	order, err := requireStrArg(st, 2, "order", span)
	if err != nil {
		return nil, err
	}
	// tie (if present) is accepted but unused beyond arrival-order stability,
	// which sort.SliceStable already guarantees (spec.md §8).
	desc, err := parseOrder(order, span)
	if err != nil {
		return nil, err
	}

	items, derr := Drain(in)
	if derr != nil {
		return nil, derr
	}
	ranked, rerr := sortByKey(st, items, byExpr, desc)
	if rerr != nil {
		return nil, rerr
	}
	if int64(len(ranked)) > k {
		ranked = ranked[:k]
	}
	return NewSliceStream(ranked), nil
}

func applyRankKMerge(ctx Context, st *value.Stage, in Stream, span lexer.Span) (Stream, *diag.Error) {
	byExpr, err := requireExprArg(st, 0, "by", span)
	if err != nil {
		return nil, err
	}
	order, err := requireStrArg(st, 1, "order", span)
	if err != nil {
		return nil, err
	}
	limit, err := requireIntArg(st, 2, "limit", span)
	if err != nil {
		return nil, err
	}
	desc, err := parseOrder(order, span)
	if err != nil {
		return nil, err
	}

	items, derr := Drain(in)
	if derr != nil {
		return nil, derr
	}

	var merged []value.Value
	for _, v := range items {
		outer, ok := v.(*value.Array)
		if !ok {
			return nil, diag.New(diag.KindTypeMismatch, span, "rank.kmerge_arrays: expected Array[Array[Value]], found %s", v.Kind())
		}
		var flat []value.Value
		for _, inner := range outer.Elements {
			innerArr, ok := inner.(*value.Array)
			if !ok {
				return nil, diag.New(diag.KindTypeMismatch, span, "rank.kmerge_arrays: expected Array[Array[Value]], found inner %s", inner.Kind())
			}
			flat = append(flat, innerArr.Elements...)
		}
		ranked, rerr := sortByKey(st, flat, byExpr, desc)
		if rerr != nil {
			return nil, rerr
		}
		if int64(len(ranked)) > limit {
			ranked = ranked[:limit]
		}
		merged = append(merged, ranked...)
	}
	return NewSliceStream(merged), nil
}
