package stage

import (
	"github.com/flowc-lang/flowc/internal/diag"
	"github.com/flowc-lang/flowc/internal/lexer"
	"github.com/flowc-lang/flowc/internal/value"
)

func registerSinks(r *Registry) {
	r.Register("ui.table", &Spec{Tag: TagSink, Natural: applyUITable})
	r.Register("ui.log", &Spec{Tag: TagSink, Natural: applyUILog})
}

// applyUITable drains the upstream, appending every value as a row of the
// named table, and emits a single Unit acknowledging the run — sinks never
// surface their output to further stages (spec.md §3.1).
func applyUITable(ctx Context, st *value.Stage, in Stream, span lexer.Span) (Stream, *diag.Error) {
	name, err := requireStrArg(st, 0, "name", span)
	if err != nil {
		return nil, err
	}
	items, derr := Drain(in)
	if derr != nil {
		return nil, derr
	}
	for _, v := range items {
		ctx.AppendTable(name, v)
	}
	return NewSliceStream([]value.Value{value.Unit{}}), nil
}

func applyUILog(ctx Context, st *value.Stage, in Stream, span lexer.Span) (Stream, *diag.Error) {
	name, err := requireStrArg(st, 0, "name", span)
	if err != nil {
		return nil, err
	}
	items, derr := Drain(in)
	if derr != nil {
		return nil, derr
	}
	for _, v := range items {
		ctx.AppendLog(name, v.String())
	}
	return NewSliceStream([]value.Value{value.Unit{}}), nil
}
