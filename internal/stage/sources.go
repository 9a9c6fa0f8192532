package stage

import (
	"github.com/flowc-lang/flowc/internal/diag"
	"github.com/flowc-lang/flowc/internal/lexer"
	"github.com/flowc-lang/flowc/internal/value"
)

func registerSources(r *Registry) {
	r.Register("input.json", &Spec{
		Tag:     TagSource,
		Natural: applyInputJSON,
	})
}

// applyInputJSON ignores `in` (a source has no upstream): it reads the named
// fixture and emits one Bytes value per array element, each holding that
// element's own raw JSON encoding (spec.md §4.4).
func applyInputJSON(ctx Context, st *value.Stage, in Stream, span lexer.Span) (Stream, *diag.Error) {
	name, err := requireStrArg(st, 0, "name", span)
	if err != nil {
		return nil, err
	}
	elems, ok := ctx.FixtureElements(name)
	if !ok {
		return nil, diag.New(diag.KindMissingFixture, span, "missing fixture: %s", name)
	}
	out := make([]value.Value, len(elems))
	for i, raw := range elems {
		out[i] = value.Bytes([]byte(raw))
	}
	return NewSliceStream(out), nil
}
