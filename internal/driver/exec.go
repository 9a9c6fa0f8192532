package driver

import (
	"github.com/flowc-lang/flowc/internal/diag"
	"github.com/flowc-lang/flowc/internal/lexer"
	"github.com/flowc-lang/flowc/internal/stage"
	"github.com/flowc-lang/flowc/internal/value"
)

// executeStage walks a Stage value's structure and drives in through it.
// forced tracks whether the caller wants the inverse direction at this
// point in the tree; Seq distributes it by swapping operand order and Inv
// flips it, which together fall out of the recursion with no special
// casing for Inv(Seq(a,b)) -> Seq(Inv(b),Inv(a)) or Inv(Inv(x)) -> x.
func executeStage(ctx *Environment, st *value.Stage, forced bool, in stage.Stream, span lexer.Span) (stage.Stream, *diag.Error) {
	switch st.StageKind {
	case value.StageAtomic:
		return stage.Apply(ctx, st, forced, in, span)

	case value.StageSeq:
		if forced {
			mid, err := executeStage(ctx, st.Right, true, in, span)
			if err != nil {
				return nil, err
			}
			return executeStage(ctx, st.Left, true, mid, span)
		}
		mid, err := executeStage(ctx, st.Left, false, in, span)
		if err != nil {
			return nil, err
		}
		return executeStage(ctx, st.Right, false, mid, span)

	case value.StageInv:
		return executeStage(ctx, st.Inner, !forced, in, span)

	default:
		return nil, diag.New(diag.KindTypeMismatch, span, "malformed stage value")
	}
}
