package driver

import (
	"github.com/flowc-lang/flowc/internal/ast"
	"github.com/flowc-lang/flowc/internal/diag"
	"github.com/flowc-lang/flowc/internal/eval"
	"github.com/flowc-lang/flowc/internal/stage"
	"github.com/flowc-lang/flowc/internal/value"
)

// Run executes a parsed program's statements in source order against env,
// mutating its bindings, KV stores, tables, and logs. A Bind evaluates its
// right-hand side to a value (possibly an unexecuted composed Stage) and
// installs it; a Pipeline actually drives data through whatever its
// leading expression evaluates to, then each `|> stage` in turn, and is
// always drained so a pipeline with no explicit sink still runs to
// completion and surfaces any error.
func Run(program *ast.Program, env *Environment) *diag.Error {
	for _, stmt := range program.Statements {
		switch s := stmt.(type) {
		case *ast.Bind:
			v, err := eval.Eval(s.Value, eval.Scope{Env: env})
			if err != nil {
				return err
			}
			env.Bind(s.Name, v)

		case *ast.Pipeline:
			if err := runPipeline(env, s); err != nil {
				return err
			}

		default:
			return diag.New(diag.KindParse, stmt.Span(), "unknown statement kind")
		}
	}
	return nil
}

func runPipeline(env *Environment, p *ast.Pipeline) *diag.Error {
	head, err := eval.Eval(p.Source, eval.Scope{Env: env})
	if err != nil {
		return err
	}

	var cur stage.Stream
	if st, ok := head.(*value.Stage); ok {
		cur, err = executeStage(env, st, false, stage.NewSliceStream(nil), p.Source.Span())
		if err != nil {
			return err
		}
	} else if arr, ok := head.(*value.Array); ok {
		cur = stage.NewSliceStream(arr.Elements)
	} else {
		cur = stage.NewSliceStream([]value.Value{head})
	}

	for _, stageExpr := range p.Stages {
		sv, serr := eval.Eval(stageExpr, eval.Scope{Env: env})
		if serr != nil {
			return serr
		}
		st, ok := sv.(*value.Stage)
		if !ok {
			return diag.New(diag.KindTypeMismatch, stageExpr.Span(), "expected a stage, found %s", sv.Kind())
		}
		cur, err = executeStage(env, st, false, cur, stageExpr.Span())
		if err != nil {
			return err
		}
	}

	_, err = stage.Drain(cur)
	return err
}
