// Package explain renders a parsed program's execution plan: one line per
// stage, in the order data would actually flow through it. Composed and
// inverted Stage values are flattened into their linear forward form first,
// the way internal/driver's executeStage recurses over the same tree to run
// it — explain performs the identical walk but collects a line instead of
// pulling a stream, grounded on the teacher's ast.Node.String() self-printing
// convention and internal/errors's plain-text diagnostic formatting.
package explain

import (
	"strings"

	"github.com/flowc-lang/flowc/internal/ast"
	"github.com/flowc-lang/flowc/internal/diag"
	"github.com/flowc-lang/flowc/internal/eval"
	"github.com/flowc-lang/flowc/internal/stage"
	"github.com/flowc-lang/flowc/internal/value"
)

// bindEnv is a bindings-only value.Env, sufficient for evaluating the
// Stage-constructing expressions explain needs to walk; it never touches
// fixtures, KV stores, tables, or logs.
type bindEnv struct {
	vals map[string]value.Value
}

func newBindEnv() *bindEnv { return &bindEnv{vals: make(map[string]value.Value)} }

func (e *bindEnv) Lookup(name string) (value.Value, bool) {
	v, ok := e.vals[name]
	return v, ok
}

func (e *bindEnv) bind(name string, v value.Value) { e.vals[name] = v }

// Plan walks program and returns its rendered execution plan. A failure
// evaluating a Bind or a pipeline's stage expressions (e.g. a reference to
// an unbound name) ends the plan with a diagnostic line, mirroring run's
// "explain ends with a diagnostic line" failure behavior (spec.md §6).
func Plan(program *ast.Program) string {
	env := newBindEnv()
	var sb strings.Builder

	for _, stmt := range program.Statements {
		switch s := stmt.(type) {
		case *ast.Bind:
			v, err := eval.Eval(s.Value, eval.Scope{Env: env})
			if err != nil {
				writeDiag(&sb, err)
				return sb.String()
			}
			env.bind(s.Name, v)

		case *ast.Pipeline:
			if err := planPipeline(&sb, env, s); err != nil {
				writeDiag(&sb, err)
				return sb.String()
			}
		}
	}

	return strings.TrimRight(sb.String(), "\n")
}

func planPipeline(sb *strings.Builder, env *bindEnv, p *ast.Pipeline) *diag.Error {
	head, err := eval.Eval(p.Source, eval.Scope{Env: env})
	if err != nil {
		return err
	}
	if st, ok := head.(*value.Stage); ok {
		for _, atom := range flatten(st, false) {
			writeLine(sb, atom)
		}
	}

	for _, stageExpr := range p.Stages {
		v, err := eval.Eval(stageExpr, eval.Scope{Env: env})
		if err != nil {
			return err
		}
		st, ok := v.(*value.Stage)
		if !ok {
			return diag.New(diag.KindTypeMismatch, stageExpr.Span(), "expected a stage, found %s", v.Kind())
		}
		for _, atom := range flatten(st, false) {
			writeLine(sb, atom)
		}
	}
	return nil
}

// flatten linearizes a Stage tree into its forward-execution atomic
// sequence. A forced Seq swaps operand order and inverts each side (mirrors
// ~(a >> b) == ~b >> ~a); a forced Inv just flips direction again.
func flatten(st *value.Stage, forced bool) []*value.Stage {
	switch st.StageKind {
	case value.StageAtomic:
		return []*value.Stage{st}
	case value.StageSeq:
		if forced {
			return append(flatten(st.Right, true), flatten(st.Left, true)...)
		}
		return append(flatten(st.Left, false), flatten(st.Right, false)...)
	case value.StageInv:
		return flatten(st.Inner, !forced)
	default:
		return nil
	}
}

func writeLine(sb *strings.Builder, atom *value.Stage) {
	tag, ok := stage.TagOf(atom.Name)
	if !ok {
		tag = "unknown"
	}
	sb.WriteString("[")
	sb.WriteString(string(tag))
	sb.WriteString("] ")
	sb.WriteString(atom.Name)
	sb.WriteString("(")
	sb.WriteString(argSummary(atom))
	sb.WriteString(")\n")
}

func argSummary(atom *value.Stage) string {
	var parts []string
	for _, a := range atom.PosArgs {
		parts = append(parts, a.String())
	}
	for _, name := range namedArgOrder(atom) {
		parts = append(parts, name+"="+atom.NamedArgs[name].String())
	}
	return strings.Join(parts, ", ")
}

// namedArgOrder returns NamedArgs' keys sorted for stable output; a map
// has no iteration order and the grammar only allows each name once.
func namedArgOrder(atom *value.Stage) []string {
	if len(atom.NamedArgs) == 0 {
		return nil
	}
	names := make([]string, 0, len(atom.NamedArgs))
	for name := range atom.NamedArgs {
		names = append(names, name)
	}
	sortStrings(names)
	return names
}

func sortStrings(ss []string) {
	for i := 1; i < len(ss); i++ {
		for j := i; j > 0 && ss[j-1] > ss[j]; j-- {
			ss[j-1], ss[j] = ss[j], ss[j-1]
		}
	}
}

func writeDiag(sb *strings.Builder, err *diag.Error) {
	sb.WriteString(err.Error())
	sb.WriteString("\n")
}
