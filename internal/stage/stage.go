// Package stage implements the built-in stage catalog: every named stage's
// tag, forward transform, and (where applicable) inverse transform. The
// pipeline driver (internal/driver) owns composition and forced-inversion
// tree-walking; this package owns only what an individual atomic does,
// following the teacher's name→implementation Registry shape
// (internal/interp/builtins/registry.go) rather than a switch statement.
package stage

import (
	"github.com/flowc-lang/flowc/internal/ast"
	"github.com/flowc-lang/flowc/internal/diag"
	"github.com/flowc-lang/flowc/internal/lexer"
	"github.com/flowc-lang/flowc/internal/value"
)

// Tag classifies an atomic stage's role in a pipeline, used both for
// direction-inference eligibility and the plan printer's tag column.
type Tag string

const (
	TagSource     Tag = "source"
	TagPure       Tag = "pure"
	TagReversible Tag = "reversible"
	TagSink       Tag = "sink"
	TagEffect     Tag = "effect"
)

// Context is the subset of the execution environment a stage needs: fixture
// lookup, KV store access, bindings, and the sink accumulators. It is kept
// separate from internal/driver.Environment's full type to avoid an import
// cycle (driver implements Context; stage never imports driver).
type Context interface {
	value.Env
	FixtureElements(name string) ([]string, bool)
	FixtureRaw(name string) (string, bool)
	KVGet(store, key string) (value.Value, bool)
	KVSet(store, key string, v value.Value)
	HasStore(store string) bool
	AppendTable(name string, v value.Value)
	AppendLog(name string, s string)
}

// Stream is a finite, ordered, pull-based sequence of values (spec.md §3.5).
type Stream interface {
	// Next returns the next value, or ok=false at end of stream, or a
	// non-nil error if production failed.
	Next() (value.Value, bool, *diag.Error)
}

// sliceStream adapts a materialized slice to the Stream interface.
type sliceStream struct {
	items []value.Value
	i     int
}

func NewSliceStream(items []value.Value) Stream { return &sliceStream{items: items} }

func (s *sliceStream) Next() (value.Value, bool, *diag.Error) {
	if s.i >= len(s.items) {
		return nil, false, nil
	}
	v := s.items[s.i]
	s.i++
	return v, true, nil
}

// Drain fully materializes a stream, in order. Used by stages whose
// semantics require seeing the whole upstream before emitting anything
// (grouping, ranking, k-merge).
func Drain(in Stream) ([]value.Value, *diag.Error) {
	var out []value.Value
	for {
		v, ok, err := in.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// genStream is a Stream whose Next calls pull; the lazy elementwise, filter,
// and flatten streams below are built on it.
type genStream struct {
	pull func() (value.Value, bool, *diag.Error)
}

func (g *genStream) Next() (value.Value, bool, *diag.Error) { return g.pull() }

// newElementwiseStream builds a Stream that applies fn to each item of in,
// emitting exactly one output per input (map/json/utf8/base64's shape).
func newElementwiseStream(in Stream, fn func(value.Value) (value.Value, *diag.Error)) Stream {
	return &genStream{pull: func() (value.Value, bool, *diag.Error) {
		v, ok, err := in.Next()
		if err != nil || !ok {
			return nil, ok, err
		}
		out, err := fn(v)
		if err != nil {
			return nil, false, err
		}
		return out, true, nil
	}}
}

// newFilterStream keeps only items for which keep returns true.
func newFilterStream(in Stream, keep func(value.Value) (bool, *diag.Error)) Stream {
	return &genStream{pull: func() (value.Value, bool, *diag.Error) {
		for {
			v, ok, err := in.Next()
			if err != nil || !ok {
				return nil, ok, err
			}
			k, err := keep(v)
			if err != nil {
				return nil, false, err
			}
			if k {
				return v, true, nil
			}
		}
	}}
}

// newFlattenStream applies fn to each upstream item to get a batch of
// downstream items, flattening across items (flat_map's shape).
func newFlattenStream(in Stream, fn func(value.Value) ([]value.Value, *diag.Error)) Stream {
	var buf []value.Value
	bi := 0
	return &genStream{pull: func() (value.Value, bool, *diag.Error) {
		for bi >= len(buf) {
			v, ok, err := in.Next()
			if err != nil {
				return nil, false, err
			}
			if !ok {
				return nil, false, nil
			}
			batch, err := fn(v)
			if err != nil {
				return nil, false, err
			}
			buf, bi = batch, 0
		}
		out := buf[bi]
		bi++
		return out, true, nil
	}}
}

// Spec is one catalog entry: an atomic stage's tag and behavior.
type Spec struct {
	Tag Tag

	// Natural runs the atomic in its declared (non-inverted) position. For
	// Reversible stages this performs direction inference per incoming
	// value, dispatching to the forward or inverse transform by runtime kind.
	Natural func(ctx Context, st *value.Stage, in Stream, span lexer.Span) (Stream, *diag.Error)

	// Inverse forces the inverse transform unconditionally. Only set when
	// Tag == TagReversible.
	Inverse func(ctx Context, st *value.Stage, in Stream, span lexer.Span) (Stream, *diag.Error)
}

// Registry maps stage names to their catalog Spec, mirroring the teacher's
// builtins.Registry shape (internal/interp/builtins/registry.go) but keyed
// case-sensitively, since flowc identifiers are case-sensitive.
type Registry struct {
	specs map[string]*Spec
}

func NewRegistry() *Registry { return &Registry{specs: make(map[string]*Spec)} }

func (r *Registry) Register(name string, spec *Spec) { r.specs[name] = spec }

func (r *Registry) Lookup(name string) (*Spec, bool) {
	spec, ok := r.specs[name]
	return spec, ok
}

// Default is the catalog used by the driver; built once at package init.
var Default = buildDefaultRegistry()

func buildDefaultRegistry() *Registry {
	r := NewRegistry()
	registerSources(r)
	registerPure(r)
	registerReversible(r)
	registerSinks(r)
	registerLookup(r)
	registerGroup(r)
	registerRank(r)
	registerRBAC(r)
	return r
}

// Apply is the driver's sole entry point into the catalog: look up the
// atomic by name and run it in the requested direction.
func Apply(ctx Context, st *value.Stage, forced bool, in Stream, span lexer.Span) (Stream, *diag.Error) {
	spec, ok := Default.Lookup(st.Name)
	if !ok {
		return nil, diag.New(diag.KindNameNotFound, span, "unknown stage: %s", st.Name)
	}
	if forced {
		if spec.Tag != TagReversible {
			return nil, diag.New(diag.KindNotReversible, span, "stage %s is not reversible", st.Name)
		}
		return spec.Inverse(ctx, st, in, span)
	}
	return spec.Natural(ctx, st, in, span)
}

// TagOf reports an atomic stage's catalog tag, used by the plan printer.
func TagOf(name string) (Tag, bool) {
	spec, ok := Default.Lookup(name)
	if !ok {
		return "", false
	}
	return spec.Tag, true
}

// posOrNamed resolves a stage constructor argument by position first, then
// by name, returning ok=false when neither is present.
func posOrNamed(st *value.Stage, pos int, name string) (ast.Expr, bool) {
	if pos < len(st.PosArgs) {
		return st.PosArgs[pos], true
	}
	if e, ok := st.NamedArgs[name]; ok {
		return e, true
	}
	return nil, false
}
