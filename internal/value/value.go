// Package value implements flowc's dynamic value system: the tagged sum
// type every expression evaluates to, and the first-class Stage value.
//
// Deliberately no interface{}/any erasure anywhere in this package — the
// runtime type tag IS the mechanism direction inference (internal/stage)
// dispatches on, so every variant is its own concrete Go type satisfying
// Value, the way the teacher's interp.Value does it.
package value

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/flowc-lang/flowc/internal/ast"
)

// Kind is the closed set of runtime type tags.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindI64
	KindStr
	KindBytes
	KindArray
	KindRecord
	KindUnit
	KindStage
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindI64:
		return "I64"
	case KindStr:
		return "Str"
	case KindBytes:
		return "Bytes"
	case KindArray:
		return "Array"
	case KindRecord:
		return "Record"
	case KindUnit:
		return "Unit"
	case KindStage:
		return "Stage"
	default:
		return "Unknown"
	}
}

// Value is any dynamic value flowing through the interpreter.
type Value interface {
	Kind() Kind
	String() string
}

// Null is the singleton null value.
type Null struct{}

func (Null) Kind() Kind     { return KindNull }
func (Null) String() string { return "null" }

// Bool wraps a boolean.
type Bool bool

func (b Bool) Kind() Kind     { return KindBool }
func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

// I64 wraps a 64-bit signed integer.
type I64 int64

func (i I64) Kind() Kind     { return KindI64 }
func (i I64) String() string { return strconv.FormatInt(int64(i), 10) }

// Str wraps a UTF-8 string.
type Str string

func (s Str) Kind() Kind     { return KindStr }
func (s Str) String() string { return string(s) }

// Bytes wraps an arbitrary byte sequence.
type Bytes []byte

func (b Bytes) Kind() Kind     { return KindBytes }
func (b Bytes) String() string { return string(b) }

// Array is an ordered sequence of values.
type Array struct {
	Elements []Value
}

func NewArray(elems []Value) *Array { return &Array{Elements: elems} }

func (a *Array) Kind() Kind { return KindArray }
func (a *Array) String() string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		parts[i] = displayOf(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Record is an ordered mapping from field name to value; insertion order is
// preserved for deterministic output (spec.md §3.1).
type Record struct {
	keys []string
	vals map[string]Value
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{vals: make(map[string]Value)}
}

// Set inserts or replaces a field. New keys are appended to preserve
// insertion order; existing keys keep their original position.
func (r *Record) Set(name string, v Value) {
	if _, exists := r.vals[name]; !exists {
		r.keys = append(r.keys, name)
	}
	r.vals[name] = v
}

// Get returns the field's value and whether it exists.
func (r *Record) Get(name string) (Value, bool) {
	v, ok := r.vals[name]
	return v, ok
}

// Keys returns field names in insertion order.
func (r *Record) Keys() []string { return r.keys }

func (r *Record) Kind() Kind { return KindRecord }
func (r *Record) String() string {
	parts := make([]string, len(r.keys))
	for i, k := range r.keys {
		parts[i] = k + ": " + displayOf(r.vals[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Unit is the sink-produced acknowledgement value; never surfaced to user
// code (spec.md §3.1).
type Unit struct{}

func (Unit) Kind() Kind     { return KindUnit }
func (Unit) String() string { return "()" }

func displayOf(v Value) string {
	if v == nil {
		return "null"
	}
	if s, ok := v.(Str); ok {
		return strconv.Quote(string(s))
	}
	return v.String()
}

// Equal is structural, deep equality across all variants. Mixed-kind
// comparisons are false, never an error (BinOp's ==/!= are defined for
// every pair per spec.md §4.3; only ordering comparisons restrict operands).
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Null:
		return true
	case Bool:
		return av == b.(Bool)
	case I64:
		return av == b.(I64)
	case Str:
		return av == b.(Str)
	case Bytes:
		bv := b.(Bytes)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	case Unit:
		return true
	case *Array:
		bv := b.(*Array)
		if len(av.Elements) != len(bv.Elements) {
			return false
		}
		for i := range av.Elements {
			if !Equal(av.Elements[i], bv.Elements[i]) {
				return false
			}
		}
		return true
	case *Record:
		bv := b.(*Record)
		if len(av.keys) != len(bv.keys) {
			return false
		}
		for _, k := range av.keys {
			bval, ok := bv.Get(k)
			if !ok {
				return false
			}
			if !Equal(av.vals[k], bval) {
				return false
			}
		}
		return true
	case *Stage:
		// Pointer identity, not a deep structural compare: two separately
		// built Stages with identical Name/Args/Env still compare unequal.
		// Stages aren't expected to appear as Array/Record elements that
		// flow through Equal in practice, so this is left as-is.
		return av == b.(*Stage)
	default:
		return false
	}
}

// ---- Stage values ----

// StageKind distinguishes the three structural forms a Stage can take.
type StageKind int

const (
	StageAtomic StageKind = iota
	StageSeq
	StageInv
)

// Env resolves bound names when evaluating a stage's constructor arguments.
// internal/driver.Environment implements this; internal/value does not
// depend on the driver package to avoid an import cycle.
type Env interface {
	Lookup(name string) (Value, bool)
}

// Stage is the first-class stage value: atomic (a named built-in with
// arguments closed over the environment it was constructed in), composed
// (Seq), or inverted (Inv). Atomic is data-only; behavior lives in the
// stage catalog's dispatch table (internal/stage), keyed by Name.
type Stage struct {
	StageKind StageKind

	// Atomic fields.
	Name      string
	PosArgs   []ast.Expr
	NamedArgs map[string]ast.Expr
	Env       Env

	// Seq fields.
	Left  *Stage
	Right *Stage

	// Inv fields.
	Inner *Stage
}

func NewAtomic(name string, pos []ast.Expr, named map[string]ast.Expr, env Env) *Stage {
	return &Stage{StageKind: StageAtomic, Name: name, PosArgs: pos, NamedArgs: named, Env: env}
}

func NewSeq(a, b *Stage) *Stage {
	return &Stage{StageKind: StageSeq, Left: a, Right: b}
}

func NewInv(s *Stage) *Stage {
	return &Stage{StageKind: StageInv, Inner: s}
}

func (s *Stage) Kind() Kind { return KindStage }

func (s *Stage) String() string {
	switch s.StageKind {
	case StageAtomic:
		return fmt.Sprintf("%s(...)", s.Name)
	case StageSeq:
		return s.Left.String() + " >> " + s.Right.String()
	case StageInv:
		return "~" + s.Inner.String()
	default:
		return "<stage>"
	}
}
