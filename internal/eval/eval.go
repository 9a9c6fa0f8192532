// Package eval reduces an expression to a value under (environment,
// placeholder), the same context-parameter discipline the teacher's
// interpreter uses instead of mutable global evaluation state.
package eval

import (
	"math"
	"strings"

	"github.com/flowc-lang/flowc/internal/ast"
	"github.com/flowc-lang/flowc/internal/diag"
	"github.com/flowc-lang/flowc/internal/value"
)

// stageNames is the set of callee names that construct a Stage value rather
// than invoke an expression-position helper. It mirrors the stage catalog
// (internal/stage) by name only, so eval never imports the catalog package
// itself — Atomic stage values are data-only (spec.md §9) and the catalog's
// dispatch table is consulted later, at apply time.
var stageNames = map[string]bool{
	"input.json":          true,
	"map":                 true,
	"filter":               true,
	"flat_map":            true,
	"json":                true,
	"utf8":                true,
	"base64":              true,
	"ui.table":            true,
	"ui.log":              true,
	"kv.load":             true,
	"lookup.kv":           true,
	"lookup.batch_kv":     true,
	"group.collect_all":   true,
	"group.topn_items":    true,
	"rank.topk":           true,
	"rank.kmerge_arrays":  true,
	"rbac.evaluate":       true,
}

// Scope is the (environment, placeholder) pair every Eval call threads
// explicitly, per spec.md §9's "pass the binding explicitly through the
// evaluator" note.
type Scope struct {
	Env            value.Env
	Placeholder    value.Value
	HasPlaceholder bool
}

// WithPlaceholder returns a copy of s with a new placeholder binding, used
// by Pure stages and the array.* helpers to rebind `_` per item/element.
func (s Scope) WithPlaceholder(v value.Value) Scope {
	s.Placeholder = v
	s.HasPlaceholder = true
	return s
}

// Eval reduces e to a value under scope. Every failure carries e's span (or
// a more specific sub-node's span where that is more useful).
func Eval(e ast.Expr, scope Scope) (value.Value, *diag.Error) {
	switch n := e.(type) {
	case *ast.NullLit:
		return value.Null{}, nil
	case *ast.BoolLit:
		return value.Bool(n.Value), nil
	case *ast.IntLit:
		return value.I64(n.Value), nil
	case *ast.StrLit:
		return value.Str(n.Value), nil
	case *ast.Placeholder:
		if !scope.HasPlaceholder {
			return nil, diag.New(diag.KindNameNotFound, n.Span(), "no placeholder `_` in scope")
		}
		return scope.Placeholder, nil
	case *ast.Ident:
		if v, ok := scope.Env.Lookup(n.Name); ok {
			return v, nil
		}
		// A bare identifier naming a zero-argument stage (`json`, `utf8`,
		// `base64`) is itself a valid primary_stage (spec.md §4.2).
		if stageNames[n.Name] {
			return value.NewAtomic(n.Name, nil, nil, scope.Env), nil
		}
		return nil, diag.New(diag.KindNameNotFound, n.Span(), "name not found: %s", n.Name)
	case *ast.Field:
		return evalField(n, scope)
	case *ast.ArrayLit:
		return evalArrayLit(n, scope)
	case *ast.RecordLit:
		return evalRecordLit(n, scope)
	case *ast.Unary:
		return evalUnary(n, scope)
	case *ast.BinOp:
		return evalBinOp(n, scope)
	case *ast.Call:
		return evalCall(n, scope)
	case *ast.Compose:
		return evalCompose(n, scope)
	case *ast.Invert:
		return evalInvert(n, scope)
	default:
		return nil, diag.New(diag.KindParse, e.Span(), "unhandled expression node")
	}
}

func evalField(n *ast.Field, scope Scope) (value.Value, *diag.Error) {
	target, err := Eval(n.Target, scope)
	if err != nil {
		return nil, err
	}
	rec, ok := target.(*value.Record)
	if !ok {
		return nil, diag.New(diag.KindTypeMismatch, n.Span(), "field access on non-record (%s)", target.Kind())
	}
	if v, ok := rec.Get(n.Name); ok {
		return v, nil
	}
	// Missing field yields Null, per spec.md §9's open-question resolution.
	return value.Null{}, nil
}

func evalArrayLit(n *ast.ArrayLit, scope Scope) (value.Value, *diag.Error) {
	elems := make([]value.Value, len(n.Elements))
	for i, e := range n.Elements {
		v, err := Eval(e, scope)
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	return value.NewArray(elems), nil
}

func evalRecordLit(n *ast.RecordLit, scope Scope) (value.Value, *diag.Error) {
	rec := value.NewRecord()
	for _, f := range n.Fields {
		v, err := Eval(f.Value, scope)
		if err != nil {
			return nil, err
		}
		rec.Set(f.Name, v)
	}
	return rec, nil
}

func evalUnary(n *ast.Unary, scope Scope) (value.Value, *diag.Error) {
	operand, err := Eval(n.Operand, scope)
	if err != nil {
		return nil, err
	}
	i, ok := operand.(value.I64)
	if !ok {
		return nil, diag.New(diag.KindTypeMismatch, n.Span(), "unary - requires I64, found %s", operand.Kind())
	}
	if i == math.MinInt64 {
		return nil, diag.New(diag.KindOverflow, n.Span(), "integer overflow negating %d", int64(i))
	}
	return value.I64(-i), nil
}

func evalCompose(n *ast.Compose, scope Scope) (value.Value, *diag.Error) {
	left, err := Eval(n.Left, scope)
	if err != nil {
		return nil, err
	}
	right, err := Eval(n.Right, scope)
	if err != nil {
		return nil, err
	}
	ls, ok := left.(*value.Stage)
	if !ok {
		return nil, diag.New(diag.KindTypeMismatch, n.Left.Span(), "left side of >> is not a stage (%s)", left.Kind())
	}
	rs, ok := right.(*value.Stage)
	if !ok {
		return nil, diag.New(diag.KindTypeMismatch, n.Right.Span(), "right side of >> is not a stage (%s)", right.Kind())
	}
	return value.NewSeq(ls, rs), nil
}

func evalInvert(n *ast.Invert, scope Scope) (value.Value, *diag.Error) {
	operand, err := Eval(n.Operand, scope)
	if err != nil {
		return nil, err
	}
	s, ok := operand.(*value.Stage)
	if !ok {
		return nil, diag.New(diag.KindTypeMismatch, n.Span(), "~ requires a stage (%s)", operand.Kind())
	}
	return value.NewInv(s), nil
}

func evalCall(n *ast.Call, scope Scope) (value.Value, *diag.Error) {
	name, ok := ast.CalleeName(n.Callee)
	if !ok {
		return nil, diag.New(diag.KindNameNotFound, n.Span(), "callee is not a name")
	}

	if stageNames[name] {
		namedArgs := make(map[string]ast.Expr, len(n.NamedArgs))
		for _, na := range n.NamedArgs {
			namedArgs[na.Name] = na.Value
		}
		return value.NewAtomic(name, n.Args, namedArgs, scope.Env), nil
	}

	switch name {
	case "default":
		return evalDefault(n, scope)
	case "array.map":
		return evalArrayMap(n, scope)
	case "array.filter":
		return evalArrayFilter(n, scope)
	case "array.flat_map":
		return evalArrayFlatMap(n, scope)
	case "array.any":
		return evalArrayAny(n, scope)
	case "array.contains":
		return evalArrayContains(n, scope)
	default:
		return nil, diag.New(diag.KindNameNotFound, n.Span(), "unknown stage or function: %s", name)
	}
}

func evalDefault(n *ast.Call, scope Scope) (value.Value, *diag.Error) {
	if len(n.Args) != 2 {
		return nil, diag.New(diag.KindMissingArgument, n.Span(), "default(value, fallback) takes exactly 2 arguments")
	}
	v, err := Eval(n.Args[0], scope)
	if err != nil {
		return nil, err
	}
	if _, isNull := v.(value.Null); isNull {
		return Eval(n.Args[1], scope)
	}
	return v, nil
}

func arrayHelperArgs(n *ast.Call, scope Scope) (*value.Array, ast.Expr, *diag.Error) {
	if len(n.Args) != 2 {
		return nil, nil, diag.New(diag.KindMissingArgument, n.Span(), "%s(arr, expr) takes exactly 2 arguments", calleeNameOrEmpty(n))
	}
	arrVal, err := Eval(n.Args[0], scope)
	if err != nil {
		return nil, nil, err
	}
	arr, ok := arrVal.(*value.Array)
	if !ok {
		return nil, nil, diag.New(diag.KindTypeMismatch, n.Args[0].Span(), "expected Array, found %s", arrVal.Kind())
	}
	return arr, n.Args[1], nil
}

func calleeNameOrEmpty(n *ast.Call) string {
	name, _ := ast.CalleeName(n.Callee)
	return name
}

func evalArrayMap(n *ast.Call, scope Scope) (value.Value, *diag.Error) {
	arr, expr, err := arrayHelperArgs(n, scope)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, len(arr.Elements))
	for i, elem := range arr.Elements {
		v, err := Eval(expr, scope.WithPlaceholder(elem))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return value.NewArray(out), nil
}

func evalArrayFilter(n *ast.Call, scope Scope) (value.Value, *diag.Error) {
	arr, expr, err := arrayHelperArgs(n, scope)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, elem := range arr.Elements {
		v, err := Eval(expr, scope.WithPlaceholder(elem))
		if err != nil {
			return nil, err
		}
		b, ok := v.(value.Bool)
		if !ok {
			return nil, diag.New(diag.KindTypeMismatch, expr.Span(), "array.filter predicate must return Bool, found %s", v.Kind())
		}
		if bool(b) {
			out = append(out, elem)
		}
	}
	return value.NewArray(out), nil
}

func evalArrayFlatMap(n *ast.Call, scope Scope) (value.Value, *diag.Error) {
	arr, expr, err := arrayHelperArgs(n, scope)
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, elem := range arr.Elements {
		v, err := Eval(expr, scope.WithPlaceholder(elem))
		if err != nil {
			return nil, err
		}
		inner, ok := v.(*value.Array)
		if !ok {
			return nil, diag.New(diag.KindTypeMismatch, expr.Span(), "array.flat_map body must return Array, found %s", v.Kind())
		}
		out = append(out, inner.Elements...)
	}
	return value.NewArray(out), nil
}

func evalArrayAny(n *ast.Call, scope Scope) (value.Value, *diag.Error) {
	arr, expr, err := arrayHelperArgs(n, scope)
	if err != nil {
		return nil, err
	}
	for _, elem := range arr.Elements {
		v, err := Eval(expr, scope.WithPlaceholder(elem))
		if err != nil {
			return nil, err
		}
		b, ok := v.(value.Bool)
		if !ok {
			return nil, diag.New(diag.KindTypeMismatch, expr.Span(), "array.any predicate must return Bool, found %s", v.Kind())
		}
		if bool(b) {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

func evalArrayContains(n *ast.Call, scope Scope) (value.Value, *diag.Error) {
	if len(n.Args) != 2 {
		return nil, diag.New(diag.KindMissingArgument, n.Span(), "array.contains(arr, v) takes exactly 2 arguments")
	}
	arrVal, err := Eval(n.Args[0], scope)
	if err != nil {
		return nil, err
	}
	arr, ok := arrVal.(*value.Array)
	if !ok {
		return nil, diag.New(diag.KindTypeMismatch, n.Args[0].Span(), "expected Array, found %s", arrVal.Kind())
	}
	needle, err := Eval(n.Args[1], scope)
	if err != nil {
		return nil, err
	}
	for _, elem := range arr.Elements {
		if value.Equal(elem, needle) {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

func evalBinOp(n *ast.BinOp, scope Scope) (value.Value, *diag.Error) {
	if n.Op == "&&" || n.Op == "||" {
		return evalShortCircuit(n, scope)
	}

	left, err := Eval(n.Left, scope)
	if err != nil {
		return nil, err
	}
	right, err := Eval(n.Right, scope)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case "==":
		return value.Bool(value.Equal(left, right)), nil
	case "!=":
		return value.Bool(!value.Equal(left, right)), nil
	case "+":
		return evalAdd(n, left, right)
	case "-", "*", "/":
		return evalArith(n, left, right)
	case "<", "<=", ">", ">=":
		return evalCompare(n, left, right)
	default:
		return nil, diag.New(diag.KindParse, n.Span(), "unsupported operator %q", n.Op)
	}
}

func evalShortCircuit(n *ast.BinOp, scope Scope) (value.Value, *diag.Error) {
	left, err := Eval(n.Left, scope)
	if err != nil {
		return nil, err
	}
	lb, ok := left.(value.Bool)
	if !ok {
		return nil, diag.New(diag.KindTypeMismatch, n.Left.Span(), "%s requires Bool operands, found %s", n.Op, left.Kind())
	}
	if n.Op == "&&" && !bool(lb) {
		return value.Bool(false), nil
	}
	if n.Op == "||" && bool(lb) {
		return value.Bool(true), nil
	}
	right, err := Eval(n.Right, scope)
	if err != nil {
		return nil, err
	}
	rb, ok := right.(value.Bool)
	if !ok {
		return nil, diag.New(diag.KindTypeMismatch, n.Right.Span(), "%s requires Bool operands, found %s", n.Op, right.Kind())
	}
	return rb, nil
}

func evalAdd(n *ast.BinOp, left, right value.Value) (value.Value, *diag.Error) {
	li, lIsInt := left.(value.I64)
	ri, rIsInt := right.(value.I64)
	if lIsInt && rIsInt {
		sum := int64(li) + int64(ri)
		if (int64(ri) > 0 && sum < int64(li)) || (int64(ri) < 0 && sum > int64(li)) {
			return nil, diag.New(diag.KindOverflow, n.Span(), "integer overflow: %d + %d", li, ri)
		}
		return value.I64(sum), nil
	}
	ls, lIsStr := left.(value.Str)
	rs, rIsStr := right.(value.Str)
	if lIsStr && rIsStr {
		return value.Str(string(ls) + string(rs)), nil
	}
	return nil, diag.New(diag.KindTypeMismatch, n.Span(), "+ requires (I64, I64) or (Str, Str), found (%s, %s)", left.Kind(), right.Kind())
}

func evalArith(n *ast.BinOp, left, right value.Value) (value.Value, *diag.Error) {
	li, ok := left.(value.I64)
	if !ok {
		return nil, diag.New(diag.KindTypeMismatch, n.Left.Span(), "%s requires I64 operands, found %s", n.Op, left.Kind())
	}
	ri, ok := right.(value.I64)
	if !ok {
		return nil, diag.New(diag.KindTypeMismatch, n.Right.Span(), "%s requires I64 operands, found %s", n.Op, right.Kind())
	}
	switch n.Op {
	case "-":
		diff := int64(li) - int64(ri)
		if (int64(ri) < 0 && diff < int64(li)) || (int64(ri) > 0 && diff > int64(li)) {
			return nil, diag.New(diag.KindOverflow, n.Span(), "integer overflow: %d - %d", li, ri)
		}
		return value.I64(diff), nil
	case "*":
		if li != 0 && ri != 0 {
			prod := int64(li) * int64(ri)
			if prod/int64(ri) != int64(li) {
				return nil, diag.New(diag.KindOverflow, n.Span(), "integer overflow: %d * %d", li, ri)
			}
			return value.I64(prod), nil
		}
		return value.I64(0), nil
	case "/":
		if ri == 0 {
			return nil, diag.New(diag.KindDivideByZero, n.Span(), "division by zero: %d / 0", li)
		}
		if li == math.MinInt64 && ri == -1 {
			return nil, diag.New(diag.KindOverflow, n.Span(), "integer overflow: %d / %d", li, ri)
		}
		return value.I64(int64(li) / int64(ri)), nil
	default:
		return nil, diag.New(diag.KindParse, n.Span(), "unsupported operator %q", n.Op)
	}
}

func evalCompare(n *ast.BinOp, left, right value.Value) (value.Value, *diag.Error) {
	if li, ok := left.(value.I64); ok {
		ri, ok := right.(value.I64)
		if !ok {
			return nil, diag.New(diag.KindTypeMismatch, n.Span(), "%s requires matching operand types, found (I64, %s)", n.Op, right.Kind())
		}
		return value.Bool(compareOrdered(n.Op, int64(li) < int64(ri), int64(li) == int64(ri))), nil
	}
	if ls, ok := left.(value.Str); ok {
		rs, ok := right.(value.Str)
		if !ok {
			return nil, diag.New(diag.KindTypeMismatch, n.Span(), "%s requires matching operand types, found (Str, %s)", n.Op, right.Kind())
		}
		return value.Bool(compareOrdered(n.Op, strings.Compare(string(ls), string(rs)) < 0, string(ls) == string(rs))), nil
	}
	return nil, diag.New(diag.KindTypeMismatch, n.Span(), "%s is defined only on (I64, I64) or (Str, Str), found %s", n.Op, left.Kind())
}

func compareOrdered(op string, less, equal bool) bool {
	switch op {
	case "<":
		return less
	case "<=":
		return less || equal
	case ">":
		return !less && !equal
	case ">=":
		return !less || equal
	default:
		return false
	}
}
