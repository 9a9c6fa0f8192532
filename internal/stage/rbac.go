package stage

import (
	"github.com/flowc-lang/flowc/internal/diag"
	"github.com/flowc-lang/flowc/internal/lexer"
	"github.com/flowc-lang/flowc/internal/value"
)

func registerRBAC(r *Registry) {
	r.Register("rbac.evaluate", &Spec{Tag: TagPure, Natural: applyRBACEvaluate})
}

// rbacBinding, rbacPerm, and rbacAncestors are the fixture row shapes
// rbac.evaluate expects (spec.md §4.4's demo domain stage; the fixture
// schema itself is this package's design decision, recorded in DESIGN.md):
//
//	principal_bindings: [{principal, role, resource}, ...]
//	role_perms:         [{role, action, effect: "allow"|"deny"}, ...]
//	resource_ancestors: [{resource, ancestors: [string, ...]}, ...]
type rbacBinding struct {
	principal string
	role      string
	resource  string
}

type rbacPerm struct {
	role   string
	action string
	effect string
}

// applyRBACEvaluate reads its three reference fixtures directly (they are
// fixtures, not KV stores — spec.md §4.4 calls this out explicitly) once,
// then evaluates each incoming request record against them.
func applyRBACEvaluate(ctx Context, st *value.Stage, in Stream, span lexer.Span) (Stream, *diag.Error) {
	bindingsFixture, err := requireStrArg(st, 0, "principal_bindings", span)
	if err != nil {
		return nil, err
	}
	permsFixture, err := requireStrArg(st, 1, "role_perms", span)
	if err != nil {
		return nil, err
	}
	ancestorsFixture, err := requireStrArg(st, 2, "resource_ancestors", span)
	if err != nil {
		return nil, err
	}

	bindings, err := loadBindings(ctx, bindingsFixture, span)
	if err != nil {
		return nil, err
	}
	perms, err := loadPerms(ctx, permsFixture, span)
	if err != nil {
		return nil, err
	}
	ancestors, err := loadAncestors(ctx, ancestorsFixture, span)
	if err != nil {
		return nil, err
	}

	return newElementwiseStream(in, func(v value.Value) (value.Value, *diag.Error) {
		return evaluateRBACRequest(v, bindings, perms, ancestors, span)
	}), nil
}

func loadBindings(ctx Context, fixtureName string, span lexer.Span) ([]rbacBinding, *diag.Error) {
	raw, ok := ctx.FixtureRaw(fixtureName)
	if !ok {
		return nil, diag.New(diag.KindMissingFixture, span, "rbac.evaluate: missing fixture: %s", fixtureName)
	}
	decoded, derr := DecodeJSON(raw)
	if derr != nil {
		return nil, derr
	}
	arr, ok := decoded.(*value.Array)
	if !ok {
		return nil, diag.New(diag.KindBadArgument, span, "rbac.evaluate: %s must be a JSON array", fixtureName)
	}
	out := make([]rbacBinding, 0, len(arr.Elements))
	for _, e := range arr.Elements {
		rec, ok := e.(*value.Record)
		if !ok {
			return nil, diag.New(diag.KindBadArgument, span, "rbac.evaluate: %s rows must be objects", fixtureName)
		}
		out = append(out, rbacBinding{
			principal: fieldStr(rec, "principal"),
			role:      fieldStr(rec, "role"),
			resource:  fieldStr(rec, "resource"),
		})
	}
	return out, nil
}

func loadPerms(ctx Context, fixtureName string, span lexer.Span) ([]rbacPerm, *diag.Error) {
	raw, ok := ctx.FixtureRaw(fixtureName)
	if !ok {
		return nil, diag.New(diag.KindMissingFixture, span, "rbac.evaluate: missing fixture: %s", fixtureName)
	}
	decoded, derr := DecodeJSON(raw)
	if derr != nil {
		return nil, derr
	}
	arr, ok := decoded.(*value.Array)
	if !ok {
		return nil, diag.New(diag.KindBadArgument, span, "rbac.evaluate: %s must be a JSON array", fixtureName)
	}
	out := make([]rbacPerm, 0, len(arr.Elements))
	for _, e := range arr.Elements {
		rec, ok := e.(*value.Record)
		if !ok {
			return nil, diag.New(diag.KindBadArgument, span, "rbac.evaluate: %s rows must be objects", fixtureName)
		}
		out = append(out, rbacPerm{
			role:   fieldStr(rec, "role"),
			action: fieldStr(rec, "action"),
			effect: fieldStr(rec, "effect"),
		})
	}
	return out, nil
}

func loadAncestors(ctx Context, fixtureName string, span lexer.Span) (map[string][]string, *diag.Error) {
	raw, ok := ctx.FixtureRaw(fixtureName)
	if !ok {
		return nil, diag.New(diag.KindMissingFixture, span, "rbac.evaluate: missing fixture: %s", fixtureName)
	}
	decoded, derr := DecodeJSON(raw)
	if derr != nil {
		return nil, derr
	}
	arr, ok := decoded.(*value.Array)
	if !ok {
		return nil, diag.New(diag.KindBadArgument, span, "rbac.evaluate: %s must be a JSON array", fixtureName)
	}
	out := make(map[string][]string, len(arr.Elements))
	for _, e := range arr.Elements {
		rec, ok := e.(*value.Record)
		if !ok {
			return nil, diag.New(diag.KindBadArgument, span, "rbac.evaluate: %s rows must be objects", fixtureName)
		}
		resource := fieldStr(rec, "resource")
		var chain []string
		if av, ok := rec.Get("ancestors"); ok {
			if arrv, ok := av.(*value.Array); ok {
				for _, a := range arrv.Elements {
					if s, ok := a.(value.Str); ok {
						chain = append(chain, string(s))
					}
				}
			}
		}
		out[resource] = chain
	}
	return out, nil
}

func fieldStr(rec *value.Record, name string) string {
	if v, ok := rec.Get(name); ok {
		if s, ok := v.(value.Str); ok {
			return string(s)
		}
	}
	return ""
}

func evaluateRBACRequest(v value.Value, bindings []rbacBinding, perms []rbacPerm, ancestors map[string][]string, span lexer.Span) (value.Value, *diag.Error) {
	rec, ok := v.(*value.Record)
	if !ok {
		return nil, diag.New(diag.KindTypeMismatch, span, "rbac.evaluate: expected Record request, found %s", v.Kind())
	}
	principal := fieldStr(rec, "principal")
	action := fieldStr(rec, "action")
	resource := fieldStr(rec, "resource")

	scope := append([]string{resource}, ancestors[resource]...)
	scopeSet := make(map[string]bool, len(scope))
	for _, r := range scope {
		scopeSet[r] = true
	}

	var matches []value.Value
	allow, deny := false, false
	for _, b := range bindings {
		if b.principal != principal || !scopeSet[b.resource] {
			continue
		}
		for _, p := range perms {
			if p.role != b.role || (p.action != action && p.action != "*") {
				continue
			}
			m := value.NewRecord()
			m.Set("role", value.Str(b.role))
			m.Set("resource", value.Str(b.resource))
			m.Set("action", value.Str(p.action))
			m.Set("effect", value.Str(p.effect))
			matches = append(matches, m)
			switch p.effect {
			case "allow":
				allow = true
			case "deny":
				deny = true
			}
		}
	}

	out := value.NewRecord()
	out.Set("principal", value.Str(principal))
	out.Set("action", value.Str(action))
	out.Set("resource", value.Str(resource))
	out.Set("allow", value.Bool(allow && !deny))
	out.Set("matches", value.NewArray(matches))
	return out, nil
}
