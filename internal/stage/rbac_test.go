package stage

import (
	"testing"

	"github.com/flowc-lang/flowc/internal/lexer"
	"github.com/flowc-lang/flowc/internal/value"
)

func TestRBACEvaluateAllowsOnMatchingBindingAndPerm(t *testing.T) {
	st := buildStage(t, `rbac.evaluate("bindings", "perms", "ancestors")`)
	spec, _ := Default.Lookup("rbac.evaluate")

	ctx := newTestContext()
	ctx.fixtureRaw["bindings"] = `[{"principal":"alice","role":"editor","resource":"doc-1"}]`
	ctx.fixtureRaw["perms"] = `[{"role":"editor","action":"write","effect":"allow"}]`
	ctx.fixtureRaw["ancestors"] = `[{"resource":"doc-1","ancestors":[]}]`

	req := value.NewRecord()
	req.Set("principal", value.Str("alice"))
	req.Set("action", value.Str("write"))
	req.Set("resource", value.Str("doc-1"))

	in := NewSliceStream([]value.Value{req})
	out, err := spec.Natural(ctx, st, in, lexer.Span{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := drainAll(t, out)
	rec := got[0].(*value.Record)
	allow, _ := rec.Get("allow")
	if allow.(value.Bool) != true {
		t.Fatalf("expected allow=true, got %v", allow)
	}
}

func TestRBACEvaluateDenyOverridesAllow(t *testing.T) {
	st := buildStage(t, `rbac.evaluate("bindings", "perms", "ancestors")`)
	spec, _ := Default.Lookup("rbac.evaluate")

	ctx := newTestContext()
	ctx.fixtureRaw["bindings"] = `[{"principal":"alice","role":"editor","resource":"doc-1"},{"principal":"alice","role":"blocked","resource":"doc-1"}]`
	ctx.fixtureRaw["perms"] = `[{"role":"editor","action":"write","effect":"allow"},{"role":"blocked","action":"write","effect":"deny"}]`
	ctx.fixtureRaw["ancestors"] = `[{"resource":"doc-1","ancestors":[]}]`

	req := value.NewRecord()
	req.Set("principal", value.Str("alice"))
	req.Set("action", value.Str("write"))
	req.Set("resource", value.Str("doc-1"))

	in := NewSliceStream([]value.Value{req})
	out, _ := spec.Natural(ctx, st, in, lexer.Span{})
	got := drainAll(t, out)
	rec := got[0].(*value.Record)
	allow, _ := rec.Get("allow")
	if allow.(value.Bool) != false {
		t.Fatalf("expected deny to override allow, got allow=%v", allow)
	}
}

func TestRBACEvaluateInheritsThroughAncestors(t *testing.T) {
	st := buildStage(t, `rbac.evaluate("bindings", "perms", "ancestors")`)
	spec, _ := Default.Lookup("rbac.evaluate")

	ctx := newTestContext()
	ctx.fixtureRaw["bindings"] = `[{"principal":"alice","role":"viewer","resource":"folder-1"}]`
	ctx.fixtureRaw["perms"] = `[{"role":"viewer","action":"read","effect":"allow"}]`
	ctx.fixtureRaw["ancestors"] = `[{"resource":"doc-2","ancestors":["folder-1"]}]`

	req := value.NewRecord()
	req.Set("principal", value.Str("alice"))
	req.Set("action", value.Str("read"))
	req.Set("resource", value.Str("doc-2"))

	in := NewSliceStream([]value.Value{req})
	out, _ := spec.Natural(ctx, st, in, lexer.Span{})
	got := drainAll(t, out)
	rec := got[0].(*value.Record)
	allow, _ := rec.Get("allow")
	if allow.(value.Bool) != true {
		t.Fatalf("expected inherited allow via ancestor folder-1, got %v", allow)
	}
}

func TestRBACEvaluateNoMatchDenies(t *testing.T) {
	st := buildStage(t, `rbac.evaluate("bindings", "perms", "ancestors")`)
	spec, _ := Default.Lookup("rbac.evaluate")

	ctx := newTestContext()
	ctx.fixtureRaw["bindings"] = `[]`
	ctx.fixtureRaw["perms"] = `[]`
	ctx.fixtureRaw["ancestors"] = `[]`

	req := value.NewRecord()
	req.Set("principal", value.Str("nobody"))
	req.Set("action", value.Str("read"))
	req.Set("resource", value.Str("doc-1"))

	in := NewSliceStream([]value.Value{req})
	out, _ := spec.Natural(ctx, st, in, lexer.Span{})
	got := drainAll(t, out)
	rec := got[0].(*value.Record)
	allow, _ := rec.Get("allow")
	if allow.(value.Bool) != false {
		t.Fatalf("expected allow=false on no match, got %v", allow)
	}
	matches, _ := rec.Get("matches")
	if len(matches.(*value.Array).Elements) != 0 {
		t.Fatalf("expected no matches, got %v", matches)
	}
}
