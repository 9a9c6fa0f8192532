package explain

import (
	"strings"
	"testing"

	"github.com/flowc-lang/flowc/internal/parser"
)

func TestPlanRendersOnePerStageInDataFlowOrder(t *testing.T) {
	src := `xs := input.json("xs") |> json;
xs |> map(_ + 1) |> ui.table("out");`
	prog, errs := parser.ParseProgram(src)
	if len(errs) != 0 {
		t.Fatalf("parse error: %v", errs)
	}
	got := Plan(prog)
	lines := strings.Split(got, "\n")
	want := []string{
		`[source] input.json("xs")`,
		`[reversible] json()`,
		`[pure] map((_ + 1))`,
		`[sink] ui.table("out")`,
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), got)
	}
	for i, w := range want {
		if lines[i] != w {
			t.Fatalf("line %d: expected %q, got %q", i, w, lines[i])
		}
	}
}

func TestPlanFlattensInvertedComposition(t *testing.T) {
	// ~(a >> b) must flatten to [inv(b), inv(a)] in true data-flow order.
	src := `chain := utf8 >> base64;
"hi" |> ~chain |> ui.table("out");`
	prog, errs := parser.ParseProgram(src)
	if len(errs) != 0 {
		t.Fatalf("parse error: %v", errs)
	}
	got := Plan(prog)
	lines := strings.Split(got, "\n")
	want := []string{
		`[reversible] base64()`,
		`[reversible] utf8()`,
		`[sink] ui.table("out")`,
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), got)
	}
	for i, w := range want {
		if lines[i] != w {
			t.Fatalf("line %d: expected %q, got %q", i, w, lines[i])
		}
	}
}

func TestPlanEndsWithDiagnosticOnUnboundName(t *testing.T) {
	src := `undefined_name |> ui.table("out");`
	prog, errs := parser.ParseProgram(src)
	if len(errs) != 0 {
		t.Fatalf("parse error: %v", errs)
	}
	got := Plan(prog)
	if !strings.Contains(got, "NameNotFound") {
		t.Fatalf("expected a NameNotFound diagnostic line, got %q", got)
	}
}

func TestPlanRendersNamedArgsSortedForDeterminism(t *testing.T) {
	src := `group.collect_all(_.k, within_ms=1000, limit=3);`
	prog, errs := parser.ParseProgram(src)
	if len(errs) != 0 {
		t.Fatalf("parse error: %v", errs)
	}
	got := Plan(prog)
	if !strings.Contains(got, `group.collect_all(_.k, limit=3, within_ms=1000)`) {
		t.Fatalf("unexpected plan output: %q", got)
	}
}
