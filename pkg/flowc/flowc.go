// Package flowc is the host-facing façade: two pure functions of string
// in, string out, with no other surface. Grounded on the teacher's
// pkg/dwscript engine shape (a small façade package sitting in front of
// internal/lexer, internal/parser, internal/interp) and its
// cmd/dwscript-wasm "thin wrapper over the façade" layering — cmd/flowc
// is the only other caller of this package, exactly as dwscript-wasm is
// the only caller of pkg/dwscript from outside its own module.
package flowc

import (
	"strings"

	"github.com/tidwall/sjson"

	"github.com/flowc-lang/flowc/internal/diag"
	"github.com/flowc-lang/flowc/internal/driver"
	"github.com/flowc-lang/flowc/internal/explain"
	"github.com/flowc-lang/flowc/internal/fixture"
	"github.com/flowc-lang/flowc/internal/parser"
	"github.com/flowc-lang/flowc/internal/stage"
	"github.com/flowc-lang/flowc/internal/value"
)

// CompileResult is compile's structured outcome, before JSON assembly.
type CompileResult struct {
	OK          bool
	Diagnostics string
}

// Compile parses program and reports whether it is well-formed. Per
// spec.md §6, ok is true iff parsing succeeds; there is no semantic/type
// checking stage to fail separately.
func Compile(program string) CompileResult {
	_, errs := parser.ParseProgram(program)
	if len(errs) == 0 {
		return CompileResult{OK: true}
	}
	return CompileResult{OK: false, Diagnostics: diag.FormatAll(errs, program, false)}
}

// RunResult is run's structured outcome, before JSON assembly.
type RunResult struct {
	TablesJSON string
	LogsJSON   string
	Explain    string
}

// Run parses and executes program against fixturesJSON, returning whatever
// tables/logs had been produced even on failure (spec.md §6: "run does not
// throw to the host"). Malformed source or malformed fixtures_json stop
// before execution: Explain then holds only the diagnostic text (for parse
// errors, one source-line-and-caret block per error), with empty
// tables/logs.
func Run(program string, fixturesJSON string) RunResult {
	parsed, errs := parser.ParseProgram(program)
	if len(errs) > 0 {
		return RunResult{
			TablesJSON: "{}",
			LogsJSON:   "{}",
			Explain:    diag.FormatAll(errs, program, false),
		}
	}

	doc, ferr := fixture.Decode(fixturesJSON)
	if ferr != nil {
		return RunResult{
			TablesJSON: "{}",
			LogsJSON:   "{}",
			Explain:    ferr.Error(),
		}
	}

	env := driver.NewEnvironment(doc.Elements, doc.Raw)
	runErr := driver.Run(parsed, env)

	plan := explain.Plan(parsed)
	if runErr != nil {
		plan = plan + "\n" + runErr.Error()
	}

	return RunResult{
		TablesJSON: encodeNamedRows(env.TableNames(), env.TableRows),
		LogsJSON:   encodeNamedLogs(env.LogNames(), env.LogLines),
		Explain:    plan,
	}
}

// encodeNamedRows assembles a JSON object mapping each table name to its
// rows, each row re-encoded as native JSON (not a JSON-encoded string),
// preserving both table insertion order and field order within rows via
// tidwall/sjson's in-order SetRaw, matching internal/stage/jsoncodec.go's
// encoder.
func encodeNamedRows(names []string, rows func(string) []value.Value) string {
	out := "{}"
	for _, name := range names {
		arr := "[]"
		for _, row := range rows(name) {
			raw, err := stage.EncodeJSON(row)
			if err != nil {
				raw = "null"
			}
			arr, _ = sjson.SetRaw(arr, "-1", raw)
		}
		out, _ = sjson.SetRaw(out, sjsonKey(name), arr)
	}
	return out
}

func encodeNamedLogs(names []string, lines func(string) []string) string {
	out := "{}"
	for _, name := range names {
		arr := "[]"
		for _, line := range lines(name) {
			arr, _ = sjson.Set(arr, "-1", line)
		}
		out, _ = sjson.SetRaw(out, sjsonKey(name), arr)
	}
	return out
}

// sjsonKey escapes a table/log name for use as a single sjson path segment:
// sjson's path syntax treats '.', '*', '?', and '\' specially, but flowc
// names are opaque strings that may contain any of them.
func sjsonKey(name string) string {
	r := strings.NewReplacer(`\`, `\\`, `.`, `\.`, `*`, `\*`, `?`, `\?`)
	return r.Replace(name)
}
