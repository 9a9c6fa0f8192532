// Package driver executes a parsed program: it owns the single execution
// context (bindings, KV stores, tables, logs), walks composition/inversion
// over Stage values (per-item direction inference for reversible atomics is
// done by internal/stage), and drives pull-based
// streams end to end, grounded on the teacher's internal/interp/environment.go
// name→Value scoped-map pattern, generalized to flowc's four state kinds.
package driver

import (
	"github.com/flowc-lang/flowc/internal/value"
)

// orderedTable is an append-only, insertion-order-preserving name→rows map,
// used for both Tables and Logs so the host's JSON output has a
// deterministic key order (spec.md §5 determinism invariant).
type orderedTable struct {
	keys []string
	rows map[string][]value.Value
}

func newOrderedTable() *orderedTable {
	return &orderedTable{rows: make(map[string][]value.Value)}
}

func (t *orderedTable) append(name string, v value.Value) {
	if _, ok := t.rows[name]; !ok {
		t.keys = append(t.keys, name)
	}
	t.rows[name] = append(t.rows[name], v)
}

func (t *orderedTable) Names() []string { return t.keys }

func (t *orderedTable) Rows(name string) []value.Value { return t.rows[name] }

// Environment is the single execution context a `run` invocation owns.
// Its four state kinds (spec.md §3.4) never persist across invocations and
// there is no global singleton: each Run call constructs a fresh one.
type Environment struct {
	bindings map[string]value.Value
	stores   map[string]map[string]value.Value

	tables *orderedTable
	logs   *orderedTable

	fixtureElements map[string][]string
	fixtureRaw      map[string]string
}

// NewEnvironment constructs an empty execution context over the given raw
// fixture document (fixture name → its parsed elements' raw JSON text, and
// the whole fixture's raw array text for stages that read it directly).
func NewEnvironment(fixtureElements map[string][]string, fixtureRaw map[string]string) *Environment {
	return &Environment{
		bindings:        make(map[string]value.Value),
		stores:          make(map[string]map[string]value.Value),
		tables:          newOrderedTable(),
		logs:            newOrderedTable(),
		fixtureElements: fixtureElements,
		fixtureRaw:      fixtureRaw,
	}
}

// Lookup implements value.Env for the expression evaluator.
func (e *Environment) Lookup(name string) (value.Value, bool) {
	v, ok := e.bindings[name]
	return v, ok
}

// Bind installs name → v. Later Binds to the same name shadow earlier ones;
// flowc programs are expected to use unique names (spec.md §3.4), but
// re-binding is not itself an error in this runtime.
func (e *Environment) Bind(name string, v value.Value) {
	e.bindings[name] = v
}

// FixtureElements implements stage.Context: the raw per-element JSON text
// of a named fixture array, in document order.
func (e *Environment) FixtureElements(name string) ([]string, bool) {
	elems, ok := e.fixtureElements[name]
	return elems, ok
}

// FixtureRaw implements stage.Context: the whole fixture's raw JSON array
// text, for stages that read fixtures directly (rbac.evaluate).
func (e *Environment) FixtureRaw(name string) (string, bool) {
	raw, ok := e.fixtureRaw[name]
	return raw, ok
}

func (e *Environment) HasStore(store string) bool {
	_, ok := e.stores[store]
	return ok
}

func (e *Environment) KVGet(store, key string) (value.Value, bool) {
	m, ok := e.stores[store]
	if !ok {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

func (e *Environment) KVSet(store, key string, v value.Value) {
	m, ok := e.stores[store]
	if !ok {
		m = make(map[string]value.Value)
		e.stores[store] = m
	}
	m[key] = v
}

func (e *Environment) AppendTable(name string, v value.Value) { e.tables.append(name, v) }

func (e *Environment) AppendLog(name string, s string) { e.logs.append(name, value.Str(s)) }

// TableNames returns table names in first-write order.
func (e *Environment) TableNames() []string { return e.tables.Names() }

// TableRows returns a table's rows in append order.
func (e *Environment) TableRows(name string) []value.Value { return e.tables.Rows(name) }

// LogNames returns log names in first-write order.
func (e *Environment) LogNames() []string { return e.logs.Names() }

// LogLines returns a log's lines in append order.
func (e *Environment) LogLines(name string) []string {
	rows := e.logs.Rows(name)
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = string(r.(value.Str))
	}
	return out
}
