package stage

import "github.com/flowc-lang/flowc/internal/value"

// testContext is a minimal in-memory Context for exercising individual
// stages without the full internal/driver.Environment.
type testContext struct {
	fixtureElems map[string][]string
	fixtureRaw   map[string]string
	kv           map[string]map[string]value.Value
	bindings     map[string]value.Value

	tableOrder []string
	tables     map[string][]value.Value

	logOrder []string
	logs     map[string][]string
}

func newTestContext() *testContext {
	return &testContext{
		fixtureElems: map[string][]string{},
		fixtureRaw:   map[string]string{},
		kv:           map[string]map[string]value.Value{},
		bindings:     map[string]value.Value{},
		tables:       map[string][]value.Value{},
		logs:         map[string][]string{},
	}
}

func (c *testContext) registerStore(name string) {
	if c.kv[name] == nil {
		c.kv[name] = map[string]value.Value{}
	}
}

func (c *testContext) Lookup(name string) (value.Value, bool) {
	v, ok := c.bindings[name]
	return v, ok
}

func (c *testContext) FixtureElements(name string) ([]string, bool) {
	v, ok := c.fixtureElems[name]
	return v, ok
}

func (c *testContext) FixtureRaw(name string) (string, bool) {
	v, ok := c.fixtureRaw[name]
	return v, ok
}

func (c *testContext) KVGet(store, key string) (value.Value, bool) {
	m, ok := c.kv[store]
	if !ok {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

func (c *testContext) KVSet(store, key string, v value.Value) {
	c.registerStore(store)
	c.kv[store][key] = v
}

func (c *testContext) HasStore(store string) bool {
	_, ok := c.kv[store]
	return ok
}

func (c *testContext) AppendTable(name string, v value.Value) {
	if _, ok := c.tables[name]; !ok {
		c.tableOrder = append(c.tableOrder, name)
	}
	c.tables[name] = append(c.tables[name], v)
}

func (c *testContext) AppendLog(name string, s string) {
	if _, ok := c.logs[name]; !ok {
		c.logOrder = append(c.logOrder, name)
	}
	c.logs[name] = append(c.logs[name], s)
}
