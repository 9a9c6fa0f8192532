// Package fixture decodes the host-supplied fixtures_json document into the
// per-fixture raw JSON text internal/driver needs: one raw slice per array
// element (for input.json's element-at-a-time emission) and the whole raw
// array (for stages, like rbac.evaluate, that read a fixture directly).
// Grounded on internal/stage/jsoncodec.go's use of tidwall/gjson for
// order-preserving traversal — fixture decoding needs the same guarantee
// so `input.json` emits elements in the document's own order.
package fixture

import (
	"github.com/tidwall/gjson"

	"github.com/flowc-lang/flowc/internal/diag"
	"github.com/flowc-lang/flowc/internal/lexer"
)

// Document is the decoded form of fixtures_json: per-fixture raw element
// text, and per-fixture whole-array raw text.
type Document struct {
	Elements map[string][]string
	Raw      map[string]string
}

// Decode parses fixtures_json (a JSON object mapping fixture name to a JSON
// array of elements) into a Document. Malformed top-level JSON, a non-object
// top level, or a fixture value that isn't a JSON array is a DecodeError.
func Decode(fixturesJSON string) (*Document, *diag.Error) {
	zero := lexer.Span{}
	if !gjson.Valid(fixturesJSON) {
		return nil, diag.New(diag.KindDecode, zero, "fixtures_json is not valid JSON")
	}
	root := gjson.Parse(fixturesJSON)
	if !root.IsObject() {
		return nil, diag.New(diag.KindDecode, zero, "fixtures_json must be a JSON object")
	}

	doc := &Document{
		Elements: make(map[string][]string),
		Raw:      make(map[string]string),
	}

	var decodeErr *diag.Error
	root.ForEach(func(key, val gjson.Result) bool {
		name := key.String()
		if !val.IsArray() {
			decodeErr = diag.New(diag.KindDecode, zero, "fixture %q must be a JSON array", name)
			return false
		}
		doc.Raw[name] = val.Raw
		var elems []string
		val.ForEach(func(_, elem gjson.Result) bool {
			elems = append(elems, elem.Raw)
			return true
		})
		doc.Elements[name] = elems
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return doc, nil
}
