package stage

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/flowc-lang/flowc/internal/diag"
	"github.com/flowc-lang/flowc/internal/lexer"
	"github.com/flowc-lang/flowc/internal/value"
)

// EncodeJSON renders v as compact JSON text. Record fields are written via
// sjson.SetRaw in Keys() order, which appends each new object key in call
// order — the insertion-order-preserving behavior spec.md §3.1 and §9
// require and encoding/json's map-based object marshaling cannot give.
func EncodeJSON(v value.Value) (string, *diag.Error) {
	switch vv := v.(type) {
	case value.Null:
		return "null", nil
	case value.Bool:
		return strconv.FormatBool(bool(vv)), nil
	case value.I64:
		return strconv.FormatInt(int64(vv), 10), nil
	case value.Str:
		return jsonQuote(string(vv)), nil
	case value.Bytes:
		return jsonQuote(string(vv)), nil
	case *value.Array:
		parts := make([]string, len(vv.Elements))
		for i, e := range vv.Elements {
			enc, err := EncodeJSON(e)
			if err != nil {
				return "", err
			}
			parts[i] = enc
		}
		return "[" + strings.Join(parts, ",") + "]", nil
	case *value.Record:
		obj := "{}"
		for _, k := range vv.Keys() {
			fv, _ := vv.Get(k)
			enc, err := EncodeJSON(fv)
			if err != nil {
				return "", err
			}
			var setErr error
			obj, setErr = sjson.SetRaw(obj, k, enc)
			if setErr != nil {
				return "", diag.New(diag.KindBadArgument, lexer.Span{}, "json: failed to encode field %q: %v", k, setErr)
			}
		}
		return obj, nil
	default:
		return "", diag.New(diag.KindBadArgument, lexer.Span{}, "json: %s is not JSON-encodable", v.Kind())
	}
}

// DecodeJSON parses raw JSON text into a Value, using gjson.ForEach (which
// visits object keys and array elements in document order) to build ordered
// Records instead of encoding/json's alphabetically-resorted map decode.
func DecodeJSON(raw string) (value.Value, *diag.Error) {
	if !gjson.Valid(raw) {
		return nil, diag.New(diag.KindDecode, lexer.Span{}, "json: invalid JSON text")
	}
	return convertGJSON(gjson.Parse(raw))
}

func convertGJSON(res gjson.Result) (value.Value, *diag.Error) {
	switch res.Type {
	case gjson.Null:
		return value.Null{}, nil
	case gjson.True, gjson.False:
		return value.Bool(res.Bool()), nil
	case gjson.Number:
		return value.I64(res.Int()), nil
	case gjson.String:
		return value.Str(res.String()), nil
	case gjson.JSON:
		if res.IsArray() {
			var elems []value.Value
			var convErr *diag.Error
			res.ForEach(func(_, item gjson.Result) bool {
				cv, err := convertGJSON(item)
				if err != nil {
					convErr = err
					return false
				}
				elems = append(elems, cv)
				return true
			})
			if convErr != nil {
				return nil, convErr
			}
			return value.NewArray(elems), nil
		}
		rec := value.NewRecord()
		var convErr *diag.Error
		res.ForEach(func(key, item gjson.Result) bool {
			cv, err := convertGJSON(item)
			if err != nil {
				convErr = err
				return false
			}
			rec.Set(key.String(), cv)
			return true
		})
		if convErr != nil {
			return nil, convErr
		}
		return rec, nil
	default:
		return nil, diag.New(diag.KindDecode, lexer.Span{}, "json: unsupported JSON value")
	}
}

// jsonQuote renders s as a JSON string literal with standard JSON escapes.
func jsonQuote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 {
				sb.WriteString("\\u")
				hex := strconv.FormatInt(int64(r), 16)
				sb.WriteString(strings.Repeat("0", 4-len(hex)))
				sb.WriteString(hex)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
