package stage

import (
	"encoding/base64"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"

	"github.com/flowc-lang/flowc/internal/diag"
	"github.com/flowc-lang/flowc/internal/lexer"
	"github.com/flowc-lang/flowc/internal/value"
)

// elemFn is a single-value transform used by the reversible atoms: each of
// json/utf8/base64 is a 1:1 value transform in either direction, so no
// buffering is needed (unlike group/rank below).
type elemFn func(v value.Value) (value.Value, *diag.Error)

func registerReversible(r *Registry) {
	register := func(name string, forwardKind func(value.Value) bool, forward elemFn, inverse elemFn) {
		r.Register(name, &Spec{
			Tag:     TagReversible,
			Natural: reversibleNatural(name, forwardKind, forward, inverse),
			Inverse: func(ctx Context, st *value.Stage, in Stream, span lexer.Span) (Stream, *diag.Error) {
				return newElementwiseStream(in, inverse), nil
			},
		})
	}

	register("json", isJSONForwardKind, jsonForward, jsonInverse)
	register("utf8", func(v value.Value) bool { return v.Kind() == value.KindStr }, utf8Forward, utf8Inverse)
	register("base64", func(v value.Value) bool { return v.Kind() == value.KindBytes }, base64Forward, base64Inverse)
}

// reversibleNatural builds the per-item direction-inference wrapper shared
// by every reversible atom (spec.md §4.5): forward's declared input tag is
// tried first, then inverse's; neither matching is a type mismatch.
func reversibleNatural(name string, forwardKind func(value.Value) bool, forward, inverse elemFn) func(Context, *value.Stage, Stream, lexer.Span) (Stream, *diag.Error) {
	return func(ctx Context, st *value.Stage, in Stream, span lexer.Span) (Stream, *diag.Error) {
		return newElementwiseStream(in, func(v value.Value) (value.Value, *diag.Error) {
			if forwardKind(v) {
				return forward(v)
			}
			out, err := inverse(v)
			if err != nil {
				if err.Kind == diag.KindTypeMismatch {
					return nil, diag.New(diag.KindTypeMismatch, span, "%s: value of kind %s matches neither direction", name, v.Kind())
				}
				return nil, err
			}
			return out, nil
		}), nil
	}
}

// isJSONForwardKind excludes Str and Bytes, which are inverse's domain, so
// the two directions stay disjoint (spec.md §3.2, §4.5).
func isJSONForwardKind(v value.Value) bool {
	switch v.Kind() {
	case value.KindStr, value.KindBytes:
		return false
	default:
		return true
	}
}

func jsonForward(v value.Value) (value.Value, *diag.Error) {
	encoded, err := EncodeJSON(v)
	if err != nil {
		return nil, err
	}
	return value.Bytes([]byte(encoded)), nil
}

func jsonInverse(v value.Value) (value.Value, *diag.Error) {
	var raw string
	switch vv := v.(type) {
	case value.Bytes:
		raw = string(vv)
	case value.Str:
		raw = string(vv)
	default:
		return nil, diag.New(diag.KindTypeMismatch, lexer.Span{}, "json: inverse requires Bytes or Str, found %s", v.Kind())
	}
	return DecodeJSON(raw)
}

func utf8Forward(v value.Value) (value.Value, *diag.Error) {
	s, ok := v.(value.Str)
	if !ok {
		return nil, diag.New(diag.KindTypeMismatch, lexer.Span{}, "utf8: forward requires Str, found %s", v.Kind())
	}
	return value.Bytes([]byte(s)), nil
}

func utf8Inverse(v value.Value) (value.Value, *diag.Error) {
	b, ok := v.(value.Bytes)
	if !ok {
		return nil, diag.New(diag.KindTypeMismatch, lexer.Span{}, "utf8: inverse requires Bytes, found %s", v.Kind())
	}
	// The x/text decoder replaces ill-formed sequences with U+FFFD instead of
	// failing, so validity is checked first.
	if !utf8.Valid(b) {
		return nil, diag.New(diag.KindDecode, lexer.Span{}, "utf8: ill-formed UTF-8 bytes")
	}
	decoded, err := unicode.UTF8.NewDecoder().Bytes([]byte(b))
	if err != nil {
		return nil, diag.New(diag.KindDecode, lexer.Span{}, "utf8: ill-formed UTF-8 bytes: %v", err)
	}
	return value.Str(decoded), nil
}

func base64Forward(v value.Value) (value.Value, *diag.Error) {
	b, ok := v.(value.Bytes)
	if !ok {
		return nil, diag.New(diag.KindTypeMismatch, lexer.Span{}, "base64: forward requires Bytes, found %s", v.Kind())
	}
	return value.Str(base64.StdEncoding.EncodeToString([]byte(b))), nil
}

func base64Inverse(v value.Value) (value.Value, *diag.Error) {
	s, ok := v.(value.Str)
	if !ok {
		return nil, diag.New(diag.KindTypeMismatch, lexer.Span{}, "base64: inverse requires Str, found %s", v.Kind())
	}
	decoded, err := base64.StdEncoding.DecodeString(string(s))
	if err != nil {
		return nil, diag.New(diag.KindDecode, lexer.Span{}, "base64: invalid encoding: %v", err)
	}
	return value.Bytes(decoded), nil
}
