package stage

import (
	"testing"

	"github.com/flowc-lang/flowc/internal/lexer"
	"github.com/flowc-lang/flowc/internal/value"
)

func drainAll(t *testing.T, s Stream) []value.Value {
	t.Helper()
	out, err := Drain(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return out
}

func TestBase64RoundTrip(t *testing.T) {
	spec, ok := Default.Lookup("base64")
	if !ok {
		t.Fatal("base64 not registered")
	}
	in := NewSliceStream([]value.Value{value.Bytes("hello")})
	fwd, err := spec.Natural(nil, nil, in, lexer.Span{})
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	out := drainAll(t, fwd)
	if len(out) != 1 || out[0].(value.Str) != "aGVsbG8=" {
		t.Fatalf("unexpected forward output: %v", out)
	}

	back := NewSliceStream(out)
	inv, err := spec.Inverse(nil, nil, back, lexer.Span{})
	if err != nil {
		t.Fatalf("inverse: %v", err)
	}
	roundTripped := drainAll(t, inv)
	if len(roundTripped) != 1 || string(roundTripped[0].(value.Bytes)) != "hello" {
		t.Fatalf("unexpected round trip: %v", roundTripped)
	}
}

func TestBase64DirectionInferredFromKind(t *testing.T) {
	spec, _ := Default.Lookup("base64")
	// Natural, fed a Str, should infer the inverse direction.
	in := NewSliceStream([]value.Value{value.Str("aGVsbG8=")})
	out, err := spec.Natural(nil, nil, in, lexer.Span{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := drainAll(t, out)
	if string(got[0].(value.Bytes)) != "hello" {
		t.Fatalf("expected inferred inverse, got %v", got)
	}
}

func TestBase64RejectsWrongInvalidEncoding(t *testing.T) {
	spec, _ := Default.Lookup("base64")
	in := NewSliceStream([]value.Value{value.Str("not valid base64!!")})
	out, err := spec.Natural(nil, nil, in, lexer.Span{})
	if err != nil {
		t.Fatalf("unexpected construction error: %v", err)
	}
	_, derr := Drain(out)
	if derr == nil {
		t.Fatal("expected a decode error")
	}
}

func TestUTF8RoundTrip(t *testing.T) {
	spec, _ := Default.Lookup("utf8")
	in := NewSliceStream([]value.Value{value.Str("héllo")})
	fwd, _ := spec.Natural(nil, nil, in, lexer.Span{})
	out := drainAll(t, fwd)
	b, ok := out[0].(value.Bytes)
	if !ok {
		t.Fatalf("expected Bytes, got %T", out[0])
	}

	back := NewSliceStream([]value.Value{b})
	inv, _ := spec.Inverse(nil, nil, back, lexer.Span{})
	roundTripped := drainAll(t, inv)
	if roundTripped[0].(value.Str) != "héllo" {
		t.Fatalf("unexpected round trip: %v", roundTripped)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	spec, _ := Default.Lookup("json")
	rec := value.NewRecord()
	rec.Set("a", value.I64(1))
	rec.Set("b", value.Str("x"))

	in := NewSliceStream([]value.Value{rec})
	fwd, err := spec.Natural(nil, nil, in, lexer.Span{})
	if err != nil {
		t.Fatalf("forward: %v", err)
	}
	out := drainAll(t, fwd)
	encoded, ok := out[0].(value.Bytes)
	if !ok {
		t.Fatalf("expected Bytes, got %T", out[0])
	}
	if string(encoded) != `{"a":1,"b":"x"}` {
		t.Fatalf("unexpected encoding, field order not preserved: %s", encoded)
	}

	back := NewSliceStream(out)
	inv, err := spec.Inverse(nil, nil, back, lexer.Span{})
	if err != nil {
		t.Fatalf("inverse: %v", err)
	}
	decoded := drainAll(t, inv)
	decodedRec, ok := decoded[0].(*value.Record)
	if !ok {
		t.Fatalf("expected *value.Record, got %T", decoded[0])
	}
	if got := decodedRec.Keys(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected field order [a b], got %v", got)
	}
}

func TestJSONInverseOnMalformedTextIsDecodeError(t *testing.T) {
	// A Str is excluded from json's forward domain (isJSONForwardKind), so
	// this is routed straight to the inverse decode, which rejects malformed
	// text with DecodeError rather than TypeMismatch.
	spec, _ := Default.Lookup("json")
	in := NewSliceStream([]value.Value{value.Str("not json at all")})
	out, _ := spec.Natural(nil, nil, in, lexer.Span{})
	_, err := Drain(out)
	if err == nil || err.Kind != "DecodeError" {
		t.Fatalf("expected DecodeError, got %v", err)
	}
}
