package driver

import (
	"testing"

	"github.com/flowc-lang/flowc/internal/lexer"
	"github.com/flowc-lang/flowc/internal/stage"
	"github.com/flowc-lang/flowc/internal/value"
)

func newEnv() *Environment {
	return NewEnvironment(map[string][]string{}, map[string]string{})
}

func base64Atomic() *value.Stage {
	return value.NewAtomic("base64", nil, nil, nil)
}

func utf8Atomic() *value.Stage {
	return value.NewAtomic("utf8", nil, nil, nil)
}

func TestExecuteStageAtomicForward(t *testing.T) {
	env := newEnv()
	in := stage.NewSliceStream([]value.Value{value.Bytes("hi")})
	out, err := executeStage(env, base64Atomic(), false, in, lexer.Span{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, derr := stage.Drain(out)
	if derr != nil {
		t.Fatalf("drain error: %v", derr)
	}
	if got[0].(value.Str) != "aGk=" {
		t.Fatalf("expected aGk=, got %v", got[0])
	}
}

func TestExecuteStageSeqForward(t *testing.T) {
	env := newEnv()
	seq := value.NewSeq(utf8Atomic(), base64Atomic())
	in := stage.NewSliceStream([]value.Value{value.Str("hi")})
	out, err := executeStage(env, seq, false, in, lexer.Span{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := stage.Drain(out)
	if got[0].(value.Str) != "aGk=" {
		t.Fatalf("expected utf8 then base64 forward to produce aGk=, got %v", got[0])
	}
}

func TestExecuteStageInvFlipsSingleAtomic(t *testing.T) {
	env := newEnv()
	inv := value.NewInv(base64Atomic())
	in := stage.NewSliceStream([]value.Value{value.Str("aGk=")})
	out, err := executeStage(env, inv, false, in, lexer.Span{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := stage.Drain(out)
	if string(got[0].(value.Bytes)) != "hi" {
		t.Fatalf("expected forced inverse to decode back to hi, got %v", got[0])
	}
}

// TestExecuteStageInvOfSeqReversesOrderAndDirection verifies
// Inv(Seq(a,b)) == Seq(Inv(b),Inv(a)): round tripping utf8>>base64 must
// decode base64 first, then utf8.
func TestExecuteStageInvOfSeqReversesOrderAndDirection(t *testing.T) {
	env := newEnv()
	seq := value.NewSeq(utf8Atomic(), base64Atomic())
	inv := value.NewInv(seq)

	forward := stage.NewSliceStream([]value.Value{value.Str("hi")})
	fwdOut, err := executeStage(env, seq, false, forward, lexer.Span{})
	if err != nil {
		t.Fatalf("forward error: %v", err)
	}
	encoded, _ := stage.Drain(fwdOut)

	back := stage.NewSliceStream(encoded)
	invOut, err := executeStage(env, inv, false, back, lexer.Span{})
	if err != nil {
		t.Fatalf("inverse error: %v", err)
	}
	roundTripped, _ := stage.Drain(invOut)
	if roundTripped[0].(value.Str) != "hi" {
		t.Fatalf("expected round trip to recover hi, got %v", roundTripped[0])
	}
}

func TestExecuteStageInvOfInvCancelsOut(t *testing.T) {
	env := newEnv()
	doubleInv := value.NewInv(value.NewInv(base64Atomic()))
	in := stage.NewSliceStream([]value.Value{value.Bytes("hi")})
	out, err := executeStage(env, doubleInv, false, in, lexer.Span{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := stage.Drain(out)
	if got[0].(value.Str) != "aGk=" {
		t.Fatalf("expected ~~base64 to behave as plain base64 forward, got %v", got[0])
	}
}

func TestExecuteStageNonReversibleForcedInversionErrors(t *testing.T) {
	env := newEnv()
	mapSt := value.NewAtomic("map", nil, nil, nil)
	inv := value.NewInv(mapSt)
	in := stage.NewSliceStream([]value.Value{value.I64(1)})
	_, err := executeStage(env, inv, false, in, lexer.Span{})
	if err == nil || err.Kind != "NotReversible" {
		t.Fatalf("expected NotReversible, got %v", err)
	}
}
