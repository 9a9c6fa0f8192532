package lexer

import "testing"

func TestNextToken(t *testing.T) {
	input := `xs := input.json("xs") |> json;
	xs |> map(_ + 1) |> filter(_ > 2) |> ui.table("out");`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
	}{
		{IDENT, "xs"},
		{WALRUS, ":="},
		{IDENT, "input"},
		{DOT, "."},
		{IDENT, "json"},
		{LPAREN, "("},
		{STRING, "xs"},
		{RPAREN, ")"},
		{PIPE_GT, "|>"},
		{IDENT, "json"},
		{SEMICOLON, ";"},
		{IDENT, "xs"},
		{PIPE_GT, "|>"},
		{IDENT, "map"},
		{LPAREN, "("},
		{IDENT, "_"},
		{PLUS, "+"},
		{INT, "1"},
		{RPAREN, ")"},
		{PIPE_GT, "|>"},
		{IDENT, "filter"},
		{LPAREN, "("},
		{IDENT, "_"},
		{GT, ">"},
		{INT, "2"},
		{RPAREN, ")"},
		{PIPE_GT, "|>"},
		{IDENT, "ui"},
		{DOT, "."},
		{IDENT, "table"},
		{LPAREN, "("},
		{STRING, "out"},
		{RPAREN, ")"},
		{SEMICOLON, ";"},
		{EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%v, got=%v (literal=%q)", i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestOperators(t *testing.T) {
	input := `>> ~ := |> == != <= >= && || = : < >`
	tests := []TokenType{GT_GT, TILDE, WALRUS, PIPE_GT, EQ_EQ, BANG_EQ, LT_EQ, GT_EQ, AMP_AMP, PIPE_PIPE, ASSIGN, COLON, LT, GT, EOF}

	l := New(input)
	for i, want := range tests {
		tok := l.NextToken()
		if tok.Type != want {
			t.Fatalf("tests[%d]: expected=%v, got=%v", i, want, tok.Type)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	l := New(`"line\nbreak\tA"`)
	tok := l.NextToken()
	if tok.Type != STRING {
		t.Fatalf("expected STRING, got %v", tok.Type)
	}
	want := "line\nbreak\tA"
	if tok.Literal != want {
		t.Fatalf("expected %q, got %q", want, tok.Literal)
	}
	if len(l.Errors()) != 0 {
		t.Fatalf("unexpected errors: %v", l.Errors())
	}
}

func TestUnterminatedStringReportsError(t *testing.T) {
	l := New(`"abc`)
	l.NextToken()
	if len(l.Errors()) != 1 {
		t.Fatalf("expected 1 error, got %d", len(l.Errors()))
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	l := New(`a b`)
	first := l.Peek(0)
	if first.Literal != "a" {
		t.Fatalf("expected peek(0)=a, got %q", first.Literal)
	}
	second := l.Peek(1)
	if second.Literal != "b" {
		t.Fatalf("expected peek(1)=b, got %q", second.Literal)
	}
	// Peeking must not have consumed anything.
	tok := l.NextToken()
	if tok.Literal != "a" {
		t.Fatalf("expected next()=a after peeking, got %q", tok.Literal)
	}
}

func TestLineCommentsAndHashCommentsSkipped(t *testing.T) {
	input := "a // comment\n# also a comment\nb"
	l := New(input)
	first := l.NextToken()
	second := l.NextToken()
	if first.Literal != "a" || second.Literal != "b" {
		t.Fatalf("expected a, b; got %q, %q", first.Literal, second.Literal)
	}
}
