package lexer

import (
	"testing"

	"github.com/AndreVianna/dynamicquery/pkg/dynq/errors"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/types"
)

func TestTokenizeFullExpression(t *testing.T) {
	input := `SomeField >= 1 AND OtherField = "ABC"`

	tests := []struct {
		expectedKind     Kind
		expectedText     string
		expectedPosition int
		expectedSymbol   string
	}{
		{Named, "SomeField", 1, ""},
		{Symbol, ">=", 11, ">="},
		{Value, "1", 14, ""},
		{Symbol, "AND", 16, "AND"},
		{Named, "OtherField", 20, ""},
		{Symbol, "=", 31, "="},
		{Value, `"ABC"`, 33, ""},
	}

	tok, err := Tokenize(input)
	if err != nil {
		t.Fatalf("Tokenize(%q) failed: %v", input, err)
	}

	for i, tt := range tests {
		if tok == nil {
			t.Fatalf("tests[%d] - ran out of tokens", i)
		}
		if tok.Kind != tt.expectedKind {
			t.Fatalf("tests[%d] - kind wrong. expected=%v, got=%v", i, tt.expectedKind, tok.Kind)
		}
		if tok.Text != tt.expectedText {
			t.Fatalf("tests[%d] - text wrong. expected=%q, got=%q", i, tt.expectedText, tok.Text)
		}
		if tok.Position != tt.expectedPosition {
			t.Fatalf("tests[%d] - position wrong. expected=%d, got=%d", i, tt.expectedPosition, tok.Position)
		}
		if tt.expectedSymbol != "" && tok.Symbol != tt.expectedSymbol {
			t.Fatalf("tests[%d] - symbol wrong. expected=%q, got=%q", i, tt.expectedSymbol, tok.Symbol)
		}
		tok = tok.Next
	}

	if tok != nil {
		t.Fatalf("expected end of chain, got %v", tok)
	}
}

func TestTokenizeChainLinks(t *testing.T) {
	head, err := Tokenize(`a + b * (c - 1)`)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}

	if head.Prev != nil {
		t.Fatalf("head.Prev should be nil, got %v", head.Prev)
	}

	var tail *Token
	lastPos := 0
	for tok := head; tok != nil; tok = tok.Next {
		if tok.Position <= lastPos {
			t.Fatalf("positions not increasing: %d after %d", tok.Position, lastPos)
		}
		lastPos = tok.Position

		if tok.Next != nil && tok.Next.Prev != tok {
			t.Fatalf("broken link: %v.Next.Prev != itself", tok)
		}
		if tok.Prev != nil && tok.Prev.Next != tok {
			t.Fatalf("broken link: %v.Prev.Next != itself", tok)
		}
		tail = tok
	}

	if tail.Next != nil {
		t.Fatalf("tail.Next should be nil")
	}
}

func TestTokenizeLiterals(t *testing.T) {
	tests := []struct {
		input         string
		expectedType  types.Type
		expectedValue any
	}{
		{"42", types.Int, int64(42)},
		{"0", types.Int, int64(0)},
		{"3.14", types.Double, 3.14},
		{"2.", types.Double, 2.0},
		{".5", types.Double, 0.5},
		{`"hello"`, types.String, "hello"},
		{`""`, types.String, ""},
		{"'A'", types.Char, 'A'},
		{`'\t'`, types.Char, '\t'},
		{`'\r'`, types.Char, '\r'},
		{`'\n'`, types.Char, '\n'},
		{`'\\'`, types.Char, '\\'},
		{`'\''`, types.Char, '\''},
		{"true", types.Boolean, true},
		{"TRUE", types.Boolean, true},
		{"False", types.Boolean, false},
		{"null", types.Object, nil},
		{"NULL", types.Object, nil},
	}

	for _, tt := range tests {
		tok, err := Tokenize(tt.input)
		if err != nil {
			t.Fatalf("Tokenize(%q) failed: %v", tt.input, err)
		}
		if tok.Kind != Value {
			t.Fatalf("Tokenize(%q) - kind wrong. expected=VALUE, got=%v", tt.input, tok.Kind)
		}
		if tok.Position != 1 {
			t.Fatalf("Tokenize(%q) - position wrong. expected=1, got=%d", tt.input, tok.Position)
		}
		if tok.ValueType != tt.expectedType {
			t.Fatalf("Tokenize(%q) - type wrong. expected=%v, got=%v", tt.input, tt.expectedType, tok.ValueType)
		}
		if tok.Value != tt.expectedValue {
			t.Fatalf("Tokenize(%q) - value wrong. expected=%v, got=%v", tt.input, tt.expectedValue, tok.Value)
		}
	}
}

func TestTokenizeReservedWords(t *testing.T) {
	tests := []struct {
		input          string
		expectedSymbol string
	}{
		{"and", "AND"},
		{"And", "AND"},
		{"AND", "AND"},
		{"or", "OR"},
		{"not", "NOT"},
		{"between", "BETWEEN"},
		{"in", "IN"},
		{"is", "IS"},
		{"contains", "CONTAINS"},
		{"StartsWith", "STARTSWITH"},
		{"endswith", "ENDSWITH"},
	}

	for _, tt := range tests {
		tok, err := Tokenize(tt.input)
		if err != nil {
			t.Fatalf("Tokenize(%q) failed: %v", tt.input, err)
		}
		if tok.Kind != Symbol {
			t.Fatalf("Tokenize(%q) - kind wrong. expected=SYMBOL, got=%v", tt.input, tok.Kind)
		}
		if tok.Symbol != tt.expectedSymbol {
			t.Fatalf("Tokenize(%q) - symbol wrong. expected=%q, got=%q", tt.input, tt.expectedSymbol, tok.Symbol)
		}
	}
}

func TestTokenizeSymbols(t *testing.T) {
	input := `<> <= >= [ ] ( ) , + - * / % ^ = < >`
	expected := []string{"<>", "<=", ">=", "[", "]", "(", ")", ",", "+", "-", "*", "/", "%", "^", "=", "<", ">"}

	tok, err := Tokenize(input)
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}

	for i, sym := range expected {
		if tok == nil {
			t.Fatalf("expected[%d] - ran out of tokens", i)
		}
		if tok.Kind != Symbol || tok.Symbol != sym {
			t.Fatalf("expected[%d] - wrong token. expected=%q, got=%v", i, sym, tok)
		}
		tok = tok.Next
	}
}

func TestTokenizeIdentifiers(t *testing.T) {
	tok, err := Tokenize("Name_2")
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}
	if tok.Kind != Named || tok.Text != "Name_2" || tok.Next != nil {
		t.Fatalf("expected single NAMED token, got %v", tok)
	}
}

func TestTokenizeInvalidCharacter(t *testing.T) {
	tests := []struct {
		input            string
		expectedPosition int
		expectedText     string
	}{
		{"?", 1, "?"},
		{"a ? b", 3, "?"},
		{"1 + #", 5, "#"},
	}

	for _, tt := range tests {
		_, err := Tokenize(tt.input)
		if err == nil {
			t.Fatalf("Tokenize(%q) should have failed", tt.input)
		}

		qe, ok := err.(*errors.Error)
		if !ok {
			t.Fatalf("Tokenize(%q) - wrong error type %T", tt.input, err)
		}
		if qe.Position != tt.expectedPosition {
			t.Fatalf("Tokenize(%q) - position wrong. expected=%d, got=%d", tt.input, tt.expectedPosition, qe.Position)
		}
		if qe.Text != tt.expectedText {
			t.Fatalf("Tokenize(%q) - text wrong. expected=%q, got=%q", tt.input, tt.expectedText, qe.Text)
		}
	}
}

func TestTokenizeNoWhitespaceTokens(t *testing.T) {
	head, err := Tokenize("  1\t+\n2  ")
	if err != nil {
		t.Fatalf("Tokenize failed: %v", err)
	}

	count := 0
	for tok := head; tok != nil; tok = tok.Next {
		count++
	}
	if count != 3 {
		t.Fatalf("expected 3 tokens, got %d", count)
	}
}
