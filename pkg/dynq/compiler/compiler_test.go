package compiler

import (
	"reflect"
	"strings"
	"testing"

	"github.com/AndreVianna/dynamicquery/pkg/dynq/errors"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/expr"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/lexer"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/parser"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/schema"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/types"
)

type record struct {
	Id   int
	Name string
	Done bool
}

func compile(t *testing.T, clause string, want types.Type) (expr.Node, error) {
	t.Helper()

	head, err := lexer.Tokenize(clause)
	if err != nil {
		t.Fatalf("Tokenize(%q) failed: %v", clause, err)
	}
	root, err := parser.Parse(head)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", clause, err)
	}
	root = parser.Rebalance(root)

	s, err := schema.Of(reflect.TypeOf(record{}))
	if err != nil {
		t.Fatalf("schema.Of failed: %v", err)
	}

	return Compile(root, s, want)
}

func mustCompile(t *testing.T, clause string, want types.Type) expr.Node {
	t.Helper()
	out, err := compile(t, clause, want)
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", clause, err)
	}
	return out
}

func TestCompileShapes(t *testing.T) {
	tests := []struct {
		clause   string
		want     types.Type
		expected string
	}{
		{"2 + 3 * 4", types.Int,
			"Add(Constant(2), Multiply(Constant(3), Constant(4)))"},
		{"1 ^ 2 ^ 3", types.Double,
			"Power(Power(Convert(Constant(1), Double), Convert(Constant(2), Double)), Convert(Constant(3), Double))"},
		{"3 IN (1, 2, 3, 4)", types.Boolean,
			"Or(Constant(false), Or(Equal(Constant(3), Constant(1)), Or(Equal(Constant(3), Constant(2)), Or(Equal(Constant(3), Constant(3)), Equal(Constant(3), Constant(4))))))"},
		{"3 BETWEEN 2 AND 4", types.Boolean,
			"And(GreaterThanOrEqual(Constant(3), Constant(2)), LessThanOrEqual(Constant(3), Constant(4)))"},
		{"Id > 2", types.Boolean,
			`GreaterThan(Property(instance, "Id"), Constant(2))`},
		{"Name[2]", types.Char,
			`Index(Property(instance, "Name"), Constant(2))`},
		{`Name CONTAINS "A"`, types.Boolean,
			`Call(Property(instance, "Name").Contains, Constant(A))`},
		{"MAX(1, 2)", types.Int,
			"Call(MAX, Constant(1), Constant(2))"},
		{"-2", types.Int,
			"Negate(Constant(2))"},
		{"+2", types.Int,
			"Constant(2)"},
		{"NOT Done", types.Boolean,
			`Not(Property(instance, "Done"))`},
		{"Done IS true", types.Boolean,
			`Equal(Property(instance, "Done"), Constant(true))`},
		{"null = null", types.Boolean,
			"Equal(Constant(<nil>), Constant(<nil>))"},
	}

	for _, tt := range tests {
		out := mustCompile(t, tt.clause, tt.want)
		if got := out.String(); got != tt.expected {
			t.Fatalf("Compile(%q) = %s, expected %s", tt.clause, got, tt.expected)
		}
	}
}

func TestCompileNumericPromotion(t *testing.T) {
	tests := []struct {
		clause       string
		expectedType types.Type
		converted    bool
	}{
		{"1 + 2", types.Int, false},
		{"1.5 + 2", types.Double, true},
		{"1 + 2.5", types.Double, true},
		{"1.5 * 2.5", types.Double, false},
		{"1 % 2", types.Int, false},
		{"1.5 % 2", types.Double, true},
	}

	for _, tt := range tests {
		out := mustCompile(t, tt.clause, tt.expectedType)
		if out.Type() != tt.expectedType {
			t.Fatalf("Compile(%q) type = %v, expected %v", tt.clause, out.Type(), tt.expectedType)
		}
		hasConvert := strings.Contains(out.String(), "Convert")
		if hasConvert != tt.converted {
			t.Fatalf("Compile(%q) = %s, convert expected=%v", tt.clause, out, tt.converted)
		}
	}

	// ^ always promotes, even for int^int.
	out := mustCompile(t, "2 ^ 3", types.Double)
	if !strings.Contains(out.String(), "Convert(Constant(2), Double)") {
		t.Fatalf("int^int should promote both sides, got %s", out)
	}
}

func checkError(t *testing.T, clause string, want types.Type, position int, text, contains string) {
	t.Helper()

	_, err := compile(t, clause, want)
	if err == nil {
		t.Fatalf("Compile(%q) should have failed", clause)
	}

	qe, ok := err.(*errors.Error)
	if !ok {
		t.Fatalf("Compile(%q) - wrong error type %T", clause, err)
	}
	if qe.Position != position {
		t.Fatalf("Compile(%q) - position = %d, expected %d", clause, qe.Position, position)
	}
	if qe.Text != text {
		t.Fatalf("Compile(%q) - text = %q, expected %q", clause, qe.Text, text)
	}
	if !strings.Contains(qe.Error(), contains) {
		t.Fatalf("Compile(%q) - message %q should contain %q", clause, qe.Error(), contains)
	}
}

func TestCompileTypeMismatches(t *testing.T) {
	checkError(t, `"A" ^ 2`, types.Double, 1, `"A"`,
		"The value on the left must be a Int or a Double.")
	checkError(t, `2 ^ "A"`, types.Double, 5, `"A"`,
		"The value on the right must be a Int or a Double.")
	checkError(t, "Id[2]", types.Char, 1, "Id",
		"The indexed field must be a String.")
	checkError(t, `Name["x"]`, types.Char, 6, `"x"`,
		"The index must be a Int.")
	checkError(t, "NOT Id", types.Boolean, 5, "Id",
		"The value must be a Boolean.")
	checkError(t, "-Name", types.Int, 2, "Name",
		"The value must be a Int or a Double.")
	checkError(t, `Id < "A"`, types.Boolean, 6, `"A"`,
		"The value on the right must be a Int.")
	checkError(t, `Name < "A"`, types.Boolean, 1, "Name",
		"The value on the left must be a Int or a Double or a Char.")
	checkError(t, `Id BETWEEN 1 AND "A"`, types.Boolean, 18, `"A"`,
		"The upper bound must be a Int.")
	checkError(t, `Id BETWEEN "A" AND 2`, types.Boolean, 12, `"A"`,
		"The lower bound must be a Int.")
	checkError(t, `Id IN (1, "A")`, types.Boolean, 11, `"A"`,
		"The choice must be a Int.")
	checkError(t, `Id IS true`, types.Boolean, 1, "Id",
		"The value on the left must be a Boolean.")
	checkError(t, `Id = "A"`, types.Boolean, 6, `"A"`,
		"The value on the right must be a Int.")
	checkError(t, `Id CONTAINS "A"`, types.Boolean, 1, "Id",
		"The value on the left must be a String.")
	checkError(t, `Done AND Id`, types.Boolean, 10, "Id",
		"The value on the right must be a Boolean.")
	checkError(t, `Id AND Done`, types.Boolean, 1, "Id",
		"The value on the left must be a Boolean.")
	checkError(t, `MAX(1, "A")`, types.Int, 8, `"A"`,
		"The argument must be a Int.")
	checkError(t, "Name = null", types.Boolean, 8, "null",
		"The value on the right must be a String.")
}

func TestCompileUnknownMember(t *testing.T) {
	checkError(t, "Missing > 2", types.Boolean, 1, "Missing",
		"'Missing' is not a public member of 'record'.")
}

func TestCompileUnsupportedMethod(t *testing.T) {
	checkError(t, "Floor(2)", types.Int, 1, "Floor",
		"Method 'FLOOR' not supported.")
}

func TestCompileResultMismatch(t *testing.T) {
	checkError(t, "1 + 2", types.Boolean, 3, "+",
		"The result of the expression must be a Boolean.")
}

func TestCompileCaseInsensitiveCall(t *testing.T) {
	out := mustCompile(t, "max(1, 2)", types.Int)
	if out.String() != "Call(MAX, Constant(1), Constant(2))" {
		t.Fatalf("case-insensitive call failed: %s", out)
	}
}
