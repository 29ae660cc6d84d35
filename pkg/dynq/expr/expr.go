// Package expr defines the typed expression tree the compiler emits.
//
// The tree is a neutral description of the compiled clause: constants,
// record-property accesses, operators, conversions, indexers, and calls,
// each carrying its result type. The tree is bound to an Instance
// placeholder standing for "the current record"; Eval applies it to one
// concrete record at a time.
package expr

import (
	"bytes"
	"fmt"

	"github.com/AndreVianna/dynamicquery/pkg/dynq/types"
)

// Node is one typed subexpression.
type Node interface {
	Type() types.Type
	String() string
}

// Accessor extracts a field value from a record. Implementations come from
// the schema layer so the tree stays free of reflection.
type Accessor interface {
	Value(record any) any
}

// Op identifies an operator.
type Op int

const (
	Negate Op = iota
	Not
	Add
	Subtract
	Multiply
	Divide
	Modulo
	Power
	Equal
	NotEqual
	Less
	Greater
	LessOrEqual
	GreaterOrEqual
	And
	Or
)

// String returns the operator's display name.
func (op Op) String() string {
	switch op {
	case Negate:
		return "Negate"
	case Not:
		return "Not"
	case Add:
		return "Add"
	case Subtract:
		return "Subtract"
	case Multiply:
		return "Multiply"
	case Divide:
		return "Divide"
	case Modulo:
		return "Modulo"
	case Power:
		return "Power"
	case Equal:
		return "Equal"
	case NotEqual:
		return "NotEqual"
	case Less:
		return "LessThan"
	case Greater:
		return "GreaterThan"
	case LessOrEqual:
		return "LessThanOrEqual"
	case GreaterOrEqual:
		return "GreaterThanOrEqual"
	case And:
		return "And"
	case Or:
		return "Or"
	default:
		return "Unknown"
	}
}

// Constant is a literal value.
type Constant struct {
	Of    types.Type
	Value any
}

func (c *Constant) Type() types.Type { return c.Of }
func (c *Constant) String() string   { return fmt.Sprintf("Constant(%v)", c.Value) }

// Instance is the placeholder for the current record.
type Instance struct {
	Record string // record type name, for error messages and display
}

func (i *Instance) Type() types.Type { return types.Object }
func (i *Instance) String() string   { return "instance" }

// Property is a record field access on the instance placeholder.
type Property struct {
	Target *Instance
	Name   string
	Of     types.Type
	Access Accessor
}

func (p *Property) Type() types.Type { return p.Of }
func (p *Property) String() string   { return fmt.Sprintf("Property(%s, %q)", p.Target, p.Name) }

// Unary is a prefix operator application.
type Unary struct {
	Op      Op
	Operand Node
	Of      types.Type
}

func (u *Unary) Type() types.Type { return u.Of }
func (u *Unary) String() string   { return fmt.Sprintf("%s(%s)", u.Op, u.Operand) }

// Binary is an infix operator application. Operand types are already
// reconciled by the compiler; And/Or evaluate left to right and
// short-circuit.
type Binary struct {
	Op    Op
	Left  Node
	Right Node
	Of    types.Type
}

func (b *Binary) Type() types.Type { return b.Of }
func (b *Binary) String() string   { return fmt.Sprintf("%s(%s, %s)", b.Op, b.Left, b.Right) }

// Convert widens a numeric operand to Double.
type Convert struct {
	Operand Node
	Of      types.Type
}

func (c *Convert) Type() types.Type { return c.Of }
func (c *Convert) String() string   { return fmt.Sprintf("Convert(%s, %s)", c.Operand, c.Of) }

// Index is a character index into a string operand.
type Index struct {
	Operand Node
	Arg     Node
}

func (i *Index) Type() types.Type { return types.Char }
func (i *Index) String() string   { return fmt.Sprintf("Index(%s, %s)", i.Operand, i.Arg) }

// Call is a builtin function call (Target nil) or a string method call on
// Target.
type Call struct {
	Target Node // nil for static builtins
	Name   string
	Args   []Node
	Of     types.Type
}

func (c *Call) Type() types.Type { return c.Of }

func (c *Call) String() string {
	var out bytes.Buffer
	out.WriteString("Call(")
	if c.Target != nil {
		out.WriteString(c.Target.String())
		out.WriteString(".")
	}
	out.WriteString(c.Name)
	for _, a := range c.Args {
		out.WriteString(", ")
		out.WriteString(a.String())
	}
	out.WriteString(")")
	return out.String()
}
