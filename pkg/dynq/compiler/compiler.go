// Package compiler type-checks a rebalanced parse tree and emits the typed
// expression tree, rooted at an instance placeholder for the record type.
package compiler

import (
	"strings"

	"github.com/AndreVianna/dynamicquery/pkg/dynq/ast"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/errors"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/expr"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/lexer"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/schema"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/types"
)

// builtin describes one entry of the fixed function table.
type builtin struct {
	name string
	args []types.Type
	ret  types.Type
}

// builtins is the fixed table of callable functions. Lookup is
// case-insensitive; initialized once and read-only afterwards.
var builtins = map[string]builtin{
	"MAX": {name: "MAX", args: []types.Type{types.Int, types.Int}, ret: types.Int},
	"MIN": {name: "MIN", args: []types.Type{types.Int, types.Int}, ret: types.Int},
}

// stringMethods maps the text operators to the string method they call.
var stringMethods = map[string]string{
	"CONTAINS":   "Contains",
	"STARTSWITH": "StartsWith",
	"ENDSWITH":   "EndsWith",
}

// Compile transforms the rebalanced tree into a typed expression against
// the given record schema. The root's type must match want.
func Compile(root *ast.TreeNode, s *schema.Schema, want types.Type) (expr.Node, error) {
	c := &compiler{
		schema:   s,
		instance: &expr.Instance{Record: s.Name()},
	}

	out, err := c.transform(root)
	if err != nil {
		return nil, err
	}

	if out.Type() != want {
		return nil, errors.NewAt("FILTER-0005", root.Token.Position, root.Token.Text,
			map[string]any{"Type": want.String()})
	}

	return out, nil
}

type compiler struct {
	schema   *schema.Schema
	instance *expr.Instance
}

// transform emits the typed subexpression for one tree node.
func (c *compiler) transform(node *ast.TreeNode) (expr.Node, error) {
	switch {
	case node.Token.Kind == lexer.Value:
		return c.transformValue(node)
	case node.IsField:
		return c.transformField(node)
	case node.Token.Kind == lexer.Named:
		return c.transformCall(node)
	default:
		return c.transformOperator(node)
	}
}

// transformValue emits a typed constant, applying the string-indexing rule
// when the leaf carries an index child.
func (c *compiler) transformValue(node *ast.TreeNode) (expr.Node, error) {
	constant := &expr.Constant{Of: node.Token.ValueType, Value: node.Token.Value}
	if len(node.Children) == 0 {
		return constant, nil
	}
	return c.index(node, constant, "indexed value")
}

// transformField looks the name up on the record schema and emits a
// property access.
func (c *compiler) transformField(node *ast.TreeNode) (expr.Node, error) {
	field, ok := c.schema.Field(node.Token.Text)
	if !ok {
		return nil, errors.NewAt("FILTER-0002", node.Token.Position, node.Token.Text,
			map[string]any{"Name": node.Token.Text, "Record": c.schema.Name()})
	}

	property := &expr.Property{
		Target: c.instance,
		Name:   field.Name,
		Of:     field.Of,
		Access: field,
	}
	if len(node.Children) == 0 {
		return property, nil
	}
	return c.index(node, property, "indexed field")
}

// index applies the string char-indexing rule to an indexed leaf.
func (c *compiler) index(node *ast.TreeNode, operand expr.Node, role string) (expr.Node, error) {
	if operand.Type() != types.String {
		return nil, c.typeError(node.Token, role, types.String)
	}

	arg, err := c.transform(node.Children[0])
	if err != nil {
		return nil, err
	}
	if arg.Type() != types.Int {
		return nil, c.typeError(node.Children[0].Token, "index", types.Int)
	}

	return &expr.Index{Operand: operand, Arg: arg}, nil
}

// transformCall resolves the name in the builtin table and emits a static
// call.
func (c *compiler) transformCall(node *ast.TreeNode) (expr.Node, error) {
	name := strings.ToUpper(node.Token.Text)

	fn, ok := builtins[name]
	if !ok {
		return nil, errors.NewAt("FILTER-0004", node.Token.Position, node.Token.Text,
			map[string]any{"Name": name})
	}

	if len(node.Children) != len(fn.args) {
		return nil, errors.NewAt("FILTER-0001", node.Token.Position, node.Token.Text, nil)
	}

	args := make([]expr.Node, len(node.Children))
	for i, child := range node.Children {
		arg, err := c.transform(child)
		if err != nil {
			return nil, err
		}
		if arg.Type() != fn.args[i] {
			return nil, c.typeError(child.Token, "argument", fn.args[i])
		}
		args[i] = arg
	}

	return &expr.Call{Name: fn.name, Args: args, Of: fn.ret}, nil
}

// transformOperator dispatches on the canonical symbol.
func (c *compiler) transformOperator(node *ast.TreeNode) (expr.Node, error) {
	switch sym := node.Token.Symbol; sym {
	case "[-]", "[+]":
		return c.transformSign(node, sym == "[-]")
	case "NOT":
		return c.transformNot(node)
	case "BETWEEN":
		return c.transformBetween(node)
	case "IN":
		return c.transformIn(node)
	case "IS":
		return c.transformIs(node)
	case "CONTAINS", "STARTSWITH", "ENDSWITH":
		return c.transformTextOp(node, stringMethods[sym])
	case "^":
		return c.transformPower(node)
	case "*", "/", "%", "+", "-":
		return c.transformArithmetic(node, sym)
	case "<", ">", "<=", ">=":
		return c.transformComparison(node, sym)
	case "=", "<>":
		return c.transformEquality(node, sym == "<>")
	case "AND", "OR":
		return c.transformLogical(node, sym == "AND")
	}

	return nil, errors.NewAt("FILTER-0001", node.Token.Position, node.Token.Text, nil)
}

func (c *compiler) transformSign(node *ast.TreeNode, negate bool) (expr.Node, error) {
	operand, err := c.transform(node.Children[0])
	if err != nil {
		return nil, err
	}
	if !operand.Type().IsNumeric() {
		return nil, c.typeError(node.Children[0].Token, "value", types.Int, types.Double)
	}

	if !negate {
		return operand, nil
	}
	return &expr.Unary{Op: expr.Negate, Operand: operand, Of: operand.Type()}, nil
}

func (c *compiler) transformNot(node *ast.TreeNode) (expr.Node, error) {
	operand, err := c.transform(node.Children[0])
	if err != nil {
		return nil, err
	}
	if operand.Type() != types.Boolean {
		return nil, c.typeError(node.Children[0].Token, "value", types.Boolean)
	}

	return &expr.Unary{Op: expr.Not, Operand: operand, Of: types.Boolean}, nil
}

// transformBetween expands "x BETWEEN lo AND hi" into x >= lo AND x <= hi.
func (c *compiler) transformBetween(node *ast.TreeNode) (expr.Node, error) {
	operand, err := c.transform(node.Children[0])
	if err != nil {
		return nil, err
	}
	if !operand.Type().IsOrdered() {
		return nil, c.typeError(node.Children[0].Token, "value on the left",
			types.Int, types.Double, types.Char)
	}

	lower, err := c.transform(node.Children[1])
	if err != nil {
		return nil, err
	}
	if lower.Type() != operand.Type() {
		return nil, c.typeError(node.Children[1].Token, "lower bound", operand.Type())
	}

	upper, err := c.transform(node.Children[2])
	if err != nil {
		return nil, err
	}
	if upper.Type() != operand.Type() {
		return nil, c.typeError(node.Children[2].Token, "upper bound", operand.Type())
	}

	return &expr.Binary{
		Op:    expr.And,
		Left:  &expr.Binary{Op: expr.GreaterOrEqual, Left: operand, Right: lower, Of: types.Boolean},
		Right: &expr.Binary{Op: expr.LessOrEqual, Left: operand, Right: upper, Of: types.Boolean},
		Of:    types.Boolean,
	}, nil
}

// transformIn folds the choices into a right-nested disjunction with a
// false seed, preserving left-to-right evaluation order.
func (c *compiler) transformIn(node *ast.TreeNode) (expr.Node, error) {
	operand, err := c.transform(node.Children[0])
	if err != nil {
		return nil, err
	}

	choices := node.Children[1:]
	equalities := make([]expr.Node, len(choices))
	for i, choice := range choices {
		ch, err := c.transform(choice)
		if err != nil {
			return nil, err
		}
		if ch.Type() != operand.Type() {
			return nil, c.typeError(choice.Token, "choice", operand.Type())
		}
		equalities[i] = &expr.Binary{Op: expr.Equal, Left: operand, Right: ch, Of: types.Boolean}
	}

	acc := equalities[len(equalities)-1]
	for i := len(equalities) - 2; i >= 0; i-- {
		acc = &expr.Binary{Op: expr.Or, Left: equalities[i], Right: acc, Of: types.Boolean}
	}

	return &expr.Binary{
		Op:    expr.Or,
		Left:  &expr.Constant{Of: types.Boolean, Value: false},
		Right: acc,
		Of:    types.Boolean,
	}, nil
}

func (c *compiler) transformIs(node *ast.TreeNode) (expr.Node, error) {
	left, err := c.transform(node.Children[0])
	if err != nil {
		return nil, err
	}
	if left.Type() != types.Boolean {
		return nil, c.typeError(node.Children[0].Token, "value on the left", types.Boolean)
	}

	right, err := c.transform(node.Children[1])
	if err != nil {
		return nil, err
	}
	if right.Type() != left.Type() {
		return nil, c.typeError(node.Children[1].Token, "value on the right", left.Type())
	}

	return &expr.Binary{Op: expr.Equal, Left: left, Right: right, Of: types.Boolean}, nil
}

func (c *compiler) transformTextOp(node *ast.TreeNode, method string) (expr.Node, error) {
	left, err := c.transform(node.Children[0])
	if err != nil {
		return nil, err
	}
	if left.Type() != types.String {
		return nil, c.typeError(node.Children[0].Token, "value on the left", types.String)
	}

	right, err := c.transform(node.Children[1])
	if err != nil {
		return nil, err
	}
	if right.Type() != types.String {
		return nil, c.typeError(node.Children[1].Token, "value on the right", types.String)
	}

	return &expr.Call{Target: left, Name: method, Args: []expr.Node{right}, Of: types.Boolean}, nil
}

// transformPower always promotes both sides to Double, unlike the other
// arithmetic operators.
func (c *compiler) transformPower(node *ast.TreeNode) (expr.Node, error) {
	left, err := c.transform(node.Children[0])
	if err != nil {
		return nil, err
	}
	if !left.Type().IsNumeric() {
		return nil, c.typeError(node.Children[0].Token, "value on the left", types.Int, types.Double)
	}

	right, err := c.transform(node.Children[1])
	if err != nil {
		return nil, err
	}
	if !right.Type().IsNumeric() {
		return nil, c.typeError(node.Children[1].Token, "value on the right", types.Int, types.Double)
	}

	return &expr.Binary{
		Op:    expr.Power,
		Left:  promote(left),
		Right: promote(right),
		Of:    types.Double,
	}, nil
}

func (c *compiler) transformArithmetic(node *ast.TreeNode, sym string) (expr.Node, error) {
	left, err := c.transform(node.Children[0])
	if err != nil {
		return nil, err
	}
	if !left.Type().IsNumeric() {
		return nil, c.typeError(node.Children[0].Token, "value on the left", types.Int, types.Double)
	}

	right, err := c.transform(node.Children[1])
	if err != nil {
		return nil, err
	}
	if !right.Type().IsNumeric() {
		return nil, c.typeError(node.Children[1].Token, "value on the right", types.Int, types.Double)
	}

	of := types.Wider(left.Type(), right.Type())
	if of == types.Double {
		left = promote(left)
		right = promote(right)
	}

	var op expr.Op
	switch sym {
	case "*":
		op = expr.Multiply
	case "/":
		op = expr.Divide
	case "%":
		op = expr.Modulo
	case "+":
		op = expr.Add
	case "-":
		op = expr.Subtract
	}

	return &expr.Binary{Op: op, Left: left, Right: right, Of: of}, nil
}

func (c *compiler) transformComparison(node *ast.TreeNode, sym string) (expr.Node, error) {
	left, err := c.transform(node.Children[0])
	if err != nil {
		return nil, err
	}
	if !left.Type().IsOrdered() {
		return nil, c.typeError(node.Children[0].Token, "value on the left",
			types.Int, types.Double, types.Char)
	}

	right, err := c.transform(node.Children[1])
	if err != nil {
		return nil, err
	}
	if right.Type() != left.Type() {
		return nil, c.typeError(node.Children[1].Token, "value on the right", left.Type())
	}

	var op expr.Op
	switch sym {
	case "<":
		op = expr.Less
	case ">":
		op = expr.Greater
	case "<=":
		op = expr.LessOrEqual
	case ">=":
		op = expr.GreaterOrEqual
	}

	return &expr.Binary{Op: op, Left: left, Right: right, Of: types.Boolean}, nil
}

func (c *compiler) transformEquality(node *ast.TreeNode, negated bool) (expr.Node, error) {
	left, err := c.transform(node.Children[0])
	if err != nil {
		return nil, err
	}

	right, err := c.transform(node.Children[1])
	if err != nil {
		return nil, err
	}
	if right.Type() != left.Type() {
		return nil, c.typeError(node.Children[1].Token, "value on the right", left.Type())
	}

	op := expr.Equal
	if negated {
		op = expr.NotEqual
	}
	return &expr.Binary{Op: op, Left: left, Right: right, Of: types.Boolean}, nil
}

func (c *compiler) transformLogical(node *ast.TreeNode, and bool) (expr.Node, error) {
	left, err := c.transform(node.Children[0])
	if err != nil {
		return nil, err
	}
	if left.Type() != types.Boolean {
		return nil, c.typeError(node.Children[0].Token, "value on the left", types.Boolean)
	}

	right, err := c.transform(node.Children[1])
	if err != nil {
		return nil, err
	}
	if right.Type() != left.Type() {
		return nil, c.typeError(node.Children[1].Token, "value on the right", left.Type())
	}

	op := expr.Or
	if and {
		op = expr.And
	}
	return &expr.Binary{Op: op, Left: left, Right: right, Of: types.Boolean}, nil
}

// promote wraps an Int operand in a conversion to Double.
func promote(n expr.Node) expr.Node {
	if n.Type() == types.Int {
		return &expr.Convert{Operand: n, Of: types.Double}
	}
	return n
}

// typeError reports an operand type violation, quoting the operand's
// originating token and the expected type set.
func (c *compiler) typeError(tok *lexer.Token, role string, expected ...types.Type) *errors.Error {
	names := make([]string, len(expected))
	for i, t := range expected {
		names[i] = t.String()
	}

	return errors.NewAt("FILTER-0003", tok.Position, tok.Text, map[string]any{
		"Role":     role,
		"Expected": strings.Join(names, " or a "),
	})
}
