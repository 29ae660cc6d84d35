// Package parser builds a TreeNode graph from a token chain.
//
// The parser is a recursive descent driver with a single mutable cursor
// into the doubly-linked token stream. It builds a left-leaning tree in one
// forward pass; Rebalance repairs operator precedence afterwards.
package parser

import (
	"github.com/AndreVianna/dynamicquery/pkg/dynq/ast"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/errors"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/lexer"
)

// scope identifies the stopping rule for the current parse frame.
type scope int

const (
	scopeRoot     scope = iota
	scopeScope          // inside ( ... ): stops at )
	scopeArgument       // inside a call or IN list: stops at ) or ,
	scopeIndex          // inside [ ... ]: stops at ]
	scopeBetween        // BETWEEN lower bound: stops at AND
)

// stops reports whether sym ends the current scope without being consumed.
func (s scope) stops(sym string) bool {
	switch s {
	case scopeScope:
		return sym == ")"
	case scopeArgument:
		return sym == ")" || sym == ","
	case scopeIndex:
		return sym == "]"
	case scopeBetween:
		return sym == "AND"
	}
	return false
}

// Parser walks the token chain with cur as the last consumed token.
type Parser struct {
	cur *lexer.Token
}

// Parse builds the parse tree for a full clause. The returned tree is
// left-leaning; run Rebalance before type checking.
func Parse(head *lexer.Token) (*ast.TreeNode, error) {
	if head == nil {
		return nil, errors.NewAt("FILTER-0001", 1, "", nil)
	}

	p := &Parser{cur: head}
	return p.parseSubtree(scopeRoot)
}

// parseSubtree builds a subtree in the given scope context. On entry cur is
// the first token of the subtree; on exit cur is the subtree's last token,
// with the scope's stop symbol (if any) left unconsumed.
func (p *Parser) parseSubtree(sc scope) (*ast.TreeNode, error) {
	acc, err := p.parseNode()
	if err != nil {
		return nil, err
	}

	for {
		next := p.cur.Next
		if next == nil {
			break
		}
		if next.Kind == lexer.Symbol && sc.stops(next.Symbol) {
			break
		}

		p.cur = next
		acc, err = p.combine(acc)
		if err != nil {
			return nil, err
		}
	}

	return acc, nil
}

// parseNode builds a single operand node from the current token: a scope,
// a prefix unary, a call, a field, or a value.
func (p *Parser) parseNode() (*ast.TreeNode, error) {
	tok := p.cur

	if tok.Kind == lexer.Symbol {
		switch tok.Symbol {
		case "(":
			return p.parseScope()
		case "+", "-":
			return p.parseUnary("[" + tok.Symbol + "]")
		case "NOT":
			return p.parseUnary("NOT")
		}
		return nil, p.syntaxError(tok)
	}

	// Two adjacent operands are a syntax error: a value, field, or call may
	// only follow an operator, never another operand or a closing bracket.
	if prev := tok.Prev; prev != nil {
		if prev.Kind != lexer.Symbol || prev.Symbol == "]" || prev.Symbol == ")" {
			return nil, p.syntaxError(tok)
		}
	}

	if tok.Kind == lexer.Named && tok.Next.IsSymbol("(") {
		return p.parseCall(tok)
	}

	node := ast.NewLeaf(tok, tok.Kind == lexer.Named)
	return p.parseIndexSuffix(node)
}

// parseScope consumes "( expr )" and returns the inner subtree.
func (p *Parser) parseScope() (*ast.TreeNode, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}

	inner, err := p.parseSubtree(scopeScope)
	if err != nil {
		return nil, err
	}
	inner.Scoped = true

	return inner, p.expect(")")
}

// parseUnary builds a prefix operator node with a synthesized marker symbol
// so binary + and - stay distinguishable after parsing.
func (p *Parser) parseUnary(marker string) (*ast.TreeNode, error) {
	tok := &lexer.Token{
		Kind:     lexer.Symbol,
		Position: p.cur.Position,
		Text:     p.cur.Text,
		Symbol:   marker,
		Prev:     p.cur.Prev,
		Next:     p.cur.Next,
	}

	if err := p.advance(); err != nil {
		return nil, err
	}

	operand, err := p.parseNode()
	if err != nil {
		return nil, err
	}

	return ast.NewOperator(tok, ast.Prefix, operand), nil
}

// parseCall consumes "NAME ( args )" and returns a call node whose children
// are the argument subtrees.
func (p *Parser) parseCall(name *lexer.Token) (*ast.TreeNode, error) {
	node := &ast.TreeNode{Token: name, Precedence: ast.Atom}

	p.cur = name.Next // the "("

	if p.cur.Next.IsSymbol(")") {
		p.cur = p.cur.Next
		return node, nil
	}

	for {
		if err := p.advance(); err != nil {
			return nil, err
		}

		arg, err := p.parseSubtree(scopeArgument)
		if err != nil {
			return nil, err
		}
		node.Add(arg)

		next := p.cur.Next
		if next.IsSymbol(",") {
			p.cur = next
			continue
		}
		return node, p.expect(")")
	}
}

// parseIndexSuffix appends the "[ expr ]" index child when the leaf is
// immediately followed by an opening bracket.
func (p *Parser) parseIndexSuffix(node *ast.TreeNode) (*ast.TreeNode, error) {
	if !node.Token.Next.IsSymbol("[") {
		return node, nil
	}

	p.cur = node.Token.Next // the "["
	if err := p.advance(); err != nil {
		return nil, err
	}

	index, err := p.parseSubtree(scopeIndex)
	if err != nil {
		return nil, err
	}
	node.Add(index)

	return node, p.expect("]")
}

// combine folds the current token into acc. Only operator symbols can
// continue an expression; anything else is reported by parseNode.
func (p *Parser) combine(acc *ast.TreeNode) (*ast.TreeNode, error) {
	tok := p.cur

	if tok.Kind != lexer.Symbol {
		return p.parseNode()
	}

	switch tok.Symbol {
	case "^":
		return p.parseBinary(acc, ast.Power)
	case "*", "/", "%":
		return p.parseBinary(acc, ast.Product)
	case "+", "-":
		return p.parseBinary(acc, ast.Sum)
	case "<", ">", "<=", ">=", "=", "<>", "CONTAINS", "STARTSWITH", "ENDSWITH":
		return p.parseBinary(acc, ast.Comparison)
	case "BETWEEN":
		return p.parseBetween(acc)
	case "IS":
		return p.parseBinary(acc, ast.Identity)
	case "AND":
		return p.parseBinary(acc, ast.LogicAnd)
	case "OR":
		return p.parseBinary(acc, ast.LogicOr)
	case "IN":
		return p.parseIn(acc)
	}

	return nil, p.syntaxError(tok)
}

// parseBinary builds an operator node over acc and the next single node.
// The tree stays left-leaning; Rebalance fixes precedence later.
func (p *Parser) parseBinary(left *ast.TreeNode, precedence int) (*ast.TreeNode, error) {
	tok := p.cur

	if left == nil {
		return nil, p.syntaxError(tok)
	}

	if err := p.advance(); err != nil {
		return nil, err
	}

	right, err := p.parseNode()
	if err != nil {
		return nil, err
	}

	return ast.NewOperator(tok, precedence, left, right), nil
}

// parseBetween builds the ternary "operand BETWEEN lower AND upper" node.
// The lower bound is a full subexpression stopping at AND; the upper bound
// is a single node.
func (p *Parser) parseBetween(left *ast.TreeNode) (*ast.TreeNode, error) {
	tok := p.cur

	if left == nil {
		return nil, p.syntaxError(tok)
	}

	if err := p.advance(); err != nil {
		return nil, err
	}

	lower, err := p.parseSubtree(scopeBetween)
	if err != nil {
		return nil, err
	}

	if err := p.expect("AND"); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	upper, err := p.parseNode()
	if err != nil {
		return nil, err
	}

	return ast.NewOperator(tok, ast.Comparison, left, lower, upper), nil
}

// parseIn builds the n-ary "operand IN ( choice, ... )" node. At least one
// choice is required.
func (p *Parser) parseIn(left *ast.TreeNode) (*ast.TreeNode, error) {
	tok := p.cur

	if left == nil {
		return nil, p.syntaxError(tok)
	}

	if !p.cur.Next.IsSymbol("(") {
		return nil, p.syntaxErrorAfter()
	}
	p.cur = p.cur.Next

	node := ast.NewOperator(tok, ast.Atom, left)

	for {
		if err := p.advance(); err != nil {
			return nil, err
		}

		choice, err := p.parseSubtree(scopeArgument)
		if err != nil {
			return nil, err
		}
		node.Add(choice)

		next := p.cur.Next
		if next.IsSymbol(",") {
			p.cur = next
			continue
		}
		return node, p.expect(")")
	}
}

// advance moves the cursor to the next token, failing at end of input.
func (p *Parser) advance() error {
	if p.cur.Next == nil {
		return p.syntaxError(p.cur)
	}
	p.cur = p.cur.Next
	return nil
}

// expect consumes the next token, which must be the given symbol.
func (p *Parser) expect(symbol string) error {
	next := p.cur.Next
	if next == nil {
		return p.syntaxError(p.cur)
	}
	if !next.IsSymbol(symbol) {
		return p.syntaxError(next)
	}
	p.cur = next
	return nil
}

// syntaxError reports an unexpected token.
func (p *Parser) syntaxError(tok *lexer.Token) *errors.Error {
	return errors.NewAt("FILTER-0001", tok.Position, tok.Text, nil)
}

// syntaxErrorAfter reports a missing token after the current one.
func (p *Parser) syntaxErrorAfter() *errors.Error {
	next := p.cur.Next
	if next == nil {
		return p.syntaxError(p.cur)
	}
	return p.syntaxError(next)
}
