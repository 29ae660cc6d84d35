package lexer

import (
	"fmt"

	"github.com/AndreVianna/dynamicquery/pkg/dynq/types"
)

// Kind discriminates the three token variants.
type Kind int

const (
	Symbol Kind = iota // operator or reserved word, canonical form in Token.Symbol
	Named              // identifier: potential field or function name
	Value              // literal with a decoded payload
)

// String returns a string representation of the token kind.
func (k Kind) String() string {
	switch k {
	case Symbol:
		return "SYMBOL"
	case Named:
		return "NAMED"
	case Value:
		return "VALUE"
	default:
		return "UNKNOWN"
	}
}

// Token represents a single token in the clause.
//
// Tokens form a doubly-linked chain in source order so the parser can peek
// across a token in either direction without extra state. Prev and Next are
// set by the lexer as tokens are emitted; everything else is immutable.
type Token struct {
	Kind     Kind
	Position int    // 1-based column in the original clause
	Text     string // exact source lexeme

	Symbol string // canonical (uppercased) form, Symbol tokens only

	ValueType types.Type // payload type, Value tokens only
	Value     any        // decoded payload, Value tokens only

	Prev *Token
	Next *Token
}

// String returns a string representation of the token.
func (t *Token) String() string {
	switch t.Kind {
	case Symbol:
		return fmt.Sprintf("{SYMBOL %s at %d}", t.Symbol, t.Position)
	case Named:
		return fmt.Sprintf("{NAMED %s at %d}", t.Text, t.Position)
	default:
		return fmt.Sprintf("{VALUE %s %v at %d}", t.ValueType, t.Value, t.Position)
	}
}

// IsSymbol reports whether t is a Symbol token with the given canonical form.
func (t *Token) IsSymbol(symbol string) bool {
	return t != nil && t.Kind == Symbol && t.Symbol == symbol
}
