// Package lexer turns a clause string into a doubly-linked token chain.
//
// The lexical grammar is small but irregular: char literals with a fixed
// escape set, double-quoted strings, decimal and integer numbers,
// multi-character symbols, and words that classify into literals, reserved
// symbols, or identifiers. Keywords and symbols are case-insensitive.
package lexer

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/AndreVianna/dynamicquery/pkg/dynq/errors"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/types"
)

// Lexeme patterns, anchored at the current offset. Built once at init and
// read-only afterwards, so concurrent Tokenize calls can share them.
var (
	reChar    = regexp.MustCompile(`^'(\\[\\'trn]|[^\\'])'`)
	reString  = regexp.MustCompile(`^"[^"]*"`)
	reDecimal = regexp.MustCompile(`^(\d+\.\d*|\.\d+)`)
	reInteger = regexp.MustCompile(`^\d+`)
	reWord    = regexp.MustCompile(`^\w+`)
)

// Multi-character symbols first so "<=" never lexes as "<" then "=".
var symbols = []string{
	"<>", "<=", ">=",
	"[", "]", "(", ")", ",",
	"+", "-", "*", "/", "%", "^",
	"=", "<", ">",
}

// Reserved words become Symbol tokens with an uppercase canonical form.
var reserved = map[string]bool{
	"AND":        true,
	"OR":         true,
	"NOT":        true,
	"BETWEEN":    true,
	"IN":         true,
	"IS":         true,
	"CONTAINS":   true,
	"STARTSWITH": true,
	"ENDSWITH":   true,
}

// Tokenize scans the clause and returns the head of the token chain.
//
// Positions are 1-based character columns. When no rule matches, the scan
// fails with a syntax error quoting the offending character.
func Tokenize(clause string) (*Token, error) {
	var head, tail *Token

	offset := 0 // byte offset into clause
	column := 1 // 1-based character column

	emit := func(tok *Token, consumed string) {
		tok.Position = column
		if head == nil {
			head = tok
		} else {
			tok.Prev = tail
			tail.Next = tok
		}
		tail = tok
		offset += len(consumed)
		column += utf8.RuneCountInString(consumed)
	}

	for offset < len(clause) {
		rest := clause[offset:]

		// Whitespace separates tokens but produces none.
		r, size := utf8.DecodeRuneInString(rest)
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			offset += size
			column++
			continue
		}

		if m := reChar.FindString(rest); m != "" {
			emit(&Token{Kind: Value, Text: m, ValueType: types.Char, Value: decodeChar(m)}, m)
			continue
		}

		if m := reString.FindString(rest); m != "" {
			emit(&Token{Kind: Value, Text: m, ValueType: types.String, Value: m[1 : len(m)-1]}, m)
			continue
		}

		if m := reDecimal.FindString(rest); m != "" {
			v, _ := strconv.ParseFloat(m, 64)
			emit(&Token{Kind: Value, Text: m, ValueType: types.Double, Value: v}, m)
			continue
		}

		if m := reInteger.FindString(rest); m != "" {
			v, _ := strconv.ParseInt(m, 10, 64)
			emit(&Token{Kind: Value, Text: m, ValueType: types.Int, Value: v}, m)
			continue
		}

		if m := matchSymbol(rest); m != "" {
			emit(&Token{Kind: Symbol, Text: m, Symbol: m}, m)
			continue
		}

		if m := reWord.FindString(rest); m != "" {
			emit(classifyWord(m), m)
			continue
		}

		return nil, errors.NewAt("FILTER-0001", column, string(r), nil)
	}

	return head, nil
}

// matchSymbol returns the longest symbol at the start of rest, or "".
func matchSymbol(rest string) string {
	for _, s := range symbols {
		if strings.HasPrefix(rest, s) {
			return s
		}
	}
	return ""
}

// classifyWord resolves a \w+ lexeme into a literal, a reserved symbol, or
// an identifier. Classification is case-insensitive.
func classifyWord(word string) *Token {
	upper := strings.ToUpper(word)

	switch upper {
	case "NULL":
		return &Token{Kind: Value, Text: word, ValueType: types.Object, Value: nil}
	case "TRUE":
		return &Token{Kind: Value, Text: word, ValueType: types.Boolean, Value: true}
	case "FALSE":
		return &Token{Kind: Value, Text: word, ValueType: types.Boolean, Value: false}
	}

	if reserved[upper] {
		return &Token{Kind: Symbol, Text: word, Symbol: upper}
	}

	return &Token{Kind: Named, Text: word}
}

// decodeChar strips the quotes and resolves the escape of a char literal.
func decodeChar(lexeme string) rune {
	inner := lexeme[1 : len(lexeme)-1]
	if strings.HasPrefix(inner, `\`) {
		switch inner[1] {
		case '\\':
			return '\\'
		case '\'':
			return '\''
		case 't':
			return '\t'
		case 'r':
			return '\r'
		case 'n':
			return '\n'
		}
	}
	r, _ := utf8.DecodeRuneInString(inner)
	return r
}
