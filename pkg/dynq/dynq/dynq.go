// Package dynq is the public surface of the clause compiler: filtering and
// sorting of in-memory record sequences by user-supplied textual clauses.
//
// FilterBy and SortBy work on slices of any struct type; the struct's
// exported fields are the valid field names. FilterRecords and SortRecords
// are the schema-driven variants for dynamic records stored as column maps.
package dynq

import (
	"reflect"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/AndreVianna/dynamicquery/pkg/dynq/compiler"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/errors"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/expr"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/lexer"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/parser"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/schema"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/types"
)

// CompileFilter runs the full pipeline for a filter clause against the
// given schema: lex, parse, rebalance, type-check to a Boolean expression.
func CompileFilter(s *schema.Schema, clause string) (expr.Node, error) {
	if strings.TrimSpace(clause) == "" {
		return nil, errors.New("ARG-0001", nil)
	}

	head, err := lexer.Tokenize(clause)
	if err != nil {
		return nil, err
	}

	root, err := parser.Parse(head)
	if err != nil {
		return nil, err
	}
	root = parser.Rebalance(root)

	return compiler.Compile(root, s, types.Boolean)
}

// FilterBy returns the elements of source matching the filter clause, in
// input order.
func FilterBy[T any](source []T, clause string) ([]T, error) {
	s, err := schemaFor[T]()
	if err != nil {
		return nil, err
	}
	return filterWith(s, source, clause)
}

// FilterRecords filters column-map records against an explicit schema.
func FilterRecords(s *schema.Schema, source []map[string]any, clause string) ([]map[string]any, error) {
	return filterWith(s, source, clause)
}

func filterWith[T any](s *schema.Schema, source []T, clause string) ([]T, error) {
	predicate, err := CompileFilter(s, clause)
	if err != nil {
		return nil, err
	}

	var out []T
	for _, record := range source {
		v, err := expr.Eval(predicate, record)
		if err != nil {
			return nil, err
		}
		if v == true {
			out = append(out, record)
		}
	}
	return out, nil
}

// SortBy returns source reordered by the sort clause. Each comma-separated
// item is "field", "field ASC", or "field DESC"; items compose into a
// single stable multi-key ordering with the first item as the primary key.
func SortBy[T any](source []T, clause string) ([]T, error) {
	s, err := schemaFor[T]()
	if err != nil {
		return nil, err
	}
	return sortWith(s, source, clause, nil)
}

// SortByCollated is SortBy with language-aware ordering of string keys.
func SortByCollated[T any](source []T, clause string, tag language.Tag) ([]T, error) {
	s, err := schemaFor[T]()
	if err != nil {
		return nil, err
	}
	return sortWith(s, source, clause, collate.New(tag))
}

// SortRecords sorts column-map records against an explicit schema.
func SortRecords(s *schema.Schema, source []map[string]any, clause string) ([]map[string]any, error) {
	return sortWith(s, source, clause, nil)
}

func schemaFor[T any]() (*schema.Schema, error) {
	return schema.Of(reflect.TypeOf((*T)(nil)).Elem())
}
