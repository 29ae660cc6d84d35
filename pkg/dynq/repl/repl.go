// Package repl provides an interactive playground for filter and sort
// clauses against an in-memory record set.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/AndreVianna/dynamicquery/pkg/dynq/dynq"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/lexer"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/parser"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/schema"
)

const PROMPT = ">> "

const LOGO = `
█▀▄ █▄█ █▄░█ █▀█
█▄▀ ░█░ █░▀█ ▀▀█ `

// Clause keywords and builtins for tab completion
var completionWords = []string{
	"AND", "OR", "NOT", "BETWEEN", "IN", "IS",
	"CONTAINS", "STARTSWITH", "ENDSWITH",
	"MAX", "MIN",
	"true", "false", "null",
	":fields", ":sort", ":tree", ":quit",
}

// Start runs the REPL against the given schema and record set, with line
// editing, history, and tab completion.
func Start(s *schema.Schema, records []map[string]any, out io.Writer, version string) {
	line := liner.NewLiner()
	defer line.Close()

	// Enable Ctrl+C to abort current line
	line.SetCtrlCAborts(true)

	words := append([]string{}, completionWords...)
	words = append(words, s.Fields()...)
	line.SetCompleter(func(input string) []string {
		return filterCompletions(words, input)
	})

	// Load command history from file
	historyFile := filepath.Join(os.TempDir(), ".dynq_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	// Save history on exit
	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Fprintln(out, LOGO)
	fmt.Fprintf(out, "dynq %s — %d %s records loaded\n", version, len(records), s.Name())
	fmt.Fprintln(out, "enter a filter clause, :sort <clause>, :tree <clause>, :fields, or :quit")

	for {
		input, err := line.Prompt(PROMPT)
		if err != nil {
			if err == liner.ErrPromptAborted {
				continue
			}
			fmt.Fprintln(out)
			return
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		switch {
		case input == ":quit" || input == ":q":
			return
		case input == ":fields":
			printFields(out, s)
		case strings.HasPrefix(input, ":sort "):
			runSort(out, s, records, strings.TrimPrefix(input, ":sort "))
		case strings.HasPrefix(input, ":tree "):
			printTree(out, strings.TrimPrefix(input, ":tree "))
		default:
			runFilter(out, s, records, input)
		}
	}
}

func printFields(out io.Writer, s *schema.Schema) {
	for _, name := range s.Fields() {
		f, _ := s.Field(name)
		fmt.Fprintf(out, "  %-20s %s\n", name, f.Of)
	}
}

func runFilter(out io.Writer, s *schema.Schema, records []map[string]any, clause string) {
	matched, err := dynq.FilterRecords(s, records, clause)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}

	fmt.Fprintf(out, "%d of %d records match\n", len(matched), len(records))
	printRecords(out, s, matched)
}

func runSort(out io.Writer, s *schema.Schema, records []map[string]any, clause string) {
	sorted, err := dynq.SortRecords(s, records, clause)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	printRecords(out, s, sorted)
}

func printTree(out io.Writer, clause string) {
	head, err := lexer.Tokenize(clause)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}

	root, err := parser.Parse(head)
	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}

	fmt.Fprintln(out, parser.Rebalance(root).String())
}

func printRecords(out io.Writer, s *schema.Schema, records []map[string]any) {
	const limit = 20

	fields := s.Fields()
	for i, record := range records {
		if i == limit {
			fmt.Fprintf(out, "  ... %d more\n", len(records)-limit)
			return
		}
		parts := make([]string, len(fields))
		for j, name := range fields {
			parts[j] = fmt.Sprintf("%s=%v", name, record[name])
		}
		fmt.Fprintf(out, "  %s\n", strings.Join(parts, "  "))
	}
}

// filterCompletions returns completion words matching the trailing word of
// the input line.
func filterCompletions(words []string, input string) []string {
	trimmed := strings.TrimLeft(input, " ")
	lastSpace := strings.LastIndex(trimmed, " ")
	prefix := trimmed
	base := ""
	if lastSpace >= 0 {
		base = trimmed[:lastSpace+1]
		prefix = trimmed[lastSpace+1:]
	}
	if prefix == "" {
		return nil
	}

	var out []string
	for _, word := range words {
		if strings.HasPrefix(strings.ToLower(word), strings.ToLower(prefix)) {
			out = append(out, base+word)
		}
	}
	return out
}
