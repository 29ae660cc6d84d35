package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/AndreVianna/dynamicquery/config"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/dynq"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/errors"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/lexer"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/parser"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/repl"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/schema"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/types"
	"github.com/AndreVianna/dynamicquery/server"
)

// Version is set at compile time via -ldflags
var Version = "0.1.0-dev"

var (
	// Display flags
	helpFlag    = flag.Bool("help", false, "Show help message")
	versionFlag = flag.Bool("version", false, "Show version information")

	// Evaluation flags
	evalFlag  = flag.String("e", "", "Compile and run a filter clause, then exit")
	sortFlag  = flag.String("sort", "", "Apply a sort clause to the output")
	checkFlag = flag.Bool("check", false, "Check clause syntax without running it")
	treeFlag  = flag.Bool("tree", false, "Print the rebalanced parse tree")
	jsonFlag  = flag.Bool("json", false, "Report clause errors as JSON")

	// Record source flags
	dbFlag    = flag.String("db", "", "SQLite database file to load records from")
	tableFlag = flag.String("table", "", "Table to load (required with -db)")
)

func main() {
	flag.Usage = printHelp
	flag.Parse()

	if *helpFlag {
		printHelp()
		return
	}
	if *versionFlag {
		fmt.Printf("dynq version %s\n", Version)
		return
	}

	if err := run(); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

func run() error {
	s, records, err := loadRecords()
	if err != nil {
		return err
	}

	if *checkFlag || *treeFlag {
		if *evalFlag == "" {
			return fmt.Errorf("-check and -tree require -e")
		}
		return check(*evalFlag, *treeFlag)
	}

	if *evalFlag != "" {
		return runClause(s, records, *evalFlag, *sortFlag)
	}

	repl.Start(s, records, os.Stdout, Version)
	return nil
}

// loadRecords returns the records named by -db/-table, or a built-in
// sample set for quick experiments.
func loadRecords() (*schema.Schema, []map[string]any, error) {
	if *dbFlag != "" {
		if *tableFlag == "" {
			return nil, nil, fmt.Errorf("-db requires -table")
		}
		return server.LoadRecords(config.DatabaseConfig{
			Driver: "sqlite",
			DSN:    *dbFlag,
			Table:  *tableFlag,
		})
	}

	s := schema.Columns("item", map[string]types.Type{
		"Id":   types.Int,
		"Name": types.String,
	})
	records := []map[string]any{
		{"Id": int64(1), "Name": "001"},
		{"Id": int64(2), "Name": "003"},
		{"Id": int64(3), "Name": "004"},
		{"Id": int64(4), "Name": "005"},
		{"Id": int64(5), "Name": "002"},
	}
	return s, records, nil
}

// check lexes and parses the clause without type checking or running it.
func check(clause string, showTree bool) error {
	head, err := lexer.Tokenize(clause)
	if err != nil {
		return err
	}

	root, err := parser.Parse(head)
	if err != nil {
		return err
	}

	if showTree {
		fmt.Println(parser.Rebalance(root).String())
		return nil
	}

	fmt.Println("syntax ok")
	return nil
}

func runClause(s *schema.Schema, records []map[string]any, filter, sort string) error {
	matched, err := dynq.FilterRecords(s, records, filter)
	if err != nil {
		return err
	}

	if sort != "" {
		matched, err = dynq.SortRecords(s, matched, sort)
		if err != nil {
			return err
		}
	}

	for _, record := range matched {
		parts := ""
		for _, name := range s.Fields() {
			if parts != "" {
				parts += "  "
			}
			parts += fmt.Sprintf("%s=%v", name, record[name])
		}
		fmt.Println(parts)
	}
	fmt.Printf("%d of %d records match\n", len(matched), len(records))
	return nil
}

func reportError(err error) {
	if *jsonFlag {
		if qe, ok := err.(*errors.Error); ok {
			if body, jsonErr := qe.ToJSON(); jsonErr == nil {
				fmt.Fprintln(os.Stderr, string(body))
				return
			}
		}
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}

func printHelp() {
	fmt.Println(`dynq - filter and sort records with query clauses

Usage:
  dynq [options]

Options:
  -e <clause>      Compile and run a filter clause, then exit
  -sort <clause>   Apply a sort clause to the output (with -e)
  -check           Check clause syntax without running it (with -e)
  -tree            Print the rebalanced parse tree (with -e)
  -json            Report clause errors as JSON
  -db <file>       SQLite database file to load records from
  -table <name>    Table to load (required with -db)
  -version         Show version information
  -help            Show this help message

Without -e, dynq starts an interactive REPL over the loaded records.

Examples:
  dynq -e 'Id > 2'
  dynq -e 'Name CONTAINS "00"' -sort 'Name DESC, Id'
  dynq -e 'Id BETWEEN 2 AND 4' -tree
  dynq -db ./records.db -table items`)
}
