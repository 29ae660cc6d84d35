package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/AndreVianna/dynamicquery/config"
	"github.com/AndreVianna/dynamicquery/server"
)

// Version is set at build time via -ldflags
var Version = "0.1.0-dev"

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.Getenv); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main entry point, designed for testability (Mat Ryer pattern)
func run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string) error {
	flags := flag.NewFlagSet("dynqd", flag.ContinueOnError)
	flags.SetOutput(stderr)

	var (
		configPath  = flags.String("config", "dynq.yaml", "Path to config file")
		port        = flags.Int("port", 0, "Override listen port")
		showVersion = flags.Bool("version", false, "Show version")
		showHelp    = flags.Bool("help", false, "Show help")
	)

	if err := flags.Parse(args); err != nil {
		return err
	}

	if *showHelp {
		printUsage(stdout)
		return nil
	}

	if *showVersion {
		fmt.Fprintf(stdout, "dynqd version %s\n", Version)
		return nil
	}

	// Set up signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*configPath, getenv)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Apply CLI overrides
	if *port != 0 {
		cfg.Server.Port = *port
	}

	// Full validation after CLI overrides applied
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	srv, err := server.New(cfg, *configPath, stdout, stderr)
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, `dynqd - HTTP query server for filter/sort clauses

Usage:
  dynqd [options]

Options:
  -config <path>   Path to config file (default "dynq.yaml")
  -port <port>     Override listen port
  -version         Show version
  -help            Show this help

Endpoints:
  GET /records?filter=<clause>&sort=<clause>
  GET /help

Example config:
  server:
    host: localhost
    port: 8080
  database:
    driver: sqlite
    dsn: ./records.db
    table: items`)
}
