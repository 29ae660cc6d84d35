// Package server exposes the clause compiler over HTTP: a records endpoint
// accepting ?filter= and ?sort= clauses against a SQL-loaded record set,
// plus a rendered grammar reference.
package server

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/AndreVianna/dynamicquery/config"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/schema"
)

// Server represents a query server instance.
type Server struct {
	config     *config.Config
	configPath string
	stdout     io.Writer
	stderr     io.Writer
	mux        *http.ServeMux
	server     *http.Server
	watcher    *Watcher

	// The record set is swapped atomically on reload.
	mu      sync.RWMutex
	schema  *schema.Schema
	records []map[string]any
}

// New creates a new server with the given configuration and loads the
// record set.
func New(cfg *config.Config, configPath string, stdout, stderr io.Writer) (*Server, error) {
	s := &Server{
		config:     cfg,
		configPath: configPath,
		stdout:     stdout,
		stderr:     stderr,
		mux:        http.NewServeMux(),
	}

	if err := s.reload(); err != nil {
		return nil, fmt.Errorf("loading records: %w", err)
	}

	s.mux.HandleFunc("/records", s.handleRecords)
	s.mux.HandleFunc("/help", s.handleHelp)

	return s, nil
}

// reload loads the record set from the configured database and swaps it in.
func (s *Server) reload() error {
	sch, records, err := LoadRecords(s.config.Database)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.schema = sch
	s.records = records
	s.mu.Unlock()

	return nil
}

// snapshot returns the current schema and record set.
func (s *Server) snapshot() (*schema.Schema, []map[string]any) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schema, s.records
}

// Handler builds the full middleware chain around the mux.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.mux

	handler = NewCORSMiddleware(s.config.CORS).Handler(handler)
	handler = newCompressionHandler(handler, s.config.Compression)

	if s.config.Logging.Requests {
		handler = newRequestLogger(handler, s.stdout, s.config.Logging.Format)
	}

	return handler
}

// Run starts the server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	watcher, err := NewWatcher(s, s.configPath, s.stdout, s.stderr)
	if err != nil {
		s.logError("failed to create watcher: %v", err)
	} else {
		s.watcher = watcher
		if err := s.watcher.Start(ctx); err != nil {
			s.logError("failed to start watcher: %v", err)
		}
		defer s.watcher.Close()
	}

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(s.stdout, "listening on http://%s\n", addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) logError(format string, args ...any) {
	fmt.Fprintf(s.stderr, "error: "+format+"\n", args...)
}
