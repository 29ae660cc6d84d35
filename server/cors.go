package server

import (
	"net/http"
	"strings"

	"github.com/AndreVianna/dynamicquery/config"
)

// CORSMiddleware handles Cross-Origin Resource Sharing (CORS) headers
type CORSMiddleware struct {
	config config.CORSConfig
}

// NewCORSMiddleware creates a new CORS middleware with the given configuration
func NewCORSMiddleware(cfg config.CORSConfig) *CORSMiddleware {
	return &CORSMiddleware{config: cfg}
}

// Handler wraps an http.Handler to add CORS headers
func (m *CORSMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip if CORS not configured (no origins specified)
		if len(m.config.Origins) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		origin := r.Header.Get("Origin")
		// No Origin header means same-origin request - no CORS needed
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		// Origin not allowed - continue without CORS headers, the browser
		// will block the response
		if !m.isOriginAllowed(origin) {
			next.ServeHTTP(w, r)
			return
		}

		m.setCORSHeaders(w, origin)

		// Handle preflight (OPTIONS) requests
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", strings.Join(m.config.Methods, ", "))
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// isOriginAllowed checks if the given origin is in the allowed list
func (m *CORSMiddleware) isOriginAllowed(origin string) bool {
	for _, allowed := range m.config.Origins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// setCORSHeaders sets the appropriate CORS response headers
func (m *CORSMiddleware) setCORSHeaders(w http.ResponseWriter, origin string) {
	allowed := "*"
	if !m.contains("*") {
		allowed = origin
	}
	w.Header().Set("Access-Control-Allow-Origin", allowed)

	// Vary: Origin ensures different origins get different cached responses
	w.Header().Add("Vary", "Origin")
}

func (m *CORSMiddleware) contains(origin string) bool {
	for _, o := range m.config.Origins {
		if o == origin {
			return true
		}
	}
	return false
}
