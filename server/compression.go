package server

import (
	"compress/gzip"
	"net/http"

	"github.com/klauspost/compress/gzhttp"

	"github.com/AndreVianna/dynamicquery/config"
)

// newCompressionHandler wraps an HTTP handler with gzip compression
// middleware. Returns the original handler if compression is disabled.
func newCompressionHandler(h http.Handler, cfg config.CompressionConfig) http.Handler {
	if !cfg.Enabled {
		return h
	}

	var level int
	switch cfg.Level {
	case "fastest":
		level = gzip.BestSpeed
	case "best":
		level = gzip.BestCompression
	default:
		level = gzip.DefaultCompression
	}

	wrapper, err := gzhttp.NewWrapper(
		gzhttp.MinSize(cfg.MinSize),
		gzhttp.CompressionLevel(level),
	)
	if err != nil {
		// Should not happen with valid options, but return unwrapped if it does
		return h
	}

	return wrapper(h)
}
