package server

import (
	"bytes"
	_ "embed"
	"net/http"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed grammar.md
var grammarSource []byte

var helpMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// handleHelp renders the clause grammar reference as HTML.
func (s *Server) handleHelp(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>\n<html><head><title>Query clause reference</title></head><body>\n")

	if err := helpMarkdown.Convert(grammarSource, &buf); err != nil {
		http.Error(w, "rendering help failed", http.StatusInternalServerError)
		return
	}

	buf.WriteString("</body></html>\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}
