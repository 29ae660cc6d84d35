package server

import (
	"encoding/json"
	"net/http"

	"github.com/AndreVianna/dynamicquery/pkg/dynq/dynq"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/errors"
)

// recordsResponse is the JSON body of a successful query.
type recordsResponse struct {
	Count   int              `json:"count"`
	Records []map[string]any `json:"records"`
}

// handleRecords serves GET /records?filter=...&sort=... against the loaded
// record set. Clause errors return 400 with the structured error as JSON.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sch, records := s.snapshot()

	filter := r.URL.Query().Get("filter")
	sort := r.URL.Query().Get("sort")

	if filter != "" {
		filtered, err := dynq.FilterRecords(sch, records, filter)
		if err != nil {
			writeClauseError(w, err)
			return
		}
		records = filtered
	}

	if sort != "" {
		sorted, err := dynq.SortRecords(sch, records, sort)
		if err != nil {
			writeClauseError(w, err)
			return
		}
		records = sorted
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if records == nil {
		records = []map[string]any{}
	}
	json.NewEncoder(w).Encode(recordsResponse{Count: len(records), Records: records})
}

// writeClauseError renders a compilation error. Structured errors keep
// their class/code/position payload; anything else becomes a plain message.
func writeClauseError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)

	if qe, ok := err.(*errors.Error); ok {
		body, jsonErr := qe.ToJSON()
		if jsonErr == nil {
			w.Write(body)
			return
		}
	}

	json.NewEncoder(w).Encode(map[string]string{"message": err.Error()})
}
