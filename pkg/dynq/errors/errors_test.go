package errors

import (
	"encoding/json"
	"testing"
)

func TestFilterErrorMessage(t *testing.T) {
	err := NewAt("FILTER-0001", 5, "?", nil)
	if err.Error() != "Invalid syntax near '?' at position 5." {
		t.Fatalf("wrong message: %q", err.Error())
	}
}

func TestFilterErrorDetail(t *testing.T) {
	tests := []struct {
		code     string
		data     map[string]any
		expected string
	}{
		{"FILTER-0002", map[string]any{"Name": "Nope", "Record": "item"},
			"Invalid syntax near 'Nope' at position 1. 'Nope' is not a public member of 'item'."},
		{"FILTER-0003", map[string]any{"Role": "value on the left", "Expected": "Int or a Double"},
			"Invalid syntax near 'Nope' at position 1. The value on the left must be a Int or a Double."},
		{"FILTER-0004", map[string]any{"Name": "FLOOR"},
			"Invalid syntax near 'Nope' at position 1. Method 'FLOOR' not supported."},
		{"FILTER-0005", map[string]any{"Type": "Boolean"},
			"Invalid syntax near 'Nope' at position 1. The result of the expression must be a Boolean."},
	}

	for _, tt := range tests {
		err := NewAt(tt.code, 1, "Nope", tt.data)
		if err.Error() != tt.expected {
			t.Fatalf("%s = %q, expected %q", tt.code, err.Error(), tt.expected)
		}
	}
}

func TestSortingErrorMessages(t *testing.T) {
	err := New("SORT-0001", nil)
	if err.Error() != "Sorting clause cannot be null or empty." {
		t.Fatalf("wrong message: %q", err.Error())
	}

	err = New("SORT-0003", map[string]any{"Field": "Nope", "Record": "item"})
	if err.Error() != "'Nope' is not a valid field for 'item'." {
		t.Fatalf("wrong message: %q", err.Error())
	}
}

func TestClassPredicates(t *testing.T) {
	if !IsFilter(NewAt("FILTER-0001", 1, "x", nil)) {
		t.Fatal("IsFilter failed")
	}
	if IsFilter(New("SORT-0001", nil)) {
		t.Fatal("IsFilter misfired on a sorting error")
	}
	if !IsSorting(New("SORT-0002", nil)) {
		t.Fatal("IsSorting failed")
	}
}

func TestUnknownCode(t *testing.T) {
	err := New("NOPE-9999", nil)
	if err.Error() == "" {
		t.Fatal("unknown code should still produce a message")
	}
}

func TestToJSON(t *testing.T) {
	raw, err := NewAt("FILTER-0001", 3, "?", nil).ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["class"] != "filter" || decoded["position"] != float64(3) {
		t.Fatalf("unexpected JSON: %s", raw)
	}
}
