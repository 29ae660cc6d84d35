package dynq

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"

	"github.com/AndreVianna/dynamicquery/pkg/dynq/errors"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/schema"
)

// sortKey is one parsed item of a sort clause.
type sortKey struct {
	field      schema.Field
	descending bool
}

// parseSortClause validates a sort clause against the schema and returns
// the ordered key list.
func parseSortClause(s *schema.Schema, clause string) ([]sortKey, error) {
	if strings.TrimSpace(clause) == "" {
		return nil, errors.New("SORT-0001", nil)
	}

	var keys []sortKey
	for _, item := range strings.Split(clause, ",") {
		parts := strings.Fields(strings.TrimSpace(item))
		if len(parts) == 0 || len(parts) > 2 {
			return nil, errors.New("SORT-0002", nil)
		}

		descending := false
		if len(parts) == 2 {
			switch strings.ToUpper(parts[1]) {
			case "ASC":
			case "DESC":
				descending = true
			default:
				return nil, errors.New("SORT-0002", nil)
			}
		}

		field, ok := s.Field(parts[0])
		if !ok {
			return nil, errors.New("SORT-0003", map[string]any{
				"Field":  parts[0],
				"Record": s.Name(),
			})
		}

		keys = append(keys, sortKey{field: field, descending: descending})
	}

	return keys, nil
}

// sortWith applies the clause's keys as one composed comparator in a single
// stable sort, so later keys only break ties left by earlier ones.
func sortWith[T any](s *schema.Schema, source []T, clause string, coll *collate.Collator) ([]T, error) {
	keys, err := parseSortClause(s, clause)
	if err != nil {
		return nil, err
	}

	out := make([]T, len(source))
	copy(out, source)

	slices.SortStableFunc(out, func(a, b T) int {
		for _, key := range keys {
			c := compareValues(key.field.Value(a), key.field.Value(b), coll)
			if c == 0 {
				continue
			}
			if key.descending {
				return -c
			}
			return c
		}
		return 0
	})

	return out, nil
}

// compareValues orders two same-typed field values. Nil sorts first.
func compareValues(x, y any, coll *collate.Collator) int {
	if x == nil || y == nil {
		switch {
		case x == nil && y == nil:
			return 0
		case x == nil:
			return -1
		default:
			return 1
		}
	}

	switch a := x.(type) {
	case int64:
		return ordered(a, y.(int64))
	case float64:
		return ordered(a, y.(float64))
	case string:
		b := y.(string)
		if coll != nil {
			return coll.CompareString(a, b)
		}
		return strings.Compare(a, b)
	case bool:
		b := y.(bool)
		switch {
		case a == b:
			return 0
		case !a:
			return -1
		default:
			return 1
		}
	}
	return 0
}

func ordered[T int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
