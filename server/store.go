package server

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/araddon/dateparse"

	// Record sources: driver chosen by database.driver in the config.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/AndreVianna/dynamicquery/config"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/schema"
	"github.com/AndreVianna/dynamicquery/pkg/dynq/types"
)

// LoadRecords reads the configured table into memory and derives the
// clause schema from its columns.
func LoadRecords(cfg config.DatabaseConfig) (*schema.Schema, []map[string]any, error) {
	db, err := sql.Open(driverName(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	rows, err := db.Query("SELECT * FROM " + quoteIdent(cfg.Table))
	if err != nil {
		return nil, nil, fmt.Errorf("reading table %s: %w", cfg.Table, err)
	}
	defer rows.Close()

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, nil, err
	}

	cols := make(map[string]types.Type, len(columnTypes))
	dbTypes := make([]string, len(columnTypes))
	for i, ct := range columnTypes {
		dbTypes[i] = strings.ToUpper(ct.DatabaseTypeName())
		vt, ok := columnType(dbTypes[i])
		if !ok {
			continue
		}
		cols[ct.Name()] = vt
	}

	recordName := cfg.Record
	if recordName == "" {
		recordName = cfg.Table
	}
	sch := schema.Columns(recordName, cols)

	var records []map[string]any
	for rows.Next() {
		raw := make([]any, len(columnTypes))
		ptrs := make([]any, len(columnTypes))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}

		record := make(map[string]any, len(columnTypes))
		for i, ct := range columnTypes {
			if _, ok := cols[ct.Name()]; !ok {
				continue
			}
			record[ct.Name()] = convertValue(dbTypes[i], raw[i])
		}
		records = append(records, record)
	}

	return sch, records, rows.Err()
}

func driverName(driver string) string {
	if driver == "" {
		return "sqlite"
	}
	return driver
}

// quoteIdent quotes a table name; the config is trusted but quoting keeps
// reserved words usable as table names.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// columnType maps a database column type to a clause value type. Temporal
// columns become Int (Unix seconds) so they participate in numeric filters.
func columnType(dbType string) (types.Type, bool) {
	switch {
	case strings.Contains(dbType, "BOOL"):
		return types.Boolean, true
	case strings.Contains(dbType, "INT"):
		return types.Int, true
	case strings.Contains(dbType, "REAL"),
		strings.Contains(dbType, "FLOAT"),
		strings.Contains(dbType, "DOUBLE"),
		strings.Contains(dbType, "NUMERIC"),
		strings.Contains(dbType, "DECIMAL"):
		return types.Double, true
	case strings.Contains(dbType, "DATE"),
		strings.Contains(dbType, "TIME"):
		return types.Int, true
	case strings.Contains(dbType, "CHAR"),
		strings.Contains(dbType, "TEXT"):
		return types.String, true
	default:
		return 0, false
	}
}

// convertValue normalizes a scanned value to the clause payload type for
// its column. Temporal text is parsed in whatever format the database used
// and stored as Unix seconds.
func convertValue(dbType string, raw any) any {
	if raw == nil {
		return nil
	}

	if strings.Contains(dbType, "DATE") || strings.Contains(dbType, "TIME") {
		switch v := raw.(type) {
		case string:
			if t, err := dateparse.ParseAny(v); err == nil {
				return t.Unix()
			}
			return nil
		case []byte:
			if t, err := dateparse.ParseAny(string(v)); err == nil {
				return t.Unix()
			}
			return nil
		case int64:
			return v
		}
	}

	switch v := raw.(type) {
	case int64:
		if strings.Contains(dbType, "BOOL") {
			return v != 0
		}
		return v
	case float64:
		return v
	case bool:
		return v
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return v
	}
}
