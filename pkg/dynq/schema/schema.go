// Package schema describes record types to the compiler.
//
// A Schema maps field names to typed accessors. Of derives one from a
// struct type through reflection; Columns builds one by hand for dynamic
// records stored as column maps. Of normalizes field values to the
// compiler's payload types (int64, float64, string, bool); Columns returns
// the values stored in the map unchanged.
package schema

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/AndreVianna/dynamicquery/pkg/dynq/types"
)

// Field is one queryable record field.
type Field struct {
	Name string
	Of   types.Type
	get  func(record any) any
}

// Value extracts the field from a record. Fields built by Of are normalized
// to the compiler's payload type; fields built by Columns are not.
func (f Field) Value(record any) any {
	return f.get(record)
}

// Schema describes a record type: its display name and its fields.
type Schema struct {
	name   string
	fields map[string]Field
}

// Name returns the record type's display name.
func (s *Schema) Name() string { return s.name }

// Field looks up a field by exact name.
func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Fields returns the field names in sorted order.
func (s *Schema) Fields() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Of builds a schema from a struct type's exported fields. Fields whose
// types have no clause equivalent are skipped.
func Of(t reflect.Type) (*Schema, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("record type must be a struct, got %s", t.Kind())
	}

	s := &Schema{name: t.Name(), fields: make(map[string]Field)}

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		vt, ok := valueType(sf.Type)
		if !ok {
			continue
		}

		index := sf.Index
		s.fields[sf.Name] = Field{
			Name: sf.Name,
			Of:   vt,
			get: func(record any) any {
				v := reflect.ValueOf(record)
				for v.Kind() == reflect.Pointer {
					v = v.Elem()
				}
				return normalize(v.FieldByIndex(index))
			},
		}
	}

	return s, nil
}

// Columns builds a schema for map records keyed by column name.
func Columns(name string, cols map[string]types.Type) *Schema {
	s := &Schema{name: name, fields: make(map[string]Field)}
	for col, vt := range cols {
		col := col
		s.fields[col] = Field{
			Name: col,
			Of:   vt,
			get: func(record any) any {
				m, ok := record.(map[string]any)
				if !ok {
					return nil
				}
				return m[col]
			},
		}
	}
	return s
}

// valueType maps a Go type to a clause value type.
func valueType(t reflect.Type) (types.Type, bool) {
	switch t.Kind() {
	case reflect.Bool:
		return types.Boolean, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return types.Int, true
	case reflect.Float32, reflect.Float64:
		return types.Double, true
	case reflect.String:
		return types.String, true
	default:
		return 0, false
	}
}

// normalize converts a reflected field value to the compiler's payload type.
func normalize(v reflect.Value) any {
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return int64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.String:
		return v.String()
	default:
		return v.Interface()
	}
}
