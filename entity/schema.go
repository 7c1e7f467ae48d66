// Package entity derives table and column names from user-supplied Go
// struct types, translates entities to and from dbvalue.Row, and composes
// the query builder into typed pre-collections with CRUD and relation
// helpers — spec.md §4.8.
package entity

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/oceandrift/database/dbvalue"
)

// idKind distinguishes the two primary-key conventions an entity may use:
// the default "zero uint64 means unsaved" convention, or an opt-in
// pre-generated UUID (see SPEC_FULL.md §12).
type idKind int

const (
	idKindU64 idKind = iota
	idKindUUID
)

var uuidType = reflect.TypeOf(uuid.UUID{})

// schema is the derived table/column metadata for one Go struct type.
type schema struct {
	table   string
	typ     reflect.Type
	fields  []reflect.StructField // in declaration order; "id" is wherever it was declared (see idIndex)
	columns []string              // lowercased names, parallel to fields
	idKind  idKind
}

var schemaCache sync.Map // reflect.Type -> *schema

func schemaFor(t reflect.Type) (*schema, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("entity: %s is not a struct", t)
	}
	if cached, ok := schemaCache.Load(t); ok {
		return cached.(*schema), nil
	}

	s := &schema{table: strings.ToLower(t.Name()), typ: t}
	sawID := false
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" { // unexported
			continue
		}
		if !representable(f.Type) {
			continue
		}
		name := strings.ToLower(f.Name)
		if name == "id" {
			sawID = true
			switch f.Type {
			case uuidType:
				s.idKind = idKindUUID
			default:
				s.idKind = idKindU64
				if f.Type.Kind() != reflect.Uint64 {
					return nil, fmt.Errorf("entity: %s.Id must be uint64 or uuid.UUID, got %s", t, f.Type)
				}
			}
		}
		s.fields = append(s.fields, f)
		s.columns = append(s.columns, name)
	}
	if !sawID {
		return nil, fmt.Errorf("entity: %s has no representable Id field", t)
	}

	schemaCache.Store(t, s)
	return s, nil
}

func representable(t reflect.Type) bool {
	switch t {
	case uuidType, reflect.TypeOf(dbvalue.Date{}), reflect.TypeOf(dbvalue.TimeOfDay{}), reflect.TypeOf(dbvalue.DateTime{}):
		return true
	}
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	case reflect.Slice:
		return t.Elem().Kind() == reflect.Uint8
	}
	return false
}

// idIndex returns the position of the id field within s.fields/s.columns.
// The id field is always present at derivation time but is not guaranteed
// to be fields[0] if an entity declares other fields first — callers must
// not assume position 0.
func (s *schema) idIndex() int {
	for i, c := range s.columns {
		if c == "id" {
			return i
		}
	}
	panic("entity: schema invariant violated: no id column")
}

// dataColumns returns the columns excluding "id", in declaration order —
// what INSERT/UPDATE touch for a u64-keyed entity.
func (s *schema) dataColumns() []string {
	idx := s.idIndex()
	out := make([]string, 0, len(s.columns)-1)
	out = append(out, s.columns[:idx]...)
	out = append(out, s.columns[idx+1:]...)
	return out
}

func (s *schema) fieldValue(entity reflect.Value, i int) dbvalue.Value {
	return goToValue(entity.FieldByIndex(s.fields[i].Index))
}

func (s *schema) idU64(entity reflect.Value) uint64 {
	return entity.FieldByIndex(s.fields[s.idIndex()].Index).Uint()
}

func (s *schema) idUUID(entity reflect.Value) uuid.UUID {
	return entity.FieldByIndex(s.fields[s.idIndex()].Index).Interface().(uuid.UUID)
}

func (s *schema) setIDU64(entity reflect.Value, id uint64) {
	entity.FieldByIndex(s.fields[s.idIndex()].Index).SetUint(id)
}

func (s *schema) setIDUUID(entity reflect.Value, id uuid.UUID) {
	entity.FieldByIndex(s.fields[s.idIndex()].Index).Set(reflect.ValueOf(id))
}

// unsaved reports whether entity still carries the "not yet stored"
// sentinel for its id convention.
func (s *schema) unsaved(entity reflect.Value) bool {
	if s.idKind == idKindUUID {
		return s.idUUID(entity) == uuid.Nil
	}
	return s.idU64(entity) == 0
}
