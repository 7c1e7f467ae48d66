package entity

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"

	"github.com/oceandrift/database/dbvalue"
)

// goToValue converts a Go field value (already known representable by
// schemaFor) into a dbvalue.Value.
func goToValue(v reflect.Value) dbvalue.Value {
	switch v.Type() {
	case uuidType:
		return dbvalue.Text(v.Interface().(uuid.UUID).String())
	case reflect.TypeOf(dbvalue.Date{}):
		return dbvalue.DateVal(v.Interface().(dbvalue.Date))
	case reflect.TypeOf(dbvalue.TimeOfDay{}):
		return dbvalue.TimeOfDayVal(v.Interface().(dbvalue.TimeOfDay))
	case reflect.TypeOf(dbvalue.DateTime{}):
		return dbvalue.DateTimeVal(v.Interface().(dbvalue.DateTime))
	}
	switch v.Kind() {
	case reflect.Bool:
		return dbvalue.Bool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return dbvalue.I64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return dbvalue.U64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return dbvalue.F64(v.Float())
	case reflect.String:
		return dbvalue.Text(v.String())
	case reflect.Slice:
		return dbvalue.Blob(v.Bytes())
	}
	return dbvalue.Null
}

// valueToGo assigns v into the Go field dst, coercing as needed. Callers
// already know dst's type is representable.
func valueToGo(dst reflect.Value, v dbvalue.Value) error {
	switch dst.Type() {
	case uuidType:
		s, err := v.GetAsText()
		if err != nil {
			return err
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return fmt.Errorf("entity: invalid uuid %q: %w", s, err)
		}
		dst.Set(reflect.ValueOf(id))
		return nil
	case reflect.TypeOf(dbvalue.Date{}):
		d, err := v.GetAsDate()
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(d))
		return nil
	case reflect.TypeOf(dbvalue.TimeOfDay{}):
		t, err := v.GetAsTimeOfDay()
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(t))
		return nil
	case reflect.TypeOf(dbvalue.DateTime{}):
		dt, err := v.GetAsDateTime()
		if err != nil {
			return err
		}
		dst.Set(reflect.ValueOf(dt))
		return nil
	}
	switch dst.Kind() {
	case reflect.Bool:
		b, err := v.GetAsBool()
		if err != nil {
			return err
		}
		dst.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := v.GetAsI64()
		if err != nil {
			return err
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := v.GetAsU64()
		if err != nil {
			return err
		}
		dst.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := v.GetAsF64()
		if err != nil {
			return err
		}
		dst.SetFloat(f)
	case reflect.String:
		s, err := v.GetAsText()
		if err != nil {
			return err
		}
		dst.SetString(s)
	case reflect.Slice:
		b, err := v.GetAsBlob()
		if err != nil {
			return err
		}
		dst.SetBytes(b)
	default:
		return fmt.Errorf("entity: cannot assign %s into %s", v.Kind(), dst.Type())
	}
	return nil
}

// rowToEntity maps row positionally onto dest's fields, per s.fields order.
func rowToEntity(s *schema, row dbvalue.Row, dest reflect.Value) error {
	if row.Len() != len(s.fields) {
		return fmt.Errorf("entity: column count %d does not match field count %d for %s", row.Len(), len(s.fields), s.typ)
	}
	for i, f := range s.fields {
		if err := valueToGo(dest.FieldByIndex(f.Index), row.At(i)); err != nil {
			return fmt.Errorf("entity: field %s: %w", f.Name, err)
		}
	}
	return nil
}
