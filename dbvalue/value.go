// Package dbvalue defines the tagged-union value type that flows between
// the query builder, the driver abstraction, and the entity mapper.
package dbvalue

import (
	"errors"
	"fmt"
	"time"
)

// Kind identifies which variant of a Value is active.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindI8
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindF64
	KindBlob
	KindText
	KindDate
	KindTimeOfDay
	KindDateTime
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindI8:
		return "i8"
	case KindI16:
		return "i16"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindU8:
		return "u8"
	case KindU16:
		return "u16"
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindF64:
		return "f64"
	case KindBlob:
		return "blob"
	case KindText:
		return "text"
	case KindDate:
		return "date"
	case KindTimeOfDay:
		return "time"
	case KindDateTime:
		return "datetime"
	default:
		return "unknown"
	}
}

// ErrTypeMismatch is returned by the strict and coerced extractors when the
// requested conversion is not in the documented matrix.
var ErrTypeMismatch = errors.New("dbvalue: type mismatch")

// TypeMismatchError carries the offending kinds alongside ErrTypeMismatch.
type TypeMismatchError struct {
	Have Kind
	Want Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("dbvalue: cannot convert %s to %s", e.Have, e.Want)
}

func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }

func mismatch(have, want Kind) error {
	return &TypeMismatchError{Have: have, Want: want}
}

// Date is a calendar date with no time-of-day component.
type Date struct {
	Year  int
	Month int
	Day   int
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// ParseDate parses an ISO-extended date string ("YYYY-MM-DD").
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("dbvalue: invalid date %q: %w", s, err)
	}
	return Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()}, nil
}

// TimeOfDay is a time with no date component, to microsecond precision.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
	Micro  int
}

func (t TimeOfDay) String() string {
	if t.Micro == 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	}
	return fmt.Sprintf("%02d:%02d:%02d.%06d", t.Hour, t.Minute, t.Second, t.Micro)
}

// ParseTimeOfDay parses an ISO-extended time string ("HH:MM:SS[.ffffff]").
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	layout := "15:04:05"
	if len(s) > 8 {
		layout = "15:04:05.999999"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("dbvalue: invalid time %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Micro: t.Nanosecond() / 1000}, nil
}

// DateTime combines Date and TimeOfDay, the way the SQLite and MariaDB
// drivers round-trip timestamps.
type DateTime struct {
	Date
	TimeOfDay
}

func (dt DateTime) String() string {
	return dt.Date.String() + " " + dt.TimeOfDay.String()
}

func (dt DateTime) toTime() time.Time {
	return time.Date(dt.Year, time.Month(dt.Month), dt.Day, dt.Hour, dt.Minute, dt.Second, dt.Micro*1000, time.UTC)
}

// ParseDateTime parses an ISO-extended datetime string ("YYYY-MM-DD HH:MM:SS[.ffffff]").
func ParseDateTime(s string) (DateTime, error) {
	layouts := []string{"2006-01-02 15:04:05.999999", "2006-01-02 15:04:05", "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"}
	var lastErr error
	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return DateTime{
				Date:      Date{Year: t.Year(), Month: int(t.Month()), Day: t.Day()},
				TimeOfDay: TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Micro: t.Nanosecond() / 1000},
			}, nil
		}
		lastErr = err
	}
	return DateTime{}, fmt.Errorf("dbvalue: invalid datetime %q: %w", s, lastErr)
}

// Value is the tagged union over every SQL-relevant scalar type plus null.
// Exactly one field is meaningful at a time, selected by kind.
type Value struct {
	kind Kind
	b    bool
	i    int64
	u    uint64
	f    float64
	blob []byte
	text string
	date Date
	tod  TimeOfDay
	dt   DateTime
}

// Null is the distinct null value — not a sentinel of any other variant.
var Null = Value{kind: KindNull}

func Bool(v bool) Value            { return Value{kind: KindBool, b: v} }
func I8(v int8) Value              { return Value{kind: KindI8, i: int64(v)} }
func I16(v int16) Value            { return Value{kind: KindI16, i: int64(v)} }
func I32(v int32) Value            { return Value{kind: KindI32, i: int64(v)} }
func I64(v int64) Value            { return Value{kind: KindI64, i: v} }
func U8(v uint8) Value             { return Value{kind: KindU8, u: uint64(v)} }
func U16(v uint16) Value           { return Value{kind: KindU16, u: uint64(v)} }
func U32(v uint32) Value           { return Value{kind: KindU32, u: uint64(v)} }
func U64(v uint64) Value           { return Value{kind: KindU64, u: v} }
func F64(v float64) Value          { return Value{kind: KindF64, f: v} }
func Blob(v []byte) Value          { return Value{kind: KindBlob, blob: append([]byte(nil), v...)} }
func Text(v string) Value          { return Value{kind: KindText, text: v} }
func DateVal(v Date) Value         { return Value{kind: KindDate, date: v} }
func TimeOfDayVal(v TimeOfDay) Value { return Value{kind: KindTimeOfDay, tod: v} }
func DateTimeVal(v DateTime) Value { return Value{kind: KindDateTime, dt: v} }

// Kind reports the active variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null variant.
func (v Value) IsNull() bool { return v.kind == KindNull }

// GetBool strictly extracts the bool variant.
func (v Value) GetBool() (bool, error) {
	if v.kind != KindBool {
		return false, mismatch(v.kind, KindBool)
	}
	return v.b, nil
}

// GetI64 strictly extracts the i64 variant.
func (v Value) GetI64() (int64, error) {
	if v.kind != KindI64 {
		return 0, mismatch(v.kind, KindI64)
	}
	return v.i, nil
}

// GetU64 strictly extracts the u64 variant.
func (v Value) GetU64() (uint64, error) {
	if v.kind != KindU64 {
		return 0, mismatch(v.kind, KindU64)
	}
	return v.u, nil
}

// GetF64 strictly extracts the f64 variant.
func (v Value) GetF64() (float64, error) {
	if v.kind != KindF64 {
		return 0, mismatch(v.kind, KindF64)
	}
	return v.f, nil
}

// GetText strictly extracts the text variant.
func (v Value) GetText() (string, error) {
	if v.kind != KindText {
		return "", mismatch(v.kind, KindText)
	}
	return v.text, nil
}

// GetBlob strictly extracts the blob variant.
func (v Value) GetBlob() ([]byte, error) {
	if v.kind != KindBlob {
		return nil, mismatch(v.kind, KindBlob)
	}
	return v.blob, nil
}

// GetDate strictly extracts the date variant.
func (v Value) GetDate() (Date, error) {
	if v.kind != KindDate {
		return Date{}, mismatch(v.kind, KindDate)
	}
	return v.date, nil
}

// GetTimeOfDay strictly extracts the time-of-day variant.
func (v Value) GetTimeOfDay() (TimeOfDay, error) {
	if v.kind != KindTimeOfDay {
		return TimeOfDay{}, mismatch(v.kind, KindTimeOfDay)
	}
	return v.tod, nil
}

// GetDateTime strictly extracts the datetime variant.
func (v Value) GetDateTime() (DateTime, error) {
	if v.kind != KindDateTime {
		return DateTime{}, mismatch(v.kind, KindDateTime)
	}
	return v.dt, nil
}

func (v Value) asI64() (int64, bool) {
	switch v.kind {
	case KindI8, KindI16, KindI32, KindI64:
		return v.i, true
	case KindU8, KindU16, KindU32, KindU64:
		return int64(v.u), true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// GetAsI64 coerces any integer or bool variant to int64.
func (v Value) GetAsI64() (int64, error) {
	if n, ok := v.asI64(); ok {
		return n, nil
	}
	return 0, mismatch(v.kind, KindI64)
}

// GetAsU64 coerces any integer or bool variant to uint64.
func (v Value) GetAsU64() (uint64, error) {
	switch v.kind {
	case KindU8, KindU16, KindU32, KindU64:
		return v.u, nil
	case KindI8, KindI16, KindI32, KindI64:
		return uint64(v.i), nil
	case KindBool:
		if v.b {
			return 1, nil
		}
		return 0, nil
	}
	return 0, mismatch(v.kind, KindU64)
}

// GetAsF64 coerces any numeric variant to float64.
func (v Value) GetAsF64() (float64, error) {
	switch v.kind {
	case KindF64:
		return v.f, nil
	case KindI8, KindI16, KindI32, KindI64:
		return float64(v.i), nil
	case KindU8, KindU16, KindU32, KindU64:
		return float64(v.u), nil
	}
	return 0, mismatch(v.kind, KindF64)
}

// GetAsBool coerces bool or any integer variant (zero/nonzero) to bool.
func (v Value) GetAsBool() (bool, error) {
	switch v.kind {
	case KindBool:
		return v.b, nil
	case KindI8, KindI16, KindI32, KindI64, KindU8, KindU16, KindU32, KindU64:
		n, _ := v.asI64()
		return n != 0, nil
	}
	return false, mismatch(v.kind, KindBool)
}

// GetAsText coerces text, blob (interpreted as UTF-8), or date/time/datetime
// variants (formatted ISO-extended) to string.
func (v Value) GetAsText() (string, error) {
	switch v.kind {
	case KindText:
		return v.text, nil
	case KindBlob:
		return string(v.blob), nil
	case KindDate:
		return v.date.String(), nil
	case KindTimeOfDay:
		return v.tod.String(), nil
	case KindDateTime:
		return v.dt.String(), nil
	}
	return "", mismatch(v.kind, KindText)
}

// GetAsBlob coerces blob or text (interpreted as UTF-8) to []byte.
func (v Value) GetAsBlob() ([]byte, error) {
	switch v.kind {
	case KindBlob:
		return v.blob, nil
	case KindText:
		return []byte(v.text), nil
	}
	return nil, mismatch(v.kind, KindBlob)
}

// GetAsDate coerces text (ISO-extended) or date to Date.
func (v Value) GetAsDate() (Date, error) {
	switch v.kind {
	case KindDate:
		return v.date, nil
	case KindText:
		return ParseDate(v.text)
	}
	return Date{}, mismatch(v.kind, KindDate)
}

// GetAsTimeOfDay coerces text (ISO-extended) or time-of-day to TimeOfDay.
func (v Value) GetAsTimeOfDay() (TimeOfDay, error) {
	switch v.kind {
	case KindTimeOfDay:
		return v.tod, nil
	case KindText:
		return ParseTimeOfDay(v.text)
	}
	return TimeOfDay{}, mismatch(v.kind, KindTimeOfDay)
}

// GetAsDateTime coerces text (ISO-extended) or datetime to DateTime.
func (v Value) GetAsDateTime() (DateTime, error) {
	switch v.kind {
	case KindDateTime:
		return v.dt, nil
	case KindText:
		return ParseDateTime(v.text)
	}
	return DateTime{}, mismatch(v.kind, KindDateTime)
}

// AsGoTime converts a Date/TimeOfDay/DateTime value to time.Time (UTC),
// used by drivers that bind through database/sql's time.Time support.
func (v Value) AsGoTime() (time.Time, error) {
	switch v.kind {
	case KindDate:
		return time.Date(v.date.Year, time.Month(v.date.Month), v.date.Day, 0, 0, 0, 0, time.UTC), nil
	case KindTimeOfDay:
		return time.Date(0, 1, 1, v.tod.Hour, v.tod.Minute, v.tod.Second, v.tod.Micro*1000, time.UTC), nil
	case KindDateTime:
		return v.dt.toTime(), nil
	}
	return time.Time{}, mismatch(v.kind, KindDateTime)
}

// Equal compares two values for equality within the same variant. Values of
// differing kinds are never equal, including null compared to anything.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindI8, KindI16, KindI32, KindI64:
		return v.i == other.i
	case KindU8, KindU16, KindU32, KindU64:
		return v.u == other.u
	case KindF64:
		return v.f == other.f
	case KindBlob:
		if len(v.blob) != len(other.blob) {
			return false
		}
		for i := range v.blob {
			if v.blob[i] != other.blob[i] {
				return false
			}
		}
		return true
	case KindText:
		return v.text == other.text
	case KindDate:
		return v.date == other.date
	case KindTimeOfDay:
		return v.tod == other.tod
	case KindDateTime:
		return v.dt == other.dt
	}
	return false
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindBool:
		return fmt.Sprintf("%v", v.b)
	case KindI8, KindI16, KindI32, KindI64:
		return fmt.Sprintf("%d", v.i)
	case KindU8, KindU16, KindU32, KindU64:
		return fmt.Sprintf("%d", v.u)
	case KindF64:
		return fmt.Sprintf("%g", v.f)
	case KindBlob:
		return fmt.Sprintf("blob(%d bytes)", len(v.blob))
	case KindText:
		return v.text
	case KindDate:
		return v.date.String()
	case KindTimeOfDay:
		return v.tod.String()
	case KindDateTime:
		return v.dt.String()
	}
	return "?"
}
