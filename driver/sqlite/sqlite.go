// Package sqlite implements the driver.Conn/driver.Stmt contract on top of
// SQLite, via database/sql and github.com/mattn/go-sqlite3 — the same
// SQLite client library the teacher's runtime/client package wires in.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/oceandrift/database/dbvalue"
	"github.com/oceandrift/database/driver"
	"github.com/oceandrift/database/internal/debug"
)

// wrapError builds a driver.Error of the given kind around cause, filling
// Code with go-sqlite3's extended result code when cause carries one, per
// spec.md §4.2/§7's native-code contract.
func wrapError(kind driver.Kind, cause error) *driver.Error {
	msg := ""
	code := 0
	if cause != nil {
		msg = cause.Error()
		var se sqlite3.Error
		if errors.As(cause, &se) {
			code = int(se.ExtendedCode)
		}
	}
	return &driver.Error{Kind: kind, Message: msg, Code: code, Cause: cause}
}

// Conn is a single-threaded SQLite session: one reserved *sql.Conn pulled
// from a one-connection *sql.DB pool, so statement and transaction state
// behave the way spec.md §3/§5 require (no pooling, one owner at a time).
type Conn struct {
	db         *sql.DB
	raw        *sql.Conn
	tx         *sql.Tx
	closed     bool
	autoCommit bool
}

var _ driver.Conn = (*Conn)(nil)

// Open opens filename (or ":memory:") with the given OpenMode flags.
//
// go-sqlite3 always reports the extended result code on the errors it
// returns (sqlite3.Error.ExtendedCode), satisfying spec.md §4.6's "extended
// result codes enabled" requirement without any enabling call on the raw
// connection; wrapError below is what reads that field back out.
func Open(filename string, mode driver.OpenMode) (*Conn, error) {
	dsn := buildDSN(filename, mode)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, wrapError(driver.KindConnection, err)
	}
	db.SetMaxOpenConns(1)

	raw, err := db.Conn(context.Background())
	if err != nil {
		db.Close()
		return nil, wrapError(driver.KindConnection, err)
	}

	return &Conn{db: db, raw: raw, autoCommit: true}, nil
}

func buildDSN(filename string, mode driver.OpenMode) string {
	if mode.Has(driver.OpenMemory) && filename == "" {
		filename = ":memory:"
	}
	var params []string
	switch {
	case mode.Has(driver.OpenReadOnly):
		params = append(params, "mode=ro")
	case mode.Has(driver.OpenCreate):
		params = append(params, "mode=rwc")
	case mode.Has(driver.OpenReadWrite):
		params = append(params, "mode=rw")
	}
	if mode.Has(driver.OpenMemory) {
		params = append(params, "mode=memory", "cache=shared")
	}
	if mode.Has(driver.OpenNoMutex) {
		params = append(params, "_mutex=no")
	} else if mode.Has(driver.OpenFullMutex) {
		params = append(params, "_mutex=full")
	}
	if len(params) == 0 {
		return filename
	}
	return "file:" + filename + "?" + strings.Join(params, "&")
}

// Close is idempotent; closing releases the reserved connection and the pool.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.tx != nil {
		_ = c.tx.Rollback()
		c.tx = nil
	}
	if err := c.raw.Close(); err != nil {
		debug.Warn("sqlite: error releasing connection", "error", err)
	}
	return c.db.Close()
}

// Connected observes only local state.
func (c *Conn) Connected() bool { return !c.closed }

// AutoCommit observes the connection's locally tracked auto-commit flag.
func (c *Conn) AutoCommit() (bool, error) { return c.autoCommit, nil }

// SetAutoCommit always fails: SQLite's engine manages auto-commit itself.
func (c *Conn) SetAutoCommit(bool) error {
	return &driver.Error{Kind: driver.KindExecute, Message: "sqlite: auto-commit is managed by the engine and cannot be set"}
}

func (c *Conn) TransactionStart() error {
	tx, err := c.raw.BeginTx(context.Background(), nil)
	if err != nil {
		return wrapError(driver.KindExecute, err)
	}
	c.tx = tx
	c.autoCommit = false
	return nil
}

func (c *Conn) TransactionCommit() error {
	if c.tx == nil {
		return &driver.Error{Kind: driver.KindExecute, Message: "sqlite: no active transaction"}
	}
	err := c.tx.Commit()
	c.tx = nil
	c.autoCommit = true
	if err != nil {
		return wrapError(driver.KindExecute, err)
	}
	return nil
}

func (c *Conn) TransactionRollback() error {
	if c.tx == nil {
		return &driver.Error{Kind: driver.KindExecute, Message: "sqlite: no active transaction"}
	}
	err := c.tx.Rollback()
	c.tx = nil
	c.autoCommit = true
	if err != nil {
		return wrapError(driver.KindExecute, err)
	}
	return nil
}

func (c *Conn) Execute(sqlText string) error {
	_, err := c.execer().ExecContext(context.Background(), sqlText)
	if err != nil {
		return wrapError(driver.KindExecute, err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

func (c *Conn) execer() execer {
	if c.tx != nil {
		return c.tx
	}
	return c.raw
}

func (c *Conn) Prepare(sqlText string) (driver.Stmt, error) {
	debug.Debug("sqlite: preparing statement", "sql", sqlText)
	stmt, err := c.execer().PrepareContext(context.Background(), sqlText)
	if err != nil {
		return nil, wrapError(driver.KindPrepare, err)
	}
	return &Stmt{stmt: stmt}, nil
}

func (c *Conn) LastInsertID() (dbvalue.Value, error) {
	row := c.execer().QueryRowContext(context.Background(), "SELECT last_insert_rowid()")
	var id int64
	if err := row.Scan(&id); err != nil {
		return dbvalue.Null, wrapError(driver.KindExecute, err)
	}
	return dbvalue.I64(id), nil
}

// Stmt wraps *sql.Stmt, buffering bound arguments until Execute and
// decoding rows into dbvalue.Row on each advance.
type Stmt struct {
	stmt    *sql.Stmt
	args    map[int]interface{}
	maxArg  int
	rows    *sql.Rows
	columns int
	empty   bool
	started bool
	cur     dbvalue.Row
	closed  bool
}

var _ driver.Stmt = (*Stmt)(nil)

func (s *Stmt) Bind(index int, v dbvalue.Value) error { return s.BindDBValue(index, v) }

func (s *Stmt) BindDBValue(index int, v dbvalue.Value) error {
	debug.Debug("sqlite: binding placeholder", "index", index, "kind", v.Kind())
	if index < 0 {
		return &driver.Error{Kind: driver.KindBind, Message: fmt.Sprintf("sqlite: negative placeholder index %d", index)}
	}
	arg, err := toDriverArg(v)
	if err != nil {
		return wrapError(driver.KindBind, err)
	}
	if s.args == nil {
		s.args = map[int]interface{}{}
	}
	s.args[index] = arg
	if index+1 > s.maxArg {
		s.maxArg = index + 1
	}
	return nil
}

func (s *Stmt) orderedArgs() []interface{} {
	out := make([]interface{}, s.maxArg)
	for i := 0; i < s.maxArg; i++ {
		out[i] = s.args[i]
	}
	return out
}

func (s *Stmt) Execute() error {
	debug.Debug("sqlite: executing statement", "args", s.maxArg)
	if s.rows != nil {
		s.rows.Close()
		s.rows = nil
	}
	rows, err := s.stmt.Query(s.orderedArgs()...)
	if err != nil {
		return wrapError(driver.KindExecute, err)
	}
	s.rows = rows
	cols, err := rows.Columns()
	if err != nil {
		return wrapError(driver.KindExecute, err)
	}
	s.columns = len(cols)
	s.started = true
	return s.advance()
}

func (s *Stmt) advance() error {
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return wrapError(driver.KindExecute, err)
		}
		s.empty = true
		s.cur = nil
		return nil
	}
	vals := make([]interface{}, s.columns)
	ptrs := make([]interface{}, s.columns)
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := s.rows.Scan(ptrs...); err != nil {
		return wrapError(driver.KindExecute, err)
	}
	row := make(dbvalue.Row, s.columns)
	for i, v := range vals {
		row[i] = fromSQLiteValue(v)
	}
	s.cur = row
	s.empty = false
	return nil
}

func (s *Stmt) Empty() bool { return !s.started || s.empty }

func (s *Stmt) Front() (dbvalue.Row, error) {
	if s.Empty() {
		return nil, &driver.Error{Kind: driver.KindExecute, Message: "sqlite: front called on empty statement"}
	}
	return s.cur, nil
}

func (s *Stmt) PopFront() error {
	if s.Empty() {
		return &driver.Error{Kind: driver.KindExecute, Message: "sqlite: popFront called on empty statement"}
	}
	return s.advance()
}

func (s *Stmt) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.rows != nil {
		s.rows.Close()
	}
	return s.stmt.Close()
}

// fromSQLiteValue dispatches on the Go type go-sqlite3 returns for a
// column, mirroring sqlite3_column_type's integer/float/text/blob/null
// cases.
func fromSQLiteValue(v interface{}) dbvalue.Value {
	switch t := v.(type) {
	case nil:
		return dbvalue.Null
	case int64:
		return dbvalue.I64(t)
	case float64:
		return dbvalue.F64(t)
	case string:
		return dbvalue.Text(t)
	case []byte:
		return dbvalue.Blob(t)
	case bool:
		return dbvalue.Bool(t)
	default:
		return dbvalue.Text(fmt.Sprintf("%v", t))
	}
}

// toDriverArg coerces a dbvalue.Value into the Go type the sqlite3 driver
// binds natively, coercing booleans to integers and dates/times/datetimes
// to ISO-extended strings, per spec.md §4.9.
func toDriverArg(v dbvalue.Value) (interface{}, error) {
	switch v.Kind() {
	case dbvalue.KindNull:
		return nil, nil
	case dbvalue.KindBool:
		b, _ := v.GetBool()
		if b {
			return int64(1), nil
		}
		return int64(0), nil
	case dbvalue.KindI8, dbvalue.KindI16, dbvalue.KindI32, dbvalue.KindI64:
		n, _ := v.GetAsI64()
		return n, nil
	case dbvalue.KindU8, dbvalue.KindU16, dbvalue.KindU32, dbvalue.KindU64:
		u, _ := v.GetAsU64()
		if u > 1<<63-1 {
			return strconv.FormatUint(u, 10), nil
		}
		return int64(u), nil
	case dbvalue.KindF64:
		f, _ := v.GetAsF64()
		return f, nil
	case dbvalue.KindBlob:
		b, _ := v.GetBlob()
		return b, nil
	case dbvalue.KindText:
		t, _ := v.GetText()
		return t, nil
	case dbvalue.KindDate, dbvalue.KindTimeOfDay, dbvalue.KindDateTime:
		t, _ := v.GetAsText()
		return t, nil
	}
	return nil, driver.ErrUnsupportedType
}
