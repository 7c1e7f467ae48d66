// Package mariadb implements the driver.Conn/driver.Stmt contract on top
// of MariaDB/MySQL, via database/sql and github.com/go-sql-driver/mysql —
// the same binary-protocol client the teacher's runtime/client package
// wires in for its "mysql" provider.
package mariadb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/oceandrift/database/dbvalue"
	"github.com/oceandrift/database/driver"
	"github.com/oceandrift/database/internal/debug"
)

// wrapError builds a driver.Error of the given kind around cause, filling
// Code with the MariaDB/MySQL client error number when cause carries one,
// per spec.md §4.2/§7's native-code contract.
func wrapError(kind driver.Kind, cause error) *driver.Error {
	msg := ""
	code := 0
	if cause != nil {
		msg = cause.Error()
		var me *mysql.MySQLError
		if errors.As(cause, &me) {
			code = int(me.Number)
		}
	}
	return &driver.Error{Kind: kind, Message: msg, Code: code, Cause: cause}
}

// Config identifies a MariaDB/MySQL server to connect to.
type Config struct {
	Host     string
	Port     int // defaults to 3306
	User     string
	Password string
	Database string // optional
}

func (c Config) dsn() string {
	port := c.Port
	if port == 0 {
		port = 3306
	}
	var b strings.Builder
	b.WriteString(c.User)
	if c.Password != "" {
		b.WriteByte(':')
		b.WriteString(c.Password)
	}
	b.WriteByte('@')
	fmt.Fprintf(&b, "tcp(%s:%d)/%s", c.Host, port, c.Database)
	b.WriteString("?parseTime=true")
	return b.String()
}

// Conn is a single-threaded MariaDB/MySQL session.
type Conn struct {
	db     *sql.DB
	raw    *sql.Conn
	tx     *sql.Tx
	closed bool
}

var _ driver.Conn = (*Conn)(nil)

// Open opens a TCP connection to the server described by cfg.
func Open(cfg Config) (*Conn, error) {
	db, err := sql.Open("mysql", cfg.dsn())
	if err != nil {
		return nil, wrapError(driver.KindConnection, err)
	}
	db.SetMaxOpenConns(1)

	raw, err := db.Conn(context.Background())
	if err != nil {
		db.Close()
		return nil, wrapError(driver.KindConnection, err)
	}
	if err := raw.PingContext(context.Background()); err != nil {
		raw.Close()
		db.Close()
		return nil, wrapError(driver.KindConnection, err)
	}

	return &Conn{db: db, raw: raw}, nil
}

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
		debug.Warn("mariadb: error releasing connection", "error", err)
	}
	return c.db.Close()
}

func (c *Conn) Connected() bool { return !c.closed }

// AutoCommit reads the server's session autocommit variable.
func (c *Conn) AutoCommit() (bool, error) {
	row := c.execer().QueryRowContext(context.Background(), "SELECT @@autocommit")
	var v int
	if err := row.Scan(&v); err != nil {
		return false, wrapError(driver.KindExecute, err)
	}
	return v != 0, nil
}

// SetAutoCommit sets the server's session autocommit variable.
func (c *Conn) SetAutoCommit(on bool) error {
	val := "0"
	if on {
		val = "1"
	}
	if _, err := c.execer().ExecContext(context.Background(), "SET autocommit="+val); err != nil {
		return wrapError(driver.KindExecute, err)
	}
	return nil
}

func (c *Conn) TransactionStart() error {
	tx, err := c.raw.BeginTx(context.Background(), nil)
	if err != nil {
		return wrapError(driver.KindExecute, err)
	}
	c.tx = tx
	return nil
}

func (c *Conn) TransactionCommit() error {
	if c.tx == nil {
		return &driver.Error{Kind: driver.KindExecute, Message: "mariadb: no active transaction"}
	}
	err := c.tx.Commit()
	c.tx = nil
	if err != nil {
		return wrapError(driver.KindExecute, err)
	}
	return nil
}

func (c *Conn) TransactionRollback() error {
	if c.tx == nil {
		return &driver.Error{Kind: driver.KindExecute, Message: "mariadb: no active transaction"}
	}
	err := c.tx.Rollback()
	c.tx = nil
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
	debug.Debug("mariadb: preparing statement", "sql", sqlText)
	stmt, err := c.execer().PrepareContext(context.Background(), sqlText)
	if err != nil {
		return nil, wrapError(driver.KindPrepare, err)
	}
	return &Stmt{stmt: stmt}, nil
}

func (c *Conn) LastInsertID() (dbvalue.Value, error) {
	row := c.execer().QueryRowContext(context.Background(), "SELECT LAST_INSERT_ID()")
	var id uint64
	if err := row.Scan(&id); err != nil {
		return dbvalue.Null, wrapError(driver.KindExecute, err)
	}
	return dbvalue.U64(id), nil
}

// Stmt wraps *sql.Stmt. On Execute, if the client reports no result set
// (ordinary for DDL and writes), the statement transparently becomes an
// empty sequence rather than surfacing an error, per spec.md §4.7.
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
	debug.Debug("mariadb: binding placeholder", "index", index, "kind", v.Kind())
	if index < 0 {
		return &driver.Error{Kind: driver.KindBind, Message: fmt.Sprintf("mariadb: negative placeholder index %d", index)}
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
	debug.Debug("mariadb: executing statement", "args", s.maxArg)
	if s.rows != nil {
		s.rows.Close()
		s.rows = nil
	}
	rows, err := s.stmt.Query(s.orderedArgs()...)
	if err != nil {
		if isNoResultSet(err) {
			s.started = true
			s.empty = true
			s.columns = 0
			s.rows = nil
			return nil
		}
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

// isNoResultSet reports whether err is the go-sql-driver/mysql sentinel
// for "statement did not produce a result set" (DDL, INSERT, UPDATE,
// DELETE run through Query instead of Exec).
func isNoResultSet(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no Rows")
}

func (s *Stmt) advance() error {
	if s.rows == nil || !s.rows.Next() {
		if s.rows != nil {
			if err := s.rows.Err(); err != nil {
				return wrapError(driver.KindExecute, err)
			}
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
		row[i] = fromMySQLValue(v)
	}
	s.cur = row
	s.empty = false
	return nil
}

func (s *Stmt) Empty() bool { return !s.started || s.empty }

func (s *Stmt) Front() (dbvalue.Row, error) {
	if s.Empty() {
		return nil, &driver.Error{Kind: driver.KindExecute, Message: "mariadb: front called on empty statement"}
	}
	return s.cur, nil
}

func (s *Stmt) PopFront() error {
	if s.Empty() {
		return &driver.Error{Kind: driver.KindExecute, Message: "mariadb: popFront called on empty statement"}
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

func fromMySQLValue(v interface{}) dbvalue.Value {
	switch t := v.(type) {
	case nil:
		return dbvalue.Null
	case int64:
		return dbvalue.I64(t)
	case uint64:
		return dbvalue.U64(t)
	case float64:
		return dbvalue.F64(t)
	case float32:
		return dbvalue.F64(float64(t))
	case []byte:
		return dbvalue.Blob(t)
	case string:
		return dbvalue.Text(t)
	case bool:
		return dbvalue.Bool(t)
	default:
		return dbvalue.Text(fmt.Sprintf("%v", t))
	}
}

func toDriverArg(v dbvalue.Value) (interface{}, error) {
	switch v.Kind() {
	case dbvalue.KindNull:
		return nil, nil
	case dbvalue.KindBool:
		b, _ := v.GetBool()
		return b, nil
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
		t, err := v.AsGoTime()
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, driver.ErrUnsupportedType
}
