// Package driver defines the capability contract every database driver
// must satisfy: connection lifecycle, prepared statements, value binding,
// and row iteration. Application code and the entity mapper depend only on
// this contract, never on a concrete driver package directly.
package driver

import (
	"errors"
	"fmt"

	"github.com/oceandrift/database/dbvalue"
)

// Kind classifies a driver error the way spec.md §7 enumerates them.
type Kind int

const (
	KindConnection Kind = iota
	KindPrepare
	KindBind
	KindExecute
)

func (k Kind) String() string {
	switch k {
	case KindConnection:
		return "connection"
	case KindPrepare:
		return "prepare"
	case KindBind:
		return "bind"
	case KindExecute:
		return "execute"
	default:
		return "unknown"
	}
}

// sentinels usable with errors.Is, mirroring the teacher's ErrNotFound-style
// package-level sentinels.
var (
	ErrConnection = errors.New("driver: connection error")
	ErrPrepare    = errors.New("driver: prepare error")
	ErrBind       = errors.New("driver: bind error")
	ErrExecute    = errors.New("driver: execute error")
	// ErrUnsupportedType is returned by Bind/BindDBValue when a driver cannot
	// natively represent or coerce the bound variant.
	ErrUnsupportedType = errors.New("driver: unsupported value type")
)

func sentinelFor(k Kind) error {
	switch k {
	case KindConnection:
		return ErrConnection
	case KindPrepare:
		return ErrPrepare
	case KindBind:
		return ErrBind
	case KindExecute:
		return ErrExecute
	default:
		return ErrExecute
	}
}

// Error is the concrete error type every driver operation returns on
// failure. It carries at minimum a message and a coded kind; Code carries
// the underlying engine's native code where one exists (SQLite's extended
// result code, MariaDB's client error number).
type Error struct {
	Kind    Kind
	Message string
	Code    int
	Cause   error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("driver: %s: %s (code %d)", e.Kind, e.Message, e.Code)
	}
	return fmt.Sprintf("driver: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return sentinelFor(e.Kind)
}

// Is lets errors.Is(err, driver.ErrPrepare) etc. succeed regardless of
// whether Cause wraps a more specific error.
func (e *Error) Is(target error) bool {
	return target == sentinelFor(e.Kind)
}

func newError(kind Kind, cause error) *Error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// OpenMode is a bit-set of connection-open flags. Not every driver honors
// every bit; a driver that cannot represent a bit ignores it.
type OpenMode uint

const (
	OpenReadOnly OpenMode = 1 << iota
	OpenReadWrite
	OpenCreate
	OpenMemory
	OpenNoMutex
	OpenFullMutex
	OpenNoSymlink
)

// Has reports whether all the given bits are set.
func (m OpenMode) Has(bits OpenMode) bool { return m&bits == bits }

// Conn is a driver-owned connection: a single-threaded session with the
// database. At most one active transaction is permitted per connection.
type Conn interface {
	// Close is idempotent: closing an already-closed connection is not an
	// error. It releases every Stmt the connection owns.
	Close() error
	// Connected observes only local state.
	Connected() bool

	// AutoCommit reports the connection's current auto-commit state.
	AutoCommit() (bool, error)
	// SetAutoCommit sets auto-commit state. A driver whose underlying
	// engine manages auto-commit itself (SQLite) rejects this.
	SetAutoCommit(bool) error

	TransactionStart() error
	TransactionCommit() error
	TransactionRollback() error

	// Execute runs sql fire-and-forget; any rows produced are discarded.
	Execute(sql string) error
	// Prepare compiles sql, returning a handle positioned before any rows.
	Prepare(sql string) (Stmt, error)

	// LastInsertID returns the id of the last row inserted on this
	// connection, as reported by the underlying engine.
	LastInsertID() (dbvalue.Value, error)
}

// Stmt is a prepared statement: a bindable, single-pass, forward-only
// sequence of Row. Placeholder indices are 0-based at this boundary
// regardless of the underlying engine's native convention.
type Stmt interface {
	Bind(index int, v dbvalue.Value) error
	BindDBValue(index int, v dbvalue.Value) error

	// Execute runs with the currently bound values and advances to the
	// first row, if any. Calling Execute again after binding new values
	// resets native iteration state and runs again.
	Execute() error

	// Empty reports whether iteration is exhausted. Only meaningful after
	// Execute has been called at least once.
	Empty() bool
	// Front returns the current row. Only defined when !Empty().
	Front() (dbvalue.Row, error)
	// PopFront advances to the next row. Only defined when !Empty().
	PopFront() error

	// Close finalizes native resources. Safe to call at most once.
	Close() error
}

// NewConnectionError builds a Kind=Connection Error wrapping cause.
func NewConnectionError(cause error) *Error { return newError(KindConnection, cause) }

// NewPrepareError builds a Kind=Prepare Error wrapping cause.
func NewPrepareError(cause error) *Error { return newError(KindPrepare, cause) }

// NewBindError builds a Kind=Bind Error wrapping cause.
func NewBindError(cause error) *Error { return newError(KindBind, cause) }

// NewExecuteError builds a Kind=Execute Error wrapping cause.
func NewExecuteError(cause error) *Error { return newError(KindExecute, cause) }
