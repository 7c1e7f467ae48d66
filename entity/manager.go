package entity

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"

	"github.com/oceandrift/database/bind"
	"github.com/oceandrift/database/dbvalue"
	"github.com/oceandrift/database/driver"
	"github.com/oceandrift/database/query/ast"
	"github.com/oceandrift/database/query/builder"
	"github.com/oceandrift/database/query/compiler"
)

// Manager binds a Go struct type to one database connection through one
// dialect compiler, caching the schema and, per spec.md §4.8's adoption of
// the teacher's query/executor.go statement cache, the prepared statements
// it repeatedly rebinds — keyed by SQL text, cleared on Close.
type Manager[T any] struct {
	conn    driver.Conn
	dialect compiler.Compiler
	schema  *schema

	mu    sync.Mutex
	stmts map[string]driver.Stmt
}

// New binds T to conn using dialect for SQL generation. T must be a struct
// with an exported Id field of type uint64 or uuid.UUID.
func New[T any](conn driver.Conn, dialect compiler.Compiler) (*Manager[T], error) {
	var zero T
	t := reflect.TypeOf(zero)
	s, err := schemaFor(t)
	if err != nil {
		return nil, err
	}
	return &Manager[T]{conn: conn, dialect: dialect, schema: s, stmts: map[string]driver.Stmt{}}, nil
}

func (m *Manager[T]) table() ast.Table { return ast.NewTable(m.schema.table) }

// prepared returns a cached Stmt for bq.SQL, preparing and caching it on
// first use. Safe for concurrent use by multiple goroutines sharing one
// Manager, though driver.Conn itself is single-threaded per spec.md §5 —
// callers must still serialize actual Execute calls against one Conn.
func (m *Manager[T]) prepared(bq compiler.BuiltQuery) (driver.Stmt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stmt, ok := m.stmts[bq.SQL]; ok {
		return stmt, nil
	}
	stmt, err := bind.Prepare(m.conn, bq)
	if err != nil {
		return nil, err
	}
	m.stmts[bq.SQL] = stmt
	return stmt, nil
}

// Close closes every statement this Manager has cached. It does not close
// the underlying connection, which the caller owns.
func (m *Manager[T]) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var first error
	for sql, stmt := range m.stmts {
		if err := stmt.Close(); err != nil && first == nil {
			first = err
		}
		delete(m.stmts, sql)
	}
	return first
}

// Get fetches the entity with the given uint64 id. When no row matches it
// returns (nil, false, nil): a missing row is reported by the bool, not as
// an error.
func (m *Manager[T]) Get(id uint64) (*T, bool, error) {
	return m.getBy(dbvalue.U64(id))
}

// GetUUID fetches the entity with the given UUID id.
func (m *Manager[T]) GetUUID(id uuid.UUID) (*T, bool, error) {
	return m.getBy(dbvalue.Text(id.String()))
}

func (m *Manager[T]) getBy(idValue dbvalue.Value) (*T, bool, error) {
	sel := builder.Table(m.schema.table).
		Where(builder.Col("id"), ast.OpEQ, idValue).
		Select()
	bq, err := m.dialect.CompileSelect(sel)
	if err != nil {
		return nil, false, err
	}
	stmt, err := m.prepared(bq)
	if err != nil {
		return nil, false, err
	}
	if err := bind.Apply(stmt, bq); err != nil {
		return nil, false, err
	}
	if err := stmt.Execute(); err != nil {
		return nil, false, err
	}
	if stmt.Empty() {
		return nil, false, nil
	}
	row, err := stmt.Front()
	if err != nil {
		return nil, false, err
	}
	out := new(T)
	if err := rowToEntity(m.schema, row, reflect.ValueOf(out).Elem()); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// Store inserts a new entity. For a uint64-keyed entity, the id is assigned
// from the driver's LastInsertID and written back into *entity. For a
// UUID-keyed entity, the caller must have already set a non-nil id before
// calling Store.
func (m *Manager[T]) Store(entity *T) error {
	ev := reflect.ValueOf(entity).Elem()
	cols := m.schema.dataColumns()
	insertCols := cols
	if m.schema.idKind == idKindUUID {
		insertCols = append([]string{"id"}, cols...)
	}

	ins := builder.Insert(m.schema.table, insertCols...).Once()
	bq, err := m.dialect.CompileInsert(ins)
	if err != nil {
		return err
	}
	stmt, err := m.conn.Prepare(bq.SQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	idx := 0
	if m.schema.idKind == idKindUUID {
		if err := stmt.BindDBValue(idx, dbvalue.Text(m.schema.idUUID(ev).String())); err != nil {
			return err
		}
		idx++
	}
	for _, col := range cols {
		i := m.schema.columnIndex(col)
		if err := stmt.BindDBValue(idx, m.schema.fieldValue(ev, i)); err != nil {
			return err
		}
		idx++
	}
	if err := stmt.Execute(); err != nil {
		return err
	}

	if m.schema.idKind == idKindU64 {
		id, err := m.conn.LastInsertID()
		if err != nil {
			return err
		}
		u, err := id.GetAsU64()
		if err != nil {
			return err
		}
		m.schema.setIDU64(ev, u)
	}
	return nil
}

// Save stores entity if it is unsaved, otherwise updates the row matching
// its id — the single entry point the spec names for "insert-or-update".
func (m *Manager[T]) Save(entity *T) error {
	ev := reflect.ValueOf(entity).Elem()
	if m.schema.unsaved(ev) {
		return m.Store(entity)
	}
	return m.Update(entity)
}

// Update writes every data column of entity back to the row matching its
// id.
func (m *Manager[T]) Update(entity *T) error {
	ev := reflect.ValueOf(entity).Elem()
	cols := m.schema.dataColumns()

	var idPreset dbvalue.Value
	if m.schema.idKind == idKindUUID {
		idPreset = dbvalue.Text(m.schema.idUUID(ev).String())
	} else {
		idPreset = dbvalue.U64(m.schema.idU64(ev))
	}

	upd := builder.Table(m.schema.table).
		Where(builder.Col("id"), ast.OpEQ, idPreset).
		Update(cols...)
	bq, err := m.dialect.CompileUpdate(upd)
	if err != nil {
		return err
	}
	stmt, err := m.prepared(bq)
	if err != nil {
		return err
	}
	if err := bind.Apply(stmt, bq); err != nil {
		return err
	}

	for i, col := range cols {
		fieldIdx := m.schema.columnIndex(col)
		if err := stmt.BindDBValue(i, m.schema.fieldValue(ev, fieldIdx)); err != nil {
			return err
		}
	}
	return stmt.Execute()
}

// Remove deletes the row with the given uint64 id.
func (m *Manager[T]) Remove(id uint64) error {
	return m.removeBy(dbvalue.U64(id))
}

// RemoveUUID deletes the row with the given UUID id.
func (m *Manager[T]) RemoveUUID(id uuid.UUID) error {
	return m.removeBy(dbvalue.Text(id.String()))
}

// RemoveEntity deletes the row matching entity's own id.
func (m *Manager[T]) RemoveEntity(entity *T) error {
	ev := reflect.ValueOf(entity).Elem()
	if m.schema.idKind == idKindUUID {
		return m.removeBy(dbvalue.Text(m.schema.idUUID(ev).String()))
	}
	return m.removeBy(dbvalue.U64(m.schema.idU64(ev)))
}

func (m *Manager[T]) removeBy(idValue dbvalue.Value) error {
	del := builder.Table(m.schema.table).
		Where(builder.Col("id"), ast.OpEQ, idValue).
		Delete()
	bq, err := m.dialect.CompileDelete(del)
	if err != nil {
		return err
	}
	stmt, err := bind.Prepare(m.conn, bq)
	if err != nil {
		return err
	}
	defer stmt.Close()
	return stmt.Execute()
}

// Find starts a PreCollection rooted at this entity's table.
func (m *Manager[T]) Find() PreCollection[T] {
	return PreCollection[T]{
		conn:    m.conn,
		dialect: m.dialect,
		schema:  m.schema,
		query:   ast.NewQuery(m.table()),
	}
}

// columnIndex returns the position within s.fields/s.columns of the given
// lowercased column name. Panics if not found, mirroring idIndex's
// invariant: callers only ever pass names schemaFor already validated.
func (s *schema) columnIndex(col string) int {
	for i, c := range s.columns {
		if c == col {
			return i
		}
	}
	panic(fmt.Sprintf("entity: unknown column %q for %s", col, s.typ))
}
