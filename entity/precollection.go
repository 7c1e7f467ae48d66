package entity

import (
	"reflect"

	"github.com/oceandrift/database/bind"
	"github.com/oceandrift/database/dbvalue"
	"github.com/oceandrift/database/driver"
	"github.com/oceandrift/database/query/ast"
	"github.com/oceandrift/database/query/builder"
	"github.com/oceandrift/database/query/compiler"
)

// PreCollection accumulates WHERE/ORDER BY/LIMIT constraints against one
// entity type before a terminal operation (fetch, count, aggregate, or
// delete) compiles and executes them — spec.md §4.8's typed query surface
// over the builder package's untyped one.
type PreCollection[T any] struct {
	conn    driver.Conn
	dialect compiler.Compiler
	schema  *schema
	query   ast.Query
}

func (p PreCollection[T]) clone(q ast.Query) PreCollection[T] {
	p.query = q
	return p
}

// Where narrows the collection with an AND-joined condition.
func (p PreCollection[T]) Where(col ast.Column, op ast.ComparisonOperator, value ...dbvalue.Value) PreCollection[T] {
	var preset *dbvalue.Value
	if len(value) > 0 {
		preset = &value[0]
	}
	return p.clone(p.query.WhereFn(func(w ast.Where) ast.Where {
		return w.Where(col, op, preset)
	}))
}

// OrWhere narrows the collection with an OR-joined condition.
func (p PreCollection[T]) OrWhere(col ast.Column, op ast.ComparisonOperator, value ...dbvalue.Value) PreCollection[T] {
	var preset *dbvalue.Value
	if len(value) > 0 {
		preset = &value[0]
	}
	return p.clone(p.query.WhereFn(func(w ast.Where) ast.Where {
		return w.Or(col, op, preset)
	}))
}

// WhereParentheses groups inner's conditions, AND-joined to whatever
// precedes them.
func (p PreCollection[T]) WhereParentheses(inner func(builder.WhereGroup) builder.WhereGroup) PreCollection[T] {
	return p.clone(p.query.WhereFn(func(w ast.Where) ast.Where {
		return w.Parentheses(ast.TokAnd, func(sub ast.Where) ast.Where {
			return inner(wrapWhereGroup(sub)).Unwrap()
		})
	}))
}

// OrderBy appends one ordering term. desc defaults to false.
func (p PreCollection[T]) OrderBy(col ast.Column, desc ...bool) PreCollection[T] {
	d := false
	if len(desc) > 0 {
		d = desc[0]
	}
	return p.clone(p.query.OrderBy(col, d))
}

// Limit enables LIMIT with a build-time preset.
func (p PreCollection[T]) Limit(n uint64) PreCollection[T] {
	return p.clone(p.query.WithLimit(ast.Limit{Enabled: true, Preset: &n}))
}

// LimitOffset enables LIMIT and OFFSET with build-time presets.
func (p PreCollection[T]) LimitOffset(limit, offset uint64) PreCollection[T] {
	return p.clone(p.query.WithLimit(ast.Limit{Enabled: true, Preset: &limit, OffsetEnabled: true, OffsetPreset: &offset}))
}

// Fetch compiles and runs a SELECT * over the collection's current
// constraints, decoding each row positionally into a *T (column i to the
// schema's field i).
func (p PreCollection[T]) Fetch() ([]*T, error) {
	sel := ast.Select{Query: p.query}
	bq, err := p.dialect.CompileSelect(sel)
	if err != nil {
		return nil, err
	}
	stmt, err := bind.Prepare(p.conn, bq)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()
	if err := stmt.Execute(); err != nil {
		return nil, err
	}

	var out []*T
	for !stmt.Empty() {
		row, err := stmt.Front()
		if err != nil {
			return nil, err
		}
		entity := new(T)
		if err := rowToEntity(p.schema, row, reflect.ValueOf(entity).Elem()); err != nil {
			return nil, err
		}
		out = append(out, entity)
		if err := stmt.PopFront(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// First is Fetch restricted to one row via LIMIT 1, returning (nil, false,
// nil) when nothing matches.
func (p PreCollection[T]) First() (*T, bool, error) {
	rows, err := p.Limit(1).Fetch()
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// Count runs SELECT COUNT(*) over the collection's current constraints.
func (p PreCollection[T]) Count() (uint64, error) {
	sel := ast.Select{Query: p.query, Expressions: []ast.SelectExpression{builder.CountStar()}}
	return p.scanUint64(sel)
}

// Aggregate runs SELECT <fn>(<col>) over the collection's current
// constraints.
func (p PreCollection[T]) Aggregate(fn ast.Aggregate, col ast.Column) (dbvalue.Value, error) {
	sel := ast.Select{Query: p.query, Expressions: []ast.SelectExpression{{Column: col, Aggregate: fn}}}
	bq, err := p.dialect.CompileSelect(sel)
	if err != nil {
		return dbvalue.Null, err
	}
	stmt, err := bind.Prepare(p.conn, bq)
	if err != nil {
		return dbvalue.Null, err
	}
	defer stmt.Close()
	if err := stmt.Execute(); err != nil {
		return dbvalue.Null, err
	}
	if stmt.Empty() {
		return dbvalue.Null, nil
	}
	row, err := stmt.Front()
	if err != nil {
		return dbvalue.Null, err
	}
	return row.At(0), nil
}

func (p PreCollection[T]) scanUint64(sel ast.Select) (uint64, error) {
	bq, err := p.dialect.CompileSelect(sel)
	if err != nil {
		return 0, err
	}
	stmt, err := bind.Prepare(p.conn, bq)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	if err := stmt.Execute(); err != nil {
		return 0, err
	}
	if stmt.Empty() {
		return 0, nil
	}
	row, err := stmt.Front()
	if err != nil {
		return 0, err
	}
	return row.At(0).GetAsU64()
}

// Delete compiles and runs a DELETE over the collection's current
// constraints.
func (p PreCollection[T]) Delete() error {
	del := ast.Delete{Query: p.query}
	bq, err := p.dialect.CompileDelete(del)
	if err != nil {
		return err
	}
	stmt, err := bind.Prepare(p.conn, bq)
	if err != nil {
		return err
	}
	defer stmt.Close()
	return stmt.Execute()
}

// wrapWhereGroup/Unwrap bridge query/builder's WhereGroup (which hides its
// ast.Where field) into PreCollection's Parentheses plumbing without
// exporting ast.Where construction twice.
func wrapWhereGroup(w ast.Where) builder.WhereGroup {
	return builder.NewWhereGroup(w)
}
