package entity

import (
	"reflect"
	"sort"
	"strings"

	"github.com/oceandrift/database/bind"
	"github.com/oceandrift/database/dbvalue"
	"github.com/oceandrift/database/driver"
	"github.com/oceandrift/database/query/ast"
	"github.com/oceandrift/database/query/builder"
	"github.com/oceandrift/database/query/compiler"
)

// foreignKeyColumn is the convention spec.md §4.8 assumes for a many-to-one
// reference: the referenced type's lowercased name plus "_id".
func foreignKeyColumn(one reflect.Type) string {
	return strings.ToLower(one.Name()) + "_id"
}

// joinTableName is the convention for an unordered many-to-many
// relationship: both table names, lexicographically sorted, joined by "_".
func joinTableName(a, b reflect.Type) string {
	names := []string{strings.ToLower(a.Name()), strings.ToLower(b.Name())}
	sort.Strings(names)
	return names[0] + "_" + names[1]
}

// ManyToOne fetches the One-side entity referenced by many's
// "<One>_id" foreign key column. One must itself be a registered entity
// type.
func ManyToOne[One any](conn driver.Conn, dialect compiler.Compiler, manyID uint64, manyTable string) (*One, bool, error) {
	var zero One
	oneType := reflect.TypeOf(zero)
	oneSchema, err := schemaFor(oneType)
	if err != nil {
		return nil, false, err
	}
	fkCol := foreignKeyColumn(oneType)

	sel := builder.Table(manyTable).
		InnerJoin(oneSchema.table,
			builder.TableCol(manyTable, fkCol),
			builder.TableCol(oneSchema.table, "id")).
		Where(builder.TableCol(manyTable, "id"), ast.OpEQ, dbvalue.U64(manyID)).
		Select(selectExprsFor(oneSchema, oneSchema.table)...)

	bq, err := dialect.CompileSelect(sel)
	if err != nil {
		return nil, false, err
	}
	stmt, err := bind.Prepare(conn, bq)
	if err != nil {
		return nil, false, err
	}
	defer stmt.Close()
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
	out := new(One)
	if err := rowToEntity(oneSchema, row, reflect.ValueOf(out).Elem()); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// OneToOne is ManyToOne's semantic alias for a relationship the
// application has constrained to at most one row per foreign key value.
func OneToOne[One any](conn driver.Conn, dialect compiler.Compiler, oneID uint64, oneTable string) (*One, bool, error) {
	return ManyToOne[One](conn, dialect, oneID, oneTable)
}

// OneToMany fetches every Many-side row whose "<One>_id" foreign key
// equals oneID.
func OneToMany[Many any](conn driver.Conn, dialect compiler.Compiler, oneType reflect.Type, oneID uint64) ([]*Many, error) {
	var zero Many
	manySchema, err := schemaFor(reflect.TypeOf(zero))
	if err != nil {
		return nil, err
	}
	fkCol := foreignKeyColumn(oneType)

	sel := builder.Table(manySchema.table).
		Where(builder.Col(fkCol), ast.OpEQ, dbvalue.U64(oneID)).
		Select()
	bq, err := dialect.CompileSelect(sel)
	if err != nil {
		return nil, err
	}
	stmt, err := bind.Prepare(conn, bq)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()
	if err := stmt.Execute(); err != nil {
		return nil, err
	}

	var out []*Many
	for !stmt.Empty() {
		row, err := stmt.Front()
		if err != nil {
			return nil, err
		}
		entity := new(Many)
		if err := rowToEntity(manySchema, row, reflect.ValueOf(entity).Elem()); err != nil {
			return nil, err
		}
		out = append(out, entity)
		if err := stmt.PopFront(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ManyToMany fetches every Target-side row associated with sourceID
// through the conventionally-named join table (both table names,
// lexicographically sorted, joined by "_").
func ManyToMany[Target any](conn driver.Conn, dialect compiler.Compiler, sourceType reflect.Type, sourceID uint64) ([]*Target, error) {
	var zero Target
	targetType := reflect.TypeOf(zero)
	targetSchema, err := schemaFor(targetType)
	if err != nil {
		return nil, err
	}
	join := joinTableName(sourceType, targetType)
	sourceFK := foreignKeyColumn(sourceType)
	targetFK := foreignKeyColumn(targetType)

	sel := builder.Table(targetSchema.table).
		InnerJoin(join,
			builder.TableCol(targetSchema.table, "id"),
			builder.TableCol(join, targetFK)).
		Where(builder.TableCol(join, sourceFK), ast.OpEQ, dbvalue.U64(sourceID)).
		Select(selectExprsFor(targetSchema, targetSchema.table)...)

	bq, err := dialect.CompileSelect(sel)
	if err != nil {
		return nil, err
	}
	stmt, err := bind.Prepare(conn, bq)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()
	if err := stmt.Execute(); err != nil {
		return nil, err
	}

	var out []*Target
	for !stmt.Empty() {
		row, err := stmt.Front()
		if err != nil {
			return nil, err
		}
		entity := new(Target)
		if err := rowToEntity(targetSchema, row, reflect.ValueOf(entity).Elem()); err != nil {
			return nil, err
		}
		out = append(out, entity)
		if err := stmt.PopFront(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ManyToManyAssign inserts a join-table row associating a and b, using the
// table-name-sorted convention joinTableName relies on.
func ManyToManyAssign(conn driver.Conn, dialect compiler.Compiler, aType, bType reflect.Type, aID, bID uint64) error {
	join := joinTableName(aType, bType)
	cols, args := joinColumns(aType, bType, aID, bID)

	ins := builder.Insert(join, cols...).Once()
	bq, err := dialect.CompileInsert(ins)
	if err != nil {
		return err
	}
	stmt, err := conn.Prepare(bq.SQL)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, v := range args {
		if err := stmt.BindDBValue(i, v); err != nil {
			return err
		}
	}
	return stmt.Execute()
}

// ManyToManyUnassign deletes the join-table row associating a and b, if any.
func ManyToManyUnassign(conn driver.Conn, dialect compiler.Compiler, aType, bType reflect.Type, aID, bID uint64) error {
	join := joinTableName(aType, bType)
	cols, args := joinColumns(aType, bType, aID, bID)

	b := builder.Table(join)
	for i, col := range cols {
		b = b.Where(builder.Col(col), ast.OpEQ, args[i])
	}
	del := b.Delete()
	bq, err := dialect.CompileDelete(del)
	if err != nil {
		return err
	}
	stmt, err := bind.Prepare(conn, bq)
	if err != nil {
		return err
	}
	defer stmt.Close()
	return stmt.Execute()
}

// joinColumns returns the two FK columns of aType/bType's join table and
// their bound values, always in the same lexicographic order
// joinTableName uses so Assign/Unassign agree on column ordering.
func joinColumns(aType, bType reflect.Type, aID, bID uint64) ([]string, []dbvalue.Value) {
	aName, bName := strings.ToLower(aType.Name()), strings.ToLower(bType.Name())
	aCol, bCol := foreignKeyColumn(aType), foreignKeyColumn(bType)
	if aName <= bName {
		return []string{aCol, bCol}, []dbvalue.Value{dbvalue.U64(aID), dbvalue.U64(bID)}
	}
	return []string{bCol, aCol}, []dbvalue.Value{dbvalue.U64(bID), dbvalue.U64(aID)}
}

// selectExprsFor builds a qualified "*"-equivalent expression list: one
// plain qualified column per schema field, in field order, used when a
// query joins another table and an unqualified "*" would be ambiguous.
func selectExprsFor(s *schema, table string) []ast.SelectExpression {
	exprs := make([]ast.SelectExpression, len(s.columns))
	for i, col := range s.columns {
		exprs[i] = builder.Plain(builder.TableCol(table, col))
	}
	return exprs
}
