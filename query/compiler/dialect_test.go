package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceandrift/database/dbvalue"
	"github.com/oceandrift/database/query/ast"
)

func TestCompileSelectPlainWhere(t *testing.T) {
	q := ast.NewQuery(ast.NewTable("mountain"))
	q = q.WhereFn(func(w ast.Where) ast.Where {
		return w.Where(ast.Col("height"), ast.OpGT, nil)
	})
	sel := ast.Select{Query: q}

	bq, err := SQLite{}.CompileSelect(sel)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "mountain" WHERE "height" > ?`, bq.SQL)
	assert.Equal(t, 0, bq.Placeholders.Leading)
	assert.Equal(t, 1, bq.Placeholders.Where)
}

func TestCompileSelectParenthesizedOrWhere(t *testing.T) {
	q := ast.NewQuery(ast.NewTable("mountain"))
	q = q.WhereFn(func(w ast.Where) ast.Where {
		w = w.Where(ast.Col("height"), ast.OpGT, nil)
		return w.Parentheses(ast.TokAnd, func(inner ast.Where) ast.Where {
			inner = inner.Where(ast.Col("location"), ast.OpEQ, nil)
			return inner.Or(ast.Col("location"), ast.OpEQ, nil)
		})
	})
	sel := ast.Select{Query: q}

	bq, err := SQLite{}.CompileSelect(sel)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT * FROM "mountain" WHERE "height" > ? AND ( "location" = ? OR "location" = ? )`,
		bq.SQL)
	assert.Equal(t, 3, bq.Placeholders.Where)
}

func TestCompileSelectQualifiedJoin(t *testing.T) {
	q := ast.NewQuery(ast.NewTable("book")).
		Join(ast.JoinInner, ast.NewTable("author"),
			ast.QualifiedCol(ast.NewTable("book"), "author_id"),
			ast.QualifiedCol(ast.NewTable("author"), "id"))
	sel := ast.Select{Query: q}

	bq, err := SQLite{}.CompileSelect(sel)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT * FROM "book" JOIN "author" ON "author"."id" = "book"."author_id"`,
		bq.SQL)
}

func TestCompileSelectMariaDBUsesBacktickQuoting(t *testing.T) {
	q := ast.NewQuery(ast.NewTable("mountain"))
	sel := ast.Select{Query: q}

	bq, err := MariaDB{}.CompileSelect(sel)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM `mountain`", bq.SQL)
}

func TestCompileSelectFullOuterJoinRejectedOnMariaDB(t *testing.T) {
	q := ast.NewQuery(ast.NewTable("a")).
		Join(ast.JoinFullOuter, ast.NewTable("b"), ast.QualifiedCol(ast.NewTable("a"), "id"), ast.QualifiedCol(ast.NewTable("b"), "a_id"))
	sel := ast.Select{Query: q}

	_, err := MariaDB{}.CompileSelect(sel)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrUnsupportedJoin)
	require.ErrorIs(t, err, ast.ErrInvalidQuery)

	_, err = SQLite{}.CompileSelect(sel)
	require.NoError(t, err)
}

func TestCompileUpdateShiftsWherePresetsPastSetColumns(t *testing.T) {
	idPreset := dbvalue.U64(7)
	q := ast.NewQuery(ast.NewTable("person"))
	q = q.WhereFn(func(w ast.Where) ast.Where {
		return w.Where(ast.Col("id"), ast.OpEQ, &idPreset)
	})
	upd := ast.Update{Query: q, Columns: []string{"name", "age"}}

	bq, err := SQLite{}.CompileUpdate(upd)
	require.NoError(t, err)
	assert.Equal(t, `UPDATE "person" SET "name" = ?, "age" = ? WHERE "id" = ?`, bq.SQL)
	assert.Equal(t, 2, bq.Placeholders.Leading)
	assert.Equal(t, 1, bq.Placeholders.Where)

	require.Contains(t, bq.PreSets.Where, 2)
	assert.True(t, bq.PreSets.Where[2].Equal(idPreset))
	assert.NotContains(t, bq.PreSets.Where, 0)
}

func TestCompileDeleteRejectsJoinedQuery(t *testing.T) {
	q := ast.NewQuery(ast.NewTable("a")).
		Join(ast.JoinInner, ast.NewTable("b"), ast.QualifiedCol(ast.NewTable("a"), "id"), ast.QualifiedCol(ast.NewTable("b"), "a_id"))
	del := ast.Delete{Query: q}

	_, err := SQLite{}.CompileDelete(del)
	require.ErrorIs(t, err, ast.ErrInvalidQuery)
}

func TestCompileInsertMultiRow(t *testing.T) {
	ins := ast.Insert{Table: ast.NewTable("person"), Columns: []string{"name", "age"}, RowCount: 2}

	bq, err := SQLite{}.CompileInsert(ins)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "person" ("name", "age") VALUES (?,?), (?,?)`, bq.SQL)
}

func TestCompileInsertDefaultValues(t *testing.T) {
	ins := ast.Insert{Table: ast.NewTable("person"), RowCount: 1}

	bq, err := SQLite{}.CompileInsert(ins)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "person" DEFAULT VALUES`, bq.SQL)
}

func TestCompileSelectLimitOffsetPresets(t *testing.T) {
	limit := uint64(10)
	offset := uint64(5)
	q := ast.NewQuery(ast.NewTable("person")).
		WithLimit(ast.Limit{Enabled: true, Preset: &limit, OffsetEnabled: true, OffsetPreset: &offset})
	sel := ast.Select{Query: q}

	bq, err := SQLite{}.CompileSelect(sel)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "person" LIMIT ? OFFSET ?`, bq.SQL)
	require.NotNil(t, bq.PreSets.Limit)
	require.NotNil(t, bq.PreSets.Offset)
	assert.True(t, bq.PreSets.Limit.Equal(dbvalue.U64(10)))
	assert.True(t, bq.PreSets.Offset.Equal(dbvalue.U64(5)))
}
