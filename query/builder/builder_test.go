package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceandrift/database/dbvalue"
	"github.com/oceandrift/database/query/ast"
	"github.com/oceandrift/database/query/compiler"
)

func TestWhereIsImmutable(t *testing.T) {
	base := Table("mountain").Where(Col("height"), ast.OpGT, dbvalue.I64(1000))
	branchA := base.Where(Col("location"), ast.OpEQ, dbvalue.Text("Nepal"))
	branchB := base.Where(Col("location"), ast.OpEQ, dbvalue.Text("Pakistan"))

	aSQL, err := compiler.SQLite{}.CompileSelect(branchA.Select())
	require.NoError(t, err)
	bSQL, err := compiler.SQLite{}.CompileSelect(branchB.Select())
	require.NoError(t, err)

	// Preset values compile to "?", so the branches differ only in their
	// carried presets, not in their SQL text.
	assert.True(t, aSQL.PreSets.Where[1].Equal(dbvalue.Text("Nepal")))
	assert.True(t, bSQL.PreSets.Where[1].Equal(dbvalue.Text("Pakistan")))
	assert.Contains(t, aSQL.SQL, `"height" > ?`)
	assert.Contains(t, bSQL.SQL, `"height" > ?`)
}

func TestWhereParenthesesGroupsOrConditions(t *testing.T) {
	q := Table("mountain").
		Where(Col("height"), ast.OpGT, dbvalue.I64(1000)).
		WhereParentheses(func(g WhereGroup) WhereGroup {
			return g.Where(Col("location"), ast.OpEQ, dbvalue.Text("Nepal")).
				OrWhere(Col("location"), ast.OpEQ, dbvalue.Text("Pakistan"))
		}).
		Select()

	bq, err := compiler.SQLite{}.CompileSelect(q)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT * FROM "mountain" WHERE "height" > ? AND ( "location" = ? OR "location" = ? )`,
		bq.SQL)
}

func TestInnerJoinRequiresQualifiedCallerColumns(t *testing.T) {
	sel := Table("book").
		InnerJoin("author", TableCol("book", "author_id"), TableCol("author", "id")).
		Select()

	bq, err := compiler.SQLite{}.CompileSelect(sel)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT * FROM "book" JOIN "author" ON "author"."id" = "book"."author_id"`,
		bq.SQL)
}

func TestLimitOffsetValuePresetsBind(t *testing.T) {
	sel := Table("person").LimitOffsetValue(10, 5).Select()

	bq, err := compiler.SQLite{}.CompileSelect(sel)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "person" LIMIT ? OFFSET ?`, bq.SQL)
	require.NotNil(t, bq.PreSets.Limit)
	require.NotNil(t, bq.PreSets.Offset)
}

func TestInsertOnceVersusTimes(t *testing.T) {
	once := Insert("person", "name", "age").Once()
	assert.Equal(t, 1, once.RowCount)

	thrice := Insert("person", "name", "age").Times(3)
	assert.Equal(t, 3, thrice.RowCount)

	bq, err := compiler.SQLite{}.CompileInsert(thrice)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "person" ("name", "age") VALUES (?,?), (?,?), (?,?)`, bq.SQL)
}

func TestCountStarDiffersFromCountColumn(t *testing.T) {
	star := CountStar()
	assert.True(t, star.Star)
	assert.Equal(t, ast.AggCount, star.Aggregate)

	col := Count(Col("id"))
	assert.False(t, col.Star)
	assert.Equal(t, "id", col.Column.Name)
}
