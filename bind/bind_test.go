package bind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceandrift/database/dbvalue"
	"github.com/oceandrift/database/driver"
	"github.com/oceandrift/database/query/compiler"
)

type fakeStmt struct {
	bound map[int]dbvalue.Value
}

func newFakeStmt() *fakeStmt { return &fakeStmt{bound: map[int]dbvalue.Value{}} }

func (s *fakeStmt) Bind(index int, v dbvalue.Value) error       { return s.BindDBValue(index, v) }
func (s *fakeStmt) BindDBValue(index int, v dbvalue.Value) error { s.bound[index] = v; return nil }
func (s *fakeStmt) Execute() error                              { return nil }
func (s *fakeStmt) Empty() bool                                  { return true }
func (s *fakeStmt) Front() (dbvalue.Row, error)                  { return dbvalue.Row{}, nil }
func (s *fakeStmt) PopFront() error                              { return nil }
func (s *fakeStmt) Close() error                                 { return nil }

var _ driver.Stmt = (*fakeStmt)(nil)

func TestApplyBindsWherePresetsAtAbsoluteIndex(t *testing.T) {
	idPreset := dbvalue.U64(7)
	bq := compiler.BuiltQuery{
		SQL:          `UPDATE "person" SET "name" = ?, "age" = ? WHERE "id" = ?`,
		Placeholders: compiler.Placeholders{Leading: 2, Where: 1},
		PreSets:      compiler.PreSets{Where: map[int]dbvalue.Value{2: idPreset}},
	}
	stmt := newFakeStmt()
	require.NoError(t, Apply(stmt, bq))
	require.Contains(t, stmt.bound, 2)
	assert.True(t, stmt.bound[2].Equal(idPreset))
}

func TestApplyBindsLimitOffsetAfterLeadingAndWhere(t *testing.T) {
	limit := dbvalue.U64(10)
	offset := dbvalue.U64(5)
	bq := compiler.BuiltQuery{
		SQL:          `SELECT * FROM "person" WHERE "age" > ? LIMIT ? OFFSET ?`,
		Placeholders: compiler.Placeholders{Leading: 0, Where: 1},
		PreSets:      compiler.PreSets{Where: map[int]dbvalue.Value{}, Limit: &limit, Offset: &offset},
	}
	stmt := newFakeStmt()
	require.NoError(t, Apply(stmt, bq))
	require.Contains(t, stmt.bound, 1)
	require.Contains(t, stmt.bound, 2)
	assert.True(t, stmt.bound[1].Equal(limit))
	assert.True(t, stmt.bound[2].Equal(offset))
}

func TestRemainingWherePlaceholdersExcludesPresetsAndShiftsByLeading(t *testing.T) {
	preset := dbvalue.U64(1)
	bq := compiler.BuiltQuery{
		Placeholders: compiler.Placeholders{Leading: 2, Where: 3},
		PreSets:      compiler.PreSets{Where: map[int]dbvalue.Value{2: preset}},
	}
	remaining := RemainingWherePlaceholders(bq)
	assert.Equal(t, []int{3, 4}, remaining)
}
