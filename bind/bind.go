// Package bind implements the statement binding protocol of spec.md §4.5:
// given a driver.Conn and a compiler.BuiltQuery, prepare the statement and
// bind every preset value at its correct placeholder position, leaving
// only the application-supplied placeholders for the caller to fill.
package bind

import (
	"github.com/oceandrift/database/driver"
	"github.com/oceandrift/database/internal/debug"
	"github.com/oceandrift/database/query/compiler"
)

// Prepare prepares bq.SQL on conn and binds bq's WHERE, LIMIT, and OFFSET
// presets via Apply: WHERE presets at their placeholder index, then LIMIT
// at index Placeholders.Leading+Placeholders.Where, then OFFSET at the
// index right after it.
func Prepare(conn driver.Conn, bq compiler.BuiltQuery) (driver.Stmt, error) {
	debug.Debug("bind: preparing statement", "sql", bq.SQL)
	stmt, err := conn.Prepare(bq.SQL)
	if err != nil {
		return nil, err
	}
	if err := Apply(stmt, bq); err != nil {
		stmt.Close()
		return nil, err
	}
	return stmt, nil
}

// Apply binds bq's presets onto an already-prepared stmt, without
// re-preparing. Useful when a BuiltQuery is reused across many prepares of
// the same connection.
//
// bq.PreSets.Where keys are already absolute SQL placeholder positions
// (the compiler shifts them past any leading non-WHERE placeholders, e.g.
// UPDATE's SET list); LIMIT and OFFSET are bound at
// Placeholders.Leading+Placeholders.Where and the position right after it.
func Apply(stmt driver.Stmt, bq compiler.BuiltQuery) error {
	debug.Debug("bind: applying presets", "where", len(bq.PreSets.Where), "hasLimit", bq.PreSets.Limit != nil, "hasOffset", bq.PreSets.Offset != nil)
	for idx, v := range bq.PreSets.Where {
		if err := stmt.BindDBValue(idx, v); err != nil {
			return err
		}
	}
	limitIdx := bq.Placeholders.Leading + bq.Placeholders.Where
	if bq.PreSets.Limit != nil {
		if err := stmt.BindDBValue(limitIdx, *bq.PreSets.Limit); err != nil {
			return err
		}
	}
	if bq.PreSets.Offset != nil {
		if err := stmt.BindDBValue(limitIdx+1, *bq.PreSets.Offset); err != nil {
			return err
		}
	}
	return nil
}

// RemainingWherePlaceholders returns the absolute WHERE placeholder
// positions that have no preset and so must be filled by the application
// before Execute. It does not include leading (e.g. UPDATE SET) or
// LIMIT/OFFSET placeholders, which callers bind separately.
func RemainingWherePlaceholders(bq compiler.BuiltQuery) []int {
	remaining := make([]int, 0, bq.Placeholders.Where-len(bq.PreSets.Where))
	for i := 0; i < bq.Placeholders.Where; i++ {
		idx := bq.Placeholders.Leading + i
		if _, ok := bq.PreSets.Where[idx]; !ok {
			remaining = append(remaining, idx)
		}
	}
	return remaining
}
