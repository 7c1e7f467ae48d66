// Package builder provides the fluent, pure, value-returning combinators
// used to assemble a query/ast.Query and terminate it into a
// Select/Update/Insert/Delete. Every method returns a new value; nothing is
// mutated in place, so a partially-built query can be branched and reused.
package builder

import (
	"github.com/oceandrift/database/dbvalue"
	"github.com/oceandrift/database/query/ast"
)

// Table starts a query rooted at the named table.
func Table(name string) Builder {
	return Builder{q: ast.NewQuery(ast.NewTable(name))}
}

// Builder wraps an in-progress ast.Query.
type Builder struct {
	q ast.Query
}

// Col builds an unqualified column reference.
func Col(name string) ast.Column { return ast.Col(name) }

// TableCol builds a table-qualified column reference.
func TableCol(table string, name string) ast.Column { return ast.QualifiedCol(ast.NewTable(table), name) }

// Where appends a condition, using AND to join it to whatever came before.
// value is optional: omit it for IS NULL / IS NOT NULL, a deferred
// placeholder bound later, or pass it to pre-set the value at build time.
func (b Builder) Where(col ast.Column, op ast.ComparisonOperator, value ...dbvalue.Value) Builder {
	return Builder{q: b.q.WhereFn(func(w ast.Where) ast.Where {
		return w.Where(col, op, presetOf(value))
	})}
}

// OrWhere is Where's disjunctive counterpart.
func (b Builder) OrWhere(col ast.Column, op ast.ComparisonOperator, value ...dbvalue.Value) Builder {
	return Builder{q: b.q.WhereFn(func(w ast.Where) ast.Where {
		return w.Or(col, op, presetOf(value))
	})}
}

func presetOf(value []dbvalue.Value) *dbvalue.Value {
	if len(value) == 0 {
		return nil
	}
	v := value[0]
	return &v
}

// WhereGroup is the sub-builder passed to WhereParentheses; it wraps the
// parenthesized sub-clause and offers the same Where/OrWhere vocabulary.
type WhereGroup struct {
	w ast.Where
}

// NewWhereGroup wraps an existing ast.Where as a WhereGroup, for callers
// outside this package (entity.PreCollection) that build parenthesized
// clauses against their own ast.Query rather than through Builder.
func NewWhereGroup(w ast.Where) WhereGroup { return WhereGroup{w: w} }

// Unwrap returns the group's underlying ast.Where.
func (g WhereGroup) Unwrap() ast.Where { return g.w }

// Where appends the group's first or next (AND-joined) condition.
func (g WhereGroup) Where(col ast.Column, op ast.ComparisonOperator, value ...dbvalue.Value) WhereGroup {
	return WhereGroup{w: g.w.Where(col, op, presetOf(value))}
}

// OrWhere appends an OR-joined condition within the group.
func (g WhereGroup) OrWhere(col ast.Column, op ast.ComparisonOperator, value ...dbvalue.Value) WhereGroup {
	return WhereGroup{w: g.w.Or(col, op, presetOf(value))}
}

// WhereParentheses wraps inner's conditions in a parenthesized group,
// AND-joined to whatever precedes it in the outer clause.
func (b Builder) WhereParentheses(inner func(WhereGroup) WhereGroup) Builder {
	return b.whereParentheses(ast.TokAnd, inner)
}

// OrWhereParentheses is WhereParentheses joined with OR instead of AND.
func (b Builder) OrWhereParentheses(inner func(WhereGroup) WhereGroup) Builder {
	return b.whereParentheses(ast.TokOr, inner)
}

func (b Builder) whereParentheses(junctor ast.TokenKind, inner func(WhereGroup) WhereGroup) Builder {
	return Builder{q: b.q.WhereFn(func(w ast.Where) ast.Where {
		return w.Parentheses(junctor, func(sub ast.Where) ast.Where {
			return inner(WhereGroup{w: sub}).w
		})
	})}
}

// Join appends a join of the given kind. For any kind other than cross,
// both source and target columns must carry a name.
func (b Builder) Join(kind ast.JoinKind, target string, source, targetColumn ast.Column) Builder {
	return Builder{q: b.q.Join(kind, ast.NewTable(target), source, targetColumn)}
}

// InnerJoin is shorthand for Join(ast.JoinInner, ...).
func (b Builder) InnerJoin(target string, source, targetColumn ast.Column) Builder {
	return b.Join(ast.JoinInner, target, source, targetColumn)
}

// LeftOuterJoin is shorthand for Join(ast.JoinLeftOuter, ...).
func (b Builder) LeftOuterJoin(target string, source, targetColumn ast.Column) Builder {
	return b.Join(ast.JoinLeftOuter, target, source, targetColumn)
}

// RightOuterJoin is shorthand for Join(ast.JoinRightOuter, ...).
func (b Builder) RightOuterJoin(target string, source, targetColumn ast.Column) Builder {
	return b.Join(ast.JoinRightOuter, target, source, targetColumn)
}

// FullOuterJoin is shorthand for Join(ast.JoinFullOuter, ...). SQLite
// accepts it; the MariaDB compiler rejects it at compile time.
func (b Builder) FullOuterJoin(target string, source, targetColumn ast.Column) Builder {
	return b.Join(ast.JoinFullOuter, target, source, targetColumn)
}

// CrossJoin appends a CROSS JOIN, which carries no ON clause.
func (b Builder) CrossJoin(target string) Builder {
	return Builder{q: b.q.CrossJoin(ast.NewTable(target))}
}

// OrderBy appends one ordering term. desc defaults to false (ascending).
func (b Builder) OrderBy(col ast.Column, desc ...bool) Builder {
	d := false
	if len(desc) > 0 {
		d = desc[0]
	}
	return Builder{q: b.q.OrderBy(col, d)}
}

// Asc and Desc are the explicit direction values for OrderBy, for call
// sites that prefer naming the direction over a bare bool.
const (
	Asc  = false
	Desc = true
)

// Limit enables LIMIT with no preset value: the caller binds it at
// execution time.
func (b Builder) Limit() Builder {
	return Builder{q: b.q.WithLimit(ast.Limit{Enabled: true})}
}

// LimitValue enables LIMIT with a build-time preset.
func (b Builder) LimitValue(n uint64) Builder {
	return Builder{q: b.q.WithLimit(ast.Limit{Enabled: true, Preset: &n})}
}

// LimitOffsetValue enables LIMIT and OFFSET, both with build-time presets.
func (b Builder) LimitOffsetValue(limit, offset uint64) Builder {
	return Builder{q: b.q.WithLimit(ast.Limit{Enabled: true, Preset: &limit, OffsetEnabled: true, OffsetPreset: &offset})}
}

// LimitWithOffset enables LIMIT and OFFSET with no preset values for
// either; both are bound at execution time.
func (b Builder) LimitWithOffset() Builder {
	return Builder{q: b.q.WithLimit(ast.Limit{Enabled: true, OffsetEnabled: true})}
}

// Select terminates the query into a SELECT with the given expression
// list. No expressions defaults to "*".
func (b Builder) Select(exprs ...ast.SelectExpression) ast.Select {
	return ast.Select{Query: b.q, Expressions: exprs}
}

// Update terminates the query into an UPDATE over the given columns, one
// placeholder per column in the order given.
func (b Builder) Update(columns ...string) ast.Update {
	return ast.Update{Query: b.q, Columns: columns}
}

// Delete terminates the query into a DELETE.
func (b Builder) Delete() ast.Delete {
	return ast.Delete{Query: b.q}
}

// InsertBuilder accumulates the table and column list for an INSERT before
// Times/Once fixes the row count.
type InsertBuilder struct {
	table   ast.Table
	columns []string
}

// Insert starts building an INSERT into table over the given columns. An
// empty column list is only valid combined with Once() (DEFAULT VALUES).
func Insert(table string, columns ...string) InsertBuilder {
	return InsertBuilder{table: ast.NewTable(table), columns: columns}
}

// Times terminates the INSERT with rowCount value groups.
func (i InsertBuilder) Times(rowCount int) ast.Insert {
	return ast.Insert{Table: i.table, Columns: i.columns, RowCount: rowCount}
}

// Once is shorthand for Times(1).
func (i InsertBuilder) Once() ast.Insert {
	return i.Times(1)
}

// Star is the "*" select expression — the default when no columns are given.
func Star() ast.SelectExpression { return ast.StarExpression() }

// Plain wraps a column with no aggregate.
func Plain(col ast.Column) ast.SelectExpression { return ast.SelectExpression{Column: col} }

// Count wraps a column in COUNT(...).
func Count(col ast.Column) ast.SelectExpression { return ast.SelectExpression{Column: col, Aggregate: ast.AggCount} }

// CountStar is COUNT(*), the spec-chosen default for a column-less count().
func CountStar() ast.SelectExpression {
	return ast.SelectExpression{Star: true, Aggregate: ast.AggCount}
}

// Sum wraps a column in SUM(...).
func Sum(col ast.Column) ast.SelectExpression { return ast.SelectExpression{Column: col, Aggregate: ast.AggSum} }

// Avg wraps a column in AVG(...).
func Avg(col ast.Column) ast.SelectExpression { return ast.SelectExpression{Column: col, Aggregate: ast.AggAvg} }

// Max wraps a column in MAX(...).
func Max(col ast.Column) ast.SelectExpression { return ast.SelectExpression{Column: col, Aggregate: ast.AggMax} }

// Min wraps a column in MIN(...).
func Min(col ast.Column) ast.SelectExpression { return ast.SelectExpression{Column: col, Aggregate: ast.AggMin} }

// GroupConcat wraps a column in GROUP_CONCAT(...).
func GroupConcat(col ast.Column) ast.SelectExpression {
	return ast.SelectExpression{Column: col, Aggregate: ast.AggGroupConcat}
}

// DistinctOf marks an aggregate select expression DISTINCT.
func DistinctOf(expr ast.SelectExpression) ast.SelectExpression {
	expr.Distinct = true
	return expr
}
