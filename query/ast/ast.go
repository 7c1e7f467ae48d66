// Package ast defines the language-agnostic in-memory representation of a
// query: tables, columns, the WHERE token stream, joins, ordering, limits,
// aggregates, and the INSERT row shape. Nothing in this package knows how
// to produce SQL — that's query/compiler's job.
package ast

import (
	"errors"

	"github.com/oceandrift/database/dbvalue"
)

// ErrInvalidQuery is returned when an AST-level invariant is violated
// (empty UPDATE columns, a JOIN on DELETE/UPDATE, FULL OUTER JOIN targeting
// a dialect that rejects it).
var ErrInvalidQuery = errors.New("ast: invalid query")

// Table is a bare identifier, never used raw — always quoted per dialect.
type Table struct {
	Name string
}

// NewTable validates and constructs a Table.
func NewTable(name string) Table {
	if name == "" {
		panic("ast: table name must not be empty")
	}
	return Table{Name: name}
}

// Column is a column name with optional table qualification. "*" is only
// meaningful inside a SELECT expression list.
type Column struct {
	TableName string // empty when unqualified
	Name      string
}

// Col builds an unqualified column.
func Col(name string) Column {
	if name == "" {
		panic("ast: column name must not be empty")
	}
	return Column{Name: name}
}

// QualifiedCol builds a table-qualified column.
func QualifiedCol(table Table, name string) Column {
	if name == "" {
		panic("ast: column name must not be empty")
	}
	return Column{TableName: table.Name, Name: name}
}

// Qualified reports whether the column carries a table name.
func (c Column) Qualified() bool { return c.TableName != "" }

// ComparisonOperator is the payload of a comparisonOperator WHERE token.
type ComparisonOperator string

const (
	OpEQ         ComparisonOperator = "="
	OpNE         ComparisonOperator = "<>"
	OpLT         ComparisonOperator = "<"
	OpGT         ComparisonOperator = ">"
	OpLE         ComparisonOperator = "<="
	OpGE         ComparisonOperator = ">="
	OpIN         ComparisonOperator = "IN"
	OpNotIn      ComparisonOperator = "NOT IN"
	OpLike       ComparisonOperator = "LIKE"
	OpNotLike    ComparisonOperator = "NOT LIKE"
	OpIsNull     ComparisonOperator = "IS NULL"
	OpIsNotNull  ComparisonOperator = "IS NOT NULL"
)

// IsNullary reports whether the operator takes no placeholder.
func (op ComparisonOperator) IsNullary() bool {
	return op == OpIsNull || op == OpIsNotNull
}

// TokenKind identifies the kind of a WHERE token.
type TokenKind int

const (
	TokColumnTable TokenKind = iota
	TokColumn
	TokPlaceholder
	TokComparisonOperator
	TokAnd
	TokOr
	TokNot
	TokLeftParen
	TokRightParen
)

// Token is a single fragment of a WHERE token stream.
type Token struct {
	Kind     TokenKind
	Table    Table              // meaningful for TokColumnTable
	Column   string             // meaningful for TokColumn
	Operator ComparisonOperator // meaningful for TokComparisonOperator
}

// Where is the WHERE clause: a token stream plus a placeholder counter and
// a preset map from placeholder index to a pre-supplied value.
type Where struct {
	Tokens       []Token
	Placeholders int
	PreSet       map[int]dbvalue.Value
}

// NewWhere returns an empty WHERE clause.
func NewWhere() Where {
	return Where{PreSet: map[int]dbvalue.Value{}}
}

func (w Where) lastToken() (Token, bool) {
	if len(w.Tokens) == 0 {
		return Token{}, false
	}
	return w.Tokens[len(w.Tokens)-1], true
}

func (w Where) needsJunctor() bool {
	last, ok := w.lastToken()
	if !ok {
		return false
	}
	return last.Kind != TokLeftParen
}

// And appends the `and` junctor if the clause is non-empty and the previous
// token isn't a left parenthesis, then a column/operator/[placeholder]
// condition. If preset is non-nil, the placeholder's value is recorded in
// PreSet instead of deferred to runtime binding; the `?` is still written.
func (w Where) And(col Column, op ComparisonOperator, preset *dbvalue.Value) Where {
	return w.append(TokAnd, col, op, preset)
}

// Or is And's disjunctive counterpart.
func (w Where) Or(col Column, op ComparisonOperator, preset *dbvalue.Value) Where {
	return w.append(TokOr, col, op, preset)
}

// Where appends the first condition of a clause (no leading junctor is
// possible since there is nothing before it); for a non-empty clause this
// behaves exactly like And.
func (w Where) Where(col Column, op ComparisonOperator, preset *dbvalue.Value) Where {
	if len(w.Tokens) == 0 {
		return w.appendCondition(col, op, preset)
	}
	return w.And(col, op, preset)
}

func (w Where) append(junctor TokenKind, col Column, op ComparisonOperator, preset *dbvalue.Value) Where {
	if w.needsJunctor() {
		w.Tokens = append(w.Tokens, Token{Kind: junctor})
	}
	return w.appendCondition(col, op, preset)
}

func (w Where) appendCondition(col Column, op ComparisonOperator, preset *dbvalue.Value) Where {
	w = w.clone()
	if col.Qualified() {
		w.Tokens = append(w.Tokens, Token{Kind: TokColumnTable, Table: Table{Name: col.TableName}})
	}
	w.Tokens = append(w.Tokens, Token{Kind: TokColumn, Column: col.Name})
	w.Tokens = append(w.Tokens, Token{Kind: TokComparisonOperator, Operator: op})
	if !op.IsNullary() {
		idx := w.Placeholders
		w.Tokens = append(w.Tokens, Token{Kind: TokPlaceholder})
		w.Placeholders = idx + 1
		if preset != nil {
			w.PreSet[idx] = *preset
		}
	}
	return w
}

// Not appends a `not` token (no junctor handling — callers place it where
// they need negation, typically right after a junctor or at clause start).
func (w Where) Not() Where {
	w = w.clone()
	w.Tokens = append(w.Tokens, Token{Kind: TokNot})
	return w
}

// Parentheses emits a leftParenthesis, applies inner to a fresh sub-clause
// whose placeholder counter continues from w's, then emits a
// rightParenthesis, with junctor handling analogous to Where/And.
func (w Where) Parentheses(junctor TokenKind, inner func(Where) Where) Where {
	w = w.clone()
	if w.needsJunctor() {
		if junctor != TokAnd && junctor != TokOr {
			junctor = TokAnd
		}
		w.Tokens = append(w.Tokens, Token{Kind: junctor})
	}
	w.Tokens = append(w.Tokens, Token{Kind: TokLeftParen})

	sub := NewWhere()
	sub.Placeholders = w.Placeholders
	sub = inner(sub)

	w.Tokens = append(w.Tokens, sub.Tokens...)
	w.Placeholders = sub.Placeholders
	for idx, v := range sub.PreSet {
		w.PreSet[idx] = v
	}

	w.Tokens = append(w.Tokens, Token{Kind: TokRightParen})
	return w
}

func (w Where) clone() Where {
	tokens := make([]Token, len(w.Tokens))
	copy(tokens, w.Tokens)
	preset := make(map[int]dbvalue.Value, len(w.PreSet))
	for k, v := range w.PreSet {
		preset[k] = v
	}
	return Where{Tokens: tokens, Placeholders: w.Placeholders, PreSet: preset}
}

// JoinKind identifies the SQL JOIN variant.
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeftOuter
	JoinRightOuter
	JoinFullOuter
	JoinCross
)

// Join describes one JOIN clause. For Cross joins Source/TargetColumn may be
// the zero Column (no ON part is emitted); for any other kind both must carry
// a name.
type Join struct {
	Kind   JoinKind
	Target Table
	Source Column // the already-in-query side
	TargetColumn Column
}

// OrderingTerm is one ORDER BY entry.
type OrderingTerm struct {
	Column Column
	Desc   bool
}

// Limit models the four forms spec.md §4.3 describes: disabled; enabled
// with no preset; enabled with a limit preset and optionally an offset
// preset; enabled with only the offset flag set.
type Limit struct {
	Enabled       bool
	Preset        *uint64
	OffsetEnabled bool
	OffsetPreset  *uint64
}

// Query is a table together with joins, a WHERE clause, ordering terms, and
// a limit — built incrementally by pure combinators and consumed by a
// terminal (Select/Update/Insert/Delete).
type Query struct {
	Table   Table
	Joins   []Join
	Where   Where
	Order   []OrderingTerm
	Limit   Limit
}

// NewQuery starts a query rooted at table.
func NewQuery(table Table) Query {
	return Query{Table: table, Where: NewWhere()}
}

func (q Query) clone() Query {
	joins := make([]Join, len(q.Joins))
	copy(joins, q.Joins)
	order := make([]OrderingTerm, len(q.Order))
	copy(order, q.Order)
	return Query{Table: q.Table, Joins: joins, Where: q.Where, Order: order, Limit: q.Limit}
}

// Join appends a join, preserving insertion order. For non-cross kinds,
// both source and target columns must carry a name.
func (q Query) Join(kind JoinKind, target Table, source, targetColumn Column) Query {
	if kind != JoinCross {
		if source.Name == "" || targetColumn.Name == "" {
			panic("ast: non-cross join requires both source and target columns")
		}
	}
	q = q.clone()
	q.Joins = append(q.Joins, Join{Kind: kind, Target: target, Source: source, TargetColumn: targetColumn})
	return q
}

// CrossJoin appends a CROSS JOIN, which carries no ON clause.
func (q Query) CrossJoin(target Table) Query {
	q = q.clone()
	q.Joins = append(q.Joins, Join{Kind: JoinCross, Target: target})
	return q
}

// WhereFn replaces the query's WHERE clause by applying fn to the current one.
func (q Query) WhereFn(fn func(Where) Where) Query {
	q = q.clone()
	q.Where = fn(q.Where)
	return q
}

// OrderBy appends one ordering term.
func (q Query) OrderBy(col Column, desc bool) Query {
	q = q.clone()
	q.Order = append(q.Order, OrderingTerm{Column: col, Desc: desc})
	return q
}

// WithLimit sets the limit/offset configuration.
func (q Query) WithLimit(l Limit) Query {
	q = q.clone()
	q.Limit = l
	return q
}

// Aggregate identifies a SELECT aggregate function.
type Aggregate string

const (
	AggAvg         Aggregate = "AVG"
	AggCount       Aggregate = "COUNT"
	AggMax         Aggregate = "MAX"
	AggMin         Aggregate = "MIN"
	AggSum         Aggregate = "SUM"
	AggGroupConcat Aggregate = "GROUP_CONCAT"
)

// SelectExpression is one entry of a SELECT column list: a plain or
// qualified column, optionally wrapped in an aggregate and/or DISTINCT.
type SelectExpression struct {
	Column    Column
	Aggregate Aggregate // empty string means "no aggregate"
	Distinct  bool
	Star      bool // true for the bare "*" expression
}

// StarExpression is the "*" select expression, the default with no columns.
func StarExpression() SelectExpression { return SelectExpression{Star: true} }

// Select is a terminal wrapping a Query with a SELECT expression list. No
// expressions defaults to "*".
type Select struct {
	Query       Query
	Expressions []SelectExpression
}

// Update is a terminal wrapping a Query with the columns to SET, one
// placeholder per column in the given order. The query must carry no joins.
type Update struct {
	Query   Query
	Columns []string
}

// Validate enforces Update's AST-level invariants.
func (u Update) Validate() error {
	if len(u.Columns) == 0 {
		return ErrInvalidQuery
	}
	if len(u.Query.Joins) > 0 {
		return ErrInvalidQuery
	}
	return nil
}

// Insert is a terminal over a bare Table (no WHERE/JOIN/etc. apply to
// INSERT). RowCount must be >= 1; Columns may be empty only when RowCount
// == 1, in which case the compiler emits DEFAULT VALUES.
type Insert struct {
	Table    Table
	Columns  []string
	RowCount int
}

// Validate enforces Insert's AST-level invariants.
func (i Insert) Validate() error {
	if i.RowCount < 1 {
		return ErrInvalidQuery
	}
	if i.RowCount != 1 && len(i.Columns) == 0 {
		return ErrInvalidQuery
	}
	return nil
}

// Delete is a terminal wrapping a Query with no SELECT-specific or
// UPDATE-specific payload. The query must carry no joins.
type Delete struct {
	Query Query
}

// Validate enforces Delete's AST-level invariants.
func (d Delete) Validate() error {
	if len(d.Query.Joins) > 0 {
		return ErrInvalidQuery
	}
	return nil
}
