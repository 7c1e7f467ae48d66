package compiler

import (
	"strings"

	"github.com/oceandrift/database/dbvalue"
	"github.com/oceandrift/database/internal/debug"
	"github.com/oceandrift/database/query/ast"
)

// engine holds the parts of SQL generation that differ only in identifier
// quoting and FULL OUTER JOIN support between SQLite and MariaDB — both
// dialects otherwise share placeholder style ('?'), operator spellings, and
// clause ordering, so the two public compiler types below wrap one engine
// rather than duplicating every code path.
type engine struct {
	quote          byte
	allowFullOuter bool
}

func (e engine) quoteIdent(name string) string {
	var b strings.Builder
	b.WriteByte(e.quote)
	for _, r := range name {
		if r == rune(e.quote) {
			b.WriteByte(e.quote)
		}
		b.WriteRune(r)
	}
	b.WriteByte(e.quote)
	return b.String()
}

func (e engine) writeJoins(b *strings.Builder, joins []ast.Join) error {
	for _, j := range joins {
		switch j.Kind {
		case ast.JoinInner:
			b.WriteString(" JOIN ")
		case ast.JoinLeftOuter:
			b.WriteString(" LEFT OUTER JOIN ")
		case ast.JoinRightOuter:
			b.WriteString(" RIGHT OUTER JOIN ")
		case ast.JoinFullOuter:
			if !e.allowFullOuter {
				return unsupportedJoinError()
			}
			b.WriteString(" FULL OUTER JOIN ")
		case ast.JoinCross:
			b.WriteString(" CROSS JOIN ")
			b.WriteString(e.quoteIdent(j.Target.Name))
			continue
		}
		b.WriteString(e.quoteIdent(j.Target.Name))
		b.WriteString(" ON ")
		b.WriteString(e.quoteIdent(j.TargetColumn.TableName))
		b.WriteByte('.')
		b.WriteString(e.quoteIdent(j.TargetColumn.Name))
		b.WriteString(" = ")
		if j.Source.Qualified() {
			b.WriteString(e.quoteIdent(j.Source.TableName))
			b.WriteByte('.')
		}
		b.WriteString(e.quoteIdent(j.Source.Name))
	}
	return nil
}

// writeWhere emits the token stream, token by token, per spec.md §4.4's
// WHERE emission rule.
func (e engine) writeWhere(b *strings.Builder, w ast.Where) {
	if len(w.Tokens) == 0 {
		return
	}
	b.WriteString(" WHERE")
	prevColumnTable := false
	for _, tok := range w.Tokens {
		switch tok.Kind {
		case ast.TokColumnTable:
			b.WriteByte(' ')
			b.WriteString(e.quoteIdent(tok.Table.Name))
			b.WriteByte('.')
			prevColumnTable = true
			continue
		case ast.TokColumn:
			if !prevColumnTable {
				b.WriteByte(' ')
			}
			b.WriteString(e.quoteIdent(tok.Column))
		case ast.TokPlaceholder:
			b.WriteString(" ?")
		case ast.TokComparisonOperator:
			b.WriteByte(' ')
			b.WriteString(string(tok.Operator))
		case ast.TokAnd:
			b.WriteString(" AND")
		case ast.TokOr:
			b.WriteString(" OR")
		case ast.TokNot:
			b.WriteString(" NOT")
		case ast.TokLeftParen:
			b.WriteString(" (")
		case ast.TokRightParen:
			b.WriteString(" )")
		}
		prevColumnTable = false
	}
}

func (e engine) writeOrderBy(b *strings.Builder, order []ast.OrderingTerm) {
	if len(order) == 0 {
		return
	}
	b.WriteString(" ORDER BY ")
	for i, term := range order {
		if i > 0 {
			b.WriteString(", ")
		}
		if term.Column.Qualified() {
			b.WriteString(e.quoteIdent(term.Column.TableName))
			b.WriteByte('.')
		}
		b.WriteString(e.quoteIdent(term.Column.Name))
		if term.Desc {
			b.WriteString(" DESC")
		}
	}
}

func (e engine) writeLimitOffset(b *strings.Builder, l ast.Limit) (limitPreset, offsetPreset *dbvalue.Value) {
	if !l.Enabled {
		return nil, nil
	}
	b.WriteString(" LIMIT ?")
	if l.Preset != nil {
		v := dbvalue.U64(*l.Preset)
		limitPreset = &v
	}
	if l.OffsetEnabled {
		b.WriteString(" OFFSET ?")
		if l.OffsetPreset != nil {
			v := dbvalue.U64(*l.OffsetPreset)
			offsetPreset = &v
		}
	}
	return limitPreset, offsetPreset
}

func (e engine) writeSelectExpr(b *strings.Builder, expr ast.SelectExpression) {
	col := func() {
		if expr.Star {
			b.WriteByte('*')
			return
		}
		if expr.Column.Qualified() {
			b.WriteString(e.quoteIdent(expr.Column.TableName))
			b.WriteByte('.')
		}
		b.WriteString(e.quoteIdent(expr.Column.Name))
	}
	if expr.Aggregate == "" {
		col()
		return
	}
	b.WriteString(string(expr.Aggregate))
	b.WriteByte('(')
	if expr.Distinct {
		b.WriteString("DISTINCT ")
	}
	col()
	b.WriteByte(')')
}

func (e engine) compileSelect(s ast.Select) (BuiltQuery, error) {
	var b strings.Builder
	b.WriteString("SELECT ")

	exprs := s.Expressions
	if len(exprs) == 0 {
		exprs = []ast.SelectExpression{ast.StarExpression()}
	}
	for i, expr := range exprs {
		if i > 0 {
			b.WriteString(", ")
		}
		e.writeSelectExpr(&b, expr)
	}

	b.WriteString(" FROM ")
	b.WriteString(e.quoteIdent(s.Query.Table.Name))

	if err := e.writeJoins(&b, s.Query.Joins); err != nil {
		return BuiltQuery{}, err
	}
	e.writeWhere(&b, s.Query.Where)
	e.writeOrderBy(&b, s.Query.Order)
	limitPreset, offsetPreset := e.writeLimitOffset(&b, s.Query.Limit)

	sql := b.String()
	debug.Debug("compiler: compiled select", "sql", sql)
	return BuiltQuery{
		SQL:          sql,
		Placeholders: Placeholders{Where: s.Query.Where.Placeholders},
		PreSets:      PreSets{Where: clonePreset(s.Query.Where.PreSet), Limit: limitPreset, Offset: offsetPreset},
	}, nil
}

func (e engine) compileUpdate(u ast.Update) (BuiltQuery, error) {
	if err := u.Validate(); err != nil {
		return BuiltQuery{}, err
	}
	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(e.quoteIdent(u.Query.Table.Name))
	b.WriteString(" SET ")
	for i, col := range u.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.quoteIdent(col))
		b.WriteString(" = ?")
	}

	e.writeWhere(&b, u.Query.Where)
	e.writeOrderBy(&b, u.Query.Order)
	limitPreset, offsetPreset := e.writeLimitOffset(&b, u.Query.Limit)

	// SET's own placeholders (one per column) precede WHERE's in the SQL
	// text, so WHERE's preset indices — which ast.Where counts relative to
	// itself, starting at 0 — must shift by len(u.Columns) to land on the
	// placeholder they actually bind.
	leading := len(u.Columns)
	sql := b.String()
	debug.Debug("compiler: compiled update", "sql", sql)
	return BuiltQuery{
		SQL:          sql,
		Placeholders: Placeholders{Leading: leading, Where: u.Query.Where.Placeholders},
		PreSets:      PreSets{Where: shiftPreset(u.Query.Where.PreSet, leading), Limit: limitPreset, Offset: offsetPreset},
	}, nil
}

func (e engine) compileDelete(d ast.Delete) (BuiltQuery, error) {
	if err := d.Validate(); err != nil {
		return BuiltQuery{}, err
	}
	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(e.quoteIdent(d.Query.Table.Name))

	e.writeWhere(&b, d.Query.Where)
	e.writeOrderBy(&b, d.Query.Order)
	limitPreset, offsetPreset := e.writeLimitOffset(&b, d.Query.Limit)

	sql := b.String()
	debug.Debug("compiler: compiled delete", "sql", sql)
	return BuiltQuery{
		SQL:          sql,
		Placeholders: Placeholders{Where: d.Query.Where.Placeholders},
		PreSets:      PreSets{Where: clonePreset(d.Query.Where.PreSet), Limit: limitPreset, Offset: offsetPreset},
	}, nil
}

func (e engine) compileInsert(i ast.Insert) (BuiltQuery, error) {
	if err := i.Validate(); err != nil {
		return BuiltQuery{}, err
	}
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(e.quoteIdent(i.Table.Name))

	if len(i.Columns) == 0 {
		b.WriteString(" DEFAULT VALUES")
		sql := b.String()
		debug.Debug("compiler: compiled insert", "sql", sql)
		return BuiltQuery{SQL: sql, PreSets: PreSets{Where: map[int]dbvalue.Value{}}}, nil
	}

	b.WriteString(" (")
	for ci, col := range i.Columns {
		if ci > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.quoteIdent(col))
	}
	b.WriteString(") VALUES ")

	rowPlaceholders := "(" + strings.TrimSuffix(strings.Repeat("?,", len(i.Columns)), ",") + ")"
	for r := 0; r < i.RowCount; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteString(rowPlaceholders)
	}

	sql := b.String()
	debug.Debug("compiler: compiled insert", "sql", sql, "rows", i.RowCount)
	return BuiltQuery{
		SQL:     sql,
		PreSets: PreSets{Where: map[int]dbvalue.Value{}},
	}, nil
}

func clonePreset(m map[int]dbvalue.Value) map[int]dbvalue.Value {
	out := make(map[int]dbvalue.Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// shiftPreset clones m with every key increased by offset, used when a
// terminal's own placeholders precede the WHERE clause's in the compiled
// SQL (UPDATE's SET list).
func shiftPreset(m map[int]dbvalue.Value, offset int) map[int]dbvalue.Value {
	out := make(map[int]dbvalue.Value, len(m))
	for k, v := range m {
		out[k+offset] = v
	}
	return out
}
