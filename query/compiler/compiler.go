// Package compiler turns a query/ast value into a BuiltQuery: parameterised
// SQL text plus the placeholder and preset metadata the statement binding
// protocol (spec.md §4.5) needs. Each dialect's compiler is a pure function
// per terminal kind; none of them touch a driver or a database.
package compiler

import (
	"github.com/oceandrift/database/dbvalue"
	"github.com/oceandrift/database/query/ast"
)

// Placeholders reports how many `?` the compiler wrote for the WHERE
// clause — including placeholders whose values are preset — and, for
// terminals that write placeholders before the WHERE clause (UPDATE's SET
// list), how many of those precede it. SELECT/DELETE/INSERT leave Leading
// at its zero value since nothing precedes WHERE in their SQL.
type Placeholders struct {
	Leading int
	Where   int
}

// PreSets carries whatever preset values were attached to the AST into the
// compiled form, verbatim. The compiler does not bind them; a later step
// (the statement binding protocol) does.
type PreSets struct {
	Where  map[int]dbvalue.Value
	Limit  *dbvalue.Value
	Offset *dbvalue.Value
}

// BuiltQuery is the immutable, cheaply-clonable result of compilation.
type BuiltQuery struct {
	SQL          string
	Placeholders Placeholders
	PreSets      PreSets
}

// Clone returns a BuiltQuery sharing no mutable state with bq.
func (bq BuiltQuery) Clone() BuiltQuery {
	where := make(map[int]dbvalue.Value, len(bq.PreSets.Where))
	for k, v := range bq.PreSets.Where {
		where[k] = v
	}
	out := bq
	out.PreSets.Where = where
	if bq.PreSets.Limit != nil {
		v := *bq.PreSets.Limit
		out.PreSets.Limit = &v
	}
	if bq.PreSets.Offset != nil {
		v := *bq.PreSets.Offset
		out.PreSets.Offset = &v
	}
	return out
}

// Compiler compiles each terminal kind into a BuiltQuery for one SQL
// dialect.
type Compiler interface {
	CompileSelect(ast.Select) (BuiltQuery, error)
	CompileUpdate(ast.Update) (BuiltQuery, error)
	CompileInsert(ast.Insert) (BuiltQuery, error)
	CompileDelete(ast.Delete) (BuiltQuery, error)
}
