package compiler

import "github.com/oceandrift/database/query/ast"

// SQLite compiles queries to SQLite's SQL surface: double-quoted
// identifiers, '?' placeholders, and FULL OUTER JOIN emitted as written
// (SQLite 3.39+ supports it natively; older engines reject it when the
// statement is prepared, and neither the compiler nor the driver rewrites
// it).
type SQLite struct{}

var _ Compiler = SQLite{}

func (SQLite) engine() engine { return engine{quote: '"', allowFullOuter: true} }

func (c SQLite) CompileSelect(s ast.Select) (BuiltQuery, error) { return c.engine().compileSelect(s) }
func (c SQLite) CompileUpdate(u ast.Update) (BuiltQuery, error) { return c.engine().compileUpdate(u) }
func (c SQLite) CompileInsert(i ast.Insert) (BuiltQuery, error) { return c.engine().compileInsert(i) }
func (c SQLite) CompileDelete(d ast.Delete) (BuiltQuery, error) { return c.engine().compileDelete(d) }
