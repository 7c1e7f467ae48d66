package compiler

import "github.com/oceandrift/database/query/ast"

// MariaDB compiles queries to MariaDB/MySQL's SQL surface: back-tick
// identifiers, '?' placeholders, and no FULL OUTER JOIN support — the
// engine has none, so the compiler rejects it rather than attempting a
// runtime translation.
type MariaDB struct{}

var _ Compiler = MariaDB{}

func (MariaDB) engine() engine { return engine{quote: '`', allowFullOuter: false} }

func (c MariaDB) CompileSelect(s ast.Select) (BuiltQuery, error) { return c.engine().compileSelect(s) }
func (c MariaDB) CompileUpdate(u ast.Update) (BuiltQuery, error) { return c.engine().compileUpdate(u) }
func (c MariaDB) CompileInsert(i ast.Insert) (BuiltQuery, error) { return c.engine().compileInsert(i) }
func (c MariaDB) CompileDelete(d ast.Delete) (BuiltQuery, error) { return c.engine().compileDelete(d) }
