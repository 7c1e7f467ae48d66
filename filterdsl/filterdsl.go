// Package filterdsl is a partial lexer/parser for a textual filter
// expression — spec.md's "odl" — covering only single comparison terms
// (`field op literal`). It has no boolean combinators and is not wired
// into query/builder or entity; its intended role is left unspecified, the
// same way the source the spec distills from leaves it.
package filterdsl

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Operator is one of the comparison operators a Term may carry.
type Operator string

const (
	OpEQ Operator = "="
	OpNE Operator = "!="
	OpLT Operator = "<"
	OpGT Operator = ">"
	OpLE Operator = "<="
	OpGE Operator = ">="
)

// Literal is the right-hand side of a Term: exactly one of its fields is
// set, matching whichever alternative participle matched.
type Literal struct {
	Str    *string  `parser:"  @String"`
	Number *float64 `parser:"| @Number"`
	Bool   *bool    `parser:"| @(\"true\" | \"false\")"`
}

// Term is the only production this grammar supports: a bare field name, a
// comparison operator, and a literal.
type Term struct {
	Field    string   `parser:"@Ident"`
	Operator Operator `parser:"@(\"=\" | \"!=\" | \"<=\" | \">=\" | \"<\" | \">\")"`
	Value    Literal  `parser:"@@"`
}

var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"(\\.|[^"])*"`},
	{Name: "Number", Pattern: `[-+]?(\d*\.)?\d+`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `!=|<=|>=|[=<>]`},
	{Name: "whitespace", Pattern: `\s+`},
})

var parser = participle.MustBuild[Term](
	participle.Lexer(filterLexer),
	participle.Unquote("String"),
)

// Parse parses a single comparison term, such as `age >= 18`. It does not
// understand `and`/`or`/parentheses; a multi-term expression is a parse
// error.
func Parse(expr string) (*Term, error) {
	return parser.ParseString("", expr)
}
