package compiler

import (
	"errors"

	"github.com/oceandrift/database/query/ast"
)

// ErrUnsupportedJoin is returned when a dialect's compiler is asked to
// compile a join kind it does not support. It also satisfies
// errors.Is(err, ast.ErrInvalidQuery): spec.md §7 classifies a dialect
// rejecting a join kind (e.g. FULL OUTER JOIN against MariaDB) as an
// invalid-query condition, same as the AST-level violations the ast
// terminals' Validate methods catch.
var ErrUnsupportedJoin = errors.New("compiler: unsupported join for this dialect")

func unsupportedJoinError() error {
	return joinError{}
}

type joinError struct{}

func (joinError) Error() string { return ErrUnsupportedJoin.Error() }

func (joinError) Is(target error) bool {
	return target == ErrUnsupportedJoin || target == ast.ErrInvalidQuery
}
