package filterdsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumericComparison(t *testing.T) {
	term, err := Parse("age >= 18")
	require.NoError(t, err)
	assert.Equal(t, "age", term.Field)
	assert.Equal(t, OpGE, term.Operator)
	require.NotNil(t, term.Value.Number)
	assert.Equal(t, 18.0, *term.Value.Number)
}

func TestParseStringComparison(t *testing.T) {
	term, err := Parse(`name = "Alice"`)
	require.NoError(t, err)
	require.NotNil(t, term.Value.Str)
	assert.Equal(t, "Alice", *term.Value.Str)
}

func TestParseRejectsBooleanCombinators(t *testing.T) {
	_, err := Parse("age >= 18 and active = true")
	require.Error(t, err)
}
