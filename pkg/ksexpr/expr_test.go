package ksexpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAliases(t *testing.T) {
	assert.Equal(t, "&&", Normalize("and"))
	assert.Equal(t, "||", Normalize("or"))
	assert.Equal(t, "!", Normalize("not"))
	assert.Equal(t, "^", Normalize("xor"))
	assert.Equal(t, "+", Normalize("+"))
}

func TestBinaryOpFromToken(t *testing.T) {
	op, ok := BinaryOpFromToken("and")
	require.True(t, ok)
	assert.Equal(t, OpAnd, op)

	_, ok = BinaryOpFromToken("frobnicate")
	assert.False(t, ok)
}

func TestPrecedenceTable(t *testing.T) {
	assert.Less(t, PrecLogicalOr, PrecLogicalAnd)
	assert.Less(t, BinaryPrecedence(OpMul), int(PrecAtom))
	assert.Equal(t, PrecMultiplicative, BinaryPrecedence(OpMod))
	assert.True(t, IsLogical(OpAnd))
	assert.False(t, IsLogical(OpAdd))
}

func TestExprStringRoundShape(t *testing.T) {
	e := NewBinary(OpAdd, NewName("a"), NewBinary(OpMul, NewName("b"), NewInt(3)))
	assert.Equal(t, "(a + (b * 3))", e.String())

	cast := NewCast("foo_t", NewName("x"))
	assert.Equal(t, "__cast__:foo_t(x)", cast.String())

	attr := NewAttrOf("bar", NewName("x"))
	assert.Equal(t, "__attr__:bar(x)", attr.String())
}
