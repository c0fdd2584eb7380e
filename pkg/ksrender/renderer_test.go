package ksrender

import (
	"testing"

	"github.com/kaitaic/ksc/pkg/ksexpr"
	"github.com/stretchr/testify/assert"
)

func TestCppRenderNameAndCast(t *testing.T) {
	r := NewCpp()
	e := ksexpr.NewCast("foo_t", ksexpr.NewName("body"))
	assert.Equal(t, "static_cast<foo_t*>(body())", r.Render(e))
}

func TestCppRenderAttrOf(t *testing.T) {
	r := NewCpp()
	e := ksexpr.NewAttrOf("length", ksexpr.NewName("header"))
	assert.Equal(t, "header()->length()", r.Render(e))
}

func TestCppRenderLogicalAlwaysWraps(t *testing.T) {
	r := NewCpp()
	e := ksexpr.NewBinary(ksexpr.OpAnd, ksexpr.NewName("a"), ksexpr.NewName("b"))
	assert.Equal(t, "(a() && b())", r.Render(e))
}

func TestCppRenderLogicalWrapsCompoundOperands(t *testing.T) {
	r := NewCpp()
	// (a() > b()) && (lit() == 7)
	lhs := ksexpr.NewBinary(ksexpr.OpGt, ksexpr.NewName("a"), ksexpr.NewName("b"))
	rhs := ksexpr.NewBinary(ksexpr.OpEq, ksexpr.NewName("lit"), ksexpr.NewInt(7))
	e := ksexpr.NewBinary(ksexpr.OpAnd, lhs, rhs)
	assert.Equal(t, "((a() > b()) && (lit() == 7))", r.Render(e))
}

func TestCppRenderPrecedence(t *testing.T) {
	r := NewCpp()
	// a + b * 3  ->  no parens needed since * binds tighter
	e := ksexpr.NewBinary(ksexpr.OpAdd, ksexpr.NewName("a"), ksexpr.NewBinary(ksexpr.OpMul, ksexpr.NewName("b"), ksexpr.NewInt(3)))
	assert.Equal(t, "a() + b() * 3", r.Render(e))

	// (a + b) * 3 -> parens required since parent (mul) prec higher than child (add)
	e2 := ksexpr.NewBinary(ksexpr.OpMul, ksexpr.NewBinary(ksexpr.OpAdd, ksexpr.NewName("a"), ksexpr.NewName("b")), ksexpr.NewInt(3))
	assert.Equal(t, "(a() + b()) * 3", r.Render(e2))
}

func TestPythonRenderNamesAndLogical(t *testing.T) {
	r := NewPython()
	e := ksexpr.NewBinary(ksexpr.OpAnd, ksexpr.NewName("x"), ksexpr.NewUnary(ksexpr.OpNot, ksexpr.NewName("y")))
	assert.Equal(t, "(self.x and not self.y)", r.Render(e))
}

func TestRubyRenderUnderscoreRebinding(t *testing.T) {
	r := NewRuby()
	e := ksexpr.NewBinary(ksexpr.OpEq, ksexpr.NewName("_"), ksexpr.NewInt(0))
	assert.Equal(t, "_ == 0", r.Render(e))

	e2 := ksexpr.NewName("count")
	assert.Equal(t, "@count", r.Render(e2))
}

func TestLuaRenderPropertyVsMethod(t *testing.T) {
	classify := func(name string) LuaNameKind {
		if name == "computed" {
			return LuaValueInstance
		}
		return LuaAttrOrParseInstance
	}
	r := NewLua(classify)
	assert.Equal(t, "self.plain_attr", r.Render(ksexpr.NewName("plain_attr")))
	assert.Equal(t, "self:computed()", r.Render(ksexpr.NewName("computed")))
}

func TestRightAssociativeMinusRequiresParens(t *testing.T) {
	r := NewCpp()
	// a - (b - c) needs parens on the RHS since same precedence and the
	// grammar is left-associative: RHS renders at prec+1.
	e := ksexpr.NewBinary(ksexpr.OpSub, ksexpr.NewName("a"), ksexpr.NewBinary(ksexpr.OpSub, ksexpr.NewName("b"), ksexpr.NewName("c")))
	assert.Equal(t, "a() - (b() - c())", r.Render(e))
}
