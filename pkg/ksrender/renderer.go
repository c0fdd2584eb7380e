// Package ksrender renders ksexpr.Expr trees into target-language source
// text (§4.6). All four renderers share the precedence/parenthesization
// walk defined here and differ only in name resolution, operator spelling,
// and the two reserved special unary forms.
//
// Grounded on the teacher's expression_parser.go precedence table (reused
// here for the inverse operation, rendering rather than parsing) and on the
// visitor-based traversal style of expression_ast.go.
package ksrender

import (
	"fmt"

	"github.com/kaitaic/ksc/pkg/ksexpr"
)

// NameResolver maps a Name node's text to its target-language spelling
// (e.g. "self.foo" in Python, "@foo" in Ruby). The returned text is the
// complete spelling, including any trailing call a target uses for an
// instance (e.g. "self:foo()" in Lua).
type NameResolver interface {
	Resolve(name string) string
}

// NameResolverFunc adapts a function to a NameResolver.
type NameResolverFunc func(name string) string

func (f NameResolverFunc) Resolve(name string) string { return f(name) }

// Renderer produces target-language expression text.
type Renderer struct {
	Names NameResolver

	// LogicalAnd, LogicalOr, and LogicalNot, when non-empty, override the
	// spelling used for ksexpr.OpAnd/OpOr/OpNot (Python and Lua use
	// "and"/"or"/"not" instead of "&&"/"||"/"!" per §4.6).
	LogicalAnd string
	LogicalOr  string
	LogicalNot string

	// CastFmt renders the special __cast__:T unary form given the type
	// name and the already-rendered operand text.
	CastFmt func(typeName, operand string) string
	// AttrFmt renders the special __attr__:f unary form given the field
	// name and the already-rendered operand text.
	AttrFmt func(field, operand string) string

	// BinaryOpText overrides the default symbolic spelling of a binary
	// operator, e.g. mapping OpBitXor to "xor" for a target that prefers
	// word form. Return "" to fall back to the default.
	BinaryOpText func(op ksexpr.BinaryOp) string
}

// Render renders e as a fully parenthesized-as-needed expression string, at
// the top level (parent precedence 0, so nothing extraneous is wrapped).
func (r *Renderer) Render(e ksexpr.Expr) string {
	return r.render(e, 0)
}

func (r *Renderer) render(e ksexpr.Expr, parentPrec int) string {
	switch n := e.(type) {
	case *ksexpr.Int:
		return fmt.Sprintf("%d", n.Value)
	case *ksexpr.Bool:
		if n.Value {
			return "true"
		}
		return "false"
	case *ksexpr.Name:
		return r.Names.Resolve(n.Text)
	case *ksexpr.Unary:
		return r.renderUnary(n)
	case *ksexpr.Binary:
		return r.renderBinary(n, parentPrec)
	default:
		return fmt.Sprintf("<?unknown-expr:%T?>", e)
	}
}

func (r *Renderer) renderUnary(n *ksexpr.Unary) string {
	operand := r.render(n.Operand, ksexpr.PrecUnaryOperand)
	switch n.Op {
	case ksexpr.OpCastTo:
		if r.CastFmt != nil {
			return r.CastFmt(n.Payload, operand)
		}
		return fmt.Sprintf("cast<%s>(%s)", n.Payload, operand)
	case ksexpr.OpAttrOf:
		if r.AttrFmt != nil {
			return r.AttrFmt(n.Payload, operand)
		}
		return fmt.Sprintf("%s.%s", operand, n.Payload)
	case ksexpr.OpNot:
		if r.LogicalNot != "" {
			return r.LogicalNot + " " + operand
		}
		return "!" + operand
	default:
		return string(n.Op) + operand
	}
}

func (r *Renderer) renderBinary(n *ksexpr.Binary, parentPrec int) string {
	prec := ksexpr.BinaryPrecedence(n.Op)
	isLogical := ksexpr.IsLogical(n.Op)

	var lhs, rhs string
	if isLogical {
		lhs = r.renderLogicalOperand(n.LHS)
		rhs = r.renderLogicalOperand(n.RHS)
	} else {
		lhs = r.render(n.LHS, prec)
		rhs = r.render(n.RHS, prec+1)
	}

	opText := r.opText(n.Op)
	text := fmt.Sprintf("%s %s %s", lhs, opText, rhs)

	if isLogical || prec <= parentPrec {
		return "(" + text + ")"
	}
	return text
}

// renderLogicalOperand renders one side of a &&/|| expression. A binary
// sub-expression is always wrapped in parens, since a reader shouldn't have
// to know the relative precedence of a comparison and a logical operator to
// read a mixed chain; a logical sub-expression already wraps itself by the
// same rule, so no second layer of parens is added there.
func (r *Renderer) renderLogicalOperand(e ksexpr.Expr) string {
	b, ok := e.(*ksexpr.Binary)
	if !ok {
		return r.render(e, 0)
	}
	if ksexpr.IsLogical(b.Op) {
		return r.render(e, 0)
	}
	return "(" + r.render(e, 0) + ")"
}

func (r *Renderer) opText(op ksexpr.BinaryOp) string {
	if r.BinaryOpText != nil {
		if t := r.BinaryOpText(op); t != "" {
			return t
		}
	}
	switch op {
	case ksexpr.OpAnd:
		if r.LogicalAnd != "" {
			return r.LogicalAnd
		}
	case ksexpr.OpOr:
		if r.LogicalOr != "" {
			return r.LogicalOr
		}
	}
	return string(op)
}
