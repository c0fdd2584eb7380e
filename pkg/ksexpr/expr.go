// Package ksexpr implements the tagged expression trees used throughout the
// KSIR intermediate representation: integer/boolean literals, name
// references, and unary/binary operators, plus the two reserved special
// unary forms (__cast__:T and __attr__:f) used to model pointer reinterpret
// and field-select operations in generated code.
//
// Expr values are immutable after construction and may share sub-trees, in
// the manner of the teacher's expression.Expr visitor hierarchy: an Expr is
// a small closed interface implemented by a handful of node structs, each
// with an Accept(Visitor) method. The in-tree consumers (gate, renderers,
// KSIR1 serializer) walk trees with type switches over that closed node set
// rather than through Visitor.
package ksexpr

import "fmt"

// Expr is the interface implemented by every expression AST node.
type Expr interface {
	String() string
	Accept(v Visitor) error
}

// Visitor traverses an Expr tree via Expr.Accept, one method per node type.
// No package in this module implements it; the renderers, the gate, and the
// serializer type-switch on Expr instead.
type Visitor interface {
	VisitInt(*Int) error
	VisitBool(*Bool) error
	VisitName(*Name) error
	VisitUnary(*Unary) error
	VisitBinary(*Binary) error
}

// Int is an integer literal.
type Int struct {
	Value int64
}

func (n *Int) String() string         { return fmt.Sprintf("%d", n.Value) }
func (n *Int) Accept(v Visitor) error { return v.VisitInt(n) }

// Bool is a boolean literal.
type Bool struct {
	Value bool
}

func (n *Bool) String() string         { return fmt.Sprintf("%t", n.Value) }
func (n *Bool) Accept(v Visitor) error { return v.VisitBool(n) }

// Name is a reference to a declared attr, instance, param, or the special
// "_" identifier denoting the current repeat item in a repeat=until
// context.
type Name struct {
	Text string
}

func (n *Name) String() string         { return n.Text }
func (n *Name) Accept(v Visitor) error { return v.VisitName(n) }

// UnaryOp enumerates the supported prefix unary operators, plus the two
// reserved special forms encoded as a UnaryOp with a payload string
// (CastType/AttrField) rather than as separate node types, matching the
// wire encoding used by the KSIR1 serializer (§4.3): "__cast__:TypeName"
// and "__attr__:field".
type UnaryOp string

const (
	OpNeg    UnaryOp = "-"
	OpNot    UnaryOp = "!"
	OpBitNot UnaryOp = "~"
	OpCastTo UnaryOp = "__cast__" // payload carries the target type name
	OpAttrOf UnaryOp = "__attr__" // payload carries the selected field name
)

// Unary is a prefix unary expression. For OpCastTo/OpAttrOf, Payload holds
// the type name / field name respectively and Operand is the value being
// reinterpreted / selected upon.
type Unary struct {
	Op      UnaryOp
	Operand Expr
	Payload string // only meaningful for OpCastTo / OpAttrOf
}

func (n *Unary) String() string {
	switch n.Op {
	case OpCastTo:
		return fmt.Sprintf("__cast__:%s(%s)", n.Payload, n.Operand)
	case OpAttrOf:
		return fmt.Sprintf("__attr__:%s(%s)", n.Payload, n.Operand)
	default:
		return fmt.Sprintf("(%s%s)", string(n.Op), n.Operand)
	}
}
func (n *Unary) Accept(v Visitor) error { return v.VisitUnary(n) }

// BinaryOp enumerates the supported infix binary operators, using the
// normalized (post-§4.1-table) symbolic spelling. Word-form aliases
// (and/or/not/xor) are folded into these via Normalize before an Expr tree
// is constructed — the tree itself never carries the alias spelling.
type BinaryOp string

const (
	OpOr     BinaryOp = "||"
	OpAnd    BinaryOp = "&&"
	OpBitOr  BinaryOp = "|"
	OpBitXor BinaryOp = "^"
	OpBitAnd BinaryOp = "&"
	OpEq     BinaryOp = "=="
	OpNe     BinaryOp = "!="
	OpLt     BinaryOp = "<"
	OpLe     BinaryOp = "<="
	OpGt     BinaryOp = ">"
	OpGe     BinaryOp = ">="
	OpShl    BinaryOp = "<<"
	OpShr    BinaryOp = ">>"
	OpAdd    BinaryOp = "+"
	OpSub    BinaryOp = "-"
	OpMul    BinaryOp = "*"
	OpDiv    BinaryOp = "/"
	OpMod    BinaryOp = "%"
)

// Binary is a left-associative infix binary expression.
type Binary struct {
	Op  BinaryOp
	LHS Expr
	RHS Expr
}

func (n *Binary) String() string {
	return fmt.Sprintf("(%s %s %s)", n.LHS, string(n.Op), n.RHS)
}
func (n *Binary) Accept(v Visitor) error { return v.VisitBinary(n) }

// Constructors mirror the teacher's Expr.Int/Bool/Name/Unary/Binary static
// factories (expression_ast.go), kept as free functions here since Go has
// no static-method sugar.

func NewInt(v int64) *Int { return &Int{Value: v} }
func NewBool(v bool) *Bool { return &Bool{Value: v} }
func NewName(s string) *Name { return &Name{Text: s} }

func NewUnary(op UnaryOp, operand Expr) *Unary {
	return &Unary{Op: op, Operand: operand}
}

// NewCast builds the reserved __cast__:TypeName special unary form.
func NewCast(typeName string, operand Expr) *Unary {
	return &Unary{Op: OpCastTo, Operand: operand, Payload: typeName}
}

// NewAttrOf builds the reserved __attr__:field special unary form.
func NewAttrOf(field string, operand Expr) *Unary {
	return &Unary{Op: OpAttrOf, Operand: operand, Payload: field}
}

func NewBinary(op BinaryOp, lhs, rhs Expr) *Binary {
	return &Binary{Op: op, LHS: lhs, RHS: rhs}
}
