// Package ksir implements the language-neutral intermediate representation
// (§3 of the spec): Spec, TypeRef, TypeDef, Attr, EnumDef, Instance, and
// Validation, plus the structural validator (validate.go), the canonical
// KSIR1 textual serializer (serialize.go), and the import-resolving loader
// (loader.go).
//
// Grounded on the shape of the teacher's KaitaiSchema/SequenceItem/Type
// family in pkg/kaitaistruct/schema.go, generalized from a YAML-decoded
// surface document into a validated, backend-neutral IR value.
package ksir

import (
	"fmt"

	"github.com/kaitaic/ksc/pkg/ksexpr"
)

// Expr is a re-export of ksexpr.Expr for callers that only need the IR
// model and shouldn't have to import ksexpr directly to spell field types.
type Expr = ksexpr.Expr

// Endian is the byte order used to read multi-byte primitives.
type Endian string

const (
	LittleEndian Endian = "le"
	BigEndian    Endian = "be"
)

// Primitive enumerates the built-in scalar Kaitai types.
type Primitive string

const (
	U1    Primitive = "u1"
	U2    Primitive = "u2"
	U4    Primitive = "u4"
	U8    Primitive = "u8"
	S1    Primitive = "s1"
	S2    Primitive = "s2"
	S4    Primitive = "s4"
	S8    Primitive = "s8"
	F4    Primitive = "f4"
	F8    Primitive = "f8"
	Str   Primitive = "str"
	Bytes Primitive = "bytes"
)

var allPrimitives = map[Primitive]bool{
	U1: true, U2: true, U4: true, U8: true,
	S1: true, S2: true, S4: true, S8: true,
	F4: true, F8: true, Str: true, Bytes: true,
}

// IsPrimitive reports whether s names one of the twelve built-in types.
func IsPrimitive(s string) bool {
	return allPrimitives[Primitive(s)]
}

// IsInteger reports whether p is one of the eight fixed-width integer
// primitives (the set eligible to carry an enum_name, per §4.2).
func (p Primitive) IsInteger() bool {
	switch p {
	case U1, U2, U4, U8, S1, S2, S4, S8:
		return true
	}
	return false
}

// ByteWidth returns the storage width in bytes of a fixed-width primitive,
// or 0 for Str/Bytes (variable width).
func (p Primitive) ByteWidth() int {
	switch p {
	case U1, S1:
		return 1
	case U2, S2:
		return 2
	case U4, S4, F4:
		return 4
	case U8, S8, F8:
		return 8
	default:
		return 0
	}
}

// Signed reports whether p is a signed integer primitive.
func (p Primitive) Signed() bool {
	switch p {
	case S1, S2, S4, S8:
		return true
	}
	return false
}

// TypeRefKind discriminates the two TypeRef variants.
type TypeRefKind int

const (
	RefPrimitive TypeRefKind = iota
	RefUser
)

// TypeRef is either a primitive type name or a (possibly ::-qualified)
// reference to a user-declared type.
type TypeRef struct {
	Kind      TypeRefKind
	Primitive Primitive
	UserType  string
}

func PrimitiveRef(p Primitive) TypeRef { return TypeRef{Kind: RefPrimitive, Primitive: p} }
func UserRef(name string) TypeRef      { return TypeRef{Kind: RefUser, UserType: name} }

func (t TypeRef) IsPrimitive() bool { return t.Kind == RefPrimitive }
func (t TypeRef) IsUser() bool      { return t.Kind == RefUser }

func (t TypeRef) String() string {
	if t.IsPrimitive() {
		return string(t.Primitive)
	}
	return t.UserType
}

// TypeDef is a named local type alias. It models either a scalar alias
// (Type set, NestedSpec nil) or an embedded nested scope (NestedSpec set).
// Per SPEC_FULL.md §3, the nested scope is a first-class *Spec in memory;
// the "__scope_b64__:" marker is purely the KSIR1 wire form produced by
// the serializer.
type TypeDef struct {
	Name       string
	Type       TypeRef
	NestedSpec *Spec // non-nil for an embedded nested scope
}

// IsNested reports whether this TypeDef embeds a nested scope rather than
// aliasing a scalar TypeRef.
func (t *TypeDef) IsNested() bool { return t.NestedSpec != nil }

// RepeatKind enumerates the four repetition modes of §3.
type RepeatKind string

const (
	RepeatNone  RepeatKind = "none"
	RepeatEOS   RepeatKind = "eos"
	RepeatExpr  RepeatKind = "expr"
	RepeatUntil RepeatKind = "until"
)

// ProcessKind enumerates the supported field processing steps. Only one
// variant exists today: xor-with-constant-byte.
type ProcessKind string

const ProcessNone ProcessKind = ""
const ProcessXorConst ProcessKind = "xor_const"

// Process describes a post-read transform applied to a field's raw bytes.
type Process struct {
	Kind     ProcessKind
	XorConst byte // meaningful only when Kind == ProcessXorConst
}

// SwitchCase pairs an optional match expression (nil ⇒ else branch) with
// the TypeRef to use when it matches.
type SwitchCase struct {
	Match Expr // nil for the else-case
	Type  TypeRef
}

// Attr is an ordered field within a Spec's seq (§3).
type Attr struct {
	ID             string
	Type           TypeRef
	EndianOverride *Endian
	SizeExpr       Expr // required for sized bytes/str
	Encoding       string
	EnumName       string
	IfExpr         Expr // nil or a literal-true expr ⇒ always present
	Repeat         RepeatKind
	RepeatExpr     Expr // present iff Repeat in {expr, until}
	SwitchOn       Expr // non-nil iff SwitchCases is non-empty
	SwitchCases    []SwitchCase
	Process        *Process
	UserTypeArgs   []Expr
}

// EnumValue is one member of an EnumDef.
type EnumValue struct {
	Value int64
	Name  string
}

// EnumDef is a named enumeration.
type EnumDef struct {
	Name   string
	Values []EnumValue
}

// InstanceKind discriminates the two Instance variants of §3.
type InstanceKind int

const (
	ValueInstance InstanceKind = iota
	ParseInstance
)

// Instance is a lazily-computed derived value or a random-access parse.
type Instance struct {
	ID   string
	Kind InstanceKind

	// ValueInstance fields.
	ValueExpr Expr

	// ParseInstance fields.
	Type           TypeRef
	PosExpr        Expr
	SizeExpr       Expr
	EndianOverride *Endian
	Encoding       string
	ExplicitType   bool
}

// Validation ties a declared attr or instance to a condition that must
// hold, with an optional human-readable message.
type Validation struct {
	Target        string
	ConditionExpr Expr
	Message       string
}

// Spec is the top-level format description (§3).
type Spec struct {
	Name           string
	DefaultEndian  Endian
	Imports        []string
	Types          []TypeDef
	Attrs          []Attr
	Enums          []EnumDef
	Instances      []Instance
	Validations    []Validation
}

// FindType looks up a locally-declared type by name.
func (s *Spec) FindType(name string) (*TypeDef, bool) {
	for i := range s.Types {
		if s.Types[i].Name == name {
			return &s.Types[i], true
		}
	}
	return nil, false
}

// FindEnum looks up a locally-declared enum by name, or by suffix match on
// a "::"-qualified name (the matching rule referenced by Attr.EnumName in
// §3: "matching is exact or suffix-on-::").
func (s *Spec) FindEnum(name string) (*EnumDef, bool) {
	for i := range s.Enums {
		if s.Enums[i].Name == name {
			return &s.Enums[i], true
		}
	}
	for i := range s.Enums {
		qualified := "::" + s.Enums[i].Name
		if len(name) > len(qualified) && name[len(name)-len(qualified):] == qualified {
			return &s.Enums[i], true
		}
		if name == s.Enums[i].Name {
			return &s.Enums[i], true
		}
	}
	return nil, false
}

// FindInstance looks up a locally-declared instance by id.
func (s *Spec) FindInstance(id string) (*Instance, bool) {
	for i := range s.Instances {
		if s.Instances[i].ID == id {
			return &s.Instances[i], true
		}
	}
	return nil, false
}

// FindAttr looks up a locally-declared attr by id.
func (s *Spec) FindAttr(id string) (*Attr, bool) {
	for i := range s.Attrs {
		if s.Attrs[i].ID == id {
			return &s.Attrs[i], true
		}
	}
	return nil, false
}

// DeclaredNames returns the set of names an expression may legally
// reference within this Spec: every attr id, instance id, and "_".
func (s *Spec) DeclaredNames() map[string]bool {
	names := map[string]bool{"_": true}
	for _, a := range s.Attrs {
		names[a.ID] = true
	}
	for _, in := range s.Instances {
		names[in.ID] = true
	}
	return names
}

func (e Endian) Valid() bool { return e == LittleEndian || e == BigEndian }

func (e Endian) String() string { return string(e) }

// ParseEndian parses "le"/"be" into an Endian, erroring otherwise.
func ParseEndian(s string) (Endian, error) {
	switch Endian(s) {
	case LittleEndian, BigEndian:
		return Endian(s), nil
	default:
		return "", fmt.Errorf("invalid endian %q", s)
	}
}
