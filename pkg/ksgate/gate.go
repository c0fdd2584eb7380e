// Package ksgate implements the per-target supportability gate (§4.5): a
// closed, deterministic set of static checks run over an ksir.Spec before
// any emitter touches it, so an unsupported construct fails with a single
// "not yet supported: …" diagnostic instead of a confusing emitter panic or
// a subtly wrong file.
//
// Grounded on the teacher's table-driven registration style in
// pkg/kaitaistruct/process.go (ProcessRegistry), generalized here into a
// single rule walk shared by all five targets rather than per-emitter
// duplicated checks.
package ksgate

import (
	"fmt"

	"github.com/kaitaic/ksc/pkg/ksexpr"
	"github.com/kaitaic/ksc/pkg/ksir"
)

// Target names a code-generation backend.
type Target string

const (
	CppSTL       Target = "cpp_stl"
	Python       Target = "python"
	Ruby         Target = "ruby"
	Lua          Target = "lua"
	WiresharkLua Target = "wireshark_lua"
)

var allTargets = map[Target]bool{
	CppSTL: true, Python: true, Ruby: true, Lua: true, WiresharkLua: true,
}

// ValidTarget reports whether t is one of the five known targets.
func ValidTarget(t Target) bool { return allTargets[t] }

// UnsupportedError is returned by Check; its message is always prefixed
// "not yet supported: " per §4.5.
type UnsupportedError struct {
	Path   string
	Reason string
}

func (e *UnsupportedError) Error() string {
	if e.Path == "" {
		return "not yet supported: " + e.Reason
	}
	return fmt.Sprintf("not yet supported: %s (%s)", e.Reason, e.Path)
}

func unsupported(path, format string, args ...any) *UnsupportedError {
	return &UnsupportedError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

var allowedBinaryOps = map[ksexpr.BinaryOp]bool{
	ksexpr.OpAdd: true, ksexpr.OpSub: true, ksexpr.OpMul: true, ksexpr.OpDiv: true, ksexpr.OpMod: true,
	ksexpr.OpEq: true, ksexpr.OpNe: true, ksexpr.OpLt: true, ksexpr.OpLe: true, ksexpr.OpGt: true, ksexpr.OpGe: true,
	ksexpr.OpAnd: true, ksexpr.OpOr: true,
	ksexpr.OpBitAnd: true, ksexpr.OpBitOr: true, ksexpr.OpBitXor: true,
	ksexpr.OpShl: true, ksexpr.OpShr: true,
}

var allowedUnaryOps = map[ksexpr.UnaryOp]bool{
	ksexpr.OpNeg: true, ksexpr.OpNot: true, ksexpr.OpBitNot: true,
	ksexpr.OpCastTo: true, ksexpr.OpAttrOf: true,
}

// Check walks s and rejects, with a "not yet supported" diagnostic, any
// construct target's emitter cannot render. The check set is the same
// across targets except for two rules only C++ enforces: a non-nested user
// attr type must resolve to a primitive, and primitive switch_on cases must
// all share one primitive.
func Check(s *ksir.Spec, target Target) error {
	if !ValidTarget(target) {
		return fmt.Errorf("unknown target %q", target)
	}
	g := &gate{spec: s, target: target}
	return g.run(s, s.Name)
}

type gate struct {
	spec   *ksir.Spec
	target Target
}

func (g *gate) run(s *ksir.Spec, scopePath string) error {
	for _, t := range s.Types {
		if t.IsNested() {
			if err := g.run(t.NestedSpec, scopePath+"/types/"+t.Name); err != nil {
				return err
			}
		}
	}
	for i := range s.Attrs {
		if err := g.checkAttr(s, &s.Attrs[i], fmt.Sprintf("%s/seq/%d", scopePath, i)); err != nil {
			return err
		}
	}
	for i := range s.Instances {
		if err := g.checkInstance(s, &s.Instances[i], fmt.Sprintf("%s/instances/%s", scopePath, s.Instances[i].ID)); err != nil {
			return err
		}
	}
	for i := range s.Validations {
		if err := g.checkValidation(s, &s.Validations[i], scopePath+"/validations"); err != nil {
			return err
		}
	}
	return nil
}

func (g *gate) checkAttr(s *ksir.Spec, a *ksir.Attr, path string) error {
	if g.target == CppSTL {
		if a.Type.IsUser() {
			td, ok := s.FindType(a.Type.UserType)
			if ok && !td.IsNested() && !resolvesToPrimitive(s, td.Type) {
				return unsupported(path, "attr type %q does not resolve to a primitive", a.Type.UserType)
			}
		}
	}

	if a.Encoding != "" {
		prim, isPrim := resolveAttrPrimitive(s, a.Type)
		if !isPrim || prim != ksir.Str {
			return unsupported(path, "encoding on non-str type")
		}
		if !recognizedEncoding(a.Encoding) {
			return unsupported(path, "encoding %q not recognized", a.Encoding)
		}
	}

	if err := g.checkExprNames(s, a.SizeExpr, path, false); err != nil {
		return err
	}
	if err := g.checkExprNames(s, a.IfExpr, path, false); err != nil {
		return err
	}
	if err := g.checkExprNames(s, a.RepeatExpr, path, a.Repeat == ksir.RepeatUntil); err != nil {
		return err
	}
	if err := g.checkExprNames(s, a.SwitchOn, path, false); err != nil {
		return err
	}
	for _, arg := range a.UserTypeArgs {
		if err := g.checkExprNames(s, arg, path, false); err != nil {
			return err
		}
	}

	if a.SwitchOn != nil {
		if err := g.checkSwitchCases(s, a, path); err != nil {
			return err
		}
	}

	if a.EnumName != "" {
		ed, ok := s.FindEnum(a.EnumName)
		if !ok {
			return unsupported(path, "enum_name references unknown enum %q", a.EnumName)
		}
		prim, isPrim := resolveAttrPrimitive(s, a.Type)
		if !isPrim || !prim.IsInteger() {
			return unsupported(path, "enum_name %q on non-integer-backed attr", ed.Name)
		}
	}

	return nil
}

func (g *gate) checkSwitchCases(s *ksir.Spec, a *ksir.Attr, path string) error {
	elseCount := 0
	sawUser, sawPrimitive := false, false
	seenPrims := map[ksir.Primitive]bool{}
	for _, c := range a.SwitchCases {
		if c.Match == nil {
			elseCount++
			continue
		}
		if err := g.checkExprNames(s, c.Match, path, false); err != nil {
			return err
		}
		if c.Type.IsUser() {
			sawUser = true
		} else {
			sawPrimitive = true
			seenPrims[c.Type.Primitive] = true
		}
	}
	if elseCount > 1 {
		return unsupported(path, "switch_on has malformed case list (duplicate else)")
	}
	if sawUser && sawPrimitive {
		return unsupported(path, "switch_on has mixed user and primitive case types")
	}
	if g.target == CppSTL && sawPrimitive && len(seenPrims) > 1 {
		return unsupported(path, "switch_on has heterogeneous case primitives")
	}
	return nil
}

func (g *gate) checkInstance(s *ksir.Spec, in *ksir.Instance, path string) error {
	if in.Kind == ksir.ValueInstance {
		return g.checkExprNames(s, in.ValueExpr, path, false)
	}
	if err := g.checkExprNames(s, in.PosExpr, path, false); err != nil {
		return err
	}
	return g.checkExprNames(s, in.SizeExpr, path, false)
}

func (g *gate) checkValidation(s *ksir.Spec, val *ksir.Validation, path string) error {
	names := s.DeclaredNames()
	if !names[val.Target] {
		return unsupported(path, "validation target %q outside declared names", val.Target)
	}
	return g.checkExprNames(s, val.ConditionExpr, path, false)
}

// checkExprNames walks e, rejecting operators outside the fixed allow-list
// and Name references outside the declared attrs/instances (allowing "_"
// only when allowUnderscore is true, i.e. inside a repeat=until condition).
func (g *gate) checkExprNames(s *ksir.Spec, e ksexpr.Expr, path string, allowUnderscore bool) error {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *ksexpr.Int, *ksexpr.Bool:
		return nil
	case *ksexpr.Name:
		if n.Text == "_" {
			if allowUnderscore {
				return nil
			}
			return unsupported(path, "name \"_\" used outside repeat=until context")
		}
		names := s.DeclaredNames()
		if !names[n.Text] {
			return unsupported(path, "expression name %q outside declared attrs/params/instances", n.Text)
		}
		return nil
	case *ksexpr.Unary:
		if !allowedUnaryOps[n.Op] {
			return unsupported(path, "unary operator %q outside allow-list", n.Op)
		}
		return g.checkExprNames(s, n.Operand, path, allowUnderscore)
	case *ksexpr.Binary:
		if !allowedBinaryOps[n.Op] {
			return unsupported(path, "binary operator %q outside allow-list", n.Op)
		}
		if err := g.checkExprNames(s, n.LHS, path, allowUnderscore); err != nil {
			return err
		}
		return g.checkExprNames(s, n.RHS, path, allowUnderscore)
	default:
		return unsupported(path, "unknown expression node %T", e)
	}
}

func resolvesToPrimitive(s *ksir.Spec, t ksir.TypeRef) bool {
	_, ok := resolveAttrPrimitive(s, t)
	return ok
}

func resolveAttrPrimitive(s *ksir.Spec, t ksir.TypeRef) (ksir.Primitive, bool) {
	seen := map[string]bool{}
	for {
		switch t.Kind {
		case ksir.RefPrimitive:
			return t.Primitive, true
		case ksir.RefUser:
			if seen[t.UserType] {
				return "", false
			}
			seen[t.UserType] = true
			td, ok := s.FindType(t.UserType)
			if !ok || td.IsNested() {
				return "", false
			}
			t = td.Type
		default:
			return "", false
		}
	}
}
