package ksir

import (
	"fmt"

	"github.com/kaitaic/ksc/pkg/ksexpr"
)

// ValidationError is returned by Validate; it carries the same
// human-readable, path-rooted message spec.md §4.2 requires while still
// being errors.As-able by callers that want to distinguish structural IR
// errors from other error domains (§7).
type ValidationError struct {
	Path    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func errAt(path, format string, args ...any) *ValidationError {
	return &ValidationError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// Validate checks the structural invariants of §3 and §4.2 and returns the
// first failure found, depth-first, in declaration order.
func Validate(s *Spec) error {
	v := &validator{spec: s, root: s}
	return v.run()
}

type validator struct {
	spec *Spec
	root *Spec
}

func (v *validator) run() error {
	s := v.spec
	if s.Name == "" {
		return errAt(s.Name, "missing name")
	}
	if !s.DefaultEndian.Valid() {
		return errAt(s.Name, "invalid default_endian %q", s.DefaultEndian)
	}

	seenTypes := map[string]bool{s.Name: true}
	for _, t := range s.Types {
		if t.Name == "" {
			return errAt(s.Name, "missing type name")
		}
		if seenTypes[t.Name] {
			return errAt(s.Name, "duplicate type %q", t.Name)
		}
		seenTypes[t.Name] = true
		if t.IsNested() {
			if err := Validate(t.NestedSpec); err != nil {
				return fmt.Errorf("%s/types/%s: %w", s.Name, t.Name, err)
			}
		}
	}

	seenAttrs := map[string]bool{}
	for i, a := range s.Attrs {
		path := fmt.Sprintf("%s/seq/%d", s.Name, i)
		if a.ID == "" {
			return errAt(path, "missing id")
		}
		if seenAttrs[a.ID] {
			return errAt(path, "duplicate attr %q", a.ID)
		}
		seenAttrs[a.ID] = true
		if err := v.checkAttr(path, &a); err != nil {
			return err
		}
	}

	seenEnumNames := map[string]bool{}
	for _, e := range s.Enums {
		if e.Name == "" {
			return errAt(s.Name, "missing enum name")
		}
		if seenEnumNames[e.Name] {
			return errAt(s.Name, "duplicate enum %q", e.Name)
		}
		seenEnumNames[e.Name] = true
		seenVals := map[string]bool{}
		for _, ev := range e.Values {
			if seenVals[ev.Name] {
				return errAt(s.Name+"/enums/"+e.Name, "duplicate enum value name %q", ev.Name)
			}
			seenVals[ev.Name] = true
		}
	}

	seenInstances := map[string]bool{}
	for _, in := range s.Instances {
		path := fmt.Sprintf("%s/instances/%s", s.Name, in.ID)
		if in.ID == "" {
			return errAt(s.Name, "missing instance id")
		}
		if seenInstances[in.ID] {
			return errAt(path, "duplicate instance %q", in.ID)
		}
		seenInstances[in.ID] = true
		if err := v.checkInstance(path, &in); err != nil {
			return err
		}
	}

	for _, val := range s.Validations {
		if err := v.checkValidation(&val); err != nil {
			return err
		}
	}

	if err := v.checkTypeReferences(); err != nil {
		return err
	}
	if err := v.checkAliasCycles(); err != nil {
		return err
	}

	return nil
}

func (v *validator) checkAttr(path string, a *Attr) error {
	prim, isPrim := v.resolvePrimitive(a.Type)

	if a.Encoding != "" && !(isPrim && prim == Str) {
		return errAt(path, "encoding requires effective primitive str")
	}
	needsSize := isPrim && (prim == Bytes || prim == Str)
	_ = needsSize // computed but not checked: a bytes/str attr without size_expr is accepted here

	switch a.Repeat {
	case RepeatExpr, RepeatUntil:
		if a.RepeatExpr == nil {
			return errAt(path, "repeat=%s requires repeat_expr", a.Repeat)
		}
	case RepeatNone, RepeatEOS:
		if a.RepeatExpr != nil {
			return errAt(path, "repeat_expr set without repeat in {expr,until}")
		}
	default:
		return errAt(path, "invalid repeat kind %q", a.Repeat)
	}

	if (a.SwitchOn != nil) != (len(a.SwitchCases) > 0) {
		return errAt(path, "switch_on and switch_cases must both be present or both absent")
	}
	if a.SwitchOn != nil {
		if len(a.SwitchCases) == 0 {
			return errAt(path, "switch_on requires at least one case")
		}
		elseCount := 0
		for _, c := range a.SwitchCases {
			if c.Match == nil {
				elseCount++
			}
		}
		if elseCount > 1 {
			return errAt(path, "switch_on has more than one else-case")
		}
	}

	if a.EnumName != "" {
		if !isPrim || !prim.IsInteger() {
			return errAt(path, "enum_name requires an integer-valued effective primitive")
		}
		if _, ok := v.lookupEnum(a.EnumName); !ok {
			return errAt(path, "unknown enum %q", a.EnumName)
		}
	}

	return nil
}

func (v *validator) checkInstance(path string, in *Instance) error {
	if in.Kind == ValueInstance {
		if in.ValueExpr == nil {
			return errAt(path, "value instance requires value_expr")
		}
		return nil
	}
	// ParseInstance
	if in.Type == (TypeRef{}) {
		return errAt(path, "parse instance requires a type")
	}
	return nil
}

func (v *validator) checkValidation(val *Validation) error {
	names := v.spec.DeclaredNames()
	if !names[val.Target] {
		return errAt(v.spec.Name+"/validations", "validation target %q is not a declared attr or instance", val.Target)
	}
	if val.ConditionExpr == nil {
		return errAt(v.spec.Name+"/validations", "validation %q missing condition_expr", val.Target)
	}
	return nil
}

// resolvePrimitive resolves t to an effective Primitive by following local
// type-alias chains, stopping at the first repeated name (cycle detection runs separately
// in checkAliasCycles so this just needs to not infinite-loop on the way).
func (v *validator) resolvePrimitive(t TypeRef) (Primitive, bool) {
	seen := map[string]bool{}
	for {
		switch t.Kind {
		case RefPrimitive:
			return t.Primitive, true
		case RefUser:
			if seen[t.UserType] {
				return "", false
			}
			seen[t.UserType] = true
			td, ok := v.spec.FindType(t.UserType)
			if !ok || td.IsNested() {
				return "", false
			}
			t = td.Type
		default:
			return "", false
		}
	}
}

func (v *validator) lookupEnum(name string) (*EnumDef, bool) {
	return v.spec.FindEnum(name)
}

// checkTypeReferences enforces "known-type references across Spec +
// TypeDefs" from §4.2: every user TypeRef reachable from attrs, instances,
// switch cases, and type aliases must resolve to a declared local type.
func (v *validator) checkTypeReferences() error {
	check := func(t TypeRef, path string) error {
		if t.Kind != RefUser {
			return nil
		}
		if _, ok := v.spec.FindType(t.UserType); !ok {
			return errAt(path, "unknown user type %q", t.UserType)
		}
		return nil
	}
	for i, a := range v.spec.Attrs {
		path := fmt.Sprintf("%s/seq/%d", v.spec.Name, i)
		if err := check(a.Type, path); err != nil {
			return err
		}
		for _, c := range a.SwitchCases {
			if err := check(c.Type, path); err != nil {
				return err
			}
		}
	}
	for _, in := range v.spec.Instances {
		if in.Kind == ParseInstance {
			if err := check(in.Type, v.spec.Name+"/instances/"+in.ID); err != nil {
				return err
			}
		}
	}
	for _, t := range v.spec.Types {
		if !t.IsNested() {
			if err := check(t.Type, v.spec.Name+"/types/"+t.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkAliasCycles runs a DFS over local scalar type aliases to detect
// cycles, per §4.2.
func (v *validator) checkAliasCycles() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := map[string]int{}
	var visit func(name string) error
	visit = func(name string) error {
		if color[name] == black {
			return nil
		}
		if color[name] == gray {
			return errAt(v.spec.Name, "type alias cycle at %q", name)
		}
		color[name] = gray
		td, ok := v.spec.FindType(name)
		if ok && !td.IsNested() && td.Type.Kind == RefUser {
			if err := visit(td.Type.UserType); err != nil {
				return err
			}
		}
		color[name] = black
		return nil
	}
	for _, t := range v.spec.Types {
		if t.IsNested() {
			continue
		}
		if err := visit(t.Name); err != nil {
			return err
		}
	}
	return nil
}

// literalTrue reports whether e is the literal boolean `true`, the "absent
// or true ⇒ present" case for Attr.IfExpr (§3).
func literalTrue(e Expr) bool {
	b, ok := e.(*ksexpr.Bool)
	return ok && b.Value
}
