package cpp

import "github.com/kaitaic/ksc/pkg/ksir"

// classInfo is one generated class (the root spec, or one nested
// __scope_b64__ scope), together with its nested children in the
// deterministic lexicographic scope order §4.7's Header/source ordering
// paragraph specifies.
type classInfo struct {
	Name   string
	Spec   *ksir.Spec
	Nested []*classInfo

	// InstanceTypes holds the inferred C++ type of each value instance
	// declared directly on Spec (§4.1's expression type inference).
	InstanceTypes map[string]exprType
}

func (e *emitter) buildClass(s *ksir.Spec, _ *classInfo) (*classInfo, error) {
	ci := &classInfo{Name: className(s.Name), Spec: s, InstanceTypes: computeInstanceTypes(s)}
	for _, name := range sortedScopeNames(s) {
		td, _ := s.FindType(name)
		child, err := e.buildClass(td.NestedSpec, ci)
		if err != nil {
			return nil, err
		}
		ci.Nested = append(ci.Nested, child)
	}
	return ci, nil
}

// walk visits ci and every descendant in lexicographic scope order.
func (ci *classInfo) walk(fn func(*classInfo)) {
	fn(ci)
	for _, n := range ci.Nested {
		n.walk(fn)
	}
}
