package script

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kaitaic/ksc/pkg/ksexpr"
	"github.com/kaitaic/ksc/pkg/ksir"
)

func fprintfln(b *strings.Builder, format string, args ...any) {
	fmt.Fprintf(b, format+"\n", args...)
}

// sortedNestedNames returns s's nested type names in lexicographic order,
// the deterministic scope order §4.9's ordering guarantee requires.
func sortedNestedNames(s *ksir.Spec) []string {
	names := make([]string, 0, len(s.Types))
	for _, t := range s.Types {
		if t.IsNested() {
			names = append(names, t.Name)
		}
	}
	sort.Strings(names)
	return names
}

// equalityToLiteral recognizes a validation condition of the shape
// "<target> == <int literal>" (in either operand order), the fast path
// every emitter — cpp included — specializes per §4.5/§4.7's validation
// rules.
func equalityToLiteral(e ksexpr.Expr, target string) (int64, bool) {
	bin, ok := e.(*ksexpr.Binary)
	if !ok || bin.Op != ksexpr.OpEq {
		return 0, false
	}
	if n, ok := bin.LHS.(*ksexpr.Name); ok && n.Text == target {
		if lit, ok := bin.RHS.(*ksexpr.Int); ok {
			return lit.Value, true
		}
	}
	if n, ok := bin.RHS.(*ksexpr.Name); ok && n.Text == target {
		if lit, ok := bin.LHS.(*ksexpr.Int); ok {
			return lit.Value, true
		}
	}
	return 0, false
}
