package cpp

import (
	"strings"

	"github.com/kaitaic/ksc/pkg/ksexpr"
	"github.com/kaitaic/ksc/pkg/ksir"
)

// writeValidations emits one guard per declared validation, at the end of
// _read(), per §4.7's Validation emission rules: a specialized
// equality-to-literal fast path, else a generic condition check.
func writeValidations(b *strings.Builder, s *ksir.Spec) {
	for idx, v := range s.Validations {
		writeValidation(b, s, &v, idx)
	}
}

func writeValidation(b *strings.Builder, s *ksir.Spec, v *ksir.Validation, idx int) {
	storageType := validationStorageType(s, v.Target)
	target := memberField(v.Target)

	if lit, ok := equalityToLiteral(v.ConditionExpr, v.Target); ok {
		fprintfln(b, "    if (!(%s == %d)) {", target, lit)
		fprintfln(b, "        throw kaitai::validation_not_equal_error<%s>(%d, %s, m__io, std::string(\"/seq/%d\"));", storageType, lit, target, idx)
		fprintfln(b, "    }")
		return
	}

	fprintfln(b, "    if (!(%s)) {", exprText(v.ConditionExpr))
	fprintfln(b, "        throw kaitai::validation_expr_error<%s>(%s, m__io, \"/valid/%s\");", storageType, target, v.Target)
	fprintfln(b, "    }")
}

// equalityToLiteral recognizes the "binary == with one side exactly the
// target attr and the other a literal integer" shape.
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

func validationStorageType(s *ksir.Spec, target string) string {
	if a, ok := s.FindAttr(target); ok {
		return resolveStorage(a).CppType
	}
	if in, ok := s.FindInstance(target); ok && in.Kind == ksir.ParseInstance {
		if in.Type.IsUser() {
			return className(in.Type.UserType)
		}
		return primitiveCppType(in.Type.Primitive)
	}
	return "uint64_t"
}
