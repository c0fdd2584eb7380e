package cpp

import (
	"github.com/kaitaic/ksc/pkg/ksexpr"
	"github.com/kaitaic/ksc/pkg/ksir"
)

// exprType is the inferred C++ result type of a value-instance expression
// (§4.1's expression type inference).
type exprType int

const (
	exprInt32 exprType = iota
	exprInt8
	exprBool
)

func cppExprType(t exprType) string {
	switch t {
	case exprBool:
		return "bool"
	case exprInt8:
		return "int8_t"
	default:
		return "int32_t"
	}
}

// exprResultType infers e's C++ result type: bool for boolean literals and
// comparison/logical operators, int8_t for integer literals that fit a
// signed byte, int32_t otherwise. instanceTypes carries the already-typed
// value instances that precede the one being inferred, in declaration
// order, so a Name referencing a prior bool-typed instance types as bool
// instead of falling back to int32.
func exprResultType(e ksexpr.Expr, instanceTypes map[string]exprType) exprType {
	switch n := e.(type) {
	case *ksexpr.Bool:
		return exprBool
	case *ksexpr.Int:
		if n.Value >= -128 && n.Value <= 127 {
			return exprInt8
		}
		return exprInt32
	case *ksexpr.Name:
		if t, ok := instanceTypes[n.Text]; ok {
			return t
		}
		return exprInt32
	case *ksexpr.Unary:
		if n.Op == ksexpr.OpNot {
			return exprBool
		}
		return exprInt32
	case *ksexpr.Binary:
		if ksexpr.IsLogical(n.Op) || isComparisonOp(n.Op) {
			return exprBool
		}
		return exprInt32
	default:
		return exprInt32
	}
}

func isComparisonOp(op ksexpr.BinaryOp) bool {
	switch op {
	case ksexpr.OpEq, ksexpr.OpNe, ksexpr.OpLt, ksexpr.OpLe, ksexpr.OpGt, ksexpr.OpGe:
		return true
	default:
		return false
	}
}

// computeInstanceTypes infers a storage type for every value instance
// declared directly on s, in declaration order.
func computeInstanceTypes(s *ksir.Spec) map[string]exprType {
	out := make(map[string]exprType, len(s.Instances))
	for _, in := range s.Instances {
		if in.Kind != ksir.ValueInstance {
			continue
		}
		out[in.ID] = exprResultType(in.ValueExpr, out)
	}
	return out
}
