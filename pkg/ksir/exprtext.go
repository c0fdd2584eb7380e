package ksir

import (
	"fmt"

	"github.com/kaitaic/ksc/pkg/ksexpr"
)

// exprText renders e as the S-expression text defined in §4.3:
// (int N), (bool true|false), (name "id"), (un "op" <e>), (bin "op" <l> <r>).
// The two reserved special unary forms are encoded with their canonical
// wire spelling "__cast__:TypeName" / "__attr__:field" as the op string.
func exprText(e ksexpr.Expr) (string, error) {
	switch n := e.(type) {
	case *ksexpr.Int:
		return fmt.Sprintf("(int %d)", n.Value), nil
	case *ksexpr.Bool:
		return fmt.Sprintf("(bool %t)", n.Value), nil
	case *ksexpr.Name:
		return fmt.Sprintf("(name %s)", quoteC(n.Text)), nil
	case *ksexpr.Unary:
		opWire := string(n.Op)
		if n.Op == ksexpr.OpCastTo || n.Op == ksexpr.OpAttrOf {
			opWire = string(n.Op) + ":" + n.Payload
		}
		operand, err := exprText(n.Operand)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(un %s %s)", quoteC(opWire), operand), nil
	case *ksexpr.Binary:
		lhs, err := exprText(n.LHS)
		if err != nil {
			return "", err
		}
		rhs, err := exprText(n.RHS)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(bin %s %s %s)", quoteC(string(n.Op)), lhs, rhs), nil
	default:
		return "", fmt.Errorf("unknown expression node type %T", e)
	}
}

// parseExprText parses the S-expression text produced by exprText back into
// an ksexpr.Expr tree.
func parseExprText(s string) (ksexpr.Expr, error) {
	sc := newScanner(s)
	e, err := parseSExpr(sc)
	if err != nil {
		return nil, err
	}
	return e, nil
}

func parseSExpr(sc *scanner) (ksexpr.Expr, error) {
	if err := sc.expectBare("("); err != nil {
		return nil, err
	}
	tag, err := sc.readBare()
	if err != nil {
		return nil, err
	}
	var result ksexpr.Expr
	switch tag {
	case "int":
		v, err := sc.readInt()
		if err != nil {
			return nil, err
		}
		result = ksexpr.NewInt(v)
	case "bool":
		v, err := sc.readBare()
		if err != nil {
			return nil, err
		}
		result = ksexpr.NewBool(v == "true")
	case "name":
		v, err := sc.readQuotedField()
		if err != nil {
			return nil, err
		}
		result = ksexpr.NewName(v)
	case "un":
		opWire, err := sc.readQuotedField()
		if err != nil {
			return nil, err
		}
		operand, err := parseSExpr(sc)
		if err != nil {
			return nil, err
		}
		result = decodeUnary(opWire, operand)
	case "bin":
		opWire, err := sc.readQuotedField()
		if err != nil {
			return nil, err
		}
		lhs, err := parseSExpr(sc)
		if err != nil {
			return nil, err
		}
		rhs, err := parseSExpr(sc)
		if err != nil {
			return nil, err
		}
		result = ksexpr.NewBinary(ksexpr.BinaryOp(opWire), lhs, rhs)
	default:
		return nil, fmt.Errorf("unknown expression tag %q", tag)
	}
	if err := sc.expectBare(")"); err != nil {
		return nil, err
	}
	return result, nil
}

func decodeUnary(opWire string, operand ksexpr.Expr) ksexpr.Expr {
	const castPrefix = "__cast__:"
	const attrPrefix = "__attr__:"
	if len(opWire) > len(castPrefix) && opWire[:len(castPrefix)] == castPrefix {
		return ksexpr.NewCast(opWire[len(castPrefix):], operand)
	}
	if len(opWire) > len(attrPrefix) && opWire[:len(attrPrefix)] == attrPrefix {
		return ksexpr.NewAttrOf(opWire[len(attrPrefix):], operand)
	}
	return ksexpr.NewUnary(ksexpr.UnaryOp(opWire), operand)
}

// quoteExprOrNone renders an optional expression field as a quoted token,
// using the literal quoted word "none" for absence, matching the
// "<field|none>" quoting convention of §4.3.
func quoteExprOrNone(e ksexpr.Expr) (string, error) {
	if e == nil {
		return quoteC("none"), nil
	}
	text, err := exprText(e)
	if err != nil {
		return "", err
	}
	return quoteC(text), nil
}

func quoteStringOrNone(s string) string {
	if s == "" {
		return quoteC("none")
	}
	return quoteC(s)
}
