package ksexpr

// aliasTable is the normalization map from spec.md §4.1: word-form
// operators are folded to their symbolic equivalent before an Expr tree is
// constructed, so every downstream consumer (renderers, the gate) only
// ever sees the symbolic spelling.
var aliasTable = map[string]string{
	"and": "&&",
	"or":  "||",
	"not": "!",
	"xor": "^",
}

// Normalize maps a word-form operator alias to its symbolic spelling,
// returning the input unchanged if it is not a known alias.
func Normalize(op string) string {
	if canon, ok := aliasTable[op]; ok {
		return canon
	}
	return op
}

// BinaryOpFromToken normalizes and validates a binary operator token,
// returning ok=false for anything outside the fixed set spec.md §4.1
// defines (the closed set the supportability gate also enforces in §4.5).
func BinaryOpFromToken(tok string) (BinaryOp, bool) {
	switch BinaryOp(Normalize(tok)) {
	case OpOr, OpAnd, OpBitOr, OpBitXor, OpBitAnd, OpEq, OpNe,
		OpLt, OpLe, OpGt, OpGe, OpShl, OpShr, OpAdd, OpSub, OpMul, OpDiv, OpMod:
		return BinaryOp(Normalize(tok)), true
	default:
		return "", false
	}
}

// UnaryOpFromToken normalizes and validates a unary operator token.
func UnaryOpFromToken(tok string) (UnaryOp, bool) {
	switch UnaryOp(Normalize(tok)) {
	case OpNeg, OpNot, OpBitNot:
		return UnaryOp(Normalize(tok)), true
	default:
		return "", false
	}
}
