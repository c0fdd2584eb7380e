// exprparse.go implements a hand-written recursive-descent/precedence-
// climbing parser for the small subset of the Kaitai expression language
// that pkg/ksexpr's node set can represent: integer and boolean literals,
// names, dotted attribute access (`.field`), the reserved `.as<Type>` cast
// form, unary `-`/`not`/`~`, and the binary operators of §4.1's precedence
// table. Anything outside that grammar — string/float literals, array
// indexing, ternary, function calls other than `.as<T>` — is rejected with
// a "not yet supported" diagnostic, since this front end is a KSIR
// *producer* and must not invent IR the gate would reject anyway.
package ksyfront

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/kaitaic/ksc/pkg/ksexpr"
)

// UnsupportedExprError reports a surface-syntax construct the expression
// parser does not translate into KSIR.
type UnsupportedExprError struct {
	Source string
	Reason string
}

func (e *UnsupportedExprError) Error() string {
	return fmt.Sprintf("not yet supported: %s (in expression %q)", e.Reason, e.Source)
}

// ParseExpr parses a Kaitai-style expression string into a ksexpr.Expr.
func ParseExpr(src string) (ksexpr.Expr, error) {
	toks, err := tokenizeExpr(src)
	if err != nil {
		return nil, &UnsupportedExprError{Source: src, Reason: err.Error()}
	}
	p := &exprParser{toks: toks, src: src}
	e, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if !p.atEnd() {
		return nil, &UnsupportedExprError{Source: src, Reason: fmt.Sprintf("unexpected trailing token %q", p.peek().text)}
	}
	return e, nil
}

type exprTokKind int

const (
	tokEOF exprTokKind = iota
	tokInt
	tokIdent
	tokOp
	tokLParen
	tokRParen
	tokDot
)

type exprTok struct {
	kind exprTokKind
	text string
}

func tokenizeExpr(src string) ([]exprTok, error) {
	var toks []exprTok
	i := 0
	n := len(src)
	for i < n {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, exprTok{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, exprTok{tokRParen, ")"})
			i++
		case c == '.':
			toks = append(toks, exprTok{tokDot, "."})
			i++
		case c >= '0' && c <= '9':
			start := i
			for i < n && (src[i] >= '0' && src[i] <= '9') {
				i++
			}
			if i < n && (src[i] == 'x' || src[i] == 'X') && src[start] == '0' {
				i++
				for i < n && isHex(src[i]) {
					i++
				}
			}
			toks = append(toks, exprTok{tokInt, src[start:i]})
		case isIdentStart(rune(c)):
			start := i
			for i < n && isIdentCont(rune(src[i])) {
				i++
			}
			toks = append(toks, exprTok{tokIdent, src[start:i]})
		default:
			op, width, ok := matchOp(src[i:])
			if !ok {
				return nil, fmt.Errorf("unrecognized character %q", string(c))
			}
			toks = append(toks, exprTok{tokOp, op})
			i += width
		}
	}
	toks = append(toks, exprTok{tokEOF, ""})
	return toks, nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isIdentStart(r rune) bool { return unicode.IsLetter(r) || r == '_' }
func isIdentCont(r rune) bool  { return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' }

var multiCharOps = []string{"<<", ">>", "<=", ">=", "==", "!=", "&&", "||"}

func matchOp(rest string) (string, int, bool) {
	for _, op := range multiCharOps {
		if strings.HasPrefix(rest, op) {
			return op, len(op), true
		}
	}
	switch rest[0] {
	case '+', '-', '*', '/', '%', '<', '>', '&', '|', '^', '!', '~':
		return string(rest[0]), 1, true
	}
	return "", 0, false
}

type exprParser struct {
	toks []exprTok
	pos  int
	src  string
}

func (p *exprParser) peek() exprTok  { return p.toks[p.pos] }
func (p *exprParser) atEnd() bool    { return p.peek().kind == tokEOF }
func (p *exprParser) advance() exprTok {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

// binaryOpAt returns the BinaryOp and precedence if the current token
// starts a binary operator (symbolic or word-alias form), consuming it.
func (p *exprParser) binaryOpAt() (ksexpr.BinaryOp, int, bool) {
	t := p.peek()
	if t.kind != tokOp && t.kind != tokIdent {
		return "", 0, false
	}
	op, ok := ksexpr.BinaryOpFromToken(t.text)
	if !ok {
		return "", 0, false
	}
	p.advance()
	return op, ksexpr.BinaryPrecedence(op), true
}

func (p *exprParser) parseBinary(minPrec int) (ksexpr.Expr, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		save := p.pos
		op, prec, ok := p.binaryOpAt()
		if !ok || prec < minPrec {
			p.pos = save
			return lhs, nil
		}
		rhs, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		lhs = ksexpr.NewBinary(op, lhs, rhs)
	}
}

func (p *exprParser) parseUnary() (ksexpr.Expr, error) {
	t := p.peek()
	if t.kind == tokIdent && t.text == "not" {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return ksexpr.NewUnary(ksexpr.OpNot, operand), nil
	}
	if t.kind == tokOp {
		if op, ok := ksexpr.UnaryOpFromToken(t.text); ok {
			p.advance()
			operand, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return ksexpr.NewUnary(op, operand), nil
		}
	}
	return p.parsePostfix()
}

func (p *exprParser) parsePostfix() (ksexpr.Expr, error) {
	e, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokDot {
		p.advance()
		field := p.peek()
		if field.kind != tokIdent {
			return nil, &UnsupportedExprError{Source: p.src, Reason: "expected field name after '.'"}
		}
		p.advance()
		if field.text == "as" {
			if p.peek().kind != tokOp || p.peek().text != "<" {
				return nil, &UnsupportedExprError{Source: p.src, Reason: "expected '<' after '.as'"}
			}
			p.advance()
			typeName, err := p.parseTypeNameUntilGt()
			if err != nil {
				return nil, err
			}
			e = ksexpr.NewCast(typeName, e)
			continue
		}
		e = ksexpr.NewAttrOf(field.text, e)
	}
	return e, nil
}

func (p *exprParser) parseTypeNameUntilGt() (string, error) {
	var parts []string
	for {
		t := p.peek()
		if t.kind == tokOp && t.text == ">" {
			p.advance()
			return strings.Join(parts, ""), nil
		}
		if t.kind == tokEOF {
			return "", &UnsupportedExprError{Source: p.src, Reason: "unterminated .as<...> cast"}
		}
		parts = append(parts, t.text)
		p.advance()
	}
}

func (p *exprParser) parseAtom() (ksexpr.Expr, error) {
	t := p.peek()
	switch {
	case t.kind == tokInt:
		p.advance()
		v, err := strconv.ParseInt(t.text, 0, 64)
		if err != nil {
			return nil, &UnsupportedExprError{Source: p.src, Reason: fmt.Sprintf("invalid integer literal %q", t.text)}
		}
		return ksexpr.NewInt(v), nil
	case t.kind == tokIdent && (t.text == "true" || t.text == "false"):
		p.advance()
		return ksexpr.NewBool(t.text == "true"), nil
	case t.kind == tokIdent:
		p.advance()
		return ksexpr.NewName(t.text), nil
	case t.kind == tokLParen:
		p.advance()
		e, err := p.parseBinary(0)
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, &UnsupportedExprError{Source: p.src, Reason: "unbalanced parentheses"}
		}
		p.advance()
		return e, nil
	default:
		return nil, &UnsupportedExprError{Source: p.src, Reason: fmt.Sprintf("unexpected token %q", t.text)}
	}
}
