package ksir

import (
	"encoding/base64"
	"fmt"

	"github.com/kaitaic/ksc/pkg/ksexpr"
)

// Deserialize parses KSIR1 text (§4.3) into a Spec and runs Validate on the
// result before returning it.
func Deserialize(text string) (*Spec, error) {
	s, err := parseKSIR1(text)
	if err != nil {
		return nil, err
	}
	if err := Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// parseKSIR1 parses KSIR1 text without validating it. The loader uses this
// directly for files that import other files, since a file's own type
// references may only resolve after its dependencies are merged in; the
// merged whole is validated once by LoadFromFileWithImports.
func parseKSIR1(text string) (*Spec, error) {
	sc := newScanner(text)
	if err := sc.expectBare("KSIR1"); err != nil {
		return nil, fmt.Errorf("not a KSIR1 document: %w", err)
	}
	s := &Spec{}

	if err := sc.expectBare("name"); err != nil {
		return nil, err
	}
	name, err := sc.readQuotedField()
	if err != nil {
		return nil, err
	}
	s.Name = name

	if err := sc.expectBare("default_endian"); err != nil {
		return nil, err
	}
	endianTok, err := sc.readBare()
	if err != nil {
		return nil, err
	}
	endian, err := ParseEndian(endianTok)
	if err != nil {
		return nil, err
	}
	s.DefaultEndian = endian

	if err := sc.expectBare("imports"); err != nil {
		return nil, err
	}
	n, err := sc.readInt()
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < n; i++ {
		if err := sc.expectBare("import"); err != nil {
			return nil, err
		}
		imp, err := sc.readQuotedField()
		if err != nil {
			return nil, err
		}
		s.Imports = append(s.Imports, imp)
	}

	if err := sc.expectBare("types"); err != nil {
		return nil, err
	}
	n, err = sc.readInt()
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < n; i++ {
		td, err := readType(sc)
		if err != nil {
			return nil, err
		}
		s.Types = append(s.Types, *td)
	}

	if err := sc.expectBare("attrs"); err != nil {
		return nil, err
	}
	n, err = sc.readInt()
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < n; i++ {
		a, err := readAttr(sc)
		if err != nil {
			return nil, err
		}
		s.Attrs = append(s.Attrs, *a)
	}

	if err := sc.expectBare("enums"); err != nil {
		return nil, err
	}
	n, err = sc.readInt()
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < n; i++ {
		if err := sc.expectBare("enum"); err != nil {
			return nil, err
		}
		enumName, err := sc.readQuotedField()
		if err != nil {
			return nil, err
		}
		vn, err := sc.readInt()
		if err != nil {
			return nil, err
		}
		ed := EnumDef{Name: enumName}
		for j := int64(0); j < vn; j++ {
			if err := sc.expectBare("enum_value"); err != nil {
				return nil, err
			}
			v, err := sc.readInt()
			if err != nil {
				return nil, err
			}
			valName, err := sc.readQuotedField()
			if err != nil {
				return nil, err
			}
			ed.Values = append(ed.Values, EnumValue{Value: v, Name: valName})
		}
		s.Enums = append(s.Enums, ed)
	}

	if err := sc.expectBare("instances"); err != nil {
		return nil, err
	}
	n, err = sc.readInt()
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < n; i++ {
		in, err := readInstance(sc)
		if err != nil {
			return nil, err
		}
		s.Instances = append(s.Instances, *in)
	}

	if err := sc.expectBare("validations"); err != nil {
		return nil, err
	}
	n, err = sc.readInt()
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < n; i++ {
		if err := sc.expectBare("validation"); err != nil {
			return nil, err
		}
		target, err := sc.readQuotedField()
		if err != nil {
			return nil, err
		}
		cond, err := readOptExpr(sc)
		if err != nil {
			return nil, err
		}
		msg, err := sc.readQuotedField()
		if err != nil {
			return nil, err
		}
		s.Validations = append(s.Validations, Validation{Target: target, ConditionExpr: cond, Message: msg})
	}

	if err := sc.expectBare("end"); err != nil {
		return nil, err
	}

	return s, nil
}

func readOptExpr(sc *scanner) (ksexpr.Expr, error) {
	text, err := sc.readQuotedField()
	if err != nil {
		return nil, err
	}
	if text == "none" {
		return nil, nil
	}
	return parseExprText(text)
}

func readOptString(sc *scanner) (string, error) {
	text, err := sc.readQuotedField()
	if err != nil {
		return "", err
	}
	if text == "none" {
		return "", nil
	}
	return text, nil
}

func readTypeRef(sc *scanner) (TypeRef, error) {
	kind, err := sc.readBare()
	if err != nil {
		return TypeRef{}, err
	}
	name, err := sc.readQuotedField()
	if err != nil {
		return TypeRef{}, err
	}
	switch kind {
	case "primitive":
		return PrimitiveRef(Primitive(name)), nil
	case "user":
		return UserRef(name), nil
	default:
		return TypeRef{}, fmt.Errorf("invalid typeref kind %q", kind)
	}
}

func readType(sc *scanner) (*TypeDef, error) {
	if err := sc.expectBare("type"); err != nil {
		return nil, err
	}
	name, err := sc.readQuotedField()
	if err != nil {
		return nil, err
	}
	ref, err := readTypeRef(sc)
	if err != nil {
		return nil, err
	}
	td := &TypeDef{Name: name}
	if ref.Kind == RefUser && len(ref.UserType) >= len(nestedScopePrefix) && ref.UserType[:len(nestedScopePrefix)] == nestedScopePrefix {
		payload := ref.UserType[len(nestedScopePrefix):]
		raw, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("type %q: invalid nested scope payload: %w", name, err)
		}
		nested, err := parseKSIR1(string(raw))
		if err != nil {
			return nil, fmt.Errorf("type %q: nested scope: %w", name, err)
		}
		td.NestedSpec = nested
	} else {
		td.Type = ref
	}
	return td, nil
}

func readAttr(sc *scanner) (*Attr, error) {
	if err := sc.expectBare("attr"); err != nil {
		return nil, err
	}
	id, err := sc.readQuotedField()
	if err != nil {
		return nil, err
	}
	typ, err := readTypeRef(sc)
	if err != nil {
		return nil, err
	}
	a := &Attr{ID: id, Type: typ}

	endianTok, err := sc.readBare()
	if err != nil {
		return nil, err
	}
	if endianTok != "none" {
		e, err := ParseEndian(endianTok)
		if err != nil {
			return nil, err
		}
		a.EndianOverride = &e
	}

	if a.SizeExpr, err = readOptExpr(sc); err != nil {
		return nil, err
	}
	if a.EnumName, err = readOptString(sc); err != nil {
		return nil, err
	}
	if a.Encoding, err = readOptString(sc); err != nil {
		return nil, err
	}
	if a.IfExpr, err = readOptExpr(sc); err != nil {
		return nil, err
	}

	repeatTok, err := sc.readBare()
	if err != nil {
		return nil, err
	}
	a.Repeat = RepeatKind(repeatTok)
	if a.RepeatExpr, err = readOptExpr(sc); err != nil {
		return nil, err
	}
	if a.SwitchOn, err = readOptExpr(sc); err != nil {
		return nil, err
	}
	caseN, err := sc.readInt()
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < caseN; i++ {
		matchTok, err := sc.readQuotedField()
		if err != nil {
			return nil, err
		}
		var match ksexpr.Expr
		if matchTok != "else" {
			match, err = parseExprText(matchTok)
			if err != nil {
				return nil, err
			}
		}
		caseType, err := readTypeRef(sc)
		if err != nil {
			return nil, err
		}
		a.SwitchCases = append(a.SwitchCases, SwitchCase{Match: match, Type: caseType})
	}

	if err := sc.expectBare("process"); err != nil {
		return nil, err
	}
	procKind, err := sc.readBare()
	if err != nil {
		return nil, err
	}
	if procKind == "xor_const" {
		v, err := sc.readInt()
		if err != nil {
			return nil, err
		}
		a.Process = &Process{Kind: ProcessXorConst, XorConst: byte(v)}
	}

	if err := sc.expectBare("args"); err != nil {
		return nil, err
	}
	argN, err := sc.readInt()
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < argN; i++ {
		argTok, err := sc.readQuotedField()
		if err != nil {
			return nil, err
		}
		arg, err := parseExprText(argTok)
		if err != nil {
			return nil, err
		}
		a.UserTypeArgs = append(a.UserTypeArgs, arg)
	}

	return a, nil
}

func readInstance(sc *scanner) (*Instance, error) {
	if err := sc.expectBare("instance"); err != nil {
		return nil, err
	}
	id, err := sc.readQuotedField()
	if err != nil {
		return nil, err
	}
	kind, err := sc.readBare()
	if err != nil {
		return nil, err
	}
	in := &Instance{ID: id}
	switch kind {
	case "value":
		in.Kind = ValueInstance
		text, err := sc.readQuotedField()
		if err != nil {
			return nil, err
		}
		in.ValueExpr, err = parseExprText(text)
		if err != nil {
			return nil, err
		}
	case "parse":
		in.Kind = ParseInstance
		if in.PosExpr, err = readOptExpr(sc); err != nil {
			return nil, err
		}
		if in.SizeExpr, err = readOptExpr(sc); err != nil {
			return nil, err
		}
		endianTok, err := sc.readBare()
		if err != nil {
			return nil, err
		}
		if endianTok != "none" {
			e, err := ParseEndian(endianTok)
			if err != nil {
				return nil, err
			}
			in.EndianOverride = &e
		}
		if in.Encoding, err = readOptString(sc); err != nil {
			return nil, err
		}
		explicitTok, err := sc.readBare()
		if err != nil {
			return nil, err
		}
		in.ExplicitType = explicitTok == "1"
		in.Type, err = readTypeRef(sc)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("invalid instance kind %q", kind)
	}
	return in, nil
}
