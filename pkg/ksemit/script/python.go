package script

import (
	"fmt"
	"strings"

	"github.com/kaitaic/ksc/internal/identname"
	"github.com/kaitaic/ksc/pkg/ksexpr"
	"github.com/kaitaic/ksc/pkg/ksir"
	"github.com/kaitaic/ksc/pkg/ksrender"
)

func emitPython(s *ksir.Spec, opts Options) (string, error) {
	var b strings.Builder
	fprintfln(&b, bannerComment("#"))
	fprintfln(&b, "# This file is compatible with Python 2.7 and Python 3")
	b.WriteString("\n")
	fprintfln(&b, "import kaitaistruct")
	fprintfln(&b, "from kaitaistruct import KaitaiStruct, KaitaiStream, BytesIO")
	fprintfln(&b, "from enum import IntEnum")
	b.WriteString("\n")
	fprintfln(&b, "if getattr(kaitaistruct, 'API_VERSION', (0, 9)) < (0, %s):", strings.TrimPrefix(runtimeAPIVersion, "0."))
	fprintfln(&b, "    raise Exception(\"Incompatible Kaitai Struct Python API: 0.%s or later is required\")", strings.TrimPrefix(runtimeAPIVersion, "0."))
	b.WriteString("\n\n")

	writePythonClass(&b, s, identname.UpperCamel(s.Name), "", true)
	return b.String(), nil
}

func pyRenderer() *ksrender.Renderer { return ksrender.NewPython() }

func writePythonClass(b *strings.Builder, s *ksir.Spec, className, indent string, isRoot bool) {
	fprintfln(b, "%sclass %s(KaitaiStruct):", indent, className)
	body := indent + "    "

	for _, en := range s.Enums {
		fprintfln(b, "%sclass %s(IntEnum):", body, identname.UpperCamel(en.Name))
		for _, v := range en.Values {
			fprintfln(b, "%s    %s = %d", body, strings.ToUpper(identname.SnakeCase(v.Name)), v.Value)
		}
		b.WriteString("\n")
	}

	fprintfln(b, "%sdef __init__(self, _io, _parent=None, _root=None):", body)
	inner := body + "    "
	fprintfln(b, "%sself._io = _io", inner)
	fprintfln(b, "%sself._parent = _parent", inner)
	fprintfln(b, "%sself._root = _root if _root else self", inner)
	fprintfln(b, "%sself._read()", inner)
	b.WriteString("\n")

	fprintfln(b, "%sdef _read(self):", body)
	if len(s.Attrs) == 0 {
		fprintfln(b, "%spass", inner)
	}
	for i := range s.Attrs {
		writePythonAttr(b, s, &s.Attrs[i], className, inner)
	}
	for idx, v := range s.Validations {
		writePythonValidation(b, s, &v, idx, inner)
	}
	b.WriteString("\n")

	for i := range s.Instances {
		writePythonInstance(b, s, &s.Instances[i], className, body)
	}

	for _, name := range sortedNestedNames(s) {
		td, _ := s.FindType(name)
		writePythonClass(b, td.NestedSpec, identname.UpperCamel(name), body, false)
	}
}

// pyNestedClassName returns the qualified name a locally-declared type
// resolves to from within className's methods: a real Python nested class
// is only visible as an attribute of its enclosing class, not as a bare
// module-level name.
func pyNestedClassName(className, typeName string) string {
	return className + "." + identname.UpperCamel(typeName)
}

func writePythonAttr(b *strings.Builder, s *ksir.Spec, a *ksir.Attr, className, indent string) {
	if a.IfExpr != nil {
		fprintfln(b, "%sif %s:", indent, pyRenderer().Render(a.IfExpr))
		indent += "    "
	}

	target := "self." + identname.SnakeCase(a.ID)

	switch a.Repeat {
	case ksir.RepeatEOS:
		fprintfln(b, "%s%s = []", indent, target)
		fprintfln(b, "%swhile not self._io.is_eof():", indent)
		fprintfln(b, "%s    %s.append(%s)", indent, target, pyReadExpr(s, a, className))
	case ksir.RepeatExpr:
		fprintfln(b, "%s%s = [None] * (%s)", indent, target, pyRenderer().Render(a.RepeatExpr))
		fprintfln(b, "%sfor i in range(len(%s)):", indent, target)
		fprintfln(b, "%s    %s[i] = %s", indent, target, pyReadExpr(s, a, className))
	case ksir.RepeatUntil:
		fprintfln(b, "%s%s = []", indent, target)
		fprintfln(b, "%si = 0", indent)
		fprintfln(b, "%swhile True:", indent)
		fprintfln(b, "%s    _ = %s", indent, pyReadExpr(s, a, className))
		fprintfln(b, "%s    %s.append(_)", indent, target)
		fprintfln(b, "%s    i += 1", indent)
		fprintfln(b, "%s    if %s:", indent, pyRenderer().Render(a.RepeatExpr))
		fprintfln(b, "%s        break", indent)
	default:
		if a.SwitchOn != nil {
			writePythonSwitch(b, s, a, className, indent, target)
			break
		}
		writePythonSingle(b, s, a, className, indent, target)
	}
}

func writePythonSingle(b *strings.Builder, s *ksir.Spec, a *ksir.Attr, className, indent, target string) {
	if a.Process != nil && a.Process.Kind == ksir.ProcessXorConst {
		raw := "self._raw_" + identname.SnakeCase(a.ID)
		fprintfln(b, "%s%s = %s", indent, raw, pyPrimitiveRead(ksir.Bytes, s.DefaultEndian, pyRenderExprOrEmpty(a.SizeExpr), ""))
		fprintfln(b, "%s%s = KaitaiStream.process_xor_one(%s, %d)", indent, target, raw, a.Process.XorConst)
		return
	}
	fprintfln(b, "%s%s = %s", indent, target, pyReadExpr(s, a, className))
}

func pyReadExpr(s *ksir.Spec, a *ksir.Attr, className string) string {
	if a.Type.IsUser() {
		return fmt.Sprintf("%s(self._io, self, self._root)", pyNestedClassName(className, a.Type.UserType))
	}
	base := pyPrimitiveRead(a.Type.Primitive, s.DefaultEndian, pyRenderExprOrEmpty(a.SizeExpr), a.Encoding)
	if a.EnumName != "" {
		if ed, ok := s.FindEnum(a.EnumName); ok {
			return fmt.Sprintf("self.%s(%s)", identname.UpperCamel(ed.Name), base)
		}
	}
	return base
}

func pyPrimitiveRead(p ksir.Primitive, endian ksir.Endian, sizeExpr, encoding string) string {
	switch p {
	case ksir.Bytes:
		if sizeExpr != "" {
			return fmt.Sprintf("self._io.read_bytes(%s)", sizeExpr)
		}
		return "self._io.read_bytes_full()"
	case ksir.Str:
		enc := encoding
		if enc == "" {
			enc = "UTF-8"
		}
		bytesExpr := "self._io.read_bytes_full()"
		if sizeExpr != "" {
			bytesExpr = fmt.Sprintf("self._io.read_bytes(%s)", sizeExpr)
		}
		return fmt.Sprintf("(%s).decode(u\"%s\")", bytesExpr, enc)
	case ksir.U1, ksir.S1:
		return "self._io.read_" + string(p) + "()"
	default:
		suffix := "le"
		if endian == ksir.BigEndian {
			suffix = "be"
		}
		return "self._io.read_" + string(p) + suffix + "()"
	}
}

func writePythonSwitch(b *strings.Builder, s *ksir.Spec, a *ksir.Attr, className, indent, target string) {
	fprintfln(b, "%s_on = %s", indent, pyRenderer().Render(a.SwitchOn))
	first := true
	hasElse := false
	for _, c := range a.SwitchCases {
		if c.Match == nil {
			hasElse = true
			continue
		}
		kw := "if"
		if !first {
			kw = "elif"
		}
		first = false
		fprintfln(b, "%s%s _on == %s:", indent, kw, pyRenderer().Render(c.Match))
		fprintfln(b, "%s    %s = %s", indent, target, pySwitchCaseRead(s, a, c, className))
	}
	if hasElse {
		for _, c := range a.SwitchCases {
			if c.Match == nil {
				fprintfln(b, "%selse:", indent)
				fprintfln(b, "%s    %s = %s", indent, target, pySwitchCaseRead(s, a, c, className))
			}
		}
	} else {
		fprintfln(b, "%selse:", indent)
		fprintfln(b, "%s    raise Exception(\"switch-on has no matching case\")", indent)
	}
}

func pySwitchCaseRead(s *ksir.Spec, a *ksir.Attr, c ksir.SwitchCase, className string) string {
	if c.Type.IsUser() {
		return fmt.Sprintf("%s(self._io, self, self._root)", pyNestedClassName(className, c.Type.UserType))
	}
	return pyPrimitiveRead(c.Type.Primitive, s.DefaultEndian, pyRenderExprOrEmpty(a.SizeExpr), a.Encoding)
}

func writePythonValidation(b *strings.Builder, s *ksir.Spec, v *ksir.Validation, idx int, indent string) {
	if lit, ok := equalityToLiteral(v.ConditionExpr, v.Target); ok {
		fprintfln(b, "%sif not (self.%s == %d):", indent, identname.SnakeCase(v.Target), lit)
		fprintfln(b, "%s    raise kaitaistruct.ValidationNotEqualError(%d, self.%s, self._io, u\"/seq/%d\")", indent, lit, identname.SnakeCase(v.Target), idx)
		return
	}
	fprintfln(b, "%sif not (%s):", indent, pyRenderer().Render(v.ConditionExpr))
	fprintfln(b, "%s    raise kaitaistruct.ValidationExprError(self.%s, self._io, u\"/valid/%s\")", indent, identname.SnakeCase(v.Target), v.Target)
}

func writePythonInstance(b *strings.Builder, s *ksir.Spec, in *ksir.Instance, className, indent string) {
	fprintfln(b, "%s@property", indent)
	fprintfln(b, "%sdef %s(self):", indent, identname.SnakeCase(in.ID))
	inner := indent + "    "
	m := "self._m_" + identname.SnakeCase(in.ID)
	fprintfln(b, "%sif hasattr(self, '_m_%s'):", inner, identname.SnakeCase(in.ID))
	fprintfln(b, "%s    return %s", inner, m)

	if in.Kind == ksir.ValueInstance {
		fprintfln(b, "%s%s = %s", inner, m, pyRenderer().Render(in.ValueExpr))
	} else {
		fprintfln(b, "%s_pos = self._io.pos()", inner)
		if in.PosExpr != nil {
			fprintfln(b, "%sself._io.seek(%s)", inner, pyRenderer().Render(in.PosExpr))
		}
		if in.Type.IsUser() {
			fprintfln(b, "%s%s = %s(self._io, self, self._root)", inner, m, pyNestedClassName(className, in.Type.UserType))
		} else {
			fprintfln(b, "%s%s = %s", inner, m, pyPrimitiveRead(in.Type.Primitive, s.DefaultEndian, pyRenderExprOrEmpty(in.SizeExpr), in.Encoding))
		}
		fprintfln(b, "%sself._io.seek(_pos)", inner)
	}
	fprintfln(b, "%sreturn %s", inner, m)
	b.WriteString("\n")
}

func pyRenderExprOrEmpty(e ksexpr.Expr) string {
	if e == nil {
		return ""
	}
	return pyRenderer().Render(e)
}
