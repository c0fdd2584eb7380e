package script

import (
	"fmt"
	"strings"

	"github.com/kaitaic/ksc/internal/identname"
	"github.com/kaitaic/ksc/pkg/ksexpr"
	"github.com/kaitaic/ksc/pkg/ksir"
	"github.com/kaitaic/ksc/pkg/ksrender"
)

func emitRuby(s *ksir.Spec, opts Options) (string, error) {
	var b strings.Builder
	fprintfln(&b, bannerComment("#"))
	b.WriteString("\n")
	fprintfln(&b, "require 'kaitai/struct/struct'")
	b.WriteString("\n")
	fprintfln(&b, "unless Gem::Version.new(Kaitai::Struct::VERSION) >= Gem::Version.new('%s')", runtimeAPIVersion)
	fprintfln(&b, "  raise \"Incompatible Kaitai Struct Ruby API: %s or later is required\"", runtimeAPIVersion)
	fprintfln(&b, "end")
	b.WriteString("\n")

	writeRubyClass(&b, s, identname.UpperCamel(s.Name), "", nil)
	return b.String(), nil
}

func rbRenderer() *ksrender.Renderer { return ksrender.NewRuby() }

// writeRubyClass renders class className and, inside its body, one nested
// class per nested scope. enclosingPath accumulates the names of the
// enclosing classes but is not used when spelling references: a reference
// to a nested type is emitted unqualified (`Header.new(...)`), not in a
// form qualified by the enclosing scopes.
func writeRubyClass(b *strings.Builder, s *ksir.Spec, className, indent string, enclosingPath []string) {
	fprintfln(b, "%sclass %s < Kaitai::Struct::Struct", indent, className)
	body := indent + "  "

	for _, en := range s.Enums {
		fprintfln(b, "%s%s = {", body, rubyEnumConstName(en.Name))
		for _, v := range en.Values {
			fprintfln(b, "%s  %d => :%s,", body, v.Value, identname.SnakeCase(v.Name))
		}
		fprintfln(b, "%s}", body)
		b.WriteString("\n")
	}

	fprintfln(b, "%sdef initialize(_io, _parent = nil, _root = self)", body)
	fprintfln(b, "%s  super(_io, _parent, _root)", body)
	fprintfln(b, "%s  _read", body)
	fprintfln(b, "%send", body)
	b.WriteString("\n")

	fprintfln(b, "%sdef _read", body)
	inner := body + "  "
	for i := range s.Attrs {
		writeRubyAttr(b, s, &s.Attrs[i], inner)
	}
	for idx, v := range s.Validations {
		writeRubyValidation(b, s, &v, idx, inner)
	}
	fprintfln(b, "%send", body)
	b.WriteString("\n")

	for i := range s.Instances {
		writeRubyInstance(b, s, &s.Instances[i], body)
	}

	for _, name := range sortedNestedNames(s) {
		td, _ := s.FindType(name)
		writeRubyClass(b, td.NestedSpec, identname.UpperCamel(name), body, append(enclosingPath, className))
	}

	for _, id := range attrIDs(s) {
		fprintfln(b, "%sattr_reader :%s", body, id)
	}

	fprintfln(b, "%send", indent)
	b.WriteString("\n")
}

func attrIDs(s *ksir.Spec) []string {
	ids := make([]string, 0, len(s.Attrs)+len(s.Instances))
	for _, a := range s.Attrs {
		ids = append(ids, identname.SnakeCase(a.ID))
	}
	return ids
}

func writeRubyAttr(b *strings.Builder, s *ksir.Spec, a *ksir.Attr, indent string) {
	if a.IfExpr != nil {
		fprintfln(b, "%sif %s", indent, rbRenderer().Render(a.IfExpr))
		indent += "  "
	}

	target := "@" + identname.SnakeCase(a.ID)

	switch a.Repeat {
	case ksir.RepeatEOS:
		fprintfln(b, "%s%s = []", indent, target)
		fprintfln(b, "%swhile not @_io.eof?", indent)
		fprintfln(b, "%s  %s << %s", indent, target, rbReadExpr(s, a))
		fprintfln(b, "%send", indent)
	case ksir.RepeatExpr:
		fprintfln(b, "%s%s = Array.new(%s)", indent, target, rbRenderer().Render(a.RepeatExpr))
		fprintfln(b, "%s(%s).times { |i|", indent, rbRenderer().Render(a.RepeatExpr))
		fprintfln(b, "%s  %s[i] = %s", indent, target, rbReadExpr(s, a))
		fprintfln(b, "%s}", indent)
	case ksir.RepeatUntil:
		fprintfln(b, "%s%s = []", indent, target)
		fprintfln(b, "%sbegin", indent)
		fprintfln(b, "%s  _ = %s", indent, rbReadExpr(s, a))
		fprintfln(b, "%s  %s << _", indent, target)
		fprintfln(b, "%send while not (%s)", indent, rbRenderer().Render(a.RepeatExpr))
	default:
		if a.SwitchOn != nil {
			writeRubySwitch(b, s, a, indent, target)
			break
		}
		writeRubySingle(b, s, a, indent, target)
	}

	if a.IfExpr != nil {
		fprintfln(b, "%send", indent[:len(indent)-2])
	}
}

func writeRubySingle(b *strings.Builder, s *ksir.Spec, a *ksir.Attr, indent, target string) {
	if a.Process != nil && a.Process.Kind == ksir.ProcessXorConst {
		raw := "@_raw_" + identname.SnakeCase(a.ID)
		fprintfln(b, "%s%s = %s", indent, raw, rbPrimitiveRead(ksir.Bytes, s.DefaultEndian, rbRenderExprOrEmpty(a.SizeExpr), ""))
		fprintfln(b, "%s%s = Kaitai::Struct::Stream.process_xor_one(%s, %d)", indent, target, raw, a.Process.XorConst)
		return
	}
	fprintfln(b, "%s%s = %s", indent, target, rbReadExpr(s, a))
}

// rbRenderExprOrEmpty renders e, or "" when e is nil — an unsized
// bytes/str attr has no SizeExpr and reads to EOF instead.
func rbRenderExprOrEmpty(e ksexpr.Expr) string {
	if e == nil {
		return ""
	}
	return rbRenderer().Render(e)
}

func rbReadExpr(s *ksir.Spec, a *ksir.Attr) string {
	if a.Type.IsUser() {
		return fmt.Sprintf("%s.new(@_io, self, @_root)", identname.UpperCamel(a.Type.UserType))
	}
	base := rbPrimitiveRead(a.Type.Primitive, s.DefaultEndian, rbRenderExprOrEmpty(a.SizeExpr), a.Encoding)
	if a.EnumName != "" {
		if ed, ok := s.FindEnum(a.EnumName); ok {
			return fmt.Sprintf("%s[%s]", rubyEnumConstName(ed.Name), base)
		}
	}
	return base
}

// rubyEnumConstName spells an enum as a Ruby constant so instance methods
// can reference it unqualified via lexical constant lookup; a lowercase
// name would bind a class-body local variable invisible to those methods.
func rubyEnumConstName(name string) string {
	return strings.ToUpper(identname.SnakeCase(name))
}

func rbPrimitiveRead(p ksir.Primitive, endian ksir.Endian, sizeExpr, encoding string) string {
	switch p {
	case ksir.Bytes:
		if sizeExpr != "" {
			return fmt.Sprintf("@_io.read_bytes(%s)", sizeExpr)
		}
		return "@_io.read_bytes_full"
	case ksir.Str:
		enc := encoding
		if enc == "" {
			enc = "UTF-8"
		}
		bytesExpr := "@_io.read_bytes_full"
		if sizeExpr != "" {
			bytesExpr = fmt.Sprintf("@_io.read_bytes(%s)", sizeExpr)
		}
		return fmt.Sprintf("(%s).force_encoding(\"%s\")", bytesExpr, enc)
	case ksir.U1, ksir.S1:
		return "@_io.read_" + string(p)
	default:
		suffix := "le"
		if endian == ksir.BigEndian {
			suffix = "be"
		}
		return "@_io.read_" + string(p) + suffix
	}
}

func writeRubySwitch(b *strings.Builder, s *ksir.Spec, a *ksir.Attr, indent, target string) {
	fprintfln(b, "%s_on = %s", indent, rbRenderer().Render(a.SwitchOn))
	fprintfln(b, "%scase _on", indent)
	hasElse := false
	for _, c := range a.SwitchCases {
		if c.Match == nil {
			hasElse = true
			continue
		}
		fprintfln(b, "%swhen %s", indent, rbRenderer().Render(c.Match))
		fprintfln(b, "%s  %s = %s", indent, target, rbSwitchCaseRead(s, a, c))
	}
	if hasElse {
		for _, c := range a.SwitchCases {
			if c.Match == nil {
				fprintfln(b, "%selse", indent)
				fprintfln(b, "%s  %s = %s", indent, target, rbSwitchCaseRead(s, a, c))
			}
		}
	} else {
		fprintfln(b, "%selse", indent)
		fprintfln(b, "%s  raise \"switch-on has no matching case\"", indent)
	}
	fprintfln(b, "%send", indent)
}

func rbSwitchCaseRead(s *ksir.Spec, a *ksir.Attr, c ksir.SwitchCase) string {
	if c.Type.IsUser() {
		return fmt.Sprintf("%s.new(@_io, self, @_root)", identname.UpperCamel(c.Type.UserType))
	}
	return rbPrimitiveRead(c.Type.Primitive, s.DefaultEndian, rbRenderExprOrEmpty(a.SizeExpr), a.Encoding)
}

func writeRubyValidation(b *strings.Builder, s *ksir.Spec, v *ksir.Validation, idx int, indent string) {
	if lit, ok := equalityToLiteral(v.ConditionExpr, v.Target); ok {
		fprintfln(b, "%sraise Kaitai::Struct::ValidationNotEqualError.new(%d, @%s, @_io, \"/seq/%d\") unless @%s == %d", indent, lit, identname.SnakeCase(v.Target), idx, identname.SnakeCase(v.Target), lit)
		return
	}
	fprintfln(b, "%sraise Kaitai::Struct::ValidationExprError.new(@%s, @_io, \"/valid/%s\") unless (%s)", indent, identname.SnakeCase(v.Target), v.Target, rbRenderer().Render(v.ConditionExpr))
}

func writeRubyInstance(b *strings.Builder, s *ksir.Spec, in *ksir.Instance, indent string) {
	fprintfln(b, "%sdef %s", indent, identname.SnakeCase(in.ID))
	inner := indent + "  "
	m := "@" + identname.SnakeCase(in.ID)
	fprintfln(b, "%sreturn %s unless %s.nil?", inner, m, m)

	if in.Kind == ksir.ValueInstance {
		fprintfln(b, "%s%s = %s", inner, m, rbRenderer().Render(in.ValueExpr))
	} else {
		fprintfln(b, "%s_pos = @_io.pos", inner)
		if in.PosExpr != nil {
			fprintfln(b, "%s@_io.seek(%s)", inner, rbRenderer().Render(in.PosExpr))
		}
		if in.Type.IsUser() {
			fprintfln(b, "%s%s = %s.new(@_io, self, @_root)", inner, m, identname.UpperCamel(in.Type.UserType))
		} else {
			sizeExpr := ""
			if in.SizeExpr != nil {
				sizeExpr = rbRenderer().Render(in.SizeExpr)
			}
			fprintfln(b, "%s%s = %s", inner, m, rbPrimitiveRead(in.Type.Primitive, s.DefaultEndian, sizeExpr, in.Encoding))
		}
		fprintfln(b, "%s@_io.seek(_pos)", inner)
	}
	fprintfln(b, "%s%s", inner, m)
	fprintfln(b, "%send", indent)
	b.WriteString("\n")
}
