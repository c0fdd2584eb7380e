package script

import (
	"fmt"
	"strings"

	"github.com/kaitaic/ksc/internal/identname"
	"github.com/kaitaic/ksc/pkg/ksexpr"
	"github.com/kaitaic/ksc/pkg/ksir"
	"github.com/kaitaic/ksc/pkg/ksrender"
)

// luaNaming classifies attrs/parse-instances as properties and
// value-instances as methods, per §4.8's Lua/Wireshark-Lua specifics,
// reusing the classification contract ksrender.NewLua already defines.
type luaNaming struct {
	valueInstances map[string]bool
}

func newLuaNaming(s *ksir.Spec) *luaNaming {
	n := &luaNaming{valueInstances: map[string]bool{}}
	for _, in := range s.Instances {
		if in.Kind == ksir.ValueInstance {
			n.valueInstances[in.ID] = true
		}
	}
	return n
}

func (n *luaNaming) classify(name string) ksrender.LuaNameKind {
	if n.valueInstances[name] {
		return ksrender.LuaValueInstance
	}
	return ksrender.LuaAttrOrParseInstance
}

func luaRenderer(s *ksir.Spec) *ksrender.Renderer {
	return ksrender.NewLua(newLuaNaming(s).classify)
}

func emitLua(s *ksir.Spec, opts Options, wireshark bool) (string, error) {
	var b strings.Builder
	fprintfln(&b, bannerComment("--"))
	b.WriteString("\n")
	fprintfln(&b, "local class = require(\"class\")")
	fprintfln(&b, "local stringstream = require(\"string_stream\")")
	fprintfln(&b, "local KaitaiStruct = require(\"kaitaistruct\")")
	b.WriteString("\n")
	fprintfln(&b, "if KAITAI_STRUCT_VERSION == nil or KAITAI_STRUCT_VERSION < %s then", luaVersionLiteral())
	fprintfln(&b, "  error(\"Incompatible Kaitai Struct Lua API: %s or later is required\")", runtimeAPIVersion)
	fprintfln(&b, "end")
	b.WriteString("\n")

	className := identname.UpperCamel(s.Name)
	writeLuaClass(&b, s, className, "")

	if wireshark {
		writeWiresharkDissector(&b, s, className, opts)
	}

	fprintfln(&b, "return %s", className)
	return b.String(), nil
}

func luaVersionLiteral() string {
	return "0.11"
}

func writeLuaClass(b *strings.Builder, s *ksir.Spec, className, indent string) {
	fprintfln(b, "%slocal %s = class.class(KaitaiStruct)", indent, className)
	b.WriteString("\n")

	for _, en := range s.Enums {
		fprintfln(b, "%s%s.%s = {", indent, className, identname.SnakeCase(en.Name))
		for _, v := range en.Values {
			fprintfln(b, "%s  [%d] = \"%s\",", indent, v.Value, identname.SnakeCase(v.Name))
		}
		fprintfln(b, "%s}", indent)
		b.WriteString("\n")
	}

	fprintfln(b, "%sfunction %s:_init(io, parent, root)", indent, className)
	fprintfln(b, "%s  KaitaiStruct._init(self, io)", indent)
	fprintfln(b, "%s  self._parent = parent", indent)
	fprintfln(b, "%s  self._root = root or self", indent)
	fprintfln(b, "%s  self:_read()", indent)
	fprintfln(b, "%send", indent)
	b.WriteString("\n")

	fprintfln(b, "%sfunction %s:_read()", indent, className)
	inner := indent + "  "
	for i := range s.Attrs {
		writeLuaAttr(b, s, &s.Attrs[i], className, inner)
	}
	for idx, v := range s.Validations {
		writeLuaValidation(b, s, &v, idx, inner)
	}
	fprintfln(b, "%send", indent)
	b.WriteString("\n")

	for i := range s.Instances {
		writeLuaInstance(b, s, &s.Instances[i], className, indent)
	}

	for _, name := range sortedNestedNames(s) {
		td, _ := s.FindType(name)
		nestedName := className + identname.UpperCamel(name)
		writeLuaClass(b, td.NestedSpec, nestedName, indent)
	}
}

// luaNestedClassName returns the flattened class name a local type name
// resolves to, matching the compound naming writeLuaClass gives it since
// Lua has no native nested-class syntax.
func luaNestedClassName(className, typeName string) string {
	return className + identname.UpperCamel(typeName)
}

func writeLuaAttr(b *strings.Builder, s *ksir.Spec, a *ksir.Attr, className, indent string) {
	if a.IfExpr != nil {
		fprintfln(b, "%sif %s then", indent, luaRenderer(s).Render(a.IfExpr))
		indent += "  "
	}

	target := "self." + identname.SnakeCase(a.ID)

	switch a.Repeat {
	case ksir.RepeatEOS:
		fprintfln(b, "%s%s = {}", indent, target)
		fprintfln(b, "%swhile not self._io:is_eof() do", indent)
		fprintfln(b, "%s  table.insert(%s, %s)", indent, target, luaReadExpr(s, a, className))
		fprintfln(b, "%send", indent)
	case ksir.RepeatExpr:
		fprintfln(b, "%s%s = {}", indent, target)
		fprintfln(b, "%sfor i = 1, %s do", indent, luaRenderer(s).Render(a.RepeatExpr))
		fprintfln(b, "%s  %s[i] = %s", indent, target, luaReadExpr(s, a, className))
		fprintfln(b, "%send", indent)
	case ksir.RepeatUntil:
		fprintfln(b, "%s%s = {}", indent, target)
		fprintfln(b, "%srepeat", indent)
		fprintfln(b, "%s  local _ = %s", indent, luaReadExpr(s, a, className))
		fprintfln(b, "%s  table.insert(%s, _)", indent, target)
		fprintfln(b, "%suntil %s", indent, luaRenderer(s).Render(a.RepeatExpr))
	default:
		if a.SwitchOn != nil {
			writeLuaSwitch(b, s, a, className, indent, target)
			break
		}
		writeLuaSingle(b, s, a, className, indent, target)
	}

	if a.IfExpr != nil {
		fprintfln(b, "%send", indent[:len(indent)-2])
	}
}

func writeLuaSingle(b *strings.Builder, s *ksir.Spec, a *ksir.Attr, className, indent, target string) {
	if a.Process != nil && a.Process.Kind == ksir.ProcessXorConst {
		raw := "self._raw_" + identname.SnakeCase(a.ID)
		fprintfln(b, "%s%s = %s", indent, raw, luaPrimitiveRead(ksir.Bytes, s.DefaultEndian, luaRenderExprOrEmpty(s, a.SizeExpr), ""))
		fprintfln(b, "%s%s = KaitaiStruct.process_xor_one(%s, %d)", indent, target, raw, a.Process.XorConst)
		return
	}
	fprintfln(b, "%s%s = %s", indent, target, luaReadExpr(s, a, className))
}

// luaRenderExprOrEmpty renders e, or "" when e is nil — an unsized
// bytes/str attr has no SizeExpr and reads to EOF instead.
func luaRenderExprOrEmpty(s *ksir.Spec, e ksexpr.Expr) string {
	if e == nil {
		return ""
	}
	return luaRenderer(s).Render(e)
}

func luaReadExpr(s *ksir.Spec, a *ksir.Attr, className string) string {
	if a.Type.IsUser() {
		return fmt.Sprintf("%s(self._io, self, self._root)", luaNestedClassName(className, a.Type.UserType))
	}
	base := luaPrimitiveRead(a.Type.Primitive, s.DefaultEndian, luaRenderExprOrEmpty(s, a.SizeExpr), a.Encoding)
	if a.EnumName != "" {
		if ed, ok := s.FindEnum(a.EnumName); ok {
			return fmt.Sprintf("self.%s[%s]", identname.SnakeCase(ed.Name), base)
		}
	}
	return base
}

func luaPrimitiveRead(p ksir.Primitive, endian ksir.Endian, sizeExpr, encoding string) string {
	switch p {
	case ksir.Bytes:
		if sizeExpr != "" {
			return fmt.Sprintf("self._io:read_bytes(%s)", sizeExpr)
		}
		return "self._io:read_bytes_full()"
	case ksir.Str:
		enc := encoding
		if enc == "" {
			enc = "UTF-8"
		}
		bytesExpr := "self._io:read_bytes_full()"
		if sizeExpr != "" {
			bytesExpr = fmt.Sprintf("self._io:read_bytes(%s)", sizeExpr)
		}
		return fmt.Sprintf("str_decode(%s, \"%s\")", bytesExpr, enc)
	case ksir.U1, ksir.S1:
		return "self._io:read_" + string(p) + "()"
	default:
		suffix := "le"
		if endian == ksir.BigEndian {
			suffix = "be"
		}
		return "self._io:read_" + string(p) + suffix + "()"
	}
}

func writeLuaSwitch(b *strings.Builder, s *ksir.Spec, a *ksir.Attr, className, indent, target string) {
	fprintfln(b, "%slocal _on = %s", indent, luaRenderer(s).Render(a.SwitchOn))
	first := true
	hasElse := false
	for _, c := range a.SwitchCases {
		if c.Match == nil {
			hasElse = true
			continue
		}
		kw := "if"
		if !first {
			kw = "elseif"
		}
		first = false
		fprintfln(b, "%s%s _on == %s then", indent, kw, luaRenderer(s).Render(c.Match))
		fprintfln(b, "%s  %s = %s", indent, target, luaSwitchCaseRead(s, a, c, className))
	}
	if hasElse {
		for _, c := range a.SwitchCases {
			if c.Match == nil {
				fprintfln(b, "%selse", indent)
				fprintfln(b, "%s  %s = %s", indent, target, luaSwitchCaseRead(s, a, c, className))
			}
		}
	} else {
		fprintfln(b, "%selse", indent)
		fprintfln(b, "%s  error(\"switch-on has no matching case\")", indent)
	}
	fprintfln(b, "%send", indent)
}

func luaSwitchCaseRead(s *ksir.Spec, a *ksir.Attr, c ksir.SwitchCase, className string) string {
	if c.Type.IsUser() {
		return fmt.Sprintf("%s(self._io, self, self._root)", luaNestedClassName(className, c.Type.UserType))
	}
	return luaPrimitiveRead(c.Type.Primitive, s.DefaultEndian, luaRenderExprOrEmpty(s, a.SizeExpr), a.Encoding)
}

func writeLuaValidation(b *strings.Builder, s *ksir.Spec, v *ksir.Validation, idx int, indent string) {
	if lit, ok := equalityToLiteral(v.ConditionExpr, v.Target); ok {
		fprintfln(b, "%sif not (self.%s == %d) then", indent, identname.SnakeCase(v.Target), lit)
		fprintfln(b, "%s  error(\"validation failed: not equal, expected %d, seq index %d\")", indent, lit, idx)
		fprintfln(b, "%send", indent)
		return
	}
	fprintfln(b, "%sif not (%s) then", indent, luaRenderer(s).Render(v.ConditionExpr))
	fprintfln(b, "%s  error(\"validation failed: /valid/%s\")", indent, v.Target)
	fprintfln(b, "%send", indent)
}

func writeLuaInstance(b *strings.Builder, s *ksir.Spec, in *ksir.Instance, className, indent string) {
	if in.Kind == ksir.ParseInstance {
		fprintfln(b, "%sproperty(%s, \"%s\")", indent, className, identname.SnakeCase(in.ID))
	}
	fprintfln(b, "%sfunction %s:%s()", indent, className, identname.SnakeCase(in.ID))
	inner := indent + "  "
	m := "self._m_" + identname.SnakeCase(in.ID)
	fprintfln(b, "%sif %s ~= nil then", inner, m)
	fprintfln(b, "%s  return %s", inner, m)
	fprintfln(b, "%send", inner)

	if in.Kind == ksir.ValueInstance {
		fprintfln(b, "%s%s = %s", inner, m, luaRenderer(s).Render(in.ValueExpr))
	} else {
		fprintfln(b, "%slocal pos = self._io:pos()", inner)
		if in.PosExpr != nil {
			fprintfln(b, "%sself._io:seek(%s)", inner, luaRenderer(s).Render(in.PosExpr))
		}
		if in.Type.IsUser() {
			fprintfln(b, "%s%s = %s(self._io, self, self._root)", inner, m, luaNestedClassName(className, in.Type.UserType))
		} else {
			sizeExpr := ""
			if in.SizeExpr != nil {
				sizeExpr = luaRenderer(s).Render(in.SizeExpr)
			}
			fprintfln(b, "%s%s = %s", inner, m, luaPrimitiveRead(in.Type.Primitive, s.DefaultEndian, sizeExpr, in.Encoding))
		}
		fprintfln(b, "%sself._io:seek(pos)", inner)
	}
	fprintfln(b, "%sreturn %s", inner, m)
	fprintfln(b, "%send", indent)
	b.WriteString("\n")
}

// writeWiresharkDissector appends the placeholder dissector stub §4.8's
// Wireshark variant requires, binding className's parser to a
// placeholder protocol name and port.
func writeWiresharkDissector(b *strings.Builder, s *ksir.Spec, className string, opts Options) {
	proto := opts.WiresharkProtocol
	if proto == "" {
		proto = identname.SnakeCase(s.Name)
	}
	port := opts.WiresharkPort
	if port == 0 {
		port = 65535
	}

	b.WriteString("\n")
	fprintfln(b, "local %s_proto = Proto(\"%s\", \"%s\")", proto, proto, className)
	b.WriteString("\n")
	fprintfln(b, "function %s_proto.dissector(buffer, pinfo, tree)", proto)
	fprintfln(b, "  pinfo.cols.protocol = \"%s\"", strings.ToUpper(proto))
	fprintfln(b, "  local subtree = tree:add(%s_proto, buffer(), \"%s Data\")", proto, className)
	fprintfln(b, "  local ok, parsed = pcall(function()")
	fprintfln(b, "    return %s(stringstream.from_string(buffer():raw()))", className)
	fprintfln(b, "  end)")
	fprintfln(b, "  if not ok then")
	fprintfln(b, "    subtree:add_expert_info(PI_MALFORMED, PI_ERROR, tostring(parsed))")
	fprintfln(b, "  end")
	fprintfln(b, "end")
	b.WriteString("\n")
	fprintfln(b, "local tcp_port = DissectorTable.get(\"tcp.port\")")
	fprintfln(b, "tcp_port:add(%d, %s_proto)", port, proto)
	b.WriteString("\n")
}
