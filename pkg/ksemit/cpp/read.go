package cpp

import (
	"fmt"
	"strings"

	"github.com/kaitaic/ksc/pkg/ksexpr"
	"github.com/kaitaic/ksc/pkg/ksir"
	"github.com/kaitaic/ksc/pkg/ksrender"
)

// exprText renders e in C++ expression form using the shared cpp renderer
// (§4.6): plain names and value/parse instances alike spell as `id()`
// accessor calls, since every instance in C++ is exposed as a method.
func exprText(e ksexpr.Expr) string {
	if e == nil {
		return ""
	}
	return ksrender.NewCpp().Render(e)
}

// writeReadBody emits the ordered body of <Class>::_read(), one statement
// group per attr, per §4.7's Read procedure paragraph.
func writeReadBody(b *strings.Builder, s *ksir.Spec, ci *classInfo) {
	for i := range s.Attrs {
		writeAttrRead(b, s, &s.Attrs[i], i, ci)
	}
}

func writeAttrRead(b *strings.Builder, s *ksir.Spec, a *ksir.Attr, idx int, ci *classInfo) {
	indent := "    "
	if a.IfExpr != nil {
		fprintfln(b, "%sif (%s) {", indent, exprText(a.IfExpr))
		indent += "    "
	}

	switch a.Repeat {
	case ksir.RepeatEOS:
		fprintfln(b, "%s%s = std::unique_ptr<%s>(new %s());", indent, memberField(a.ID), vectorType(a), vectorType(a))
		fprintfln(b, "%swhile (!m__io->is_eof()) {", indent)
		writeSingleRead(b, s, a, indent+"    ", true)
		fprintfln(b, "%s}", indent)
	case ksir.RepeatExpr:
		fprintfln(b, "%sconst int l_%s = %s;", indent, accessorName(a.ID), exprText(a.RepeatExpr))
		fprintfln(b, "%s%s = std::unique_ptr<%s>(new %s());", indent, memberField(a.ID), vectorType(a), vectorType(a))
		fprintfln(b, "%s%s->reserve(l_%s);", indent, memberField(a.ID), accessorName(a.ID))
		fprintfln(b, "%sfor (int i = 0; i < l_%s; i++) {", indent, accessorName(a.ID))
		writeSingleRead(b, s, a, indent+"    ", true)
		fprintfln(b, "%s}", indent)
	case ksir.RepeatUntil:
		fprintfln(b, "%s%s = std::unique_ptr<%s>(new %s());", indent, memberField(a.ID), vectorType(a), vectorType(a))
		fprintfln(b, "%sdo {", indent)
		writeSingleReadBind(b, s, a, indent+"    ", true, "repeat_item")
		cond := repeatUntilCondRenderer().Render(a.RepeatExpr)
		fprintfln(b, "%s} while (!(%s));", indent, cond)
	default:
		writeSingleRead(b, s, a, indent, false)
	}

	if a.IfExpr != nil {
		fprintfln(b, "    }")
	}
}

// vectorType spells the storage element vector's value_type for the
// repeat-loop `new` expressions above.
func vectorType(a *ksir.Attr) string {
	st := resolveStorage(a)
	switch st.Kind {
	case StoreUniquePtrVectorUser:
		return "std::vector<std::unique_ptr<" + st.CppType + ">>"
	default:
		return "std::vector<" + st.CppType + ">"
	}
}

// writeSingleRead emits one element's worth of read logic. When inLoop is
// true, the read is appended to the storage vector rather than assigned
// directly to the scalar member.
func writeSingleRead(b *strings.Builder, s *ksir.Spec, a *ksir.Attr, indent string, inLoop bool) {
	writeSingleReadBind(b, s, a, indent, inLoop, "")
}

// writeSingleReadBind is writeSingleRead's general form: when bindAs is
// non-empty (repeat=until, so the terminating condition needs to see the
// value that was just read), the read is first bound to a named local and
// pushed via std::move rather than read directly into the target.
func writeSingleReadBind(b *strings.Builder, s *ksir.Spec, a *ksir.Attr, indent string, inLoop bool, bindAs string) {
	if a.SwitchOn != nil {
		writeSwitchRead(b, s, a, indent, inLoop)
		return
	}

	target := memberField(a.ID)
	valueExpr := readExprFor(s, a, memberField(a.ID))

	if a.Process != nil && a.Process.Kind == ksir.ProcessXorConst {
		raw := rawMemberField(a.ID)
		fprintfln(b, "%s%s = %s;", indent, raw, primitiveReadCall(ksir.Bytes, ksir.LittleEndian, exprText(a.SizeExpr), ""))
		fprintfln(b, "%sstd::string %s_processed = kaitai::kstream::process_xor_one(%s, %d);", indent, accessorName(a.ID), raw, a.Process.XorConst)
		valueExpr = accessorName(a.ID) + "_processed"
	}

	if bindAs != "" {
		fprintfln(b, "%sauto %s = %s;", indent, bindAs, valueExpr)
		if inLoop {
			fprintfln(b, "%s%s->push_back(std::move(%s));", indent, target, bindAs)
		} else {
			fprintfln(b, "%s%s = std::move(%s);", indent, target, bindAs)
		}
		return
	}

	if inLoop {
		fprintfln(b, "%s%s->push_back(%s);", indent, target, valueExpr)
		return
	}
	fprintfln(b, "%s%s = %s;", indent, target, valueExpr)
}

// repeatUntilCondRenderer is the C++ expression renderer used for a
// repeat=until terminating condition: "_" resolves to the repeat_item local
// bound by writeSingleReadBind rather than the literal "_" NewCpp otherwise
// leaves it as.
func repeatUntilCondRenderer() *ksrender.Renderer {
	r := ksrender.NewCpp()
	r.Names = ksrender.NameResolverFunc(func(name string) string {
		if name == "_" {
			return "repeat_item"
		}
		return name + "()"
	})
	return r
}

// readExprFor renders the right-hand side expression that produces one
// value for attr a: a primitive read, a string decode, or a nested/user
// type construction, with an enum static_cast wrapper when applicable.
func readExprFor(s *ksir.Spec, a *ksir.Attr, target string) string {
	if a.Type.IsUser() {
		return newUserExpr(a.Type.UserType)
	}
	base := primitiveReadCall(a.Type.Primitive, attrEndian(s.DefaultEndian, a), exprText(a.SizeExpr), a.Encoding)
	if a.EnumName != "" {
		ed, ok := s.FindEnum(a.EnumName)
		if ok {
			return fmt.Sprintf("static_cast<%s>(%s)", enumClassName(ed.Name), base)
		}
	}
	return base
}

func newUserExpr(typeName string) string {
	cls := className(typeName)
	return "std::unique_ptr<" + cls + ">(new " + cls + "(m__io, this, m__root))"
}

// writeSwitchRead emits either a native switch(...) or an immediately
// invoked lambda, per §4.7 point 3.
func writeSwitchRead(b *strings.Builder, s *ksir.Spec, a *ksir.Attr, indent string, inLoop bool) {
	nullable := true
	for _, c := range a.SwitchCases {
		if c.Match == nil {
			nullable = false
		}
	}

	if allIntLiteralCases(a.SwitchCases) {
		fprintfln(b, "%sswitch (%s) {", indent, exprText(a.SwitchOn))
		for _, c := range a.SwitchCases {
			writeSwitchCase(b, s, a, c, indent+"    ", inLoop, nullable, true)
		}
		if nullable {
			fprintfln(b, "%s    default:", indent)
			fprintfln(b, "%s        throw std::runtime_error(\"switch-on has no matching case\");", indent)
		}
		fprintfln(b, "%s}", indent)
		return
	}

	fprintfln(b, "%s([&]() {", indent)
	first := true
	for _, c := range a.SwitchCases {
		if c.Match == nil {
			continue
		}
		kw := "if"
		if !first {
			kw = "} else if"
		}
		first = false
		fprintfln(b, "%s    %s (%s == %s) {", indent, kw, exprText(a.SwitchOn), exprText(c.Match))
		writeSwitchCaseBody(b, s, a, c, indent+"        ", inLoop, nullable)
	}
	if !first {
		fprintfln(b, "%s    }", indent)
	}
	fprintfln(b, "%s})();", indent)
}

func writeSwitchCase(b *strings.Builder, s *ksir.Spec, a *ksir.Attr, c ksir.SwitchCase, indent string, inLoop, nullable, native bool) {
	if c.Match == nil {
		fprintfln(b, "%sdefault: {", indent)
	} else {
		fprintfln(b, "%scase %s: {", indent, exprText(c.Match))
	}
	writeSwitchCaseBody(b, s, a, c, indent+"    ", inLoop, nullable)
	fprintfln(b, "%s    break;", indent)
	fprintfln(b, "%s}", indent)
}

func writeSwitchCaseBody(b *strings.Builder, s *ksir.Spec, a *ksir.Attr, c ksir.SwitchCase, indent string, inLoop, nullable bool) {
	var valueExpr string
	if c.Type.IsUser() {
		valueExpr = newUserExpr(c.Type.UserType)
	} else {
		valueExpr = primitiveReadCall(c.Type.Primitive, attrEndian(s.DefaultEndian, a), exprText(a.SizeExpr), a.Encoding)
	}
	if inLoop {
		fprintfln(b, "%s%s->push_back(%s);", indent, memberField(a.ID), valueExpr)
	} else {
		fprintfln(b, "%s%s = %s;", indent, memberField(a.ID), valueExpr)
	}
	if nullable && c.Match != nil {
		fprintfln(b, "%s%s = false;", indent, nullFlagField(a.ID))
	}
}

func allIntLiteralCases(cases []ksir.SwitchCase) bool {
	for _, c := range cases {
		if c.Match == nil {
			continue
		}
		if _, ok := c.Match.(*ksexpr.Int); !ok {
			return false
		}
	}
	return true
}
