package cpp

import (
	"strings"

	"github.com/kaitaic/ksc/pkg/ksir"
)

// writeSource renders the full `<name>.cpp` contents, in the order
// §4.7's Header/source ordering paragraph specifies: constructor, _read,
// destructor, instance accessors, then nested-class bodies in
// lexicographic scope order.
func (e *emitter) writeSource(b *strings.Builder, root *classInfo) {
	fprintfln(b, bannerLine())
	fprintfln(b, "#include %q", e.root.Name+".h")
	b.WriteString("\n")

	root.walk(func(ci *classInfo) {
		e.writeClassBody(b, ci, ci == root)
	})
}

func (e *emitter) writeClassBody(b *strings.Builder, ci *classInfo, isRoot bool) {
	if isRoot {
		fprintfln(b, "%s::%s(kaitai::kstream* p_io, kaitai::kstruct* p_parent, %s* p_root) {", ci.Name, ci.Name, ci.Name)
	} else {
		fprintfln(b, "%s::%s(kaitai::kstream* p_io, kaitai::kstruct* p_parent, %s* p_root) {", ci.Name, ci.Name, e.rootClassName())
	}
	fprintfln(b, "    m__io = p_io;")
	fprintfln(b, "    m__parent = p_parent;")
	if isRoot {
		fprintfln(b, "    m__root = p_root == nullptr ? this : p_root;")
	} else {
		fprintfln(b, "    m__root = p_root;")
	}
	for i := range ci.Spec.Instances {
		fprintfln(b, "    %s = false;", cachedFlagField(ci.Spec.Instances[i].ID))
	}
	fprintfln(b, "    _read();")
	fprintfln(b, "}")
	b.WriteString("\n")

	fprintfln(b, "void %s::_read() {", ci.Name)
	writeReadBody(b, ci.Spec, ci)
	writeValidations(b, ci.Spec)
	fprintfln(b, "}")
	b.WriteString("\n")

	fprintfln(b, "%s::~%s() {", ci.Name, ci.Name)
	fprintfln(b, "    _clean_up();")
	fprintfln(b, "}")
	b.WriteString("\n")

	fprintfln(b, "void %s::_clean_up() {", ci.Name)
	fprintfln(b, "}")
	b.WriteString("\n")

	for i := range ci.Spec.Attrs {
		e.writeAttrAccessorBody(b, ci, &ci.Spec.Attrs[i])
	}
	for i := range ci.Spec.Instances {
		e.writeInstanceAccessorBody(b, ci, &ci.Spec.Instances[i])
	}
}

func (e *emitter) writeAttrAccessorBody(b *strings.Builder, ci *classInfo, a *ksir.Attr) {
	st := resolveStorage(a)
	fprintfln(b, "%s %s::%s() const {", accessorReturnType(st), ci.Name, accessorName(a.ID))
	switch st.Kind {
	case StoreValue, StoreString:
		fprintfln(b, "    return %s;", memberField(a.ID))
	default:
		fprintfln(b, "    return %s.get();", memberField(a.ID))
	}
	fprintfln(b, "}")
	b.WriteString("\n")

	if a.Process != nil && a.Process.Kind == ksir.ProcessXorConst {
		fprintfln(b, "std::string %s::%s() const {", ci.Name, rawAccessorName(a.ID))
		fprintfln(b, "    return %s;", rawMemberField(a.ID))
		fprintfln(b, "}")
		b.WriteString("\n")
	}

	if a.SwitchOn != nil && !hasElseCase(a.SwitchCases) {
		fprintfln(b, "bool %s::%s() {", ci.Name, isNullAccessorName(a.ID))
		fprintfln(b, "    %s();", accessorName(a.ID))
		fprintfln(b, "    return %s;", nullFlagField(a.ID))
		fprintfln(b, "}")
		b.WriteString("\n")
	}
}

func (e *emitter) writeInstanceAccessorBody(b *strings.Builder, ci *classInfo, in *ksir.Instance) {
	t := instanceCppType(in, ci.InstanceTypes)
	fprintfln(b, "%s %s::%s() {", t, ci.Name, accessorName(in.ID))
	fprintfln(b, "    if (%s) {", cachedFlagField(in.ID))
	if in.Kind == ksir.ValueInstance {
		fprintfln(b, "        return %s;", memberField(in.ID))
	} else if in.Type.IsUser() {
		fprintfln(b, "        return %s.get();", memberField(in.ID))
	} else {
		fprintfln(b, "        return %s;", memberField(in.ID))
	}
	fprintfln(b, "    }")
	fprintfln(b, "    %s = true;", cachedFlagField(in.ID))

	if in.Kind == ksir.ValueInstance {
		fprintfln(b, "    %s = %s;", memberField(in.ID), exprText(in.ValueExpr))
	} else {
		fprintfln(b, "    std::streampos _pos = m__io->pos();")
		if in.PosExpr != nil {
			fprintfln(b, "    m__io->seek(%s);", exprText(in.PosExpr))
		}
		if in.Type.IsUser() {
			fprintfln(b, "    %s = %s;", memberField(in.ID), newUserExpr(in.Type.UserType))
		} else {
			fprintfln(b, "    %s = %s;", memberField(in.ID), primitiveReadCall(in.Type.Primitive, resolveEndian(e.root.DefaultEndian, in.EndianOverride), exprText(in.SizeExpr), in.Encoding))
		}
		fprintfln(b, "    m__io->seek(_pos);")
	}

	if in.Kind == ksir.ValueInstance {
		fprintfln(b, "    return %s;", memberField(in.ID))
	} else if in.Type.IsUser() {
		fprintfln(b, "    return %s.get();", memberField(in.ID))
	} else {
		fprintfln(b, "    return %s;", memberField(in.ID))
	}
	fprintfln(b, "}")
	b.WriteString("\n")
}
