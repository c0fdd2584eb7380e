package cpp

import (
	"strings"

	"github.com/kaitaic/ksc/internal/identname"
	"github.com/kaitaic/ksc/pkg/ksir"
)

// writeHeader renders the full `<name>.h` contents, in the order §4.7's
// Header/source ordering paragraph specifies.
func (e *emitter) writeHeader(b *strings.Builder, root *classInfo) {
	fprintfln(b, "#pragma once")
	b.WriteString("\n")
	fprintfln(b, bannerLine())
	b.WriteString("\n")
	fprintfln(b, "class %s;", root.Name)
	b.WriteString("\n")

	fprintfln(b, "#include <kaitai/kaitaistruct.h>")
	fprintfln(b, "#include <kaitai/exceptions.h>")
	fprintfln(b, "#include <stdint.h>")
	fprintfln(b, "#include <memory>")
	if e.needsVector(root.Spec) {
		fprintfln(b, "#include <vector>")
	}
	if e.needsSet(root.Spec) {
		fprintfln(b, "#include <set>")
	}
	for _, imp := range e.imports {
		fprintfln(b, "#include %q", imp+".h")
	}
	b.WriteString("\n")

	fprintfln(b, "#if KAITAI_STRUCT_VERSION < 11000L")
	fprintfln(b, "#error \"Incompatible Kaitai Struct C++/STL API: version 0.11 or later is required\"")
	fprintfln(b, "#endif")
	b.WriteString("\n")

	if e.opts.Namespace != "" {
		fprintfln(b, "namespace %s {", e.opts.Namespace)
	}

	e.writeEnums(b, root.Spec)

	e.writeClassDecl(b, root, true)

	if e.opts.Namespace != "" {
		fprintfln(b, "}")
	}
}

func (e *emitter) needsVector(s *ksir.Spec) bool {
	for i := range s.Attrs {
		if s.Attrs[i].Repeat != ksir.RepeatNone {
			return true
		}
	}
	for i := range s.Types {
		if s.Types[i].IsNested() && e.needsVector(s.Types[i].NestedSpec) {
			return true
		}
	}
	return false
}

func (e *emitter) needsSet(s *ksir.Spec) bool {
	return len(s.Enums) > 0
}

func (e *emitter) writeEnums(b *strings.Builder, s *ksir.Spec) {
	for _, en := range s.Enums {
		fprintfln(b, "enum class %s {", enumClassName(en.Name))
		for _, v := range en.Values {
			fprintfln(b, "    %s = %d,", identname.SnakeCase(v.Name), v.Value)
		}
		fprintfln(b, "};")
		fprintfln(b, "")
		fprintfln(b, "inline bool %s_is_defined(%s v) {", enumClassName(en.Name), enumClassName(en.Name))
		fprintfln(b, "    static const std::set<%s> known = {", enumClassName(en.Name))
		for _, v := range en.Values {
			fprintfln(b, "        %s::%s,", enumClassName(en.Name), identname.SnakeCase(v.Name))
		}
		fprintfln(b, "    };")
		fprintfln(b, "    return known.count(v) > 0;")
		fprintfln(b, "}")
		b.WriteString("\n")
	}
	for i := range s.Types {
		if s.Types[i].IsNested() {
			e.writeEnums(b, s.Types[i].NestedSpec)
		}
	}
}

func (e *emitter) writeClassDecl(b *strings.Builder, ci *classInfo, isRoot bool) {
	fprintfln(b, "class %s : public kaitai::kstruct {", ci.Name)
	fprintfln(b, " public:")
	for _, n := range ci.Nested {
		fprintfln(b, "    class %s;", n.Name)
	}
	b.WriteString("\n")

	if isRoot {
		fprintfln(b, "    %s(kaitai::kstream* p_io, kaitai::kstruct* p_parent = nullptr, %s* p_root = nullptr);", ci.Name, ci.Name)
	} else {
		fprintfln(b, "    %s(kaitai::kstream* p_io, kaitai::kstruct* p_parent, %s* p_root);", ci.Name, e.rootClassName())
	}
	fprintfln(b, "    ~%s();", ci.Name)
	b.WriteString("\n")

	for i := range ci.Spec.Attrs {
		e.writeAttrAccessorDecl(b, &ci.Spec.Attrs[i])
	}
	for i := range ci.Spec.Instances {
		e.writeInstanceAccessorDecl(b, ci, &ci.Spec.Instances[i])
	}
	b.WriteString("\n")
	fprintfln(b, "    kaitai::kstream* _io() const { return m__io; }")
	fprintfln(b, "    kaitai::kstruct* _parent() const { return m__parent; }")
	fprintfln(b, "    %s* _root() const { return m__root; }", e.rootClassName())
	b.WriteString("\n")

	fprintfln(b, " private:")
	fprintfln(b, "    void _read();")
	fprintfln(b, "    void _clean_up();")
	b.WriteString("\n")

	for i := range ci.Spec.Attrs {
		e.writeAttrField(b, &ci.Spec.Attrs[i])
	}
	for i := range ci.Spec.Instances {
		e.writeInstanceField(b, ci, &ci.Spec.Instances[i])
	}
	b.WriteString("\n")
	fprintfln(b, "    kaitai::kstream* m__io;")
	fprintfln(b, "    kaitai::kstruct* m__parent;")
	fprintfln(b, "    %s* m__root;", e.rootClassName())
	fprintfln(b, "};")
	b.WriteString("\n")

	for _, n := range ci.Nested {
		e.writeClassDecl(b, n, false)
	}
}

func (e *emitter) rootClassName() string {
	return className(e.root.Name)
}

func (e *emitter) writeAttrAccessorDecl(b *strings.Builder, a *ksir.Attr) {
	st := resolveStorage(a)
	fprintfln(b, "    %s %s() const;", accessorReturnType(st), accessorName(a.ID))
	if a.Process != nil && a.Process.Kind == ksir.ProcessXorConst {
		fprintfln(b, "    std::string %s() const;", rawAccessorName(a.ID))
	}
	if a.SwitchOn != nil && !hasElseCase(a.SwitchCases) {
		fprintfln(b, "    bool %s();", isNullAccessorName(a.ID))
	}
}

func (e *emitter) writeAttrField(b *strings.Builder, a *ksir.Attr) {
	st := resolveStorage(a)
	fprintfln(b, "    %s %s;", fieldType(st), memberField(a.ID))
	if a.Process != nil && a.Process.Kind == ksir.ProcessXorConst {
		fprintfln(b, "    std::string %s;", rawMemberField(a.ID))
	}
	if a.SwitchOn != nil && !hasElseCase(a.SwitchCases) {
		fprintfln(b, "    bool %s;", nullFlagField(a.ID))
	}
}

func (e *emitter) writeInstanceAccessorDecl(b *strings.Builder, ci *classInfo, in *ksir.Instance) {
	t := instanceCppType(in, ci.InstanceTypes)
	fprintfln(b, "    %s %s();", t, accessorName(in.ID))
}

func (e *emitter) writeInstanceField(b *strings.Builder, ci *classInfo, in *ksir.Instance) {
	t := instanceStorageType(in, ci.InstanceTypes)
	fprintfln(b, "    bool %s;", cachedFlagField(in.ID))
	fprintfln(b, "    %s %s;", t, memberField(in.ID))
}

// instanceStorageType and instanceCppType both spell an instance's type:
// a parse instance's declared type (a pointer to the class for a user
// type, else the primitive's storage type), or, for a value instance, the
// type exprResultType inferred for it (§4.1).
func instanceStorageType(in *ksir.Instance, instanceTypes map[string]exprType) string {
	if in.Kind == ksir.ValueInstance {
		return cppExprType(instanceTypes[in.ID])
	}
	if in.Type.IsUser() {
		return "std::unique_ptr<" + className(in.Type.UserType) + ">"
	}
	return primitiveCppType(in.Type.Primitive)
}

func instanceCppType(in *ksir.Instance, instanceTypes map[string]exprType) string {
	if in.Kind == ksir.ValueInstance {
		return cppExprType(instanceTypes[in.ID])
	}
	if in.Type.IsUser() {
		return className(in.Type.UserType) + "*"
	}
	return primitiveCppType(in.Type.Primitive)
}

func accessorReturnType(st AttrStorage) string {
	switch st.Kind {
	case StoreValue:
		return st.CppType
	case StoreString:
		return "std::string"
	case StoreUniquePtrUser:
		return st.CppType + "*"
	case StoreUniquePtrVectorUser:
		return "std::vector<std::unique_ptr<" + st.CppType + ">>*"
	case StoreUniquePtrVectorPrimitive:
		return "std::vector<" + st.CppType + ">*"
	default:
		return st.CppType
	}
}

func fieldType(st AttrStorage) string {
	switch st.Kind {
	case StoreValue:
		return st.CppType
	case StoreString:
		return "std::string"
	case StoreUniquePtrUser:
		return "std::unique_ptr<" + st.CppType + ">"
	case StoreUniquePtrVectorUser:
		return "std::unique_ptr<std::vector<std::unique_ptr<" + st.CppType + ">>>"
	case StoreUniquePtrVectorPrimitive:
		return "std::unique_ptr<std::vector<" + st.CppType + ">>"
	default:
		return st.CppType
	}
}

func hasElseCase(cases []ksir.SwitchCase) bool {
	for _, c := range cases {
		if c.Match == nil {
			return true
		}
	}
	return false
}
