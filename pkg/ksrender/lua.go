package ksrender

// LuaNameKind classifies how a Lua renderer should spell a given name
// reference, per §4.6: plain attrs and parse-instances are properties
// (`self.<id>`), value-instances are lazily-evaluated methods
// (`self:<id>()`).
type LuaNameKind int

const (
	LuaAttrOrParseInstance LuaNameKind = iota
	LuaValueInstance
)

// NewLua builds the Lua/Wireshark-Lua expression renderer. classify is
// consulted for every non-"_" name to decide whether it renders as a
// property access or a method call.
func NewLua(classify func(name string) LuaNameKind) *Renderer {
	return &Renderer{
		Names: NameResolverFunc(func(name string) string {
			if name == "_" {
				return "_"
			}
			if classify(name) == LuaValueInstance {
				return "self:" + name + "()"
			}
			return "self." + name
		}),
		CastFmt: func(typeName, operand string) string {
			return operand
		},
		AttrFmt: func(field, operand string) string {
			return operand + "." + field
		},
		LogicalAnd: "and",
		LogicalOr:  "or",
		LogicalNot: "not",
	}
}
