package ksrender

import "fmt"

// NewCpp builds the C++/STL17 expression renderer (§4.6): names resolve to
// an `id()` accessor call, the two special unary forms render as
// static_cast/member-access, and logical operators keep their symbolic
// C++ spelling.
func NewCpp() *Renderer {
	return &Renderer{
		Names: NameResolverFunc(func(name string) string {
			if name == "_" {
				return "_"
			}
			return name + "()"
		}),
		CastFmt: func(typeName, operand string) string {
			return fmt.Sprintf("static_cast<%s*>(%s)", typeName, operand)
		},
		AttrFmt: func(field, operand string) string {
			return fmt.Sprintf("%s->%s()", operand, field)
		},
	}
}
