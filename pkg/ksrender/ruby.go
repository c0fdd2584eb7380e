package ksrender

// NewRuby builds the Ruby expression renderer: names are prefixed with `@`,
// with a rebinding so that `_` inside a `repeat=until` condition reads as
// the local loop variable `_` rather than an instance variable.
func NewRuby() *Renderer {
	return &Renderer{
		Names: NameResolverFunc(func(name string) string {
			if name == "_" {
				return "_"
			}
			return "@" + name
		}),
		CastFmt: func(typeName, operand string) string {
			return operand
		},
		AttrFmt: func(field, operand string) string {
			return operand + "." + field
		},
		LogicalAnd: "&&",
		LogicalOr:  "||",
	}
}
