package ksrender

// NewPython builds the Python expression renderer: names are prefixed with
// `self.`, logical operators render with the `and`/`or`/`not` spelling
// Python actually requires, and the two special unary forms render as a
// no-op pass-through cast and plain attribute access respectively.
func NewPython() *Renderer {
	return &Renderer{
		Names: NameResolverFunc(func(name string) string {
			if name == "_" {
				return "_"
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
