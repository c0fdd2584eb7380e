package cpp

import "github.com/kaitaic/ksc/internal/identname"

// className spells a KSIR type name (root spec name or nested TypeDef
// name) as its generated C++ class identifier, e.g. "body" -> "body_t".
func className(name string) string {
	return identname.SnakeCase(name) + "_t"
}

// enumClassName spells a declared enum's name as its generated
// `enum class` identifier, e.g. "kind" -> "kind_e". The "_e" suffix keeps
// an enum from colliding with a type of the same base name, which
// className spells with "_t".
func enumClassName(name string) string {
	return identname.SnakeCase(name) + "_e"
}

// memberField is the private storage field name for attr/instance id.
func memberField(id string) string {
	return "m_" + identname.SnakeCase(id)
}

// rawMemberField is the pre-process shadow field for a process=xor_const
// attr.
func rawMemberField(id string) string {
	return "m__raw_" + identname.SnakeCase(id)
}

// nullFlagField is the nullable-branch bookkeeping field for a switch-on
// attr with no else-case.
func nullFlagField(id string) string {
	return "n_" + identname.SnakeCase(id)
}

// cachedFlagField is the lazy-instance-evaluated guard field.
func cachedFlagField(id string) string {
	return "f_" + identname.SnakeCase(id)
}

func accessorName(id string) string {
	return identname.SnakeCase(id)
}

func rawAccessorName(id string) string {
	return "_raw_" + identname.SnakeCase(id)
}

func isNullAccessorName(id string) string {
	return "_is_null_" + identname.SnakeCase(id)
}
