// Package script implements the Python, Ruby, Lua, and Wireshark-Lua
// emitters (§4.8): each renders a validated ksir.Spec into exactly one
// module file whose name and internal class name derive from the spec id.
//
// The four targets share almost everything — constructor shape, attr read
// order, repeat-kind loop mapping, lazy instance caching, validation
// lowering — and differ only in syntax spelling. Each target's writer
// (python.go, ruby.go, lua.go) walks the same ksir.Spec shape directly and
// spells it out in its own syntax; common.go holds the handful of helpers
// (equalityToLiteral, sortedNestedNames) shared verbatim across them.
package script

import (
	"fmt"

	"github.com/kaitaic/ksc/pkg/ksir"
)

// Target names a script backend.
type Target string

const (
	Python       Target = "python"
	Ruby         Target = "ruby"
	Lua          Target = "lua"
	WiresharkLua Target = "wireshark_lua"
)

// Options configures per-target naming.
type Options struct {
	// PythonPackage is the dotted package path of the generated module;
	// only meaningful for Target Python. The Python emitter does not read
	// it: the generated source is the same with or without a package.
	PythonPackage string
	// WiresharkPort is the placeholder TCP port the dissector stub
	// registers in Wireshark's tcp.port table, for Target WiresharkLua.
	WiresharkPort int
	// WiresharkProtocol is the placeholder Wireshark protocol name.
	WiresharkProtocol string
}

const runtimeAPIVersion = "0.11"

func bannerComment(prefix string) string {
	return prefix + " Code generated by ksc. DO NOT EDIT."
}

func unsupportedTarget(t Target) error {
	return fmt.Errorf("unknown script target %q", t)
}

// Emit dispatches to the requested target's emitter.
func Emit(s *ksir.Spec, target Target, opts Options) (string, error) {
	switch target {
	case Python:
		return emitPython(s, opts)
	case Ruby:
		return emitRuby(s, opts)
	case Lua:
		return emitLua(s, opts, false)
	case WiresharkLua:
		return emitLua(s, opts, true)
	default:
		return "", unsupportedTarget(target)
	}
}
