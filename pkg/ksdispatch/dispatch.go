// Package ksdispatch implements the dispatcher (§4.9): given a validated
// ksir.Spec and a target name, it runs the supportability gate, invokes the
// matching emitter, and writes the resulting file(s) to an output
// directory using the target's fixed naming scheme.
//
// Grounded on the teacher's functional-options constructor style in
// pkg/kbin/kbin.go (NewParser(opts ...Option)), adapted from a caching
// binary-parsing facade into a stateless per-call code-generation facade;
// the *slog.Logger threading follows the same WithLogger(...) pattern.
package ksdispatch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kaitaic/ksc/pkg/ksemit/cpp"
	"github.com/kaitaic/ksc/pkg/ksemit/script"
	"github.com/kaitaic/ksc/pkg/ksgate"
	"github.com/kaitaic/ksc/pkg/ksir"
)

// Target re-exports ksgate.Target so callers only need to import this
// package to name a code-generation backend.
type Target = ksgate.Target

const (
	CppSTL       = ksgate.CppSTL
	Python       = ksgate.Python
	Ruby         = ksgate.Ruby
	Lua          = ksgate.Lua
	WiresharkLua = ksgate.WiresharkLua
)

// Options configures a single Emit call: the output directory plus every
// target-specific naming knob §6's CLI surface exposes.
type Options struct {
	OutDir string

	CppNamespace string

	PythonPackage string

	WiresharkPort     int
	WiresharkProtocol string

	// SourcePath is the path of the KSY/IR file the Spec was loaded from,
	// used only to re-render the legacy unknown-type diagnostic (§7).
	SourcePath string

	// ReadPos, NoAutoRead, KscExceptions, and KscJSONOutput mirror the
	// CLI switches of the same name. None of them currently change
	// emitted output; they are accepted and threaded through so a future
	// emitter change has somewhere to read them from, the same way
	// --verbose is accepted with no observable effect.
	ReadPos        bool
	NoAutoRead     bool
	KscExceptions  bool
	KscJSONOutput  bool
}

type options struct {
	logger *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*options)

// WithLogger sets a custom logger; the default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func defaultOptions() options {
	return options{logger: slog.Default()}
}

// Dispatcher emits generated source files for a validated Spec.
type Dispatcher struct {
	logger *slog.Logger
}

// New constructs a Dispatcher.
func New(opts ...Option) *Dispatcher {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Dispatcher{logger: o.logger}
}

// EmitError wraps a failure from one of the three domains §7 names:
// supportability, emission, or I/O. Structural IR errors surface as-is
// from ksir.Validate and are not wrapped here.
type EmitError struct {
	Stage   string // "supportability", "emission", "io"
	Message string
}

func (e *EmitError) Error() string { return e.Message }

func emitErr(stage, format string, args ...any) *EmitError {
	return &EmitError{Stage: stage, Message: fmt.Sprintf(format, args...)}
}

// Emit runs the supportability gate for target, renders s, and writes the
// resulting file(s) under opts.OutDir using the fixed per-target path
// scheme of §4.9. It returns the list of paths written, in write order.
func (d *Dispatcher) Emit(s *ksir.Spec, target Target, opts Options) ([]string, error) {
	d.logger.Debug("dispatch emit", "target", target, "spec", s.Name, "outdir", opts.OutDir)

	if err := ksgate.Check(s, target); err != nil {
		if _, ok := err.(*ksgate.UnsupportedError); ok {
			return nil, err
		}
		return nil, emitErr("supportability", "%s", err)
	}

	switch target {
	case CppSTL:
		return d.emitCpp(s, opts)
	case Python, Ruby, Lua, WiresharkLua:
		return d.emitScript(s, target, opts)
	default:
		return nil, emitErr("emission", "unknown target %q", target)
	}
}

func (d *Dispatcher) emitCpp(s *ksir.Spec, opts Options) ([]string, error) {
	res, err := cpp.Emit(s, cpp.Options{Namespace: opts.CppNamespace})
	if err != nil {
		return nil, emitErr("emission", "%s", err)
	}

	name := s.Name
	hPath := filepath.Join(opts.OutDir, name+".h")
	cppPath := filepath.Join(opts.OutDir, name+".cpp")

	if err := d.writeFile(hPath, res.Header); err != nil {
		return nil, err
	}
	if err := d.writeFile(cppPath, res.Source); err != nil {
		return nil, err
	}
	return []string{hPath, cppPath}, nil
}

func (d *Dispatcher) emitScript(s *ksir.Spec, target Target, opts Options) ([]string, error) {
	scriptTarget, ok := map[Target]script.Target{
		Python:       script.Python,
		Ruby:         script.Ruby,
		Lua:          script.Lua,
		WiresharkLua: script.WiresharkLua,
	}[target]
	if !ok {
		return nil, emitErr("emission", "unknown script target %q", target)
	}

	out, err := script.Emit(s, scriptTarget, script.Options{
		PythonPackage:     opts.PythonPackage,
		WiresharkPort:     opts.WiresharkPort,
		WiresharkProtocol: opts.WiresharkProtocol,
	})
	if err != nil {
		return nil, emitErr("emission", "%s", err)
	}

	path := filepath.Join(opts.OutDir, scriptOutputPath(s.Name, target, opts.PythonPackage))
	if err := d.writeFile(path, out); err != nil {
		return nil, err
	}
	return []string{path}, nil
}

// scriptOutputPath computes the relative output path for target, per
// §4.9's fixed naming scheme.
func scriptOutputPath(name string, target Target, pythonPackage string) string {
	switch target {
	case Python:
		if pythonPackage == "" {
			return name + ".py"
		}
		pkgPath := strings.ReplaceAll(pythonPackage, ".", string(filepath.Separator))
		return filepath.Join(pkgPath, name+".py")
	case Ruby:
		return name + ".rb"
	case Lua:
		return name + ".lua"
	case WiresharkLua:
		return name + "_wireshark.lua"
	default:
		return name
	}
}

func (d *Dispatcher) writeFile(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return emitErr("io", "failed to create output directory: %s", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return emitErr("io", "failed to open output file: %s", path)
	}
	d.logger.Debug("wrote output file", "path", path)
	return nil
}

var unknownUserTypeRe = regexp.MustCompile(`^unknown user type "(.+)"$`)

// RenderLegacyDiagnostic re-renders a ksir.ValidationError raised for an
// unknown user type in the legacy string format some frontends still
// match on, per §7:
//
//	<source_path>: /seq/0/type:
//		error: unable to find type '<T>', searching from <spec_name>
//
// The spec name is recovered from the error's own path (its leading
// "<spec_name>/..." segment), so callers don't need a validated Spec in
// hand — the common case, since this fires on load failure. It returns
// ("", false) for any error that isn't that specific case.
func RenderLegacyDiagnostic(err error, sourcePath string) (string, bool) {
	ve, ok := err.(*ksir.ValidationError)
	if !ok {
		return "", false
	}
	m := unknownUserTypeRe.FindStringSubmatch(ve.Message)
	if m == nil {
		return "", false
	}
	specName, suffix, found := strings.Cut(ve.Path, "/")
	if !found {
		return "", false
	}
	return fmt.Sprintf("%s: /%s/type:\n\terror: unable to find type '%s', searching from %s",
		sourcePath, suffix, m[1], specName), true
}
