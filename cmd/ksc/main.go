// Command ksc compiles a Kaitai Struct binary-format description into
// parsing code for one of several target languages (§6.1). It reads
// either a `.ksy` YAML description or, with --from-ir, a `.ksir` file
// directly, gates the resulting IR against the requested target's
// supportability rules, and writes the generated source into an output
// directory.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kaitaic/ksc/pkg/ksdispatch"
	"github.com/kaitaic/ksc/pkg/ksgate"
	"github.com/kaitaic/ksc/pkg/ksir"
	"github.com/kaitaic/ksc/pkg/ksyfront"
)

type cliFlags struct {
	target       string
	outDir       string
	importPath   string
	fromIR       string
	cppStandard  int
	cppNamespace string
	pythonPkg    string

	readPos       bool
	noAutoRead    bool
	debug         bool
	kscExceptions bool
	kscJSON       bool

	wsPort int
	wsProt string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr *os.File) int {
	fs := flag.NewFlagSet("ksc", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var f cliFlags
	fs.StringVar(&f.target, "target", "", "code generation target (cpp_stl, python, ruby, lua, wireshark_lua)")
	fs.StringVar(&f.target, "t", "", "shorthand for --target")
	fs.StringVar(&f.outDir, "outdir", ".", "output directory")
	fs.StringVar(&f.outDir, "d", ".", "shorthand for --outdir")
	fs.StringVar(&f.importPath, "import-path", "", "search paths for imports, separated by "+string(filepath.ListSeparator))
	fs.StringVar(&f.importPath, "I", "", "shorthand for --import-path")
	fs.StringVar(&f.fromIR, "from-ir", "", "read a .ksir file directly, bypassing the .ksy front end")
	fs.IntVar(&f.cppStandard, "cpp-standard", 17, "C++ standard (98, 11, or 17; only 17 is currently supported)")
	fs.StringVar(&f.cppNamespace, "cpp-namespace", "", "namespace to wrap generated C++ classes in")
	fs.StringVar(&f.pythonPkg, "python-package", "", "dotted package path for generated Python modules")
	fs.BoolVar(&f.readPos, "read-pos", false, "accepted; currently has no effect on emitted output")
	fs.BoolVar(&f.noAutoRead, "no-auto-read", false, "accepted; currently has no effect on emitted output")
	fs.BoolVar(&f.debug, "debug", false, "shorthand for --read-pos --no-auto-read")
	fs.BoolVar(&f.kscExceptions, "ksc-exceptions", false, "accepted; currently has no effect on emitted output")
	fs.BoolVar(&f.kscJSON, "ksc-json-output", false, "accepted; currently has no effect on emitted output")
	fs.Bool("verbose", false, "accepted; currently has no effect on emitted output")
	fs.IntVar(&f.wsPort, "wireshark-port", 0, "placeholder TCP port for the wireshark_lua dissector stub")
	fs.StringVar(&f.wsProt, "wireshark-protocol", "", "placeholder Wireshark protocol name; defaults to the spec id")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if f.debug {
		f.readPos = true
		f.noAutoRead = true
	}

	logger := slog.Default()

	spec, sourcePath, err := loadSpec(f, fs.Args())
	if err != nil {
		reportError(stderr, err, sourcePath)
		return 1
	}

	target := ksgate.Target(f.target)
	if !ksgate.ValidTarget(target) {
		fmt.Fprintf(stderr, "Error: unknown target %q\n", f.target)
		return 1
	}

	if target == ksgate.CppSTL && f.cppStandard != 17 {
		fmt.Fprintf(stderr, "Error: not yet supported: cpp-standard %d\n", f.cppStandard)
		return 1
	}

	wsProt := f.wsProt
	if wsProt == "" {
		wsProt = spec.Name
	}

	d := ksdispatch.New(ksdispatch.WithLogger(logger))
	paths, err := d.Emit(spec, target, ksdispatch.Options{
		OutDir:            f.outDir,
		CppNamespace:      f.cppNamespace,
		PythonPackage:     f.pythonPkg,
		WiresharkPort:     f.wsPort,
		WiresharkProtocol: wsProt,
		SourcePath:        sourcePath,
		ReadPos:           f.readPos,
		NoAutoRead:        f.noAutoRead,
		KscExceptions:     f.kscExceptions,
		KscJSONOutput:     f.kscJSON,
	})
	if err != nil {
		reportError(stderr, err, sourcePath)
		return 1
	}

	for _, p := range paths {
		logger.Debug("wrote", "path", p)
	}
	return 0
}

// loadSpec reads spec.md's two supported input shapes: --from-ir reads a
// .ksir file directly, otherwise the sole positional argument is treated
// as a .ksy file.
func loadSpec(f cliFlags, positional []string) (*ksir.Spec, string, error) {
	searchDirs := splitImportPath(f.importPath)

	if f.fromIR != "" {
		spec, err := ksir.LoadFromFileWithImports(f.fromIR, searchDirs)
		return spec, f.fromIR, err
	}

	if len(positional) != 1 {
		return nil, "", fmt.Errorf("expected exactly one .ksy input file, got %d", len(positional))
	}
	path := positional[0]
	spec, err := ksyfront.LoadFromFileWithImports(path, searchDirs)
	return spec, path, err
}

func splitImportPath(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, string(filepath.ListSeparator))
}

// reportError prints the failure to stderr with the "Error:" prefix §7
// requires, re-rendering the legacy unknown-user-type diagnostic when
// applicable.
func reportError(stderr *os.File, err error, sourcePath string) {
	if msg, ok := ksdispatch.RenderLegacyDiagnostic(err, sourcePath); ok {
		fmt.Fprintln(stderr, msg)
		return
	}
	fmt.Fprintf(stderr, "Error: %s\n", err)
}
