package ksir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadError distinguishes IR-loading failures (missing files, import
// cycles, symbol clashes) from structural ValidationErrors, matching the
// error-domain split described for the loader in §4.4/§7.
type LoadError struct {
	Message string
}

func (e *LoadError) Error() string { return e.Message }

func loadErr(format string, args ...any) *LoadError {
	return &LoadError{Message: fmt.Sprintf(format, args...)}
}

// LoadFromFile reads and validates a single KSIR1 file with no import
// resolution.
func LoadFromFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Deserialize(string(data))
}

// LoadFromFileWithImports resolves path's "imports" list (§3) by searching,
// for each import name, the directory containing the importing file first
// and then each of searchDirs in order, appending a ".ksir" extension if the
// import name has none. It performs a depth-first walk with cycle
// detection, merges every dependency's types and enums into the root Spec
// by name, rejects duplicate symbols across the transitive closure, and
// finally runs Validate on the merged result.
func LoadFromFileWithImports(path string, searchDirs []string) (*Spec, error) {
	l := &loader{
		searchDirs: searchDirs,
		visiting:   map[string]bool{},
		loaded:     map[string]*Spec{},
	}
	root, err := l.load(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(root); err != nil {
		return nil, err
	}
	return root, nil
}

type loader struct {
	searchDirs []string
	visiting   map[string]bool
	loaded     map[string]*Spec
	stack      []string
}

func (l *loader) load(path string) (*Spec, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, loadErr("%s: %v", path, err)
	}
	if l.visiting[abs] {
		return nil, loadErr("import cycle detected: %s", cycleChain(append(append([]string{}, l.stack...), abs)))
	}
	if s, ok := l.loaded[abs]; ok {
		return s, nil
	}

	l.visiting[abs] = true
	l.stack = append(l.stack, abs)
	defer func() {
		l.visiting[abs] = false
		l.stack = l.stack[:len(l.stack)-1]
	}()

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, loadErr("%s: %v", path, err)
	}
	s, err := parseKSIR1(string(data))
	if err != nil {
		return nil, loadErr("%s: %v", path, err)
	}

	symbols := map[string]bool{s.Name: true}
	for _, t := range s.Types {
		symbols[t.Name] = true
	}
	for _, e := range s.Enums {
		symbols[e.Name] = true
	}

	dir := filepath.Dir(abs)
	for _, imp := range s.Imports {
		depPath, err := l.resolveImport(dir, imp)
		if err != nil {
			return nil, err
		}
		dep, err := l.load(depPath)
		if err != nil {
			return nil, err
		}
		for _, t := range dep.Types {
			if symbols[t.Name] {
				return nil, loadErr("duplicate symbol across imports: type %q", t.Name)
			}
			symbols[t.Name] = true
			s.Types = append(s.Types, t)
		}
		for _, e := range dep.Enums {
			if symbols[e.Name] {
				return nil, loadErr("duplicate symbol across imports: enum %q", e.Name)
			}
			symbols[e.Name] = true
			s.Enums = append(s.Enums, e)
		}
	}

	l.loaded[abs] = s
	return s, nil
}

func (l *loader) resolveImport(fromDir, name string) (string, error) {
	candidateName := name
	if filepath.Ext(candidateName) == "" {
		candidateName += ".ksir"
	}
	dirs := append([]string{fromDir}, l.searchDirs...)
	for _, d := range dirs {
		p := filepath.Join(d, candidateName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", loadErr("import %q: not found in %v", name, dirs)
}

func cycleChain(chain []string) string {
	out := ""
	for i, p := range chain {
		if i > 0 {
			out += " -> "
		}
		base := filepath.Base(p)
		out += strings.TrimSuffix(base, filepath.Ext(base))
	}
	return out
}
