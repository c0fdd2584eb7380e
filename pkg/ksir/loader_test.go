package ksir

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKSIR(t *testing.T, dir, name string, s *Spec) string {
	t.Helper()
	text, err := Serialize(s)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestLoadFromFileWithImportsMergesSymbols(t *testing.T) {
	dir := t.TempDir()

	shared := &Spec{
		Name:          "shared",
		DefaultEndian: LittleEndian,
		Types: []TypeDef{
			{Name: "header", Type: PrimitiveRef(U4)},
		},
	}
	writeKSIR(t, dir, "shared.ksir", shared)

	root := &Spec{
		Name:          "root",
		DefaultEndian: LittleEndian,
		Imports:       []string{"shared"},
		Attrs: []Attr{
			{ID: "hdr", Type: UserRef("header"), Repeat: RepeatNone},
		},
	}
	rootPath := writeKSIR(t, dir, "root.ksir", root)

	merged, err := LoadFromFileWithImports(rootPath, nil)
	require.NoError(t, err)
	assert.Equal(t, "root", merged.Name)
	_, ok := merged.FindType("header")
	assert.True(t, ok)
}

func TestLoadFromFileWithImportsDetectsCycle(t *testing.T) {
	dir := t.TempDir()

	a := &Spec{Name: "a", DefaultEndian: LittleEndian, Imports: []string{"b"}}
	b := &Spec{Name: "b", DefaultEndian: LittleEndian, Imports: []string{"a"}}
	writeKSIR(t, dir, "a.ksir", a)
	writeKSIR(t, dir, "b.ksir", b)

	_, err := LoadFromFileWithImports(filepath.Join(dir, "a.ksir"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "import cycle detected")
}

func TestLoadFromFileWithImportsRejectsDuplicateSymbol(t *testing.T) {
	dir := t.TempDir()

	dep := &Spec{
		Name:          "dep",
		DefaultEndian: LittleEndian,
		Types: []TypeDef{
			{Name: "widget", Type: PrimitiveRef(U1)},
		},
	}
	writeKSIR(t, dir, "dep.ksir", dep)

	root := &Spec{
		Name:          "root",
		DefaultEndian: LittleEndian,
		Imports:       []string{"dep"},
		Types: []TypeDef{
			{Name: "widget", Type: PrimitiveRef(U2)},
		},
	}
	rootPath := writeKSIR(t, dir, "root.ksir", root)

	_, err := LoadFromFileWithImports(rootPath, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate symbol across imports: type "widget"`)
}

func TestLoadFromFileWithImportsSearchDirs(t *testing.T) {
	rootDir := t.TempDir()
	libDir := t.TempDir()

	lib := &Spec{
		Name:          "lib",
		DefaultEndian: LittleEndian,
		Types: []TypeDef{
			{Name: "thing", Type: PrimitiveRef(U1)},
		},
	}
	writeKSIR(t, libDir, "lib.ksir", lib)

	root := &Spec{
		Name:          "root",
		DefaultEndian: LittleEndian,
		Imports:       []string{"lib"},
		Attrs: []Attr{
			{ID: "t", Type: UserRef("thing"), Repeat: RepeatNone},
		},
	}
	rootPath := writeKSIR(t, rootDir, "root.ksir", root)

	_, err := LoadFromFileWithImports(rootPath, nil)
	require.Error(t, err)

	merged, err := LoadFromFileWithImports(rootPath, []string{libDir})
	require.NoError(t, err)
	_, ok := merged.FindType("thing")
	assert.True(t, ok)
}
