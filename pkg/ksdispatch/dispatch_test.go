package ksdispatch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kaitaic/ksc/pkg/ksexpr"
	"github.com/kaitaic/ksc/pkg/ksir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalSpec() *ksir.Spec {
	return &ksir.Spec{
		Name:          "packet",
		DefaultEndian: ksir.LittleEndian,
		Attrs: []ksir.Attr{
			{ID: "magic", Type: ksir.PrimitiveRef(ksir.U4), Repeat: ksir.RepeatNone},
		},
	}
}

func TestEmitCppWritesHeaderAndSource(t *testing.T) {
	dir := t.TempDir()
	d := New()
	paths, err := d.Emit(minimalSpec(), CppSTL, Options{OutDir: dir})
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "packet.h"), paths[0])
	assert.Equal(t, filepath.Join(dir, "packet.cpp"), paths[1])

	for _, p := range paths {
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}
	content, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "class packet_t")
}

func TestEmitPythonWithPackagePath(t *testing.T) {
	dir := t.TempDir()
	d := New()
	paths, err := d.Emit(minimalSpec(), Python, Options{OutDir: dir, PythonPackage: "formats.wire"})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, filepath.Join(dir, "formats", "wire", "packet.py"), paths[0])
	_, err = os.Stat(paths[0])
	assert.NoError(t, err)
}

func TestEmitRubyLuaWiresharkPaths(t *testing.T) {
	dir := t.TempDir()
	d := New()

	rubyPaths, err := d.Emit(minimalSpec(), Ruby, Options{OutDir: dir})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "packet.rb")}, rubyPaths)

	luaPaths, err := d.Emit(minimalSpec(), Lua, Options{OutDir: dir})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "packet.lua")}, luaPaths)

	wsPaths, err := d.Emit(minimalSpec(), WiresharkLua, Options{OutDir: dir, WiresharkPort: 4242, WiresharkProtocol: "packet"})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "packet_wireshark.lua")}, wsPaths)
}

func TestEmitIsDeterministicAcrossRuns(t *testing.T) {
	dir1, dir2 := t.TempDir(), t.TempDir()
	d := New()

	p1, err := d.Emit(minimalSpec(), CppSTL, Options{OutDir: dir1})
	require.NoError(t, err)
	p2, err := d.Emit(minimalSpec(), CppSTL, Options{OutDir: dir2})
	require.NoError(t, err)

	for i := range p1 {
		c1, err := os.ReadFile(p1[i])
		require.NoError(t, err)
		c2, err := os.ReadFile(p2[i])
		require.NoError(t, err)
		assert.Equal(t, string(c1), string(c2))
	}
}

func TestEmitUnsupportedConstructPropagatesGateError(t *testing.T) {
	s := &ksir.Spec{
		Name:          "custom",
		DefaultEndian: ksir.LittleEndian,
		Types: []ksir.TypeDef{
			{Name: "header", NestedSpec: &ksir.Spec{Name: "header", DefaultEndian: ksir.LittleEndian}},
		},
		Attrs: []ksir.Attr{
			{
				ID:       "body",
				Type:     ksir.PrimitiveRef(ksir.U1),
				Repeat:   ksir.RepeatNone,
				SwitchOn: ksexpr.NewName("tag"),
				SwitchCases: []ksir.SwitchCase{
					{Match: ksexpr.NewInt(0), Type: ksir.PrimitiveRef(ksir.U1)},
					{Match: ksexpr.NewInt(1), Type: ksir.UserRef("header")},
				},
			},
		},
	}
	d := New()
	_, err := d.Emit(s, CppSTL, Options{OutDir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not yet supported")
}

func TestEmitCreatesMissingOutputDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does", "not", "exist", "yet")
	d := New()
	paths, err := d.Emit(minimalSpec(), Lua, Options{OutDir: dir})
	require.NoError(t, err)
	_, err = os.Stat(paths[0])
	assert.NoError(t, err)
}

func TestRenderLegacyDiagnosticForUnknownUserType(t *testing.T) {
	s := &ksir.Spec{
		Name:          "root",
		DefaultEndian: ksir.LittleEndian,
		Attrs: []ksir.Attr{
			{ID: "hdr", Type: ksir.UserRef("header"), Repeat: ksir.RepeatNone},
		},
	}
	err := ksir.Validate(s)
	require.Error(t, err)

	msg, ok := RenderLegacyDiagnostic(err, "root.ksy")
	require.True(t, ok)
	assert.Equal(t, "root.ksy: /seq/0/type:\n\terror: unable to find type 'header', searching from root", msg)
}

func TestRenderLegacyDiagnosticIgnoresOtherErrors(t *testing.T) {
	s := &ksir.Spec{
		Name:          "root",
		DefaultEndian: ksir.LittleEndian,
		Attrs: []ksir.Attr{
			{ID: "a", Type: ksir.PrimitiveRef(ksir.U1), Repeat: ksir.RepeatNone,
				SwitchOn: ksexpr.NewName("missing")},
		},
	}
	err := ksir.Validate(s)
	if err != nil {
		_, ok := RenderLegacyDiagnostic(err, "root.ksy")
		assert.False(t, ok)
	}

	_, ok := RenderLegacyDiagnostic(nil, "root.ksy")
	assert.False(t, ok)
}
