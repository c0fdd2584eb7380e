package ksgate

import (
	"testing"

	"github.com/kaitaic/ksc/pkg/ksexpr"
	"github.com/kaitaic/ksc/pkg/ksir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAcceptsSimpleSpec(t *testing.T) {
	s := &ksir.Spec{
		Name:          "ok",
		DefaultEndian: ksir.LittleEndian,
		Attrs: []ksir.Attr{
			{ID: "magic", Type: ksir.PrimitiveRef(ksir.U4), Repeat: ksir.RepeatNone},
		},
	}
	require.NoError(t, Check(s, CppSTL))
}

func TestCheckRejectsUnknownName(t *testing.T) {
	s := &ksir.Spec{
		Name:          "bad_name",
		DefaultEndian: ksir.LittleEndian,
		Attrs: []ksir.Attr{
			{ID: "a", Type: ksir.PrimitiveRef(ksir.U1), Repeat: ksir.RepeatNone, IfExpr: ksexpr.NewName("nope")},
		},
	}
	err := Check(s, Python)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not yet supported")
	assert.Contains(t, err.Error(), `expression name "nope"`)
}

func TestCheckAllowsUnderscoreInRepeatUntil(t *testing.T) {
	s := &ksir.Spec{
		Name:          "loop",
		DefaultEndian: ksir.LittleEndian,
		Attrs: []ksir.Attr{
			{
				ID:         "items",
				Type:       ksir.PrimitiveRef(ksir.U1),
				Repeat:     ksir.RepeatUntil,
				RepeatExpr: ksexpr.NewBinary(ksexpr.OpEq, ksexpr.NewName("_"), ksexpr.NewInt(0)),
			},
		},
	}
	require.NoError(t, Check(s, Ruby))
}

func TestCheckRejectsUnderscoreOutsideRepeatUntil(t *testing.T) {
	s := &ksir.Spec{
		Name:          "loop_bad",
		DefaultEndian: ksir.LittleEndian,
		Attrs: []ksir.Attr{
			{ID: "a", Type: ksir.PrimitiveRef(ksir.U1), Repeat: ksir.RepeatNone, IfExpr: ksexpr.NewName("_")},
		},
	}
	err := Check(s, Lua)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"_" used outside repeat=until context`)
}

func TestCheckRejectsMixedSwitchCaseTypes(t *testing.T) {
	s := &ksir.Spec{
		Name:          "mixed_switch",
		DefaultEndian: ksir.LittleEndian,
		Types: []ksir.TypeDef{
			{Name: "variant", Type: ksir.PrimitiveRef(ksir.U1)},
		},
		Attrs: []ksir.Attr{
			{ID: "tag", Type: ksir.PrimitiveRef(ksir.U1), Repeat: ksir.RepeatNone},
			{
				ID:       "body",
				Type:     ksir.PrimitiveRef(ksir.U1),
				Repeat:   ksir.RepeatNone,
				SwitchOn: ksexpr.NewName("tag"),
				SwitchCases: []ksir.SwitchCase{
					{Match: ksexpr.NewInt(0), Type: ksir.PrimitiveRef(ksir.U1)},
					{Match: ksexpr.NewInt(1), Type: ksir.UserRef("variant")},
				},
			},
		},
	}
	err := Check(s, WiresharkLua)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mixed user and primitive case types")
}

func TestCheckRejectsHeterogeneousPrimitiveSwitchOnCpp(t *testing.T) {
	s := &ksir.Spec{
		Name:          "hetero",
		DefaultEndian: ksir.LittleEndian,
		Attrs: []ksir.Attr{
			{ID: "tag", Type: ksir.PrimitiveRef(ksir.U1), Repeat: ksir.RepeatNone},
			{
				ID:       "body",
				Type:     ksir.PrimitiveRef(ksir.U1),
				Repeat:   ksir.RepeatNone,
				SwitchOn: ksexpr.NewName("tag"),
				SwitchCases: []ksir.SwitchCase{
					{Match: ksexpr.NewInt(0), Type: ksir.PrimitiveRef(ksir.U1)},
					{Match: ksexpr.NewInt(1), Type: ksir.PrimitiveRef(ksir.U2)},
				},
			},
		},
	}
	err := Check(s, CppSTL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "heterogeneous case primitives")
}

func TestCheckRejectsEncodingOnNonStr(t *testing.T) {
	s := &ksir.Spec{
		Name:          "bad_encoding",
		DefaultEndian: ksir.LittleEndian,
		Attrs: []ksir.Attr{
			{ID: "a", Type: ksir.PrimitiveRef(ksir.U1), Repeat: ksir.RepeatNone, Encoding: "UTF-8"},
		},
	}
	err := Check(s, Python)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoding on non-str type")
}

func TestCheckAcceptsRecognizedEncodings(t *testing.T) {
	for _, enc := range []string{"ASCII", "UTF-8", "utf-8", "UTF16LE", "shift_jis"} {
		s := &ksir.Spec{
			Name:          "greeting",
			DefaultEndian: ksir.LittleEndian,
			Attrs: []ksir.Attr{
				{ID: "name", Type: ksir.PrimitiveRef(ksir.Str), Repeat: ksir.RepeatNone,
					SizeExpr: ksexpr.NewInt(8), Encoding: enc},
			},
		}
		assert.NoError(t, Check(s, Python), "encoding %q should be recognized", enc)
	}
}

func TestCheckRejectsUnrecognizedEncoding(t *testing.T) {
	s := &ksir.Spec{
		Name:          "greeting",
		DefaultEndian: ksir.LittleEndian,
		Attrs: []ksir.Attr{
			{ID: "name", Type: ksir.PrimitiveRef(ksir.Str), Repeat: ksir.RepeatNone,
				SizeExpr: ksexpr.NewInt(8), Encoding: "made-up-charset"},
		},
	}
	err := Check(s, Python)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `encoding "made-up-charset" not recognized`)
}

func TestValidTarget(t *testing.T) {
	assert.True(t, ValidTarget(CppSTL))
	assert.False(t, ValidTarget(Target("nope")))
}
