package ksir

import (
	"testing"

	"github.com/kaitaic/ksc/pkg/ksexpr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsDuplicateAttr(t *testing.T) {
	s := &Spec{
		Name:          "dup",
		DefaultEndian: LittleEndian,
		Attrs: []Attr{
			{ID: "a", Type: PrimitiveRef(U1), Repeat: RepeatNone},
			{ID: "a", Type: PrimitiveRef(U1), Repeat: RepeatNone},
		},
	}
	err := Validate(s)
	require.Error(t, err)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, `duplicate attr "a"`)
}

func TestValidateRejectsUnknownUserType(t *testing.T) {
	s := &Spec{
		Name:          "unknown_ref",
		DefaultEndian: LittleEndian,
		Attrs: []Attr{
			{ID: "x", Type: UserRef("does_not_exist"), Repeat: RepeatNone},
		},
	}
	err := Validate(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown user type "does_not_exist"`)
}

func TestValidateRejectsRepeatExprMismatch(t *testing.T) {
	s := &Spec{
		Name:          "bad_repeat",
		DefaultEndian: LittleEndian,
		Attrs: []Attr{
			{ID: "x", Type: PrimitiveRef(U1), Repeat: RepeatExpr},
		},
	}
	err := Validate(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repeat=expr requires repeat_expr")
}

func TestValidateRejectsEncodingOnNonString(t *testing.T) {
	s := &Spec{
		Name:          "bad_encoding",
		DefaultEndian: LittleEndian,
		Attrs: []Attr{
			{ID: "x", Type: PrimitiveRef(U1), Repeat: RepeatNone, Encoding: "UTF-8"},
		},
	}
	err := Validate(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "encoding requires effective primitive str")
}

func TestValidateRejectsSwitchWithoutCases(t *testing.T) {
	s := &Spec{
		Name:          "bad_switch",
		DefaultEndian: LittleEndian,
		Attrs: []Attr{
			{ID: "x", Type: PrimitiveRef(U1), Repeat: RepeatNone, SwitchOn: ksexpr.NewName("x")},
		},
	}
	err := Validate(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "switch_on and switch_cases must both be present or both absent")
}

func TestValidateRejectsTypeAliasCycle(t *testing.T) {
	s := &Spec{
		Name:          "cyclic",
		DefaultEndian: LittleEndian,
		Types: []TypeDef{
			{Name: "a", Type: UserRef("b")},
			{Name: "b", Type: UserRef("a")},
		},
	}
	err := Validate(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type alias cycle")
}

func TestValidateRejectsValidationOnUnknownTarget(t *testing.T) {
	s := &Spec{
		Name:          "bad_validation",
		DefaultEndian: LittleEndian,
		Attrs: []Attr{
			{ID: "x", Type: PrimitiveRef(U1), Repeat: RepeatNone},
		},
		Validations: []Validation{
			{Target: "y", ConditionExpr: ksexpr.NewBool(true), Message: "nope"},
		},
	}
	err := Validate(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `validation target "y" is not a declared attr or instance`)
}

func TestValidateAcceptsEnumOnIntegerAttr(t *testing.T) {
	s := &Spec{
		Name:          "enum_ok",
		DefaultEndian: LittleEndian,
		Enums: []EnumDef{
			{Name: "kind", Values: []EnumValue{{Value: 0, Name: "a"}}},
		},
		Attrs: []Attr{
			{ID: "x", Type: PrimitiveRef(U1), Repeat: RepeatNone, EnumName: "kind"},
		},
	}
	require.NoError(t, Validate(s))
}

func TestValidateRejectsEnumOnNonIntegerAttr(t *testing.T) {
	s := &Spec{
		Name:          "enum_bad",
		DefaultEndian: LittleEndian,
		Enums: []EnumDef{
			{Name: "kind", Values: []EnumValue{{Value: 0, Name: "a"}}},
		},
		Attrs: []Attr{
			{ID: "x", Type: PrimitiveRef(Str), Repeat: RepeatNone, EnumName: "kind", SizeExpr: ksexpr.NewInt(4)},
		},
	}
	err := Validate(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enum_name requires an integer-valued effective primitive")
}
