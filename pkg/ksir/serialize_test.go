package ksir

import (
	"testing"

	"github.com/kaitaic/ksc/pkg/ksexpr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSpec() *Spec {
	return &Spec{
		Name:          "packet",
		DefaultEndian: LittleEndian,
		Attrs: []Attr{
			{ID: "magic", Type: PrimitiveRef(U4), Repeat: RepeatNone},
			{
				ID:         "body_len",
				Type:       PrimitiveRef(U2),
				IfExpr:     ksexpr.NewBool(true),
				Repeat:     RepeatNone,
				UserTypeArgs: nil,
			},
			{
				ID:     "body",
				Type:   PrimitiveRef(Bytes),
				SizeExpr: ksexpr.NewName("body_len"),
				Repeat: RepeatNone,
				Process: &Process{Kind: ProcessXorConst, XorConst: 0x42},
			},
		},
		Enums: []EnumDef{
			{Name: "kind", Values: []EnumValue{{Value: 0, Name: "ping"}, {Value: 1, Name: "pong"}}},
		},
		Instances: []Instance{
			{ID: "double_len", Kind: ValueInstance, ValueExpr: ksexpr.NewBinary(ksexpr.OpMul, ksexpr.NewName("body_len"), ksexpr.NewInt(2))},
		},
		Validations: []Validation{
			{Target: "magic", ConditionExpr: ksexpr.NewBinary(ksexpr.OpEq, ksexpr.NewName("magic"), ksexpr.NewInt(0x1234)), Message: "bad magic"},
		},
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	s := sampleSpec()
	text1, err := Serialize(s)
	require.NoError(t, err)

	s2, err := Deserialize(text1)
	require.NoError(t, err)

	text2, err := Serialize(s2)
	require.NoError(t, err)

	assert.Equal(t, text1, text2)
}

func TestSerializeNestedScope(t *testing.T) {
	nested := &Spec{
		Name:          "header",
		DefaultEndian: BigEndian,
		Attrs: []Attr{
			{ID: "version", Type: PrimitiveRef(U1), Repeat: RepeatNone},
		},
	}
	s := &Spec{
		Name:          "root",
		DefaultEndian: LittleEndian,
		Types: []TypeDef{
			{Name: "header", NestedSpec: nested},
		},
		Attrs: []Attr{
			{ID: "hdr", Type: UserRef("header"), Repeat: RepeatNone},
		},
	}
	text, err := Serialize(s)
	require.NoError(t, err)

	back, err := Deserialize(text)
	require.NoError(t, err)
	require.Len(t, back.Types, 1)
	require.True(t, back.Types[0].IsNested())
	assert.Equal(t, "header", back.Types[0].NestedSpec.Name)
	assert.Equal(t, BigEndian, back.Types[0].NestedSpec.DefaultEndian)

	text2, err := Serialize(back)
	require.NoError(t, err)
	assert.Equal(t, text, text2)
}

func TestSerializeSwitchOn(t *testing.T) {
	s := &Spec{
		Name:          "container",
		DefaultEndian: LittleEndian,
		Types: []TypeDef{
			{Name: "variant_a", Type: PrimitiveRef(U1)},
			{Name: "variant_b", Type: PrimitiveRef(U2)},
		},
		Attrs: []Attr{
			{ID: "tag", Type: PrimitiveRef(U1), Repeat: RepeatNone},
			{
				ID:       "body",
				Type:     UserRef("variant_a"),
				Repeat:   RepeatNone,
				SwitchOn: ksexpr.NewName("tag"),
				SwitchCases: []SwitchCase{
					{Match: ksexpr.NewInt(0), Type: UserRef("variant_a")},
					{Match: ksexpr.NewInt(1), Type: UserRef("variant_b")},
					{Match: nil, Type: UserRef("variant_a")},
				},
			},
		},
	}
	text, err := Serialize(s)
	require.NoError(t, err)
	back, err := Deserialize(text)
	require.NoError(t, err)
	require.Len(t, back.Attrs[1].SwitchCases, 3)
	assert.Nil(t, back.Attrs[1].SwitchCases[2].Match)

	text2, err := Serialize(back)
	require.NoError(t, err)
	assert.Equal(t, text, text2)
}
