package script

import (
	"testing"

	"github.com/kaitaic/ksc/pkg/ksexpr"
	"github.com/kaitaic/ksc/pkg/ksir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitRubySimpleSpec(t *testing.T) {
	s := simpleScriptSpec()
	out, err := Emit(s, Ruby, Options{})
	require.NoError(t, err)

	assert.Contains(t, out, "class Packet < Kaitai::Struct::Struct")
	assert.Contains(t, out, "@magic = @_io.read_u4le")
	assert.Contains(t, out, "@body = @_io.read_bytes(@body_len)")
	assert.Contains(t, out, "raise Kaitai::Struct::ValidationNotEqualError.new(439041101, @magic, @_io, \"/seq/0\") unless @magic == 439041101")
	assert.Contains(t, out, "attr_reader :magic")
}

func TestEmitRubyUnsizedBytesReadsFull(t *testing.T) {
	s := &ksir.Spec{
		Name:          "tail",
		DefaultEndian: ksir.LittleEndian,
		Attrs: []ksir.Attr{
			{ID: "rest", Type: ksir.PrimitiveRef(ksir.Bytes), Repeat: ksir.RepeatNone},
		},
	}
	out, err := Emit(s, Ruby, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "@rest = @_io.read_bytes_full")
	assert.NotContains(t, out, "unknown-expr")
}

func TestEmitRubyRepeatKinds(t *testing.T) {
	s := &ksir.Spec{
		Name:          "list_of",
		DefaultEndian: ksir.LittleEndian,
		Attrs: []ksir.Attr{
			{ID: "eos_items", Type: ksir.PrimitiveRef(ksir.U1), Repeat: ksir.RepeatEOS},
			{ID: "n", Type: ksir.PrimitiveRef(ksir.U1), Repeat: ksir.RepeatNone},
			{ID: "expr_items", Type: ksir.PrimitiveRef(ksir.U1), Repeat: ksir.RepeatExpr, RepeatExpr: ksexpr.NewName("n")},
			{ID: "until_items", Type: ksir.PrimitiveRef(ksir.U1), Repeat: ksir.RepeatUntil,
				RepeatExpr: ksexpr.NewBinary(ksexpr.OpEq, ksexpr.NewName("_"), ksexpr.NewInt(0))},
		},
	}
	out, err := Emit(s, Ruby, Options{})
	require.NoError(t, err)

	assert.Contains(t, out, "while not @_io.eof?")
	assert.Contains(t, out, "(@n).times { |i|")
	assert.Contains(t, out, "end while not (_ == 0)")
}

func TestEmitRubySwitchAndEnum(t *testing.T) {
	s := &ksir.Spec{
		Name:          "container",
		DefaultEndian: ksir.LittleEndian,
		Enums: []ksir.EnumDef{
			{Name: "kind", Values: []ksir.EnumValue{{Value: 0, Name: "alpha"}, {Value: 1, Name: "beta"}}},
		},
		Attrs: []ksir.Attr{
			{ID: "tag", Type: ksir.PrimitiveRef(ksir.U1), Repeat: ksir.RepeatNone, EnumName: "kind"},
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
	out, err := Emit(s, Ruby, Options{})
	require.NoError(t, err)

	assert.Contains(t, out, "KIND = {")
	assert.Contains(t, out, "@tag = KIND[@_io.read_u1]")
	assert.Contains(t, out, "case _on")
	assert.Contains(t, out, "when 0")
	assert.Contains(t, out, "when 1")
	assert.Contains(t, out, "raise \"switch-on has no matching case\"")
}

func TestEmitRubyXorProcessAndInstances(t *testing.T) {
	s := &ksir.Spec{
		Name:          "obfuscated",
		DefaultEndian: ksir.LittleEndian,
		Attrs: []ksir.Attr{
			{ID: "payload", Type: ksir.PrimitiveRef(ksir.Bytes), Repeat: ksir.RepeatNone,
				SizeExpr: ksexpr.NewInt(4),
				Process:  &ksir.Process{Kind: ksir.ProcessXorConst, XorConst: 0x42}},
		},
		Instances: []ksir.Instance{
			{ID: "extra", Kind: ksir.ParseInstance, Type: ksir.PrimitiveRef(ksir.U1),
				PosExpr: ksexpr.NewInt(8)},
		},
	}
	out, err := Emit(s, Ruby, Options{})
	require.NoError(t, err)

	assert.Contains(t, out, "@_raw_payload = @_io.read_bytes(4)")
	assert.Contains(t, out, "@payload = Kaitai::Struct::Stream.process_xor_one(@_raw_payload, 66)")
	assert.Contains(t, out, "return @extra unless @extra.nil?")
	assert.Contains(t, out, "@_io.seek(8)")
}

func TestEmitRubyNestedType(t *testing.T) {
	nested := &ksir.Spec{
		Name:          "header",
		DefaultEndian: ksir.LittleEndian,
		Attrs:         []ksir.Attr{{ID: "version", Type: ksir.PrimitiveRef(ksir.U1), Repeat: ksir.RepeatNone}},
	}
	s := &ksir.Spec{
		Name:          "root",
		DefaultEndian: ksir.LittleEndian,
		Attrs:         []ksir.Attr{{ID: "hdr", Type: ksir.UserRef("header"), Repeat: ksir.RepeatNone}},
		Types:         []ksir.TypeDef{{Name: "header", NestedSpec: nested}},
	}
	out, err := Emit(s, Ruby, Options{})
	require.NoError(t, err)

	assert.Contains(t, out, "class Root < Kaitai::Struct::Struct")
	assert.Contains(t, out, "class Header < Kaitai::Struct::Struct")
	assert.Contains(t, out, "@hdr = Header.new(@_io, self, @_root)")
}
