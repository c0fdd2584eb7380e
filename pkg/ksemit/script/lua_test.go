package script

import (
	"testing"

	"github.com/kaitaic/ksc/pkg/ksexpr"
	"github.com/kaitaic/ksc/pkg/ksir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitLuaSimpleSpec(t *testing.T) {
	s := simpleScriptSpec()
	out, err := Emit(s, Lua, Options{})
	require.NoError(t, err)

	assert.Contains(t, out, "local Packet = class.class(KaitaiStruct)")
	assert.Contains(t, out, "function Packet:_init(io, parent, root)")
	assert.Contains(t, out, "self.magic = self._io:read_u4le()")
	assert.Contains(t, out, "self.body = self._io:read_bytes(self.body_len)")
	assert.Contains(t, out, "error(\"validation failed: not equal, expected 439041101, seq index 0\")")
	assert.Contains(t, out, "return Packet")
}

func TestEmitLuaUnsizedBytesReadsFull(t *testing.T) {
	s := &ksir.Spec{
		Name:          "tail",
		DefaultEndian: ksir.LittleEndian,
		Attrs: []ksir.Attr{
			{ID: "rest", Type: ksir.PrimitiveRef(ksir.Bytes), Repeat: ksir.RepeatNone},
		},
	}
	out, err := Emit(s, Lua, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "self.rest = self._io:read_bytes_full()")
	assert.NotContains(t, out, "unknown-expr")
}

func TestEmitLuaRepeatKinds(t *testing.T) {
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
	out, err := Emit(s, Lua, Options{})
	require.NoError(t, err)

	assert.Contains(t, out, "while not self._io:is_eof() do")
	assert.Contains(t, out, "for i = 1, self.n do")
	assert.Contains(t, out, "repeat")
	assert.Contains(t, out, "until _ == 0")
}

func TestEmitLuaSwitchAndEnum(t *testing.T) {
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
	out, err := Emit(s, Lua, Options{})
	require.NoError(t, err)

	assert.Contains(t, out, "Container.kind = {")
	assert.Contains(t, out, "self.tag = self.kind[self._io:read_u1()]")
	assert.Contains(t, out, "if _on == 0 then")
	assert.Contains(t, out, "elseif _on == 1 then")
	assert.Contains(t, out, "error(\"switch-on has no matching case\")")
}

func TestEmitLuaXorProcessAndValueInstance(t *testing.T) {
	s := &ksir.Spec{
		Name:          "obfuscated",
		DefaultEndian: ksir.LittleEndian,
		Attrs: []ksir.Attr{
			{ID: "payload", Type: ksir.PrimitiveRef(ksir.Bytes), Repeat: ksir.RepeatNone,
				SizeExpr: ksexpr.NewInt(4),
				Process:  &ksir.Process{Kind: ksir.ProcessXorConst, XorConst: 0x42}},
		},
		Instances: []ksir.Instance{
			{ID: "doubled", Kind: ksir.ValueInstance,
				ValueExpr: ksexpr.NewBinary(ksexpr.OpMul, ksexpr.NewInt(2), ksexpr.NewInt(2))},
			{ID: "extra", Kind: ksir.ParseInstance, Type: ksir.PrimitiveRef(ksir.U1),
				PosExpr: ksexpr.NewInt(8)},
		},
	}
	out, err := Emit(s, Lua, Options{})
	require.NoError(t, err)

	assert.Contains(t, out, "self._raw_payload = self._io:read_bytes(4)")
	assert.Contains(t, out, "self.payload = KaitaiStruct.process_xor_one(self._raw_payload, 66)")
	assert.Contains(t, out, "property(Obfuscated, \"extra\")")
	assert.NotContains(t, out, "property(Obfuscated, \"doubled\")")
	assert.Contains(t, out, "if self._m_doubled ~= nil then")
	assert.Contains(t, out, "self._io:seek(8)")
}

func TestEmitLuaNestedTypeFlattening(t *testing.T) {
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
	out, err := Emit(s, Lua, Options{})
	require.NoError(t, err)

	assert.Contains(t, out, "local Root = class.class(KaitaiStruct)")
	assert.Contains(t, out, "local RootHeader = class.class(KaitaiStruct)")
	assert.Contains(t, out, "self.hdr = RootHeader(self._io, self, self._root)")
}

func TestEmitWiresharkLuaDissectorStub(t *testing.T) {
	s := simpleScriptSpec()
	out, err := Emit(s, WiresharkLua, Options{WiresharkPort: 4242, WiresharkProtocol: "packet"})
	require.NoError(t, err)

	assert.Contains(t, out, "local packet_proto = Proto(\"packet\", \"Packet\")")
	assert.Contains(t, out, "function packet_proto.dissector(buffer, pinfo, tree)")
	assert.Contains(t, out, "local ok, parsed = pcall(function()")
	assert.Contains(t, out, "return Packet(stringstream.from_string(buffer():raw()))")
	assert.Contains(t, out, "tcp_port:add(4242, packet_proto)")
}
