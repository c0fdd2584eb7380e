package ksyfront

import (
	"testing"

	"github.com/kaitaic/ksc/pkg/ksir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simpleYAML = `
meta:
  id: packet
  endian: le
seq:
  - id: magic
    type: u4
  - id: body_len
    type: u2
  - id: body
    type: bytes
    size: body_len
enums:
  kind:
    0: ping
    1: pong
instances:
  double_len:
    value: body_len * 2
`

func TestToSpecSimpleDocument(t *testing.T) {
	doc, err := ParseDocument([]byte(simpleYAML))
	require.NoError(t, err)

	s, err := ToSpec(doc)
	require.NoError(t, err)

	assert.Equal(t, "packet", s.Name)
	assert.Equal(t, ksir.LittleEndian, s.DefaultEndian)
	require.Len(t, s.Attrs, 3)
	assert.Equal(t, "magic", s.Attrs[0].ID)
	assert.Equal(t, ksir.PrimitiveRef(ksir.U4), s.Attrs[0].Type)
	assert.Equal(t, ksir.PrimitiveRef(ksir.Bytes), s.Attrs[2].Type)
	require.NotNil(t, s.Attrs[2].SizeExpr)
	assert.Equal(t, "body_len", s.Attrs[2].SizeExpr.String())

	require.Len(t, s.Enums, 1)
	assert.Equal(t, "kind", s.Enums[0].Name)
	require.Len(t, s.Enums[0].Values, 2)
	assert.Equal(t, "ping", s.Enums[0].Values[0].Name)

	require.Len(t, s.Instances, 1)
	assert.Equal(t, "double_len", s.Instances[0].ID)
	assert.Equal(t, ksir.ValueInstance, s.Instances[0].Kind)
}

const switchYAML = `
meta:
  id: container
seq:
  - id: tag
    type: u1
  - id: body
    type:
      switch-on: tag
      cases:
        0: variant_a
        1: variant_b
types:
  variant_a:
    seq:
      - id: v
        type: u1
  variant_b:
    seq:
      - id: v
        type: u2
`

func TestToSpecSwitchOn(t *testing.T) {
	doc, err := ParseDocument([]byte(switchYAML))
	require.NoError(t, err)

	s, err := ToSpec(doc)
	require.NoError(t, err)

	require.Len(t, s.Attrs, 2)
	body := s.Attrs[1]
	require.NotNil(t, body.SwitchOn)
	require.Len(t, body.SwitchCases, 2)
	assert.Equal(t, "variant_a", body.SwitchCases[0].Type.UserType)

	require.Len(t, s.Types, 2)
}

const nestedYAML = `
meta:
  id: root
seq:
  - id: hdr
    type: header
types:
  header:
    seq:
      - id: version
        type: u1
`

func TestToSpecNestedType(t *testing.T) {
	doc, err := ParseDocument([]byte(nestedYAML))
	require.NoError(t, err)

	s, err := ToSpec(doc)
	require.NoError(t, err)

	require.Len(t, s.Types, 1)
	assert.True(t, s.Types[0].IsNested())
	assert.Equal(t, "header", s.Types[0].NestedSpec.Name)
}

const validYAML = `
meta:
  id: validated
seq:
  - id: magic
    type: u4
    valid: 305419896
`

func TestToSpecValidLiteral(t *testing.T) {
	doc, err := ParseDocument([]byte(validYAML))
	require.NoError(t, err)

	s, err := ToSpec(doc)
	require.NoError(t, err)
	require.Len(t, s.Validations, 1)
	assert.Equal(t, "magic", s.Validations[0].Target)
}

func TestToSpecRejectsMissingID(t *testing.T) {
	doc, err := ParseDocument([]byte("seq: []\n"))
	require.NoError(t, err)
	_, err = ToSpec(doc)
	require.Error(t, err)
}
