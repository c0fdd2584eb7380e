// Package ksyfront is the .ksy YAML front end (§2's expanded component
// table): it parses YAML-shaped .ksy documents into ksir.Spec values.
//
// The schema types below are grounded on the teacher's
// pkg/kaitaistruct.KaitaiSchema/SequenceItem/Type/InstanceDef/EnumDef
// family, adapted from a runtime-interpretation input into a KSIR
// *producer* input: the same YAML shape, but the conversion step
// (convert.go) now targets ksir.Spec rather than an in-memory interpreter
// tree, and any surface construct not representable in KSIR is rejected up
// front instead of silently accepted.
package ksyfront

import "gopkg.in/yaml.v3"

// Document is the top-level shape of a .ksy file.
type Document struct {
	Meta      Meta                   `yaml:"meta"`
	Seq       []SequenceItem         `yaml:"seq"`
	Types     map[string]TypeSpec    `yaml:"types"`
	Instances map[string]InstanceDef `yaml:"instances"`
	Enums     map[string]EnumDef     `yaml:"enums"`
}

// Meta carries the format-wide settings that map onto ksir.Spec's
// top-level fields.
type Meta struct {
	ID        string   `yaml:"id"`
	Endian    string   `yaml:"endian"`
	Encoding  string   `yaml:"encoding"`
	Imports   []string `yaml:"imports"`
}

// SequenceItem is one seq entry, corresponding to an ksir.Attr.
type SequenceItem struct {
	ID          string      `yaml:"id"`
	Type        any         `yaml:"type"` // string, or a SwitchSpec-shaped map
	Size        any         `yaml:"size"`
	SizeEOS     bool        `yaml:"size-eos"`
	If          string      `yaml:"if"`
	Repeat      string      `yaml:"repeat"`
	RepeatExpr  string      `yaml:"repeat-expr"`
	RepeatUntil string      `yaml:"repeat-until"`
	Enum        string      `yaml:"enum"`
	Encoding    string      `yaml:"encoding"`
	Process     string      `yaml:"process"`
	Valid       *ValidateDef `yaml:"valid"`
}

// SwitchSpec is the shape of a seq item's `type:` field when it is a
// switch-on construct rather than a bare type name.
type SwitchSpec struct {
	SwitchOn string         `yaml:"switch-on"`
	Cases    map[string]any `yaml:"cases"`
}

// TypeSpec defines a nested user type, corresponding to a nested
// ksir.TypeDef.
type TypeSpec struct {
	Seq       []SequenceItem         `yaml:"seq"`
	Types     map[string]TypeSpec    `yaml:"types"`
	Instances map[string]InstanceDef `yaml:"instances"`
	Enums     map[string]EnumDef     `yaml:"enums"`
}

// InstanceDef defines a value or parse instance.
type InstanceDef struct {
	Value    string `yaml:"value"`
	Type     string `yaml:"type"`
	Pos      string `yaml:"pos"`
	Size     string `yaml:"size"`
	Encoding string `yaml:"encoding"`
}

// EnumDef maps integer values to member names, e.g. `{0: ping, 1: pong}`.
type EnumDef map[int64]string

// ValidateDef is a seq item's `valid:` clause. The converter accepts both
// the expression form and the shorthand `valid: <literal>` form; the
// literal form desugars into an equality check against that literal.
type ValidateDef struct {
	Expr    string `yaml:"-"`
	Literal any    `yaml:"-"`
	IsExpr  bool   `yaml:"-"`
}

// UnmarshalYAML accepts either a bare scalar (`valid: 123`) or an object
// with an `expr:` key (`valid: {expr: "_ >= 0"}`), matching the teacher's
// ValidationDef.UnmarshalYAML two-shape handling in schema.go.
func (v *ValidateDef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var lit any
		if err := node.Decode(&lit); err != nil {
			return err
		}
		v.Literal = lit
		v.IsExpr = false
		return nil
	}
	var obj struct {
		Expr string `yaml:"expr"`
	}
	if err := node.Decode(&obj); err != nil {
		return err
	}
	v.Expr = obj.Expr
	v.IsExpr = true
	return nil
}

// ParseDocument decodes YAML bytes into a Document.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}
