package ksyfront

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kaitaic/ksc/pkg/ksexpr"
	"github.com/kaitaic/ksc/pkg/ksir"
)

// ToSpec converts a parsed .ksy Document into a validated ksir.Spec. It is
// the sole entry point callers (the CLI's .ksy path) need.
func ToSpec(doc *Document) (*ksir.Spec, error) {
	if doc.Meta.ID == "" {
		return nil, fmt.Errorf("meta.id is required")
	}
	endian := ksir.LittleEndian
	if doc.Meta.Endian != "" {
		e, err := ksir.ParseEndian(doc.Meta.Endian)
		if err != nil {
			return nil, fmt.Errorf("meta.endian: %w", err)
		}
		endian = e
	}

	s := &ksir.Spec{
		Name:          doc.Meta.ID,
		DefaultEndian: endian,
		Imports:       doc.Meta.Imports,
	}

	for _, name := range sortedKeys(doc.Enums) {
		s.Enums = append(s.Enums, convertEnum(name, doc.Enums[name]))
	}

	for _, item := range doc.Seq {
		attr, err := convertAttr(item)
		if err != nil {
			return nil, fmt.Errorf("seq/%s: %w", item.ID, err)
		}
		s.Attrs = append(s.Attrs, *attr)
	}

	for _, name := range sortedKeys(doc.Types) {
		td, err := convertNestedType(name, doc.Types[name])
		if err != nil {
			return nil, fmt.Errorf("types/%s: %w", name, err)
		}
		s.Types = append(s.Types, *td)
	}

	for _, id := range sortedKeys(doc.Instances) {
		inst, err := convertInstance(id, doc.Instances[id])
		if err != nil {
			return nil, fmt.Errorf("instances/%s: %w", id, err)
		}
		s.Instances = append(s.Instances, *inst)
	}

	for _, item := range doc.Seq {
		if item.Valid == nil {
			continue
		}
		v, err := convertValidation(item.ID, item.Valid)
		if err != nil {
			return nil, fmt.Errorf("seq/%s/valid: %w", item.ID, err)
		}
		s.Validations = append(s.Validations, *v)
	}

	if err := ksir.Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

// sortedKeys returns m's keys in ascending order, since Go's map iteration
// order is randomized and the dispatcher's output must be deterministic
// across runs (§5's ordering guarantee: source order within a Spec, and a
// stable order wherever this front end must impose one of its own on an
// unordered YAML mapping).
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func convertEnum(name string, ed EnumDef) ksir.EnumDef {
	out := ksir.EnumDef{Name: name}
	keys := make([]int64, 0, len(ed))
	for k := range ed {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		out.Values = append(out.Values, ksir.EnumValue{Value: k, Name: ed[k]})
	}
	return out
}

func convertAttr(item SequenceItem) (*ksir.Attr, error) {
	a := &ksir.Attr{ID: item.ID, Repeat: ksir.RepeatNone}

	typeRef, switchOn, cases, err := convertTypeField(item.Type)
	if err != nil {
		return nil, err
	}
	a.Type = typeRef
	a.SwitchOn = switchOn
	a.SwitchCases = cases

	if item.SizeEOS && item.Size != nil {
		return nil, fmt.Errorf("size and size-eos are mutually exclusive")
	}
	if item.Size != nil {
		sizeExpr, err := sizeToExpr(item.Size)
		if err != nil {
			return nil, err
		}
		a.SizeExpr = sizeExpr
	}

	a.EnumName = item.Enum
	a.Encoding = item.Encoding

	if item.If != "" {
		e, err := ParseExpr(item.If)
		if err != nil {
			return nil, err
		}
		a.IfExpr = e
	}

	switch {
	case item.RepeatUntil != "":
		a.Repeat = ksir.RepeatUntil
		e, err := ParseExpr(item.RepeatUntil)
		if err != nil {
			return nil, err
		}
		a.RepeatExpr = e
	case item.RepeatExpr != "":
		a.Repeat = ksir.RepeatExpr
		e, err := ParseExpr(item.RepeatExpr)
		if err != nil {
			return nil, err
		}
		a.RepeatExpr = e
	case item.Repeat == "eos":
		a.Repeat = ksir.RepeatEOS
	case item.Repeat != "":
		return nil, fmt.Errorf("unrecognized repeat kind %q", item.Repeat)
	}

	if item.Process != "" {
		p, err := convertProcess(item.Process)
		if err != nil {
			return nil, err
		}
		a.Process = p
	}

	return a, nil
}

// convertTypeField handles the two shapes item.Type can take: a bare
// string type name, or a switch-on map. Returns the base TypeRef (used
// directly for the non-switch case, or as the switch's nominal default
// type otherwise), and the switch fields when present.
func convertTypeField(raw any) (ksir.TypeRef, ksexpr.Expr, []ksir.SwitchCase, error) {
	switch v := raw.(type) {
	case nil:
		return ksir.TypeRef{}, nil, nil, fmt.Errorf("missing type")
	case string:
		return parseTypeRefString(v), nil, nil, nil
	case map[string]any:
		switchOnRaw, _ := v["switch-on"].(string)
		if switchOnRaw == "" {
			return ksir.TypeRef{}, nil, nil, fmt.Errorf("switch type missing switch-on")
		}
		switchOn, err := ParseExpr(switchOnRaw)
		if err != nil {
			return ksir.TypeRef{}, nil, nil, err
		}
		casesRaw, _ := v["cases"].(map[string]any)
		if generic, ok := v["cases"].(map[any]any); ok {
			// YAML decodes a mapping with non-string keys (e.g. integer
			// case values) as map[any]any.
			casesRaw = make(map[string]any, len(generic))
			for k, val := range generic {
				casesRaw[fmt.Sprint(k)] = val
			}
		}
		keys := make([]string, 0, len(casesRaw))
		for k := range casesRaw {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var cases []ksir.SwitchCase
		var firstType ksir.TypeRef
		for _, k := range keys {
			typeName, _ := casesRaw[k].(string)
			caseType := parseTypeRefString(typeName)
			if firstType == (ksir.TypeRef{}) {
				firstType = caseType
			}
			if k == "_" {
				cases = append(cases, ksir.SwitchCase{Match: nil, Type: caseType})
				continue
			}
			matchExpr, err := ParseExpr(k)
			if err != nil {
				return ksir.TypeRef{}, nil, nil, err
			}
			cases = append(cases, ksir.SwitchCase{Match: matchExpr, Type: caseType})
		}
		return firstType, switchOn, cases, nil
	default:
		return ksir.TypeRef{}, nil, nil, fmt.Errorf("unsupported type field shape %T", raw)
	}
}

func parseTypeRefString(name string) ksir.TypeRef {
	if ksir.IsPrimitive(name) {
		return ksir.PrimitiveRef(ksir.Primitive(name))
	}
	return ksir.UserRef(name)
}

func sizeToExpr(raw any) (ksexpr.Expr, error) {
	switch v := raw.(type) {
	case int:
		return ksexpr.NewInt(int64(v)), nil
	case int64:
		return ksexpr.NewInt(v), nil
	case string:
		return ParseExpr(v)
	default:
		return nil, fmt.Errorf("unsupported size shape %T", raw)
	}
}

func convertProcess(spec string) (*ksir.Process, error) {
	const prefix = "xor("
	if !strings.HasPrefix(spec, prefix) || !strings.HasSuffix(spec, ")") {
		return nil, fmt.Errorf("not yet supported: process %q", spec)
	}
	arg := strings.TrimSuffix(strings.TrimPrefix(spec, prefix), ")")
	v, err := strconv.ParseInt(strings.TrimSpace(arg), 0, 16)
	if err != nil {
		return nil, fmt.Errorf("not yet supported: process xor argument %q", arg)
	}
	return &ksir.Process{Kind: ksir.ProcessXorConst, XorConst: byte(v)}, nil
}

func convertNestedType(name string, ts TypeSpec) (*ksir.TypeDef, error) {
	nested := &ksir.Spec{Name: name, DefaultEndian: ksir.LittleEndian}
	for _, item := range ts.Seq {
		a, err := convertAttr(item)
		if err != nil {
			return nil, fmt.Errorf("seq/%s: %w", item.ID, err)
		}
		nested.Attrs = append(nested.Attrs, *a)
	}
	for _, enumName := range sortedKeys(ts.Enums) {
		nested.Enums = append(nested.Enums, convertEnum(enumName, ts.Enums[enumName]))
	}
	for _, childName := range sortedKeys(ts.Types) {
		childTD, err := convertNestedType(childName, ts.Types[childName])
		if err != nil {
			return nil, err
		}
		nested.Types = append(nested.Types, *childTD)
	}
	for _, id := range sortedKeys(ts.Instances) {
		inst, err := convertInstance(id, ts.Instances[id])
		if err != nil {
			return nil, err
		}
		nested.Instances = append(nested.Instances, *inst)
	}
	return &ksir.TypeDef{Name: name, NestedSpec: nested}, nil
}

func convertInstance(id string, in InstanceDef) (*ksir.Instance, error) {
	if in.Value != "" {
		e, err := ParseExpr(in.Value)
		if err != nil {
			return nil, err
		}
		return &ksir.Instance{ID: id, Kind: ksir.ValueInstance, ValueExpr: e}, nil
	}
	inst := &ksir.Instance{ID: id, Kind: ksir.ParseInstance, Encoding: in.Encoding}
	if in.Type != "" {
		inst.Type = parseTypeRefString(in.Type)
		inst.ExplicitType = true
	}
	if in.Pos != "" {
		e, err := ParseExpr(in.Pos)
		if err != nil {
			return nil, err
		}
		inst.PosExpr = e
	}
	if in.Size != "" {
		e, err := ParseExpr(in.Size)
		if err != nil {
			return nil, err
		}
		inst.SizeExpr = e
	}
	return inst, nil
}

func convertValidation(target string, v *ValidateDef) (*ksir.Validation, error) {
	if v.IsExpr {
		e, err := ParseExpr(v.Expr)
		if err != nil {
			return nil, err
		}
		return &ksir.Validation{Target: target, ConditionExpr: e, Message: "validation failed"}, nil
	}
	lit, err := literalToExpr(v.Literal)
	if err != nil {
		return nil, err
	}
	cond := ksexpr.NewBinary(ksexpr.OpEq, ksexpr.NewName(target), lit)
	return &ksir.Validation{Target: target, ConditionExpr: cond, Message: "validation failed"}, nil
}

func literalToExpr(v any) (ksexpr.Expr, error) {
	switch n := v.(type) {
	case int:
		return ksexpr.NewInt(int64(n)), nil
	case int64:
		return ksexpr.NewInt(n), nil
	case bool:
		return ksexpr.NewBool(n), nil
	default:
		return nil, fmt.Errorf("not yet supported: valid literal of type %T", v)
	}
}
