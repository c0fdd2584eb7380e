package ksir

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// nestedScopePrefix is the reserved TypeDef wire marker of §3/§9: a nested
// scope is carried as a user TypeRef whose name is this prefix followed by
// the base64-encoded KSIR1 text of the nested Spec.
const nestedScopePrefix = "__scope_b64__:"

type writer struct {
	b strings.Builder
}

func (w *writer) tok(s string) {
	if w.b.Len() > 0 {
		w.b.WriteByte(' ')
	}
	w.b.WriteString(s)
}

func (w *writer) quoted(s string)      { w.tok(quoteC(s)) }
func (w *writer) int64tok(n int64)     { w.tok(strconv.FormatInt(n, 10)) }
func (w *writer) newline()             { w.b.WriteByte('\n') }

// Serialize renders s to its canonical KSIR1 textual form. Per §4.3's
// round-trip invariant (P1), for any Spec that passes Validate,
// Deserialize(Serialize(s)) reproduces a Spec whose own Serialize output is
// byte-identical to this one.
func Serialize(s *Spec) (string, error) {
	w := &writer{}
	w.tok("KSIR1")
	w.newline()

	w.tok("name")
	w.quoted(s.Name)
	w.newline()

	w.tok("default_endian")
	w.tok(string(s.DefaultEndian))
	w.newline()

	w.tok("imports")
	w.int64tok(int64(len(s.Imports)))
	w.newline()
	for _, imp := range s.Imports {
		w.tok("import")
		w.quoted(imp)
		w.newline()
	}

	w.tok("types")
	w.int64tok(int64(len(s.Types)))
	w.newline()
	for _, t := range s.Types {
		if err := writeType(w, &t); err != nil {
			return "", err
		}
	}

	w.tok("attrs")
	w.int64tok(int64(len(s.Attrs)))
	w.newline()
	for i := range s.Attrs {
		if err := writeAttr(w, &s.Attrs[i]); err != nil {
			return "", err
		}
	}

	w.tok("enums")
	w.int64tok(int64(len(s.Enums)))
	w.newline()
	for _, e := range s.Enums {
		w.tok("enum")
		w.quoted(e.Name)
		w.int64tok(int64(len(e.Values)))
		w.newline()
		for _, v := range e.Values {
			w.tok("enum_value")
			w.int64tok(v.Value)
			w.quoted(v.Name)
			w.newline()
		}
	}

	w.tok("instances")
	w.int64tok(int64(len(s.Instances)))
	w.newline()
	for i := range s.Instances {
		if err := writeInstance(w, &s.Instances[i]); err != nil {
			return "", err
		}
	}

	w.tok("validations")
	w.int64tok(int64(len(s.Validations)))
	w.newline()
	for _, v := range s.Validations {
		w.tok("validation")
		w.quoted(v.Target)
		condText, err := quoteExprOrNone(v.ConditionExpr)
		if err != nil {
			return "", err
		}
		w.tok(condText)
		w.quoted(v.Message)
		w.newline()
	}

	w.tok("end")
	w.newline()

	return w.b.String(), nil
}

func writeTypeRef(w *writer, t TypeRef) {
	switch t.Kind {
	case RefPrimitive:
		w.tok("primitive")
		w.quoted(string(t.Primitive))
	case RefUser:
		w.tok("user")
		w.quoted(t.UserType)
	}
}

func writeType(w *writer, t *TypeDef) error {
	w.tok("type")
	w.quoted(t.Name)
	if t.IsNested() {
		nestedText, err := Serialize(t.NestedSpec)
		if err != nil {
			return fmt.Errorf("type %q: %w", t.Name, err)
		}
		payload := nestedScopePrefix + base64.StdEncoding.EncodeToString([]byte(nestedText))
		writeTypeRef(w, UserRef(payload))
	} else {
		writeTypeRef(w, t.Type)
	}
	w.newline()
	return nil
}

func writeAttr(w *writer, a *Attr) error {
	w.tok("attr")
	w.quoted(a.ID)
	writeTypeRef(w, a.Type)

	if a.EndianOverride != nil {
		w.tok(string(*a.EndianOverride))
	} else {
		w.tok("none")
	}

	sizeText, err := quoteExprOrNone(a.SizeExpr)
	if err != nil {
		return err
	}
	w.tok(sizeText)
	w.tok(quoteStringOrNone(a.EnumName))
	w.tok(quoteStringOrNone(a.Encoding))

	ifText, err := quoteExprOrNone(a.IfExpr)
	if err != nil {
		return err
	}
	w.tok(ifText)

	w.tok(string(a.Repeat))
	repText, err := quoteExprOrNone(a.RepeatExpr)
	if err != nil {
		return err
	}
	w.tok(repText)

	switchOnText, err := quoteExprOrNone(a.SwitchOn)
	if err != nil {
		return err
	}
	w.tok(switchOnText)
	w.int64tok(int64(len(a.SwitchCases)))
	for _, c := range a.SwitchCases {
		if c.Match == nil {
			w.quoted("else")
		} else {
			matchText, err := exprText(c.Match)
			if err != nil {
				return err
			}
			w.quoted(matchText)
		}
		writeTypeRef(w, c.Type)
	}

	if a.Process != nil && a.Process.Kind == ProcessXorConst {
		w.tok("process")
		w.tok("xor_const")
		w.int64tok(int64(a.Process.XorConst))
	} else {
		w.tok("process")
		w.tok("none")
	}

	w.tok("args")
	w.int64tok(int64(len(a.UserTypeArgs)))
	for _, arg := range a.UserTypeArgs {
		argText, err := exprText(arg)
		if err != nil {
			return err
		}
		w.quoted(argText)
	}

	w.newline()
	return nil
}

func writeInstance(w *writer, in *Instance) error {
	w.tok("instance")
	w.quoted(in.ID)
	if in.Kind == ValueInstance {
		w.tok("value")
		text, err := exprText(in.ValueExpr)
		if err != nil {
			return err
		}
		w.quoted(text)
	} else {
		w.tok("parse")
		posText, err := quoteExprOrNone(in.PosExpr)
		if err != nil {
			return err
		}
		w.tok(posText)
		sizeText, err := quoteExprOrNone(in.SizeExpr)
		if err != nil {
			return err
		}
		w.tok(sizeText)
		if in.EndianOverride != nil {
			w.tok(string(*in.EndianOverride))
		} else {
			w.tok("none")
		}
		w.tok(quoteStringOrNone(in.Encoding))
		if in.ExplicitType {
			w.tok("1")
		} else {
			w.tok("0")
		}
		writeTypeRef(w, in.Type)
	}
	w.newline()
	return nil
}
