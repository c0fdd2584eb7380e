package cpp

import "github.com/kaitaic/ksc/pkg/ksir"

// StorageKind discriminates how an attr's value is physically stored on
// the generated class, per §4.7's Storage & ownership rules.
type StorageKind int

const (
	StoreValue StorageKind = iota
	StoreString
	StoreUniquePtrUser
	StoreUniquePtrVectorUser
	StoreUniquePtrVectorPrimitive
)

// AttrStorage is the resolved storage plan for one attr.
type AttrStorage struct {
	Kind    StorageKind
	CppType string // element type spelling
}

// primitiveCppType maps a KSIR primitive to its C++ scalar spelling.
func primitiveCppType(p ksir.Primitive) string {
	switch p {
	case ksir.U1:
		return "uint8_t"
	case ksir.U2:
		return "uint16_t"
	case ksir.U4:
		return "uint32_t"
	case ksir.U8:
		return "uint64_t"
	case ksir.S1:
		return "int8_t"
	case ksir.S2:
		return "int16_t"
	case ksir.S4:
		return "int32_t"
	case ksir.S8:
		return "int64_t"
	case ksir.F4:
		return "float"
	case ksir.F8:
		return "double"
	case ksir.Str, ksir.Bytes:
		return "std::string"
	default:
		return "uint8_t"
	}
}

// primitiveRank orders primitives for switch-on storage selection: bytes
// and str always win (rank 100), everything else ranks by byte width.
func primitiveRank(p ksir.Primitive) int {
	if p == ksir.Bytes || p == ksir.Str {
		return 100
	}
	return p.ByteWidth()
}

// resolveStorage computes an attr's storage plan. For switch-on attrs it
// implements §4.7's "pick the largest-ranked primitive among case types"
// rule; for user-typed switches (which the gate never allows mixed with
// primitives), it falls back to the common kaitai::kstruct base pointer,
// since case branches may resolve to unrelated concrete classes.
func resolveStorage(a *ksir.Attr) AttrStorage {
	base, isUser := baseElementType(a)

	if a.Repeat == ksir.RepeatNone {
		if isUser {
			return AttrStorage{Kind: StoreUniquePtrUser, CppType: base}
		}
		if base == "std::string" {
			return AttrStorage{Kind: StoreString, CppType: base}
		}
		return AttrStorage{Kind: StoreValue, CppType: base}
	}

	if isUser {
		return AttrStorage{Kind: StoreUniquePtrVectorUser, CppType: base}
	}
	return AttrStorage{Kind: StoreUniquePtrVectorPrimitive, CppType: base}
}

func baseElementType(a *ksir.Attr) (cppType string, isUser bool) {
	if a.SwitchOn != nil && len(a.SwitchCases) > 0 {
		return switchStorageType(a.SwitchCases)
	}
	if a.Type.IsUser() {
		return className(a.Type.UserType), true
	}
	return primitiveCppType(a.Type.Primitive), false
}

func switchStorageType(cases []ksir.SwitchCase) (string, bool) {
	sawUser := false
	best := -1
	bestPrim := ksir.U1
	for _, c := range cases {
		if c.Type.IsUser() {
			sawUser = true
			continue
		}
		if r := primitiveRank(c.Type.Primitive); r > best {
			best = r
			bestPrim = c.Type.Primitive
		}
	}
	if sawUser {
		// The gate forbids mixing user and primitive case types, so a
		// user-typed switch is entirely user cases; storage falls back to
		// the common runtime base since each case may be a different
		// concrete class.
		return "kaitai::kstruct", true
	}
	return primitiveCppType(bestPrim), false
}
