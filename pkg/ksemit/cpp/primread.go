package cpp

import "github.com/kaitaic/ksc/pkg/ksir"

// primitiveReadCall renders the kaitai::kstream method call that reads one
// value of primitive p, per §4.7's "Primitive read selection": byte width
// × signedness × endianness fully determines the method name for
// fixed-width integers; u1/s1 ignore endianness; bytes/str follow their
// own rules driven by sizeExpr/encoding rather than endian.
func primitiveReadCall(p ksir.Primitive, endian ksir.Endian, sizeExpr, encoding string) string {
	switch p {
	case ksir.Bytes:
		if sizeExpr != "" {
			return "m__io->read_bytes(" + sizeExpr + ")"
		}
		return "m__io->read_bytes_full()"
	case ksir.Str:
		enc := encoding
		if enc == "" {
			enc = "UTF-8"
		}
		bytesExpr := "m__io->read_bytes_full()"
		if sizeExpr != "" {
			bytesExpr = "m__io->read_bytes(" + sizeExpr + ")"
		}
		return "kaitai::kstream::bytes_to_str(" + bytesExpr + ", \"" + enc + "\")"
	case ksir.U1, ksir.S1:
		return "m__io->read_" + string(p) + "()"
	default:
		suffix := "le"
		if endian == ksir.BigEndian {
			suffix = "be"
		}
		return "m__io->read_" + string(p) + suffix + "()"
	}
}

func attrEndian(root ksir.Endian, a *ksir.Attr) ksir.Endian {
	return resolveEndian(root, a.EndianOverride)
}

// resolveEndian applies an optional per-field endian override over the
// spec's default, shared by attrEndian and instance parse reads.
func resolveEndian(root ksir.Endian, override *ksir.Endian) ksir.Endian {
	if override != nil {
		return *override
	}
	return root
}
