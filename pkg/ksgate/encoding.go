package ksgate

import "golang.org/x/text/encoding/htmlindex"

// kaitaiEncodingAliases maps encoding names that appear in real .ksy
// files but aren't registered WHATWG labels under htmlindex — mostly
// plain "ASCII", which Kaitai schemas write in uppercase and which
// htmlindex only recognizes under its windows-1252 alias, and the
// endianness-qualified UTF-16 spellings Kaitai uses that htmlindex
// spells with a hyphen instead of Kaitai's convention.
var kaitaiEncodingAliases = map[string]string{
	"ASCII":     "windows-1252",
	"UTF8":      "utf-8",
	"UTF16LE":   "utf-16le",
	"UTF16BE":   "utf-16be",
	"UTF-16LE":  "utf-16le",
	"UTF-16BE":  "utf-16be",
}

// recognizedEncoding reports whether name resolves to a known text
// encoding, checking Kaitai's own conventional spellings first and
// falling back to the WHATWG label registry htmlindex implements.
func recognizedEncoding(name string) bool {
	if alias, ok := kaitaiEncodingAliases[name]; ok {
		name = alias
	}
	_, err := htmlindex.Get(name)
	return err == nil
}
