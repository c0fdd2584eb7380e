// Package identname converts Kaitai-style snake_case identifiers into the
// casings each target language expects: upper-camel class/module names,
// snake_case accessor names, with a leading-digit prefix rule shared by
// every target ("a name starting with a digit gets a leading underscore").
package identname

import "strings"

// UpperCamel converts a snake_case identifier into UpperCamelCase, e.g.
// "my_format" -> "MyFormat". Non-alphanumeric separators are treated the
// same as underscore.
func UpperCamel(s string) string {
	parts := splitWords(s)
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		if len(p) > 1 {
			b.WriteString(strings.ToLower(p[1:]))
		}
	}
	return PrefixLeadingDigit(b.String())
}

// SnakeCase normalizes s to snake_case: splits at runs of non-alphanumeric
// separators and at camelCase word boundaries ("MyFormat", "HTTPServer"),
// lower-cases each word, and joins the words with a single underscore.
func SnakeCase(s string) string {
	isUpper := func(c byte) bool { return c >= 'A' && c <= 'Z' }
	parts := splitWords(s)
	lowered := make([]string, 0, len(parts))
	for _, p := range parts {
		var w strings.Builder
		for i := 0; i < len(p); i++ {
			if i > 0 && isUpper(p[i]) && (!isUpper(p[i-1]) || (i+1 < len(p) && p[i+1] >= 'a' && p[i+1] <= 'z')) {
				w.WriteByte('_')
			}
			w.WriteByte(p[i])
		}
		lowered = append(lowered, strings.ToLower(w.String()))
	}
	return PrefixLeadingDigit(strings.Join(lowered, "_"))
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z':
			return false
		case r >= 'A' && r <= 'Z':
			return false
		case r >= '0' && r <= '9':
			return false
		default:
			return true
		}
	})
}

// PrefixLeadingDigit prepends "_" if s begins with a digit, since no
// target language's identifier grammar allows that.
func PrefixLeadingDigit(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= '0' && s[0] <= '9' {
		return "_" + s
	}
	return s
}
