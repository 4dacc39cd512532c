package youtrack

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

const upperhex = "0123456789ABCDEF"

// shouldEscape reports whether b is outside the form-encoding safe set.
func shouldEscape(b byte) bool {
	switch {
	case 'a' <= b && b <= 'z', 'A' <= b && b <= 'Z', '0' <= b && b <= '9':
		return false
	case b == '.', b == '-', b == '*', b == '_':
		return false
	}
	return true
}

func escapeBytes(p []byte) string {
	var sb strings.Builder
	sb.Grow(len(p) * 3)
	for _, b := range p {
		if !shouldEscape(b) {
			sb.WriteByte(b)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperhex[b>>4])
		sb.WriteByte(upperhex[b&15])
	}
	return sb.String()
}

// PercentEncode encodes s as UTF-8 form data, except that a space becomes
// "%20" rather than "+".
func PercentEncode(s string) string {
	return escapeBytes([]byte(s))
}

// PathEncode encodes a path segment as Latin-1 form data with spaces as
// "%20". Characters without a Latin-1 form are sent as "?".
func PathEncode(s string) string {
	return escapeBytes(latin1(s))
}

// latin1 converts s to ISO-8859-1 bytes, replacing unmappable runes with '?'.
func latin1(s string) []byte {
	out := make([]byte, 0, len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		if b, ok := charmap.ISO8859_1.EncodeRune(r); ok {
			out = append(out, b)
			continue
		}
		out = append(out, '?')
	}
	return out
}
