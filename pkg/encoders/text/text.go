// Package text contains the byte-level JSON helpers shared by the encoders:
// key emission, quoted values with pluggable escaping, and the NIP-01 string
// escape used in the canonical event form.
package text

import "strconv"

// JSONKey appends `"key":` to dst.
func JSONKey(dst, key []byte) (b []byte) {
	dst = append(dst, '"')
	dst = append(dst, key...)
	dst = append(dst, '"', ':')
	return dst
}

// AppendQuote appends src to dst surrounded by double quotes, transformed by
// enc (hex encoding, NIP-01 escaping, or Noop).
func AppendQuote(dst, src []byte, enc func(dst, src []byte) []byte) (b []byte) {
	dst = append(dst, '"')
	dst = enc(dst, src)
	dst = append(dst, '"')
	return dst
}

// Noop appends src to dst unchanged.
func Noop(dst, src []byte) (b []byte) { return append(dst, src...) }

// NostrEscape appends src to dst with the NIP-01 canonical string escaping:
// backslash, double quote, \b, \t, \n, \f and \r get two character
// escapes, all other bytes below 0x20 become \u00XX, everything
// else passes through byte for byte (UTF-8 sequences are preserved).
func NostrEscape(dst, src []byte) (b []byte) {
	for _, c := range src {
		switch {
		case c == '"':
			dst = append(dst, '\\', '"')
		case c == '\\':
			dst = append(dst, '\\', '\\')
		case c == '\b':
			dst = append(dst, '\\', 'b')
		case c == '\t':
			dst = append(dst, '\\', 't')
		case c == '\n':
			dst = append(dst, '\\', 'n')
		case c == '\f':
			dst = append(dst, '\\', 'f')
		case c == '\r':
			dst = append(dst, '\\', 'r')
		case c < 0x20:
			const hexdigit = "0123456789abcdef"
			dst = append(dst, '\\', 'u', '0', '0', hexdigit[c>>4], hexdigit[c&0xf])
		default:
			dst = append(dst, c)
		}
	}
	return dst
}

// AppendInt appends the decimal representation of n to dst.
func AppendInt(dst []byte, n int64) (b []byte) {
	return strconv.AppendInt(dst, n, 10)
}

// AppendBool appends JSON true or false to dst.
func AppendBool(dst []byte, v bool) (b []byte) {
	if v {
		return append(dst, 't', 'r', 'u', 'e')
	}
	return append(dst, 'f', 'a', 'l', 's', 'e')
}
