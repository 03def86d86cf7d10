package core

import "strings"

// decodeName expands #XX escapes in a name token (without the slash).
// A '#' not followed by two hex digits is kept literally.
func decodeName(raw []byte) string {
	hasEscape := false
	for _, c := range raw {
		if c == '#' {
			hasEscape = true
			break
		}
	}
	if !hasEscape {
		return string(raw)
	}
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] == '#' && i+2 < len(raw) {
			hi, ok1 := hexValue(raw[i+1])
			lo, ok2 := hexValue(raw[i+2])
			if ok1 && ok2 {
				out = append(out, hi<<4|lo)
				i += 2
				continue
			}
		}
		out = append(out, raw[i])
	}
	return string(out)
}

func encodeName(name string) string {
	const digits = "0123456789ABCDEF"
	var sb strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c <= 0x20 || c >= 0x7f || c == '#' || charClass[c] == classDelimiter {
			sb.WriteByte('#')
			sb.WriteByte(digits[c>>4])
			sb.WriteByte(digits[c&0x0f])
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func encodeLiteral(b []byte) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, c := range b {
		switch c {
		case '(', ')', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
