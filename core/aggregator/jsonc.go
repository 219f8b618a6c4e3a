package aggregator

import (
	"strings"
	"unicode"
)

// StripComments removes /* */ block comments and // line comments outside of
// JSON string literals. Line comments keep their terminating newline.
func StripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))

	inString := false
	for i := 0; i < len(src); i++ {
		c := src[i]

		if inString {
			b.WriteByte(c)
			switch c {
			case '\\':
				if i+1 < len(src) {
					i++
					b.WriteByte(src[i])
				}
			case '"':
				inString = false
			}
			continue
		}

		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}

		if c == '/' && i+1 < len(src) {
			switch src[i+1] {
			case '*':
				end := strings.Index(src[i+2:], "*/")
				if end < 0 {
					return b.String()
				}
				i += 2 + end + 1
				continue
			case '/':
				end := strings.IndexByte(src[i:], '\n')
				if end < 0 {
					return b.String()
				}
				i += end - 1
				continue
			}
		}

		b.WriteByte(c)
	}
	return b.String()
}

// Compact removes every whitespace character, including inside strings.
func Compact(src string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, src)
}
