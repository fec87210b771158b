package lex

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SkipWhitespace advances past whitespace and comments. If nothing
// matches, including at end of input, the cursor is returned unchanged.
func SkipWhitespace(input Cursor) Cursor {
	out, err := Whitespace(input)
	if err != nil {
		return input
	}
	return out
}

// Whitespace consumes one or more whitespace characters, line comments,
// or block comments (which may nest arbitrarily deep). It fails when
// the input is empty or begins with something else.
func Whitespace(input Cursor) (Cursor, error) {
	if input.IsEmpty() {
		return Cursor{}, errAt(input)
	}

	s := input.Rest
	i := 0
	for i < len(s) {
		b := s[i]
		if b == '/' {
			rest := s[i:]
			if strings.HasPrefix(rest, "//") {
				if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
					i += nl + 1
					continue
				}
				// Line comment runs to end of input.
				return input.Advance(len(s)), nil
			}
			if strings.HasPrefix(rest, "/**/") {
				i += 4
				continue
			}
			if strings.HasPrefix(rest, "/*") {
				com, err := blockComment(input.Advance(i))
				if err != nil {
					return Cursor{}, err
				}
				i += len(com)
				continue
			}
		}
		switch {
		case b == ' ' || (b >= 0x09 && b <= 0x0d):
			i++
			continue
		case b < utf8.RuneSelf:
			// Not whitespace; fall through to the progress check.
		default:
			r, size := utf8.DecodeRuneInString(s[i:])
			if isWhitespace(r) {
				i += size
				continue
			}
		}
		if i > 0 {
			return input.Advance(i), nil
		}
		return Cursor{}, errAt(input)
	}
	return input.Advance(len(s)), nil
}

// blockComment consumes one block comment, tracking nesting depth, and
// returns its text. The comment closes only when every inner /* has a
// matching */.
func blockComment(input Cursor) (string, error) {
	if !input.StartsWith("/*") {
		return "", errAt(input)
	}

	s := input.Rest
	depth := 0
	for i := 0; i+1 < len(s); i++ {
		if s[i] == '/' && s[i+1] == '*' {
			depth++
			i++
		} else if s[i] == '*' && s[i+1] == '/' {
			depth--
			if depth == 0 {
				return s[:i+2], nil
			}
			i++
		}
	}
	return "", errAt(input)
}

// isWhitespace matches Rust's notion of whitespace, which additionally
// treats the left-to-right and right-to-left marks as whitespace.
func isWhitespace(r rune) bool {
	return unicode.IsSpace(r) || r == '\u200e' || r == '\u200f'
}
