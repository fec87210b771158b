package lex

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Symbol consumes one identifier and returns its text with the
// advanced cursor. The r# raw-identifier prefix is consumed but
// stripped from the returned text; the reserved form r#_ is rejected.
// Fails when the cursor is not positioned at an identifier start.
func Symbol(input Cursor) (Cursor, string, error) {
	s := input.Rest
	start := 0
	if strings.HasPrefix(s, "r#") {
		start = 2
	}

	first, size := utf8.DecodeRuneInString(s[start:])
	if size == 0 || !isIdentStart(first) {
		return Cursor{}, "", errAt(input)
	}

	end := len(s)
	for i := start + size; i < len(s); {
		r, n := utf8.DecodeRuneInString(s[i:])
		if !isIdentContinue(r) {
			end = i
			break
		}
		i += n
	}

	ident := s[:end]
	if ident == "r#_" {
		return Cursor{}, "", errAt(input)
	}
	if start == 2 {
		ident = ident[2:]
	}
	return input.Advance(end), ident, nil
}

func isIdentStart(r rune) bool {
	switch {
	case r == '_':
		return true
	case r < utf8.RuneSelf:
		return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
	default:
		return unicode.IsLetter(r) || unicode.In(r, unicode.Nl, unicode.Other_ID_Start)
	}
}

func isIdentContinue(r rune) bool {
	switch {
	case r == '_':
		return true
	case r < utf8.RuneSelf:
		return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9')
	default:
		return unicode.IsLetter(r) || unicode.IsDigit(r) ||
			unicode.In(r, unicode.Nl, unicode.Mn, unicode.Mc, unicode.Pc,
				unicode.Other_ID_Start, unicode.Other_ID_Continue)
	}
}
