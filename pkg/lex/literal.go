package lex

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// rawOpener recognizes the start of a raw or raw-byte string literal:
// an optional b, an r, any number of hashes, and the opening quote.
var rawOpener = regexp2.MustCompile(`^b?r#*"`, 0)

// SkipLiteral advances past one literal when the cursor is positioned
// at one. The boolean reports whether a literal was consumed; a cursor
// positioned at a malformed or unterminated literal is an error.
//
// A single quote that does not close after one character is
// reinterpreted as a lifetime-style symbol rather than a char literal;
// the returned cursor then sits just past the symbol.
func SkipLiteral(input Cursor) (Cursor, bool, error) {
	switch {
	case input.StartsWith(`"`):
		cur, err := cookedString(input.Advance(1))
		if err != nil {
			return Cursor{}, false, err
		}
		return cur.Advance(1), true, nil
	case input.StartsWith(`b"`):
		cur, err := cookedByteString(input.Advance(2))
		if err != nil {
			return Cursor{}, false, err
		}
		return cur.Advance(1), true, nil
	case input.StartsWith(`'`):
		after := input.Advance(1)
		cur, err := cookedChar(after)
		if err != nil {
			return Cursor{}, false, err
		}
		if !cur.StartsWith(`'`) {
			sym, _, err := Symbol(after)
			if err != nil {
				return Cursor{}, false, err
			}
			return sym, true, nil
		}
		return cur.Advance(1), true, nil
	case input.StartsWith(`b'`):
		cur, err := cookedByte(input.Advance(2))
		if err != nil {
			return Cursor{}, false, err
		}
		if !cur.StartsWith(`'`) {
			return Cursor{}, false, errAt(cur)
		}
		return cur.Advance(1), true, nil
	}
	ok, err := rawOpener.MatchString(input.Rest)
	if err != nil {
		// regexp2 only errors on a match timeout, and none is set.
		return Cursor{}, false, errAt(input)
	}
	if ok {
		q := input.Find('r')
		cur, err := rawString(input.Advance(q + 1))
		if err != nil {
			return Cursor{}, false, err
		}
		return cur, true, nil
	}
	return input, false, nil
}

// cookedString consumes the body of a double-quoted string, stopping at
// the closing quote (which is left for the caller to consume).
func cookedString(input Cursor) (Cursor, error) {
	s := input.Rest
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch r {
		case '"':
			return input.Advance(i), nil
		case '\r':
			if i+1 >= len(s) || s[i+1] != '\n' {
				return Cursor{}, errAt(input)
			}
			i += 2
		case '\\':
			i += size
			if i >= len(s) {
				return Cursor{}, errAt(input)
			}
			esc, escSize := utf8.DecodeRuneInString(s[i:])
			i += escSize
			switch esc {
			case 'x':
				n, ok := backslashXChar(s[i:])
				if !ok {
					return Cursor{}, errAt(input)
				}
				i += n
			case 'u':
				n, ok := backslashU(s[i:])
				if !ok {
					return Cursor{}, errAt(input)
				}
				i += n
			case 'n', 'r', 't', '\\', '\'', '"', '0':
			case '\n', '\r':
				// Line continuation also eats the next line's leading
				// whitespace.
				for i < len(s) {
					ws, wsSize := utf8.DecodeRuneInString(s[i:])
					if !unicode.IsSpace(ws) {
						break
					}
					i += wsSize
				}
			default:
				return Cursor{}, errAt(input)
			}
		default:
			i += size
		}
	}
	return Cursor{}, errAt(input)
}

// cookedByteString consumes the body of a b"..." literal, stopping at
// the closing quote. Contents are restricted to ASCII and byte escapes.
func cookedByteString(input Cursor) (Cursor, error) {
	i := 0
	for {
		s := input.Rest
		if i >= len(s) {
			break
		}
		b := s[i]
		switch {
		case b == '"':
			return input.Advance(i), nil
		case b == '\r':
			if i+1 >= len(s) || s[i+1] != '\n' {
				return Cursor{}, errAt(input)
			}
			i += 2
		case b == '\\':
			if i+1 >= len(s) {
				return Cursor{}, errAt(input)
			}
			esc := s[i+1]
			i += 2
			switch esc {
			case 'x':
				n, ok := backslashXByte(s[i:])
				if !ok {
					return Cursor{}, errAt(input)
				}
				i += n
			case 'n', 'r', 't', '\\', '0', '\'', '"':
			case '\n', '\r':
				// Rebase the cursor past the newline, then skip the
				// continuation line's leading whitespace.
				rest := input.Advance(i)
				j := 0
				for j < len(rest.Rest) {
					r, size := utf8.DecodeRuneInString(rest.Rest[j:])
					if !unicode.IsSpace(r) {
						break
					}
					j += size
				}
				if j >= len(rest.Rest) {
					return Cursor{}, errAt(rest)
				}
				input = rest.Advance(j)
				i = 0
			default:
				return Cursor{}, errAt(input)
			}
		case b < utf8.RuneSelf:
			i++
		default:
			return Cursor{}, errAt(input)
		}
	}
	return Cursor{}, errAt(input)
}

// rawString consumes a raw string from the opening hashes (the leading
// r or br has already been consumed by the caller) through the closing
// quote and its matching run of hashes.
func rawString(input Cursor) (Cursor, error) {
	s := input.Rest
	n := -1
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			n = i
			break
		}
		if s[i] != '#' {
			return Cursor{}, errAt(input)
		}
	}
	if n < 0 {
		return Cursor{}, errAt(input)
	}
	hashes := s[:n]
	for i := n + 1; i < len(s); i++ {
		if s[i] == '"' && strings.HasPrefix(s[i+1:], hashes) {
			return input.Advance(i + 1 + n), nil
		}
	}
	return Cursor{}, errAt(input)
}

// cookedChar consumes one character or escape sequence, leaving the
// cursor at whatever follows. The caller decides whether that is the
// closing quote of a char literal.
func cookedChar(input Cursor) (Cursor, error) {
	s := input.Rest
	if len(s) == 0 {
		return Cursor{}, errAt(input)
	}
	r, size := utf8.DecodeRuneInString(s)
	i := size
	if r == '\\' {
		if i >= len(s) {
			return Cursor{}, errAt(input)
		}
		esc, escSize := utf8.DecodeRuneInString(s[i:])
		i += escSize
		switch esc {
		case 'x':
			n, ok := backslashXChar(s[i:])
			if !ok {
				return Cursor{}, errAt(input)
			}
			i += n
		case 'u':
			n, ok := backslashU(s[i:])
			if !ok {
				return Cursor{}, errAt(input)
			}
			i += n
		case 'n', 'r', 't', '\\', '\'', '"', '0':
		default:
			return Cursor{}, errAt(input)
		}
	}
	return input.Advance(i), nil
}

// cookedByte consumes one byte or byte escape of a b'...' literal.
func cookedByte(input Cursor) (Cursor, error) {
	s := input.Rest
	if len(s) == 0 {
		return Cursor{}, errAt(input)
	}
	i := 1
	if s[0] == '\\' {
		if len(s) < 2 {
			return Cursor{}, errAt(input)
		}
		i = 2
		switch s[1] {
		case 'x':
			n, ok := backslashXByte(s[i:])
			if !ok {
				return Cursor{}, errAt(input)
			}
			i += n
		case 'n', 'r', 't', '\\', '0', '\'', '"':
		default:
			return Cursor{}, errAt(input)
		}
	} else if i < len(s) && !utf8.RuneStart(s[i]) {
		// A multi-byte character is not a valid byte literal.
		return Cursor{}, errAt(input)
	}
	return input.Advance(i), nil
}

// backslashXChar validates a \xNN escape in char/string context: the
// first digit is limited to 0-7 so the value stays a valid code point.
func backslashXChar(s string) (int, bool) {
	if len(s) < 2 {
		return 0, false
	}
	if s[0] < '0' || s[0] > '7' {
		return 0, false
	}
	if !isHexDigit(s[1]) {
		return 0, false
	}
	return 2, true
}

// backslashXByte validates a \xNN escape in byte context: any two hex
// digits.
func backslashXByte(s string) (int, bool) {
	if len(s) < 2 || !isHexDigit(s[0]) || !isHexDigit(s[1]) {
		return 0, false
	}
	return 2, true
}

// backslashU validates a \u{...} escape: one or more hex digits, with
// underscores allowed after the first, closed by }.
func backslashU(s string) (int, bool) {
	if len(s) == 0 || s[0] != '{' {
		return 0, false
	}
	if len(s) < 2 || !isHexDigit(s[1]) {
		return 0, false
	}
	for i := 2; i < len(s); i++ {
		switch {
		case isHexDigit(s[i]) || s[i] == '_':
		case s[i] == '}':
			return i + 1, true
		default:
			return 0, false
		}
	}
	return 0, false
}

func isHexDigit(b byte) bool {
	return ('0' <= b && b <= '9') || ('a' <= b && b <= 'f') || ('A' <= b && b <= 'F')
}
