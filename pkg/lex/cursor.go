// Package lex implements the lexical scanner used to locate embedded
// C++ fragments in Rust source text.
//
// The scanner does not tokenize whole files. It knows just enough of
// the Rust lexical grammar to move through source text safely: string,
// char, byte and raw-string literals, line comments and nested block
// comments, identifiers (including raw identifiers), and balanced
// delimiter pairs. Every operation is a pure function over an immutable
// Cursor value, so callers backtrack by keeping the cursor they had.
package lex

import (
	"fmt"
	"strings"
)

// Cursor is an immutable view over the remaining source text of one
// file, together with the position of that text within the file.
// Line and Col are 0-indexed; user-facing output adds 1 to Line.
type Cursor struct {
	Rest string
	Off  int
	Line int
	Col  int
}

// NewCursor returns a cursor at the start of source.
func NewCursor(source string) Cursor {
	return Cursor{Rest: source}
}

// Advance returns a copy of the cursor moved forward by n bytes.
// Newlines within the consumed window bump Line; Col becomes the number
// of bytes after the last consumed newline, or grows by n when the
// window holds no newline.
func (c Cursor) Advance(n int) Cursor {
	consumed := c.Rest[:n]
	next := Cursor{
		Rest: c.Rest[n:],
		Off:  c.Off + n,
		Line: c.Line,
		Col:  c.Col,
	}
	if k := strings.Count(consumed, "\n"); k > 0 {
		next.Line += k
		next.Col = n - strings.LastIndexByte(consumed, '\n') - 1
	} else {
		next.Col += n
	}
	return next
}

// StartsWith reports whether the remaining text begins with s.
func (c Cursor) StartsWith(s string) bool {
	return strings.HasPrefix(c.Rest, s)
}

// Find returns the byte index of the first occurrence of b in the
// remaining text, or -1 when absent.
func (c Cursor) Find(b byte) int {
	return strings.IndexByte(c.Rest, b)
}

// IsEmpty reports whether any text remains.
func (c Cursor) IsEmpty() bool {
	return len(c.Rest) == 0
}

// Len returns the number of remaining bytes.
func (c Cursor) Len() int {
	return len(c.Rest)
}

// Error is a scan failure. It carries only the 0-indexed line where
// scanning went wrong; the caller owns the file path and is responsible
// for formatting the final diagnostic.
type Error struct {
	Line int
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: lexing error", e.Line+1)
}

func errAt(c Cursor) error {
	return &Error{Line: c.Line}
}
