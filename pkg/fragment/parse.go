package fragment

import (
	"fmt"
	"strings"

	"github.com/inlay-build/inlay/pkg/lex"
)

func parseError(c lex.Cursor, format string, args ...any) error {
	return fmt.Errorf("line %d: %s", c.Line+1, fmt.Sprintf(format, args...))
}

func punct(c lex.Cursor, s string) (lex.Cursor, error) {
	c = lex.SkipWhitespace(c)
	if !c.StartsWith(s) {
		return lex.Cursor{}, parseError(c, "expected %q", s)
	}
	return c.Advance(len(s)), nil
}

func keyword(c lex.Cursor, kw string) (lex.Cursor, error) {
	c = lex.SkipWhitespace(c)
	next, name, err := lex.Symbol(c)
	if err != nil || name != kw {
		return lex.Cursor{}, parseError(c, "expected %q", kw)
	}
	return next, nil
}

func ident(c lex.Cursor) (lex.Cursor, string, error) {
	c = lex.SkipWhitespace(c)
	return lex.Symbol(c)
}

// stringLit consumes a cooked or raw string literal and returns its
// decoded value.
func stringLit(c lex.Cursor) (lex.Cursor, string, error) {
	c = lex.SkipWhitespace(c)
	after, ok, err := lex.SkipLiteral(c)
	if err != nil {
		return lex.Cursor{}, "", err
	}
	if !ok {
		return lex.Cursor{}, "", parseError(c, "expected string literal")
	}
	raw := c.Rest[:c.Len()-after.Len()]
	val, err := unquote(raw)
	if err != nil {
		return lex.Cursor{}, "", parseError(c, "%v", err)
	}
	return after, val, nil
}

func unquote(raw string) (string, error) {
	if strings.HasPrefix(raw, "r") {
		inner := strings.TrimLeft(raw[1:], "#")
		hashes := len(raw) - 1 - len(inner)
		if len(inner) < 2 || inner[0] != '"' {
			return "", fmt.Errorf("malformed raw string %q", raw)
		}
		return inner[1 : len(inner)-1-hashes], nil
	}
	if len(raw) < 2 || raw[0] != '"' {
		return "", fmt.Errorf("expected string literal, got %q", raw)
	}
	body := raw[1 : len(raw)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] != '\\' {
			b.WriteByte(body[i])
			continue
		}
		i++
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case '0':
			b.WriteByte(0)
		case '\\', '\'', '"':
			b.WriteByte(body[i])
		case 'x':
			var v byte
			if _, err := fmt.Sscanf(body[i+1:i+3], "%02x", &v); err != nil {
				return "", fmt.Errorf("malformed \\x escape in %q", raw)
			}
			b.WriteByte(v)
			i += 2
		case 'u':
			end := strings.IndexByte(body[i:], '}')
			if end < 0 || body[i+1] != '{' {
				return "", fmt.Errorf("malformed \\u escape in %q", raw)
			}
			var v rune
			digits := strings.ReplaceAll(body[i+2:i+end], "_", "")
			if _, err := fmt.Sscanf(digits, "%x", &v); err != nil {
				return "", fmt.Errorf("malformed \\u escape in %q", raw)
			}
			b.WriteRune(v)
			i += end
		case '\n':
			for i+1 < len(body) && (body[i+1] == ' ' || body[i+1] == '\t' || body[i+1] == '\n' || body[i+1] == '\r') {
				i++
			}
		default:
			return "", fmt.Errorf("unknown escape \\%c in %q", body[i], raw)
		}
	}
	return b.String(), nil
}

// skipType consumes one Rust type followed by the `as` keyword,
// returning the type's source text. Angle brackets, parentheses and
// square brackets nest, and `as` only terminates at nesting depth
// zero.
func skipType(c lex.Cursor) (lex.Cursor, string, error) {
	start := lex.SkipWhitespace(c)
	cur := start
	depth := 0
	for !cur.IsEmpty() {
		cur = lex.SkipWhitespace(cur)
		next, ok, err := lex.SkipLiteral(cur)
		if err != nil {
			return lex.Cursor{}, "", err
		}
		if ok {
			cur = next
			continue
		}
		if cur.IsEmpty() {
			break
		}
		if next, name, err := lex.Symbol(cur); err == nil {
			if depth == 0 && name == "as" {
				text := strings.TrimSpace(start.Rest[:start.Len()-cur.Len()])
				if text == "" {
					return lex.Cursor{}, "", parseError(start, "expected type before \"as\"")
				}
				return next, text, nil
			}
			cur = next
			continue
		}
		// The arrow of a function type is one token, not a closing `>`.
		if cur.StartsWith("->") {
			cur = cur.Advance(2)
			continue
		}
		switch cur.Rest[0] {
		case '(', '[', '<':
			depth++
		case ')', ']', '>':
			depth--
		}
		cur = cur.Advance(1)
	}
	return lex.Cursor{}, "", parseError(start, "expected type followed by \"as\"")
}

func parseCapture(c lex.Cursor) (lex.Cursor, Capture, error) {
	var capture Capture
	next, name, err := ident(c)
	if err != nil {
		return lex.Cursor{}, Capture{}, err
	}
	if name == "mut" {
		capture.Mutable = true
		next, name, err = ident(next)
		if err != nil {
			return lex.Cursor{}, Capture{}, err
		}
	}
	capture.Name = name
	next, err = keyword(next, "as")
	if err != nil {
		return lex.Cursor{}, Capture{}, err
	}
	next, capture.Cpp, err = stringLit(next)
	if err != nil {
		return lex.Cursor{}, Capture{}, err
	}
	return next, capture, nil
}

// parseCaptures parses a bracketed capture list. A trailing comma is
// allowed.
func parseCaptures(c lex.Cursor) (lex.Cursor, []Capture, error) {
	cur, err := punct(c, "[")
	if err != nil {
		return lex.Cursor{}, nil, err
	}
	var caps []Capture
	for {
		cur = lex.SkipWhitespace(cur)
		if cur.StartsWith("]") {
			return cur.Advance(1), caps, nil
		}
		var capture Capture
		cur, capture, err = parseCapture(cur)
		if err != nil {
			return lex.Cursor{}, nil, err
		}
		caps = append(caps, capture)
		cur = lex.SkipWhitespace(cur)
		if cur.StartsWith(",") {
			cur = cur.Advance(1)
			continue
		}
		if !cur.StartsWith("]") {
			return lex.Cursor{}, nil, parseError(cur, "expected \",\" or \"]\" in capture list")
		}
	}
}

// parseRetTy parses an optional `-> Type as "ctype"` return clause.
// Absent, the closure returns the unit type as C++ void.
func parseRetTy(c lex.Cursor) (lex.Cursor, string, string, error) {
	cur := lex.SkipWhitespace(c)
	if !cur.StartsWith("->") {
		return cur, "()", "void", nil
	}
	cur, rustTy, err := skipType(cur.Advance(2))
	if err != nil {
		return lex.Cursor{}, "", "", err
	}
	cur, cppTy, err := stringLit(cur)
	if err != nil {
		return lex.Cursor{}, "", "", err
	}
	return cur, rustTy, cppTy, nil
}

// codeBlock parses either a string literal holding code or a
// brace-delimited block, returning the code text and the span it
// occupies in the source.
func codeBlock(c lex.Cursor) (lex.Cursor, string, Span, error) {
	cur := lex.SkipWhitespace(c)
	if cur.StartsWith("{") {
		inner := cur.Advance(1)
		closer, err := lex.FindDelimited(inner, "}")
		if err != nil {
			return lex.Cursor{}, "", Span{}, err
		}
		body := inner.Rest[:inner.Len()-closer.Len()]
		return closer.Advance(1), body, Span{Lo: inner.Off, Hi: closer.Off}, nil
	}
	after, val, err := stringLit(cur)
	if err != nil {
		return lex.Cursor{}, "", Span{}, err
	}
	return after, val, Span{Lo: cur.Off, Hi: after.Off}, nil
}

// parseClosure parses `[captures] -> Ret as "ctype" { body }` with an
// optional leading unsafe keyword.
func parseClosure(c lex.Cursor) (lex.Cursor, *Closure, error) {
	cur := lex.SkipWhitespace(c)
	if next, name, err := ident(cur); err == nil && name == "unsafe" {
		cur = next
	}
	cur, caps, err := parseCaptures(cur)
	if err != nil {
		return lex.Cursor{}, nil, err
	}
	cur, rustTy, cppTy, err := parseRetTy(cur)
	if err != nil {
		return lex.Cursor{}, nil, err
	}
	cur, body, span, err := codeBlock(cur)
	if err != nil {
		return lex.Cursor{}, nil, err
	}
	return cur, &Closure{
		Sig: ClosureSig{
			Captures: caps,
			RetRust:  rustTy,
			RetCpp:   cppTy,
			Body:     body,
		},
		BodyText: body,
		BodySpan: span,
	}, nil
}

var macroDelims = map[string]string{"(": ")", "[": "]", "{": "}"}

func openMacroBody(c lex.Cursor) (lex.Cursor, string, error) {
	cur := lex.SkipWhitespace(c)
	for open, closing := range macroDelims {
		if cur.StartsWith(open) {
			return cur.Advance(1), closing, nil
		}
	}
	return lex.Cursor{}, "", parseError(cur, "expected macro delimiter")
}

// ParseMacro parses a full cpp! macro body, delimiters included. A
// body opening with a capture list is a closure, anything else is a
// literal code fragment.
func ParseMacro(input lex.Cursor) (*Macro, error) {
	cur, closeTok, err := openMacroBody(input)
	if err != nil {
		return nil, err
	}
	peek := lex.SkipWhitespace(cur)
	isClosure := peek.StartsWith("[")
	if next, name, err := ident(peek); err == nil && name == "unsafe" {
		isClosure = lex.SkipWhitespace(next).StartsWith("[")
	}
	var m Macro
	if isClosure {
		cur, m.Closure, err = parseClosure(cur)
	} else {
		cur, m.Lit, m.LitSpan, err = codeBlock(cur)
	}
	if err != nil {
		return nil, err
	}
	if _, err := punct(cur, closeTok); err != nil {
		return nil, err
	}
	return &m, nil
}

// parseAttr parses one #[...] attribute and appends any derive names
// it carries.
func parseAttr(c lex.Cursor, derives []string) (lex.Cursor, []string, error) {
	cur, err := punct(c, "#")
	if err != nil {
		return lex.Cursor{}, nil, err
	}
	if cur, err = punct(cur, "["); err != nil {
		return lex.Cursor{}, nil, err
	}
	cur, name, err := ident(cur)
	if err != nil {
		return lex.Cursor{}, nil, err
	}
	cur = lex.SkipWhitespace(cur)
	switch {
	case cur.StartsWith("("):
		inner := cur.Advance(1)
		closer, err := lex.FindDelimited(inner, ")")
		if err != nil {
			return lex.Cursor{}, nil, err
		}
		if name == "derive" {
			for _, d := range strings.Split(inner.Rest[:inner.Len()-closer.Len()], ",") {
				if d = strings.TrimSpace(d); d != "" {
					derives = append(derives, d)
				}
			}
		}
		cur = closer.Advance(1)
	case cur.StartsWith("="):
		cur = lex.SkipWhitespace(cur.Advance(1))
		next, ok, err := lex.SkipLiteral(cur)
		if err != nil || !ok {
			return lex.Cursor{}, nil, parseError(cur, "expected attribute value")
		}
		cur = next
	}
	if cur, err = punct(cur, "]"); err != nil {
		return lex.Cursor{}, nil, err
	}
	return cur, derives, nil
}

// ParseClass parses a full cpp_class! macro body, delimiters included:
// attributes, optional visibility, then `unsafe struct Name as "Type"`.
func ParseClass(input lex.Cursor) (*Class, error) {
	cur, closeTok, err := openMacroBody(input)
	if err != nil {
		return nil, err
	}
	var cls Class
	for {
		cur = lex.SkipWhitespace(cur)
		if !cur.StartsWith("#") {
			break
		}
		if cur, cls.Derives, err = parseAttr(cur, cls.Derives); err != nil {
			return nil, err
		}
	}
	if next, name, err := ident(cur); err == nil && name == "pub" {
		cls.Public = true
		cur = lex.SkipWhitespace(next)
		if cur.StartsWith("(") {
			closer, err := lex.FindDelimited(cur.Advance(1), ")")
			if err != nil {
				return nil, err
			}
			cur = closer.Advance(1)
		}
	}
	if cur, err = keyword(cur, "unsafe"); err != nil {
		return nil, err
	}
	if cur, err = keyword(cur, "struct"); err != nil {
		return nil, err
	}
	if cur, cls.Name, err = ident(cur); err != nil {
		return nil, err
	}
	if cur, err = keyword(cur, "as"); err != nil {
		return nil, err
	}
	if cur, cls.Cpp, err = stringLit(cur); err != nil {
		return nil, err
	}
	if _, err := punct(cur, closeTok); err != nil {
		return nil, err
	}
	return &cls, nil
}

// ParseRustInvocation parses one rust! invocation starting at the
// `rust` keyword and returns it with the cursor past the closing
// parenthesis.
func ParseRustInvocation(input lex.Cursor) (*RustInvocation, lex.Cursor, error) {
	begin := lex.SkipWhitespace(input)
	cur, err := keyword(begin, "rust")
	if err != nil {
		return nil, lex.Cursor{}, err
	}
	if cur, err = punct(cur, "!"); err != nil {
		return nil, lex.Cursor{}, err
	}
	if cur, err = punct(cur, "("); err != nil {
		return nil, lex.Cursor{}, err
	}
	var inv RustInvocation
	if cur, inv.Id, err = ident(cur); err != nil {
		return nil, lex.Cursor{}, err
	}
	if cur, err = punct(cur, "["); err != nil {
		return nil, lex.Cursor{}, err
	}
	for {
		cur = lex.SkipWhitespace(cur)
		if cur.StartsWith("]") {
			cur = cur.Advance(1)
			break
		}
		var arg Argument
		if cur, arg.Name, err = ident(cur); err != nil {
			return nil, lex.Cursor{}, err
		}
		if cur, err = punct(cur, ":"); err != nil {
			return nil, lex.Cursor{}, err
		}
		if cur, _, err = skipType(cur); err != nil {
			return nil, lex.Cursor{}, err
		}
		if cur, arg.Cpp, err = stringLit(cur); err != nil {
			return nil, lex.Cursor{}, err
		}
		inv.Arguments = append(inv.Arguments, arg)
		cur = lex.SkipWhitespace(cur)
		if cur.StartsWith(",") {
			cur = cur.Advance(1)
		}
	}
	cur = lex.SkipWhitespace(cur)
	if cur.StartsWith("->") {
		if cur, _, err = skipType(cur.Advance(2)); err != nil {
			return nil, lex.Cursor{}, err
		}
		if cur, inv.RetCpp, err = stringLit(cur); err != nil {
			return nil, lex.Cursor{}, err
		}
		inv.HasRet = true
	}
	if cur, err = punct(cur, "{"); err != nil {
		return nil, lex.Cursor{}, err
	}
	closer, err := lex.FindDelimited(cur, "}")
	if err != nil {
		return nil, lex.Cursor{}, err
	}
	end, err := punct(closer.Advance(1), ")")
	if err != nil {
		return nil, lex.Cursor{}, err
	}
	inv.Span = Span{Lo: begin.Off, Hi: end.Off}
	return &inv, end, nil
}

// FindAllRustInvocations scans C++ text for rust! escape hatch
// invocations. The scan lexes the text the same way expansion does, so
// a rust! mention inside a comment or string literal is never
// collected. Text that mentions rust without forming a well-formed
// invocation is skipped.
func FindAllRustInvocations(input lex.Cursor) []RustInvocation {
	var out []RustInvocation
	cur := input
	for !cur.IsEmpty() {
		cur = lex.SkipWhitespace(cur)
		next, isLit, err := lex.SkipLiteral(cur)
		if err != nil {
			return out
		}
		cur = next
		if isLit {
			continue
		}
		if cur.IsEmpty() {
			break
		}
		at := cur
		sym, name, err := lex.Symbol(cur)
		if err != nil {
			cur = cur.Advance(1)
			continue
		}
		cur = sym
		if name != "rust" {
			continue
		}
		inv, after, err := ParseRustInvocation(at)
		if err != nil {
			continue
		}
		out = append(out, *inv)
		cur = after
	}
	return out
}
