package lex

// FindDelimited advances until the remaining text starts with needle at
// delimiter-nesting depth zero relative to the starting position.
// Whitespace, comments and literal contents are skipped, so a needle or
// delimiter character inside a string or comment is never matched.
// A closing delimiter that does not match the innermost open one is an
// error, as is exhausting the input before finding the needle.
func FindDelimited(input Cursor, needle string) (Cursor, error) {
	var stack []string
	for !input.IsEmpty() {
		input = SkipWhitespace(input)
		cur, _, err := SkipLiteral(input)
		if err != nil {
			return Cursor{}, err
		}
		input = cur
		if input.IsEmpty() {
			break
		}
		switch {
		case len(stack) == 0 && input.StartsWith(needle):
			return input, nil
		case len(stack) > 0 && input.StartsWith(stack[len(stack)-1]):
			stack = stack[:len(stack)-1]
		case input.StartsWith("("):
			stack = append(stack, ")")
		case input.StartsWith("["):
			stack = append(stack, "]")
		case input.StartsWith("{"):
			stack = append(stack, "}")
		case input.StartsWith(")") || input.StartsWith("]") || input.StartsWith("}"):
			return Cursor{}, errAt(input)
		}
		input = input.Advance(1)
	}
	return Cursor{}, errAt(input)
}
