package parser

import (
	"fmt"
	"strings"

	"github.com/inlay-build/inlay/pkg/fragment"
	"github.com/inlay-build/inlay/pkg/lex"
)

// expandTarget selects how a rust! invocation is rewritten. Inside a
// global code snippet the generated call goes through a forward
// declared extern symbol, inside a closure body it indexes the
// per-crate callback table.
type expandTarget struct {
	lit      bool
	offset   *int
	fileHash uint64
}

func (p *Parser) litTarget() expandTarget {
	return expandTarget{lit: true}
}

func (p *Parser) closureTarget() expandTarget {
	return expandTarget{offset: &p.CallbacksCount, fileHash: p.fileHash}
}

// expandRustCalls rewrites every rust! invocation in a C++ snippet to
// a call through a function pointer. Each replacement keeps the same
// number of newlines as the text it replaces, so later #line math
// still points at the right source lines.
func expandRustCalls(input string, t expandTarget) (string, error) {
	result := input
	var extraDecl strings.Builder
	searchIndex := 0
	for {
		cursor := lex.NewCursor(result).Advance(searchIndex)
		begin := 0
		for !cursor.IsEmpty() {
			cursor = lex.SkipWhitespace(cursor)
			cur, isLit, err := lex.SkipLiteral(cursor)
			if err != nil {
				return "", toLineError(err)
			}
			cursor = cur
			if isLit {
				continue
			}
			if cursor.IsEmpty() {
				break
			}
			next, name, err := lex.Symbol(cursor)
			if err != nil {
				cursor = cursor.Advance(1)
				continue
			}
			begin = cursor.Off
			cursor = next
			if name != "rust" {
				continue
			}
			cursor = lex.SkipWhitespace(cursor)
			if !cursor.StartsWith("!") {
				continue
			}
			break
		}
		if cursor.IsEmpty() {
			return extraDecl.String() + result, nil
		}
		line := cursor.Line
		open, err := lex.FindDelimited(cursor, "(")
		if err != nil {
			return "", toLineError(err)
		}
		closeCur, err := lex.FindDelimited(open.Advance(1), ")")
		if err != nil {
			return "", toLineError(err)
		}
		end := closeCur.Off + 1

		inv, _, err := fragment.ParseRustInvocation(lex.NewCursor(result[begin:end]))
		if err != nil {
			return "", &lineError{line: line, msg: err.Error()}
		}

		var fnName string
		if t.lit {
			fmt.Fprintf(&extraDecl, "extern \"C\" void %s();\n", inv.Id)
			fnName = inv.Id
		} else {
			fnName = fmt.Sprintf("rust_cpp_callbacks%d[%d]", t.fileHash, *t.offset)
			*t.offset++
		}

		declTypes := make([]string, 0, len(inv.Arguments)+1)
		callArgs := make([]string, 0, len(inv.Arguments)+1)
		for _, a := range inv.Arguments {
			declTypes = append(declTypes, fmt.Sprintf("rustcpp::argument_helper<%s>::type", a.Cpp))
			callArgs = append(callArgs, a.Name)
		}

		var fnCall string
		if inv.HasRet {
			declTypes = append(declTypes, fmt.Sprintf("rustcpp::return_helper<%s>", inv.RetCpp))
			callArgs = append(callArgs, "0")
			fnCall = fmt.Sprintf("std::move(*reinterpret_cast<%s*(*)(%s)>(%s)(%s))",
				inv.RetCpp, strings.Join(declTypes, ", "), fnName, strings.Join(callArgs, ", "))
		} else {
			fnCall = fmt.Sprintf("reinterpret_cast<void (*)(%s)>(%s)(%s)",
				strings.Join(declTypes, ", "), fnName, strings.Join(callArgs, ", "))
		}

		// Keep the replaced text's newline count.
		fnCall += strings.Repeat("\n", strings.Count(result[begin:end], "\n"))
		result = result[:begin] + fnCall + result[end:]
		searchIndex = begin + len(fnCall)
	}
}
