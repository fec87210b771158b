package parser

import (
	"errors"
	"fmt"

	"github.com/inlay-build/inlay/pkg/lex"
)

// FileError is a parse or lex failure attributed to a source file.
// Line is 0-indexed internally and rendered 1-indexed.
type FileError struct {
	Path string
	Line int
	Msg  string
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line+1, e.Msg)
}

// lineError carries a file-relative line while an error bubbles up
// through nested text rewrites. Offsets accumulate via addLine until
// the parser attributes the error to a file.
type lineError struct {
	line int
	msg  string
}

func (e *lineError) Error() string {
	return fmt.Sprintf("%d:%s", e.line+1, e.msg)
}

func (e *lineError) addLine(n int) *lineError {
	return &lineError{line: e.line + n, msg: e.msg}
}

func toLineError(err error) *lineError {
	var lexErr *lex.Error
	if errors.As(err, &lexErr) {
		return &lineError{line: lexErr.Line, msg: "lexing error"}
	}
	var le *lineError
	if errors.As(err, &le) {
		return le
	}
	return &lineError{msg: err.Error()}
}
