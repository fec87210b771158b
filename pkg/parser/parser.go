// Package parser walks a Rust crate, locates cpp! and cpp_class!
// macro invocations, and collects the C++ fragments they carry with
// file and line provenance.
package parser

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"

	"github.com/inlay-build/inlay/pkg/fragment"
	"github.com/inlay-build/inlay/pkg/lex"
	"github.com/inlay-build/inlay/pkg/prefilter"
	"github.com/inlay-build/inlay/pkg/sourcemap"
)

// Parser accumulates the fragments of one crate. The zero value is
// not usable, construct with New.
type Parser struct {
	Closures       []fragment.Closure
	Classes        []fragment.Class
	Snippets       string
	CallbacksCount int

	sm       *sourcemap.SourceMap
	pre      *prefilter.Prefilter
	features map[string]bool
	fileHash uint64

	currentPath string
	modDir      string
	fileBase    int
}

// New returns a parser. Modules gated behind #[cfg(feature = "...")]
// are only followed when the feature is present in features.
func New(features map[string]bool) *Parser {
	return &Parser{
		sm:       sourcemap.New(),
		pre:      prefilter.New(prefilter.DefaultKeywords),
		features: features,
	}
}

// SourceMap returns the map of every file read so far. Spans recorded
// on collected fragments are relative to it.
func (p *Parser) SourceMap() *sourcemap.SourceMap {
	return p.sm
}

// FileHash returns a hash identifying the crate, used to name the
// per-crate callback table.
func (p *Parser) FileHash() uint64 {
	return p.fileHash
}

// SetCrateSeed sets the hash naming the callback table, for scans
// that do not go through ParseCrate.
func (p *Parser) SetCrateSeed(seed string) {
	h := fnv.New64a()
	h.Write([]byte(seed))
	p.fileHash = h.Sum64()
}

// ParseCrate reads the crate root and every module reachable from it.
func (p *Parser) ParseCrate(crateRoot string) error {
	p.SetCrateSeed(crateRoot)
	return p.parseMod(crateRoot, filepath.Dir(crateRoot))
}

// ParseFile scans a single file's text without following its module
// declarations. Used when scanning loose files rather than a crate.
func (p *Parser) ParseFile(path, src string) error {
	base := p.sm.AddFile(path, src)

	prevPath, prevBase := p.currentPath, p.fileBase
	p.currentPath, p.fileBase = path, base.Lo
	defer func() {
		p.currentPath, p.fileBase = prevPath, prevBase
	}()

	return p.findMacros(src)
}

func (p *Parser) parseMod(modPath, submodDir string) error {
	data, err := os.ReadFile(modPath)
	if err != nil {
		return fmt.Errorf("cannot open file %s: %w", modPath, err)
	}
	src := string(data)
	base := p.sm.AddFile(modPath, src)

	prevPath, prevDir, prevBase := p.currentPath, p.modDir, p.fileBase
	p.currentPath, p.modDir, p.fileBase = modPath, submodDir, base.Lo
	defer func() {
		p.currentPath, p.modDir, p.fileBase = prevPath, prevDir, prevBase
	}()

	if err := p.findMacros(src); err != nil {
		return err
	}
	return p.walkModules(src)
}

// findMacros scans one file's text for cpp! and cpp_class! macro
// invocations. The prefilter skips files that cannot contain any.
func (p *Parser) findMacros(source string) error {
	if !p.pre.Match([]byte(source)) {
		return nil
	}
	cursor := lex.NewCursor(source)
	for !cursor.IsEmpty() {
		cursor = lex.SkipWhitespace(cursor)
		cur, isLit, err := lex.SkipLiteral(cursor)
		if err != nil {
			return p.lexError(err)
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
		cursor = next
		if name != "cpp" && name != "cpp_class" {
			continue
		}
		cursor = lex.SkipWhitespace(cursor)
		if !cursor.StartsWith("!") {
			continue
		}
		cursor = lex.SkipWhitespace(cursor.Advance(1))
		var closing string
		switch {
		case cursor.StartsWith("("):
			closing = ")"
		case cursor.StartsWith("["):
			closing = "]"
		case cursor.StartsWith("{"):
			closing = "}"
		default:
			continue
		}
		closeCur, err := lex.FindDelimited(cursor.Advance(1), closing)
		if err != nil {
			return p.lexError(err)
		}
		// Truncate a copy to the macro body, delimiters included.
		body := cursor
		body.Rest = body.Rest[:closeCur.Off+1-body.Off]
		if name == "cpp" {
			err = p.handleCpp(body)
		} else {
			err = p.handleClass(body)
		}
		if err != nil {
			le := toLineError(err)
			return &FileError{Path: p.currentPath, Line: le.line, Msg: le.msg}
		}
		cursor = closeCur
	}
	return nil
}

func (p *Parser) lexError(err error) error {
	le := toLineError(err)
	return &FileError{Path: p.currentPath, Line: le.line, Msg: le.msg}
}

func (p *Parser) handleCpp(x lex.Cursor) error {
	m, err := fragment.ParseMacro(x)
	if err != nil {
		return err
	}
	if m.Closure != nil {
		c := m.Closure
		begin := x.Advance(c.BodySpan.Lo - x.Off)
		c.CallbackOffset = p.CallbacksCount
		expanded, err := expandRustCalls(c.BodyText, p.closureTarget())
		if err != nil {
			return toLineError(err).addLine(begin.Line)
		}
		c.BodyText = LineDirective(p.currentPath, begin) + expanded
		c.BodySpan = fragment.Span{Lo: c.BodySpan.Lo + p.fileBase, Hi: c.BodySpan.Hi + p.fileBase}
		p.Closures = append(p.Closures, *c)
		return nil
	}
	begin := x.Advance(m.LitSpan.Lo - x.Off)
	snip, err := expandRustCalls(LineDirective(p.currentPath, begin)+m.Lit, p.litTarget())
	if err != nil {
		return toLineError(err).addLine(begin.Line)
	}
	p.Snippets += "\n" + snip
	return nil
}

func (p *Parser) handleClass(x lex.Cursor) error {
	cls, err := fragment.ParseClass(x)
	if err != nil {
		return err
	}
	cls.Line = x.Line + 1
	cls.Span = fragment.Span{
		Lo: x.Off + p.fileBase,
		Hi: x.Off + len(x.Rest) + p.fileBase,
	}
	p.Classes = append(p.Classes, *cls)
	return nil
}

// LineDirective renders a #line directive pointing at cur's position
// in path, padded so column numbers in compiler diagnostics line up
// with the original source.
func LineDirective(path string, cur lex.Cursor) string {
	escaped := strings.ReplaceAll(path, `\`, `\\`)
	return fmt.Sprintf("#line %d \"%s\"\n", cur.Line+1, escaped) + strings.Repeat(" ", cur.Col)
}
