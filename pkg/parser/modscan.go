package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/inlay-build/inlay/pkg/lex"
)

// pendingAttrs carries attributes seen immediately before a mod item.
type pendingAttrs struct {
	path string
	skip bool
}

// walkModules scans one file's text for module declarations and
// recurses into the files they name. Inline modules only adjust the
// directory submodules resolve against, file modules are read and
// parsed in turn. #[path = "..."] overrides the file lookup and
// #[cfg(feature = "...")] gates it on the configured features.
func (p *Parser) walkModules(source string) error {
	cursor := lex.NewCursor(source)
	var pending pendingAttrs
	depth := 0
	type inlineMod struct {
		dir   string
		depth int
	}
	var inline []inlineMod

	for !cursor.IsEmpty() {
		cursor = lex.SkipWhitespace(cursor)
		cur, isLit, err := lex.SkipLiteral(cursor)
		if err != nil {
			return p.lexError(err)
		}
		cursor = cur
		if isLit {
			pending = pendingAttrs{}
			continue
		}
		if cursor.IsEmpty() {
			break
		}
		if cursor.StartsWith("#") {
			after, attrs, err := p.readAttr(cursor, pending)
			if err == nil {
				cursor = after
				pending = attrs
				continue
			}
			cursor = cursor.Advance(1)
			continue
		}
		next, name, err := lex.Symbol(cursor)
		if err != nil {
			switch {
			case cursor.StartsWith("{"):
				depth++
			case cursor.StartsWith("}"):
				depth--
				for len(inline) > 0 && inline[len(inline)-1].depth >= depth {
					p.modDir = inline[len(inline)-1].dir
					inline = inline[:len(inline)-1]
				}
			}
			pending = pendingAttrs{}
			cursor = cursor.Advance(1)
			continue
		}
		cursor = next
		if name == "pub" {
			// Visibility sits between attributes and the item.
			continue
		}
		if name != "mod" {
			pending = pendingAttrs{}
			continue
		}

		attrs := pending
		pending = pendingAttrs{}
		afterMod, modName, err := lex.Symbol(lex.SkipWhitespace(cursor))
		if err != nil {
			continue
		}
		cursor = afterMod
		cursor = lex.SkipWhitespace(cursor)
		switch {
		case cursor.StartsWith("{"):
			inline = append(inline, inlineMod{dir: p.modDir, depth: depth})
			p.modDir = filepath.Join(p.modDir, modName)
			depth++
			cursor = cursor.Advance(1)
		case cursor.StartsWith(";"):
			cursor = cursor.Advance(1)
			if attrs.skip {
				continue
			}
			if err := p.resolveModule(modName, attrs.path); err != nil {
				return err
			}
		}
	}
	return nil
}

// readAttr consumes one #[...] attribute, folding path and cfg
// information into the pending set.
func (p *Parser) readAttr(c lex.Cursor, pending pendingAttrs) (lex.Cursor, pendingAttrs, error) {
	cur := lex.SkipWhitespace(c.Advance(1))
	if !cur.StartsWith("[") {
		return lex.Cursor{}, pendingAttrs{}, fmt.Errorf("not an attribute")
	}
	inner := cur.Advance(1)
	closer, err := lex.FindDelimited(inner, "]")
	if err != nil {
		return lex.Cursor{}, pendingAttrs{}, err
	}
	text := inner.Rest[:closer.Off-inner.Off]

	if path, ok := attrValue(text, "path"); ok {
		pending.path = path
	}
	if feature, ok := cfgFeature(text); ok && !p.features[feature] {
		pending.skip = true
	}
	return closer.Advance(1), pending, nil
}

// attrValue extracts the string value of a `name = "value"` attribute.
func attrValue(text, name string) (string, bool) {
	rest := strings.TrimSpace(text)
	if !strings.HasPrefix(rest, name) {
		return "", false
	}
	rest = strings.TrimSpace(rest[len(name):])
	if !strings.HasPrefix(rest, "=") {
		return "", false
	}
	rest = strings.TrimSpace(rest[1:])
	if len(rest) < 2 || rest[0] != '"' || rest[len(rest)-1] != '"' {
		return "", false
	}
	return rest[1 : len(rest)-1], true
}

// cfgFeature extracts the feature name of a `cfg(feature = "...")`
// attribute.
func cfgFeature(text string) (string, bool) {
	rest := strings.TrimSpace(text)
	if !strings.HasPrefix(rest, "cfg") {
		return "", false
	}
	rest = strings.TrimSpace(rest[3:])
	if len(rest) < 2 || rest[0] != '(' || rest[len(rest)-1] != ')' {
		return "", false
	}
	return attrValue(rest[1:len(rest)-1], "feature")
}

// resolveModule finds the file backing `mod name;` and parses it.
func (p *Parser) resolveModule(name, pathAttr string) error {
	if pathAttr != "" {
		modPath := filepath.Join(p.modDir, pathAttr)
		return p.parseMod(modPath, filepath.Dir(p.modDir))
	}

	subdir := filepath.Join(p.modDir, name)
	if subdirMod := filepath.Join(subdir, "mod.rs"); isFile(subdirMod) {
		return p.parseMod(subdirMod, subdir)
	}
	if adjacent := filepath.Join(p.modDir, name+".rs"); isFile(adjacent) {
		return p.parseMod(adjacent, subdir)
	}
	return fmt.Errorf("no file with module definition for `mod %s` in file %s", name, p.currentPath)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
