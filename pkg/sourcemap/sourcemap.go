// Package sourcemap maintains a mapping between byte spans and the
// source files they were read from, so fragments collected across a
// whole module tree can be reported with file, line and column info.
package sourcemap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/inlay-build/inlay/pkg/fragment"
)

// filePadding separates consecutive files' span ranges so the low
// offset of one file never equals the high offset of the previous one.
const filePadding = 1

// LocInfo is the on-disk location of a span. Line is 1-indexed,
// Col is 0-indexed.
type LocInfo struct {
	Path string
	Line int
	Col  int
}

func (l LocInfo) String() string {
	return fmt.Sprintf("%s:%d:%d", l.Path, l.Line, l.Col)
}

type fileInfo struct {
	span  fragment.Span
	path  string
	src   string
	lines []int
}

// SourceMap allocates a disjoint span range to every registered file
// and resolves map-relative spans back to files and locations.
type SourceMap struct {
	files  []fileInfo
	offset int
}

func New() *SourceMap {
	return &SourceMap{}
}

// AddFile registers a file's source text and returns the map-relative
// span covering it.
func (m *SourceMap) AddFile(path, src string) fragment.Span {
	span := fragment.Span{Lo: m.offset, Hi: m.offset + len(src)}
	m.offset += len(src) + filePadding
	m.files = append(m.files, fileInfo{
		span:  span,
		path:  path,
		src:   src,
		lines: lineOffsets(src),
	})
	return span
}

// FileRecord is one registered file, in registration order.
type FileRecord struct {
	Path string
	Size int64
}

// Files lists every registered file.
func (m *SourceMap) Files() []FileRecord {
	out := make([]FileRecord, len(m.files))
	for i := range m.files {
		out[i] = FileRecord{Path: m.files[i].path, Size: int64(len(m.files[i].src))}
	}
	return out
}

func (m *SourceMap) localFileInfo(span fragment.Span) (*fileInfo, fragment.Span, error) {
	if span.Lo > span.Hi {
		return nil, fragment.Span{}, fmt.Errorf("span [%d, %d) has negative length", span.Lo, span.Hi)
	}
	for i := range m.files {
		fi := &m.files[i]
		if span.Lo >= fi.span.Lo && span.Hi <= fi.span.Hi {
			return fi, fragment.Span{Lo: span.Lo - fi.span.Lo, Hi: span.Hi - fi.span.Lo}, nil
		}
	}
	return nil, fragment.Span{}, fmt.Errorf("span [%d, %d) is not part of any registered file", span.Lo, span.Hi)
}

// Filename returns the path of the file containing span.
func (m *SourceMap) Filename(span fragment.Span) (string, error) {
	fi, _, err := m.localFileInfo(span)
	if err != nil {
		return "", err
	}
	return fi.path, nil
}

// SourceText returns the text span covers.
func (m *SourceMap) SourceText(span fragment.Span) (string, error) {
	fi, local, err := m.localFileInfo(span)
	if err != nil {
		return "", err
	}
	return fi.src[local.Lo:local.Hi], nil
}

// LocInfo resolves the start of span to a file, line and column.
func (m *SourceMap) LocInfo(span fragment.Span) (LocInfo, error) {
	fi, local, err := m.localFileInfo(span)
	if err != nil {
		return LocInfo{}, err
	}
	line, col := offsetLineCol(fi.lines, local.Lo)
	return LocInfo{Path: fi.path, Line: line, Col: col}, nil
}

func offsetLineCol(lines []int, off int) (int, int) {
	i := sort.SearchInts(lines, off)
	if i < len(lines) && lines[i] == off {
		return i + 1, 0
	}
	return i, off - lines[i-1]
}

func lineOffsets(s string) []int {
	lines := []int{0}
	prev := 0
	for {
		i := strings.IndexByte(s[prev:], '\n')
		if i < 0 {
			return lines
		}
		prev += i + 1
		lines = append(lines, prev)
	}
}
