// Package prefilter decides cheaply whether a source file can contain
// any of the macros worth a full lexical scan.
package prefilter

import (
	"github.com/cloudflare/ahocorasick"
)

// Prefilter uses Aho-Corasick for efficient keyword matching.
type Prefilter struct {
	matcher  *ahocorasick.Matcher
	keywords []string
}

// DefaultKeywords are the macro names whose presence makes a file
// worth scanning.
var DefaultKeywords = []string{"cpp", "cpp_class", "rust"}

// New creates a prefilter over the given keywords. With no keywords
// every input matches.
func New(keywords []string) *Prefilter {
	pf := &Prefilter{keywords: keywords}
	if len(keywords) > 0 {
		pf.matcher = ahocorasick.NewStringMatcher(keywords)
	}
	return pf
}

// Match reports whether content contains at least one keyword.
func (pf *Prefilter) Match(content []byte) bool {
	if pf.matcher == nil {
		return true
	}
	return len(pf.matcher.Match(content)) > 0
}

// Hits returns the keywords present in content.
func (pf *Prefilter) Hits(content []byte) []string {
	if pf.matcher == nil {
		return nil
	}
	var hits []string
	for _, idx := range pf.matcher.Match(content) {
		hits = append(hits, pf.keywords[idx])
	}
	return hits
}
