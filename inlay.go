// Package inlay extracts C++ fragments embedded in Rust source.
//
// Rust code embeds C++ through the cpp! and cpp_class! macros. Inlay
// scans a crate (or a loose directory of .rs files), collects every
// fragment with file and line provenance, and renders them into a
// single C++ translation unit ready for compilation.
//
// # Basic Usage
//
// Create an extractor and scan a crate from its root file:
//
//	ex, err := inlay.NewExtractor()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ex.Close()
//
//	result, err := ex.ScanCrate("src/lib.rs")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, c := range result.Closures {
//	    fmt.Printf("closure %s with %d captures\n", c.Sig.ExternName(), len(c.Sig.Captures))
//	}
//
// # Generating C++
//
// Render the collected fragments to a translation unit:
//
//	if err := ex.Generate(result, "cpp_closures.cpp"); err != nil {
//	    log.Fatal(err)
//	}
package inlay

import (
	"context"
	"fmt"
	"sync"

	"github.com/inlay-build/inlay/pkg/enum"
	"github.com/inlay-build/inlay/pkg/fragment"
	"github.com/inlay-build/inlay/pkg/gen"
	"github.com/inlay-build/inlay/pkg/lex"
	"github.com/inlay-build/inlay/pkg/parser"
	"github.com/inlay-build/inlay/pkg/store"
)

// Re-export commonly used types for convenience.
// Users can import just "github.com/inlay-build/inlay" without subpackages.
type (
	// Closure is a cpp! invocation with a capture list.
	Closure = fragment.Closure

	// ClosureSig is the callable signature of a cpp! closure.
	ClosureSig = fragment.ClosureSig

	// Capture is one entry of a closure capture list.
	Capture = fragment.Capture

	// Class is a cpp_class! declaration.
	Class = fragment.Class

	// RustInvocation is a rust! escape hatch found inside a fragment.
	RustInvocation = fragment.RustInvocation

	// FileError is a scan failure tied to a source file and line.
	FileError = parser.FileError
)

// Result holds everything one scan collected.
type Result struct {
	// Closures are the cpp! closures, in scan order.
	Closures []Closure

	// Classes are the cpp_class! declarations, in scan order.
	Classes []Class

	// Snippets is the accumulated global C++ code, #line directives
	// included.
	Snippets string

	// Callbacks is the number of rust! callback slots the generated
	// code must provide.
	Callbacks int

	// FileHash identifies the crate and names its callback table.
	FileHash uint64

	// Files lists every source file the scan read.
	Files []store.File
}

// Extractor scans Rust source for embedded C++ fragments.
type Extractor struct {
	config *extractorConfig
	store  store.Store
}

// extractorConfig holds extractor configuration.
type extractorConfig struct {
	features      map[string]bool
	storePath     string
	includeHidden bool
	maxFileSize   int64
}

// Option configures an Extractor.
type Option func(*extractorConfig)

// WithFeatures marks cargo features as enabled. Modules gated behind
// #[cfg(feature = "...")] are only followed for enabled features.
func WithFeatures(features ...string) Option {
	return func(c *extractorConfig) {
		for _, f := range features {
			c.features[f] = true
		}
	}
}

// WithStore persists scan results to the database at path instead of
// the default in-memory store.
func WithStore(path string) Option {
	return func(c *extractorConfig) {
		c.storePath = path
	}
}

// WithHiddenFiles includes hidden files when scanning directories.
// Only applies to ScanDir.
func WithHiddenFiles() Option {
	return func(c *extractorConfig) {
		c.includeHidden = true
	}
}

// WithMaxFileSize skips files larger than size bytes when scanning
// directories. Only applies to ScanDir.
func WithMaxFileSize(size int64) Option {
	return func(c *extractorConfig) {
		c.maxFileSize = size
	}
}

// NewExtractor creates an Extractor with the given options.
//
// By default the extractor:
//   - Follows no feature-gated modules (enable with WithFeatures)
//   - Persists to an in-memory store (override with WithStore)
func NewExtractor(opts ...Option) (*Extractor, error) {
	config := &extractorConfig{
		features:  make(map[string]bool),
		storePath: ":memory:",
	}
	for _, opt := range opts {
		opt(config)
	}

	st, err := store.New(store.Config{Path: config.storePath})
	if err != nil {
		return nil, fmt.Errorf("creating store: %w", err)
	}

	return &Extractor{config: config, store: st}, nil
}

// ScanCrate scans the crate rooted at crateRoot (typically src/lib.rs)
// and every module reachable from it, then persists the results.
func (e *Extractor) ScanCrate(crateRoot string) (*Result, error) {
	p := parser.New(e.config.features)
	if err := p.ParseCrate(crateRoot); err != nil {
		return nil, err
	}
	return e.finish(p)
}

// ScanDir scans every Rust source file under root without following
// module declarations, then persists the results. Use this for source
// trees that are not laid out as a crate.
func (e *Extractor) ScanDir(ctx context.Context, root string) (*Result, error) {
	p := parser.New(e.config.features)
	p.SetCrateSeed(root)

	en := enum.NewFilesystemEnumerator(enum.Config{
		Root:          root,
		IncludeHidden: e.config.includeHidden,
		MaxFileSize:   e.config.maxFileSize,
	})
	// The enumerator reads files in parallel but the parser is
	// single-threaded, so serialize the callback.
	var mu sync.Mutex
	err := en.Enumerate(ctx, func(path string, content []byte) error {
		mu.Lock()
		defer mu.Unlock()
		return p.ParseFile(path, string(content))
	})
	if err != nil {
		return nil, err
	}
	return e.finish(p)
}

// Generate renders a scan result into a C++ translation unit at path.
func (e *Extractor) Generate(result *Result, path string) error {
	return gen.WriteFile(path, &gen.Input{
		Snippets:  result.Snippets,
		Closures:  result.Closures,
		FileHash:  result.FileHash,
		Callbacks: result.Callbacks,
	})
}

// Store returns the backing store, for querying previously persisted
// scans.
func (e *Extractor) Store() store.Store {
	return e.store
}

// Close releases extractor resources.
func (e *Extractor) Close() error {
	return e.store.Close()
}

// finish persists a completed parse and assembles the Result.
func (e *Extractor) finish(p *parser.Parser) (*Result, error) {
	sm := p.SourceMap()

	result := &Result{
		Closures:  p.Closures,
		Classes:   p.Classes,
		Snippets:  p.Snippets,
		Callbacks: p.CallbacksCount,
		FileHash:  p.FileHash(),
	}

	for _, f := range sm.Files() {
		rec := store.File{Path: f.Path, Size: f.Size}
		if err := e.store.AddFile(&rec); err != nil {
			return nil, fmt.Errorf("storing file: %w", err)
		}
		result.Files = append(result.Files, rec)
	}

	for i := range p.Closures {
		c := &p.Closures[i]
		loc, err := sm.LocInfo(c.BodySpan)
		if err != nil {
			return nil, fmt.Errorf("resolving closure location: %w", err)
		}
		name := c.Sig.ExternName()
		err = e.store.AddClosure(&store.Closure{
			ExternName:     name,
			Path:           loc.Path,
			Line:           loc.Line,
			RetCpp:         c.Sig.RetCpp,
			CaptureCount:   len(c.Sig.Captures),
			CallbackOffset: c.CallbackOffset,
			Body:           c.Sig.Body,
		})
		if err != nil {
			return nil, fmt.Errorf("storing closure: %w", err)
		}

		// The expanded body has rust! calls rewritten away, so scan
		// the raw signature body for them.
		for _, inv := range fragment.FindAllRustInvocations(lex.NewCursor(c.Sig.Body)) {
			err = e.store.AddInvocation(&store.Invocation{
				Closure: name,
				Id:      inv.Id,
				RetCpp:  inv.RetCpp,
				Args:    len(inv.Arguments),
			})
			if err != nil {
				return nil, fmt.Errorf("storing invocation: %w", err)
			}
		}
	}

	for i := range p.Classes {
		cls := &p.Classes[i]
		path, err := sm.Filename(cls.Span)
		if err != nil {
			return nil, fmt.Errorf("resolving class location: %w", err)
		}
		err = e.store.AddClass(&store.Class{
			Name:   cls.Name,
			Cpp:    cls.Cpp,
			Public: cls.Public,
			Path:   path,
			Line:   cls.Line,
		})
		if err != nil {
			return nil, fmt.Errorf("storing class: %w", err)
		}
	}

	err := e.store.SetCrateInfo(&store.CrateInfo{
		FileHash:  p.FileHash(),
		Callbacks: p.CallbacksCount,
		Snippets:  p.Snippets,
	})
	if err != nil {
		return nil, fmt.Errorf("storing crate info: %w", err)
	}

	return result, nil
}
