// Package store persists the fragment metadata collected by a crate
// scan so the generate and report phases can run without rescanning.
package store

import (
	"fmt"
)

// File records one scanned source file.
type File struct {
	Path string
	Size int64
}

// Closure records one cpp! closure fragment.
type Closure struct {
	ExternName     string
	Path           string
	Line           int
	RetCpp         string
	CaptureCount   int
	CallbackOffset int
	Body           string
}

// Class records one cpp_class! declaration.
type Class struct {
	Name   string
	Cpp    string
	Public bool
	Path   string
	Line   int
}

// Invocation records one rust! escape hatch found inside a fragment.
// Closure names the enclosing closure's extern symbol, empty when the
// invocation sat in a global snippet.
type Invocation struct {
	Closure string
	Id      string
	RetCpp  string
	Args    int
}

// CrateInfo is the single-row crate summary: the crate hash that
// names the callback table, the number of callback slots, and the
// accumulated global snippets.
type CrateInfo struct {
	FileHash  uint64
	Callbacks int
	Snippets  string
}

// Store provides persistence for scan results. The interface
// abstracts the backend so SQLite and in-memory stores are
// interchangeable.
type Store interface {
	// AddFile stores a scanned file record (idempotent).
	AddFile(f *File) error

	// AddClosure stores a closure record, deduplicated by extern name.
	AddClosure(c *Closure) error

	// AddClass stores a class record.
	AddClass(c *Class) error

	// AddInvocation stores a rust! invocation record.
	AddInvocation(inv *Invocation) error

	// SetCrateInfo replaces the crate summary row.
	SetCrateInfo(info *CrateInfo) error

	// GetFiles retrieves all scanned files.
	GetFiles() ([]*File, error)

	// GetClosures retrieves all closures.
	GetClosures() ([]*Closure, error)

	// GetClasses retrieves all classes.
	GetClasses() ([]*Class, error)

	// GetInvocations retrieves all rust! invocations.
	GetInvocations() ([]*Invocation, error)

	// GetCrateInfo retrieves the crate summary.
	GetCrateInfo() (*CrateInfo, error)

	// ClosureExists checks whether a closure with this extern name
	// is already stored.
	ClosureExists(externName string) (bool, error)

	// Close closes the backing database.
	Close() error
}

// Config for store initialization.
type Config struct {
	// Path is the database file path.
	// Use ":memory:" for an in-memory store (useful for testing).
	Path string
}

// New creates a new Store.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if cfg.Path == ":memory:" {
		return NewMemory(), nil
	}
	return NewSQLite(cfg.Path)
}
