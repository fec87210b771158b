package store

import (
	"fmt"
	"sync"
)

// MemoryStore implements Store using in-memory data structures. It is
// the backend behind ":memory:" paths and keeps tests off the disk.
type MemoryStore struct {
	mu          sync.RWMutex
	files       map[string]*File
	closures    []*Closure
	closureSet  map[string]bool
	classes     []*Class
	classSet    map[string]bool
	invocations []*Invocation
	crateInfo   *CrateInfo
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		files:      make(map[string]*File),
		closureSet: make(map[string]bool),
		classSet:   make(map[string]bool),
	}
}

// AddFile stores a scanned file record (idempotent).
func (m *MemoryStore) AddFile(f *File) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.files[f.Path]; exists {
		return nil
	}
	m.files[f.Path] = f
	return nil
}

// AddClosure stores a closure record, deduplicated by extern name.
func (m *MemoryStore) AddClosure(c *Closure) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closureSet[c.ExternName] {
		return nil
	}
	m.closureSet[c.ExternName] = true
	m.closures = append(m.closures, c)
	return nil
}

// AddClass stores a class record.
func (m *MemoryStore) AddClass(c *Class) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := fmt.Sprintf("%s\x00%s\x00%s\x00%d", c.Name, c.Cpp, c.Path, c.Line)
	if m.classSet[key] {
		return nil
	}
	m.classSet[key] = true
	m.classes = append(m.classes, c)
	return nil
}

// AddInvocation stores a rust! invocation record.
func (m *MemoryStore) AddInvocation(inv *Invocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.invocations = append(m.invocations, inv)
	return nil
}

// SetCrateInfo replaces the crate summary.
func (m *MemoryStore) SetCrateInfo(info *CrateInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.crateInfo = info
	return nil
}

// GetFiles retrieves all scanned files.
func (m *MemoryStore) GetFiles() ([]*File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*File, 0, len(m.files))
	for _, f := range m.files {
		result = append(result, f)
	}
	return result, nil
}

// GetClosures retrieves all closures.
func (m *MemoryStore) GetClosures() ([]*Closure, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Closure, len(m.closures))
	copy(result, m.closures)
	return result, nil
}

// GetClasses retrieves all classes.
func (m *MemoryStore) GetClasses() ([]*Class, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Class, len(m.classes))
	copy(result, m.classes)
	return result, nil
}

// GetInvocations retrieves all rust! invocations.
func (m *MemoryStore) GetInvocations() ([]*Invocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Invocation, len(m.invocations))
	copy(result, m.invocations)
	return result, nil
}

// GetCrateInfo retrieves the crate summary.
func (m *MemoryStore) GetCrateInfo() (*CrateInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.crateInfo == nil {
		return nil, fmt.Errorf("no crate info stored")
	}
	return m.crateInfo, nil
}

// ClosureExists checks whether a closure with this extern name is
// already stored.
func (m *MemoryStore) ClosureExists(externName string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.closureSet[externName], nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
