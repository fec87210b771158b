package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeBackends runs a test against both implementations.
func storeBackends(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()
	t.Run("memory", func(t *testing.T) {
		s := NewMemory()
		defer s.Close()
		fn(t, s)
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := NewSQLite(filepath.Join(t.TempDir(), "inlay.db"))
		require.NoError(t, err)
		defer s.Close()
		fn(t, s)
	})
}

func TestAddFileIdempotent(t *testing.T) {
	storeBackends(t, func(t *testing.T, s Store) {
		require.NoError(t, s.AddFile(&File{Path: "src/lib.rs", Size: 100}))
		require.NoError(t, s.AddFile(&File{Path: "src/lib.rs", Size: 100}))
		require.NoError(t, s.AddFile(&File{Path: "src/sub.rs", Size: 20}))

		files, err := s.GetFiles()
		require.NoError(t, err)
		assert.Len(t, files, 2)
	})
}

func TestAddClosureDeduplicates(t *testing.T) {
	storeBackends(t, func(t *testing.T, s Store) {
		c := &Closure{
			ExternName:     "__cpp_closure_123",
			Path:           "src/lib.rs",
			Line:           10,
			RetCpp:         "int32_t",
			CaptureCount:   2,
			CallbackOffset: 0,
			Body:           "return a + b;",
		}
		require.NoError(t, s.AddClosure(c))
		require.NoError(t, s.AddClosure(c))

		closures, err := s.GetClosures()
		require.NoError(t, err)
		require.Len(t, closures, 1)
		assert.Equal(t, "__cpp_closure_123", closures[0].ExternName)
		assert.Equal(t, "int32_t", closures[0].RetCpp)
		assert.Equal(t, 2, closures[0].CaptureCount)

		exists, err := s.ClosureExists("__cpp_closure_123")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = s.ClosureExists("__cpp_closure_999")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestAddClass(t *testing.T) {
	storeBackends(t, func(t *testing.T, s Store) {
		cls := &Class{Name: "Holder", Cpp: "std::string", Public: true, Path: "src/lib.rs", Line: 3}
		require.NoError(t, s.AddClass(cls))
		require.NoError(t, s.AddClass(cls))

		classes, err := s.GetClasses()
		require.NoError(t, err)
		require.Len(t, classes, 1)
		assert.Equal(t, "Holder", classes[0].Name)
		assert.True(t, classes[0].Public)
	})
}

func TestAddInvocation(t *testing.T) {
	storeBackends(t, func(t *testing.T, s Store) {
		require.NoError(t, s.AddInvocation(&Invocation{Closure: "__cpp_closure_1", Id: "cb", Args: 1}))
		require.NoError(t, s.AddInvocation(&Invocation{Closure: "", Id: "global_cb", RetCpp: "int", Args: 0}))

		invs, err := s.GetInvocations()
		require.NoError(t, err)
		require.Len(t, invs, 2)
		assert.Equal(t, "cb", invs[0].Id)
		assert.Equal(t, "global_cb", invs[1].Id)
	})
}

func TestCrateInfoRoundTrip(t *testing.T) {
	storeBackends(t, func(t *testing.T, s Store) {
		_, err := s.GetCrateInfo()
		assert.Error(t, err)

		info := &CrateInfo{FileHash: 18446744073709551615, Callbacks: 3, Snippets: "\n#include <cstdint>\n"}
		require.NoError(t, s.SetCrateInfo(info))

		got, err := s.GetCrateInfo()
		require.NoError(t, err)
		assert.Equal(t, info.FileHash, got.FileHash)
		assert.Equal(t, 3, got.Callbacks)
		assert.Equal(t, info.Snippets, got.Snippets)

		// Second write replaces the row.
		require.NoError(t, s.SetCrateInfo(&CrateInfo{FileHash: 7, Callbacks: 1, Snippets: ""}))
		got, err = s.GetCrateInfo()
		require.NoError(t, err)
		assert.Equal(t, uint64(7), got.FileHash)
	})
}

func TestNewSelectsBackend(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	s, err := New(Config{Path: ":memory:"})
	require.NoError(t, err)
	defer s.Close()
	_, ok := s.(*MemoryStore)
	assert.True(t, ok)

	s2, err := New(Config{Path: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	defer s2.Close()
	_, ok = s2.(*SQLiteStore)
	assert.True(t, ok)
}
