package inlay

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const crateSource = `
cpp! {{
    #include <cstdint>
}}

cpp_class!(pub unsafe struct Widget as "Widget");

fn add(a: i32) -> i32 {
    unsafe {
        cpp!([a as "int32_t"] -> i32 as "int32_t" {
            return a + 1;
        })
    }
}
`

func writeCrate(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	return dir
}

func TestScanCrate(t *testing.T) {
	dir := writeCrate(t, map[string]string{"lib.rs": crateSource})

	ex, err := NewExtractor()
	require.NoError(t, err)
	defer ex.Close()

	result, err := ex.ScanCrate(filepath.Join(dir, "lib.rs"))
	require.NoError(t, err)

	require.Len(t, result.Closures, 1)
	c := result.Closures[0]
	assert.Equal(t, "int32_t", c.Sig.RetCpp)
	require.Len(t, c.Sig.Captures, 1)
	assert.Equal(t, "a", c.Sig.Captures[0].Name)

	require.Len(t, result.Classes, 1)
	assert.Equal(t, "Widget", result.Classes[0].Name)
	assert.True(t, result.Classes[0].Public)

	assert.Contains(t, result.Snippets, "#include <cstdint>")
	require.Len(t, result.Files, 1)
	assert.Equal(t, filepath.Join(dir, "lib.rs"), result.Files[0].Path)
}

func TestScanCratePersists(t *testing.T) {
	dir := writeCrate(t, map[string]string{"lib.rs": crateSource})

	ex, err := NewExtractor()
	require.NoError(t, err)
	defer ex.Close()

	result, err := ex.ScanCrate(filepath.Join(dir, "lib.rs"))
	require.NoError(t, err)

	closures, err := ex.Store().GetClosures()
	require.NoError(t, err)
	require.Len(t, closures, 1)
	assert.Equal(t, result.Closures[0].Sig.ExternName(), closures[0].ExternName)
	assert.Equal(t, filepath.Join(dir, "lib.rs"), closures[0].Path)
	assert.Equal(t, 10, closures[0].Line)
	assert.Equal(t, 1, closures[0].CaptureCount)

	classes, err := ex.Store().GetClasses()
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "Widget", classes[0].Name)
	assert.Equal(t, 6, classes[0].Line)

	info, err := ex.Store().GetCrateInfo()
	require.NoError(t, err)
	assert.Equal(t, result.FileHash, info.FileHash)
	assert.Contains(t, info.Snippets, "#include <cstdint>")
}

func TestScanCrateInvocations(t *testing.T) {
	dir := writeCrate(t, map[string]string{"lib.rs": `
fn tick() {
    unsafe {
        cpp!([] {
            // rust!(disabled [] { skip(); });
            rust!(on_tick [] { count(); });
        })
    }
}
`})

	ex, err := NewExtractor()
	require.NoError(t, err)
	defer ex.Close()

	result, err := ex.ScanCrate(filepath.Join(dir, "lib.rs"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Callbacks)

	invs, err := ex.Store().GetInvocations()
	require.NoError(t, err)
	require.Len(t, invs, 1)
	assert.Equal(t, "on_tick", invs[0].Id)
	assert.Equal(t, result.Closures[0].Sig.ExternName(), invs[0].Closure)
	assert.Equal(t, 0, invs[0].Args)
}

func TestScanDir(t *testing.T) {
	dir := writeCrate(t, map[string]string{
		"a.rs":     `cpp! {{ int first; }}`,
		"sub/b.rs": `cpp! {{ int second; }}`,
		"notes.md": `cpp! {{ not rust }}`,
	})

	ex, err := NewExtractor()
	require.NoError(t, err)
	defer ex.Close()

	result, err := ex.ScanDir(context.Background(), dir)
	require.NoError(t, err)

	assert.Len(t, result.Files, 2)
	assert.Contains(t, result.Snippets, "int first;")
	assert.Contains(t, result.Snippets, "int second;")
	assert.NotContains(t, result.Snippets, "not rust")
}

func TestGenerate(t *testing.T) {
	dir := writeCrate(t, map[string]string{"lib.rs": crateSource})

	ex, err := NewExtractor()
	require.NoError(t, err)
	defer ex.Close()

	result, err := ex.ScanCrate(filepath.Join(dir, "lib.rs"))
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "cpp_closures.cpp")
	require.NoError(t, ex.Generate(result, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "namespace rustcpp")
	assert.Contains(t, text, "#include <cstdint>")
	assert.Contains(t, text, result.Closures[0].Sig.ExternName())
	assert.True(t, strings.Contains(text, "return a + 1;"))
}

func TestWithStorePersistsAcrossExtractors(t *testing.T) {
	crate := writeCrate(t, map[string]string{"lib.rs": crateSource})
	db := filepath.Join(t.TempDir(), "inlay.db")

	ex, err := NewExtractor(WithStore(db))
	require.NoError(t, err)
	_, err = ex.ScanCrate(filepath.Join(crate, "lib.rs"))
	require.NoError(t, err)
	require.NoError(t, ex.Close())

	ex2, err := NewExtractor(WithStore(db))
	require.NoError(t, err)
	defer ex2.Close()

	closures, err := ex2.Store().GetClosures()
	require.NoError(t, err)
	assert.Len(t, closures, 1)
}

func TestScanCrateMissingRoot(t *testing.T) {
	ex, err := NewExtractor()
	require.NoError(t, err)
	defer ex.Close()

	_, err = ex.ScanCrate(filepath.Join(t.TempDir(), "lib.rs"))
	assert.Error(t, err)
}
