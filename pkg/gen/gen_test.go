package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inlay-build/inlay/pkg/fragment"
)

func sampleClosure() fragment.Closure {
	return fragment.Closure{
		Sig: fragment.ClosureSig{
			Captures: []fragment.Capture{
				{Name: "a", Cpp: "int32_t"},
				{Mutable: true, Name: "buf", Cpp: "std::vector<uint8_t>"},
			},
			RetRust: "i32",
			RetCpp:  "int32_t",
			Body:    "return a;",
		},
		BodyText: "#line 5 \"lib.rs\"\nreturn a;",
	}
}

func TestTranslationUnitPreambleAndSnippets(t *testing.T) {
	out := TranslationUnit(&Input{Snippets: "\n#include <cstdint>\n"})
	assert.Contains(t, out, "namespace rustcpp")
	assert.Contains(t, out, "struct Size")
	assert.Contains(t, out, "struct AlignOf")
	assert.Contains(t, out, "struct argument_helper")
	assert.Contains(t, out, "struct return_helper")
	assert.Contains(t, out, "#include <cstdint>")
	// Empty scan still emits a terminated sizes table.
	assert.Contains(t, out, "rustcpp::Size __cpp_sizes[] = {  { 0 } };")
}

func TestTranslationUnitClosureWrapper(t *testing.T) {
	c := sampleClosure()
	out := TranslationUnit(&Input{Closures: []fragment.Closure{c}})
	name := c.Sig.ExternName()

	assert.Contains(t, out, fmt.Sprintf("int32_t %s(const int32_t & a, std::vector<uint8_t> & buf)", name))
	assert.Contains(t, out, "#line 5 \"lib.rs\"")
	assert.Contains(t, out, "return a;")

	// Return type first, then captures.
	assert.Contains(t, out, fmt.Sprintf(
		"rustcpp::usize %s_sizes[] = { sizeof(int32_t), rustcpp::AlignOf<int32_t>::value, "+
			"sizeof(int32_t), rustcpp::AlignOf<int32_t>::value, "+
			"sizeof(std::vector<uint8_t>), rustcpp::AlignOf<std::vector<uint8_t>>::value };", name))

	// The sizes table references the array by name and is terminated.
	assert.Contains(t, out, fmt.Sprintf("%q", name))
	assert.Contains(t, out, fmt.Sprintf("%s_sizes,", name))
	assert.Contains(t, out, "{ 0 } };")
}

func TestTranslationUnitVoidClosure(t *testing.T) {
	c := fragment.Closure{
		Sig:      fragment.ClosureSig{RetRust: "()", RetCpp: "void", Body: "puts(\"hi\");"},
		BodyText: "puts(\"hi\");",
	}
	out := TranslationUnit(&Input{Closures: []fragment.Closure{c}})
	name := c.Sig.ExternName()

	assert.Contains(t, out, fmt.Sprintf("rustcpp::usize %s_sizes[] = { 0, 1 };", name))
	assert.Contains(t, out, fmt.Sprintf("void %s()", name))
}

func TestTranslationUnitCallbackTable(t *testing.T) {
	out := TranslationUnit(&Input{FileHash: 99, Callbacks: 4})
	assert.Contains(t, out, "extern \"C\" void (*rust_cpp_callbacks99[4])();")

	out = TranslationUnit(&Input{FileHash: 99})
	assert.NotContains(t, out, "rust_cpp_callbacks")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpp_closures.cpp")
	require.NoError(t, WriteFile(path, &Input{Snippets: "\nint marker;\n"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "int marker;"))
}
