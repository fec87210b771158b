package fragment

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inlay-build/inlay/pkg/lex"
)

func TestParseMacroClosure(t *testing.T) {
	src := `{[a as "int32_t", mut b as "float"] -> i64 as "int64_t" { return a + b; }}`
	m, err := ParseMacro(lex.NewCursor(src))
	require.NoError(t, err)
	require.NotNil(t, m.Closure)

	sig := m.Closure.Sig
	require.Len(t, sig.Captures, 2)
	assert.Equal(t, Capture{Mutable: false, Name: "a", Cpp: "int32_t"}, sig.Captures[0])
	assert.Equal(t, Capture{Mutable: true, Name: "b", Cpp: "float"}, sig.Captures[1])
	assert.Equal(t, "i64", sig.RetRust)
	assert.Equal(t, "int64_t", sig.RetCpp)
	assert.Equal(t, " return a + b; ", m.Closure.BodyText)
}

func TestParseMacroClosureDefaults(t *testing.T) {
	m, err := ParseMacro(lex.NewCursor(`([] { puts("hi"); })`))
	require.NoError(t, err)
	require.NotNil(t, m.Closure)
	assert.Empty(t, m.Closure.Sig.Captures)
	assert.Equal(t, "()", m.Closure.Sig.RetRust)
	assert.Equal(t, "void", m.Closure.Sig.RetCpp)
}

func TestParseMacroUnsafeClosure(t *testing.T) {
	m, err := ParseMacro(lex.NewCursor(`{unsafe [x as "int"] { use(x); }}`))
	require.NoError(t, err)
	require.NotNil(t, m.Closure)
	assert.Equal(t, "x", m.Closure.Sig.Captures[0].Name)
}

func TestParseMacroLitBlock(t *testing.T) {
	src := "{{ #include <cstdint> }}"
	m, err := ParseMacro(lex.NewCursor(src))
	require.NoError(t, err)
	assert.Nil(t, m.Closure)
	assert.Equal(t, " #include <cstdint> ", m.Lit)
	assert.Equal(t, src[m.LitSpan.Lo:m.LitSpan.Hi], m.Lit)
}

func TestParseMacroLitString(t *testing.T) {
	m, err := ParseMacro(lex.NewCursor(`{r#"#include "foo.h""#}`))
	require.NoError(t, err)
	assert.Nil(t, m.Closure)
	assert.Equal(t, `#include "foo.h"`, m.Lit)
}

func TestParseMacroTrailingComma(t *testing.T) {
	m, err := ParseMacro(lex.NewCursor(`{[a as "int",] { f(a); }}`))
	require.NoError(t, err)
	require.NotNil(t, m.Closure)
	assert.Len(t, m.Closure.Sig.Captures, 1)
}

func TestParseMacroGenericRetType(t *testing.T) {
	m, err := ParseMacro(lex.NewCursor(`{[] -> Vec<u8> as "std::vector<uint8_t>" { return {}; }}`))
	require.NoError(t, err)
	require.NotNil(t, m.Closure)
	assert.Equal(t, "Vec<u8>", m.Closure.Sig.RetRust)
	assert.Equal(t, "std::vector<uint8_t>", m.Closure.Sig.RetCpp)
}

func TestParseMacroMalformed(t *testing.T) {
	for _, src := range []string{
		`[a as "int"] { f(a); }`, // missing outer delimiter
		`{[a as ] { f(a); }}`,    // missing capture type
		`{[a as "int"] { f(a); }`, // unclosed
	} {
		_, err := ParseMacro(lex.NewCursor(src))
		assert.Error(t, err, "src %q", src)
	}
}

func TestParseClass(t *testing.T) {
	src := `{
		#[derive(Clone, Default)]
		pub unsafe struct StringHolder as "std::string"
	}`
	cls, err := ParseClass(lex.NewCursor(src))
	require.NoError(t, err)
	assert.Equal(t, "StringHolder", cls.Name)
	assert.Equal(t, "std::string", cls.Cpp)
	assert.True(t, cls.Public)
	assert.True(t, cls.HasDerive("Clone"))
	assert.True(t, cls.HasDerive("Default"))
	assert.False(t, cls.HasDerive("Copy"))
}

func TestParseClassPrivateNoAttrs(t *testing.T) {
	cls, err := ParseClass(lex.NewCursor(`(unsafe struct A as "NS::A")`))
	require.NoError(t, err)
	assert.Equal(t, "A", cls.Name)
	assert.False(t, cls.Public)
	assert.Empty(t, cls.Derives)
}

func TestParseClassPubCrate(t *testing.T) {
	cls, err := ParseClass(lex.NewCursor(`{pub(crate) unsafe struct B as "B"}`))
	require.NoError(t, err)
	assert.True(t, cls.Public)
}

func TestParseClassDocComments(t *testing.T) {
	src := `{
		/// Wraps a C++ string.
		/* also this */
		unsafe struct C as "C"
	}`
	cls, err := ParseClass(lex.NewCursor(src))
	require.NoError(t, err)
	assert.Equal(t, "C", cls.Name)
}

func TestParseRustInvocation(t *testing.T) {
	src := `rust!(do_thing [x: i32 as "int32_t", y: f64 as "double"] -> i32 as "int32_t" { x + y as i32 })`
	inv, after, err := ParseRustInvocation(lex.NewCursor(src))
	require.NoError(t, err)
	assert.Equal(t, "do_thing", inv.Id)
	require.Len(t, inv.Arguments, 2)
	assert.Equal(t, Argument{Name: "x", Cpp: "int32_t"}, inv.Arguments[0])
	assert.Equal(t, Argument{Name: "y", Cpp: "double"}, inv.Arguments[1])
	assert.True(t, inv.HasRet)
	assert.Equal(t, "int32_t", inv.RetCpp)
	assert.True(t, after.IsEmpty())
	assert.Equal(t, src, src[inv.Span.Lo:inv.Span.Hi])
}

func TestParseRustInvocationNoArgsNoRet(t *testing.T) {
	inv, _, err := ParseRustInvocation(lex.NewCursor(`rust!(cb [] { notify(); }) ;`))
	require.NoError(t, err)
	assert.Equal(t, "cb", inv.Id)
	assert.Empty(t, inv.Arguments)
	assert.False(t, inv.HasRet)
}

func TestFindAllRustInvocations(t *testing.T) {
	src := `
		int x = trust_me; // rust mentioned in a word
		rust!(first [] { a(); });
		some_cpp();
		rust!(second [v: u8 as "uint8_t"] { b(v); });
	`
	invs := FindAllRustInvocations(lex.NewCursor(src))
	require.Len(t, invs, 2)
	assert.Equal(t, "first", invs[0].Id)
	assert.Equal(t, "second", invs[1].Id)
	assert.Equal(t, "uint8_t", invs[1].Arguments[0].Cpp)
}

func TestFindAllRustInvocationsNone(t *testing.T) {
	assert.Empty(t, FindAllRustInvocations(lex.NewCursor("int rustic = 0; // rust")))
}

func TestFindAllRustInvocationsSkipsCommentsAndStrings(t *testing.T) {
	assert.Empty(t, FindAllRustInvocations(lex.NewCursor("{ /* rust!(xxx [] { 1 }) */ }")))
	assert.Empty(t, FindAllRustInvocations(lex.NewCursor(`{ printf("rust!(xxx [] { 1 })"); }`)))
	assert.Empty(t, FindAllRustInvocations(lex.NewCursor("// rust!(xxx [] { 1 })\nint y;")))

	// A live invocation next to a commented-out one is still found.
	src := "/* rust!(old [] { 1 }) */ rust!(live [] { 2 });"
	invs := FindAllRustInvocations(lex.NewCursor(src))
	require.Len(t, invs, 1)
	assert.Equal(t, "live", invs[0].Id)
}

func TestParseRustInvocationFunctionPointerArg(t *testing.T) {
	src := `rust!(apply [f: fn(i32) -> i32 as "int32_t (*)(int32_t)"] -> i32 as "int32_t" { f(1) })`
	inv, _, err := ParseRustInvocation(lex.NewCursor(src))
	require.NoError(t, err)
	require.Len(t, inv.Arguments, 1)
	assert.Equal(t, "int32_t (*)(int32_t)", inv.Arguments[0].Cpp)
	assert.True(t, inv.HasRet)
}

func TestParseMacroClosureFunctionTypeReturn(t *testing.T) {
	m, err := ParseMacro(lex.NewCursor(`([] -> fn(i32) -> i32 as "cb_t" { get_cb() })`))
	require.NoError(t, err)
	require.NotNil(t, m.Closure)
	assert.Equal(t, "fn(i32) -> i32", m.Closure.Sig.RetRust)
	assert.Equal(t, "cb_t", m.Closure.Sig.RetCpp)
}

func TestExternNameStable(t *testing.T) {
	sig := ClosureSig{
		Captures: []Capture{{Name: "a", Cpp: "int"}},
		RetRust:  "i32",
		RetCpp:   "int32_t",
		Body:     " a ",
	}
	name := sig.ExternName()
	assert.Equal(t, name, sig.ExternName())
	assert.Equal(t, fmt.Sprintf("__cpp_closure_%d", sig.NameHash()), name)

	other := sig
	other.Body = " a + 1 "
	assert.NotEqual(t, name, other.ExternName())
}

func TestUnquote(t *testing.T) {
	for raw, want := range map[string]string{
		`"plain"`:            "plain",
		`"esc\"aped"`:        `esc"aped`,
		`"tab\there"`:        "tab\there",
		`"\x41\u{1F4A9}"`:    "A\U0001F4A9",
		"r#\"raw \\n kept\"#": `raw \n kept`,
	} {
		got, err := unquote(raw)
		require.NoError(t, err, "raw %q", raw)
		assert.Equal(t, want, got, "raw %q", raw)
	}
}
