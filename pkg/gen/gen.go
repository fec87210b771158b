// Package gen renders the collected C++ fragments into a single
// translation unit: support structs, global snippets, one extern "C"
// wrapper per closure, and the size/alignment table the Rust side
// checks its type layouts against.
package gen

import (
	"fmt"
	"os"
	"strings"

	"github.com/inlay-build/inlay/pkg/fragment"
)

// preamble defines the rustcpp support namespace every generated
// translation unit starts with.
const preamble = `
#include <cstdint>
#include <utility>

namespace rustcpp {

typedef unsigned long long usize;

struct Size {
    const char *name;
    usize *sizes;
    usize sizes_len;
};

template<typename T>
struct AlignOf {
    struct Inner {
        char a;
        T b;
    };
    static const unsigned long long value = sizeof(Inner) - sizeof(T);
};

// rust! callbacks cross an extern "C" boundary, so arguments pass by
// reference and returns pass through an out pointer.
template<typename T>
struct argument_helper {
    using type = const T&;
};

template<typename T>
struct argument_helper<T&> {
    using type = T&;
};

template<typename T>
struct return_helper {
    T *storage;
    return_helper(T *s) : storage(s) { }
    operator T*() const { return storage; }
};

} // namespace rustcpp
`

// Input is everything the generator needs from a finished scan.
type Input struct {
	Snippets  string
	Closures  []fragment.Closure
	FileHash  uint64
	Callbacks int
}

// TranslationUnit renders the complete C++ source.
func TranslationUnit(in *Input) string {
	var out strings.Builder
	out.WriteString(preamble)
	out.WriteString(in.Snippets)
	out.WriteString("\n\n")

	if in.Callbacks > 0 {
		fmt.Fprintf(&out, "extern \"C\" void (*rust_cpp_callbacks%d[%d])();\n",
			in.FileHash, in.Callbacks)
	}

	var table strings.Builder
	for i := range in.Closures {
		c := &in.Closures[i]
		name := c.Sig.ExternName()

		// Size and alignment of the return type, then of each capture.
		sizes := make([]string, 0, len(c.Sig.Captures)+1)
		if c.Sig.RetCpp != "void" {
			sizes = append(sizes, fmt.Sprintf("sizeof(%[1]s), rustcpp::AlignOf<%[1]s>::value", c.Sig.RetCpp))
		} else {
			sizes = append(sizes, "0, 1")
		}
		for _, capture := range c.Sig.Captures {
			sizes = append(sizes, fmt.Sprintf("sizeof(%[1]s), rustcpp::AlignOf<%[1]s>::value", capture.Cpp))
		}

		fmt.Fprintf(&table, "\n{\n    %q,\n    %s_sizes,\n    sizeof(%s_sizes) / sizeof(rustcpp::usize),\n},",
			name, name, name)

		fmt.Fprintf(&out, "\nrustcpp::usize %s_sizes[] = { %s };\n", name, strings.Join(sizes, ", "))

		params := make([]string, 0, len(c.Sig.Captures))
		for _, capture := range c.Sig.Captures {
			if capture.Mutable {
				params = append(params, fmt.Sprintf("%s & %s", capture.Cpp, capture.Name))
			} else {
				params = append(params, fmt.Sprintf("const %s & %s", capture.Cpp, capture.Name))
			}
		}

		fmt.Fprintf(&out, "\nextern \"C\" {\n%s %s(%s) {\n%s\n}\n}\n",
			c.Sig.RetCpp, name, strings.Join(params, ", "), c.BodyText)
	}

	fmt.Fprintf(&out, "\nrustcpp::Size __cpp_sizes[] = { %s { 0 } };\n", table.String())
	return out.String()
}

// WriteFile renders the translation unit to path.
func WriteFile(path string, in *Input) error {
	if err := os.WriteFile(path, []byte(TranslationUnit(in)), 0o644); err != nil {
		return fmt.Errorf("writing generated C++: %w", err)
	}
	return nil
}
