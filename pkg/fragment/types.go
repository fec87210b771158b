// Package fragment defines the embedded C++ fragments recognized in
// Rust source and the grammar that extracts them from macro bodies.
package fragment

import (
	"fmt"
	"hash/fnv"
)

// Span is a half-open byte range [Lo, Hi) into the source text a
// fragment was extracted from.
type Span struct {
	Lo int
	Hi int
}

// Capture is one entry of a closure capture list, for example
// `mut x as "int32_t"`.
type Capture struct {
	Mutable bool
	Name    string
	Cpp     string
}

// ClosureSig is the callable signature of a cpp! closure. It identifies
// the generated extern "C" symbol, so every field participates in the
// name hash.
type ClosureSig struct {
	Captures []Capture
	RetRust  string
	RetCpp   string
	Body     string
}

// NameHash returns a stable hash of the signature. Closures with the
// same captures, return type and body share a generated symbol.
func (s *ClosureSig) NameHash() uint64 {
	h := fnv.New64a()
	for _, c := range s.Captures {
		if c.Mutable {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
		h.Write([]byte(c.Name))
		h.Write([]byte{0})
		h.Write([]byte(c.Cpp))
		h.Write([]byte{0})
	}
	h.Write([]byte(s.RetRust))
	h.Write([]byte{0})
	h.Write([]byte(s.RetCpp))
	h.Write([]byte{0})
	h.Write([]byte(s.Body))
	return h.Sum64()
}

// ExternName returns the name of the extern "C" function generated for
// this signature.
func (s *ClosureSig) ExternName() string {
	return fmt.Sprintf("__cpp_closure_%d", s.NameHash())
}

// Closure is a cpp! invocation with a capture list. BodyText holds the
// C++ body and BodySpan its location in the scanned source.
type Closure struct {
	Sig            ClosureSig
	BodyText       string
	BodySpan       Span
	CallbackOffset int
}

// Class is a cpp_class! invocation declaring a Rust wrapper for a C++
// type.
type Class struct {
	Name    string
	Cpp     string
	Public  bool
	Derives []string
	Line    int
	Span    Span
}

// NameHash returns a stable hash identifying the class declaration.
func (c *Class) NameHash() uint64 {
	h := fnv.New64a()
	h.Write([]byte(c.Name))
	h.Write([]byte{0})
	h.Write([]byte(c.Cpp))
	h.Write([]byte{0})
	if c.Public {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// HasDerive reports whether the class declaration carries the named
// derive, for example "Clone" or "Default".
func (c *Class) HasDerive(name string) bool {
	for _, d := range c.Derives {
		if d == name {
			return true
		}
	}
	return false
}

// Macro is the parsed body of a cpp! invocation. Exactly one of
// Closure and Lit is set: a capture list makes the body a closure,
// otherwise it is a literal code fragment emitted at global scope.
type Macro struct {
	Closure *Closure
	Lit     string
	LitSpan Span
}

// Argument is one `name: type as "ctype"` parameter of a rust!
// sub-macro invocation.
type Argument struct {
	Name string
	Cpp  string
}

// RustInvocation is a rust! escape hatch found inside a C++ fragment.
// Span covers the invocation from the `rust` keyword through the
// closing parenthesis, relative to the text it was found in.
type RustInvocation struct {
	Id        string
	Arguments []Argument
	RetCpp    string
	HasRet    bool
	Span      Span
}
