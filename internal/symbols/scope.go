package symbols

import (
	"cxxtweak/internal/ast"
	"cxxtweak/internal/source"
)

// ScopeKind enumerates declaration contexts.
type ScopeKind uint8

const (
	ScopeInvalid         ScopeKind = iota
	ScopeTranslationUnit           // the file itself; owns the global namespace
	ScopeNamespace                 // one written "namespace X { ... }"
	ScopeRecord                    // class/struct/union/enum body
	ScopeFunction                  // function or lambda, body blocks included
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeTranslationUnit:
		return "translation-unit"
	case ScopeNamespace:
		return "namespace"
	case ScopeRecord:
		return "record"
	case ScopeFunction:
		return "function"
	default:
		return "invalid"
	}
}

// Scope is a declaration context. Parent is the semantic parent: the
// namespace an out-of-line member definition belongs to, not the place it
// is written.
//
// Every re-opening of a namespace gets its own Scope, but all of them share
// the Primary scope of the first opening. Names and using-directives are
// stored on the primary scope only.
type Scope struct {
	Kind       ScopeKind
	Parent     ScopeID
	Primary    ScopeID
	Owner      ast.NodeID
	Symbol     SymbolID // namespace/record this scope belongs to
	Span       source.Span
	NameIndex  map[source.StringID][]SymbolID
	Symbols    []SymbolID
	Directives []SymbolID // namespaces nominated by using-directives
	Children   []ScopeID
}
