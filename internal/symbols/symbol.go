package symbols

import (
	"cxxtweak/internal/ast"
	"cxxtweak/internal/source"
)

// SymbolKind classifies the semantic meaning of a symbol.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolNamespace
	SymbolNamespaceAlias
	SymbolType
	SymbolFunction
	SymbolVar
	SymbolUsing // name introduced by a using-declaration; Targets are the real entities
)

// SymbolFlags encode misc attributes for quick checks.
type SymbolFlags uint16

const (
	SymbolFlagInline SymbolFlags = 1 << iota
	SymbolFlagAnonymous
	SymbolFlagTemplate
	SymbolFlagGlobal
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolNamespace:
		return "namespace"
	case SymbolNamespaceAlias:
		return "namespace-alias"
	case SymbolType:
		return "type"
	case SymbolFunction:
		return "function"
	case SymbolVar:
		return "var"
	case SymbolUsing:
		return "using"
	default:
		return "invalid"
	}
}

// Strings returns a slice of textual flag labels.
func (f SymbolFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 4)
	if f&SymbolFlagInline != 0 {
		labels = append(labels, "inline")
	}
	if f&SymbolFlagAnonymous != 0 {
		labels = append(labels, "anonymous")
	}
	if f&SymbolFlagTemplate != 0 {
		labels = append(labels, "template")
	}
	if f&SymbolFlagGlobal != 0 {
		labels = append(labels, "global")
	}
	return labels
}

// Symbol is one entity. Namespaces are unique per (parent, name): every
// re-opening adds a declaration node but reuses the symbol, which makes
// the symbol ID the canonical declaration.
type Symbol struct {
	Name    source.StringID
	Kind    SymbolKind
	Flags   SymbolFlags
	Scope   ScopeID // primary scope the symbol is declared in
	Span    source.Span
	Decls   []ast.NodeID
	Members ScopeID    // primary scope of a namespace or defined record
	Targets []SymbolID // alias target / using-declaration targets
}
