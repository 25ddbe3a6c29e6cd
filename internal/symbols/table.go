package symbols

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"cxxtweak/internal/source"
)

// Hints provide optional capacity suggestions for the symbol table arenas.
type Hints struct{ Scopes, Symbols uint }

// Table aggregates symbol-related arenas and shared resources.
type Table struct {
	Scopes  *Scopes
	Symbols *Symbols
	Strings *source.Interner
	Root    ScopeID  // translation unit
	Global  SymbolID // the global namespace, owner of Root
}

// NewTable builds a fresh table with optional capacity hints.
// If strings is nil, a fresh interner is allocated.
func NewTable(h Hints, strings *source.Interner) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	symCap, err := safecast.Conv[uint32](h.Symbols)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	t := &Table{
		Scopes:  NewScopes(scopeCap),
		Symbols: NewSymbols(symCap),
		Strings: strings,
	}
	t.Root = t.Scopes.New(ScopeTranslationUnit, NoScopeID, NoScopeID, 0, source.Span{})
	t.Global = t.Symbols.New(&Symbol{
		Kind:    SymbolNamespace,
		Flags:   SymbolFlagGlobal,
		Members: t.Root,
	})
	t.Scopes.Get(t.Root).Symbol = t.Global
	return t
}

// Primary returns the scope names of id are stored in.
func (t *Table) Primary(id ScopeID) ScopeID {
	if s := t.Scopes.Get(id); s != nil {
		return s.Primary
	}
	return NoScopeID
}

// Name returns the spelling of a symbol's name.
func (t *Table) Name(id SymbolID) string {
	sym := t.Symbols.Get(id)
	if sym == nil || sym.Flags&SymbolFlagAnonymous != 0 {
		return ""
	}
	s, _ := t.Strings.Lookup(sym.Name)
	return s
}

// Canonical follows namespace aliases to the namespace they denote.
func (t *Table) Canonical(id SymbolID) SymbolID {
	for range 16 {
		sym := t.Symbols.Get(id)
		if sym == nil || sym.Kind != SymbolNamespaceAlias {
			return id
		}
		if len(sym.Targets) == 0 {
			return NoSymbolID
		}
		id = sym.Targets[0]
	}
	return NoSymbolID
}

// Unwrap replaces a using-declaration by the entities it names.
func (t *Table) Unwrap(id SymbolID) []SymbolID {
	sym := t.Symbols.Get(id)
	if sym == nil {
		return nil
	}
	if sym.Kind != SymbolUsing {
		return []SymbolID{id}
	}
	return sym.Targets
}

// Owner returns the namespace or record a symbol is a member of, or
// NoSymbolID for function locals and the global namespace.
func (t *Table) Owner(id SymbolID) SymbolID {
	sym := t.Symbols.Get(id)
	if sym == nil {
		return NoSymbolID
	}
	if s := t.Scopes.Get(sym.Scope); s != nil {
		return s.Symbol
	}
	return NoSymbolID
}

// Encloses reports whether inner is outer or nested in it. Re-openings of
// one namespace are the same context.
func (t *Table) Encloses(outer, inner ScopeID) bool {
	p := t.Primary(outer)
	if !p.IsValid() {
		return false
	}
	for s := inner; s.IsValid(); s = t.Scopes.Get(s).Parent {
		if t.Primary(s) == p {
			return true
		}
	}
	return false
}

// QualifiedName prints the fully qualified name of id, e.g. "a::b::f".
// Anonymous namespaces are skipped since they cannot be spelled.
func (t *Table) QualifiedName(id SymbolID) string {
	var parts []string
	for cur := id; cur.IsValid() && cur != t.Global; cur = t.Owner(cur) {
		sym := t.Symbols.Get(cur)
		if sym.Flags&SymbolFlagAnonymous != 0 {
			continue
		}
		parts = append(parts, t.Name(cur))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "::")
}
