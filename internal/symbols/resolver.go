package symbols

import (
	"cxxtweak/internal/ast"
	"cxxtweak/internal/diag"
	"cxxtweak/internal/source"
)

// KindMask restricts lookup to specific symbol kinds.
type KindMask uint32

const (
	// KindMaskNone filters out all kinds.
	KindMaskNone KindMask = 0
	// KindMaskAny allows all kinds.
	KindMaskAny KindMask = ^KindMask(0)
)

// Mask converts a symbol kind into a KindMask bit.
func (k SymbolKind) Mask() KindMask {
	return KindMask(1 << uint(k))
}

// KindMaskScope covers the names allowed in front of "::".
var KindMaskScope = SymbolNamespace.Mask() | SymbolNamespaceAlias.Mask() | SymbolType.Mask()

func matchKind(mask KindMask, kind SymbolKind) bool {
	return mask == KindMaskAny || mask&kind.Mask() != 0
}

// Resolver drives scope management and declaration/lookup routines.
type Resolver struct {
	table    *Table
	reporter diag.Reporter
	stack    []ScopeID
}

// NewResolver wires a resolver to an existing table. If root is valid it
// becomes the current scope.
func NewResolver(table *Table, root ScopeID, reporter diag.Reporter) *Resolver {
	r := &Resolver{
		table:    table,
		reporter: reporter,
		stack:    make([]ScopeID, 0, 8),
	}
	if root.IsValid() {
		r.stack = append(r.stack, root)
	}
	return r
}

// CurrentScope returns the scope at the top of the stack.
func (r *Resolver) CurrentScope() ScopeID {
	if len(r.stack) == 0 {
		return NoScopeID
	}
	return r.stack[len(r.stack)-1]
}

// Enter creates a child of the current scope and makes it current.
func (r *Resolver) Enter(kind ScopeKind, owner ast.NodeID, span source.Span) ScopeID {
	return r.EnterIn(r.CurrentScope(), NoScopeID, kind, owner, span)
}

// EnterIn is Enter with an explicit semantic parent and primary scope.
func (r *Resolver) EnterIn(parent, primary ScopeID, kind ScopeKind, owner ast.NodeID, span source.Span) ScopeID {
	scope := r.table.Scopes.New(kind, parent, primary, owner, span)
	r.stack = append(r.stack, scope)
	return scope
}

// Leave pops the current scope. A mismatch is a bug in the walker.
func (r *Resolver) Leave(expected ScopeID) {
	if len(r.stack) == 0 {
		return
	}
	top := r.stack[len(r.stack)-1]
	if expected.IsValid() && top != expected {
		panic("symbols: scope stack mismatch: leaving " + expected.String() + ", top is " + top.String())
	}
	r.stack = r.stack[:len(r.stack)-1]
}

// Declare adds a symbol to scope (its primary, really). Functions merge
// with an earlier function of the same name; namespaces and types merge
// with an earlier declaration of the same kind.
func (r *Resolver) Declare(scope ScopeID, name string, kind SymbolKind, flags SymbolFlags, node ast.NodeID, span source.Span) SymbolID {
	p := r.table.Scopes.Get(r.table.Primary(scope))
	if p == nil {
		return NoSymbolID
	}
	key := r.table.Strings.Intern(name)
	if kind == SymbolFunction || kind == SymbolNamespace || kind == SymbolType {
		for _, id := range p.NameIndex[key] {
			sym := r.table.Symbols.Get(id)
			if sym.Kind == kind {
				sym.Decls = append(sym.Decls, node)
				return id
			}
		}
	}
	id := r.table.Symbols.New(&Symbol{
		Name:  key,
		Kind:  kind,
		Flags: flags,
		Scope: r.table.Primary(scope),
		Span:  span,
		Decls: []ast.NodeID{node},
	})
	p.Symbols = append(p.Symbols, id)
	p.NameIndex[key] = append(p.NameIndex[key], id)
	return id
}

// AddDirective records a using-directive for ns in scope.
func (r *Resolver) AddDirective(scope ScopeID, ns SymbolID) {
	p := r.table.Scopes.Get(r.table.Primary(scope))
	if p == nil {
		return
	}
	for _, d := range p.Directives {
		if d == ns {
			return
		}
	}
	p.Directives = append(p.Directives, ns)
}

// Lookup performs unqualified lookup of name from scope outwards and
// returns the first match of the innermost scope that has one.
func (r *Resolver) Lookup(scope ScopeID, name string, mask KindMask) SymbolID {
	key := r.table.Strings.Intern(name)
	for s := scope; s.IsValid(); s = r.table.Scopes.Get(s).Parent {
		if found := r.lookupIn(s, key, mask, map[ScopeID]bool{}); len(found) > 0 {
			return found[0]
		}
	}
	return NoSymbolID
}

// LookupQualified finds name as a member of the namespace or record in.
func (r *Resolver) LookupQualified(in SymbolID, name string, mask KindMask) []SymbolID {
	sym := r.table.Symbols.Get(r.table.Canonical(in))
	if sym == nil || !sym.Members.IsValid() {
		return nil
	}
	return r.lookupIn(sym.Members, r.table.Strings.Intern(name), mask, map[ScopeID]bool{})
}

// lookupIn searches one scope; namespaces nominated by using-directives
// (inline and anonymous namespaces among them) are searched only when the
// scope itself has no match.
func (r *Resolver) lookupIn(scope ScopeID, key source.StringID, mask KindMask, seen map[ScopeID]bool) []SymbolID {
	p := r.table.Primary(scope)
	if seen[p] {
		return nil
	}
	seen[p] = true
	s := r.table.Scopes.Get(p)

	var out []SymbolID
	for _, id := range s.NameIndex[key] {
		for _, target := range r.table.Unwrap(id) {
			if sym := r.table.Symbols.Get(target); sym != nil && matchKind(mask, sym.Kind) {
				out = append(out, target)
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, d := range s.Directives {
		if ns := r.table.Symbols.Get(d); ns != nil && ns.Members.IsValid() {
			out = append(out, r.lookupIn(ns.Members, key, mask, seen)...)
		}
	}
	return out
}
