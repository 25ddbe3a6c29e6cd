package symbols

import (
	"fmt"

	"cxxtweak/internal/ast"
	"cxxtweak/internal/diag"
	"cxxtweak/internal/source"
)

// ResolveOptions controls a resolve pass for one tree.
type ResolveOptions struct {
	Table    *Table
	Hints    Hints
	Reporter diag.Reporter
	Validate bool
}

// Result captures resolve artefacts for one tree. Per-node facts are
// indexed by ast.NodeID.
type Result struct {
	Table *Table
	Tree  *ast.Tree

	declScope []ScopeID
	ownScope  []ScopeID
	nodeSym   []SymbolID
}

// Resolve declares every entity of tree, binds using-declarations,
// using-directives and namespace aliases, then resolves qualified names.
// Names are visible in their whole scope regardless of declaration order,
// except that a using-directive only affects lookups performed after it.
func Resolve(tree *ast.Tree, opts ResolveOptions) *Result {
	table := opts.Table
	if table == nil {
		table = NewTable(opts.Hints, nil)
	}
	n := int(tree.Nodes.Len()) + 1
	res := &Result{
		Table:     table,
		Tree:      tree,
		declScope: make([]ScopeID, n),
		ownScope:  make([]ScopeID, n),
		nodeSym:   make([]SymbolID, n),
	}
	w := &walker{
		tree:  tree,
		res:   res,
		table: table,
		r:     NewResolver(table, table.Root, opts.Reporter),
		rep:   opts.Reporter,
	}

	w.declare(tree.Root)
	tree.Walk(tree.Root, w.bind)
	tree.Walk(tree.Root, w.refs)

	if opts.Validate {
		if err := table.Validate(); err != nil {
			if opts.Reporter == nil {
				panic(err)
			}
			msg := fmt.Sprintf("symbol table invariant violation: %v", err)
			diag.ReportError(opts.Reporter, diag.SemaInfo, source.Span{File: fileOf(tree)}, msg).Emit()
		}
	}
	return res
}

func fileOf(tree *ast.Tree) source.FileID {
	if tree.Buf != nil && tree.Buf.File != nil {
		return tree.Buf.File.ID
	}
	return 0
}

// DeclScope returns the scope id was declared in (for declarations) or
// written in (for anything else).
func (r *Result) DeclScope(id ast.NodeID) ScopeID {
	if int(id) < len(r.declScope) {
		return r.declScope[id]
	}
	return NoScopeID
}

// OwnScope returns the scope a namespace, record or function node opens.
func (r *Result) OwnScope(id ast.NodeID) ScopeID {
	if int(id) < len(r.ownScope) {
		return r.ownScope[id]
	}
	return NoScopeID
}

// Symbol returns what id declares, or what a qualifier segment or
// qualified name resolved to.
func (r *Result) Symbol(id ast.NodeID) SymbolID {
	if int(id) < len(r.nodeSym) {
		return r.nodeSym[id]
	}
	return NoSymbolID
}

// QualifierSymbol returns the entity the whole qualifier of id denotes:
// the symbol of its rightmost segment, aliases not followed.
func (r *Result) QualifierSymbol(id ast.NodeID) SymbolID {
	n := r.Tree.Node(id)
	if n == nil {
		return NoSymbolID
	}
	if !n.Qual.IsValid() {
		if n.Has(ast.FlagGlobal) {
			return r.Table.Global
		}
		return NoSymbolID
	}
	return r.Symbol(n.Qual)
}

// ScopeOf returns the declaration context of a node: the nearest
// enclosing declaration that is a context, or the context of the nearest
// enclosing declaration that is not. A declaration node itself answers
// with the context it is declared in.
func (r *Result) ScopeOf(id ast.NodeID) ScopeID {
	for cur := id; cur.IsValid(); cur = r.Tree.Parent(cur) {
		n := r.Tree.Node(cur)
		if !n.Kind.IsDecl() {
			continue
		}
		if cur != id {
			if s := r.OwnScope(cur); s.IsValid() {
				return s
			}
		}
		if s := r.DeclScope(cur); s.IsValid() {
			return s
		}
		return r.Table.Root
	}
	return r.Table.Root
}
