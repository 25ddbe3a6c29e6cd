package symbols

import (
	"fmt"

	"cxxtweak/internal/ast"
	"cxxtweak/internal/diag"
	"cxxtweak/internal/source"
)

// anonymousName keys unnamed namespaces; it can never be spelled.
const anonymousName = "(anonymous namespace)"

type walker struct {
	tree  *ast.Tree
	res   *Result
	table *Table
	r     *Resolver
	rep   diag.Reporter
}

func (w *walker) span(n *ast.Node) source.Span {
	buf := w.tree.Buf
	if buf == nil || n.First < 0 || n.First >= len(buf.Tokens) {
		return source.Span{File: fileOf(w.tree)}
	}
	tok := n.NameTok
	if tok < 0 || tok >= len(buf.Tokens) {
		tok = n.First
	}
	return buf.ExpansionSpan(buf.Tokens[tok].Loc)
}

func (w *walker) declareChildren(n *ast.Node) {
	for _, c := range n.Children {
		w.declare(c)
	}
}

// declare is the first pass: scopes and entities.
func (w *walker) declare(id ast.NodeID) {
	n := w.tree.Node(id)
	cur := w.r.CurrentScope()
	w.res.declScope[id] = cur

	switch n.Kind {
	case ast.KindTranslationUnit:
		root := w.table.Scopes.Get(w.table.Root)
		root.Owner = id
		root.Span = source.Span{File: fileOf(w.tree)}
		w.res.ownScope[id] = w.table.Root
		w.declareChildren(n)
	case ast.KindNamespace:
		w.namespace(id, n, cur)
	case ast.KindRecord:
		w.record(id, n, cur)
	case ast.KindFunction:
		w.function(id, n, cur)
	case ast.KindVar:
		for _, name := range n.Names {
			if name != "" {
				w.res.nodeSym[id] = w.r.Declare(cur, name, SymbolVar, 0, id, w.span(n))
			}
		}
		w.declareChildren(n)
	case ast.KindTypeAlias:
		for _, name := range n.Names {
			w.res.nodeSym[id] = w.r.Declare(cur, name, SymbolType, 0, id, w.span(n))
		}
		w.declareChildren(n)
	case ast.KindNamespaceAlias:
		if n.Name != "" {
			w.res.nodeSym[id] = w.r.Declare(cur, n.Name, SymbolNamespaceAlias, 0, id, w.span(n))
		}
		w.declareChildren(n)
	default:
		w.declareChildren(n)
	}
}

func (w *walker) namespace(id ast.NodeID, n *ast.Node, cur ScopeID) {
	var flags SymbolFlags
	name := n.Name
	if n.Has(ast.FlagAnonymous) || name == "" {
		flags |= SymbolFlagAnonymous
		name = anonymousName
	}
	if n.Has(ast.FlagInline) {
		flags |= SymbolFlagInline
	}
	sym := w.r.Declare(cur, name, SymbolNamespace, flags, id, w.span(n))
	scope := w.r.EnterIn(cur, w.table.Symbols.Get(sym).Members, ScopeNamespace, id, w.span(n))
	if s := w.table.Symbols.Get(sym); !s.Members.IsValid() {
		s.Members = scope
	}
	w.table.Scopes.Get(scope).Symbol = sym
	// члены inline и анонимных namespace видны снаружи
	if flags&(SymbolFlagAnonymous|SymbolFlagInline) != 0 {
		w.r.AddDirective(cur, sym)
	}
	w.res.ownScope[id] = scope
	w.res.nodeSym[id] = sym
	w.declareChildren(n)
	w.r.Leave(scope)
}

// semanticParent resolves the qualifier of an out-of-line definition
// (void a::f() {}, struct a::S {}) to the scope it belongs to.
func (w *walker) semanticParent(n *ast.Node, cur ScopeID) (ScopeID, SymbolID) {
	if !n.Qual.IsValid() {
		return cur, NoSymbolID
	}
	owner := w.table.Canonical(w.resolveSegments(n, cur))
	if sym := w.table.Symbols.Get(owner); sym != nil && sym.Members.IsValid() {
		return sym.Members, owner
	}
	return cur, NoSymbolID
}

func (w *walker) record(id ast.NodeID, n *ast.Node, cur ScopeID) {
	parent, owner := w.semanticParent(n, cur)
	w.res.declScope[id] = parent

	var flags SymbolFlags
	if n.Has(ast.FlagTemplate) {
		flags |= SymbolFlagTemplate
	}
	sym := NoSymbolID
	if n.Name != "" {
		switch {
		case owner.IsValid():
			if found := w.r.LookupQualified(owner, n.Name, SymbolType.Mask()); len(found) > 0 {
				sym = found[0]
			}
		case !n.Has(ast.FlagDefinition):
			// struct S x; ссылается на уже видимый S, если он есть
			sym = w.r.Lookup(cur, n.Name, SymbolType.Mask())
		}
		if sym.IsValid() {
			s := w.table.Symbols.Get(sym)
			s.Decls = append(s.Decls, id)
		} else {
			sym = w.r.Declare(parent, n.Name, SymbolType, flags, id, w.span(n))
		}
	}
	w.res.nodeSym[id] = sym

	if !n.Has(ast.FlagDefinition) {
		w.declareChildren(n)
		return
	}
	scope := w.r.EnterIn(parent, NoScopeID, ScopeRecord, id, w.span(n))
	w.table.Scopes.Get(scope).Symbol = sym
	if s := w.table.Symbols.Get(sym); s != nil && !s.Members.IsValid() {
		s.Members = scope
	}
	w.res.ownScope[id] = scope
	w.declareChildren(n)
	w.r.Leave(scope)
}

func (w *walker) function(id ast.NodeID, n *ast.Node, cur ScopeID) {
	parent, owner := w.semanticParent(n, cur)
	w.res.declScope[id] = parent

	if !n.Has(ast.FlagLambda) && n.Name != "" {
		sym := NoSymbolID
		if owner.IsValid() {
			if found := w.r.LookupQualified(owner, n.Name, SymbolFunction.Mask()); len(found) > 0 {
				sym = found[0]
				s := w.table.Symbols.Get(sym)
				s.Decls = append(s.Decls, id)
			}
		}
		if !sym.IsValid() {
			var flags SymbolFlags
			if n.Has(ast.FlagTemplate) {
				flags |= SymbolFlagTemplate
			}
			sym = w.r.Declare(parent, n.Name, SymbolFunction, flags, id, w.span(n))
		}
		w.res.nodeSym[id] = sym
	}

	scope := w.r.EnterIn(parent, NoScopeID, ScopeFunction, id, w.span(n))
	w.res.ownScope[id] = scope
	w.declareChildren(n)
	w.r.Leave(scope)
}

// bind is the second pass: using-directives, namespace aliases and
// using-declarations, in source order.
func (w *walker) bind(id ast.NodeID, n *ast.Node) bool {
	scope := w.res.declScope[id]
	switch n.Kind {
	case ast.KindUsingDirective:
		target := w.resolveSegments(n, scope)
		ns := w.table.Canonical(target)
		if sym := w.table.Symbols.Get(ns); sym != nil && sym.Kind == SymbolNamespace {
			w.r.AddDirective(scope, ns)
		} else if target.IsValid() {
			diag.ReportWarning(w.rep, diag.SemaBadUsingTarget, w.span(n),
				fmt.Sprintf("using-directive names %q, which is not a namespace", n.Name)).Emit()
		}
	case ast.KindNamespaceAlias:
		target := w.table.Canonical(w.resolveSegments(n, scope))
		alias := w.table.Symbols.Get(w.res.nodeSym[id])
		if sym := w.table.Symbols.Get(target); sym != nil && sym.Kind == SymbolNamespace && alias != nil {
			alias.Targets = []SymbolID{target}
		} else if alias != nil {
			diag.ReportWarning(w.rep, diag.SemaNotANamespace, w.span(n),
				fmt.Sprintf("namespace alias %q does not name a namespace", n.Name)).Emit()
		}
	case ast.KindUsingDecl:
		q := w.resolveSegments(n, scope)
		if !q.IsValid() || n.Name == "" {
			return true
		}
		targets := w.r.LookupQualified(q, n.Name, KindMaskAny)
		if len(targets) == 0 {
			w.unresolved(n, n.Name)
			return true
		}
		shadow := w.r.Declare(scope, n.Name, SymbolUsing, 0, id, w.span(n))
		w.table.Symbols.Get(shadow).Targets = targets
		w.res.nodeSym[id] = shadow
	}
	return true
}

// refs is the last pass: qualified names in expressions and types.
func (w *walker) refs(id ast.NodeID, n *ast.Node) bool {
	if n.Kind != ast.KindNameRef && n.Kind != ast.KindQualifiedType {
		return true
	}
	if !n.Qual.IsValid() && !n.Has(ast.FlagGlobal) {
		return true
	}
	q := w.resolveSegments(n, w.res.declScope[id])
	if !q.IsValid() || n.Name == "" {
		return true
	}
	mask := KindMaskAny
	if n.Kind == ast.KindQualifiedType {
		mask = SymbolType.Mask()
	}
	if found := w.r.LookupQualified(q, n.Name, mask); len(found) > 0 {
		w.res.nodeSym[id] = found[0]
	} else {
		w.unresolved(n, n.Name)
	}
	return true
}

// resolveSegments resolves the qualifier of n left to right, recording
// the symbol of every segment. It returns the symbol of the rightmost
// segment, the global namespace for a bare "::", or NoSymbolID.
func (w *walker) resolveSegments(n *ast.Node, from ScopeID) SymbolID {
	segs := w.tree.Segments(n.Qual)
	if len(segs) == 0 {
		if n.Has(ast.FlagGlobal) {
			return w.table.Global
		}
		return NoSymbolID
	}
	cur := NoSymbolID
	for i, seg := range segs {
		sn := w.tree.Node(seg)
		found := NoSymbolID
		switch {
		case sn.Name == "":
		case i == 0 && sn.Has(ast.FlagGlobal):
			found = first(w.r.LookupQualified(w.table.Global, sn.Name, KindMaskScope))
		case i == 0:
			found = w.r.Lookup(from, sn.Name, KindMaskScope)
		default:
			found = first(w.r.LookupQualified(cur, sn.Name, KindMaskScope))
		}
		w.res.nodeSym[seg] = found
		if !found.IsValid() {
			if sn.Name != "" {
				w.unresolved(sn, sn.Name)
			}
			return NoSymbolID
		}
		cur = found
	}
	return cur
}

func (w *walker) unresolved(n *ast.Node, name string) {
	diag.ReportInfo(w.rep, diag.SemaUnresolvedName, w.span(n),
		fmt.Sprintf("cannot resolve %q", name)).Emit()
}

func first(ids []SymbolID) SymbolID {
	if len(ids) == 0 {
		return NoSymbolID
	}
	return ids[0]
}
