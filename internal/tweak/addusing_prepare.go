package tweak

import (
	"cxxtweak/internal/ast"
	"cxxtweak/internal/symbols"
)

// Prepare finds the qualified reference around the selection and checks
// that its qualifier can be replaced by a using-declaration.
func (a *AddUsing) Prepare(sel *Selection) bool {
	if sel.Tree == nil || sel.Symbols == nil || !sel.Node.IsValid() {
		return false
	}
	span := sel.Span()

	node := climbToReference(sel.Tree, sel.Node)
	n := sel.Tree.Node(node)
	name := ""
	switch n.Kind {
	case ast.KindNameRef:
		// имя берём у найденной сущности, как его видит компилятор
		name = sel.Symbols.Table.Name(sel.Symbols.Symbol(node))
	case ast.KindQualifiedType:
		name = n.Name
	default:
		span.Point("addusing.reject", "not a qualified reference: "+n.Kind.String())
		return false
	}

	ns, ok := namespaceQualifier(sel, n)
	if !ok || name == "" {
		span.Point("addusing.reject", "qualifier is not a namespace chain")
		return false
	}

	// Only offer what is spelled under the cursor: a qualifier coming out
	// of a macro body is not, one passed as a macro argument is.
	first, last, _ := sel.Tree.QualifierTokens(node)
	begin, end := sel.Buf.Tokens[first].Loc, sel.Buf.Tokens[last].Loc
	if sel.Buf.IsMacroBody(begin) || begin.WrittenIn() != end.WrittenIn() {
		span.Point("addusing.reject", "qualifier is spelled in a macro")
		return false
	}

	a.node, a.ns, a.name = node, ns, name
	span.Point("addusing.prepare", sel.Symbols.Table.QualifiedName(ns)+"::"+name)
	return true
}

// climbToReference walks up from the selected node to the reference that
// owns it: qualifier segments lead to what they qualify, and a plain type
// nested in another type or in a qualifier leads to the outermost type.
// A qualified type stops the climb.
func climbToReference(tree *ast.Tree, id ast.NodeID) ast.NodeID {
	for {
		parent := tree.Parent(id)
		if !parent.IsValid() {
			return id
		}
		n := tree.Node(id)
		switch {
		case n.Kind == ast.KindQualifierSegment:
			id = parent
			continue
		case n.Kind == ast.KindQualifiedType:
			return id
		case n.Kind.IsTypeLocus():
			if p := tree.Node(parent); p.Kind.IsTypeLocus() || p.Kind == ast.KindQualifierSegment {
				id = parent
				continue
			}
		}
		return id
	}
}

// namespaceQualifier returns the namespace the qualifier of n names, if
// every segment of it resolves to a namespace.
func namespaceQualifier(sel *Selection, n *ast.Node) (symbols.SymbolID, bool) {
	segs := sel.Tree.Segments(n.Qual)
	if len(segs) == 0 {
		return symbols.NoSymbolID, false
	}
	table := sel.Symbols.Table
	for _, seg := range segs {
		sym := table.Symbols.Get(sel.Symbols.Symbol(seg))
		if sym == nil || sym.Kind != symbols.SymbolNamespace {
			return symbols.NoSymbolID, false
		}
	}
	return sel.Symbols.Symbol(segs[len(segs)-1]), true
}
