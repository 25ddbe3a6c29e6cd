package tweak

import (
	"fmt"

	"cxxtweak/internal/ast"
	"cxxtweak/internal/symbols"
	"cxxtweak/internal/token"
)

// InsertionPoint is where the using-declaration goes. Valid is false when
// an equivalent declaration already exists and nothing is inserted.
type InsertionPoint struct {
	Loc    uint32 // offset in the main file
	Prefix string
	Suffix string
	Valid  bool
}

// findInsertionPoint picks the place for "using ns::name;".
//
// The spot may be awkward when a comment sits right above the anchor or
// right after a namespace's "{".
func findInsertionPoint(sel *Selection, ns symbols.SymbolID, name string) (InsertionPoint, error) {
	table := sel.Symbols.Table
	want := table.Canonical(ns)
	span := sel.Span()

	var anchor *usingSite
	for _, u := range findUsings(sel) {
		if u.off >= sel.Cursor() {
			// отсортированы, дальше только позже курсора
			break
		}
		un := sel.Tree.Node(u.node)
		if q := table.Canonical(sel.Symbols.QualifierSymbol(u.node)); q.IsValid() && q == want && un.Name == name {
			span.Point("addusing.duplicate", fmt.Sprintf("@%d", u.off))
			return InsertionPoint{}, nil
		}
		anchor = &u
	}
	if anchor != nil {
		return anchorPoint(sel, anchor), nil
	}

	// No relevant using: try the namespace the selection belongs to.
	if nsNode := enclosingNamespace(sel); nsNode.IsValid() {
		n := sel.Tree.Node(nsNode)
		brace := -1
		for i := n.First; i <= n.Last; i++ {
			if sel.Buf.Tokens[i].Kind == token.LBrace {
				brace = i
				break
			}
		}
		if brace < 0 {
			return InsertionPoint{}, fmt.Errorf("%w: namespace %q", ErrNamespaceBrace, n.Name)
		}
		if loc := sel.Buf.Tokens[brace].Loc; !loc.IsMacro() {
			span.Point("addusing.namespace", fmt.Sprintf("@%d", loc.End))
			return InsertionPoint{Loc: loc.End, Suffix: "\n", Valid: true}, nil
		}
		span.Point("addusing.namespace", "brace comes from a macro")
	}

	// Above the first top-level declaration.
	for _, id := range sel.Tree.TopLevel() {
		n := sel.Tree.Node(id)
		if n.First > n.Last {
			continue
		}
		loc := sel.Buf.ExpansionSpan(sel.Buf.Tokens[n.First].Loc).Start
		span.Point("addusing.toplevel", fmt.Sprintf("@%d", loc))
		return InsertionPoint{Loc: loc, Suffix: "\n\n", Valid: true}, nil
	}
	return InsertionPoint{}, ErrNoInsertionPoint
}

// enclosingNamespace returns the namespace definition the selection's
// context belongs to. Scope parents are semantic: the body of
// "void n::g() {}" belongs to the first "namespace n {" wherever it is
// written, a body inside a re-opening belongs to that re-opening.
func enclosingNamespace(sel *Selection) ast.NodeID {
	scopes := sel.Symbols.Table.Scopes
	for id := sel.Context(); id.IsValid(); {
		s := scopes.Get(id)
		if s == nil {
			break
		}
		switch s.Kind {
		case symbols.ScopeNamespace:
			return s.Owner
		case symbols.ScopeTranslationUnit:
			return ast.NoNodeID
		}
		id = s.Parent
	}
	return ast.NoNodeID
}

// anchorPoint places the new declaration on its own line next to u,
// with u's indentation.
func anchorPoint(sel *Selection, u *usingSite) InsertionPoint {
	indent := sel.File.Indent(u.off)
	if sel.Options.Anchor == AnchorBefore {
		return InsertionPoint{Loc: u.off, Suffix: "\n" + indent, Valid: true}
	}
	n := sel.Tree.Node(u.node)
	end := sel.Buf.ExpansionSpan(sel.Buf.Tokens[n.Last].Loc).End
	sel.Span().Point("addusing.anchor", fmt.Sprintf("after @%d", end))
	return InsertionPoint{Loc: end, Prefix: "\n" + indent, Valid: true}
}
