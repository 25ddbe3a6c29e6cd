package tweak

import (
	"cxxtweak/internal/ast"
	"cxxtweak/internal/pp"
)

// usingSite is a using-declaration written in the main file.
type usingSite struct {
	node ast.NodeID
	off  uint32 // file offset of the "using" keyword
}

// findUsings lists the using-declarations relevant to the selection's
// context, in source order. Declarations whose context does not enclose
// the selection are not descended into: nothing inside them affects the
// selection, nor would it be a good insertion point.
func findUsings(sel *Selection) []usingSite {
	ctx := sel.Context()
	res := sel.Symbols
	var out []usingSite
	sel.Tree.Walk(sel.Tree.Root, func(id ast.NodeID, n *ast.Node) bool {
		if id != sel.Tree.Root && n.Kind.IsDecl() && !res.Table.Encloses(res.DeclScope(id), ctx) {
			return false
		}
		if n.Kind != ast.KindUsingDecl || n.First > n.Last {
			return true
		}
		loc := sel.Buf.Tokens[n.First].Loc
		if loc.Kind == pp.LocFile {
			out = append(out, usingSite{node: id, off: loc.Off})
		}
		return true
	})
	return out
}
