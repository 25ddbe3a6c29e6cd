package testkit

import (
	"fmt"

	"cxxtweak/internal/ast"
)

// CheckTreeInvariants runs the structural invariants every parsed tree has to
// satisfy regardless of input:
// 1) every child points back at its parent, and every node is reachable
// from the root exactly once
// 2) token ranges of non-root nodes, when set, are non-empty and inside
// the buffer
// 3) NameTok is -1 or a token of the buffer
// 4) Qual refers to a qualifier segment
func CheckTreeInvariants(tree *ast.Tree) error {
	if tree == nil {
		return fmt.Errorf("nil tree")
	}
	root := tree.Node(tree.Root)
	if root == nil {
		return fmt.Errorf("root node %d not found", tree.Root)
	}
	if root.Parent.IsValid() {
		return fmt.Errorf("root has parent %d", root.Parent)
	}
	ntoks := -1
	if tree.Buf != nil {
		ntoks = len(tree.Buf.Tokens)
	}

	visited := make(map[ast.NodeID]bool, tree.Nodes.Len())
	var firstErr error
	tree.Walk(tree.Root, func(id ast.NodeID, n *ast.Node) bool {
		if firstErr != nil {
			return false
		}
		if visited[id] {
			firstErr = fmt.Errorf("node %d reached twice", id)
			return false
		}
		visited[id] = true
		if err := checkNode(tree, id, n, ntoks); err != nil {
			firstErr = err
			return false
		}
		return true
	})
	if firstErr != nil {
		return firstErr
	}
	if got, want := len(visited), int(tree.Nodes.Len()); got != want {
		return fmt.Errorf("%d of %d nodes reachable from root", got, want)
	}
	return nil
}

func checkNode(tree *ast.Tree, id ast.NodeID, n *ast.Node, ntoks int) error {
	for _, c := range n.Children {
		child := tree.Node(c)
		if child == nil {
			return fmt.Errorf("node %d: missing child %d", id, c)
		}
		if child.Parent != id {
			return fmt.Errorf("node %d: child %d has parent %d", id, c, child.Parent)
		}
	}
	// сегменты без "::" (decltype и т.п.) оставляют Last = -1
	if id != tree.Root && ntoks >= 0 && n.Last >= 0 {
		if n.First < 0 || n.Last >= ntoks || n.First > n.Last {
			return fmt.Errorf("%s node %d: token range [%d, %d] outside [0, %d)", n.Kind, id, n.First, n.Last, ntoks)
		}
	}
	if ntoks >= 0 && (n.NameTok < -1 || n.NameTok >= ntoks) {
		return fmt.Errorf("%s node %d: name token %d out of range", n.Kind, id, n.NameTok)
	}
	if n.Qual.IsValid() {
		q := tree.Node(n.Qual)
		if q == nil || q.Kind != ast.KindQualifierSegment {
			return fmt.Errorf("%s node %d: qualifier %d is not a segment", n.Kind, id, n.Qual)
		}
	}
	return nil
}
