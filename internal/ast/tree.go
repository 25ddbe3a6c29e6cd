package ast

import (
	"fmt"
	"io"
	"strings"

	"cxxtweak/internal/pp"
)

// Tree is the syntax of one preprocessed file. It is never mutated after
// Parse or Builder.Finish returns.
type Tree struct {
	Nodes *Arena[Node]
	Root  NodeID
	Buf   *pp.Buffer
}

func (t *Tree) Node(id NodeID) *Node {
	return t.Nodes.Get(uint32(id))
}

func (t *Tree) Parent(id NodeID) NodeID {
	if n := t.Node(id); n != nil {
		return n.Parent
	}
	return NoNodeID
}

// TopLevel lists the declarations written directly in the translation unit.
func (t *Tree) TopLevel() []NodeID {
	root := t.Node(t.Root)
	if root == nil {
		return nil
	}
	return root.Children
}

// Segments returns the qualifier chain ending at q, leftmost first.
// Segments nest like clang's NestedNameSpecifierLoc: every segment is the
// parent of the segment written before it.
func (t *Tree) Segments(q NodeID) []NodeID {
	var out []NodeID
	for q.IsValid() {
		out = append(out, q)
		q = t.prefix(q)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

func (t *Tree) prefix(seg NodeID) NodeID {
	for _, c := range t.Node(seg).Children {
		if t.Node(c).Kind == KindQualifierSegment {
			return c
		}
	}
	return NoNodeID
}

// QualifierTokens returns the token range of the qualifier written on id,
// leading "::" and trailing "::" included.
func (t *Tree) QualifierTokens(id NodeID) (first, last int, ok bool) {
	n := t.Node(id)
	if n == nil || !n.Qual.IsValid() {
		return 0, 0, false
	}
	q := t.Node(n.Qual)
	return q.First, q.Last, true
}

// CommonAncestor returns the deepest node covering tokens [first, last].
func (t *Tree) CommonAncestor(first, last int) NodeID {
	cur := t.Root
	if n := t.Node(cur); n == nil || !n.Covers(first, last) {
		return NoNodeID
	}
	for {
		next := NoNodeID
		for _, c := range t.Node(cur).Children {
			if t.Node(c).Covers(first, last) {
				next = c
				break
			}
		}
		if !next.IsValid() {
			return cur
		}
		cur = next
	}
}

// Ancestor returns the nearest strict ancestor of id with the given kind.
func (t *Tree) Ancestor(id NodeID, kind Kind) NodeID {
	for p := t.Parent(id); p.IsValid(); p = t.Parent(p) {
		if t.Node(p).Kind == kind {
			return p
		}
	}
	return NoNodeID
}

// Walk visits id and its descendants in source order. Returning false
// from fn skips the children of that node.
func (t *Tree) Walk(id NodeID, fn func(NodeID, *Node) bool) {
	n := t.Node(id)
	if n == nil || !fn(id, n) {
		return
	}
	for _, c := range n.Children {
		t.Walk(c, fn)
	}
}

// Text returns the expanded text the node covers.
func (t *Tree) Text(id NodeID) string {
	n := t.Node(id)
	if n == nil || t.Buf == nil || n.First > n.Last {
		return ""
	}
	toks := t.Buf.Tokens
	return t.Buf.Text[toks[n.First].Off:toks[n.Last].End()]
}

// Dump prints the tree one node per line, indented by depth.
func (t *Tree) Dump(w io.Writer) error {
	return t.DumpNode(w, t.Root)
}

// DumpNode prints the subtree rooted at id.
func (t *Tree) DumpNode(w io.Writer, id NodeID) error {
	var err error
	var rec func(id NodeID, depth int)
	rec = func(id NodeID, depth int) {
		if err != nil {
			return
		}
		n := t.Node(id)
		var sb strings.Builder
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(n.Kind.String())
		if n.Name != "" {
			fmt.Fprintf(&sb, " %q", n.Name)
		}
		if len(n.Names) > 0 {
			fmt.Fprintf(&sb, " %v", n.Names)
		}
		if n.Flags != 0 {
			fmt.Fprintf(&sb, " %s", n.Flags)
		}
		fmt.Fprintf(&sb, " [%d..%d]", n.First, n.Last)
		if n.Kind == KindOther && n.Syntax != "" {
			fmt.Fprintf(&sb, " (%s)", n.Syntax)
		}
		sb.WriteByte('\n')
		if _, err = io.WriteString(w, sb.String()); err != nil {
			return
		}
		for _, c := range n.Children {
			rec(c, depth+1)
		}
	}
	if t.Node(id) != nil {
		rec(id, 0)
	}
	return err
}

func (f Flags) String() string {
	var parts []string
	names := []struct {
		f    Flags
		name string
	}{
		{FlagGlobal, "global"},
		{FlagInline, "inline"},
		{FlagAnonymous, "anonymous"},
		{FlagTemplate, "template"},
		{FlagDefinition, "definition"},
		{FlagLambda, "lambda"},
	}
	for _, n := range names {
		if f&n.f != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, ",")
}
