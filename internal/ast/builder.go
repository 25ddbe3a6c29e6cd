package ast

import "cxxtweak/internal/pp"

// Builder assembles a Tree node by node. Parse drives it from tree-sitter;
// tests use it directly to build synthetic trees.
type Builder struct {
	tree *Tree
}

func NewBuilder(buf *pp.Buffer) *Builder {
	capHint := uint(64)
	last := -1
	if buf != nil {
		capHint = uint(len(buf.Tokens)) + 1
		last = len(buf.Tokens) - 1
	}
	t := &Tree{Nodes: NewArena[Node](capHint), Buf: buf}
	t.Root = NodeID(t.Nodes.Allocate(Node{
		Kind:    KindTranslationUnit,
		First:   0,
		Last:    last,
		NameTok: -1,
		Syntax:  "translation_unit",
	}))
	return &Builder{tree: t}
}

func (b *Builder) Root() NodeID { return b.tree.Root }

// Node gives access to a node while the tree is still being built.
func (b *Builder) Node(id NodeID) *Node { return b.tree.Node(id) }

// Add appends n as the last child of parent.
func (b *Builder) Add(parent NodeID, n Node) NodeID {
	n.Parent = parent
	if n.Name == "" && n.NameTok == 0 {
		n.NameTok = -1
	}
	id := NodeID(b.tree.Nodes.Allocate(n))
	if p := b.tree.Node(parent); p != nil {
		p.Children = append(p.Children, id)
	}
	return id
}

// Seg describes one written qualifier component: its identifier, the
// token of that identifier and the index of the "::" closing it.
type Seg struct {
	Name     string
	NameTok  int
	Colon    int
	Template bool
}

// Qualify attaches the chain segs to owner. chainFirst is the first token
// of the chain (the leading "::" when global). It returns the segment
// nodes leftmost first.
func (b *Builder) Qualify(owner NodeID, global bool, chainFirst int, segs ...Seg) []NodeID {
	ids := make([]NodeID, len(segs))
	parent := owner
	for i := len(segs) - 1; i >= 0; i-- {
		s := segs[i]
		n := Node{
			Kind:    KindQualifierSegment,
			First:   chainFirst,
			Last:    s.Colon,
			Name:    s.Name,
			NameTok: s.NameTok,
			Syntax:  "qualifier",
		}
		if s.Template {
			n.Flags |= FlagTemplate
		}
		if global && i == 0 {
			n.Flags |= FlagGlobal
		}
		ids[i] = b.Add(parent, n)
		parent = ids[i]
	}
	if o := b.tree.Node(owner); o != nil {
		if len(ids) > 0 {
			o.Qual = ids[len(ids)-1]
		}
		if global {
			o.Flags |= FlagGlobal
		}
	}
	return ids
}

func (b *Builder) Finish() *Tree {
	t := b.tree
	b.tree = nil
	return t
}
