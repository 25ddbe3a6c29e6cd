package ast

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cxxtweak/internal/pp"
	"cxxtweak/internal/source"
)

func preprocess(t *testing.T, src string) *pp.Buffer {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("t.cpp", []byte(src)))
	return pp.Preprocess(file, pp.Options{})
}

func names(tree *Tree, ids []NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = tree.Node(id).Name
	}
	return out
}

func tokText(tree *Tree, first, last int) string {
	var sb strings.Builder
	for i := first; i <= last; i++ {
		sb.WriteString(tree.Buf.Tokens[i].Text)
	}
	return sb.String()
}

// a::b::f();  ->  0:a 1::: 2:b 3::: 4:f 5:( 6:) 7:;
func syntheticCall(t *testing.T) (*Tree, NodeID, []NodeID) {
	t.Helper()
	buf := preprocess(t, "a::b::f();")
	b := NewBuilder(buf)
	stmt := b.Add(b.Root(), Node{Kind: KindOther, First: 0, Last: 7, Syntax: "expression_statement"})
	call := b.Add(stmt, Node{Kind: KindOther, First: 0, Last: 6, Syntax: "call_expression"})
	ref := b.Add(call, Node{Kind: KindNameRef, First: 0, Last: 4, Name: "f", NameTok: 4})
	segs := b.Qualify(ref, false, 0, Seg{Name: "a", NameTok: 0, Colon: 1}, Seg{Name: "b", NameTok: 2, Colon: 3})
	return b.Finish(), ref, segs
}

func TestSegmentsLeftToRight(t *testing.T) {
	tree, ref, segs := syntheticCall(t)
	got := tree.Segments(tree.Node(ref).Qual)
	if diff := cmp.Diff(segs, got); diff != "" {
		t.Fatalf("segments mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b"}, names(tree, got)); diff != "" {
		t.Fatalf("segment names mismatch (-want +got):\n%s", diff)
	}
	// b охватывает a
	if tree.Node(segs[0]).Parent != segs[1] || tree.Node(segs[1]).Parent != ref {
		t.Fatalf("segments must nest right to left")
	}
}

func TestQualifierTokens(t *testing.T) {
	tree, ref, _ := syntheticCall(t)
	first, last, ok := tree.QualifierTokens(ref)
	if !ok {
		t.Fatalf("expected a qualifier")
	}
	if got := tokText(tree, first, last); got != "a::b::" {
		t.Fatalf("qualifier = %q", got)
	}
	if _, _, ok := tree.QualifierTokens(tree.Root); ok {
		t.Fatalf("root has no qualifier")
	}
}

func TestCommonAncestor(t *testing.T) {
	tree, ref, segs := syntheticCall(t)
	tests := []struct {
		first, last int
		want        NodeID
	}{
		{0, 0, segs[0]},
		{1, 1, segs[0]},
		{2, 3, segs[1]},
		{0, 3, segs[1]},
		{4, 4, ref},
		{0, 4, ref},
		{5, 5, tree.Node(ref).Parent},
		{100, 100, NoNodeID},
	}
	for _, tt := range tests {
		if got := tree.CommonAncestor(tt.first, tt.last); got != tt.want {
			t.Errorf("CommonAncestor(%d, %d) = %d, want %d", tt.first, tt.last, got, tt.want)
		}
	}
	if got := tree.Ancestor(segs[0], KindNameRef); got != ref {
		t.Fatalf("Ancestor = %d, want %d", got, ref)
	}
}

func TestWalkSkipsChildren(t *testing.T) {
	tree, _, _ := syntheticCall(t)
	var kinds []Kind
	tree.Walk(tree.Root, func(_ NodeID, n *Node) bool {
		kinds = append(kinds, n.Kind)
		return n.Kind != KindNameRef
	})
	want := []Kind{KindTranslationUnit, KindOther, KindOther, KindNameRef}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("walk order mismatch (-want +got):\n%s", diff)
	}
}

func TestDump(t *testing.T) {
	tree, _, _ := syntheticCall(t)
	var sb strings.Builder
	if err := tree.Dump(&sb); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	for _, want := range []string{"TranslationUnit", `NameRef "f" [0..4]`, `    QualifierSegment "b"`, "(call_expression)"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump lacks %q:\n%s", want, out)
		}
	}
}

func TestArena(t *testing.T) {
	a := NewArena[int](0)
	if a.Get(0) != nil || a.Get(1) != nil {
		t.Fatalf("empty arena must return nil")
	}
	id := a.Allocate(7)
	if id != 1 || *a.Get(id) != 7 || a.Len() != 1 {
		t.Fatalf("unexpected arena state: id=%d len=%d", id, a.Len())
	}
}
