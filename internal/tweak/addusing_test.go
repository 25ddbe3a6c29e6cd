package tweak

import (
	"errors"
	"strings"
	"testing"

	"cxxtweak/internal/ast"
	"cxxtweak/internal/pp"
	"cxxtweak/internal/source"
	"cxxtweak/internal/symbols"
	"cxxtweak/internal/trace"
)

func TestAddUsingRewrites(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts Options
		want string
	}{
		{
			name: "function above first declaration",
			src:  "namespace a { void f(); }\nvoid g() { ^a::f(); }\n",
			want: "using a::f;\n\nnamespace a { void f(); }\nvoid g() { f(); }\n",
		},
		{
			name: "cursor on the name",
			src:  "namespace a { void f(); }\nvoid g() { a::^f(); }\n",
			want: "using a::f;\n\nnamespace a { void f(); }\nvoid g() { f(); }\n",
		},
		{
			name: "nested namespaces",
			src:  "namespace a { namespace b { void f(); } }\nvoid g() { a::^b::f(); }\n",
			want: "using a::b::f;\n\nnamespace a { namespace b { void f(); } }\nvoid g() { f(); }\n",
		},
		{
			name: "qualified type",
			src:  "namespace a { struct T {}; }\na::^T x;\n",
			want: "using a::T;\n\nnamespace a { struct T {}; }\nT x;\n",
		},
		{
			name: "template type",
			src:  "namespace a { template <class T> struct vec {}; }\na::^vec<int> v;\n",
			want: "using a::vec;\n\nnamespace a { template <class T> struct vec {}; }\nvec<int> v;\n",
		},
		{
			name: "cursor on qualifier of a type",
			src:  "namespace a { struct T {}; }\n^a::T x;\n",
			want: "using a::T;\n\nnamespace a { struct T {}; }\nT x;\n",
		},
		{
			name: "after last visible using",
			src:  "namespace a { void f(); void h(); }\nusing a::h;\nvoid g() { ^a::f(); }\n",
			want: "namespace a { void f(); void h(); }\nusing a::h;\nusing a::f;\nvoid g() { f(); }\n",
		},
		{
			name: "before last visible using",
			src:  "namespace a { void f(); void h(); }\nusing a::h;\nvoid g() { ^a::f(); }\n",
			opts: Options{Anchor: AnchorBefore},
			want: "namespace a { void f(); void h(); }\nusing a::f;\nusing a::h;\nvoid g() { f(); }\n",
		},
		{
			name: "anchor keeps indentation",
			src:  "namespace a { void f(); void h(); }\nnamespace b {\n  using a::h;\n  void g() { ^a::f(); }\n}\n",
			want: "namespace a { void f(); void h(); }\nnamespace b {\n  using a::h;\n  using a::f;\n  void g() { f(); }\n}\n",
		},
		{
			name: "using in function body",
			src:  "namespace a { void f(); void h(); }\nvoid g() {\n  using a::h;\n  ^a::f();\n}\n",
			want: "namespace a { void f(); void h(); }\nvoid g() {\n  using a::h;\n  using a::f;\n  f();\n}\n",
		},
		{
			name: "using after cursor is ignored",
			src:  "namespace a { void f(); void h(); }\nvoid g() { ^a::f(); }\nusing a::h;\n",
			want: "using a::f;\n\nnamespace a { void f(); void h(); }\nvoid g() { f(); }\nusing a::h;\n",
		},
		{
			name: "using in unrelated namespace is ignored",
			src:  "namespace a { void f(); void h(); }\nnamespace c { using a::h; }\nvoid g() { ^a::f(); }\n",
			want: "using a::f;\n\nnamespace a { void f(); void h(); }\nnamespace c { using a::h; }\nvoid g() { f(); }\n",
		},
		{
			name: "already present",
			src:  "namespace a { void f(); }\nusing a::f;\nvoid g() { ^a::f(); }\n",
			want: "namespace a { void f(); }\nusing a::f;\nvoid g() { f(); }\n",
		},
		{
			name: "already present through alias",
			src:  "namespace a { void f(); }\nnamespace al = a;\nusing al::f;\nvoid g() { ^a::f(); }\n",
			want: "namespace a { void f(); }\nnamespace al = a;\nusing al::f;\nvoid g() { f(); }\n",
		},
		{
			name: "enclosing namespace",
			src:  "namespace a { void f(); }\nnamespace b {\nvoid g() { ^a::f(); }\n}\n",
			want: "namespace a { void f(); }\nnamespace b {using a::f;\n\nvoid g() { f(); }\n}\n",
		},
		{
			name: "out-of-line definition goes into its namespace",
			src:  "namespace a { void f(); }\nnamespace n { void g(); }\nvoid n::g() { ^a::f(); }\n",
			want: "namespace a { void f(); }\nnamespace n {using a::f;\n void g(); }\nvoid n::g() { f(); }\n",
		},
		{
			name: "reopened namespace",
			src:  "namespace a { void f(); }\nnamespace n { }\nnamespace n { void g() { ^a::f(); } }\n",
			want: "namespace a { void f(); }\nnamespace n { }\nnamespace n {using a::f;\n void g() { f(); } }\n",
		},
		{
			name: "namespace opened by macro",
			src:  "#define BEGIN_NS(n) namespace n {\n#define END_NS }\nnamespace a { void f(); }\nBEGIN_NS(b)\nvoid g() { ^a::f(); }\nEND_NS\n",
			want: "#define BEGIN_NS(n) namespace n {\n#define END_NS }\nusing a::f;\n\nnamespace a { void f(); }\nBEGIN_NS(b)\nvoid g() { f(); }\nEND_NS\n",
		},
		{
			name: "qualifier in macro argument",
			src:  "#define ID(x) x\nnamespace a { void f(); }\nvoid g() { ID(^a::f)(); }\n",
			want: "#define ID(x) x\nusing a::f;\n\nnamespace a { void f(); }\nvoid g() { ID(f)(); }\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := applyAddUsing(t, selectAt(t, tt.src, tt.opts))
			if !ok {
				t.Fatalf("tweak not available")
			}
			if err != nil {
				t.Fatalf("apply: %v", err)
			}
			if got != tt.want {
				t.Fatalf("result mismatch\n got: %q\nwant: %q", got, tt.want)
			}
		})
	}
}

func TestAddUsingNotAvailable(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"type in qualifier", "struct S { static void f(); };\nvoid g() { ^S::f(); }\n"},
		{"namespace alias", "namespace a { void f(); }\nnamespace al = a;\nvoid g() { ^al::f(); }\n"},
		{"global qualifier only", "void f();\nvoid g() { ^::f(); }\n"},
		{"no qualifier", "void f();\nvoid g() { ^f(); }\n"},
		{"unresolved qualifier", "void g() { ^x::f(); }\n"},
		{"qualifier from macro body", "#define NS a::\nnamespace a { void f(); }\nvoid g() { NS ^f(); }\n"},
		{"function name", "namespace a { void f(); }\nvoid ^g() { a::f(); }\n"},
		{"template argument", "namespace a { template <class T> struct vec {}; }\na::vec<^int> v;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if (&AddUsing{}).Prepare(selectAt(t, tt.src, Options{})) {
				t.Fatalf("tweak must not be offered")
			}
		})
	}
}

func TestAddUsingTitleAndRange(t *testing.T) {
	in, cursor := analyze(t, "namespace a { void f(); }\nvoid g() { ^a::f(); }\n")
	sel := NewSelection(in, cursor, cursor+4, Options{})
	if n := sel.Tree.Node(sel.Node); n.Kind != ast.KindNameRef {
		t.Fatalf("range over a::f selects %s", n.Kind)
	}
	tw := &AddUsing{}
	if !tw.Prepare(sel) {
		t.Fatalf("tweak not available on range")
	}
	if got, want := tw.Title(), "Add using-declaration for f and remove qualifier."; got != want {
		t.Fatalf("title = %q, want %q", got, want)
	}
	if tw.ID() != AddUsingID || tw.Intent() != IntentRefactor || tw.Hidden() {
		t.Fatalf("unexpected metadata")
	}
}

func TestAddUsingQualifierNotContiguous(t *testing.T) {
	src := "#define DUP(x) x x\nnamespace a { namespace a { void f(); } }\nvoid g() { DUP(a::) ^f(); }\n"
	_, ok, err := applyAddUsing(t, selectAt(t, src, Options{}))
	if !ok {
		t.Fatalf("tweak not available")
	}
	if !errors.Is(err, ErrQualifierSpan) {
		t.Fatalf("expected ErrQualifierSpan, got %v", err)
	}
}

// namespace a { void f ( ) ; } namespace n a :: f ( ) ;
// The second namespace has no brace; only a hand-built tree can say so.
func TestAddUsingNamespaceWithoutBrace(t *testing.T) {
	src := "namespace a { void f ( ) ; } namespace n a :: f ( ) ;"
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("main.cpp", []byte(src)))
	buf := pp.Preprocess(file, pp.Options{})

	b := ast.NewBuilder(buf)
	nsA := b.Add(b.Root(), ast.Node{Kind: ast.KindNamespace, Flags: ast.FlagDefinition, First: 0, Last: 8, Name: "a", NameTok: 1})
	b.Add(nsA, ast.Node{Kind: ast.KindFunction, First: 3, Last: 7, Name: "f", NameTok: 4})
	nsN := b.Add(b.Root(), ast.Node{Kind: ast.KindNamespace, Flags: ast.FlagDefinition, First: 9, Last: 16, Name: "n", NameTok: 10})
	stmt := b.Add(nsN, ast.Node{Kind: ast.KindOther, First: 11, Last: 16})
	ref := b.Add(stmt, ast.Node{Kind: ast.KindNameRef, First: 11, Last: 13, Name: "f", NameTok: 13})
	b.Qualify(ref, false, 11, ast.Seg{Name: "a", NameTok: 11, Colon: 12})
	tree := b.Finish()

	res := symbols.Resolve(tree, symbols.ResolveOptions{Validate: true})
	in := Inputs{File: file, Buf: buf, Tree: tree, Symbols: res}
	cursor := uint32(strings.Index(src, "a ::"))
	_, ok, err := applyAddUsing(t, NewSelection(in, cursor, cursor, Options{}))
	if !ok {
		t.Fatalf("tweak not available")
	}
	if !errors.Is(err, ErrNamespaceBrace) {
		t.Fatalf("expected ErrNamespaceBrace, got %v", err)
	}
}

// namespace a { void f ( ) ; } a :: f ( ) ;
// Every top-level node is wrapped into one without tokens, so there is
// nothing to insert above.
func TestAddUsingNoInsertionPoint(t *testing.T) {
	src := "namespace a { void f ( ) ; } a :: f ( ) ;"
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("main.cpp", []byte(src)))
	buf := pp.Preprocess(file, pp.Options{})

	b := ast.NewBuilder(buf)
	wrap := b.Add(b.Root(), ast.Node{Kind: ast.KindOther, First: 0, Last: -1, NameTok: -1})
	nsA := b.Add(wrap, ast.Node{Kind: ast.KindNamespace, Flags: ast.FlagDefinition, First: 0, Last: 8, Name: "a", NameTok: 1})
	b.Add(nsA, ast.Node{Kind: ast.KindFunction, First: 3, Last: 7, Name: "f", NameTok: 4})
	stmt := b.Add(wrap, ast.Node{Kind: ast.KindOther, First: 9, Last: 14})
	ref := b.Add(stmt, ast.Node{Kind: ast.KindNameRef, First: 9, Last: 11, Name: "f", NameTok: 11})
	b.Qualify(ref, false, 9, ast.Seg{Name: "a", NameTok: 9, Colon: 10})
	tree := b.Finish()

	res := symbols.Resolve(tree, symbols.ResolveOptions{Validate: true})
	in := Inputs{File: file, Buf: buf, Tree: tree, Symbols: res}
	cursor := uint32(strings.Index(src, "a ::"))
	sel := NewSelection(in, cursor, cursor, Options{})
	// the wrapper covers no tokens, so the tree walk stops at the root
	sel.Node = ref
	_, ok, err := applyAddUsing(t, sel)
	if !ok {
		t.Fatalf("tweak not available")
	}
	if !errors.Is(err, ErrNoInsertionPoint) {
		t.Fatalf("expected ErrNoInsertionPoint, got %v", err)
	}
}

func TestAddUsingEffectShape(t *testing.T) {
	sel := selectAt(t, "namespace a { void f(); }\nvoid g() { ^a::f(); }\n", Options{})
	tw := &AddUsing{}
	if !tw.Prepare(sel) {
		t.Fatalf("tweak not available")
	}
	eff, err := tw.Apply(sel)
	if err != nil {
		t.Fatal(err)
	}
	items := eff.Edits.Items()
	if len(items) != 2 {
		t.Fatalf("expected deletion and insertion, got %v", items)
	}
	if !items[0].IsInsert() || items[0].Offset != 0 || items[0].Text != "using a::f;\n\n" {
		t.Fatalf("unexpected insertion %v", items[0])
	}
	if items[1].Length != 3 || items[1].Text != "" {
		t.Fatalf("unexpected deletion %v", items[1])
	}
}

func TestAddUsingTracesDecisions(t *testing.T) {
	ring := trace.NewRingTracer(64, trace.LevelDebug)
	span := trace.Begin(ring, trace.ScopeTweak, "test", 0)
	sel := selectAt(t, "namespace a { void f(); }\nusing a::f;\nvoid g() { ^a::f(); }\n", Options{}).WithSpan(span)
	if _, ok, err := applyAddUsing(t, sel); !ok || err != nil {
		t.Fatalf("apply failed: %v %v", ok, err)
	}
	span.End("")

	seen := map[string]string{}
	for _, ev := range ring.Snapshot() {
		if ev.Kind == trace.KindPoint {
			seen[ev.Name] = ev.Detail
		}
	}
	if seen["addusing.prepare"] != "a::f" {
		t.Fatalf("prepare point missing: %v", seen)
	}
	if _, ok := seen["addusing.duplicate"]; !ok {
		t.Fatalf("duplicate decision not traced: %v", seen)
	}
}
