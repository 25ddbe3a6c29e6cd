package symbols

import (
	"context"
	"strings"
	"testing"

	"cxxtweak/internal/ast"
	"cxxtweak/internal/diag"
	"cxxtweak/internal/pp"
	"cxxtweak/internal/source"
)

func resolveSnippet(t *testing.T, src string) (*Result, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("t.cpp", []byte(src)))
	bag := diag.NewBag(64)
	rep := &diag.BagReporter{Bag: bag}
	buf := pp.Preprocess(file, pp.Options{Reporter: rep})
	tree, err := ast.Parse(context.Background(), buf, rep)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	res := Resolve(tree, ResolveOptions{Reporter: rep, Validate: true})
	if err := res.Table.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	return res, bag
}

func nodesOf(res *Result, kind ast.Kind) []ast.NodeID {
	var out []ast.NodeID
	res.Tree.Walk(res.Tree.Root, func(id ast.NodeID, n *ast.Node) bool {
		if n.Kind == kind {
			out = append(out, id)
		}
		return true
	})
	return out
}

func onlyNode(t *testing.T, res *Result, kind ast.Kind) ast.NodeID {
	t.Helper()
	ids := nodesOf(res, kind)
	if len(ids) != 1 {
		t.Fatalf("want exactly one %s node, got %d", kind, len(ids))
	}
	return ids[0]
}

func TestReopenedNamespacesShareSymbol(t *testing.T) {
	res, _ := resolveSnippet(t, "namespace a { void f(); }\nnamespace a { void g() { f(); } }\n")
	nss := nodesOf(res, ast.KindNamespace)
	if len(nss) != 2 {
		t.Fatalf("want 2 namespace nodes, got %d", len(nss))
	}
	if res.Symbol(nss[0]) != res.Symbol(nss[1]) {
		t.Fatalf("re-opened namespace must reuse the symbol")
	}
	first, second := res.OwnScope(nss[0]), res.OwnScope(nss[1])
	if first == second {
		t.Fatalf("each opening gets its own scope")
	}
	if res.Table.Primary(second) != first {
		t.Fatalf("second opening must point at the first as primary")
	}

	var g ast.NodeID
	for _, fn := range nodesOf(res, ast.KindFunction) {
		if res.Tree.Node(fn).Name == "g" {
			g = fn
		}
	}
	if !res.Table.Encloses(first, res.OwnScope(g)) {
		t.Fatalf("first opening must enclose g through the primary context")
	}
	if res.Table.Encloses(res.OwnScope(g), first) {
		t.Fatalf("g does not enclose its namespace")
	}
}

func TestQualifiedReferenceResolves(t *testing.T) {
	res, bag := resolveSnippet(t, "namespace a { namespace b { void f(); } }\nvoid g() { a::b::f(); }\n")
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Items())
	}
	ref := onlyNode(t, res, ast.KindNameRef)
	sym := res.Symbol(ref)
	if got := res.Table.Symbols.Get(sym); got == nil || got.Kind != SymbolFunction {
		t.Fatalf("reference must resolve to a function")
	}
	if got := res.Table.QualifiedName(sym); got != "a::b::f" {
		t.Fatalf("qualified name = %q", got)
	}
	q := res.QualifierSymbol(ref)
	if got := res.Table.QualifiedName(q); got != "a::b" {
		t.Fatalf("qualifier = %q", got)
	}
	for _, seg := range res.Tree.Segments(res.Tree.Node(ref).Qual) {
		if s := res.Table.Symbols.Get(res.Symbol(seg)); s == nil || s.Kind != SymbolNamespace {
			t.Fatalf("segment %q must resolve to a namespace", res.Tree.Node(seg).Name)
		}
	}
}

func TestNamespaceAliasIsKeptOnSegment(t *testing.T) {
	res, _ := resolveSnippet(t, "namespace a { namespace b { void f(); } }\nnamespace ab = a::b;\nvoid g() { ab::f(); }\n")
	ref := onlyNode(t, res, ast.KindNameRef)
	q := res.QualifierSymbol(ref)
	if s := res.Table.Symbols.Get(q); s == nil || s.Kind != SymbolNamespaceAlias {
		t.Fatalf("segment must record the alias itself")
	}
	if got := res.Table.QualifiedName(res.Table.Canonical(q)); got != "a::b" {
		t.Fatalf("canonical = %q", got)
	}
	if !res.Symbol(ref).IsValid() {
		t.Fatalf("lookup must continue through the alias")
	}
}

func TestUsingDirectiveAffectsLookup(t *testing.T) {
	res, _ := resolveSnippet(t, "namespace a { namespace b { void f(); } }\nusing namespace a;\nvoid g() { b::f(); }\n")
	ref := onlyNode(t, res, ast.KindNameRef)
	if got := res.Table.QualifiedName(res.QualifierSymbol(ref)); got != "a::b" {
		t.Fatalf("b must resolve through the directive, got %q", got)
	}
}

func TestUsingDeclarationIntroducesName(t *testing.T) {
	res, _ := resolveSnippet(t, "namespace a { namespace b { void f(); } }\nnamespace c { using a::b::f; }\nvoid g() { c::f(); }\n")
	ref := onlyNode(t, res, ast.KindNameRef)
	if got := res.Table.QualifiedName(res.Symbol(ref)); got != "a::b::f" {
		t.Fatalf("c::f must resolve to the original entity, got %q", got)
	}
	using := onlyNode(t, res, ast.KindUsingDecl)
	if got := res.Table.QualifiedName(res.QualifierSymbol(using)); got != "a::b" {
		t.Fatalf("using qualifier = %q", got)
	}
}

func TestTypeSegment(t *testing.T) {
	res, _ := resolveSnippet(t, "namespace a { struct S { static void m(); }; }\nvoid g() { a::S::m(); }\n")
	ref := onlyNode(t, res, ast.KindNameRef)
	segs := res.Tree.Segments(res.Tree.Node(ref).Qual)
	if len(segs) != 2 {
		t.Fatalf("want 2 segments, got %d", len(segs))
	}
	if s := res.Table.Symbols.Get(res.Symbol(segs[1])); s == nil || s.Kind != SymbolType {
		t.Fatalf("S must resolve to a type")
	}
	if got := res.Table.QualifiedName(res.Symbol(ref)); got != "a::S::m" {
		t.Fatalf("member lookup = %q", got)
	}
}

func TestAnonymousNamespaceIsTransparent(t *testing.T) {
	res, _ := resolveSnippet(t, "namespace { namespace x { void f(); } }\nvoid g() { x::f(); }\n")
	ref := onlyNode(t, res, ast.KindNameRef)
	if got := res.Table.QualifiedName(res.Symbol(ref)); got != "x::f" {
		t.Fatalf("qualified name = %q", got)
	}
}

func TestOutOfLineDefinition(t *testing.T) {
	res, _ := resolveSnippet(t, "namespace a { void f(); }\nvoid a::f() { }\n")
	fns := nodesOf(res, ast.KindFunction)
	if len(fns) != 2 {
		t.Fatalf("want 2 function nodes, got %d", len(fns))
	}
	if res.Symbol(fns[0]) != res.Symbol(fns[1]) {
		t.Fatalf("definition must bind to the declared function")
	}
	ns := onlyNode(t, res, ast.KindNamespace)
	if res.DeclScope(fns[1]) != res.OwnScope(ns) {
		t.Fatalf("out-of-line definition belongs to namespace a")
	}
	if !res.Table.Encloses(res.OwnScope(ns), res.OwnScope(fns[1])) {
		t.Fatalf("namespace a must enclose the definition's body")
	}
}

func TestScopeOf(t *testing.T) {
	res, _ := resolveSnippet(t, "namespace n { a::T x; void h() { a::f(); } }\n")
	ns := onlyNode(t, res, ast.KindNamespace)
	typ := onlyNode(t, res, ast.KindQualifiedType)
	if got := res.ScopeOf(typ); got != res.OwnScope(ns) {
		t.Fatalf("type in a variable declaration: scope %s, want %s", got, res.OwnScope(ns))
	}
	ref := onlyNode(t, res, ast.KindNameRef)
	h := res.Tree.Ancestor(ref, ast.KindFunction)
	if got := res.ScopeOf(ref); got != res.OwnScope(h) {
		t.Fatalf("reference in a body: scope %s, want %s", got, res.OwnScope(h))
	}
	if got := res.ScopeOf(ns); got != res.Table.Root {
		t.Fatalf("namespace itself lives in the translation unit")
	}
}

func TestUnresolvedIsInformational(t *testing.T) {
	res, bag := resolveSnippet(t, "void g() { std::move(1); }\n")
	ref := onlyNode(t, res, ast.KindNameRef)
	if res.Symbol(ref).IsValid() || res.QualifierSymbol(ref).IsValid() {
		t.Fatalf("std is unknown")
	}
	if bag.HasErrors() {
		t.Fatalf("unresolved names must not be errors")
	}
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.SemaUnresolvedName {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an unresolved-name note")
	}
}

func TestTableDump(t *testing.T) {
	res, _ := resolveSnippet(t, "namespace a { void f(); }\nnamespace a { int x; }\n")
	var sb strings.Builder
	if err := res.Table.Dump(&sb); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	for _, want := range []string{"translation-unit", `namespace "a"`, "(reopens", "function f", "var x"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump lacks %q:\n%s", want, out)
		}
	}
}
