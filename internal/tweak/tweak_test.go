package tweak

import (
	"context"
	"strings"
	"testing"

	"cxxtweak/internal/ast"
	"cxxtweak/internal/diag"
	"cxxtweak/internal/pp"
	"cxxtweak/internal/source"
	"cxxtweak/internal/symbols"
)

// analyze runs the front end over src. A '^' in src marks the cursor and
// is removed before analysis.
func analyze(t *testing.T, src string) (Inputs, uint32) {
	t.Helper()
	cursor := strings.IndexByte(src, '^')
	if cursor < 0 {
		t.Fatalf("no cursor marker in %q", src)
	}
	src = src[:cursor] + src[cursor+1:]

	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("main.cpp", []byte(src)))
	bag := diag.NewBag(64)
	rep := diag.BagReporter{Bag: bag}
	buf := pp.Preprocess(file, pp.Options{Reporter: rep})
	tree, err := ast.Parse(context.Background(), buf, rep)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	res := symbols.Resolve(tree, symbols.ResolveOptions{Reporter: rep, Validate: true})
	if bag.HasErrors() {
		t.Fatalf("front end reported errors: %+v", bag.Items())
	}
	return Inputs{File: file, Buf: buf, Tree: tree, Symbols: res}, uint32(cursor)
}

func selectAt(t *testing.T, src string, opts Options) *Selection {
	t.Helper()
	in, cursor := analyze(t, src)
	return NewSelection(in, cursor, cursor, opts)
}

// applyAddUsing returns the rewritten file, or ok=false when the tweak is
// not offered.
func applyAddUsing(t *testing.T, sel *Selection) (string, bool, error) {
	t.Helper()
	tw := &AddUsing{}
	if !tw.Prepare(sel) {
		return "", false, nil
	}
	eff, err := tw.Apply(sel)
	if err != nil {
		return "", true, err
	}
	if eff.File != sel.FileID() {
		t.Fatalf("effect targets file %d, want %d", eff.File, sel.FileID())
	}
	out, err := eff.Apply(sel.File.Content)
	if err != nil {
		t.Fatalf("applying effect: %v", err)
	}
	return string(out), true, nil
}
