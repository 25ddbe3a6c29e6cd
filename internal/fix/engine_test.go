package fix

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cxxtweak/internal/source"
)

func fixOf(t *testing.T, id string, edits ...Replacement) Fix {
	t.Helper()
	f := Fix{ID: id, Title: id}
	for _, e := range edits {
		if err := f.Edits.Add(e); err != nil {
			t.Fatalf("add %s: %v", e, err)
		}
	}
	return f
}

func TestApplyAllMergesIdenticalInsertions(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("m.cpp", []byte("void g() { a::f(); a::f(); }\n"))

	using := Insert(id, 0, "using a::f;\n\n")
	fixes := []Fix{
		fixOf(t, "second", Delete(source.Span{File: id, Start: 19, End: 22}, "a::"), using),
		fixOf(t, "first", Delete(source.Span{File: id, Start: 11, End: 14}, "a::"), using),
	}
	res, err := Apply(fs, fixes, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Applied) != 2 {
		t.Fatalf("expected 2 applied, got %+v", res.Applied)
	}
	if res.Applied[0].ID != "first" || res.Applied[1].EditCount != 1 {
		t.Fatalf("unexpected applied order/counts: %+v", res.Applied)
	}
	if len(res.FileChanges) != 1 {
		t.Fatalf("expected one file change, got %d", len(res.FileChanges))
	}
	want := "using a::f;\n\nvoid g() { f(); f(); }\n"
	if got := string(res.FileChanges[0].After); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestApplySkipsConflicts(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("m.cpp", []byte("a::b::f();\n"))
	fixes := []Fix{
		fixOf(t, "outer", Delete(source.Span{File: id, Start: 0, End: 6}, "a::b::")),
		fixOf(t, "inner", Delete(source.Span{File: id, Start: 3, End: 6}, "b::")),
	}
	res, err := Apply(fs, fixes, ApplyOptions{Mode: ApplyModeAll})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Applied) != 1 || len(res.Skipped) != 1 || res.Skipped[0].ID != "inner" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestApplyModes(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("m.cpp", []byte("a::f(); a::g();\n"))
	fixes := []Fix{
		fixOf(t, "f", Delete(source.Span{File: id, Start: 0, End: 3}, "a::")),
		fixOf(t, "g", Delete(source.Span{File: id, Start: 8, End: 11}, "a::")),
	}

	res, err := Apply(fs, fixes, ApplyOptions{Mode: ApplyModeOnce})
	if err != nil || len(res.Applied) != 1 || res.Applied[0].ID != "f" {
		t.Fatalf("once: %+v, %v", res, err)
	}

	res, err = Apply(fs, fixes, ApplyOptions{Mode: ApplyModeID, TargetID: "g"})
	if err != nil || len(res.Applied) != 1 || res.Applied[0].ID != "g" {
		t.Fatalf("by id: %+v, %v", res, err)
	}

	_, err = Apply(fs, fixes, ApplyOptions{Mode: ApplyModeID, TargetID: "missing"})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
}

func TestApplyWriteKeepsLineEndings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "w.cpp")
	if err := os.WriteFile(path, []byte("a::f();\r\nint x;\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	fixes := []Fix{fixOf(t, "f", Delete(source.Span{File: id, Start: 0, End: 3}, "a::"))}
	if _, err := Apply(fs, fixes, ApplyOptions{Mode: ApplyModeAll, Write: true}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "f();\r\nint x;\r\n" {
		t.Fatalf("unexpected file content %q", got)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode not preserved: %v", info.Mode())
	}
}

func TestApplyWriteRefusesVirtual(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("v.cpp", []byte("a::f();"))
	fixes := []Fix{fixOf(t, "f", Delete(source.Span{File: id, Start: 0, End: 3}, "a::"))}
	res, err := Apply(fs, fixes, ApplyOptions{Mode: ApplyModeAll, Write: true})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes, got %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Reason != "target file is virtual" {
		t.Fatalf("unexpected skips: %+v", res.Skipped)
	}
}
