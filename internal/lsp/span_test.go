package lsp

import (
	"testing"

	"cxxtweak/internal/source"
)

func virtualFile(t *testing.T, text string) *source.File {
	t.Helper()
	fs := source.NewFileSet()
	return fs.Get(fs.AddVirtual("main.cpp", []byte(text)))
}

func TestPositionRoundTrip(t *testing.T) {
	// "é" is one UTF-16 unit and two bytes, "😀" is two units and four bytes
	file := virtualFile(t, "int é = 0;\nauto s = \"😀\"; a::f();\n")
	tests := []struct {
		pos position
		off uint32
	}{
		{position{0, 0}, 0},
		{position{0, 4}, 4},
		{position{0, 5}, 6},
		{position{1, 10}, 22},
		{position{1, 12}, 26},
		{position{1, 15}, 29},
	}
	for _, tt := range tests {
		if got := offsetForPosition(file, tt.pos); got != tt.off {
			t.Errorf("offsetForPosition(%v) = %d, want %d", tt.pos, got, tt.off)
		}
		if got := positionForOffset(file, tt.off); got != tt.pos {
			t.Errorf("positionForOffset(%d) = %v, want %v", tt.off, got, tt.pos)
		}
	}
}

func TestOffsetForPositionClamps(t *testing.T) {
	file := virtualFile(t, "ab\ncd\n")
	if got := offsetForPosition(file, position{Line: 0, Character: 40}); got != 2 {
		t.Fatalf("past end of line: got %d, want 2", got)
	}
	if got := offsetForPosition(file, position{Line: 9, Character: 0}); got != 6 {
		t.Fatalf("past last line: got %d, want 6", got)
	}
	if got := offsetForPosition(file, position{Line: -1}); got != 0 {
		t.Fatalf("negative line: got %d", got)
	}
}

func TestRangeForSpan(t *testing.T) {
	file := virtualFile(t, "namespace a {}\nvoid g() { a::f(); }\n")
	got := rangeForSpan(file, source.Span{File: file.ID, Start: 26, End: 29})
	want := lspRange{Start: position{Line: 1, Character: 11}, End: position{Line: 1, Character: 14}}
	if got != want {
		t.Fatalf("rangeForSpan = %+v, want %+v", got, want)
	}
}

func TestApplyChanges(t *testing.T) {
	text := "void g() {\r\n  a::f();\r\n}\n"
	got := applyChanges(text, []textDocumentContentChangeEvent{
		{Range: &lspRange{Start: position{1, 2}, End: position{1, 5}}, Text: ""},
		{Range: &lspRange{Start: position{0, 0}, End: position{0, 0}}, Text: "using a::f;\n"},
	})
	want := "using a::f;\nvoid g() {\r\n  f();\r\n}\n"
	if got != want {
		t.Fatalf("applyChanges = %q, want %q", got, want)
	}
	if got := applyChanges("old", []textDocumentContentChangeEvent{{Text: "new"}}); got != "new" {
		t.Fatalf("full sync = %q", got)
	}
}

func TestURIRoundTrip(t *testing.T) {
	path := "/tmp/dir with space/main.cpp"
	uri := pathToURI(path)
	if uri != "file:///tmp/dir%20with%20space/main.cpp" {
		t.Fatalf("pathToURI = %q", uri)
	}
	if got := uriToPath(uri); got != path {
		t.Fatalf("uriToPath = %q, want %q", got, path)
	}
	if got := uriToPath("untitled:Untitled-1"); got != "" {
		t.Fatalf("non-file uri mapped to %q", got)
	}
}
