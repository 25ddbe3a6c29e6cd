package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"cxxtweak/internal/diag"
	"cxxtweak/internal/lexer"
	"cxxtweak/internal/pp"
	"cxxtweak/internal/source"
)

func sampleBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("/home/user/project/src/main.cpp", []byte("void g() {\n\tx::f();\n}\n"))
	bag := diag.NewBag(10)
	d := diag.New(diag.SevError, diag.SemaUnresolvedName, source.Span{File: id, Start: 12, End: 13}, "unresolved name \"x\"").
		WithNote(source.Span{File: id, Start: 0, End: 4}, "in function g")
	bag.Add(d)
	return bag, fs
}

func TestPrettyPlain(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	err := Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeRelative, BaseDir: "/home/user/project", ShowNotes: true})
	if err != nil {
		t.Fatal(err)
	}
	want := "src/main.cpp:2:2: ERROR SEM3001: unresolved name \"x\"\n" +
		"    2 |     x::f();\n" +
		"      |     ^\n" +
		"  note src/main.cpp:1:1: in function g\n"
	if got := buf.String(); got != want {
		t.Fatalf("pretty output mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestPrettyColor(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{Color: true}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected ANSI escapes in %q", buf.String())
	}
}

func TestPathModes(t *testing.T) {
	tests := []struct {
		mode PathMode
		want string
	}{
		{PathModeAbsolute, "/home/user/project/src/main.cpp"},
		{PathModeRelative, "src/main.cpp"},
		{PathModeBasename, "main.cpp"},
		{PathModeAuto, "src/main.cpp"},
	}
	for _, tt := range tests {
		if got := FormatPath("/home/user/project/src/main.cpp", tt.mode, "/home/user/project"); got != tt.want {
			t.Errorf("mode %d: got %q, want %q", tt.mode, got, tt.want)
		}
	}
	if got := FormatPath("/elsewhere/a.cpp", PathModeRelative, "/home/user/project"); got != "/elsewhere/a.cpp" {
		t.Errorf("path outside base must stay absolute, got %q", got)
	}
}

func TestJSON(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, PathMode: PathModeBasename, IncludeNotes: true}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("unexpected output %+v", out)
	}
	d := out.Diagnostics[0]
	if d.Code != "SEM3001" || d.Location.File != "main.cpp" || d.Location.StartLine != 2 || d.Location.StartCol != 2 {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	if len(d.Notes) != 1 || d.Notes[0].Message != "in function g" {
		t.Fatalf("unexpected notes %+v", d.Notes)
	}
}

func TestFormatTokens(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("t.cpp", []byte("#define ID(x) x\nID(a::f)")))
	var buf bytes.Buffer
	if err := FormatTokensPretty(&buf, lexer.Tokenize(file, lexer.Options{}), fs); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"define"`) {
		t.Fatalf("lexer dump:\n%s", buf.String())
	}

	buf.Reset()
	if err := FormatExpandedPretty(&buf, pp.Preprocess(file, pp.Options{})); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); !strings.Contains(got, "arg") || !strings.Contains(got, "(ID)") {
		t.Fatalf("expanded dump:\n%s", got)
	}
}

func TestColorDiff(t *testing.T) {
	diff := "--- a/x\n+++ b/x\n@@ -1 +1 @@\n-old\n+new\n"
	var buf bytes.Buffer
	if err := ColorDiff(&buf, diff, false); err != nil {
		t.Fatal(err)
	}
	if buf.String() != diff {
		t.Fatalf("plain diff changed: %q", buf.String())
	}
	buf.Reset()
	if err := ColorDiff(&buf, diff, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "\x1b[32m+new") {
		t.Fatalf("addition not green: %q", buf.String())
	}
}
