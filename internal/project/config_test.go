package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cxxtweak/internal/tweak"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, ConfigName)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadFindsConfigUpward(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
[tweaks]
disabled = ["dump-node"]

[insert]
anchor = "before"

[output]
color = "off"
diff_context = 1

[cache]
enabled = true
dir = ".cache"

[scan]
jobs = 2
extensions = [".cpp", ".h"]

[preprocessor.defines]
NS = "a::"
`)
	nested := filepath.Join(root, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, ok, err := Load(nested)
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	want := Default()
	want.Path = filepath.Join(root, ConfigName)
	want.Tweaks.Disabled = []string{"dump-node"}
	want.Insert.Anchor = "before"
	want.Output.Color = "off"
	want.Output.DiffContext = 1
	want.Cache = CacheConfig{Enabled: true, Dir: filepath.Join(root, ".cache")}
	want.Scan = ScanConfig{Jobs: 2, Extensions: []string{".cpp", ".h"}}
	want.Preprocessor.Defines = map[string]string{"NS": "a::"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	if cfg.TweakOptions().Anchor != tweak.AnchorBefore {
		t.Fatalf("anchor option not applied")
	}

	dir, ok, err := FindProjectRoot(nested)
	if err != nil || !ok || dir != root {
		t.Fatalf("FindProjectRoot = %q %v %v", dir, ok, err)
	}
}

func TestLoadWithoutConfig(t *testing.T) {
	cfg, ok, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	// выше по дереву может оказаться чужой конфиг, тогда проверять нечего
	if ok {
		t.Skip("a cxxtweak.toml exists above the temp dir")
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("default mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFileRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"unknown key", "[insert]\nanchor_newline = true\n", ErrUnknownKey},
		{"unknown section", "[lint]\nx = 1\n", ErrUnknownKey},
		{"bad anchor", "[insert]\nanchor = \"middle\"\n", ErrBadValue},
		{"bad color", "[output]\ncolor = \"sometimes\"\n", ErrBadValue},
		{"negative jobs", "[scan]\njobs = -1\n", ErrBadValue},
		{"bad trace level", "[trace]\nlevel = \"loud\"\n", ErrBadValue},
		{"unknown tweak", "[tweaks]\ndisabled = [\"nope\"]\n", ErrBadValue},
		{"bad define", "[preprocessor.defines]\n\"F(x)\" = \"x\"\n", ErrBadValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeConfig(t, t.TempDir(), tt.body)
			_, err := LoadFile(p)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadFileSyntaxError(t *testing.T) {
	p := writeConfig(t, t.TempDir(), "[insert\n")
	if _, err := LoadFile(p); err == nil {
		t.Fatalf("expected parse error")
	}
}
