package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB, ограничение для тестового корпуса
)

var sourceExts = map[string]bool{".cc": true, ".cpp": true, ".cxx": true, ".h": true, ".hh": true, ".hpp": true}

// builtinSeeds cover the shapes add-using cares about: qualified calls and
// types, existing usings, namespaces opened by macros.
var builtinSeeds = []string{
	"",
	"namespace a { void f(); }\nvoid g() { a::f(); }\n",
	"namespace a::b { struct S {}; }\na::b::S s;\n",
	"namespace a { int x; }\nusing a::x;\nint y = a::x;\n",
	"namespace ns { namespace in { void f(); } }\nnamespace ns {\nusing in::f;\nvoid g() { ::ns::in::f(); }\n}\n",
	"#define NS namespace m {\nNS void f(); }\nvoid g() { m::f(); }\n",
	"#define CALL(x) x()\nnamespace a { void f(); }\nvoid g() { CALL(a::f); }\n",
	"#define Q a::\nnamespace a { void f(); }\nvoid g() { Q f(); }\n",
	"namespace a { template <class T> struct V {}; }\na::V<int> v;\n",
	"struct S { static void f(); };\nvoid g() { S::f(); }\n",
	"namespace a { void f(); }\nnamespace b = a;\nvoid g() { b::f(); }\n",
	"void g() { auto l = [] { return std::vector<int>{}; }; }\n",
	"namespace { namespace a { void f(); } void g() { a::f(); } }\n",
	"namespace a { void f(); }\nvoid g() { a::",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range builtinSeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f)
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	// проходим по дереву testdata, добавляем все C++ файлы
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() || !sourceExts[filepath.Ext(path)] {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
