package fuzztests

import (
	"bytes"
	"context"
	"testing"
	"time"

	"cxxtweak/internal/driver"
	"cxxtweak/internal/source"
	"cxxtweak/internal/testkit"
)

// analyzeTimeout is the maximum time allowed for analyzing a single input.
// If analysis takes longer, it indicates a potential infinite loop in macro
// expansion or tree conversion.
const analyzeTimeout = 5 * time.Second

func analyze(ctx context.Context, input []byte) (*driver.Snapshot, error) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("fuzz.cpp", input)
	return driver.Analyze(ctx, fs, id, driver.AnalyzeOptions{MaxDiagnostics: 128, Validate: true})
}

// FuzzAnalyzeNoHang checks that preprocessing, parsing and resolution
// terminate on any input and leave a structurally sound tree.
func FuzzAnalyzeNoHang(f *testing.F) {
	addCorpusSeeds(f)

	// macro shapes that loop without hide sets
	f.Add([]byte("#define A A\nA"))
	f.Add([]byte("#define F(x) F(x)\nF(F(1))"))
	f.Add([]byte("#define A B\n#define B A\nA B"))
	f.Add([]byte("#define P(a, b) a ## b\nP(P, (1, 2))"))
	f.Add([]byte("namespace a { namespace b { namespace c { namespace d { } } } }"))

	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)

		ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
		defer cancel()

		type outcome struct {
			snap *driver.Snapshot
			err  error
		}
		done := make(chan outcome, 1)
		go func() {
			snap, err := analyze(ctx, input)
			done <- outcome{snap, err}
		}()

		var out outcome
		select {
		case out = <-done:
		case <-ctx.Done():
			t.Fatalf("analysis hang detected: took longer than %v\ninput (%d bytes): %q",
				analyzeTimeout, len(input), truncateForLog(input, 200))
		}
		if out.err != nil {
			return
		}
		if err := testkit.CheckTreeInvariants(out.snap.Tree); err != nil {
			t.Fatalf("tree invariant: %v\ninput: %q", err, truncateForLog(input, 200))
		}
	})
}

// FuzzAddUsingEdits runs every enabled tweak on every qualified reference
// and checks the resulting edits apply to the file they were computed for.
func FuzzAddUsingEdits(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)

		ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
		defer cancel()
		snap, err := analyze(ctx, input)
		if err != nil {
			return
		}
		for _, site := range snap.Sites(ctx, driver.ScanOptions{}) {
			if site.Edits.Len() == 0 || site.Edits.Len() > 2 {
				t.Fatalf("%s: %d edits", site.FixID(), site.Edits.Len())
			}
			if fid, _ := site.Edits.File(); fid != snap.File.ID {
				t.Fatalf("%s: edits target file %d, want %d", site.FixID(), fid, snap.File.ID)
			}
			after, err := site.Edits.Apply(snap.File.Content)
			if err != nil {
				t.Fatalf("%s: apply: %v\ninput: %q", site.FixID(), err, truncateForLog(input, 200))
			}
			if bytes.Equal(after, snap.File.Content) {
				t.Fatalf("%s: edits do not change the file", site.FixID())
			}
		}
	})
}

// truncateForLog truncates input for logging purposes
func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(input[:maxLen:maxLen], []byte("...")...)
}
