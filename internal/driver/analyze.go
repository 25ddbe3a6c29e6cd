package driver

import (
	"context"
	"fmt"

	"cxxtweak/internal/ast"
	"cxxtweak/internal/diag"
	"cxxtweak/internal/observ"
	"cxxtweak/internal/pp"
	"cxxtweak/internal/source"
	"cxxtweak/internal/symbols"
	"cxxtweak/internal/trace"
	"cxxtweak/internal/tweak"
)

// Snapshot is the immutable analysis of one file. Tweaks only read it, so
// any number of selections may be made on it concurrently.
type Snapshot struct {
	FileSet *source.FileSet
	File    *source.File
	Buf     *pp.Buffer
	Tree    *ast.Tree
	Symbols *symbols.Result
	Bag     *diag.Bag
	Timing  *observ.Report
}

// AnalyzeOptions содержит опции анализа файла
type AnalyzeOptions struct {
	MaxDiagnostics int
	// Defines are predefined object-like macros, NAME -> body.
	Defines       map[string]string
	EnableTimings bool
	// Validate reports unresolved names and non-namespace qualifiers.
	Validate bool
}

// AnalyzePath loads path into a fresh FileSet and analyzes it.
func AnalyzePath(ctx context.Context, path string, opts AnalyzeOptions) (*Snapshot, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	return Analyze(ctx, fs, id, opts)
}

// Analyze runs preprocessing, parsing and name resolution over one file.
// Problems in the source are reported through the snapshot's Bag; the
// error is reserved for cancellation and parser failures.
func Analyze(ctx context.Context, fs *source.FileSet, id source.FileID, opts AnalyzeOptions) (*Snapshot, error) {
	file := fs.Get(id)
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "analyze")
	span.WithExtra("path", file.Path)
	defer span.End("")

	var timer *observ.Timer
	if opts.EnableTimings {
		timer = observ.NewTimer().WithTracer(trace.FromContext(ctx), span)
	}

	maxDiag := opts.MaxDiagnostics
	if maxDiag <= 0 {
		maxDiag = 256
	}
	bag := diag.NewBag(maxDiag)
	rep := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	snap := &Snapshot{FileSet: fs, File: file, Bag: bag}

	idx := timer.Begin("preprocess")
	snap.Buf = pp.Preprocess(file, pp.Options{Reporter: rep, Defines: opts.Defines})
	timer.End(idx, fmt.Sprintf("%d tokens", len(snap.Buf.Tokens)))

	idx = timer.Begin("parse")
	tree, err := ast.Parse(ctx, snap.Buf, rep)
	if err != nil {
		timer.End(idx, "failed")
		return nil, fmt.Errorf("parse %s: %w", file.Path, err)
	}
	snap.Tree = tree
	timer.End(idx, fmt.Sprintf("%d nodes", tree.Nodes.Len()))

	idx = timer.Begin("resolve")
	snap.Symbols = symbols.Resolve(tree, symbols.ResolveOptions{Reporter: rep, Validate: opts.Validate})
	timer.End(idx, "")

	if timer != nil {
		report := timer.Report()
		snap.Timing = &report
	}
	return snap, nil
}

// Inputs returns the artefacts tweaks work on.
func (s *Snapshot) Inputs() tweak.Inputs {
	return tweak.Inputs{File: s.File, Buf: s.Buf, Tree: s.Tree, Symbols: s.Symbols}
}

// Select maps [start, end) of the file onto the tree.
func (s *Snapshot) Select(start, end uint32, opts tweak.Options) *tweak.Selection {
	return tweak.NewSelection(s.Inputs(), start, end, opts)
}

// Offset converts a 1-based line and column into a file offset.
func (s *Snapshot) Offset(line, col uint32) (uint32, error) {
	return s.File.Offset(source.LineCol{Line: line, Col: col})
}
