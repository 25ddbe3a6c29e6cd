package driver

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"cxxtweak/internal/ast"
	"cxxtweak/internal/diag"
	"cxxtweak/internal/fix"
	"cxxtweak/internal/observ"
	"cxxtweak/internal/pp"
	"cxxtweak/internal/source"
	"cxxtweak/internal/trace"
	"cxxtweak/internal/tweak"
)

// DefaultExtensions are the file suffixes scanned when none are configured.
var DefaultExtensions = []string{".cc", ".cpp", ".cxx", ".h", ".hh", ".hpp"}

// ScanOptions configures ScanDir.
type ScanOptions struct {
	Jobs       int
	Extensions []string
	Disabled   []string
	Analyze    AnalyzeOptions
	Tweak      tweak.Options
	Cache      *EffectCache
	// Progress receives per-file events; nil disables reporting.
	Progress ProgressSink
}

// Site is one place where a tweak applies, with the edits it would make.
type Site struct {
	Path    string
	File    source.FileID
	TweakID string
	Title   string
	Offset  uint32
	Pos     source.LineCol
	Edits   fix.Replacements
}

// FixID names the site uniquely within a scan.
func (s *Site) FixID() string {
	return fmt.Sprintf("%s@%s:%d:%d", s.TweakID, s.Path, s.Pos.Line, s.Pos.Col)
}

// ScanFileResult содержит результат сканирования одного файла
type ScanFileResult struct {
	Path     string
	FileID   source.FileID
	Sites    []Site
	Bag      *diag.Bag
	Timing   *observ.Report
	CacheHit bool
	Err      error
}

// ScanResult aggregates a directory scan.
type ScanResult struct {
	FileSet   *source.FileSet
	Files     []ScanFileResult
	CacheHits int
}

// Fixes returns every site as a fix, in file then offset order.
func (r *ScanResult) Fixes() []fix.Fix {
	var out []fix.Fix
	for _, f := range r.Files {
		for i := range f.Sites {
			s := &f.Sites[i]
			out = append(out, fix.Fix{ID: s.FixID(), Title: s.Title, Edits: s.Edits.Clone()})
		}
	}
	return out
}

// SiteCount returns the number of sites over all files.
func (r *ScanResult) SiteCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Sites)
	}
	return n
}

// ListSources возвращает отсортированный список файлов с подходящими расширениями
func ListSources(dir string, exts []string) ([]string, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		want[strings.ToLower(e)] = true
	}
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if want[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ScanDir finds every applicable tweak site in the sources under dir.
// Files are loaded up front and analyzed in parallel; a file that fails
// to load or parse is reported in its result and does not stop the scan.
func ScanDir(ctx context.Context, dir string, opts ScanOptions) (*ScanResult, error) {
	ctx, span := trace.Start(ctx, trace.ScopeDriver, "scan")
	defer span.End("")

	files, err := ListSources(dir, opts.Extensions)
	if err != nil {
		return nil, err
	}
	fileSet := source.NewFileSet()
	results := make([]ScanFileResult, len(files))
	for i, path := range files {
		results[i].Path = path
		id, err := fileSet.Load(path)
		if err != nil {
			results[i].Err = err
			continue
		}
		results[i].FileID = id
		results[i].Path = fileSet.Get(id).Path
	}

	for i := range results {
		if results[i].Err != nil {
			emit(opts.Progress, Event{File: results[i].Path, Stage: StageAnalyze, Status: StatusError, Err: results[i].Err})
			continue
		}
		emit(opts.Progress, Event{File: results[i].Path, Stage: StageAnalyze, Status: StatusQueued})
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	var hits atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(files))))
	for i := range results {
		if results[i].Err != nil {
			continue
		}
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res := &results[i]
			start := time.Now()
			hit, err := scanFile(gctx, fileSet, res, opts)
			evt := Event{File: res.Path, Stage: StageTweaks, Status: StatusDone, Sites: len(res.Sites), Elapsed: time.Since(start)}
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				res.Err = err
				evt.Status, evt.Err = StatusError, err
			}
			if hit {
				hits.Add(1)
				evt.Status = StatusCached
			}
			emit(opts.Progress, evt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	span.WithExtra("files", fmt.Sprint(len(files)))
	return &ScanResult{FileSet: fileSet, Files: results, CacheHits: int(hits.Load())}, nil
}

func scanFile(ctx context.Context, fileSet *source.FileSet, res *ScanFileResult, opts ScanOptions) (bool, error) {
	file := fileSet.Get(res.FileID)
	key := cacheKey(file, opts)
	if opts.Cache != nil {
		var payload CachePayload
		if ok, err := opts.Cache.Get(key, &payload); err == nil && ok {
			if sites, err := payloadToSites(file, &payload); err == nil {
				res.Sites = sites
				res.CacheHit = true
				return true, nil
			}
		}
	}

	emit(opts.Progress, Event{File: res.Path, Stage: StageAnalyze, Status: StatusWorking})
	snap, err := Analyze(ctx, fileSet, res.FileID, opts.Analyze)
	if err != nil {
		return false, err
	}
	res.Bag = snap.Bag
	res.Timing = snap.Timing
	emit(opts.Progress, Event{File: res.Path, Stage: StageTweaks, Status: StatusWorking})
	res.Sites = snap.Sites(ctx, opts)

	if opts.Cache != nil {
		if err := opts.Cache.Put(key, sitesToPayload(file.Path, res.Sites)); err != nil {
			trace.SpanFromContext(ctx).Point("cache.put", err.Error())
		}
	}
	return false, nil
}

// Sites runs the enabled tweaks on every qualified reference written in
// the file. The selection is a cursor on the referenced name.
func (s *Snapshot) Sites(ctx context.Context, opts ScanOptions) []Site {
	var sites []Site
	seen := make(map[uint32]bool)
	s.Tree.Walk(s.Tree.Root, func(id ast.NodeID, n *ast.Node) bool {
		if !n.Qual.IsValid() || (n.Kind != ast.KindNameRef && n.Kind != ast.KindQualifiedType) {
			return true
		}
		if n.NameTok < 0 || n.NameTok >= len(s.Buf.Tokens) {
			return true
		}
		loc := s.Buf.Tokens[n.NameTok].Loc
		if loc.Kind != pp.LocFile || seen[loc.Off] {
			return true
		}
		seen[loc.Off] = true

		req := TweakRequest{Start: loc.Off, End: loc.Off, Options: opts.Tweak, Disabled: opts.Disabled}
		for _, av := range s.Available(ctx, req) {
			if av.Intent != tweak.IntentRefactor {
				continue
			}
			out, err := s.RunTweak(ctx, av.ID, req)
			if err != nil || !out.Effect.HasEdits() {
				continue
			}
			sites = append(sites, Site{
				Path:    s.File.Path,
				File:    s.File.ID,
				TweakID: out.ID,
				Title:   out.Title,
				Offset:  loc.Off,
				Pos:     s.File.Position(loc.Off),
				Edits:   out.Effect.Edits,
			})
		}
		return true
	})
	return sites
}
