package fix

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"cxxtweak/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode determines selection strategy for fixes.
type ApplyMode uint8

const (
	ApplyModeOnce ApplyMode = iota
	ApplyModeAll
	ApplyModeID
)

// ApplyOptions configures how fixes are selected and whether files are written.
type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
	Write    bool
}

// Fix is one tweak effect ready to be applied.
type Fix struct {
	ID    string
	Title string
	Edits Replacements
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	ID        string
	Title     string
	Path      string
	EditCount int
}

// SkippedFix captures a skipped or failed fix with a reason.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// FileChange summarises modifications performed on a file.
type FileChange struct {
	File      source.FileID
	Path      string
	EditCount int
	Before    []byte
	After     []byte
}

// ApplyResult aggregates applied fixes, skipped ones, and file changes.
type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

type candidate struct {
	fix   Fix
	file  source.FileID
	start uint32
	order int
}

// Apply selects fixes according to opts and applies them against the
// contents stored in fs. Files are written only when opts.Write is set.
func Apply(fs *source.FileSet, fixes []Fix, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{
		Applied:     make([]AppliedFix, 0),
		Skipped:     make([]SkippedFix, 0),
		FileChanges: make([]FileChange, 0),
	}
	if fs == nil {
		return result, fmt.Errorf("fix: FileSet is nil")
	}

	candidates, skips := gatherCandidates(fixes)
	result.Skipped = append(result.Skipped, skips...)
	if len(candidates) == 0 {
		return result, ErrNoFixes
	}
	sortCandidates(candidates)

	selected, selectionSkips := selectCandidates(candidates, opts)
	result.Skipped = append(result.Skipped, selectionSkips...)
	if len(selected) == 0 {
		return result, ErrNoFixes
	}

	applied, skipped, changes, err := applyCandidates(fs, selected, opts.Write)
	result.Applied = append(result.Applied, applied...)
	result.Skipped = append(result.Skipped, skipped...)
	result.FileChanges = append(result.FileChanges, changes...)
	if err != nil {
		return result, err
	}
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}
	return result, nil
}

func gatherCandidates(fixes []Fix) ([]candidate, []SkippedFix) {
	cands := make([]candidate, 0, len(fixes))
	skips := make([]SkippedFix, 0)
	seen := make(map[string]bool)
	for order, f := range fixes {
		file, ok := f.Edits.File()
		if !ok || f.Edits.Len() == 0 {
			skips = append(skips, SkippedFix{ID: f.ID, Title: f.Title, Reason: "fix has no edits"})
			continue
		}
		if f.ID == "" {
			f.ID = fmt.Sprintf("fix-%d-%d-%d", file, f.Edits.items[0].Offset, order)
		}
		if seen[f.ID] {
			skips = append(skips, SkippedFix{ID: f.ID, Title: f.Title, Reason: "duplicate fix id"})
			continue
		}
		seen[f.ID] = true
		cands = append(cands, candidate{
			fix:   f,
			file:  file,
			start: primaryOffset(&f.Edits),
			order: order,
		})
	}
	return cands, skips
}

// primaryOffset is the first non-insert edit, which is where the fix was requested.
func primaryOffset(rs *Replacements) uint32 {
	for _, r := range rs.items {
		if !r.IsInsert() {
			return r.Offset
		}
	}
	return rs.items[0].Offset
}

// sortCandidates orders by file, primary offset, arrival order, ID and title.
func sortCandidates(candidates []candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		ci, cj := candidates[i], candidates[j]
		if ci.file != cj.file {
			return ci.file < cj.file
		}
		if ci.start != cj.start {
			return ci.start < cj.start
		}
		if ci.order != cj.order {
			return ci.order < cj.order
		}
		if ci.fix.ID != cj.fix.ID {
			return ci.fix.ID < cj.fix.ID
		}
		return ci.fix.Title < cj.fix.Title
	})
}

func selectCandidates(candidates []candidate, opts ApplyOptions) ([]candidate, []SkippedFix) {
	switch opts.Mode {
	case ApplyModeID:
		for _, cand := range candidates {
			if cand.fix.ID == opts.TargetID {
				return []candidate{cand}, nil
			}
		}
		return nil, []SkippedFix{{
			ID:     opts.TargetID,
			Reason: "fix id not found",
		}}
	case ApplyModeAll:
		return candidates, nil
	case ApplyModeOnce:
		return candidates[:1], nil
	default:
		return nil, nil
	}
}

// applyCandidates stages every fix into a per-file Replacements set.
// A fix whose edits conflict with already accepted ones is skipped as a whole;
// an insertion identical to an accepted one is dropped silently.
func applyCandidates(fs *source.FileSet, selected []candidate, write bool) ([]AppliedFix, []SkippedFix, []FileChange, error) {
	staged := make(map[source.FileID]*Replacements)
	applied := make([]AppliedFix, 0, len(selected))
	skipped := make([]SkippedFix, 0)

	for _, cand := range selected {
		file := fs.Get(cand.file)
		if file == nil {
			skipped = append(skipped, SkippedFix{ID: cand.fix.ID, Title: cand.fix.Title, Reason: "unknown file"})
			continue
		}
		if write && file.Flags&source.FileVirtual != 0 {
			skipped = append(skipped, SkippedFix{ID: cand.fix.ID, Title: cand.fix.Title, Reason: "target file is virtual"})
			continue
		}
		set := staged[cand.file]
		if set == nil {
			set = &Replacements{}
		}
		working := set.Clone()
		count := 0
		var skipReason string
		for _, r := range cand.fix.Edits.items {
			err := working.Add(r)
			switch {
			case err == nil:
				count++
			case errors.Is(err, ErrDuplicate):
			default:
				skipReason = fmt.Sprintf("conflicts with previously applied edits in %s: %v", file.Path, err)
			}
			if skipReason != "" {
				break
			}
		}
		if skipReason == "" {
			if _, err := working.Apply(file.Content); err != nil {
				skipReason = err.Error()
			}
		}
		if skipReason != "" {
			skipped = append(skipped, SkippedFix{ID: cand.fix.ID, Title: cand.fix.Title, Reason: skipReason})
			continue
		}
		staged[cand.file] = &working
		applied = append(applied, AppliedFix{
			ID:        cand.fix.ID,
			Title:     cand.fix.Title,
			Path:      file.Path,
			EditCount: count,
		})
	}

	if len(applied) == 0 {
		return applied, skipped, nil, nil
	}

	fileChanges := make([]FileChange, 0, len(staged))
	for fileID, set := range staged {
		file := fs.Get(fileID)
		after, err := set.Apply(file.Content)
		if err != nil {
			return applied, skipped, fileChanges, fmt.Errorf("apply %s: %w", file.Path, err)
		}
		if write {
			if err := writeFile(file, after); err != nil {
				return applied, skipped, fileChanges, err
			}
		}
		fileChanges = append(fileChanges, FileChange{
			File:      fileID,
			Path:      file.Path,
			EditCount: set.Len(),
			Before:    file.Content,
			After:     after,
		})
	}

	sort.SliceStable(fileChanges, func(i, j int) bool {
		return fileChanges[i].Path < fileChanges[j].Path
	})
	return applied, skipped, fileChanges, nil
}

// writeFile stores normalised content back in the file's on-disk convention.
func writeFile(file *source.File, content []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(file.Path); err == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(file.Path, source.Restore(content, file.Flags), mode); err != nil {
		return fmt.Errorf("write %s: %w", file.Path, err)
	}
	return nil
}
