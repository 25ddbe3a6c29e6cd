package fix

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"fortio.org/safecast"

	"cxxtweak/internal/source"
)

var (
	// ErrOverlap is returned by Replacements.Add when two edits touch the same bytes.
	ErrOverlap = errors.New("replacement overlaps an existing one")
	// ErrMixedFiles is returned when a replacement targets another file than the set.
	ErrMixedFiles = errors.New("replacements target different files")
	// ErrDuplicate marks an insertion identical to one already in the set.
	ErrDuplicate = errors.New("identical insertion already present")
	// ErrOutOfRange is returned by Apply when an edit does not fit the content.
	ErrOutOfRange = errors.New("replacement out of range")
	// ErrStale is returned by Apply when the expected old text no longer matches.
	ErrStale = errors.New("existing text does not match expected content")
)

// Replacement rewrites Length bytes at Offset of File with Text.
// Expect, when set, must equal the replaced bytes at apply time.
type Replacement struct {
	File   source.FileID
	Offset uint32
	Length uint32
	Text   string
	Expect string
}

// Insert returns a zero-length replacement.
func Insert(file source.FileID, off uint32, text string) Replacement {
	return Replacement{File: file, Offset: off, Text: text}
}

// Delete removes span. expect may be empty.
func Delete(span source.Span, expect string) Replacement {
	return Replacement{File: span.File, Offset: span.Start, Length: span.Len(), Expect: expect}
}

// Replace substitutes text for span.
func Replace(span source.Span, text, expect string) Replacement {
	return Replacement{File: span.File, Offset: span.Start, Length: span.Len(), Text: text, Expect: expect}
}

func (r Replacement) Span() source.Span {
	return source.Span{File: r.File, Start: r.Offset, End: r.Offset + r.Length}
}

func (r Replacement) IsInsert() bool { return r.Length == 0 }

func (r Replacement) String() string {
	if r.IsInsert() {
		return fmt.Sprintf("insert %q at %d", r.Text, r.Offset)
	}
	if r.Text == "" {
		return fmt.Sprintf("delete %d..%d", r.Offset, r.Offset+r.Length)
	}
	return fmt.Sprintf("replace %d..%d with %q", r.Offset, r.Offset+r.Length, r.Text)
}

// Replacements is an ordered set of non-overlapping edits of a single file.
// The zero value is an empty set bound to no file yet.
type Replacements struct {
	file  source.FileID
	bound bool
	items []Replacement
}

// Add inserts r keeping the set sorted. An insertion at the first byte of a
// deletion is allowed and lands before the deleted text.
func (rs *Replacements) Add(r Replacement) error {
	if rs.bound && r.File != rs.file {
		return fmt.Errorf("%w: file %d, set holds file %d", ErrMixedFiles, r.File, rs.file)
	}
	for _, prev := range rs.items {
		if prev.IsInsert() && r.IsInsert() && prev.Offset == r.Offset && prev.Text == r.Text {
			return fmt.Errorf("%w: %s", ErrDuplicate, r)
		}
		if spansConflict(prev, r) {
			return fmt.Errorf("%w: %s vs %s", ErrOverlap, r, prev)
		}
	}
	rs.file, rs.bound = r.File, true
	idx := len(rs.items)
	for i, prev := range rs.items {
		if before(r, prev) {
			idx = i
			break
		}
	}
	rs.items = slices.Insert(rs.items, idx, r)
	return nil
}

// before orders by offset; at one offset insertions come first and keep
// their arrival order.
func before(a, b Replacement) bool {
	if a.Offset != b.Offset {
		return a.Offset < b.Offset
	}
	return a.IsInsert() && !b.IsInsert()
}

// spansConflict reports whether two edits overlap as half-open intervals.
// Two insertions never conflict. An insertion conflicts with a non-empty span
// only when it falls strictly inside it.
func spansConflict(a, b Replacement) bool {
	aStart, aEnd := a.Offset, a.Offset+a.Length
	bStart, bEnd := b.Offset, b.Offset+b.Length

	if aStart == aEnd && bStart == bEnd {
		return false
	}
	if aStart == aEnd {
		return bStart < aStart && aStart < bEnd
	}
	if bStart == bEnd {
		return aStart < bStart && bStart < aEnd
	}
	return aStart < bEnd && bStart < aEnd
}

// File reports the file the set is bound to.
func (rs *Replacements) File() (source.FileID, bool) {
	return rs.file, rs.bound
}

func (rs *Replacements) Len() int { return len(rs.items) }

// Items returns the edits in application order.
func (rs *Replacements) Items() []Replacement {
	return slices.Clone(rs.items)
}

// Clone returns an independent copy.
func (rs *Replacements) Clone() Replacements {
	return Replacements{file: rs.file, bound: rs.bound, items: slices.Clone(rs.items)}
}

// Apply returns content with every edit applied.
func (rs *Replacements) Apply(content []byte) ([]byte, error) {
	var sb strings.Builder
	sb.Grow(len(content) + rs.growth())
	last := 0
	for _, r := range rs.items {
		start := int(r.Offset)
		end := start + int(r.Length)
		if start < last || end > len(content) {
			return nil, fmt.Errorf("%w: %s (content has %d bytes)", ErrOutOfRange, r, len(content))
		}
		if r.Expect != "" && string(content[start:end]) != r.Expect {
			return nil, fmt.Errorf("%w: %s", ErrStale, r)
		}
		sb.Write(content[last:start])
		sb.WriteString(r.Text)
		last = end
	}
	sb.Write(content[last:])
	return []byte(sb.String()), nil
}

func (rs *Replacements) growth() int {
	n := 0
	for _, r := range rs.items {
		if d := len(r.Text) - int(r.Length); d > 0 {
			n += d
		}
	}
	return n
}

// Shift maps an offset of the original content to the edited content.
// Offsets inside a replaced range map to its start.
func (rs *Replacements) Shift(off uint32) uint32 {
	delta := 0
	for _, r := range rs.items {
		if r.Offset > off {
			break
		}
		switch {
		case r.IsInsert():
			delta += len(r.Text)
		case r.Offset+r.Length <= off:
			delta += len(r.Text) - int(r.Length)
		default:
			return toOffset(int(r.Offset) + delta)
		}
	}
	return toOffset(int(off) + delta)
}

func toOffset(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("offset overflow: %w", err))
	}
	return v
}
