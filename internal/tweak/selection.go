package tweak

import (
	"fmt"
	"strings"

	"cxxtweak/internal/ast"
	"cxxtweak/internal/pp"
	"cxxtweak/internal/source"
	"cxxtweak/internal/symbols"
	"cxxtweak/internal/trace"
)

const traceScope = trace.ScopeTweak

// Inputs are the analysis artefacts of one file. They are shared by every
// selection made on the same snapshot and never modified.
type Inputs struct {
	File    *source.File
	Buf     *pp.Buffer
	Tree    *ast.Tree
	Symbols *symbols.Result
}

// AnchorPlacement says on which side of an existing using-declaration a
// new one goes.
type AnchorPlacement uint8

const (
	AnchorAfter AnchorPlacement = iota
	AnchorBefore
)

func (p AnchorPlacement) String() string {
	if p == AnchorBefore {
		return "before"
	}
	return "after"
}

// ParseAnchorPlacement converts a config value.
func ParseAnchorPlacement(s string) (AnchorPlacement, error) {
	switch strings.ToLower(s) {
	case "", "after":
		return AnchorAfter, nil
	case "before":
		return AnchorBefore, nil
	}
	return AnchorAfter, fmt.Errorf("invalid anchor placement %q (expected: after|before)", s)
}

// Options tune how tweaks shape their edits.
type Options struct {
	Anchor AnchorPlacement
}

// Selection is a cursor or range in the main file together with the
// syntax node it selects.
type Selection struct {
	Inputs
	// Start and End are byte offsets in the main file; Start is the cursor.
	Start, End uint32
	// Node is the deepest node covering every selected token, or
	// ast.NoNodeID when nothing is selected.
	Node    ast.NodeID
	Options Options

	span *trace.Span
}

// NewSelection maps the file range [start, end) onto the syntax tree.
// A cursor (start == end) touching nothing retries one byte to the left,
// so a cursor right after an identifier still selects it.
func NewSelection(in Inputs, start, end uint32, opts Options) *Selection {
	if end < start {
		start, end = end, start
	}
	sel := &Selection{Inputs: in, Start: start, End: end, Options: opts}
	if in.Buf == nil || in.Tree == nil {
		return sel
	}
	toks := in.Buf.Overlapping(start, end)
	if len(toks) == 0 && start == end && start > 0 {
		toks = in.Buf.Touching(start - 1)
	}
	if len(toks) == 0 {
		return sel
	}
	first, last := toks[0], toks[0]
	for _, i := range toks[1:] {
		first = min(first, i)
		last = max(last, i)
	}
	sel.Node = in.Tree.CommonAncestor(first, last)
	return sel
}

// WithSpan attaches the trace span tweak events are emitted under.
func (s *Selection) WithSpan(span *trace.Span) *Selection {
	s.span = span
	return s
}

// Span returns the trace span of the selection; never nil.
func (s *Selection) Span() *trace.Span {
	if s.span == nil {
		return &trace.Span{}
	}
	return s.span
}

// Cursor is the position the selection was requested at.
func (s *Selection) Cursor() uint32 { return s.Start }

// Context returns the declaration context of the selected node.
func (s *Selection) Context() symbols.ScopeID {
	if s.Symbols == nil {
		return symbols.NoScopeID
	}
	if !s.Node.IsValid() {
		return s.Symbols.Table.Root
	}
	return s.Symbols.ScopeOf(s.Node)
}

// FileID returns the main file's ID.
func (s *Selection) FileID() source.FileID {
	if s.File == nil {
		return 0
	}
	return s.File.ID
}
