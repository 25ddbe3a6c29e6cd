package pp

import (
	"sort"
	"strings"

	"cxxtweak/internal/source"
	"cxxtweak/internal/token"
)

// Token is one token of the expanded stream.
// Off is its position in Buffer.Text, the text handed to the parser.
type Token struct {
	Kind  token.Kind
	Flags token.Flags
	Text  string
	Loc   Loc
	Off   uint32
}

func (t Token) End() uint32 { return t.Off + uint32(len(t.Text)) } // #nosec G115

// Buffer is the preprocessed form of one file.
type Buffer struct {
	File       *source.File
	Tokens     []Token
	Text       string
	Expansions []Expansion // [0] не используется
	Macros     map[string]*Macro
}

func newBuffer(file *source.File, toks []ppToken, exps []Expansion, macros map[string]*Macro) *Buffer {
	b := &Buffer{File: file, Expansions: exps, Macros: macros}
	var sb strings.Builder
	b.Tokens = make([]Token, 0, len(toks))
	for i, t := range toks {
		if i > 0 {
			if t.Loc.Kind == LocFile && t.Flags&token.FlagLineStart != 0 {
				sb.WriteByte('\n')
			} else {
				sb.WriteByte(' ')
			}
		}
		off := uint32(sb.Len()) // #nosec G115 -- file size is bounded
		sb.WriteString(t.Text)
		b.Tokens = append(b.Tokens, Token{Kind: t.Kind, Flags: t.Flags, Text: t.Text, Loc: t.Loc, Off: off})
	}
	b.Text = sb.String()

	for i, t := range b.Tokens {
		for id := t.Loc.Expansion; id != NoExpansion; id = b.Expansions[id].Parent {
			x := &b.Expansions[id]
			if x.First < 0 {
				x.First = i
			}
			x.Last = i
		}
	}
	return b
}

// Expansion returns the record for id.
func (b *Buffer) Expansion(id ExpansionID) *Expansion {
	return &b.Expansions[id]
}

// Outermost climbs to the expansion whose invocation is written in the file.
func (b *Buffer) Outermost(id ExpansionID) *Expansion {
	for b.Expansions[id].Parent != NoExpansion {
		id = b.Expansions[id].Parent
	}
	return &b.Expansions[id]
}

// ExpansionSpan maps a location to the file range it was expanded at:
// the token itself for file tokens, the outermost invocation otherwise.
func (b *Buffer) ExpansionSpan(l Loc) source.Span {
	if l.Kind == LocFile {
		return source.Span{File: b.File.ID, Start: l.Off, End: l.End}
	}
	return b.Outermost(l.Expansion).Span
}

// IsMacroBody reports whether l was produced by a macro body rather than
// written in the file or in a macro argument.
func (b *Buffer) IsMacroBody(l Loc) bool {
	return l.Kind == LocMacroBody
}

// TokenAt returns the index of the token whose text covers expanded
// offset off, or -1.
func (b *Buffer) TokenAt(off uint32) int {
	i := sort.Search(len(b.Tokens), func(i int) bool { return b.Tokens[i].End() > off })
	if i < len(b.Tokens) && b.Tokens[i].Off <= off {
		return i
	}
	return -1
}

// TokensIn maps an expanded-text range onto token indices [first, last].
func (b *Buffer) TokensIn(start, end uint32) (first, last int, ok bool) {
	first = sort.Search(len(b.Tokens), func(i int) bool { return b.Tokens[i].Off >= start })
	last = sort.Search(len(b.Tokens), func(i int) bool { return b.Tokens[i].End() > end }) - 1
	if first >= len(b.Tokens) || last < first {
		return 0, 0, false
	}
	return first, last, true
}

// Touching lists the expanded tokens a cursor at file offset off touches.
// File and argument tokens touch through their own spelling; body tokens
// through the invocation they came from.
func (b *Buffer) Touching(off uint32) []int {
	var out []int
	for i, t := range b.Tokens {
		sp := b.selectionSpan(t.Loc)
		if sp.Start <= off && off < sp.End {
			out = append(out, i)
		}
	}
	return out
}

// Overlapping lists the expanded tokens whose selection span intersects
// the file range [start, end). An empty range behaves like Touching.
func (b *Buffer) Overlapping(start, end uint32) []int {
	if start >= end {
		return b.Touching(start)
	}
	var out []int
	for i, t := range b.Tokens {
		sp := b.selectionSpan(t.Loc)
		if sp.Start < end && start < sp.End {
			out = append(out, i)
		}
	}
	return out
}

func (b *Buffer) selectionSpan(l Loc) source.Span {
	if l.Kind == LocMacroBody {
		return b.ExpansionSpan(l)
	}
	return source.Span{File: b.File.ID, Start: l.Off, End: l.End}
}

// SpelledForExpanded maps expanded tokens [first, last] to the file bytes
// they were written as. It fails when the run covers only part of a macro
// body, or when argument tokens are not contiguous in the file.
func (b *Buffer) SpelledForExpanded(first, last int) (source.Span, bool) {
	if first < 0 || last >= len(b.Tokens) || first > last {
		return source.Span{}, false
	}
	ft, lt := b.Tokens[first].Loc, b.Tokens[last].Loc

	// весь диапазон внутри одного аргумента
	if ft.Kind == LocMacroArg && ft.WrittenIn() == lt.WrittenIn() {
		prev := ft.Off
		for i := first; i <= last; i++ {
			l := b.Tokens[i].Loc
			if l.WrittenIn() != ft.WrittenIn() || l.Off < prev {
				return source.Span{}, false
			}
			prev = l.End
		}
		return source.Span{File: b.File.ID, Start: ft.Off, End: lt.End}, true
	}

	start, ok := b.spelledStart(first)
	if !ok {
		return source.Span{}, false
	}
	end, ok := b.spelledEnd(last)
	if !ok || end < start {
		return source.Span{}, false
	}
	return source.Span{File: b.File.ID, Start: start, End: end}, true
}

func (b *Buffer) spelledStart(i int) (uint32, bool) {
	l := b.Tokens[i].Loc
	if l.Kind == LocFile {
		return l.Off, true
	}
	x := b.Outermost(l.Expansion)
	if x.First != i {
		return 0, false
	}
	return x.Span.Start, true
}

func (b *Buffer) spelledEnd(i int) (uint32, bool) {
	l := b.Tokens[i].Loc
	if l.Kind == LocFile {
		return l.End, true
	}
	x := b.Outermost(l.Expansion)
	if x.Last != i {
		return 0, false
	}
	return x.Span.End, true
}
