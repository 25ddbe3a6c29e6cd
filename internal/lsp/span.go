package lsp

import (
	"sort"
	"unicode/utf8"

	"fortio.org/safecast"

	"cxxtweak/internal/source"
)

const maxUint32 = ^uint32(0)

func safeUint32(n int) uint32 {
	if n < 0 {
		return 0
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return maxUint32
	}
	return v
}

// lineBounds returns [start, end) of a 0-based line, newline excluded.
func lineBounds(file *source.File, line int) (uint32, uint32) {
	contentLen := safeUint32(len(file.Content))
	if line >= len(file.LineStarts) {
		return contentLen, contentLen
	}
	start := file.LineStarts[line]
	end := contentLen
	if line+1 < len(file.LineStarts) {
		end = file.LineStarts[line+1] - 1
	}
	return start, max(start, end)
}

// offsetForPosition converts an LSP position (UTF-16 columns) into a byte
// offset in file. Positions past the end of a line clamp to it.
func offsetForPosition(file *source.File, pos position) uint32 {
	if file == nil || pos.Line < 0 || pos.Character < 0 {
		return 0
	}
	start, end := lineBounds(file, pos.Line)
	units := 0
	off := start
	for off < end && units < pos.Character {
		r, size := utf8.DecodeRune(file.Content[off:end])
		need := 1
		if r > 0xFFFF {
			need = 2
		}
		if units+need > pos.Character {
			break
		}
		units += need
		off += safeUint32(size)
	}
	return off
}

func positionForOffset(file *source.File, offset uint32) position {
	if file == nil {
		return position{}
	}
	offset = min(offset, safeUint32(len(file.Content)))
	starts := file.LineStarts
	line := sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1
	if line < 0 {
		return position{}
	}
	units := 0
	for off := starts[line]; off < offset; {
		r, size := utf8.DecodeRune(file.Content[off:offset])
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
		off += safeUint32(size)
	}
	return position{Line: line, Character: units}
}

func rangeForSpan(file *source.File, span source.Span) lspRange {
	return lspRange{
		Start: positionForOffset(file, span.Start),
		End:   positionForOffset(file, span.End),
	}
}
