package source

import (
	"bytes"
	"path/filepath"
	"slices"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// normalizeCRLF заменяет \r\n на \n, одиночные \r не трогает.
func normalizeCRLF(content []byte) ([]byte, bool) {
	if !slices.Contains(content, '\r') {
		return content, false
	}
	out := make([]byte, 0, len(content))
	changed := false
	for i := 0; i < len(content); i++ {
		if content[i] == '\r' && i+1 < len(content) && content[i+1] == '\n' {
			changed = true
			continue
		}
		out = append(out, content[i])
	}
	return out, changed
}

func removeBOM(content []byte) ([]byte, bool) {
	if bytes.HasPrefix(content, bom) {
		return content[len(bom):], true
	}
	return content, false
}

// Restore converts normalised content back to the on-disk convention
// recorded in flags, so rewritten files keep their BOM and line endings.
func Restore(content []byte, flags FileFlags) []byte {
	out := content
	if flags&FileNormalizedCRLF != 0 {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte("\r\n"))
	}
	if flags&FileHadBOM != 0 {
		out = append(slices.Clone(bom), out...)
	}
	return out
}

func buildLineStarts(content []byte) []uint32 {
	starts := make([]uint32, 1, 1+bytes.Count(content, []byte("\n")))
	for i, b := range content {
		if b == '\n' {
			starts = append(starts, uint32(i+1)) // #nosec G115 -- length checked in Add
		}
	}
	return starts
}

func toLineCol(starts []uint32, off uint32) LineCol {
	// наибольший starts[i] <= off
	i, found := slices.BinarySearch(starts, off)
	if !found {
		i--
	}
	if i < 0 {
		i = 0
	}
	return LineCol{Line: uint32(i + 1), Col: off - starts[i] + 1} // #nosec G115 -- bounded by line count
}

func normalizePath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}
