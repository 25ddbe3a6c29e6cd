package source

import (
	"crypto/sha256"
	"fmt"
	"math"
	"os"

	"fortio.org/safecast"
)

// FileSet owns every source file loaded during one run.
type FileSet struct {
	files []File
	index map[string]FileID // path -> последняя версия
}

// NewFileSet creates an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		index: make(map[string]FileID),
	}
}

// Add stores normalised content and returns a fresh FileID.
// Re-adding a path creates a new version; GetLatest returns the newest.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	if len(content) >= math.MaxUint32 {
		panic(fmt.Errorf("file %s too large: %d bytes", path, len(content)))
	}
	n, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(n)
	normalized := normalizePath(path)
	fileSet.files = append(fileSet.files, File{
		ID:         id,
		Path:       normalized,
		Content:    content,
		LineStarts: buildLineStarts(content),
		Hash:       sha256.Sum256(content),
		Flags:      flags,
	})
	fileSet.index[normalized] = id
	return id
}

// Load reads a file from disk, strips the BOM, normalises CRLF and adds it.
func (fileSet *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return fileSet.AddRaw(path, content, 0), nil
}

// AddRaw normalises raw bytes the same way Load does.
func (fileSet *FileSet) AddRaw(path string, raw []byte, flags FileFlags) FileID {
	content, hadBOM := removeBOM(raw)
	content, hadCRLF := normalizeCRLF(content)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fileSet.Add(path, content, flags)
}

// AddVirtual adds in-memory content with the FileVirtual flag.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	return fileSet.AddRaw(name, content, FileVirtual)
}

// Get returns the file for id. Unknown ids panic.
func (fileSet *FileSet) Get(id FileID) *File {
	return &fileSet.files[id]
}

// Len reports how many file versions the set holds.
func (fileSet *FileSet) Len() int {
	return len(fileSet.files)
}

// GetLatest returns the newest FileID for path.
func (fileSet *FileSet) GetLatest(path string) (FileID, bool) {
	id, ok := fileSet.index[normalizePath(path)]
	return id, ok
}

// Resolve converts a span into start and end line/column positions.
func (fileSet *FileSet) Resolve(span Span) (start, end LineCol) {
	f := &fileSet.files[span.File]
	return f.Position(span.Start), f.Position(span.End)
}

// Len returns the content length in bytes.
func (f *File) Len() uint32 {
	return uint32(len(f.Content)) // #nosec G115 -- bounded in Add
}

// Position converts a byte offset into a 1-based line and column.
func (f *File) Position(off uint32) LineCol {
	if off > f.Len() {
		off = f.Len()
	}
	return toLineCol(f.LineStarts, off)
}

// Offset converts a 1-based line/column back to a byte offset.
// Columns past the end of the line clamp to the line end.
func (f *File) Offset(pos LineCol) (uint32, error) {
	if pos.Line == 0 || int(pos.Line) > len(f.LineStarts) {
		return 0, fmt.Errorf("line %d out of range (file has %d lines)", pos.Line, len(f.LineStarts))
	}
	if pos.Col == 0 {
		return 0, fmt.Errorf("column must be 1-based, got 0")
	}
	start, end := f.lineBounds(pos.Line)
	off := start + pos.Col - 1
	if off > end {
		off = end
	}
	return off, nil
}

// Line returns the text of a 1-based line without its newline.
func (f *File) Line(n uint32) string {
	if n == 0 || int(n) > len(f.LineStarts) {
		return ""
	}
	start, end := f.lineBounds(n)
	return string(f.Content[start:end])
}

// Indent returns the leading blanks of the line holding off.
func (f *File) Indent(off uint32) string {
	start, end := f.lineBounds(f.Position(off).Line)
	i := start
	for i < end && (f.Content[i] == ' ' || f.Content[i] == '\t') {
		i++
	}
	return string(f.Content[start:i])
}

func (f *File) lineBounds(n uint32) (start, end uint32) {
	start = f.LineStarts[n-1]
	end = f.Len()
	if int(n) < len(f.LineStarts) {
		end = f.LineStarts[n] - 1
	}
	return start, end
}
