package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags records how the stored content differs from the bytes on disk.
	FileFlags uint8
)

const (
	// FileVirtual marks content that did not come from disk (stdin, tests, LSP buffers).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// File is one translation unit's main source text.
// Content is normalised: no BOM, LF line endings.
type File struct {
	ID         FileID
	Path       string
	Content    []byte
	LineStarts []uint32 // offset первого байта каждой строки
	Hash       [32]byte
	Flags      FileFlags
}

// LineCol is a 1-based line and byte column.
type LineCol struct {
	Line uint32
	Col  uint32
}
