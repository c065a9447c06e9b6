package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota // добавлен не с диска (тест, stdin)
	FileHadBOM
	// FileHasCRLF marks files with \r\n line endings. Content is kept verbatim
	// so fixes never rewrite line endings.
	FileHasCRLF
)

// File captures metadata and content for a single source file.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // offsets of every '\n'
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based, в байтах
}

// Pos is a fully resolved position: absolute byte offset plus line/column.
type Pos struct {
	File   FileID
	Offset uint32
	Line   uint32 // 1-based
	Col    uint32 // 1-based, в байтах
}

// Span returns the span of n bytes starting at p.
func (p Pos) Span(n int) Span {
	return Span{File: p.File, Start: p.Offset, End: p.Offset + uint32(n)} // #nosec G115 -- n is bounded by file size
}

// Advance returns the position n bytes after p on the same line.
// Line and column are only meaningful when no newline is crossed;
// callers that may cross lines must resolve through File.PosAt.
func (p Pos) Advance(n int) Pos {
	p.Offset += uint32(n) // #nosec G115 -- n is bounded by file size
	p.Col += uint32(n)    // #nosec G115
	return p
}
