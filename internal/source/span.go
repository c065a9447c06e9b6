package source

import (
	"fmt"
)

// Span is a half-open byte range [Start, End) of one file version.
type Span struct {
	File  FileID
	Start uint32
	End   uint32
}

// Empty spans mark insertion points.
func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d-%d", s.File, s.Start, s.End)
}

// Contains reports whether off lies inside the span.
func (s Span) Contains(off uint32) bool {
	return s.Start <= off && off < s.End
}

// Cover returns the smallest span holding both; spans of other files are ignored.
func (s Span) Cover(other Span) Span {
	if s.File != other.File {
		return s
	}
	s.Start = min(s.Start, other.Start)
	s.End = max(s.End, other.End)
	return s
}

// In returns the text under the span, or false when the span does not fit
// the content (a fix computed for an older file version).
func (s Span) In(content []byte) (string, bool) {
	if s.Start > s.End || int(s.End) > len(content) {
		return "", false
	}
	return string(content[s.Start:s.End]), true
}

// Clashes reports whether two edits on these spans cannot both be applied.
// Insertion points never clash with each other and touch a replaced range
// only strictly inside it, so text may be added at either end of it.
func (s Span) Clashes(other Span) bool {
	if s.File != other.File {
		return false
	}
	switch {
	case s.Empty() && other.Empty():
		return false
	case s.Empty():
		return other.Start < s.Start && s.Start < other.End
	case other.Empty():
		return s.Start < other.Start && other.Start < s.End
	}
	return s.Start < other.End && other.Start < s.End
}
