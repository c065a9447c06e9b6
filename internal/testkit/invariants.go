// Package testkit holds checks shared by the tests of several packages.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"wflint/internal/ast"
	"wflint/internal/source"
)

// CheckSpanInvariants verifies the positions of a built workflow against
// its file:
// 1) every scalar points into sf and its Raw text is exactly the source
// at its offset, with Line/Col matching the offset;
// 2) scalars are visited in non-decreasing offset order;
// 3) every expression region lies inside its scalar.
func CheckSpanInvariants(wf *ast.Workflow, sf *source.File) error {
	if wf == nil || sf == nil {
		return fmt.Errorf("nil workflow or file")
	}
	size, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if wf.File != sf.ID {
		return fmt.Errorf("workflow points to different file id: got=%d want=%d", wf.File, sf.ID)
	}

	var last uint32
	for _, s := range wf.Strings() {
		if s.Pos.File != sf.ID {
			return fmt.Errorf("scalar %q points to file %d", s.Raw, s.Pos.File)
		}
		rawLen, err := safecast.Conv[uint32](len(s.Raw))
		if err != nil {
			return fmt.Errorf("raw length overflow: %w", err)
		}
		end := s.Pos.Offset + rawLen
		if end > size {
			return fmt.Errorf("scalar %q ends beyond content: %d > %d", s.Raw, end, size)
		}
		if got := string(sf.Content[s.Pos.Offset:end]); got != s.Raw {
			return fmt.Errorf("raw %q does not match source %q at %d", s.Raw, got, s.Pos.Offset)
		}
		if want := sf.PosAt(s.Pos.Offset); want.Line != s.Pos.Line || want.Col != s.Pos.Col {
			return fmt.Errorf("scalar %q at %d:%d, offset says %d:%d", s.Raw, s.Pos.Line, s.Pos.Col, want.Line, want.Col)
		}
		if s.Pos.Offset < last {
			return fmt.Errorf("offset of %q goes backwards: %d < %d", s.Raw, s.Pos.Offset, last)
		}
		last = s.Pos.Offset

		for _, reg := range s.Exprs {
			if reg.Span.Start < s.Pos.Offset || reg.Span.End > end {
				return fmt.Errorf("region %v escapes scalar %q", reg.Span, s.Raw)
			}
			if reg.Inner.Start < reg.Span.Start || reg.Inner.End > reg.Span.End {
				return fmt.Errorf("inner span %v escapes region %v", reg.Inner, reg.Span)
			}
		}
	}
	return nil
}
