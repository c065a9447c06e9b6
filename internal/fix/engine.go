package fix

import (
	"errors"
	"slices"

	"wflint/internal/diag"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// Result is the outcome of applying the fixes of one file.
type Result struct {
	// Content is the rewritten text; it aliases the input when nothing applied.
	Content []byte
	Applied []*diag.Diagnostic
	// Unfixed holds problems whose fix conflicted or went stale.
	Unfixed []*diag.Diagnostic
}

// Changed reports whether at least one edit was applied.
func (r *Result) Changed() bool {
	return len(r.Applied) > 0
}

// Err returns ErrNoFixes when nothing was applied.
func (r *Result) Err() error {
	if !r.Changed() {
		return ErrNoFixes
	}
	return nil
}

type candidate struct {
	d     *diag.Diagnostic
	edit  diag.TextEdit
	order int
}

// Apply rewrites content with the fixes attached to diagnostics. Edits are
// taken right to left; an edit overlapping an accepted one is dropped and its
// diagnostic marked FixConflict, an edit whose guard no longer matches is
// marked FixStale. Every other fixable diagnostic ends up FixApplied.
func Apply(content []byte, diagnostics []*diag.Diagnostic) *Result {
	cands := make([]candidate, 0, len(diagnostics))
	for _, d := range diagnostics {
		if !d.Fixable() {
			continue
		}
		cands = append(cands, candidate{d: d, edit: d.Fix.Edit, order: len(cands)})
	}
	res := &Result{Content: content}
	if len(cands) == 0 {
		return res
	}
	sortCandidates(cands)

	accepted := make([]diag.TextEdit, 0, len(cands))
	for _, c := range cands {
		old, fits := c.edit.Span.In(content)
		switch {
		case !fits || (c.edit.OldText != "" && old != c.edit.OldText):
			c.d.FixState = diag.FixStale
		case duplicateOf(accepted, c.edit):
			// тот же текст в том же месте уже вставлен другой диагностикой
			c.d.FixState = diag.FixApplied
			res.Applied = append(res.Applied, c.d)
			continue
		case conflictsWithAccepted(accepted, c.edit):
			c.d.FixState = diag.FixConflict
		default:
			c.d.FixState = diag.FixApplied
			accepted = append(accepted, c.edit)
			res.Applied = append(res.Applied, c.d)
			continue
		}
		res.Unfixed = append(res.Unfixed, c.d)
	}
	if len(accepted) > 0 {
		res.Content = applyEdits(content, accepted)
	}
	return res
}

// sortCandidates orders by descending start, then descending end, then
// discovery order.
func sortCandidates(cands []candidate) {
	slices.SortStableFunc(cands, func(a, b candidate) int {
		if a.edit.Span.Start != b.edit.Span.Start {
			return cmpDesc(a.edit.Span.Start, b.edit.Span.Start)
		}
		if a.edit.Span.End != b.edit.Span.End {
			return cmpDesc(a.edit.Span.End, b.edit.Span.End)
		}
		return a.order - b.order
	})
}

func cmpDesc(a, b uint32) int {
	if a > b {
		return -1
	}
	return 1
}

// applyEdits expects edits sorted right to left and pairwise disjoint, so
// each one can use the original offsets.
func applyEdits(content []byte, edits []diag.TextEdit) []byte {
	out := slices.Clone(content)
	for _, e := range edits {
		tail := slices.Clone(out[e.Span.End:])
		out = append(append(out[:e.Span.Start], e.NewText...), tail...)
	}
	return out
}

func conflictsWithAccepted(accepted []diag.TextEdit, edit diag.TextEdit) bool {
	for _, prev := range accepted {
		if spansConflict(prev, edit) {
			return true
		}
	}
	return false
}

func duplicateOf(accepted []diag.TextEdit, edit diag.TextEdit) bool {
	for _, prev := range accepted {
		if prev.Span == edit.Span && prev.NewText == edit.NewText {
			return true
		}
	}
	return false
}

// spansConflict reports whether two edits overlap; see source.Span.Clashes.
func spansConflict(a, b diag.TextEdit) bool {
	return a.Span.Clashes(b.Span)
}
