package diag

import "wflint/internal/source"

// problemKey identifies a problem independently of the phase that found it.
type problemKey struct {
	code Code
	span source.Span
	msg  string
}

func keyOf(d *Diagnostic) problemKey {
	return problemKey{code: d.Code, span: d.Primary, msg: d.Message}
}

// DedupReporter forwards a problem the first time it is seen. The tokenizer
// and the builder can both describe one broken construct; a repeat only
// contributes its fix when the first report had none, and a higher severity.
// Not safe for concurrent use.
type DedupReporter struct {
	next    Reporter
	kept    map[problemKey]*Diagnostic
	dropped int
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, kept: make(map[problemKey]*Diagnostic)}
}

func (r *DedupReporter) Report(d *Diagnostic) {
	if r == nil || d == nil {
		return
	}
	k := keyOf(d)
	if first, ok := r.kept[k]; ok {
		r.dropped++
		if first.Fix == nil && d.Fix != nil {
			first.Fix = d.Fix
		}
		first.Severity = max(first.Severity, d.Severity)
		return
	}
	r.kept[k] = d
	if r.next != nil {
		r.next.Report(d)
	}
}

// Dropped returns how many repeats were swallowed.
func (r *DedupReporter) Dropped() int {
	if r == nil {
		return 0
	}
	return r.dropped
}
