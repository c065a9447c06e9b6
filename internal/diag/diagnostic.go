package diag

import (
	"wflint/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// TextEdit replaces Span with NewText. OldText, when set, guards the edit:
// the fix engine refuses to apply it if the source no longer matches.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// Fix is a single automated correction attached to a diagnostic.
type Fix struct {
	Title string
	Edit  TextEdit
}

// FixState records what the fix engine did with a diagnostic's Fix.
type FixState uint8

const (
	FixNotAttempted FixState = iota
	FixApplied
	// FixConflict: the edit overlapped an edit that was applied first.
	FixConflict
	// FixStale: the OldText guard did not match the source.
	FixStale
)

func (s FixState) String() string {
	switch s {
	case FixNotAttempted:
		return "not-attempted"
	case FixApplied:
		return "applied"
	case FixConflict:
		return "conflict"
	case FixStale:
		return "stale"
	}
	return "unknown"
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Rule     string // идентификатор правила, породившего диагностику
	Message  string
	Primary  source.Span
	Notes    []Note
	Fix      *Fix
	FixState FixState
}

func New(sev Severity, code Code, primary source.Span, msg string) *Diagnostic {
	return &Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, msg string) *Diagnostic {
	return New(SevError, code, primary, msg)
}

func NewWarning(code Code, primary source.Span, msg string) *Diagnostic {
	return New(SevWarning, code, primary, msg)
}

func NewInfo(code Code, primary source.Span, msg string) *Diagnostic {
	return New(SevInfo, code, primary, msg)
}

// WithRule sets the rule identifier.
func (d *Diagnostic) WithRule(rule string) *Diagnostic {
	d.Rule = rule
	return d
}

func (d *Diagnostic) WithNote(sp source.Span, msg string) *Diagnostic {
	d.Notes = append(d.Notes, Note{Span: sp, Msg: msg})
	return d
}

// WithFix attaches a replacement of span by newText; oldText guards the edit.
func (d *Diagnostic) WithFix(title string, span source.Span, oldText, newText string) *Diagnostic {
	d.Fix = &Fix{
		Title: title,
		Edit:  TextEdit{Span: span, NewText: newText, OldText: oldText},
	}
	return d
}

// Fixable reports whether the diagnostic carries a fix.
func (d *Diagnostic) Fixable() bool {
	return d != nil && d.Fix != nil
}

// Unfixed reports a fixable diagnostic whose fix was not applied.
func (d *Diagnostic) Unfixed() bool {
	return d.Fixable() && d.FixState != FixApplied
}

// Clone returns a shallow copy with its own Notes slice.
func (d *Diagnostic) Clone() *Diagnostic {
	if d == nil {
		return nil
	}
	c := *d
	c.Notes = append([]Note(nil), d.Notes...)
	if d.Fix != nil {
		f := *d.Fix
		c.Fix = &f
	}
	return &c
}
