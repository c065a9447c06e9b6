package diagfmt

import (
	"encoding/json"
	"io"

	"github.com/google/uuid"

	"wflint/internal/diag"
	"wflint/internal/observ"
	"wflint/internal/source"
)

// LocationJSON представляет местоположение в файле для JSON
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

// NoteJSON представляет дополнительную заметку для JSON
type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// FixJSON представляет исправление и его судьбу
type FixJSON struct {
	Title       string       `json:"title"`
	State       string       `json:"state"`
	Location    LocationJSON `json:"location"`
	NewText     string       `json:"new_text"`
	OldText     string       `json:"old_text,omitempty"`
	BeforeLines []string     `json:"before_lines,omitempty"`
	AfterLines  []string     `json:"after_lines,omitempty"`
}

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Rule     string       `json:"rule,omitempty"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
	Fix      *FixJSON     `json:"fix,omitempty"`
}

// SummaryJSON counts problems by severity and fix outcome.
type SummaryJSON struct {
	Files    int `json:"files"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Infos    int `json:"infos"`
	Fixed    int `json:"fixed"`
	Unfixed  int `json:"unfixed"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	RunID       string           `json:"run_id"`
	Tool        string           `json:"tool,omitempty"`
	Version     string           `json:"version,omitempty"`
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Summary     SummaryJSON      `json:"summary"`
	Timings     *observ.Report   `json:"timings,omitempty"`
}

// RunMeta carries the run-level fields of the JSON report.
type RunMeta struct {
	Tool    string
	Version string
	Files   int
	Timings *observ.Report
}

// makeLocation создаёт LocationJSON из Span
func makeLocation(span source.Span, fs *source.FileSet, pathMode PathMode, includePositions bool) LocationJSON {
	loc := LocationJSON{
		StartByte: span.Start,
		EndByte:   span.End,
	}
	f := fs.Get(span.File)
	if f == nil {
		return loc
	}
	loc.File = formatPath(fs, f, pathMode)
	if includePositions {
		startPos, endPos := fs.Resolve(span)
		loc.StartLine = startPos.Line
		loc.StartCol = startPos.Col
		loc.EndLine = endPos.Line
		loc.EndCol = endPos.Col
	}
	return loc
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
// Summary считается по всем items, даже если Max обрезает список.
func BuildDiagnosticsOutput(items []*diag.Diagnostic, fs *source.FileSet, opts JSONOpts, meta RunMeta) DiagnosticsOutput {
	n := len(items)
	if opts.Max > 0 && opts.Max < n {
		n = opts.Max
	}
	out := DiagnosticsOutput{
		RunID:       uuid.NewString(),
		Tool:        meta.Tool,
		Version:     meta.Version,
		Diagnostics: make([]DiagnosticJSON, 0, n),
		Summary:     summarize(items),
		Timings:     meta.Timings,
	}
	out.Summary.Files = meta.Files

	for _, d := range items[:n] {
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Rule:     d.Rule,
			Message:  d.Message,
			Location: makeLocation(d.Primary, fs, opts.PathMode, opts.IncludePositions),
		}
		if opts.IncludeNotes && len(d.Notes) > 0 {
			dj.Notes = make([]NoteJSON, len(d.Notes))
			for j, note := range d.Notes {
				dj.Notes[j] = NoteJSON{
					Message:  note.Msg,
					Location: makeLocation(note.Span, fs, opts.PathMode, opts.IncludePositions),
				}
			}
		}
		if opts.IncludeFixes && d.Fix != nil {
			edit := d.Fix.Edit
			fj := &FixJSON{
				Title:    d.Fix.Title,
				State:    d.FixState.String(),
				Location: makeLocation(edit.Span, fs, opts.PathMode, opts.IncludePositions),
				NewText:  edit.NewText,
				OldText:  edit.OldText,
			}
			if opts.IncludePreviews {
				if pv, err := previewFix(fs, edit); err == nil {
					fj.BeforeLines = pv.before
					fj.AfterLines = pv.after
				}
			}
			dj.Fix = fj
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	out.Count = len(out.Diagnostics)
	return out
}

func summarize(items []*diag.Diagnostic) SummaryJSON {
	var s SummaryJSON
	for _, d := range items {
		switch d.Severity {
		case diag.SevError:
			s.Errors++
		case diag.SevWarning:
			s.Warnings++
		default:
			s.Infos++
		}
		switch {
		case d.Fixable() && d.FixState == diag.FixApplied:
			s.Fixed++
		case d.Fixable() && d.FixState != diag.FixNotAttempted:
			s.Unfixed++
		}
	}
	return s
}

// JSON форматирует диагностики в JSON формат.
func JSON(w io.Writer, items []*diag.Diagnostic, fs *source.FileSet, opts JSONOpts, meta RunMeta) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildDiagnosticsOutput(items, fs, opts, meta))
}
