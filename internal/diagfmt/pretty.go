package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/mitchellh/go-wordwrap"

	"wflint/internal/diag"
	"wflint/internal/source"
)

type palette struct {
	err, warn, info, note, gutter, caret, added, removed, dim *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:     mk(color.FgRed, color.Bold),
		warn:    mk(color.FgYellow, color.Bold),
		info:    mk(color.FgCyan, color.Bold),
		note:    mk(color.FgBlue, color.Bold),
		gutter:  mk(color.FgBlue),
		caret:   mk(color.FgRed, color.Bold),
		added:   mk(color.FgGreen),
		removed: mk(color.FgRed),
		dim:     mk(color.Faint),
	}
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид, в порядке items.
// Для каждой диагностики печатает:
// <sev>[<CODE>]: <Message> [rule]
//
//	--> <path>:<line>:<col>
//
// затем строку исходника с подчёркиванием ^~~~ по Span, затем Notes и Fix.
func Pretty(w io.Writer, items []*diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	p := newPalette(opts.Color)
	for i, d := range items {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, d, fs, opts, p)
	}
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) {
	label := strings.ToLower(d.Severity.String())
	header := p.severity(d.Severity).Sprintf("%s[%s]", label, d.Code.ID())
	msg := wrap(d.Message, opts.Width, len(label)+len(d.Code.ID())+4)
	fmt.Fprintf(w, "%s: %s", header, msg)
	if d.Rule != "" {
		fmt.Fprintf(w, " %s", p.dim.Sprintf("[%s]", d.Rule))
	}
	fmt.Fprintln(w)

	file := fs.Get(d.Primary.File)
	if file == nil {
		return
	}
	start, end := fs.Resolve(d.Primary)
	gutterWidth := len(strconv.Itoa(int(start.Line) + int(max(opts.Context, 0))))
	pad := strings.Repeat(" ", gutterWidth)
	fmt.Fprintf(w, "%s%s %s:%d:%d\n", pad, p.gutter.Sprint("-->"), formatPath(fs, file, opts.PathMode), start.Line, start.Col)
	fmt.Fprintf(w, "%s %s\n", pad, p.gutter.Sprint("|"))

	first := uint32(1)
	if ctx := uint32(max(opts.Context, 0)); start.Line > ctx {
		first = start.Line - ctx
	}
	last := start.Line + uint32(max(opts.Context, 0))
	for line := first; line <= last; line++ {
		if line > uint32(len(file.LineIdx))+1 {
			break
		}
		text := file.GetLine(line)
		fmt.Fprintf(w, "%s %s %s\n", p.gutter.Sprintf("%*d", gutterWidth, line), p.gutter.Sprint("|"), expandTabs(text))
		if line == start.Line {
			endCol := uint32(len(text)) + 1
			if end.Line == start.Line {
				endCol = min(end.Col, endCol)
			}
			fmt.Fprintf(w, "%s %s %s\n", pad, p.gutter.Sprint("|"), p.caret.Sprint(caretLine(text, start.Col, endCol)))
		}
	}

	if opts.ShowNotes {
		for _, n := range d.Notes {
			loc := ""
			if nf := fs.Get(n.Span.File); nf != nil {
				ns, _ := fs.Resolve(n.Span)
				loc = fmt.Sprintf("%s:%d:%d: ", formatPath(fs, nf, opts.PathMode), ns.Line, ns.Col)
			}
			fmt.Fprintf(w, "%s %s %s%s\n", pad, p.note.Sprint("= note:"), loc, wrap(n.Msg, opts.Width, gutterWidth+10))
		}
	}
	if opts.ShowFixes && d.Fix != nil {
		state := ""
		if d.FixState != diag.FixNotAttempted {
			state = " (" + d.FixState.String() + ")"
		}
		fmt.Fprintf(w, "%s %s %s%s apply=%q\n", pad, p.note.Sprint("= fix:"), d.Fix.Title, state, d.Fix.Edit.NewText)
		if opts.ShowPreview {
			if pv, err := previewFix(fs, d.Fix.Edit); err == nil && !pv.unchanged() {
				fmt.Fprintf(w, "%s %s\n", pad, p.dim.Sprintf("preview (line %d):", pv.line))
				for _, l := range pv.before {
					fmt.Fprintf(w, "%s %s\n", pad, p.removed.Sprint("- "+l))
				}
				for _, l := range pv.after {
					fmt.Fprintf(w, "%s %s\n", pad, p.added.Sprint("+ "+l))
				}
			}
		}
	}
}

// caretLine underlines the byte columns [startCol, endCol) of text; widths
// follow the terminal cell width of each rune.
func caretLine(text string, startCol, endCol uint32) string {
	startCol = max(startCol, 1)
	from := min(int(startCol-1), len(text))
	to := min(max(int(endCol-1), from), len(text))
	lead := cellWidth(text[:from])
	n := max(cellWidth(text[from:to]), 1)
	return strings.Repeat(" ", lead) + "^" + strings.Repeat("~", n-1)
}

func cellWidth(s string) int {
	w := 0
	for _, r := range s {
		if r == '\t' {
			w += tabWidth
			continue
		}
		w += runewidth.RuneWidth(r)
	}
	return w
}

const tabWidth = 4

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

// wrap folds s to width, indenting continuation lines by indent.
func wrap(s string, width uint8, indent int) string {
	if width == 0 || int(width) <= indent+10 {
		return s
	}
	lines := strings.Split(wordwrap.WrapString(s, uint(int(width)-indent)), "\n")
	return strings.Join(lines, "\n"+strings.Repeat(" ", indent))
}
