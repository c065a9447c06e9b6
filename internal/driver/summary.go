package driver

import (
	"fmt"
	"strings"

	"wflint/internal/diag"
	"wflint/internal/observ"
)

// Exit codes of a check run.
const (
	ExitOK          = 0
	ExitErrors      = 1
	ExitTooManyWarn = 2
)

// Summary aggregates the results of a run.
type Summary struct {
	Files    int
	Errors   int
	Warnings int
	Infos    int
	Fixed    int
	Unfixed  int // fixable problems still present after the run
	Changed  int // files rewritten
	Dropped  int
}

// Summarize counts problems by severity over results.
func Summarize(results []*FileResult) Summary {
	var s Summary
	for _, r := range results {
		if r == nil {
			continue
		}
		s.Files++
		s.Fixed += len(r.Fixed)
		s.Dropped += r.Dropped
		if r.Changed {
			s.Changed++
		}
		for _, d := range r.Diagnostics {
			switch d.Severity {
			case diag.SevError:
				s.Errors++
			case diag.SevWarning:
				s.Warnings++
			default:
				s.Infos++
			}
			if d.Unfixed() {
				s.Unfixed++
			}
		}
	}
	return s
}

// ExitCode maps a summary to the process status: any error gives 1, more
// warnings than maxWarnings gives 2 (maxWarnings < 0 disables the limit).
func ExitCode(s Summary, maxWarnings int) int {
	switch {
	case s.Errors > 0:
		return ExitErrors
	case maxWarnings >= 0 && s.Warnings > maxWarnings:
		return ExitTooManyWarn
	}
	return ExitOK
}

// String renders the one-line summary printed after the problems.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s checked: %d %s, %d %s, %d info",
		s.Files, plural(s.Files, "file", "files"),
		s.Errors, plural(s.Errors, "error", "errors"),
		s.Warnings, plural(s.Warnings, "warning", "warnings"),
		s.Infos)
	if s.Fixed > 0 || s.Changed > 0 {
		fmt.Fprintf(&b, "; fixed %d in %d %s", s.Fixed, s.Changed, plural(s.Changed, "file", "files"))
	}
	if s.Unfixed > 0 {
		fmt.Fprintf(&b, "; %d fixable left", s.Unfixed)
	}
	if s.Dropped > 0 {
		fmt.Fprintf(&b, "; %d not shown", s.Dropped)
	}
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// MergeTimings folds the per-file timers into one report.
func MergeTimings(results []*FileResult) *observ.Timer {
	total := observ.NewTimer()
	for _, r := range results {
		if r != nil {
			total.Merge(r.Timer)
		}
	}
	return total
}

// Diagnostics flattens the problems of all results in file order.
func Diagnostics(results []*FileResult) []*diag.Diagnostic {
	var out []*diag.Diagnostic
	for _, r := range results {
		if r != nil {
			out = append(out, r.Diagnostics...)
		}
	}
	return out
}
