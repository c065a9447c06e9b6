package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"wflint/internal/diag"
	"wflint/internal/diagfmt"
	"wflint/internal/driver"
	"wflint/internal/observ"
	"wflint/internal/source"
	"wflint/internal/version"
)

type outputFormat string

const (
	formatPretty outputFormat = "pretty"
	formatShort  outputFormat = "short"
	formatJSON   outputFormat = "json"
	formatSarif  outputFormat = "sarif"
)

func parseOutputFormat(value string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(strings.TrimSpace(value))); f {
	case "":
		return formatPretty, nil
	case formatPretty, formatShort, formatJSON, formatSarif:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected pretty|short|json|sarif)", value)
	}
}

// interactive reports whether the format is meant for a human reader; only
// then the summary line and the progress UI are shown.
func (f outputFormat) interactive() bool {
	return f == formatPretty || f == formatShort
}

func render(out, errOut io.Writer, st *runSettings, fs *source.FileSet, results []*driver.FileResult, sum driver.Summary) error {
	items := driver.Diagnostics(results)
	pathMode := diagfmt.PathModeRelative
	if st.fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}

	var timings *observ.Report
	if st.timings {
		report := driver.MergeTimings(results).Report()
		timings = &report
	}

	switch st.format {
	case formatJSON:
		return diagfmt.JSON(out, items, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     st.withNotes,
			IncludeFixes:     true,
			IncludePreviews:  st.withNotes,
		}, diagfmt.RunMeta{
			Tool:    "wflint",
			Version: version.Version,
			Files:   sum.Files,
			Timings: timings,
		})
	case formatSarif:
		return diagfmt.Sarif(out, items, fs, diagfmt.SarifRunMeta{
			ToolName:       "wflint",
			ToolVersion:    version.Version,
			InvocationArgs: os.Args[1:],
		})
	case formatShort:
		if text := diag.FormatShort(items, fs, st.withNotes); text != "" {
			if _, err := fmt.Fprintln(out, text); err != nil {
				return err
			}
		}
	default:
		diagfmt.Pretty(out, items, fs, diagfmt.PrettyOpts{
			Color:       st.color,
			Context:     1,
			PathMode:    pathMode,
			Width:       100,
			ShowNotes:   st.withNotes,
			ShowFixes:   true,
			ShowPreview: st.withNotes,
		})
		if len(items) > 0 {
			fmt.Fprintln(out)
		}
	}

	if !st.quiet {
		fmt.Fprintln(out, sum.String())
	}
	if timings != nil {
		fmt.Fprint(errOut, driver.MergeTimings(results).Summary())
	}
	return nil
}
