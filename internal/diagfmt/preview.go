package diagfmt

import (
	"fmt"
	"slices"
	"strings"

	"wflint/internal/diag"
	"wflint/internal/source"
)

// fixPreview shows the lines an edit rewrites: before holds them as they are
// now, after as the fixer would leave them. Lines equal on both sides at the
// edges are left out, line is the number of the first line shown.
type fixPreview struct {
	line   uint32
	before []string
	after  []string
}

func previewFix(fs *source.FileSet, edit diag.TextEdit) (fixPreview, error) {
	if fs == nil {
		return fixPreview{}, fmt.Errorf("nil FileSet")
	}
	file := fs.Get(edit.Span.File)
	if file == nil {
		return fixPreview{}, fmt.Errorf("file %d not found in FileSet", edit.Span.File)
	}
	if _, ok := edit.Span.In(file.Content); !ok {
		return fixPreview{}, fmt.Errorf("edit span %s does not fit file %s", edit.Span, file.Path)
	}

	startPos, endPos := fs.Resolve(edit.Span)
	block := source.Span{
		File:  file.ID,
		Start: file.LineStart(startPos.Line),
		End:   file.LineEnd(max(endPos.Line, startPos.Line)),
	}
	block.End = max(block.End, edit.Span.End)
	text, ok := block.In(file.Content)
	if !ok {
		return fixPreview{}, fmt.Errorf("line block %s out of range", block)
	}

	rel := edit.Span.Start - block.Start
	rewritten := text[:rel] + edit.NewText + text[rel+edit.Span.Len():]

	pv := fixPreview{
		line:   startPos.Line,
		before: previewLines(text),
		after:  previewLines(rewritten),
	}
	for len(pv.before) > 1 && len(pv.after) > 1 && pv.before[0] == pv.after[0] {
		pv.before, pv.after = pv.before[1:], pv.after[1:]
		pv.line++
	}
	for len(pv.before) > 1 && len(pv.after) > 1 && pv.before[len(pv.before)-1] == pv.after[len(pv.after)-1] {
		pv.before, pv.after = pv.before[:len(pv.before)-1], pv.after[:len(pv.after)-1]
	}
	return pv, nil
}

// unchanged reports a preview of an edit that leaves the text as it was.
func (pv fixPreview) unchanged() bool {
	return slices.Equal(pv.before, pv.after)
}

func previewLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(strings.TrimRight(text, "\n"), "\n")
}
