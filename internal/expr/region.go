package expr

import (
	"fmt"
	"strings"

	"wflint/internal/diag"
	"wflint/internal/source"
)

const (
	openMarker  = "${{"
	closeMarker = "}}"
)

// RuleName is stamped on structural expression problems.
const RuleName = "expression-syntax"

// Text is scalar content as YAML decoded it. Offsets[i] is the offset of
// the raw source byte that produced Value[i], relative to the scalar start,
// plus one final entry for the end. Nil Offsets means Value is the source
// text itself.
type Text struct {
	Value   string
	Offsets []int
}

func (t Text) rawOffset(i int) int {
	if t.Offsets == nil {
		return i
	}
	return t.Offsets[i]
}

func (t Text) span(pos source.Pos, start, end int) source.Span {
	return spanOf(pos, t.rawOffset(start), t.rawOffset(end))
}

// ParseString finds every ${{ ... }} region of raw and parses it.
// pos is the position of raw[0] in the source. Each region that fails to
// parse yields a Raw node and exactly one problem; later regions are still
// parsed.
func ParseString(raw string, pos source.Pos, r diag.Reporter) []*Region {
	return Parse(Text{Value: raw}, false, pos, r)
}

// ParseImplicit parses a condition that may be written without markers
// (the value of an if: key). Marked text is handled like ParseString.
func ParseImplicit(raw string, pos source.Pos, r diag.Reporter) []*Region {
	return Parse(Text{Value: raw}, true, pos, r)
}

// Parse is ParseString (or ParseImplicit when implicit is set) over decoded
// text. Spans of regions and nodes point into the raw source.
func Parse(t Text, implicit bool, pos source.Pos, r diag.Reporter) []*Region {
	if r == nil {
		r = diag.NopReporter
	}
	if strings.Contains(t.Value, openMarker) {
		return parseMarked(t, pos, r)
	}
	if !implicit || strings.TrimSpace(t.Value) == "" {
		return nil
	}
	reg := &Region{
		Span:     t.span(pos, 0, len(t.Value)),
		Inner:    t.span(pos, 0, len(t.Value)),
		Implicit: true,
	}
	reg.Expr = parseInner(t, 0, len(t.Value), reg, pos, r)
	return []*Region{reg}
}

func parseMarked(t Text, pos source.Pos, r diag.Reporter) []*Region {
	text := t.Value
	var regions []*Region
	i := 0
	for {
		rel := strings.Index(text[i:], openMarker)
		if rel < 0 {
			break
		}
		start := i + rel
		innerStart := start + len(openMarker)
		innerEnd, end, nested := findClose(text, innerStart)

		reg := &Region{
			Span:  t.span(pos, start, end),
			Inner: t.span(pos, innerStart, innerEnd),
		}
		switch {
		case innerEnd == end:
			reg.Expr = &Raw{Sp: reg.Span, Text: text[start:end]}
			report(r, diag.StrUnclosedExpression, reg.Span,
				fmt.Sprintf("expression %q is missing the closing %q", abbreviate(text[start:end]), closeMarker))
		case nested >= 0:
			reg.Expr = &Raw{Sp: reg.Span, Text: text[start:end]}
			report(r, diag.StrNestedExpression, t.span(pos, nested, nested+len(openMarker)),
				"expressions cannot be nested")
		default:
			reg.Expr = parseInner(t, innerStart, innerEnd, reg, pos, r)
		}
		regions = append(regions, reg)
		i = end
	}
	return regions
}

// parseInner parses t.Value[from:to].
func parseInner(t Text, from, to int, reg *Region, pos source.Pos, r diag.Reporter) Node {
	text := t.Value[from:to]
	at := func(i int) uint32 {
		return pos.Offset + uint32(t.rawOffset(from+i)) // #nosec G115 -- bounded by file size
	}
	n, perr := parseText(text, pos.File, at)
	if perr == nil {
		return n
	}
	sp := t.span(pos, from+perr.start, from+perr.end)
	if perr.start == perr.end {
		sp = reg.Inner
	}
	report(r, diag.StrBadExpression, sp, fmt.Sprintf("invalid expression: %s", perr.msg))
	return &Raw{Sp: reg.Span, Text: text}
}

// findClose scans from the start of the inner text to the closing marker,
// skipping over single-quoted literals. It returns the end of the inner text,
// the end of the region, and the offset of a nested opening marker or -1.
// When the region is unclosed both ends equal len(raw).
func findClose(raw string, from int) (innerEnd, end, nested int) {
	nested = -1
	inString := false
	for j := from; j < len(raw); j++ {
		c := raw[j]
		if c == '\'' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		if strings.HasPrefix(raw[j:], closeMarker) {
			return j, j + len(closeMarker), nested
		}
		if nested < 0 && strings.HasPrefix(raw[j:], openMarker) {
			nested = j
		}
	}
	return len(raw), len(raw), nested
}

func spanOf(pos source.Pos, start, end int) source.Span {
	return source.Span{
		File:  pos.File,
		Start: pos.Offset + uint32(start), // #nosec G115 -- bounded by file size
		End:   pos.Offset + uint32(end),   // #nosec G115
	}
}

func report(r diag.Reporter, code diag.Code, sp source.Span, msg string) {
	diag.ReportError(r, code, sp, msg).WithRule(RuleName).Emit()
}

func abbreviate(s string) string {
	const limit = 40
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
