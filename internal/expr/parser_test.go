package expr

import (
	"strings"
	"testing"

	"wflint/internal/diag"
	"wflint/internal/source"
)

func parse(t *testing.T, raw string, offset uint32) ([]*Region, []*diag.Diagnostic) {
	t.Helper()
	rep := &diag.SliceReporter{}
	regions := ParseString(raw, source.Pos{File: 1, Offset: offset, Line: 1, Col: offset + 1}, rep)
	return regions, rep.Items
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"${{ github.ref }}", "github.ref"},
		{"${{ needs.build.result == 'success' }}", "(needs.build.result == 'success')"},
		{"${{ a || b && c }}", "(a || (b && c))"},
		{"${{ a == b && c != d }}", "((a == b) && (c != d))"},
		{"${{ a < 1 == b >= 2 }}", "((a < 1) == (b >= 2))"},
		{"${{ !a && !(b || c) }}", "(!a && !(b || c))"},
		{"${{ contains(github.event.head_commit.message, '[skip ci]') }}", "contains(github.event.head_commit.message, '[skip ci]')"},
		{"${{ steps.my-step.outputs.value }}", "steps.my-step.outputs.value"},
		{"${{ github.event.issue.labels.*.name }}", "github.event.issue.labels.*.name"},
		{"${{ matrix['os'] }}", "matrix['os']"},
		{"${{ fromJSON(needs.a.outputs.m).include }}", "fromJSON(needs.a.outputs.m).include"},
		{"${{ 'it''s' }}", "'it''s'"},
		{"${{ -1.5e3 }}", "-1.5e3"},
		{"${{ 0xFF }}", "0xFF"},
		{"${{ null }}", "null"},
		{"${{ success() }}", "success()"},
		{"${{ format('{0}}}', x) }}", "format('{0}}}', x)"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			regions, diags := parse(t, tc.in, 0)
			if len(diags) != 0 {
				t.Fatalf("unexpected diagnostics: %s", diags[0].Message)
			}
			if len(regions) != 1 {
				t.Fatalf("want 1 region, got %d", len(regions))
			}
			if got := Format(regions[0].Expr); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestAbsoluteSpans(t *testing.T) {
	raw := "echo ${{ needs.build.result }} and ${{ steps.x.outputs.y }}"
	const base = 100
	regions, diags := parse(t, raw, base)
	if len(diags) != 0 || len(regions) != 2 {
		t.Fatalf("unexpected result: %d regions, %d diags", len(regions), len(diags))
	}
	at := func(sp source.Span) string {
		return raw[sp.Start-base : sp.End-base]
	}
	if got := at(regions[0].Span); got != "${{ needs.build.result }}" {
		t.Fatalf("region 0 span covers %q", got)
	}
	if got := at(regions[1].Inner); got != " steps.x.outputs.y " {
		t.Fatalf("region 1 inner covers %q", got)
	}
	ref := regions[0].Expr.(*ContextRef)
	if ref.Root() != "needs" || len(ref.Parts) != 3 {
		t.Fatalf("unexpected ref %+v", ref)
	}
	if got := at(ref.Parts[1].Span); got != "build" {
		t.Fatalf("part span covers %q", got)
	}
	if got := at(ref.Sp); got != "needs.build.result" {
		t.Fatalf("ref span covers %q", got)
	}
}

func TestBinarySpans(t *testing.T) {
	raw := "${{ a == 'x' }}"
	regions, _ := parse(t, raw, 0)
	bin := regions[0].Expr.(*Binary)
	if got := raw[bin.Sp.Start:bin.Sp.End]; got != "a == 'x'" {
		t.Fatalf("binary span covers %q", got)
	}
	if got := raw[bin.OpSpan.Start:bin.OpSpan.End]; got != "==" {
		t.Fatalf("op span covers %q", got)
	}
	lit := bin.Right.(*Literal)
	if lit.Kind != LitString || lit.Value != "x" {
		t.Fatalf("unexpected literal %+v", lit)
	}
}

func TestBadRegionDoesNotStopLaterRegions(t *testing.T) {
	raw := "${{ a == }} ${{ b.c }}"
	regions, diags := parse(t, raw, 0)
	if len(regions) != 2 {
		t.Fatalf("want 2 regions, got %d", len(regions))
	}
	if !regions[0].Failed() {
		t.Fatal("first region should fall back to raw")
	}
	if rawNode := regions[0].Expr.(*Raw); rawNode.Text != " a == " {
		t.Fatalf("raw text %q", rawNode.Text)
	}
	if regions[1].Failed() {
		t.Fatal("second region should parse")
	}
	if len(diags) != 1 || diags[0].Code != diag.StrBadExpression {
		t.Fatalf("want one bad-expression problem, got %v", diags)
	}
}

func TestUnclosedRegion(t *testing.T) {
	raw := "x ${{ github.ref"
	regions, diags := parse(t, raw, 0)
	if len(regions) != 1 || !regions[0].Failed() {
		t.Fatalf("unexpected regions %+v", regions)
	}
	if regions[0].Span.End != uint32(len(raw)) {
		t.Fatalf("unclosed region should run to the end, got %v", regions[0].Span)
	}
	if len(diags) != 1 || diags[0].Code != diag.StrUnclosedExpression {
		t.Fatalf("unexpected diagnostics %v", diags)
	}
}

func TestNestedRegion(t *testing.T) {
	raw := "${{ a ${{ b }} }}"
	regions, diags := parse(t, raw, 0)
	if len(regions) != 1 || !regions[0].Failed() {
		t.Fatalf("unexpected regions %d", len(regions))
	}
	if len(diags) != 1 || diags[0].Code != diag.StrNestedExpression {
		t.Fatalf("unexpected diagnostics %v", diags)
	}
	if diags[0].Primary.Start != 6 {
		t.Fatalf("nested marker at %d", diags[0].Primary.Start)
	}
}

func TestEmptyAndGarbage(t *testing.T) {
	for _, raw := range []string{"${{ }}", "${{ a b }}", "${{ f(a, }}", "${{ 'open }}", "${{ a = b }}", "${{ 1abc }}"} {
		regions, diags := parse(t, raw, 0)
		if len(regions) != 1 || !regions[0].Failed() {
			t.Errorf("%q: expected raw fallback", raw)
		}
		if len(diags) != 1 {
			t.Errorf("%q: want exactly one problem, got %d", raw, len(diags))
		}
	}
}

func TestDepthLimit(t *testing.T) {
	raw := "${{ " + strings.Repeat("(", MaxDepth+5) + "a" + strings.Repeat(")", MaxDepth+5) + " }}"
	regions, diags := parse(t, raw, 0)
	if len(regions) != 1 || !regions[0].Failed() || len(diags) != 1 {
		t.Fatalf("depth limit not enforced")
	}
}

func TestParseImplicit(t *testing.T) {
	rep := &diag.SliceReporter{}
	regions := ParseImplicit("github.ref == 'refs/heads/main'", source.Pos{File: 1, Offset: 10}, rep)
	if len(regions) != 1 || !regions[0].Implicit || regions[0].Failed() {
		t.Fatalf("unexpected regions %+v", regions)
	}
	if regions[0].Span.Start != 10 {
		t.Fatalf("implicit region starts at %d", regions[0].Span.Start)
	}
	if len(ParseImplicit("  ", source.Pos{}, rep)) != 0 {
		t.Fatal("blank condition should yield no regions")
	}
	marked := ParseImplicit("${{ always() }}", source.Pos{}, rep)
	if len(marked) != 1 || marked[0].Implicit {
		t.Fatal("marked condition should be parsed as explicit region")
	}
	if len(rep.Items) != 0 {
		t.Fatalf("unexpected diagnostics %v", rep.Items)
	}
}

func TestNoMarkers(t *testing.T) {
	regions, diags := parse(t, "plain text with } and {{", 0)
	if regions != nil || diags != nil {
		t.Fatal("text without markers must not produce regions")
	}
}

func TestContextRefsAndCalls(t *testing.T) {
	regions, _ := parse(t, "${{ contains(needs.a.outputs.x, 'y') && steps.s.outcome }}", 0)
	refs := ContextRefs(regions)
	if len(refs) != 2 || refs[0].Path() != "needs.a.outputs.x" || refs[1].Path() != "steps.s.outcome" {
		t.Fatalf("unexpected refs %v", refs)
	}
	calls := Calls(regions)
	if len(calls) != 1 || calls[0].Name != "contains" {
		t.Fatalf("unexpected calls %v", calls)
	}
}
