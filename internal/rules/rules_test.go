package rules

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"wflint/internal/actions"
	"wflint/internal/builder"
	"wflint/internal/diag"
	"wflint/internal/jobgraph"
	"wflint/internal/source"
	"wflint/internal/yamltok"
)

func newInput(t *testing.T, src string, res actions.Resolver) *Input {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("ci.yml", []byte(src)))
	rep := &diag.SliceReporter{}
	toks := yamltok.Tokenize(file, rep)
	wf := builder.Build(file, toks.Tokens, rep, builder.Options{Partial: toks.Failed})
	g := jobgraph.Build(wf, diag.NopReporter)
	if len(rep.Items) != 0 {
		t.Fatalf("unexpected build diagnostics: %s", rep.Items[0].Message)
	}
	return &Input{File: file, Workflow: wf, Graph: g, Resolver: res}
}

func runRule(t *testing.T, r Rule, in *Input) []*diag.Diagnostic {
	t.Helper()
	return slices.Collect(r.Check(context.Background(), in))
}

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "workflows", name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return string(data)
}

// applyFix returns the source with the diagnostic's single edit applied.
func applyFix(t *testing.T, in *Input, d *diag.Diagnostic) string {
	t.Helper()
	if d.Fix == nil {
		t.Fatalf("diagnostic %q has no fix", d.Message)
	}
	e := d.Fix.Edit
	content := string(in.File.Content)
	if got := content[e.Span.Start:e.Span.End]; got != e.OldText {
		t.Fatalf("edit guard %q does not match source %q", e.OldText, got)
	}
	return content[:e.Span.Start] + e.NewText + content[e.Span.End:]
}

func textAt(in *Input, sp source.Span) string {
	return string(in.File.Content[sp.Start:sp.End])
}

func TestRegistrationOrder(t *testing.T) {
	want := []string{"workflow-schema", "event-trigger", "expressions-contexts", "needs-context", "steps-io-match", "jobs-steps-uses"}
	if got := Names(); !slices.Equal(got, want) {
		t.Fatalf("Names() = %v", got)
	}
	if _, ok := Lookup("needs-context"); !ok {
		t.Fatal("Lookup failed")
	}
	if !slices.IsSorted(knownEvents) {
		t.Fatal("knownEvents must stay sorted")
	}
}

func TestSuggest(t *testing.T) {
	tests := []struct {
		got        string
		candidates []string
		want       string
		ok         bool
	}{
		{"runs-onn", []string{"runs-on", "run-name"}, "runs-on", true},
		{"pull_requests", knownEvents, "pull_request", true},
		{"buld", []string{"build", "test"}, "build", true},
		{"deploy", []string{"build", "test"}, "", false},
		{"build", []string{"build"}, "", false},
	}
	for _, tt := range tests {
		got, ok := Suggest(tt.got, tt.candidates, DefaultSimilarity)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Suggest(%q) = %q, %v; want %q, %v", tt.got, got, ok, tt.want, tt.ok)
		}
	}
	if Similarity("café", "cafe\u0301") != 1 {
		t.Error("NFC folding expected")
	}
}

func TestSchemaRule(t *testing.T) {
	src := `name: ci
on: push
permisions: read-all
jobs:
  build:
    runs-onn: ubuntu-latest
    steps:
      - run: make
        uses: actions/checkout@v4
      - name: nothing
`
	in := newInput(t, src, nil)
	ds := runRule(t, Schema{}, in)
	codes := make([]diag.Code, len(ds))
	for i, d := range ds {
		codes[i] = d.Code
	}
	want := []diag.Code{diag.SemUnknownKey, diag.SemUnknownKey, diag.SemMissingRunsOn, diag.SemStepUsesRun, diag.SemStepUsesRun}
	if !slices.Equal(codes, want) {
		t.Fatalf("codes = %v, want %v", codes, want)
	}
	if got := applyFix(t, in, ds[0]); !strings.Contains(got, "\npermissions: read-all\n") {
		t.Fatalf("workflow key fix produced:\n%s", got)
	}
	if got := applyFix(t, in, ds[1]); !strings.Contains(got, "    runs-on: ubuntu-latest") {
		t.Fatalf("job key fix produced:\n%s", got)
	}
	if textAt(in, ds[3].Primary) != "run" || len(ds[3].Notes) != 1 {
		t.Fatalf("uses/run conflict anchored at %q", textAt(in, ds[3].Primary))
	}
	if !strings.Contains(ds[4].Message, "step nothing") {
		t.Fatalf("message %q", ds[4].Message)
	}
}

func TestSchemaMissingTopLevelKeys(t *testing.T) {
	in := newInput(t, "name: lonely\n", nil)
	ds := runRule(t, Schema{}, in)
	if len(ds) != 2 || !strings.Contains(ds[0].Message, `"on"`) || !strings.Contains(ds[1].Message, `"jobs"`) {
		t.Fatalf("unexpected %v", ds)
	}
}

func TestEventTriggerRule(t *testing.T) {
	forms := map[string]string{
		"scalar":   "on: pull_requests\njobs: {}\n",
		"sequence": "on: [push, pull_requests]\njobs: {}\n",
		"mapping":  "on:\n  push:\n  pull_requests:\n    branches: [main]\njobs: {}\n",
	}
	for name, src := range forms {
		t.Run(name, func(t *testing.T) {
			in := newInput(t, src, nil)
			ds := runRule(t, EventTrigger{}, in)
			if len(ds) != 1 || ds[0].Code != diag.SemUnknownEvent {
				t.Fatalf("got %v", ds)
			}
			if got := applyFix(t, in, ds[0]); strings.Contains(got, "pull_requests") || !strings.Contains(got, "pull_request") {
				t.Fatalf("fix produced:\n%s", got)
			}
		})
	}
}

func TestExpressionContextsRule(t *testing.T) {
	src := `on: push
jobs:
  build:
    runs-on: ${{ matrix.os }}
    strategy:
      matrix:
        os: [ubuntu-latest, windows-latest]
    steps:
      - run: echo ${{ github.shaa }} ${{ github.event.pull_request.head.sha }}
      - run: echo ${{ foo.bar }} ${{ matrix.arch }} ${{ env.ANY.thing }}
      - if: ${{ contain(github.ref, 'main') && toJson(runner.os) }}
        run: echo ${{ strategy.job-index }} ${{ matrix['os'] }} ${{ job.services.db.ports[5432] }}
`
	in := newInput(t, src, nil)
	ds := runRule(t, ExpressionContexts{}, in)
	var got []string
	for _, d := range ds {
		got = append(got, textAt(in, d.Primary))
	}
	want := []string{"shaa", "foo", "arch", "contain"}
	if !slices.Equal(got, want) {
		t.Fatalf("anchors = %v, want %v", got, want)
	}
	if ds[0].Message != `expression "github.shaa" does not match any context` {
		t.Fatalf("message %q", ds[0].Message)
	}
	if ds[0].Fix == nil || ds[0].Fix.Edit.NewText != "sha" {
		t.Fatalf("expected sha suggestion, got %+v", ds[0].Fix)
	}
	if ds[2].Fix != nil {
		t.Fatalf("unexpected fix for matrix.arch: %+v", ds[2].Fix)
	}
	if ds[3].Code != diag.SemUnknownFunction || ds[3].Fix.Edit.NewText != "contains" {
		t.Fatalf("function problem %+v", ds[3])
	}
}

func TestDynamicMatrixAcceptsAnything(t *testing.T) {
	src := `on: push
jobs:
  a:
    runs-on: ubuntu-latest
    strategy:
      matrix:
        os: [ubuntu-latest]
        include:
          - os: macos-latest
            extra: yes
    steps:
      - run: echo ${{ matrix.extra }}
  b:
    runs-on: ubuntu-latest
    strategy:
      matrix: ${{ fromJSON(needs.setup.outputs.matrix) }}
    steps:
      - run: echo ${{ matrix.whatever }}
`
	in := newInput(t, src, nil)
	if ds := runRule(t, ExpressionContexts{}, in); len(ds) != 0 {
		t.Fatalf("unexpected %v", ds)
	}
}

func TestNeedsContextFixture(t *testing.T) {
	in := newInput(t, loadFixture(t, "needs_validation_workflow.yml"), nil)
	ds := runRule(t, NeedsContext{}, in)
	if len(ds) != 1 {
		t.Fatalf("want exactly one problem, got %d: %v", len(ds), ds)
	}
	d := ds[0]
	if d.Code != diag.SemInvalidNeedsContext || d.Rule != "needs-context" {
		t.Fatalf("unexpected %+v", d)
	}
	if textAt(in, d.Primary) != "build" || in.File.PosAt(d.Primary.Start).Line != 25 {
		t.Fatalf("anchored at %q line %d", textAt(in, d.Primary), in.File.PosAt(d.Primary.Start).Line)
	}
	if !strings.Contains(d.Message, `job "test-invalid"`) || !strings.Contains(d.Message, "not a direct dependency") {
		t.Fatalf("message %q", d.Message)
	}
}

func TestNeedsContextIsDirectOnly(t *testing.T) {
	src := `on: push
jobs:
  a:
    runs-on: x
    outputs:
      version: v1
    steps: [{run: "true"}]
  build:
    runs-on: x
    needs: a
    steps: [{run: "true"}]
  c:
    runs-on: x
    needs: build
    steps:
      - run: echo ${{ needs.a.result }} ${{ needs.buld.result }} ${{ needs.build.reslt }}
  d:
    runs-on: x
    needs: [a]
    steps:
      - run: echo ${{ needs.a.outputs.versio }} ${{ needs.a.outputs.version }}
`
	in := newInput(t, src, nil)
	ds := runRule(t, NeedsContext{}, in)
	if len(ds) != 4 {
		t.Fatalf("want 4 problems, got %v", ds)
	}
	if !strings.Contains(ds[0].Message, "not a direct dependency") || ds[0].Fix != nil {
		t.Fatalf("transitive dependency: %+v", ds[0])
	}
	if ds[1].Fix == nil || ds[1].Fix.Edit.NewText != "build" {
		t.Fatalf("buld should suggest build: %+v", ds[1])
	}
	if ds[2].Fix == nil || ds[2].Fix.Edit.NewText != "result" {
		t.Fatalf("reslt should suggest result: %+v", ds[2])
	}
	if ds[3].Code != diag.SemUnknownOutput || ds[3].Fix.Edit.NewText != "version" {
		t.Fatalf("output problem %+v", ds[3])
	}
}

func TestStepsIORule(t *testing.T) {
	src := `on: push
jobs:
  build:
    runs-on: x
    outputs:
      sha: ${{ steps.checkout.outputs.commit }}
    steps:
      - run: echo ${{ steps.meta.outputs.tag }}
      - id: meta
        run: echo tag=1 >> "$GITHUB_OUTPUT"
      - id: checkout
        uses: actions/checkout@v4
      - run: |
          echo ${{ steps.metaa.outputs.tag }}
          echo ${{ steps.meta.output.tag }}
          echo ${{ steps.checkout.outputs.comit }}
          echo ${{ steps.meta.outcome }} ${{ steps.checkout.outputs.ref }}
`
	res := actions.Static{"actions/checkout": {Outputs: []string{"ref", "commit"}}}
	in := newInput(t, src, res)
	ds := runRule(t, StepsIO{}, in)
	var anchors []string
	for _, d := range ds {
		anchors = append(anchors, textAt(in, d.Primary))
	}
	want := []string{"meta", "metaa", "output", "comit"}
	if !slices.Equal(anchors, want) {
		t.Fatalf("anchors = %v, want %v", anchors, want)
	}
	if !strings.Contains(ds[0].Message, "before it runs") {
		t.Fatalf("message %q", ds[0].Message)
	}
	if ds[1].Message != `step "metaa" in job "build" does not exist. Available steps in this job: 'meta', 'checkout'` {
		t.Fatalf("message %q", ds[1].Message)
	}
	for i, want := range map[int]string{1: "meta", 2: "outputs", 3: "commit"} {
		if ds[i].Fix == nil || ds[i].Fix.Edit.NewText != want {
			t.Errorf("problem %d: want fix %q, got %+v", i, want, ds[i].Fix)
		}
	}
}

func TestContextsOutsideJobs(t *testing.T) {
	src := "on: push\nrun-name: ${{ needs.a.result }} ${{ steps.x.outcome }}\njobs: {}\n"
	in := newInput(t, src, nil)
	if ds := runRule(t, NeedsContext{}, in); len(ds) != 1 {
		t.Fatalf("needs outside job: %v", ds)
	}
	if ds := runRule(t, StepsIO{}, in); len(ds) != 1 {
		t.Fatalf("steps outside job: %v", ds)
	}
}

func checkoutMeta() *actions.Metadata {
	return &actions.Metadata{
		Name: "Checkout",
		Inputs: []actions.Input{
			{Name: "repository", HasDefault: true},
			{Name: "token", Required: true},
			{Name: "ssh-key", Required: true, HasDefault: true},
		},
		Outputs: []string{"ref", "commit"},
		Tags:    []string{"v4.2.0", "v4", "v3"},
	}
}

func TestUsesRule(t *testing.T) {
	src := `on: push
jobs:
  build:
    runs-on: x
    steps:
      - uses: actions/checkout
        with:
          token: t
      - uses: actions/checkout@v3
        with:
          tokenn: t
      - uses: "actions/checkout@b4ffde65f46336ab88eb53be808477a3936bae11"
        with: {token: t}
      - uses: checkout
      - uses: ./local/action
      - uses: acme/unknown@v1
      - uses: ${{ matrix.action }}
`
	res := actions.Static{"actions/checkout": checkoutMeta()}
	in := newInput(t, src, res)
	ds := runRule(t, Uses{}, in)
	codes := make([]diag.Code, len(ds))
	for i, d := range ds {
		codes[i] = d.Code
	}
	want := []diag.Code{
		diag.SemUnpinnedAction,
		diag.SemOutdatedAction, diag.SemMissingInput, diag.SemUnknownInput,
		diag.SemBadUses,
		diag.NetMetadataUnavailable,
	}
	if !slices.Equal(codes, want) {
		t.Fatalf("codes = %v, want %v", codes, want)
	}

	if got := applyFix(t, in, ds[0]); !strings.Contains(got, "- uses: actions/checkout@v4.2.0\n") {
		t.Fatalf("pin fix produced:\n%s", got)
	}
	if ds[1].Message != "Action actions/checkout uses v3 which is major version outdated. Current latest is v4.2.0." {
		t.Fatalf("message %q", ds[1].Message)
	}
	if got := applyFix(t, in, ds[1]); !strings.Contains(got, "- uses: actions/checkout@v4\n") {
		t.Fatalf("update fix produced:\n%s", got)
	}
	if ds[2].Message != "actions/checkout requires inputs: token" {
		t.Fatalf("message %q", ds[2].Message)
	}
	if got := applyFix(t, in, ds[3]); strings.Contains(got, "tokenn") {
		t.Fatalf("input fix produced:\n%s", got)
	}
	if ds[5].Severity != diag.SevInfo {
		t.Fatalf("metadata problem severity %v", ds[5].Severity)
	}
}

func TestUsesRuleWithoutResolver(t *testing.T) {
	src := "on: push\njobs:\n  a:\n    runs-on: x\n    steps:\n      - uses: actions/checkout\n      - uses: actions/checkout@v1\n"
	in := newInput(t, src, nil)
	ds := runRule(t, Uses{}, in)
	if len(ds) != 1 || ds[0].Code != diag.SemUnpinnedAction || ds[0].Fix != nil {
		t.Fatalf("unexpected %v", ds)
	}
}

func TestRulesStopWhenConsumerStops(t *testing.T) {
	src := "on: [a1, a2, a3]\njobs: {}\n"
	in := newInput(t, src, nil)
	n := 0
	for range (EventTrigger{}).Check(context.Background(), in) {
		n++
		break
	}
	if n != 1 {
		t.Fatalf("consumed %d", n)
	}
}

func TestRenameNeverTargetsSiblingKey(t *testing.T) {
	src := `on:
  push:
  pushh:
jobs:
  build:
    runs-on: x
    runs-onn: y
    steps:
      - uses: actions/checkout@v4
        with:
          token: t
          tokenn: t
`
	in := newInput(t, src, actions.Static{"actions/checkout": checkoutMeta()})
	var ds []*diag.Diagnostic
	for _, r := range []Rule{Schema{}, EventTrigger{}, Uses{}} {
		ds = append(ds, runRule(t, r, in)...)
	}
	seen := map[diag.Code]int{}
	for _, d := range ds {
		seen[d.Code]++
		if d.Fix != nil {
			t.Errorf("%s %q suggests %q, already a sibling", d.Code.ID(), d.Message, d.Fix.Edit.NewText)
		}
	}
	for _, code := range []diag.Code{diag.SemUnknownKey, diag.SemUnknownEvent, diag.SemUnknownInput} {
		if seen[code] != 1 {
			t.Errorf("%s reported %d times, want 1", code.ID(), seen[code])
		}
	}
}
