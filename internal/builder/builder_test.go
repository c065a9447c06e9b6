package builder

import (
	"path/filepath"
	"strings"
	"testing"

	"wflint/internal/ast"
	"wflint/internal/diag"
	"wflint/internal/expr"
	"wflint/internal/source"
	"wflint/internal/testkit"
	"wflint/internal/yamltok"
)

func build(t *testing.T, src string) (*source.File, *ast.Workflow, []*diag.Diagnostic) {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("ci.yml", []byte(src)))
	rep := &diag.SliceReporter{}
	res := yamltok.Tokenize(file, rep)
	wf := Build(file, res.Tokens, rep, Options{Partial: res.Failed})
	return file, wf, rep.Items
}

func codes(diags []*diag.Diagnostic) []diag.Code {
	out := make([]diag.Code, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Code)
	}
	return out
}

const sample = `name: CI
on: [push, pull_request]
env:
  GLOBAL: x
jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
        with:
          fetch-depth: 0
      - id: compile
        run: make ${{ matrix.target }}
  test:
    needs: build
    if: needs.build.result == 'success'
    runs-on: ubuntu-latest
    colour: red
    steps:
      - run: echo ${{ steps.compile.outputs.bin }}
        if: ${{ always() }}
  deploy:
    needs: [build, test]
    uses: ./.github/workflows/deploy.yml
    with:
      env: prod
`

func TestBuildWorkflow(t *testing.T) {
	_, wf, diags := build(t, sample)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", codes(diags))
	}
	if wf.Name.Value != "CI" {
		t.Fatalf("name = %q", wf.Name.Value)
	}
	if _, ok := wf.On.(*ast.Sequence); !ok {
		t.Fatalf("on should be a sequence, got %T", wf.On)
	}
	if wf.Env.Scalar("GLOBAL").Value != "x" {
		t.Fatal("env not assembled")
	}
	ids := make([]string, 0, len(wf.Jobs))
	for _, j := range wf.Jobs {
		ids = append(ids, j.ID.Value)
	}
	if strings.Join(ids, ",") != "build,test,deploy" {
		t.Fatalf("job order %v", ids)
	}

	build := wf.Job("build")
	if len(build.Steps) != 2 {
		t.Fatalf("build has %d steps", len(build.Steps))
	}
	checkout := build.Steps[0]
	if checkout.Uses.Value != "actions/checkout@v4" || checkout.Input("fetch-depth").Value.Value != "0" {
		t.Fatalf("checkout step not assembled: %+v", checkout)
	}
	if build.Steps[1].ID.Value != "compile" || len(build.Steps[1].Run.Exprs) != 1 {
		t.Fatal("compile step not assembled")
	}

	test := wf.Job("test")
	if len(test.Needs) != 1 || test.Needs[0].Value != "build" || !test.HasNeed("build") {
		t.Fatalf("test needs %v", test.Needs)
	}
	if len(test.If.Exprs) != 1 || !test.If.Exprs[0].Implicit {
		t.Fatal("job if should be parsed as an implicit expression")
	}
	if len(test.Unknown) != 1 || test.Unknown[0].Key.Value != "colour" {
		t.Fatalf("unknown keys %v", test.Unknown)
	}
	if test.Steps[0].If.Exprs[0].Implicit {
		t.Fatal("marked condition should not be implicit")
	}

	deploy := wf.Job("deploy")
	if len(deploy.Needs) != 2 || deploy.Uses == nil || len(deploy.With) != 1 {
		t.Fatalf("deploy not assembled: %+v", deploy)
	}
}

func TestStringsRoundTripAndOrder(t *testing.T) {
	file, wf, _ := build(t, sample)
	if err := testkit.CheckSpanInvariants(wf, file); err != nil {
		t.Fatal(err)
	}
	count := 0
	for range wf.Strings() {
		count++
	}
	if count == 0 {
		t.Fatal("no strings visited")
	}
}

func TestFixturesKeepSpanInvariants(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "testdata", "workflows", "*.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no fixtures found")
	}
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			fs := source.NewFileSet()
			id, err := fs.Load(path)
			if err != nil {
				t.Fatal(err)
			}
			file := fs.Get(id)
			rep := &diag.SliceReporter{}
			res := yamltok.Tokenize(file, rep)
			wf := Build(file, res.Tokens, rep, Options{Partial: res.Failed})
			if err := testkit.CheckSpanInvariants(wf, file); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestStringsScope(t *testing.T) {
	_, wf, _ := build(t, sample)
	found := false
	for scope, s := range wf.Expressions() {
		if strings.Contains(s.Raw, "steps.compile") {
			found = true
			if scope.Job == nil || scope.Job.ID.Value != "test" || scope.Step == nil || scope.Key != "run" {
				t.Fatalf("unexpected scope %+v", scope)
			}
		}
	}
	if !found {
		t.Fatal("expression not visited")
	}
}

func TestDuplicateJobKeepsFirst(t *testing.T) {
	src := `on: push
jobs:
  build:
    runs-on: first
  build:
    runs-on: second
    steps:
      - run: ${{ broken ==
`
	_, wf, diags := build(t, src)
	if len(diags) != 1 || diags[0].Code != diag.StrDuplicateJob {
		t.Fatalf("want exactly one duplicate-job problem, got %v", codes(diags))
	}
	if diags[0].Primary.Start == 0 || len(diags[0].Notes) != 1 {
		t.Fatal("problem should point at the second id and note the first")
	}
	if len(wf.Jobs) != 1 {
		t.Fatalf("want 1 job, got %d", len(wf.Jobs))
	}
	if rs := wf.Job("build").RunsOn.(*ast.String); rs.Value != "first" {
		t.Fatalf("runs-on = %q, want first", rs.Value)
	}
}

func TestDuplicateKey(t *testing.T) {
	src := "on: push\njobs:\n  a:\n    runs-on: x\n    runs-on: y\n"
	_, wf, diags := build(t, src)
	if len(diags) != 1 || diags[0].Code != diag.StrDuplicateKey {
		t.Fatalf("got %v", codes(diags))
	}
	if wf.Job("a").RunsOn.(*ast.String).Value != "x" {
		t.Fatal("first value should win")
	}
}

func TestPlaceholders(t *testing.T) {
	src := `on: push
jobs:
  scalar-job: oops
  real:
    runs-on: x
    needs: scalar-job
    steps:
      - just a string
      - run: ok
`
	_, wf, diags := build(t, src)
	got := codes(diags)
	if len(got) != 2 || got[0] != diag.StrExpectedMapping || got[1] != diag.StrExpectedMapping {
		t.Fatalf("got %v", got)
	}
	if wf.Job("scalar-job") == nil || wf.Job("scalar-job").Body == nil {
		t.Fatal("placeholder job missing")
	}
	steps := wf.Job("real").Steps
	if len(steps) != 2 || steps[0].Body == nil || steps[1].Run.Value != "ok" || steps[1].Index != 1 {
		t.Fatalf("steps not aligned: %+v", steps)
	}
}

func TestShapeErrors(t *testing.T) {
	src := `on: push
jobs:
  a:
    runs-on: x
    needs: {b: c}
    steps: nope
    with: [1]
`
	_, _, diags := build(t, src)
	got := codes(diags)
	want := []diag.Code{diag.StrExpectedSequence, diag.StrExpectedSequence, diag.StrExpectedMapping}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestEmptyAndNonMappingDocuments(t *testing.T) {
	_, wf, diags := build(t, "")
	if len(diags) != 1 || diags[0].Code != diag.StrEmptyDocument || wf.Root == nil {
		t.Fatalf("empty file: %v", codes(diags))
	}
	_, _, diags = build(t, "- a\n- b\n")
	if len(diags) != 1 || diags[0].Code != diag.StrExpectedMapping {
		t.Fatalf("sequence root: %v", codes(diags))
	}
}

func TestSyntaxErrorDoesNotReportEmpty(t *testing.T) {
	_, wf, diags := build(t, "jobs: [a\n")
	if len(diags) != 1 || diags[0].Code != diag.YamlSyntax {
		t.Fatalf("got %v", codes(diags))
	}
	if wf == nil || len(wf.Jobs) != 0 {
		t.Fatal("expected empty best-effort workflow")
	}
}

func TestExtraDocument(t *testing.T) {
	_, wf, diags := build(t, "on: push\njobs: {}\n---\nname: other\n")
	if len(diags) != 1 || diags[0].Code != diag.StrExtraDocument || diags[0].Severity != diag.SevWarning {
		t.Fatalf("got %v", codes(diags))
	}
	if wf.Name != nil {
		t.Fatal("second document must be ignored")
	}
}

func TestMismatchedAndUnterminatedTokens(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("ci.yml", []byte("a: b\n")))
	pos := file.PosAt(0)
	toks := []yamltok.Token{
		{Kind: yamltok.KindBlockMarker, Pos: pos},
		{Kind: yamltok.KindMappingStart, Pos: pos},
		{Kind: yamltok.KindScalar, Pos: pos, Value: "a", Raw: "a", Tag: "!!str"},
		{Kind: yamltok.KindSequenceStart, Pos: file.PosAt(3)},
		{Kind: yamltok.KindMappingEnd, Pos: file.PosAt(4)},
	}
	rep := &diag.SliceReporter{}
	wf := Build(file, toks, rep, Options{})
	got := codes(rep.Items)
	if len(got) != 2 || got[0] != diag.StrMismatchedEnd || got[1] != diag.StrUnterminated {
		t.Fatalf("got %v", got)
	}
	if wf.Root.Get("a") == nil {
		t.Fatal("best-effort tree should keep the entry")
	}
}

func TestQuotedScalarsParseDecodedExpressions(t *testing.T) {
	src := `on: push
jobs:
  build:
    runs-on: ubuntu-latest
    if: 'github.ref == ''refs/heads/main'''
    steps:
      - run: 'echo ${{ format(''{0}'', github.ref) }}'
      - run: "echo ${{ format('{0}-\x41', github.sha) }}"
`
	file, wf, diags := build(t, src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", codes(diags))
	}
	if err := testkit.CheckSpanInvariants(wf, file); err != nil {
		t.Fatal(err)
	}
	text := func(sp source.Span) string {
		return string(file.Content[sp.Start:sp.End])
	}

	var calls []*expr.Call
	for scope, s := range wf.Expressions() {
		switch n := s.Exprs[0].Expr.(type) {
		case *expr.Binary:
			if scope.Key != "if" {
				t.Fatalf("binary outside if: %q", s.Raw)
			}
			if got := text(n.Left.Span()); got != "github.ref" {
				t.Fatalf("left span covers %q", got)
			}
			if got := text(n.Right.Span()); got != "''refs/heads/main''" {
				t.Fatalf("literal span covers %q", got)
			}
		case *expr.Call:
			calls = append(calls, n)
		default:
			t.Fatalf("unexpected node %T for %q", n, s.Raw)
		}
	}
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	if got := text(calls[0].Args[0].Span()); got != "''{0}''" {
		t.Fatalf("single-quoted argument covers %q", got)
	}
	if got := text(calls[1].Args[0].Span()); got != `'{0}-\x41'` {
		t.Fatalf("double-quoted argument covers %q", got)
	}
	if got := text(calls[1].NameSpan); got != "format" {
		t.Fatalf("name span covers %q", got)
	}
}
