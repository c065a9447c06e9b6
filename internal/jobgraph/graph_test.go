package jobgraph

import (
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"wflint/internal/ast"
	"wflint/internal/builder"
	"wflint/internal/diag"
	"wflint/internal/source"
	"wflint/internal/yamltok"
)

func parseWorkflow(t *testing.T, src string) (*source.File, *ast.Workflow) {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("ci.yml", []byte(src)))
	rep := &diag.SliceReporter{}
	res := yamltok.Tokenize(file, rep)
	wf := builder.Build(file, res.Tokens, rep, builder.Options{Partial: res.Failed})
	if len(rep.Items) != 0 {
		t.Fatalf("unexpected build diagnostics: %s", rep.Items[0].Message)
	}
	return file, wf
}

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "workflows", name))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return string(data)
}

func TestCircularDependencyFixture(t *testing.T) {
	file, wf := parseWorkflow(t, loadFixture(t, "circular_dependency_workflow.yml"))
	rep := &diag.SliceReporter{}
	g := Build(wf, rep)
	if len(rep.Items) != 0 {
		t.Fatalf("unexpected reference problems: %v", rep.Items)
	}
	if n := g.ReportCycles(rep); n != 1 {
		t.Fatalf("want 1 cycle, got %d", n)
	}
	if len(rep.Items) != 1 {
		t.Fatalf("want exactly one problem, got %d", len(rep.Items))
	}
	d := rep.Items[0]
	if d.Code != diag.SemDependencyCycle || d.Rule != RuleName {
		t.Fatalf("unexpected problem %+v", d)
	}
	for _, id := range []string{"job-a", "job-b", "job-c"} {
		if !strings.Contains(d.Message, id) {
			t.Fatalf("message %q does not name %s", d.Message, id)
		}
	}
	if d.Message != "circular dependency detected: job-a -> job-c -> job-b -> job-a" {
		t.Fatalf("message %q", d.Message)
	}
	// anchored at job-b's needs entry naming job-a
	if got := string(file.Content[d.Primary.Start:d.Primary.End]); got != "job-a" {
		t.Fatalf("anchor covers %q", got)
	}
	if pos := file.PosAt(d.Primary.Start); pos.Line != 12 {
		t.Fatalf("anchor on line %d, want 12", pos.Line)
	}

	topo := g.Order()
	if !topo.Cyclic || len(topo.Remaining) != 3 || len(topo.Order) != 0 {
		t.Fatalf("unexpected topo %+v", topo)
	}
}

func TestMissingAndSelfReferences(t *testing.T) {
	src := `on: push
jobs:
  a:
    runs-on: x
    needs: [a, ghost, b, b]
  b:
    runs-on: x
`
	_, wf := parseWorkflow(t, src)
	rep := &diag.SliceReporter{}
	g := Build(wf, rep)
	if len(rep.Items) != 2 {
		t.Fatalf("want 2 problems, got %d", len(rep.Items))
	}
	if rep.Items[0].Code != diag.SemSelfDependency || rep.Items[0].Message != `job "a" cannot depend on itself` {
		t.Fatalf("unexpected first problem %+v", rep.Items[0])
	}
	if rep.Items[1].Code != diag.SemUnknownJob || rep.Items[1].Message != `job "a" depends on non-existent job "ghost"` {
		t.Fatalf("unexpected second problem %+v", rep.Items[1])
	}
	if !reflect.DeepEqual(g.DirectNeeds("a"), []string{"b"}) {
		t.Fatalf("duplicate needs should give one edge, got %v", g.DirectNeeds("a"))
	}
	if g.ReportCycles(rep) != 0 {
		t.Fatal("self dependency must not form a cycle")
	}
}

func TestNeedsValidationFixture(t *testing.T) {
	file, wf := parseWorkflow(t, loadFixture(t, "needs_validation_workflow.yml"))
	rep := &diag.SliceReporter{}
	g := Build(wf, rep)
	if len(rep.Items) != 1 || rep.Items[0].Code != diag.SemUnknownJob {
		t.Fatalf("want one unknown-job problem, got %v", rep.Items)
	}
	d := rep.Items[0]
	if got := string(file.Content[d.Primary.Start:d.Primary.End]); got != "missing-job" {
		t.Fatalf("anchor covers %q", got)
	}
	if g.HasEdge("test-invalid", "build") {
		t.Fatal("test-invalid does not need build")
	}
	if !g.HasEdge("report", "test") || g.HasEdge("report", "lint") {
		t.Fatal("edges of report are wrong")
	}
}

func TestOrderBatches(t *testing.T) {
	src := `on: push
jobs:
  deploy:
    runs-on: x
    needs: [test, build]
  test:
    runs-on: x
    needs: build
  build:
    runs-on: x
  docs:
    runs-on: x
`
	_, wf := parseWorkflow(t, src)
	g := Build(wf, nil)
	topo := g.Order()
	if topo.Cyclic {
		t.Fatal("graph is acyclic")
	}
	var batches [][]string
	for _, b := range topo.Batches {
		batches = append(batches, g.Names(b))
	}
	want := [][]string{{"build", "docs"}, {"test"}, {"deploy"}}
	if !reflect.DeepEqual(batches, want) {
		t.Fatalf("batches = %v, want %v", batches, want)
	}
	if !reflect.DeepEqual(g.Names(topo.Order), []string{"build", "docs", "test", "deploy"}) {
		t.Fatalf("order = %v", g.Names(topo.Order))
	}
}

func TestTwoIndependentCycles(t *testing.T) {
	src := `on: push
jobs:
  a: {runs-on: x, needs: b}
  b: {runs-on: x, needs: a}
  c: {runs-on: x, needs: d}
  d: {runs-on: x, needs: c}
  e: {runs-on: x, needs: a}
`
	_, wf := parseWorkflow(t, src)
	g := Build(wf, nil)
	cycles := g.Cycles()
	if len(cycles) != 2 {
		t.Fatalf("want 2 cycles, got %d", len(cycles))
	}
	if g.Describe(cycles[0]) != "a -> b -> a" || g.Describe(cycles[1]) != "c -> d -> c" {
		t.Fatalf("cycles %q %q", g.Describe(cycles[0]), g.Describe(cycles[1]))
	}
	topo := g.Order()
	if !reflect.DeepEqual(g.Names(topo.Remaining), []string{"a", "b", "c", "d", "e"}) {
		t.Fatalf("remaining = %v", g.Names(topo.Remaining))
	}
}

func TestDeepChainDoesNotRecurse(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("on: push\njobs:\n")
	const n = 5000
	for i := range n {
		sb.WriteString("  j")
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString(":\n    runs-on: x\n")
		if i > 0 {
			sb.WriteString("    needs: j")
			sb.WriteString(strconv.Itoa(i - 1))
			sb.WriteString("\n")
		}
	}
	_, wf := parseWorkflow(t, sb.String())
	g := Build(wf, nil)
	if len(g.Cycles()) != 0 {
		t.Fatal("chain has no cycles")
	}
	if len(g.Order().Batches) != n {
		t.Fatal("chain should give one batch per job")
	}
}

