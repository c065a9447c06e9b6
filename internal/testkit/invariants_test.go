package testkit_test

import (
	"testing"

	"wflint/internal/builder"
	"wflint/internal/diag"
	"wflint/internal/source"
	"wflint/internal/testkit"
	"wflint/internal/yamltok"
)

func TestCheckSpanInvariantsCatchesDrift(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("ci.yml", []byte("on: push\njobs:\n  a:\n    runs-on: x\n")))
	rep := &diag.SliceReporter{}
	res := yamltok.Tokenize(file, rep)
	wf := builder.Build(file, res.Tokens, rep, builder.Options{Partial: res.Failed})

	if err := testkit.CheckSpanInvariants(wf, file); err != nil {
		t.Fatalf("clean workflow: %v", err)
	}

	wf.Jobs[0].ID.Pos.Offset++
	if err := testkit.CheckSpanInvariants(wf, file); err == nil {
		t.Fatal("shifted offset not detected")
	}
	if err := testkit.CheckSpanInvariants(nil, file); err == nil {
		t.Fatal("nil workflow accepted")
	}
}
