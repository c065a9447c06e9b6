package actions

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const checkoutYAML = `name: 'Checkout'
description: 'Checkout a Git repository at a particular version'
inputs:
  repository:
    description: 'Repository name with owner.'
    default: ${{ github.repository }}
  token:
    required: true
  ref:
    required: "true"
  fetch-depth:
    default: 1
  path:
outputs:
  ref:
    description: 'The branch, tag or SHA that was checked out'
  commit:
    description: 'The commit SHA that was checked out'
runs:
  using: node20
  main: dist/index.js
`

func TestParseActionYAML(t *testing.T) {
	meta, err := ParseActionYAML([]byte(checkoutYAML))
	if err != nil {
		t.Fatalf("ParseActionYAML: %v", err)
	}
	want := &Metadata{
		Name: "Checkout",
		Inputs: []Input{
			{Name: "repository", HasDefault: true},
			{Name: "token", Required: true},
			{Name: "ref", Required: true},
			{Name: "fetch-depth", HasDefault: true},
			{Name: "path"},
		},
		Outputs: []string{"ref", "commit"},
	}
	if diff := cmp.Diff(want, meta); diff != "" {
		t.Fatalf("metadata mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"token", "ref"}, meta.RequiredInputs()); diff != "" {
		t.Fatalf("required inputs (-want +got):\n%s", diff)
	}
	if !meta.HasOutput("commit") || meta.HasOutput("sha") {
		t.Fatal("HasOutput mismatch")
	}
}

func TestParseActionYAMLWithoutInputs(t *testing.T) {
	meta, err := ParseActionYAML([]byte("name: x\ninputs:\nruns:\n  using: composite\n"))
	if err != nil {
		t.Fatalf("ParseActionYAML: %v", err)
	}
	if len(meta.Inputs) != 0 || len(meta.Outputs) != 0 {
		t.Fatalf("unexpected %+v", meta)
	}
}

func TestParseActionYAMLRejectsBadShape(t *testing.T) {
	if _, err := ParseActionYAML([]byte("inputs: [a, b]\n")); err == nil {
		t.Fatal("expected error for sequence inputs")
	}
	if _, err := ParseActionYAML([]byte("inputs: {a: [\n")); err == nil {
		t.Fatal("expected syntax error")
	}
}
