// Package jobgraph derives the dependency graph of a workflow's jobs from
// their needs lists: reference validation, cycle detection and a stable
// topological order.
package jobgraph

import (
	"fmt"

	"wflint/internal/ast"
	"wflint/internal/diag"
)

// RuleName is stamped on every problem found by the grapher.
const RuleName = "job-order"

// Graph is derived from a Workflow and read-only after Build.
// Nodes are job indexes in declaration order; an edge goes from a job to
// one of its dependencies.
type Graph struct {
	IDs        []string
	Jobs       []*ast.Job
	Index      map[string]int
	Edges      [][]int         // Edges[job] = dependencies in needs order, deduplicated
	Entries    [][]*ast.String // Entries[job][k] is the needs entry of Edges[job][k]
	Dependents [][]int         // reverse edges, ascending
}

// Build validates needs references and builds the graph. A needs entry
// naming an undeclared job or the job itself is reported and contributes
// no edge.
func Build(wf *ast.Workflow, r diag.Reporter) *Graph {
	if r == nil {
		r = diag.NopReporter
	}
	n := len(wf.Jobs)
	g := &Graph{
		IDs:        make([]string, n),
		Jobs:       wf.Jobs,
		Index:      make(map[string]int, n),
		Edges:      make([][]int, n),
		Entries:    make([][]*ast.String, n),
		Dependents: make([][]int, n),
	}
	for i, j := range wf.Jobs {
		g.IDs[i] = j.ID.Value
		if _, dup := g.Index[j.ID.Value]; !dup {
			g.Index[j.ID.Value] = i
		}
	}

	for from, j := range wf.Jobs {
		seen := make(map[int]struct{}, len(j.Needs))
		for _, need := range j.Needs {
			to, ok := g.Index[need.Value]
			if !ok {
				diag.ReportError(r, diag.SemUnknownJob, need.Span(),
					fmt.Sprintf("job %q depends on non-existent job %q", j.ID.Value, need.Value)).
					WithRule(RuleName).
					Emit()
				continue
			}
			if to == from {
				diag.ReportError(r, diag.SemSelfDependency, need.Span(),
					fmt.Sprintf("job %q cannot depend on itself", j.ID.Value)).
					WithRule(RuleName).
					Emit()
				continue
			}
			if _, dup := seen[to]; dup {
				continue
			}
			seen[to] = struct{}{}
			g.Edges[from] = append(g.Edges[from], to)
			g.Entries[from] = append(g.Entries[from], need)
			g.Dependents[to] = append(g.Dependents[to], from)
		}
	}
	return g
}

// Len returns the number of jobs.
func (g *Graph) Len() int {
	return len(g.IDs)
}

// DirectNeeds returns the ids a job depends on through its own needs list,
// without transitive dependencies.
func (g *Graph) DirectNeeds(id string) []string {
	i, ok := g.Index[id]
	if !ok {
		return nil
	}
	return g.Names(g.Edges[i])
}

// HasEdge reports whether job from lists to in its own needs.
func (g *Graph) HasEdge(from, to string) bool {
	i, ok := g.Index[from]
	if !ok {
		return false
	}
	k, ok := g.Index[to]
	if !ok {
		return false
	}
	for _, dep := range g.Edges[i] {
		if dep == k {
			return true
		}
	}
	return false
}

// Names maps job indexes to ids.
func (g *Graph) Names(ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = g.IDs[id]
	}
	return out
}
