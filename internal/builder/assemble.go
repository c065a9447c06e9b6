package builder

import (
	"fmt"

	"wflint/internal/ast"
	"wflint/internal/diag"
	"wflint/internal/source"
)

// complete runs when a node of kind f.kind is finished, before it is
// attached. Domain nodes are assembled here and shape errors reported.
func (b *Builder) complete(f *frame, node ast.Node) {
	if b.discarding() {
		return
	}
	parent := b.top()
	switch f.kind {
	case frameTop:
		b.completeTop(node)
	case frameJobs:
		if m, ok := node.(*ast.Mapping); ok {
			b.jobs[m] = f.jobs
			return
		}
		b.expected(node, diag.StrExpectedMapping, "jobs must be a mapping of job ids to jobs")
	case frameJob:
		if parent == nil || parent.key == nil {
			return
		}
		parent.jobs = append(parent.jobs, b.assembleJob(parent.key, node))
	case frameSteps:
		if seq, ok := node.(*ast.Sequence); ok {
			b.steps[seq] = f.steps
			return
		}
		if s, ok := node.(*ast.String); ok && s.IsNull() {
			return
		}
		b.expected(node, diag.StrExpectedSequence, "steps must be a sequence")
	case frameStep:
		if parent == nil {
			return
		}
		parent.steps = append(parent.steps, b.assembleStep(len(parent.steps), node))
	case frameNeeds:
		switch n := node.(type) {
		case *ast.Sequence:
			for _, item := range n.Items {
				if s, ok := item.(*ast.String); !ok || s.IsNull() {
					b.expected(item, diag.StrExpectedScalar, "needs entries must be job ids")
				}
			}
		case *ast.Mapping:
			b.expected(node, diag.StrExpectedSequence, "needs must be a job id or a sequence of job ids")
		}
	case frameWith:
		switch n := node.(type) {
		case *ast.Mapping:
			for _, e := range n.Entries {
				if _, ok := e.Value.(*ast.String); !ok {
					b.expected(e.Value, diag.StrExpectedScalar, fmt.Sprintf("input %q must be a scalar", e.Key.Value))
				}
			}
		case *ast.Sequence:
			b.expected(node, diag.StrExpectedMapping, "with must be a mapping of inputs")
		case *ast.String:
			if !n.IsNull() {
				b.expected(node, diag.StrExpectedMapping, "with must be a mapping of inputs")
			}
		}
	}
}

func (b *Builder) completeTop(node ast.Node) {
	switch n := node.(type) {
	case *ast.Mapping:
		return
	case *ast.String:
		if n.IsNull() {
			b.report(diag.SevError, diag.StrEmptyDocument, n.Pos.Span(0), "workflow document is empty")
			return
		}
	}
	b.expected(node, diag.StrExpectedMapping, "a workflow must be a mapping")
}

func (b *Builder) expected(node ast.Node, code diag.Code, msg string) {
	sp := node.Position().Span(0)
	if s, ok := node.(*ast.String); ok {
		sp = s.Span()
	}
	b.report(diag.SevError, code, sp, msg)
}

func (b *Builder) assembleJob(id *ast.String, node ast.Node) *ast.Job {
	j := &ast.Job{ID: id, Pos: id.Pos}
	m, ok := node.(*ast.Mapping)
	if !ok {
		b.expected(node, diag.StrExpectedMapping, fmt.Sprintf("job %q must be a mapping", id.Value))
		j.Body = &ast.Mapping{Pos: node.Position()}
		return j
	}
	j.Body = m
	for _, e := range m.Entries {
		switch e.Key.Value {
		case "name":
			j.Name = b.scalarField(e)
		case "runs-on":
			j.RunsOn = e.Value
		case "needs":
			j.NeedsKey = e.Key
			j.Needs = needsOf(e.Value)
		case "if":
			j.If = b.scalarField(e)
		case "steps":
			j.StepsKey = e.Key
			if seq, ok := e.Value.(*ast.Sequence); ok {
				j.Steps = b.steps[seq]
			}
		case "outputs":
			j.Outputs = b.mappingField(e)
		case "env":
			j.Env = b.mappingField(e)
		case "uses":
			j.Uses = b.scalarField(e)
		case "with":
			j.With = pairsOf(e.Value)
		default:
			if !ast.IsKnownKey(ast.KeyTargetJob, e.Key.Value) {
				j.Unknown = append(j.Unknown, e)
			}
		}
	}
	return j
}

func (b *Builder) assembleStep(index int, node ast.Node) *ast.Step {
	s := &ast.Step{Index: index, Pos: node.Position()}
	m, ok := node.(*ast.Mapping)
	if !ok {
		b.expected(node, diag.StrExpectedMapping, "a step must be a mapping")
		s.Body = &ast.Mapping{Pos: node.Position()}
		return s
	}
	s.Body = m
	for _, e := range m.Entries {
		switch e.Key.Value {
		case "id":
			s.ID = b.scalarField(e)
		case "name":
			s.Name = b.scalarField(e)
		case "if":
			s.If = b.scalarField(e)
		case "uses":
			s.Uses = b.scalarField(e)
		case "run":
			s.Run = b.scalarField(e)
		case "with":
			s.WithKey = e.Key
			s.With = pairsOf(e.Value)
		case "env":
			s.Env = b.mappingField(e)
		default:
			if !ast.IsKnownKey(ast.KeyTargetStep, e.Key.Value) {
				s.Unknown = append(s.Unknown, e)
			}
		}
	}
	return s
}

func (b *Builder) completeWorkflow(wf *ast.Workflow, m *ast.Mapping) {
	wf.Root = m
	wf.Pos = m.Pos
	for _, e := range m.Entries {
		switch e.Key.Value {
		case "name":
			wf.Name = b.scalarField(e)
		case "run-name":
			wf.RunName = b.scalarField(e)
		case "on":
			wf.OnKey = e.Key
			wf.On = e.Value
		case "env":
			wf.Env = b.mappingField(e)
		case "jobs":
			wf.JobsKey = e.Key
			if jobs, ok := e.Value.(*ast.Mapping); ok {
				wf.Jobs = b.jobs[jobs]
			}
		default:
			if !ast.IsKnownKey(ast.KeyTargetWorkflow, e.Key.Value) {
				wf.Unknown = append(wf.Unknown, e)
			}
		}
	}
}

func (b *Builder) workflow() *ast.Workflow {
	start := source.Pos{File: b.file.ID, Line: 1, Col: 1}
	wf := &ast.Workflow{File: b.file.ID, Pos: start, Root: &ast.Mapping{Pos: start}}
	switch root := b.root.(type) {
	case *ast.Mapping:
		b.completeWorkflow(wf, root)
	case nil:
		if !b.opts.Partial {
			b.report(diag.SevError, diag.StrEmptyDocument, wf.Pos.Span(0), "workflow file is empty")
		}
	}
	wf.Reindex()
	return wf
}

// scalarField returns the entry value when it is a scalar and reports otherwise.
func (b *Builder) scalarField(e *ast.Entry) *ast.String {
	if s, ok := e.Value.(*ast.String); ok {
		return s
	}
	b.expected(e.Value, diag.StrExpectedScalar, fmt.Sprintf("%s must be a scalar", e.Key.Value))
	return nil
}

// mappingField returns the entry value when it is a mapping; null is an empty mapping.
func (b *Builder) mappingField(e *ast.Entry) *ast.Mapping {
	switch v := e.Value.(type) {
	case *ast.Mapping:
		return v
	case *ast.String:
		if v.IsNull() || v.HasExprs() {
			return nil
		}
	}
	b.expected(e.Value, diag.StrExpectedMapping, fmt.Sprintf("%s must be a mapping", e.Key.Value))
	return nil
}

func needsOf(node ast.Node) []*ast.String {
	switch n := node.(type) {
	case *ast.String:
		if n.IsNull() || n.Value == "" {
			return nil
		}
		return []*ast.String{n}
	case *ast.Sequence:
		out := make([]*ast.String, 0, len(n.Items))
		for _, item := range n.Items {
			if s, ok := item.(*ast.String); ok && !s.IsNull() {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func pairsOf(node ast.Node) []*ast.Pair {
	m, ok := node.(*ast.Mapping)
	if !ok {
		return nil
	}
	out := make([]*ast.Pair, 0, len(m.Entries))
	for _, e := range m.Entries {
		if v, ok := e.Value.(*ast.String); ok {
			out = append(out, &ast.Pair{Key: e.Key, Value: v})
		}
	}
	return out
}
