package rules

import (
	"context"
	"fmt"
	"iter"

	"wflint/internal/ast"
	"wflint/internal/diag"
	"wflint/internal/expr"
)

// NeedsContext checks needs.<job> references. Only jobs listed directly in
// the referencing job's needs are visible; transitive dependencies are not.
type NeedsContext struct{}

func (NeedsContext) Name() string { return "needs-context" }

var needsAttributes = []string{"result", "outputs"}

func (r NeedsContext) Check(ctx context.Context, in *Input) iter.Seq[*diag.Diagnostic] {
	return func(yield func(*diag.Diagnostic) bool) {
		e := newEmitter(r.Name(), yield)
		for scope, s := range in.Workflow.Expressions() {
			if ctx.Err() != nil {
				return
			}
			for _, ref := range expr.ContextRefs(s.Exprs) {
				if ref.Root() != "needs" {
					continue
				}
				if d := r.checkRef(in, scope.Job, ref); d != nil && !e.emit(d) {
					return
				}
			}
		}
	}
}

func (r NeedsContext) checkRef(in *Input, job *ast.Job, ref *expr.ContextRef) *diag.Diagnostic {
	if job == nil {
		return diag.NewError(diag.SemInvalidNeedsContext, ref.Parts[0].Span,
			"the needs context is only available inside a job")
	}
	if len(ref.Parts) < 2 {
		return nil
	}
	target := ref.Parts[1]
	if target.Wildcard || target.Name == "" {
		return nil
	}
	jobID := job.ID.Value

	if !in.Graph.HasEdge(jobID, target.Name) {
		if job.HasNeed(target.Name) {
			// уже сообщено графом: несуществующая работа или self-needs
			return nil
		}
		var msg string
		if in.Workflow.Job(target.Name) != nil {
			msg = fmt.Sprintf("job %q references needs.%s, but %q is not a direct dependency; add it to needs",
				jobID, target.Name, target.Name)
		} else {
			msg = fmt.Sprintf("job %q references needs.%s, but no job %q is listed in its needs",
				jobID, target.Name, target.Name)
		}
		d := diag.NewError(diag.SemInvalidNeedsContext, target.Span, msg)
		if target.Index == nil {
			d = rename(d, in, target.Span, target.Name, in.Graph.DirectNeeds(jobID))
		}
		return d
	}

	if len(ref.Parts) < 3 {
		return nil
	}
	attr := ref.Parts[2]
	if attr.Wildcard || attr.Name == "" {
		return nil
	}
	switch attr.Name {
	case "result":
		return nil
	case "outputs":
	default:
		d := diag.NewError(diag.SemInvalidNeedsContext, attr.Span,
			fmt.Sprintf("needs.%s has no attribute %q; use result or outputs", target.Name, attr.Name))
		if attr.Index == nil {
			d = rename(d, in, attr.Span, attr.Name, needsAttributes)
		}
		return d
	}

	if len(ref.Parts) < 4 {
		return nil
	}
	out := ref.Parts[3]
	dep := in.Workflow.Job(target.Name)
	if out.Wildcard || out.Name == "" || dep == nil || dep.Outputs == nil {
		return nil
	}
	if dep.Outputs.Get(out.Name) != nil {
		return nil
	}
	names := make([]string, 0, dep.Outputs.Len())
	for _, ent := range dep.Outputs.Entries {
		names = append(names, ent.Key.Value)
	}
	d := diag.NewError(diag.SemUnknownOutput, out.Span,
		fmt.Sprintf("job %q has no output %q", target.Name, out.Name))
	if out.Index == nil {
		d = rename(d, in, out.Span, out.Name, names)
	}
	return d
}
