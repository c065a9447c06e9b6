package rules

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"wflint/internal/ast"
	"wflint/internal/diag"
	"wflint/internal/expr"
)

// StepsIO checks steps.<id> references: the step must be declared earlier in
// the same job and only outputs, conclusion and outcome may be read. When
// the step uses an action with known metadata, outputs are checked too.
type StepsIO struct{}

func (StepsIO) Name() string { return "steps-io-match" }

var stepsAttributes = []string{"outputs", "conclusion", "outcome"}

func (r StepsIO) Check(ctx context.Context, in *Input) iter.Seq[*diag.Diagnostic] {
	return func(yield func(*diag.Diagnostic) bool) {
		e := newEmitter(r.Name(), yield)
		for scope, s := range in.Workflow.Expressions() {
			if ctx.Err() != nil {
				return
			}
			for _, ref := range expr.ContextRefs(s.Exprs) {
				if ref.Root() != "steps" {
					continue
				}
				if d := r.checkRef(ctx, in, scope, ref); d != nil && !e.emit(d) {
					return
				}
			}
		}
	}
}

// visibleSteps returns the steps a scalar at scope may read: the earlier
// steps of the same job, or all of them at job level.
func visibleSteps(scope ast.Scope) []*ast.Step {
	if scope.Step == nil {
		return scope.Job.Steps
	}
	return scope.Job.Steps[:min(scope.Step.Index, len(scope.Job.Steps))]
}

func stepIDs(steps []*ast.Step) []string {
	var out []string
	for _, s := range steps {
		if s.ID != nil && s.ID.Value != "" {
			out = append(out, s.ID.Value)
		}
	}
	return out
}

func quoteList(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = "'" + n + "'"
	}
	return strings.Join(q, ", ")
}

func (r StepsIO) checkRef(ctx context.Context, in *Input, scope ast.Scope, ref *expr.ContextRef) *diag.Diagnostic {
	if scope.Job == nil {
		return diag.NewError(diag.SemInvalidStepsContext, ref.Parts[0].Span,
			"the steps context is only available inside a job")
	}
	if len(ref.Parts) < 2 {
		return nil
	}
	target := ref.Parts[1]
	if target.Wildcard || target.Name == "" {
		return nil
	}
	jobID := scope.Job.ID.Value
	visible := visibleSteps(scope)
	ids := stepIDs(visible)

	var step *ast.Step
	for _, s := range visible {
		if s.ID != nil && s.ID.Value == target.Name {
			step = s
			break
		}
	}
	if step == nil {
		var msg string
		if scope.Job.StepByID(target.Name) != nil {
			msg = fmt.Sprintf("step %q in job %q is referenced before it runs. Available steps at this point: %s",
				target.Name, jobID, quoteList(ids))
		} else {
			msg = fmt.Sprintf("step %q in job %q does not exist. Available steps in this job: %s",
				target.Name, jobID, quoteList(ids))
		}
		d := diag.NewError(diag.SemInvalidStepsContext, target.Span, msg)
		if target.Index == nil {
			d = rename(d, in, target.Span, target.Name, ids)
		}
		return d
	}

	if len(ref.Parts) < 3 {
		return diag.NewError(diag.SemInvalidStepsContext, target.Span,
			fmt.Sprintf("steps.%s must be followed by outputs, conclusion or outcome", target.Name))
	}
	attr := ref.Parts[2]
	if attr.Wildcard || attr.Name == "" {
		return nil
	}
	switch attr.Name {
	case "conclusion", "outcome":
		return nil
	case "outputs":
	default:
		d := diag.NewError(diag.SemInvalidStepsContext, attr.Span,
			fmt.Sprintf("steps.%s has no attribute %q; use outputs, conclusion or outcome", target.Name, attr.Name))
		if attr.Index == nil {
			d = rename(d, in, attr.Span, attr.Name, stepsAttributes)
		}
		return d
	}

	if len(ref.Parts) < 4 {
		return nil
	}
	out := ref.Parts[3]
	if out.Wildcard || out.Name == "" {
		return nil
	}
	meta, aref, ok := lookupStepAction(ctx, in, step)
	if !ok || len(meta.Outputs) == 0 || meta.HasOutput(out.Name) {
		return nil
	}
	d := diag.NewError(diag.SemUnknownOutput, out.Span,
		fmt.Sprintf("step %q uses %s, which has no output %q", target.Name, aref.Slug(), out.Name))
	if out.Index == nil {
		d = rename(d, in, out.Span, out.Name, meta.Outputs)
	}
	return d
}
