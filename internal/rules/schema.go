package rules

import (
	"context"
	"fmt"
	"iter"

	"wflint/internal/ast"
	"wflint/internal/diag"
)

// Schema checks the keys of the workflow, its jobs and their steps.
type Schema struct{}

func (Schema) Name() string { return "workflow-schema" }

func (r Schema) Check(ctx context.Context, in *Input) iter.Seq[*diag.Diagnostic] {
	return func(yield func(*diag.Diagnostic) bool) {
		e := newEmitter(r.Name(), yield)
		wf := in.Workflow
		if wf.Root.Len() == 0 {
			// пустой документ уже отмечен сборщиком
			return
		}
		if !r.unknown(e, in, wf.Root, wf.Unknown, ast.KeyTargetWorkflow, "the workflow") {
			return
		}
		for _, key := range []string{"on", "jobs"} {
			if wf.Root.Get(key) != nil {
				continue
			}
			d := diag.NewError(diag.SemMissingKey, wf.Pos.Span(0),
				fmt.Sprintf("workflow is missing required key %q", key))
			if !e.emit(d) {
				return
			}
		}

		for _, job := range wf.Jobs {
			if ctx.Err() != nil {
				return
			}
			if job.Body.Len() == 0 {
				continue
			}
			label := fmt.Sprintf("job %q", job.ID.Value)
			if !r.unknown(e, in, job.Body, job.Unknown, ast.KeyTargetJob, label) {
				return
			}
			if job.RunsOn == nil && job.Uses == nil {
				d := diag.NewError(diag.SemMissingRunsOn, job.ID.Span(),
					fmt.Sprintf("job %q has neither runs-on nor uses", job.ID.Value))
				if !e.emit(d) {
					return
				}
			}
			for _, step := range job.Steps {
				if step.Body.Len() == 0 {
					continue
				}
				label := fmt.Sprintf("step %s of job %q", step.Label(), job.ID.Value)
				if !r.unknown(e, in, step.Body, step.Unknown, ast.KeyTargetStep, label) {
					return
				}
				if d := r.usesOrRun(step, label); d != nil && !e.emit(d) {
					return
				}
			}
		}
	}
}

func (r Schema) unknown(e *emitter, in *Input, parent *ast.Mapping, entries []*ast.Entry, target ast.KeyTarget, where string) bool {
	known := unused(ast.KnownKeys(target), mappingKeys(parent))
	for _, ent := range entries {
		key := ent.Key
		d := diag.NewError(diag.SemUnknownKey, key.Span(),
			fmt.Sprintf("unknown key %q in %s", key.Value, where))
		// ключ в кавычках не трогаем: правка должна совпадать с Raw
		if key.Raw == key.Value {
			d = rename(d, in, key.Span(), key.Value, known)
		}
		if !e.emit(d) {
			return false
		}
	}
	return true
}

func (r Schema) usesOrRun(step *ast.Step, label string) *diag.Diagnostic {
	uses, run := step.Body.Get("uses"), step.Body.Get("run")
	switch {
	case uses != nil && run != nil:
		return diag.NewError(diag.SemStepUsesRun, run.Key.Span(),
			fmt.Sprintf("%s has both uses and run; keep exactly one", label)).
			WithNote(uses.Key.Span(), "uses declared here")
	case uses == nil && run == nil:
		return diag.NewError(diag.SemStepUsesRun, step.Pos.Span(0),
			fmt.Sprintf("%s must have either uses or run", label))
	}
	return nil
}
