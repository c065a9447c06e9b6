package rules

import (
	"context"
	"fmt"
	"iter"
	"slices"

	"wflint/internal/ast"
	"wflint/internal/diag"
)

var knownEvents = []string{
	"branch_protection_rule", "check_run", "check_suite", "create", "delete",
	"deployment", "deployment_status", "discussion", "discussion_comment",
	"fork", "gollum", "issue_comment", "issues", "label", "merge_group",
	"milestone", "page_build", "project", "project_card", "project_column",
	"public", "pull_request", "pull_request_review",
	"pull_request_review_comment", "pull_request_target", "push",
	"registry_package", "release", "repository_dispatch", "schedule",
	"status", "watch", "workflow_call", "workflow_dispatch", "workflow_run",
}

// IsKnownEvent reports whether name is a trigger event.
func IsKnownEvent(name string) bool {
	_, ok := slices.BinarySearch(knownEvents, name)
	return ok
}

// EventTrigger checks the event names under on.
type EventTrigger struct{}

func (EventTrigger) Name() string { return "event-trigger" }

func (r EventTrigger) Check(_ context.Context, in *Input) iter.Seq[*diag.Diagnostic] {
	return func(yield func(*diag.Diagnostic) bool) {
		e := newEmitter(r.Name(), yield)
		names := eventNames(in.Workflow.On)
		candidates := unused(knownEvents, names)
		for _, name := range names {
			if name.IsNull() || name.HasExprs() || IsKnownEvent(name.Value) {
				continue
			}
			d := diag.NewError(diag.SemUnknownEvent, name.Span(),
				fmt.Sprintf("unknown event %q", name.Value))
			if name.Raw == name.Value {
				d = rename(d, in, name.Span(), name.Value, candidates)
			}
			if !e.emit(d) {
				return
			}
		}
	}
}

// eventNames returns the event scalars of on: in any of its three forms.
func eventNames(on ast.Node) []*ast.String {
	switch n := on.(type) {
	case *ast.String:
		return []*ast.String{n}
	case *ast.Sequence:
		out := make([]*ast.String, 0, len(n.Items))
		for _, item := range n.Items {
			if s, ok := item.(*ast.String); ok {
				out = append(out, s)
			}
		}
		return out
	case *ast.Mapping:
		out := make([]*ast.String, 0, len(n.Entries))
		for _, ent := range n.Entries {
			out = append(out, ent.Key)
		}
		return out
	}
	return nil
}
