package rules

import (
	"context"

	"wflint/internal/actions"
	"wflint/internal/ast"
)

// lookupStepAction resolves metadata for a step's uses: value. It reports
// false for run steps, dynamic or malformed references, non-repository
// actions and failed lookups; the uses rule reports those cases itself.
func lookupStepAction(ctx context.Context, in *Input, step *ast.Step) (*actions.Metadata, actions.Ref, bool) {
	if in.Resolver == nil || step.Uses == nil || step.Uses.HasExprs() {
		return nil, actions.Ref{}, false
	}
	ref, err := actions.ParseRef(step.Uses.Value)
	if err != nil || ref.Kind != actions.RefRemote {
		return nil, ref, false
	}
	meta, err := in.Resolver.Lookup(ctx, ref)
	if err != nil || meta == nil {
		return nil, ref, false
	}
	return meta, ref, true
}
