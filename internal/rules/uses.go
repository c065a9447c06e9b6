package rules

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"wflint/internal/actions"
	"wflint/internal/ast"
	"wflint/internal/diag"
	"wflint/internal/source"
)

// Uses checks uses: references of steps: their format, version pinning and
// freshness, and the inputs passed in with: against the action metadata.
type Uses struct{}

func (Uses) Name() string { return "jobs-steps-uses" }

func (r Uses) Check(ctx context.Context, in *Input) iter.Seq[*diag.Diagnostic] {
	return func(yield func(*diag.Diagnostic) bool) {
		e := newEmitter(r.Name(), yield)
		for _, job := range in.Workflow.Jobs {
			for _, step := range job.Steps {
				if ctx.Err() != nil {
					return
				}
				for _, d := range r.checkStep(ctx, in, step) {
					if !e.emit(d) {
						return
					}
				}
			}
		}
	}
}

func (r Uses) checkStep(ctx context.Context, in *Input, step *ast.Step) []*diag.Diagnostic {
	uses := step.Uses
	if uses == nil || uses.IsNull() || uses.HasExprs() {
		return nil
	}
	ref, err := actions.ParseRef(uses.Value)
	if err != nil {
		return []*diag.Diagnostic{diag.NewError(diag.SemBadUses, uses.Span(),
			fmt.Sprintf("invalid uses reference %q: expected owner/repo[/path]@ref, ./path or docker://image", uses.Value))}
	}
	if ref.Kind != actions.RefRemote {
		return nil
	}

	var meta *actions.Metadata
	var out []*diag.Diagnostic
	if in.Resolver != nil {
		meta, err = in.Resolver.Lookup(ctx, ref)
		if err != nil || meta == nil {
			meta = nil
			if ctx.Err() == nil {
				out = append(out, diag.NewInfo(diag.NetMetadataUnavailable, uses.Span(),
					fmt.Sprintf("couldn't fetch metadata for %s; continuing without", ref.Slug())))
			}
		}
	}
	latest, hasLatest := meta.Latest()

	switch {
	case !ref.Pinned():
		msg := fmt.Sprintf("Using specific version of %s is recommended.", ref.Slug())
		d := diag.NewWarning(diag.SemUnpinnedAction, uses.Span(), msg)
		if hasLatest {
			d.Message += fmt.Sprintf(" Consider using %s", ref.WithVersion(latest))
			if at, ok := valueEnd(uses); ok {
				d.WithFix("pin to "+latest, at.Span(0), "", "@"+latest)
			}
		}
		out = append(out, d)
	case hasLatest && !actions.IsCommitSHA(ref.Version) && actions.IsVersion(ref.Version):
		st := actions.Compare(ref.Version, latest)
		if st == actions.UpToDate {
			break
		}
		d := diag.NewWarning(diag.SemOutdatedAction, uses.Span(),
			fmt.Sprintf("Action %s uses %s which is %s version outdated. Current latest is %s.",
				ref.Slug(), ref.Version, st, latest))
		if sp, ok := versionSpan(uses, ref.Version); ok {
			next := actions.Suggest(ref.Version, latest)
			d.WithFix("update to "+next, sp, ref.Version, next)
		}
		out = append(out, d)
	}

	if meta == nil {
		return out
	}
	var missing []string
	for _, name := range meta.RequiredInputs() {
		if step.Input(name) == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		d := diag.NewError(diag.SemMissingInput, uses.Span(),
			fmt.Sprintf("%s requires inputs: %s", ref.Slug(), strings.Join(missing, ", ")))
		if step.WithKey != nil {
			d.WithNote(step.WithKey.Span(), "inputs are passed here")
		}
		out = append(out, d)
	}
	passed := make([]*ast.String, len(step.With))
	for i, p := range step.With {
		passed[i] = p.Key
	}
	known := unused(meta.InputNames(), passed)
	for _, p := range step.With {
		if _, ok := meta.Input(p.Key.Value); ok {
			continue
		}
		d := diag.NewError(diag.SemUnknownInput, p.Key.Span(),
			fmt.Sprintf("%s uses unknown input: %s", ref.Slug(), p.Key.Value))
		if p.Key.Raw == p.Key.Value {
			d = rename(d, in, p.Key.Span(), p.Key.Value, known)
		}
		out = append(out, d)
	}
	return out
}

// valueEnd returns the position right after the decoded value inside Raw,
// so that a suffix lands inside the quotes of a quoted scalar.
func valueEnd(s *ast.String) (source.Pos, bool) {
	i := strings.LastIndex(s.Raw, s.Value)
	if i < 0 || s.Value == "" {
		return source.Pos{}, false
	}
	return s.Pos.Advance(i + len(s.Value)), true
}

// versionSpan locates the text after the last '@' of a uses scalar.
func versionSpan(s *ast.String, version string) (source.Span, bool) {
	end, ok := valueEnd(s)
	if !ok {
		return source.Span{}, false
	}
	start := end.Offset - uint32(len(version))
	if i := strings.LastIndexByte(s.Raw, '@'); i < 0 || s.Pos.Offset+uint32(i)+1 != start {
		return source.Span{}, false
	}
	return source.Span{File: s.Pos.File, Start: start, End: end.Offset}, true
}
