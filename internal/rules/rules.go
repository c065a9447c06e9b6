// Package rules holds the semantic checks run over a built workflow. Every
// rule reads the immutable Input and yields its Problems; none of them
// mutates the AST or the source. Fixes are attached as edits and applied
// later by the fix package.
package rules

import (
	"context"
	"iter"
	"slices"

	"wflint/internal/actions"
	"wflint/internal/ast"
	"wflint/internal/diag"
	"wflint/internal/jobgraph"
	"wflint/internal/source"
)

// DefaultSimilarity is the minimum similarity for a rename suggestion.
const DefaultSimilarity = 0.8

// Rule is one named check.
type Rule interface {
	Name() string
	Check(ctx context.Context, in *Input) iter.Seq[*diag.Diagnostic]
}

// Config tunes the rules.
type Config struct {
	Similarity float64 // 0 means DefaultSimilarity
}

// Input is shared by all rules of one run and must not be modified.
type Input struct {
	File     *source.File
	Workflow *ast.Workflow
	Graph    *jobgraph.Graph
	Resolver actions.Resolver // nil disables metadata checks
	Config   Config
}

func (in *Input) threshold() float64 {
	if in.Config.Similarity > 0 {
		return in.Config.Similarity
	}
	return DefaultSimilarity
}

// All returns the built-in rules in registration order.
func All() []Rule {
	return []Rule{
		Schema{},
		EventTrigger{},
		ExpressionContexts{},
		NeedsContext{},
		StepsIO{},
		Uses{},
	}
}

// Names lists the built-in rule names in registration order.
func Names() []string {
	all := All()
	out := make([]string, len(all))
	for i, r := range all {
		out[i] = r.Name()
	}
	return out
}

// Lookup returns the built-in rule with the given name.
func Lookup(name string) (Rule, bool) {
	for _, r := range All() {
		if r.Name() == name {
			return r, true
		}
	}
	return nil, false
}

// emitter collects the yield protocol in one place: once the consumer stops,
// every later emit is a no-op and stopped reports true.
type emitter struct {
	rule    string
	yield   func(*diag.Diagnostic) bool
	stopped bool
}

func newEmitter(rule string, yield func(*diag.Diagnostic) bool) *emitter {
	return &emitter{rule: rule, yield: yield}
}

func (e *emitter) emit(d *diag.Diagnostic) bool {
	if e.stopped {
		return false
	}
	if d.Rule == "" {
		d.Rule = e.rule
	}
	if !e.yield(d) {
		e.stopped = true
	}
	return !e.stopped
}

// unused drops the candidates already spelled by one of taken. A rename
// onto a sibling key would leave the mapping with a duplicate.
func unused(candidates []string, taken []*ast.String) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if !slices.ContainsFunc(taken, func(s *ast.String) bool { return s.Value == c }) {
			out = append(out, c)
		}
	}
	return out
}

func mappingKeys(m *ast.Mapping) []*ast.String {
	if m == nil {
		return nil
	}
	keys := make([]*ast.String, len(m.Entries))
	for i, ent := range m.Entries {
		keys[i] = ent.Key
	}
	return keys
}

// rename attaches a "change 'a' to 'b'" fix when a close candidate exists.
func rename(d *diag.Diagnostic, in *Input, sp source.Span, got string, candidates []string) *diag.Diagnostic {
	best, ok := Suggest(got, candidates, in.threshold())
	if !ok {
		return d
	}
	return d.WithFix("change '"+got+"' to '"+best+"'", sp, got, best)
}
