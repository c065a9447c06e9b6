// Package engine runs rules over one workflow. Every rule gets its own
// goroutine and its own result slot; slots are concatenated in registration
// order, so the output does not depend on scheduling.
package engine

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"

	"golang.org/x/sync/errgroup"

	"wflint/internal/diag"
	"wflint/internal/rules"
	"wflint/internal/trace"
)

// Options configures an Engine.
type Options struct {
	Rules       []rules.Rule             // nil means rules.All()
	Disabled    map[string]bool          // rule name -> off
	Severity    map[string]diag.Severity // rule name -> forced severity
	Concurrency int                      // <= 0 means GOMAXPROCS
}

// Engine is safe for concurrent use by several files.
type Engine struct {
	rules []rules.Rule
	opts  Options
}

// New builds an engine from the enabled rules of opts.
func New(opts Options) *Engine {
	all := opts.Rules
	if all == nil {
		all = rules.All()
	}
	e := &Engine{opts: opts}
	for _, r := range all {
		if !opts.Disabled[r.Name()] {
			e.rules = append(e.rules, r)
		}
	}
	if e.opts.Concurrency <= 0 {
		e.opts.Concurrency = runtime.GOMAXPROCS(0)
	}
	return e
}

// Rules returns the enabled rules in registration order.
func (e *Engine) Rules() []rules.Rule {
	return e.rules
}

// Run executes the enabled rules and returns their problems in
// registration order. A rule that panics contributes exactly one
// IntRuleFailed problem instead of its partial output.
func (e *Engine) Run(ctx context.Context, in *rules.Input) []*diag.Diagnostic {
	ctx, span := trace.Begin(ctx, trace.ScopePass, "rules")
	defer span.End("")

	slots := make([][]*diag.Diagnostic, len(e.rules))
	var g errgroup.Group
	g.SetLimit(max(1, min(e.opts.Concurrency, len(e.rules))))
	for i, r := range e.rules {
		g.Go(func() error {
			slots[i] = runRule(ctx, r, in)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // горутины ошибок не возвращают

	total := 0
	for _, s := range slots {
		total += len(s)
	}
	out := make([]*diag.Diagnostic, 0, total)
	for _, s := range slots {
		out = append(out, s...)
	}
	out = e.Adjust(out)
	span.WithExtra("problems", strconv.Itoa(total))
	return out
}

func runRule(ctx context.Context, r rules.Rule, in *rules.Input) (out []*diag.Diagnostic) {
	ctx, span := trace.Begin(ctx, trace.ScopeRule, "rule:"+r.Name())
	defer func() {
		if p := recover(); p != nil {
			span.WithExtra("panic", fmt.Sprint(p))
			d := diag.NewError(diag.IntRuleFailed, in.Workflow.Pos.Span(0),
				fmt.Sprintf("rule %q failed unexpectedly: %v", r.Name(), p)).WithRule(r.Name())
			if trace.FromContext(ctx).Level() >= trace.LevelDebug {
				d.WithNote(in.Workflow.Pos.Span(0), string(debug.Stack()))
			}
			out = []*diag.Diagnostic{d}
		}
		span.WithExtra("problems", strconv.Itoa(len(out))).End("")
	}()

	for d := range r.Check(ctx, in) {
		if d.Rule == "" {
			d.Rule = r.Name()
		}
		out = append(out, d)
	}
	return out
}

// Adjust applies the configured severity overrides in place. Problems of
// disabled rules are removed; this also covers the built-in structure,
// expression-syntax and job-order checks, which are not Rules.
func (e *Engine) Adjust(ds []*diag.Diagnostic) []*diag.Diagnostic {
	out := ds[:0]
	for _, d := range ds {
		if e.opts.Disabled[d.Rule] {
			continue
		}
		if sev, ok := e.opts.Severity[d.Rule]; ok {
			d.Severity = sev
		}
		out = append(out, d)
	}
	return out
}
