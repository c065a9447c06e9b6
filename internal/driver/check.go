// Package driver runs the per-file pipeline (tokenize, build, graph, rules,
// fix, recheck) and fans it out over many files.
package driver

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"wflint/internal/actions"
	"wflint/internal/builder"
	"wflint/internal/diag"
	"wflint/internal/engine"
	"wflint/internal/fix"
	"wflint/internal/jobgraph"
	"wflint/internal/observ"
	"wflint/internal/rules"
	"wflint/internal/source"
	"wflint/internal/trace"
	"wflint/internal/yamltok"
)

// maxFixPasses bounds fix-then-recheck rounds; a conflicting fix is retried
// in the next round against the rewritten text.
const maxFixPasses = 4

// Options configures a check run.
type Options struct {
	Engine         *engine.Engine // nil: all rules, default settings
	Resolver       actions.Resolver
	Rules          rules.Config
	Fix            bool
	Write          bool // persist fixed files
	MaxDiagnostics int  // per file, 0 = unlimited
	Jobs           int
	Progress       ProgressSink
}

func (o *Options) engine() *engine.Engine {
	if o.Engine == nil {
		o.Engine = engine.New(engine.Options{})
	}
	return o.Engine
}

// FileResult is the outcome for one file.
type FileResult struct {
	Path string
	// File is the last analyzed version; after fixing it holds the rewritten
	// content. Nil when the file could not be loaded.
	File        *source.File
	Diagnostics []*diag.Diagnostic // sorted by position
	Fixed       []*diag.Diagnostic // problems whose fix was applied
	Dropped     int                // problems cut by MaxDiagnostics
	Changed     bool
	Timer       *observ.Timer
}

// CheckFile analyzes the file id of fs. With opts.Fix the fixes are applied
// and the rewritten text analyzed again until nothing changes; the last
// analysis is what the result reports.
func CheckFile(ctx context.Context, fs *source.FileSet, id source.FileID, opts Options) *FileResult {
	file := fs.Get(id)
	res := &FileResult{Path: file.Path, File: file, Timer: observ.NewTimer()}
	ctx, span := trace.Begin(ctx, trace.ScopeFile, "file")
	span.WithExtra("path", file.Path)
	defer func() {
		span.WithExtra("problems", strconv.Itoa(len(res.Diagnostics))).End("")
	}()
	started := time.Now()

	diags := analyze(ctx, file, &opts, res.Timer, false)
	if opts.Fix {
		for range maxFixPasses {
			emit(opts.Progress, Event{File: res.Path, Stage: StageFix, Status: StatusWorking})
			idx := res.Timer.Begin(observ.PhaseFix)
			out := fix.Apply(file.Content, diags)
			res.Timer.End(idx, fmt.Sprintf("%d applied, %d unfixed", len(out.Applied), len(out.Unfixed)))
			if !out.Changed() {
				break
			}
			res.Fixed = append(res.Fixed, out.Applied...)
			res.Changed = true
			file = fs.Get(fs.Add(file.Path, out.Content, file.Flags))
			emit(opts.Progress, Event{File: res.Path, Stage: StageRecheck, Status: StatusWorking})
			diags = analyze(ctx, file, &opts, res.Timer, true)
		}
		res.File = file
		if res.Changed && opts.Write {
			if err := fix.WriteFile(file.Path, file.Content, file.Flags); err != nil {
				diags = append(diags, diag.NewError(diag.IOWriteFileError, source.Span{File: file.ID},
					"failed to write fixes: "+err.Error()))
			}
		}
	}

	bag := diag.NewBag(opts.MaxDiagnostics)
	bag.AddAll(diags)
	bag.Dedup()
	bag.Sort()
	res.Diagnostics = bag.Items()
	res.Dropped = bag.Dropped()

	status := StatusDone
	if bag.HasErrors() {
		status = StatusError
	}
	emit(opts.Progress, Event{File: res.Path, Status: status, Problems: len(res.Diagnostics), Elapsed: time.Since(started)})
	return res
}

// analyze runs tokenize, build, graph and rules over one file version and
// returns the problems in pipeline order: structure first, then the job
// graph, then the rules in registration order.
func analyze(ctx context.Context, file *source.File, opts *Options, tm *observ.Timer, recheck bool) []*diag.Diagnostic {
	name := "analyze"
	if recheck {
		name = "recheck"
	}
	ctx, span := trace.Begin(ctx, trace.ScopePass, name)
	defer span.End("")
	emit(opts.Progress, Event{File: file.Path, Stage: StageParse, Status: StatusWorking})

	sink := &diag.SliceReporter{}
	rep := diag.NewDedupReporter(sink)
	phase := func(p string) string {
		if recheck {
			return observ.PhaseRecheck + ":" + p
		}
		return p
	}

	idx := tm.Begin(phase(observ.PhaseTokenize))
	toks := yamltok.Tokenize(file, rep)
	tm.End(idx, fmt.Sprintf("%d tokens", len(toks.Tokens)))

	idx = tm.Begin(phase(observ.PhaseBuild))
	wf := builder.Build(file, toks.Tokens, rep, builder.Options{Partial: toks.Failed})
	tm.End(idx, fmt.Sprintf("%d jobs", len(wf.Jobs)))

	idx = tm.Begin(phase(observ.PhaseGraph))
	g := jobgraph.Build(wf, rep)
	cycles := g.ReportCycles(rep)
	note := fmt.Sprintf("%d cycles", cycles)
	if cycles == 0 {
		note = fmt.Sprintf("%d jobs in %d waves", g.Len(), len(g.Order().Batches))
	}
	tm.End(idx, note)

	emit(opts.Progress, Event{File: file.Path, Stage: StageRules, Status: StatusWorking})
	idx = tm.Begin(phase(observ.PhaseRules))
	in := &rules.Input{File: file, Workflow: wf, Graph: g, Resolver: opts.Resolver, Config: opts.Rules}
	found := opts.engine().Run(ctx, in)
	tm.End(idx, fmt.Sprintf("%d problems", len(found)))

	if n := rep.Dropped(); n > 0 {
		span.WithExtra("repeats", fmt.Sprint(n))
	}
	out := opts.engine().Adjust(sink.Items)
	return append(out, found...)
}
