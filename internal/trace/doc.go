// Package trace records where time goes while wflint checks workflows.
//
// Spans nest through context: the driver opens one per run, one per file,
// and one per pass; the rule engine opens one per rule, and the action
// resolver emits a point per network lookup.
//
//	ctx = trace.WithTracer(ctx, tracer)
//	ctx, span := trace.Begin(ctx, trace.ScopePass, "rules")
//	defer span.End("")
//
// With LevelOff every call is a cheap no-op.
package trace
