// Package diag defines the diagnostic model shared by every stage of the
// workflow checker: tokenizer, builder, expression parser, job graph and rules.
//
// # Purpose
//
//   - Provide deterministic data structures that capture findings with a
//     precise source.Span anchor.
//   - Offer light-weight utilities (Reporter, Bag) that let producers emit
//     diagnostics without coupling to storage or formatting.
//   - Model auto-fixes as a single TextEdit that the fix engine applies later.
//
// # Scope
//
// Package diag does not format, write files or talk to the CLI. Rendering
// lives in internal/diagfmt, applying fixes in internal/fix, orchestration in
// internal/driver.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – tri-level enum (Info, Warning, Error).
//   - Code – compact numeric identifier with a stable string form (codes.go).
//   - Rule – identifier of the producing rule or stage (e.g. "job-order").
//   - Message – short, actionable text.
//   - Primary – the span the finding is anchored at.
//   - Notes – optional secondary spans/messages.
//   - Fix – optional TextEdit; FixState records what the fix engine did.
//
// TextEdit.OldText acts as a guard: the fix engine refuses to apply an edit
// whose target text changed since the diagnostic was produced.
//
// # Emitting diagnostics
//
// Stages report through a Reporter. ReportBuilder (ReportError, ReportWarning,
// ReportInfo) chains WithRule / WithNote / WithFix before Emit. Rules instead
// yield *Diagnostic values built with New/NewError/NewWarning.
package diag
