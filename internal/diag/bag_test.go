package diag

import (
	"testing"

	"wflint/internal/source"
)

func TestBagLimitAndCounts(t *testing.T) {
	bag := NewBag(2)
	if !bag.Add(NewError(SemUnknownJob, source.Span{}, "a")) {
		t.Fatal("first Add rejected")
	}
	bag.Add(NewWarning(SemUnknownKey, source.Span{}, "b"))
	if bag.Add(NewInfo(NetMetadataUnavailable, source.Span{}, "c")) {
		t.Fatal("Add past the limit must be rejected")
	}
	if bag.Dropped() != 1 {
		t.Fatalf("Dropped = %d, want 1", bag.Dropped())
	}
	if !bag.HasErrors() || !bag.HasWarnings() {
		t.Fatal("expected errors and warnings")
	}
	if bag.Count(SevWarning) != 1 {
		t.Fatalf("Count(warning) = %d", bag.Count(SevWarning))
	}
}

func TestBagSortIsDeterministic(t *testing.T) {
	bag := NewBag(0)
	bag.Add(NewWarning(SemUnknownKey, source.Span{Start: 5, End: 6}, "w"))
	bag.Add(NewError(SemUnknownKey, source.Span{Start: 5, End: 6}, "e"))
	bag.Add(NewError(SemUnknownJob, source.Span{Start: 1, End: 2}, "first"))
	bag.Sort()

	got := []string{}
	for _, d := range bag.Items() {
		got = append(got, d.Message)
	}
	want := []string{"first", "e", "w"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestDedupReporter(t *testing.T) {
	var sink SliceReporter
	r := NewDedupReporter(&sink)
	sp := source.Span{Start: 1, End: 3}
	r.Report(NewError(SemUnknownJob, sp, "x"))
	r.Report(NewError(SemUnknownJob, sp, "x"))
	r.Report(NewError(SemUnknownJob, sp, "y"))
	if len(sink.Items) != 2 || r.Dropped() != 1 {
		t.Fatalf("got %d diagnostics, %d dropped", len(sink.Items), r.Dropped())
	}
}

func TestDedupReporterKeepsFixOfRepeat(t *testing.T) {
	var sink SliceReporter
	r := NewDedupReporter(&sink)
	sp := source.Span{Start: 4, End: 9}
	r.Report(NewWarning(SemUnknownKey, sp, "unknown key"))
	r.Report(NewError(SemUnknownKey, sp, "unknown key").WithFix("rename", sp, "runs-onn", "runs-on"))
	if len(sink.Items) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(sink.Items))
	}
	d := sink.Items[0]
	if d.Fix == nil || d.Fix.Edit.NewText != "runs-on" {
		t.Fatalf("fix of the repeat not kept: %+v", d.Fix)
	}
	if d.Severity != SevError {
		t.Fatalf("severity = %v, want error", d.Severity)
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	var sink SliceReporter
	b := ReportError(&sink, StrDuplicateJob, source.Span{}, "dup").
		WithRule("structure").
		WithNote(source.Span{Start: 1}, "first declared here")
	b.Emit()
	b.Emit()
	if len(sink.Items) != 1 {
		t.Fatalf("emitted %d times", len(sink.Items))
	}
	if d := sink.Items[0]; d.Rule != "structure" || len(d.Notes) != 1 {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
}

func TestUnfixed(t *testing.T) {
	d := NewError(SemUnknownContext, source.Span{Start: 0, End: 3}, "x").
		WithFix("rename", source.Span{Start: 0, End: 3}, "abc", "abd")
	if !d.Unfixed() {
		t.Fatal("pending fix must count as unfixed")
	}
	d.FixState = FixApplied
	if d.Unfixed() {
		t.Fatal("applied fix must not count as unfixed")
	}
	if NewError(SemUnknownJob, source.Span{}, "no fix").Unfixed() {
		t.Fatal("diagnostic without fix is never unfixed")
	}
}
