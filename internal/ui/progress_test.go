package ui

import (
	"strings"
	"testing"

	"wflint/internal/driver"
)

func TestProgressModelTracksEvents(t *testing.T) {
	files := []string{"./.github/workflows/ci.yml", ".github/workflows/release.yml"}
	m := NewProgressModel("checking", files, nil).(*progressModel)

	m.applyEvent(driver.Event{File: ".github/workflows/ci.yml", Stage: driver.StageRules, Status: driver.StatusWorking})
	if got := m.items[0].status; got != "checking" {
		t.Fatalf("status = %q", got)
	}
	if p := m.percent(); p != 0.25 {
		t.Fatalf("percent = %v", p)
	}

	m.applyEvent(driver.Event{File: ".github/workflows/ci.yml", Status: driver.StatusError, Problems: 3})
	m.applyEvent(driver.Event{File: ".github/workflows/release.yml", Status: driver.StatusDone})
	if p := m.percent(); p != 1 {
		t.Fatalf("percent = %v", p)
	}
	if m.finished() != 2 {
		t.Fatalf("finished = %d", m.finished())
	}

	view := m.View()
	for _, want := range []string{"(2/2)", "error", ".github/workflows/ci.yml (3)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestProgressModelIgnoresUnknownFiles(t *testing.T) {
	m := NewProgressModel("checking", []string{"a.yml"}, nil).(*progressModel)
	if cmd := m.applyEvent(driver.Event{File: "b.yml", Status: driver.StatusDone}); cmd != nil {
		t.Fatal("unknown file must be ignored")
	}
	if m.items[0].status != "queued" {
		t.Fatalf("status = %q", m.items[0].status)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short.yml", 20, "short.yml"},
		{"a/very/long/path.yml", 10, "a/very/..."},
		{"abcdef", 3, "abc"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
