package actions

import (
	"errors"
	"testing"
)

func TestParseRef(t *testing.T) {
	tests := []struct {
		in   string
		want Ref
	}{
		{"actions/checkout@v4", Ref{Kind: RefRemote, Owner: "actions", Repo: "checkout", Version: "v4"}},
		{"actions/checkout", Ref{Kind: RefRemote, Owner: "actions", Repo: "checkout"}},
		{"github/codeql-action/init@v3", Ref{Kind: RefRemote, Owner: "github", Repo: "codeql-action", Path: "init", Version: "v3"}},
		{"./.github/actions/setup", Ref{Kind: RefLocal, Path: "./.github/actions/setup"}},
		{"docker://alpine:3.20", Ref{Kind: RefDocker, Path: "alpine:3.20"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRef(tt.in)
			if err != nil {
				t.Fatalf("ParseRef: %v", err)
			}
			tt.want.Raw = tt.in
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseRefErrors(t *testing.T) {
	for _, in := range []string{"checkout", "actions/@v4", "/checkout@v4", "actions/checkout@", "actions/check out@v1"} {
		if _, err := ParseRef(in); !errors.Is(err, ErrBadRef) {
			t.Errorf("ParseRef(%q) error = %v, want ErrBadRef", in, err)
		}
	}
}

func TestRefRendering(t *testing.T) {
	r, err := ParseRef("github/codeql-action/init@v2")
	if err != nil {
		t.Fatal(err)
	}
	if r.Slug() != "github/codeql-action/init" || r.Repository() != "github/codeql-action" {
		t.Fatalf("slug=%q repo=%q", r.Slug(), r.Repository())
	}
	if got := r.WithVersion("v3"); got != "github/codeql-action/init@v3" {
		t.Fatalf("WithVersion = %q", got)
	}
	if !r.Pinned() || r.String() != "github/codeql-action/init@v2" {
		t.Fatalf("String = %q", r.String())
	}
}

func TestIsCommitSHA(t *testing.T) {
	cases := map[string]bool{
		"8e5e7e5":                                  true,
		"b4ffde65f46336ab88eb53be808477a3936bae11": true,
		"v4":     false,
		"abc":    false,
		"main":   false,
		"8e5e7g5": false,
	}
	for in, want := range cases {
		if got := IsCommitSHA(in); got != want {
			t.Errorf("IsCommitSHA(%q) = %v, want %v", in, got, want)
		}
	}
}
