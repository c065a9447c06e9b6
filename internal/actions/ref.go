// Package actions resolves `uses:` references to action metadata: declared
// inputs and outputs and the published tags of the action repository.
package actions

import (
	"errors"
	"fmt"
	"strings"
)

// RefKind classifies a uses reference.
type RefKind uint8

const (
	RefRemote RefKind = iota // owner/repo[/path]@version
	RefLocal                 // ./path
	RefDocker                // docker://image
)

// ErrBadRef is returned for references that are not owner/repo[/path][@version].
var ErrBadRef = errors.New("malformed action reference")

// Ref is a parsed uses reference.
type Ref struct {
	Kind    RefKind
	Owner   string
	Repo    string
	Path    string // sub-directory inside the repository, may be empty
	Version string // text after '@', empty when missing
	Raw     string
}

// ParseRef parses "owner/repo[/path][@version]", "./local" and "docker://image".
func ParseRef(s string) (Ref, error) {
	raw := s
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../"):
		return Ref{Kind: RefLocal, Path: s, Raw: raw}, nil
	case strings.HasPrefix(s, "docker://"):
		return Ref{Kind: RefDocker, Path: strings.TrimPrefix(s, "docker://"), Raw: raw}, nil
	}

	ref := Ref{Kind: RefRemote, Raw: raw}
	slug := s
	if at := strings.LastIndexByte(s, '@'); at >= 0 {
		slug, ref.Version = s[:at], s[at+1:]
		if ref.Version == "" {
			return Ref{}, fmt.Errorf("%w: %q has an empty version", ErrBadRef, raw)
		}
	}
	parts := strings.SplitN(slug, "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return Ref{}, fmt.Errorf("%w: %q is not owner/repo", ErrBadRef, raw)
	}
	ref.Owner, ref.Repo = parts[0], parts[1]
	if len(parts) == 3 {
		ref.Path = strings.Trim(parts[2], "/")
	}
	if strings.ContainsAny(slug, " \t") {
		return Ref{}, fmt.Errorf("%w: %q contains whitespace", ErrBadRef, raw)
	}
	return ref, nil
}

// Repository returns owner/repo.
func (r Ref) Repository() string {
	return r.Owner + "/" + r.Repo
}

// Slug returns owner/repo[/path] without the version.
func (r Ref) Slug() string {
	if r.Path == "" {
		return r.Repository()
	}
	return r.Repository() + "/" + r.Path
}

// Pinned reports whether the reference carries a version.
func (r Ref) Pinned() bool {
	return r.Version != ""
}

// WithVersion returns the reference text for another version.
func (r Ref) WithVersion(v string) string {
	return r.Slug() + "@" + v
}

// Key identifies the reference in caches.
func (r Ref) Key() string {
	return r.Slug() + "@" + r.Version
}

func (r Ref) String() string {
	switch r.Kind {
	case RefLocal:
		return r.Path
	case RefDocker:
		return "docker://" + r.Path
	}
	if r.Version == "" {
		return r.Slug()
	}
	return r.Key()
}

// IsCommitSHA reports a 7 to 40 character hexadecimal commit id.
func IsCommitSHA(v string) bool {
	if len(v) < 7 || len(v) > 40 {
		return false
	}
	for i := 0; i < len(v); i++ {
		c := v[i]
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') && !(c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}
