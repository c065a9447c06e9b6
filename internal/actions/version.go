package actions

import (
	"slices"
	"strings"

	"golang.org/x/mod/semver"
)

// canonicalTag maps a tag to the semver form understood by x/mod/semver
// ("1.2" -> "v1.2"). It returns "" for tags that are not versions.
func canonicalTag(tag string) string {
	v := tag
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return v
}

// IsVersion reports whether tag looks like vMAJOR[.MINOR[.PATCH]].
func IsVersion(tag string) bool {
	return canonicalTag(tag) != ""
}

// precision returns how many numeric components the tag spells out.
func precision(tag string) int {
	v := strings.TrimPrefix(tag, "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	return strings.Count(v, ".") + 1
}

// SortTags orders tags newest first: versions by semver precedence, then the
// remaining tags in their original order.
func SortTags(tags []string) []string {
	versions := make([]string, 0, len(tags))
	others := make([]string, 0)
	for _, t := range tags {
		if IsVersion(t) {
			versions = append(versions, t)
		} else {
			others = append(others, t)
		}
	}
	slices.SortStableFunc(versions, func(a, b string) int {
		if c := semver.Compare(canonicalTag(b), canonicalTag(a)); c != 0 {
			return c
		}
		// v4.1.0 before v4.1 before v4
		return precision(b) - precision(a)
	})
	return append(versions, others...)
}

// Latest returns the newest stable version among tags.
func Latest(tags []string) (string, bool) {
	for _, t := range SortTags(tags) {
		c := canonicalTag(t)
		if c != "" && semver.Prerelease(c) == "" {
			return t, true
		}
	}
	return "", false
}

// Staleness describes how far a version lags behind the latest one.
type Staleness uint8

const (
	UpToDate Staleness = iota
	PatchBehind
	MinorBehind
	MajorBehind
)

func (s Staleness) String() string {
	switch s {
	case PatchBehind:
		return "patch"
	case MinorBehind:
		return "minor"
	case MajorBehind:
		return "major"
	}
	return "current"
}

// Compare reports how far used lags behind latest. Only the components the
// used tag spells out are compared, so v4 is current while v4.2.0 is latest.
func Compare(used, latest string) Staleness {
	u, l := canonicalTag(used), canonicalTag(latest)
	if u == "" || l == "" {
		return UpToDate
	}
	if semver.Major(u) != semver.Major(l) {
		if semver.Compare(semver.Major(u), semver.Major(l)) < 0 {
			return MajorBehind
		}
		return UpToDate
	}
	p := precision(used)
	if p < 2 {
		return UpToDate
	}
	if semver.MajorMinor(u) != semver.MajorMinor(l) {
		if semver.Compare(semver.MajorMinor(u), semver.MajorMinor(l)) < 0 {
			return MinorBehind
		}
		return UpToDate
	}
	if p < 3 {
		return UpToDate
	}
	if semver.Compare(semver.Canonical(u), semver.Canonical(l)) < 0 {
		return PatchBehind
	}
	return UpToDate
}

// Suggest renders latest with the precision of used: v3 -> v4, v3.1 -> v4.2.
func Suggest(used, latest string) string {
	l := canonicalTag(latest)
	if l == "" || precision(latest) < precision(used) {
		return latest
	}
	var out string
	switch precision(used) {
	case 1:
		out = semver.Major(l)
	case 2:
		out = semver.MajorMinor(l)
	default:
		out = semver.Canonical(l)
	}
	if !strings.HasPrefix(used, "v") {
		out = strings.TrimPrefix(out, "v")
	}
	return out
}
