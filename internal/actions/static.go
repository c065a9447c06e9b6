package actions

import (
	"context"
	"fmt"
)

// Static serves metadata from a fixed table keyed by Ref.Slug(). It is used
// when network lookups are disabled with a preloaded table, and in tests.
type Static map[string]*Metadata

// Lookup implements Resolver.
func (s Static) Lookup(_ context.Context, ref Ref) (*Metadata, error) {
	if ref.Kind == RefRemote {
		if m, ok := s[ref.Slug()]; ok {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
}
