// Package ast holds the position-exact tree of a workflow file: a generic
// YAML layer (String, Mapping, Sequence) and the domain layer (Workflow,
// Job, Step) assembled on top of it. Nodes are read-only once built.
package ast

import (
	"wflint/internal/expr"
	"wflint/internal/source"
	"wflint/internal/yamltok"
)

// Node is one of *String, *Mapping, *Sequence.
type Node interface {
	Position() source.Pos
	node()
}

// String is a scalar. Raw is the exact source slice starting at Pos;
// Value is the decoded YAML value. Exprs lists the embedded ${{ }} regions
// with absolute spans.
type String struct {
	Value string
	Raw   string
	Pos   source.Pos
	Style yamltok.Style
	Tag   string
	Exprs []*expr.Region
}

// Mapping is an ordered list of entries; duplicate keys are never stored.
type Mapping struct {
	Pos     source.Pos
	Flow    bool
	Entries []*Entry
}

// Entry is a key/value pair of a Mapping.
type Entry struct {
	Key   *String
	Value Node
}

// Sequence is an ordered list of items.
type Sequence struct {
	Pos   source.Pos
	Flow  bool
	Items []Node
}

func (s *String) Position() source.Pos   { return s.Pos }
func (m *Mapping) Position() source.Pos  { return m.Pos }
func (s *Sequence) Position() source.Pos { return s.Pos }

func (*String) node()   {}
func (*Mapping) node()  {}
func (*Sequence) node() {}

// Span covers the raw text of the scalar.
func (s *String) Span() source.Span {
	return s.Pos.Span(len(s.Raw))
}

// IsNull reports an empty, ~ or null scalar.
func (s *String) IsNull() bool {
	return s == nil || s.Tag == "!!null"
}

// Text returns Value, or "" for a nil String.
func (s *String) Text() string {
	if s == nil {
		return ""
	}
	return s.Value
}

// HasExprs reports whether the scalar embeds at least one expression region.
func (s *String) HasExprs() bool {
	return s != nil && len(s.Exprs) > 0
}

// Get returns the entry for key, or nil.
func (m *Mapping) Get(key string) *Entry {
	if m == nil {
		return nil
	}
	for _, e := range m.Entries {
		if e.Key.Value == key {
			return e
		}
	}
	return nil
}

// Scalar returns the value of key when it is a scalar.
func (m *Mapping) Scalar(key string) *String {
	e := m.Get(key)
	if e == nil {
		return nil
	}
	s, _ := e.Value.(*String)
	return s
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Entries)
}

// Pair is a scalar-to-scalar entry (with:, env: style blocks).
type Pair struct {
	Key   *String
	Value *String
}
