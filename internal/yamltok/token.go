// Package yamltok turns a YAML document into a flat stream of typed tokens
// with exact source positions. Parsing is delegated to gopkg.in/yaml.v3;
// this package flattens its node tree and recovers, for every scalar, the
// exact slice of source text the value was written as.
package yamltok

import (
	"fmt"

	"wflint/internal/source"
)

// Kind is the token type.
type Kind uint8

const (
	// KindBlockMarker marks the start of a YAML document.
	KindBlockMarker Kind = iota + 1
	KindMappingStart
	KindMappingEnd
	KindSequenceStart
	KindSequenceEnd
	KindScalar
)

func (k Kind) String() string {
	switch k {
	case KindBlockMarker:
		return "block-marker"
	case KindMappingStart:
		return "mapping-start"
	case KindMappingEnd:
		return "mapping-end"
	case KindSequenceStart:
		return "sequence-start"
	case KindSequenceEnd:
		return "sequence-end"
	case KindScalar:
		return "scalar"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Style describes how a scalar was written.
type Style uint8

const (
	StylePlain Style = iota
	StyleSingleQuoted
	StyleDoubleQuoted
	StyleLiteral
	StyleFolded
	// StyleAlias is an unexpanded alias (*name); Value holds the alias text.
	StyleAlias
)

func (s Style) String() string {
	switch s {
	case StylePlain:
		return "plain"
	case StyleSingleQuoted:
		return "single-quoted"
	case StyleDoubleQuoted:
		return "double-quoted"
	case StyleLiteral:
		return "literal"
	case StyleFolded:
		return "folded"
	case StyleAlias:
		return "alias"
	}
	return "unknown"
}

// Token is a single element of the stream.
// For scalars Pos is the start of Raw and Raw is an exact slice of the source:
// file.Content[Pos.Offset : Pos.Offset+len(Raw)] == Raw.
type Token struct {
	Kind  Kind
	Pos   source.Pos
	Value string // decoded scalar value
	Raw   string // source text of the scalar content (without quotes / block header)
	Style Style
	Tag   string
	Flow  bool // container written in flow style ({...} or [...])
}

// IsNull reports a scalar that decodes to null (empty value, ~ or null).
func (t Token) IsNull() bool {
	return t.Kind == KindScalar && t.Tag == "!!null"
}

// Span returns the span covered by the token's raw text.
func (t Token) Span() source.Span {
	return t.Pos.Span(len(t.Raw))
}
