// Package expr parses the ${{ ... }} micro-expressions embedded in workflow
// strings. It guarantees syntactic shape and absolute source positions only;
// deciding whether a context path or function is meaningful is left to rules.
package expr

import (
	"strings"

	"wflint/internal/source"
)

// Node is one of *ContextRef, *Call, *Literal, *Binary, *Unary, *Raw.
type Node interface {
	Span() source.Span
	exprNode()
}

// Part is one segment of a context path: .name, .* or [index].
type Part struct {
	Name     string      // identifier or string-literal index value
	Span     source.Span // span of the name (or of the bracketed index)
	Index    Node        // non-nil for [expr] parts
	Wildcard bool        // .* or [*]
}

// ContextRef is a dotted path such as needs.build.result.
// Base is nil when the path starts with an identifier; otherwise the path
// dereferences the value of Base (e.g. fromJSON(x).key).
type ContextRef struct {
	Sp    source.Span
	Base  Node
	Parts []Part
}

// Call is a function call.
type Call struct {
	Sp       source.Span
	Name     string
	NameSpan source.Span
	Args     []Node
}

// LitKind classifies literals.
type LitKind uint8

const (
	LitNull LitKind = iota
	LitBool
	LitNumber
	LitString
)

// Literal holds the decoded value; for strings the quotes are removed and
// '' is unescaped.
type Literal struct {
	Sp    source.Span
	Kind  LitKind
	Value string
}

// BinaryOp enumerates binary operators.
type BinaryOp uint8

const (
	OpOr BinaryOp = iota
	OpAnd
	OpEq
	OpNotEq
	OpLess
	OpLessEq
	OpGreater
	OpGreaterEq
)

var binaryOpText = [...]string{
	OpOr:        "||",
	OpAnd:       "&&",
	OpEq:        "==",
	OpNotEq:     "!=",
	OpLess:      "<",
	OpLessEq:    "<=",
	OpGreater:   ">",
	OpGreaterEq: ">=",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpText) {
		return binaryOpText[op]
	}
	return "?"
}

// Binary is a binary operation.
type Binary struct {
	Sp     source.Span
	Op     BinaryOp
	OpSpan source.Span
	Left   Node
	Right  Node
}

// Unary is logical negation, the only unary operator of the language.
type Unary struct {
	Sp      source.Span
	Operand Node
}

// Raw preserves the original text of a region that failed to parse.
type Raw struct {
	Sp   source.Span
	Text string
}

func (n *ContextRef) Span() source.Span { return n.Sp }
func (n *Call) Span() source.Span       { return n.Sp }
func (n *Literal) Span() source.Span    { return n.Sp }
func (n *Binary) Span() source.Span     { return n.Sp }
func (n *Unary) Span() source.Span      { return n.Sp }
func (n *Raw) Span() source.Span        { return n.Sp }

func (*ContextRef) exprNode() {}
func (*Call) exprNode()       {}
func (*Literal) exprNode()    {}
func (*Binary) exprNode()     {}
func (*Unary) exprNode()      {}
func (*Raw) exprNode()        {}

// Root returns the first path segment for identifier-rooted references.
func (n *ContextRef) Root() string {
	if n.Base != nil || len(n.Parts) == 0 {
		return ""
	}
	return n.Parts[0].Name
}

// Path renders the reference as a dotted path; index parts render as [..].
func (n *ContextRef) Path() string {
	var sb strings.Builder
	if n.Base != nil {
		sb.WriteString(Format(n.Base))
	}
	for i, part := range n.Parts {
		switch {
		case part.Wildcard:
			sb.WriteString(".*")
			continue
		case part.Index != nil:
			sb.WriteString("[")
			sb.WriteString(Format(part.Index))
			sb.WriteString("]")
			continue
		}
		if i > 0 || n.Base != nil {
			sb.WriteByte('.')
		}
		sb.WriteString(part.Name)
	}
	return sb.String()
}

// Region is one ${{ ... }} occurrence inside a string.
type Region struct {
	Span     source.Span // whole region including markers
	Inner    source.Span // text between the markers
	Expr     Node
	Implicit bool // condition written without markers
}

// Failed reports whether the region fell back to a Raw node.
func (r *Region) Failed() bool {
	_, ok := r.Expr.(*Raw)
	return ok
}
