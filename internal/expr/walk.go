package expr

import (
	"strings"
)

// Walk visits n and its children in source order. Returning false from fn
// skips the children of the current node. An explicit stack keeps deep
// trees off the call stack.
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	stack := []Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur) {
			continue
		}
		children := childrenOf(cur)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
}

func childrenOf(n Node) []Node {
	switch n := n.(type) {
	case *ContextRef:
		var out []Node
		if n.Base != nil {
			out = append(out, n.Base)
		}
		for _, part := range n.Parts {
			if part.Index != nil {
				out = append(out, part.Index)
			}
		}
		return out
	case *Call:
		return n.Args
	case *Binary:
		return []Node{n.Left, n.Right}
	case *Unary:
		return []Node{n.Operand}
	}
	return nil
}

// ContextRefs returns every context reference of the regions in source order.
func ContextRefs(regions []*Region) []*ContextRef {
	var out []*ContextRef
	for _, reg := range regions {
		Walk(reg.Expr, func(n Node) bool {
			if ref, ok := n.(*ContextRef); ok {
				out = append(out, ref)
			}
			return true
		})
	}
	return out
}

// Calls returns every function call of the regions in source order.
func Calls(regions []*Region) []*Call {
	var out []*Call
	for _, reg := range regions {
		Walk(reg.Expr, func(n Node) bool {
			if call, ok := n.(*Call); ok {
				out = append(out, call)
			}
			return true
		})
	}
	return out
}

// Format renders n in a normalized single-line form.
func Format(n Node) string {
	var sb strings.Builder
	format(&sb, n)
	return sb.String()
}

func format(sb *strings.Builder, n Node) {
	switch n := n.(type) {
	case nil:
		sb.WriteString("<nil>")
	case *ContextRef:
		sb.WriteString(n.Path())
	case *Call:
		sb.WriteString(n.Name)
		sb.WriteByte('(')
		for i, arg := range n.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			format(sb, arg)
		}
		sb.WriteByte(')')
	case *Literal:
		if n.Kind == LitString {
			sb.WriteByte('\'')
			sb.WriteString(strings.ReplaceAll(n.Value, "'", "''"))
			sb.WriteByte('\'')
			return
		}
		sb.WriteString(n.Value)
	case *Binary:
		sb.WriteByte('(')
		format(sb, n.Left)
		sb.WriteByte(' ')
		sb.WriteString(n.Op.String())
		sb.WriteByte(' ')
		format(sb, n.Right)
		sb.WriteByte(')')
	case *Unary:
		sb.WriteByte('!')
		format(sb, n.Operand)
	case *Raw:
		sb.WriteString("raw(")
		sb.WriteString(n.Text)
		sb.WriteByte(')')
	}
}
