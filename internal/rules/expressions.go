package rules

import (
	"context"
	"fmt"
	"iter"

	"wflint/internal/ast"
	"wflint/internal/diag"
	"wflint/internal/expr"
)

// ExpressionContexts checks context paths and function names of every
// expression against the known context tree.
type ExpressionContexts struct{}

func (ExpressionContexts) Name() string { return "expressions-contexts" }

func (r ExpressionContexts) Check(ctx context.Context, in *Input) iter.Seq[*diag.Diagnostic] {
	return func(yield func(*diag.Diagnostic) bool) {
		e := newEmitter(r.Name(), yield)
		matrices := make(map[*ast.Job]*ctxNode)
		for scope, s := range in.Workflow.Expressions() {
			if ctx.Err() != nil {
				return
			}
			for _, reg := range s.Exprs {
				if reg.Failed() {
					continue
				}
				expr.Walk(reg.Expr, func(n expr.Node) bool {
					if e.stopped {
						return false
					}
					switch n := n.(type) {
					case *expr.ContextRef:
						if n.Base == nil {
							if d := checkContextRef(in, n, scope, matrices); d != nil {
								e.emit(d)
							}
						}
					case *expr.Call:
						if _, ok := canonicalFunction(n.Name); !ok {
							d := diag.NewError(diag.SemUnknownFunction, n.NameSpan,
								fmt.Sprintf("unknown function %q", n.Name))
							e.emit(rename(d, in, n.NameSpan, n.Name, knownFunctions))
						}
					}
					return true
				})
				if e.stopped {
					return
				}
			}
		}
	}
}

func checkContextRef(in *Input, ref *expr.ContextRef, scope ast.Scope, matrices map[*ast.Job]*ctxNode) *diag.Diagnostic {
	if len(ref.Parts) == 0 {
		return nil
	}
	root := ref.Parts[0]
	var node *ctxNode
	if root.Name == "matrix" {
		node = matrices[scope.Job]
		if node == nil {
			node = matrixContext(scope.Job)
			matrices[scope.Job] = node
		}
	} else {
		var ok bool
		node, ok = contextRoots[root.Name]
		if !ok {
			d := diag.NewError(diag.SemUnknownContext, root.Span,
				fmt.Sprintf("expression %q does not match any context", ref.Path()))
			return rename(d, in, root.Span, root.Name, contextNames())
		}
	}

	for i := 1; i < len(ref.Parts); i++ {
		part := ref.Parts[i]
		if part.Wildcard || node.dynamic {
			return nil
		}
		if part.Index != nil {
			lit, ok := part.Index.(*expr.Literal)
			if !ok || lit.Kind != expr.LitString {
				return nil
			}
		}
		next, ok := node.child(part.Name)
		if ok {
			node = next
			continue
		}
		prefix := &expr.ContextRef{Parts: ref.Parts[:i+1]}
		d := diag.NewError(diag.SemUnknownContext, part.Span,
			fmt.Sprintf("expression %q does not match any context", prefix.Path()))
		if part.Index == nil && len(node.props) > 0 {
			d = rename(d, in, part.Span, part.Name, node.names())
		}
		return d
	}
	return nil
}
