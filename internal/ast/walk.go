package ast

import "iter"

// Scope locates a scalar inside the workflow.
type Scope struct {
	Job  *Job  // nil outside jobs
	Step *Step // nil outside steps
	Key  string
	// IsKey is set when the scalar is itself a mapping key.
	IsKey bool
}

type walkItem struct {
	node  Node
	scope Scope
}

// Strings yields every scalar of the document in source order together with
// its job/step scope. Keys are yielded before their values.
func (w *Workflow) Strings() iter.Seq2[Scope, *String] {
	return func(yield func(Scope, *String) bool) {
		if w == nil || w.Root == nil {
			return
		}
		jobsByBody := make(map[*Mapping]*Job, len(w.Jobs))
		stepsByBody := make(map[*Mapping]*Step)
		for _, j := range w.Jobs {
			jobsByBody[j.Body] = j
			for _, s := range j.Steps {
				stepsByBody[s.Body] = s
			}
		}

		stack := []walkItem{{node: w.Root}}
		for len(stack) > 0 {
			it := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			switch n := it.node.(type) {
			case *String:
				if !yield(it.scope, n) {
					return
				}
			case *Mapping:
				scope := it.scope
				if j, ok := jobsByBody[n]; ok && scope.Job == nil {
					scope.Job = j
				}
				if s, ok := stepsByBody[n]; ok && scope.Step == nil {
					scope.Step = s
				}
				for i := len(n.Entries) - 1; i >= 0; i-- {
					e := n.Entries[i]
					child := scope
					child.Key = e.Key.Value
					child.IsKey = false
					if e.Value != nil {
						stack = append(stack, walkItem{node: e.Value, scope: child})
					}
					keyScope := child
					keyScope.IsKey = true
					stack = append(stack, walkItem{node: e.Key, scope: keyScope})
				}
			case *Sequence:
				for i := len(n.Items) - 1; i >= 0; i-- {
					stack = append(stack, walkItem{node: n.Items[i], scope: it.scope})
				}
			}
		}
	}
}

// Expressions yields every scalar that embeds at least one expression.
func (w *Workflow) Expressions() iter.Seq2[Scope, *String] {
	return func(yield func(Scope, *String) bool) {
		for scope, s := range w.Strings() {
			if len(s.Exprs) == 0 {
				continue
			}
			if !yield(scope, s) {
				return
			}
		}
	}
}
