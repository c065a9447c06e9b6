package jobgraph

import (
	"fmt"
	"strings"

	"wflint/internal/ast"
	"wflint/internal/diag"
)

// Cycle is one circular dependency closed by a back edge.
type Cycle struct {
	// Path lists the jobs of the cycle; the closing edge goes from the last
	// element back to the first.
	Path []int
	// Closing is the needs entry of the back edge.
	Closing *ast.String
}

const (
	white = iota
	gray
	black
)

type dfsFrame struct {
	node int
	next int // index of the next edge to explore
}

// Cycles finds every back edge with an iterative three-color DFS. Jobs are
// visited in declaration order and needs entries in their own order, so
// the result is deterministic.
func (g *Graph) Cycles() []Cycle {
	color := make([]uint8, g.Len())
	var out []Cycle
	stack := make([]dfsFrame, 0, g.Len())

	for root := range g.Len() {
		if color[root] != white {
			continue
		}
		color[root] = gray
		stack = append(stack, dfsFrame{node: root})
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next >= len(g.Edges[top.node]) {
				color[top.node] = black
				stack = stack[:len(stack)-1]
				continue
			}
			k := top.next
			top.next++
			to := g.Edges[top.node][k]
			switch color[to] {
			case white:
				color[to] = gray
				stack = append(stack, dfsFrame{node: to})
			case gray:
				out = append(out, Cycle{
					Path:    pathFrom(stack, to),
					Closing: g.Entries[top.node][k],
				})
			}
		}
	}
	return out
}

func pathFrom(stack []dfsFrame, start int) []int {
	i := len(stack) - 1
	for i > 0 && stack[i].node != start {
		i--
	}
	path := make([]int, 0, len(stack)-i)
	for _, f := range stack[i:] {
		path = append(path, f.node)
	}
	return path
}

// Describe renders the cycle as "a -> b -> c -> a".
func (g *Graph) Describe(c Cycle) string {
	names := g.Names(c.Path)
	if len(names) > 0 {
		names = append(names, names[0])
	}
	return strings.Join(names, " -> ")
}

// ReportCycles emits one error per cycle, anchored at the closing needs entry.
func (g *Graph) ReportCycles(r diag.Reporter) int {
	cycles := g.Cycles()
	for _, c := range cycles {
		b := diag.ReportError(r, diag.SemDependencyCycle, c.Closing.Span(),
			fmt.Sprintf("circular dependency detected: %s", g.Describe(c))).
			WithRule(RuleName)
		for i := 0; i+1 < len(c.Path); i++ {
			if entry := g.entry(c.Path[i], c.Path[i+1]); entry != nil {
				b.WithNote(entry.Span(), fmt.Sprintf("job %q needs %q", g.IDs[c.Path[i]], g.IDs[c.Path[i+1]]))
			}
		}
		b.Emit()
	}
	return len(cycles)
}

func (g *Graph) entry(from, to int) *ast.String {
	for k, dep := range g.Edges[from] {
		if dep == to {
			return g.Entries[from][k]
		}
	}
	return nil
}
