package jobgraph

import "slices"

// Topo is the result of a stable Kahn pass: dependencies come first and
// ties keep declaration order.
type Topo struct {
	Order     []int   // линейный порядок
	Batches   [][]int // волны независимых джобов
	Cyclic    bool
	Remaining []int // джобы, оставшиеся в цикле или зависящие от него
}

// Order computes the topological order of the jobs.
func (g *Graph) Order() *Topo {
	n := g.Len()
	pending := make([]int, n)
	for i := range n {
		pending[i] = len(g.Edges[i])
	}

	topo := &Topo{Order: make([]int, 0, n)}
	current := make([]int, 0, n)
	for i := range n {
		if pending[i] == 0 {
			current = append(current, i)
		}
	}

	for len(current) > 0 {
		batch := slices.Clone(current)
		topo.Batches = append(topo.Batches, batch)
		next := make([]int, 0)
		for _, id := range batch {
			topo.Order = append(topo.Order, id)
			for _, dependent := range g.Dependents[id] {
				pending[dependent]--
				if pending[dependent] == 0 {
					next = append(next, dependent)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if len(topo.Order) != n {
		topo.Cyclic = true
		for i := range n {
			if pending[i] > 0 {
				topo.Remaining = append(topo.Remaining, i)
			}
		}
	}
	return topo
}
