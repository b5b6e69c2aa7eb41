package pagerank

import (
	"sort"

	"github.com/krishnasharma4415/Mini-Search-Engine/internal/graph"
)

// Transition is the column-stochastic transition matrix of a link graph,
// stored sparsely. Column s spreads source s's mass evenly over its targets;
// a dangling column spreads it evenly over every node.
type Transition struct {
	n        int
	targets  [][]int
	weight   []float64
	dangling []int
}

// BuildTransition derives the transition matrix of g.
func BuildTransition(g *graph.LinkGraph) *Transition {
	n := g.Len()
	t := &Transition{
		n:       n,
		targets: make([][]int, n),
		weight:  make([]float64, n),
	}
	for s := 0; s < n; s++ {
		out := g.Out(s)
		if len(out) == 0 {
			t.dangling = append(t.dangling, s)
			continue
		}
		t.targets[s] = out
		t.weight[s] = 1 / float64(len(out))
	}
	return t
}

// Size returns the matrix dimension.
func (t *Transition) Size() int { return t.n }

// Dangling returns the ids of the columns with no outgoing links.
func (t *Transition) Dangling() []int { return t.dangling }

// At returns entry (row, col): the probability of stepping from col to row.
func (t *Transition) At(row, col int) float64 {
	targets := t.targets[col]
	if targets == nil {
		return 1 / float64(t.n)
	}
	i := sort.SearchInts(targets, row)
	if i < len(targets) && targets[i] == row {
		return t.weight[col]
	}
	return 0
}

// ColumnSum returns the sum of column col, entry by entry.
func (t *Transition) ColumnSum(col int) float64 {
	sum := 0.0
	for row := 0; row < t.n; row++ {
		sum += t.At(row, col)
	}
	return sum
}

// Multiply writes M·r into dst. dst and r must both have length Size and
// must not alias.
func (t *Transition) Multiply(dst, r []float64) {
	danglingMass := 0.0
	for _, s := range t.dangling {
		danglingMass += r[s]
	}
	share := 0.0
	if t.n > 0 {
		share = danglingMass / float64(t.n)
	}
	for i := range dst {
		dst[i] = share
	}
	for s, targets := range t.targets {
		if len(targets) == 0 {
			continue
		}
		mass := r[s] * t.weight[s]
		for _, to := range targets {
			dst[to] += mass
		}
	}
}
