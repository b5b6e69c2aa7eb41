// Package pagerank computes query-independent link authority over the whole
// link graph by damped power iteration.
package pagerank

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/krishnasharma4415/Mini-Search-Engine/internal/graph"
)

const (
	DefaultDamping       = 0.85
	DefaultMaxIterations = 30
	DefaultThreshold     = 1e-4
)

// Config controls the solver. Zero fields take the defaults.
type Config struct {
	Damping       float64
	MaxIterations int
	Threshold     float64
}

func DefaultConfig() Config {
	return Config{
		Damping:       DefaultDamping,
		MaxIterations: DefaultMaxIterations,
		Threshold:     DefaultThreshold,
	}
}

func (c Config) withDefaults() Config {
	if c.Damping == 0 {
		c.Damping = DefaultDamping
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}
	return c
}

// Key renders the effective parameters (defaults applied) canonically, so
// vectors computed under different settings never share a stored entry.
func (c Config) Key() string {
	c = c.withDefaults()
	return fmt.Sprintf("d=%s;iter=%d;tol=%s",
		strconv.FormatFloat(c.Damping, 'g', -1, 64),
		c.MaxIterations,
		strconv.FormatFloat(c.Threshold, 'g', -1, 64),
	)
}

// Result is the outcome of one PageRank run.
type Result struct {
	// Scores maps every node URL to its rank. The ranks sum to 1.
	Scores     map[string]float64
	Iterations int
	Converged  bool
	// Delta is the L1 change of the final iteration.
	Delta float64
}

// Compute runs PageRank over g. The update is
//
//	r' = (1-d)/N + d·M·r
//
// starting from the uniform vector, until the L1 change drops below the
// threshold or the iteration cap is reached. The most recent vector is
// returned either way.
func Compute(g *graph.LinkGraph, cfg Config) Result {
	if g == nil || g.Len() == 0 {
		return Result{Scores: map[string]float64{}}
	}
	cfg = cfg.withDefaults()
	vec, iterations, converged, delta := Solve(BuildTransition(g), cfg)

	scores := make(map[string]float64, len(vec))
	for id, v := range vec {
		scores[g.Node(id)] = v
	}
	slog.Default().With("component", "pagerank").Debug("pagerank finished",
		"nodes", g.Len(),
		"edges", g.EdgeCount(),
		"iterations", iterations,
		"delta", delta,
		"converged", converged,
	)
	return Result{
		Scores:     scores,
		Iterations: iterations,
		Converged:  converged,
		Delta:      delta,
	}
}

// Solve runs the power iteration over an already built transition matrix
// and returns the rank vector indexed by node id.
func Solve(m *Transition, cfg Config) (vec []float64, iterations int, converged bool, delta float64) {
	n := m.Size()
	if n == 0 {
		return []float64{}, 0, false, 0
	}
	cfg = cfg.withDefaults()
	teleport := (1 - cfg.Damping) / float64(n)

	cur := make([]float64, n)
	next := make([]float64, n)
	for i := range cur {
		cur[i] = 1 / float64(n)
	}
	for iterations < cfg.MaxIterations {
		m.Multiply(next, cur)
		delta = 0
		for i := range next {
			next[i] = teleport + cfg.Damping*next[i]
			delta += math.Abs(next[i] - cur[i])
		}
		cur, next = next, cur
		iterations++
		if delta < cfg.Threshold {
			converged = true
			break
		}
	}
	return cur, iterations, converged, delta
}
