// Package hits computes query-scoped hub and authority scores by mutual
// reinforcement over a query subgraph.
package hits

import (
	"log/slog"
	"math"

	"github.com/krishnasharma4415/Mini-Search-Engine/internal/graph"
)

const (
	DefaultMaxIterations = 20
	DefaultThreshold     = 1e-4
)

// Config controls the solver. Zero fields take the defaults.
type Config struct {
	MaxIterations int
	Threshold     float64
}

func DefaultConfig() Config {
	return Config{
		MaxIterations: DefaultMaxIterations,
		Threshold:     DefaultThreshold,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxIterations == 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.Threshold == 0 {
		c.Threshold = DefaultThreshold
	}
	return c
}

// Result holds the hub and authority vectors keyed by node URL.
type Result struct {
	Hubs        map[string]float64
	Authorities map[string]float64
	Iterations  int
	Converged   bool
}

// Compute runs HITS over sub. Each iteration first sets every authority to
// the sum of the previous hub scores of its in-links, then every hub to the
// sum of the authorities just computed for its out-links. Both vectors are
// then L2-normalised; an all-zero vector is left as is.
func Compute(sub *graph.LinkGraph, cfg Config) Result {
	if sub == nil || sub.Len() == 0 {
		return Result{
			Hubs:        map[string]float64{},
			Authorities: map[string]float64{},
		}
	}
	cfg = cfg.withDefaults()
	n := sub.Len()

	hub := make([]float64, n)
	auth := make([]float64, n)
	for i := 0; i < n; i++ {
		hub[i] = 1
		auth[i] = 1
	}
	nextHub := make([]float64, n)
	nextAuth := make([]float64, n)

	var (
		iterations int
		converged  bool
		hubDiff    float64
		authDiff   float64
	)
	for iterations < cfg.MaxIterations {
		for p := 0; p < n; p++ {
			sum := 0.0
			for _, s := range sub.In(p) {
				sum += hub[s]
			}
			nextAuth[p] = sum
		}
		for p := 0; p < n; p++ {
			sum := 0.0
			for _, t := range sub.Out(p) {
				sum += nextAuth[t]
			}
			nextHub[p] = sum
		}
		normalize(nextAuth)
		normalize(nextHub)

		hubDiff = l1Distance(nextHub, hub)
		authDiff = l1Distance(nextAuth, auth)
		hub, nextHub = nextHub, hub
		auth, nextAuth = nextAuth, auth
		iterations++
		if hubDiff < cfg.Threshold && authDiff < cfg.Threshold {
			converged = true
			break
		}
	}

	slog.Default().With("component", "hits").Debug("hits finished",
		"nodes", n,
		"edges", sub.EdgeCount(),
		"iterations", iterations,
		"hub_delta", hubDiff,
		"authority_delta", authDiff,
		"converged", converged,
	)

	res := Result{
		Hubs:        make(map[string]float64, n),
		Authorities: make(map[string]float64, n),
		Iterations:  iterations,
		Converged:   converged,
	}
	for id, u := range sub.Nodes() {
		res.Hubs[u] = hub[id]
		res.Authorities[u] = auth[id]
	}
	return res
}

func normalize(v []float64) {
	sq := 0.0
	for _, x := range v {
		sq += x * x
	}
	if sq == 0 {
		return
	}
	norm := math.Sqrt(sq)
	for i := range v {
		v[i] /= norm
	}
}

func l1Distance(a, b []float64) float64 {
	d := 0.0
	for i := range a {
		d += math.Abs(a[i] - b[i])
	}
	return d
}
