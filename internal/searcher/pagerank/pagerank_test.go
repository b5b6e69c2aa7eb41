package pagerank

import (
	"fmt"
	"math"
	"testing"

	"github.com/krishnasharma4415/Mini-Search-Engine/internal/graph"
)

func buildGraph(t *testing.T, nodes []string, edges map[string][]string) *graph.LinkGraph {
	t.Helper()
	g, err := graph.New(nodes, edges)
	if err != nil {
		t.Fatalf("graph.New: %v", err)
	}
	return g
}

func sum(scores map[string]float64) float64 {
	total := 0.0
	for _, v := range scores {
		total += v
	}
	return total
}

var fixtures = []struct {
	name  string
	nodes []string
	edges map[string][]string
}{
	{"cycle", []string{"A", "B", "C"}, map[string][]string{"A": {"B"}, "B": {"C"}, "C": {"A"}}},
	{"dangling sink", []string{"A", "B", "C"}, map[string][]string{"A": {"B", "C"}, "B": {"C"}}},
	{"all dangling", []string{"A", "B", "C", "D"}, nil},
	{"single node", []string{"A"}, nil},
	{"self loop", []string{"A", "B"}, map[string][]string{"A": {"A", "B"}}},
	{"star", []string{"hub", "a", "b", "c", "d"}, map[string][]string{
		"a": {"hub"}, "b": {"hub"}, "c": {"hub"}, "d": {"hub"}, "hub": {"a"},
	}},
}

func TestComputeSumsToOne(t *testing.T) {
	for _, tt := range fixtures {
		t.Run(tt.name, func(t *testing.T) {
			res := Compute(buildGraph(t, tt.nodes, tt.edges), DefaultConfig())
			if len(res.Scores) != len(tt.nodes) {
				t.Fatalf("got %d scores, want %d", len(res.Scores), len(tt.nodes))
			}
			if s := sum(res.Scores); math.Abs(s-1) > 1e-3 {
				t.Errorf("scores sum to %v, want 1", s)
			}
		})
	}
}

func TestTransitionColumnsAreStochastic(t *testing.T) {
	for _, tt := range fixtures {
		t.Run(tt.name, func(t *testing.T) {
			m := BuildTransition(buildGraph(t, tt.nodes, tt.edges))
			for col := 0; col < m.Size(); col++ {
				if s := m.ColumnSum(col); math.Abs(s-1) > 1e-9 {
					t.Errorf("column %d sums to %v", col, s)
				}
			}
		})
	}
}

func TestTransitionEntries(t *testing.T) {
	g := buildGraph(t, []string{"A", "B", "C"}, map[string][]string{"A": {"B", "C"}})
	m := BuildTransition(g)
	a, _ := g.ID("A")
	b, _ := g.ID("B")
	c, _ := g.ID("C")
	tests := []struct {
		row, col int
		want     float64
	}{
		{b, a, 0.5},
		{c, a, 0.5},
		{a, a, 0},
		{a, b, 1.0 / 3},
		{c, c, 1.0 / 3},
	}
	for _, tt := range tests {
		if got := m.At(tt.row, tt.col); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("At(%d, %d) = %v, want %v", tt.row, tt.col, got, tt.want)
		}
	}
	if len(m.Dangling()) != 2 {
		t.Errorf("Dangling = %v, want 2 columns", m.Dangling())
	}
}

func TestCycleIsUniform(t *testing.T) {
	g := buildGraph(t, []string{"A", "B", "C"}, map[string][]string{"A": {"B"}, "B": {"C"}, "C": {"A"}})
	res := Compute(g, Config{})
	if !res.Converged {
		t.Fatalf("did not converge in %d iterations", res.Iterations)
	}
	for u, v := range res.Scores {
		if math.Abs(v-1.0/3) > 1e-4 {
			t.Errorf("score[%s] = %v, want 1/3", u, v)
		}
	}
}

func TestEmptyGraph(t *testing.T) {
	res := Compute(buildGraph(t, nil, nil), DefaultConfig())
	if len(res.Scores) != 0 || res.Iterations != 0 {
		t.Errorf("empty graph: %d scores after %d iterations", len(res.Scores), res.Iterations)
	}
	if res := Compute(nil, DefaultConfig()); res.Scores == nil {
		t.Error("nil graph returned nil scores")
	}
}

func TestInlinksRaiseRank(t *testing.T) {
	g := buildGraph(t, []string{"hub", "a", "b", "c"}, map[string][]string{
		"a": {"hub"}, "b": {"hub"}, "c": {"hub"},
	})
	res := Compute(g, DefaultConfig())
	for _, u := range []string{"a", "b", "c"} {
		if res.Scores["hub"] <= res.Scores[u] {
			t.Errorf("score[hub] = %v not above score[%s] = %v", res.Scores["hub"], u, res.Scores[u])
		}
	}
}

func TestIterationCap(t *testing.T) {
	g := buildGraph(t, []string{"A", "B", "C"}, map[string][]string{"A": {"B", "C"}, "B": {"C"}})
	res := Compute(g, Config{MaxIterations: 1, Threshold: 1e-12})
	if res.Iterations != 1 || res.Converged {
		t.Errorf("Iterations = %d, Converged = %v", res.Iterations, res.Converged)
	}
	if s := sum(res.Scores); math.Abs(s-1) > 1e-3 {
		t.Errorf("capped scores sum to %v", s)
	}
}

func TestConfigDefaults(t *testing.T) {
	got := Config{Damping: 0.5}.withDefaults()
	want := Config{Damping: 0.5, MaxIterations: 30, Threshold: 1e-4}
	if got != want {
		t.Errorf("withDefaults = %+v, want %+v", got, want)
	}
}

func BenchmarkCompute(b *testing.B) {
	const n = 2000
	nodes := make([]string, n)
	for i := range nodes {
		nodes[i] = fmt.Sprintf("page-%d", i)
	}
	edges := make(map[string][]string, n)
	for i := 0; i < n; i++ {
		if i%10 == 0 {
			continue
		}
		edges[nodes[i]] = []string{nodes[(i+1)%n], nodes[(i*7)%n]}
	}
	g, err := graph.New(nodes, edges)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Compute(g, DefaultConfig())
	}
}

func TestConfigKey(t *testing.T) {
	def := DefaultConfig().Key()
	if def != "d=0.85;iter=30;tol=0.0001" {
		t.Errorf("default key = %q", def)
	}
	if got := (Config{}).Key(); got != def {
		t.Errorf("zero config key = %q, want the default %q", got, def)
	}
	if got := (Config{Damping: 0.5}).Key(); got == def {
		t.Error("different damping produced the default key")
	}
	if got := (Config{MaxIterations: 100}).Key(); got == def {
		t.Error("different iteration cap produced the default key")
	}
}
