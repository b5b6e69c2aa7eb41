package graph

import (
	"sort"

	"github.com/krishnasharma4415/Mini-Search-Engine/internal/corpus"
)

// Subgraph is the query-scoped neighbourhood of a set of relevant pages. It
// is a LinkGraph in its own right, with ids local to the subgraph.
type Subgraph struct {
	*LinkGraph
	// Relevant lists the pages that matched the query, sorted.
	Relevant []string
}

// Empty reports whether the subgraph has no nodes.
func (s *Subgraph) Empty() bool {
	return s.LinkGraph == nil || s.Len() == 0
}

// Subgraph returns the relevant pages together with every page they link to
// and every page linking to them, keeping the edges of g whose endpoints
// both fall inside that set. Relevant pages missing from g become isolated
// nodes. Node ids of the result are assigned in URL order.
func (g *LinkGraph) Subgraph(relevant []string) *Subgraph {
	members := make(map[string]struct{}, len(relevant)*4)
	roots := make([]string, 0, len(relevant))
	for _, u := range relevant {
		if _, dup := members[u]; dup {
			continue
		}
		members[u] = struct{}{}
		roots = append(roots, u)
	}
	sort.Strings(roots)
	for _, u := range roots {
		id, ok := g.ids[u]
		if !ok {
			continue
		}
		for _, to := range g.out[id] {
			members[g.nodes[to]] = struct{}{}
		}
		for _, from := range g.in[id] {
			members[g.nodes[from]] = struct{}{}
		}
	}

	nodes := make([]string, 0, len(members))
	for u := range members {
		nodes = append(nodes, u)
	}
	sort.Strings(nodes)

	sub := &LinkGraph{
		nodes: nodes,
		ids:   make(map[string]int, len(nodes)),
		out:   make([][]int, len(nodes)),
		in:    make([][]int, len(nodes)),
	}
	for i, u := range nodes {
		sub.ids[u] = i
	}
	for i, u := range nodes {
		id, ok := g.ids[u]
		if !ok {
			continue
		}
		for _, to := range g.out[id] {
			local, ok := sub.ids[g.nodes[to]]
			if !ok {
				continue
			}
			sub.out[i] = append(sub.out[i], local)
		}
		sort.Ints(sub.out[i])
	}
	for from, targets := range sub.out {
		for _, to := range targets {
			sub.in[to] = append(sub.in[to], from)
		}
		sub.edges += len(targets)
	}
	return &Subgraph{LinkGraph: sub, Relevant: roots}
}

// Extract builds the query subgraph for terms: the pages whose postings
// match any term, expanded by one hop in both directions over g.
func Extract(terms []string, idx *corpus.Index, g *LinkGraph) *Subgraph {
	return g.Subgraph(idx.MatchingURLs(terms))
}
