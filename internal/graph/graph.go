// Package graph holds the hyperlink graph of the crawled corpus and the
// query-scoped subgraphs derived from it.
//
// Nodes are addressed by a dense integer id (their position in Nodes) so the
// solvers can keep score vectors in flat slices. Reverse adjacency is built
// once in New, which makes in-link lookups during subgraph extraction a
// slice access instead of a scan over every edge.
package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	apperrors "github.com/krishnasharma4415/Mini-Search-Engine/pkg/errors"
)

// LinkGraph is an immutable directed graph over page URLs. It is safe for
// concurrent readers.
type LinkGraph struct {
	nodes []string
	ids   map[string]int
	out   [][]int
	in    [][]int
	edges int
}

// Edge is a directed link between two node ids.
type Edge struct {
	From int
	To   int
}

// New builds a LinkGraph from a node list and an adjacency map keyed by
// URL. Every edge source and target must be in nodes. Duplicate targets of a
// single source are collapsed; self-links are kept.
func New(nodes []string, edges map[string][]string) (*LinkGraph, error) {
	g := &LinkGraph{
		nodes: make([]string, len(nodes)),
		ids:   make(map[string]int, len(nodes)),
		out:   make([][]int, len(nodes)),
		in:    make([][]int, len(nodes)),
	}
	for i, u := range nodes {
		if u == "" {
			return nil, apperrors.Malformed(apperrors.ErrMalformedGraph, "node %d has an empty url", i)
		}
		if _, dup := g.ids[u]; dup {
			return nil, apperrors.Malformed(apperrors.ErrMalformedGraph, "duplicate node %q", u)
		}
		g.nodes[i] = u
		g.ids[u] = i
	}
	for src, targets := range edges {
		from, ok := g.ids[src]
		if !ok {
			return nil, apperrors.Malformed(apperrors.ErrMalformedGraph, "edge source %q is not a node", src)
		}
		seen := make(map[int]struct{}, len(targets))
		for _, dst := range targets {
			to, ok := g.ids[dst]
			if !ok {
				return nil, apperrors.Malformed(apperrors.ErrMalformedGraph, "edge %q -> %q targets an unknown node", src, dst)
			}
			if _, dup := seen[to]; dup {
				continue
			}
			seen[to] = struct{}{}
			g.out[from] = append(g.out[from], to)
		}
	}
	for from, targets := range g.out {
		sort.Ints(targets)
		for _, to := range targets {
			g.in[to] = append(g.in[to], from)
		}
		g.edges += len(targets)
	}
	return g, nil
}

// Len returns the number of nodes.
func (g *LinkGraph) Len() int { return len(g.nodes) }

// EdgeCount returns the number of distinct directed edges.
func (g *LinkGraph) EdgeCount() int { return g.edges }

// Nodes returns the node URLs in id order. The slice must not be modified.
func (g *LinkGraph) Nodes() []string { return g.nodes }

// Node returns the URL of node id.
func (g *LinkGraph) Node(id int) string { return g.nodes[id] }

// ID returns the node id of url.
func (g *LinkGraph) ID(url string) (int, bool) {
	id, ok := g.ids[url]
	return id, ok
}

// Out returns the ids node id links to, ascending. The slice is shared.
func (g *LinkGraph) Out(id int) []int { return g.out[id] }

// In returns the ids linking to node id, ascending. The slice is shared.
func (g *LinkGraph) In(id int) []int { return g.in[id] }

// OutDegree returns the number of distinct outgoing links of node id.
func (g *LinkGraph) OutDegree(id int) int { return len(g.out[id]) }

// Edges returns every edge ordered by source then target.
func (g *LinkGraph) Edges() []Edge {
	all := make([]Edge, 0, g.edges)
	for from, targets := range g.out {
		for _, to := range targets {
			all = append(all, Edge{From: from, To: to})
		}
	}
	return all
}

// Outlinks returns the URLs url links to.
func (g *LinkGraph) Outlinks(url string) []string {
	id, ok := g.ids[url]
	if !ok {
		return nil
	}
	return g.urls(g.out[id])
}

// Inlinks returns the URLs linking to url.
func (g *LinkGraph) Inlinks(url string) []string {
	id, ok := g.ids[url]
	if !ok {
		return nil
	}
	return g.urls(g.in[id])
}

// Adjacency returns the edge map keyed by URL. Nodes without outgoing links
// are omitted.
func (g *LinkGraph) Adjacency() map[string][]string {
	adj := make(map[string][]string)
	for from, targets := range g.out {
		if len(targets) == 0 {
			continue
		}
		adj[g.nodes[from]] = g.urls(targets)
	}
	return adj
}

// Fingerprint identifies the graph's content. Two graphs with the same nodes
// in the same order and the same edges share a fingerprint.
func (g *LinkGraph) Fingerprint() string {
	h := sha256.New()
	var buf [8]byte
	writeInt := func(v int) {
		for i := range buf {
			buf[i] = byte(v >> (8 * i))
		}
		h.Write(buf[:])
	}
	writeInt(len(g.nodes))
	for _, u := range g.nodes {
		writeInt(len(u))
		h.Write([]byte(u))
	}
	for from, targets := range g.out {
		writeInt(from)
		writeInt(len(targets))
		for _, to := range targets {
			writeInt(to)
		}
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}

func (g *LinkGraph) urls(ids []int) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = g.nodes[id]
	}
	return out
}
