package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/krishnasharma4415/Mini-Search-Engine/internal/corpus"
	apperrors "github.com/krishnasharma4415/Mini-Search-Engine/pkg/errors"
)

// graphFile is the on-disk shape of link_graph.json.
type graphFile struct {
	Nodes []string            `json:"nodes"`
	Edges map[string][]string `json:"edges"`
}

// Decode reads a link graph in {"nodes": [...], "edges": {...}} form. Both
// keys are required.
func Decode(r io.Reader) (*LinkGraph, error) {
	var raw graphFile
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, apperrors.Malformed(apperrors.ErrMalformedGraph, "decoding json: %v", err)
	}
	if raw.Nodes == nil {
		return nil, apperrors.Malformed(apperrors.ErrMalformedGraph, `missing "nodes"`)
	}
	if raw.Edges == nil {
		return nil, apperrors.Malformed(apperrors.ErrMalformedGraph, `missing "edges"`)
	}
	return New(raw.Nodes, raw.Edges)
}

// Encode writes g in the shape Decode reads. Every node gets an edge entry,
// empty for nodes without outgoing links.
func Encode(w io.Writer, g *LinkGraph) error {
	raw := graphFile{
		Nodes: g.Nodes(),
		Edges: make(map[string][]string, g.Len()),
	}
	for id, u := range g.nodes {
		raw.Edges[u] = g.urls(g.out[id])
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(raw); err != nil {
		return fmt.Errorf("encoding link graph: %w", err)
	}
	return nil
}

// Load decodes the link graph stored at path.
func Load(path string) (*LinkGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening link graph %s: %w", path, err)
	}
	defer f.Close()
	g, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("loading link graph %s: %w", path, err)
	}
	return g, nil
}

// Build derives the link graph of a crawled corpus: one node per page, and
// an edge for every link whose target was also crawled.
func Build(pages corpus.Pages) (*LinkGraph, error) {
	nodes := make([]string, len(pages))
	known := make(map[string]struct{}, len(pages))
	for i, p := range pages {
		nodes[i] = p.URL
		known[p.URL] = struct{}{}
	}
	edges := make(map[string][]string, len(pages))
	for _, p := range pages {
		targets := make([]string, 0, len(p.Links))
		for _, link := range p.Links {
			if _, ok := known[link]; ok {
				targets = append(targets, link)
			}
		}
		edges[p.URL] = targets
	}
	return New(nodes, edges)
}
