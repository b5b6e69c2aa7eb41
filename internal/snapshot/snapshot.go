// Package snapshot loads the corpus artifacts (inverted index, link graph
// and page list) into one immutable Snapshot and swaps snapshots atomically
// when the artifacts are rebuilt.
package snapshot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/krishnasharma4415/Mini-Search-Engine/internal/corpus"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/graph"
	"github.com/krishnasharma4415/Mini-Search-Engine/pkg/config"
)

// Snapshot is a read-only view of one build of the corpus. Nothing in it is
// modified after New returns.
type Snapshot struct {
	Index *corpus.Index
	Graph *graph.LinkGraph
	Pages corpus.Pages
	// GraphVersion changes whenever the link graph does. Cached PageRank
	// vectors are keyed by it.
	GraphVersion string
	// Version changes whenever the graph or the index does.
	Version  string
	LoadedAt time.Time
}

// New assembles a Snapshot from already validated parts.
func New(idx *corpus.Index, g *graph.LinkGraph, pages corpus.Pages) *Snapshot {
	gv := g.Fingerprint()
	return &Snapshot{
		Index:        idx,
		Graph:        g,
		Pages:        pages,
		GraphVersion: gv,
		Version:      contentVersion(gv, idx),
		LoadedAt:     time.Now().UTC(),
	}
}

// Load reads the three artifacts named by cfg concurrently. Any structural
// problem in any of them fails the whole load, and cancelling ctx stops the
// decoders that are still reading.
func Load(ctx context.Context, cfg config.DataConfig) (*Snapshot, error) {
	var (
		idx   *corpus.Index
		g     *graph.LinkGraph
		pages corpus.Pages
	)
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		idx, err = decodeFile(gctx, "index", cfg.IndexPath, corpus.DecodeIndex)
		return err
	})
	eg.Go(func() error {
		var err error
		g, err = decodeFile(gctx, "link graph", cfg.GraphPath, graph.Decode)
		return err
	})
	eg.Go(func() error {
		var err error
		pages, err = decodeFile(gctx, "pages", cfg.PagesPath, corpus.DecodePages)
		return err
	})
	err := eg.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("loading snapshot: %w", ctxErr)
	}
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	if idx.TotalDocs() != len(pages) {
		slog.Default().With("component", "snapshot").Warn("index and page list disagree on corpus size",
			"index_documents", idx.TotalDocs(),
			"pages", len(pages),
		)
	}
	return New(idx, g, pages), nil
}

func decodeFile[T any](ctx context.Context, what, path string, decode func(io.Reader) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("opening %s %s: %w", what, path, err)
	}
	defer f.Close()
	v, err := decode(ctxReader{ctx: ctx, r: f})
	if err != nil {
		return zero, fmt.Errorf("loading %s %s: %w", what, path, err)
	}
	return v, nil
}

// ctxReader fails every Read once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// FromPages builds the index and link graph directly from crawled pages.
func FromPages(pages corpus.Pages) (*Snapshot, error) {
	if err := pages.Validate(); err != nil {
		return nil, err
	}
	g, err := graph.Build(pages)
	if err != nil {
		return nil, fmt.Errorf("building link graph: %w", err)
	}
	return New(corpus.BuildIndex(pages), g, pages), nil
}

// URL resolves a document id to its page URL.
func (s *Snapshot) URL(id corpus.DocID) (string, bool) {
	return s.Pages.URL(id)
}

func contentVersion(graphVersion string, idx *corpus.Index) string {
	h := sha256.New()
	fmt.Fprintf(h, "graph=%s docs=%d\n", graphVersion, idx.TotalDocs())
	for _, e := range idx.Entries() {
		fmt.Fprintf(h, "%s", e.Term)
		for _, id := range corpus.SortedDocIDs(e.Postings) {
			fmt.Fprintf(h, " %d:%d", id, e.Postings[id].TF)
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil)[:12])
}

// TermCount pairs a term with its total frequency across the corpus.
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// Stats summarises a snapshot.
type Stats struct {
	Version          string      `json:"version"`
	TotalPages       int         `json:"total_pages"`
	IndexedDocuments int         `json:"indexed_documents"`
	UniqueTerms      int         `json:"unique_terms"`
	GraphNodes       int         `json:"graph_nodes"`
	GraphEdges       int         `json:"graph_edges"`
	TotalLinks       int         `json:"total_links"`
	AvgLinksPerPage  float64     `json:"avg_links_per_page"`
	TopTerms         []TermCount `json:"top_terms"`
	LoadedAt         time.Time   `json:"loaded_at"`
}

const topTermCount = 10

// Stats computes corpus statistics. Top terms are ordered by total
// frequency, ties by term.
func (s *Snapshot) Stats() Stats {
	st := Stats{
		Version:          s.Version,
		TotalPages:       len(s.Pages),
		IndexedDocuments: s.Index.TotalDocs(),
		UniqueTerms:      s.Index.TermCount(),
		GraphNodes:       s.Graph.Len(),
		GraphEdges:       s.Graph.EdgeCount(),
		TotalLinks:       s.Pages.TotalLinks(),
		LoadedAt:         s.LoadedAt,
	}
	if st.TotalPages > 0 {
		st.AvgLinksPerPage = float64(st.TotalLinks) / float64(st.TotalPages)
	}
	freqs := s.Index.TermFrequencies()
	terms := make([]TermCount, 0, len(freqs))
	for term, n := range freqs {
		terms = append(terms, TermCount{Term: term, Count: n})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Count != terms[j].Count {
			return terms[i].Count > terms[j].Count
		}
		return terms[i].Term < terms[j].Term
	})
	if len(terms) > topTermCount {
		terms = terms[:topTermCount]
	}
	st.TopTerms = terms
	return st
}
