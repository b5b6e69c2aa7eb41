// Package corpus holds the read-only corpus snapshot consumed by the ranking
// engine: the term-document inverted index and the crawled page list that
// maps document ids to URLs.
package corpus

import (
	"sort"

	apperrors "github.com/krishnasharma4415/Mini-Search-Engine/pkg/errors"
)

// Index is an inverted index over the crawled corpus. It is immutable once
// built or decoded and safe for concurrent readers.
type Index struct {
	postings  map[string]PostingMap
	docFreq   map[string]int
	totalDocs int
}

// NewIndex assembles an Index from its three parts and validates it.
func NewIndex(postings map[string]PostingMap, docFreq map[string]int, totalDocs int) (*Index, error) {
	idx := &Index{
		postings:  postings,
		docFreq:   docFreq,
		totalDocs: totalDocs,
	}
	if err := idx.Validate(); err != nil {
		return nil, err
	}
	return idx, nil
}

// Validate checks the structural invariants: every term has a document
// frequency equal to its posting count, and every posting has tf > 0.
func (x *Index) Validate() error {
	if x.postings == nil {
		return apperrors.Malformed(apperrors.ErrMalformedIndex, "missing postings")
	}
	if x.docFreq == nil {
		return apperrors.Malformed(apperrors.ErrMalformedIndex, "missing document frequencies")
	}
	if x.totalDocs < 0 {
		return apperrors.Malformed(apperrors.ErrMalformedIndex, "negative total document count %d", x.totalDocs)
	}
	for term, postings := range x.postings {
		df, ok := x.docFreq[term]
		if !ok {
			return apperrors.Malformed(apperrors.ErrMalformedIndex, "term %q has no document frequency", term)
		}
		if df != len(postings) {
			return apperrors.Malformed(apperrors.ErrMalformedIndex, "term %q: document frequency %d != %d postings", term, df, len(postings))
		}
		for docID, p := range postings {
			if p.DocID != docID {
				return apperrors.Malformed(apperrors.ErrMalformedIndex, "term %q: posting keyed %d carries doc id %d", term, docID, p.DocID)
			}
			if p.TF <= 0 {
				return apperrors.Malformed(apperrors.ErrMalformedIndex, "term %q doc %d: term frequency %d", term, docID, p.TF)
			}
		}
	}
	for term := range x.docFreq {
		if _, ok := x.postings[term]; !ok {
			return apperrors.Malformed(apperrors.ErrMalformedIndex, "document frequency for unindexed term %q", term)
		}
	}
	return nil
}

// Postings returns the postings for term. The map is shared and must not be
// modified.
func (x *Index) Postings(term string) (PostingMap, bool) {
	p, ok := x.postings[term]
	return p, ok
}

// DocumentFrequency returns the number of documents containing term.
func (x *Index) DocumentFrequency(term string) int {
	return x.docFreq[term]
}

// TotalDocs returns the corpus size recorded at index time.
func (x *Index) TotalDocs() int {
	return x.totalDocs
}

// TermCount returns the number of distinct terms.
func (x *Index) TermCount() int {
	return len(x.postings)
}

// MatchingURLs returns the distinct URLs of documents that contain any of
// terms, sorted.
func (x *Index) MatchingURLs(terms []string) []string {
	seen := make(map[string]struct{})
	for _, term := range terms {
		for _, p := range x.postings[term] {
			seen[p.URL] = struct{}{}
		}
	}
	urls := make([]string, 0, len(seen))
	for u := range seen {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// Entries returns every term with its postings, sorted by term.
func (x *Index) Entries() []TermEntry {
	entries := make([]TermEntry, 0, len(x.postings))
	for term, postings := range x.postings {
		entries = append(entries, TermEntry{Term: term, Postings: postings})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Term < entries[j].Term
	})
	return entries
}

// TermFrequencies returns the total term frequency across all documents for
// each term.
func (x *Index) TermFrequencies() map[string]int {
	totals := make(map[string]int, len(x.postings))
	for term, postings := range x.postings {
		sum := 0
		for _, p := range postings {
			sum += p.TF
		}
		totals[term] = sum
	}
	return totals
}
