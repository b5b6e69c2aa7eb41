package corpus

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	apperrors "github.com/krishnasharma4415/Mini-Search-Engine/pkg/errors"
)

// indexFile is the on-disk shape of inverted_index.json.
type indexFile struct {
	Index               map[string]map[string]Posting `json:"index"`
	DocumentFrequencies map[string]int                `json:"document_frequencies"`
	TotalDocuments      *int                          `json:"total_documents"`
}

// DecodeIndex reads an inverted index in the indexer's JSON shape and
// validates it. Missing top-level keys, non-integer document ids and broken
// invariants are reported as ErrMalformedIndex.
func DecodeIndex(r io.Reader) (*Index, error) {
	var raw indexFile
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, apperrors.Malformed(apperrors.ErrMalformedIndex, "decoding json: %v", err)
	}
	if raw.Index == nil {
		return nil, apperrors.Malformed(apperrors.ErrMalformedIndex, `missing "index"`)
	}
	if raw.DocumentFrequencies == nil {
		return nil, apperrors.Malformed(apperrors.ErrMalformedIndex, `missing "document_frequencies"`)
	}
	if raw.TotalDocuments == nil {
		return nil, apperrors.Malformed(apperrors.ErrMalformedIndex, `missing "total_documents"`)
	}
	postings := make(map[string]PostingMap, len(raw.Index))
	for term, docs := range raw.Index {
		pm := make(PostingMap, len(docs))
		for key, p := range docs {
			id, err := strconv.Atoi(key)
			if err != nil || id < 0 {
				return nil, apperrors.Malformed(apperrors.ErrMalformedIndex, "term %q: invalid document id %q", term, key)
			}
			p.DocID = DocID(id)
			pm[p.DocID] = p
		}
		postings[term] = pm
	}
	return NewIndex(postings, raw.DocumentFrequencies, *raw.TotalDocuments)
}

// EncodeIndex writes idx in the same JSON shape DecodeIndex reads.
func EncodeIndex(w io.Writer, idx *Index) error {
	total := idx.totalDocs
	raw := indexFile{
		Index:               make(map[string]map[string]Posting, len(idx.postings)),
		DocumentFrequencies: idx.docFreq,
		TotalDocuments:      &total,
	}
	for term, pm := range idx.postings {
		docs := make(map[string]Posting, len(pm))
		for id, p := range pm {
			docs[id.String()] = p
		}
		raw.Index[term] = docs
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(raw); err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	return nil
}

// DecodePages reads a crawled page list and validates it.
func DecodePages(r io.Reader) (Pages, error) {
	var pages Pages
	if err := json.NewDecoder(r).Decode(&pages); err != nil {
		return nil, apperrors.Malformed(apperrors.ErrMalformedPages, "decoding json: %v", err)
	}
	if pages == nil {
		return nil, apperrors.Malformed(apperrors.ErrMalformedPages, "expected a json array of pages")
	}
	if err := pages.Validate(); err != nil {
		return nil, err
	}
	return pages, nil
}

// LoadPages decodes the crawled page list stored at path.
func LoadPages(path string) (Pages, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pages %s: %w", path, err)
	}
	defer f.Close()
	pages, err := DecodePages(f)
	if err != nil {
		return nil, fmt.Errorf("loading pages %s: %w", path, err)
	}
	return pages, nil
}

// SortedDocIDs returns the document ids of pm in ascending order.
func SortedDocIDs(pm PostingMap) []DocID {
	ids := make([]DocID, 0, len(pm))
	for id := range pm {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
