// Package combiner blends TF-IDF relevance with a link-analysis signal
// (PageRank or HITS authority) into the final ranked result list.
package combiner

import (
	"container/heap"
	"sort"

	"github.com/krishnasharma4415/Mini-Search-Engine/internal/corpus"
	"github.com/krishnasharma4415/Mini-Search-Engine/internal/searcher/ranker"
)

const (
	DefaultTFIDFWeight     = 0.6
	DefaultSecondaryWeight = 0.4
	DefaultTopK            = 10
)

// Options are the linear weights and result cap. When both weights are
// zero the default weights apply; a non-positive TopK means DefaultTopK.
type Options struct {
	TFIDFWeight     float64
	SecondaryWeight float64
	TopK            int
}

func DefaultOptions() Options {
	return Options{
		TFIDFWeight:     DefaultTFIDFWeight,
		SecondaryWeight: DefaultSecondaryWeight,
		TopK:            DefaultTopK,
	}
}

func (o Options) withDefaults() Options {
	if o.TFIDFWeight == 0 && o.SecondaryWeight == 0 {
		o.TFIDFWeight = DefaultTFIDFWeight
		o.SecondaryWeight = DefaultSecondaryWeight
	}
	if o.TopK <= 0 {
		o.TopK = DefaultTopK
	}
	return o
}

// URLLookup resolves a document id to its page URL, reporting false when
// the id is outside the corpus.
type URLLookup func(corpus.DocID) (string, bool)

// Ranked is one combined result.
type Ranked struct {
	DocID     corpus.DocID `json:"doc_id"`
	URL       string       `json:"url"`
	Score     float64      `json:"score"`
	TFIDF     float64      `json:"tfidf_score"`
	Secondary float64      `json:"secondary_score"`
}

// Combine scores each TF-IDF result as
//
//	TFIDFWeight·tfidf + SecondaryWeight·secondary[url]
//
// where a URL without a secondary score contributes zero. Documents the
// lookup cannot resolve are skipped. The top TopK results are returned by
// descending score, ties by ascending document id.
func Combine(primary []ranker.ScoredDoc, secondary map[string]float64, lookup URLLookup, opts Options) []Ranked {
	opts = opts.withDefaults()
	limit := opts.TopK
	h := &rankedHeap{}
	heap.Init(h)
	for _, doc := range primary {
		url, ok := lookup(doc.DocID)
		if !ok {
			continue
		}
		sec := secondary[url]
		heap.Push(h, Ranked{
			DocID:     doc.DocID,
			URL:       url,
			Score:     opts.TFIDFWeight*doc.Score + opts.SecondaryWeight*sec,
			TFIDF:     doc.Score,
			Secondary: sec,
		})
		if h.Len() > limit {
			heap.Pop(h)
		}
	}
	result := make([]Ranked, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(Ranked)
	}
	return result
}

// Top returns the first k results of primary that the lookup resolves, with
// the TF-IDF score as the final score.
func Top(primary []ranker.ScoredDoc, lookup URLLookup, k int) []Ranked {
	if k <= 0 {
		k = DefaultTopK
	}
	result := make([]Ranked, 0, k)
	for _, doc := range primary {
		if len(result) == k {
			break
		}
		url, ok := lookup(doc.DocID)
		if !ok {
			continue
		}
		result = append(result, Ranked{
			DocID: doc.DocID,
			URL:   url,
			Score: doc.Score,
			TFIDF: doc.Score,
		})
	}
	return result
}

// URLScore is one entry of a standalone score vector.
type URLScore struct {
	URL   string  `json:"url"`
	Score float64 `json:"score"`
}

// TopURLs returns the k highest entries of scores, ties by URL. k <= 0
// returns every entry.
func TopURLs(scores map[string]float64, k int) []URLScore {
	out := make([]URLScore, 0, len(scores))
	for u, s := range scores {
		out = append(out, URLScore{URL: u, Score: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].URL < out[j].URL
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}

// rankedHeap is a min-heap on (score, -docID): the root is the weakest
// result kept so far.
type rankedHeap []Ranked

func (h rankedHeap) Len() int { return len(h) }

func (h rankedHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].DocID > h[j].DocID
}

func (h rankedHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *rankedHeap) Push(x interface{}) {
	*h = append(*h, x.(Ranked))
}

func (h *rankedHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
