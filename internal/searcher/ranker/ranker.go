package ranker

import (
	"math"
	"sort"

	"github.com/krishnasharma4415/Mini-Search-Engine/internal/corpus"
)

type ScoredDoc struct {
	DocID corpus.DocID `json:"doc_id"`
	Score float64      `json:"score"`
}

// TFIDF scores every document containing at least one of terms by
// Σ tf × ln(N/df). Repeated terms count once per occurrence. Documents are
// returned by descending score, ties by ascending id; a matching document
// whose score is zero is still returned.
func TFIDF(terms []string, idx *corpus.Index) []ScoredDoc {
	scores := Scores(terms, idx)
	result := make([]ScoredDoc, 0, len(scores))
	for docID, score := range scores {
		result = append(result, ScoredDoc{
			DocID: docID,
			Score: score,
		})
	}
	Sort(result)
	return result
}

// Scores returns the unordered TF-IDF score vector of terms.
func Scores(terms []string, idx *corpus.Index) map[corpus.DocID]float64 {
	scores := make(map[corpus.DocID]float64)
	if idx == nil {
		return scores
	}
	for _, term := range terms {
		postings, ok := idx.Postings(term)
		if !ok {
			continue
		}
		idf := computeIDF(idx.TotalDocs(), idx.DocumentFrequency(term))
		for docID, posting := range postings {
			scores[docID] += float64(posting.TF) * idf
		}
	}
	return scores
}

// Sort orders docs by descending score, ties by ascending document id.
func Sort(docs []ScoredDoc) {
	sort.Slice(docs, func(i, j int) bool {
		if docs[i].Score != docs[j].Score {
			return docs[i].Score > docs[j].Score
		}
		return docs[i].DocID < docs[j].DocID
	})
}

func computeIDF(totalDocs, docFreq int) float64 {
	if totalDocs <= 0 || docFreq <= 0 {
		return 0
	}
	return math.Log(float64(totalDocs) / float64(docFreq))
}
