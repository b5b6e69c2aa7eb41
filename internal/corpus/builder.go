package corpus

import "github.com/krishnasharma4415/Mini-Search-Engine/internal/analyzer"

// BuildIndex indexes the title and content of every page. Document ids are
// page positions.
func BuildIndex(pages Pages) *Index {
	idx := &Index{
		postings:  make(map[string]PostingMap),
		docFreq:   make(map[string]int),
		totalDocs: len(pages),
	}
	for i, page := range pages {
		id := DocID(i)
		termFreq := make(map[string]int)
		for _, tok := range analyzer.Tokenize(page.Title + " " + page.Content) {
			termFreq[tok.Term]++
		}
		for term, tf := range termFreq {
			pm, ok := idx.postings[term]
			if !ok {
				pm = make(PostingMap)
				idx.postings[term] = pm
			}
			pm[id] = Posting{
				DocID: id,
				TF:    tf,
				URL:   page.URL,
				Title: page.Title,
			}
			idx.docFreq[term]++
		}
	}
	return idx
}
