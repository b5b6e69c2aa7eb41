package corpus

import "strconv"

// DocID identifies a document by its position in the crawled page list.
type DocID int

func (id DocID) String() string {
	return strconv.Itoa(int(id))
}

// Posting records one term's occurrence count in one document.
type Posting struct {
	DocID DocID  `json:"-"`
	TF    int    `json:"tf"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

// PostingMap holds the postings of a single term keyed by document.
type PostingMap map[DocID]Posting

// TermEntry pairs a term with its postings, used for ordered iteration.
type TermEntry struct {
	Term     string
	Postings PostingMap
}
