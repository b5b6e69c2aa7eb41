package corpus

import (
	"strings"

	apperrors "github.com/krishnasharma4415/Mini-Search-Engine/pkg/errors"
)

const snippetLength = 200

// Page is one crawled document. Its DocID is its position in Pages.
type Page struct {
	URL            string   `json:"url"`
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Links          []string `json:"links"`
	CrawlTimestamp string   `json:"crawl_timestamp,omitempty"`
}

// Pages is the crawled page list in document-id order.
type Pages []Page

// Validate requires every page to carry a URL, and URLs to be unique.
func (p Pages) Validate() error {
	seen := make(map[string]int, len(p))
	for i, page := range p {
		if page.URL == "" {
			return apperrors.Malformed(apperrors.ErrMalformedPages, "page %d has no url", i)
		}
		if prev, dup := seen[page.URL]; dup {
			return apperrors.Malformed(apperrors.ErrMalformedPages, "pages %d and %d share url %q", prev, i, page.URL)
		}
		seen[page.URL] = i
	}
	return nil
}

// Lookup returns the page for id, reporting false when id is outside the
// corpus bounds.
func (p Pages) Lookup(id DocID) (Page, bool) {
	if id < 0 || int(id) >= len(p) {
		return Page{}, false
	}
	return p[id], true
}

// URL returns the URL of document id.
func (p Pages) URL(id DocID) (string, bool) {
	page, ok := p.Lookup(id)
	if !ok {
		return "", false
	}
	return page.URL, true
}

// TotalLinks returns the number of outgoing links recorded across all pages.
func (p Pages) TotalLinks() int {
	total := 0
	for _, page := range p {
		total += len(page.Links)
	}
	return total
}

// Snippet returns the first 200 characters of the page content, with an
// ellipsis when truncated.
func (pg Page) Snippet() string {
	runes := []rune(strings.TrimSpace(pg.Content))
	if len(runes) <= snippetLength {
		return string(runes)
	}
	return string(runes[:snippetLength]) + "..."
}
