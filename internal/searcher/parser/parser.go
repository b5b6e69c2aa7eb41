package parser

import (
	"net/http"
	"strings"

	"github.com/krishnasharma4415/Mini-Search-Engine/internal/analyzer"
	apperrors "github.com/krishnasharma4415/Mini-Search-Engine/pkg/errors"
)

// Mode selects the secondary ranking signal.
type Mode string

const (
	ModeTFIDF    Mode = "tfidf"
	ModePageRank Mode = "pagerank"
	ModeHITS     Mode = "hits"
)

// Modes lists every ranking mode in menu order.
var Modes = []Mode{ModeTFIDF, ModePageRank, ModeHITS}

type QueryPlan struct {
	Terms    []string
	Mode     Mode
	RawQuery string
}

// Parse analyses query into terms. An empty mode means TF-IDF.
func Parse(query string, mode string) (*QueryPlan, error) {
	m, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}
	return &QueryPlan{
		Terms:    analyzer.Terms(query),
		Mode:     m,
		RawQuery: query,
	}, nil
}

// ParseMode accepts a mode name or its menu number (1, 2, 3).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "1", "tfidf", "tf-idf":
		return ModeTFIDF, nil
	case "2", "pagerank":
		return ModePageRank, nil
	case "3", "hits":
		return ModeHITS, nil
	}
	return "", apperrors.Newf(apperrors.ErrUnknownMode, http.StatusBadRequest, "unknown ranking mode %q (want tfidf, pagerank or hits)", s)
}
