// Package analyzer turns raw text into normalised index terms. It
// lower-cases input, keeps purely alphabetic words, drops stop-words and
// words of two letters or fewer, and applies the Snowball English stemmer.
// Queries only match an index whose terms were produced by this package.
package analyzer

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball"
)

const minTermLength = 3

// Token represents a single normalised term and its position in the
// original text.
type Token struct {
	Term     string
	Position int
}

// Tokenize breaks text into stemmed, lower-cased Tokens with stop-words
// removed.
func Tokenize(text string) []Token {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	tokens := make([]Token, 0, len(words)/2)
	pos := 0
	for _, word := range words {
		if len(word) < minTermLength || !isASCIIAlpha(word) {
			continue
		}
		if IsStopWord(word) {
			continue
		}
		stemmed := Stem(word)
		if stemmed == "" {
			continue
		}
		tokens = append(tokens, Token{
			Term:     stemmed,
			Position: pos,
		})
		pos++
	}
	return tokens
}

// Terms returns the normalised terms of text in order, duplicates kept.
func Terms(text string) []string {
	tokens := Tokenize(text)
	terms := make([]string, len(tokens))
	for i, tok := range tokens {
		terms[i] = tok.Term
	}
	return terms
}

// Stem applies the Snowball English stemmer to a lower-cased word. It falls
// back to the word itself if the stemmer rejects it.
func Stem(word string) string {
	stemmed, err := snowball.Stem(word, "english", true)
	if err != nil {
		return word
	}
	return stemmed
}

func isASCIIAlpha(word string) bool {
	for i := 0; i < len(word); i++ {
		c := word[i]
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}
