package analyzer

import (
	"reflect"
	"testing"
)

func TestTerms(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"stems and drops stop words", "Machine Learning is Amazing!", []string{"machin", "learn", "amaz"}},
		{"short words dropped", "AI in Go is ok", []string{}},
		{"mixed alphanumerics dropped", "web3 python3 graphs", []string{"graph"}},
		{"duplicates kept", "network networks", []string{"network", "network"}},
		{"empty", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Terms(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Terms(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestTokenizePositions(t *testing.T) {
	tokens := Tokenize("the deep learning guide")
	if len(tokens) != 3 {
		t.Fatalf("got %d tokens, want 3: %v", len(tokens), tokens)
	}
	for i, tok := range tokens {
		if tok.Position != i {
			t.Errorf("token %q position = %d, want %d", tok.Term, tok.Position, i)
		}
	}
}

func TestIsStopWord(t *testing.T) {
	for _, w := range []string{"the", "between", "wouldn"} {
		if !IsStopWord(w) {
			t.Errorf("IsStopWord(%q) = false", w)
		}
	}
	if IsStopWord("pagerank") {
		t.Error("IsStopWord(pagerank) = true")
	}
}
