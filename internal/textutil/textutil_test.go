package textutil

import (
	"math"
	"testing"
)

func TestTokenizeFiltersShortTokens(t *testing.T) {
	got := Tokenize("Go is a fun, fast language!")
	want := []string{"fun", "fast", "language"}
	if len(got) != len(want) {
		t.Fatalf("Tokenize = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Tokenize = %v, want %v", got, want)
		}
	}
}

func TestCosineSimilarityIdentical(t *testing.T) {
	text := "the quick brown fox jumps over the lazy dog"
	if got := CosineSimilarity(NewFingerprint(text), NewFingerprint(text)); got != 1.0 {
		t.Errorf("CosineSimilarity(identical) = %v, want 1.0", got)
	}
}

func TestCosineSimilarityDisjoint(t *testing.T) {
	a := NewFingerprint("apple banana cherry")
	b := NewFingerprint("dog elephant frog")
	if got := CosineSimilarity(a, b); got != 0 {
		t.Errorf("CosineSimilarity(disjoint) = %v, want 0", got)
	}
}

func TestCosineSimilarityNil(t *testing.T) {
	if got := CosineSimilarity(nil, NewFingerprint("hello world")); got != 0 {
		t.Errorf("CosineSimilarity(nil) = %v, want 0", got)
	}
}

func TestCosineSimilaritySymmetric(t *testing.T) {
	a := NewFingerprint("hello world program")
	b := NewFingerprint("world program test")
	if ab, ba := CosineSimilarity(a, b), CosineSimilarity(b, a); ab != ba {
		t.Errorf("CosineSimilarity not symmetric: %v vs %v", ab, ba)
	}
}

func TestRestrictToVocabulary(t *testing.T) {
	fp := NewFingerprint("widgets gadgets doodads")
	vocab := map[string]struct{}{"widgets": {}, "gadgets": {}}
	restricted := fp.Restrict(vocab)
	if restricted.TokenCount() != 2 {
		t.Fatalf("expected 2 surviving terms, got %d", restricted.TokenCount())
	}
	if fp.Restrict(map[string]struct{}{"unrelated": {}}) != nil {
		t.Fatal("expected nil when no terms survive")
	}
}

func TestCorpusIDFWeightsRareTermsHigher(t *testing.T) {
	corpus := NewCorpus()
	corpus.Add(NewFingerprint("common rare"))
	corpus.Add(NewFingerprint("common other"))
	corpus.Add(NewFingerprint("common third"))
	idf := corpus.IDF()
	if idf["rare"] <= idf["common"] {
		t.Fatalf("rare term should outweigh common: rare=%v common=%v", idf["rare"], idf["common"])
	}
	wantCommon := math.Log(4.0/4.0) + 1
	if math.Abs(idf["common"]-wantCommon) > 1e-12 {
		t.Fatalf("common idf = %v, want %v", idf["common"], wantCommon)
	}
}

func TestWithIDFDropsZeroWeights(t *testing.T) {
	fp := NewFingerprint("keep drop")
	weighted := fp.WithIDF(map[string]float64{"drop": 0})
	if weighted.TokenCount() != 1 {
		t.Fatalf("expected zero-weight term removed, got %d terms", weighted.TokenCount())
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Buying Widgets", "buying_widgets"},
		{"  What's New in Go 1.24?  ", "what_s_new_in_go_1_24"},
		{"Café Économie", "cafe_economie"},
		{"!!!", "untitled"},
		{"", "untitled"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
