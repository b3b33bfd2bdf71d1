package align

import (
	"sort"
	"strings"

	"blugr/internal/services"
	"blugr/internal/textutil"
	"blugr/internal/transcript"
)

// DefaultTopK is the number of ranked matches returned per heading query.
const DefaultTopK = 5

// Match associates a heading with one transcript segment and its similarity
// score. MediaURL and MediaError are filled in later by media extraction:
// only the rank-1 match of a heading drives extraction, the remaining ranks
// are persisted for the record.
type Match struct {
	Heading    string  `json:"heading" bson:"heading"`
	SegmentID  int     `json:"segment_id" bson:"segment_id"`
	Start      float64 `json:"start" bson:"start"`
	End        float64 `json:"end" bson:"end"`
	Text       string  `json:"text" bson:"text"`
	Score      float64 `json:"score" bson:"score"`
	MediaURL   string  `json:"media_url,omitempty" bson:"media_url,omitempty"`
	MediaError string  `json:"media_error,omitempty" bson:"media_error,omitempty"`
}

// HeadingMatches groups the ranked matches for one summary heading, in the
// order Query returned them.
type HeadingMatches struct {
	Heading string  `json:"heading" bson:"heading"`
	Matches []Match `json:"matches" bson:"matches"`
}

// Space is a term-weighted vector space built from a transcript segment
// corpus. It is immutable once built; queries are safe for concurrent use.
type Space struct {
	segments []transcript.Segment
	vectors  []*textutil.Fingerprint
	vocab    map[string]struct{}
	idf      map[string]float64
}

// Build constructs the vector space from segment texts only. The vocabulary
// is derived strictly from the corpus so later queries cannot skew weights
// with out-of-corpus heading terms.
func Build(segments []transcript.Segment) (*Space, error) {
	if len(segments) == 0 {
		return nil, services.Wrap(services.ErrInvalidInput, "align", "build", "empty segment corpus", nil)
	}

	raw := make([]*textutil.Fingerprint, len(segments))
	corpus := textutil.NewCorpus()
	for i, seg := range segments {
		fp := textutil.NewFingerprintFromTokens(tokenizeFiltered(seg.Text))
		raw[i] = fp
		corpus.Add(fp)
	}

	idf := corpus.IDF()
	vectors := make([]*textutil.Fingerprint, len(raw))
	for i, fp := range raw {
		vectors[i] = fp.WithIDF(idf)
	}

	cp := make([]transcript.Segment, len(segments))
	copy(cp, segments)
	return &Space{
		segments: cp,
		vectors:  vectors,
		vocab:    corpus.Vocabulary(),
		idf:      idf,
	}, nil
}

// Query scores every segment against the heading and returns the top-k
// matches with score > 0, sorted by descending score. Equal scores resolve
// in ascending start-time order so results are reproducible. An empty result
// is a normal outcome: the heading simply shares no vocabulary with the
// corpus and callers must handle the section having no grounded media.
func (s *Space) Query(heading string, k int) ([]Match, error) {
	if strings.TrimSpace(heading) == "" {
		return nil, services.Wrap(services.ErrInvalidInput, "align", "query", "empty heading", nil)
	}
	if k <= 0 {
		k = DefaultTopK
	}

	query := textutil.NewFingerprintFromTokens(tokenizeFiltered(heading))
	query = query.Restrict(s.vocab)
	if query == nil {
		return nil, nil
	}
	query = query.WithIDF(s.idf)

	matches := make([]Match, 0, len(s.segments))
	for i, vector := range s.vectors {
		score := textutil.CosineSimilarity(vector, query)
		if score <= 0 {
			continue
		}
		seg := s.segments[i]
		matches = append(matches, Match{
			Heading:   heading,
			SegmentID: seg.ID,
			Start:     seg.Start,
			End:       seg.End,
			Text:      seg.Text,
			Score:     score,
		})
	}

	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].Score != matches[b].Score {
			return matches[a].Score > matches[b].Score
		}
		return matches[a].Start < matches[b].Start
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

// SegmentCount returns the number of segments in the space.
func (s *Space) SegmentCount() int {
	return len(s.segments)
}

func tokenizeFiltered(text string) []string {
	tokens := textutil.Tokenize(text)
	kept := tokens[:0]
	for _, token := range tokens {
		if isStopword(token) {
			continue
		}
		kept = append(kept, token)
	}
	return kept
}
