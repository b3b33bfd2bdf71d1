package transcript

import (
	"fmt"
	"strings"

	"blugr/internal/services"
)

// Segment is a time-bounded transcribed span. Segments are immutable once
// produced by transcription and are totally ordered by start time.
type Segment struct {
	ID    int     `json:"id" bson:"id"`
	Start float64 `json:"start" bson:"start"`
	End   float64 `json:"end" bson:"end"`
	Text  string  `json:"text" bson:"text"`
}

// Transcript bundles the full plain text with the ordered segment list.
type Transcript struct {
	Text     string    `json:"text" bson:"text"`
	Segments []Segment `json:"segments" bson:"segments"`
}

// Validate checks the structural invariants: non-empty segment list, each
// segment with start < end and non-blank text, segments ordered by start and
// non-overlapping.
func Validate(segments []Segment) error {
	if len(segments) == 0 {
		return services.Wrap(services.ErrInvalidInput, "transcript", "validate", "empty segment list", nil)
	}
	for i, seg := range segments {
		if seg.Start < 0 {
			return services.Wrap(services.ErrInvalidInput, "transcript", "validate", fmt.Sprintf("segment %d has negative start %.3f", seg.ID, seg.Start), nil)
		}
		if seg.End <= seg.Start {
			return services.Wrap(services.ErrInvalidInput, "transcript", "validate", fmt.Sprintf("segment %d has end %.3f <= start %.3f", seg.ID, seg.End, seg.Start), nil)
		}
		if strings.TrimSpace(seg.Text) == "" {
			return services.Wrap(services.ErrInvalidInput, "transcript", "validate", fmt.Sprintf("segment %d has empty text", seg.ID), nil)
		}
		if i > 0 {
			prev := segments[i-1]
			if seg.Start < prev.Start {
				return services.Wrap(services.ErrInvalidInput, "transcript", "validate", fmt.Sprintf("segment %d starts before segment %d", seg.ID, prev.ID), nil)
			}
			if seg.Start < prev.End {
				return services.Wrap(services.ErrInvalidInput, "transcript", "validate", fmt.Sprintf("segment %d overlaps segment %d", seg.ID, prev.ID), nil)
			}
		}
	}
	return nil
}

// JoinText concatenates trimmed segment texts into a single transcript string.
func JoinText(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// New builds a validated Transcript from segments.
func New(segments []Segment) (Transcript, error) {
	if err := Validate(segments); err != nil {
		return Transcript{}, err
	}
	cp := make([]Segment, len(segments))
	copy(cp, segments)
	return Transcript{Text: JoinText(cp), Segments: cp}, nil
}
