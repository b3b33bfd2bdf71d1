package summary

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"blugr/internal/services"
)

// Section is one heading/body pair of a generated summary.
type Section struct {
	Heading string `json:"h2" bson:"heading"`
	Body    string `json:"p" bson:"body"`
}

// Summary is the structured output of the text-generation collaborator.
// Fallback is true when the collaborator returned structurally unusable
// output and a minimal substitute section was used instead; the flag is
// persisted so degraded records are visible downstream.
type Summary struct {
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"blog_desc" bson:"description"`
	Sections    []Section `json:"body" bson:"sections"`
	Fallback    bool      `json:"fallback,omitempty" bson:"fallback,omitempty"`
}

// Validate checks the structural invariants of a summary: a non-blank title
// and at least one section with a non-blank heading.
func Validate(s Summary) error {
	if strings.TrimSpace(s.Title) == "" {
		return services.Wrap(services.ErrInvalidInput, "summary", "validate", "empty title", nil)
	}
	if len(s.Sections) == 0 {
		return services.Wrap(services.ErrInvalidInput, "summary", "validate", "no sections", nil)
	}
	for i, section := range s.Sections {
		if strings.TrimSpace(section.Heading) == "" {
			return services.Wrap(services.ErrInvalidInput, "summary", "validate", fmt.Sprintf("section %d has empty heading", i), nil)
		}
	}
	return nil
}

// Decode parses raw collaborator output into a validated Summary. The payload
// is rejected at this boundary rather than patched mid-flight.
func Decode(raw []byte) (Summary, error) {
	var s Summary
	if err := json.Unmarshal(raw, &s); err != nil {
		return Summary{}, services.Wrap(services.ErrInvalidInput, "summary", "decode", "malformed payload", err)
	}
	if err := Validate(s); err != nil {
		return Summary{}, err
	}
	return s, nil
}

// Headings returns the ordered section headings.
func (s Summary) Headings() []string {
	headings := make([]string, 0, len(s.Sections))
	for _, section := range s.Sections {
		headings = append(headings, section.Heading)
	}
	return headings
}

// FallbackFor builds the minimal degraded summary substituted when the
// collaborator output stays unusable after a retry. The transcript excerpt
// keeps the record reviewable by hand.
func FallbackFor(transcriptText string) Summary {
	excerpt := strings.TrimSpace(transcriptText)
	if len(excerpt) > 600 {
		cut := 600
		// Back up to a rune boundary so the excerpt stays valid UTF-8.
		for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
			cut--
		}
		excerpt = excerpt[:cut] + "…"
	}
	if excerpt == "" {
		excerpt = "No transcript text available."
	}
	return Summary{
		Title:       "Untitled summary",
		Description: "Automatic summary generation failed; transcript excerpt retained for manual review.",
		Sections: []Section{{
			Heading: "Overview",
			Body:    excerpt,
		}},
		Fallback: true,
	}
}
