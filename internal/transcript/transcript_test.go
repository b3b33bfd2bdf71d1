package transcript_test

import (
	"errors"
	"testing"

	"blugr/internal/services"
	"blugr/internal/transcript"
)

func validSegments() []transcript.Segment {
	return []transcript.Segment{
		{ID: 0, Start: 0, End: 4.2, Text: "intro to widgets"},
		{ID: 1, Start: 5, End: 11.5, Text: "widgets are great"},
		{ID: 2, Start: 12, End: 20, Text: "buying widgets online"},
	}
}

func TestValidateAccepts(t *testing.T) {
	if err := transcript.Validate(validSegments()); err != nil {
		t.Fatalf("valid segments rejected: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name     string
		segments []transcript.Segment
	}{
		{"empty", nil},
		{"negative start", []transcript.Segment{{ID: 0, Start: -1, End: 2, Text: "x"}}},
		{"end before start", []transcript.Segment{{ID: 0, Start: 3, End: 3, Text: "x"}}},
		{"blank text", []transcript.Segment{{ID: 0, Start: 0, End: 2, Text: "  "}}},
		{"out of order", []transcript.Segment{
			{ID: 0, Start: 5, End: 8, Text: "b"},
			{ID: 1, Start: 0, End: 4, Text: "a"},
		}},
		{"overlapping", []transcript.Segment{
			{ID: 0, Start: 0, End: 6, Text: "a"},
			{ID: 1, Start: 5, End: 9, Text: "b"},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := transcript.Validate(tc.segments)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, services.ErrInvalidInput) {
				t.Fatalf("expected invalid input marker, got %v", err)
			}
		})
	}
}

func TestJoinText(t *testing.T) {
	got := transcript.JoinText(validSegments())
	want := "intro to widgets widgets are great buying widgets online"
	if got != want {
		t.Fatalf("JoinText = %q, want %q", got, want)
	}
}

func TestNewCopiesSegments(t *testing.T) {
	src := validSegments()
	tr, err := transcript.New(src)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	src[0].Text = "mutated"
	if tr.Segments[0].Text != "intro to widgets" {
		t.Fatal("transcript shares caller's slice")
	}
	if tr.Text == "" {
		t.Fatal("expected joined text")
	}
}
