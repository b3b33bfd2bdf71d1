package summary_test

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"blugr/internal/services"
	"blugr/internal/summary"
)

func TestDecodeValidPayload(t *testing.T) {
	raw := []byte(`{
		"title": "Widgets Explained",
		"blog_desc": "A tour of the widget economy.",
		"body": [
			{"h2": "What Widgets Are", "p": "Widgets are small."},
			{"h2": "Buying Widgets", "p": "Shop around."}
		]
	}`)
	s, err := summary.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Title != "Widgets Explained" || len(s.Sections) != 2 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.Fallback {
		t.Fatal("decoded summary should not be flagged fallback")
	}
	headings := s.Headings()
	if len(headings) != 2 || headings[1] != "Buying Widgets" {
		t.Fatalf("unexpected headings: %v", headings)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", "here is your summary!"},
		{"missing title", `{"body": [{"h2": "A", "p": "b"}]}`},
		{"no sections", `{"title": "T", "body": []}`},
		{"blank heading", `{"title": "T", "body": [{"h2": " ", "p": "b"}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := summary.Decode([]byte(tc.raw))
			if err == nil {
				t.Fatal("expected decode error")
			}
			if !errors.Is(err, services.ErrInvalidInput) {
				t.Fatalf("expected invalid input marker, got %v", err)
			}
		})
	}
}

func TestFallbackFlagsDegradation(t *testing.T) {
	s := summary.FallbackFor("some transcript text")
	if !s.Fallback {
		t.Fatal("fallback summary must be flagged")
	}
	if err := summary.Validate(s); err != nil {
		t.Fatalf("fallback summary must validate: %v", err)
	}
	if len(s.Sections) != 1 {
		t.Fatalf("fallback should carry a single section, got %d", len(s.Sections))
	}
}

func TestFallbackTruncatesExcerpt(t *testing.T) {
	long := strings.Repeat("widgets ", 200)
	s := summary.FallbackFor(long)
	if len(s.Sections[0].Body) > 650 {
		t.Fatalf("excerpt not truncated: %d bytes", len(s.Sections[0].Body))
	}
}

func TestFallbackTruncatesOnRuneBoundary(t *testing.T) {
	// The leading ASCII byte misaligns every following 2-byte rune so a
	// naive byte cut would land mid-rune.
	long := "a" + strings.Repeat("ü", 400)
	s := summary.FallbackFor(long)
	body := s.Sections[0].Body
	if !utf8.ValidString(body) {
		t.Fatalf("excerpt is not valid UTF-8: %q", body[:20])
	}
	if !strings.HasSuffix(body, "…") {
		t.Fatalf("truncated excerpt should end with ellipsis, got %q", body[len(body)-8:])
	}
}

func TestFallbackEmptyTranscript(t *testing.T) {
	s := summary.FallbackFor("   ")
	if s.Sections[0].Body == "" {
		t.Fatal("expected placeholder body")
	}
}
