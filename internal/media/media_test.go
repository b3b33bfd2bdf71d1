package media

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"blugr/internal/align"
	"blugr/internal/artifacts"
	"blugr/internal/config"
	"blugr/internal/services/ytdlp"
)

type fakeExtractor struct {
	screenshots []string
	gifs        []string
	failMatch   string
}

func (f *fakeExtractor) Screenshot(ctx context.Context, videoPath string, ts float64, dest string) error {
	if f.failMatch != "" && strings.Contains(dest, f.failMatch) {
		return errors.New("frame decode failed")
	}
	f.screenshots = append(f.screenshots, dest)
	return os.WriteFile(dest, []byte("jpg"), 0o644)
}

func (f *fakeExtractor) GIF(ctx context.Context, videoPath string, start, dur float64, width int, dest string) error {
	f.gifs = append(f.gifs, dest)
	return os.WriteFile(dest, []byte("gif"), 0o644)
}

func testCoordinator(t *testing.T, extractor Extractor) (*Coordinator, artifacts.Layout) {
	t.Helper()
	cfg := config.Default()
	cfg.Media.ClipSeconds = 8
	cfg.Media.GIFEnabled = true
	cfg.Media.GIFWidth = 640
	layout := artifacts.NewLayout(t.TempDir())
	if err := layout.EnsureDirs(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	return NewCoordinator(&cfg, extractor, nil, nil), layout
}

func headingResults() []align.HeadingMatches {
	return []align.HeadingMatches{
		{
			Heading: "Buying Widgets",
			Matches: []align.Match{
				{Heading: "Buying Widgets", SegmentID: 2, Start: 12, End: 20, Score: 0.8},
				{Heading: "Buying Widgets", SegmentID: 0, Start: 0, End: 4.2, Score: 0.3},
			},
		},
		{
			Heading: "Widget Care",
			Matches: []align.Match{
				{Heading: "Widget Care", SegmentID: 1, Start: 5, End: 11.5, Score: 0.6},
			},
		},
	}
}

func TestSlugForDeterministic(t *testing.T) {
	if got := SlugFor("Buying Widgets", 0); got != "buying_widgets_0" {
		t.Fatalf("slug = %q", got)
	}
	if got := SlugFor("Buying Widgets", 0); got != "buying_widgets_0" {
		t.Fatalf("slug not stable: %q", got)
	}
}

func TestExtractForHeadingsSetsMediaURL(t *testing.T) {
	extractor := &fakeExtractor{}
	coord, layout := testCoordinator(t, extractor)

	results := headingResults()
	failed := coord.ExtractForHeadings(context.Background(), "abc123", layout, results)
	if failed != 0 {
		t.Fatalf("failed = %d", failed)
	}
	if results[0].Matches[0].MediaURL == "" {
		t.Fatal("rank-1 match missing media url")
	}
	if results[0].Matches[1].MediaURL != "" {
		t.Fatal("rank-2 match should not get media")
	}
	if len(extractor.screenshots) != 2 {
		t.Fatalf("screenshots = %d", len(extractor.screenshots))
	}
}

func TestExtractForHeadingsFailureIsIsolated(t *testing.T) {
	extractor := &fakeExtractor{failMatch: "buying_widgets"}
	coord, layout := testCoordinator(t, extractor)

	results := headingResults()
	failed := coord.ExtractForHeadings(context.Background(), "abc123", layout, results)
	if failed != 1 {
		t.Fatalf("failed = %d", failed)
	}
	if results[0].Matches[0].MediaError == "" {
		t.Fatal("failed heading missing media error")
	}
	if results[0].Matches[0].MediaURL != "" {
		t.Fatal("failed heading should not have url")
	}
	if results[1].Matches[0].MediaURL == "" {
		t.Fatal("second heading should still get media")
	}
}

func TestExtractForHeadingsSkipsExistingAsset(t *testing.T) {
	extractor := &fakeExtractor{}
	coord, layout := testCoordinator(t, extractor)

	dest := layout.MediaPath("buying_widgets_0.jpg")
	if err := os.WriteFile(dest, []byte("already there"), 0o644); err != nil {
		t.Fatalf("seed asset: %v", err)
	}

	results := headingResults()[:1]
	if failed := coord.ExtractForHeadings(context.Background(), "abc123", layout, results); failed != 0 {
		t.Fatalf("failed = %d", failed)
	}
	if len(extractor.screenshots) != 0 {
		t.Fatalf("existing asset should not be re-extracted, got %v", extractor.screenshots)
	}
	if results[0].Matches[0].MediaURL != dest {
		t.Fatalf("media url = %q", results[0].Matches[0].MediaURL)
	}
}

func TestExtractForHeadingsSkipsEmptyMatches(t *testing.T) {
	extractor := &fakeExtractor{}
	coord, layout := testCoordinator(t, extractor)

	results := []align.HeadingMatches{{Heading: "Unmatched"}}
	if failed := coord.ExtractForHeadings(context.Background(), "abc123", layout, results); failed != 0 {
		t.Fatalf("failed = %d", failed)
	}
	if len(extractor.screenshots) != 0 {
		t.Fatal("no extraction expected")
	}
}

func TestMostReplayedGIF(t *testing.T) {
	extractor := &fakeExtractor{}
	coord, layout := testCoordinator(t, extractor)

	meta := &ytdlp.Metadata{
		ID: "abc123",
		Heatmap: []ytdlp.HeatmapSpan{
			{StartTime: 0, EndTime: 10, Value: 0.1},
			{StartTime: 40, EndTime: 45, Value: 0.9},
		},
	}
	url, err := coord.MostReplayedGIF(context.Background(), "abc123", layout, meta)
	if err != nil {
		t.Fatalf("gif: %v", err)
	}
	if url == "" {
		t.Fatal("expected gif url")
	}
	if len(extractor.gifs) != 1 {
		t.Fatalf("gifs = %d", len(extractor.gifs))
	}
}

func TestMostReplayedGIFNoHeatmap(t *testing.T) {
	extractor := &fakeExtractor{}
	coord, layout := testCoordinator(t, extractor)

	url, err := coord.MostReplayedGIF(context.Background(), "abc123", layout, &ytdlp.Metadata{ID: "abc123"})
	if err != nil {
		t.Fatalf("gif: %v", err)
	}
	if url != "" {
		t.Fatalf("url = %q", url)
	}
	if len(extractor.gifs) != 0 {
		t.Fatal("no gif expected")
	}
}
