package media

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"blugr/internal/align"
	"blugr/internal/artifacts"
	"blugr/internal/config"
	"blugr/internal/logging"
	"blugr/internal/services/ytdlp"
	"blugr/internal/storage"
	"blugr/internal/textutil"
)

// MostReplayedFile is the filename of the heatmap-driven GIF.
const MostReplayedFile = "most_replayed.gif"

// Extractor captures frames and spans from a local video file.
type Extractor interface {
	Screenshot(ctx context.Context, videoPath string, timestampSec float64, dest string) error
	GIF(ctx context.Context, videoPath string, startSec, durationSec float64, width int, dest string) error
}

// Coordinator produces media assets for aligned headings. Extraction is
// idempotent on slug: a slug whose local file already exists is not
// re-extracted, and a failure for one heading never blocks the others.
type Coordinator struct {
	extractor   Extractor
	uploader    storage.Uploader
	clipSeconds float64
	gifEnabled  bool
	gifWidth    int
	logger      *slog.Logger
}

// NewCoordinator builds a coordinator. A nil uploader keeps assets local
// and records their filesystem paths as media URLs.
func NewCoordinator(cfg *config.Config, extractor Extractor, uploader storage.Uploader, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Coordinator{
		extractor:   extractor,
		uploader:    uploader,
		clipSeconds: float64(cfg.Media.ClipSeconds),
		gifEnabled:  cfg.Media.GIFEnabled,
		gifWidth:    cfg.Media.GIFWidth,
		logger:      logging.NewComponentLogger(logger, "media"),
	}
}

// SlugFor derives the deterministic asset slug for a heading at its position
// in the summary.
func SlugFor(heading string, index int) string {
	return textutil.Slugify(heading) + "_" + strconv.Itoa(index)
}

// ExtractForHeadings captures a screenshot for the top-ranked match of each
// heading and records the asset URL or error on that match in place. It
// returns the number of headings whose extraction failed; the caller decides
// whether partial coverage is acceptable.
func (c *Coordinator) ExtractForHeadings(ctx context.Context, contentID string, layout artifacts.Layout, results []align.HeadingMatches) int {
	failed := 0
	for i := range results {
		entry := &results[i]
		if len(entry.Matches) == 0 {
			c.logger.Info("no matches for heading, skipping media",
				slog.String(logging.FieldContentID, contentID),
				slog.String(logging.FieldHeading, entry.Heading))
			continue
		}
		if err := ctx.Err(); err != nil {
			return failed + len(results) - i
		}

		top := &entry.Matches[0]
		slug := SlugFor(entry.Heading, i)
		url, err := c.extractOne(ctx, contentID, layout, slug, top.Start)
		if err != nil {
			failed++
			top.MediaError = err.Error()
			c.logger.Warn("media extraction failed",
				slog.String(logging.FieldContentID, contentID),
				slog.String(logging.FieldHeading, entry.Heading),
				slog.String(logging.FieldSlug, slug),
				logging.Error(err))
			continue
		}
		top.MediaURL = url
		top.MediaError = ""
	}
	return failed
}

func (c *Coordinator) extractOne(ctx context.Context, contentID string, layout artifacts.Layout, slug string, timestampSec float64) (string, error) {
	filename := slug + ".jpg"
	dest := layout.MediaPath(filename)

	if c.uploader != nil {
		key := c.uploader.Key("media", contentID, filename)
		exists, err := c.uploader.Exists(ctx, key)
		if err == nil && exists {
			return c.uploader.URL(key), nil
		}
	}

	if !artifacts.Exists(dest) {
		if err := c.extractor.Screenshot(ctx, layout.VideoPath(), timestampSec, dest); err != nil {
			return "", err
		}
	}

	if c.uploader == nil {
		return dest, nil
	}
	key := c.uploader.Key("media", contentID, filename)
	return c.uploader.Upload(ctx, dest, key)
}

// MostReplayedGIF renders an animated GIF over the video's most replayed
// span and returns its URL. Returns empty without error when GIF output is
// disabled or the span is absent.
func (c *Coordinator) MostReplayedGIF(ctx context.Context, contentID string, layout artifacts.Layout, meta *ytdlp.Metadata) (string, error) {
	if !c.gifEnabled {
		return "", nil
	}
	span, ok := meta.MostReplayed()
	if !ok {
		return "", nil
	}

	duration := span.EndTime - span.StartTime
	if duration <= 0 || duration > c.clipSeconds {
		duration = c.clipSeconds
	}

	dest := layout.MediaPath(MostReplayedFile)
	if !artifacts.Exists(dest) {
		if err := c.extractor.GIF(ctx, layout.VideoPath(), span.StartTime, duration, c.gifWidth, dest); err != nil {
			return "", fmt.Errorf("most replayed gif: %w", err)
		}
	}

	if c.uploader == nil {
		return dest, nil
	}
	key := c.uploader.Key("media", contentID, MostReplayedFile)
	return c.uploader.Upload(ctx, dest, key)
}
