package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"blugr/internal/config"
	"blugr/internal/fileutil"
	"blugr/internal/services"
)

// DefaultBinary is the yt-dlp command name.
const DefaultBinary = "yt-dlp"

// HeatmapSpan is one most-replayed heatmap bucket from video metadata.
type HeatmapSpan struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Value     float64 `json:"value"`
}

// Metadata is the subset of video metadata the pipeline consumes.
type Metadata struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Duration   float64       `json:"duration"`
	WebpageURL string        `json:"webpage_url"`
	Thumbnail  string        `json:"thumbnail"`
	Heatmap    []HeatmapSpan `json:"heatmap"`
}

// MostReplayed returns the heatmap span with the highest replay value.
func (m *Metadata) MostReplayed() (HeatmapSpan, bool) {
	if m == nil || len(m.Heatmap) == 0 {
		return HeatmapSpan{}, false
	}
	best := m.Heatmap[0]
	for _, span := range m.Heatmap[1:] {
		if span.Value > best.Value {
			best = span
		}
	}
	return best, true
}

// Client wraps the yt-dlp binary for metadata resolution and downloads.
type Client struct {
	binary        string
	audioFormat   string
	videoFormat   string
	timeout       time.Duration
	httpClient    *http.Client
	commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// New creates a downloader client from configuration.
func New(cfg *config.Config) *Client {
	binary := cfg.Downloader.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	timeout := time.Duration(cfg.Downloader.TimeoutSeconds) * time.Second
	return &Client{
		binary:      binary,
		audioFormat: cfg.Downloader.AudioFormat,
		videoFormat: cfg.Downloader.VideoFormat,
		timeout:     timeout,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (c *Client) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) ([]byte, error)) {
	c.commandRunner = runner
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if c.commandRunner != nil {
		return c.commandRunner(ctx, c.binary, args...)
	}
	cmd := exec.CommandContext(ctx, c.binary, args...) //nolint:gosec
	output, err := cmd.Output()
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if exitErr, ok := err.(*exec.ExitError); ok {
			detail = strings.TrimSpace(string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("%s: %w: %s", c.binary, err, detail)
	}
	return output, nil
}

// FetchMetadata resolves a source URL to its metadata without downloading.
// The returned ID is the canonical content id for the whole pipeline.
func (c *Client) FetchMetadata(ctx context.Context, url string) (*Metadata, error) {
	if strings.TrimSpace(url) == "" {
		return nil, services.Wrap(services.ErrInvalidInput, "download", "metadata", "empty source url", nil)
	}
	output, err := c.run(ctx, "--dump-json", "--skip-download", "--no-warnings", url)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "download", "metadata",
			fmt.Sprintf("resolve metadata for %s", url), err)
	}
	var meta Metadata
	if err := json.Unmarshal(output, &meta); err != nil {
		return nil, services.Wrap(services.ErrPermanent, "download", "metadata",
			"parse video metadata", err)
	}
	if meta.ID == "" {
		return nil, services.Wrap(services.ErrPermanent, "download", "metadata",
			fmt.Sprintf("no video id for %s", url), nil)
	}
	return &meta, nil
}

// DownloadAudio fetches the best audio stream to dest.
func (c *Client) DownloadAudio(ctx context.Context, url, dest string) error {
	format := c.audioFormat
	if format == "" {
		format = "bestaudio[ext=m4a]/bestaudio/best"
	}
	return c.download(ctx, url, format, dest)
}

// DownloadVideo fetches a capped-resolution mp4 to dest. The cap keeps
// screenshot and clip extraction cheap without hurting article imagery.
func (c *Client) DownloadVideo(ctx context.Context, url, dest string) error {
	format := c.videoFormat
	if format == "" {
		format = "bestvideo[height<=720][ext=mp4]+bestaudio[ext=m4a]/best[ext=mp4]/best"
	}
	return c.download(ctx, url, format, dest)
}

func (c *Client) download(ctx context.Context, url, format, dest string) error {
	_, err := c.run(ctx,
		"--no-warnings",
		"--no-progress",
		"-f", format,
		"-o", dest,
		url,
	)
	if err != nil {
		return services.Wrap(services.ErrTransient, "download", "fetch",
			fmt.Sprintf("download %s", url), err)
	}
	return nil
}

// SaveThumbnail fetches the thumbnail image URL to a local file.
func (c *Client) SaveThumbnail(ctx context.Context, thumbnailURL, dest string) error {
	if thumbnailURL == "" {
		return services.Wrap(services.ErrNotFound, "download", "thumbnail", "no thumbnail in metadata", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, thumbnailURL, nil)
	if err != nil {
		return services.Wrap(services.ErrPermanent, "download", "thumbnail", "build thumbnail request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "download", "thumbnail", "fetch thumbnail", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrTransient, "download", "thumbnail",
			fmt.Sprintf("thumbnail fetch returned %d", resp.StatusCode), nil)
	}

	if err := fileutil.SaveAtomic(dest, resp.Body, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "download", "thumbnail", "write thumbnail", err)
	}
	return nil
}
