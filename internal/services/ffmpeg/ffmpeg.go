package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"blugr/internal/config"
	"blugr/internal/services"
)

// DefaultBinary is the ffmpeg command name.
const DefaultBinary = "ffmpeg"

// Client wraps the ffmpeg binary for frame and clip extraction.
type Client struct {
	binary        string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// New creates an extraction client from configuration.
func New(cfg *config.Config) *Client {
	binary := cfg.Media.FFmpegBinary
	if binary == "" {
		binary = DefaultBinary
	}
	return &Client{binary: binary}
}

// WithCommandRunner sets a custom command runner (for testing).
func (c *Client) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	c.commandRunner = runner
}

func (c *Client) run(ctx context.Context, args ...string) error {
	if c.commandRunner != nil {
		return c.commandRunner(ctx, c.binary, args...)
	}
	cmd := exec.CommandContext(ctx, c.binary, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", c.binary, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// Screenshot captures a single frame at the given timestamp.
func (c *Client) Screenshot(ctx context.Context, videoPath string, timestampSec float64, dest string) error {
	if timestampSec < 0 {
		return services.Wrap(services.ErrInvalidInput, "media", "screenshot",
			fmt.Sprintf("negative timestamp %.3f", timestampSec), nil)
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(timestampSec),
		"-i", videoPath,
		"-vframes", "1",
		dest,
	}
	if err := c.run(ctx, args...); err != nil {
		return services.Wrap(services.ErrTransient, "media", "screenshot",
			fmt.Sprintf("capture frame at %.3fs", timestampSec), err)
	}
	return nil
}

// Clip extracts a short mp4 segment starting at startSec.
func (c *Client) Clip(ctx context.Context, videoPath string, startSec, durationSec float64, dest string) error {
	if durationSec <= 0 {
		return services.Wrap(services.ErrInvalidInput, "media", "clip",
			fmt.Sprintf("invalid duration %.3f", durationSec), nil)
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(startSec),
		"-t", formatSeconds(durationSec),
		"-i", videoPath,
		"-an",
		dest,
	}
	if err := c.run(ctx, args...); err != nil {
		return services.Wrap(services.ErrTransient, "media", "clip",
			fmt.Sprintf("extract clip at %.3fs", startSec), err)
	}
	return nil
}

// GIF renders an animated GIF of the span, scaled to the given width.
func (c *Client) GIF(ctx context.Context, videoPath string, startSec, durationSec float64, width int, dest string) error {
	if durationSec <= 0 {
		return services.Wrap(services.ErrInvalidInput, "media", "gif",
			fmt.Sprintf("invalid duration %.3f", durationSec), nil)
	}
	if width <= 0 {
		width = 640
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", formatSeconds(startSec),
		"-t", formatSeconds(durationSec),
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=10,scale=%d:-1:flags=lanczos", width),
		"-c:v", "gif",
		dest,
	}
	if err := c.run(ctx, args...); err != nil {
		return services.Wrap(services.ErrTransient, "media", "gif",
			fmt.Sprintf("render gif at %.3fs", startSec), err)
	}
	return nil
}

func formatSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
