package ffmpeg

import (
	"context"
	"errors"
	"testing"

	"blugr/internal/config"
	"blugr/internal/services"
)

func testClient() (*Client, *[][]string) {
	cfg := config.Default()
	client := New(&cfg)
	var calls [][]string
	client.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		calls = append(calls, args)
		return nil
	})
	return client, &calls
}

func argsContain(args []string, flag, value string) bool {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

func TestScreenshotArgs(t *testing.T) {
	client, calls := testClient()
	if err := client.Screenshot(context.Background(), "/lib/abc/video.mp4", 12.5, "/lib/abc/media/x.jpg"); err != nil {
		t.Fatalf("screenshot: %v", err)
	}
	args := (*calls)[0]
	if !argsContain(args, "-ss", "12.500") {
		t.Fatalf("missing seek in %v", args)
	}
	if !argsContain(args, "-vframes", "1") {
		t.Fatalf("missing single frame flag in %v", args)
	}
}

func TestScreenshotRejectsNegativeTimestamp(t *testing.T) {
	client, _ := testClient()
	err := client.Screenshot(context.Background(), "/v.mp4", -1, "/x.jpg")
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestClipArgs(t *testing.T) {
	client, calls := testClient()
	if err := client.Clip(context.Background(), "/v.mp4", 30, 8, "/c.mp4"); err != nil {
		t.Fatalf("clip: %v", err)
	}
	args := (*calls)[0]
	if !argsContain(args, "-ss", "30.000") || !argsContain(args, "-t", "8.000") {
		t.Fatalf("time range missing in %v", args)
	}
}

func TestGIFArgs(t *testing.T) {
	client, calls := testClient()
	if err := client.GIF(context.Background(), "/v.mp4", 30, 5, 640, "/g.gif"); err != nil {
		t.Fatalf("gif: %v", err)
	}
	args := (*calls)[0]
	if !argsContain(args, "-vf", "fps=10,scale=640:-1:flags=lanczos") {
		t.Fatalf("filter missing in %v", args)
	}
	if !argsContain(args, "-c:v", "gif") {
		t.Fatalf("codec missing in %v", args)
	}
}

func TestGIFRejectsZeroDuration(t *testing.T) {
	client, _ := testClient()
	err := client.GIF(context.Background(), "/v.mp4", 30, 0, 640, "/g.gif")
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestCommandFailureIsTransient(t *testing.T) {
	cfg := config.Default()
	client := New(&cfg)
	client.WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return errors.New("moov atom not found")
	})
	err := client.Screenshot(context.Background(), "/v.mp4", 1, "/x.jpg")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient, got %v", err)
	}
}
