package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"blugr/internal/config"
)

const userAgent = "Blugr/0.1.0"

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyProcessingStarted(ctx context.Context, contentID, sourceURL string) error
	NotifyProcessingCompleted(ctx context.Context, contentID, title string) error
	NotifyProcessingFailed(ctx context.Context, contentID string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		sendCompleted: cfg.Notifications.Completed,
		sendErrors:    cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	sendCompleted bool
	sendErrors    bool
}

func (n *ntfyService) NotifyProcessingStarted(ctx context.Context, contentID, sourceURL string) error {
	data := payload{
		title:   "Blugr - Processing Started",
		message: fmt.Sprintf("Processing %s (%s)", contentID, strings.TrimSpace(sourceURL)),
		tags:    []string{"blugr", "pipeline", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyProcessingCompleted(ctx context.Context, contentID, title string) error {
	if !n.sendCompleted {
		return nil
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = contentID
	}
	data := payload{
		title:    "Blugr - Article Ready",
		message:  fmt.Sprintf("Article ready: %s", title),
		tags:     []string{"blugr", "pipeline", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyProcessingFailed(ctx context.Context, contentID string, err error) error {
	if !n.sendErrors {
		return nil
	}
	detail := "unknown"
	if err != nil {
		detail = strings.TrimSpace(err.Error())
	}
	data := payload{
		title:    "Blugr - Processing Failed",
		message:  fmt.Sprintf("Failed %s: %s", contentID, detail),
		tags:     []string{"blugr", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Blugr - Test",
		message:  "Notification system test",
		tags:     []string{"blugr", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyProcessingStarted(context.Context, string, string) error   { return nil }
func (noopService) NotifyProcessingCompleted(context.Context, string, string) error { return nil }
func (noopService) NotifyProcessingFailed(context.Context, string, error) error     { return nil }
func (noopService) TestNotification(context.Context) error                          { return nil }
