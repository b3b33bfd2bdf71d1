package notifications

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"blugr/internal/config"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newTestService(t *testing.T, completed, errs bool) (Service, *[]captured) {
	t.Helper()
	var requests []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Completed = completed
	cfg.Notifications.Errors = errs
	return NewService(&cfg), &requests
}

func TestNoopWhenUnconfigured(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := NewService(&cfg)
	if err := svc.NotifyProcessingCompleted(context.Background(), "abc123", "Widgets"); err != nil {
		t.Fatalf("noop notify: %v", err)
	}
}

func TestNotifyProcessingCompleted(t *testing.T) {
	svc, requests := newTestService(t, true, true)
	if err := svc.NotifyProcessingCompleted(context.Background(), "abc123", "All About Widgets"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(*requests) != 1 {
		t.Fatalf("requests = %d", len(*requests))
	}
	got := (*requests)[0]
	if got.title != "Blugr - Article Ready" {
		t.Fatalf("title = %q", got.title)
	}
	if got.priority != "high" {
		t.Fatalf("priority = %q", got.priority)
	}
}

func TestCompletedSuppressedWhenDisabled(t *testing.T) {
	svc, requests := newTestService(t, false, true)
	if err := svc.NotifyProcessingCompleted(context.Background(), "abc123", "Widgets"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(*requests) != 0 {
		t.Fatalf("expected suppressed notification, got %d", len(*requests))
	}
}

func TestNotifyProcessingFailed(t *testing.T) {
	svc, requests := newTestService(t, true, true)
	if err := svc.NotifyProcessingFailed(context.Background(), "abc123", errors.New("download failed")); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(*requests) != 1 {
		t.Fatalf("requests = %d", len(*requests))
	}
	if (*requests)[0].title != "Blugr - Processing Failed" {
		t.Fatalf("title = %q", (*requests)[0].title)
	}
}

func TestServerErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := NewService(&cfg)
	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error from 500 response")
	}
}
