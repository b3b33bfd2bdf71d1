package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"blugr/internal/api"
	"blugr/internal/docstore"
	"blugr/internal/logging"
	"blugr/internal/services"
	"blugr/internal/tasks"
	"blugr/internal/testsupport"
)

type fakeProcessor struct {
	registry *tasks.Registry
	block    chan struct{}
}

func (p *fakeProcessor) Process(ctx context.Context, sourceURL, taskID string) (string, error) {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	_ = p.registry.Complete(taskID, "abc123")
	return "abc123", nil
}

type fakeContent struct {
	items map[string]*docstore.Item
}

func (f *fakeContent) Get(ctx context.Context, contentID string) (*docstore.Item, error) {
	item, ok := f.items[contentID]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "docstore", "get", "not found", nil)
	}
	return item, nil
}

type testDaemon struct {
	daemon    *Daemon
	processor *fakeProcessor
	registry  *tasks.Registry
	baseURL   string
}

func startDaemon(t *testing.T, maxConcurrent int, token string) *testDaemon {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithAPIToken(token))

	registry := tasks.NewRegistry(maxConcurrent, time.Hour)
	processor := &fakeProcessor{registry: registry}
	store := &fakeContent{items: map[string]*docstore.Item{
		"abc123": {ContentID: "abc123", SourceURL: "https://example.com/w", Status: docstore.ItemStatusCompleted},
	}}

	d, err := New(cfg, logging.NewNop(), registry, processor, store)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("start daemon: %v", err)
	}
	t.Cleanup(d.Stop)

	return &testDaemon{
		daemon:    d,
		processor: processor,
		registry:  registry,
		baseURL:   "http://" + d.api.Addr(),
	}
}

func postProcess(t *testing.T, baseURL, url string) *http.Response {
	t.Helper()
	body, _ := json.Marshal(api.ProcessRequest{URL: url})
	resp, err := http.Post(baseURL+"/api/process", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp
}

func TestProcessEndpointAcceptsTask(t *testing.T) {
	td := startDaemon(t, 4, "")

	resp := postProcess(t, td.baseURL, "https://example.com/w")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var accepted api.ProcessResponse
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if accepted.TaskID == "" {
		t.Fatal("missing task id")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		snap, err := td.registry.Status(accepted.TaskID)
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		if snap.Status == tasks.StatusCompleted {
			if snap.Result != "abc123" {
				t.Fatalf("result = %q", snap.Result)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("task never completed: %+v", snap)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestProcessEndpointAdmissionControl(t *testing.T) {
	td := startDaemon(t, 1, "")
	td.processor.block = make(chan struct{})
	defer close(td.processor.block)

	first := postProcess(t, td.baseURL, "https://example.com/a")
	first.Body.Close()
	if first.StatusCode != http.StatusAccepted {
		t.Fatalf("first status = %d", first.StatusCode)
	}

	second := postProcess(t, td.baseURL, "https://example.com/b")
	defer second.Body.Close()
	if second.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second status = %d, want 429", second.StatusCode)
	}
	var errResp api.ErrorResponse
	if err := json.NewDecoder(second.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Error == "" {
		t.Fatal("429 must carry a distinct error body")
	}
}

func TestProcessEndpointRejectsEmptyURL(t *testing.T) {
	td := startDaemon(t, 4, "")
	resp := postProcess(t, td.baseURL, "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestTaskEndpointNotFound(t *testing.T) {
	td := startDaemon(t, 4, "")
	resp, err := http.Get(td.baseURL + "/api/tasks/nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestContentEndpoint(t *testing.T) {
	td := startDaemon(t, 4, "")

	resp, err := http.Get(td.baseURL + "/api/content/abc123")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var content api.ContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&content); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if content.Item.ContentID != "abc123" {
		t.Fatalf("item = %+v", content.Item)
	}

	missing, err := http.Get(td.baseURL + "/api/content/missing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("missing status = %d", missing.StatusCode)
	}
}

func TestBearerTokenAuth(t *testing.T) {
	td := startDaemon(t, 4, "secret")

	resp, err := http.Get(td.baseURL + "/api/tasks")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, td.baseURL+"/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer secret")
	authed, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	authed.Body.Close()
	if authed.StatusCode != http.StatusOK {
		t.Fatalf("authenticated status = %d", authed.StatusCode)
	}

	health, err := http.Get(td.baseURL + "/api/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	health.Body.Close()
	if health.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", health.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	td := startDaemon(t, 3, "")
	resp, err := http.Get(td.baseURL + "/api/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var health api.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.Status != "ok" || health.TaskCeiling != 3 {
		t.Fatalf("health = %+v", health)
	}
}

func TestSecondInstanceRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	registry := tasks.NewRegistry(4, time.Hour)
	processor := &fakeProcessor{registry: registry}

	first, err := New(cfg, logging.NewNop(), registry, processor, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer first.Stop()

	second, err := New(cfg, logging.NewNop(), registry, processor, nil)
	if err != nil {
		t.Fatalf("new second: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second instance should fail to start")
	}
}
