package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"blugr/internal/align"
	"blugr/internal/artifacts"
	"blugr/internal/config"
	"blugr/internal/docstore"
	"blugr/internal/services"
	"blugr/internal/services/ytdlp"
	"blugr/internal/tasks"
	"blugr/internal/testsupport"
	"blugr/internal/transcript"
)

type fakeDownloader struct {
	meta          *ytdlp.Metadata
	metadataCalls int
	audioCalls    int
	videoCalls    int
	audioErrs     []error
}

func (f *fakeDownloader) FetchMetadata(ctx context.Context, url string) (*ytdlp.Metadata, error) {
	f.metadataCalls++
	return f.meta, nil
}

func (f *fakeDownloader) DownloadAudio(ctx context.Context, url, dest string) error {
	f.audioCalls++
	if len(f.audioErrs) > 0 {
		err := f.audioErrs[0]
		f.audioErrs = f.audioErrs[1:]
		if err != nil {
			return err
		}
	}
	return os.WriteFile(dest, []byte("audio"), 0o644)
}

func (f *fakeDownloader) DownloadVideo(ctx context.Context, url, dest string) error {
	f.videoCalls++
	return os.WriteFile(dest, []byte("video"), 0o644)
}

func (f *fakeDownloader) SaveThumbnail(ctx context.Context, thumbnailURL, dest string) error {
	return os.WriteFile(dest, []byte("thumb"), 0o644)
}

type fakeTranscriber struct {
	calls int
}

func (f *fakeTranscriber) PrepareAudio(ctx context.Context, source, dest string) error {
	return os.WriteFile(dest, []byte("wav"), 0o644)
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, source, outputDir string) (transcript.Transcript, error) {
	f.calls++
	return transcript.New([]transcript.Segment{
		{ID: 0, Start: 0, End: 4.2, Text: "intro to widgets"},
		{ID: 1, Start: 5, End: 11.5, Text: "widget care and cleaning"},
		{ID: 2, Start: 12, End: 20, Text: "buying widgets online"},
	})
}

type fakeSummarizer struct {
	responses [][]byte
	calls     int
}

func (f *fakeSummarizer) GenerateSummary(ctx context.Context, text string) ([]byte, error) {
	f.calls++
	if len(f.responses) == 0 {
		return []byte(`{"title":"All About Widgets","blog_desc":"A widget guide.","body":[{"h2":"Buying Widgets","p":"How to buy."},{"h2":"Widget Care","p":"How to clean."}]}`), nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

type fakeMedia struct {
	extractCalls int
}

func (f *fakeMedia) ExtractForHeadings(ctx context.Context, contentID string, layout artifacts.Layout, results []align.HeadingMatches) int {
	f.extractCalls++
	for i := range results {
		if len(results[i].Matches) > 0 {
			results[i].Matches[0].MediaURL = fmt.Sprintf("/media/%s_%d.jpg", contentID, i)
		}
	}
	return 0
}

func (f *fakeMedia) MostReplayedGIF(ctx context.Context, contentID string, layout artifacts.Layout, meta *ytdlp.Metadata) (string, error) {
	return "", nil
}

type fakeStore struct {
	items    map[string]*docstore.Item
	statuses []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: map[string]*docstore.Item{}}
}

func (f *fakeStore) Get(ctx context.Context, contentID string) (*docstore.Item, error) {
	item, ok := f.items[contentID]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "docstore", "get", "not found", nil)
	}
	return item, nil
}

func (f *fakeStore) Upsert(ctx context.Context, item *docstore.Item) error {
	f.items[item.ContentID] = item
	return nil
}

func (f *fakeStore) EnsureItem(ctx context.Context, contentID, sourceURL string) (*docstore.Item, bool, error) {
	if item, ok := f.items[contentID]; ok {
		return item, false, nil
	}
	item := &docstore.Item{ContentID: contentID, SourceURL: sourceURL, Status: docstore.ItemStatusProcessing}
	f.items[contentID] = item
	return item, true, nil
}

func (f *fakeStore) SetStatus(ctx context.Context, contentID, status, errorMessage string) error {
	item, ok := f.items[contentID]
	if !ok {
		return services.Wrap(services.ErrNotFound, "docstore", "status", "not found", nil)
	}
	item.Status = status
	item.ErrorMessage = errorMessage
	f.statuses = append(f.statuses, status)
	return nil
}

type fakeClaims struct {
	held map[string]bool
	deny bool
}

func (f *fakeClaims) Acquire(ctx context.Context, contentID string) error {
	if f.deny {
		return services.Wrap(services.ErrResourceExhausted, "claims", "acquire", "already claimed", nil)
	}
	if f.held == nil {
		f.held = map[string]bool{}
	}
	f.held[contentID] = true
	return nil
}

func (f *fakeClaims) Release(ctx context.Context, contentID string) error {
	delete(f.held, contentID)
	return nil
}

type harness struct {
	orch        *Orchestrator
	cfg         *config.Config
	downloader  *fakeDownloader
	transcriber *fakeTranscriber
	summarizer  *fakeSummarizer
	extractor   *fakeMedia
	store       *fakeStore
	claims      *fakeClaims
	registry    *tasks.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithRetry(2, 0))

	h := &harness{
		cfg: cfg,
		downloader: &fakeDownloader{meta: &ytdlp.Metadata{
			ID:         "abc123",
			Title:      "Widgets",
			WebpageURL: "https://example.com/w",
			Thumbnail:  "https://img.example.com/t.jpg",
		}},
		transcriber: &fakeTranscriber{},
		summarizer:  &fakeSummarizer{},
		extractor:   &fakeMedia{},
		store:       newFakeStore(),
		claims:      &fakeClaims{},
		registry:    tasks.NewRegistry(4, time.Hour),
	}
	h.orch = New(cfg, Deps{
		Downloader:  h.downloader,
		Transcriber: h.transcriber,
		Summarizer:  h.summarizer,
		Extractor:   h.extractor,
		Store:       h.store,
		Claims:      h.claims,
		Registry:    h.registry,
	})
	return h
}

func TestProcessHappyPath(t *testing.T) {
	h := newHarness(t)
	if err := h.registry.Create("task-1", "https://example.com/w"); err != nil {
		t.Fatalf("create task: %v", err)
	}

	contentID, err := h.orch.Process(context.Background(), "https://example.com/w", "task-1")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if contentID != "abc123" {
		t.Fatalf("content id = %q", contentID)
	}

	item := h.store.items["abc123"]
	if item == nil || item.Status != StatusCompleted {
		t.Fatalf("item = %+v", item)
	}
	if item.Summary == nil || item.Summary.Title != "All About Widgets" {
		t.Fatalf("summary = %+v", item.Summary)
	}
	if len(item.SearchResults) != 2 {
		t.Fatalf("search results = %d", len(item.SearchResults))
	}
	if len(item.MediaURLs) == 0 {
		t.Fatal("expected media urls")
	}

	layout := artifacts.NewLayout(h.cfg.ContentDir("abc123"))
	for _, path := range []string{
		layout.AudioPath(), layout.VideoPath(),
		layout.TranscriptJSONPath(), layout.TranscriptTextPath(),
		layout.SummaryPath(), layout.SearchResultsPath(),
	} {
		if !artifacts.Exists(path) {
			t.Fatalf("missing artifact %s", path)
		}
	}

	snap, err := h.registry.Status("task-1")
	if err != nil {
		t.Fatalf("task status: %v", err)
	}
	if snap.Status != tasks.StatusCompleted || snap.Result != "abc123" {
		t.Fatalf("task = %+v", snap)
	}

	if len(h.claims.held) != 0 {
		t.Fatalf("claim not released: %v", h.claims.held)
	}
}

func TestProcessShortCircuitsCompletedContent(t *testing.T) {
	h := newHarness(t)
	h.store.items["abc123"] = &docstore.Item{ContentID: "abc123", Status: docstore.ItemStatusCompleted}

	contentID, err := h.orch.Process(context.Background(), "https://example.com/w", "")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if contentID != "abc123" {
		t.Fatalf("content id = %q", contentID)
	}
	if h.downloader.audioCalls != 0 || h.downloader.videoCalls != 0 {
		t.Fatal("download should not run for completed content")
	}
	if h.transcriber.calls != 0 || h.summarizer.calls != 0 || h.extractor.extractCalls != 0 {
		t.Fatal("no stage should run for completed content")
	}
}

func TestProcessResumesFromArtifacts(t *testing.T) {
	h := newHarness(t)

	// A prior interrupted run left download and transcription artifacts.
	layout := artifacts.NewLayout(h.cfg.ContentDir("abc123"))
	if err := layout.EnsureDirs(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	testsupport.SeedFile(t, layout.AudioPath(), "audio")
	testsupport.SeedFile(t, layout.VideoPath(), "video")
	tr, err := transcript.New([]transcript.Segment{
		{ID: 0, Start: 0, End: 4.2, Text: "intro to widgets"},
		{ID: 1, Start: 5, End: 11.5, Text: "buying widgets online"},
	})
	if err != nil {
		t.Fatalf("build transcript: %v", err)
	}
	if err := layout.SaveTranscript(&tr); err != nil {
		t.Fatalf("seed transcript: %v", err)
	}

	if _, err := h.orch.Process(context.Background(), "https://example.com/w", ""); err != nil {
		t.Fatalf("process: %v", err)
	}
	if h.downloader.audioCalls != 0 || h.downloader.videoCalls != 0 {
		t.Fatal("existing downloads should not be repeated")
	}
	if h.transcriber.calls != 0 {
		t.Fatal("existing transcript should not be re-transcribed")
	}
	if h.summarizer.calls == 0 {
		t.Fatal("summarization should still run")
	}
}

func TestProcessClaimDenied(t *testing.T) {
	h := newHarness(t)
	h.claims.deny = true

	_, err := h.orch.Process(context.Background(), "https://example.com/w", "")
	if !errors.Is(err, services.ErrResourceExhausted) {
		t.Fatalf("expected resource exhausted, got %v", err)
	}
	if h.downloader.audioCalls != 0 {
		t.Fatal("no stage should run without the claim")
	}
}

func TestProcessRetriesTransientDownload(t *testing.T) {
	h := newHarness(t)
	h.downloader.audioErrs = []error{
		services.Wrap(services.ErrTransient, "download", "fetch", "timeout", nil),
	}

	if _, err := h.orch.Process(context.Background(), "https://example.com/w", ""); err != nil {
		t.Fatalf("process: %v", err)
	}
	if h.downloader.audioCalls != 2 {
		t.Fatalf("audio calls = %d, want 2", h.downloader.audioCalls)
	}
}

func TestProcessFatalErrorFailsWithoutRetry(t *testing.T) {
	h := newHarness(t)
	h.downloader.audioErrs = []error{
		services.Wrap(services.ErrPermanent, "download", "fetch", "video removed", nil),
		services.Wrap(services.ErrPermanent, "download", "fetch", "video removed", nil),
	}

	if err := h.registry.Create("task-1", "https://example.com/w"); err != nil {
		t.Fatalf("create task: %v", err)
	}
	_, err := h.orch.Process(context.Background(), "https://example.com/w", "task-1")
	if !errors.Is(err, services.ErrPermanent) {
		t.Fatalf("expected permanent, got %v", err)
	}
	if h.downloader.audioCalls != 1 {
		t.Fatalf("audio calls = %d, want 1", h.downloader.audioCalls)
	}
	item := h.store.items["abc123"]
	if item.Status != StatusFailed {
		t.Fatalf("status = %q", item.Status)
	}
	if item.ErrorMessage == "" || !strings.Contains(item.ErrorMessage, "video removed") {
		t.Fatalf("error message = %q", item.ErrorMessage)
	}
	if strings.Contains(item.ErrorMessage, services.ErrPermanent.Error()) {
		t.Fatalf("stored message should drop the marker prefix, got %q", item.ErrorMessage)
	}
	snap, err := h.registry.Status("task-1")
	if err != nil {
		t.Fatalf("task status: %v", err)
	}
	if snap.Status != tasks.StatusFailed || !strings.Contains(snap.Error, "video removed") {
		t.Fatalf("task snapshot = %+v", snap)
	}
	if len(h.claims.held) != 0 {
		t.Fatal("claim should be released after failure")
	}
}

func TestProcessFallsBackOnUnusableSummary(t *testing.T) {
	h := newHarness(t)
	h.summarizer.responses = [][]byte{
		[]byte("not json at all"),
		[]byte(`{"title":"","blog_desc":"","body":[]}`),
	}

	if _, err := h.orch.Process(context.Background(), "https://example.com/w", ""); err != nil {
		t.Fatalf("process: %v", err)
	}
	item := h.store.items["abc123"]
	if item.Summary == nil || !item.Summary.Fallback {
		t.Fatalf("expected flagged fallback summary, got %+v", item.Summary)
	}
	if item.Status != StatusCompleted {
		t.Fatalf("status = %q", item.Status)
	}
	if h.summarizer.calls != 2 {
		t.Fatalf("summarizer calls = %d, want 2", h.summarizer.calls)
	}
}

func TestProcessRecordsStageStatuses(t *testing.T) {
	h := newHarness(t)
	if _, err := h.orch.Process(context.Background(), "https://example.com/w", ""); err != nil {
		t.Fatalf("process: %v", err)
	}

	want := []string{StatusDownloading, StatusTranscribing, StatusSummarizing, StatusAligning, StatusExtractingMedia}
	if len(h.store.statuses) != len(want) {
		t.Fatalf("statuses = %v", h.store.statuses)
	}
	for i, status := range want {
		if h.store.statuses[i] != status {
			t.Fatalf("statuses[%d] = %q, want %q", i, h.store.statuses[i], status)
		}
	}
}
