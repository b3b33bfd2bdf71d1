package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"blugr/internal/align"
	"blugr/internal/artifacts"
	"blugr/internal/config"
	"blugr/internal/docstore"
	"blugr/internal/logging"
	"blugr/internal/media"
	"blugr/internal/notifications"
	"blugr/internal/services"
	"blugr/internal/services/ytdlp"
	"blugr/internal/summary"
	"blugr/internal/tasks"
	"blugr/internal/transcript"
)

// Pipeline stage statuses recorded in the document store while an item is
// being processed.
const (
	StatusPending         = "pending"
	StatusDownloading     = "downloading"
	StatusTranscribing    = "transcribing"
	StatusSummarizing     = "summarizing"
	StatusAligning        = "aligning"
	StatusExtractingMedia = "extracting_media"
	StatusCompleted       = docstore.ItemStatusCompleted
	StatusFailed          = docstore.ItemStatusFailed
)

// Downloader resolves source metadata and fetches media files.
type Downloader interface {
	FetchMetadata(ctx context.Context, url string) (*ytdlp.Metadata, error)
	DownloadAudio(ctx context.Context, url, dest string) error
	DownloadVideo(ctx context.Context, url, dest string) error
	SaveThumbnail(ctx context.Context, thumbnailURL, dest string) error
}

// Transcriber converts downloaded audio into a time-coded transcript.
type Transcriber interface {
	PrepareAudio(ctx context.Context, source, dest string) error
	Transcribe(ctx context.Context, source, outputDir string) (transcript.Transcript, error)
}

// Summarizer produces the raw structured-summary bytes for a transcript.
type Summarizer interface {
	GenerateSummary(ctx context.Context, transcriptText string) ([]byte, error)
}

// MediaCoordinator extracts and publishes media for aligned headings.
type MediaCoordinator interface {
	ExtractForHeadings(ctx context.Context, contentID string, layout artifacts.Layout, results []align.HeadingMatches) int
	MostReplayedGIF(ctx context.Context, contentID string, layout artifacts.Layout, meta *ytdlp.Metadata) (string, error)
}

// ContentStore is the document-store surface the pipeline needs.
type ContentStore interface {
	Get(ctx context.Context, contentID string) (*docstore.Item, error)
	Upsert(ctx context.Context, item *docstore.Item) error
	EnsureItem(ctx context.Context, contentID, sourceURL string) (*docstore.Item, bool, error)
	SetStatus(ctx context.Context, contentID, status, errorMessage string) error
}

// ClaimLedger grants exclusive processing rights per content id.
type ClaimLedger interface {
	Acquire(ctx context.Context, contentID string) error
	Release(ctx context.Context, contentID string) error
}

// Orchestrator drives a source URL through download, transcription,
// summarization, alignment, media extraction and persistence. Every stage
// checks for its artifact before running, so a crashed or failed run resumes
// from the first missing artifact instead of repeating finished work.
type Orchestrator struct {
	cfg         *config.Config
	logger      *slog.Logger
	downloader  Downloader
	transcriber Transcriber
	summarizer  Summarizer
	extractor   MediaCoordinator
	store       ContentStore
	claims      ClaimLedger
	registry    *tasks.Registry
	notifier    notifications.Service

	retryAttempts int
	retryDelay    time.Duration
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Downloader  Downloader
	Transcriber Transcriber
	Summarizer  Summarizer
	Extractor   MediaCoordinator
	Store       ContentStore
	Claims      ClaimLedger
	Registry    *tasks.Registry
	Notifier    notifications.Service
	Logger      *slog.Logger
}

// New creates the orchestrator.
func New(cfg *config.Config, deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	attempts := cfg.Workflow.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Orchestrator{
		cfg:           cfg,
		logger:        logging.NewComponentLogger(logger, "pipeline"),
		downloader:    deps.Downloader,
		transcriber:   deps.Transcriber,
		summarizer:    deps.Summarizer,
		extractor:     deps.Extractor,
		store:         deps.Store,
		claims:        deps.Claims,
		registry:      deps.Registry,
		notifier:      notifier,
		retryAttempts: attempts,
		retryDelay:    time.Duration(cfg.Workflow.RetryDelaySeconds) * time.Second,
	}
}

// Resolve maps a source URL to its canonical content id without processing.
func (o *Orchestrator) Resolve(ctx context.Context, sourceURL string) (string, error) {
	meta, err := o.downloader.FetchMetadata(ctx, sourceURL)
	if err != nil {
		return "", err
	}
	return meta.ID, nil
}

// Process runs the full pipeline for a source URL and returns the content
// id. Completed content short-circuits without re-running any stage. The
// taskID is optional; when set, progress and the terminal state are reported
// to the task registry.
func (o *Orchestrator) Process(ctx context.Context, sourceURL, taskID string) (contentID string, err error) {
	meta, err := o.downloader.FetchMetadata(ctx, sourceURL)
	if err != nil {
		o.finishTask(taskID, "", err)
		return "", err
	}
	contentID = meta.ID
	ctx = services.WithContentID(ctx, contentID)
	logger := o.logger.With(slog.String(logging.FieldContentID, contentID))
	o.progress(taskID, 5)

	existing, err := o.store.Get(ctx, contentID)
	if err != nil && !errors.Is(err, services.ErrNotFound) {
		o.finishTask(taskID, contentID, err)
		return contentID, err
	}
	if existing.Completed() {
		logger.Info("content already processed, skipping")
		o.progress(taskID, 100)
		o.finishTask(taskID, contentID, nil)
		return contentID, nil
	}

	if err := o.claims.Acquire(ctx, contentID); err != nil {
		o.finishTask(taskID, contentID, err)
		return contentID, err
	}
	defer func() {
		if releaseErr := o.claims.Release(context.WithoutCancel(ctx), contentID); releaseErr != nil {
			logger.Warn("claim release failed", logging.Error(releaseErr))
		}
	}()

	if _, _, err := o.store.EnsureItem(ctx, contentID, sourceURL); err != nil {
		o.finishTask(taskID, contentID, err)
		return contentID, err
	}
	_ = o.notifier.NotifyProcessingStarted(ctx, contentID, sourceURL)

	if err := o.run(ctx, logger, meta, sourceURL, taskID); err != nil {
		o.recordFailure(ctx, logger, contentID, err)
		o.finishTask(taskID, contentID, err)
		return contentID, err
	}

	o.progress(taskID, 100)
	o.finishTask(taskID, contentID, nil)
	return contentID, nil
}

func (o *Orchestrator) run(ctx context.Context, logger *slog.Logger, meta *ytdlp.Metadata, sourceURL, taskID string) error {
	contentID := meta.ID
	layout := artifacts.NewLayout(o.cfg.ContentDir(contentID))
	if err := layout.EnsureDirs(); err != nil {
		return err
	}

	if err := o.stageDownload(ctx, logger, meta, sourceURL, layout); err != nil {
		return err
	}
	o.progress(taskID, 30)

	tr, err := o.stageTranscribe(ctx, logger, contentID, layout)
	if err != nil {
		return err
	}
	o.progress(taskID, 55)

	sum, err := o.stageSummarize(ctx, logger, contentID, layout, tr)
	if err != nil {
		return err
	}
	o.progress(taskID, 70)

	results, err := o.stageAlign(ctx, logger, contentID, layout, tr, sum)
	if err != nil {
		return err
	}
	o.progress(taskID, 80)

	mediaURLs, err := o.stageExtractMedia(ctx, logger, contentID, layout, meta, results)
	if err != nil {
		return err
	}
	o.progress(taskID, 95)

	item := &docstore.Item{
		ContentID:     contentID,
		SourceURL:     sourceURL,
		Status:        StatusCompleted,
		Transcript:    &tr,
		Summary:       &sum,
		SearchResults: results,
		MediaURLs:     mediaURLs,
	}
	if err := o.store.Upsert(ctx, item); err != nil {
		return err
	}

	logger.Info("pipeline completed",
		slog.String("title", sum.Title),
		slog.Int("sections", len(sum.Sections)),
		slog.Bool("summary_fallback", sum.Fallback))
	_ = o.notifier.NotifyProcessingCompleted(ctx, contentID, sum.Title)
	return nil
}

func (o *Orchestrator) stageDownload(ctx context.Context, logger *slog.Logger, meta *ytdlp.Metadata, sourceURL string, layout artifacts.Layout) error {
	contentID := meta.ID
	if err := o.store.SetStatus(ctx, contentID, StatusDownloading, ""); err != nil {
		return err
	}

	if !artifacts.Exists(layout.AudioPath()) {
		if err := o.withRetry(ctx, "download audio", func() error {
			return o.downloader.DownloadAudio(ctx, sourceURL, layout.AudioPath())
		}); err != nil {
			return err
		}
	}
	if !artifacts.Exists(layout.VideoPath()) {
		if err := o.withRetry(ctx, "download video", func() error {
			return o.downloader.DownloadVideo(ctx, sourceURL, layout.VideoPath())
		}); err != nil {
			return err
		}
	}

	// Thumbnail and heatmap are enrichment, not stage gates.
	if !artifacts.Exists(layout.ThumbnailPath()) {
		if err := o.downloader.SaveThumbnail(ctx, meta.Thumbnail, layout.ThumbnailPath()); err != nil {
			logger.Warn("thumbnail fetch failed", logging.Error(err))
		}
	}
	if len(meta.Heatmap) > 0 && !artifacts.Exists(layout.HeatmapPath()) {
		if data, err := json.MarshalIndent(meta.Heatmap, "", "  "); err == nil {
			if err := os.WriteFile(layout.HeatmapPath(), data, 0o644); err != nil {
				logger.Warn("heatmap write failed", logging.Error(err))
			}
		}
	}
	return nil
}

func (o *Orchestrator) stageTranscribe(ctx context.Context, logger *slog.Logger, contentID string, layout artifacts.Layout) (transcript.Transcript, error) {
	if tr, err := layout.LoadTranscript(); err == nil {
		logger.Info("transcript artifact present, skipping transcription")
		return *tr, nil
	} else if errors.Is(err, services.ErrInvalidInput) {
		logger.Warn("transcript artifact malformed, re-running transcription", logging.Error(err))
	}

	if err := o.store.SetStatus(ctx, contentID, StatusTranscribing, ""); err != nil {
		return transcript.Transcript{}, err
	}

	wavPath := filepath.Join(layout.Root(), "whisper_input.wav")
	var tr transcript.Transcript
	err := o.withRetry(ctx, "transcribe", func() error {
		if err := o.transcriber.PrepareAudio(ctx, layout.AudioPath(), wavPath); err != nil {
			return err
		}
		result, err := o.transcriber.Transcribe(ctx, wavPath, layout.Root())
		if err != nil {
			return err
		}
		tr = result
		return nil
	})
	if err != nil {
		return transcript.Transcript{}, err
	}

	if err := layout.SaveTranscript(&tr); err != nil {
		return transcript.Transcript{}, err
	}
	_ = os.Remove(wavPath)
	return tr, nil
}

func (o *Orchestrator) stageSummarize(ctx context.Context, logger *slog.Logger, contentID string, layout artifacts.Layout, tr transcript.Transcript) (summary.Summary, error) {
	if sum, err := layout.LoadSummary(); err == nil {
		logger.Info("summary artifact present, skipping summarization")
		return sum, nil
	} else if errors.Is(err, services.ErrInvalidInput) {
		logger.Warn("summary artifact malformed, re-running summarization", logging.Error(err))
	}

	if err := o.store.SetStatus(ctx, contentID, StatusSummarizing, ""); err != nil {
		return summary.Summary{}, err
	}

	sum, err := o.generateSummary(ctx, logger, tr.Text)
	if err != nil {
		return summary.Summary{}, err
	}
	if err := layout.SaveSummary(sum); err != nil {
		return summary.Summary{}, err
	}
	return sum, nil
}

// generateSummary asks the model for a structured summary. A response that
// fails validation earns exactly one regeneration; if the second response is
// also unusable the pipeline degrades to a flagged fallback summary rather
// than failing the whole run.
func (o *Orchestrator) generateSummary(ctx context.Context, logger *slog.Logger, transcriptText string) (summary.Summary, error) {
	var lastDecodeErr error
	for attempt := 0; attempt < 2; attempt++ {
		var raw []byte
		err := o.withRetry(ctx, "summarize", func() error {
			var genErr error
			raw, genErr = o.summarizer.GenerateSummary(ctx, transcriptText)
			return genErr
		})
		if err != nil {
			return summary.Summary{}, err
		}

		sum, decodeErr := summary.Decode(raw)
		if decodeErr == nil {
			return sum, nil
		}
		lastDecodeErr = decodeErr
		logger.Warn("summary response failed validation", logging.Error(decodeErr))
	}

	logger.Warn("substituting fallback summary", logging.Error(lastDecodeErr))
	return summary.FallbackFor(transcriptText), nil
}

func (o *Orchestrator) stageAlign(ctx context.Context, logger *slog.Logger, contentID string, layout artifacts.Layout, tr transcript.Transcript, sum summary.Summary) ([]align.HeadingMatches, error) {
	if results, err := layout.LoadSearchResults(); err == nil {
		logger.Info("search results artifact present, skipping alignment")
		return results, nil
	} else if errors.Is(err, services.ErrInvalidInput) {
		logger.Warn("search results artifact malformed, re-running alignment", logging.Error(err))
	}

	if err := o.store.SetStatus(ctx, contentID, StatusAligning, ""); err != nil {
		return nil, err
	}

	space, err := align.Build(tr.Segments)
	if err != nil {
		return nil, err
	}

	results := make([]align.HeadingMatches, 0, len(sum.Sections))
	for _, heading := range sum.Headings() {
		matches, err := space.Query(heading, align.DefaultTopK)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			logger.Info("heading shares no vocabulary with transcript",
				slog.String(logging.FieldHeading, heading))
		}
		results = append(results, align.HeadingMatches{Heading: heading, Matches: matches})
	}

	if err := layout.SaveSearchResults(results); err != nil {
		return nil, err
	}
	return results, nil
}

func (o *Orchestrator) stageExtractMedia(ctx context.Context, logger *slog.Logger, contentID string, layout artifacts.Layout, meta *ytdlp.Metadata, results []align.HeadingMatches) (map[string]string, error) {
	if err := o.store.SetStatus(ctx, contentID, StatusExtractingMedia, ""); err != nil {
		return nil, err
	}

	failed := o.extractor.ExtractForHeadings(ctx, contentID, layout, results)
	if failed > 0 {
		logger.Warn("some headings have no media", slog.Int("failed", failed))
	}
	if err := ctx.Err(); err != nil {
		return nil, services.Wrap(services.ErrTransient, "pipeline", "media", "media extraction interrupted", err)
	}

	mediaURLs := make(map[string]string)
	for i := range results {
		if len(results[i].Matches) == 0 {
			continue
		}
		if url := results[i].Matches[0].MediaURL; url != "" {
			mediaURLs[media.SlugFor(results[i].Heading, i)] = url
		}
	}

	gifURL, err := o.extractor.MostReplayedGIF(ctx, contentID, layout, meta)
	if err != nil {
		logger.Warn("most replayed gif failed", logging.Error(err))
	} else if gifURL != "" {
		mediaURLs["most_replayed"] = gifURL
	}

	// Refresh the artifact so persisted rankings carry media urls.
	if err := layout.SaveSearchResults(results); err != nil {
		return nil, err
	}
	return mediaURLs, nil
}

// withRetry runs fn under the central retry policy: transient and
// resource-exhausted failures are retried with a fixed delay, everything
// else fails immediately.
func (o *Orchestrator) withRetry(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= o.retryAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !services.Retryable(lastErr) {
			return lastErr
		}
		if attempt == o.retryAttempts {
			break
		}
		o.logger.Warn("retrying operation",
			slog.String("operation", operation),
			slog.Int("attempt", attempt),
			logging.Error(lastErr))
		select {
		case <-ctx.Done():
			return services.Wrap(services.ErrTransient, "pipeline", operation, "canceled during retry wait", ctx.Err())
		case <-time.After(o.retryDelay):
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operation, o.retryAttempts, lastErr)
}

func (o *Orchestrator) recordFailure(ctx context.Context, logger *slog.Logger, contentID string, err error) {
	logger.Error("pipeline failed", logging.Error(err))
	statusCtx := context.WithoutCancel(ctx)
	if setErr := o.store.SetStatus(statusCtx, contentID, StatusFailed, services.Details(err).Message); setErr != nil {
		logger.Warn("failure status write failed", logging.Error(setErr))
	}
	_ = o.notifier.NotifyProcessingFailed(statusCtx, contentID, err)
}

func (o *Orchestrator) progress(taskID string, value float64) {
	if taskID == "" || o.registry == nil {
		return
	}
	_ = o.registry.UpdateProgress(taskID, value)
}

func (o *Orchestrator) finishTask(taskID, contentID string, err error) {
	if taskID == "" || o.registry == nil {
		return
	}
	if err != nil {
		_ = o.registry.Fail(taskID, services.Details(err).Message)
		return
	}
	_ = o.registry.Complete(taskID, contentID)
}
