package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"blugr/internal/align"
	"blugr/internal/fileutil"
	"blugr/internal/services"
	"blugr/internal/summary"
	"blugr/internal/transcript"
)

// Artifact filenames inside a content directory.
const (
	AudioFile          = "audio.m4a"
	VideoFile          = "video.mp4"
	ThumbnailFile      = "thumbnail.jpg"
	HeatmapFile        = "replay_heatmap.json"
	TranscriptTextFile = "transcript.txt"
	TranscriptJSONFile = "transcript.json"
	SummaryFile        = "summary.json"
	SearchResultsFile  = "search_results.json"
	MediaDirName       = "media"
)

// Layout resolves artifact paths under one content directory. Stage
// completion is defined by artifact presence, so loads validate structure
// and report malformed files as invalid input; the pipeline then re-runs
// the producing stage instead of trusting a corrupt file.
type Layout struct {
	root string
}

// NewLayout returns the layout rooted at dir.
func NewLayout(dir string) Layout {
	return Layout{root: dir}
}

func (l Layout) Root() string               { return l.root }
func (l Layout) AudioPath() string          { return filepath.Join(l.root, AudioFile) }
func (l Layout) VideoPath() string          { return filepath.Join(l.root, VideoFile) }
func (l Layout) ThumbnailPath() string      { return filepath.Join(l.root, ThumbnailFile) }
func (l Layout) HeatmapPath() string        { return filepath.Join(l.root, HeatmapFile) }
func (l Layout) TranscriptTextPath() string { return filepath.Join(l.root, TranscriptTextFile) }
func (l Layout) TranscriptJSONPath() string { return filepath.Join(l.root, TranscriptJSONFile) }
func (l Layout) SummaryPath() string        { return filepath.Join(l.root, SummaryFile) }
func (l Layout) SearchResultsPath() string  { return filepath.Join(l.root, SearchResultsFile) }
func (l Layout) MediaDir() string           { return filepath.Join(l.root, MediaDirName) }

// MediaPath returns the path for one extracted media file.
func (l Layout) MediaPath(filename string) string {
	return filepath.Join(l.root, MediaDirName, filename)
}

// EnsureDirs creates the content directory and its media subdirectory.
func (l Layout) EnsureDirs() error {
	if err := os.MkdirAll(l.MediaDir(), 0o755); err != nil {
		return services.Wrap(services.ErrPermanent, "artifacts", "ensure",
			fmt.Sprintf("create %s", l.MediaDir()), err)
	}
	return nil
}

// Exists reports whether the named artifact file is present.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// SaveTranscript writes both the JSON segment file and the plain-text join.
func (l Layout) SaveTranscript(t *transcript.Transcript) error {
	if err := transcript.Validate(t.Segments); err != nil {
		return err
	}
	if err := writeJSON(l.TranscriptJSONPath(), t); err != nil {
		return err
	}
	if err := writeFile(l.TranscriptTextPath(), []byte(t.Text)); err != nil {
		return err
	}
	return nil
}

// LoadTranscript reads and validates the transcript JSON artifact.
func (l Layout) LoadTranscript() (*transcript.Transcript, error) {
	data, err := os.ReadFile(l.TranscriptJSONPath())
	if err != nil {
		return nil, readError("transcript", l.TranscriptJSONPath(), err)
	}
	var t transcript.Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, services.Wrap(services.ErrInvalidInput, "artifacts", "transcript",
			"malformed transcript artifact", err)
	}
	if err := transcript.Validate(t.Segments); err != nil {
		return nil, err
	}
	return &t, nil
}

// SaveSummary writes the summary artifact.
func (l Layout) SaveSummary(s summary.Summary) error {
	if err := summary.Validate(s); err != nil {
		return err
	}
	return writeJSON(l.SummaryPath(), s)
}

// LoadSummary reads and validates the summary artifact.
func (l Layout) LoadSummary() (summary.Summary, error) {
	data, err := os.ReadFile(l.SummaryPath())
	if err != nil {
		return summary.Summary{}, readError("summary", l.SummaryPath(), err)
	}
	return summary.Decode(data)
}

// SaveSearchResults writes the per-heading match rankings.
func (l Layout) SaveSearchResults(results []align.HeadingMatches) error {
	return writeJSON(l.SearchResultsPath(), results)
}

// LoadSearchResults reads the per-heading match rankings.
func (l Layout) LoadSearchResults() ([]align.HeadingMatches, error) {
	data, err := os.ReadFile(l.SearchResultsPath())
	if err != nil {
		return nil, readError("search results", l.SearchResultsPath(), err)
	}
	var results []align.HeadingMatches
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, services.Wrap(services.ErrInvalidInput, "artifacts", "search",
			"malformed search results artifact", err)
	}
	for _, entry := range results {
		if entry.Heading == "" {
			return nil, services.Wrap(services.ErrInvalidInput, "artifacts", "search",
				"search results entry missing heading", nil)
		}
	}
	return results, nil
}

func readError(what, path string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return services.Wrap(services.ErrNotFound, "artifacts", "load",
			fmt.Sprintf("%s artifact missing at %s", what, path), err)
	}
	return services.Wrap(services.ErrTransient, "artifacts", "load",
		fmt.Sprintf("read %s artifact", what), err)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrPermanent, "artifacts", "write",
			fmt.Sprintf("encode %s", filepath.Base(path)), err)
	}
	return writeFile(path, data)
}

// writeFile writes through a temp file and renames so readers never observe
// a partially written artifact.
func writeFile(path string, data []byte) error {
	if err := fileutil.WriteAtomic(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrTransient, "artifacts", "write",
			fmt.Sprintf("write %s", filepath.Base(path)), err)
	}
	return nil
}
