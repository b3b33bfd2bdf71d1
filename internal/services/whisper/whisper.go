package whisper

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"blugr/internal/config"
	"blugr/internal/services"
	"blugr/internal/transcript"
)

// Command names and invocation constants for external tools.
const (
	UVXCommand    = "uvx"
	FFmpegCommand = "ffmpeg"

	DefaultModel      = "large-v3-turbo"
	CUDAIndexURL      = "https://download.pytorch.org/whl/cu128"
	PypiIndexURL      = "https://pypi.org/simple"
	BatchSize         = "4"
	SegmentResolution = "sentence"
	OutputFormat      = "all"
	CPUDevice         = "cpu"
	CUDADevice        = "cuda"
	CPUComputeType    = "float32"
)

// Service runs transcription through the whisperx CLI.
type Service struct {
	model         string
	cudaEnabled   bool
	language      string
	ffmpegBinary  string
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a transcription service from configuration.
func NewService(cfg *config.Config) *Service {
	model := cfg.Whisper.Model
	if model == "" {
		model = DefaultModel
	}
	ffmpegBinary := cfg.Media.FFmpegBinary
	if ffmpegBinary == "" {
		ffmpegBinary = FFmpegCommand
	}
	return &Service{
		model:        model,
		cudaEnabled:  cfg.Whisper.CUDAEnabled,
		language:     cfg.Whisper.Language,
		ffmpegBinary: ffmpegBinary,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	return s.model
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// PrepareAudio converts a downloaded audio file into the mono 16kHz WAV
// whisperx expects.
func (s *Service) PrepareAudio(ctx context.Context, source, dest string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
	if err := s.run(ctx, s.ffmpegBinary, args...); err != nil {
		return services.Wrap(services.ErrTransient, "transcribe", "prepare", "convert audio for transcription", err)
	}
	return nil
}

// Transcribe runs whisperx over a prepared WAV file and returns the
// validated transcript. whisperx writes its output files next to outputDir;
// the JSON output named after the source basename is the one parsed here.
func (s *Service) Transcribe(ctx context.Context, source, outputDir string) (transcript.Transcript, error) {
	if source == "" {
		return transcript.Transcript{}, services.Wrap(services.ErrInvalidInput, "transcribe", "run", "source path required", nil)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return transcript.Transcript{}, services.Wrap(services.ErrPermanent, "transcribe", "run", "ensure output dir", err)
	}

	args := s.buildArgs(source, outputDir)
	if err := s.run(ctx, UVXCommand, args...); err != nil {
		return transcript.Transcript{}, services.Wrap(services.ErrTransient, "transcribe", "run", "whisperx invocation failed", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	jsonPath := filepath.Join(outputDir, baseName+".json")
	return LoadTranscript(jsonPath)
}

// buildArgs constructs the uvx command arguments for whisperx.
func (s *Service) buildArgs(source, outputDir string) []string {
	args := make([]string, 0, 24)

	if s.cudaEnabled {
		args = append(args,
			"--index-url", CUDAIndexURL,
			"--extra-index-url", PypiIndexURL,
		)
	} else {
		args = append(args, "--index-url", PypiIndexURL)
	}

	args = append(args,
		"whisperx",
		source,
		"--model", s.model,
		"--batch_size", BatchSize,
		"--output_dir", outputDir,
		"--output_format", OutputFormat,
		"--segment_resolution", SegmentResolution,
	)

	if s.language != "" {
		args = append(args, "--language", s.language)
	}

	if s.cudaEnabled {
		args = append(args, "--device", CUDADevice)
	} else {
		args = append(args, "--device", CPUDevice, "--compute_type", CPUComputeType)
	}

	return args
}

type whisperSegment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

type whisperPayload struct {
	Segments []whisperSegment `json:"segments"`
}

// LoadTranscript parses a whisperx JSON output file into a validated
// transcript. Segment ids are assigned by position.
func LoadTranscript(jsonPath string) (transcript.Transcript, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return transcript.Transcript{}, services.Wrap(services.ErrTransient, "transcribe", "load",
			fmt.Sprintf("read whisperx output %s", jsonPath), err)
	}
	var payload whisperPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return transcript.Transcript{}, services.Wrap(services.ErrInvalidInput, "transcribe", "load",
			"parse whisperx json", err)
	}

	segments := make([]transcript.Segment, 0, len(payload.Segments))
	for i, seg := range payload.Segments {
		segments = append(segments, transcript.Segment{
			ID:    i,
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	return transcript.New(segments)
}
