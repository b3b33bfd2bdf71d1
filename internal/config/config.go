package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	LibraryDir string `toml:"library_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
	APIToken   string `toml:"api_token"`
}

// Downloader contains configuration for the yt-dlp source acquisition client.
type Downloader struct {
	Binary         string `toml:"binary"`
	AudioFormat    string `toml:"audio_format"`
	VideoFormat    string `toml:"video_format"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Whisper contains configuration for WhisperX transcription.
type Whisper struct {
	Model       string `toml:"model"`
	CUDAEnabled bool   `toml:"cuda_enabled"`
	Language    string `toml:"language"`
}

// Gemini contains configuration for the text-generation collaborator.
type Gemini struct {
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Storage contains configuration for the S3 object store.
type Storage struct {
	Enabled bool   `toml:"enabled"`
	Bucket  string `toml:"bucket"`
	Region  string `toml:"region"`
	Prefix  string `toml:"prefix"`
}

// DocStore contains configuration for the MongoDB document store.
type DocStore struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Tasks contains configuration for the background task registry.
type Tasks struct {
	// MaxConcurrent caps non-terminal tasks; 0 means 2x available parallelism.
	MaxConcurrent    int `toml:"max_concurrent"`
	RetentionMinutes int `toml:"retention_minutes"`
}

// Media contains configuration for screenshot/clip/GIF extraction.
type Media struct {
	FFmpegBinary string `toml:"ffmpeg_binary"`
	ClipSeconds  int    `toml:"clip_seconds"`
	GIFEnabled   bool   `toml:"gif_enabled"`
	GIFWidth     int    `toml:"gif_width"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Completed      bool   `toml:"completed"`
	Errors         bool   `toml:"errors"`
}

// Workflow contains configuration for pipeline retry behavior.
type Workflow struct {
	RetryAttempts     int `toml:"retry_attempts"`
	RetryDelaySeconds int `toml:"retry_delay_seconds"`
	ClaimTTLMinutes   int `toml:"claim_ttl_minutes"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for the blugr daemon.
//
// Configuration sections by subsystem:
//   - Paths: artifact library, log directory, API bind address
//   - Downloader: yt-dlp settings for source acquisition
//   - Whisper: WhisperX transcription settings
//   - Gemini: text-generation collaborator settings
//   - Storage: S3 object store for media assets
//   - DocStore: MongoDB content item persistence
//   - Tasks: admission ceiling and retention for background tasks
//   - Media: ffmpeg extraction settings
//   - Notifications: ntfy push notification settings
//   - Workflow: retry policy and claim TTL
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Downloader    Downloader    `toml:"downloader"`
	Whisper       Whisper       `toml:"whisper"`
	Gemini        Gemini        `toml:"gemini"`
	Storage       Storage       `toml:"storage"`
	DocStore      DocStore      `toml:"docstore"`
	Tasks         Tasks         `toml:"tasks"`
	Media         Media         `toml:"media"`
	Notifications Notifications `toml:"notifications"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/blugr/config.toml")
}

// SampleConfig returns the embedded sample configuration document.
func SampleConfig() string {
	return sampleConfig
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("blugr.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LibraryDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ContentDir returns the per-content artifact directory for a content id.
func (c *Config) ContentDir(contentID string) string {
	return filepath.Join(c.Paths.LibraryDir, contentID)
}

// ClaimDBPath returns the path of the local claim ledger database.
func (c *Config) ClaimDBPath() string {
	return filepath.Join(c.Paths.LogDir, "claims.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
