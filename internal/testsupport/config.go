package testsupport

import (
	"path/filepath"
	"testing"

	"blugr/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Gemini.APIKey = "test"
	cfg.Notifications.NtfyTopic = ""

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithAPIToken sets the daemon API bearer token on the test config.
func WithAPIToken(token string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Paths.APIToken = token
	}
}

// WithRetry overrides the workflow retry policy on the test config.
func WithRetry(attempts, delaySeconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.RetryAttempts = attempts
		cfg.Workflow.RetryDelaySeconds = delaySeconds
	}
}

// WithClaimTTL overrides the claim staleness window on the test config.
func WithClaimTTL(minutes int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.ClaimTTLMinutes = minutes
	}
}
