package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateGemini(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateDocStore(); err != nil {
		return err
	}
	if err := c.validateTasks(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.LibraryDir == "" {
		return errors.New("paths.library_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateGemini() error {
	if c.Gemini.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/blugr/config.toml"
		}
		return fmt.Errorf("gemini.api_key is required. Set GEMINI_API_KEY env var or edit %s (create with 'blugr config init')", defaultPath)
	}
	if c.Gemini.Model == "" {
		return errors.New("gemini.model must be set")
	}
	if c.Gemini.TimeoutSeconds <= 0 {
		return errors.New("gemini.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if !c.Storage.Enabled {
		return nil
	}
	if c.Storage.Bucket == "" {
		return errors.New("storage.bucket must be set when storage.enabled is true")
	}
	if c.Storage.Region == "" {
		return errors.New("storage.region must be set when storage.enabled is true")
	}
	return nil
}

func (c *Config) validateDocStore() error {
	if c.DocStore.URI == "" {
		return errors.New("docstore.uri is required. Set BLUGR_MONGODB_URI env var or edit the config file")
	}
	if c.DocStore.Database == "" {
		return errors.New("docstore.database must be set")
	}
	if c.DocStore.Collection == "" {
		return errors.New("docstore.collection must be set")
	}
	return nil
}

func (c *Config) validateTasks() error {
	if c.Tasks.MaxConcurrent < 0 {
		return errors.New("tasks.max_concurrent must not be negative")
	}
	if c.Tasks.RetentionMinutes <= 0 {
		return errors.New("tasks.retention_minutes must be positive")
	}
	return nil
}

func (c *Config) validateMedia() error {
	if c.Media.FFmpegBinary == "" {
		return errors.New("media.ffmpeg_binary must be set")
	}
	if c.Media.ClipSeconds <= 0 {
		return errors.New("media.clip_seconds must be positive")
	}
	if c.Media.GIFEnabled && c.Media.GIFWidth <= 0 {
		return errors.New("media.gif_width must be positive when media.gif_enabled is true")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.RetryAttempts < 1 {
		return errors.New("workflow.retry_attempts must be at least 1")
	}
	if c.Workflow.RetryDelaySeconds < 0 {
		return errors.New("workflow.retry_delay_seconds must not be negative")
	}
	if c.Workflow.ClaimTTLMinutes <= 0 {
		return errors.New("workflow.claim_ttl_minutes must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}
