package config

import (
	"os"
	"strings"
)

// normalize expands path fields and applies environment overrides.
func (c *Config) normalize() error {
	var err error
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}

	if c.Gemini.APIKey == "" {
		c.Gemini.APIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if c.DocStore.URI == "" {
		c.DocStore.URI = strings.TrimSpace(os.Getenv("BLUGR_MONGODB_URI"))
	}

	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	c.Storage.Prefix = strings.Trim(strings.TrimSpace(c.Storage.Prefix), "/")
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	return nil
}
