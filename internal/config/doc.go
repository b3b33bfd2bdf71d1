// Package config loads, normalizes, and validates the TOML configuration
// for the blugr daemon and CLI. Load resolves the config path (explicit
// flag, ~/.config/blugr/config.toml, or ./blugr.toml), applies defaults,
// expands ~ in path fields, and picks up GEMINI_API_KEY and
// BLUGR_MONGODB_URI from the environment when unset.
package config
