// Package logging wraps log/slog with the handlers, attribute helpers, and
// context plumbing used across the daemon. Console output is for interactive
// runs; JSON output is for log shipping. Context-derived fields (content id,
// stage, task id, correlation id) keep pipeline logs traceable per run.
package logging
