// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp content IDs, stage names, task IDs, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the retryable/fatal buckets the orchestrator acts on.
//
// Use these helpers when wiring new stage logic so operational behaviour
// stays uniform across the pipeline.
package services
