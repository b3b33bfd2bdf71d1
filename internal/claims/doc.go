// Package claims persists per-content-id work claims in SQLite so that
// concurrent requests for the same source resolve to exactly one pipeline
// run.
package claims
