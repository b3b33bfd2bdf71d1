// Package daemon supervises the background processing workers, enforces
// single-instance execution, and serves the HTTP API.
package daemon
