// Package tasks tracks background processing jobs in memory, enforcing an
// admission ceiling and serving status snapshots to the HTTP API.
package tasks
