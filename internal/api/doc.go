// Package api defines the JSON payloads exchanged between the daemon's HTTP
// surface and its clients.
package api
