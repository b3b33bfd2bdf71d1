// Package main hosts the blugr CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the daemon API: submitting video URLs for processing,
// inspecting background tasks, showing finished content items, and
// configuration scaffolding. It centralizes configuration resolution and
// server address discovery so subcommands can focus on user experience
// instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
