// Package gemini generates structured article summaries from transcripts
// through the Gemini API.
package gemini
