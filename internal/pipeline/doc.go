// Package pipeline orchestrates the video-to-article workflow: download,
// transcription, summarization, heading alignment, media extraction and
// persistence, resuming from on-disk artifacts after interruption.
package pipeline
