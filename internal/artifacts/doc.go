// Package artifacts manages the on-disk layout of per-content pipeline
// outputs. Artifact presence is what makes the pipeline resumable.
package artifacts
